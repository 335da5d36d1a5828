package daemon

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/s22625/voxfs/internal/voice"
)

const (
	// ShutdownTimeout bounds the backend stop call made on the way out
	ShutdownTimeout = 10 * time.Second
	killWait        = 5 * time.Second
)

// Config wires a watcher to its backend
type Config struct {
	StateDir string
	Server   string
	Username string

	Session voice.SessionService
	Listing voice.ListingProvider

	PollInterval        time.Duration
	NotifyDuration      time.Duration
	StopMessageDuration time.Duration

	// LogOutput overrides the log file under the state dir
	LogOutput io.Writer
}

// Daemon runs a headless voice monitor and logs what it sees
type Daemon struct {
	cfg     Config
	logger  *log.Logger
	monitor *voice.Monitor
	notes   *voice.Notifier

	stopCh   chan struct{}
	stopOnce sync.Once
	ready    chan struct{}
}

// New creates a watcher. Nothing runs until Run.
func New(cfg Config) *Daemon {
	d := &Daemon{
		cfg:    cfg,
		logger: log.New(io.Discard, "", log.LstdFlags),
		stopCh: make(chan struct{}),
		ready:  make(chan struct{}),
	}
	d.notes = voice.NewNotifier(func(msg string) {
		if msg != "" {
			d.logger.Printf("notification: %s", msg)
		}
	})
	d.monitor = voice.NewMonitor(cfg.Session, cfg.Listing, d.notes, voice.Options{
		PollInterval:        cfg.PollInterval,
		NotifyDuration:      cfg.NotifyDuration,
		StopMessageDuration: cfg.StopMessageDuration,
		Logger:              d.logger,
		Status: voice.StatusFunc(func(text string) {
			if text != "" {
				d.logger.Printf("status: %s", text)
			}
		}),
		OnEvent: func(e voice.Event) {
			if e.Recognized() {
				d.logger.Printf("event %s: %s", e.Kind(), e.Message())
			}
		},
	})
	return d
}

// Ready is closed once the watcher has written its PID file and started listening
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Snapshot reports the current monitor state
func (d *Daemon) Snapshot() Snapshot {
	return Snapshot{
		PID:          os.Getpid(),
		Server:       d.cfg.Server,
		Active:       d.monitor.Active(),
		Status:       d.monitor.Status(),
		LastText:     d.monitor.LastText(),
		Notification: d.notes.Current(),
	}
}

// Toggle flips the voice session on or off without exiting the watcher
func (d *Daemon) Toggle(ctx context.Context) bool {
	return d.monitor.Toggle(ctx)
}

// Run starts the voice session and blocks until a signal, Stop, or ctx ends it.
// On the way out the backend session is stopped and the monitor closed.
func (d *Daemon) Run(ctx context.Context) error {
	if err := EnsureStateDir(d.cfg.StateDir); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	out := d.cfg.LogOutput
	if out == nil {
		logFile, err := os.OpenFile(LogFilePath(d.cfg.StateDir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()
		out = logFile
	}
	d.logger.SetOutput(out)

	if err := WritePID(d.cfg.StateDir); err != nil {
		return err
	}
	defer RemovePID(d.cfg.StateDir)

	execPath, _ := os.Executable()
	if err := WriteMetadata(d.cfg.StateDir, &Metadata{
		PID:       os.Getpid(),
		StartedAt: time.Now().UTC(),
		ExecPath:  execPath,
		Server:    d.cfg.Server,
		Username:  d.cfg.Username,
	}); err != nil {
		d.logger.Printf("warning: failed to write metadata: %v", err)
	}

	d.logger.Printf("voice watcher started (pid=%d, server=%s)", os.Getpid(), d.cfg.Server)

	socket := NewSocketServer(d.cfg.StateDir, d, d.logger)
	if err := socket.Start(); err != nil {
		d.logger.Printf("warning: control socket unavailable: %v", err)
	} else {
		defer socket.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	d.monitor.Start(ctx)
	close(d.ready)

	select {
	case sig := <-sigCh:
		d.logger.Printf("received signal %v, shutting down", sig)
	case <-d.stopCh:
		d.logger.Printf("stop requested")
	case <-ctx.Done():
		d.logger.Printf("context done: %v", ctx.Err())
	}

	d.shutdown()
	d.logger.Printf("voice watcher stopped")
	return nil
}

func (d *Daemon) shutdown() {
	if d.monitor.Active() {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		d.monitor.Stop(ctx)
		cancel()
	}
	d.monitor.Close()
	d.notes.Close()
}

// Stop asks Run to return
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

// StartInBackground launches the watcher as a detached process running the
// hidden voice-daemon command. Returns the PID of the spawned process.
func StartInBackground(stateDir, server string) (int, error) {
	if pid := GetRunningPID(stateDir); pid != 0 {
		return pid, nil
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to find executable: %w", err)
	}

	cmd := &exec.Cmd{
		Path: executable,
		Args: []string{executable, "voice-daemon", "--state-dir", stateDir, "--server", server},
		// Detach from parent process group
		SysProcAttr: &syscall.SysProcAttr{
			Setsid: true,
		},
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start voice watcher: %w", err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()

	// Give it a moment to write its PID file
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if GetRunningPID(stateDir) == pid {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	return pid, nil
}

// Kill stops the watcher for the given state dir. It returns false when no
// watcher was running.
func Kill(stateDir string) (bool, error) {
	pid := GetRunningPID(stateDir)
	if pid == 0 {
		RemovePID(stateDir)
		return false, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, err
	}

	// SIGTERM lets the watcher stop the backend session first
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return false, err
	}

	deadline := time.Now().Add(killWait)
	for time.Now().Before(deadline) && IsProcessRunning(pid) {
		time.Sleep(50 * time.Millisecond)
	}

	// Clean up PID file if process didn't
	RemovePID(stateDir)

	return true, nil
}
