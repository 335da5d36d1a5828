package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/s22625/voxfs/internal/daemon"
	"github.com/s22625/voxfs/internal/voice"
	"github.com/spf13/cobra"
)

type voiceOptions struct {
	Detach bool
}

func newVoiceCmd() *cobra.Command {
	opts := &voiceOptions{}

	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Run voice commands against the remote file system",
		Long: `Start a backend speech session and follow it.

In the foreground the status line, recognized commands and notifications
are printed until interrupted. With --detach a background watcher keeps
the session running; use 'voice status', 'voice toggle' and 'voice stop'
to control it.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Detach {
				return runVoiceDetach()
			}
			return runVoiceForeground(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&opts.Detach, "detach", "d", false, "Run the watcher in the background")

	cmd.AddCommand(newVoiceStatusCmd())
	cmd.AddCommand(newVoiceToggleCmd())
	cmd.AddCommand(newVoiceStopCmd())
	return cmd
}

// watcherConfig builds the daemon config for the logged-in session
func watcherConfig(e *env) daemon.Config {
	return daemon.Config{
		StateDir:            e.cfg.StateDir,
		Server:              e.cfg.Server,
		Username:            e.session.Username,
		Session:             voice.NewBackendSession(e.client),
		Listing:             voice.ListingFromClient(e.client, nil),
		PollInterval:        e.cfg.Voice.PollInterval,
		NotifyDuration:      e.cfg.Voice.NotifyDuration,
		StopMessageDuration: e.cfg.Voice.StopMessageDuration,
	}
}

func runVoiceForeground(ctx context.Context, out io.Writer) error {
	e, err := newEnv(true)
	if err != nil {
		return err
	}
	if pid := daemon.GetRunningPID(e.cfg.StateDir); pid != 0 {
		return fmt.Errorf("voice watcher already running in the background (pid=%d)", pid)
	}

	cfg := watcherConfig(e)
	cfg.LogOutput = out
	fmt.Fprintln(out, "Listening for voice commands. Press Ctrl+C to stop.")
	return daemon.New(cfg).Run(ctx)
}

func runVoiceDetach() error {
	e, err := newEnv(true)
	if err != nil {
		return err
	}
	if pid := daemon.GetRunningPID(e.cfg.StateDir); pid != 0 {
		return printResult(fmt.Sprintf("Voice watcher already running (pid=%d)", pid), map[string]any{"pid": pid, "started": false})
	}

	pid, err := daemon.StartInBackground(e.cfg.StateDir, e.cfg.Server)
	if err != nil {
		return err
	}
	return printResult(fmt.Sprintf("Voice watcher started (pid=%d), log: %s", pid, daemon.LogFilePath(e.cfg.StateDir)),
		map[string]any{"pid": pid, "started": true, "log": daemon.LogFilePath(e.cfg.StateDir)})
}

func newVoiceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the voice status",
		Long: `Show the voice status.

When a background watcher is running its state is reported. Otherwise the
backend is polled once and the status text is classified.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVoiceStatus(cmd.Context())
		},
	}
}

func runVoiceStatus(ctx context.Context) error {
	e, err := newEnv(true)
	if err != nil {
		return err
	}

	if daemon.IsSocketAvailable(e.cfg.StateDir) {
		snap, err := daemon.Query(e.cfg.StateDir, daemon.RequestStatus)
		if err == nil {
			return printSnapshot(snap)
		}
		e.debug.Printf("watcher query failed, polling backend: %v", err)
	}

	report, err := voice.NewBackendSession(e.client).Poll(ctx)
	if err != nil {
		return e.check(err)
	}
	event := voice.Classify(report.Text)

	if globalOpts.JSON {
		out := map[string]any{
			"ok":         true,
			"watcher":    false,
			"text":       report.Text,
			"has_text":   report.HasText,
			"completed":  report.Completed,
			"kind":       string(event.Kind()),
			"recognized": event.Recognized(),
		}
		if event.Recognized() {
			out["message"] = event.Message()
		}
		return printJSON(out)
	}

	if !report.HasText {
		fmt.Println("No voice status")
	} else {
		fmt.Printf("Status: %s\n", report.Text)
		fmt.Printf("Event:  %s\n", colorEvent(event))
		if event.Recognized() {
			fmt.Printf("Result: %s\n", event.Message())
		}
	}
	if report.Completed {
		fmt.Println("Command completed")
	}
	return nil
}

func printSnapshot(snap *daemon.Snapshot) error {
	if globalOpts.JSON {
		return printJSON(struct {
			OK      bool `json:"ok"`
			Watcher bool `json:"watcher"`
			*daemon.Snapshot
		}{OK: true, Watcher: true, Snapshot: snap})
	}

	state := "off"
	if snap.Active {
		state = "on"
	}
	fmt.Printf("Watcher: pid %d, voice %s\n", snap.PID, state)
	if snap.Status != "" {
		fmt.Printf("Status:  %s\n", snap.Status)
	}
	if snap.LastText != "" {
		fmt.Printf("Last:    %s (%s)\n", snap.LastText, colorEvent(voice.Classify(snap.LastText)))
	}
	if snap.Notification != "" {
		fmt.Printf("Notice:  %s\n", snap.Notification)
	}
	return nil
}

func newVoiceToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Pause or resume the background watcher's voice session",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !daemon.IsSocketAvailable(cfg.StateDir) {
				return fmt.Errorf("no voice watcher running (start one with 'voxfs voice --detach')")
			}
			snap, err := daemon.Query(cfg.StateDir, daemon.RequestToggle)
			if err != nil {
				return err
			}
			return printSnapshot(snap)
		},
	}
}

func newVoiceStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background watcher and the backend speech session",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVoiceStop(cmd.Context())
		},
	}
}

func runVoiceStop(ctx context.Context) error {
	e, err := newEnv(true)
	if err != nil {
		return err
	}

	killed, err := daemon.Kill(e.cfg.StateDir)
	if err != nil {
		return fmt.Errorf("failed to stop voice watcher: %w", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.client.StopVoice(stopCtx); err != nil {
		return e.check(err)
	}

	msg := "Voice command stopped"
	if killed {
		msg = "Voice watcher stopped"
	}
	return printResult(msg, map[string]any{"watcher_stopped": killed})
}
