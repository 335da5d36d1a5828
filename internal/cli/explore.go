package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/s22625/voxfs/internal/daemon"
	"github.com/s22625/voxfs/internal/explorer"
	"github.com/s22625/voxfs/internal/store"
	"github.com/s22625/voxfs/internal/voice"
	"github.com/spf13/cobra"
)

type exploreOptions struct {
	NoWelcome bool
}

func newExploreCmd() *cobra.Command {
	opts := &exploreOptions{}

	cmd := &cobra.Command{
		Use:     "explore",
		Aliases: []string{"ui"},
		Short:   "Full-screen file explorer with voice commands",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoWelcome, "no-welcome", false, "Skip the welcome notification")
	return cmd
}

func runExplore(opts *exploreOptions) error {
	e, err := newEnv(true)
	if err != nil {
		return err
	}

	// The explorer owns the speech session while it runs
	if pid := daemon.GetRunningPID(e.cfg.StateDir); pid != 0 {
		fmt.Fprintf(os.Stderr, "note: background voice watcher running (pid=%d); stop it with 'voxfs voice stop' before using voice here\n", pid)
	}

	// stderr belongs to the alt screen; debug output goes to a file
	logger := log.New(io.Discard, "", log.LstdFlags)
	if e.debug.IsEnabled() {
		if err := daemon.EnsureStateDir(e.cfg.StateDir); err == nil {
			f, err := os.OpenFile(filepath.Join(e.cfg.StateDir, "explorer.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
			if err == nil {
				defer f.Close()
				logger.SetOutput(f)
			}
		}
	}

	x := explorer.New(explorer.Options{
		Backend:             e.client,
		Voice:               voice.NewBackendSession(e.client),
		Store:               e.store,
		Session:             e.session,
		Server:              e.cfg.Server,
		Welcome:             e.cfg.Explorer.Welcome && !opts.NoWelcome,
		PollInterval:        e.cfg.Voice.PollInterval,
		NotifyDuration:      e.cfg.Voice.NotifyDuration,
		StopMessageDuration: e.cfg.Voice.StopMessageDuration,
		Logger:              logger,
	})

	exitMessage, err := x.Run()
	if err != nil {
		return err
	}
	if dir := x.Dir(); dir != "" && exitMessage == "" {
		e.rememberDir(dir)
	}
	if exitMessage != "" {
		return fmt.Errorf("%s: %w", exitMessage, store.ErrNoSession)
	}
	return nil
}
