package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/s22625/voxfs/internal/daemon"
	"github.com/spf13/cobra"
)

func newVoiceDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "voice-daemon",
		Short:  "Run the background voice watcher",
		Hidden: true, // Users shouldn't call this directly
		Long: `Run the background voice watcher.

This command is started by 'voxfs voice --detach'.
You should not need to run this manually.`,
		Args:   noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVoiceDaemon()
		},
	}
}

func runVoiceDaemon() error {
	e, err := newEnv(true)
	if err != nil {
		return err
	}

	// Check if already running
	if daemon.IsRunning(e.cfg.StateDir) {
		pid := daemon.GetRunningPID(e.cfg.StateDir)
		if pid != os.Getpid() {
			return fmt.Errorf("voice watcher already running (pid=%d)", pid)
		}
	}

	return daemon.New(watcherConfig(e)).Run(context.Background())
}
