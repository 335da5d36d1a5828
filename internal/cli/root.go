package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/s22625/voxfs/internal/api"
	"github.com/s22625/voxfs/internal/config"
	"github.com/s22625/voxfs/internal/model"
	"github.com/s22625/voxfs/internal/store"
	"github.com/s22625/voxfs/internal/store/file"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	ExitOK               = 0
	ExitNotAuthenticated = 2
	ExitBackendError     = 3
	ExitUsage            = 4
	ExitInternalError    = 10
)

// GlobalOptions holds options shared across all commands
type GlobalOptions struct {
	Server   string
	StateDir string
	JSON     bool
	LogLevel string
}

var globalOpts = &GlobalOptions{}

// usageError marks bad arguments or flags
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voxfs",
		Short: "Terminal client for a remote voice-driven file system",
		Long: `voxfs talks to a remote file system simulator.

Log in, browse and edit files from the command line, an interactive
shell or a full-screen explorer, and drive the file system by voice
through the backend speech session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&globalOpts.Server, "server", "", "Backend URL (or set VOXFS_SERVER)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.StateDir, "state-dir", "", "Directory for session and watcher files (or set VOXFS_STATE_DIR)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.JSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogLevel, "log-level", "", "Log level (error|warn|info|debug)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	// Add subcommands
	rootCmd.AddCommand(newSignupCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newPwdCmd())
	rootCmd.AddCommand(newCdCmd())
	rootCmd.AddCommand(newUpCmd())
	rootCmd.AddCommand(newMkdirCmd())
	rootCmd.AddCommand(newRmdirCmd())
	rootCmd.AddCommand(newTouchCmd())
	rootCmd.AddCommand(newCatCmd())
	rootCmd.AddCommand(newWriteCmd())
	rootCmd.AddCommand(newAppendCmd())
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newMvCmd())
	rootCmd.AddCommand(newShellCmd())
	rootCmd.AddCommand(newExploreCmd())
	rootCmd.AddCommand(newVoiceCmd())
	rootCmd.AddCommand(newVoiceDaemonCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command failure to the process exit status
func exitCode(err error) int {
	var usageErr *usageError
	var statusErr *api.StatusError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, store.ErrNoSession), errors.Is(err, api.ErrUnauthorized):
		return ExitNotAuthenticated
	case errors.As(err, &usageErr), strings.HasPrefix(err.Error(), "unknown command"):
		return ExitUsage
	case errors.As(err, &statusErr), errors.Is(err, api.ErrOperationFailed), errors.Is(err, errBackend):
		return ExitBackendError
	default:
		return ExitInternalError
	}
}

// errBackend tags transport failures that never produced a status code
var errBackend = errors.New("backend unavailable")

// loadConfig resolves the configuration and applies command-line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if globalOpts.Server != "" {
		cfg.Server = globalOpts.Server
	}
	if globalOpts.StateDir != "" {
		cfg.StateDir = config.ExpandPath(globalOpts.StateDir, "")
	}
	if globalOpts.LogLevel != "" {
		cfg.LogLevel = globalOpts.LogLevel
	}
	if cfg.StateDir == "" {
		return nil, fmt.Errorf("state directory not specified (use --state-dir, set VOXFS_STATE_DIR, or create .voxfs/config.yaml)")
	}
	return cfg, nil
}

// getStore returns the session store for the configured state dir
func getStore(cfg *config.Config) (*file.FileStore, error) {
	return file.New(cfg.StateDir)
}

// sessionTokens reads the token from the session on every request
type sessionTokens struct {
	session *model.Session
}

func (s sessionTokens) Token() string {
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

// env is what an authenticated command works with
type env struct {
	cfg     *config.Config
	store   *file.FileStore
	session *model.Session
	client  *api.Client
	debug   *DebugLogger
}

// newEnv loads config and the stored session. With requireLogin a missing
// session fails with store.ErrNoSession.
func newEnv(requireLogin bool) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	debug := NewDebugLogger(cfg.LogLevel)

	st, err := getStore(cfg)
	if err != nil {
		return nil, err
	}

	var session *model.Session
	if requireLogin {
		session, err = store.RequireSession(st)
	} else {
		session, err = st.Load()
	}
	if err != nil {
		return nil, err
	}

	debug.Printf("server=%s state_dir=%s user=%s", cfg.Server, cfg.StateDir, session.Username)
	return &env{
		cfg:     cfg,
		store:   st,
		session: session,
		client:  api.NewClient(cfg.Server, sessionTokens{session: session}),
		debug:   debug,
	}, nil
}

// check converts a backend failure into a command error. A rejected token
// drops the stored session so the next command asks for a login.
func (e *env) check(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, api.ErrUnauthorized) {
		if clearErr := e.store.Clear(); clearErr != nil {
			e.debug.Printf("failed to clear session: %v", clearErr)
		}
		return fmt.Errorf("session expired, please log in again: %w", err)
	}
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) || errors.Is(err, api.ErrOperationFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", errBackend, err)
}

// rememberDir stores the backend's working directory in the session
func (e *env) rememberDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := e.store.Update(func(s *model.Session) { s.CurrentDir = dir }); err != nil {
		e.debug.Printf("failed to save current directory: %v", err)
	}
	e.session.CurrentDir = dir
}

// exactArgs is cobra.ExactArgs reported as a usage error
func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

func maxArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.MaximumNArgs(n))
}

func noArgs(cmd *cobra.Command, args []string) error {
	return wrapArgs(cobra.NoArgs)(cmd, args)
}

func wrapArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
