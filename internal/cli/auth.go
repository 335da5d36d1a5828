package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/s22625/voxfs/internal/api"
	"github.com/s22625/voxfs/internal/model"
	"github.com/spf13/cobra"
)

type credentialOptions struct {
	Username      string
	Password      string
	PasswordStdin bool
}

func addCredentialFlags(cmd *cobra.Command, opts *credentialOptions) {
	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "Password")
	cmd.Flags().BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from stdin")
}

// resolve fills in credentials from positional args and stdin
func (o *credentialOptions) resolve(args []string, stdin io.Reader) error {
	if o.Username == "" && len(args) > 0 {
		o.Username = args[0]
	}
	if o.Username == "" {
		return usageErrorf("username required")
	}
	if o.Password == "" && len(args) > 1 {
		o.Password = args[1]
	}
	if o.Password == "" || o.PasswordStdin {
		if !o.PasswordStdin {
			fmt.Fprint(os.Stderr, "Password: ")
		}
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading password: %w", err)
		}
		o.Password = strings.TrimRight(line, "\r\n")
	}
	if o.Password == "" {
		return usageErrorf("password required")
	}
	return nil
}

func newSignupCmd() *cobra.Command {
	opts := &credentialOptions{}

	cmd := &cobra.Command{
		Use:   "signup [USERNAME]",
		Short: "Create an account",
		Args:  maxArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(args, cmd.InOrStdin()); err != nil {
				return err
			}
			return runSignup(cmd.Context(), opts)
		},
	}
	addCredentialFlags(cmd, opts)
	return cmd
}

func runSignup(ctx context.Context, opts *credentialOptions) error {
	e, err := newEnv(false)
	if err != nil {
		return err
	}
	if err := e.client.Signup(ctx, opts.Username, opts.Password); err != nil {
		return e.check(err)
	}
	return printResult(fmt.Sprintf("Account created for %s. Log in with: voxfs login %s", opts.Username, opts.Username),
		map[string]any{"username": opts.Username})
}

func newLoginCmd() *cobra.Command {
	opts := &credentialOptions{}

	cmd := &cobra.Command{
		Use:   "login [USERNAME]",
		Short: "Log in and store the session token",
		Args:  maxArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(args, cmd.InOrStdin()); err != nil {
				return err
			}
			return runLogin(cmd.Context(), opts)
		},
	}
	addCredentialFlags(cmd, opts)
	return cmd
}

func runLogin(ctx context.Context, opts *credentialOptions) error {
	e, err := newEnv(false)
	if err != nil {
		return err
	}

	result, err := e.client.Login(ctx, opts.Username, opts.Password)
	if errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("invalid username or password: %w", err)
	}
	if err != nil {
		return e.check(err)
	}
	if !model.IsTokenWellFormed(result.Token) {
		return fmt.Errorf("%w: backend returned a malformed token", errBackend)
	}

	session := &model.Session{
		Username:   opts.Username,
		Token:      result.Token,
		CurrentDir: result.CurrentDir,
	}
	if err := e.store.Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	e.debug.Printf("session saved to %s", e.store.Path())

	return printResult(fmt.Sprintf("Logged in as %s (%s)", opts.Username, session.DisplayDir()),
		map[string]any{"username": opts.Username, "current_dir": session.CurrentDir})
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(false)
			if err != nil {
				return err
			}
			if err := e.store.Clear(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			return printResult("Logged out", nil)
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(true)
			if err != nil {
				return err
			}
			if globalOpts.JSON {
				return printJSON(map[string]any{
					"ok":          true,
					"username":    e.session.Username,
					"server":      e.cfg.Server,
					"current_dir": e.session.CurrentDir,
				})
			}
			fmt.Printf("%s@%s\n", e.session.Username, e.cfg.Server)
			fmt.Printf("Directory: %s\n", e.session.DisplayDir())
			return nil
		},
	}
}
