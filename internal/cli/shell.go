package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/s22625/voxfs/internal/api"
	"github.com/s22625/voxfs/internal/terminal"
	"github.com/spf13/cobra"
)

var (
	shellErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	shellSystemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	shellPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
)

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell over the remote file system",
		Long: `Start an interactive shell over the remote file system.

Type 'help' for the available commands and 'exit' to leave.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(true)
			if err != nil {
				return err
			}
			return runShell(cmd.Context(), e, cmd.InOrStdin(), cmd.OutOrStdout(), os.Stderr)
		},
	}
}

// runShell reads commands from in until EOF or exit. Output goes to out,
// the prompt to prompt so piped output stays clean.
func runShell(ctx context.Context, e *env, in io.Reader, out, prompt io.Writer) error {
	sh := terminal.New(e.client, e.session.Authenticated)
	sh.SetDir(e.session.CurrentDir)

	printLines(out, sh.Welcome())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(prompt, shellPromptStyle.Render("voxfs:"+displayDir(sh.Dir())+"$ "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		res := sh.Execute(ctx, line)
		if res.Clear {
			fmt.Fprint(out, "\033[H\033[2J")
		}
		printLines(out, res.Lines)

		if res.Unauthorized() {
			return e.check(fmt.Errorf("shell: %w", api.ErrUnauthorized))
		}
		if res.Dir != "" {
			e.rememberDir(res.Dir)
		}
	}
	fmt.Fprintln(prompt)
	return scanner.Err()
}

func printLines(w io.Writer, lines []terminal.Line) {
	for _, l := range lines {
		switch l.Type {
		case terminal.LineCommand:
			// the user already sees what they typed
		case terminal.LineError:
			fmt.Fprintln(w, shellErrorStyle.Render(l.Text))
		case terminal.LineSystem:
			fmt.Fprintln(w, shellSystemStyle.Render(l.Text))
		default:
			fmt.Fprintln(w, l.Text)
		}
	}
}
