package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/s22625/voxfs/internal/model"
	"github.com/s22625/voxfs/internal/terminal"
	"github.com/spf13/cobra"
)

// simpleCmd builds a command that needs a logged-in session
func simpleCmd(use, short string, args cobra.PositionalArgs, run func(ctx context.Context, e *env, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(true)
			if err != nil {
				return err
			}
			return run(cmd.Context(), e, args)
		},
	}
}

type lsOptions struct {
	Long bool
}

func newLsCmd() *cobra.Command {
	opts := &lsOptions{}
	cmd := simpleCmd("ls", "List the current directory", noArgs, func(ctx context.Context, e *env, args []string) error {
		return runLs(ctx, e, opts)
	})
	cmd.Flags().BoolVarP(&opts.Long, "long", "l", false, "Show item types")
	return cmd
}

func runLs(ctx context.Context, e *env, opts *lsOptions) error {
	listing, err := e.client.List(ctx)
	if err != nil {
		return e.check(err)
	}
	items := listing.Sorted()

	if globalOpts.JSON {
		type itemOutput struct {
			Name string `json:"name"`
			Type string `json:"type"`
		}
		out := struct {
			OK    bool         `json:"ok"`
			Dir   string       `json:"dir,omitempty"`
			Items []itemOutput `json:"items"`
		}{OK: true, Dir: e.session.CurrentDir, Items: []itemOutput{}}
		for _, item := range items {
			out.Items = append(out.Items, itemOutput{Name: item.Name, Type: string(model.NormalizeItemType(string(item.Type)))})
		}
		return printJSON(out)
	}

	if len(items) == 0 {
		fmt.Println("(empty)")
		return nil
	}
	for _, item := range items {
		if opts.Long {
			fmt.Printf("%-10s %s\n", colorType(item), terminal.FormatItem(item))
			continue
		}
		fmt.Println(terminal.FormatItem(item))
	}
	return nil
}

func newPwdCmd() *cobra.Command {
	return simpleCmd("pwd", "Print the current directory", noArgs, func(ctx context.Context, e *env, args []string) error {
		dir, err := e.client.Pwd(ctx)
		if err != nil {
			return e.check(err)
		}
		e.rememberDir(dir)
		return printResult(displayDir(dir), map[string]any{"dir": dir})
	})
}

func newCdCmd() *cobra.Command {
	return simpleCmd("cd DIR", "Enter a directory (.. moves up)", exactArgs(1), func(ctx context.Context, e *env, args []string) error {
		dir, err := e.client.ChangeDir(ctx, args[0])
		if err != nil {
			return e.check(err)
		}
		e.rememberDir(dir)
		return printResult("Current directory: "+displayDir(dir), map[string]any{"dir": dir})
	})
}

func newUpCmd() *cobra.Command {
	return simpleCmd("up", "Move to the parent directory", noArgs, func(ctx context.Context, e *env, args []string) error {
		if err := e.client.MoveUp(ctx); err != nil {
			return e.check(err)
		}
		dir, err := e.client.Pwd(ctx)
		if err != nil {
			e.debug.Printf("pwd after move up failed: %v", err)
		}
		e.rememberDir(dir)
		return printResult("Current directory: "+displayDir(dir), map[string]any{"dir": dir})
	})
}

func newMkdirCmd() *cobra.Command {
	return simpleCmd("mkdir DIR", "Create a directory", exactArgs(1), func(ctx context.Context, e *env, args []string) error {
		if err := e.client.Mkdir(ctx, args[0]); err != nil {
			return e.check(err)
		}
		return printResult("Directory created: "+args[0], map[string]any{"name": args[0]})
	})
}

func newRmdirCmd() *cobra.Command {
	return simpleCmd("rmdir DIR", "Remove a directory", exactArgs(1), func(ctx context.Context, e *env, args []string) error {
		if err := e.client.Rmdir(ctx, args[0]); err != nil {
			return e.check(err)
		}
		return printResult("Directory removed: "+args[0], map[string]any{"name": args[0]})
	})
}

type contentOptions struct {
	Content string
}

func addContentFlag(cmd *cobra.Command, opts *contentOptions) {
	cmd.Flags().StringVarP(&opts.Content, "content", "c", "", "File content (default: read stdin)")
}

// read returns the content from the flag, the remaining args, or stdin
func (o *contentOptions) read(cmd *cobra.Command, rest []string) (string, error) {
	if cmd.Flags().Changed("content") {
		return o.Content, nil
	}
	if len(rest) > 0 {
		return strings.Join(rest, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func newTouchCmd() *cobra.Command {
	opts := &contentOptions{}
	cmd := &cobra.Command{
		Use:     "touch FILE",
		Aliases: []string{"create"},
		Short:   "Create a file",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(true)
			if err != nil {
				return err
			}
			if err := e.client.CreateFile(cmd.Context(), args[0], opts.Content); err != nil {
				return e.check(err)
			}
			return printResult("File created: "+args[0], map[string]any{"name": args[0]})
		},
	}
	cmd.Flags().StringVarP(&opts.Content, "content", "c", "", "Initial content")
	return cmd
}

func newCatCmd() *cobra.Command {
	return simpleCmd("cat FILE", "Print a file", exactArgs(1), func(ctx context.Context, e *env, args []string) error {
		content, err := e.client.ReadFile(ctx, args[0])
		if err != nil {
			return e.check(err)
		}
		if globalOpts.JSON {
			return printJSON(map[string]any{"ok": true, "name": args[0], "content": content})
		}
		fmt.Print(content)
		if content != "" && !strings.HasSuffix(content, "\n") {
			fmt.Println()
		}
		return nil
	})
}

func newWriteCmd() *cobra.Command {
	opts := &contentOptions{}
	cmd := &cobra.Command{
		Use:   "write FILE [CONTENT...]",
		Short: "Replace the content of a file",
		Long: `Replace the content of a file.

Content comes from --content, the remaining arguments, or stdin.`,
		Args: wrapArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := opts.read(cmd, args[1:])
			if err != nil {
				return err
			}
			e, err := newEnv(true)
			if err != nil {
				return err
			}
			if err := e.client.EditFile(cmd.Context(), args[0], content); err != nil {
				return e.check(err)
			}
			return printResult("File saved: "+args[0], map[string]any{"name": args[0], "bytes": len(content)})
		},
	}
	addContentFlag(cmd, opts)
	return cmd
}

func newAppendCmd() *cobra.Command {
	opts := &contentOptions{}
	cmd := &cobra.Command{
		Use:   "append FILE [CONTENT...]",
		Short: "Append to a file",
		Long: `Append to a file.

Content comes from --content, the remaining arguments, or stdin.`,
		Args: wrapArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := opts.read(cmd, args[1:])
			if err != nil {
				return err
			}
			e, err := newEnv(true)
			if err != nil {
				return err
			}
			if err := e.client.AppendFile(cmd.Context(), args[0], content); err != nil {
				return e.check(err)
			}
			return printResult("Appended to "+args[0], map[string]any{"name": args[0], "bytes": len(content)})
		},
	}
	addContentFlag(cmd, opts)
	return cmd
}

func newRmCmd() *cobra.Command {
	return simpleCmd("rm FILE", "Remove a file", exactArgs(1), func(ctx context.Context, e *env, args []string) error {
		if err := e.client.DeleteFile(ctx, args[0]); err != nil {
			return e.check(err)
		}
		return printResult("File removed: "+args[0], map[string]any{"name": args[0]})
	})
}

func newMvCmd() *cobra.Command {
	return simpleCmd("mv OLD NEW", "Rename a file or directory", exactArgs(2), func(ctx context.Context, e *env, args []string) error {
		if err := e.client.Rename(ctx, args[0], args[1]); err != nil {
			return e.check(err)
		}
		return printResult(fmt.Sprintf("Renamed %s to %s", args[0], args[1]), map[string]any{"from": args[0], "to": args[1]})
	})
}

func displayDir(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return "/"
	}
	return dir
}
