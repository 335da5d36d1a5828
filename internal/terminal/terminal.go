package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/s22625/voxfs/internal/api"
	"github.com/s22625/voxfs/internal/model"
)

// LineType classifies a line of shell output
type LineType string

const (
	LineSystem  LineType = "system"
	LineCommand LineType = "command"
	LineOutput  LineType = "output"
	LineError   LineType = "error"
)

// Line is one entry of shell output
type Line struct {
	Text string
	Type LineType
}

// Result is what a single command produced
type Result struct {
	Lines []Line
	// Refresh is set when the command may have changed the listing
	Refresh bool
	// Clear asks the caller to drop earlier output before showing Lines
	Clear bool
	// Dir is the new working directory after cd, empty otherwise
	Dir string
}

// Backend is the part of the API client the shell drives
type Backend interface {
	List(ctx context.Context) (*model.Listing, error)
	Pwd(ctx context.Context) (string, error)
	ChangeDir(ctx context.Context, name string) (string, error)
	Mkdir(ctx context.Context, name string) error
	Rmdir(ctx context.Context, name string) error
	CreateFile(ctx context.Context, name, content string) error
	DeleteFile(ctx context.Context, name string) error
	ReadFile(ctx context.Context, name string) (string, error)
	Rename(ctx context.Context, oldName, newName string) error
}

const (
	msgNotAuthenticated = "Error: Not authenticated. Please log in."
	welcomeTitle        = "Welcome to File System Terminal"
)

const helpText = `Available commands:
  ls                  - List directory contents
  cd <dir>            - Change directory (cd .. moves up)
  mkdir <dir>         - Create directory
  touch/create <file> - Create file
  rm <file>           - Remove file
  rmdir <dir>         - Remove directory
  mv <old> <new>      - Rename file or directory
  cat <file>          - Print file contents
  pwd                 - Print working directory
  clear               - Clear terminal
  help                - Show this help message`

// Shell executes typed commands against the backend
type Shell struct {
	backend       Backend
	authenticated func() bool
	history       *History
	dir           string
}

// New creates a shell. authenticated reports whether a login token is
// present; nil means always authenticated.
func New(backend Backend, authenticated func() bool) *Shell {
	if authenticated == nil {
		authenticated = func() bool { return true }
	}
	return &Shell{
		backend:       backend,
		authenticated: authenticated,
		history:       NewHistory(500),
	}
}

// History returns the command history
func (s *Shell) History() *History {
	return s.history
}

// Dir returns the last known working directory
func (s *Shell) Dir() string {
	return s.dir
}

// SetDir records the working directory shown in system lines
func (s *Shell) SetDir(dir string) {
	s.dir = dir
}

// Welcome returns the banner shown when the shell opens or is cleared
func (s *Shell) Welcome() []Line {
	return []Line{
		{Text: welcomeTitle, Type: LineSystem},
		{Text: "Current directory: " + displayDir(s.dir), Type: LineSystem},
	}
}

// Execute records input in the history and runs it. Blank input produces
// an empty result.
func (s *Shell) Execute(ctx context.Context, input string) Result {
	if trimmed := strings.TrimSpace(input); trimmed != "" {
		s.history.Add(trimmed)
	}
	return s.Run(ctx, input)
}

// Run executes one command line without touching the history. Callers
// that record history on another goroutine use it instead of Execute.
func (s *Shell) Run(ctx context.Context, input string) Result {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Result{}
	}

	res := Result{Lines: []Line{{Text: "$ " + trimmed, Type: LineCommand}}}

	if !s.authenticated() {
		return res.withError(msgNotAuthenticated)
	}

	words, err := Split(trimmed)
	if err != nil {
		return res.withError("Error: " + err.Error())
	}
	cmd, args := strings.ToLower(words[0]), words[1:]

	switch cmd {
	case "ls":
		return s.ls(ctx, res)
	case "cd":
		if len(args) < 1 {
			return res.withError("Usage: cd <directory>")
		}
		return s.cd(ctx, res, args[0])
	case "mkdir":
		if len(args) < 1 {
			return res.withError("Usage: mkdir <directory>")
		}
		return s.mutate(res, s.backend.Mkdir(ctx, args[0]), "Directory created: "+args[0])
	case "touch", "create":
		if len(args) < 1 {
			return res.withError("Usage: create <filename>")
		}
		return s.mutate(res, s.backend.CreateFile(ctx, args[0], ""), "File created: "+args[0])
	case "rm":
		if len(args) < 1 {
			return res.withError("Usage: rm <filename>")
		}
		return s.mutate(res, s.backend.DeleteFile(ctx, args[0]), "File removed: "+args[0])
	case "rmdir":
		if len(args) < 1 {
			return res.withError("Usage: rmdir <directory>")
		}
		return s.mutate(res, s.backend.Rmdir(ctx, args[0]), "Directory removed: "+args[0])
	case "mv":
		if len(args) < 2 {
			return res.withError("Usage: mv <old> <new>")
		}
		return s.mutate(res, s.backend.Rename(ctx, args[0], args[1]), fmt.Sprintf("Renamed %s to %s", args[0], args[1]))
	case "cat":
		if len(args) < 1 {
			return res.withError("Usage: cat <filename>")
		}
		content, err := s.backend.ReadFile(ctx, args[0])
		if err != nil {
			return res.withFailure(err)
		}
		return res.withOutput(content)
	case "pwd":
		dir, err := s.backend.Pwd(ctx)
		if err != nil {
			return res.withFailure(err)
		}
		s.dir = dir
		return res.withOutput(displayDir(dir))
	case "clear":
		return Result{Lines: s.Welcome(), Clear: true}
	case "help":
		return res.withOutput(helpText)
	default:
		return res.withError(fmt.Sprintf("Command not found: %s. Type 'help' for available commands.", words[0]))
	}
}

func (s *Shell) ls(ctx context.Context, res Result) Result {
	listing, err := s.backend.List(ctx)
	if err != nil {
		return res.withFailure(err)
	}
	res.Refresh = true
	items := listing.Sorted()
	if len(items) == 0 {
		return res.withOutput("(empty)")
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, FormatItem(item))
	}
	return res.withOutput(strings.Join(names, "\n"))
}

func (s *Shell) cd(ctx context.Context, res Result, name string) Result {
	dir, err := s.backend.ChangeDir(ctx, name)
	if err != nil {
		return res.withFailure(err)
	}
	s.dir = dir
	res.Refresh = true
	res.Dir = dir
	res.Lines = append(res.Lines, Line{Text: "Current directory: " + displayDir(dir), Type: LineSystem})
	return res
}

func (s *Shell) mutate(res Result, err error, success string) Result {
	if err != nil {
		return res.withFailure(err)
	}
	res.Refresh = true
	return res.withOutput(success)
}

// FormatItem renders a listing entry, marking directories with a slash
func FormatItem(item model.Item) string {
	name := Quote(item.Name)
	if item.IsDir() {
		return name + "/"
	}
	return name
}

func (r Result) withOutput(text string) Result {
	r.Lines = append(r.Lines, Line{Text: text, Type: LineOutput})
	return r
}

func (r Result) withError(text string) Result {
	r.Lines = append(r.Lines, Line{Text: text, Type: LineError})
	return r
}

func (r Result) withFailure(err error) Result {
	if errors.Is(err, api.ErrUnauthorized) {
		return r.withError(msgNotAuthenticated)
	}
	return r.withError("Error: " + err.Error())
}

// Unauthorized reports whether any error line in the result came from a
// rejected token
func (r Result) Unauthorized() bool {
	for _, l := range r.Lines {
		if l.Type == LineError && l.Text == msgNotAuthenticated {
			return true
		}
	}
	return false
}

func displayDir(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return "/"
	}
	return dir
}
