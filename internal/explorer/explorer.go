package explorer

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/s22625/voxfs/internal/api"
	"github.com/s22625/voxfs/internal/model"
	"github.com/s22625/voxfs/internal/store"
	"github.com/s22625/voxfs/internal/terminal"
	"github.com/s22625/voxfs/internal/voice"
)

type explorerMode int

const (
	modeBrowse explorerMode = iota
	modePrompt
	modeConfirmDelete
	modeEdit
	modeShell
	modeHelp
)

type promptKind int

const (
	promptNewFolder promptKind = iota
	promptNewFile
	promptRename
)

// Backend is the part of the API client the explorer drives
type Backend interface {
	terminal.Backend
	MoveUp(ctx context.Context) error
	EditFile(ctx context.Context, name, content string) error
	Delete(ctx context.Context, item model.Item) error
}

// Options configures an Explorer
type Options struct {
	Backend Backend
	// Voice controls the backend recognition session
	Voice voice.SessionService
	// Store is cleared when the backend rejects the token. May be nil.
	Store   store.Store
	Session *model.Session
	Server  string
	Welcome bool

	PollInterval        time.Duration
	NotifyDuration      time.Duration
	StopMessageDuration time.Duration

	Logger *log.Logger
}

type previewState struct {
	name    string
	content string
	loading bool
	err     string
}

// Explorer is the bubbletea model for the file explorer UI.
type Explorer struct {
	opts    Options
	backend Backend
	logger  *log.Logger
	monitor *voice.Monitor
	notes   *voice.Notifier
	shell   *terminal.Shell

	// send posts messages into the running program; nil outside Run
	send func(tea.Msg)

	list       list.Model
	input      textinput.Model
	shellInput textinput.Model
	editor     textarea.Model

	width  int
	height int

	mode         explorerMode
	prompt       promptKind
	promptTarget model.Item
	promptErr    string

	dir     string
	items   []model.Item
	loading bool
	loadSeq int
	errText string
	message string

	banner      string
	voiceStatus string
	voiceActive bool
	voiceBusy   bool

	preview    previewState
	editName   string
	shellLines []terminal.Line
	shellBusy  bool

	keymap KeyMap
	styles Styles

	exitMessage  string
	unauthorized bool
}

type listingMsg struct {
	seq   int
	voice bool
	dir   string
	items []model.Item
	err   error
}

type previewMsg struct {
	name    string
	content string
	edit    bool
	err     error
}

type opDoneMsg struct {
	text string
	err  error
}

type savedMsg struct {
	name string
	err  error
}

type shellMsg struct {
	res terminal.Result
}

type voiceToggledMsg struct {
	active bool
}

type voiceStatusMsg struct {
	text string
}

type notifyMsg struct {
	text string
}

// New creates an explorer model.
func New(opts Options) *Explorer {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	e := &Explorer{
		opts:    opts,
		backend: opts.Backend,
		logger:  logger,
		keymap:  DefaultKeyMap(),
		styles:  DefaultStyles(),
		mode:    modeBrowse,
	}
	if opts.Session != nil {
		e.dir = opts.Session.CurrentDir
	}

	e.notes = voice.NewNotifier(func(msg string) {
		e.post(notifyMsg{text: msg})
	})
	e.monitor = voice.NewMonitor(opts.Voice, voice.ListingFunc(e.refreshFromVoice), e.notes, voice.Options{
		PollInterval:        opts.PollInterval,
		NotifyDuration:      opts.NotifyDuration,
		StopMessageDuration: opts.StopMessageDuration,
		Logger:              logger,
		Status: voice.StatusFunc(func(text string) {
			e.post(voiceStatusMsg{text: text})
		}),
	})

	e.shell = terminal.New(opts.Backend, func() bool {
		return opts.Session == nil || opts.Session.Authenticated()
	})
	e.shell.SetDir(e.dir)

	l := list.New(nil, itemDelegate{styles: e.styles}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("file or folder", "files or folders")
	l.DisableQuitKeybindings()
	e.list = l

	ti := textinput.New()
	ti.CharLimit = 255
	e.input = ti

	si := textinput.New()
	si.Prompt = "$ "
	si.CharLimit = 1024
	e.shellInput = si

	ta := textarea.New()
	ta.ShowLineNumbers = false
	e.editor = ta

	return e
}

// Run starts the bubbletea program. It returns a message to print after
// the screen is restored, if any.
func (e *Explorer) Run() (string, error) {
	program := tea.NewProgram(e, tea.WithAltScreen())
	e.send = program.Send
	_, err := program.Run()
	e.shutdown()
	return e.exitMessage, err
}

// shutdown stops a running voice session and releases the monitor
func (e *Explorer) shutdown() {
	if e.monitor.Active() && !e.unauthorized {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		e.monitor.Stop(ctx)
		cancel()
	}
	e.monitor.Close()
	e.notes.Close()
}

func (e *Explorer) post(msg tea.Msg) {
	if e.send != nil {
		e.send(msg)
	}
}

// Init implements tea.Model.
func (e *Explorer) Init() tea.Cmd {
	cmds := []tea.Cmd{e.loadCmd()}
	if e.opts.Welcome {
		cmds = append(cmds, e.notifyCmd(welcomeMessage))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (e *Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.width = msg.Width
		e.height = msg.Height
		e.resize()
		return e, nil
	case listingMsg:
		return e.handleListing(msg)
	case previewMsg:
		return e.handlePreview(msg)
	case opDoneMsg:
		if msg.err != nil {
			return e.handleErr(msg.err, "Operation failed")
		}
		e.errText = ""
		cmds := []tea.Cmd{e.loadCmd()}
		if msg.text != "" {
			cmds = append(cmds, e.notifyCmd(msg.text))
		}
		return e, tea.Batch(cmds...)
	case savedMsg:
		if msg.err != nil {
			return e.handleErr(msg.err, "Failed to save file")
		}
		e.mode = modeBrowse
		e.editor.Blur()
		return e, tea.Batch(e.previewCmd(msg.name, false), e.notifyCmd("File saved successfully!"))
	case shellMsg:
		return e.handleShell(msg)
	case voiceToggledMsg:
		e.voiceBusy = false
		e.voiceActive = msg.active
		return e, nil
	case voiceStatusMsg:
		e.voiceStatus = msg.text
		return e, nil
	case notifyMsg:
		e.banner = msg.text
		return e, nil
	case tea.KeyMsg:
		return e.handleKey(msg)
	}

	// Cursor blink and similar component messages
	var cmd tea.Cmd
	switch e.mode {
	case modeEdit:
		e.editor, cmd = e.editor.Update(msg)
	case modePrompt:
		e.input, cmd = e.input.Update(msg)
	case modeShell:
		e.shellInput, cmd = e.shellInput.Update(msg)
	}
	return e, cmd
}

func (e *Explorer) handleListing(msg listingMsg) (tea.Model, tea.Cmd) {
	if !msg.voice {
		if msg.seq != e.loadSeq {
			return e, nil
		}
		e.loading = false
	}
	if msg.err != nil {
		return e.handleErr(msg.err, "Failed to load files")
	}
	if msg.dir != "" && msg.dir != e.dir {
		e.dir = msg.dir
		if !e.shellBusy {
			e.shell.SetDir(msg.dir)
		}
		e.preview = previewState{}
	}
	e.errText = ""
	e.setItems(msg.items)
	return e, nil
}

func (e *Explorer) handlePreview(msg previewMsg) (tea.Model, tea.Cmd) {
	if msg.name != e.preview.name {
		return e, nil
	}
	e.preview.loading = false
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return e.expire()
		}
		e.preview.content = ""
		e.preview.err = "Failed to read file: " + msg.err.Error()
		return e, nil
	}
	e.preview.content = msg.content
	e.preview.err = ""
	if msg.edit {
		return e.openEditor(msg.name, msg.content)
	}
	return e, nil
}

func (e *Explorer) handleShell(msg shellMsg) (tea.Model, tea.Cmd) {
	e.shellBusy = false
	res := msg.res
	if res.Clear {
		e.shellLines = append([]terminal.Line(nil), res.Lines...)
	} else {
		e.shellLines = append(e.shellLines, res.Lines...)
	}
	if len(e.shellLines) > shellMaxLines {
		e.shellLines = e.shellLines[len(e.shellLines)-shellMaxLines:]
	}
	if res.Unauthorized() {
		return e.expire()
	}
	if res.Dir != "" {
		e.dir = res.Dir
		e.preview = previewState{}
	}
	if res.Refresh {
		return e, e.loadCmd()
	}
	return e, nil
}

// handleErr reports a failed backend call. A rejected token ends the session.
func (e *Explorer) handleErr(err error, prefix string) (tea.Model, tea.Cmd) {
	if errors.Is(err, api.ErrUnauthorized) {
		return e.expire()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		e.errText = timeoutMessage
	} else {
		e.errText = prefix + ": " + err.Error()
	}
	e.logger.Printf("explorer: %s: %v", prefix, err)
	return e, nil
}

// expire drops the stored session and quits
func (e *Explorer) expire() (tea.Model, tea.Cmd) {
	e.unauthorized = true
	e.exitMessage = sessionExpiredText
	if e.opts.Store != nil {
		if err := e.opts.Store.Clear(); err != nil {
			e.logger.Printf("explorer: clear session: %v", err)
		}
	}
	return e, tea.Quit
}

func (e *Explorer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return e, tea.Quit
	}

	switch e.mode {
	case modePrompt:
		return e.handlePromptKey(msg)
	case modeConfirmDelete:
		return e.handleDeleteKey(msg)
	case modeEdit:
		return e.handleEditKey(msg)
	case modeShell:
		return e.handleShellKey(msg)
	case modeHelp:
		// Any key dismisses the help popup
		e.mode = modeBrowse
		return e, nil
	default:
		return e.handleBrowseKey(msg)
	}
}

func (e *Explorer) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e.message = ""
	switch msg.String() {
	case e.keymap.Quit:
		return e, tea.Quit
	case e.keymap.Help:
		e.mode = modeHelp
		return e, nil
	case e.keymap.Refresh:
		return e, e.loadCmd()
	case e.keymap.Open:
		item, ok := e.selectedItem()
		if !ok {
			return e, nil
		}
		if item.IsDir() {
			return e, e.changeDirCmd(item.Name)
		}
		return e, e.previewCmd(item.Name, false)
	case e.keymap.Up, "-":
		return e, e.moveUpCmd()
	case e.keymap.NewFile:
		return e.openPrompt(promptNewFile, model.Item{})
	case e.keymap.NewFolder:
		return e.openPrompt(promptNewFolder, model.Item{})
	case e.keymap.Rename:
		item, ok := e.selectedItem()
		if !ok {
			e.message = "nothing selected"
			return e, nil
		}
		return e.openPrompt(promptRename, item)
	case e.keymap.Delete:
		item, ok := e.selectedItem()
		if !ok {
			e.message = "nothing selected"
			return e, nil
		}
		e.promptTarget = item
		e.mode = modeConfirmDelete
		return e, nil
	case e.keymap.Edit:
		item, ok := e.selectedItem()
		if !ok || item.IsDir() {
			e.message = "select a file to edit"
			return e, nil
		}
		if e.preview.name == item.Name && !e.preview.loading && e.preview.err == "" {
			return e.openEditor(item.Name, e.preview.content)
		}
		return e, e.previewCmd(item.Name, true)
	case e.keymap.Voice:
		if e.voiceBusy {
			return e, nil
		}
		e.voiceBusy = true
		return e, e.toggleVoiceCmd()
	case e.keymap.Shell:
		e.mode = modeShell
		if len(e.shellLines) == 0 {
			e.shellLines = e.shell.Welcome()
		}
		e.shellInput.Reset()
		return e, e.shellInput.Focus()
	}

	var cmd tea.Cmd
	e.list, cmd = e.list.Update(msg)
	return e, cmd
}

func (e *Explorer) openPrompt(kind promptKind, target model.Item) (tea.Model, tea.Cmd) {
	e.mode = modePrompt
	e.prompt = kind
	e.promptTarget = target
	e.promptErr = ""
	e.input.Reset()
	switch kind {
	case promptNewFolder:
		e.input.Placeholder = "folder name"
	case promptNewFile:
		e.input.Placeholder = "file name"
	case promptRename:
		e.input.Placeholder = "new name"
		e.input.SetValue(target.Name)
		e.input.CursorEnd()
	}
	return e, tea.Batch(e.input.Focus(), textinput.Blink)
}

func (e *Explorer) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		e.mode = modeBrowse
		e.input.Blur()
		return e, nil
	case "enter":
		name := strings.TrimSpace(e.input.Value())
		if name == "" {
			e.promptErr = "name cannot be empty"
			return e, nil
		}
		if strings.Contains(name, "/") {
			e.promptErr = "name cannot contain /"
			return e, nil
		}
		e.mode = modeBrowse
		e.input.Blur()
		switch e.prompt {
		case promptNewFolder:
			return e, e.opCmd(`Folder "`+name+`" created successfully!`, func(ctx context.Context) error {
				return e.backend.Mkdir(ctx, name)
			})
		case promptNewFile:
			return e, e.opCmd(`File "`+name+`" created successfully!`, func(ctx context.Context) error {
				return e.backend.CreateFile(ctx, name, "")
			})
		case promptRename:
			old := e.promptTarget.Name
			if name == old {
				return e, nil
			}
			if e.preview.name == old {
				e.preview = previewState{}
			}
			return e, e.opCmd(`"`+old+`" renamed to "`+name+`" successfully!`, func(ctx context.Context) error {
				return e.backend.Rename(ctx, old, name)
			})
		}
		return e, nil
	}

	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return e, cmd
}

func (e *Explorer) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		item := e.promptTarget
		e.mode = modeBrowse
		if e.preview.name == item.Name {
			e.preview = previewState{}
		}
		return e, e.opCmd(`"`+item.Name+`" deleted`, func(ctx context.Context) error {
			return e.backend.Delete(ctx, item)
		})
	case "n", "N", "esc", "q":
		e.mode = modeBrowse
		return e, nil
	}
	return e, nil
}

func (e *Explorer) openEditor(name, content string) (tea.Model, tea.Cmd) {
	e.mode = modeEdit
	e.editName = name
	e.editor.SetValue(content)
	e.resize()
	return e, e.editor.Focus()
}

func (e *Explorer) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		e.mode = modeBrowse
		e.editor.Blur()
		return e, nil
	case "ctrl+s":
		name, content := e.editName, e.editor.Value()
		return e, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
			defer cancel()
			return savedMsg{name: name, err: e.backend.EditFile(ctx, name, content)}
		}
	}

	var cmd tea.Cmd
	e.editor, cmd = e.editor.Update(msg)
	return e, cmd
}

func (e *Explorer) handleShellKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		e.mode = modeBrowse
		e.shellInput.Blur()
		e.shell.History().Reset()
		return e, nil
	case "up":
		if cmd, ok := e.shell.History().Previous(); ok {
			e.shellInput.SetValue(cmd)
			e.shellInput.CursorEnd()
		}
		return e, nil
	case "down":
		if cmd, ok := e.shell.History().Next(); ok {
			e.shellInput.SetValue(cmd)
			e.shellInput.CursorEnd()
		}
		return e, nil
	case "enter":
		if e.shellBusy {
			return e, nil
		}
		line := e.shellInput.Value()
		e.shellInput.Reset()
		if strings.TrimSpace(line) == "" {
			return e, nil
		}
		e.shell.History().Add(strings.TrimSpace(line))
		e.shellBusy = true
		return e, e.shellCmd(line)
	}

	var cmd tea.Cmd
	e.shellInput, cmd = e.shellInput.Update(msg)
	return e, cmd
}

func (e *Explorer) selectedItem() (model.Item, bool) {
	fi, ok := e.list.SelectedItem().(fileItem)
	if !ok {
		return model.Item{}, false
	}
	return fi.item, true
}

// setItems replaces the listing, keeping the selection on the same name
func (e *Explorer) setItems(items []model.Item) {
	prev, hadPrev := e.selectedItem()
	e.items = items
	e.list.SetItems(toListItems(items))
	if !hadPrev {
		return
	}
	for i, it := range items {
		if it.Name == prev.Name {
			e.list.Select(i)
			return
		}
	}
}

func (e *Explorer) resize() {
	w, h := e.bodySize()
	listW := e.listWidth(w)
	e.list.SetSize(listW-4, h-2)

	e.input.Width = w - 8
	e.shellInput.Width = w - 6

	e.editor.SetWidth(w - 2)
	editorH := e.height - 6
	if editorH < 3 {
		editorH = 3
	}
	e.editor.SetHeight(editorH)
}

// bodySize is the area available to the list and preview panes
func (e *Explorer) bodySize() (int, int) {
	w := e.width - 2
	if w < minListWidth*2 {
		w = minListWidth * 2
	}
	h := e.height - 9
	if h < 5 {
		h = 5
	}
	return w, h
}

func (e *Explorer) listWidth(total int) int {
	lw := total * 2 / 5
	if lw < minListWidth {
		lw = minListWidth
	}
	return lw
}

// Dir returns the directory on display
func (e *Explorer) Dir() string {
	return e.dir
}

// Items returns the listing on display
func (e *Explorer) Items() []model.Item {
	return e.items
}
