package explorer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/s22625/voxfs/internal/api"
	"github.com/s22625/voxfs/internal/model"
	"github.com/s22625/voxfs/internal/store/file"
	"github.com/s22625/voxfs/internal/voice"
)

type fakeBackend struct {
	mu      sync.Mutex
	dir     string
	items   []model.Item
	files   map[string]string
	listErr error
	opErr   error
	calls   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		dir: "PBL_FS/alice",
		items: []model.Item{
			{Name: "b.txt", Type: model.ItemTypeFile},
			{Name: "Music", Type: model.ItemTypeDirectory},
			{Name: "a.txt", Type: model.ItemTypeFile},
		},
		files: map[string]string{"a.txt": "hello", "b.txt": "world"},
	}
}

func (f *fakeBackend) record(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.opErr
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) called(call string) bool {
	for _, c := range f.callLog() {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeBackend) List(ctx context.Context) (*model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "ls")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &model.Listing{Items: append([]model.Item(nil), f.items...)}, nil
}

func (f *fakeBackend) Pwd(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dir, nil
}

func (f *fakeBackend) ChangeDir(ctx context.Context, name string) (string, error) {
	if err := f.record("cd %s", name); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dir = f.dir + "/" + name
	return f.dir, nil
}

func (f *fakeBackend) MoveUp(ctx context.Context) error { return f.record("up") }

func (f *fakeBackend) Mkdir(ctx context.Context, name string) error {
	return f.record("mkdir %s", name)
}

func (f *fakeBackend) Rmdir(ctx context.Context, name string) error {
	return f.record("rmdir %s", name)
}

func (f *fakeBackend) CreateFile(ctx context.Context, name, content string) error {
	return f.record("create %s", name)
}

func (f *fakeBackend) DeleteFile(ctx context.Context, name string) error {
	return f.record("rm %s", name)
}

func (f *fakeBackend) ReadFile(ctx context.Context, name string) (string, error) {
	if err := f.record("cat %s", name); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[name], nil
}

func (f *fakeBackend) EditFile(ctx context.Context, name, content string) error {
	return f.record("edit %s %s", name, content)
}

func (f *fakeBackend) Rename(ctx context.Context, oldName, newName string) error {
	return f.record("mv %s %s", oldName, newName)
}

func (f *fakeBackend) Delete(ctx context.Context, item model.Item) error {
	return f.record("delete %s", item.Name)
}

type fakeVoice struct {
	mu    sync.Mutex
	calls []string
}

func (v *fakeVoice) add(call string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, call)
}

func (v *fakeVoice) Start(ctx context.Context) error { v.add("start"); return nil }
func (v *fakeVoice) Stop(ctx context.Context) error  { v.add("stop"); return nil }
func (v *fakeVoice) Poll(ctx context.Context) (voice.StatusReport, error) {
	return voice.StatusReport{}, nil
}

// posted collects messages the explorer sends into the program
type posted struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (p *posted) send(msg tea.Msg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

func (p *posted) take() []tea.Msg {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.msgs
	p.msgs = nil
	return msgs
}

type harness struct {
	t       *testing.T
	e       *Explorer
	backend *fakeBackend
	voice   *fakeVoice
	posted  *posted
	quit    bool
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{t: t, backend: newFakeBackend(), voice: &fakeVoice{}, posted: &posted{}}
	if opts.Backend == nil {
		opts.Backend = h.backend
	}
	if opts.Voice == nil {
		opts.Voice = h.voice
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Hour
	}
	if opts.Session == nil {
		opts.Session = &model.Session{Username: "alice", Token: "a.b.c", CurrentDir: "PBL_FS/alice"}
	}
	h.e = New(opts)
	h.e.send = h.posted.send
	t.Cleanup(h.e.shutdown)

	h.update(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.run(h.e.Init())
	return h
}

func (h *harness) update(msg tea.Msg) {
	h.t.Helper()
	_, cmd := h.e.Update(msg)
	h.run(cmd)
}

func (h *harness) key(s string) {
	h.t.Helper()
	var msg tea.KeyMsg
	switch s {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+s":
		msg = tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	h.update(msg)
}

// run executes cmd and feeds the explorer's own messages back into Update.
// Component commands that block on timers (cursor blink) are abandoned.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	if cmd == nil {
		return
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(200 * time.Millisecond):
		return
	}

	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			h.run(c)
		}
	case tea.QuitMsg:
		h.quit = true
	case listingMsg, previewMsg, opDoneMsg, savedMsg, shellMsg, voiceToggledMsg, voiceStatusMsg, notifyMsg:
		h.update(msg)
	}
}

// flush delivers everything posted from outside the update loop
func (h *harness) flush() []tea.Msg {
	h.t.Helper()
	msgs := h.posted.take()
	for _, msg := range msgs {
		h.update(msg)
	}
	return msgs
}

func names(items []model.Item) string {
	var out []string
	for _, item := range items {
		out = append(out, item.Name)
	}
	return strings.Join(out, ",")
}

func TestInitLoadsSortedListing(t *testing.T) {
	h := newHarness(t, Options{})

	if got := names(h.e.Items()); got != "Music,a.txt,b.txt" {
		t.Errorf("items = %q, want folders first then by name", got)
	}
	if h.e.Dir() != "PBL_FS/alice" {
		t.Errorf("dir = %q", h.e.Dir())
	}
	if h.e.loading {
		t.Error("loading should be cleared after the listing arrives")
	}
}

func TestWelcomeNotification(t *testing.T) {
	h := newHarness(t, Options{Welcome: true})
	h.flush()
	if h.e.banner != welcomeMessage {
		t.Errorf("banner = %q, want %q", h.e.banner, welcomeMessage)
	}
}

func TestStaleListingDropped(t *testing.T) {
	h := newHarness(t, Options{})

	stale := h.e.loadSeq
	h.e.loadCmd()
	h.update(listingMsg{seq: stale, items: []model.Item{{Name: "old", Type: model.ItemTypeFile}}})
	if got := names(h.e.Items()); got != "Music,a.txt,b.txt" {
		t.Errorf("stale listing applied: %q", got)
	}

	// Voice refreshes are applied whatever the sequence
	h.update(listingMsg{voice: true, items: []model.Item{{Name: "new", Type: model.ItemTypeDirectory}}})
	if got := names(h.e.Items()); got != "new" {
		t.Errorf("voice listing not applied: %q", got)
	}
}

func TestRefreshFromVoicePostsListing(t *testing.T) {
	h := newHarness(t, Options{})
	h.backend.mu.Lock()
	h.backend.items = append(h.backend.items, model.Item{Name: "docs", Type: model.ItemTypeDirectory})
	h.backend.mu.Unlock()

	if err := h.e.refreshFromVoice(context.Background()); err != nil {
		t.Fatalf("refreshFromVoice: %v", err)
	}
	h.flush()
	if got := names(h.e.Items()); got != "docs,Music,a.txt,b.txt" {
		t.Errorf("items = %q", got)
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	st, err := file.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	session := &model.Session{Username: "alice", Token: "a.b.c"}
	if err := st.Save(session); err != nil {
		t.Fatal(err)
	}

	backend := newFakeBackend()
	backend.listErr = &api.StatusError{Op: "list", Code: 401}
	h := newHarness(t, Options{Backend: backend, Store: st, Session: session})

	if !h.quit {
		t.Error("expected the program to quit")
	}
	if h.e.exitMessage != sessionExpiredText {
		t.Errorf("exitMessage = %q", h.e.exitMessage)
	}
	loaded, err := st.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Authenticated() {
		t.Error("session should have been cleared")
	}
}

func TestListingTimeout(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.loadCmd()
	h.update(listingMsg{seq: h.e.loadSeq, err: fmt.Errorf("list: %w", context.DeadlineExceeded)})
	if h.e.errText != timeoutMessage {
		t.Errorf("errText = %q, want %q", h.e.errText, timeoutMessage)
	}
	if h.quit {
		t.Error("a timeout must not quit")
	}
}

func TestListingErrorShown(t *testing.T) {
	backend := newFakeBackend()
	backend.listErr = fmt.Errorf("connection refused")
	h := newHarness(t, Options{Backend: backend})
	if !strings.Contains(h.e.errText, "Failed to load files: connection refused") {
		t.Errorf("errText = %q", h.e.errText)
	}
}

func TestCreateFolderPrompt(t *testing.T) {
	h := newHarness(t, Options{})

	h.key("m")
	if h.e.mode != modePrompt || h.e.prompt != promptNewFolder {
		t.Fatalf("mode = %v prompt = %v", h.e.mode, h.e.prompt)
	}
	h.key("docs")
	h.key("enter")

	if !h.backend.called("mkdir docs") {
		t.Errorf("calls = %v", h.backend.callLog())
	}
	if h.e.mode != modeBrowse {
		t.Errorf("mode = %v, want browse", h.e.mode)
	}
	h.flush()
	if h.e.banner != `Folder "docs" created successfully!` {
		t.Errorf("banner = %q", h.e.banner)
	}
}

func TestPromptValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "name cannot be empty"},
		{"blank", "   ", "name cannot be empty"},
		{"slash", "a/b", "name cannot contain /"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{})
			h.key("n")
			h.e.input.SetValue(tt.input)
			h.key("enter")
			if h.e.mode != modePrompt {
				t.Errorf("prompt should stay open")
			}
			if h.e.promptErr != tt.want {
				t.Errorf("promptErr = %q, want %q", h.e.promptErr, tt.want)
			}
			for _, c := range h.backend.callLog() {
				if strings.HasPrefix(c, "create") {
					t.Errorf("unexpected call %q", c)
				}
			}
		})
	}
}

func TestRenameSelected(t *testing.T) {
	h := newHarness(t, Options{})
	h.key("down")

	h.key("R")
	if h.e.input.Value() != "a.txt" {
		t.Errorf("rename prompt should start with the old name, got %q", h.e.input.Value())
	}
	h.e.input.SetValue("c.txt")
	h.key("enter")

	if !h.backend.called("mv a.txt c.txt") {
		t.Errorf("calls = %v", h.backend.callLog())
	}
	h.flush()
	if h.e.banner != `"a.txt" renamed to "c.txt" successfully!` {
		t.Errorf("banner = %q", h.e.banner)
	}
}

func TestDeleteConfirm(t *testing.T) {
	h := newHarness(t, Options{})

	h.key("d")
	if h.e.mode != modeConfirmDelete {
		t.Fatalf("mode = %v", h.e.mode)
	}
	h.key("n")
	if h.e.mode != modeBrowse {
		t.Errorf("mode = %v", h.e.mode)
	}
	for _, c := range h.backend.callLog() {
		if strings.HasPrefix(c, "delete") {
			t.Fatalf("declined delete still called backend: %v", c)
		}
	}

	h.key("d")
	h.key("y")
	if !h.backend.called("delete Music") {
		t.Errorf("calls = %v", h.backend.callLog())
	}
	h.flush()
	if h.e.banner != `"Music" deleted` {
		t.Errorf("banner = %q", h.e.banner)
	}
}

func TestOpenFolderAndMoveUp(t *testing.T) {
	h := newHarness(t, Options{})

	h.key("enter")
	if !h.backend.called("cd Music") {
		t.Errorf("calls = %v", h.backend.callLog())
	}
	if h.e.Dir() != "PBL_FS/alice/Music" {
		t.Errorf("dir = %q", h.e.Dir())
	}

	h.key("backspace")
	if !h.backend.called("up") {
		t.Errorf("calls = %v", h.backend.callLog())
	}
}

func TestPreviewAndEdit(t *testing.T) {
	h := newHarness(t, Options{})
	h.key("down")

	h.key("enter")
	if h.e.preview.name != "a.txt" || h.e.preview.content != "hello" {
		t.Fatalf("preview = %+v", h.e.preview)
	}

	h.key("e")
	if h.e.mode != modeEdit || h.e.editor.Value() != "hello" {
		t.Fatalf("mode = %v editor = %q", h.e.mode, h.e.editor.Value())
	}
	h.e.editor.SetValue("bye")
	h.key("ctrl+s")

	if !h.backend.called("edit a.txt bye") {
		t.Errorf("calls = %v", h.backend.callLog())
	}
	if h.e.mode != modeBrowse {
		t.Errorf("mode = %v", h.e.mode)
	}
	h.flush()
	if h.e.banner != "File saved successfully!" {
		t.Errorf("banner = %q", h.e.banner)
	}
}

func TestEditFolderRefused(t *testing.T) {
	h := newHarness(t, Options{})
	h.key("e")
	if h.e.mode != modeBrowse {
		t.Errorf("mode = %v", h.e.mode)
	}
	if h.e.message != "select a file to edit" {
		t.Errorf("message = %q", h.e.message)
	}
}

func TestVoiceToggle(t *testing.T) {
	h := newHarness(t, Options{StopMessageDuration: time.Hour})

	h.key("v")
	if !h.e.voiceActive {
		t.Fatal("voice should be active")
	}
	h.flush()
	if h.e.voiceStatus != voice.ListeningText {
		t.Errorf("voiceStatus = %q", h.e.voiceStatus)
	}

	h.key("v")
	if h.e.voiceActive {
		t.Fatal("voice should be inactive")
	}
	h.flush()
	if h.e.voiceStatus != voice.StoppedText {
		t.Errorf("voiceStatus = %q", h.e.voiceStatus)
	}

	h.voice.mu.Lock()
	calls := strings.Join(h.voice.calls, ",")
	h.voice.mu.Unlock()
	if calls != "start,stop" {
		t.Errorf("session calls = %q", calls)
	}
}

func TestVoiceToggleIgnoredWhileBusy(t *testing.T) {
	h := newHarness(t, Options{})
	h.e.voiceBusy = true
	_, cmd := h.e.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("v")})
	if cmd != nil {
		t.Error("toggle should be ignored while a toggle is in flight")
	}
}

func TestShellFlow(t *testing.T) {
	h := newHarness(t, Options{})

	h.key(":")
	if h.e.mode != modeShell {
		t.Fatalf("mode = %v", h.e.mode)
	}
	if len(h.e.shellLines) != 2 {
		t.Fatalf("welcome lines = %+v", h.e.shellLines)
	}

	before := len(h.backend.callLog())
	h.e.shellInput.SetValue("mkdir x")
	h.key("enter")

	var texts []string
	for _, l := range h.e.shellLines {
		texts = append(texts, l.Text)
	}
	joined := strings.Join(texts, "\n")
	if !strings.Contains(joined, "$ mkdir x") || !strings.Contains(joined, "Directory created: x") {
		t.Errorf("shell lines = %q", joined)
	}
	calls := h.backend.callLog()[before:]
	if len(calls) < 2 || calls[0] != "mkdir x" || calls[1] != "ls" {
		t.Errorf("expected mkdir then a listing reload, got %v", calls)
	}

	h.key("up")
	if h.e.shellInput.Value() != "mkdir x" {
		t.Errorf("history recall = %q", h.e.shellInput.Value())
	}

	h.key("esc")
	if h.e.mode != modeBrowse {
		t.Errorf("mode = %v", h.e.mode)
	}
}

func TestShellHistoryWhileCommandRuns(t *testing.T) {
	h := newHarness(t, Options{})
	h.key(":")

	h.e.shellInput.SetValue("ls")
	_, cmd := h.e.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !h.e.shellBusy {
		t.Fatalf("expected a running shell command (busy=%v)", h.e.shellBusy)
	}
	if got := h.e.shell.History().Entries(); len(got) != 1 || got[0] != "ls" {
		t.Fatalf("history = %q, want the submitted line", got)
	}

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	for i := 0; i < 100; i++ {
		h.e.Update(tea.KeyMsg{Type: tea.KeyUp})
		h.e.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	h.e.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := h.e.shellInput.Value(); got != "ls" {
		t.Errorf("history recall while busy = %q", got)
	}

	h.update(<-done)
	if h.e.shellBusy {
		t.Error("shell should be idle after the result arrives")
	}
	if n := h.e.shell.History().Len(); n != 1 {
		t.Errorf("history len = %d, want 1", n)
	}
}

func TestHelpPopup(t *testing.T) {
	h := newHarness(t, Options{})
	h.key("?")
	if h.e.mode != modeHelp {
		t.Fatalf("mode = %v", h.e.mode)
	}
	if !strings.Contains(h.e.View(), "toggle voice commands") {
		t.Error("help view should list bindings")
	}
	h.key("x")
	if h.e.mode != modeBrowse {
		t.Errorf("mode = %v", h.e.mode)
	}
}

func TestViewBrowse(t *testing.T) {
	h := newHarness(t, Options{Server: "http://localhost:8080"})
	h.update(notifyMsg{text: "hi there"})
	h.update(voiceStatusMsg{text: "Recognized: make folder"})

	view := h.e.View()
	for _, want := range []string{"VOXFS", "alice@http://localhost:8080", "Path: ", "PBL_FS/alice", "Music/", "a.txt", "Select a file to preview", "hi there", "Recognized: make folder"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestToneOf(t *testing.T) {
	tests := []struct {
		text string
		want VoiceTone
	}{
		{"", ToneNone},
		{"Listening...", ToneListening},
		{"Recognized: create folder docs", ToneRecognized},
		{"ERROR: no speech", ToneError},
		{"Error: Failed to create folder", ToneError},
		{"FOLDER_CREATED_docs", ToneNone},
		{"DELETE SUCCESS old.txt", ToneSuccess},
		{"Folder created", ToneSuccess},
		{"Navigated to docs", ToneSuccess},
		{"Processing...", ToneProcessing},
		{"Voice command stopped", ToneNone},
	}

	for _, tt := range tests {
		if got := ToneOf(tt.text); got != tt.want {
			t.Errorf("ToneOf(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"日本語テキスト", 7, "日本..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  []string
	}{
		{"short", 10, []string{"short"}},
		{"hello big world", 11, []string{"hello big", "world"}},
		{"hello big world", 9, []string{"hello", "big world"}},
		{"abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"a\n\nb", 5, []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		got := wrapText(tt.in, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
