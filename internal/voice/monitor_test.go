package voice

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/s22625/voxfs/internal/api"
)

const testInterval = 5 * time.Millisecond

type fakeSession struct {
	mu        sync.Mutex
	reports   []StatusReport
	next      int
	pollErrs  int
	startErr  error
	stopErr   error
	calls     []string
	inflight  int
	maxFlight int
	pollDelay time.Duration
}

func (f *fakeSession) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "start")
	return f.startErr
}

func (f *fakeSession) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "stop")
	return f.stopErr
}

// Poll returns the queued reports in order, then repeats the last one
func (f *fakeSession) Poll(ctx context.Context) (StatusReport, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "poll")
	f.inflight++
	if f.inflight > f.maxFlight {
		f.maxFlight = f.inflight
	}
	delay := f.pollDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
	if f.pollErrs > 0 {
		f.pollErrs--
		return StatusReport{}, errors.New("connection refused")
	}
	if len(f.reports) == 0 {
		return StatusReport{}, nil
	}
	report := f.reports[f.next]
	if f.next < len(f.reports)-1 {
		f.next++
	}
	return report, nil
}

func (f *fakeSession) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeSession) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// consumed reports whether every queued report has been returned at least once
func (f *fakeSession) consumed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports) > 0 && f.next == len(f.reports)-1
}

type fakeListing struct {
	mu        sync.Mutex
	refreshes int
	err       error
}

func (f *fakeListing) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.err
}

func (f *fakeListing) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

type shownNote struct {
	message  string
	duration time.Duration
}

type fakeNotes struct {
	mu    sync.Mutex
	shown []shownNote
}

func (f *fakeNotes) Show(message string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shown = append(f.shown, shownNote{message: message, duration: d})
}

func (f *fakeNotes) all() []shownNote {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]shownNote, len(f.shown))
	copy(out, f.shown)
	return out
}

func text(s string) StatusReport {
	return StatusReport{Text: s, HasText: true}
}

func newTestMonitor(session *fakeSession, listing *fakeListing, notes *fakeNotes) *Monitor {
	return NewMonitor(session, listing, notes, Options{
		PollInterval:        testInterval,
		StopMessageDuration: 30 * time.Millisecond,
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// settle lets the loop run several more ticks after the queue is drained
func settle(t *testing.T, session *fakeSession) {
	t.Helper()
	waitFor(t, "queued reports consumed", session.consumed)
	polls := session.count("poll")
	waitFor(t, "extra polls", func() bool { return session.count("poll") >= polls+5 })
}

func TestMonitorFolderCreated(t *testing.T) {
	session := &fakeSession{reports: []StatusReport{text("FOLDER_CREATED_X")}}
	listing := &fakeListing{}
	notes := &fakeNotes{}
	m := newTestMonitor(session, listing, notes)
	defer m.Close()

	m.Start(context.Background())
	settle(t, session)

	if got := listing.count(); got != 1 {
		t.Errorf("refreshes = %d, want 1", got)
	}
	shown := notes.all()
	if len(shown) != 1 {
		t.Fatalf("notifications = %+v, want exactly one", shown)
	}
	if shown[0].message != `Folder "X" created successfully!` {
		t.Errorf("message = %q", shown[0].message)
	}
	if shown[0].duration != DefaultNotifyDuration {
		t.Errorf("duration = %v, want %v", shown[0].duration, DefaultNotifyDuration)
	}
	if got := m.Status(); got != "FOLDER_CREATED_X" {
		t.Errorf("Status = %q", got)
	}
}

func TestMonitorEndToEnd(t *testing.T) {
	session := &fakeSession{reports: []StatusReport{
		text("Listening..."),
		text("FILE_CREATED_notes.txt"),
		text("Idle"),
	}}
	listing := &fakeListing{}
	notes := &fakeNotes{}

	var statusMu sync.Mutex
	var statuses []string
	m := NewMonitor(session, listing, notes, Options{
		PollInterval: testInterval,
		Status: StatusFunc(func(s string) {
			statusMu.Lock()
			statuses = append(statuses, s)
			statusMu.Unlock()
		}),
	})
	defer m.Close()

	if !m.Toggle(context.Background()) {
		t.Fatal("Toggle should activate the monitor")
	}
	settle(t, session)

	if got := listing.count(); got != 1 {
		t.Errorf("refreshes = %d, want 1", got)
	}
	shown := notes.all()
	if len(shown) != 1 || shown[0].message != `File "notes.txt" created successfully!` {
		t.Errorf("notifications = %+v", shown)
	}
	if got := m.Status(); got != "Idle" {
		t.Errorf("Status = %q, want Idle", got)
	}
	if got := m.LastText(); got != "Idle" {
		t.Errorf("LastText = %q, want Idle", got)
	}

	statusMu.Lock()
	defer statusMu.Unlock()
	if len(statuses) == 0 || statuses[0] != ListeningText {
		t.Errorf("first status = %q, want %q", statuses, ListeningText)
	}
	if !containsInOrder(statuses, "FILE_CREATED_notes.txt", "Idle") {
		t.Errorf("statuses = %q", statuses)
	}
}

func TestMonitorUnclassifiedText(t *testing.T) {
	session := &fakeSession{reports: []StatusReport{text("Listening..."), text("Processing your command...")}}
	listing := &fakeListing{}
	notes := &fakeNotes{}
	m := newTestMonitor(session, listing, notes)
	defer m.Close()

	m.Start(context.Background())
	settle(t, session)

	if got := listing.count(); got != 0 {
		t.Errorf("refreshes = %d, want 0", got)
	}
	if got := len(notes.all()); got != 0 {
		t.Errorf("notifications = %d, want 0", got)
	}
	if got := m.Status(); got != "Processing your command..." {
		t.Errorf("Status = %q", got)
	}
}

func TestMonitorGenericSuccess(t *testing.T) {
	session := &fakeSession{reports: []StatusReport{text("DELETE SUCCESS old.txt")}}
	listing := &fakeListing{}
	notes := &fakeNotes{}
	m := newTestMonitor(session, listing, notes)
	defer m.Close()

	m.Start(context.Background())
	settle(t, session)

	shown := notes.all()
	if len(shown) != 1 || shown[0].message != "DELETE SUCCESS old.txt" {
		t.Errorf("notifications = %+v", shown)
	}
	if got := listing.count(); got != 1 {
		t.Errorf("refreshes = %d, want 1", got)
	}
}

func TestMonitorRefreshFailureStillNotifies(t *testing.T) {
	session := &fakeSession{reports: []StatusReport{text("RENAME_SUCCESS_a_TO_b")}}
	listing := &fakeListing{err: errors.New("listing unavailable")}
	notes := &fakeNotes{}
	m := newTestMonitor(session, listing, notes)
	defer m.Close()

	m.Start(context.Background())
	settle(t, session)

	shown := notes.all()
	if len(shown) != 1 || shown[0].message != `"a" renamed to "b" successfully!` {
		t.Errorf("notifications = %+v", shown)
	}
	if !m.Active() {
		t.Error("monitor should stay active")
	}
}

func TestMonitorToggleTwice(t *testing.T) {
	session := &fakeSession{reports: []StatusReport{text("Listening...")}}
	m := newTestMonitor(session, &fakeListing{}, &fakeNotes{})
	defer m.Close()

	ctx := context.Background()
	if !m.Toggle(ctx) {
		t.Fatal("first Toggle should activate")
	}
	waitFor(t, "first poll", func() bool { return session.count("poll") > 0 })

	if m.Toggle(ctx) {
		t.Fatal("second Toggle should deactivate")
	}
	if m.Active() {
		t.Fatal("Active after second Toggle")
	}
	if got := m.Status(); got != StoppedText {
		t.Errorf("Status = %q, want %q", got, StoppedText)
	}
	if got := session.count("stop"); got != 1 {
		t.Errorf("stop calls = %d, want 1", got)
	}

	polls := session.count("poll")
	time.Sleep(10 * testInterval)
	if got := session.count("poll"); got != polls {
		t.Errorf("polls after stop = %d, want %d", got, polls)
	}

	waitFor(t, "stop message cleared", func() bool { return m.Status() == "" })
}

func TestMonitorRestartKeepsStopMessageFromClearingNewStatus(t *testing.T) {
	session := &fakeSession{}
	m := NewMonitor(session, &fakeListing{}, &fakeNotes{}, Options{
		PollInterval:        testInterval,
		StopMessageDuration: 20 * time.Millisecond,
	})
	defer m.Close()

	ctx := context.Background()
	m.Toggle(ctx)
	m.Toggle(ctx)
	m.Toggle(ctx)

	time.Sleep(60 * time.Millisecond)
	if got := m.Status(); got != ListeningText {
		t.Errorf("Status = %q, want %q", got, ListeningText)
	}
}

func TestMonitorCompletedReArms(t *testing.T) {
	session := &fakeSession{reports: []StatusReport{
		{Text: "Command completed", HasText: true, Completed: true},
		text("Listening..."),
	}}
	m := newTestMonitor(session, &fakeListing{}, &fakeNotes{})
	defer m.Close()

	m.Start(context.Background())
	settle(t, session)

	if got := session.count("start"); got != 2 {
		t.Errorf("start calls = %d, want 2", got)
	}
	if !m.Active() {
		t.Error("monitor should remain active after re-arm")
	}

	calls := session.callLog()
	want := []string{"start", "poll", "start", "poll"}
	if len(calls) < len(want) {
		t.Fatalf("calls = %q", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %q, want prefix %q", calls, want)
		}
	}
}

func TestMonitorMissingTextStillReArms(t *testing.T) {
	session := &fakeSession{reports: []StatusReport{{Completed: true}, {}}}
	listing := &fakeListing{}
	m := newTestMonitor(session, listing, &fakeNotes{})
	defer m.Close()

	m.Start(context.Background())
	settle(t, session)

	if got := session.count("start"); got != 2 {
		t.Errorf("start calls = %d, want 2", got)
	}
	if got := m.Status(); got != ListeningText {
		t.Errorf("Status = %q, want %q", got, ListeningText)
	}
	if got := listing.count(); got != 0 {
		t.Errorf("refreshes = %d, want 0", got)
	}
}

func TestMonitorPollErrorsAreNonFatal(t *testing.T) {
	var logs bytes.Buffer
	session := &fakeSession{pollErrs: 3, reports: []StatusReport{text("FILE_CREATED_a.txt")}}
	notes := &fakeNotes{}
	m := NewMonitor(session, &fakeListing{}, notes, Options{
		PollInterval: testInterval,
		Logger:       log.New(&syncWriter{w: &logs}, "", 0),
	})
	defer m.Close()

	m.Start(context.Background())
	waitFor(t, "notification", func() bool { return len(notes.all()) == 1 })

	if !m.Active() {
		t.Error("monitor should stay active after poll errors")
	}
	m.Close()
	if !strings.Contains(logs.String(), "poll failed") {
		t.Errorf("expected poll failures to be logged, got %q", logs.String())
	}
}

func TestMonitorStartFailureKeepsActive(t *testing.T) {
	session := &fakeSession{startErr: errors.New("backend down")}
	m := newTestMonitor(session, &fakeListing{}, &fakeNotes{})
	defer m.Close()

	if !m.Toggle(context.Background()) {
		t.Fatal("Toggle should report active even when start fails")
	}
	if got := m.Status(); got != ListeningText {
		t.Errorf("Status = %q, want %q", got, ListeningText)
	}
	waitFor(t, "polling despite start failure", func() bool { return session.count("poll") > 0 })
}

func TestMonitorStopFailureStillStops(t *testing.T) {
	session := &fakeSession{stopErr: errors.New("backend down")}
	m := newTestMonitor(session, &fakeListing{}, &fakeNotes{})
	defer m.Close()

	ctx := context.Background()
	m.Toggle(ctx)
	if m.Toggle(ctx) {
		t.Fatal("Toggle should report inactive even when stop fails")
	}
	polls := session.count("poll")
	time.Sleep(10 * testInterval)
	if got := session.count("poll"); got != polls {
		t.Errorf("polling continued after stop: %d -> %d", polls, got)
	}
}

func TestMonitorStartWhileActiveKeepsSingleLoop(t *testing.T) {
	session := &fakeSession{pollDelay: 3 * time.Millisecond, reports: []StatusReport{text("Listening...")}}
	m := NewMonitor(session, &fakeListing{}, &fakeNotes{}, Options{PollInterval: time.Millisecond})
	defer m.Close()

	ctx := context.Background()
	m.Start(ctx)
	m.Start(ctx)
	m.Start(ctx)

	polls := session.count("poll")
	waitFor(t, "polling", func() bool { return session.count("poll") >= polls+20 })

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.maxFlight != 1 {
		t.Errorf("max concurrent polls = %d, want 1", session.maxFlight)
	}
}

func TestMonitorCloseCancelsWithoutBackendCall(t *testing.T) {
	session := &fakeSession{}
	m := newTestMonitor(session, &fakeListing{}, &fakeNotes{})

	m.Start(context.Background())
	waitFor(t, "first poll", func() bool { return session.count("poll") > 0 })

	m.Close()
	m.Close()
	polls := session.count("poll")
	time.Sleep(10 * testInterval)

	if got := session.count("poll"); got != polls {
		t.Errorf("polls after Close = %d, want %d", got, polls)
	}
	if got := session.count("stop"); got != 0 {
		t.Errorf("stop calls = %d, want 0", got)
	}
	if m.Active() {
		t.Error("Active after Close")
	}

	m.Start(context.Background())
	if m.Active() {
		t.Error("Start after Close must be ignored")
	}
}

func TestMonitorOnEventOncePerText(t *testing.T) {
	session := &fakeSession{reports: []StatusReport{
		text("Listening..."),
		text("Listening..."),
		text("FOLDER_CREATED_docs"),
		text("FOLDER_CREATED_docs"),
		text("Idle"),
	}}
	var mu sync.Mutex
	var kinds []Kind
	m := NewMonitor(session, &fakeListing{}, &fakeNotes{}, Options{
		PollInterval: testInterval,
		OnEvent: func(e Event) {
			mu.Lock()
			kinds = append(kinds, e.Kind())
			mu.Unlock()
		},
	})
	defer m.Close()

	m.Start(context.Background())
	settle(t, session)

	mu.Lock()
	defer mu.Unlock()
	want := []Kind{KindUnclassified, KindFolderCreated, KindUnclassified}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %q, want %q", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestBackendSessionPoll(t *testing.T) {
	empty := ""
	idle := "Idle"
	tests := []struct {
		name    string
		status  *api.VoiceStatus
		want    StatusReport
		wantErr bool
	}{
		{name: "text", status: &api.VoiceStatus{Text: &idle, Completed: true}, want: StatusReport{Text: "Idle", HasText: true, Completed: true}},
		{name: "empty text", status: &api.VoiceStatus{Text: &empty}, want: StatusReport{}},
		{name: "missing text", status: &api.VoiceStatus{}, want: StatusReport{}},
		{name: "error", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewBackendSession(&fakeBackend{status: tt.status})
			got, err := s.Poll(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Poll error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Poll = %+v, want %+v", got, tt.want)
			}
		})
	}
}

type fakeBackend struct {
	status *api.VoiceStatus
}

func (f *fakeBackend) StartVoice(ctx context.Context) error { return nil }

func (f *fakeBackend) StopVoice(ctx context.Context) error { return nil }

func (f *fakeBackend) GetVoiceStatus(ctx context.Context) (*api.VoiceStatus, error) {
	if f.status == nil {
		return nil, errors.New("status unavailable")
	}
	return f.status, nil
}

func containsInOrder(haystack []string, needles ...string) bool {
	i := 0
	for _, s := range haystack {
		if i < len(needles) && s == needles[i] {
			i++
		}
	}
	return i == len(needles)
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
