package voice

import (
	"context"
	"io"
	"log"
	"sync"
	"time"
)

const (
	DefaultPollInterval        = 300 * time.Millisecond
	DefaultNotifyDuration      = 6 * time.Second
	DefaultStopMessageDuration = 2 * time.Second

	ListeningText = "Listening..."
	StoppedText   = "Voice command stopped"
)

// Options tunes a Monitor. Zero values fall back to the defaults above.
type Options struct {
	PollInterval        time.Duration
	NotifyDuration      time.Duration
	StopMessageDuration time.Duration

	// Status receives the voice status line. May be nil.
	Status StatusSink
	// Logger receives transport failures and state changes. Discarded when nil.
	Logger *log.Logger
	// OnEvent is called once for every new status text after classification. May be nil.
	OnEvent func(Event)
}

// pollHandle owns one running poll loop
type pollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// release cancels the loop and waits for it to exit
func (h *pollHandle) release() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}

// Monitor runs a backend voice session: it polls the recognition status,
// refreshes the listing and notifies when a command succeeded, and re-arms
// the session whenever the backend reports a completed command.
type Monitor struct {
	session SessionService
	listing ListingProvider
	notes   NotificationSink
	opts    Options
	logger  *log.Logger

	// toggleMu serializes Start and Stop, including their backend calls.
	// The poll loop never takes it.
	toggleMu sync.Mutex

	mu         sync.Mutex
	active     bool
	closed     bool
	lastText   string
	display    string
	poll       *pollHandle
	clearTimer *time.Timer
	clearSeq   uint64
}

// NewMonitor creates an inactive monitor
func NewMonitor(session SessionService, listing ListingProvider, notes NotificationSink, opts Options) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.NotifyDuration <= 0 {
		opts.NotifyDuration = DefaultNotifyDuration
	}
	if opts.StopMessageDuration <= 0 {
		opts.StopMessageDuration = DefaultStopMessageDuration
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Monitor{
		session: session,
		listing: listing,
		notes:   notes,
		opts:    opts,
		logger:  logger,
	}
}

// Active reports whether a voice session is on
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Status returns the status line currently on display
func (m *Monitor) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.display
}

// LastText returns the last status text received from the backend
func (m *Monitor) LastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastText
}

// Toggle starts a session when inactive and stops it when active.
// It returns the new active state and never fails: backend errors are logged.
func (m *Monitor) Toggle(ctx context.Context) bool {
	m.toggleMu.Lock()
	defer m.toggleMu.Unlock()

	if m.Active() {
		m.stop(ctx)
	} else {
		m.start(ctx)
	}
	return m.Active()
}

// Start begins a session, replacing any running poll loop
func (m *Monitor) Start(ctx context.Context) {
	m.toggleMu.Lock()
	defer m.toggleMu.Unlock()
	m.start(ctx)
}

// Stop ends the session. When it returns no further ticks run.
func (m *Monitor) Stop(ctx context.Context) {
	m.toggleMu.Lock()
	defer m.toggleMu.Unlock()
	m.stop(ctx)
}

// Close tears the monitor down without contacting the backend.
// It is safe to call more than once.
func (m *Monitor) Close() {
	m.mu.Lock()
	m.closed = true
	m.active = false
	h := m.poll
	m.poll = nil
	m.stopClearTimerLocked()
	m.mu.Unlock()

	h.release()
}

func (m *Monitor) start(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.logger.Printf("voice: start ignored, monitor closed")
		return
	}
	prev := m.poll
	m.poll = nil
	m.mu.Unlock()

	// Never let two loops run
	prev.release()

	m.mu.Lock()
	m.active = true
	m.lastText = ""
	m.stopClearTimerLocked()
	m.mu.Unlock()

	m.setDisplay(ListeningText)
	m.logger.Printf("voice: starting session")

	if err := m.session.Start(ctx); err != nil {
		m.logger.Printf("voice: start session failed: %v", err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := &pollHandle{cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	if m.closed || !m.active {
		m.mu.Unlock()
		cancel()
		return
	}
	m.poll = h
	m.mu.Unlock()

	go m.loop(loopCtx, h)
}

func (m *Monitor) stop(ctx context.Context) {
	if err := m.session.Stop(ctx); err != nil {
		m.logger.Printf("voice: stop session failed: %v", err)
	}

	m.mu.Lock()
	m.active = false
	h := m.poll
	m.poll = nil
	m.mu.Unlock()

	h.release()

	m.setDisplay(StoppedText)
	m.scheduleClear()
	m.logger.Printf("voice: session stopped")
}

func (m *Monitor) loop(ctx context.Context, h *pollHandle) {
	defer close(h.done)

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.isCurrent(h) {
				return
			}
			m.tick(ctx, h)
		}
	}
}

// tick runs one poll. Ticks are serialized within a loop; the ticker drops
// intervals that elapse while a tick is still waiting on the backend.
func (m *Monitor) tick(ctx context.Context, h *pollHandle) {
	report, err := m.session.Poll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Printf("voice: poll failed: %v", err)
		}
		return
	}

	if report.HasText {
		event := Classify(report.Text)

		m.mu.Lock()
		if m.poll != h {
			m.mu.Unlock()
			return
		}
		changed := report.Text != m.lastText
		m.lastText = report.Text
		m.mu.Unlock()

		if changed {
			if event.Recognized() {
				if err := m.listing.Refresh(ctx); err != nil && ctx.Err() == nil {
					m.logger.Printf("voice: refresh after %s failed: %v", event.Kind(), err)
				}
				if ctx.Err() != nil {
					return
				}
				m.notes.Show(event.Message(), m.opts.NotifyDuration)
			}
			if m.opts.OnEvent != nil {
				m.opts.OnEvent(event)
			}
		}

		if !m.setDisplayIfCurrent(h, report.Text) {
			return
		}
	}

	if report.Completed {
		m.logger.Printf("voice: command completed, listening again")
		if err := m.session.Start(ctx); err != nil && ctx.Err() == nil {
			m.logger.Printf("voice: re-arm session failed: %v", err)
		}
	}
}

func (m *Monitor) isCurrent(h *pollHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active && m.poll == h
}

func (m *Monitor) setDisplay(text string) {
	m.mu.Lock()
	m.display = text
	m.mu.Unlock()
	m.emitStatus(text)
}

func (m *Monitor) setDisplayIfCurrent(h *pollHandle, text string) bool {
	m.mu.Lock()
	if m.poll != h {
		m.mu.Unlock()
		return false
	}
	m.display = text
	m.mu.Unlock()
	m.emitStatus(text)
	return true
}

func (m *Monitor) emitStatus(text string) {
	if m.opts.Status != nil {
		m.opts.Status.SetStatus(text)
	}
}

// scheduleClear blanks the stop message unless a new session starts first
func (m *Monitor) scheduleClear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.stopClearTimerLocked()
	id := m.clearSeq
	m.clearTimer = time.AfterFunc(m.opts.StopMessageDuration, func() {
		m.mu.Lock()
		if id != m.clearSeq || m.active {
			m.mu.Unlock()
			return
		}
		m.clearTimer = nil
		m.display = ""
		m.mu.Unlock()
		m.emitStatus("")
	})
}

func (m *Monitor) stopClearTimerLocked() {
	if m.clearTimer != nil {
		m.clearTimer.Stop()
		m.clearTimer = nil
	}
	m.clearSeq++
}
