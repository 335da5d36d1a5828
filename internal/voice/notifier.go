package voice

import (
	"sync"
	"time"
)

// Notifier holds at most one notification. Showing a new one replaces the
// current message and cancels its pending dismissal.
type Notifier struct {
	mu       sync.Mutex
	message  string
	seq      uint64
	timer    *time.Timer
	onChange func(message string)
}

// NewNotifier creates a Notifier. onChange, if set, is called with the new
// message on every change and with "" on dismissal. It is never called
// with the Notifier's lock held.
func NewNotifier(onChange func(message string)) *Notifier {
	return &Notifier{onChange: onChange}
}

// Show displays message for d. A non-positive d keeps it until replaced or dismissed.
func (n *Notifier) Show(message string, d time.Duration) {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.seq++
	id := n.seq
	n.message = message
	if d > 0 {
		n.timer = time.AfterFunc(d, func() { n.expire(id) })
	}
	n.mu.Unlock()

	n.emit(message)
}

// Current returns the message on display, or "" if none
func (n *Notifier) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.message
}

// Dismiss clears the current notification immediately
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.seq++
	hadMessage := n.message != ""
	n.message = ""
	n.mu.Unlock()

	if hadMessage {
		n.emit("")
	}
}

// Close stops the pending dismissal timer without emitting
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.seq++
}

func (n *Notifier) expire(id uint64) {
	n.mu.Lock()
	if id != n.seq {
		// replaced since this timer was armed
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.message = ""
	n.mu.Unlock()

	n.emit("")
}

func (n *Notifier) emit(message string) {
	if n.onChange != nil {
		n.onChange(message)
	}
}
