package terminal

// History keeps entered commands for up/down navigation. Index -1 means
// the user is editing a fresh line.
type History struct {
	entries []string
	index   int
	limit   int
}

// NewHistory creates a history holding at most limit entries (0 = unbounded)
func NewHistory(limit int) *History {
	return &History{index: -1, limit: limit}
}

// Add records a command and resets navigation
func (h *History) Add(cmd string) {
	h.index = -1
	if cmd == "" {
		return
	}
	h.entries = append(h.entries, cmd)
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

// Previous moves one entry back. ok is false when there is nothing older.
func (h *History) Previous() (cmd string, ok bool) {
	next := h.index + 1
	if next >= len(h.entries) {
		return "", false
	}
	h.index = next
	return h.entries[len(h.entries)-1-h.index], true
}

// Next moves one entry forward. Stepping past the newest entry returns an
// empty line.
func (h *History) Next() (cmd string, ok bool) {
	switch {
	case h.index > 0:
		h.index--
		return h.entries[len(h.entries)-1-h.index], true
	case h.index == 0:
		h.index = -1
		return "", true
	default:
		return "", false
	}
}

// Reset returns to a fresh line without forgetting entries
func (h *History) Reset() {
	h.index = -1
}

// Len returns the number of stored entries
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the stored commands, oldest first
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
