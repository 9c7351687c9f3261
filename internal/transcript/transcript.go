// Package transcript stores the entries a chat widget has appended and
// prepares their text for display.
package transcript

import (
	"sync"

	"github.com/jask/casechat/internal/widget"
)

// Transcript is an append-only, concurrency-safe list of entries.
type Transcript struct {
	mu      sync.RWMutex
	entries []widget.Entry
	byID    map[string]int
}

func New() *Transcript {
	return &Transcript{byID: make(map[string]int)}
}

// Append adds e to the end. Entries are never edited or removed.
func (t *Transcript) Append(e widget.Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.ID != "" {
		t.byID[e.ID] = len(t.entries)
	}
	t.entries = append(t.entries, e)
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Entries returns a copy of every entry in append order.
func (t *Transcript) Entries() []widget.Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]widget.Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup finds an entry by ID.
func (t *Transcript) Lookup(id string) (widget.Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.byID[id]
	if !ok {
		return widget.Entry{}, false
	}
	return t.entries[i], true
}

// Origin returns the user entry that entry i answers, but only when the
// reply does not directly follow it. Adjacent replies need no attribution.
func (t *Transcript) Origin(i int) (widget.Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.entries) {
		return widget.Entry{}, false
	}
	e := t.entries[i]
	if !e.IsReply() {
		return widget.Entry{}, false
	}
	j, ok := t.byID[e.ReplyTo]
	if !ok || j == i-1 {
		return widget.Entry{}, false
	}
	return t.entries[j], true
}

// LastOptions returns the quick replies of the newest bot entry. Once the
// user has sent something after that entry the options are stale and nil is
// returned.
func (t *Transcript) LastOptions() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.entries) - 1; i >= 0; i-- {
		switch t.entries[i].Role {
		case widget.RoleUser:
			return nil
		case widget.RoleBot:
			return append([]string(nil), t.entries[i].Options...)
		}
	}
	return nil
}
