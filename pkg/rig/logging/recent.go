package logging

import "sync"

// DefaultRecentSize is the number of entries kept in TUI mode.
const DefaultRecentSize = 50

// Recent is a fixed-size ring of log entries.
type Recent struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewRecent returns a ring holding up to size entries.
func NewRecent(size int) *Recent {
	if size <= 0 {
		size = DefaultRecentSize
	}
	return &Recent{entries: make([]Entry, size)}
}

// Add stores e, overwriting the oldest entry when full.
func (r *Recent) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
}

// Len returns the number of stored entries.
func (r *Recent) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.len()
}

func (r *Recent) len() int {
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Last returns up to n of the newest entries, oldest first.
func (r *Recent) Last(n int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.len()
	if n > count || n < 0 {
		n = count
	}

	out := make([]Entry, n)
	first := r.next - n
	if first < 0 {
		first += len(r.entries)
	}
	for i := range n {
		out[i] = r.entries[(first+i)%len(r.entries)]
	}
	return out
}
