package tui

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/rig/pkg/rig/download"
	"github.com/jamesainslie/rig/pkg/rig/types"
)

// maxActive bounds the active transfers kept in a Snapshot.
const maxActive = 6

// Active is an item currently transferring.
type Active struct {
	Path       string
	Downloaded int64
	Total      int64
}

// Failure is an item that ended with an Error event.
type Failure struct {
	Path string
	Err  error
}

// Snapshot is the aggregate state of a run at one instant.
type Snapshot struct {
	// Planned is the number of items announced by Planned.
	Planned int
	// PlannedBytes is their combined known size.
	PlannedBytes int64

	Finished int
	Cached   int
	Failed   int

	// Transferred counts bytes written by this run.
	Transferred int64

	// Completed counts planned bytes of finished items, cached or not.
	Completed int64

	// Active lists transferring items ordered by path, at most maxActive.
	Active []Active

	// ActiveBytes counts bytes written so far by every transferring item.
	ActiveBytes int64

	// InFlight is the number of in-flight items, including those not
	// listed in Active.
	InFlight int

	// Failures lists failed items in arrival order. Items that only
	// failed because the run was cancelled are left out.
	Failures []Failure

	Elapsed time.Duration
}

// Fraction returns overall progress in [0, 1]. It is byte-based when the
// plan has known sizes and item-based otherwise.
func (s Snapshot) Fraction() float64 {
	if s.PlannedBytes > 0 {
		return clamp(float64(s.Completed+s.ActiveBytes) / float64(s.PlannedBytes))
	}
	if s.Planned > 0 {
		return clamp(float64(s.Finished+s.Failed) / float64(s.Planned))
	}
	return 0
}

func clamp(f float64) float64 {
	return min(max(f, 0), 1)
}

// Tracker folds download events into a Snapshot. It is safe for
// concurrent use.
type Tracker struct {
	mu       sync.Mutex
	start    time.Time
	snap     Snapshot
	active   map[string]*Active
	inFlight map[string]struct{}
}

// NewTracker returns an empty Tracker whose clock starts now.
func NewTracker() *Tracker {
	return &Tracker{
		start:    time.Now(),
		active:   make(map[string]*Active),
		inFlight: make(map[string]struct{}),
	}
}

// Planned announces the items the next events belong to. Counters from
// earlier events (metadata fetches) are reset.
func (t *Tracker) Planned(items []types.Item) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Planned = len(items)
	t.snap.PlannedBytes = types.TotalSize(items)
	t.snap.Finished = 0
	t.snap.Cached = 0
	t.snap.Failed = 0
	t.snap.Completed = 0
	t.snap.Failures = nil
}

// Apply folds one event into the state.
func (t *Tracker) Apply(ev download.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	path := ev.Item.Path
	switch ev.Type {
	case download.EventStart:
		t.inFlight[path] = struct{}{}
	case download.EventChunk:
		t.snap.Transferred += ev.ChunkBytes
		a, ok := t.active[path]
		if !ok {
			a = &Active{Path: path}
			t.active[path] = a
		}
		a.Downloaded = ev.Downloaded
		a.Total = ev.Total
	case download.EventFinish:
		t.done(path)
		t.snap.Finished++
		if ev.Cached {
			t.snap.Cached++
		}
		if ev.Item.HasSize() {
			t.snap.Completed += ev.Item.Size
		}
	case download.EventError:
		t.done(path)
		t.snap.Failed++
		if !errors.Is(ev.Err, download.ErrCancelled) {
			t.snap.Failures = append(t.snap.Failures, Failure{Path: path, Err: ev.Err})
		}
	}
}

func (t *Tracker) done(path string) {
	delete(t.active, path)
	delete(t.inFlight, path)
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.snap
	s.Elapsed = time.Since(t.start)
	s.InFlight = len(t.inFlight)
	s.Failures = append([]Failure(nil), t.snap.Failures...)

	s.Active = make([]Active, 0, len(t.active))
	for _, a := range t.active {
		s.Active = append(s.Active, *a)
		s.ActiveBytes += a.Downloaded
	}
	sort.Slice(s.Active, func(i, j int) bool { return s.Active[i].Path < s.Active[j].Path })
	if len(s.Active) > maxActive {
		s.Active = s.Active[:maxActive]
	}
	return s
}
