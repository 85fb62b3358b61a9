package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/jamesainslie/rig/pkg/rig/download"
	"github.com/jamesainslie/rig/pkg/rig/types"
)

// Redraw rates. Start, Finish and Error events always refresh; Chunk
// events only when the limiter allows.
const (
	tuiRate   = rate.Limit(15)
	plainRate = rate.Limit(0.5)
)

// Reporter consumes the events of one run.
type Reporter interface {
	// Planned announces the items the following events belong to. It may
	// be called from another goroutine while Run is draining events.
	Planned(items []types.Item)

	// Run drains events until the channel is closed and returns the final
	// state.
	Run(events <-chan download.Event) (Snapshot, error)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec
}

// Program is the Bubble Tea reporter.
type Program struct {
	tracker *Tracker
	limiter *rate.Limiter
	program *tea.Program
	cancel  context.CancelFunc
}

// NewProgram returns a Bubble Tea reporter. cancel is invoked when the user
// interrupts the view.
func NewProgram(title string, cancel context.CancelFunc, opts ...tea.ProgramOption) *Program {
	return &Program{
		tracker: NewTracker(),
		limiter: rate.NewLimiter(tuiRate, 1),
		program: tea.NewProgram(NewModel(title, cancel), opts...),
		cancel:  cancel,
	}
}

// Planned implements Reporter.
func (p *Program) Planned(items []types.Item) {
	p.tracker.Planned(items)
	p.program.Send(snapshotMsg(p.tracker.Snapshot()))
}

// Run implements Reporter.
func (p *Program) Run(events <-chan download.Event) (Snapshot, error) {
	fed := make(chan struct{})
	go func() {
		defer close(fed)
		for ev := range events {
			p.tracker.Apply(ev)
			if ev.Type != download.EventChunk || p.limiter.Allow() {
				p.program.Send(snapshotMsg(p.tracker.Snapshot()))
			}
		}
		p.program.Send(snapshotMsg(p.tracker.Snapshot()))
		p.program.Send(doneMsg{})
	}()

	_, err := p.program.Run()
	if err != nil && p.cancel != nil {
		p.cancel()
	}
	<-fed
	return p.tracker.Snapshot(), err
}

// Plain prints progress as lines, for pipes, logs and --no-tui.
type Plain struct {
	w       io.Writer
	verbose bool
	tracker *Tracker
	limiter *rate.Limiter
}

// NewPlain returns a line reporter writing to w. In verbose mode every
// finished item is printed.
func NewPlain(w io.Writer, verbose bool) *Plain {
	return &Plain{
		w:       w,
		verbose: verbose,
		tracker: NewTracker(),
		limiter: rate.NewLimiter(plainRate, 1),
	}
}

// Planned implements Reporter.
func (p *Plain) Planned(items []types.Item) {
	p.tracker.Planned(items)
	fmt.Fprintf(p.w, "Installing %s files (%s)\n",
		humanize.Comma(int64(len(items))), humanize.IBytes(uint64(types.TotalSize(items))))
}

// Run implements Reporter.
func (p *Plain) Run(events <-chan download.Event) (Snapshot, error) {
	for ev := range events {
		p.tracker.Apply(ev)

		switch ev.Type {
		case download.EventFinish:
			if p.verbose {
				state := "fetched"
				if ev.Cached {
					state = "ok"
				}
				fmt.Fprintf(p.w, "  %-7s %s\n", state, filepath.ToSlash(ev.Item.Path))
			}
		case download.EventError:
			if errors.Is(ev.Err, download.ErrCancelled) {
				break
			}
			fmt.Fprintf(p.w, "  failed  %s: %v\n", filepath.ToSlash(ev.Item.Path), ev.Err)
		}

		if ev.Type == download.EventChunk && p.limiter.Allow() {
			p.line(p.tracker.Snapshot())
		}
	}

	s := p.tracker.Snapshot()
	if s.Planned > 0 {
		p.line(s)
	}
	return s, nil
}

func (p *Plain) line(s Snapshot) {
	fmt.Fprintf(p.w, "[%5.1f%%] %s/%s files, %s/%s, %s elapsed\n",
		s.Fraction()*100,
		humanize.Comma(int64(s.Finished)), humanize.Comma(int64(s.Planned)),
		humanize.IBytes(uint64(s.Completed+s.ActiveBytes)), humanize.IBytes(uint64(s.PlannedBytes)),
		s.Elapsed.Round(time.Second))
}

var (
	_ Reporter = (*Program)(nil)
	_ Reporter = (*Plain)(nil)
)
