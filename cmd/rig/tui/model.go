package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/rig/pkg/rig/logging"
)

// snapshotMsg carries fresh state from the event feeder.
type snapshotMsg Snapshot

// doneMsg is sent once the event channel is closed.
type doneMsg struct{}

// Model is the progress view.
type Model struct {
	title      string
	snap       Snapshot
	spinner    spinner.Model
	bar        progress.Model
	width      int
	cancel     func()
	cancelling bool
	done       bool
}

// NewModel returns a progress view titled title. cancel is called when the
// user presses ctrl+c or q; it may be nil.
func NewModel(title string, cancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		title:   title,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		width:   80,
		cancel:  cancel,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil

	case snapshotMsg:
		m.snap = Snapshot(msg)
		return m, nil

	case doneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress view.
func (m Model) View() string {
	width := max(m.width-4, 40)
	s := m.snap

	var b strings.Builder

	status := m.spinner.View() + " " + titleStyle.Render(m.title)
	switch {
	case m.done:
		status = successTextStyle.Render("done") + " " + titleStyle.Render(m.title)
	case m.cancelling:
		status += " " + warningTextStyle.Render("cancelling...")
	}
	hint := mutedTextStyle.Render("[ctrl+c to cancel]")
	gap := max(width-lipgloss.Width(status)-lipgloss.Width(hint), 1)
	b.WriteString(status + strings.Repeat(" ", gap) + hint + "\n\n")

	m.bar.Width = width - 8
	fmt.Fprintf(&b, "%s %5.1f%%\n\n", m.bar.ViewAs(s.Fraction()), s.Fraction()*100)

	fmt.Fprintf(&b, "%s %s/%s   %s %s/%s   %s %s   %s %s\n",
		mutedTextStyle.Render("files"),
		humanize.Comma(int64(s.Finished)), humanize.Comma(int64(s.Planned)),
		mutedTextStyle.Render("size"),
		humanize.IBytes(uint64(s.Completed+s.ActiveBytes)), humanize.IBytes(uint64(s.PlannedBytes)),
		mutedTextStyle.Render("cached"), humanize.Comma(int64(s.Cached)),
		mutedTextStyle.Render("elapsed"), s.Elapsed.Round(time.Second))

	if s.Failed > 0 {
		b.WriteString(errorTextStyle.Render(fmt.Sprintf("%d failed", s.Failed)) + "\n")
	}

	if len(s.Active) > 0 {
		b.WriteString("\n")
		for _, a := range s.Active {
			size := humanize.IBytes(uint64(a.Downloaded))
			if a.Total > 0 {
				size += "/" + humanize.IBytes(uint64(a.Total))
			}
			name := truncate(filepath.ToSlash(a.Path), width-len(size)-4)
			fmt.Fprintf(&b, "  %s  %s\n", accentStyle.Render(name), mutedTextStyle.Render(size))
		}
		if more := s.InFlight - len(s.Active); more > 0 {
			b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  ... %d more", more)) + "\n")
		}
	}

	if entries := logging.RecentEntries(3); len(entries) > 0 {
		b.WriteString("\n")
		for _, e := range entries {
			line := truncate(fmt.Sprintf("%s %s: %s", e.Level, e.Component, e.Message), width)
			b.WriteString(warningTextStyle.Render(line) + "\n")
		}
	}

	return boxStyle.Width(m.width - 2).Render(strings.TrimSuffix(b.String(), "\n"))
}

// truncate shortens s to width, keeping its tail.
func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return "..." + s[len(s)-width+3:]
}
