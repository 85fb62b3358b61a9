package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter renders a styled summary for terminals: a header with the
// version and runtime, a per-kind table and a footer with totals.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatSummary(r))
	if r.Detailed {
		w.WriteString("\n")
		w.WriteString(f.formatItems(r))
	}
	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	field := func(label, value string) string {
		return fmt.Sprintf("%s %s", LabelStyle.Render(label), ValueStyle.Render(value))
	}

	lines := []string{
		TitleStyle.Render(r.Version) + " " + MutedStyle.Render(r.Type),
		field("Platform:", r.Platform),
		field("Root:", r.Root),
		field("Main class:", r.MainClass),
	}
	if r.Runtime.Version != "" {
		lines = append(lines, field("Runtime:", r.Runtime.Component+" "+r.Runtime.Version))
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatSummary(r *Result) string {
	if len(r.Items) == 0 {
		return MutedStyle.Render("  Nothing to install\n")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s%s%s\n",
		TableHeaderStyle.Render(padRight("KIND", 16)),
		TableHeaderStyle.Render(padLeft("FILES", 8)),
		TableHeaderStyle.Render(padLeft("SIZE", 12)))

	for _, s := range r.Summary() {
		fmt.Fprintf(&sb, "  %s  %s  %s\n",
			ValueStyle.Render(padRight(s.Kind.String(), 16)),
			ValueStyle.Render(padLeft(humanize.Comma(int64(s.Count)), 8)),
			SizeStyle.Render(padLeft(humanize.IBytes(uint64(s.Size)), 12)))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatItems(r *Result) string {
	width := 8
	for _, it := range r.Items {
		if n := len(it.HumanSize()); n > width {
			width = n
		}
	}

	var sb strings.Builder
	for _, it := range r.Items {
		fmt.Fprintf(&sb, "  %s  %s\n",
			SizeStyle.Render(padLeft(it.HumanSize(), width)),
			PathStyle.Render(it.Path))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	parts := []string{
		LabelStyle.Render("Files:") + " " + ValueStyle.Render(humanize.Comma(int64(len(r.Items)))),
		LabelStyle.Render("Total:") + " " + SizeStyle.Render(humanize.IBytes(uint64(r.TotalSize()))),
	}
	if !r.Detailed {
		parts = append(parts, MutedStyle.Render("Use -o tsv to list every file"))
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

// padLeft pads a string with spaces on the left to achieve the desired width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
