// Package report prints progress and summaries for a spatch run.
package report

import (
	"fmt"
	"io"
	"strings"

	glam "github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/asynkron/spatch/internal/split"
	"github.com/asynkron/spatch/pkg/patch"
)

// Reporter writes human readable progress to a terminal or plain stream.
type Reporter struct {
	out     io.Writer
	profile termenv.Profile

	badge   map[patch.Status]lipgloss.Style
	dim     lipgloss.Style
	errorSt lipgloss.Style
}

// New returns a reporter writing to w. color is "auto", "always" or "never";
// auto follows the terminal and NO_COLOR.
func New(w io.Writer, color string) *Reporter {
	if w == nil {
		w = io.Discard
	}
	var profile termenv.Profile
	switch strings.ToLower(color) {
	case "always":
		profile = termenv.ANSI256
	case "never":
		profile = termenv.Ascii
	default:
		profile = termenv.NewOutput(w).EnvColorProfile()
	}

	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	r.SetHasDarkBackground(true)

	badge := func(c string) lipgloss.Style {
		return r.NewStyle().Bold(true).Foreground(lipgloss.Color(c))
	}
	return &Reporter{
		out:     w,
		profile: profile,
		badge: map[patch.Status]lipgloss.Style{
			patch.StatusAdded:    badge("42"),
			patch.StatusDeleted:  badge("9"),
			patch.StatusRenamed:  badge("33"),
			patch.StatusModified: badge("214"),
			patch.StatusBinary:   badge("129"),
		},
		dim:     r.NewStyle().Foreground(lipgloss.Color("244")),
		errorSt: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

// Splitting announces that a named input is being processed.
func (r *Reporter) Splitting(source string) {
	fmt.Fprintf(r.out, "Splitting %s\n", source)
}

// Entry prints one written output.
func (r *Reporter) Entry(res split.Result) {
	status := res.Meta.Status
	tag := r.badge[status].Render("[" + status.Letter() + "]")
	path := res.Meta.Path()
	if status == patch.StatusRenamed {
		path = res.Meta.OldPath + " => " + res.Meta.NewPath
	}
	fmt.Fprintf(r.out, "  %s %s %s\n", tag, path, r.dim.Render("-> "+res.Destination))
}

// Error prints a failure without aborting the run.
func (r *Reporter) Error(err error) {
	fmt.Fprintf(r.out, "%s %v\n", r.errorSt.Render("[error]"), err)
}

// Summary prints a table of per-source results. On a colour terminal the
// Markdown is rendered with glamour, otherwise it is written as is.
func (r *Reporter) Summary(summaries []split.Summary) error {
	md := SummaryMarkdown(summaries)
	if r.profile == termenv.Ascii {
		_, err := io.WriteString(r.out, md)
		return err
	}
	renderer, err := glam.NewTermRenderer(
		glam.WithStylePath("dark"),
		glam.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("report: create renderer: %w", err)
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("report: render summary: %w", err)
	}
	_, err = io.WriteString(r.out, rendered)
	return err
}

// SummaryMarkdown formats summaries as a Markdown table.
func SummaryMarkdown(summaries []split.Summary) string {
	var b strings.Builder
	b.WriteString("| Source | Entries | Written | Skipped | Errors | Result |\n")
	b.WriteString("|---|---:|---:|---:|---:|---|\n")
	var entries, written, skipped, errs int
	for _, s := range summaries {
		source := s.Source
		if source == "" {
			source = "(stdin)"
		}
		result := "ok"
		switch {
		case s.Err != nil:
			result = "failed"
		case len(s.Errors) > 0:
			result = "partial"
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %s |\n",
			escapeCell(source), s.Entries, len(s.Written), s.Skipped, len(s.Errors), result)
		entries += s.Entries
		written += len(s.Written)
		skipped += s.Skipped
		errs += len(s.Errors)
	}
	if len(summaries) > 1 {
		fmt.Fprintf(&b, "| **total** | %d | %d | %d | %d | |\n", entries, written, skipped, errs)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
