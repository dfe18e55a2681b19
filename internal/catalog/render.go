package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	groupStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	missingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Strikethrough(true)
)

// RenderOptions controls Render output.
type RenderOptions struct {
	// Plain disables styling.
	Plain bool

	// Language selects number formatting for counts. Defaults to English.
	Language language.Tag
}

// Render prints the grouped catalog in index order followed by a count
// footer.
func Render(w io.Writer, c *Catalog, opts RenderOptions) error {
	if opts.Language == language.Und {
		opts.Language = language.English
	}
	p := message.NewPrinter(opts.Language)
	style := func(s lipgloss.Style, text string) string {
		if opts.Plain {
			return text
		}
		return s.Render(text)
	}

	width := len(fmt.Sprint(c.Len()))
	nameWidth := 0
	for _, e := range c.entries {
		nameWidth = max(nameWidth, len(e.Dataset.Name))
	}

	var b strings.Builder
	for i, g := range c.groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(style(groupStyle, g.Label))
		b.WriteString("\n")

		for _, e := range g.Entries {
			d := e.Dataset
			idx := fmt.Sprintf("[%*d]", width, e.Index)
			name := fmt.Sprintf("%-*s", nameWidth, d.Name)
			details := fmt.Sprintf("subject: %s  study: %s  runs: %d", d.SubjectID, d.StudyName, d.RunCount)

			if e.Missing {
				fmt.Fprintf(&b, "  %s %s  %s\n", style(dimStyle, idx), style(missingStyle, name), style(dimStyle, "(missing)"))
				continue
			}
			fmt.Fprintf(&b, "  %s %s  %s\n", style(indexStyle, idx), style(nameStyle, name), style(dimStyle, details))
		}
	}

	b.WriteString("\n")
	b.WriteString(p.Sprintf("%d datasets in %d groups", c.Len(), len(c.groups)))
	if n := len(c.dropped); n > 0 {
		b.WriteString(p.Sprintf(" (%d without a date prefix not shown)", n))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
