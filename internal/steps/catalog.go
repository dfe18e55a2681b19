package steps

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fmrimap/internal/logging"
)

// Entry is one numbered operation.
type Entry struct {
	Index     int    `yaml:"index"`
	Source    string `yaml:"source"`
	Operation string `yaml:"operation"`
}

// PlannedOp is one step of an execution plan.
type PlannedOp struct {
	Operation string `yaml:"operation"`
	Source    string `yaml:"source"`
}

// Catalog is the ordered table of available operations.
type Catalog struct {
	entries []Entry
	sources map[string]Collaborator
}

// BuildCatalog queries each collaborator in order and numbers their
// operations from 1. Collaborators that fail or report nothing are
// skipped.
func BuildCatalog(ctx context.Context, collaborators []Collaborator, logger *logging.Logger) *Catalog {
	if logger == nil {
		logger = logging.NewNop()
	}

	c := &Catalog{sources: make(map[string]Collaborator)}
	for _, collab := range collaborators {
		ops, err := collab.ListOperations(ctx)
		if err != nil {
			logger.Warn(ctx, "skipping collaborator", zap.String("source", collab.Name()), zap.Error(err))
			continue
		}
		if len(ops) == 0 {
			logger.Debug(ctx, "collaborator exposes no operations", zap.String("source", collab.Name()))
			continue
		}

		c.sources[collab.Name()] = collab
		for _, op := range ops {
			c.entries = append(c.entries, Entry{
				Index:     len(c.entries) + 1,
				Source:    collab.Name(),
				Operation: op,
			})
		}
	}
	return c
}

// Entries returns the catalog in index order.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Len returns the number of operations.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Plan maps indices to planned operations in the given order. Duplicates
// are kept and unknown indices ignored.
func (c *Catalog) Plan(indices []int) []PlannedOp {
	plan := make([]PlannedOp, 0, len(indices))
	for _, i := range indices {
		if i < 1 || i > len(c.entries) {
			continue
		}
		e := c.entries[i-1]
		plan = append(plan, PlannedOp{Operation: e.Operation, Source: e.Source})
	}
	return plan
}

// Find returns the first source exposing op.
func (c *Catalog) Find(op string) (PlannedOp, bool) {
	for _, e := range c.entries {
		if e.Operation == op {
			return PlannedOp{Operation: e.Operation, Source: e.Source}, true
		}
	}
	return PlannedOp{}, false
}

// Source returns the collaborator registered under name.
func (c *Catalog) Source(name string) (Collaborator, bool) {
	collab, ok := c.sources[name]
	return collab, ok
}

var (
	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	opIndexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)
)

// Render prints the catalog as "[i] source: operation" lines.
func Render(w io.Writer, c *Catalog, plain bool) error {
	if c.Len() == 0 {
		_, err := io.WriteString(w, "no operations available\n")
		return err
	}

	width := len(fmt.Sprint(c.Len()))
	var b strings.Builder
	for _, e := range c.entries {
		idx := fmt.Sprintf("[%*d]", width, e.Index)
		src := e.Source + ":"
		if !plain {
			idx = opIndexStyle.Render(idx)
			src = sourceStyle.Render(src)
		}
		fmt.Fprintf(&b, "  %s %s %s\n", idx, src, e.Operation)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
