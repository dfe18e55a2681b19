// Package prompt provides the operator-facing prompts: choose one of N
// labeled options, or enter free text with suggestions.
//
// Two implementations exist. Line reads numbered answers from any
// io.Reader and suits pipes and plain terminals. TUI runs a bubbletea
// program per prompt with arrow-key menus and tab completion.
package prompt

import (
	"context"

	"github.com/fyrsmithlabs/fmrimap/internal/selection"
)

// ErrAbort is returned when the operator enters q/Q or ends input. It is
// the same sentinel as selection.ErrAbort.
var ErrAbort = selection.ErrAbort

// ChooseRequest describes a choose-one prompt.
type ChooseRequest struct {
	Title   string
	Options []string

	// Default is the 0-based option selected on an empty answer.
	Default int
}

// InputRequest describes a free-text prompt.
type InputRequest struct {
	Title       string
	Placeholder string

	// Suggestions are offered for completion.
	Suggestions []string

	// Complete, when set, replaces Suggestions with completions of the
	// current value.
	Complete func(value string) []string
}

// Prompter asks the operator questions. Implementations block until
// answered and return ErrAbort on quit.
type Prompter interface {
	// Choose returns the 0-based index of the chosen option.
	Choose(ctx context.Context, req ChooseRequest) (int, error)

	// Input returns the entered text, trimmed.
	Input(ctx context.Context, req InputRequest) (string, error)
}
