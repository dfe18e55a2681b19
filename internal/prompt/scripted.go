package prompt

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fyrsmithlabs/fmrimap/internal/selection"
)

// Scripted replays canned answers. A Choose answer is either an option
// label or its 1-based number. Running out of answers aborts.
type Scripted struct {
	answers []string

	// Asked records every prompt title in order.
	Asked []string
}

// NewScripted returns a Prompter answering with answers in order.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

// Remaining returns the number of unused answers.
func (s *Scripted) Remaining() int {
	return len(s.answers)
}

func (s *Scripted) next(title string) (string, error) {
	s.Asked = append(s.Asked, title)
	if len(s.answers) == 0 {
		return "", fmt.Errorf("%w: no scripted answer for %q", ErrAbort, title)
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	if selection.IsAbort(a) {
		return "", ErrAbort
	}
	return a, nil
}

func (s *Scripted) Choose(ctx context.Context, req ChooseRequest) (int, error) {
	a, err := s.next(req.Title)
	if err != nil {
		return 0, err
	}
	for i, opt := range req.Options {
		if opt == a {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(a); err == nil && n >= 1 && n <= len(req.Options) {
		return n - 1, nil
	}
	return 0, fmt.Errorf("scripted answer %q matches no option of %q", a, req.Title)
}

func (s *Scripted) Input(ctx context.Context, req InputRequest) (string, error) {
	return s.next(req.Title)
}
