package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/fmrimap/internal/selection"
)

// Line is a Prompter that prints numbered menus and reads whole lines.
type Line struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLine returns a line prompter reading in and writing to out.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out}
}

func (l *Line) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := l.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: end of input", ErrAbort)
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Choose prints the options numbered from 1 and reads a number. An empty
// answer picks the default; invalid answers re-prompt.
func (l *Line) Choose(ctx context.Context, req ChooseRequest) (int, error) {
	if len(req.Options) == 0 {
		return 0, errors.New("no options to choose from")
	}
	def := req.Default
	if def < 0 || def >= len(req.Options) {
		def = 0
	}

	fmt.Fprintln(l.out, req.Title)
	for i, opt := range req.Options {
		marker := " "
		if i == def {
			marker = "*"
		}
		fmt.Fprintf(l.out, " %s %d) %s\n", marker, i+1, opt)
	}

	for {
		fmt.Fprintf(l.out, "Choice [%d, q to quit]: ", def+1)
		answer, err := l.readLine(ctx)
		if err != nil {
			return 0, err
		}
		if selection.IsAbort(answer) {
			return 0, ErrAbort
		}
		if answer == "" {
			return def, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(req.Options) {
			return n - 1, nil
		}
		fmt.Fprintf(l.out, "Enter a number between 1 and %d.\n", len(req.Options))
	}
}

// Input prints the title and any suggestions and reads one line.
func (l *Line) Input(ctx context.Context, req InputRequest) (string, error) {
	suggestions := req.Suggestions
	if req.Complete != nil {
		suggestions = req.Complete("")
	}

	fmt.Fprintln(l.out, req.Title)
	if len(suggestions) > 0 {
		fmt.Fprintf(l.out, "  (existing: %s)\n", strings.Join(suggestions, ", "))
	}
	fmt.Fprint(l.out, "> ")

	answer, err := l.readLine(ctx)
	if err != nil {
		return "", err
	}
	if selection.IsAbort(answer) {
		return "", ErrAbort
	}
	return answer, nil
}
