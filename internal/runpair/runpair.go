// Package runpair collects which runs of a dataset play the functional and
// structural roles.
package runpair

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fmrimap/internal/dataset"
	"github.com/fyrsmithlabs/fmrimap/internal/logging"
	"github.com/fyrsmithlabs/fmrimap/internal/metadata"
	"github.com/fyrsmithlabs/fmrimap/internal/prompt"
)

// ErrUnsupportedPairingMode is returned for ManyToMany.
var ErrUnsupportedPairingMode = errors.New("unsupported pairing mode")

// Mode is a functional/structural pairing.
type Mode int

const (
	ManyToOne Mode = iota
	OneToMany
	ManyToMany
	OneToOne
)

// Modes lists the pairing modes in menu order.
var Modes = []Mode{ManyToOne, OneToMany, ManyToMany, OneToOne}

// String returns the menu label.
func (m Mode) String() string {
	switch m {
	case ManyToOne:
		return "many functional -> one structural"
	case OneToMany:
		return "one functional -> many structural"
	case ManyToMany:
		return "many functional -> many structural"
	case OneToOne:
		return "one functional -> one structural"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MarshalText renders a short identifier, used by the YAML summary.
func (m Mode) MarshalText() ([]byte, error) {
	switch m {
	case ManyToOne:
		return []byte("many-to-one"), nil
	case OneToMany:
		return []byte("one-to-many"), nil
	case ManyToMany:
		return []byte("many-to-many"), nil
	case OneToOne:
		return []byte("one-to-one"), nil
	}
	return nil, fmt.Errorf("unknown pairing mode %d", int(m))
}

// Check returns ErrUnsupportedPairingMode for modes that cannot be
// processed.
func (m Mode) Check() error {
	if m == ManyToMany {
		return fmt.Errorf("%w: %s", ErrUnsupportedPairingMode, m)
	}
	return nil
}

// Selection is the run-role choice for one dataset. Run strings are
// single-space-joined tokens and are not checked against the dataset.
type Selection struct {
	Mode       Mode   `yaml:"mode"`
	Functional string `yaml:"functional"`
	Structural string `yaml:"structural"`
}

// FunctionalRuns splits Functional into tokens.
func (s Selection) FunctionalRuns() []string {
	return strings.Fields(s.Functional)
}

// StructuralRuns splits Structural into tokens.
func (s Selection) StructuralRuns() []string {
	return strings.Fields(s.Structural)
}

// NormalizeRuns splits on commas and whitespace and rejoins the tokens
// with single spaces.
func NormalizeRuns(raw string) string {
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	return strings.Join(tokens, " ")
}

// Pairer asks the operator for a dataset's pairing.
type Pairer struct {
	prompter   prompt.Prompter
	logger     *logging.Logger
	methodFile string
}

// NewPairer returns a Pairer. methodFile names the per-run method
// parameter file used to annotate run suggestions; empty disables it.
func NewPairer(p prompt.Prompter, methodFile string, logger *logging.Logger) *Pairer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pairer{prompter: p, methodFile: methodFile, logger: logger.Named("runpair")}
}

// Collect asks for a mode and the runs of each role. Choosing an
// unsupported mode warns and restarts from mode selection.
func (p *Pairer) Collect(ctx context.Context, d dataset.Dataset) (Selection, error) {
	options := make([]string, len(Modes))
	for i, m := range Modes {
		options[i] = m.String()
	}

	var mode Mode
	for {
		i, err := p.prompter.Choose(ctx, prompt.ChooseRequest{
			Title:   fmt.Sprintf("Pairing mode for %s", d.Name),
			Options: options,
		})
		if err != nil {
			return Selection{}, err
		}
		mode = Modes[i]
		if err := mode.Check(); err != nil {
			p.logger.Warn(ctx, "pairing mode not supported, choose again", zap.Error(err))
			continue
		}
		break
	}

	hint := p.describeRuns(d)
	functional, err := p.ask(ctx, fmt.Sprintf("Functional run(s) for %s%s", d.Name, hint), d.Runs)
	if err != nil {
		return Selection{}, err
	}
	structural, err := p.ask(ctx, fmt.Sprintf("Structural run(s) for %s%s", d.Name, hint), d.Runs)
	if err != nil {
		return Selection{}, err
	}

	sel := Selection{Mode: mode, Functional: functional, Structural: structural}
	p.checkCardinality(ctx, sel)
	return sel, nil
}

func (p *Pairer) ask(ctx context.Context, title string, runs []string) (string, error) {
	raw, err := p.prompter.Input(ctx, prompt.InputRequest{
		Title:       title,
		Placeholder: "e.g. 5, 6 7",
		Suggestions: runs,
	})
	if err != nil {
		return "", err
	}
	return NormalizeRuns(raw), nil
}

// checkCardinality only warns; runs are validated when materialized.
func (p *Pairer) checkCardinality(ctx context.Context, sel Selection) {
	oneFunctional := sel.Mode == OneToMany || sel.Mode == OneToOne
	oneStructural := sel.Mode == ManyToOne || sel.Mode == OneToOne
	if oneFunctional && len(sel.FunctionalRuns()) > 1 {
		p.logger.Warn(ctx, "several functional runs given for a one-functional mode",
			zap.String("mode", sel.Mode.String()), zap.String("runs", sel.Functional))
	}
	if oneStructural && len(sel.StructuralRuns()) > 1 {
		p.logger.Warn(ctx, "several structural runs given for a one-structural mode",
			zap.String("mode", sel.Mode.String()), zap.String("runs", sel.Structural))
	}
}

// describeRuns lists the dataset's runs with repetitions and averages read
// from each run's method file, as a prompt suffix.
func (p *Pairer) describeRuns(d dataset.Dataset) string {
	if len(d.Runs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(d.Runs))
	for _, run := range d.Runs {
		parts = append(parts, run+describeRun(filepath.Join(d.Path, run), p.methodFile))
	}
	return " [runs: " + strings.Join(parts, ", ") + "]"
}

func describeRun(runDir, methodFile string) string {
	if methodFile == "" {
		return ""
	}
	path := filepath.Join(runDir, methodFile)

	var attrs []string
	if n, err := metadata.ReadIntParam(path, "PVM_NRepetitions"); err == nil {
		attrs = append(attrs, fmt.Sprintf("reps %d", n))
	}
	if n, err := metadata.ReadIntParam(path, "PVM_NAverages"); err == nil {
		attrs = append(attrs, fmt.Sprintf("avg %d", n))
	}
	if len(attrs) == 0 {
		return ""
	}
	return " (" + strings.Join(attrs, " ") + ")"
}
