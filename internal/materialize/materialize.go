// Package materialize creates the analysis hierarchy
// {root}/AnalysedData/{project}/{subproject}/{subject}/{run}{label} and
// triggers conversion for each run folder that lacks its artifact.
//
// Every step is idempotent: existing directories are reported, not
// recreated, and conversion runs only while the expected artifact is
// absent. Problems with one run are warnings; sibling runs continue.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fmrimap/internal/assignment"
	"github.com/fyrsmithlabs/fmrimap/internal/config"
	"github.com/fyrsmithlabs/fmrimap/internal/dataset"
	"github.com/fyrsmithlabs/fmrimap/internal/logging"
	"github.com/fyrsmithlabs/fmrimap/internal/metadata"
	"github.com/fyrsmithlabs/fmrimap/internal/runpair"
	"github.com/fyrsmithlabs/fmrimap/internal/sanitize"
	"github.com/fyrsmithlabs/fmrimap/internal/steps"
)

var (
	// ErrMissingRunDirectory is warned when {dataset}/{run} is not a
	// directory.
	ErrMissingRunDirectory = errors.New("run directory missing")

	// ErrArtifactConversion is warned when the converted artifact is still
	// absent after conversion was attempted.
	ErrArtifactConversion = errors.New("converted artifact missing after conversion")

	// ErrStructuralCopy is warned when the structural copy has no source.
	ErrStructuralCopy = errors.New("structural artifact source missing")

	// ErrUnsafeComponent is warned when a project, subproject or subject
	// cannot be used as a directory name.
	ErrUnsafeComponent = errors.New("unsafe directory name")
)

// Entry is one processed dataset: what to materialize and where.
type Entry struct {
	Dataset    dataset.Dataset       `yaml:"dataset"`
	Assignment assignment.Assignment `yaml:"assignment"`
	Runs       runpair.Selection     `yaml:"runs"`
}

// Options configures a Materializer.
type Options struct {
	OutputDir          string
	AcqpFile           string
	MethodFile         string
	SequenceMarker     string
	FallbackLabel      string
	LabelMaxLength     int
	ConvertedArtifact  string
	StructuralArtifact string
}

// OptionsFromConfig maps the materialize and metadata sections of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputDir:          cfg.Materialize.OutputDir,
		AcqpFile:           cfg.Metadata.AcqpFile,
		MethodFile:         cfg.Metadata.MethodFile,
		SequenceMarker:     cfg.Metadata.SequenceMarker,
		FallbackLabel:      cfg.Materialize.FallbackLabel,
		LabelMaxLength:     cfg.Materialize.LabelMaxLength,
		ConvertedArtifact:  cfg.Materialize.ConvertedArtifact,
		StructuralArtifact: cfg.Materialize.StructuralArtifact,
	}
}

// Converter produces the converted artifact in inv.WorkDir.
type Converter interface {
	Convert(ctx context.Context, inv steps.Invocation) error
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, inv steps.Invocation) error

func (f ConverterFunc) Convert(ctx context.Context, inv steps.Invocation) error {
	return f(ctx, inv)
}

// CatalogConverter converts with the first catalog source exposing op. It
// returns nil when no source does.
func CatalogConverter(c *steps.Catalog, op string) Converter {
	planned, ok := c.Find(op)
	if !ok {
		return nil
	}
	collab, _ := c.Source(planned.Source)
	return ConverterFunc(func(ctx context.Context, inv steps.Invocation) error {
		return collab.Invoke(ctx, planned.Operation, inv)
	})
}

// Materializer builds run folders for summary entries.
type Materializer struct {
	opts      Options
	converter Converter
	logger    *logging.Logger
}

// New returns a Materializer. A nil converter leaves conversion to a later
// run and warns for every run folder lacking its artifact.
func New(opts Options, converter Converter, logger *logging.Logger) *Materializer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.LabelMaxLength <= 0 {
		opts.LabelMaxLength = sanitize.DefaultLabelLength
	}
	return &Materializer{opts: opts, converter: converter, logger: logger.Named("materialize")}
}

// Materialize processes entries in order. Only context cancellation is an
// error; everything else is recorded in the Report.
func (m *Materializer) Materialize(ctx context.Context, root string, entries []Entry) (*Report, error) {
	report := &Report{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		dctx := logging.WithDataset(ctx, e.Dataset.Path)
		if err := m.entry(dctx, root, e, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// BaseDir returns root/{output}/{project}/{subproject}/{subject}.
func (m *Materializer) BaseDir(root string, e Entry) (string, error) {
	for _, c := range []string{e.Assignment.Project, e.Assignment.Subproject, e.Dataset.SubjectID} {
		if err := sanitize.PathComponent(c); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsafeComponent, err)
		}
	}
	return filepath.Join(root, m.opts.OutputDir, e.Assignment.Project, e.Assignment.Subproject, e.Dataset.SubjectID), nil
}

func (m *Materializer) entry(ctx context.Context, root string, e Entry, report *Report) error {
	base, err := m.BaseDir(root, e)
	if err != nil {
		err = fmt.Errorf("%s: %w", e.Dataset.Name, err)
		m.logger.Warn(ctx, "skipping dataset", zap.Error(err))
		report.warn(err)
		return nil
	}

	created, err := ensureDir(base)
	if err != nil {
		err = fmt.Errorf("%s: %w", e.Dataset.Name, err)
		m.logger.Warn(ctx, "cannot create base directory", zap.String("path", base), zap.Error(err))
		report.warn(err)
		return nil
	}
	report.dir(base, created)

	for _, role := range []struct {
		role Role
		runs []string
	}{
		{RoleFunctional, e.Runs.FunctionalRuns()},
		{RoleStructural, e.Runs.StructuralRuns()},
	} {
		for _, run := range role.runs {
			if err := ctx.Err(); err != nil {
				return err
			}
			m.run(logging.WithRun(ctx, run), base, e.Dataset, run, role.role, report)
		}
	}
	return nil
}

func (m *Materializer) run(ctx context.Context, base string, d dataset.Dataset, run string, role Role, report *Report) {
	runDir := filepath.Join(d.Path, run)
	if err := sanitize.PathComponent(run); err != nil {
		m.skip(ctx, report, d, run, fmt.Errorf("%w: run %q: %v", ErrUnsafeComponent, run, err))
		return
	}
	if info, err := os.Stat(runDir); err != nil || !info.IsDir() {
		m.skip(ctx, report, d, run, fmt.Errorf("%w: %s", ErrMissingRunDirectory, runDir))
		return
	}

	label := m.label(ctx, runDir)
	folder := filepath.Join(base, run+label)
	created, err := ensureDir(folder)
	if err != nil {
		m.skip(ctx, report, d, run, err)
		return
	}
	report.dir(folder, created)
	report.RunDirs = append(report.RunDirs, RunDir{Dataset: d.Path, Run: run, Role: role, Label: label, Path: folder})

	m.convert(ctx, report, steps.Invocation{
		WorkDir: folder,
		Dataset: d.Path,
		Run:     run,
		Method:  filepath.Join(runDir, m.opts.MethodFile),
	})

	if role == RoleStructural && m.opts.StructuralArtifact != "" {
		m.copyStructural(ctx, report, folder)
	}
}

func (m *Materializer) skip(ctx context.Context, report *Report, d dataset.Dataset, run string, err error) {
	m.logger.Warn(ctx, "skipping run", zap.Error(err))
	report.Skipped = append(report.Skipped, SkippedRun{Dataset: d.Path, Run: run, Reason: err})
	report.warn(err)
}

// label reads the run's sequence name, falling back when unreadable or
// empty after sanitizing.
func (m *Materializer) label(ctx context.Context, runDir string) string {
	name, err := metadata.ReadSequenceName(filepath.Join(runDir, m.opts.AcqpFile), m.opts.SequenceMarker)
	if err != nil {
		m.logger.Debug(ctx, "sequence name unavailable", zap.Error(err))
		name = m.opts.FallbackLabel
	}
	label := sanitize.Label(name, m.opts.LabelMaxLength)
	if label == "" {
		label = sanitize.Label(m.opts.FallbackLabel, m.opts.LabelMaxLength)
	}
	return label
}

func (m *Materializer) convert(ctx context.Context, report *Report, inv steps.Invocation) {
	artifact := filepath.Join(inv.WorkDir, m.opts.ConvertedArtifact)
	if fileExists(artifact) {
		report.ConversionsSkipped++
		m.logger.Debug(ctx, "artifact present, skipping conversion", zap.String("artifact", artifact))
		return
	}

	if m.converter != nil {
		report.ConversionsRun++
		m.logger.Info(ctx, "converting run", zap.String("workdir", inv.WorkDir))
		if err := m.converter.Convert(ctx, inv); err != nil {
			m.logger.Warn(ctx, "conversion failed", zap.Error(err))
		}
	}

	if !fileExists(artifact) {
		err := fmt.Errorf("%w: %s", ErrArtifactConversion, artifact)
		m.logger.Warn(ctx, "converted artifact missing", zap.Error(err))
		report.warn(err)
	}
}

func (m *Materializer) copyStructural(ctx context.Context, report *Report, folder string) {
	target := filepath.Join(folder, m.opts.StructuralArtifact)
	if fileExists(target) {
		return
	}
	source := filepath.Join(folder, m.opts.ConvertedArtifact)
	if !fileExists(source) {
		err := fmt.Errorf("%w: %s", ErrStructuralCopy, source)
		m.logger.Warn(ctx, "cannot copy structural artifact", zap.Error(err))
		report.warn(err)
		return
	}
	if err := copyFile(source, target); err != nil {
		m.logger.Warn(ctx, "structural copy failed", zap.Error(err))
		report.warn(err)
		return
	}
	report.Copied++
}

// ensureDir creates path and its parents, reporting whether path itself
// was newly created.
func ensureDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", path)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return true, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// copyFile copies via a temp file renamed into place.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
