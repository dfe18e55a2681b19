package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fmrimap/internal/assignment"
	"github.com/fyrsmithlabs/fmrimap/internal/catalog"
	"github.com/fyrsmithlabs/fmrimap/internal/config"
	"github.com/fyrsmithlabs/fmrimap/internal/dataset"
	"github.com/fyrsmithlabs/fmrimap/internal/logging"
	"github.com/fyrsmithlabs/fmrimap/internal/materialize"
	"github.com/fyrsmithlabs/fmrimap/internal/metrics"
	"github.com/fyrsmithlabs/fmrimap/internal/pathutil"
	"github.com/fyrsmithlabs/fmrimap/internal/prompt"
	"github.com/fyrsmithlabs/fmrimap/internal/runpair"
	"github.com/fyrsmithlabs/fmrimap/internal/selection"
	"github.com/fyrsmithlabs/fmrimap/internal/steps"
)

// Options configures a Session.
type Options struct {
	Config   *config.Config
	Prompter prompt.Prompter

	// Out receives the catalog, summary and report. Logs go elsewhere.
	Out io.Writer

	// Collaborators provide the conversion operation and the step catalog.
	Collaborators []steps.Collaborator

	// Metrics is optional; a private set is created when nil.
	Metrics *metrics.Metrics
	Logger  *logging.Logger

	// DryRun stops after the summary and prints it as YAML.
	DryRun bool

	// Plain disables styled catalog output.
	Plain bool
}

// Session is the state of one operator session.
type Session struct {
	id       string
	cfg      *config.Config
	prompter prompt.Prompter
	out      io.Writer
	collabs  []steps.Collaborator
	metrics  *metrics.Metrics
	logger   *logging.Logger
	dryRun   bool
	plain    bool
}

// NewSession validates opts and returns a Session with a fresh id.
func NewSession(opts Options) (*Session, error) {
	if opts.Prompter == nil {
		return nil, errors.New("pipeline: prompter is required")
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	return &Session{
		id:       uuid.New().String(),
		cfg:      opts.Config,
		prompter: opts.Prompter,
		out:      opts.Out,
		collabs:  opts.Collaborators,
		metrics:  opts.Metrics,
		logger:   opts.Logger.Named("pipeline"),
		dryRun:   opts.DryRun,
		plain:    opts.Plain,
	}, nil
}

// ID returns the session id attached to every log entry.
func (s *Session) ID() string {
	return s.id
}

// Metrics returns the session's metrics.
func (s *Session) Metrics() *metrics.Metrics {
	return s.metrics
}

// Run executes every phase. rawRoot may be empty, in which case the root
// is asked for. Operator abort returns a Result with Aborted set and a nil
// error; fatal errors wrap pathutil.ErrInvalidRoot,
// catalog.ErrNoDatasetsFound or selection.ErrNoValidSelection.
func (s *Session) Run(ctx context.Context, rawRoot string) (*Result, error) {
	ctx = logging.WithSessionID(ctx, s.id)
	res := &Result{SessionID: s.id}

	err := s.run(ctx, rawRoot, res)
	if errors.Is(err, prompt.ErrAbort) {
		s.logger.Info(ctx, "session aborted by operator", zap.String("phase", string(res.Phase)))
		res.Aborted = true
		return res, nil
	}
	return res, err
}

func (s *Session) run(ctx context.Context, rawRoot string, res *Result) error {
	res.Phase = PhaseResolve
	root, err := s.resolveRoot(ctx, rawRoot)
	if err != nil {
		return err
	}
	res.Root = root

	res.Phase = PhaseScan
	res.Catalog, err = s.scan(ctx, root)
	if err != nil {
		return err
	}
	if err := catalog.Render(s.out, res.Catalog, catalog.RenderOptions{Plain: s.plain}); err != nil {
		return fmt.Errorf("failed to render catalog: %w", err)
	}

	res.Phase = PhaseSelect
	res.Selected, err = s.ask(ctx, "Datasets to process (e.g. 1,3,5-7; q to quit)", selection.ModeSet, res.Catalog.Len())
	if err != nil {
		return err
	}

	res.Phase = PhaseAssign
	store, err := assignment.OpenFile(filepath.Join(root, s.cfg.Store.FileName))
	if err != nil {
		return err
	}
	res.Summary, err = s.assign(ctx, store, res.Catalog.Resolve(res.Selected))
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out)
	if err := PrintSummary(s.out, res.Summary); err != nil {
		return err
	}
	if s.dryRun {
		s.logger.Info(ctx, "dry run, stopping after summary")
		return WriteYAML(s.out, res.Summary)
	}

	res.Phase = PhaseMaterialize
	stepCatalog := steps.BuildCatalog(ctx, s.collabs, s.logger)
	converter := materialize.CatalogConverter(stepCatalog, s.cfg.Materialize.ConvertOperation)
	if converter == nil {
		s.logger.Warn(ctx, "no collaborator exposes the conversion operation",
			zap.String("operation", s.cfg.Materialize.ConvertOperation))
	}
	m := materialize.New(materialize.OptionsFromConfig(s.cfg), converter, s.logger)
	res.Report, err = m.Materialize(ctx, root, res.Summary)
	s.metrics.RecordReport(res.Report)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out)
	res.Report.Print(s.out)

	res.Phase = PhaseSteps
	if err := s.runSteps(ctx, stepCatalog, res); err != nil {
		return err
	}
	res.Phase = PhaseDone
	return nil
}

func (s *Session) resolveRoot(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		var err error
		raw, err = s.prompter.Input(ctx, prompt.InputRequest{
			Title:       "Dataset root directory",
			Placeholder: "~/data",
			Complete:    pathutil.Complete,
		})
		if err != nil {
			return "", err
		}
	}

	root, err := pathutil.Resolve(raw)
	if err != nil {
		return "", err
	}
	s.logger.Info(ctx, "dataset root resolved", zap.String("root", root))
	return root, nil
}

func (s *Session) scan(ctx context.Context, root string) (*catalog.Catalog, error) {
	scanner, err := dataset.NewScanner(dataset.OptionsFromConfig(s.cfg), s.logger)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	datasets, err := scanner.Scan(ctx, root)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveScan(len(datasets), time.Since(start))

	c, err := catalog.Build(datasets)
	if err != nil {
		return nil, fmt.Errorf("%w under %s", err, root)
	}
	if n := len(c.Dropped()); n > 0 {
		s.logger.Warn(ctx, "datasets without a date prefix are not listed", zap.Int("count", n))
	}
	return c, nil
}

// ask reads one selection. A parse failure is fatal for the session.
func (s *Session) ask(ctx context.Context, title string, mode selection.Mode, n int) ([]int, error) {
	text, err := s.prompter.Input(ctx, prompt.InputRequest{Title: title})
	if err != nil {
		return nil, err
	}
	return selection.Parse(text, mode, n)
}

// assign collects the run pairing and assignment of each dataset in order.
// An abort keeps everything persisted for earlier datasets.
func (s *Session) assign(ctx context.Context, store *assignment.Store, datasets []dataset.Dataset) ([]SummaryEntry, error) {
	pairer := runpair.NewPairer(s.prompter, s.cfg.Metadata.MethodFile, s.logger)
	flow := assignment.NewFlow(store, s.prompter, s.logger)

	summary := make([]SummaryEntry, 0, len(datasets))
	for _, d := range datasets {
		dctx := logging.WithDataset(ctx, d.Path)

		runs, err := pairer.Collect(dctx, d)
		if err != nil {
			return summary, err
		}
		a, existing, err := flow.Resolve(dctx, d)
		if err != nil {
			return summary, err
		}
		s.metrics.RecordAssignment(existing)

		summary = append(summary, SummaryEntry{Dataset: d, Assignment: a, Runs: runs})
		s.logger.Debug(dctx, "dataset added to summary",
			zap.String("mode", runs.Mode.String()),
			zap.String("functional", runs.Functional),
			zap.String("structural", runs.Structural),
		)
	}
	return summary, nil
}

// runSteps asks for an ordered operation plan and runs it in every
// materialized run folder.
func (s *Session) runSteps(ctx context.Context, c *steps.Catalog, res *Result) error {
	if c.Len() == 0 || len(res.Report.RunDirs) == 0 {
		s.logger.Debug(ctx, "no operations to run",
			zap.Int("operations", c.Len()),
			zap.Int("run_dirs", len(res.Report.RunDirs)),
		)
		return nil
	}

	fmt.Fprintln(s.out)
	if err := steps.Render(s.out, c, s.plain); err != nil {
		return fmt.Errorf("failed to render operations: %w", err)
	}
	indices, err := s.ask(ctx, "Operations to run, in order (e.g. 2,1,3-4; q to quit)", selection.ModeOrdered, c.Len())
	if err != nil {
		return err
	}
	res.Plan = c.Plan(indices)

	executor := steps.NewExecutor(c, s.logger)
	executor.OnProgress(func(step, total int, r steps.Result) {
		fmt.Fprintf(s.out, "  [%d/%d] %s: %s\n", step, total, r.Op.Operation, r.Status)
	})

	for _, rd := range res.Report.RunDirs {
		rctx := logging.WithRun(logging.WithDataset(ctx, rd.Dataset), rd.Run)
		fmt.Fprintf(s.out, "%s\n", rd.Path)

		results, err := executor.Run(rctx, res.Plan, steps.Invocation{
			WorkDir: rd.Path,
			Dataset: rd.Dataset,
			Run:     rd.Run,
			Method:  filepath.Join(rd.Dataset, rd.Run, s.cfg.Metadata.MethodFile),
		})
		res.Steps = append(res.Steps, results...)
		s.metrics.RecordSteps(results)
		if err != nil {
			return err
		}
	}
	return nil
}
