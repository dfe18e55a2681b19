package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fmrimap/internal/logging"
)

// ErrMissingOutputs reports declared outputs still absent after an
// operation ran.
var ErrMissingOutputs = errors.New("expected outputs missing after operation")

// Status is the outcome of one planned operation.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
	StatusIncomplete Status = "incomplete"
	StatusFailed     Status = "failed"
)

// Result records one executed step.
type Result struct {
	Op      PlannedOp
	Status  Status
	Missing []string
	Err     error
}

// ProgressCallback receives each result as it is produced.
type ProgressCallback func(step, total int, result Result)

// Executor runs plans against a Catalog's collaborators.
type Executor struct {
	catalog          *Catalog
	logger           *logging.Logger
	progressCallback ProgressCallback
}

// NewExecutor returns an Executor over c. A nil logger discards output.
func NewExecutor(c *Catalog, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{catalog: c, logger: logger.Named("steps")}
}

// OnProgress sets the progress callback.
func (e *Executor) OnProgress(callback ProgressCallback) {
	e.progressCallback = callback
}

// Run executes plan in order against one invocation. Per-step failures are
// logged and recorded; only context cancellation stops the run.
func (e *Executor) Run(ctx context.Context, plan []PlannedOp, inv Invocation) ([]Result, error) {
	results := make([]Result, 0, len(plan))
	for i, op := range plan {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		r := e.RunOne(ctx, op, inv)
		results = append(results, r)
		if e.progressCallback != nil {
			e.progressCallback(i+1, len(plan), r)
		}
	}
	return results, nil
}

// RunOne executes a single operation unless every declared output already
// exists in inv.WorkDir.
func (e *Executor) RunOne(ctx context.Context, op PlannedOp, inv Invocation) Result {
	fields := []zap.Field{
		zap.String("operation", op.Operation),
		zap.String("source", op.Source),
		zap.String("workdir", inv.WorkDir),
	}

	collab, ok := e.catalog.Source(op.Source)
	if !ok {
		err := fmt.Errorf("%w: source %q not in catalog", ErrUnknownOperation, op.Source)
		e.logger.Warn(ctx, "operation failed", append(fields, zap.Error(err))...)
		return Result{Op: op, Status: StatusFailed, Err: err}
	}

	var outputs []string
	if d, ok := collab.(OutputDeclarer); ok {
		outputs = d.ExpectedOutputs(op.Operation)
	}
	if len(outputs) > 0 && len(MissingFiles(inv.WorkDir, outputs)) == 0 {
		e.logger.Info(ctx, "outputs present, skipping operation", fields...)
		return Result{Op: op, Status: StatusSkipped}
	}

	e.logger.Info(ctx, "running operation", fields...)
	if err := collab.Invoke(ctx, op.Operation, inv); err != nil {
		e.logger.Warn(ctx, "operation failed", append(fields, zap.Error(err))...)
		return Result{Op: op, Status: StatusFailed, Err: err, Missing: MissingFiles(inv.WorkDir, outputs)}
	}

	if missing := MissingFiles(inv.WorkDir, outputs); len(missing) > 0 {
		err := fmt.Errorf("%w: %v", ErrMissingOutputs, missing)
		e.logger.Warn(ctx, "operation did not produce its outputs", append(fields, zap.Strings("missing", missing))...)
		return Result{Op: op, Status: StatusIncomplete, Missing: missing, Err: err}
	}
	return Result{Op: op, Status: StatusCompleted}
}

// MissingFiles returns the names in files that do not exist under dir.
func MissingFiles(dir string, files []string) []string {
	var missing []string
	for _, f := range files {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			missing = append(missing, f)
		}
	}
	return missing
}
