package steps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/fmrimap/internal/logging"
)

// fakeCollaborator records invocations and optionally writes its outputs.
type fakeCollaborator struct {
	name    string
	ops     []string
	outputs map[string][]string
	listErr error
	produce bool
	calls   []string
}

func (f *fakeCollaborator) Name() string { return f.name }

func (f *fakeCollaborator) ListOperations(ctx context.Context) ([]string, error) {
	return f.ops, f.listErr
}

func (f *fakeCollaborator) ExpectedOutputs(op string) []string { return f.outputs[op] }

func (f *fakeCollaborator) Invoke(ctx context.Context, op string, inv Invocation) error {
	f.calls = append(f.calls, op)
	if op == "boom" {
		return errors.New("exit status 1")
	}
	if f.produce {
		for _, out := range f.outputs[op] {
			if err := os.WriteFile(filepath.Join(inv.WorkDir, out), nil, 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

func TestBuildCatalog(t *testing.T) {
	logger := logging.NewTestLogger()
	c := BuildCatalog(context.Background(), []Collaborator{
		&fakeCollaborator{name: "fsl", ops: []string{"convert", "motion"}},
		&fakeCollaborator{name: "broken", ops: []string{"x"}, listErr: errors.New("unreachable")},
		&fakeCollaborator{name: "empty"},
		&fakeCollaborator{name: "afni", ops: []string{"smooth"}},
	}, logger.Logger)

	assert.Equal(t, []Entry{
		{Index: 1, Source: "fsl", Operation: "convert"},
		{Index: 2, Source: "fsl", Operation: "motion"},
		{Index: 3, Source: "afni", Operation: "smooth"},
	}, c.Entries())
	assert.Equal(t, 3, c.Len())
	logger.AssertLogged(t, zapcore.WarnLevel, "skipping collaborator")

	_, ok := c.Source("broken")
	assert.False(t, ok)
}

func TestCatalog_Plan(t *testing.T) {
	c := BuildCatalog(context.Background(), []Collaborator{
		&fakeCollaborator{name: "fsl", ops: []string{"convert", "motion"}},
		&fakeCollaborator{name: "afni", ops: []string{"smooth"}},
	}, nil)

	plan := c.Plan([]int{3, 1, 3, 7, 0})
	assert.Equal(t, []PlannedOp{
		{Operation: "smooth", Source: "afni"},
		{Operation: "convert", Source: "fsl"},
		{Operation: "smooth", Source: "afni"},
	}, plan)

	op, ok := c.Find("motion")
	require.True(t, ok)
	assert.Equal(t, "fsl", op.Source)
	_, ok = c.Find("glm")
	assert.False(t, ok)
}

func TestExecutor_RunIfMissing(t *testing.T) {
	dir := t.TempDir()
	fsl := &fakeCollaborator{
		name:    "fsl",
		ops:     []string{"convert", "motion", "boom"},
		outputs: map[string][]string{"convert": {"converted.nii.gz"}, "motion": {"mc.nii.gz"}},
		produce: true,
	}
	c := BuildCatalog(context.Background(), []Collaborator{fsl}, nil)
	e := NewExecutor(c, nil)

	var progress, totals []int
	e.OnProgress(func(step, total int, r Result) {
		progress = append(progress, step)
		totals = append(totals, total)
	})

	plan := c.Plan([]int{1, 2, 3})
	results, err := e.Run(context.Background(), plan, Invocation{WorkDir: dir})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, StatusCompleted, results[0].Status)
	assert.Equal(t, StatusCompleted, results[1].Status)
	assert.Equal(t, StatusFailed, results[2].Status)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Equal(t, []int{3, 3, 3}, totals)

	// Second pass skips what exists.
	progress, totals = nil, nil
	results, err = e.Run(context.Background(), plan[:2], Invocation{WorkDir: dir})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, StatusSkipped, results[1].Status)
	assert.Equal(t, []int{1, 2}, progress)
	assert.Equal(t, []int{2, 2}, totals)
	assert.Equal(t, []string{"convert", "motion", "boom"}, fsl.calls)
}

func TestExecutor_MissingOutputs(t *testing.T) {
	fsl := &fakeCollaborator{
		name:    "fsl",
		ops:     []string{"convert"},
		outputs: map[string][]string{"convert": {"converted.nii.gz"}},
	}
	c := BuildCatalog(context.Background(), []Collaborator{fsl}, nil)
	logger := logging.NewTestLogger()

	r := NewExecutor(c, logger.Logger).RunOne(context.Background(), PlannedOp{Operation: "convert", Source: "fsl"}, Invocation{WorkDir: t.TempDir()})
	assert.Equal(t, StatusIncomplete, r.Status)
	assert.ErrorIs(t, r.Err, ErrMissingOutputs)
	assert.Equal(t, []string{"converted.nii.gz"}, r.Missing)
	logger.AssertLogged(t, zapcore.WarnLevel, "did not produce its outputs")
}

func TestExecutor_UnknownSourceAndCancel(t *testing.T) {
	c := BuildCatalog(context.Background(), nil, nil)
	e := NewExecutor(c, nil)

	r := e.RunOne(context.Background(), PlannedOp{Operation: "x", Source: "nope"}, Invocation{})
	assert.ErrorIs(t, r.Err, ErrUnknownOperation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := e.Run(ctx, []PlannedOp{{Operation: "x", Source: "nope"}}, Invocation{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
