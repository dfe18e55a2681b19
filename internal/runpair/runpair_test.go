package runpair

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/fmrimap/internal/dataset"
	"github.com/fyrsmithlabs/fmrimap/internal/logging"
	"github.com/fyrsmithlabs/fmrimap/internal/prompt"
)

func TestNormalizeRuns(t *testing.T) {
	tests := map[string]string{
		"5":           "5",
		"5,6":         "5 6",
		" 5 ,  6\t7 ": "5 6 7",
		"5,,6":        "5 6",
		"":            "",
		" , ":         "",
		"10 E3, 11":   "10 E3 11",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, NormalizeRuns(in))
		})
	}
}

func TestMode(t *testing.T) {
	assert.NoError(t, ManyToOne.Check())
	assert.NoError(t, OneToMany.Check())
	assert.NoError(t, OneToOne.Check())
	assert.ErrorIs(t, ManyToMany.Check(), ErrUnsupportedPairingMode)

	text, err := OneToMany.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "one-to-many", string(text))

	_, err = Mode(9).MarshalText()
	assert.Error(t, err)
}

func TestCollect(t *testing.T) {
	d := dataset.Dataset{Path: "/data/x", Name: "x", Runs: []string{"1", "2"}}
	p := prompt.NewScripted(ManyToOne.String(), "1, 3", "2")

	sel, err := NewPairer(p, "", nil).Collect(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, Selection{Mode: ManyToOne, Functional: "1 3", Structural: "2"}, sel)
	assert.Equal(t, []string{"1", "3"}, sel.FunctionalRuns())
	assert.Equal(t, []string{"2"}, sel.StructuralRuns())
	assert.Contains(t, p.Asked[1], "[runs: 1, 2]")
}

func TestCollect_UnsupportedModeRestarts(t *testing.T) {
	d := dataset.Dataset{Path: "/data/x", Name: "x"}
	p := prompt.NewScripted(ManyToMany.String(), OneToOne.String(), "4", "5")
	logger := logging.NewTestLogger()

	sel, err := NewPairer(p, "", logger.Logger).Collect(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, OneToOne, sel.Mode)
	assert.Equal(t, "4", sel.Functional)
	assert.Equal(t, "5", sel.Structural)
	assert.Len(t, p.Asked, 4)
	logger.AssertLogged(t, zapcore.WarnLevel, "pairing mode not supported")
}

func TestCollect_CardinalityWarnsOnly(t *testing.T) {
	d := dataset.Dataset{Path: "/data/x", Name: "x"}
	p := prompt.NewScripted(OneToOne.String(), "1 2", "3")
	logger := logging.NewTestLogger()

	sel, err := NewPairer(p, "", logger.Logger).Collect(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "1 2", sel.Functional)
	logger.AssertLogged(t, zapcore.WarnLevel, "several functional runs")
}

func TestCollect_Abort(t *testing.T) {
	d := dataset.Dataset{Path: "/data/x", Name: "x"}
	for _, answers := range [][]string{{"q"}, {ManyToOne.String(), "q"}, {ManyToOne.String(), "1", "q"}} {
		_, err := NewPairer(prompt.NewScripted(answers...), "", nil).Collect(context.Background(), d)
		assert.ErrorIs(t, err, prompt.ErrAbort)
	}
}

func TestCollect_DescribesRunsFromMethod(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2"), 0o755))
	method := "##$PVM_NAverages=2\n##$PVM_NRepetitions=300\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1", "method"), []byte(method), 0o644))

	d := dataset.Dataset{Path: dir, Name: "x", Runs: []string{"1", "2"}}
	p := prompt.NewScripted(ManyToOne.String(), "1", "2")
	_, err := NewPairer(p, "method", nil).Collect(context.Background(), d)
	require.NoError(t, err)
	assert.Contains(t, p.Asked[1], "[runs: 1 (reps 300 avg 2), 2]")
}
