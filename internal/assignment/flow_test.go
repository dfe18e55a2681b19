package assignment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/fmrimap/internal/dataset"
	"github.com/fyrsmithlabs/fmrimap/internal/logging"
	"github.com/fyrsmithlabs/fmrimap/internal/prompt"
)

func testDataset(name string) dataset.Dataset {
	return dataset.Dataset{Path: "/data/" + name, Name: name}
}

func TestFlow_StoredAssignmentSkipsPrompts(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Set("/data/a", "ProjA", "Sub1"))

	p := prompt.NewScripted()
	logger := logging.NewTestLogger()
	a, existing, err := NewFlow(s, p, logger.Logger).Resolve(context.Background(), testDataset("a"))
	require.NoError(t, err)
	assert.True(t, existing)
	assert.Equal(t, Assignment{Project: "ProjA", Subproject: "Sub1"}, a)
	assert.Empty(t, p.Asked)
	logger.AssertLogged(t, zapcore.InfoLevel, "using stored assignment")
}

func TestFlow_EmptyStoreUsesFreeText(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	p := prompt.NewScripted("ProjA", "Sub1")
	a, existing, err := NewFlow(s, p, nil).Resolve(context.Background(), testDataset("a"))
	require.NoError(t, err)
	assert.False(t, existing)
	assert.Equal(t, Assignment{Project: "ProjA", Subproject: "Sub1"}, a)
	assert.Len(t, p.Asked, 2)

	stored, ok, err := s.Get("/data/a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, a, stored)
}

func TestFlow_ChoosesExistingNames(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Set("/data/x", "ProjA", "Sub1"))
	require.NoError(t, s.Set("/data/y", "ProjB", "Sub9"))

	p := prompt.NewScripted("ProjB", "Sub9")
	a, _, err := NewFlow(s, p, nil).Resolve(context.Background(), testDataset("a"))
	require.NoError(t, err)
	assert.Equal(t, Assignment{Project: "ProjB", Subproject: "Sub9"}, a)
}

func TestFlow_NewEscapeHatches(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Set("/data/x", "ProjA", "Sub1"))

	p := prompt.NewScripted(NewProjectOption, "ProjC", "Sub7")
	a, _, err := NewFlow(s, p, nil).Resolve(context.Background(), testDataset("a"))
	require.NoError(t, err)
	assert.Equal(t, Assignment{Project: "ProjC", Subproject: "Sub7"}, a)

	// ProjC has no subprojects yet, so the second prompt is free text.
	require.Len(t, p.Asked, 3)
	assert.Contains(t, p.Asked[2], "Subproject name")

	p = prompt.NewScripted("ProjA", NewSubprojectOption, "Sub2")
	a, _, err = NewFlow(s, p, nil).Resolve(context.Background(), testDataset("b"))
	require.NoError(t, err)
	assert.Equal(t, Assignment{Project: "ProjA", Subproject: "Sub2"}, a)
}

func TestFlow_AbortWritesNothing(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	p := prompt.NewScripted("ProjA", "q")
	_, _, err = NewFlow(s, p, nil).Resolve(context.Background(), testDataset("a"))
	assert.ErrorIs(t, err, prompt.ErrAbort)

	m, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, m)
}
