package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/fmrimap/internal/assignment"
	"github.com/fyrsmithlabs/fmrimap/internal/dataset"
	"github.com/fyrsmithlabs/fmrimap/internal/runpair"
)

func summaryFixture() []SummaryEntry {
	return []SummaryEntry{{
		Dataset: dataset.Dataset{
			Path:      "/data/raw/20240115_103000_study",
			Name:      "20240115_103000_study",
			DateKey:   "20240115",
			SubjectID: "mouse1",
			StudyName: "study",
			RunCount:  2,
			Runs:      []string{"1", "2"},
		},
		Assignment: assignment.Assignment{Project: "ProjA", Subproject: "Sub1"},
		Runs:       runpair.Selection{Mode: runpair.OneToMany, Functional: "1", Structural: ""},
	}}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, summaryFixture()))

	want := "DATASET                SUBJECT  PROJECT  SUBPROJECT  MODE                               FUNCTIONAL  STRUCTURAL\n" +
		"20240115_103000_study  mouse1   ProjA    Sub1        one functional -> many structural  1           -\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, summaryFixture()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "summary:\n"), out)
	for _, line := range []string{
		"path: /data/raw/20240115_103000_study",
		`date_key: "20240115"`,
		"project: ProjA",
		"subproject: Sub1",
		"mode: one-to-many",
		`functional: "1"`,
	} {
		assert.Contains(t, out, line)
	}
	assert.NotContains(t, out, "resolved")
}
