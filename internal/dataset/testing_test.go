package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testOptions() ScanOptions {
	return ScanOptions{
		MinDepth: 1,
		MaxDepth: 4,
		Signature: Signature{
			Files: []string{"subject", "AdjStatePerStudy", "ResultState", "ScanProgram.scanProgram"},
			Dirs:  []string{"AdjResult"},
		},
		Exclude:        []string{"**/.*", "AnalysedData/**"},
		FollowSymlinks: true,
		Metadata: MetadataOptions{
			SubjectFile:   "subject",
			SubjectIDLine: 7,
			StudyNameLine: 25,
		},
	}
}

func subjectContent(id, study string) string {
	lines := make([]string, 26)
	lines[6] = "<" + id + ">"
	lines[24] = "<" + study + ">"
	return strings.Join(lines, "\n")
}

// makeDataset creates a complete dataset directory at root/rel with the
// given numeric runs.
func makeDataset(t *testing.T, root, rel, subjectID string, runs ...string) string {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "AdjResult"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "subject"), []byte(subjectContent(subjectID, "study_"+subjectID)), 0o644))
	for _, f := range []string{"AdjStatePerStudy", "ResultState", "ScanProgram.scanProgram"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0o644))
	}
	for _, r := range runs {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, r), 0o755))
	}
	return dir
}
