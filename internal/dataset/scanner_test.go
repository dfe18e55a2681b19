package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/fmrimap/internal/pathutil"
)

func paths(ds []Dataset) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Path
	}
	return out
}

func newTestScanner(t *testing.T, opts ScanOptions) *Scanner {
	t.Helper()
	s, err := NewScanner(opts, nil)
	require.NoError(t, err)
	return s
}

func TestScan_FindsDatasetsInLexicalOrder(t *testing.T) {
	root := t.TempDir()
	b := makeDataset(t, root, "b/20240201_x", "m2", "1")
	a := makeDataset(t, root, "a/20240115_y", "m1", "1", "2")
	c := makeDataset(t, root, "20230101_z", "m3")

	// Incomplete signature.
	incomplete := makeDataset(t, root, "a/20240301_incomplete", "m4")
	require.NoError(t, os.Remove(filepath.Join(incomplete, "ResultState")))

	got, err := newTestScanner(t, testOptions()).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{c, a, b}, paths(got))
	assert.Equal(t, "m1", got[1].SubjectID)
	assert.Equal(t, 2, got[1].RunCount)
}

func TestScan_DepthBounds(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "1/2/3/4/5/20240101_deep", "m")
	shallow := makeDataset(t, root, "1/20240101_shallow", "m")

	got, err := newTestScanner(t, testOptions()).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{shallow}, paths(got))

	// The root itself is depth 0 and below MinDepth.
	got, err = newTestScanner(t, testOptions()).Scan(context.Background(), shallow)
	require.NoError(t, err)
	assert.Empty(t, got)

	opts := testOptions()
	opts.MinDepth = 0
	got, err = newTestScanner(t, opts).Scan(context.Background(), shallow)
	require.NoError(t, err)
	assert.Equal(t, []string{shallow}, paths(got))
}

func TestScan_SymlinksDeduplicated(t *testing.T) {
	root := t.TempDir()
	target := makeDataset(t, root, "raw/20240115_103000_study", "m1", "1")
	require.NoError(t, os.Symlink(filepath.Join(root, "raw"), filepath.Join(root, "link")))
	require.NoError(t, os.Symlink(target, filepath.Join(root, "raw", "alias")))
	// Cycle back to the root.
	require.NoError(t, os.Symlink(root, filepath.Join(root, "raw", "loop")))

	s := newTestScanner(t, testOptions())
	got, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, got, 1)

	again, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, got, again, "re-scan is idempotent")
}

func TestScan_SymlinkAtMaxDepthDoesNotHideDataset(t *testing.T) {
	root := t.TempDir()
	target := makeDataset(t, root, "z/20240115_103000_study", "m1", "1")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
	// a/link sorts first and reaches z at MaxDepth, too deep to descend.
	require.NoError(t, os.Symlink(filepath.Join(root, "z"), filepath.Join(root, "a", "link")))

	opts := testOptions()
	opts.MaxDepth = 2
	got, err := newTestScanner(t, opts).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{target}, paths(got))

	// With room to descend, the link path is found first and the real path
	// is not reported again.
	got, err = newTestScanner(t, testOptions()).Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(root, "a", "link", "20240115_103000_study"), got[0].Path)
	assert.Equal(t, target, got[0].Resolved)
}

func TestScan_SymlinksNotFollowed(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	makeDataset(t, other, "20240115_elsewhere", "m1")
	require.NoError(t, os.Symlink(other, filepath.Join(root, "link")))

	opts := testOptions()
	opts.FollowSymlinks = false
	got, err := newTestScanner(t, opts).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = newTestScanner(t, testOptions()).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestScan_Excludes(t *testing.T) {
	root := t.TempDir()
	keep := makeDataset(t, root, "20240115_keep", "m1")
	makeDataset(t, root, "AnalysedData/ProjA/20240115_copy", "m1")
	makeDataset(t, root, ".Trash/20240115_old", "m1")
	makeDataset(t, root, "x/.hidden/20240115_old", "m1")

	got, err := newTestScanner(t, testOptions()).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, paths(got))
}

func TestScan_IgnoreFile(t *testing.T) {
	root := t.TempDir()
	keep := makeDataset(t, root, "20240115_keep", "m1")
	makeDataset(t, root, "phantoms/20240115_agar", "m1")
	makeDataset(t, root, "incoming/20240116_partial", "m2")
	ignoreFile := "# not subjects\nphantoms/\n/incoming\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".fmrimapignore"), []byte(ignoreFile), 0o644))

	opts := testOptions()
	opts.IgnoreFile = ".fmrimapignore"
	got, err := newTestScanner(t, opts).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, paths(got))

	opts.IgnoreFile = ""
	got, err = newTestScanner(t, opts).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestScanner_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	opts := testOptions()
	opts.IgnoreFile = ".fmrimapignore"
	s := newTestScanner(t, opts)

	assert.Equal(t, opts.Exclude, s.ExcludePatterns(context.Background(), root))

	require.NoError(t, os.WriteFile(filepath.Join(root, ".fmrimapignore"), []byte("phantoms/\n"), 0o644))
	got := s.ExcludePatterns(context.Background(), root)
	assert.Equal(t, []string{"**/.*", "AnalysedData/**", "**/phantoms"}, got)
	assert.Len(t, opts.Exclude, 2, "configured patterns are not modified")
}

func TestScan_InvalidRoot(t *testing.T) {
	s := newTestScanner(t, testOptions())

	_, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, pathutil.ErrInvalidRoot)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = s.Scan(context.Background(), file)
	assert.ErrorIs(t, err, pathutil.ErrInvalidRoot)
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	makeDataset(t, root, "20240115_a", "m1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestScanner(t, testOptions()).Scan(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewScanner_Validation(t *testing.T) {
	opts := testOptions()
	opts.MaxDepth = 0
	_, err := NewScanner(opts, nil)
	assert.Error(t, err)

	opts = testOptions()
	opts.Signature = Signature{}
	_, err = NewScanner(opts, nil)
	assert.Error(t, err)

	opts = testOptions()
	opts.Exclude = []string{"[unclosed"}
	_, err = NewScanner(opts, nil)
	assert.Error(t, err)
}
