package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SCANS", "/mnt/scanner")

	tests := []struct {
		input string
		want  string
	}{
		{"~", home},
		{"~/data", filepath.Join(home, "data")},
		{"$SCANS/raw", "/mnt/scanner/raw"},
		{"${SCANS}/raw", "/mnt/scanner/raw"},
		{"  /abs/path  ", "/abs/path"},
		{"~other/data", "~other/data"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.input))
		})
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	t.Setenv("FMRI_ROOT", root)

	got, err := Resolve("$FMRI_ROOT")
	require.NoError(t, err)
	assert.Equal(t, root, got)

	for _, bad := range []string{"", "   ", file, filepath.Join(root, "missing")} {
		_, err := Resolve(bad)
		assert.ErrorIs(t, err, ErrInvalidRoot, "input %q", bad)
	}
}

func TestResolve_RelativeBecomesAbsolute(t *testing.T) {
	root := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.Mkdir(filepath.Join(root, "scans"), 0o755))

	got, err := Resolve("scans")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "scans", filepath.Base(got))
}

func TestComplete(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"raw", "results", ".cache", "other"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, d), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), nil, 0o644))

	prefix := root + string(filepath.Separator)

	assert.Equal(t,
		[]string{prefix + "raw/", prefix + "results/"},
		Complete(prefix+"r"))
	assert.Equal(t,
		[]string{prefix + "other/", prefix + "raw/", prefix + "results/"},
		Complete(prefix))
	assert.Equal(t, []string{prefix + ".cache/"}, Complete(prefix+"."))
	assert.Empty(t, Complete(prefix+"zzz"))
	assert.Nil(t, Complete(filepath.Join(root, "missing")+"/x"))
}

func TestComplete_KeepsTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.Mkdir(filepath.Join(home, "data"), 0o755))

	assert.Equal(t, []string{"~/data/"}, Complete("~/d"))
}
