package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
	}{
		{"empty line", "", ""},
		{"whitespace only", "   ", ""},
		{"comment", "# phantom scans", ""},
		{"negation skipped", "!keep", ""},
		{"bare slash", "/", ""},
		{"simple directory", "Trash", "**/Trash"},
		{"directory with slash", "Trash/", "**/Trash"},
		{"glob", "*_test", "**/*_test"},
		{"rooted", "/incoming", "incoming"},
		{"nested path", "phantoms/old/", "phantoms/old"},
		{"double star", "**/calibration", "**/calibration"},
		{"trailing whitespace", "Trash \t", "**/Trash"},
		{"windows line ending", "Trash\r", "**/Trash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLine(tt.line))
		})
	}
}

func TestParse(t *testing.T) {
	content := `# scanner exports
Trash/
/incoming
Trash

phantoms/*/old
`
	patterns, err := Parse(strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, []string{"**/Trash", "incoming", "phantoms/*/old"}, patterns)
}

func TestParse_InvalidPattern(t *testing.T) {
	_, err := Parse(strings.NewReader("ok\nbroken[\n"))
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoad(t *testing.T) {
	root := t.TempDir()

	patterns, err := Load(root, DefaultFileName)
	require.NoError(t, err)
	assert.Empty(t, patterns, "missing file")

	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFileName), []byte("Trash/\n"), 0o644))
	patterns, err = Load(root, DefaultFileName)
	require.NoError(t, err)
	assert.Equal(t, []string{"**/Trash"}, patterns)
}
