package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// subjectFixture places "<mouse_042>" on line 7 and "<Sleep_fMRI>" on line 25.
func subjectFixture() string {
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = "##$FILLER=0"
	}
	lines[5] = "##$SUBJECT_id=( 60 )"
	lines[6] = "<mouse_042>"
	lines[23] = "##$SUBJECT_study_name=( 64 )"
	lines[24] = "  <Sleep_fMRI>  "
	return strings.Join(lines, "\n") + "\n"
}

func TestReadSubject(t *testing.T) {
	path := writeFile(t, "subject", subjectFixture())

	s, err := ReadSubject(path, 7, 25)
	require.NoError(t, err)
	assert.Equal(t, "mouse_042", s.ID)
	assert.Equal(t, "Sleep_fMRI", s.Study)
}

func TestReadSubject_MissingFile(t *testing.T) {
	s, err := ReadSubject(filepath.Join(t.TempDir(), "subject"), 7, 25)
	assert.ErrorIs(t, err, ErrMetadataRead)
	assert.Equal(t, NotFound, s.ID)
	assert.Equal(t, NotFound, s.Study)
}

func TestReadSubject_ShortFile(t *testing.T) {
	lines := make([]string, 10)
	lines[6] = "<mouse_7>"
	path := writeFile(t, "subject", strings.Join(lines, "\n"))

	s, err := ReadSubject(path, 7, 25)
	assert.ErrorIs(t, err, ErrMetadataRead)
	assert.Equal(t, "mouse_7", s.ID, "readable field is kept")
	assert.Equal(t, NotFound, s.Study)
}

func TestReadSequenceName(t *testing.T) {
	acqp := strings.Join([]string{
		"##TITLE=Parameter List",
		"##$ACQ_protocol_name=( 64 )",
		"<T2_TurboRARE (pvm)>",
		"##$ACQ_scan_name=( 64 )",
		"<ignored>",
	}, "\n")
	path := writeFile(t, "acqp", acqp)

	name, err := ReadSequenceName(path, "##$ACQ_protocol_name=")
	require.NoError(t, err)
	assert.Equal(t, "T2_TurboRARE (pvm)", name)
}

func TestReadSequenceName_Failures(t *testing.T) {
	tests := map[string]string{
		"no marker":        "##$OTHER=1\n",
		"marker last line": "##$ACQ_protocol_name=( 64 )",
		"not bracketed":    "##$ACQ_protocol_name=( 64 )\nEPI\n",
		"empty brackets":   "##$ACQ_protocol_name=( 64 )\n<>\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "acqp", content)
			_, err := ReadSequenceName(path, "##$ACQ_protocol_name=")
			assert.ErrorIs(t, err, ErrMetadataRead)
		})
	}

	_, err := ReadSequenceName(filepath.Join(t.TempDir(), "acqp"), "##$ACQ_protocol_name=")
	assert.ErrorIs(t, err, ErrMetadataRead)
}

func TestReadParam(t *testing.T) {
	method := strings.Join([]string{
		"##$Method=<User:fmri_epi>",
		"##$PVM_NAverages=2",
		"##$PVM_NRepetitions=300",
		"##$PVM_SpatResol=( 2 )",
		"0.2 0.2",
		"##$PVM_NAveragesX=9",
	}, "\n")
	path := writeFile(t, "method", method)

	v, err := ReadParam(path, "PVM_NRepetitions")
	require.NoError(t, err)
	assert.Equal(t, "300", v)

	v, err = ReadParam(path, "PVM_SpatResol")
	require.NoError(t, err)
	assert.Equal(t, "0.2 0.2", v)

	n, err := ReadIntParam(path, "PVM_NAverages")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "prefix match must not pick up PVM_NAveragesX")

	_, err = ReadIntParam(path, "Method")
	assert.ErrorIs(t, err, ErrMetadataRead)

	_, err = ReadParam(path, "PVM_Missing")
	assert.ErrorIs(t, err, ErrMetadataRead)
}
