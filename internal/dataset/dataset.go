package dataset

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/fyrsmithlabs/fmrimap/internal/metadata"
)

var dateKeyPattern = regexp.MustCompile(`^(\d{8})_`)

// Dataset is one acquisition session directory. Identity is Path.
type Dataset struct {
	// Path is the absolute path the dataset was discovered at.
	Path string `json:"path" yaml:"path"`

	// Resolved is Path with symlinks evaluated.
	Resolved string `json:"-" yaml:"-"`

	Name      string   `json:"name" yaml:"name"`
	DateKey   string   `json:"date_key,omitempty" yaml:"date_key,omitempty"`
	SubjectID string   `json:"subject_id" yaml:"subject_id"`
	StudyName string   `json:"study_name" yaml:"study_name"`
	RunCount  int      `json:"run_count" yaml:"run_count"`
	Runs      []string `json:"runs,omitempty" yaml:"runs,omitempty"`
}

// ParseDateKey returns the leading YYYYMMDD token of a dataset name, or ""
// when the name does not start with eight digits followed by '_'.
func ParseDateKey(name string) string {
	m := dateKeyPattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

// ListRuns returns the all-digit immediate subdirectory names of dir in
// numeric order. Unreadable directories yield nil.
func ListRuns(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var runs []string
	for _, e := range entries {
		if !isRunName(e.Name()) {
			continue
		}
		if !isDir(filepath.Join(dir, e.Name()), e) {
			continue
		}
		runs = append(runs, e.Name())
	}

	sort.SliceStable(runs, func(i, j int) bool {
		a, _ := strconv.Atoi(runs[i])
		b, _ := strconv.Atoi(runs[j])
		if a != b {
			return a < b
		}
		return runs[i] < runs[j]
	})
	return runs
}

func isRunName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isDir reports whether the entry is a directory, following symlinks.
func isDir(path string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Inspect builds a Dataset for dir, reading subject metadata from the
// given file name. Metadata failures leave the "[Not found]" sentinels and
// are returned alongside the Dataset for logging.
func Inspect(dir string, meta MetadataOptions) (Dataset, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	return inspect(dir, resolved, meta)
}

// inspect is Inspect for a directory whose symlinks are already resolved.
func inspect(dir, resolved string, meta MetadataOptions) (Dataset, error) {
	runs := ListRuns(dir)
	d := Dataset{
		Path:     dir,
		Resolved: resolved,
		Name:     filepath.Base(dir),
		RunCount: len(runs),
		Runs:     runs,
	}
	d.DateKey = ParseDateKey(d.Name)

	subject, err := metadata.ReadSubject(filepath.Join(dir, meta.SubjectFile), meta.SubjectIDLine, meta.StudyNameLine)
	d.SubjectID = subject.ID
	d.StudyName = subject.Study
	return d, err
}
