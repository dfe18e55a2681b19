package materialize

import (
	"fmt"
	"io"
)

// Role is the part a run plays in processing.
type Role string

const (
	RoleFunctional Role = "functional"
	RoleStructural Role = "structural"
)

// RunDir is a materialized run folder.
type RunDir struct {
	Dataset string `yaml:"dataset"`
	Run     string `yaml:"run"`
	Role    Role   `yaml:"role"`
	Label   string `yaml:"label"`
	Path    string `yaml:"path"`
}

// SkippedRun is a run that produced no directories.
type SkippedRun struct {
	Dataset string
	Run     string
	Reason  error
}

// Report summarises one materialization pass.
type Report struct {
	Created            []string
	Existing           []string
	RunDirs            []RunDir
	Skipped            []SkippedRun
	ConversionsRun     int
	ConversionsSkipped int
	Copied             int

	// Warnings holds every non-fatal problem, wrapping ErrMissingRunDirectory,
	// ErrArtifactConversion and friends.
	Warnings []error
}

func (r *Report) dir(path string, created bool) {
	if created {
		r.Created = append(r.Created, path)
		return
	}
	r.Existing = append(r.Existing, path)
}

func (r *Report) warn(err error) {
	r.Warnings = append(r.Warnings, err)
}

// Print writes a human-readable summary.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "directories: %d created, %d already existed\n", len(r.Created), len(r.Existing))
	fmt.Fprintf(w, "run folders: %d, skipped runs: %d\n", len(r.RunDirs), len(r.Skipped))
	fmt.Fprintf(w, "conversions: %d run, %d skipped (artifact present)\n", r.ConversionsRun, r.ConversionsSkipped)
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "  skipped %s run %s: %v\n", s.Dataset, s.Run, s.Reason)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  warning: %v\n", warning)
	}
}
