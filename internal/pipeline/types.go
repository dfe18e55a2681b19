package pipeline

import (
	"github.com/fyrsmithlabs/fmrimap/internal/catalog"
	"github.com/fyrsmithlabs/fmrimap/internal/materialize"
	"github.com/fyrsmithlabs/fmrimap/internal/steps"
)

// Phase is a stage of a session.
type Phase string

const (
	// PhaseResolve resolves or asks for the dataset root.
	PhaseResolve Phase = "resolve"

	// PhaseScan discovers datasets and builds the catalog.
	PhaseScan Phase = "scan"

	// PhaseSelect asks which catalog entries to process.
	PhaseSelect Phase = "select"

	// PhaseAssign pairs runs and resolves the assignment per dataset.
	PhaseAssign Phase = "assign"

	// PhaseMaterialize builds the analysis hierarchy.
	PhaseMaterialize Phase = "materialize"

	// PhaseSteps runs the operator's chosen operations per run folder.
	PhaseSteps Phase = "steps"

	// PhaseDone marks a finished session.
	PhaseDone Phase = "done"
)

// AllPhases returns all phases in execution order.
func AllPhases() []Phase {
	return []Phase{PhaseResolve, PhaseScan, PhaseSelect, PhaseAssign, PhaseMaterialize, PhaseSteps, PhaseDone}
}

// SummaryEntry joins a dataset with its assignment and run selection. One
// exists per processed dataset, in processing order; it drives
// materialization and is never persisted.
type SummaryEntry = materialize.Entry

// Result is what a session produced up to the phase it reached.
type Result struct {
	SessionID string
	Root      string

	// Phase is the last phase entered.
	Phase Phase

	// Aborted is set when the operator quit. It is not an error.
	Aborted bool

	Catalog  *catalog.Catalog
	Selected []int
	Summary  []SummaryEntry
	Report   *materialize.Report
	Plan     []steps.PlannedOp
	Steps    []steps.Result
}
