package assignment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fmrimap/internal/dataset"
	"github.com/fyrsmithlabs/fmrimap/internal/logging"
	"github.com/fyrsmithlabs/fmrimap/internal/prompt"
)

// Menu entries that switch to free-text entry.
const (
	NewProjectOption    = "+ new project"
	NewSubprojectOption = "+ new subproject"
)

type state int

const (
	stateCheck state = iota
	stateChooseProject
	stateChooseSubproject
	statePersist
	stateDone
)

// Flow resolves the assignment of one dataset, asking the operator only
// when the store has none.
type Flow struct {
	store    *Store
	prompter prompt.Prompter
	logger   *logging.Logger
}

// NewFlow returns a Flow over store. A nil logger discards output.
func NewFlow(store *Store, p prompt.Prompter, logger *logging.Logger) *Flow {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Flow{store: store, prompter: p, logger: logger.Named("assignment")}
}

// Resolve returns the dataset's assignment and whether it already existed.
// A stored assignment is authoritative and skips every prompt. On
// prompt.ErrAbort nothing is written.
func (f *Flow) Resolve(ctx context.Context, d dataset.Dataset) (Assignment, bool, error) {
	var (
		a        Assignment
		existing bool
	)

	for st := stateCheck; st != stateDone; {
		switch st {
		case stateCheck:
			stored, ok, err := f.store.Get(d.Path)
			if err != nil {
				return Assignment{}, false, err
			}
			if ok {
				a, existing = stored, true
				f.logger.Info(ctx, "using stored assignment",
					zap.String("project", a.Project),
					zap.String("subproject", a.Subproject),
				)
				st = stateDone
				continue
			}
			st = stateChooseProject

		case stateChooseProject:
			projects, err := f.store.ListProjects()
			if err != nil {
				return Assignment{}, false, err
			}
			a.Project, err = f.choose(ctx,
				fmt.Sprintf("Project for %s", d.Name),
				projects, NewProjectOption, "Project name")
			if err != nil {
				return Assignment{}, false, err
			}
			st = stateChooseSubproject

		case stateChooseSubproject:
			subprojects, err := f.store.ListSubprojects(a.Project)
			if err != nil {
				return Assignment{}, false, err
			}
			a.Subproject, err = f.choose(ctx,
				fmt.Sprintf("Subproject of %s for %s", a.Project, d.Name),
				subprojects, NewSubprojectOption, "Subproject name")
			if err != nil {
				return Assignment{}, false, err
			}
			st = statePersist

		case statePersist:
			if err := f.store.Set(d.Path, a.Project, a.Subproject); err != nil {
				return Assignment{}, false, err
			}
			f.logger.Info(ctx, "assignment saved",
				zap.String("project", a.Project),
				zap.String("subproject", a.Subproject),
			)
			st = stateDone
		}
	}

	return a, existing, nil
}

// choose offers existing names plus newOption, or goes straight to free
// text when there are none.
func (f *Flow) choose(ctx context.Context, title string, existing []string, newOption, inputTitle string) (string, error) {
	if len(existing) > 0 {
		options := append(append([]string{}, existing...), newOption)
		i, err := f.prompter.Choose(ctx, prompt.ChooseRequest{Title: title, Options: options})
		if err != nil {
			return "", err
		}
		if i < len(existing) {
			return existing[i], nil
		}
	}

	return f.prompter.Input(ctx, prompt.InputRequest{
		Title:       fmt.Sprintf("%s (%s)", inputTitle, title),
		Suggestions: existing,
	})
}
