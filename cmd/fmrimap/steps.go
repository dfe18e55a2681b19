package main

import (
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/fmrimap/internal/steps"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List processing operations from the steps manifest",
	Long: `Print the numbered operation catalog built from the collaborators in the
steps manifest, in the order they are offered during "fmrimap run".

Examples:
  fmrimap steps --manifest ~/.config/fmrimap/steps.toml`,
	Args: cobra.NoArgs,
	RunE: runSteps,
}

func runSteps(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	collabs, err := e.collaborators(cmd)
	if err != nil {
		return err
	}
	c := steps.BuildCatalog(cmd.Context(), collabs, e.logger)
	return steps.Render(cmd.OutOrStdout(), c, e.cfg.UI.Plain)
}
