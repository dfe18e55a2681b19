package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fmrimap/internal/pipeline"
)

var dryRunFlag bool

var runCmd = &cobra.Command{
	Use:   "run [root]",
	Short: "Select datasets, assign them and build the analysis folders",
	Long: `Run the interactive session: scan the root, select datasets by index
(e.g. 1,3,5-7), pair runs and choose a project and subproject for each,
then build the AnalysedData hierarchy and run the selected processing
operations in every run folder.

Examples:
  # Prompt for the root
  fmrimap run

  # Preview the summary without creating anything
  fmrimap run --dry-run ~/data/raw

  # Plain line prompts, collaborators from a manifest
  fmrimap run --plain --manifest ~/.config/fmrimap/steps.toml ~/data`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "stop after the summary and print it as YAML")
}

func runRun(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()
	ctx := cmd.Context()

	collabs, err := e.collaborators(cmd)
	if err != nil {
		return err
	}

	s, err := pipeline.NewSession(pipeline.Options{
		Config:        e.cfg,
		Prompter:      e.prompter(cmd),
		Out:           cmd.OutOrStdout(),
		Collaborators: collabs,
		Logger:        e.logger,
		DryRun:        dryRunFlag,
		Plain:         e.cfg.UI.Plain,
	})
	if err != nil {
		return err
	}

	res, err := s.Run(ctx, rootArg(args))
	if path := e.cfg.Metrics.TextFile; path != "" {
		if werr := s.Metrics().WriteTextfile(path); werr != nil {
			e.logger.Warn(ctx, "failed to write metrics textfile", zap.String("path", path), zap.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	if res.Aborted {
		cmd.Println("Stopped.")
	}
	return nil
}
