// Package main implements the fmrimap CLI: catalog raw fMRI acquisitions,
// assign them to projects and materialize the analysis hierarchy.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// global flags
	rootFlag        string
	configFlag      string
	logLevelFlag    string
	logFormatFlag   string
	plainFlag       bool
	manifestFlag    string
	metricsFileFlag string

	// version information (set via ldflags during build)
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fmrimap [root]",
	Short: "Catalog fMRI datasets and materialize analysis folders",
	Long: `fmrimap discovers ParaVision acquisition directories under a root,
lists them grouped by acquisition month, and walks the operator through
assigning each selected dataset to a project and subproject, pairing its
functional and structural runs, and building
{root}/AnalysedData/{project}/{subproject}/{subject}/{run}{label}.

Running fmrimap without a subcommand is the same as "fmrimap run".
Enter q at any prompt to stop; work finished for earlier datasets is kept.`,
	Version:      version,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runRun,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlag, "root", "", "dataset root directory (prompted when empty)")
	pf.StringVar(&configFlag, "config", "", "config file (default ~/.config/fmrimap/config.yaml)")
	pf.StringVar(&logLevelFlag, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&logFormatFlag, "log-format", "", "log format: console or json")
	pf.BoolVar(&plainFlag, "plain", false, "line prompts and unstyled output")
	pf.StringVar(&manifestFlag, "manifest", "", "steps.toml declaring processing collaborators")
	pf.StringVar(&metricsFileFlag, "metrics-file", "", "write Prometheus metrics to this textfile on exit")

	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "stop after the summary and print it as YAML")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(assignmentsCmd)
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(versionCmd)
}
