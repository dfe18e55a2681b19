package main

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("fmrimap %s\n", version)
		cmd.Printf("  commit: %s\n", gitCommit)
		cmd.Printf("  built:  %s\n", buildDate)
	},
}
