package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/fmrimap/internal/assignment"
)

var assignmentsCmd = &cobra.Command{
	Use:   "assignments [root]",
	Short: "List stored project assignments",
	Long: `Print every dataset recorded in {root}/.fmri_project_map.json, sorted by
project, subproject and dataset path.

Examples:
  fmrimap assignments ~/data/raw`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAssignments,
}

func runAssignments(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	store, err := assignment.OpenFile(filepath.Join(root, e.cfg.Store.FileName))
	if err != nil {
		return err
	}
	all, err := store.Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(all) == 0 {
		fmt.Fprintf(out, "No assignments in %s\n", store.Path())
		return nil
	}

	paths := make([]string, 0, len(all))
	for p := range all {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		a, b := all[paths[i]], all[paths[j]]
		if a.Project != b.Project {
			return a.Project < b.Project
		}
		if a.Subproject != b.Subproject {
			return a.Subproject < b.Subproject
		}
		return paths[i] < paths[j]
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tSUBPROJECT\tDATASET")
	for _, p := range paths {
		a := all[p]
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Project, a.Subproject, p)
	}
	return w.Flush()
}
