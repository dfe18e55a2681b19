package pipeline

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// PrintSummary writes the summary as an aligned table.
func PrintSummary(w io.Writer, entries []SummaryEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tSUBJECT\tPROJECT\tSUBPROJECT\tMODE\tFUNCTIONAL\tSTRUCTURAL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Dataset.Name,
			e.Dataset.SubjectID,
			e.Assignment.Project,
			e.Assignment.Subproject,
			e.Runs.Mode,
			dash(e.Runs.Functional),
			dash(e.Runs.Structural),
		)
	}
	return tw.Flush()
}

// WriteYAML writes the summary as a YAML document.
func WriteYAML(w io.Writer, entries []SummaryEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]SummaryEntry{"summary": entries}); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
