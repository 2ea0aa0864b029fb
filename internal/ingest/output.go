package ingest

import (
	"fmt"
	"io"

	"github.com/TobiSchelling/bizwire/internal/report"
)

// WriteReport prints a cycle result the way an operator watching the loop
// wants to see it: the fetched headlines followed by one line per step.
func WriteReport(w io.Writer, r *Result) {
	fmt.Fprintf(w, "\nCycle started %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))

	if len(r.Records) > 0 {
		fmt.Fprintln(w, "Top business news headlines:")
		fmt.Fprintln(w)
		fmt.Fprint(w, report.Headlines(r.Records, 0))
		fmt.Fprintln(w)
	} else if r.Err == nil {
		fmt.Fprintln(w, "No news articles found.")
	}

	for _, step := range r.Steps {
		if step.Err != nil {
			fmt.Fprintf(w, "  %s: Error: %v\n", step.Name, step.Err)
		} else {
			fmt.Fprintf(w, "  %s: %s\n", step.Name, step.Summary)
		}
	}
}
