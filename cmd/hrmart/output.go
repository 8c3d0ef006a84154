package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/groblegark/hrmart/internal/model"
	"github.com/groblegark/hrmart/internal/modelcfg"
	"github.com/groblegark/hrmart/internal/pipeline"
	"github.com/groblegark/hrmart/internal/ui"
)

func renderStatus(s model.RunStatus) string {
	switch s {
	case model.RunClean:
		return ui.RenderGood(s.String())
	case model.RunDegraded:
		return ui.RenderWarn(s.String())
	default:
		return ui.RenderBad(s.String())
	}
}

func printReport(r *model.RunReport) {
	if jsonOutput {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Run:              %s\n", r.RunID)
	fmt.Printf("Status:           %s\n", renderStatus(r.Status))
	fmt.Printf("Policy:           %s\n", r.TieBreakPolicy)
	fmt.Printf("Started:          %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Finished:         %s\n", r.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Entities:         %d\n", r.Entities)
	fmt.Printf("Dimension rows:   %d\n", r.Dimensions)
	fmt.Printf("Movement facts:   %d\n", r.Movements)
	fmt.Printf("Snapshot facts:   %d\n", r.Snapshots)

	if r.MalformedRecords > 0 {
		fmt.Printf("Malformed:        %s\n", ui.RenderWarn(fmt.Sprintf("%d", r.MalformedRecords)))
	}
	if r.AmbiguousTiebreaks > 0 {
		fmt.Printf("Ambiguous:        %s\n", ui.RenderWarn(fmt.Sprintf("%d", r.AmbiguousTiebreaks)))
	}
	if r.InvalidRescinds > 0 {
		fmt.Printf("Invalid rescinds: %s\n", ui.RenderWarn(fmt.Sprintf("%d", r.InvalidRescinds)))
	}
	if n := r.TotalUnresolved(); n > 0 {
		dims := make([]string, 0, len(r.UnresolvedFKs))
		for d := range r.UnresolvedFKs {
			dims = append(dims, d)
		}
		sort.Strings(dims)
		fmt.Printf("Unresolved FKs:   %s\n", ui.RenderWarn(fmt.Sprintf("%d", n)))
		for _, d := range dims {
			fmt.Printf("  %s: %d\n", d, r.UnresolvedFKs[d])
		}
	}
	if r.OverlapViolations > 0 {
		fmt.Printf("Overlaps:         %s\n", ui.RenderBad(fmt.Sprintf("%d", r.OverlapViolations)))
	}
	if r.Error != "" {
		fmt.Printf("Error:            %s\n", ui.RenderBad(r.Error))
	}
}

func printViolations(violations []model.OverlapViolation) {
	if jsonOutput {
		out := violations
		if out == nil {
			out = []model.OverlapViolation{}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	if len(violations) == 0 {
		fmt.Println(ui.RenderGood("No overlap violations."))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIMENSION\tBUSINESS KEY\tFIRST\tSECOND")
	for _, v := range violations {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", v.Dimension, v.BusinessKey, v.FirstKey, v.SecondKey)
	}
	w.Flush()
	fmt.Println(ui.RenderBad(fmt.Sprintf("%d violation(s).", len(violations))))
}

func printFeedChecks(m *modelcfg.Model, checks map[string]pipeline.FeedCheck) {
	if jsonOutput {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FEED\tPATH\tRECORDS\tMALFORMED")
	// Model order keeps output stable.
	for _, f := range m.Feeds {
		c := checks[f.ID]
		malformed := fmt.Sprintf("%d", c.Malformed)
		if c.Malformed > 0 {
			malformed = ui.RenderWarn(malformed)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.ID, f.Path, c.Records, malformed)
	}
	w.Flush()
}
