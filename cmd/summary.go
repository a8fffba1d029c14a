package cmd

import (
	"fmt"
	"io"

	"github.com/mehmetmetrix/shipsheet/internal/converter"
	"github.com/mehmetmetrix/shipsheet/internal/validation"
)

// printResult writes the end-of-run summary. result may be partial when
// the run failed.
func printResult(w io.Writer, result *converter.Result, dryRun bool) {
	if result == nil {
		return
	}

	if result.Command == converter.CommandParse && result.SheetName != "" {
		fmt.Fprintf(w, "  ✓ read %s (sheet %q)\n", result.Input, result.SheetName)
		fmt.Fprintln(w, validation.FormatIssues(result.Issues))
	}
	for _, path := range result.OutputFiles {
		fmt.Fprintf(w, "  ✓ wrote %s\n", path)
	}
	for _, path := range result.ArchivedFiles {
		fmt.Fprintf(w, "  ✓ archived %s\n", path)
	}

	fmt.Fprintln(w, "\n=== Run Complete ===")
	if dryRun {
		fmt.Fprintln(w, "Dry run:         nothing was written")
	}
	fmt.Fprintf(w, "Run ID:          %s\n", result.RunID)
	if result.Command == converter.CommandParse {
		fmt.Fprintf(w, "Rows scanned:    %d\n", result.Stats.RowsScanned)
	}
	fmt.Fprintf(w, "Shipments:       %d\n", result.Stats.Shipments)
	fmt.Fprintf(w, "Items:           %d\n", result.Stats.Items)
	if n := len(result.Stats.Unresolved); n > 0 {
		fmt.Fprintf(w, "Unresolved:      %d\n", n)
	}

	if p := result.Prices; p != nil {
		fmt.Fprintf(w, "Price updates:   %d\n", p.PriceUpdates())
		fmt.Fprintf(w, "Cost updates:    %d\n", p.CostUpdates())
		if len(p.Unknown) > 0 {
			fmt.Fprintf(w, "Unknown ids:     %d\n", len(p.Unknown))
		}
	}
	if result.SummaryFile != "" {
		fmt.Fprintf(w, "Summary:         %s\n", result.SummaryFile)
	}
	fmt.Fprintf(w, "Time elapsed:    %s\n", result.ProcessingTime)
}
