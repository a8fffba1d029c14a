// =============================================================================
// Shipment Sheet Pipeline - History Command
// =============================================================================
//
// This file defines the 'history' command, which lists recent runs from the
// SQLite run history, or the catalog changes made by one run.
//
// COMMAND USAGE:
//   shipsheet history [--limit N]
//   shipsheet history --run <run id>
//
// Requires history_db to be set in the configuration.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/mehmetmetrix/shipsheet/internal/history"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyRun   string
)

// historyCmd represents the 'history' command.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs and the catalog changes they made",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the catalog changes of this run")
}

func runHistory(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("run history is disabled: set history_db in %s", cfgFile)
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if historyRun != "" {
		changes, err := store.ChangesForRun(historyRun)
		if err != nil {
			return err
		}
		printChanges(out, historyRun, changes)
		return nil
	}

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	printRuns(out, runs)
	return nil
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-7s  %-8s  %-19s  %9s  %5s  %6s  %5s\n",
		"RUN", "COMMAND", "STATUS", "STARTED", "SHIPMENTS", "ITEMS", "PRICES", "COSTS")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-7s  %-8s  %-19s  %9d  %5d  %6d  %5d\n",
			r.ID, r.Command, r.Status,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Shipments, r.Items, r.PriceUpdates, r.CostUpdates)
		if r.ErrorMessage != "" {
			fmt.Fprintf(w, "  error: %s\n", r.ErrorMessage)
		}
	}
}

func printChanges(w io.Writer, runID string, changes []history.PriceChange) {
	if len(changes) == 0 {
		fmt.Fprintf(w, "Run %s changed no catalog values.\n", runID)
		return
	}

	fmt.Fprintf(w, "Catalog changes of run %s:\n", runID)
	for _, c := range changes {
		old := c.OldValue
		if old == "" {
			old = "-"
		}
		fmt.Fprintf(w, "  %-24s  %-5s  %10s -> %-10s  (%s)\n", c.ProductID, c.Field, old, c.NewValue, c.ShipmentID)
	}
}
