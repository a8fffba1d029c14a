// =============================================================================
// Shipment Sheet Pipeline - Fetch Command
// =============================================================================
//
// This file defines the 'fetch' command, which downloads the shipments
// spreadsheet from Google Sheets as an xlsx file.
//
// COMMAND USAGE:
//   shipsheet fetch [flags]
//
// FLAGS:
//   --id      : Spreadsheet id, overrides spreadsheet_id
//   --output  : Where to save the workbook, defaults to input_file
//   --parse   : Run 'parse' on the downloaded file
//
// The sheet must be shared as "anyone with the link can view".
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/mehmetmetrix/shipsheet/internal/fetch"
	"github.com/spf13/cobra"
)

var (
	spreadsheetID string
	fetchOutput   string
	fetchAndParse bool
)

// fetchCmd represents the 'fetch' command.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the shipments spreadsheet",
	Long: `The fetch command downloads the spreadsheet named by spreadsheet_id as an
xlsx workbook and writes it to input_file. The download is bounded by
fetch_timeout and is not retried.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&spreadsheetID, "id", "", "Spreadsheet id, overrides spreadsheet_id")
	fetchCmd.Flags().StringVar(&fetchOutput, "output", "", "Destination file, overrides input_file")
	fetchCmd.Flags().BoolVar(&fetchAndParse, "parse", false, "Parse the sheet after downloading it")
}

func runFetch(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	id := spreadsheetID
	if id == "" {
		id = cfg.SpreadsheetID
	}
	if id == "" {
		return fmt.Errorf("no spreadsheet id: set spreadsheet_id in %s or pass --id", cfgFile)
	}
	dest := fetchOutput
	if dest == "" {
		dest = cfg.InputFile
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	client := fetch.NewClient(cfg.FetchTimeout.Duration)
	logger.Debug("downloading %s", client.ExportURL(id))

	n, err := client.Download(ctx, id, dest)
	switch {
	case errors.Is(err, fetch.ErrAccessDenied):
		return fmt.Errorf("%w: open sharing settings and allow anyone with the link to view", err)
	case errors.Is(err, fetch.ErrTimeout):
		return fmt.Errorf("%w: raise fetch_timeout or check the connection", err)
	case err != nil:
		return err
	}

	fmt.Fprintf(out, "  ✓ downloaded %d bytes to %s\n", n, dest)

	if !fetchAndParse {
		return nil
	}
	inputFile = dest
	return runParse(cmd)
}
