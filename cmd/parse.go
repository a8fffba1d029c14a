// =============================================================================
// Shipment Sheet Pipeline - Parse Command
// =============================================================================
//
// This file defines the 'parse' command, the main command of the pipeline.
//
// COMMAND USAGE:
//   shipsheet parse [flags]
//
// FLAGS:
//   --input      : Sheet to read instead of input_file from the config
//   --no-prices  : Write shipments.json only, leave the catalog untouched
//   --dry-run    : Parse and report without writing anything
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Load the product catalog
//   3. Read the shipments sheet and check its structure
//   4. Parse rows into shipments and write shipments.json
//   5. Propagate the newest prices and costs into the catalog
//   6. Print the summary
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/mehmetmetrix/shipsheet/internal/converter"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// inputFile overrides input_file from the configuration.
var inputFile string

// noPrices skips the price pass.
var noPrices bool

// dryRun parses without writing output files.
var dryRun bool

// =============================================================================
// PARSE COMMAND DEFINITION
// =============================================================================

// parseCmd represents the 'parse' command.
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse the shipments sheet into shipments.json and update catalog prices",
	Long: `The parse command reads the shipments sheet (xlsx or its CSV export), groups
its rows into shipments and writes them to shipments.json, newest first.

Item names are matched against the product catalog. Names that match no
product are reported once and the item is kept without a productId.

After the shipments are written the latest price and cost of every product
are copied into the catalog, unless --no-prices is given.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runParse(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(parseCmd)

	// --input flag: Read another sheet than the configured one.
	parseCmd.Flags().StringVar(
		&inputFile,
		"input",
		"",
		"Sheet to parse (.xlsx or .csv), overrides input_file",
	)

	// --no-prices flag: Stop after shipments.json is written.
	parseCmd.Flags().BoolVar(
		&noPrices,
		"no-prices",
		false,
		"Do not update catalog prices",
	)

	// --dry-run flag: Parse and report without writing.
	parseCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Parse and report without writing any file",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runParse(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	fmt.Fprintln(out, "=== Shipment Sheet Pipeline ===")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if cfg.Source == "" {
		logger.Debug("no config file at %s, using defaults", cfgFile)
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	// =========================================================================
	// STEP 2: RUN THE PIPELINE
	// =========================================================================

	conv := converter.New(cfg, logger)
	conv.SetHistory(store)

	result, err := conv.Parse(converter.Options{
		InputFile:  inputFile,
		SkipPrices: noPrices,
		DryRun:     dryRun,
	})

	// =========================================================================
	// STEP 3: PRINT SUMMARY
	// =========================================================================

	printResult(out, result, dryRun)
	return err
}
