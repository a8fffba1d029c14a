// =============================================================================
// Shipment Sheet Pipeline - Prices Command
// =============================================================================
//
// This file defines the 'prices' command, which runs only the price pass:
// the catalog is updated from an existing shipments.json without reading
// the sheet again.
//
// COMMAND USAGE:
//   shipsheet prices [flags]
//
// FLAGS:
//   --shipments : shipments.json to read instead of shipments_file
//   --dry-run   : Report the updates without saving the catalog
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/mehmetmetrix/shipsheet/internal/converter"
	"github.com/spf13/cobra"
)

// shipmentsFile overrides shipments_file from the configuration.
var shipmentsFile string

// pricesDryRun reports without saving.
var pricesDryRun bool

// pricesCmd represents the 'prices' command.
var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Update catalog prices and costs from shipments.json",
	Long: `The prices command walks shipments.json from the newest shipment to the
oldest and copies the first price and the first cost found for every product
into the catalog. Product ids that are not in the catalog are reported.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrices(cmd)
	},
}

func init() {
	rootCmd.AddCommand(pricesCmd)

	pricesCmd.Flags().StringVar(
		&shipmentsFile,
		"shipments",
		"",
		"shipments.json to read, overrides shipments_file",
	)

	pricesCmd.Flags().BoolVar(
		&pricesDryRun,
		"dry-run",
		false,
		"Report updates without saving the catalog",
	)
}

func runPrices(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Catalog Price Update ===")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	conv := converter.New(cfg, newLogger(cfg))
	conv.SetHistory(store)

	result, err := conv.UpdatePrices(converter.Options{
		InputFile: shipmentsFile,
		DryRun:    pricesDryRun,
	})
	printResult(out, result, pricesDryRun)
	return err
}
