// =============================================================================
// Shipment Sheet Pipeline - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand is
// attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (shipsheet)
//   ├── parseCmd   (shipsheet parse)
//   ├── pricesCmd  (shipsheet prices)
//   ├── fetchCmd   (shipsheet fetch)
//   ├── historyCmd (shipsheet history)
//   └── versionCmd (shipsheet version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --verbose) and the
//   helpers every subcommand uses to load the configuration, build a logger
//   and open the run history.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/mehmetmetrix/shipsheet/internal/config"
	"github.com/mehmetmetrix/shipsheet/internal/history"
	"github.com/mehmetmetrix/shipsheet/internal/logging"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging regardless of log_level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "shipsheet",

	Short: "Shipment sheet pipeline - turn the shipments spreadsheet into JSON",

	Long: `shipsheet reads the shipments spreadsheet maintained by hand, turns it into
structured shipment records and keeps the product catalog prices in sync with
the newest shipments.

Key Features:
  - Reads the workbook directly (.xlsx) or a CSV export of the sheet
  - Resolves item names against the product catalog
  - Propagates the latest price and cost of every product into the catalog
  - Downloads the sheet from Google Sheets
  - Optional archive of previous outputs and a SQLite run history

Example Usage:
  shipsheet fetch                      # Download the sheet
  shipsheet parse                      # Parse it and update catalog prices
  shipsheet parse --no-prices          # Only write shipments.json
  shipsheet prices                     # Re-run the price pass
  shipsheet history --limit 5          # Show recent runs`,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Persistent flags are available to this command and all subcommands.

	// --config flag: YAML, or TOML when the name ends in .toml. A missing
	// file means built-in defaults.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the configuration file",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	// Errors are printed once by Execute.
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.MainConfig, error) {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger. --verbose overrides log_level.
func newLogger(cfg *config.MainConfig) logging.Logger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.New(os.Stderr, level)
}

// openHistory opens the run history, or returns nil when history_db is not
// configured.
func openHistory(cfg *config.MainConfig) (*history.Store, error) {
	if cfg.HistoryDB == "" {
		return nil, nil
	}
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return store, nil
}
