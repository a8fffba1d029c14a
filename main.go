// =============================================================================
// Shipment Sheet Pipeline - Main Entry Point
// =============================================================================
//
// This is the main entry point for the shipsheet CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   shipsheet fetch         - Download the shipments spreadsheet
//   shipsheet parse         - Parse the sheet and update catalog prices
//   shipsheet prices        - Update catalog prices from shipments.json
//   shipsheet history       - Show recent runs
//   shipsheet version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Sheet reading, parsing, catalog and run history
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/mehmetmetrix/shipsheet/cmd"
)

func main() {
	cmd.Execute()
}
