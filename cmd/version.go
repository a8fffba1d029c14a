// =============================================================================
// Shipment Sheet Pipeline - Version Command
// =============================================================================
//
// This file defines the 'version' command, which displays the application
// version and build information.
//
// COMMAND USAGE:
//   shipsheet version
//
// OUTPUT:
//   Shipment Sheet Pipeline
//   Version:    1.0.0
//   Build Date: 2024-01-01
//   Module:     github.com/mehmetmetrix/shipsheet
//   Go Version: go1.22.0
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================
// These variables are set at build time using ldflags.
// Example build command:
//   go build -ldflags "-X 'github.com/mehmetmetrix/shipsheet/cmd.Version=1.0.0' -X 'github.com/mehmetmetrix/shipsheet/cmd.BuildDate=2024-01-01'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, module path and Go runtime version.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Shipment Sheet Pipeline")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Module:     %s\n", modulePath())
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	},
}

// modulePath names the main module and, for builds installed with
// "go install module@version", its version.
func modulePath() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Path == "" {
		return "github.com/mehmetmetrix/shipsheet"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return info.Main.Path + "@" + v
	}
	return info.Main.Path
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
