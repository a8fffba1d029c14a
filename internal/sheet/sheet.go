// =============================================================================
// Shipment Sheet Pipeline - Sheet Reader
// =============================================================================
//
// Loads the shipments sheet into memory as a grid of normalize.Cell values.
//
// SUPPORTED SOURCES:
//   - .xlsx / .xlsm   (xlsx.go, via excelize)
//   - .csv / .tsv     (csv.go, a sheet exported as CSV)
//
// The whole sheet is read up front; the parser works on the grid only.
//
// =============================================================================

package sheet

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mehmetmetrix/shipsheet/internal/normalize"
)

// Sheet is one worksheet read into memory.
type Sheet struct {
	// Name is the worksheet that was read. For CSV it is the file name.
	Name string

	// FellBack is set when the requested worksheet was missing and the
	// first worksheet was read instead.
	FellBack bool

	// Rows in sheet order. Trailing empty cells may be missing.
	Rows []normalize.Row

	// Width is the longest row length.
	Width int

	// Source is the path the sheet was read from.
	Source string
}

// Options controls Read.
type Options struct {
	// SheetName is the worksheet to read from a workbook.
	SheetName string

	// Delimiter is the CSV field separator. Empty means comma.
	Delimiter string
}

// Read loads path, choosing the reader by file extension.
func Read(path string, opts Options) (*Sheet, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, opts.SheetName)
	case ".csv", ".tsv", ".txt":
		delimiter := opts.Delimiter
		if ext == ".tsv" && delimiter == "" {
			delimiter = "tab"
		}
		return ReadCSVFile(path, delimiter)
	default:
		return nil, fmt.Errorf("unsupported input format %q", ext)
	}
}
