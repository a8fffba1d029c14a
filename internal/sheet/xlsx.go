// =============================================================================
// Shipment Sheet Pipeline - XLSX Reader
// =============================================================================
//
// Reads the shipments worksheet with excelize and converts every cell into a
// normalize.Cell. This is the only place that knows about spreadsheet cell
// types; everything downstream works on the four Cell shapes.
//
// CELL TYPING:
//   shared / inline string  -> Text
//   boolean                 -> Text ("1"/"0" as stored)
//   error (#N/A, #REF! ...) -> Empty
//   ISO date (t="d")        -> Date
//   number with date format -> Date (serial converted with ExcelDateToTime)
//   other number            -> Number
//   anything unparseable    -> Text
//
// =============================================================================

package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mehmetmetrix/shipsheet/internal/normalize"
	"github.com/xuri/excelize/v2"
)

// builtinDateFormats are the built-in number format ids that render a date.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// ReadXLSX opens path and reads the named worksheet. When the sheet does not
// exist the first worksheet is used and Sheet.FellBack is set.
func ReadXLSX(path, sheetName string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	s, err := ReadXLSXFile(f, sheetName)
	if err != nil {
		return nil, err
	}
	s.Source = path
	return s, nil
}

// ReadXLSXFile reads a worksheet from an already opened workbook.
func ReadXLSXFile(f *excelize.File, sheetName string) (*Sheet, error) {
	name, fellBack, err := selectSheet(f, sheetName)
	if err != nil {
		return nil, err
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %q: %w", name, err)
	}

	r := &cellReader{
		f:          f,
		sheet:      name,
		date1904:   uses1904(f),
		dateStyles: make(map[int]bool),
	}

	s := &Sheet{Name: name, FellBack: fellBack, Rows: make([]normalize.Row, len(raw))}
	for i, values := range raw {
		row := make(normalize.Row, len(values))
		for j, value := range values {
			row[j] = r.cell(j, i, value)
		}
		s.Rows[i] = row
		if len(row) > s.Width {
			s.Width = len(row)
		}
	}
	return s, nil
}

func selectSheet(f *excelize.File, want string) (string, bool, error) {
	list := f.GetSheetList()
	if len(list) == 0 {
		return "", false, fmt.Errorf("workbook has no sheets")
	}
	if want == "" {
		return list[0], false, nil
	}
	for _, name := range list {
		if name == want {
			return name, false, nil
		}
	}
	return list[0], true, nil
}

func uses1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

// =============================================================================
// CELL TYPING
// =============================================================================

type cellReader struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

// cell converts the raw value at 0-based (col, row).
func (r *cellReader) cell(col, row int, value string) normalize.Cell {
	if strings.TrimSpace(value) == "" {
		return normalize.Empty()
	}

	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return normalize.Text(value)
	}

	typ, err := r.f.GetCellType(r.sheet, axis)
	if err != nil {
		typ = excelize.CellTypeUnset
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeBool:
		return normalize.Text(value)

	case excelize.CellTypeError:
		return normalize.Empty()

	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return normalize.Date(t)
		}
		return normalize.Text(value)
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return normalize.Text(value)
	}

	if r.isDateStyled(axis) {
		if t, err := excelize.ExcelDateToTime(num, r.date1904); err == nil {
			return normalize.Date(t)
		}
	}
	return normalize.Number(num)
}

// isDateStyled reports whether the cell's number format renders a date.
// Results are cached per style id.
func (r *cellReader) isDateStyled(axis string) bool {
	styleID, err := r.f.GetCellStyle(r.sheet, axis)
	if err != nil || styleID == 0 {
		return false
	}
	if cached, ok := r.dateStyles[styleID]; ok {
		return cached
	}

	isDate := false
	if style, err := r.f.GetStyle(styleID); err == nil && style != nil {
		isDate = builtinDateFormats[style.NumFmt]
		if !isDate && style.CustomNumFmt != nil {
			isDate = IsDateFormatCode(*style.CustomNumFmt)
		}
	}
	r.dateStyles[styleID] = isDate
	return isDate
}

// IsDateFormatCode reports whether a custom number format code contains a
// day or year token outside of quoted literals and [..] sections.
func IsDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, ch := range code {
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(ch)
		}
	}
	cleaned := strings.ToLower(b.String())
	return strings.ContainsAny(cleaned, "dy")
}
