// =============================================================================
// Shipment Sheet Pipeline - Cell Values
// =============================================================================
//
// A spreadsheet column can mix numbers, text, real dates and blanks. Every
// value read from a sheet is converted once, at ingestion, into a Cell so the
// rest of the pipeline only deals with four shapes:
//
//   | Kind       | Source                                              |
//   |------------|-----------------------------------------------------|
//   | KindEmpty  | missing cell, blank string                          |
//   | KindNumber | numeric cell without a date format                  |
//   | KindText   | string cell (shared/inline), every CSV value        |
//   | KindDate   | numeric cell carrying a date number format          |
//
// =============================================================================

package normalize

import (
	"math"
	"strconv"
	"time"
)

// Kind identifies the shape of a Cell.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return "empty"
	}
}

// Cell is a single typed spreadsheet value. The zero value is an empty cell.
type Cell struct {
	kind Kind
	num  float64
	text string
	date time.Time
}

// Empty returns an empty cell.
func Empty() Cell { return Cell{} }

// Number returns a numeric cell.
func Number(v float64) Cell { return Cell{kind: KindNumber, num: v} }

// Text returns a text cell. The value is kept verbatim; blank text is still
// KindText but IsEmpty reports it as empty.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Date returns a date cell.
func Date(t time.Time) Cell { return Cell{kind: KindDate, date: t} }

// Kind returns the shape of the cell.
func (c Cell) Kind() Kind { return c.kind }

// Float returns the numeric value of a KindNumber cell.
func (c Cell) Float() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// Time returns the value of a KindDate cell.
func (c Cell) Time() (time.Time, bool) {
	if c.kind != KindDate {
		return time.Time{}, false
	}
	return c.date, true
}

// String renders the cell the way it would appear as plain text. Whole
// numbers have no fractional part.
func (c Cell) String() string {
	switch c.kind {
	case KindNumber:
		if math.IsNaN(c.num) {
			return ""
		}
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindText:
		return c.text
	case KindDate:
		return c.date.Format(DateLayout)
	default:
		return ""
	}
}

// Row is one sheet row. Index is the 0-based column.
type Row []Cell

// At returns the cell in column idx, or an empty cell when the row is
// shorter than that.
func (r Row) At(idx int) Cell {
	if idx < 0 || idx >= len(r) {
		return Empty()
	}
	return r[idx]
}
