// =============================================================================
// Shipment Sheet Pipeline - Row Classifier
// =============================================================================
//
// The sheet has no explicit structure; rows are grouped by convention:
//
//   | A (number) | C (name)            | meaning                          |
//   |------------|---------------------|----------------------------------|
//   | 2024       |                     | year marker                      |
//   |            |                     | blank, closes the open shipment  |
//   | 5          | Jacket (S-3)        | header of shipment 5, first item |
//   |            | Coat (M-1)          | continuation item of shipment 5  |
//   | note       |                     | ignored                          |
//
// Classify only looks at the two key cells and knows nothing about the
// shipment currently being built; the Accumulator owns that state.
//
// =============================================================================

package shipment

import (
	"fmt"

	"github.com/mehmetmetrix/shipsheet/internal/normalize"
	"github.com/mehmetmetrix/shipsheet/internal/sheet"
)

// Year markers must fall inside this range.
const (
	MinYear = 2000
	MaxYear = 2100
)

// RowKind is the classification of a single row. The concrete types are
// YearMarker, Blank, Header, Continuation and Ignored.
type RowKind interface {
	isRowKind()
	fmt.Stringer
}

// YearMarker sets the year for the shipments that follow.
type YearMarker struct{ Year int }

// Blank terminates the open shipment.
type Blank struct{}

// Header opens shipment Number; the same row is also its first item.
type Header struct{ Number int }

// Continuation is an item row for the open shipment.
type Continuation struct{}

// Ignored rows carry nothing the pipeline uses.
type Ignored struct{}

func (YearMarker) isRowKind()   {}
func (Blank) isRowKind()        {}
func (Header) isRowKind()       {}
func (Continuation) isRowKind() {}
func (Ignored) isRowKind()      {}

func (k YearMarker) String() string { return fmt.Sprintf("year-marker(%d)", k.Year) }
func (Blank) String() string        { return "blank" }
func (k Header) String() string     { return fmt.Sprintf("header(%d)", k.Number) }
func (Continuation) String() string { return "continuation" }
func (Ignored) String() string      { return "ignored" }

// Classify decides what a row is. Rules are checked in order:
//  1. year marker:   number is an integer in [MinYear, MaxYear], name empty
//  2. blank:         number and name both empty
//  3. header:        number parses as an integer, name present
//  4. continuation:  name present (number empty or not a number)
//  5. ignored:       anything else
func Classify(row normalize.Row, cols sheet.Columns) RowKind {
	numberCell := row.At(cols.ShipmentNumber)
	nameEmpty := normalize.IsEmpty(row.At(cols.Name))

	number, numberOK := normalize.ParseInt(numberCell)

	if numberOK && nameEmpty && number >= MinYear && number <= MaxYear {
		return YearMarker{Year: number}
	}

	if normalize.IsEmpty(numberCell) && nameEmpty {
		return Blank{}
	}

	if numberOK && !nameEmpty {
		return Header{Number: number}
	}

	if !nameEmpty {
		return Continuation{}
	}

	return Ignored{}
}
