package shipment

import (
	"github.com/mehmetmetrix/shipsheet/internal/normalize"
	"github.com/mehmetmetrix/shipsheet/internal/types"
)

// Builder turns rows into records. Parser is the production implementation;
// the Accumulator only decides when to call it.
type Builder interface {
	// NewShipment creates the shipment opened by a header row.
	NewShipment(number int, year *int, header normalize.Row) types.Shipment

	// ParseItem parses an item row; ok is false for rows without a name.
	ParseItem(row normalize.Row) (item types.RawItem, ok bool)

	// Finalize derives the aggregate fields once all rows are known.
	Finalize(s *types.Shipment, rows []normalize.Row)
}

// openShipment is the ActiveShipment state: the shipment being built plus
// every row that belongs to it.
type openShipment struct {
	shipment types.Shipment
	rows     []normalize.Row
}

// Accumulator is the grouping state machine. With active == nil it is in
// the NoActiveShipment state. The current year is scan state: it only
// changes on YearMarker rows.
type Accumulator struct {
	builder Builder

	year   *int
	active *openShipment
	done   []types.Shipment

	// Counters for the run summary.
	YearMarkers int
	Skipped     int
}

// NewAccumulator creates an accumulator in the NoActiveShipment state with
// no current year.
func NewAccumulator(b Builder) *Accumulator {
	return &Accumulator{builder: b}
}

// Active reports whether a shipment is open.
func (a *Accumulator) Active() bool { return a.active != nil }

// Year returns the current year context, if any.
func (a *Accumulator) Year() (int, bool) {
	if a.year == nil {
		return 0, false
	}
	return *a.year, true
}

// Step feeds one classified row into the state machine.
func (a *Accumulator) Step(kind RowKind, row normalize.Row) {
	switch k := kind.(type) {
	case YearMarker:
		year := k.Year
		a.year = &year
		a.YearMarkers++
		a.close()

	case Blank:
		a.close()

	case Header:
		a.close()
		a.open(k.Number, row)

	case Continuation:
		if a.active == nil {
			a.Skipped++
			return
		}
		a.active.rows = append(a.active.rows, row)
		a.addItem(row)

	default:
		a.Skipped++
	}
}

// Finish closes the open shipment, if any, and returns every finalized
// shipment in sheet order.
func (a *Accumulator) Finish() []types.Shipment {
	a.close()
	return a.done
}

func (a *Accumulator) open(number int, row normalize.Row) {
	var year *int
	if a.year != nil {
		y := *a.year
		year = &y
	}

	a.active = &openShipment{
		shipment: a.builder.NewShipment(number, year, row),
		rows:     []normalize.Row{row},
	}
	a.addItem(row)
}

func (a *Accumulator) addItem(row normalize.Row) {
	if item, ok := a.builder.ParseItem(row); ok {
		a.active.shipment.RawItems = append(a.active.shipment.RawItems, item)
	}
}

func (a *Accumulator) close() {
	if a.active == nil {
		return
	}
	s := a.active.shipment
	a.builder.Finalize(&s, a.active.rows)
	a.done = append(a.done, s)
	a.active = nil
}
