// =============================================================================
// Shipment Sheet Pipeline - Shipment Parser
// =============================================================================
//
// Converts the rows of the shipments sheet into shipment records.
//
// PIPELINE:
//   1. Skip the header row(s)
//   2. Classify every row (classify.go)
//   3. Feed the classification to the Accumulator (accumulator.go), which
//      opens/closes shipments and asks the Parser for items
//   4. Finalize each closed shipment: ETA or received date, groupByPayment
//   5. Sort newest first: year desc, then number desc
//
// The scan is single-pass and synchronous. Bad cells never abort it: a
// field that does not parse is simply left out of the record.
//
// =============================================================================

package shipment

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mehmetmetrix/shipsheet/internal/logging"
	"github.com/mehmetmetrix/shipsheet/internal/normalize"
	"github.com/mehmetmetrix/shipsheet/internal/resolve"
	"github.com/mehmetmetrix/shipsheet/internal/sheet"
	"github.com/mehmetmetrix/shipsheet/internal/types"
)

// DefaultStatus is used when the shipment status cell of a header is blank.
const DefaultStatus = "В работе 🧵"

// inTransitMarkers flag an item status as "in transit".
var inTransitMarkers = []string{"в пути", "in transit"}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of one parse.
type Result struct {
	// Shipments are sorted newest first.
	Shipments []types.Shipment

	Stats Stats
}

// Stats summarizes a parse for logs and the run history.
type Stats struct {
	RowsScanned int
	YearMarkers int
	Skipped     int
	Shipments   int
	Items       int

	// Unresolved lists bare product names with no catalog match, in the
	// order they were first seen.
	Unresolved []string
}

// =============================================================================
// PARSER
// =============================================================================

// Parser builds shipments from sheet rows. A Parser holds per-run state and
// must not be shared between runs.
type Parser struct {
	columns       sheet.Columns
	index         *resolve.Index
	logger        logging.Logger
	defaultStatus string

	unresolvedSeen map[string]bool
	unresolved     []string
}

// NewParser creates a parser. index may be nil, in which case no product
// ids are resolved; logger may be nil.
func NewParser(columns sheet.Columns, index *resolve.Index, logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Parser{
		columns:        columns,
		index:          index,
		logger:         logger,
		defaultStatus:  DefaultStatus,
		unresolvedSeen: make(map[string]bool),
	}
}

// Parse scans rows top to bottom. Rows before Columns.DataStartRow are
// skipped.
func (p *Parser) Parse(rows []normalize.Row) *Result {
	acc := NewAccumulator(p)

	scanned := 0
	for i := p.columns.DataStartRow; i < len(rows); i++ {
		kind := Classify(rows[i], p.columns)
		p.logger.Debug("row %d: %s", i+1, kind)
		acc.Step(kind, rows[i])
		scanned++
	}

	shipments := acc.Finish()
	Sort(shipments)

	result := &Result{
		Shipments: shipments,
		Stats: Stats{
			RowsScanned: scanned,
			YearMarkers: acc.YearMarkers,
			Skipped:     acc.Skipped,
			Shipments:   len(shipments),
			Unresolved:  p.unresolved,
		},
	}
	for _, s := range shipments {
		result.Stats.Items += len(s.RawItems)
	}
	return result
}

// NewShipment implements Builder.
func (p *Parser) NewShipment(number int, year *int, header normalize.Row) types.Shipment {
	status, ok := normalize.NormalizeStatus(header.At(p.columns.ShipmentStatus))
	if !ok {
		status = p.defaultStatus
	}

	return types.Shipment{
		ID:       fmt.Sprintf("shipment-%d", number),
		Number:   number,
		Title:    fmt.Sprintf("Поставка №%d", number),
		Status:   status,
		Year:     year,
		RawItems: []types.RawItem{},
	}
}

// ParseItem implements Builder. Only the name is required; every other
// field is optional and parsed independently.
func (p *Parser) ParseItem(row normalize.Row) (types.RawItem, bool) {
	nameCell := row.At(p.columns.Name)
	if normalize.IsEmpty(nameCell) {
		return types.RawItem{}, false
	}
	name := strings.TrimSpace(nameCell.String())

	item := types.RawItem{OverrideName: name}

	// productId
	if id, ok := p.resolveProduct(name); ok {
		item.ProductID = id
	}

	// price (USD) and cost (RUB): only positive values count.
	if d, ok := normalize.ParseNumeric(row.At(p.columns.Price)); ok && d.IsPositive() {
		item.Price = types.NewAmount(d)
	}
	if d, ok := normalize.ParseNumeric(row.At(p.columns.Cost)); ok && d.IsPositive() {
		item.Cost = types.NewAmount(d)
	}

	// sizes from the name
	sizes := resolve.ParseSizes(name)
	if len(sizes) > 0 {
		item.Sizes = sizes
	}

	// quantityOverride when the ordered quantity is not what the sizes add
	// up to, or when there are no sizes at all.
	if qty, ok := normalize.ParseInt(row.At(p.columns.Quantity)); ok {
		total := resolve.SizeTotal(sizes)
		if total == 0 || total != qty {
			item.QuantityOverride = &qty
		}
	}

	// status text as-is
	if status, ok := normalize.NormalizeStatus(row.At(p.columns.ItemStatus)); ok {
		item.Status = status
		for _, marker := range inTransitMarkers {
			if normalize.ContainsFold(status, marker) {
				item.InTransit = true
				break
			}
		}
	}

	// samples default to a single piece
	if resolve.IsSample(name) {
		item.Sample = true
		if item.QuantityOverride == nil {
			one := 1
			item.QuantityOverride = &one
		}
	}

	return item, true
}

// resolveProduct looks the name up in the catalog index. Misses are
// reported once per bare name.
func (p *Parser) resolveProduct(name string) (string, bool) {
	if p.index.Len() == 0 {
		return "", false
	}
	id, bare, ok := p.index.Lookup(name)
	if ok {
		return id, true
	}
	if bare != "" && !p.unresolvedSeen[bare] {
		p.unresolvedSeen[bare] = true
		p.unresolved = append(p.unresolved, bare)
		p.logger.Warn("product not found in catalog: %s", bare)
	}
	return "", false
}

// =============================================================================
// FINALIZER
// =============================================================================

// Finalize implements Builder.
//
// Date column: any non-date text in any row makes the first such text the
// ETA and the dates are ignored. Otherwise the latest date becomes the
// received date. groupByPayment is set when the shipment has items and
// none of them is priced.
func (p *Parser) Finalize(s *types.Shipment, rows []normalize.Row) {
	receivedDate, eta := p.resolveDates(rows)
	switch {
	case eta != "":
		s.ETA = eta
	case receivedDate != "":
		s.ReceivedDate = receivedDate
	}

	if len(s.RawItems) > 0 {
		unpriced := true
		for _, item := range s.RawItems {
			if item.Price != nil {
				unpriced = false
				break
			}
		}
		s.GroupByPayment = unpriced
	}
}

func (p *Parser) resolveDates(rows []normalize.Row) (receivedDate, eta string) {
	var dates []string
	var texts []string

	for _, row := range rows {
		cell := row.At(p.columns.Date)
		if normalize.IsEmpty(cell) {
			continue
		}
		if normalize.IsDateLike(cell) {
			if d, ok := normalize.ParseDate(cell); ok {
				dates = append(dates, d)
			}
			continue
		}
		if text := strings.TrimSpace(cell.String()); text != "" {
			texts = append(texts, text)
		}
	}

	if len(texts) > 0 {
		return "", normalize.CleanText(texts[0])
	}

	var latest time.Time
	for _, d := range dates {
		t, err := time.Parse(normalize.DateLayout, d)
		if err != nil {
			continue
		}
		if receivedDate == "" || t.After(latest) {
			latest = t
			receivedDate = d
		}
	}
	return receivedDate, ""
}

// =============================================================================
// ORDERING
// =============================================================================

// Sort orders shipments newest first: by year descending (no year sorts as
// 0, i.e. last), then by number descending. The price pass relies on this
// order.
func Sort(shipments []types.Shipment) {
	sort.SliceStable(shipments, func(i, j int) bool {
		yi, yj := shipments[i].YearOrZero(), shipments[j].YearOrZero()
		if yi != yj {
			return yi > yj
		}
		return shipments[i].Number > shipments[j].Number
	})
}
