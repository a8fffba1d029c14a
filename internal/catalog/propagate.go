package catalog

import (
	"github.com/mehmetmetrix/shipsheet/internal/logging"
	"github.com/mehmetmetrix/shipsheet/internal/types"
)

// Field names used in a Change.
const (
	FieldPrice = "price"
	FieldCost  = "cost"
)

// Change is one catalog value that was replaced.
type Change struct {
	ProductID string
	Field     string
	Old       *types.Amount
	New       *types.Amount

	// ShipmentID is the shipment the new value came from.
	ShipmentID string
}

// Report is the outcome of Propagate.
type Report struct {
	// PricesFound and CostsFound count catalog products for which a
	// shipment carried a value, changed or not.
	PricesFound int
	CostsFound  int

	// Updates lists values that actually changed, in catalog order.
	Updates []Change

	// Unknown lists product ids referenced by priced items that are not in
	// the catalog, in the order first seen.
	Unknown []string
}

// PriceUpdates counts changed prices.
func (r Report) PriceUpdates() int { return r.count(FieldPrice) }

// CostUpdates counts changed costs.
func (r Report) CostUpdates() int { return r.count(FieldCost) }

func (r Report) count(field string) int {
	n := 0
	for _, c := range r.Updates {
		if c.Field == field {
			n++
		}
	}
	return n
}

type sourced struct {
	amount     *types.Amount
	shipmentID string
}

// Propagate copies the latest price and cost of every product into cat.
// shipments must be ordered newest first: the first price seen for a
// product wins, and independently the first cost. Items without a product
// id are ignored; ids missing from the catalog are reported, not fatal.
func Propagate(shipments []types.Shipment, cat *types.Catalog, logger logging.Logger) Report {
	if logger == nil {
		logger = logging.Nop()
	}

	known := make(map[string]bool, len(cat.Products))
	for _, p := range cat.Products {
		if p.ID != "" {
			known[p.ID] = true
		}
	}

	var report Report
	prices := make(map[string]sourced)
	costs := make(map[string]sourced)
	unknownSeen := make(map[string]bool)

	for _, s := range shipments {
		for _, item := range s.RawItems {
			if item.ProductID == "" || (item.Price == nil && item.Cost == nil) {
				continue
			}
			if !known[item.ProductID] {
				if !unknownSeen[item.ProductID] {
					unknownSeen[item.ProductID] = true
					report.Unknown = append(report.Unknown, item.ProductID)
					logger.Warn("product %s from %s not found in catalog", item.ProductID, s.ID)
				}
				continue
			}
			if _, seen := prices[item.ProductID]; !seen && item.Price != nil {
				prices[item.ProductID] = sourced{item.Price, s.ID}
				logger.Debug("%s: price %s (from %s)", item.ProductID, item.Price, s.ID)
			}
			if _, seen := costs[item.ProductID]; !seen && item.Cost != nil {
				costs[item.ProductID] = sourced{item.Cost, s.ID}
				logger.Debug("%s: cost %s (from %s)", item.ProductID, item.Cost, s.ID)
			}
		}
	}

	report.PricesFound = len(prices)
	report.CostsFound = len(costs)

	for i := range cat.Products {
		p := &cat.Products[i]
		if v, ok := prices[p.ID]; ok {
			if !p.Price.Equal(v.amount) {
				report.Updates = append(report.Updates, Change{p.ID, FieldPrice, p.Price, v.amount, v.shipmentID})
			}
			p.Price = copyAmount(v.amount)
		}
		if v, ok := costs[p.ID]; ok {
			if !p.Cost.Equal(v.amount) {
				report.Updates = append(report.Updates, Change{p.ID, FieldCost, p.Cost, v.amount, v.shipmentID})
			}
			p.Cost = copyAmount(v.amount)
		}
	}

	return report
}

func copyAmount(a *types.Amount) *types.Amount {
	c := *a
	return &c
}
