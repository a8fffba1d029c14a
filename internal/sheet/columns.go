// =============================================================================
// Shipment Sheet Pipeline - Sheet Layout
// =============================================================================
//
// The shipments sheet has one fixed column layout:
//
//   | Col | Index | Content                                   |
//   |-----|-------|-------------------------------------------|
//   | A   | 0     | shipment number / year marker             |
//   | C   | 2     | item name with sizes in parentheses       |
//   | E   | 4     | item status text                          |
//   | F   | 5     | shipment status text                      |
//   | G   | 6     | ordered quantity                          |
//   | H   | 7     | unit price, USD                           |
//   | N   | 13    | landed cost incl. cargo, RUB              |
//   | P   | 15    | received date or free-form ETA text       |
//
// Row 1 holds column titles and is skipped.
//
// =============================================================================

package sheet

import "fmt"

// DefaultSheetName is the worksheet that holds shipments.
const DefaultSheetName = "Поставки"

// Columns defines which 0-based column holds which value.
type Columns struct {
	ShipmentNumber int `yaml:"shipment_number" toml:"shipment_number"`
	Name           int `yaml:"name" toml:"name"`
	ItemStatus     int `yaml:"item_status" toml:"item_status"`
	ShipmentStatus int `yaml:"shipment_status" toml:"shipment_status"`
	Quantity       int `yaml:"quantity" toml:"quantity"`
	Price          int `yaml:"price" toml:"price"`
	Cost           int `yaml:"cost" toml:"cost"`
	Date           int `yaml:"date" toml:"date"`

	// DataStartRow is the 0-based index of the first data row.
	DataStartRow int `yaml:"data_start_row" toml:"data_start_row"`
}

// DefaultColumns returns the layout of the shipments sheet.
func DefaultColumns() Columns {
	return Columns{
		ShipmentNumber: 0,  // A
		Name:           2,  // C
		ItemStatus:     4,  // E
		ShipmentStatus: 5,  // F
		Quantity:       6,  // G
		Price:          7,  // H
		Cost:           13, // N
		Date:           15, // P
		DataStartRow:   1,
	}
}

// MaxIndex returns the right-most column the layout reads.
func (c Columns) MaxIndex() int {
	max := 0
	for _, idx := range []int{c.ShipmentNumber, c.Name, c.ItemStatus, c.ShipmentStatus, c.Quantity, c.Price, c.Cost, c.Date} {
		if idx > max {
			max = idx
		}
	}
	return max
}

// Validate rejects negative indexes.
func (c Columns) Validate() error {
	named := map[string]int{
		"shipment_number": c.ShipmentNumber,
		"name":            c.Name,
		"item_status":     c.ItemStatus,
		"shipment_status": c.ShipmentStatus,
		"quantity":        c.Quantity,
		"price":           c.Price,
		"cost":            c.Cost,
		"date":            c.Date,
		"data_start_row":  c.DataStartRow,
	}
	for name, idx := range named {
		if idx < 0 {
			return fmt.Errorf("column %s: negative index %d", name, idx)
		}
	}
	return nil
}

// ColumnLetter converts a 0-based index to a spreadsheet column name.
func ColumnLetter(idx int) string {
	name := ""
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}
