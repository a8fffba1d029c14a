// =============================================================================
// Shipment Sheet Pipeline - Shared Types
// =============================================================================
//
// This package contains the record types shared across the pipeline to avoid
// import cycles. Types defined here are used by:
//   - shipment  (produces Shipment / RawItem)
//   - catalog   (reads Product, merges prices back)
//   - output    (serializes both to JSON)
//
// JSON SHAPES:
//   shipments.json : [ Shipment, ... ]                (newest first)
//   products.json  : { "products": [ Product, ... ] } (or a bare array)
//
// =============================================================================

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT
// =============================================================================

// Amount is a price or cost. It serializes as a bare JSON number: whole
// values are written without a fractional part (20, not 20.0).
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) *Amount {
	return &Amount{Decimal: d}
}

// AmountFromInt is a convenience for fixtures and tests.
func AmountFromInt(v int64) *Amount {
	return NewAmount(decimal.NewFromInt(v))
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler. Quoted numbers are accepted.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// Equal reports whether two optional amounts hold the same value.
func (a *Amount) Equal(b *Amount) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Decimal.Equal(b.Decimal)
}

// =============================================================================
// SHIPMENT TYPES
// =============================================================================

// Shipment is one group of rows in the sheet, opened by a header row.
type Shipment struct {
	// ID is "shipment-<Number>".
	ID string `json:"id"`

	// Number is the sequential shipment number from column A.
	Number int `json:"number"`

	// Title is the display title shown downstream.
	Title string `json:"title"`

	// Status is the shipment status text exactly as chosen in the sheet.
	Status string `json:"status"`

	// Year comes from the most recent year-marker row, if any.
	Year *int `json:"year,omitempty"`

	// ETA and ReceivedDate are mutually exclusive; ETA wins.
	ETA          string `json:"eta,omitempty"`
	ReceivedDate string `json:"receivedDate,omitempty"`

	// GroupByPayment is set only when every item lacks a price.
	GroupByPayment bool `json:"groupByPayment,omitempty"`

	// RawItems is never null in the output.
	RawItems []RawItem `json:"rawItems"`
}

// YearOrZero is the sort year of the shipment.
func (s *Shipment) YearOrZero() int {
	if s.Year == nil {
		return 0
	}
	return *s.Year
}

// RawItem is a single position inside a shipment.
type RawItem struct {
	// OverrideName is the name cell verbatim (trimmed).
	OverrideName string `json:"overrideName"`

	// ProductID is set when the bare name matched a catalog entry.
	ProductID string `json:"productId,omitempty"`

	// Price is the unit price in USD, Cost the landed cost in RUB.
	// Both are only present when positive.
	Price *Amount `json:"price,omitempty"`
	Cost  *Amount `json:"cost,omitempty"`

	// Sizes maps a lower-cased size (or "OneSize") to a count.
	Sizes map[string]int `json:"sizes,omitempty"`

	// QuantityOverride is set when the ordered quantity cannot be
	// derived from Sizes, or for samples.
	QuantityOverride *int `json:"quantityOverride,omitempty"`

	Status    string `json:"status,omitempty"`
	InTransit bool   `json:"inTransit,omitempty"`
	Sample    bool   `json:"sample,omitempty"`
}

// =============================================================================
// CATALOG TYPES
// =============================================================================

// Product is a catalog entry. Only id, name, price and cost are interpreted;
// every other field is carried through untouched in Extra.
type Product struct {
	ID    string
	Name  string
	Price *Amount
	Cost  *Amount

	// Extra holds the remaining JSON fields keyed by name.
	Extra map[string]json.RawMessage

	// Keys is the field order of the decoded object. MarshalJSON writes
	// fields back in this order so a hand-edited file keeps its layout.
	Keys []string
}

var productKnownFields = map[string]bool{"id": true, "name": true, "price": true, "cost": true}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Product) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	keys, err := ObjectKeys(data)
	if err != nil {
		return err
	}

	*p = Product{Keys: keys}
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &p.ID); err != nil {
			return fmt.Errorf("product id: %w", err)
		}
	}
	if raw, ok := fields["name"]; ok {
		if err := json.Unmarshal(raw, &p.Name); err != nil {
			return fmt.Errorf("product %q name: %w", p.ID, err)
		}
	}
	if raw, ok := fields["price"]; ok && string(raw) != "null" {
		p.Price = &Amount{}
		if err := p.Price.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("product %q price: %w", p.ID, err)
		}
	}
	if raw, ok := fields["cost"]; ok && string(raw) != "null" {
		p.Cost = &Amount{}
		if err := p.Cost.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("product %q cost: %w", p.ID, err)
		}
	}

	for key, raw := range fields {
		if productKnownFields[key] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[key] = raw
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Fields listed in Keys come first,
// in that order; a price or cost that was null stays null. Fields missing
// from Keys follow: id, name, price, cost, then extra fields sorted by key.
func (p Product) MarshalJSON() ([]byte, error) {
	value := func(key string) (any, bool) {
		switch key {
		case "id":
			return p.ID, true
		case "name":
			return p.Name, true
		case "price":
			if p.Price == nil {
				return nil, false
			}
			return p.Price, true
		case "cost":
			if p.Cost == nil {
				return nil, false
			}
			return p.Cost, true
		}
		raw, ok := p.Extra[key]
		return raw, ok
	}

	obj := make(Object, 0, len(p.Keys)+len(p.Extra)+4)
	written := make(map[string]bool, cap(obj))
	for _, key := range p.Keys {
		v, ok := value(key)
		if !ok && !(key == "price" || key == "cost") {
			continue
		}
		obj = append(obj, Member{Key: key, Value: v})
		written[key] = true
	}

	for _, key := range []string{"id", "name", "price", "cost"} {
		if written[key] {
			continue
		}
		if v, ok := value(key); ok {
			obj = append(obj, Member{Key: key, Value: v})
		}
	}
	obj = append(obj, SortedMembers(p.Extra, written)...)

	return obj.MarshalJSON()
}

// Catalog is the decoded products file.
type Catalog struct {
	Products []Product

	// Wrapped records whether the file was {"products": [...]} rather than
	// a bare array, so Save writes it back in the same shape.
	Wrapped bool

	// Extra holds other top-level keys of a wrapped file.
	Extra map[string]json.RawMessage

	// Keys is the top-level key order of a wrapped file.
	Keys []string
}

// =============================================================================
// ORDERED JSON OBJECTS
// =============================================================================

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object that keeps its member order. Values are encoded
// without HTML escaping.
type Object []Member

// MarshalJSON implements json.Marshaler.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(m.Key)
		if err != nil {
			return nil, err
		}
		value, err := marshalNoEscape(m.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", m.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SortedMembers returns the entries of fields not in skip, sorted by key.
func SortedMembers(fields map[string]json.RawMessage, skip map[string]bool) []Member {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if !skip[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	members := make([]Member, 0, len(keys))
	for _, key := range keys {
		members = append(members, Member{Key: key, Value: fields[key]})
	}
	return members
}

// ObjectKeys returns the member names of a JSON object in document order.
// A repeated name is listed once, at its first position.
func ObjectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}

	var keys []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// marshalNoEscape encodes v without HTML escaping and without the trailing
// newline json.Encoder appends.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
