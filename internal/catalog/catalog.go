// =============================================================================
// Shipment Sheet Pipeline - Product Catalog
// =============================================================================
//
// Reads and writes products.json and carries the latest known price and
// landed cost from shipments back into it.
//
// FILE SHAPES:
//   { "products": [ ... ], ...other keys }   (wrapped, preferred)
//   [ ... ]                                  (bare array)
//
// Fields of a product other than id, name, price and cost are kept as they
// are. Save writes the catalog back in the shape it was read in.
//
// =============================================================================

package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mehmetmetrix/shipsheet/internal/output"
	"github.com/mehmetmetrix/shipsheet/internal/types"
)

// ErrNotFound is returned by Load when the catalog file does not exist.
var ErrNotFound = errors.New("catalog file not found")

// Load reads a catalog file.
func Load(path string) (*types.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	cat, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return cat, nil
}

// Decode parses catalog JSON in either shape.
func Decode(data []byte) (*types.Catalog, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if trimmed[0] == '[' {
		var products []types.Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, err
		}
		return &types.Catalog{Products: products}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}

	keys, err := types.ObjectKeys(trimmed)
	if err != nil {
		return nil, err
	}

	cat := &types.Catalog{Wrapped: true, Keys: keys}
	if raw, ok := fields["products"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cat.Products); err != nil {
			return nil, fmt.Errorf("products: %w", err)
		}
	}
	for key, raw := range fields {
		if key == "products" {
			continue
		}
		if cat.Extra == nil {
			cat.Extra = make(map[string]json.RawMessage)
		}
		cat.Extra[key] = raw
	}
	return cat, nil
}

// Document returns the value Save encodes. A wrapped catalog keeps its
// top-level key order; "products" is added last when it was absent.
func Document(cat *types.Catalog) any {
	products := cat.Products
	if products == nil {
		products = []types.Product{}
	}
	if !cat.Wrapped {
		return products
	}

	doc := make(types.Object, 0, len(cat.Extra)+1)
	written := make(map[string]bool, len(cat.Extra)+1)
	for _, key := range cat.Keys {
		switch raw, ok := cat.Extra[key]; {
		case key == "products":
			doc = append(doc, types.Member{Key: key, Value: products})
		case ok:
			doc = append(doc, types.Member{Key: key, Value: raw})
		default:
			continue
		}
		written[key] = true
	}
	if !written["products"] {
		doc = append(doc, types.Member{Key: "products", Value: products})
		written["products"] = true
	}
	return append(doc, types.SortedMembers(cat.Extra, written)...)
}

// Save writes cat to path. w may be nil, in which case nothing is archived.
func Save(w *output.Writer, path string, cat *types.Catalog) (string, error) {
	if w == nil {
		w = output.NewWriter(nil)
	}
	archived, err := w.WriteJSON(path, Document(cat))
	if err != nil {
		return archived, fmt.Errorf("failed to save catalog: %w", err)
	}
	return archived, nil
}

// LoadShipments reads a shipments.json written by the parse step.
func LoadShipments(path string) ([]types.Shipment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipments: %w", err)
	}

	var shipments []types.Shipment
	if err := json.Unmarshal(data, &shipments); err != nil {
		return nil, fmt.Errorf("failed to parse shipments %s: %w", path, err)
	}
	return shipments, nil
}
