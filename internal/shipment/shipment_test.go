package shipment

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/mehmetmetrix/shipsheet/internal/logging"
	"github.com/mehmetmetrix/shipsheet/internal/normalize"
	"github.com/mehmetmetrix/shipsheet/internal/resolve"
	"github.com/mehmetmetrix/shipsheet/internal/sheet"
	"github.com/mehmetmetrix/shipsheet/internal/types"
	"github.com/xuri/excelize/v2"
)

// Column shortcuts for the default layout.
const (
	colNumber   = 0
	colName     = 2
	colItemStat = 4
	colShipStat = 5
	colQty      = 6
	colPrice    = 7
	colCost     = 13
	colDate     = 15
)

// mkRow builds a 16-wide row from column -> value. Strings become Text,
// ints and floats become Number, time.Time becomes Date.
func mkRow(values map[int]any) normalize.Row {
	row := make(normalize.Row, 16)
	for i := range row {
		row[i] = normalize.Empty()
	}
	for idx, v := range values {
		switch v := v.(type) {
		case string:
			row[idx] = normalize.Text(v)
		case int:
			row[idx] = normalize.Number(float64(v))
		case float64:
			row[idx] = normalize.Number(v)
		case time.Time:
			row[idx] = normalize.Date(v)
		}
	}
	return row
}

func titleRow() normalize.Row {
	return mkRow(map[int]any{colNumber: "№", colName: "Наименование"})
}

func intPtr(v int) *int { return &v }

// =============================================================================
// CLASSIFY
// =============================================================================

func TestClassify(t *testing.T) {
	t.Parallel()

	cols := sheet.DefaultColumns()
	tests := []struct {
		name string
		row  normalize.Row
		want RowKind
	}{
		{"year marker", mkRow(map[int]any{colNumber: 2024}), YearMarker{Year: 2024}},
		{"year marker as text", mkRow(map[int]any{colNumber: "2023"}), YearMarker{Year: 2023}},
		{"lower bound", mkRow(map[int]any{colNumber: 2000}), YearMarker{Year: 2000}},
		{"upper bound", mkRow(map[int]any{colNumber: 2100}), YearMarker{Year: 2100}},
		{"below range is ignored", mkRow(map[int]any{colNumber: 1999}), Ignored{}},
		{"blank", mkRow(nil), Blank{}},
		{"whitespace is blank", mkRow(map[int]any{colNumber: "  ", colName: " "}), Blank{}},
		{"header", mkRow(map[int]any{colNumber: 5, colName: "Jacket (S-3)"}), Header{Number: 5}},
		{"year-like number with name is header", mkRow(map[int]any{colNumber: 2024, colName: "Coat"}), Header{Number: 2024}},
		{"continuation", mkRow(map[int]any{colName: "Coat (M-1)"}), Continuation{}},
		{"continuation with note", mkRow(map[int]any{colNumber: "доп.", colName: "Coat"}), Continuation{}},
		{"note only", mkRow(map[int]any{colNumber: "итого"}), Ignored{}},
		{"short row", normalize.Row{}, Blank{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.row, cols); got != tt.want {
				t.Fatalf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

// recordingBuilder records the calls the Accumulator makes.
type recordingBuilder struct {
	opened    []int
	finalized map[int]int // shipment number -> rows seen
}

func (b *recordingBuilder) NewShipment(number int, year *int, _ normalize.Row) types.Shipment {
	b.opened = append(b.opened, number)
	return types.Shipment{Number: number, Year: year}
}

func (b *recordingBuilder) ParseItem(row normalize.Row) (types.RawItem, bool) {
	name := row.At(colName)
	if normalize.IsEmpty(name) {
		return types.RawItem{}, false
	}
	return types.RawItem{OverrideName: name.String()}, true
}

func (b *recordingBuilder) Finalize(s *types.Shipment, rows []normalize.Row) {
	if b.finalized == nil {
		b.finalized = make(map[int]int)
	}
	b.finalized[s.Number] = len(rows)
}

func TestAccumulator_Transitions(t *testing.T) {
	t.Parallel()

	b := &recordingBuilder{}
	acc := NewAccumulator(b)

	if acc.Active() {
		t.Fatalf("new accumulator is active")
	}
	if _, ok := acc.Year(); ok {
		t.Fatalf("new accumulator has a year")
	}

	steps := []struct {
		kind RowKind
		row  normalize.Row
	}{
		{Continuation{}, mkRow(map[int]any{colName: "orphan"})},
		{YearMarker{Year: 2023}, mkRow(nil)},
		{Header{Number: 1}, mkRow(map[int]any{colName: "A"})},
		{Continuation{}, mkRow(map[int]any{colName: "B"})},
		{Header{Number: 2}, mkRow(map[int]any{colName: "C"})},
		{Blank{}, mkRow(nil)},
		{Continuation{}, mkRow(map[int]any{colName: "after blank"})},
		{Ignored{}, mkRow(nil)},
		{YearMarker{Year: 2024}, mkRow(nil)},
		{Header{Number: 3}, mkRow(map[int]any{colName: "D"})},
	}
	for _, s := range steps {
		acc.Step(s.kind, s.row)
	}

	if !acc.Active() {
		t.Fatalf("shipment 3 should still be open")
	}
	if y, ok := acc.Year(); !ok || y != 2024 {
		t.Fatalf("Year() = %d, %v; want 2024", y, ok)
	}

	done := acc.Finish()
	if acc.Active() {
		t.Fatalf("Finish() left a shipment open")
	}

	if got := []int{done[0].Number, done[1].Number, done[2].Number}; !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("finished shipments = %v, want [1 2 3]", got)
	}
	if len(done[0].RawItems) != 2 || len(done[1].RawItems) != 1 || len(done[2].RawItems) != 1 {
		t.Fatalf("item counts = %d/%d/%d, want 2/1/1",
			len(done[0].RawItems), len(done[1].RawItems), len(done[2].RawItems))
	}
	if want := map[int]int{1: 2, 2: 1, 3: 1}; !reflect.DeepEqual(b.finalized, want) {
		t.Fatalf("finalized rows = %v, want %v", b.finalized, want)
	}
	if *done[0].Year != 2023 || *done[2].Year != 2024 {
		t.Fatalf("years = %d/%d, want 2023/2024", *done[0].Year, *done[2].Year)
	}
	if acc.Skipped != 3 {
		t.Fatalf("Skipped = %d, want 3", acc.Skipped)
	}
	if acc.YearMarkers != 2 {
		t.Fatalf("YearMarkers = %d, want 2", acc.YearMarkers)
	}
}

func TestAccumulator_YearIsCopied(t *testing.T) {
	t.Parallel()

	acc := NewAccumulator(&recordingBuilder{})
	acc.Step(YearMarker{Year: 2023}, mkRow(nil))
	acc.Step(Header{Number: 1}, mkRow(map[int]any{colName: "A"}))
	acc.Step(YearMarker{Year: 2024}, mkRow(nil))

	done := acc.Finish()
	if len(done) != 1 || *done[0].Year != 2023 {
		t.Fatalf("year of shipment 1 changed after a later marker")
	}
}

// =============================================================================
// ITEMS
// =============================================================================

func TestParseItem(t *testing.T) {
	t.Parallel()

	index := resolve.NewIndex([]types.Product{{ID: "p-jacket", Name: "Jacket"}})

	tests := []struct {
		name string
		row  normalize.Row
		want types.RawItem
		ok   bool
	}{
		{
			name: "no name",
			row:  mkRow(map[int]any{colPrice: 10}),
			ok:   false,
		},
		{
			name: "sized item with quantity matching sizes",
			row:  mkRow(map[int]any{colName: "Jacket (S-2, M-3)", colQty: 5, colPrice: 20, colCost: "1 500,5"}),
			want: types.RawItem{
				OverrideName: "Jacket (S-2, M-3)",
				ProductID:    "p-jacket",
				Price:        types.AmountFromInt(20),
				Cost:         types.NewAmount(mustDecimal(t, "1500.5")),
				Sizes:        map[string]int{"s": 2, "m": 3},
			},
			ok: true,
		},
		{
			name: "quantity differs from sizes",
			row:  mkRow(map[int]any{colName: "Jacket (S-2)", colQty: 4}),
			want: types.RawItem{
				OverrideName:     "Jacket (S-2)",
				ProductID:        "p-jacket",
				Sizes:            map[string]int{"s": 2},
				QuantityOverride: intPtr(4),
			},
			ok: true,
		},
		{
			name: "quantity without sizes",
			row:  mkRow(map[int]any{colName: "Scarf", colQty: "3"}),
			want: types.RawItem{OverrideName: "Scarf", QuantityOverride: intPtr(3)},
			ok:   true,
		},
		{
			name: "zero and negative prices are dropped",
			row:  mkRow(map[int]any{colName: "Scarf", colPrice: 0, colCost: -5}),
			want: types.RawItem{OverrideName: "Scarf"},
			ok:   true,
		},
		{
			name: "unparseable price is dropped",
			row:  mkRow(map[int]any{colName: "Scarf", colPrice: "n/a"}),
			want: types.RawItem{OverrideName: "Scarf"},
			ok:   true,
		},
		{
			name: "in transit status",
			row:  mkRow(map[int]any{colName: "Scarf", colItemStat: "  В пути 🚚 "}),
			want: types.RawItem{OverrideName: "Scarf", Status: "В пути 🚚", InTransit: true},
			ok:   true,
		},
		{
			name: "english in transit",
			row:  mkRow(map[int]any{colName: "Scarf", colItemStat: "IN TRANSIT"}),
			want: types.RawItem{OverrideName: "Scarf", Status: "IN TRANSIT", InTransit: true},
			ok:   true,
		},
		{
			name: "sample defaults to one piece",
			row:  mkRow(map[int]any{colName: "Coat (образец)"}),
			want: types.RawItem{OverrideName: "Coat (образец)", Sample: true, QuantityOverride: intPtr(1)},
			ok:   true,
		},
		{
			name: "sample keeps explicit quantity",
			row:  mkRow(map[int]any{colName: "Coat (Sample)", colQty: 2}),
			want: types.RawItem{OverrideName: "Coat (Sample)", Sample: true, QuantityOverride: intPtr(2)},
			ok:   true,
		},
		{
			name: "one size",
			row:  mkRow(map[int]any{colName: "Jacket (one size - 12)", colQty: 12}),
			want: types.RawItem{
				OverrideName: "Jacket (one size - 12)",
				ProductID:    "p-jacket",
				Sizes:        map[string]int{resolve.OneSize: 12},
			},
			ok: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewParser(sheet.DefaultColumns(), index, nil)
			got, ok := p.ParseItem(tt.row)
			if ok != tt.ok {
				t.Fatalf("ParseItem() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			assertItem(t, got, tt.want)
		})
	}
}

func assertItem(t *testing.T, got, want types.RawItem) {
	t.Helper()

	gotJSON, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal(got) error = %v", err)
	}
	wantJSON, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal(want) error = %v", err)
	}
	if string(gotJSON) != string(wantJSON) {
		t.Fatalf("item =\n  %s\nwant\n  %s", gotJSON, wantJSON)
	}
}

func TestParseItem_UnresolvedWarnedOnce(t *testing.T) {
	t.Parallel()

	rec := &logging.Recorder{}
	index := resolve.NewIndex([]types.Product{{ID: "p1", Name: "Jacket"}})
	p := NewParser(sheet.DefaultColumns(), index, rec)

	rows := []normalize.Row{
		titleRow(),
		mkRow(map[int]any{colNumber: 1, colName: "Unknown (S-1)"}),
		mkRow(map[int]any{colName: "Unknown (M-2)"}),
		mkRow(map[int]any{colName: "Jacket (L-1)"}),
	}
	result := p.Parse(rows)

	if len(rec.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", rec.Warnings)
	}
	if !reflect.DeepEqual(result.Stats.Unresolved, []string{"Unknown"}) {
		t.Fatalf("Unresolved = %v, want [Unknown]", result.Stats.Unresolved)
	}
	items := result.Shipments[0].RawItems
	if items[0].ProductID != "" || items[2].ProductID != "p1" {
		t.Fatalf("product ids = %q/%q, want empty/p1", items[0].ProductID, items[2].ProductID)
	}
}

func TestParseItem_EmptyCatalogIsSilent(t *testing.T) {
	t.Parallel()

	rec := &logging.Recorder{}
	p := NewParser(sheet.DefaultColumns(), resolve.NewIndex(nil), rec)
	p.Parse([]normalize.Row{titleRow(), mkRow(map[int]any{colNumber: 1, colName: "Unknown"})})

	if len(rec.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", rec.Warnings)
	}
}

// =============================================================================
// FINALIZER
// =============================================================================

func TestParse_Dates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		dates        []any
		wantReceived string
		wantETA      string
	}{
		{
			name:    "text wins over dates",
			dates:   []any{"15.03.2024", "Ожидается\nв  марте"},
			wantETA: "Ожидается в марте",
		},
		{
			name:         "latest date",
			dates:        []any{"10.01.2024", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)},
			wantReceived: "20.01.2024",
		},
		{
			name:         "iso text date",
			dates:        []any{"2024-02-03 00:00:00"},
			wantReceived: "03.02.2024",
		},
		{
			name:    "first text wins",
			dates:   []any{"в марте", "в апреле"},
			wantETA: "в марте",
		},
		{
			name:         "tie keeps first",
			dates:        []any{"05.05.2024", time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)},
			wantReceived: "05.05.2024",
		},
		{
			name: "no dates",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rows := []normalize.Row{titleRow()}
			for i, d := range tt.dates {
				values := map[int]any{colName: "Item", colDate: d}
				if i == 0 {
					values[colNumber] = 1
				}
				rows = append(rows, mkRow(values))
			}
			if len(tt.dates) == 0 {
				rows = append(rows, mkRow(map[int]any{colNumber: 1, colName: "Item"}))
			}

			result := NewParser(sheet.DefaultColumns(), nil, nil).Parse(rows)
			if len(result.Shipments) != 1 {
				t.Fatalf("shipments = %d, want 1", len(result.Shipments))
			}
			s := result.Shipments[0]
			if s.ReceivedDate != tt.wantReceived || s.ETA != tt.wantETA {
				t.Fatalf("receivedDate=%q eta=%q, want %q / %q", s.ReceivedDate, s.ETA, tt.wantReceived, tt.wantETA)
			}
		})
	}
}

func TestParse_GroupByPayment(t *testing.T) {
	t.Parallel()

	rows := []normalize.Row{
		titleRow(),
		mkRow(map[int]any{colNumber: 1, colName: "A"}),
		mkRow(map[int]any{colName: "B"}),
		mkRow(nil),
		mkRow(map[int]any{colNumber: 2, colName: "C", colPrice: 10}),
		mkRow(map[int]any{colName: "D"}),
	}
	result := NewParser(sheet.DefaultColumns(), nil, nil).Parse(rows)

	byNumber := map[int]types.Shipment{}
	for _, s := range result.Shipments {
		byNumber[s.Number] = s
	}
	if !byNumber[1].GroupByPayment {
		t.Errorf("shipment 1 has no prices, want groupByPayment")
	}
	if byNumber[2].GroupByPayment {
		t.Errorf("shipment 2 has a price, want no groupByPayment")
	}
}

func TestParse_HeaderDefaults(t *testing.T) {
	t.Parallel()

	rows := []normalize.Row{
		titleRow(),
		mkRow(map[int]any{colNumber: 7, colName: "A"}),
		mkRow(nil),
		mkRow(map[int]any{colNumber: 8, colName: "B", colShipStat: " Получено ✅ "}),
	}
	result := NewParser(sheet.DefaultColumns(), nil, nil).Parse(rows)

	s8, s7 := result.Shipments[0], result.Shipments[1]
	if s7.ID != "shipment-7" || s7.Title != "Поставка №7" || s7.Status != DefaultStatus {
		t.Fatalf("shipment 7 = %+v", s7)
	}
	if s8.Status != "Получено ✅" {
		t.Fatalf("shipment 8 status = %q", s8.Status)
	}
	if s7.Year != nil {
		t.Fatalf("shipment without a year marker has year %d", *s7.Year)
	}
}

// =============================================================================
// GROUPING AND ORDER
// =============================================================================

func TestParse_GroupingAndOrder(t *testing.T) {
	t.Parallel()

	rows := []normalize.Row{
		titleRow(),
		mkRow(map[int]any{colNumber: 1, colName: "no year"}),
		mkRow(map[int]any{colNumber: 2023}),
		mkRow(map[int]any{colNumber: 3, colName: "A"}),
		mkRow(map[int]any{colName: "B"}),
		mkRow(nil),
		mkRow(map[int]any{colName: "orphan after blank"}),
		mkRow(map[int]any{colNumber: 4, colName: "C"}),
		mkRow(map[int]any{colNumber: 2024}),
		mkRow(map[int]any{colNumber: 1, colName: "D"}),
		mkRow(map[int]any{colNumber: 2, colName: "E"}),
	}
	result := NewParser(sheet.DefaultColumns(), nil, nil).Parse(rows)

	type key struct{ year, number int }
	var got []key
	for _, s := range result.Shipments {
		got = append(got, key{s.YearOrZero(), s.Number})
	}
	want := []key{{2024, 2}, {2024, 1}, {2023, 4}, {2023, 3}, {0, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}

	if n := len(result.Shipments[3].RawItems); n != 2 {
		t.Fatalf("shipment 2023/3 items = %d, want 2", n)
	}

	stats := result.Stats
	if stats.RowsScanned != 10 || stats.YearMarkers != 2 || stats.Skipped != 1 || stats.Shipments != 5 || stats.Items != 6 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestParse_Idempotent(t *testing.T) {
	t.Parallel()

	rows := []normalize.Row{
		titleRow(),
		mkRow(map[int]any{colNumber: 2024}),
		mkRow(map[int]any{colNumber: 1, colName: "A (S-1)", colPrice: 5, colDate: "01.01.2024"}),
		mkRow(map[int]any{colName: "B (образец)"}),
	}
	first, _ := json.Marshal(NewParser(sheet.DefaultColumns(), nil, nil).Parse(rows).Shipments)
	second, _ := json.Marshal(NewParser(sheet.DefaultColumns(), nil, nil).Parse(rows).Shipments)
	if string(first) != string(second) {
		t.Fatalf("two parses differ:\n%s\n%s", first, second)
	}
}

func TestSort_Stable(t *testing.T) {
	t.Parallel()

	shipments := []types.Shipment{
		{ID: "a", Number: 1},
		{ID: "b", Number: 1},
		{ID: "c", Number: 1, Year: intPtr(2024)},
	}
	Sort(shipments)
	if shipments[0].ID != "c" || shipments[1].ID != "a" || shipments[2].ID != "b" {
		t.Fatalf("Sort() = %s,%s,%s; want c,a,b", shipments[0].ID, shipments[1].ID, shipments[2].ID)
	}
}

// =============================================================================
// END TO END
// =============================================================================

func TestParse_Workbook(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	if err := f.SetSheetName("Sheet1", sheet.DefaultSheetName); err != nil {
		t.Fatalf("SetSheetName() error = %v", err)
	}

	rows := [][]any{
		{"№", nil, "Наименование"},
		{2024},
		{5, nil, "Jacket (S-3)", nil, nil, nil, nil, 20, nil, nil, nil, nil, nil, 1500},
	}
	for i, values := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet.DefaultSheetName, cell, &values); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	if err := f.SetCellValue(sheet.DefaultSheetName, "P3", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("SetCellValue() error = %v", err)
	}

	s, err := sheet.ReadXLSXFile(f, sheet.DefaultSheetName)
	if err != nil {
		t.Fatalf("ReadXLSXFile() error = %v", err)
	}

	result := NewParser(sheet.DefaultColumns(), nil, nil).Parse(s.Rows)
	if len(result.Shipments) != 1 {
		t.Fatalf("shipments = %d, want 1", len(result.Shipments))
	}

	got, err := json.Marshal(result.Shipments[0])
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"id":"shipment-5","number":5,"title":"Поставка №5","status":"В работе 🧵","year":2024,` +
		`"receivedDate":"01.02.2024","rawItems":[{"overrideName":"Jacket (S-3)","price":20,"cost":1500,"sizes":{"s":3}}]}`
	if string(got) != want {
		t.Fatalf("shipment =\n  %s\nwant\n  %s", got, want)
	}
}
