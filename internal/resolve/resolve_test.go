package resolve

import (
	"reflect"
	"testing"

	"github.com/mehmetmetrix/shipsheet/internal/types"
)

func TestParseSizes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		want map[string]int
	}{
		{"Dress (XS-5, S-7, M-5)", map[string]int{"xs": 5, "s": 7, "m": 5}},
		{"Dress (one size-12)", map[string]int{OneSize: 12}},
		{"Dress (One Size - 3)", map[string]int{OneSize: 3}},
		{"Dress (one-size 4)", map[string]int{OneSize: 4}},
		{"Dress (образец)", map[string]int{}},
		{"Dress (Sample, S-1)", map[string]int{}},
		{"Dress", map[string]int{}},
		{"", map[string]int{}},
		{"Coat (black) (L - 2, XL-1)", map[string]int{"l": 2, "xl": 1}},
		{"Coat (S-1) (black)", map[string]int{}},
		{"Coat (S-1, S-4)", map[string]int{"s": 4}},
		{"Coat (S-1, 42, М-2)", map[string]int{"s": 1}},
	}
	for _, tc := range cases {
		got := ParseSizes(tc.name)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseSizes(%q)=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSizeTotal(t *testing.T) {
	t.Parallel()

	if got := SizeTotal(map[string]int{"xs": 5, "s": 7, "m": 5}); got != 17 {
		t.Fatalf("SizeTotal=%d", got)
	}
	if got := SizeTotal(nil); got != 0 {
		t.Fatalf("SizeTotal(nil)=%d", got)
	}
}

func TestIsSample(t *testing.T) {
	t.Parallel()

	if !IsSample("Шуба (образец M)") {
		t.Fatalf("expected sample")
	}
	if !IsSample("Coat (SAMPLE)") {
		t.Fatalf("expected sample")
	}
	if IsSample("Образец шубы (S-1)") {
		t.Fatalf("sample word outside parentheses must not count")
	}
}

func TestProductName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Жакет (XS-5)":                 "Жакет",
		"  Шуба   норка  (S-1, M-2) ":  "Шуба норка",
		"Пальто":                       "Пальто",
		"Coat (black) (S-1)":           "Coat (black)",
		"":                             "",
	}
	for in, want := range cases {
		got := ProductName(in)
		if got != want {
			t.Errorf("ProductName(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestProductName_Idempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Жакет   кожаный (XS-5)", "  Пальто\tдлинное (one size - 2)", "Пальто"} {
		once := ProductName(in)
		if twice := ProductName(once); twice != once {
			t.Errorf("ProductName not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestIndexLookup(t *testing.T) {
	t.Parallel()

	idx := NewIndex([]types.Product{
		{ID: "p1", Name: "Жакет  кожаный"},
		{ID: "p2", Name: "Шуба"},
		{ID: "p3", Name: "Шуба"},
		{ID: "", Name: "Пальто"},
	})

	if idx.Len() != 2 {
		t.Fatalf("Len=%d, want 2", idx.Len())
	}

	id, bare, ok := idx.Lookup("Жакет кожаный (S-2)")
	if !ok || id != "p1" || bare != "Жакет кожаный" {
		t.Fatalf("Lookup got id=%q bare=%q ok=%v", id, bare, ok)
	}

	if id, _, _ := idx.Lookup("Шуба (образец)"); id != "p2" {
		t.Fatalf("first catalog entry must win, got %q", id)
	}

	if _, _, ok := idx.Lookup("шуба (S-1)"); ok {
		t.Fatalf("match must be case-sensitive")
	}

	if _, bare, ok := idx.Lookup("Пальто (M-1)"); ok || bare != "Пальто" {
		t.Fatalf("products without id are not indexed")
	}

	var nilIdx *Index
	if _, _, ok := nilIdx.Lookup("Шуба"); ok {
		t.Fatalf("nil index must not match")
	}
}
