// =============================================================================
// Shipment Sheet Pipeline - Name Resolver
// =============================================================================
//
// Item names in the sheet carry their size breakdown in a trailing
// parenthetical:
//
//   "Жакет (XS-5, S-7, M-5)"   -> sizes {xs:5, s:7, m:5}, product "Жакет"
//   "Шуба (one size - 12)"     -> sizes {OneSize:12}
//   "Шуба (образец)"           -> sample, no sizes
//
// The bare product name (everything before the last "(") is matched against
// the catalog by exact string equality after whitespace collapsing. Matching
// is intentionally strict: no case folding, no punctuation or fuzzy rules.
//
// =============================================================================

package resolve

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mehmetmetrix/shipsheet/internal/normalize"
	"github.com/mehmetmetrix/shipsheet/internal/types"
)

// OneSize is the size key used for "one size - N" groups.
const OneSize = "OneSize"

var (
	groupPattern   = regexp.MustCompile(`\(([^)]+)\)`)
	oneSizePattern = regexp.MustCompile(`(?i)one[\s-]*size[\s-]*(\d+)`)
	sizePattern    = regexp.MustCompile(`(?i)([a-z]+)\s*-\s*(\d+)`)
)

// sampleMarkers are the words that flag a sample position.
var sampleMarkers = []string{"образец", "sample"}

// =============================================================================
// SIZES
// =============================================================================

// lastGroup returns the content of the last parenthesized group in name.
func lastGroup(name string) (string, bool) {
	matches := groupPattern.FindAllStringSubmatch(name, -1)
	if len(matches) == 0 {
		return "", false
	}
	return matches[len(matches)-1][1], true
}

// IsSampleGroup reports whether a parenthetical mentions a sample.
func IsSampleGroup(group string) bool {
	for _, marker := range sampleMarkers {
		if normalize.ContainsFold(group, marker) {
			return true
		}
	}
	return false
}

// IsSample reports whether any parenthetical in name mentions a sample.
func IsSample(name string) bool {
	for _, m := range groupPattern.FindAllStringSubmatch(name, -1) {
		if IsSampleGroup(m[1]) {
			return true
		}
	}
	return false
}

// ParseSizes extracts the size -> count mapping from the last parenthesized
// group of name. Sample groups and names without a group yield an empty map.
// Size letters are lower-cased; when a size repeats, the last count wins.
func ParseSizes(name string) map[string]int {
	sizes := map[string]int{}

	group, ok := lastGroup(name)
	if !ok || IsSampleGroup(group) {
		return sizes
	}

	if m := oneSizePattern.FindStringSubmatch(group); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			sizes[OneSize] = n
		}
		return sizes
	}

	for _, m := range sizePattern.FindAllStringSubmatch(group, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		sizes[strings.ToLower(m[1])] = n
	}
	return sizes
}

// SizeTotal sums the counts of a size mapping.
func SizeTotal(sizes map[string]int) int {
	total := 0
	for _, n := range sizes {
		total += n
	}
	return total
}

// =============================================================================
// PRODUCT NAMES
// =============================================================================

// ProductName strips the trailing size group and collapses whitespace.
// Applying it twice gives the same result as applying it once.
func ProductName(fullName string) string {
	if i := strings.LastIndex(fullName, "("); i >= 0 {
		fullName = fullName[:i]
	}
	return collapse(fullName)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// =============================================================================
// CATALOG INDEX
// =============================================================================

// Index maps whitespace-collapsed catalog names to product ids. It is built
// once per run and never modified afterwards.
type Index struct {
	byName map[string]string
}

// NewIndex builds an index over products. When two products share a name
// the one listed first wins.
func NewIndex(products []types.Product) *Index {
	idx := &Index{byName: make(map[string]string, len(products))}
	for _, p := range products {
		name := collapse(p.Name)
		if name == "" || p.ID == "" {
			continue
		}
		if _, exists := idx.byName[name]; !exists {
			idx.byName[name] = p.ID
		}
	}
	return idx
}

// Len returns the number of indexed names.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byName)
}

// Lookup resolves a sheet name to a product id. The bare name used for the
// match is returned as well so callers can report misses.
func (idx *Index) Lookup(fullName string) (id string, bare string, ok bool) {
	bare = ProductName(fullName)
	if idx == nil || bare == "" {
		return "", bare, false
	}
	id, ok = idx.byName[bare]
	return id, bare, ok
}
