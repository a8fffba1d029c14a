package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// DateLayout is the canonical output format for dates: DD.MM.YYYY.
const DateLayout = "02.01.2006"

var (
	dottedDatePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	isoDatePattern    = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:[ T].*)?$`)
	isoDatePrefix     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// IsEmpty reports whether c carries no value: an empty cell, a NaN number or
// text that is blank after trimming.
func IsEmpty(c Cell) bool {
	switch c.kind {
	case KindEmpty:
		return true
	case KindNumber:
		return math.IsNaN(c.num)
	case KindText:
		return strings.TrimSpace(c.text) == ""
	default:
		return false
	}
}

// ParseNumeric parses a price, cost or quantity cell. Text is trimmed, a
// decimal comma becomes a point and inner spaces are dropped ("1 500,5" is
// 1500.5). There is no other thousands-separator support.
func ParseNumeric(c Cell) (decimal.Decimal, bool) {
	if IsEmpty(c) {
		return decimal.Decimal{}, false
	}

	switch c.kind {
	case KindNumber:
		if math.IsInf(c.num, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(c.num), true

	case KindText:
		cleaned := strings.ReplaceAll(strings.TrimSpace(c.text), ",", ".")
		cleaned = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, cleaned)
		if cleaned == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	}

	return decimal.Decimal{}, false
}

// ParseInt reads a whole number from a shipment-number, year or quantity
// cell. Fractions are truncated toward zero; text must be a plain number.
func ParseInt(c Cell) (int, bool) {
	if IsEmpty(c) {
		return 0, false
	}

	var f float64
	switch c.kind {
	case KindNumber:
		f = c.num
	case KindText:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.text), 64)
		if err != nil {
			return 0, false
		}
		f = v
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// IsDateLike reports whether c is a real date: a date cell, or text shaped
// DD.MM.YYYY or starting with YYYY-MM-DD. Anything else in a date column is
// free-form ETA text.
func IsDateLike(c Cell) bool {
	switch c.kind {
	case KindDate:
		return true
	case KindText:
		s := strings.TrimSpace(c.text)
		return dottedDatePattern.MatchString(s) || isoDatePrefix.MatchString(s)
	default:
		return false
	}
}

// ParseDate converts a date-like cell to DD.MM.YYYY. DD.MM.YYYY text is
// returned as written; a time component after an ISO date is discarded.
func ParseDate(c Cell) (string, bool) {
	switch c.kind {
	case KindDate:
		return c.date.Format(DateLayout), true

	case KindText:
		s := strings.TrimSpace(c.text)
		if s == "" {
			return "", false
		}
		if dottedDatePattern.MatchString(s) {
			return s, true
		}
		if m := isoDatePattern.FindStringSubmatch(s); m != nil {
			t, err := time.Parse("2006-01-02", m[1])
			if err != nil {
				return "", false
			}
			return t.Format(DateLayout), true
		}
	}

	return "", false
}

// CleanText turns line breaks into spaces and squeezes whitespace runs.
func CleanText(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeStatus trims a status cell. Status texts are passed through
// as-is (emoji included); blank cells have no status.
func NormalizeStatus(c Cell) (string, bool) {
	if IsEmpty(c) {
		return "", false
	}
	s := strings.TrimSpace(c.String())
	if s == "" {
		return "", false
	}
	return s, true
}

// ContainsFold reports whether substr occurs in s ignoring case, with full
// Unicode case folding so Cyrillic text compares correctly.
func ContainsFold(s, substr string) bool {
	folder := cases.Fold()
	return strings.Contains(folder.String(s), folder.String(substr))
}
