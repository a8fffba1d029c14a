// =============================================================================
// Shipment Sheet Pipeline - Structure Checks
// =============================================================================
//
// Looks at the shape of the sheet before it is parsed and reports anything
// that suggests the layout changed:
//   - the sheet is narrower than the cost column
//   - the first data rows have no price or no cost at all
//
// Issues are collected, never returned as errors. The parser runs either
// way; the caller logs the issues so the operator can check the sheet.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/mehmetmetrix/shipsheet/internal/normalize"
	"github.com/mehmetmetrix/shipsheet/internal/sheet"
)

// SampleRows is how many data rows are checked for prices and costs.
const SampleRows = 5

// Severity of an Issue.
type Severity string

// SeverityWarning is the only severity: structural problems never stop a run.
const SeverityWarning Severity = "warning"

// Rule names.
const (
	RuleNoData        = "no_data"
	RuleMissingColumn = "missing_column"
	RuleEmptyColumn   = "empty_column"
)

// Issue is one finding about the sheet layout.
type Issue struct {
	Severity Severity

	// Rule is the check that produced the issue.
	Rule string

	// Column is the 0-based column concerned, or -1.
	Column int

	Message string
}

// String implements fmt.Stringer.
func (i Issue) String() string {
	if i.Column < 0 {
		return fmt.Sprintf("[%s] %s", strings.ToUpper(string(i.Severity)), i.Message)
	}
	return fmt.Sprintf("[%s] column %s (index %d): %s",
		strings.ToUpper(string(i.Severity)),
		sheet.ColumnLetter(i.Column),
		i.Column,
		i.Message,
	)
}

// CheckStructure inspects rows against the column layout.
func CheckStructure(rows []normalize.Row, cols sheet.Columns) []Issue {
	var issues []Issue

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	if width <= cols.Cost {
		return append(issues, Issue{
			Severity: SeverityWarning,
			Rule:     RuleMissingColumn,
			Column:   cols.Cost,
			Message:  fmt.Sprintf("sheet has only %d columns; the cost column is missing", width),
		})
	}

	sample := min(SampleRows, len(rows)-cols.DataStartRow)
	if sample <= 0 {
		return append(issues, Issue{
			Severity: SeverityWarning,
			Rule:     RuleNoData,
			Column:   -1,
			Message:  "sheet has no data rows",
		})
	}

	prices, costs := 0, 0
	for _, row := range rows[cols.DataStartRow : cols.DataStartRow+sample] {
		if !normalize.IsEmpty(row.At(cols.Price)) {
			prices++
		}
		if !normalize.IsEmpty(row.At(cols.Cost)) {
			costs++
		}
	}

	if prices == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Rule:     RuleEmptyColumn,
			Column:   cols.Price,
			Message:  fmt.Sprintf("no unit price in the first %d data rows", sample),
		})
	}
	if costs == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Rule:     RuleEmptyColumn,
			Column:   cols.Cost,
			Message:  fmt.Sprintf("no landed cost in the first %d data rows", sample),
		})
	}

	return issues
}

// FormatIssues renders issues as a numbered list.
func FormatIssues(issues []Issue) string {
	if len(issues) == 0 {
		return "Sheet structure looks fine."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Sheet structure check found %d issue(s):\n\n", len(issues)))
	for i, issue := range issues {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, issue))
	}
	return builder.String()
}
