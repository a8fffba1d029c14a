package sheet

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mehmetmetrix/shipsheet/internal/normalize"
)

// utf8BOM is stripped from the first cell; spreadsheet exports often add it.
const utf8BOM = "\ufeff"

// ReadCSVFile reads a CSV export of the shipments sheet.
func ReadCSVFile(path, delimiter string) (*Sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	s, err := ReadCSV(bufio.NewReader(file), delimiter)
	if err != nil {
		return nil, err
	}
	s.Name = filepath.Base(path)
	s.Source = path
	return s, nil
}

// ReadCSV reads CSV records from r. Every non-blank field becomes a Text
// cell; number and date detection happens downstream.
func ReadCSV(r io.Reader, delimiter string) (*Sheet, error) {
	reader := csv.NewReader(r)
	configureReader(reader, delimiter)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	s := &Sheet{Rows: make([]normalize.Row, len(records))}
	for i, record := range records {
		row := make(normalize.Row, len(record))
		for j, value := range record {
			if i == 0 && j == 0 {
				value = strings.TrimPrefix(value, utf8BOM)
			}
			if strings.TrimSpace(value) == "" {
				row[j] = normalize.Empty()
				continue
			}
			row[j] = normalize.Text(value)
		}
		s.Rows[i] = row
		if len(row) > s.Width {
			s.Width = len(row)
		}
	}
	return s, nil
}

// configureReader sets the delimiter and relaxes quoting so hand-edited
// exports still load.
func configureReader(reader *csv.Reader, delimiter string) {
	switch delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(delimiter) > 0 {
			reader.Comma = rune(delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Rows are as wide as their last filled cell.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}
