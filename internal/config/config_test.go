package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mehmetmetrix/shipsheet/internal/sheet"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadMainConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadMainConfig() error = %v", err)
	}
	if cfg.Source != "" {
		t.Fatalf("Source = %q, want empty", cfg.Source)
	}
	if cfg.SheetName != sheet.DefaultSheetName || cfg.FetchTimeout.Duration != 30*time.Second || cfg.LogLevel != "info" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.SheetColumns() != sheet.DefaultColumns() {
		t.Fatalf("SheetColumns() = %+v, want defaults", cfg.SheetColumns())
	}
	if cfg.HistoryDB != "" || cfg.ArchiveOutputs {
		t.Fatalf("optional features enabled by default: %+v", cfg)
	}
}

func TestLoadMainConfig_YAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yaml", `
input_file: sheets/book.xlsx
products_file: out/products.json
fetch_timeout: 45s
archive_outputs: true
history_db: out/history.db
log_level: debug
columns:
  cost: 12
`)
	cfg, err := LoadMainConfig(path)
	if err != nil {
		t.Fatalf("LoadMainConfig() error = %v", err)
	}
	if cfg.Source != path {
		t.Fatalf("Source = %q, want %q", cfg.Source, path)
	}
	if cfg.InputFile != "sheets/book.xlsx" || cfg.ProductsFile != "out/products.json" {
		t.Fatalf("paths = %q / %q", cfg.InputFile, cfg.ProductsFile)
	}
	if cfg.FetchTimeout.Duration != 45*time.Second || !cfg.ArchiveOutputs || cfg.HistoryDB != "out/history.db" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ShipmentsFile != filepath.Join("data", "shipments.json") {
		t.Fatalf("ShipmentsFile default not applied: %q", cfg.ShipmentsFile)
	}

	cols := cfg.SheetColumns()
	want := sheet.DefaultColumns()
	want.Cost = 12
	if cols != want {
		t.Fatalf("SheetColumns() = %+v, want %+v", cols, want)
	}
}

func TestLoadMainConfig_TOML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "shipsheet.toml", `
sheet_name = "Лист1"
spreadsheet_id = "abc"
fetch_timeout = "1m"

[columns]
price = 8
data_start_row = 2
`)
	cfg, err := LoadMainConfig(path)
	if err != nil {
		t.Fatalf("LoadMainConfig() error = %v", err)
	}
	if cfg.SheetName != "Лист1" || cfg.SpreadsheetID != "abc" || cfg.FetchTimeout.Duration != time.Minute {
		t.Fatalf("cfg = %+v", cfg)
	}
	cols := cfg.SheetColumns()
	if cols.Price != 8 || cols.DataStartRow != 2 || cols.Cost != 13 {
		t.Fatalf("SheetColumns() = %+v", cols)
	}
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"bad yaml":        "input_file: [",
		"bad duration":    "fetch_timeout: soon",
		"bad level":       "log_level: loud",
		"negative column": "columns:\n  name: -1",
		"negative days":   "archive_retention_days: -3",
	}
	for name, content := range tests {
		name, content := name, content
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadMainConfig(writeConfig(t, "config.yaml", content)); err == nil {
				t.Fatalf("LoadMainConfig() error = nil")
			}
		})
	}
}
