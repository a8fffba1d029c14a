// =============================================================================
// Shipment Sheet Pipeline - Configuration Module
// =============================================================================
//
// Loads the application configuration. Everything has a default, so the
// pipeline runs with no config file at all.
//
// CONFIGURATION FILE:
//   config.yaml (YAML) or any *.toml file (TOML). The format is chosen by
//   extension. A missing file is not an error.
//
// EXAMPLE (YAML):
//   input_file: data/shipments.xlsx
//   sheet_name: Поставки
//   products_file: data/products.json
//   shipments_file: data/shipments.json
//   spreadsheet_id: 1Z8RE-Gt7itH15PuCb2tW7GffffgwzASPtMolbWSM0O0
//   fetch_timeout: 30s
//   archive_outputs: true
//   columns:
//     cost: 13
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mehmetmetrix/shipsheet/internal/sheet"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "config.yaml"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the application configuration.
type MainConfig struct {
	// =========================================================================
	// INPUT
	// =========================================================================

	// InputFile is the shipments workbook (.xlsx) or its CSV export.
	// Default: "data/shipments.xlsx"
	InputFile string `yaml:"input_file" toml:"input_file"`

	// SheetName is the worksheet to read. When the workbook has no sheet of
	// that name the first sheet is used.
	// Default: "Поставки"
	SheetName string `yaml:"sheet_name" toml:"sheet_name"`

	// CSVDelimiter is used when InputFile is a CSV export.
	// Valid values: ",", ";", "|", "tab". Default: ","
	CSVDelimiter string `yaml:"csv_delimiter" toml:"csv_delimiter"`

	// Columns overrides single columns of the fixed sheet layout.
	Columns ColumnOverrides `yaml:"columns" toml:"columns"`

	// =========================================================================
	// OUTPUT
	// =========================================================================

	// ProductsFile is the catalog updated with the latest prices.
	// Default: "data/products.json"
	ProductsFile string `yaml:"products_file" toml:"products_file"`

	// ShipmentsFile is where parsed shipments are written.
	// Default: "data/shipments.json"
	ShipmentsFile string `yaml:"shipments_file" toml:"shipments_file"`

	// ArchiveOutputs copies the previous JSON files to ArchiveDir before
	// they are replaced.
	// Default: false
	ArchiveOutputs bool `yaml:"archive_outputs" toml:"archive_outputs"`

	// ArchiveDir is the root of the output archive.
	// Default: "data/archive"
	ArchiveDir string `yaml:"archive_dir" toml:"archive_dir"`

	// ArchiveRetentionDays removes archived files older than this many days
	// after each run. 0 keeps everything.
	ArchiveRetentionDays int `yaml:"archive_retention_days" toml:"archive_retention_days"`

	// SummaryDir receives a plain-text summary per run. Empty disables it.
	SummaryDir string `yaml:"summary_dir" toml:"summary_dir"`

	// HistoryDB is the SQLite run history. Empty disables it.
	HistoryDB string `yaml:"history_db" toml:"history_db"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// =========================================================================
	// REMOTE SHEET
	// =========================================================================

	// SpreadsheetID is the Google Sheets document id used by `fetch`.
	SpreadsheetID string `yaml:"spreadsheet_id" toml:"spreadsheet_id"`

	// FetchTimeout bounds the download.
	// Default: 30s
	FetchTimeout Duration `yaml:"fetch_timeout" toml:"fetch_timeout"`

	// Source is the file the configuration was read from, empty when
	// defaults are used.
	Source string `yaml:"-" toml:"-"`
}

// ColumnOverrides replaces individual columns of sheet.DefaultColumns.
// Unset fields keep the default.
type ColumnOverrides struct {
	ShipmentNumber *int `yaml:"shipment_number" toml:"shipment_number"`
	Name           *int `yaml:"name" toml:"name"`
	ItemStatus     *int `yaml:"item_status" toml:"item_status"`
	ShipmentStatus *int `yaml:"shipment_status" toml:"shipment_status"`
	Quantity       *int `yaml:"quantity" toml:"quantity"`
	Price          *int `yaml:"price" toml:"price"`
	Cost           *int `yaml:"cost" toml:"cost"`
	Date           *int `yaml:"date" toml:"date"`
	DataStartRow   *int `yaml:"data_start_row" toml:"data_start_row"`
}

// Apply returns base with the overrides set.
func (o ColumnOverrides) Apply(base sheet.Columns) sheet.Columns {
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&base.ShipmentNumber, o.ShipmentNumber)
	set(&base.Name, o.Name)
	set(&base.ItemStatus, o.ItemStatus)
	set(&base.ShipmentStatus, o.ShipmentStatus)
	set(&base.Quantity, o.Quantity)
	set(&base.Price, o.Price)
	set(&base.Cost, o.Cost)
	set(&base.Date, o.Date)
	set(&base.DataStartRow, o.DataStartRow)
	return base
}

// SheetColumns is the effective column layout.
func (c *MainConfig) SheetColumns() sheet.Columns {
	return c.Columns.Apply(sheet.DefaultColumns())
}

// Duration is a time.Duration written as "30s", "1m" etc. in config files.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Default returns the configuration used when no file exists.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig reads the configuration at configPath.
//
// RETURNS:
//   - The configuration with defaults applied. When configPath does not
//     exist the defaults alone are returned.
//   - An error if the file cannot be read, parsed or is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := unmarshal(configPath, data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	config.Source = configPath

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func unmarshal(path string, data []byte, config *MainConfig) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, config)
	}
	return yaml.Unmarshal(data, config)
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputFile == "" {
		config.InputFile = filepath.Join("data", "shipments.xlsx")
	}
	if config.SheetName == "" {
		config.SheetName = sheet.DefaultSheetName
	}
	if config.ProductsFile == "" {
		config.ProductsFile = filepath.Join("data", "products.json")
	}
	if config.ShipmentsFile == "" {
		config.ShipmentsFile = filepath.Join("data", "shipments.json")
	}
	if config.ArchiveDir == "" {
		config.ArchiveDir = filepath.Join("data", "archive")
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.FetchTimeout.Duration == 0 {
		config.FetchTimeout.Duration = 30 * time.Second
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q: want debug, info, warn or error", config.LogLevel)
	}

	if config.FetchTimeout.Duration < 0 {
		return fmt.Errorf("fetch_timeout must be positive")
	}
	if config.ArchiveRetentionDays < 0 {
		return fmt.Errorf("archive_retention_days must not be negative")
	}

	if err := config.SheetColumns().Validate(); err != nil {
		return err
	}

	return nil
}
