// =============================================================================
// Shipment Sheet Pipeline - Converter Module
// =============================================================================
//
// This module orchestrates a pipeline run. The cobra commands only load the
// configuration, build a Converter and print its Result.
//
// PARSE PIPELINE:
//   1. Load the product catalog (missing or malformed aborts the run)
//   2. Read the shipments sheet (xlsx or csv export)
//   3. Check the sheet structure and log warnings
//   4. Parse rows into shipments
//   5. Write shipments.json (previous file archived when enabled)
//   6. Propagate prices and costs into the catalog and save it
//   7. Write the run summary, prune old archives, record history
//
// PRICE PIPELINE:
//   Steps 6 and 7 only, over an existing shipments.json.
//
// A Converter is used for one run at a time. Runs against the same catalog
// must be serialised by the caller.
//
// =============================================================================

package converter

import (
	"fmt"
	"time"

	"github.com/mehmetmetrix/shipsheet/internal/catalog"
	"github.com/mehmetmetrix/shipsheet/internal/config"
	"github.com/mehmetmetrix/shipsheet/internal/history"
	"github.com/mehmetmetrix/shipsheet/internal/logging"
	"github.com/mehmetmetrix/shipsheet/internal/output"
	"github.com/mehmetmetrix/shipsheet/internal/resolve"
	"github.com/mehmetmetrix/shipsheet/internal/sheet"
	"github.com/mehmetmetrix/shipsheet/internal/shipment"
	"github.com/mehmetmetrix/shipsheet/internal/types"
	"github.com/mehmetmetrix/shipsheet/internal/validation"
	"github.com/mehmetmetrix/shipsheet/pkg/utils"
)

// Command names recorded in the run history.
const (
	CommandParse  = "parse"
	CommandPrices = "prices"
)

// =============================================================================
// OPTIONS AND RESULT
// =============================================================================

// Options tweak a single run.
type Options struct {
	// InputFile overrides the configured sheet path.
	InputFile string

	// SkipPrices stops Parse after shipments.json is written.
	SkipPrices bool

	// DryRun parses and reports without writing any file or history.
	DryRun bool
}

// Result represents the outcome of one run.
type Result struct {
	RunID   string
	Command string

	// Input is the sheet (parse) or shipments file (prices) that was read.
	Input string

	// SheetName is the worksheet actually read. FellBack is set when the
	// configured worksheet was missing.
	SheetName string
	FellBack  bool

	// Issues are structure warnings for the sheet.
	Issues []validation.Issue

	// Shipments are sorted newest first.
	Shipments []types.Shipment
	Stats     shipment.Stats

	// Prices is nil when the price pass did not run.
	Prices *catalog.Report

	// CatalogSaved is set when the catalog file was rewritten.
	CatalogSaved bool

	OutputFiles   []string
	ArchivedFiles []string
	SummaryFile   string

	StartTime      time.Time
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the pipeline for one configuration. It runs one command
// at a time; logger carries the id of the current run.
type Converter struct {
	cfg     *config.MainConfig
	base    logging.Logger
	logger  logging.Logger
	files   *utils.FileManager
	writer  *output.Writer
	history *history.Store
	now     func() time.Time
}

// New creates a Converter.
//
// PARAMETERS:
//   - cfg: The loaded configuration.
//   - logger: Destination for progress and warnings; nil discards them.
//
// RETURNS:
//   - A Converter without run history. Use SetHistory to record runs.
func New(cfg *config.MainConfig, logger logging.Logger) *Converter {
	if logger == nil {
		logger = logging.Nop()
	}
	files := utils.NewFileManager(cfg.ArchiveDir, cfg.ArchiveOutputs)
	return &Converter{
		cfg:    cfg,
		base:   logger,
		logger: logger,
		files:  files,
		writer: output.NewWriter(files),
		now:    time.Now,
	}
}

// SetHistory makes every non-dry run record itself in store.
func (c *Converter) SetHistory(store *history.Store) {
	c.history = store
}

// =============================================================================
// PARSE
// =============================================================================

// Parse reads the shipments sheet, writes shipments.json and, unless
// opts.SkipPrices is set, updates the catalog.
//
// RETURNS:
//   - The run result. It is returned alongside an error as far as the run
//     got, so callers can still print partial statistics.
//   - An error for fatal I/O failures: missing or malformed catalog,
//     unreadable sheet, failed writes.
func (c *Converter) Parse(opts Options) (result *Result, err error) {
	result = c.newResult(CommandParse, opts.InputFile)
	if result.Input == "" {
		result.Input = c.cfg.InputFile
	}
	c.begin(result, opts)
	defer func() { c.finish(result, opts, err) }()
	if err = c.prepare(opts); err != nil {
		return result, err
	}

	// =========================================================================
	// STEP 1: LOAD CATALOG
	// =========================================================================
	// Item names resolve against the catalog, so nothing is parsed or
	// written without one.

	cat, err := catalog.Load(c.cfg.ProductsFile)
	if err != nil {
		return result, err
	}
	c.logger.Debug("loaded %d catalog products", len(cat.Products))

	// =========================================================================
	// STEP 2: READ SHEET
	// =========================================================================

	s, err := sheet.Read(result.Input, sheet.Options{
		SheetName: c.cfg.SheetName,
		Delimiter: c.cfg.CSVDelimiter,
	})
	if err != nil {
		return result, fmt.Errorf("failed to read %s: %w", result.Input, err)
	}
	result.SheetName = s.Name
	result.FellBack = s.FellBack
	if s.FellBack {
		c.logger.Warn("sheet %q not found, using %q", c.cfg.SheetName, s.Name)
	}
	c.logger.Info("read %d rows from %s (%s)", len(s.Rows), result.Input, s.Name)

	// =========================================================================
	// STEP 3: CHECK STRUCTURE
	// =========================================================================
	// Warnings only: a sheet that looks wrong is still parsed.

	columns := c.cfg.SheetColumns()
	result.Issues = validation.CheckStructure(s.Rows, columns)
	for _, issue := range result.Issues {
		c.logger.Warn("%s", issue.String())
	}

	// =========================================================================
	// STEP 4: PARSE SHIPMENTS
	// =========================================================================

	parser := shipment.NewParser(columns, resolve.NewIndex(cat.Products), c.logger)
	parsed := parser.Parse(s.Rows)
	result.Shipments = parsed.Shipments
	if result.Shipments == nil {
		result.Shipments = []types.Shipment{}
	}
	result.Stats = parsed.Stats
	c.logger.Info("parsed %d shipments with %d items", result.Stats.Shipments, result.Stats.Items)

	// =========================================================================
	// STEP 5: WRITE SHIPMENTS
	// =========================================================================

	if !opts.DryRun {
		if err := c.writeJSON(result, c.cfg.ShipmentsFile, result.Shipments); err != nil {
			return result, fmt.Errorf("failed to write shipments: %w", err)
		}
	}

	// =========================================================================
	// STEP 6: PROPAGATE PRICES
	// =========================================================================

	if opts.SkipPrices {
		return result, nil
	}
	return result, c.propagate(result, cat, opts)
}

// =============================================================================
// PRICES
// =============================================================================

// UpdatePrices runs the price pass over an existing shipments.json.
//
// RETURNS:
//   - The run result.
//   - An error if either JSON file is missing or malformed, or the catalog
//     cannot be written.
func (c *Converter) UpdatePrices(opts Options) (result *Result, err error) {
	result = c.newResult(CommandPrices, opts.InputFile)
	if result.Input == "" {
		result.Input = c.cfg.ShipmentsFile
	}
	c.begin(result, opts)
	defer func() { c.finish(result, opts, err) }()
	if err = c.prepare(opts); err != nil {
		return result, err
	}

	shipments, err := catalog.LoadShipments(result.Input)
	if err != nil {
		return result, err
	}
	shipment.Sort(shipments)
	result.Shipments = shipments
	result.Stats.Shipments = len(shipments)
	for _, s := range shipments {
		result.Stats.Items += len(s.RawItems)
	}

	cat, err := catalog.Load(c.cfg.ProductsFile)
	if err != nil {
		return result, err
	}

	return result, c.propagate(result, cat, opts)
}

// propagate applies the newest prices and costs to cat and saves it when
// anything changed.
func (c *Converter) propagate(result *Result, cat *types.Catalog, opts Options) error {
	report := catalog.Propagate(result.Shipments, cat, c.logger)
	result.Prices = &report

	c.logger.Info("catalog: %d prices and %d costs updated (%d/%d products priced)",
		report.PriceUpdates(), report.CostUpdates(), report.PricesFound, len(cat.Products))

	if opts.DryRun || len(report.Updates) == 0 {
		return nil
	}

	archived, err := catalog.Save(c.writer, c.cfg.ProductsFile, cat)
	if archived != "" {
		result.ArchivedFiles = append(result.ArchivedFiles, archived)
	}
	if err != nil {
		return err
	}
	result.CatalogSaved = true
	result.OutputFiles = append(result.OutputFiles, c.cfg.ProductsFile)
	return nil
}

// =============================================================================
// RUN BOOKKEEPING
// =============================================================================

// newResult starts a run and tags every log line of it with the run id.
func (c *Converter) newResult(command, input string) *Result {
	result := &Result{
		RunID:     history.NewRunID(),
		Command:   command,
		Input:     input,
		StartTime: c.now(),
	}
	c.logger = logging.With(c.base, "run", result.RunID)
	return result
}

func (c *Converter) writeJSON(result *Result, path string, v any) error {
	archived, err := c.writer.WriteJSON(path, v)
	if archived != "" {
		result.ArchivedFiles = append(result.ArchivedFiles, archived)
		c.logger.Debug("archived previous %s to %s", path, archived)
	}
	if err != nil {
		return err
	}
	result.OutputFiles = append(result.OutputFiles, path)
	return nil
}

// begin records the run start. History failures are logged, never fatal.
func (c *Converter) begin(result *Result, opts Options) {
	c.logger.Debug("%s %s", result.Command, result.Input)
	if c.history == nil || opts.DryRun {
		return
	}
	if err := c.history.StartRun(result.RunID, result.Command, result.Input, result.StartTime); err != nil {
		c.logger.Warn("failed to record run start: %v", err)
	}
}

// prepare creates the archive directory before anything is written.
func (c *Converter) prepare(opts Options) error {
	if opts.DryRun {
		return nil
	}
	return c.files.EnsureDirectories()
}

// finish writes the summary file, prunes the archive and closes the run
// in the history store.
func (c *Converter) finish(result *Result, opts Options, runErr error) {
	end := c.now()
	result.ProcessingTime = end.Sub(result.StartTime)
	if opts.DryRun {
		return
	}

	if c.cfg.SummaryDir != "" {
		path, err := utils.WriteSummaryLog(c.summary(result, end), c.cfg.SummaryDir)
		if err != nil {
			c.logger.Warn("failed to write run summary: %v", err)
		} else {
			result.SummaryFile = path
		}
	}

	if c.cfg.ArchiveOutputs && c.cfg.ArchiveRetentionDays > 0 {
		maxAge := time.Duration(c.cfg.ArchiveRetentionDays) * 24 * time.Hour
		removed, err := utils.CleanOldArchives(c.cfg.ArchiveDir, maxAge)
		if err != nil {
			c.logger.Warn("failed to prune archive: %v", err)
		} else if removed > 0 {
			c.logger.Info("removed %d archived files older than %d days", removed, c.cfg.ArchiveRetentionDays)
		}
	}

	if c.history == nil {
		return
	}
	if result.Prices != nil && result.CatalogSaved {
		if err := c.history.RecordChanges(priceChanges(result.RunID, result.Prices.Updates)); err != nil {
			c.logger.Warn("failed to record price changes: %v", err)
		}
	}
	if err := c.history.FinishRun(result.RunID, runStats(result), runErr, end); err != nil {
		c.logger.Warn("failed to record run end: %v", err)
	}
}

func (c *Converter) summary(result *Result, end time.Time) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		RunID:         result.RunID,
		Command:       result.Command,
		StartTime:     result.StartTime,
		EndTime:       end,
		InputFile:     result.Input,
		SheetName:     result.SheetName,
		RowsScanned:   result.Stats.RowsScanned,
		Shipments:     result.Stats.Shipments,
		Items:         result.Stats.Items,
		Unresolved:    result.Stats.Unresolved,
		ArchivedFiles: result.ArchivedFiles,
	}
	for _, path := range result.OutputFiles {
		if size, err := utils.GetFileSize(path); err == nil {
			path = fmt.Sprintf("%s (%d bytes)", path, size)
		}
		summary.OutputFiles = append(summary.OutputFiles, path)
	}
	for _, issue := range result.Issues {
		summary.Issues = append(summary.Issues, issue.String())
	}
	if result.Prices != nil {
		summary.PriceUpdates = result.Prices.PriceUpdates()
		summary.CostUpdates = result.Prices.CostUpdates()
		summary.UnknownIDs = result.Prices.Unknown
	}
	return summary
}

func runStats(result *Result) history.RunStats {
	stats := history.RunStats{
		RowsScanned: result.Stats.RowsScanned,
		Shipments:   result.Stats.Shipments,
		Items:       result.Stats.Items,
		Unresolved:  len(result.Stats.Unresolved),
	}
	if result.Prices != nil {
		stats.PriceUpdates = result.Prices.PriceUpdates()
		stats.CostUpdates = result.Prices.CostUpdates()
	}
	return stats
}

// priceChanges converts catalog changes to history rows.
func priceChanges(runID string, updates []catalog.Change) []history.PriceChange {
	changes := make([]history.PriceChange, 0, len(updates))
	for _, u := range updates {
		change := history.PriceChange{
			RunID:      runID,
			ProductID:  u.ProductID,
			Field:      u.Field,
			ShipmentID: u.ShipmentID,
		}
		if u.Old != nil {
			change.OldValue = u.Old.String()
		}
		if u.New != nil {
			change.NewValue = u.New.String()
		}
		changes = append(changes, change)
	}
	return changes
}
