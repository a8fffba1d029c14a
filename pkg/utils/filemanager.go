// =============================================================================
// Shipment Sheet Pipeline - File Manager Utility
// =============================================================================
//
// File housekeeping around a run:
//   - archiving the previous shipments/products JSON before it is replaced
//   - archive naming
//   - run summary files
//   - retention cleanup of old archives
//
// ARCHIVAL STRATEGY:
//   - Output files are copied, never moved: the live file stays in place
//     until the writer atomically replaces it
//   - Archives go to <archive_dir>/<yyyy>/<mm>/<dd>/ when timestamp
//     subdirectories are enabled (the default)
//   - Names are <base>_<yyyymmdd_hhmmss>_<uuid8><ext> so two runs in the
//     same second never collide
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager archives pipeline outputs.
type FileManager struct {
	// ArchiveDir is the root of the output archive.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/shipments_20240115_143022_a1b2c3d4.json
	UseTimestampSubdirs bool

	// Enabled turns archiving on. When false ArchiveOutputFile is a no-op.
	Enabled bool

	// now is replaceable in tests.
	now func() time.Time
}

// NewFileManager creates a FileManager archiving into archiveDir.
func NewFileManager(archiveDir string, enabled bool) *FileManager {
	return &FileManager{
		ArchiveDir:          archiveDir,
		UseTimestampSubdirs: true,
		Enabled:             enabled,
		now:                 time.Now,
	}
}

// EnsureDirectories creates the archive directory if it doesn't exist.
func (fm *FileManager) EnsureDirectories() error {
	if !fm.Enabled || fm.ArchiveDir == "" {
		return nil
	}
	if err := os.MkdirAll(fm.ArchiveDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.ArchiveDir, err)
	}
	return nil
}

// =============================================================================
// ARCHIVAL
// =============================================================================

// ArchiveOutputFile copies filePath into the archive.
//
// RETURNS:
//   - The path of the archived copy, or "" when archiving is disabled or
//     filePath does not exist yet (first run).
//   - An error if the copy fails.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if !fm.Enabled || !FileExists(filePath) {
		return "", nil
	}

	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	now := fm.clock()
	name := GenerateArchiveName(filepath.Base(filePath), now)

	if fm.UseTimestampSubdirs {
		subDir := filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
		return filepath.Join(subDir, name)
	}

	return filepath.Join(fm.ArchiveDir, name)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// GenerateArchiveName builds <base>_<timestamp>_<uuid8><ext> from a file
// name.
//
// EXAMPLE:
//   fileName: "shipments.json"
//   output:   "shipments_20240115_143022_a1b2c3d4.json"
func GenerateArchiveName(fileName string, at time.Time) string {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	short := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return fmt.Sprintf("%s_%s_%s%s", base, at.Format("20060102_150405"), short, ext)
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary describes one pipeline run.
type ProcessingSummary struct {
	RunID     string
	Command   string
	StartTime time.Time
	EndTime   time.Time

	InputFile   string
	SheetName   string
	RowsScanned int
	Shipments   int
	Items       int

	// Unresolved are catalog names that matched no product.
	Unresolved []string

	// Issues are formatted structure warnings.
	Issues []string

	PriceUpdates int
	CostUpdates  int
	UnknownIDs   []string

	OutputFiles   []string
	ArchivedFiles []string
}

// WriteSummaryLog writes a processing summary to a text file in outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	timestamp := summary.StartTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("run_summary_%s.txt", timestamp))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	if err := FormatSummary(file, summary); err != nil {
		return "", err
	}
	return summaryPath, nil
}

// FormatSummary renders summary as plain text.
func FormatSummary(w io.Writer, summary ProcessingSummary) error {
	writer := bufio.NewWriter(w)
	rule := strings.Repeat("=", 80) + "\n"
	thin := strings.Repeat("-", 80) + "\n"

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "Shipment Sheet Pipeline - Run Summary\n%s\n", rule)
	fmt.Fprintf(writer, "Run Information:\n"+
		"  Run ID:       %s\n"+
		"  Command:      %s\n"+
		"  Start Time:   %s\n"+
		"  End Time:     %s\n"+
		"  Duration:     %s\n\n",
		summary.RunID,
		summary.Command,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String())

	fmt.Fprintf(writer, "Statistics:\n"+
		"  Input:         %s\n"+
		"  Sheet:         %s\n"+
		"  Rows Scanned:  %d\n"+
		"  Shipments:     %d\n"+
		"  Items:         %d\n"+
		"  Price Updates: %d\n"+
		"  Cost Updates:  %d\n\n",
		summary.InputFile,
		summary.SheetName,
		summary.RowsScanned,
		summary.Shipments,
		summary.Items,
		summary.PriceUpdates,
		summary.CostUpdates)

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(writer, "%s:\n%s", title, thin)
		for _, item := range items {
			fmt.Fprintf(writer, "  %s\n", item)
		}
		writer.WriteString("\n")
	}
	writeList("Structure Warnings", summary.Issues)
	writeList("Unresolved Products", summary.Unresolved)
	writeList("Unknown Product IDs", summary.UnknownIDs)
	writeList("Output Files", summary.OutputFiles)
	writeList("Archived Files", summary.ArchivedFiles)

	writer.WriteString(rule + "End of Summary\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush summary: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// CleanOldArchives removes archive files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func CleanOldArchives(archiveDir string, maxAge time.Duration) (int, error) {
	if !FileExists(archiveDir) {
		return 0, nil
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}

		return nil
	})

	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}
