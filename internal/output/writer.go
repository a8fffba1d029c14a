// =============================================================================
// Shipment Sheet Pipeline - JSON Writer
// =============================================================================
//
// Serializes pipeline results to the JSON files read by the storefront:
//
//   shipments.json : [ { "id": "shipment-5", ..., "rawItems": [ ... ] } ]
//   products.json  : { "products": [ { "id": ..., "price": 20 } ] }
//
// FORMAT:
//   - 2-space indentation
//   - non-ASCII text written verbatim (Cyrillic, emoji), no HTML escaping
//   - trailing newline
//
// WRITING:
//   Files are written to a temp file in the target directory and renamed
//   over the target, so readers never see a half-written file. When an
//   Archiver is set, the previous file is copied to the archive first.
//
// =============================================================================

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// Options controls JSON generation.
type Options struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// EscapeHTML escapes <, > and & inside strings.
	// Default: false
	EscapeHTML bool
}

// DefaultOptions returns the default generation options.
func DefaultOptions() Options {
	return Options{Indent: "  "}
}

// GenerateWithOptions encodes v as indented JSON with a trailing newline.
func GenerateWithOptions(v any, options Options) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(options.EscapeHTML)
	enc.SetIndent("", options.Indent)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// FILE WRITING
// =============================================================================

// Archiver keeps a copy of a file before it is replaced.
// utils.FileManager implements it.
type Archiver interface {
	ArchiveOutputFile(path string) (string, error)
}

// Writer writes JSON documents to disk.
type Writer struct {
	options  Options
	archiver Archiver
}

// NewWriter creates a Writer. archiver may be nil.
func NewWriter(archiver Archiver) *Writer {
	return &Writer{options: DefaultOptions(), archiver: archiver}
}

// WriteJSON encodes v and atomically replaces path with it. The returned
// string is the archive path of the previous file, if one was archived.
func (w *Writer) WriteJSON(path string, v any) (string, error) {
	data, err := GenerateWithOptions(v, w.options)
	if err != nil {
		return "", err
	}

	var archived string
	if w.archiver != nil {
		archived, err = w.archiver.ArchiveOutputFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to archive %s: %w", path, err)
		}
	}

	if err := WriteFileAtomic(path, data, 0644); err != nil {
		return archived, err
	}
	return archived, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
