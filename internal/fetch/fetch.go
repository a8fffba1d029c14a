// =============================================================================
// Shipment Sheet Pipeline - Spreadsheet Download
// =============================================================================
//
// Downloads the shipments spreadsheet as .xlsx from its Google Sheets export
// URL so the parse step can run without a manual download.
//
// REQUIREMENTS:
//   The sheet must be shared as "anyone with the link can view". A private
//   sheet answers with an HTML sign-in page instead of the workbook; that
//   is reported as ErrAccessDenied.
//
// There are no retries. One request runs under a hard timeout.
//
// =============================================================================

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mehmetmetrix/shipsheet/internal/output"
)

// DefaultTimeout bounds a single download.
const DefaultTimeout = 30 * time.Second

// DefaultBaseURL is the Google Sheets document root.
const DefaultBaseURL = "https://docs.google.com/spreadsheets/d"

// maxBody caps the size of a downloaded workbook.
const maxBody = 64 << 20

var (
	// ErrTimeout is returned when the download exceeds the timeout.
	ErrTimeout = errors.New("spreadsheet download timed out")

	// ErrAccessDenied is returned when the export URL serves an HTML page
	// instead of a workbook.
	ErrAccessDenied = errors.New("spreadsheet is not shared by link")
)

// Client downloads spreadsheet exports.
type Client struct {
	// BaseURL is the document root; tests point it at an httptest server.
	BaseURL string

	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a Client with the given timeout. Zero means
// DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    DefaultBaseURL,
		Timeout:    timeout,
		HTTPClient: &http.Client{},
	}
}

// ExportURL returns the xlsx export URL of a spreadsheet.
func (c *Client) ExportURL(spreadsheetID string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	return fmt.Sprintf("%s/%s/export?format=xlsx", base, url.PathEscape(spreadsheetID))
}

// Download fetches the spreadsheet and atomically writes it to dest.
//
// RETURNS:
//   - The number of bytes written.
//   - ErrTimeout, ErrAccessDenied or a wrapped transport/HTTP error.
func (c *Client) Download(ctx context.Context, spreadsheetID, dest string) (int64, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return 0, fmt.Errorf("spreadsheet id is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ExportURL(spreadsheetID), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w after %s", ErrTimeout, c.Timeout)
		}
		return 0, fmt.Errorf("failed to download spreadsheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return 0, fmt.Errorf("spreadsheet export status=%d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if isHTML(resp.Header.Get("Content-Type")) {
		return 0, ErrAccessDenied
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w after %s", ErrTimeout, c.Timeout)
		}
		return 0, fmt.Errorf("failed to read spreadsheet: %w", err)
	}
	if len(body) > maxBody {
		return 0, fmt.Errorf("spreadsheet exceeds %d bytes", maxBody)
	}

	if err := output.WriteFileAtomic(dest, body, 0644); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

// isHTML reports whether a Content-Type header names an HTML document.
// Workbooks come as a spreadsheet or octet-stream type.
func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}
