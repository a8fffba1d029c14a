package history

import (
	"database/sql"
	"fmt"
	"time"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Run is one invocation of a pipeline command.
type Run struct {
	ID         string
	Command    string
	Source     string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time

	RowsScanned  int
	Shipments    int
	Items        int
	Unresolved   int
	PriceUpdates int
	CostUpdates  int

	ErrorMessage string
}

// RunStats are the totals recorded when a run finishes.
type RunStats struct {
	RowsScanned  int
	Shipments    int
	Items        int
	Unresolved   int
	PriceUpdates int
	CostUpdates  int
}

// PriceChange is one catalog value replaced by a run. Values are decimal
// strings; OldValue is empty when the product had no value before.
type PriceChange struct {
	RunID      string
	ProductID  string
	Field      string
	OldValue   string
	NewValue   string
	ShipmentID string
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// StartRun records the start of a run.
func (s *Store) StartRun(id, command, source string, startedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, command, source, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, command, source, StatusRunning, startedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun stores the totals and final status of a run. A non-nil runErr
// marks the run failed.
func (s *Store) FinishRun(id string, stats RunStats, runErr error, finishedAt time.Time) error {
	status, message := StatusSuccess, ""
	if runErr != nil {
		status, message = StatusFailed, runErr.Error()
	}

	res, err := s.db.Exec(`
		UPDATE runs SET
			status = ?,
			finished_at = ?,
			rows_scanned = ?,
			shipments = ?,
			items = ?,
			unresolved = ?,
			price_updates = ?,
			cost_updates = ?,
			error_message = ?
		WHERE id = ?
	`, status, finishedAt.UTC().Format(timeLayout),
		stats.RowsScanned, stats.Shipments, stats.Items, stats.Unresolved,
		stats.PriceUpdates, stats.CostUpdates, message, id)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// RecordChanges stores the catalog changes of a run in one transaction.
func (s *Store) RecordChanges(changes []PriceChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO price_changes (run_id, product_id, field, old_value, new_value, shipment_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range changes {
		var old any
		if c.OldValue != "" {
			old = c.OldValue
		}
		if _, err := stmt.Exec(c.RunID, c.ProductID, c.Field, old, c.NewValue, c.ShipmentID); err != nil {
			return fmt.Errorf("failed to insert change for %s: %w", c.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit changes: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, command, source, status, started_at, finished_at,
		       rows_scanned, shipments, items, unresolved,
		       price_updates, cost_updates, error_message
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Command, &r.Source, &r.Status, &startedAt, &finishedAt,
			&r.RowsScanned, &r.Shipments, &r.Items, &r.Unresolved,
			&r.PriceUpdates, &r.CostUpdates, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("run %s: bad started_at: %w", r.ID, err)
		}
		if finishedAt.Valid {
			t, err := time.Parse(timeLayout, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("run %s: bad finished_at: %w", r.ID, err)
			}
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ChangesForRun returns the catalog changes recorded by a run.
func (s *Store) ChangesForRun(runID string) ([]PriceChange, error) {
	rows, err := s.db.Query(`
		SELECT run_id, product_id, field, COALESCE(old_value, ''), new_value, shipment_id
		FROM price_changes
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query price changes: %w", err)
	}
	defer rows.Close()

	var changes []PriceChange
	for rows.Next() {
		var c PriceChange
		if err := rows.Scan(&c.RunID, &c.ProductID, &c.Field, &c.OldValue, &c.NewValue, &c.ShipmentID); err != nil {
			return nil, fmt.Errorf("failed to scan price change: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
