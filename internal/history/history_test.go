package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "data", "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	first, second := NewRunID(), NewRunID()
	if first == second {
		t.Fatalf("NewRunID() returned the same id twice")
	}

	if err := s.StartRun(first, "parse", "sheet.xlsx", start); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if err := s.FinishRun(first, RunStats{RowsScanned: 40, Shipments: 3, Items: 12, Unresolved: 1, PriceUpdates: 2}, nil, start.Add(time.Second)); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	if err := s.StartRun(second, "prices", "", start.Add(time.Hour)); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if err := s.FinishRun(second, RunStats{}, errors.New("catalog missing"), start.Add(time.Hour)); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}

	newest, oldest := runs[0], runs[1]
	if newest.ID != second || newest.Status != StatusFailed || newest.ErrorMessage != "catalog missing" {
		t.Fatalf("newest run = %+v", newest)
	}
	if oldest.ID != first || oldest.Status != StatusSuccess || oldest.Shipments != 3 || oldest.Items != 12 || oldest.PriceUpdates != 2 {
		t.Fatalf("oldest run = %+v", oldest)
	}
	if !oldest.StartedAt.Equal(start) || oldest.FinishedAt == nil || !oldest.FinishedAt.Equal(start.Add(time.Second)) {
		t.Fatalf("oldest times = %v / %v", oldest.StartedAt, oldest.FinishedAt)
	}

	if limited, _ := s.ListRuns(1); len(limited) != 1 {
		t.Fatalf("ListRuns(1) = %d runs", len(limited))
	}
}

func TestFinishRun_Unknown(t *testing.T) {
	t.Parallel()

	if err := openStore(t).FinishRun("nope", RunStats{}, nil, time.Now()); err == nil {
		t.Fatalf("FinishRun() error = nil for an unknown run")
	}
}

func TestRecordChanges(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	id := NewRunID()
	if err := s.StartRun(id, "prices", "", time.Now()); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	changes := []PriceChange{
		{RunID: id, ProductID: "p1", Field: "price", OldValue: "20", NewValue: "30", ShipmentID: "shipment-9"},
		{RunID: id, ProductID: "p1", Field: "cost", NewValue: "2000", ShipmentID: "shipment-8"},
	}
	if err := s.RecordChanges(changes); err != nil {
		t.Fatalf("RecordChanges() error = %v", err)
	}
	if err := s.RecordChanges(nil); err != nil {
		t.Fatalf("RecordChanges(nil) error = %v", err)
	}

	got, err := s.ChangesForRun(id)
	if err != nil {
		t.Fatalf("ChangesForRun() error = %v", err)
	}
	if len(got) != 2 || got[0] != changes[0] || got[1] != changes[1] {
		t.Fatalf("ChangesForRun() = %+v, want %+v", got, changes)
	}
}

func TestRecordChanges_UnknownRun(t *testing.T) {
	t.Parallel()

	err := openStore(t).RecordChanges([]PriceChange{{RunID: "missing", ProductID: "p1", Field: "price", NewValue: "1"}})
	if err == nil {
		t.Fatalf("RecordChanges() error = nil, want foreign key failure")
	}
}
