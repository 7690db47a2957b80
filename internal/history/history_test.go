package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenCircuitLab/CircuitLint/pkg/report"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReport(id string, created time.Time) *report.Report {
	return &report.Report{
		ID:           id,
		ProjectType:  "kicad",
		ProjectName:  "demo",
		AnalysisType: "schematic",
		CreatedAt:    created,
		Faults: []report.Fault{
			{Title: "Unconnected pin 2 on R1", Severity: report.SeverityError, Category: "erc"},
		},
		Summary: report.Summary{Total: 1, Errors: 1, ByCategory: map[string]int{"erc": 1}},
	}
}

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rep := sampleReport("r-1", time.Now().UTC().Truncate(time.Second))
	if err := store.Save(ctx, rep); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "r-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ProjectName != "demo" || len(got.Faults) != 1 {
		t.Fatalf("Unexpected report %+v", got)
	}
	if got.Faults[0].Title != "Unconnected pin 2 on R1" {
		t.Fatalf("Unexpected fault %+v", got.Faults[0])
	}
}

func TestListOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"r-old", "r-mid", "r-new"} {
		if err := store.Save(ctx, sampleReport(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "r-new" || entries[1].ID != "r-mid" {
		t.Fatalf("Expected newest first, got %v", entries)
	}
	if entries[0].Errors != 1 {
		t.Fatalf("Expected error tally persisted, got %+v", entries[0])
	}
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleReport("r-1", time.Now().UTC())); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, "r-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "r-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected report gone, got %v", err)
	}
	if err := store.Delete(ctx, "r-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on double delete, got %v", err)
	}
}
