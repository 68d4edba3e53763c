package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenCreatesTables(t *testing.T) {
	store := openTestStore(t)

	for _, table := range []string{"generations", "_migrations"} {
		var name string
		err := store.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenWALEnabled(t *testing.T) {
	store := openTestStore(t)

	var journalMode string
	if err := store.Conn().QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode error = %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}
}

func TestOpenMigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	s1, err := Open(dbPath)
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}
	s1.Close()

	s2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer s2.Close()

	var count int
	if err := s2.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations error = %v", err)
	}
	if count != 1 {
		t.Errorf("migration count = %d, want 1", count)
	}
}

func TestAddAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	inputs := []string{"/videos/a.mkv", "/videos/b.mkv", "/videos/c.mkv"}
	for _, in := range inputs {
		id, err := store.Add(ctx, Record{
			InputPath:  in,
			OutputPath: in + ".png",
			LayoutMode: "classic",
			FrameCount: 20,
			OutputSize: 1 << 20,
			Elapsed:    1500 * time.Millisecond,
			Status:     StatusCompleted,
		})
		if err != nil {
			t.Fatalf("Add(%s) error = %v", in, err)
		}
		if id == "" {
			t.Fatalf("Add(%s) returned empty id", in)
		}
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Recent() returned %d records, want 3", len(records))
	}

	// Newest first.
	want := []string{"/videos/c.mkv", "/videos/b.mkv", "/videos/a.mkv"}
	for i, rec := range records {
		if rec.InputPath != want[i] {
			t.Errorf("records[%d].InputPath = %s, want %s", i, rec.InputPath, want[i])
		}
	}

	if records[0].Elapsed != 1500*time.Millisecond {
		t.Errorf("Elapsed = %v, want 1.5s", records[0].Elapsed)
	}
	if records[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.Add(ctx, Record{
			InputPath: fmt.Sprintf("/videos/v%d.mkv", i),
			Status:    StatusCompleted,
		}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Recent(2) returned %d records, want 2", len(records))
	}
}

func TestRecordFor(t *testing.T) {
	okResult := &pipeline.Result{
		OutputPath:   "/out/movie.png",
		FrameCount:   24,
		CanvasWidth:  1200,
		CanvasHeight: 980,
		OutputSize:   2 << 20,
		Elapsed:      3 * time.Second,
	}
	degraded := *okResult
	degraded.Placeholders = 4

	tests := []struct {
		name       string
		result     *pipeline.Result
		err        error
		wantStatus string
	}{
		{"success", okResult, nil, StatusCompleted},
		{"placeholders", &degraded, nil, StatusDegraded},
		{"failure", nil, errors.NewVideoInfoError("no streams"), StatusFailed},
		{"cancelled", nil, errors.NewCancelledError(), StatusCancelled},
		{"no result no error", nil, nil, StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := RecordFor("/videos/movie.mkv", "classic", tt.result, tt.err)
			if rec.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", rec.Status, tt.wantStatus)
			}
			if rec.InputPath != "/videos/movie.mkv" {
				t.Errorf("InputPath = %s, want /videos/movie.mkv", rec.InputPath)
			}
			if tt.err != nil && rec.Error == "" {
				t.Error("Error not recorded")
			}
		})
	}

	rec := RecordFor("/videos/movie.mkv", "classic", okResult, nil)
	if rec.OutputPath != "/out/movie.png" || rec.FrameCount != 24 || rec.OutputSize != 2<<20 {
		t.Errorf("result fields not copied: %+v", rec)
	}
}
