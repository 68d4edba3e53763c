// Package history persists a record of past mosaic generations.
//
// Records live in a single-file SQLite database so serve and watch modes
// can report prior runs across restarts. The store is safe for use from
// multiple goroutines.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/logging"
	"github.com/framegrid/framegrid/internal/pipeline"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Generation status values recorded in the store.
const (
	StatusCompleted = "completed"
	StatusDegraded  = "degraded"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Record is one generation run as stored in the history database.
type Record struct {
	ID           string
	InputPath    string
	OutputPath   string
	LayoutMode   string
	FrameCount   int
	Placeholders int
	CanvasWidth  int
	CanvasHeight int
	OutputSize   uint64
	Elapsed      time.Duration
	Status       string
	Error        string
	CreatedAt    time.Time
}

// Store provides access to the generation history database.
type Store struct {
	conn *sql.DB
}

// Open opens the history database at dbPath, creating the file and any
// missing parent directories, and applies pending migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &Store{conn: conn}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying database connection.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}

		name := m.Name()

		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}

		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}

		logging.Debug("applied history migration", "name", name)
	}

	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Add inserts a generation record and returns its ID. A missing ID is
// filled in with a fresh UUID.
func (s *Store) Add(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO generations
		   (id, input_path, output_path, layout_mode, frame_count, placeholders,
		    canvas_width, canvas_height, output_size, elapsed_ms, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.InputPath, rec.OutputPath, rec.LayoutMode, rec.FrameCount, rec.Placeholders,
		rec.CanvasWidth, rec.CanvasHeight, int64(rec.OutputSize), rec.Elapsed.Milliseconds(), rec.Status, rec.Error)
	if err != nil {
		return "", fmt.Errorf("failed to insert generation record: %w", err)
	}

	return rec.ID, nil
}

// Recent returns the most recent generation records, newest first.
// A limit of zero or less defaults to 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	// rowid breaks ties between records inserted within the same second.
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, input_path, output_path, layout_mode, frame_count, placeholders,
		        canvas_width, canvas_height, output_size, elapsed_ms, status, error, created_at
		   FROM generations
		  ORDER BY created_at DESC, rowid DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var outputSize, elapsedMS int64
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.InputPath, &rec.OutputPath, &rec.LayoutMode,
			&rec.FrameCount, &rec.Placeholders, &rec.CanvasWidth, &rec.CanvasHeight,
			&outputSize, &elapsedMS, &rec.Status, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation record: %w", err)
		}
		rec.OutputSize = uint64(outputSize)
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			rec.CreatedAt = t
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// RecordFor builds a Record from a finished generation run. Placeholder
// frames downgrade a success to degraded; a cancellation error is
// recorded as cancelled rather than failed.
func RecordFor(inputPath, layoutMode string, result *pipeline.Result, genErr error) Record {
	rec := Record{
		InputPath:  inputPath,
		LayoutMode: layoutMode,
		Status:     StatusCompleted,
	}

	if result != nil {
		rec.OutputPath = result.OutputPath
		rec.FrameCount = result.FrameCount
		rec.Placeholders = result.Placeholders
		rec.CanvasWidth = result.CanvasWidth
		rec.CanvasHeight = result.CanvasHeight
		rec.OutputSize = result.OutputSize
		rec.Elapsed = result.Elapsed
		if result.Placeholders > 0 {
			rec.Status = StatusDegraded
		}
	}

	switch {
	case genErr != nil && errors.IsCancelled(genErr):
		rec.Status = StatusCancelled
		rec.Error = genErr.Error()
	case genErr != nil:
		rec.Status = StatusFailed
		rec.Error = genErr.Error()
	case result == nil:
		rec.Status = StatusCancelled
	}

	return rec
}
