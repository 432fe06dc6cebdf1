// Package store persists pipeline runs and their area tables in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver registration

	"github.com/aaronalt/gcc-lulc/internal/area"
)

var ErrRunNotFound = errors.New("run not found")

// Run statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID         string    `json:"id"`
	AOI        string    `json:"aoi"`
	Sensor     string    `json:"sensor"`
	Collection string    `json:"collection"`
	Start      string    `json:"start"`
	End        string    `json:"end"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	SceneCount int       `json:"scene_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at dataSourceName, creating the
// parent directory and schema as needed.
func Open(dataSourceName string) (*Store, error) {
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	// Writers back off instead of failing on a locked database.
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000"
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS runs (
        id TEXT PRIMARY KEY,
        aoi TEXT NOT NULL,
        sensor TEXT NOT NULL,
        collection TEXT NOT NULL,
        start_date TEXT NOT NULL,
        end_date TEXT NOT NULL,
        status TEXT NOT NULL,
        error TEXT NOT NULL DEFAULT '',
        scene_count INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

    CREATE TABLE IF NOT EXISTS run_areas (
        run_id TEXT NOT NULL,
        class INTEGER NOT NULL,
        name TEXT NOT NULL,
        pixels INTEGER NOT NULL,
        hectares REAL NOT NULL,
        percent REAL NOT NULL,
        PRIMARY KEY (run_id, class)
    );
    `
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// CreateRun records a new pending run and returns it with a fresh ID.
func (s *Store) CreateRun(ctx context.Context, run Run) (Run, error) {
	run.ID = uuid.NewString()
	run.Status = StatusPending
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO runs (id, aoi, sensor, collection, start_date, end_date,
            status, error, scene_count, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.AOI, run.Sensor, run.Collection, run.Start, run.End,
		run.Status, run.Error, run.SceneCount, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("error inserting run: %w", err)
	}
	return run, nil
}

// UpdateRun sets a run's status, error text and scene count.
func (s *Store) UpdateRun(ctx context.Context, id, status, errText string, sceneCount int) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE runs SET status = ?, error = ?, scene_count = ?, updated_at = ?
        WHERE id = ?`,
		status, errText, sceneCount, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("error updating run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun fetches one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, aoi, sensor, collection, start_date, end_date,
            status, error, scene_count, created_at, updated_at
        FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, aoi, sensor, collection, start_date, end_date,
            status, error, scene_count, created_at, updated_at
        FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.AOI, &run.Sensor, &run.Collection,
		&run.Start, &run.End, &run.Status, &run.Error, &run.SceneCount,
		&run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("error scanning run: %w", err)
	}
	return run, nil
}

// SaveAreas replaces the area table recorded for a run.
func (s *Store) SaveAreas(ctx context.Context, runID string, areas []area.ClassArea) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_areas WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("error clearing areas: %w", err)
	}
	for _, a := range areas {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO run_areas (run_id, class, name, pixels, hectares, percent)
            VALUES (?, ?, ?, ?, ?, ?)`,
			runID, a.Class, a.Name, a.Pixels, a.Hectares, a.Percent)
		if err != nil {
			return fmt.Errorf("error inserting area: %w", err)
		}
	}
	return tx.Commit()
}

// GetAreas returns the area table for a run, ordered by class value.
func (s *Store) GetAreas(ctx context.Context, runID string) ([]area.ClassArea, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT class, name, pixels, hectares, percent
        FROM run_areas WHERE run_id = ? ORDER BY class`, runID)
	if err != nil {
		return nil, fmt.Errorf("error querying areas: %w", err)
	}
	defer rows.Close()

	var areas []area.ClassArea
	for rows.Next() {
		var a area.ClassArea
		if err := rows.Scan(&a.Class, &a.Name, &a.Pixels, &a.Hectares, &a.Percent); err != nil {
			return nil, fmt.Errorf("error scanning area: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}
