package history

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, scenario, started_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			seed = excluded.seed,
			scenario = excluded.scenario,
			started_at = excluded.started_at
	`, run.ID, run.Seed, run.Scenario, run.StartedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	run := Run{ID: id}
	var started string
	err = db.QueryRowContext(ctx, `SELECT seed, scenario, started_at FROM runs WHERE id = ?`, id).
		Scan(&run.Seed, &run.Scenario, &started)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

func (s *SQLiteStore) SaveGeneration(ctx context.Context, r GenerationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, subpop_id, variant, size, total, mean, stddev, min, max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation, subpop_id) DO UPDATE SET
			variant = excluded.variant,
			size = excluded.size,
			total = excluded.total,
			mean = excluded.mean,
			stddev = excluded.stddev,
			min = excluded.min,
			max = excluded.max
	`, r.RunID, r.Generation, r.SubpopID, r.Variant, r.Size, r.Total, r.Mean, r.StdDev, r.Min, r.Max)
	return err
}

func (s *SQLiteStore) ListGenerations(ctx context.Context, runID string) ([]GenerationRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, subpop_id, variant, size, total, mean, stddev, min, max
		FROM generations
		WHERE run_id = ?
		ORDER BY generation, subpop_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenerationRecord
	for rows.Next() {
		r := GenerationRecord{RunID: runID}
		if err := rows.Scan(&r.Generation, &r.SubpopID, &r.Variant, &r.Size, &r.Total, &r.Mean, &r.StdDev, &r.Min, &r.Max); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			scenario TEXT NOT NULL,
			started_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			subpop_id INTEGER NOT NULL,
			variant TEXT NOT NULL,
			size INTEGER NOT NULL,
			total REAL NOT NULL,
			mean REAL NOT NULL,
			stddev REAL NOT NULL,
			min REAL NOT NULL,
			max REAL NOT NULL,
			PRIMARY KEY (run_id, generation, subpop_id)
		);
	`)
	return err
}
