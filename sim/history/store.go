// Package history persists per-generation fitness summaries of a run.
// Mutation-level history is out of scope; only aggregates are kept.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run identifies one simulation run.
type Run struct {
	ID        string
	Seed      int64
	Scenario  string
	StartedAt time.Time
}

// GenerationRecord is the fitness summary of one subpopulation after the
// fitness pass of one generation.
type GenerationRecord struct {
	RunID      string
	Generation int64
	SubpopID   int
	Variant    string
	Size       int
	Total      float64
	Mean       float64
	StdDev     float64
	Min        float64
	Max        float64
}

// Store defines persistence operations for run history.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	// SaveGeneration upserts on (run, generation, subpopulation).
	SaveGeneration(ctx context.Context, record GenerationRecord) error
	// ListGenerations returns the records of a run ordered by generation
	// then subpopulation.
	ListGenerations(ctx context.Context, runID string) ([]GenerationRecord, error)
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// NewStore creates a store backend by name.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", kind)
	}
}

// CloseIfSupported closes stores that hold resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
