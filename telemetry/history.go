package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// RunInfo describes one recorded run.
type RunInfo struct {
	ID         string
	StartedAt  time.Time
	Games      int
	Birds      int
	SeedPolicy string
}

// HistoryStore keeps per-generation summaries of runs in SQLite.
// Networks are never stored.
type HistoryStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewHistoryStore creates a store backed by the database file at path.
func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path}
}

// Init opens the database and creates missing tables.
func (s *HistoryStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("history path is required")
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

// StartRun records a new run.
func (s *HistoryStore) StartRun(ctx context.Context, run RunInfo) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, games, birds, seed_policy)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Games, run.Birds, run.SeedPolicy)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// SaveGeneration stores a generation record, replacing any earlier record
// for the same run and generation.
func (s *HistoryStore) SaveGeneration(ctx context.Context, r GenerationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (
			run_id, generation, end_tick, round_ticks, birds,
			fitness_mean, fitness_std, fitness_median,
			fittest_id, fittest, top_fitness
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			end_tick = excluded.end_tick,
			round_ticks = excluded.round_ticks,
			birds = excluded.birds,
			fitness_mean = excluded.fitness_mean,
			fitness_std = excluded.fitness_std,
			fitness_median = excluded.fitness_median,
			fittest_id = excluded.fittest_id,
			fittest = excluded.fittest,
			top_fitness = excluded.top_fitness
	`, r.RunID, r.Generation, r.EndTick, r.RoundTicks, r.Birds,
		r.FitnessMean, r.FitnessStd, r.FitnessMedian,
		int64(r.FittestID), r.Fittest, r.TopFitness)
	if err != nil {
		return fmt.Errorf("saving generation %d: %w", r.Generation, err)
	}
	return nil
}

// generations returns a run's records in generation order.
func (s *HistoryStore) generations(ctx context.Context, runID string) ([]GenerationRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, end_tick, round_ticks, birds,
			fitness_mean, fitness_std, fitness_median,
			fittest_id, fittest, top_fitness
		FROM generations
		WHERE run_id = ?
		ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		r := GenerationRecord{RunID: runID}
		var fittestID int64
		if err := rows.Scan(&r.Generation, &r.EndTick, &r.RoundTicks, &r.Birds,
			&r.FitnessMean, &r.FitnessStd, &r.FitnessMedian,
			&fittestID, &r.Fittest, &r.TopFitness); err != nil {
			return nil, err
		}
		r.FittestID = uint64(fittestID)
		records = append(records, r)
	}
	return records, rows.Err()
}

// RunBest is the fittest bird of any generation stored in the history.
type RunBest struct {
	RunID      string
	Generation int
	Fitness    int
}

// BestFitness returns the fittest generation across every run in the
// store, earliest saved first on ties. ok is false when nothing is stored yet.
func (s *HistoryStore) BestFitness(ctx context.Context) (best RunBest, ok bool, err error) {
	db, err := s.getDB()
	if err != nil {
		return best, false, err
	}

	err = db.QueryRowContext(ctx, `
		SELECT run_id, generation, fittest
		FROM generations
		ORDER BY fittest DESC, rowid
		LIMIT 1
	`).Scan(&best.RunID, &best.Generation, &best.Fitness)
	if errors.Is(err, sql.ErrNoRows) {
		return RunBest{}, false, nil
	}
	if err != nil {
		return RunBest{}, false, err
	}
	return best, true, nil
}

// Close closes the database.
func (s *HistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *HistoryStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("history store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			games INTEGER NOT NULL,
			birds INTEGER NOT NULL,
			seed_policy TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL REFERENCES runs(id),
			generation INTEGER NOT NULL,
			end_tick INTEGER NOT NULL,
			round_ticks INTEGER NOT NULL,
			birds INTEGER NOT NULL,
			fitness_mean REAL NOT NULL,
			fitness_std REAL NOT NULL,
			fitness_median REAL NOT NULL,
			fittest_id INTEGER NOT NULL,
			fittest INTEGER NOT NULL,
			top_fitness INTEGER NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
