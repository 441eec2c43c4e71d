package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteRunStore implements RunStore on a SQLite database file.
type SQLiteRunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteRunStore opens (creating if needed) dir/history.db.
func NewSQLiteRunStore(dir string) (*SQLiteRunStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dbPath := DBPath(dir)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteRunStore) Path() string {
	return s.dbPath
}

// SaveRun inserts run and its per-neuron counts in one transaction.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, topology_path, topology_hash, ticks, truncated, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().UnixNano(), run.TopologyPath, run.TopologyHash,
		run.Ticks, boolToInt(run.Truncated), int64(run.Duration)); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for neuron, count := range run.Counts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_counts (run_id, neuron, count) VALUES (?, ?, ?)`,
			run.ID, neuron, count); err != nil {
			return fmt.Errorf("failed to insert count for neuron %d: %w", neuron, err)
		}
	}

	return tx.Commit()
}

// GetRun returns the single run whose ID equals or starts with id.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, topology_path, topology_hash, ticks, truncated, duration_ns
		FROM runs WHERE id = ? OR id LIKE ? || '%'
		ORDER BY id = ? DESC LIMIT 2`, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}

	switch {
	case len(runs) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(runs) > 1 && runs[0].ID != id:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}

	run := runs[0]
	if run.Counts, err = s.counts(ctx, run.ID); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, topology_path, topology_hash, ticks, truncated, duration_ns
		FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}

	for i := range runs {
		if runs[i].Counts, err = s.counts(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLiteRunStore) counts(ctx context.Context, id string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT count FROM run_counts WHERE run_id = ? ORDER BY neuron`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query counts: %w", err)
	}
	defer rows.Close()

	counts := []int{}
	for rows.Next() {
		var c int
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			started   int64
			truncated int
			duration  int64
		)
		if err := rows.Scan(&r.ID, &started, &r.TopologyPath, &r.TopologyHash, &r.Ticks, &truncated, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started).UTC()
		r.Truncated = truncated != 0
		r.Duration = time.Duration(duration)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
