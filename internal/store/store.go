// Package store persists solved blueprint runs in SQLite and serves them as
// a cache keyed by cost-table fingerprint, horizon and search settings.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/napolitain/blueprint-solver/internal/models"
	"github.com/napolitain/blueprint-solver/internal/solver/frontier"
)

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one stored search result.
type Run struct {
	ID          string           `json:"id" yaml:"id"`
	Fingerprint string           `json:"fingerprint" yaml:"fingerprint"`
	Horizon     int              `json:"horizon" yaml:"horizon"`
	Settings    string           `json:"settings" yaml:"settings"`
	Yield       int              `json:"yield" yaml:"yield"`
	Plan        []frontier.Build `json:"plan" yaml:"plan"`
	Stats       frontier.Stats   `json:"stats" yaml:"stats"`
	CreatedAt   time.Time        `json:"createdAt" yaml:"createdAt"`
}

// Store provides SQLite-backed persistence for solved runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// SQLite allows one writer; the runner saves from several goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open store: ping: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db)
}

// New returns a Store bound to an existing, migrated database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the most recent run for the key. ok is false when none exists.
func (s *Store) Lookup(ctx context.Context, fingerprint string, horizon int, settings string) (*frontier.Result, string, bool, error) {
	if s == nil || s.db == nil {
		return nil, "", false, fmt.Errorf("lookup: store is nil")
	}

	row := s.db.QueryRowContext(ctx, `SELECT id, fingerprint, horizon, settings, yield, plan, stats, created_at
		FROM runs WHERE fingerprint = ? AND horizon = ? AND settings = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`, fingerprint, horizon, settings)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("lookup: %w", err)
	}

	return &frontier.Result{Yield: run.Yield, Plan: run.Plan, Stats: run.Stats}, run.ID, true, nil
}

// Save records a run and returns its generated id.
func (s *Store) Save(ctx context.Context, fingerprint string, horizon int, settings string, res *frontier.Result) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("save: store is nil")
	}
	if res == nil {
		return "", fmt.Errorf("save: result is nil")
	}

	plan, err := json.Marshal(res.Plan)
	if err != nil {
		return "", fmt.Errorf("save: encode plan: %w", err)
	}
	stats, err := json.Marshal(res.Stats)
	if err != nil {
		return "", fmt.Errorf("save: encode stats: %w", err)
	}

	id := uuid.New().String()
	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs (id, fingerprint, horizon, settings, yield, plan, stats, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, id, fingerprint, horizon, settings, res.Yield, string(plan), string(stats), now)
	if err != nil {
		return "", fmt.Errorf("save: insert: %w", err)
	}
	return id, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("recent: store is nil")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("recent: invalid limit %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, fingerprint, horizon, settings, yield, plan, stats, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent: query: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("recent: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent: rows: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var plan, stats, created string
	err := row.Scan(&run.ID, &run.Fingerprint, &run.Horizon, &run.Settings, &run.Yield, &plan, &stats, &created)
	if err != nil {
		return Run{}, err
	}

	if err := json.Unmarshal([]byte(plan), &run.Plan); err != nil {
		return Run{}, fmt.Errorf("decode plan: %w", err)
	}
	for i := range run.Plan {
		p, ok := models.ParseProducerKind(run.Plan[i].Name)
		if !ok {
			return Run{}, fmt.Errorf("decode plan: unknown producer %q", run.Plan[i].Name)
		}
		run.Plan[i].Producer = p
	}
	if err := json.Unmarshal([]byte(stats), &run.Stats); err != nil {
		return Run{}, fmt.Errorf("decode stats: %w", err)
	}
	run.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return Run{}, fmt.Errorf("decode created_at: %w", err)
	}
	return run, nil
}
