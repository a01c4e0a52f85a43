package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/adapnet/pkg/strategy"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrRunNotFound is returned when a store has no run with the given id.
var ErrRunNotFound = errors.New("run not found")

// SQLiteStore persists series into a SQLite database file.
type SQLiteStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Name implements Sink.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Write implements Sink. Writing a run id twice replaces the earlier rows.
func (s *SQLiteStore) Write(ctx context.Context, series *Series) error {
	row, err := toRunRow(series)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, row.RunID); err != nil {
		return fmt.Errorf("replace run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, seed, started_at, finished_at, params, totals)
		VALUES (?, ?, ?, ?, ?, ?)
	`, row.RunID, row.Seed, row.StartedAt.Format(time.RFC3339Nano), row.FinishedAt.Format(time.RFC3339Nano),
		string(row.Params), string(row.Totals)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	prev, err := tx.PrepareContext(ctx, `INSERT INTO prevalence (run_id, step, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer prev.Close()
	for i, v := range series.Prevalence {
		if _, err := prev.ExecContext(ctx, row.RunID, series.Steps[i], v); err != nil {
			return fmt.Errorf("insert prevalence %d: %w", i, err)
		}
	}

	strat, err := tx.PrepareContext(ctx, `INSERT INTO strategy_prevalence (run_id, generation, strategy, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer strat.Close()
	for k, values := range series.Strategies {
		name := strategy.Strategy(k).String()
		for g, v := range values {
			if _, err := strat.ExecContext(ctx, row.RunID, series.Generations[g], name, v); err != nil {
				return fmt.Errorf("insert strategy prevalence %s/%d: %w", name, g, err)
			}
		}
	}

	return tx.Commit()
}

// Load reads a stored run back into a Series.
func (s *SQLiteStore) Load(ctx context.Context, runID string) (*Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		row               runRow
		started, finished string
		params, totals    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, seed, started_at, finished_at, params, totals FROM runs WHERE run_id = ?`, runID,
	).Scan(&row.RunID, &row.Seed, &started, &finished, &params, &totals)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	if row.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, err
	}
	if row.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, err
	}
	row.Params, row.Totals = []byte(params), []byte(totals)

	series, err := seriesFromRow(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT step, value FROM prevalence WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var step int
		var v float64
		if err := rows.Scan(&step, &v); err != nil {
			rows.Close()
			return nil, err
		}
		if step < 0 || step >= len(series.Prevalence) {
			rows.Close()
			return nil, fmt.Errorf("step %d out of range: %w", step, ErrShape)
		}
		series.Prevalence[step] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT generation, strategy, value FROM strategy_prevalence WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var g int
		var name string
		var v float64
		if err := rows.Scan(&g, &name, &v); err != nil {
			return nil, err
		}
		if err := series.setValue(name, g, v); err != nil {
			return nil, err
		}
	}
	return series, rows.Err()
}

// RunIDs lists stored runs, most recent first.
func (s *SQLiteStore) RunIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
