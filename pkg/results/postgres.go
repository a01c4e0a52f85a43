package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/adapnet/pkg/strategy"
)

// PostgresStore persists series into PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, verifies the connection and creates the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 0
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Name implements Sink.
func (p *PostgresStore) Name() string { return "postgres" }

// Write implements Sink. The child tables are bulk loaded with COPY.
func (p *PostgresStore) Write(ctx context.Context, series *Series) error {
	row, err := toRunRow(series)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM runs WHERE run_id = $1`, row.RunID); err != nil {
		return fmt.Errorf("replace run: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO runs (run_id, seed, started_at, finished_at, params, totals)
		VALUES ($1, $2::numeric, $3, $4, $5, $6)
	`, row.RunID, row.Seed, row.StartedAt, row.FinishedAt, row.Params, row.Totals); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	prevRows := make([][]any, len(series.Prevalence))
	for i, v := range series.Prevalence {
		prevRows[i] = []any{row.RunID, int32(series.Steps[i]), v}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"prevalence"},
		[]string{"run_id", "step", "value"}, pgx.CopyFromRows(prevRows)); err != nil {
		return fmt.Errorf("copy prevalence: %w", err)
	}

	stratRows := make([][]any, 0, strategy.Count*len(series.Generations))
	for k, values := range series.Strategies {
		name := strategy.Strategy(k).String()
		for g, v := range values {
			stratRows = append(stratRows, []any{row.RunID, int32(series.Generations[g]), name, v})
		}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"strategy_prevalence"},
		[]string{"run_id", "generation", "strategy", "value"}, pgx.CopyFromRows(stratRows)); err != nil {
		return fmt.Errorf("copy strategy prevalence: %w", err)
	}

	return tx.Commit(ctx)
}

// Load reads a stored run back into a Series.
func (p *PostgresStore) Load(ctx context.Context, runID string) (*Series, error) {
	var row runRow
	err := p.pool.QueryRow(ctx,
		`SELECT run_id, seed::text, started_at, finished_at, params, totals FROM runs WHERE run_id = $1`, runID,
	).Scan(&row.RunID, &row.Seed, &row.StartedAt, &row.FinishedAt, &row.Params, &row.Totals)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}

	series, err := seriesFromRow(row)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, `SELECT step, value FROM prevalence WHERE run_id = $1`, runID)
	if err != nil {
		return nil, err
	}
	var step int32
	var value float64
	_, err = pgx.ForEachRow(rows, []any{&step, &value}, func() error {
		if int(step) >= len(series.Prevalence) || step < 0 {
			return fmt.Errorf("step %d out of range: %w", step, ErrShape)
		}
		series.Prevalence[step] = value
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows, err = p.pool.Query(ctx, `SELECT generation, strategy, value FROM strategy_prevalence WHERE run_id = $1`, runID)
	if err != nil {
		return nil, err
	}
	var gen int32
	var name string
	_, err = pgx.ForEachRow(rows, []any{&gen, &name, &value}, func() error {
		return series.setValue(name, int(gen), value)
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

// Ping checks database connectivity
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the connection pool
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
