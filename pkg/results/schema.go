package results

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dd0wney/adapnet/pkg/config"
	"github.com/dd0wney/adapnet/pkg/strategy"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	seed        TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	params      TEXT NOT NULL,
	totals      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS prevalence (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	step   INTEGER NOT NULL,
	value  REAL NOT NULL,
	PRIMARY KEY (run_id, step)
);

CREATE TABLE IF NOT EXISTS strategy_prevalence (
	run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	generation INTEGER NOT NULL,
	strategy   TEXT NOT NULL,
	value      REAL NOT NULL,
	PRIMARY KEY (run_id, generation, strategy)
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	seed        NUMERIC(20) NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	params      JSONB NOT NULL,
	totals      JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS prevalence (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	step   INTEGER NOT NULL,
	value  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, step)
);

CREATE TABLE IF NOT EXISTS strategy_prevalence (
	run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	generation INTEGER NOT NULL,
	strategy   TEXT NOT NULL,
	value      DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, generation, strategy)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// runRow is the flattened runs table record shared by both stores.
type runRow struct {
	RunID      string
	Seed       string
	StartedAt  time.Time
	FinishedAt time.Time
	Params     []byte
	Totals     []byte
}

func toRunRow(s *Series) (runRow, error) {
	params, err := json.Marshal(s.Params)
	if err != nil {
		return runRow{}, fmt.Errorf("encode params: %w", err)
	}
	totals, err := json.Marshal(s.Totals)
	if err != nil {
		return runRow{}, fmt.Errorf("encode totals: %w", err)
	}
	return runRow{
		RunID:      s.RunID,
		Seed:       strconv.FormatUint(s.Seed, 10),
		StartedAt:  s.StartedAt.UTC(),
		FinishedAt: s.FinishedAt.UTC(),
		Params:     params,
		Totals:     totals,
	}, nil
}

// seriesFromRow rebuilds the series skeleton; vectors are filled by the
// caller from the child tables.
func seriesFromRow(r runRow) (*Series, error) {
	var params config.Model
	if err := json.Unmarshal(r.Params, &params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	seed, err := strconv.ParseUint(r.Seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	s := NewSeries(r.RunID, seed, params)
	s.StartedAt = r.StartedAt
	s.FinishedAt = r.FinishedAt
	if err := json.Unmarshal(r.Totals, &s.Totals); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}
	return s, nil
}

// setValue stores one loaded strategy_prevalence row.
func (s *Series) setValue(name string, generation int, value float64) error {
	k, err := strategy.Parse(name)
	if err != nil {
		return err
	}
	if generation < 0 || generation >= len(s.Generations) {
		return fmt.Errorf("generation %d out of range: %w", generation, ErrShape)
	}
	s.Strategies[k][generation] = value
	return nil
}
