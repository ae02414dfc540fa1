package database

import (
	"context"
	"fmt"

	"github.com/yourusername/edge-lab/internal/config"
)

// schemaStatements create the projection tables when missing
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projection_runs (
		id           UUID PRIMARY KEY,
		started_at   TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL,
		use_tempo    BOOLEAN NOT NULL,
		trials       INTEGER NOT NULL,
		seed         BIGINT NOT NULL,
		teams_rated  INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS game_projections (
		run_id            UUID NOT NULL REFERENCES projection_runs(id) ON DELETE CASCADE,
		position          INTEGER NOT NULL,
		game_id           TEXT NOT NULL,
		home_team         TEXT NOT NULL,
		visitor_team      TEXT NOT NULL,
		spread            DOUBLE PRECISION NOT NULL,
		total             DOUBLE PRECISION NOT NULL,
		has_data          BOOLEAN NOT NULL,
		trials            INTEGER NOT NULL,
		home_win_pct      DOUBLE PRECISION NOT NULL,
		home_cover_pct    DOUBLE PRECISION NOT NULL,
		visitor_cover_pct DOUBLE PRECISION NOT NULL,
		over_pct          DOUBLE PRECISION NOT NULL,
		under_pct         DOUBLE PRECISION NOT NULL,
		projected_home    DOUBLE PRECISION NOT NULL,
		projected_visitor DOUBLE PRECISION NOT NULL,
		projected_total   DOUBLE PRECISION NOT NULL,
		recommended_side  TEXT NOT NULL,
		confidence_tier   TEXT NOT NULL,
		star_rating       INTEGER NOT NULL,
		edge_pct          DOUBLE PRECISION NOT NULL,
		total_play        TEXT NOT NULL,
		home_off_rank     INTEGER,
		home_def_rank     INTEGER,
		visitor_off_rank  INTEGER,
		visitor_def_rank  INTEGER,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projection_runs_completed_at ON projection_runs (completed_at DESC)`,
}

// Initialize creates a connection pool and ensures the projection schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema applies the idempotent schema statements
func EnsureSchema(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
