package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/edge-lab/internal/database"
	"github.com/yourusername/edge-lab/internal/models"
)

// PostgresProjectionRepository implements ProjectionRepository for PostgreSQL
type PostgresProjectionRepository struct {
	db *database.DB
}

// NewPostgresProjectionRepository creates a new projection repository
func NewPostgresProjectionRepository(db *database.DB) (*PostgresProjectionRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &PostgresProjectionRepository{db: db}, nil
}

const insertRunQuery = `
	INSERT INTO projection_runs (id, started_at, completed_at, use_tempo, trials, seed, teams_rated)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const insertProjectionQuery = `
	INSERT INTO game_projections (
		run_id, position, game_id, home_team, visitor_team, spread, total,
		has_data, trials, home_win_pct, home_cover_pct, visitor_cover_pct, over_pct, under_pct,
		projected_home, projected_visitor, projected_total,
		recommended_side, confidence_tier, star_rating, edge_pct, total_play,
		home_off_rank, home_def_rank, visitor_off_rank, visitor_def_rank
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7,
		$8, $9, $10, $11, $12, $13, $14,
		$15, $16, $17,
		$18, $19, $20, $21, $22,
		$23, $24, $25, $26
	)
`

// SaveRun inserts a run and all of its projections in one transaction
func (r *PostgresProjectionRepository) SaveRun(ctx context.Context, run *models.ProjectionRun) error {
	if run == nil || run.ID == uuid.Nil {
		return fmt.Errorf("projection run id is required")
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertRunQuery,
			run.ID, run.StartedAt, run.CompletedAt, run.UseTempo, run.Trials, run.Seed, run.TeamsRated,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return models.ErrDuplicateKey
			}
			return fmt.Errorf("failed to insert projection run: %w", err)
		}

		batch := &pgx.Batch{}
		for i, p := range run.Projections {
			batch.Queue(insertProjectionQuery, projectionArgs(run.ID, i, p)...)
		}
		br := tx.SendBatch(ctx, batch)
		for range run.Projections {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert game projection: %w", err)
			}
		}
		return br.Close()
	})
}

// GetRun retrieves a run and its projections in game order
func (r *PostgresProjectionRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.ProjectionRun, error) {
	query := `
		SELECT id, started_at, completed_at, use_tempo, trials, seed, teams_rated
		FROM projection_runs WHERE id = $1
	`

	run := &models.ProjectionRun{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&run.ID, &run.StartedAt, &run.CompletedAt, &run.UseTempo, &run.Trials, &run.Seed, &run.TeamsRated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get projection run: %w", err)
	}

	projections, err := r.getProjections(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Projections = projections
	return run, nil
}

func (r *PostgresProjectionRepository) getProjections(ctx context.Context, runID uuid.UUID) ([]models.GameProjection, error) {
	query := `
		SELECT game_id, home_team, visitor_team, spread, total,
			has_data, trials, home_win_pct, home_cover_pct, visitor_cover_pct, over_pct, under_pct,
			projected_home, projected_visitor, projected_total,
			recommended_side, confidence_tier, star_rating, edge_pct, total_play,
			home_off_rank, home_def_rank, visitor_off_rank, visitor_def_rank
		FROM game_projections
		WHERE run_id = $1
		ORDER BY position
	`

	rows, err := r.db.GetPool().Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query game projections: %w", err)
	}
	defer rows.Close()

	var projections []models.GameProjection
	for rows.Next() {
		var (
			p                      models.GameProjection
			side, tier, totalPlay  string
			homeOff, homeDef       *int
			visitorOff, visitorDef *int
		)
		err := rows.Scan(
			&p.Game.ID, &p.Game.HomeTeam, &p.Game.AwayTeam, &p.Game.Spread, &p.Game.Total,
			&p.Result.HasData, &p.Result.Trials, &p.Result.HomeWinPct, &p.Result.HomeCoverPct,
			&p.Result.VisitorCoverPct, &p.Result.OverPct, &p.Result.UnderPct,
			&p.Result.ProjectedHomeScore, &p.Result.ProjectedVisitorScore, &p.Result.ProjectedTotal,
			&side, &tier, &p.Classification.StarRating, &p.Classification.EdgePct, &totalPlay,
			&homeOff, &homeDef, &visitorOff, &visitorDef,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game projection: %w", err)
		}
		p.Classification.RecommendedSide = models.Side(side)
		p.Classification.ConfidenceTier = models.ConfidenceTier(tier)
		p.Classification.TotalPlay = models.TotalPlay(totalPlay)
		p.HomeRank = rankFrom(homeOff, homeDef)
		p.VisitorRank = rankFrom(visitorOff, visitorDef)
		projections = append(projections, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate game projections: %w", err)
	}
	return projections, nil
}

// ListRecent returns the newest run headers
func (r *PostgresProjectionRepository) ListRecent(ctx context.Context, limit int) ([]*models.ProjectionRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, started_at, completed_at, use_tempo, trials, seed, teams_rated
		FROM projection_runs
		ORDER BY completed_at DESC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list projection runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ProjectionRun
	for rows.Next() {
		run := &models.ProjectionRun{}
		if err := rows.Scan(
			&run.ID, &run.StartedAt, &run.CompletedAt, &run.UseTempo, &run.Trials, &run.Seed, &run.TeamsRated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan projection run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projection runs: %w", err)
	}
	return runs, nil
}

// Delete removes a run; its projections cascade
func (r *PostgresProjectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM projection_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete projection run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func projectionArgs(runID uuid.UUID, position int, p models.GameProjection) []any {
	homeOff, homeDef := rankValues(p.HomeRank)
	visitorOff, visitorDef := rankValues(p.VisitorRank)
	r := p.Result
	c := p.Classification
	return []any{
		runID, position, p.Game.ID, p.Game.HomeTeam, p.Game.AwayTeam, p.Game.Spread, p.Game.Total,
		r.HasData, r.Trials, r.HomeWinPct, r.HomeCoverPct, r.VisitorCoverPct, r.OverPct, r.UnderPct,
		r.ProjectedHomeScore, r.ProjectedVisitorScore, r.ProjectedTotal,
		string(c.RecommendedSide), string(c.ConfidenceTier), c.StarRating, c.EdgePct, string(c.TotalPlay),
		homeOff, homeDef, visitorOff, visitorDef,
	}
}

func rankValues(rank *models.TeamRank) (*int, *int) {
	if rank == nil {
		return nil, nil
	}
	off, def := rank.OffensiveRank, rank.DefensiveRank
	return &off, &def
}

func rankFrom(off, def *int) *models.TeamRank {
	if off == nil || def == nil {
		return nil
	}
	return &models.TeamRank{OffensiveRank: *off, DefensiveRank: *def}
}
