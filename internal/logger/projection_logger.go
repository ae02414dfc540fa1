package logger

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-lab/internal/models"
)

// ProjectionLogger provides dedicated logging for rating and projection events.
type ProjectionLogger struct {
	*logrus.Entry
}

// NewProjectionLogger creates a new projection logger.
func NewProjectionLogger(baseLogger *logrus.Logger) *ProjectionLogger {
	return &ProjectionLogger{
		Entry: baseLogger.WithField("component", "projection"),
	}
}

// LogRatingTableBuilt logs the outcome of rating ingestion.
func (pl *ProjectionLogger) LogRatingTableBuilt(rowsIn, teamsRated int, leagueMeanTempo float64) {
	pl.WithFields(logrus.Fields{
		"rows_in":           rowsIn,
		"teams_rated":       teamsRated,
		"league_mean_tempo": leagueMeanTempo,
	}).Info("Rating table built")
}

// LogGameProjected logs a single completed projection.
func (pl *ProjectionLogger) LogGameProjected(p models.GameProjection, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"game_id":         p.Game.ID,
		"matchup":         p.Game.String(),
		"spread":          p.Game.Spread,
		"total":           p.Game.Total,
		"home_win_pct":    p.Result.HomeWinPct,
		"home_cover_pct":  p.Result.HomeCoverPct,
		"over_pct":        p.Result.OverPct,
		"projected_total": p.Result.ProjectedTotal,
		"trials":          p.Result.Trials,
		"duration_ms":     float64(duration.Microseconds()) / 1000,
	}).Debug("Game projected")
}

// LogMissingRatings logs a game skipped for lack of ratings.
func (pl *ProjectionLogger) LogMissingRatings(game models.Game, homeRated, visitorRated bool) {
	pl.WithFields(logrus.Fields{
		"game_id":       game.ID,
		"matchup":       game.String(),
		"home_rated":    homeRated,
		"visitor_rated": visitorRated,
	}).Warn("Missing team ratings, game not simulated")
}

// LogEdgeFound logs a classified recommendation.
func (pl *ProjectionLogger) LogEdgeFound(p models.GameProjection) {
	c := p.Classification
	pl.WithFields(logrus.Fields{
		"game_id":          p.Game.ID,
		"matchup":          p.Game.String(),
		"recommended_side": c.RecommendedSide,
		"recommended_team": c.RecommendedTeam(p.Game),
		"confidence_tier":  c.ConfidenceTier,
		"star_rating":      c.StarRating,
		"edge_pct":         c.EdgePct,
		"total_play":       c.TotalPlay,
	}).Info("Edge found")
}

// LogBatchCompleted logs the summary of a projection run.
func (pl *ProjectionLogger) LogBatchCompleted(run *models.ProjectionRun) {
	pl.WithFields(logrus.Fields{
		"run_id":       run.ID.String(),
		"games":        len(run.Projections),
		"edges":        len(run.Edges()),
		"missing_data": run.MissingData(),
		"teams_rated":  run.TeamsRated,
		"trials":       run.Trials,
		"use_tempo":    run.UseTempo,
		"duration_ms":  run.CompletedAt.Sub(run.StartedAt).Milliseconds(),
	}).Info("Projection batch completed")
}
