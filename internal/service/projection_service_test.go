package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edge-lab/internal/config"
	"github.com/yourusername/edge-lab/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func sampleRows() []models.RawTeamStatRow {
	return []models.RawTeamStatRow{
		{Team: "KC", OffensiveEPA: 0.15, DefensiveEPA: -0.05, Tempo: 32.0},
		{Team: "BUF", OffensiveEPA: 0.05, DefensiveEPA: 0.02, Tempo: 28.0},
		{Team: "DAL", OffensiveEPA: -0.02, DefensiveEPA: 0.04},
		{Team: "NYG", OffensiveEPA: -0.10, DefensiveEPA: 0.08},
	}
}

func sampleGames() []models.Game {
	return []models.Game{
		{ID: "g1", HomeTeam: "KC", AwayTeam: "BUF", Spread: -3, Total: 48},
		{ID: "g2", HomeTeam: "DAL", AwayTeam: "XXX", Spread: -1, Total: 44},
		{ID: "g3", HomeTeam: "NYG", AwayTeam: "DAL", Spread: 2.5, Total: 41},
		{ID: "g4", HomeTeam: "BUF", AwayTeam: "NYG", Spread: -6.5, Total: 45},
	}
}

func seededService(seed int64, workers int) *ProjectionService {
	opts := DefaultOptions()
	opts.Seed = seed
	opts.Workers = workers
	return NewProjectionService(opts, testLogger())
}

func TestRunBatchPreservesOrderAndFlagsMissingData(t *testing.T) {
	svc := seededService(7, 4)

	run, err := svc.RunBatch(context.Background(), sampleRows(), sampleGames())
	require.NoError(t, err)
	require.Len(t, run.Projections, 4)

	for i, game := range sampleGames() {
		assert.Equal(t, game.ID, run.Projections[i].Game.ID)
	}

	missing := run.Projections[1]
	assert.False(t, missing.Result.HasData)
	assert.Equal(t, models.NoEdge(), missing.Classification)
	assert.NotNil(t, missing.HomeRank)
	assert.Nil(t, missing.VisitorRank)
	assert.Equal(t, 1, run.MissingData())

	projected := run.Projections[0]
	assert.True(t, projected.Result.HasData)
	assert.Equal(t, 2000, projected.Result.Trials)
	assert.InDelta(t, 100.0, projected.Result.HomeCoverPct+projected.Result.VisitorCoverPct, 1e-9)
	assert.InDelta(t, 100.0, projected.Result.OverPct+projected.Result.UnderPct, 1e-9)
	require.NotNil(t, projected.HomeRank)
	assert.Equal(t, 1, projected.HomeRank.OffensiveRank)

	assert.Equal(t, 4, run.TeamsRated)
	assert.Equal(t, int64(7), run.Seed)
	assert.Equal(t, 2000, run.Trials)
	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.False(t, run.CompletedAt.Before(run.StartedAt))
}

func TestRunBatchSeededIsReproducibleAcrossWorkerCounts(t *testing.T) {
	serial, err := seededService(42, 1).RunBatch(context.Background(), sampleRows(), sampleGames())
	require.NoError(t, err)
	parallel, err := seededService(42, 8).RunBatch(context.Background(), sampleRows(), sampleGames())
	require.NoError(t, err)

	for i := range serial.Projections {
		assert.Equal(t, serial.Projections[i].Result, parallel.Projections[i].Result)
		assert.Equal(t, serial.Projections[i].Classification, parallel.Projections[i].Classification)
	}
}

func TestRunBatchGamesUseIndependentStreams(t *testing.T) {
	games := []models.Game{
		{ID: "a", HomeTeam: "KC", AwayTeam: "BUF", Spread: -3, Total: 48},
		{ID: "b", HomeTeam: "KC", AwayTeam: "BUF", Spread: -3, Total: 48},
	}

	run, err := seededService(99, 2).RunBatch(context.Background(), sampleRows(), games)
	require.NoError(t, err)
	assert.NotEqual(t, run.Projections[0].Result, run.Projections[1].Result)
}

func TestRunBatchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seededService(1, 2).RunBatch(ctx, sampleRows(), sampleGames())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBatchEmptySlate(t *testing.T) {
	run, err := seededService(1, 2).RunBatch(context.Background(), sampleRows(), nil)
	require.NoError(t, err)
	assert.Empty(t, run.Projections)
	assert.Equal(t, 4, run.TeamsRated)
}

func TestRunBatchUseTempoRecorded(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 5
	opts.UseTempo = true
	svc := NewProjectionService(opts, testLogger())

	run, err := svc.RunBatch(context.Background(), sampleRows(), sampleGames()[:1])
	require.NoError(t, err)
	assert.True(t, run.UseTempo)
	assert.True(t, run.Projections[0].Result.HasData)
}

func TestProjectGameAttachesClassification(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 3
	opts.Params.Trials = 4000
	svc := NewProjectionService(opts, testLogger())
	table := svc.BuildTable(sampleRows())

	// KC is far stronger than NYG; a pick'em line is a clear home edge
	p := svc.ProjectGame(models.Game{ID: "x", HomeTeam: "KC", AwayTeam: "NYG", Spread: 0, Total: 45}, table)
	require.True(t, p.Result.HasData)
	assert.Equal(t, models.SideHome, p.Classification.RecommendedSide)
	assert.Equal(t, models.TierHigh, p.Classification.ConfidenceTier)
	assert.Equal(t, "KC", p.Classification.RecommendedTeam(p.Game))
}

func TestNewProjectionServiceDefaultsWorkers(t *testing.T) {
	svc := NewProjectionService(DefaultOptions(), nil)
	assert.Positive(t, svc.Options().Workers)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Simulation: config.SimulationConfig{
			KFactor:            30,
			BaselineScore:      22,
			HomeFieldAdvantage: 2,
			Trials:             500,
			StdDev:             12,
			UseTempo:           true,
			Seed:               11,
			Workers:            3,
		},
		Classifier: config.ClassifierConfig{
			CoverThreshold:  52,
			LowThreshold:    54,
			MediumThreshold: 56,
			HighThreshold:   58,
			TotalThreshold:  56,
		},
	}

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 500, opts.Params.Trials)
	assert.Equal(t, 30.0, opts.Params.KFactor)
	assert.Equal(t, 58.0, opts.Thresholds.High)
	assert.True(t, opts.UseTempo)
	assert.Equal(t, int64(11), opts.Seed)
	assert.Equal(t, 3, opts.Workers)

	cfg.Classifier.HighThreshold = 50
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)

	cfg.Simulation.Trials = 0
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)
}
