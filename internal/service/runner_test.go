package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edge-lab/internal/models"
)

type MockStatsSource struct {
	mock.Mock
}

func (m *MockStatsSource) Name() string { return "mock_stats" }

func (m *MockStatsSource) FetchStats(ctx context.Context) ([]models.RawTeamStatRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RawTeamStatRow), args.Error(1)
}

type MockScheduleSource struct {
	mock.Mock
}

func (m *MockScheduleSource) Name() string { return "mock_schedule" }

func (m *MockScheduleSource) FetchGames(ctx context.Context) ([]models.Game, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Game), args.Error(1)
}

type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) SaveRun(ctx context.Context, run *models.ProjectionRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func TestRunnerRunPersists(t *testing.T) {
	ctx := context.Background()
	stats := &MockStatsSource{}
	schedule := &MockScheduleSource{}
	store := &MockRunStore{}

	stats.On("FetchStats", ctx).Return(sampleRows(), nil)
	schedule.On("FetchGames", ctx).Return(sampleGames(), nil)
	store.On("SaveRun", ctx, mock.AnythingOfType("*models.ProjectionRun")).Return(nil)

	runner := NewRunner(seededService(1, 2), stats, schedule, store, testLogger())
	assert.Nil(t, runner.LastRun())

	run, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, run.Projections, 4)
	assert.Same(t, run, runner.LastRun())

	stats.AssertExpectations(t)
	schedule.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRunnerRunWithoutStore(t *testing.T) {
	ctx := context.Background()
	stats := &MockStatsSource{}
	schedule := &MockScheduleSource{}
	stats.On("FetchStats", ctx).Return(sampleRows(), nil)
	schedule.On("FetchGames", ctx).Return(sampleGames()[:1], nil)

	run, err := NewRunner(seededService(1, 1), stats, schedule, nil, nil).Run(ctx)
	require.NoError(t, err)
	assert.Len(t, run.Projections, 1)
}

func TestRunnerStatsError(t *testing.T) {
	ctx := context.Background()
	stats := &MockStatsSource{}
	schedule := &MockScheduleSource{}
	stats.On("FetchStats", ctx).Return(nil, errors.New("feed down"))

	runner := NewRunner(seededService(1, 1), stats, schedule, nil, testLogger())
	_, err := runner.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch stats")
	schedule.AssertNotCalled(t, "FetchGames", mock.Anything)
	assert.Nil(t, runner.LastRun())
}

func TestRunnerScheduleError(t *testing.T) {
	ctx := context.Background()
	stats := &MockStatsSource{}
	schedule := &MockScheduleSource{}
	stats.On("FetchStats", ctx).Return(sampleRows(), nil)
	schedule.On("FetchGames", ctx).Return(nil, errors.New("no slate"))

	_, err := NewRunner(seededService(1, 1), stats, schedule, nil, testLogger()).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch schedule")
}

func TestRunnerStoreErrorReturnsRun(t *testing.T) {
	ctx := context.Background()
	stats := &MockStatsSource{}
	schedule := &MockScheduleSource{}
	store := &MockRunStore{}
	stats.On("FetchStats", ctx).Return(sampleRows(), nil)
	schedule.On("FetchGames", ctx).Return(sampleGames(), nil)
	store.On("SaveRun", ctx, mock.Anything).Return(errors.New("db down"))

	runner := NewRunner(seededService(1, 1), stats, schedule, store, testLogger())
	run, err := runner.Run(ctx)
	require.Error(t, err)
	assert.NotNil(t, run)
	assert.Nil(t, runner.LastRun())
}

func TestRunnerRankings(t *testing.T) {
	ctx := context.Background()
	stats := &MockStatsSource{}
	stats.On("FetchStats", ctx).Return(sampleRows(), nil)

	ranked, err := NewRunner(seededService(1, 1), stats, &MockScheduleSource{}, nil, testLogger()).Rankings(ctx)
	require.NoError(t, err)
	require.Len(t, ranked, 4)
	assert.Equal(t, "KC", ranked[0].Team)
	assert.Equal(t, 1, ranked[0].OffensiveRank)
	assert.Equal(t, "NYG", ranked[3].Team)
}
