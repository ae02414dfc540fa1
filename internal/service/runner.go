package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-lab/internal/datasource"
	"github.com/yourusername/edge-lab/internal/logger"
	"github.com/yourusername/edge-lab/internal/models"
)

// RunStore persists completed projection runs
type RunStore interface {
	SaveRun(ctx context.Context, run *models.ProjectionRun) error
}

// Runner fetches stats and schedule from their sources and runs a batch
type Runner struct {
	svc      *ProjectionService
	stats    datasource.StatsSource
	schedule datasource.ScheduleSource
	store    RunStore
	audit    *logger.AuditLogger
	logger   *logrus.Logger

	mu      sync.RWMutex
	lastRun *models.ProjectionRun
}

// NewRunner creates a runner. store may be nil to skip persistence.
func NewRunner(svc *ProjectionService, stats datasource.StatsSource, schedule datasource.ScheduleSource, store RunStore, log *logrus.Logger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		svc:      svc,
		stats:    stats,
		schedule: schedule,
		store:    store,
		audit:    logger.NewAuditLogger(log),
		logger:   log,
	}
}

// Run fetches inputs, projects the slate and persists the run when a store is configured
func (r *Runner) Run(ctx context.Context) (*models.ProjectionRun, error) {
	rows, err := r.stats.FetchStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}
	games, err := r.schedule.FetchGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	run, err := r.svc.RunBatch(ctx, rows, games)
	if err != nil {
		return nil, err
	}

	if r.store != nil {
		if err := r.store.SaveRun(ctx, run); err != nil {
			return run, fmt.Errorf("failed to save projection run: %w", err)
		}
		r.audit.LogRunPersisted(run.ID.String(), len(run.Projections), run.CompletedAt)
	}

	r.mu.Lock()
	r.lastRun = run
	r.mu.Unlock()

	return run, nil
}

// Rankings fetches stats and returns the league table ordered by offensive rank
func (r *Runner) Rankings(ctx context.Context) ([]models.RankedTeam, error) {
	rows, err := r.stats.FetchStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}
	return r.svc.BuildTable(rows).Rankings(), nil
}

// LastRun returns the most recent successful run, or nil
func (r *Runner) LastRun() *models.ProjectionRun {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastRun
}
