// Package scheduler runs projection batches on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-lab/internal/logger"
	"github.com/yourusername/edge-lab/internal/models"
)

// ProjectionJob runs one projection batch
type ProjectionJob interface {
	Run(ctx context.Context) (*models.ProjectionRun, error)
}

// Scheduler manages scheduled projection runs
type Scheduler struct {
	cron            *cron.Cron
	job             ProjectionJob
	audit           *logger.AuditLogger
	logger          *logrus.Entry
	runTimeout      time.Duration
	gracefulTimeout time.Duration
	onComplete      func(*models.ProjectionRun, error)

	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// NewScheduler creates a new scheduler. runTimeout bounds each scheduled run.
func NewScheduler(job ProjectionJob, runTimeout time.Duration, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	entry := log.WithField("component", "scheduler")
	cl := cronLogger{entry: entry}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		job:             job,
		audit:           logger.NewAuditLogger(log),
		logger:          entry,
		runTimeout:      runTimeout,
		gracefulTimeout: 30 * time.Second,
		jobIDs:          make([]cron.EntryID, 0),
	}
}

// OnComplete registers a callback invoked after every scheduled run
func (s *Scheduler) OnComplete(fn func(*models.ProjectionRun, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// ScheduleProjections schedules projection batches on a standard five-field cron expression
func (s *Scheduler) ScheduleProjections(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() { s.RunOnce(context.Background()) })
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled projection job")

	return nil
}

// RunOnce executes the job immediately under the configured timeout
func (s *Scheduler) RunOnce(parent context.Context) (*models.ProjectionRun, error) {
	ctx, cancel := context.WithTimeout(parent, s.runTimeout)
	defer cancel()

	start := time.Now()
	run, err := s.job.Run(ctx)

	runID := ""
	if run != nil {
		runID = run.ID.String()
	}
	s.audit.LogScheduledRun(runID, time.Since(start), err)

	s.mu.RLock()
	fn := s.onComplete
	s.mu.RUnlock()
	if fn != nil {
		fn(run, err)
	}
	return run, err
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler, waiting up to the graceful timeout for a running job
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	stopped := s.cron.Stop()
	s.mu.Unlock()

	// a running job takes the read lock in RunOnce, so wait unlocked
	select {
	case <-stopped.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler did not stop within %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}

// cronLogger adapts a logrus entry to cron.Logger
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fieldsFrom(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(fieldsFrom(keysAndValues)).Error(msg)
}

func fieldsFrom(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
