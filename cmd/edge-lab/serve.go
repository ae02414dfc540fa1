package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/edge-lab/internal/health"
	"github.com/yourusername/edge-lab/internal/metrics"
	"github.com/yourusername/edge-lab/internal/models"
	"github.com/yourusername/edge-lab/internal/scheduler"
	"github.com/yourusername/edge-lab/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Re-project the slate on a cron schedule and serve health and metrics",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron is required to serve")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	d, err := buildDeps(ctx, opts)
	if err != nil {
		return err
	}
	defer d.Close()

	healthCfg := health.Config{
		ServiceName: "edge-lab",
		Version:     Version,
		Port:        cfg.Health.Port,
		Logger:      appLog,
		Runs:        d.runner,
	}
	if d.db != nil {
		healthCfg.DB = d.db
	}
	if cfg.Metrics.Enabled {
		healthCfg.MetricsPath = cfg.Metrics.Path
		healthCfg.MetricsHandler = metrics.Handler()
	}
	server := health.NewServer(healthCfg)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	sched := scheduler.NewScheduler(d.runner, cfg.ScheduleTimeout(), appLog)
	sched.OnComplete(func(run *models.ProjectionRun, err error) {
		if err == nil {
			server.SetReady(true)
		}
	})
	if err := sched.ScheduleProjections(cfg.Schedule.Cron); err != nil {
		return err
	}

	// project once at startup so readiness does not wait for the first tick
	if _, err := sched.RunOnce(ctx); err != nil {
		appLog.WithError(err).Warn("Initial projection run failed")
	}

	if err := sched.Start(); err != nil {
		return err
	}
	appLog.WithField("next_run", sched.GetNextRun()).Info("edge-lab serving")

	<-ctx.Done()
	appLog.Info("Shutdown signal received")

	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Warn("Scheduler did not stop cleanly")
	}
	return server.Shutdown()
}
