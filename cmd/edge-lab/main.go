// Package main provides the edge-lab command line tool.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/edge-lab/internal/config"
	"github.com/yourusername/edge-lab/internal/database"
	"github.com/yourusername/edge-lab/internal/datasource"
	"github.com/yourusername/edge-lab/internal/logger"
	"github.com/yourusername/edge-lab/internal/metrics"
	"github.com/yourusername/edge-lab/internal/repository"
	"github.com/yourusername/edge-lab/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "edge-lab",
	Short: "Monte Carlo NFL projections and edge classification",
	Long: `edge-lab rates teams from efficiency statistics, simulates each scheduled game
and grades the spread and total edges against the posted line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "edge-lab %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(projectCmd, ranksCmd, serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	secretsCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := config.ApplySecrets(secretsCtx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog = logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()
	return nil
}

// deps holds the collaborators shared by every command
type deps struct {
	factory *datasource.Factory
	runner  *service.Runner
	db      *database.DB
}

func (d *deps) Close() {
	if err := d.factory.Close(); err != nil {
		appLog.WithError(err).Warn("Failed to close data sources")
	}
	if d.db != nil {
		d.db.Close()
	}
}

// buildDeps wires sources, the projection service and optional persistence.
func buildDeps(ctx context.Context, opts service.Options) (*deps, error) {
	factory := datasource.NewFactory(cfg.Sources, appLog)
	stats, err := factory.NewStatsSource()
	if err != nil {
		return nil, fmt.Errorf("failed to create stats source: %w", err)
	}
	schedule, err := factory.NewScheduleSource()
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule source: %w", err)
	}

	d := &deps{factory: factory}
	var store service.RunStore
	if cfg.Database.Enabled {
		d.db, err = database.Initialize(ctx, cfg)
		if err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repos, err := repository.NewRepositories(d.db)
		if err != nil {
			d.Close()
			return nil, err
		}
		store = repos.Projection
		appLog.WithField("host", cfg.Database.Host).Info("Projection runs will be persisted")
	}

	svc := service.NewProjectionService(opts, appLog)
	d.runner = service.NewRunner(svc, stats, schedule, store, appLog)
	return d, nil
}
