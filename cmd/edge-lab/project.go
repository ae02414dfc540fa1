package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/edge-lab/internal/logger"
	"github.com/yourusername/edge-lab/internal/models"
	"github.com/yourusername/edge-lab/internal/report"
	"github.com/yourusername/edge-lab/internal/service"
)

var (
	outputFormat string
	outputFile   string
	seedFlag     int64
	trialsFlag   int
	tempoFlag    bool
	workersFlag  int
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project every game on the schedule and print the edges",
	RunE:  runProject,
}

var ranksCmd = &cobra.Command{
	Use:   "ranks",
	Short: "Print the league offensive and defensive rankings",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps(cmd.Context(), service.DefaultOptions())
		if err != nil {
			return err
		}
		defer d.Close()

		rankings, err := d.runner.Rankings(cmd.Context())
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), report.GenerateRankingsReport(rankings))
		return err
	},
}

func init() {
	flags := projectCmd.Flags()
	flags.StringVarP(&outputFormat, "format", "f", "console", "Output format: console, csv or json")
	flags.StringVarP(&outputFile, "output", "o", "", "Write output to file instead of stdout")
	flags.Int64Var(&seedFlag, "seed", 0, "Random seed for reproducible runs (0 draws fresh entropy)")
	flags.IntVar(&trialsFlag, "trials", 0, "Trials per game")
	flags.BoolVar(&tempoFlag, "tempo", false, "Scale projected scores by team tempo")
	flags.IntVar(&workersFlag, "workers", 0, "Games projected concurrently")
}

// projectOptions resolves service options from config and applies changed flags.
func projectOptions(cmd *cobra.Command) (service.Options, error) {
	audit := logger.NewAuditLogger(appLog)
	flags := cmd.Flags()

	if flags.Changed("seed") {
		audit.LogParameterOverride("simulation.seed", cfg.Simulation.Seed, seedFlag)
		cfg.Simulation.Seed = seedFlag
	}
	if flags.Changed("trials") {
		if trialsFlag <= 0 {
			return service.Options{}, fmt.Errorf("--trials must be positive, got %d", trialsFlag)
		}
		audit.LogParameterOverride("simulation.trials", cfg.Simulation.Trials, trialsFlag)
		cfg.Simulation.Trials = trialsFlag
	}
	if flags.Changed("tempo") {
		audit.LogParameterOverride("simulation.use_tempo", cfg.Simulation.UseTempo, tempoFlag)
		cfg.Simulation.UseTempo = tempoFlag
	}
	if flags.Changed("workers") {
		audit.LogParameterOverride("simulation.workers", cfg.Simulation.Workers, workersFlag)
		cfg.Simulation.Workers = workersFlag
	}

	return service.OptionsFromConfig(cfg)
}

func runProject(cmd *cobra.Command, args []string) error {
	if err := checkFormat(outputFormat); err != nil {
		return err
	}

	opts, err := projectOptions(cmd)
	if err != nil {
		return err
	}

	d, err := buildDeps(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer d.Close()

	run, err := d.runner.Run(cmd.Context())
	if err != nil {
		if run == nil {
			return err
		}
		// the batch completed; only persistence failed
		appLog.WithError(err).Error("Projection run was not persisted")
	}

	if outputFile == "" {
		return writeReport(cmd.OutOrStdout(), outputFormat, run)
	}
	if err := exportReport(outputFile, outputFormat, run); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	appLog.WithField("path", outputFile).Info("Report written")
	return nil
}

func checkFormat(format string) error {
	switch format {
	case "console", "csv", "json":
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func writeReport(w io.Writer, format string, run *models.ProjectionRun) error {
	switch format {
	case "csv":
		return report.WriteCSV(w, run)
	case "json":
		return report.WriteJSON(w, run)
	default:
		_, err := io.WriteString(w, report.GenerateConsoleReport(run))
		return err
	}
}

func exportReport(path, format string, run *models.ProjectionRun) error {
	switch format {
	case "csv":
		return report.GenerateCSVExport(run, path)
	case "json":
		return report.GenerateJSONExport(run, path)
	default:
		return os.WriteFile(path, []byte(report.GenerateConsoleReport(run)), 0o644)
	}
}
