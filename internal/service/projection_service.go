// Package service orchestrates rating, simulation and classification over a slate of games.
package service

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/edge-lab/internal/config"
	"github.com/yourusername/edge-lab/internal/edge"
	"github.com/yourusername/edge-lab/internal/logger"
	"github.com/yourusername/edge-lab/internal/metrics"
	"github.com/yourusername/edge-lab/internal/models"
	"github.com/yourusername/edge-lab/internal/ratings"
	"github.com/yourusername/edge-lab/internal/simulation"
)

// Options configures a ProjectionService
type Options struct {
	Params     simulation.Params
	Thresholds edge.Thresholds
	UseTempo   bool
	// Seed makes batches reproducible; 0 draws fresh entropy for every game
	Seed int64
	// Workers bounds concurrent games; <= 0 uses GOMAXPROCS
	Workers int
}

// DefaultOptions returns the reference model with an unseeded source
func DefaultOptions() Options {
	return Options{
		Params:     simulation.DefaultParams(),
		Thresholds: edge.DefaultThresholds(),
	}
}

// OptionsFromConfig builds service options from the simulation and classifier sections
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	params, err := simulation.FromConfig(&cfg.Simulation)
	if err != nil {
		return Options{}, fmt.Errorf("invalid simulation config: %w", err)
	}
	thresholds, err := edge.FromConfig(&cfg.Classifier)
	if err != nil {
		return Options{}, fmt.Errorf("invalid classifier config: %w", err)
	}
	return Options{
		Params:     params,
		Thresholds: thresholds,
		UseTempo:   cfg.Simulation.UseTempo,
		Seed:       cfg.Simulation.Seed,
		Workers:    cfg.Simulation.Workers,
	}, nil
}

// ProjectionService projects every game of a slate and classifies the edges
type ProjectionService struct {
	ingestor   *ratings.Ingestor
	engine     *simulation.Engine
	classifier *edge.Classifier
	opts       Options
	logger     *logrus.Logger
	projLogger *logger.ProjectionLogger
}

// NewProjectionService creates a new projection service
func NewProjectionService(opts Options, log *logrus.Logger) *ProjectionService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &ProjectionService{
		ingestor:   ratings.NewIngestor(ratings.DefaultIngestorConfig()),
		engine:     simulation.NewEngine(opts.Params, 0),
		classifier: edge.NewClassifier(opts.Thresholds),
		opts:       opts,
		logger:     log,
		projLogger: logger.NewProjectionLogger(log),
	}
}

// Options returns the effective service options
func (s *ProjectionService) Options() Options {
	return s.opts
}

// BuildTable normalizes raw stat rows into a rating table
func (s *ProjectionService) BuildTable(rows []models.RawTeamStatRow) *ratings.RatingTable {
	table := s.ingestor.Build(rows)
	s.projLogger.LogRatingTableBuilt(len(rows), table.Len(), table.LeagueMeanTempo())
	metrics.UpdateRatedTeams(table.Len())
	return table
}

// RunBatch builds a rating table from rows and projects every game against it.
// Projections come back in game order. Games whose teams are unrated are
// reported with HasData false rather than failing the batch.
func (s *ProjectionService) RunBatch(ctx context.Context, rows []models.RawTeamStatRow, games []models.Game) (*models.ProjectionRun, error) {
	started := time.Now().UTC()
	table := s.BuildTable(rows)

	run, err := s.ProjectSlate(ctx, table, games)
	if err != nil {
		return nil, err
	}
	run.StartedAt = started
	return run, nil
}

// ProjectSlate projects games against an existing rating table.
// Cancellation is observed between games, never inside a game's trial loop.
func (s *ProjectionService) ProjectSlate(ctx context.Context, table *ratings.RatingTable, games []models.Game) (*models.ProjectionRun, error) {
	run := &models.ProjectionRun{
		ID:         uuid.New(),
		StartedAt:  time.Now().UTC(),
		UseTempo:   s.opts.UseTempo,
		Trials:     s.opts.Params.Trials,
		Seed:       s.opts.Seed,
		TeamsRated: table.Len(),
	}

	projections := make([]models.GameProjection, len(games))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, game := range games {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			projections[i] = s.projectGame(s.sourceFor(i), game, table)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("projection batch aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("projection batch aborted: %w", err)
	}

	run.Projections = projections
	run.CompletedAt = time.Now().UTC()

	metrics.RecordBatchDuration(run.CompletedAt.Sub(run.StartedAt).Seconds())
	s.projLogger.LogBatchCompleted(run)
	return run, nil
}

// ProjectGame projects a single game against table using the service's seed policy
func (s *ProjectionService) ProjectGame(game models.Game, table *ratings.RatingTable) models.GameProjection {
	return s.projectGame(s.sourceFor(0), game, table)
}

// sourceFor derives game i's random stream from the batch seed so results do
// not depend on which worker runs the game.
func (s *ProjectionService) sourceFor(i int) simulation.RandomSource {
	if s.opts.Seed == 0 {
		return simulation.NewEntropySource()
	}
	return simulation.NewSeededSource(simulation.DeriveSeed(s.opts.Seed, i))
}

func (s *ProjectionService) projectGame(rng simulation.RandomSource, game models.Game, table *ratings.RatingTable) models.GameProjection {
	start := time.Now()
	result := s.engine.ProjectGameWith(rng, game, table, simulation.ProjectOptions{UseTempo: s.opts.UseTempo})
	elapsed := time.Since(start)

	p := models.GameProjection{
		Game:           game,
		Result:         result,
		Classification: s.classifier.Classify(result, game),
	}
	if rank, ok := table.Rank(game.HomeTeam); ok {
		p.HomeRank = &rank
	}
	if rank, ok := table.Rank(game.AwayTeam); ok {
		p.VisitorRank = &rank
	}

	metrics.RecordProjection(result.HasData, elapsed.Seconds())
	if !result.HasData {
		s.projLogger.LogMissingRatings(game, p.HomeRank != nil, p.VisitorRank != nil)
		return p
	}

	s.projLogger.LogGameProjected(p, elapsed)
	c := p.Classification
	if c.HasSpreadPlay() {
		metrics.RecordRecommendation("spread", string(c.ConfidenceTier))
	}
	if c.TotalPlay != models.TotalPass {
		metrics.RecordRecommendation("total", string(c.TotalPlay))
	}
	if c.HasSpreadPlay() || c.TotalPlay != models.TotalPass {
		s.projLogger.LogEdgeFound(p)
	}
	return p
}
