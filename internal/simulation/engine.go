// Package simulation runs Monte Carlo projections of game scores.
package simulation

import (
	"math"

	"github.com/yourusername/edge-lab/internal/models"
)

// RatingLookup resolves team ratings; *ratings.RatingTable satisfies it
type RatingLookup interface {
	Lookup(team string) (models.TeamRating, bool)
}

// ProjectOptions toggles optional model terms
type ProjectOptions struct {
	UseTempo bool
}

// Engine projects games with a fixed set of params
type Engine struct {
	params Params
	seed   int64
}

// NewEngine creates an engine. A zero seed means fresh entropy on every projection.
func NewEngine(params Params, seed int64) *Engine {
	return &Engine{params: params, seed: seed}
}

// Params returns the engine's hyperparameters
func (e *Engine) Params() Params {
	return e.params
}

// ProjectGame simulates one game using ratings from table
func (e *Engine) ProjectGame(game models.Game, table RatingLookup, opts ProjectOptions) models.SimulationResult {
	var rng RandomSource
	if e.seed != 0 {
		rng = NewSeededSource(e.seed)
	} else {
		rng = NewEntropySource()
	}
	return e.ProjectGameWith(rng, game, table, opts)
}

// ProjectGameWith simulates one game drawing from rng
func (e *Engine) ProjectGameWith(rng RandomSource, game models.Game, table RatingLookup, opts ProjectOptions) models.SimulationResult {
	home, homeOK := table.Lookup(game.HomeTeam)
	visitor, visitorOK := table.Lookup(game.AwayTeam)
	if !homeOK || !visitorOK {
		return models.SimulationResult{HasData: false}
	}
	return Simulate(home, visitor, game.Spread, game.Total, opts, e.params, rng)
}

// Simulate runs params.Trials draws of a game between home and visitor and tallies win,
// cover and over frequencies against the spread and total.
func Simulate(home, visitor models.TeamRating, spread, total float64, opts ProjectOptions, params Params, rng RandomSource) models.SimulationResult {
	k := params.KFactor

	homeTempo, visitorTempo := 1.0, 1.0
	stdDev := params.StdDev
	if opts.UseTempo {
		homeTempo = tempoOrDefault(home.TempoMultiplier)
		visitorTempo = tempoOrDefault(visitor.TempoMultiplier)
		stdDev *= math.Sqrt((homeTempo + visitorTempo) / 2)
	}

	baseHome := home.OffensiveRating*k + visitor.DefensiveRating*k
	baseVisitor := visitor.OffensiveRating*k + home.DefensiveRating*k

	projHome := params.BaselineScore + baseHome*homeTempo + params.HomeFieldAdvantage
	projVisitor := params.BaselineScore + baseVisitor*visitorTempo

	trials := params.Trials
	homeWins, homeCovers, overs := 0, 0, 0
	for i := 0; i < trials; i++ {
		z1, z2 := normalPair(rng)
		h := projHome + z1*stdDev
		v := projVisitor + z2*stdDev

		if h > v {
			homeWins++
		}
		if h-v > -spread {
			homeCovers++
		}
		if h+v > total {
			overs++
		}
	}

	n := float64(trials)
	homeCoverPct := 100 * float64(homeCovers) / n
	overPct := 100 * float64(overs) / n

	return models.SimulationResult{
		HasData:               true,
		Trials:                trials,
		HomeWinPct:            100 * float64(homeWins) / n,
		HomeCoverPct:          homeCoverPct,
		VisitorCoverPct:       100 - homeCoverPct,
		OverPct:               overPct,
		UnderPct:              100 - overPct,
		ProjectedHomeScore:    projHome,
		ProjectedVisitorScore: projVisitor,
		ProjectedTotal:        projHome + projVisitor,
	}
}

func tempoOrDefault(t float64) float64 {
	if t <= 0 {
		return 1.0
	}
	return t
}
