// Package edge converts simulated probabilities into spread and total recommendations.
package edge

import (
	"fmt"

	"github.com/yourusername/edge-lab/internal/config"
	"github.com/yourusername/edge-lab/internal/models"
)

// Thresholds are the cover-percentage cut points of the confidence ladder
type Thresholds struct {
	Lean   float64
	Low    float64
	Medium float64
	High   float64
	Total  float64
}

// DefaultThresholds returns the reference ladder
func DefaultThresholds() Thresholds {
	return Thresholds{
		Lean:   53.0,
		Low:    55.0,
		Medium: 57.0,
		High:   60.0,
		Total:  55.0,
	}
}

// Validate checks that the ladder is ordered and the total threshold exceeds breakeven
func (t Thresholds) Validate() error {
	if !(t.Lean <= t.Low && t.Low <= t.Medium && t.Medium <= t.High) {
		return fmt.Errorf("confidence thresholds must be ordered lean <= low <= medium <= high")
	}
	if t.Lean <= 50 || t.High > 100 {
		return fmt.Errorf("confidence thresholds must lie in (50, 100]")
	}
	if t.Total <= 50 || t.Total > 100 {
		return fmt.Errorf("total threshold must lie in (50, 100]")
	}
	return nil
}

// FromConfig converts app config to classifier thresholds
func FromConfig(cfg *config.ClassifierConfig) (Thresholds, error) {
	if cfg == nil {
		return Thresholds{}, fmt.Errorf("classifier config is required")
	}
	t := Thresholds{
		Lean:   cfg.CoverThreshold,
		Low:    cfg.LowThreshold,
		Medium: cfg.MediumThreshold,
		High:   cfg.HighThreshold,
		Total:  cfg.TotalThreshold,
	}
	return t, t.Validate()
}

// Stars per tier. There is deliberately no two-star tier.
const (
	leanStars   = 1
	lowStars    = 3
	mediumStars = 4
	highStars   = 5
)

// Classifier maps simulation results to recommendations
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a classifier with the given thresholds
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Classify derives the spread and total recommendation for a simulated game.
// Results without data classify as no play. The game argument is unused because the
// simulated percentages already account for its line.
func (c *Classifier) Classify(result models.SimulationResult, _ models.Game) models.EdgeClassification {
	out := models.NoEdge()
	if !result.HasData {
		return out
	}

	switch {
	case result.HomeCoverPct >= c.thresholds.Lean:
		out.RecommendedSide = models.SideHome
		out.EdgePct = result.HomeCoverPct
	case result.VisitorCoverPct >= c.thresholds.Lean:
		out.RecommendedSide = models.SideVisitor
		out.EdgePct = result.VisitorCoverPct
	}

	if out.RecommendedSide != models.SideNone {
		out.ConfidenceTier, out.StarRating = c.tier(out.EdgePct)
	}

	out.TotalPlay = c.totalPlay(result)
	return out
}

func (c *Classifier) tier(edgePct float64) (models.ConfidenceTier, int) {
	switch {
	case edgePct >= c.thresholds.High:
		return models.TierHigh, highStars
	case edgePct >= c.thresholds.Medium:
		return models.TierMedium, mediumStars
	case edgePct >= c.thresholds.Low:
		return models.TierLow, lowStars
	default:
		return models.TierLean, leanStars
	}
}

func (c *Classifier) totalPlay(result models.SimulationResult) models.TotalPlay {
	switch {
	case result.OverPct >= c.thresholds.Total:
		return models.TotalOver
	case result.UnderPct >= c.thresholds.Total:
		return models.TotalUnder
	default:
		return models.TotalPass
	}
}

// Classify uses the reference thresholds
func Classify(result models.SimulationResult, game models.Game) models.EdgeClassification {
	return NewClassifier(DefaultThresholds()).Classify(result, game)
}
