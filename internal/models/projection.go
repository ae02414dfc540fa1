package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Side identifies a spread-market side
type Side string

const (
	SideHome    Side = "HOME"
	SideVisitor Side = "VISITOR"
	SideNone    Side = "NONE"
)

// ConfidenceTier grades a spread recommendation
type ConfidenceTier string

const (
	TierNone   ConfidenceTier = "NONE"
	TierLean   ConfidenceTier = "LEAN"
	TierLow    ConfidenceTier = "LOW"
	TierMedium ConfidenceTier = "MEDIUM"
	TierHigh   ConfidenceTier = "HIGH"
)

// TotalPlay is the over/under recommendation
type TotalPlay string

const (
	TotalOver  TotalPlay = "OVER"
	TotalUnder TotalPlay = "UNDER"
	TotalPass  TotalPlay = "PASS"
)

// SimulationResult is the outcome of one game's Monte Carlo run.
// When HasData is false no simulation ran and the remaining fields must not be read.
type SimulationResult struct {
	HasData               bool    `json:"has_data"`
	Trials                int     `json:"trials"`
	HomeWinPct            float64 `json:"home_win_pct"`
	HomeCoverPct          float64 `json:"home_cover_pct"`
	VisitorCoverPct       float64 `json:"visitor_cover_pct"`
	OverPct               float64 `json:"over_pct"`
	UnderPct              float64 `json:"under_pct"`
	ProjectedHomeScore    float64 `json:"projected_home_score"`
	ProjectedVisitorScore float64 `json:"projected_visitor_score"`
	ProjectedTotal        float64 `json:"projected_total"`
}

// MarshalJSON emits every field for simulated games, including zero percentages,
// and only has_data for games that were not simulated.
func (r SimulationResult) MarshalJSON() ([]byte, error) {
	if !r.HasData {
		return []byte(`{"has_data":false}`), nil
	}
	type plain SimulationResult
	return json.Marshal(plain(r))
}

// ProjectedLine returns the model's fair home spread (visitor minus home)
func (r SimulationResult) ProjectedLine() float64 {
	return r.ProjectedVisitorScore - r.ProjectedHomeScore
}

// EdgeClassification is the discrete recommendation derived from a SimulationResult
type EdgeClassification struct {
	RecommendedSide Side           `json:"recommended_side"`
	ConfidenceTier  ConfidenceTier `json:"confidence_tier"`
	StarRating      int            `json:"star_rating"`
	EdgePct         float64        `json:"edge_pct"`
	TotalPlay       TotalPlay      `json:"total_play"`
}

// NoEdge is the classification for games without a qualifying edge
func NoEdge() EdgeClassification {
	return EdgeClassification{
		RecommendedSide: SideNone,
		ConfidenceTier:  TierNone,
		TotalPlay:       TotalPass,
	}
}

// HasSpreadPlay reports whether a side is recommended
func (c EdgeClassification) HasSpreadPlay() bool {
	return c.RecommendedSide != SideNone
}

// RecommendedTeam returns the team identifier of the recommended side, or "" for no play
func (c EdgeClassification) RecommendedTeam(game Game) string {
	switch c.RecommendedSide {
	case SideHome:
		return game.HomeTeam
	case SideVisitor:
		return game.AwayTeam
	default:
		return ""
	}
}

// GameProjection is the per-game record returned from a batch run
type GameProjection struct {
	Game           Game               `json:"game"`
	Result         SimulationResult   `json:"result"`
	Classification EdgeClassification `json:"classification"`
	HomeRank       *TeamRank          `json:"home_rank,omitempty"`
	VisitorRank    *TeamRank          `json:"visitor_rank,omitempty"`
}

// ProjectionRun groups the projections produced by one batch invocation
type ProjectionRun struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	StartedAt   time.Time        `db:"started_at" json:"started_at"`
	CompletedAt time.Time        `db:"completed_at" json:"completed_at"`
	UseTempo    bool             `db:"use_tempo" json:"use_tempo"`
	Trials      int              `db:"trials" json:"trials"`
	Seed        int64            `db:"seed" json:"seed"`
	TeamsRated  int              `db:"teams_rated" json:"teams_rated"`
	Projections []GameProjection `json:"projections"`
}

// Edges returns the projections carrying a spread or total recommendation
func (r *ProjectionRun) Edges() []GameProjection {
	var edges []GameProjection
	for _, p := range r.Projections {
		if p.Classification.HasSpreadPlay() || p.Classification.TotalPlay != TotalPass {
			edges = append(edges, p)
		}
	}
	return edges
}

// MissingData returns the number of games that could not be simulated
func (r *ProjectionRun) MissingData() int {
	n := 0
	for _, p := range r.Projections {
		if !p.Result.HasData {
			n++
		}
	}
	return n
}
