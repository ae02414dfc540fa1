// Package ratings normalizes raw per-team stat rows into a league rating table.
package ratings

import (
	"sort"
	"strings"

	"github.com/yourusername/edge-lab/internal/models"
)

// DefaultLeagueTempo is used as the league mean when no row carries a usable tempo
const DefaultLeagueTempo = 30.0

// IngestorConfig bounds tempo normalization
type IngestorConfig struct {
	DefaultLeagueTempo float64
	MinTempoMultiplier float64
	MaxTempoMultiplier float64
}

// DefaultIngestorConfig returns the reference normalization bounds
func DefaultIngestorConfig() IngestorConfig {
	return IngestorConfig{
		DefaultLeagueTempo: DefaultLeagueTempo,
		MinTempoMultiplier: 0.85,
		MaxTempoMultiplier: 1.15,
	}
}

// Ingestor builds rating tables from raw stat rows
type Ingestor struct {
	cfg IngestorConfig
}

// NewIngestor creates an ingestor, filling unset bounds with defaults
func NewIngestor(cfg IngestorConfig) *Ingestor {
	def := DefaultIngestorConfig()
	if cfg.DefaultLeagueTempo <= 0 {
		cfg.DefaultLeagueTempo = def.DefaultLeagueTempo
	}
	if cfg.MinTempoMultiplier <= 0 {
		cfg.MinTempoMultiplier = def.MinTempoMultiplier
	}
	if cfg.MaxTempoMultiplier < cfg.MinTempoMultiplier {
		cfg.MaxTempoMultiplier = def.MaxTempoMultiplier
	}
	return &Ingestor{cfg: cfg}
}

// BuildRatingTable normalizes rows with the reference bounds
func BuildRatingTable(rows []models.RawTeamStatRow) *RatingTable {
	return NewIngestor(DefaultIngestorConfig()).Build(rows)
}

// Build normalizes rows into a rating table. It never fails: rows without a team are
// skipped and unparsable numbers become 0.
func (in *Ingestor) Build(rows []models.RawTeamStatRow) *RatingTable {
	mean := in.leagueMeanTempo(rows)

	table := newRatingTable(len(rows))
	table.leagueMeanTempo = mean

	for _, row := range rows {
		team := strings.TrimSpace(row.Team)
		if team == "" {
			continue
		}

		rawTempo, ok := toFloat(row.Tempo)
		if !ok || rawTempo <= 0 {
			rawTempo = mean
		}

		off := floatOr(row.OffensiveEPA, 0)
		def := floatOr(row.DefensiveEPA, 0)

		table.put(models.TeamRating{
			Team:            team,
			OffensiveRating: off,
			DefensiveRating: def,
			TempoMultiplier: clamp(rawTempo/mean, in.cfg.MinTempoMultiplier, in.cfg.MaxTempoMultiplier),
			OffensivePass:   floatOr(row.OffPassEPA, off),
			OffensiveRush:   floatOr(row.OffRushEPA, off),
			DefensivePass:   floatOr(row.DefPassEPA, def),
			DefensiveRush:   floatOr(row.DefRushEPA, def),
		})
	}

	table.rank()
	return table
}

func (in *Ingestor) leagueMeanTempo(rows []models.RawTeamStatRow) float64 {
	sum, n := 0.0, 0
	for _, row := range rows {
		if v, ok := toFloat(row.Tempo); ok && v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return in.cfg.DefaultLeagueTempo
	}
	return sum / float64(n)
}

// RatingTable is an immutable view of league ratings and ranks once built
type RatingTable struct {
	ratings         map[string]models.TeamRating
	ranks           map[string]models.TeamRank
	order           []string
	leagueMeanTempo float64
}

func newRatingTable(capacity int) *RatingTable {
	return &RatingTable{
		ratings: make(map[string]models.TeamRating, capacity),
		ranks:   make(map[string]models.TeamRank, capacity),
		order:   make([]string, 0, capacity),
	}
}

// NewTable builds a table directly from normalized ratings, e.g. ratings kept from an
// earlier run. Ranks are derived the same way as for ingested rows.
func NewTable(ratings []models.TeamRating) *RatingTable {
	table := newRatingTable(len(ratings))
	table.leagueMeanTempo = DefaultLeagueTempo
	for _, r := range ratings {
		if r.Team == "" {
			continue
		}
		if r.TempoMultiplier <= 0 {
			r.TempoMultiplier = 1.0
		}
		table.put(r)
	}
	table.rank()
	return table
}

// put stores a rating. A repeated team keeps its first position but takes the new values.
func (t *RatingTable) put(r models.TeamRating) {
	if _, exists := t.ratings[r.Team]; !exists {
		t.order = append(t.order, r.Team)
	}
	t.ratings[r.Team] = r
}

func (t *RatingTable) rank() {
	byOffense := append([]string(nil), t.order...)
	sort.SliceStable(byOffense, func(i, j int) bool {
		return t.ratings[byOffense[i]].OffensiveRating > t.ratings[byOffense[j]].OffensiveRating
	})

	byDefense := append([]string(nil), t.order...)
	sort.SliceStable(byDefense, func(i, j int) bool {
		return t.ratings[byDefense[i]].DefensiveRating < t.ratings[byDefense[j]].DefensiveRating
	})

	for i, team := range byOffense {
		rank := t.ranks[team]
		rank.OffensiveRank = i + 1
		t.ranks[team] = rank
	}
	for i, team := range byDefense {
		rank := t.ranks[team]
		rank.DefensiveRank = i + 1
		t.ranks[team] = rank
	}
}

// Lookup returns the rating for a team
func (t *RatingTable) Lookup(team string) (models.TeamRating, bool) {
	if t == nil {
		return models.TeamRating{}, false
	}
	r, ok := t.ratings[team]
	return r, ok
}

// Rank returns the league ranks for a team
func (t *RatingTable) Rank(team string) (models.TeamRank, bool) {
	if t == nil {
		return models.TeamRank{}, false
	}
	r, ok := t.ranks[team]
	return r, ok
}

// Teams returns team identifiers in input order
func (t *RatingTable) Teams() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// Len returns the number of rated teams
func (t *RatingTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// LeagueMeanTempo returns the raw tempo the multipliers were normalized against
func (t *RatingTable) LeagueMeanTempo() float64 {
	if t == nil {
		return DefaultLeagueTempo
	}
	return t.leagueMeanTempo
}

// Ratings returns all ratings in input order
func (t *RatingTable) Ratings() []models.TeamRating {
	out := make([]models.TeamRating, 0, t.Len())
	for _, team := range t.Teams() {
		out = append(out, t.ratings[team])
	}
	return out
}

// Rankings returns every team with its ranks, ordered by offensive rank
func (t *RatingTable) Rankings() []models.RankedTeam {
	out := make([]models.RankedTeam, 0, t.Len())
	for _, team := range t.Teams() {
		out = append(out, models.RankedTeam{TeamRating: t.ratings[team], TeamRank: t.ranks[team]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OffensiveRank < out[j].OffensiveRank
	})
	return out
}
