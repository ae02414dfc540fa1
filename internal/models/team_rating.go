package models

// RawTeamStatRow is one unnormalized per-team stat record as supplied by a stats feed.
// Numeric fields are left untyped so feeds that quote numbers, send nulls or send
// garbage can all be ingested; the rating ingestor coerces them.
type RawTeamStatRow struct {
	Team         string `json:"team"`
	OffensiveEPA any    `json:"off_epa"`
	DefensiveEPA any    `json:"def_epa"`
	OffPassEPA   any    `json:"off_pass_epa,omitempty"`
	OffRushEPA   any    `json:"off_rush_epa,omitempty"`
	DefPassEPA   any    `json:"def_pass_epa,omitempty"`
	DefRushEPA   any    `json:"def_rush_epa,omitempty"`
	Tempo        any    `json:"tempo,omitempty"`
}

// TeamRating is the normalized efficiency record for one team in an evaluation window
type TeamRating struct {
	Team            string  `json:"team"`
	OffensiveRating float64 `json:"offensive_rating"`
	DefensiveRating float64 `json:"defensive_rating"`
	TempoMultiplier float64 `json:"tempo_multiplier"`

	// Splits are kept for prop-market analysis; win/cover projection ignores them.
	OffensivePass float64 `json:"offensive_pass"`
	OffensiveRush float64 `json:"offensive_rush"`
	DefensivePass float64 `json:"defensive_pass"`
	DefensiveRush float64 `json:"defensive_rush"`
}

// TeamRank holds 1-based league ranks. Offense ranks descending, defense ascending.
type TeamRank struct {
	OffensiveRank int `json:"offensive_rank"`
	DefensiveRank int `json:"defensive_rank"`
}

// RankedTeam pairs a team's rating with its league ranks
type RankedTeam struct {
	TeamRating
	TeamRank
}
