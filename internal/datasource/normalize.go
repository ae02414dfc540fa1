package datasource

import (
	"strings"

	"github.com/yourusername/edge-lab/internal/models"
)

// teamAliases maps feed abbreviations onto the schedule's abbreviations
var teamAliases = map[string]string{
	"LA":  "LAR",
	"JAC": "JAX",
	"WSH": "WAS",
	"OAK": "LV",
	"SD":  "LAC",
	"STL": "LAR",
}

// NormalizeTeam trims and upper-cases a team identifier and applies known aliases
func NormalizeTeam(team string) string {
	t := strings.ToUpper(strings.TrimSpace(team))
	if alias, ok := teamAliases[t]; ok {
		return alias
	}
	return t
}

// MergeDuplicateRows collapses rows sharing a normalized team identifier.
// The first occurrence keeps its position and its non-null fields; later
// duplicates only fill fields the first occurrence left null. Rows without
// a team are dropped.
func MergeDuplicateRows(rows []models.RawTeamStatRow) []models.RawTeamStatRow {
	out := make([]models.RawTeamStatRow, 0, len(rows))
	index := make(map[string]int, len(rows))

	for _, row := range rows {
		row.Team = NormalizeTeam(row.Team)
		if row.Team == "" {
			continue
		}

		i, seen := index[row.Team]
		if !seen {
			index[row.Team] = len(out)
			out = append(out, row)
			continue
		}

		merged := &out[i]
		fillNull(&merged.OffensiveEPA, row.OffensiveEPA)
		fillNull(&merged.DefensiveEPA, row.DefensiveEPA)
		fillNull(&merged.OffPassEPA, row.OffPassEPA)
		fillNull(&merged.OffRushEPA, row.OffRushEPA)
		fillNull(&merged.DefPassEPA, row.DefPassEPA)
		fillNull(&merged.DefRushEPA, row.DefRushEPA)
		fillNull(&merged.Tempo, row.Tempo)
	}

	return out
}

func fillNull(dst *any, v any) {
	if isNull(*dst) && !isNull(v) {
		*dst = v
	}
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
