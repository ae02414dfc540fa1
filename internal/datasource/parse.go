package datasource

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/yourusername/edge-lab/internal/models"
)

// statColumns maps accepted CSV header spellings to stat fields
var statColumns = map[string]string{
	"team":           "team",
	"team_abbr":      "team",
	"abbr":           "team",
	"name":           "team",
	"off_epa":        "off",
	"offensive_epa":  "off",
	"off":            "off",
	"offense":        "off",
	"def_epa":        "def",
	"defensive_epa":  "def",
	"def":            "def",
	"defense":        "def",
	"off_pass_epa":   "off_pass",
	"off_rush_epa":   "off_rush",
	"def_pass_epa":   "def_pass",
	"def_rush_epa":   "def_rush",
	"tempo":          "tempo",
	"pace":           "tempo",
	"plays_per_game": "tempo",
}

// ParseStats decodes raw team stat rows in the given format
func ParseStats(r io.Reader, format Format) ([]models.RawTeamStatRow, error) {
	var (
		rows []models.RawTeamStatRow
		err  error
	)

	switch format {
	case FormatJSON:
		rows, err = parseJSONStats(r)
	case FormatCSV:
		rows, err = parseCSVStats(r)
	case FormatText:
		rows, err = parseTextStats(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	return rows, nil
}

func parseJSONStats(r io.Reader) ([]models.RawTeamStatRow, error) {
	var rows []models.RawTeamStatRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("failed to decode stats JSON: %w", err)
	}
	return rows, nil
}

func parseCSVStats(r io.Reader) ([]models.RawTeamStatRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("failed to read stats CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.Trim(strings.TrimSpace(h), `"`))
		if field, ok := statColumns[key]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	for _, required := range []string{"team", "off", "def"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	cell := func(record []string, field string) any {
		i, ok := cols[field]
		if !ok || i >= len(record) {
			return nil
		}
		v := strings.TrimSpace(record[i])
		if v == "" {
			return nil
		}
		return v
	}

	var rows []models.RawTeamStatRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read stats CSV: %w", err)
		}

		team, _ := cell(record, "team").(string)
		if team == "" {
			continue
		}
		rows = append(rows, models.RawTeamStatRow{
			Team:         team,
			OffensiveEPA: cell(record, "off"),
			DefensiveEPA: cell(record, "def"),
			OffPassEPA:   cell(record, "off_pass"),
			OffRushEPA:   cell(record, "off_rush"),
			DefPassEPA:   cell(record, "def_pass"),
			DefRushEPA:   cell(record, "def_rush"),
			Tempo:        cell(record, "tempo"),
		})
	}
	return rows, nil
}

// parseTextStats reads "team off def [tempo]" lines. Team names may contain
// spaces or digits ("San Francisco 49ers"); the trailing numeric tokens are
// the ratings. Blank lines and lines starting with '#' are skipped, as are
// lines with fewer than two ratings.
func parseTextStats(r io.Reader) ([]models.RawTeamStatRow, error) {
	var rows []models.RawTeamStatRow

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
		var numbers []float64
		end := len(fields)
		for end > 1 && len(numbers) < 3 {
			v, err := strconv.ParseFloat(fields[end-1], 64)
			if err != nil {
				break
			}
			numbers = append([]float64{v}, numbers...)
			end--
		}
		if len(numbers) < 2 {
			continue
		}

		row := models.RawTeamStatRow{
			Team:         strings.Join(fields[:end], " "),
			OffensiveEPA: numbers[0],
			DefensiveEPA: numbers[1],
		}
		if len(numbers) == 3 {
			row.Tempo = numbers[2]
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stats text: %w", err)
	}
	return rows, nil
}

// ParseSchedule decodes games in the given format. Unlike stat rows, a
// malformed line is an error: a silently zeroed spread is a wrong bet.
func ParseSchedule(r io.Reader, format Format) ([]models.Game, error) {
	var (
		games []models.Game
		err   error
	)

	switch format {
	case FormatJSON:
		if err = json.NewDecoder(r).Decode(&games); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrEmptyInput
			}
			return nil, fmt.Errorf("failed to decode schedule JSON: %w", err)
		}
	case FormatCSV:
		if games, err = parseCSVSchedule(r); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w for schedule: %q", ErrUnsupportedFormat, format)
	}

	if len(games) == 0 {
		return nil, ErrEmptyInput
	}
	for i := range games {
		games[i].HomeTeam = NormalizeTeam(games[i].HomeTeam)
		games[i].AwayTeam = NormalizeTeam(games[i].AwayTeam)
		if err := games[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: game %d: %v", ErrInvalidRecord, i+1, err)
		}
	}
	return games, nil
}

func parseCSVSchedule(r io.Reader) ([]models.Game, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	cols := make(map[string]int)
	for i, h := range records[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "id", "game_id":
			cols["id"] = i
		case "home", "home_team":
			cols["home"] = i
		case "visitor", "away", "away_team":
			cols["visitor"] = i
		case "spread":
			cols["spread"] = i
		case "total":
			cols["total"] = i
		}
	}
	for _, required := range []string{"id", "home", "visitor", "spread", "total"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	games := make([]models.Game, 0, len(records)-1)
	for n, record := range records[1:] {
		spread, err := cast.ToFloat64E(strings.TrimSpace(record[cols["spread"]]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: spread: %v", ErrInvalidRecord, n+2, err)
		}
		total, err := cast.ToFloat64E(strings.TrimSpace(record[cols["total"]]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: total: %v", ErrInvalidRecord, n+2, err)
		}
		games = append(games, models.Game{
			ID:       strings.TrimSpace(record[cols["id"]]),
			HomeTeam: record[cols["home"]],
			AwayTeam: record[cols["visitor"]],
			Spread:   spread,
			Total:    total,
		})
	}
	return games, nil
}
