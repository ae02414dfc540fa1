// Package report renders projection runs for terminals, spreadsheets and JSON consumers.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/edge-lab/internal/models"
)

// Round1 rounds a percentage or score to one decimal place for display
func Round1(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(1)
}

// signed renders a line with an explicit sign, "PK" for zero
func signed(v float64) string {
	d := Round1(v)
	switch {
	case d.IsZero():
		return "PK"
	case d.IsPositive():
		return "+" + d.StringFixed(1)
	default:
		return d.StringFixed(1)
	}
}

func stars(n int) string {
	if n <= 0 {
		return "-"
	}
	return strings.Repeat("*", n)
}

// GenerateConsoleReport formats a run for terminal output
func GenerateConsoleReport(run *models.ProjectionRun) string {
	var b strings.Builder
	b.WriteString("Projection Report\n")
	b.WriteString("=================\n")
	fmt.Fprintf(&b, "Run: %s\n", run.ID)
	fmt.Fprintf(&b, "Trials: %d  Tempo: %t  Teams rated: %d\n", run.Trials, run.UseTempo, run.TeamsRated)
	fmt.Fprintf(&b, "Games: %d  Edges: %d  Missing data: %d\n\n", len(run.Projections), len(run.Edges()), run.MissingData())

	for _, p := range run.Projections {
		b.WriteString(consoleLine(p))
		b.WriteByte('\n')
	}
	return b.String()
}

func consoleLine(p models.GameProjection) string {
	g := p.Game
	head := fmt.Sprintf("%-12s %-14s spread %-6s total %-5s", g.ID, g.String(), signed(g.Spread), Round1(g.Total).StringFixed(1))
	if !p.Result.HasData {
		return head + " | no rating data"
	}

	r := p.Result
	c := p.Classification
	pick := "PASS"
	if c.HasSpreadPlay() {
		pick = fmt.Sprintf("%s %s %s (%s%%)", c.RecommendedTeam(g), c.ConfidenceTier, stars(c.StarRating), Round1(c.EdgePct).StringFixed(1))
	}
	return fmt.Sprintf("%s | win %s%% cover %s%% over %s%% | fair %s / %s | %s | %s",
		head,
		Round1(r.HomeWinPct).StringFixed(1),
		Round1(r.HomeCoverPct).StringFixed(1),
		Round1(r.OverPct).StringFixed(1),
		signed(r.ProjectedLine()),
		Round1(r.ProjectedTotal).StringFixed(1),
		pick,
		c.TotalPlay,
	)
}

// GenerateRankingsReport formats the league table for terminal output
func GenerateRankingsReport(rankings []models.RankedTeam) string {
	var b strings.Builder
	b.WriteString("Team   Off  Def   Off EPA   Def EPA  Tempo\n")
	for _, t := range rankings {
		fmt.Fprintf(&b, "%-5s %4d %4d %9s %9s %6s\n",
			t.Team,
			t.OffensiveRank,
			t.DefensiveRank,
			decimal.NewFromFloat(t.OffensiveRating).Round(3).StringFixed(3),
			decimal.NewFromFloat(t.DefensiveRating).Round(3).StringFixed(3),
			decimal.NewFromFloat(t.TempoMultiplier).Round(2).StringFixed(2),
		)
	}
	return b.String()
}

var csvHeader = []string{
	"game_id", "visitor", "home", "spread", "total", "has_data",
	"home_win_pct", "home_cover_pct", "visitor_cover_pct", "over_pct", "under_pct",
	"projected_home", "projected_visitor", "projected_line", "projected_total",
	"side", "team", "tier", "stars", "edge_pct", "total_play",
	"home_off_rank", "home_def_rank", "visitor_off_rank", "visitor_def_rank",
}

// WriteCSV writes one row per projection with percentages rounded to one decimal
func WriteCSV(w io.Writer, run *models.ProjectionRun) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, p := range run.Projections {
		if err := cw.Write(csvRecord(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(p models.GameProjection) []string {
	g := p.Game
	r := p.Result
	c := p.Classification
	fixed := func(v float64) string {
		if !r.HasData {
			return ""
		}
		return Round1(v).StringFixed(1)
	}
	rank := func(tr *models.TeamRank, offense bool) string {
		if tr == nil {
			return ""
		}
		if offense {
			return fmt.Sprint(tr.OffensiveRank)
		}
		return fmt.Sprint(tr.DefensiveRank)
	}

	return []string{
		g.ID, g.AwayTeam, g.HomeTeam,
		Round1(g.Spread).StringFixed(1), Round1(g.Total).StringFixed(1),
		fmt.Sprint(r.HasData),
		fixed(r.HomeWinPct), fixed(r.HomeCoverPct), fixed(r.VisitorCoverPct), fixed(r.OverPct), fixed(r.UnderPct),
		fixed(r.ProjectedHomeScore), fixed(r.ProjectedVisitorScore), fixed(r.ProjectedLine()), fixed(r.ProjectedTotal),
		string(c.RecommendedSide), c.RecommendedTeam(g), string(c.ConfidenceTier), fmt.Sprint(c.StarRating),
		fixed(c.EdgePct), string(c.TotalPlay),
		rank(p.HomeRank, true), rank(p.HomeRank, false), rank(p.VisitorRank, true), rank(p.VisitorRank, false),
	}
}

// WriteJSON writes the run as indented JSON
func WriteJSON(w io.Writer, run *models.ProjectionRun) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

// GenerateCSVExport writes the run's CSV to outputPath, creating parent directories
func GenerateCSVExport(run *models.ProjectionRun, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error { return WriteCSV(w, run) })
}

// GenerateJSONExport writes the run's JSON to outputPath, creating parent directories
func GenerateJSONExport(run *models.ProjectionRun, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error { return WriteJSON(w, run) })
}

func writeFile(outputPath string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
