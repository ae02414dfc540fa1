// Package datasource loads league stat rows and game schedules from files or HTTP feeds.
package datasource

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/yourusername/edge-lab/internal/models"
)

// StatsSource supplies raw per-team stat rows for one evaluation window
type StatsSource interface {
	// FetchStats retrieves the stat rows, duplicate teams already merged
	FetchStats(ctx context.Context) ([]models.RawTeamStatRow, error)

	// Name returns the name of the source, used as a metrics label
	Name() string
}

// ScheduleSource supplies the slate of games to project
type ScheduleSource interface {
	// FetchGames retrieves the games in feed order
	FetchGames(ctx context.Context) ([]models.Game, error)

	// Name returns the name of the source, used as a metrics label
	Name() string
}

// Format identifies the encoding of a stats or schedule input
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	// FormatText is one team per line: "team off def [tempo]"
	FormatText Format = "text"
)

// ParseFormat converts a configured format name into a Format
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// DetectFormat infers a Format from a file path or URL extension, defaulting to JSON
func DetectFormat(location string) Format {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	switch strings.ToLower(path.Ext(location)) {
	case ".csv":
		return FormatCSV
	case ".txt":
		return FormatText
	default:
		return FormatJSON
	}
}

// resolveFormat prefers an explicit format over the location's extension
func resolveFormat(explicit, location string) (Format, error) {
	if explicit != "" {
		return ParseFormat(explicit)
	}
	return DetectFormat(location), nil
}
