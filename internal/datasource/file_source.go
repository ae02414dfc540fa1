package datasource

import (
	"context"
	"errors"
	"os"

	"github.com/yourusername/edge-lab/internal/metrics"
	"github.com/yourusername/edge-lab/internal/models"
)

const (
	statsFileSourceName    = "stats_file"
	scheduleFileSourceName = "schedule_file"
)

// FileStatsSource reads stat rows from a local file
type FileStatsSource struct {
	path   string
	format Format
}

// NewFileStatsSource creates a file stats source; an empty format is inferred from the extension
func NewFileStatsSource(path, format string) (*FileStatsSource, error) {
	f, err := resolveFormat(format, path)
	if err != nil {
		return nil, err
	}
	return &FileStatsSource{path: path, format: f}, nil
}

// Name returns the source name
func (s *FileStatsSource) Name() string {
	return statsFileSourceName
}

// FetchStats reads, parses and merges the stat rows
func (s *FileStatsSource) FetchStats(ctx context.Context) ([]models.RawTeamStatRow, error) {
	rows, err := s.fetch(ctx)
	recordFetch(s.Name(), err)
	return rows, err
}

func (s *FileStatsSource) fetch(ctx context.Context) ([]models.RawTeamStatRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		code := ErrCodeIO
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, NewSourceError(s.Name(), code, "failed to open "+s.path, err)
	}
	defer f.Close()

	rows, err := ParseStats(f, s.format)
	if err != nil {
		return nil, NewSourceError(s.Name(), ErrCodeInvalidData, "failed to parse "+s.path, err)
	}
	return MergeDuplicateRows(rows), nil
}

// FileScheduleSource reads games from a local file
type FileScheduleSource struct {
	path   string
	format Format
}

// NewFileScheduleSource creates a file schedule source; an empty format is inferred from the extension
func NewFileScheduleSource(path, format string) (*FileScheduleSource, error) {
	f, err := resolveFormat(format, path)
	if err != nil {
		return nil, err
	}
	return &FileScheduleSource{path: path, format: f}, nil
}

// Name returns the source name
func (s *FileScheduleSource) Name() string {
	return scheduleFileSourceName
}

// FetchGames reads and parses the schedule
func (s *FileScheduleSource) FetchGames(ctx context.Context) ([]models.Game, error) {
	games, err := s.fetch(ctx)
	recordFetch(s.Name(), err)
	return games, err
}

func (s *FileScheduleSource) fetch(ctx context.Context) ([]models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		code := ErrCodeIO
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, NewSourceError(s.Name(), code, "failed to open "+s.path, err)
	}
	defer f.Close()

	games, err := ParseSchedule(f, s.format)
	if err != nil {
		return nil, NewSourceError(s.Name(), ErrCodeInvalidData, "failed to parse "+s.path, err)
	}
	return games, nil
}

func recordFetch(source string, err error) {
	status := metrics.FetchSuccess
	if err != nil {
		status = metrics.FetchError
	}
	metrics.RecordStatsFetch(source, status)
}
