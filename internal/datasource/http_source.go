package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/yourusername/edge-lab/internal/models"
)

const (
	statsHTTPSourceName    = "stats_http"
	scheduleHTTPSourceName = "schedule_http"

	maxBodyBytes = 16 << 20
)

// HTTPStatsSource fetches stat rows from a URL
type HTTPStatsSource struct {
	client *RateLimitedHTTPClient
	url    string
	format Format
}

// NewHTTPStatsSource creates an HTTP stats source; an empty format is inferred from the URL
func NewHTTPStatsSource(client *RateLimitedHTTPClient, url, format string) (*HTTPStatsSource, error) {
	f, err := resolveFormat(format, url)
	if err != nil {
		return nil, err
	}
	return &HTTPStatsSource{client: client, url: url, format: f}, nil
}

// Name returns the source name
func (s *HTTPStatsSource) Name() string {
	return statsHTTPSourceName
}

// FetchStats downloads, parses and merges the stat rows
func (s *HTTPStatsSource) FetchStats(ctx context.Context) ([]models.RawTeamStatRow, error) {
	rows, err := s.fetch(ctx)
	recordFetch(s.Name(), err)
	return rows, err
}

func (s *HTTPStatsSource) fetch(ctx context.Context) ([]models.RawTeamStatRow, error) {
	body, err := fetchBody(ctx, s.client, s.Name(), s.url)
	if err != nil {
		return nil, err
	}

	rows, err := ParseStats(bytes.NewReader(body), s.format)
	if err != nil {
		return nil, NewSourceError(s.Name(), ErrCodeInvalidData, "failed to parse response", err)
	}
	return MergeDuplicateRows(rows), nil
}

// HTTPScheduleSource fetches games from a URL
type HTTPScheduleSource struct {
	client *RateLimitedHTTPClient
	url    string
	format Format
}

// NewHTTPScheduleSource creates an HTTP schedule source; an empty format is inferred from the URL
func NewHTTPScheduleSource(client *RateLimitedHTTPClient, url, format string) (*HTTPScheduleSource, error) {
	f, err := resolveFormat(format, url)
	if err != nil {
		return nil, err
	}
	return &HTTPScheduleSource{client: client, url: url, format: f}, nil
}

// Name returns the source name
func (s *HTTPScheduleSource) Name() string {
	return scheduleHTTPSourceName
}

// FetchGames downloads and parses the schedule
func (s *HTTPScheduleSource) FetchGames(ctx context.Context) ([]models.Game, error) {
	games, err := s.fetch(ctx)
	recordFetch(s.Name(), err)
	return games, err
}

func (s *HTTPScheduleSource) fetch(ctx context.Context) ([]models.Game, error) {
	body, err := fetchBody(ctx, s.client, s.Name(), s.url)
	if err != nil {
		return nil, err
	}

	games, err := ParseSchedule(bytes.NewReader(body), s.format)
	if err != nil {
		return nil, NewSourceError(s.Name(), ErrCodeInvalidData, "failed to parse response", err)
	}
	return games, nil
}

func fetchBody(ctx context.Context, client *RateLimitedHTTPClient, source, url string) ([]byte, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, NewSourceError(source, ErrCodeNetworkError, "failed to fetch "+url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewSourceError(source, ErrCodeNotFound, url+" not found", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewSourceError(source, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewSourceError(source, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, NewSourceError(source, ErrCodeNetworkError, "failed to read response body", err)
	}
	return body, nil
}
