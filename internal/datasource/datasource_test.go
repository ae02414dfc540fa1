package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edge-lab/internal/config"
	"github.com/yourusername/edge-lab/internal/models"
)

const statsJSON = `[
  {"team": "KC", "off_epa": 0.12, "def_epa": -0.05, "tempo": 31},
  {"team": "buf", "off_epa": "0.10", "def_epa": null, "off_pass_epa": 0.2},
  {"team": "LA", "off_epa": 0.01, "def_epa": 0.02}
]`

const scheduleJSON = `[
  {"id": "g1", "home": "KC", "visitor": "BUF", "spread": -2.5, "total": 47.5},
  {"id": "g2", "home": "la", "visitor": "sf", "spread": 3, "total": 44}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&strings.Builder{})
	return log
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{" CSV ", FormatCSV, false},
		{"text", FormatText, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("data/stats.CSV"))
	assert.Equal(t, FormatText, DetectFormat("ratings.txt"))
	assert.Equal(t, FormatJSON, DetectFormat("weekly_stats.json"))
	assert.Equal(t, FormatCSV, DetectFormat("https://example.com/epa.csv?week=3"))
	assert.Equal(t, FormatJSON, DetectFormat("https://example.com/stats"))
}

func TestParseStatsJSON(t *testing.T) {
	rows, err := ParseStats(strings.NewReader(statsJSON), FormatJSON)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "KC", rows[0].Team)
	assert.Equal(t, 0.12, rows[0].OffensiveEPA)
	assert.Equal(t, float64(31), rows[0].Tempo)
	assert.Equal(t, "0.10", rows[1].OffensiveEPA)
	assert.Nil(t, rows[1].DefensiveEPA)
	assert.Nil(t, rows[1].Tempo)
}

func TestParseStatsJSONInvalid(t *testing.T) {
	_, err := ParseStats(strings.NewReader(`{"team":`), FormatJSON)
	require.Error(t, err)

	_, err = ParseStats(strings.NewReader(`[]`), FormatJSON)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ParseStats(strings.NewReader(``), FormatJSON)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParseStatsCSV(t *testing.T) {
	input := "Team,Off_EPA,def_epa,off_pass_epa,Tempo\n" +
		"KC,0.12,-0.05,0.2,31\n" +
		"BUF,0.10,,,\n" +
		",0.3,0.3,,\n"

	rows, err := ParseStats(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "KC", rows[0].Team)
	assert.Equal(t, "0.12", rows[0].OffensiveEPA)
	assert.Equal(t, "0.2", rows[0].OffPassEPA)
	assert.Nil(t, rows[0].OffRushEPA)
	assert.Equal(t, "31", rows[0].Tempo)
	assert.Nil(t, rows[1].DefensiveEPA)
	assert.Nil(t, rows[1].Tempo)
}

func TestParseStatsCSVMissingColumn(t *testing.T) {
	_, err := ParseStats(strings.NewReader("team,off_epa\nKC,0.1\n"), FormatCSV)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "def")
}

func TestParseStatsText(t *testing.T) {
	input := `# team off def tempo
KC 0.12 -0.05 31
San Francisco 49ers 0.15 -0.10

Denver -0.02, 0.01
garbage line
Solo 0.5
`
	rows, err := ParseStats(strings.NewReader(input), FormatText)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "KC", rows[0].Team)
	assert.Equal(t, 0.12, rows[0].OffensiveEPA)
	assert.Equal(t, -0.05, rows[0].DefensiveEPA)
	assert.Equal(t, 31.0, rows[0].Tempo)

	assert.Equal(t, "San Francisco 49ers", rows[1].Team)
	assert.Equal(t, 0.15, rows[1].OffensiveEPA)
	assert.Nil(t, rows[1].Tempo)

	assert.Equal(t, "Denver", rows[2].Team)
	assert.Equal(t, -0.02, rows[2].OffensiveEPA)
}

func TestParseStatsUnsupported(t *testing.T) {
	_, err := ParseStats(strings.NewReader("x"), Format("yaml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseScheduleJSON(t *testing.T) {
	games, err := ParseSchedule(strings.NewReader(scheduleJSON), FormatJSON)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, models.Game{ID: "g1", HomeTeam: "KC", AwayTeam: "BUF", Spread: -2.5, Total: 47.5}, games[0])
	assert.Equal(t, "LAR", games[1].HomeTeam)
	assert.Equal(t, "SF", games[1].AwayTeam)
}

func TestParseScheduleCSV(t *testing.T) {
	input := "game_id,home,away,spread,total\n" +
		"g1,KC,BUF,-2.5,47.5\n" +
		"g2,DAL,NYG,-7,41\n"

	games, err := ParseSchedule(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "NYG", games[1].AwayTeam)
	assert.Equal(t, -7.0, games[1].Spread)
}

func TestParseScheduleErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
		target error
	}{
		{"bad spread", "id,home,visitor,spread,total\ng1,KC,BUF,pk,47\n", FormatCSV, ErrInvalidRecord},
		{"missing column", "id,home,visitor,total\ng1,KC,BUF,47\n", FormatCSV, ErrMissingColumn},
		{"missing team", `[{"id":"g1","home":"KC","spread":1,"total":40}]`, FormatJSON, ErrInvalidRecord},
		{"empty", "id,home,visitor,spread,total\n", FormatCSV, ErrEmptyInput},
		{"text unsupported", "KC BUF", FormatText, ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedule(strings.NewReader(tt.input), tt.format)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestMergeDuplicateRows(t *testing.T) {
	rows := []models.RawTeamStatRow{
		{Team: "kc", OffensiveEPA: 0.1, DefensiveEPA: nil, Tempo: ""},
		{Team: "BUF", OffensiveEPA: 0.2, DefensiveEPA: 0.0},
		{Team: " KC ", OffensiveEPA: 0.9, DefensiveEPA: -0.1, Tempo: 30.0},
		{Team: "", OffensiveEPA: 1.0},
		{Team: "LA", OffensiveEPA: 0.3},
		{Team: "LAR", DefensiveEPA: 0.4},
	}

	merged := MergeDuplicateRows(rows)
	require.Len(t, merged, 3)

	assert.Equal(t, "KC", merged[0].Team)
	assert.Equal(t, 0.1, merged[0].OffensiveEPA, "first non-null value is kept")
	assert.Equal(t, -0.1, merged[0].DefensiveEPA, "null is filled from the duplicate")
	assert.Equal(t, 30.0, merged[0].Tempo, "blank string counts as null")

	assert.Equal(t, "BUF", merged[1].Team)
	assert.Equal(t, "LAR", merged[2].Team)
	assert.Equal(t, 0.3, merged[2].OffensiveEPA)
	assert.Equal(t, 0.4, merged[2].DefensiveEPA)
}

func TestNormalizeTeam(t *testing.T) {
	assert.Equal(t, "LAR", NormalizeTeam(" la "))
	assert.Equal(t, "LAC", NormalizeTeam("LAC"))
	assert.Equal(t, "JAX", NormalizeTeam("jac"))
	assert.Equal(t, "", NormalizeTeam("  "))
}

func TestFileStatsSource(t *testing.T) {
	path := writeFile(t, "stats.json", statsJSON)
	src, err := NewFileStatsSource(path, "")
	require.NoError(t, err)
	assert.Equal(t, "stats_file", src.Name())

	rows, err := src.FetchStats(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "BUF", rows[1].Team)
	assert.Equal(t, "LAR", rows[2].Team)
}

func TestFileStatsSourceMissingFile(t *testing.T) {
	src, err := NewFileStatsSource(filepath.Join(t.TempDir(), "absent.json"), "json")
	require.NoError(t, err)

	_, err = src.FetchStats(context.Background())
	require.Error(t, err)

	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, ErrCodeNotFound, srcErr.Code)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileStatsSourceParseError(t *testing.T) {
	path := writeFile(t, "stats.csv", "team,off\nKC,1\n")
	src, err := NewFileStatsSource(path, "")
	require.NoError(t, err)

	_, err = src.FetchStats(context.Background())
	assert.ErrorIs(t, err, ErrMissingColumn)

	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, ErrCodeInvalidData, srcErr.Code)
}

func TestFileSourceCanceledContext(t *testing.T) {
	path := writeFile(t, "schedule.json", scheduleJSON)
	src, err := NewFileScheduleSource(path, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.FetchGames(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileScheduleSource(t *testing.T) {
	path := writeFile(t, "schedule.json", scheduleJSON)
	src, err := NewFileScheduleSource(path, "")
	require.NoError(t, err)

	games, err := src.FetchGames(context.Background())
	require.NoError(t, err)
	assert.Len(t, games, 2)
}

func TestNewFileSourceBadFormat(t *testing.T) {
	_, err := NewFileStatsSource("stats.json", "xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func testHTTPClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 2
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	cfg.RateLimit = 0
	return NewRateLimitedHTTPClient(cfg, quietLogger())
}

func TestHTTPStatsSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/week/3/stats.csv", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("team,off_epa,def_epa\nKC,0.1,-0.1\nkc,,0.2\n"))
	}))
	defer server.Close()

	client := testHTTPClient()
	defer client.Close()

	src, err := NewHTTPStatsSource(client, server.URL+"/week/3/stats.csv", "")
	require.NoError(t, err)

	rows, err := src.FetchStats(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "0.1", rows[0].OffensiveEPA)
	assert.Equal(t, "-0.1", rows[0].DefensiveEPA)
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(scheduleJSON))
	}))
	defer server.Close()

	src, err := NewHTTPScheduleSource(testHTTPClient(), server.URL, "json")
	require.NoError(t, err)

	games, err := src.FetchGames(context.Background())
	require.NoError(t, err)
	assert.Len(t, games, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSourceStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
	}{
		{"not found", http.StatusNotFound, ErrCodeNotFound},
		{"bad request", http.StatusBadRequest, ErrCodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			src, err := NewHTTPStatsSource(testHTTPClient(), server.URL, "json")
			require.NoError(t, err)

			_, err = src.FetchStats(context.Background())
			var srcErr *SourceError
			require.True(t, errors.As(err, &srcErr))
			assert.Equal(t, tt.code, srcErr.Code)
			assert.Equal(t, "stats_http", srcErr.Source)
		})
	}
}

func TestHTTPClientCircuitBreaker(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 0
	cfg.CircuitBreakerMax = 2
	client := NewRateLimitedHTTPClient(cfg, quietLogger())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), url)
		require.Error(t, err)
	}

	_, err := client.Get(context.Background(), url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestHTTPClientCircuitBreakerRecovers(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 0
	cfg.CircuitBreakerMax = 2
	cfg.CircuitBreakerReset = 50 * time.Millisecond
	client := NewRateLimitedHTTPClient(cfg, quietLogger())

	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
				conn.Close()
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), server.URL)
		require.Error(t, err)
	}

	healthy.Store(true)
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")

	time.Sleep(80 * time.Millisecond)
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestHTTPClientCircuitBreakerReopensOnFailedTrial(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 0
	cfg.CircuitBreakerMax = 1
	cfg.CircuitBreakerReset = 50 * time.Millisecond
	client := NewRateLimitedHTTPClient(cfg, quietLogger())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := client.Get(context.Background(), url)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "circuit breaker open")

	time.Sleep(80 * time.Millisecond)
	_, err = client.Get(context.Background(), url)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "circuit breaker open", "trial request should reach the upstream")

	_, err = client.Get(context.Background(), url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestHTTPClientCanceledContextDoesNotTrip(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 0
	cfg.CircuitBreakerMax = 1
	client := NewRateLimitedHTTPClient(cfg, quietLogger())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			time.Sleep(200 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Get(ctx, server.URL+"/slow")
	require.Error(t, err)

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()
}

type countingStatsSource struct {
	calls int
	rows  []models.RawTeamStatRow
	err   error
}

func (c *countingStatsSource) Name() string { return "counting" }

func (c *countingStatsSource) FetchStats(context.Context) ([]models.RawTeamStatRow, error) {
	c.calls++
	return c.rows, c.err
}

func TestCachedStatsSource(t *testing.T) {
	inner := &countingStatsSource{rows: []models.RawTeamStatRow{{Team: "KC", OffensiveEPA: 0.1}}}
	cached := NewCachedStatsSource(inner, time.Minute)

	first, err := cached.FetchStats(context.Background())
	require.NoError(t, err)
	first[0].Team = "MUTATED"

	second, err := cached.FetchStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "KC", second[0].Team)
	assert.Equal(t, "counting", cached.Name())

	cached.Invalidate()
	_, err = cached.FetchStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedStatsSourceDoesNotCacheErrors(t *testing.T) {
	inner := &countingStatsSource{err: errors.New("boom")}
	cached := NewCachedStatsSource(inner, time.Minute)

	_, err := cached.FetchStats(context.Background())
	require.Error(t, err)
	_, err = cached.FetchStats(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestFactory(t *testing.T) {
	statsPath := writeFile(t, "stats.txt", "KC 0.1 -0.1\nBUF 0.2 0.0\n")
	schedulePath := writeFile(t, "schedule.json", scheduleJSON)

	f := NewFactory(config.SourcesConfig{
		Stats:           config.SourceConfig{Path: statsPath},
		Schedule:        config.SourceConfig{Path: schedulePath},
		CacheTTLSeconds: 60,
	}, quietLogger())
	defer f.Close()

	stats, err := f.NewStatsSource()
	require.NoError(t, err)
	assert.IsType(t, &CachedStatsSource{}, stats)

	rows, err := stats.FetchStats(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	schedule, err := f.NewScheduleSource()
	require.NoError(t, err)
	assert.IsType(t, &FileScheduleSource{}, schedule)
}

func TestFactoryPrefersURL(t *testing.T) {
	f := NewFactory(config.SourcesConfig{
		Stats:    config.SourceConfig{Path: "ignored.json", URL: "https://example.com/stats.json"},
		Schedule: config.SourceConfig{URL: "https://example.com/schedule.csv"},
	}, nil)
	defer f.Close()

	stats, err := f.NewStatsSource()
	require.NoError(t, err)
	assert.IsType(t, &HTTPStatsSource{}, stats)

	schedule, err := f.NewScheduleSource()
	require.NoError(t, err)
	require.IsType(t, &HTTPScheduleSource{}, schedule)
	assert.Equal(t, FormatCSV, schedule.(*HTTPScheduleSource).format)
}
