package datasource

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/edge-lab/internal/metrics"
	"github.com/yourusername/edge-lab/internal/models"
)

const statsCacheKey = "stats"

// CachedStatsSource memoizes another StatsSource for a fixed TTL
type CachedStatsSource struct {
	inner StatsSource
	cache *gocache.Cache
}

// NewCachedStatsSource wraps inner with a TTL cache
func NewCachedStatsSource(inner StatsSource, ttl time.Duration) *CachedStatsSource {
	return &CachedStatsSource{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Name returns the wrapped source's name
func (s *CachedStatsSource) Name() string {
	return s.inner.Name()
}

// FetchStats returns cached rows when fresh, otherwise fetches and caches them.
// Callers get their own copy of the slice.
func (s *CachedStatsSource) FetchStats(ctx context.Context) ([]models.RawTeamStatRow, error) {
	if cached, ok := s.cache.Get(statsCacheKey); ok {
		metrics.RecordStatsFetch(s.Name(), metrics.FetchCached)
		return copyRows(cached.([]models.RawTeamStatRow)), nil
	}

	rows, err := s.inner.FetchStats(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(statsCacheKey, copyRows(rows))
	return rows, nil
}

// Invalidate drops the cached rows so the next fetch goes to the inner source
func (s *CachedStatsSource) Invalidate() {
	s.cache.Delete(statsCacheKey)
}

func copyRows(rows []models.RawTeamStatRow) []models.RawTeamStatRow {
	out := make([]models.RawTeamStatRow, len(rows))
	copy(out, rows)
	return out
}
