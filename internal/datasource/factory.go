package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-lab/internal/config"
)

// Factory creates stats and schedule sources from configuration
type Factory struct {
	cfg        config.SourcesConfig
	logger     *logrus.Logger
	httpClient *RateLimitedHTTPClient
}

// NewFactory creates a new source factory
func NewFactory(cfg config.SourcesConfig, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// NewStatsSource creates the configured stats source. A URL takes
// precedence over a path, and a positive cache TTL wraps the result.
func (f *Factory) NewStatsSource() (StatsSource, error) {
	var (
		src StatsSource
		err error
	)

	if f.cfg.Stats.URL != "" {
		src, err = NewHTTPStatsSource(f.client(), f.cfg.Stats.URL, f.cfg.Stats.Format)
	} else {
		src, err = NewFileStatsSource(f.cfg.Stats.Path, f.cfg.Stats.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create stats source: %w", err)
	}

	if f.cfg.CacheTTLSeconds > 0 {
		src = NewCachedStatsSource(src, f.cacheTTL())
	}

	f.logger.WithField("source", src.Name()).Debug("Created stats source")
	return src, nil
}

// NewScheduleSource creates the configured schedule source
func (f *Factory) NewScheduleSource() (ScheduleSource, error) {
	var (
		src ScheduleSource
		err error
	)

	if f.cfg.Schedule.URL != "" {
		src, err = NewHTTPScheduleSource(f.client(), f.cfg.Schedule.URL, f.cfg.Schedule.Format)
	} else {
		src, err = NewFileScheduleSource(f.cfg.Schedule.Path, f.cfg.Schedule.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule source: %w", err)
	}

	f.logger.WithField("source", src.Name()).Debug("Created schedule source")
	return src, nil
}

// Close releases the shared HTTP client, if one was created
func (f *Factory) Close() error {
	if f.httpClient == nil {
		return nil
	}
	return f.httpClient.Close()
}

func (f *Factory) client() *RateLimitedHTTPClient {
	if f.httpClient == nil {
		f.httpClient = NewRateLimitedHTTPClient(HTTPClientConfigFrom(f.cfg.HTTP), f.logger)
	}
	return f.httpClient
}

func (f *Factory) cacheTTL() time.Duration {
	return time.Duration(f.cfg.CacheTTLSeconds) * time.Second
}
