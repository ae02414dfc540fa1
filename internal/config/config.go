// Package config provides configuration management for the edge-lab application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation" validate:"required"`
	Classifier ClassifierConfig `mapstructure:"classifier" validate:"required"`
	Sources    SourcesConfig    `mapstructure:"sources" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Health     HealthConfig     `mapstructure:"health"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// SimulationConfig holds the projection engine hyperparameters
type SimulationConfig struct {
	KFactor            float64 `mapstructure:"k_factor" validate:"gt=0"`
	BaselineScore      float64 `mapstructure:"baseline_score" validate:"gte=0"`
	HomeFieldAdvantage float64 `mapstructure:"home_field_advantage"`
	Trials             int     `mapstructure:"trials" validate:"required,gt=0,lte=1000000"`
	StdDev             float64 `mapstructure:"std_dev" validate:"gte=0"`
	UseTempo           bool    `mapstructure:"use_tempo"`
	Seed               int64   `mapstructure:"seed"`
	Workers            int     `mapstructure:"workers" validate:"gte=0"`
}

// ClassifierConfig holds the cover/total thresholds, in percent
type ClassifierConfig struct {
	CoverThreshold  float64 `mapstructure:"cover_threshold" validate:"gt=50,lte=100"`
	LowThreshold    float64 `mapstructure:"low_threshold" validate:"gt=50,lte=100"`
	MediumThreshold float64 `mapstructure:"medium_threshold" validate:"gt=50,lte=100"`
	HighThreshold   float64 `mapstructure:"high_threshold" validate:"gt=50,lte=100"`
	TotalThreshold  float64 `mapstructure:"total_threshold" validate:"gt=50,lte=100"`
}

// SourcesConfig locates the league stats and the schedule
type SourcesConfig struct {
	Stats    SourceConfig     `mapstructure:"stats" validate:"required"`
	Schedule SourceConfig     `mapstructure:"schedule" validate:"required"`
	HTTP     HTTPSourceConfig `mapstructure:"http"`
	// CacheTTLSeconds caches fetched rows; 0 disables caching
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
}

// SourceConfig represents a single file or URL input
type SourceConfig struct {
	Path   string `mapstructure:"path" validate:"required_without=URL"`
	URL    string `mapstructure:"url" validate:"omitempty,url"`
	Format string `mapstructure:"format" validate:"omitempty,statsformat"`
}

// HTTPSourceConfig tunes the HTTP client used for URL sources
type HTTPSourceConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	MaxRetries     int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required_if=Enabled true"`
	User               string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// ScheduleConfig represents projection scheduling in serve mode
type ScheduleConfig struct {
	Cron           string `mapstructure:"cron"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HealthConfig configures the health/metrics HTTP server
type HealthConfig struct {
	Port string `mapstructure:"port"`
}

// SecretsConfig enables overlaying secrets from AWS Secrets Manager
type SecretsConfig struct {
	AWSEnabled bool   `mapstructure:"aws_enabled"`
	Region     string `mapstructure:"region" validate:"required_if=AWSEnabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=AWSEnabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ScheduleTimeout returns the per-run deadline for scheduled projections
func (c *Config) ScheduleTimeout() time.Duration {
	if c.Schedule.TimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Schedule.TimeoutSeconds) * time.Second
}

// CacheTTL returns the stats cache TTL
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Sources.CacheTTLSeconds) * time.Second
}
