package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "EDGE_LAB"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for every optional field.
// A missing file is not an error; defaults and environment variables still apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults registers every key so AutomaticEnv can override it without a file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "edge-lab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("simulation.k_factor", 35.0)
	v.SetDefault("simulation.baseline_score", 21.5)
	v.SetDefault("simulation.home_field_advantage", 1.5)
	v.SetDefault("simulation.trials", 2000)
	v.SetDefault("simulation.std_dev", 13.5)
	v.SetDefault("simulation.use_tempo", false)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.workers", 4)

	v.SetDefault("classifier.cover_threshold", 53.0)
	v.SetDefault("classifier.low_threshold", 55.0)
	v.SetDefault("classifier.medium_threshold", 57.0)
	v.SetDefault("classifier.high_threshold", 60.0)
	v.SetDefault("classifier.total_threshold", 55.0)

	v.SetDefault("sources.stats.path", "data/stats.json")
	v.SetDefault("sources.stats.url", "")
	v.SetDefault("sources.stats.format", "")
	v.SetDefault("sources.schedule.path", "data/schedule.json")
	v.SetDefault("sources.schedule.url", "")
	v.SetDefault("sources.schedule.format", "")
	v.SetDefault("sources.http.timeout_seconds", 10)
	v.SetDefault("sources.http.max_retries", 3)
	v.SetDefault("sources.http.rate_limit", 2.0)
	v.SetDefault("sources.cache_ttl_seconds", 300)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "edge_lab")
	v.SetDefault("database.user", "edge_lab")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("schedule.cron", "")
	v.SetDefault("schedule.timeout_seconds", 300)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("health.port", "8080")

	v.SetDefault("secrets.aws_enabled", false)
	v.SetDefault("secrets.region", "")
	v.SetDefault("secrets.secret_name", "")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}
