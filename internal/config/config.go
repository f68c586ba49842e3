// Package config loads the sync core's recognized options.
//
// Resolution order: built-in defaults, then the YAML config file (when
// present), then JANBU_-prefixed environment variables. Durations are
// configured in milliseconds on the wire and exposed as time.Duration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/parkminsu/janbu/internal/grade"
)

// Config holds every recognized option.
type Config struct {
	// RemoteURL is the base URL of the backend data store.
	RemoteURL string `yaml:"remote_url" env:"REMOTE_URL"`

	// APIKey authenticates against the backend. Optional.
	APIKey string `yaml:"api_key" env:"API_KEY"`

	// CachePath locates the local cache database file.
	CachePath string `yaml:"cache_path" env:"CACHE_PATH"`

	// CachePrefix namespaces cache keys ("<prefix>_<collection>").
	CachePrefix string `yaml:"cache_prefix" env:"CACHE_PREFIX"`

	// ProbeIntervalMS is the connectivity probe period.
	ProbeIntervalMS int `yaml:"probe_interval_ms" env:"PROBE_INTERVAL_MS"`

	// ProbeTimeoutMS bounds one probe; exceeding it counts as failure.
	ProbeTimeoutMS int `yaml:"probe_timeout_ms" env:"PROBE_TIMEOUT_MS"`

	// DebounceWindowMS suppresses duplicate status notifications.
	DebounceWindowMS int `yaml:"debounce_window_ms" env:"DEBOUNCE_WINDOW_MS"`

	// SettleDelayMS delays grade recomputation after a delivery.
	SettleDelayMS int `yaml:"settle_delay_ms" env:"SETTLE_DELAY_MS"`

	// GradeThresholds are the four ascending amounts gating each tier.
	GradeThresholds []int64 `yaml:"grade_thresholds" env:"GRADE_THRESHOLDS" envSeparator:","`

	// ResyncOnReconnect runs a full merge (not just a push) when
	// connectivity returns.
	ResyncOnReconnect bool `yaml:"resync_on_reconnect" env:"RESYNC_ON_RECONNECT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RemoteURL:         "http://localhost:8090",
		CachePath:         "janbu.db",
		CachePrefix:       "janbu",
		ProbeIntervalMS:   30000,
		ProbeTimeoutMS:    10000,
		DebounceWindowMS:  300000,
		SettleDelayMS:     3000,
		GradeThresholds:   []int64{100000, 300000, 500000, 1000000},
		ResyncOnReconnect: true,
	}
}

// Load resolves the configuration from defaults, the YAML file at path
// (skipped when path is empty or missing), and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "JANBU_"}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks invariants the sync core relies on.
func (c Config) Validate() error {
	if len(c.GradeThresholds) != 4 {
		return fmt.Errorf("grade_thresholds must have exactly 4 values, got %d", len(c.GradeThresholds))
	}
	for i := 1; i < len(c.GradeThresholds); i++ {
		if c.GradeThresholds[i] <= c.GradeThresholds[i-1] {
			return fmt.Errorf("grade_thresholds must be strictly ascending")
		}
	}
	if c.ProbeIntervalMS <= 0 || c.ProbeTimeoutMS <= 0 {
		return fmt.Errorf("probe interval and timeout must be positive")
	}
	return nil
}

// ProbeInterval returns the probe period as a duration.
func (c Config) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalMS) * time.Millisecond
}

// ProbeTimeout returns the probe timeout as a duration.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

// DebounceWindow returns the notification debounce window.
func (c Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceWindowMS) * time.Millisecond
}

// SettleDelay returns the delay before grade recomputation.
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

// Thresholds returns the grade thresholds in their typed form.
// Call after Validate.
func (c Config) Thresholds() grade.Thresholds {
	var th grade.Thresholds
	copy(th[:], c.GradeThresholds)
	return th
}
