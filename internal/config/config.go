// Package config loads courtscout configuration from config.yaml and the
// environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig      `yaml:"store" mapstructure:"store"`
	Server    ServerConfig     `yaml:"server" mapstructure:"server"`
	Google    GoogleConfig     `yaml:"google" mapstructure:"google"`
	Overpass  OverpassConfig   `yaml:"overpass" mapstructure:"overpass"`
	Geocode   GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Discovery DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Import    ImportConfig     `yaml:"import" mapstructure:"import"`
	Monitor   MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the persisted-record backend. Driver "http" talks to a
// remote records API at BaseURL; "sqlite" and "postgres" open DatabaseURL
// directly.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the records API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// GoogleConfig holds Google Places text search settings.
type GoogleConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	MaxResults  int    `yaml:"max_results" mapstructure:"max_results"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OverpassConfig holds OpenStreetMap Overpass tag-query settings.
type OverpassConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Sport       string `yaml:"sport" mapstructure:"sport"`
	// Grid splits the region bbox into Grid x Grid tiles, one query each.
	Grid int `yaml:"grid" mapstructure:"grid"`
}

// GeocodeConfig holds geocoding settings used by the curated import and by
// OSM elements that lack address tags.
type GeocodeConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// DiscoveryConfig configures query planning, pacing, retry and dedup.
type DiscoveryConfig struct {
	RegionsFile string `yaml:"regions_file" mapstructure:"regions_file"`
	RulesFile   string `yaml:"rules_file" mapstructure:"rules_file"`

	DelayMS              int `yaml:"delay_ms" mapstructure:"delay_ms"`
	MaxAttempts          int `yaml:"max_attempts" mapstructure:"max_attempts"`
	RateLimitBackoffSecs int `yaml:"rate_limit_backoff_secs" mapstructure:"rate_limit_backoff_secs"`
	TransientBackoffMS   int `yaml:"transient_backoff_ms" mapstructure:"transient_backoff_ms"`

	PlacesThresholdM float64 `yaml:"places_threshold_m" mapstructure:"places_threshold_m"`
	OSMThresholdM    float64 `yaml:"osm_threshold_m" mapstructure:"osm_threshold_m"`

	TopTierSize    int      `yaml:"top_tier_size" mapstructure:"top_tier_size"`
	MidTierSize    int      `yaml:"mid_tier_size" mapstructure:"mid_tier_size"`
	TopCategories  []string `yaml:"top_categories" mapstructure:"top_categories"`
	MidCategories  []string `yaml:"mid_categories" mapstructure:"mid_categories"`
	TailCategories []string `yaml:"tail_categories" mapstructure:"tail_categories"`
	RegionSweep    []string `yaml:"region_sweep" mapstructure:"region_sweep"`
}

// Delay returns the inter-request delay.
func (d DiscoveryConfig) Delay() time.Duration {
	return time.Duration(d.DelayMS) * time.Millisecond
}

// RateLimitBackoff returns the flat cool-down after 429/503/504 responses.
func (d DiscoveryConfig) RateLimitBackoff() time.Duration {
	return time.Duration(d.RateLimitBackoffSecs) * time.Second
}

// TransientBackoff returns the flat delay after other transient faults.
func (d DiscoveryConfig) TransientBackoff() time.Duration {
	return time.Duration(d.TransientBackoffMS) * time.Millisecond
}

// ImportConfig configures import throttling.
type ImportConfig struct {
	ThrottleEvery   int `yaml:"throttle_every" mapstructure:"throttle_every"`
	ThrottlePauseMS int `yaml:"throttle_pause_ms" mapstructure:"throttle_pause_ms"`
}

// ThrottlePause returns the pause taken every ThrottleEvery imports.
func (c ImportConfig) ThrottlePause() time.Duration {
	return time.Duration(c.ThrottlePauseMS) * time.Millisecond
}

// MonitoringConfig configures post-run alerting.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COURTSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	// Keys without a meaningful default are registered so env overrides reach Unmarshal.
	v.SetDefault("google.key", "")
	v.SetDefault("geocode.key", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("discovery.regions_file", "")
	v.SetDefault("discovery.rules_file", "")

	v.SetDefault("store.driver", "http")
	v.SetDefault("store.base_url", "http://localhost:8080")
	v.SetDefault("store.timeout_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Google Places text search: short interactive timeout, 20 results.
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.max_results", 20)
	v.SetDefault("google.timeout_secs", 15)

	// Overpass bulk tag queries over a state bbox can take minutes.
	v.SetDefault("overpass.base_url", "https://overpass-api.de/api")
	v.SetDefault("overpass.timeout_secs", 300)
	v.SetDefault("overpass.sport", "basketball")
	v.SetDefault("overpass.grid", 2)

	v.SetDefault("geocode.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocode.rate_limit", 10)
	v.SetDefault("geocode.concurrency", 4)

	v.SetDefault("discovery.delay_ms", 200)
	v.SetDefault("discovery.max_attempts", 3)
	v.SetDefault("discovery.rate_limit_backoff_secs", 20)
	v.SetDefault("discovery.transient_backoff_ms", 2000)
	v.SetDefault("discovery.places_threshold_m", 100)
	v.SetDefault("discovery.osm_threshold_m", 50)
	v.SetDefault("discovery.top_tier_size", 8)
	v.SetDefault("discovery.mid_tier_size", 17)
	v.SetDefault("discovery.top_categories", []string{
		"elementary school gym",
		"middle school gym",
		"high school gymnasium",
		"private school gym",
		"college gymnasium",
		"gym",
		"recreation center",
		"community center",
		"fitness club with basketball court",
		"indoor basketball court",
	})
	v.SetDefault("discovery.mid_categories", []string{
		"school gymnasium",
		"gym",
		"recreation center",
	})
	v.SetDefault("discovery.tail_categories", []string{"school gymnasium"})
	v.SetDefault("discovery.region_sweep", []string{
		"YMCA",
		"Boys & Girls Club",
		"LA Fitness",
		"Life Time Fitness",
		"24 Hour Fitness",
		"basketball training facility",
	})

	v.SetDefault("import.throttle_every", 10)
	v.SetDefault("import.throttle_pause_ms", 500)

	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
}

// Validate checks that the settings a command section depends on are present.
func (c *Config) Validate(section string) error {
	switch section {
	case "places":
		if c.Google.Key == "" {
			return eris.New("config: google.key is required for places discovery")
		}
		return c.Validate("store")
	case "osm":
		if c.Overpass.BaseURL == "" {
			return eris.New("config: overpass.base_url is required for osm discovery")
		}
		return c.Validate("store")
	case "geocode":
		if c.Geocode.Key == "" {
			return eris.New("config: geocode.key is required")
		}
		return c.Validate("store")
	case "store":
		switch c.Store.Driver {
		case "http":
			if c.Store.BaseURL == "" {
				return eris.New("config: store.base_url is required for the http driver")
			}
		case "sqlite", "postgres":
			if c.Store.DatabaseURL == "" {
				return eris.Errorf("config: store.database_url is required for the %s driver", c.Store.Driver)
			}
		default:
			return eris.Errorf("config: unknown store driver %q (valid: http, sqlite, postgres)", c.Store.Driver)
		}
		return nil
	case "serve":
		if c.Server.Port <= 0 {
			return eris.New("config: server.port must be > 0")
		}
		if c.Store.Driver == "http" {
			return eris.New("config: serve needs a sqlite or postgres store driver")
		}
		return c.Validate("store")
	default:
		return eris.Errorf("config: unknown mode %q", section)
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
