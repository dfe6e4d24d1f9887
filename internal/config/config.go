package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API       APIConfig     `yaml:"api" mapstructure:"api"`
	Geocode   GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Stream    StreamConfig  `yaml:"stream" mapstructure:"stream"`
	Log       LogConfig     `yaml:"log" mapstructure:"log"`
	Metrics   MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	ConfigDir string        `yaml:"config_dir" mapstructure:"config_dir"`
}

// APIConfig configures the search backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Token   string `yaml:"token" mapstructure:"token"`
}

// GeocodeConfig configures reverse geocoding.
type GeocodeConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	AccessToken string  `yaml:"access_token" mapstructure:"access_token"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// StreamConfig configures the search event stream.
type StreamConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the stream timeout, or zero when streams may run
// indefinitely.
func (c StreamConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables
// it.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("geofeed")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir := defaultConfigDir(); dir != "" {
		v.AddConfigPath(dir)
	}

	// Environment
	v.SetEnvPrefix("GEOFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "http://localhost:8080/")
	v.SetDefault("api.token", "")
	v.SetDefault("geocode.base_url", "https://api.mapbox.com")
	v.SetDefault("geocode.access_token", "")
	v.SetDefault("geocode.rate_limit", 10.0)
	v.SetDefault("stream.timeout_secs", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("config_dir", defaultConfigDir())

	// Read config file (optional)
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

// Validate checks the settings a search needs.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return eris.New("config: api.base_url is required")
	}
	if c.Geocode.RateLimit < 0 {
		return eris.Errorf("config: geocode.rate_limit must not be negative, got %g", c.Geocode.RateLimit)
	}
	if c.Stream.TimeoutSecs < 0 {
		return eris.Errorf("config: stream.timeout_secs must not be negative, got %d", c.Stream.TimeoutSecs)
	}
	return nil
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "geofeed")
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
