package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/newthinker/prism/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig               `mapstructure:"server"`
	Storage    StorageConfig              `mapstructure:"storage"`
	Collectors map[string]CollectorConfig `mapstructure:"collectors"`
	Analysis   AnalysisConfig             `mapstructure:"analysis"`
	Smoothing  SmoothingConfig            `mapstructure:"smoothing"`
	Notifiers  map[string]NotifierConfig  `mapstructure:"notifiers"`
	Metrics    MetricsConfig              `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Mode        string `mapstructure:"mode"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

type StorageConfig struct {
	Artifacts ArtifactStorageConfig `mapstructure:"artifacts"`
	History   HistoryConfig         `mapstructure:"history"`
}

// ArtifactStorageConfig selects where full analysis results are written.
type ArtifactStorageConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

// HistoryConfig bounds the in-memory report history.
type HistoryConfig struct {
	MaxReports int `mapstructure:"max_reports"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type CollectorConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Markets []string `mapstructure:"markets"`
	BaseURL string   `mapstructure:"base_url"`
	APIKey  string   `mapstructure:"api_key"`
}

// AnalysisConfig holds the defaults applied to every analysis run.
type AnalysisConfig struct {
	Window       int      `mapstructure:"window"`
	Interval     string   `mapstructure:"interval"`
	MarketSymbol string   `mapstructure:"market_symbol"`
	Market       string   `mapstructure:"market"`
	Source       string   `mapstructure:"source"`
	Watchlist    []string `mapstructure:"watchlist"`
}

// SmoothingConfig holds output smoothing settings.
type SmoothingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Window  int  `mapstructure:"window"`
	Degree  int  `mapstructure:"degree"`
}

type NotifierConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	URL      string `mapstructure:"url"`
	// Email notifier fields
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	// Webhook notifier fields
	Headers map[string]string `mapstructure:"headers"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Mode:        "release",
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Storage: StorageConfig{
			Artifacts: ArtifactStorageConfig{
				Enabled: false,
				Type:    "localfs",
				Path:    "./artifacts",
			},
			History: HistoryConfig{
				MaxReports: 1000,
			},
		},
		Analysis: AnalysisConfig{
			Window:       30,
			Interval:     "1d",
			MarketSymbol: "^GSPC",
			Market:       "US",
		},
		Smoothing: SmoothingConfig{
			Enabled: true,
			Window:  21,
			Degree:  3,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Analysis validation
	if c.Analysis.Window < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("analysis window must be positive, got %d", c.Analysis.Window))
	}
	if c.Analysis.MarketSymbol == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("analysis market_symbol is required"))
	}

	// Smoothing validation
	if c.Smoothing.Enabled {
		if c.Smoothing.Window < 3 || c.Smoothing.Window%2 == 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("smoothing window must be odd and at least 3, got %d", c.Smoothing.Window))
		}
		if c.Smoothing.Degree < 1 || c.Smoothing.Degree >= c.Smoothing.Window {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("smoothing degree must be in [1, window), got %d", c.Smoothing.Degree))
		}
	}

	// Storage validation
	if c.Storage.Artifacts.Enabled {
		switch c.Storage.Artifacts.Type {
		case "localfs":
			if c.Storage.Artifacts.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("artifact path required for localfs storage"))
			}
		case "s3":
			if c.Storage.Artifacts.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("s3 bucket required for s3 storage"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown artifact storage type %q", c.Storage.Artifacts.Type))
		}
	}

	return nil
}
