package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rewired-gh/bikeshare/internal/models"
	"github.com/rewired-gh/bikeshare/internal/pipeline"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Server    ServerConfig    `mapstructure:"server"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DatasetConfig locates the hourly and daily CSV files and their download sources
type DatasetConfig struct {
	HourlyPath     string        `mapstructure:"hourly_path"`
	DailyPath      string        `mapstructure:"daily_path"`
	HourlyURL      string        `mapstructure:"hourly_url"`
	DailyURL       string        `mapstructure:"daily_url"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds the SQLite dataset cache location
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// DashboardConfig holds the default filter selection and view
type DashboardConfig struct {
	TempRange     []float64 `mapstructure:"temp_range"`
	HumidityRange []float64 `mapstructure:"humidity_range"`
	Granularity   string    `mapstructure:"granularity"`
	Breakdown     string    `mapstructure:"breakdown"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// TelegramConfig holds Telegram report delivery configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("BIKESHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Dataset defaults
	v.SetDefault("dataset.hourly_path", "./data/hour.csv")
	v.SetDefault("dataset.daily_path", "./data/day.csv")
	v.SetDefault("dataset.hourly_url", "")
	v.SetDefault("dataset.daily_url", "")
	v.SetDefault("dataset.fetch_timeout", "30s")
	v.SetDefault("dataset.max_retries", 3)
	v.SetDefault("dataset.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/bikeshare.db")

	// Dashboard defaults mirror the initial slider positions
	v.SetDefault("dashboard.temp_range", []float64{0.2, 0.8})
	v.SetDefault("dashboard.humidity_range", []float64{0.2, 0.8})
	v.SetDefault("dashboard.granularity", "hourly")
	v.SetDefault("dashboard.breakdown", "season")

	// Server defaults
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "2s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Dataset config
	if c.Dataset.HourlyPath == "" && c.Dataset.HourlyURL == "" {
		return fmt.Errorf("dataset.hourly_path or dataset.hourly_url is required")
	}
	if c.Dataset.DailyPath == "" && c.Dataset.DailyURL == "" {
		return fmt.Errorf("dataset.daily_path or dataset.daily_url is required")
	}
	if c.Dataset.FetchTimeout < 1*time.Second {
		return fmt.Errorf("dataset.fetch_timeout must be at least 1 second")
	}
	if c.Dataset.MaxRetries < 1 {
		return fmt.Errorf("dataset.max_retries must be at least 1")
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	// Validate Dashboard config
	if err := validateRange("dashboard.temp_range", c.Dashboard.TempRange); err != nil {
		return err
	}
	if err := validateRange("dashboard.humidity_range", c.Dashboard.HumidityRange); err != nil {
		return err
	}
	if _, err := models.ParseGranularity(c.Dashboard.Granularity); err != nil {
		return fmt.Errorf("dashboard.granularity must be one of: hourly, daily")
	}
	if _, err := pipeline.ParseBreakdown(c.Dashboard.Breakdown); err != nil {
		return fmt.Errorf("dashboard.breakdown must be one of: season, weather")
	}

	// Validate Server config
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when server is enabled")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// validateRange accepts a two-element [lo, hi] pair inside [0, 1].
// lo > hi is allowed: it is a valid, empty selection.
func validateRange(key string, r []float64) error {
	if len(r) != 2 {
		return fmt.Errorf("%s must have exactly two values [lo, hi]", key)
	}
	for _, v := range r {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s values must be between 0.0 and 1.0", key)
		}
	}
	return nil
}

// DefaultSelection builds the initial filter selection: every season and
// weather code, the configured temperature and humidity ranges, no date bound.
func (c *Config) DefaultSelection() models.FilterSelection {
	sel := models.FullSelection()
	if len(c.Dashboard.TempRange) == 2 {
		sel.Temp = models.Range{Lo: c.Dashboard.TempRange[0], Hi: c.Dashboard.TempRange[1]}
	}
	if len(c.Dashboard.HumidityRange) == 2 {
		sel.Humidity = models.Range{Lo: c.Dashboard.HumidityRange[0], Hi: c.Dashboard.HumidityRange[1]}
	}
	return sel
}

// DefaultView returns the configured dashboard mode. Invalid values fall back
// to the hourly season view; Validate reports them.
func (c *Config) DefaultView() pipeline.View {
	g, _ := models.ParseGranularity(c.Dashboard.Granularity)
	b, _ := pipeline.ParseBreakdown(c.Dashboard.Breakdown)
	return pipeline.View{Granularity: g, Breakdown: b}
}
