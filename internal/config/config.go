// Package config provides configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"gestao/internal/gateway"
	"gestao/internal/timeframe"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// EnvFiles are loaded, when present, before reading the environment. Earlier files win.
var EnvFiles = []string{".env.local", ".env"}

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	Timezone    string   `mapstructure:"timezone"`

	// Metrics API
	APIBaseURL        string `mapstructure:"apibaseurl"`
	APITimeoutSeconds int    `mapstructure:"apitimeoutseconds"`

	// Dashboard behaviour
	HistoryMonths int `mapstructure:"historymonths"`
	TransitionMs  int `mapstructure:"transitionms"`

	// Snapshot cache
	StoragePath        string `mapstructure:"storagepath"`
	CacheEnabled       bool   `mapstructure:"cacheenabled"`
	CacheRetentionDays int    `mapstructure:"cacheretentiondays"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		loaded, err := Load()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	})
	return cfg
}

// Load reads env files and the environment into a new Config
func Load() (*Config, error) {
	loadEnvFiles()

	v := viper.New()

	v.SetDefault("appname", "gestao")
	v.SetDefault("appport", "3000")
	v.SetDefault("environment", Development)
	v.SetDefault("loglevel", string(LogLevelInfo))
	v.SetDefault("timezone", timeframe.DefaultTimezone)
	v.SetDefault("apibaseurl", "")
	v.SetDefault("apitimeoutseconds", 15)
	v.SetDefault("historymonths", timeframe.DefaultHistoryMonths)
	v.SetDefault("transitionms", 650)
	v.SetDefault("storagepath", "storage")
	v.SetDefault("cacheenabled", true)
	v.SetDefault("cacheretentiondays", 30)
	v.SetDefault("logsdir", "logs")
	v.SetDefault("logsmaxsizeinmb", 20)
	v.SetDefault("logsmaxbackups", 10)
	v.SetDefault("logsmaxageindays", 30)
	v.SetDefault("jobintervalseconds", 3600)

	v.BindEnv("appname", "GESTAO_APP_NAME")
	v.BindEnv("appport", "GESTAO_APP_PORT")
	v.BindEnv("environment", "GESTAO_ENV")
	v.BindEnv("loglevel", "GESTAO_LOG_LEVEL")
	v.BindEnv("timezone", "GESTAO_TIMEZONE")
	v.BindEnv("apibaseurl", "GESTAO_API_BASE_URL")
	v.BindEnv("apitimeoutseconds", "GESTAO_API_TIMEOUT_SECONDS")
	v.BindEnv("historymonths", "GESTAO_HISTORY_MONTHS")
	v.BindEnv("transitionms", "GESTAO_TRANSITION_MS")
	v.BindEnv("storagepath", "GESTAO_STORAGE_PATH")
	v.BindEnv("cacheenabled", "GESTAO_CACHE_ENABLED")
	v.BindEnv("cacheretentiondays", "GESTAO_CACHE_RETENTION_DAYS")
	v.BindEnv("logsdir", "GESTAO_LOGS_DIR")
	v.BindEnv("logsmaxsizeinmb", "GESTAO_LOGS_MAX_SIZE_IN_MB")
	v.BindEnv("logsmaxbackups", "GESTAO_LOGS_MAX_BACKUPS")
	v.BindEnv("logsmaxageindays", "GESTAO_LOGS_MAX_AGE_IN_DAYS")
	v.BindEnv("jobintervalseconds", "GESTAO_JOB_INTERVAL_SECONDS")

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

func loadEnvFiles() {
	for _, name := range EnvFiles {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("config: failed to load %s: %v", name, err)
		}
	}
}

// validate checks settings every command depends on
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// Validate checks everything needed to talk to the metrics API.
// Problems are reported as *gateway.ConfigurationError and are fatal at startup.
func (c *Config) Validate() error {
	if _, err := gateway.ParseBaseURL(c.APIBaseURL); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return &gateway.ConfigurationError{Field: "timezone", Msg: err.Error()}
	}
	if c.APITimeoutSeconds < 0 {
		return &gateway.ConfigurationError{Field: "api_timeout_seconds", Msg: "must not be negative"}
	}
	if c.HistoryMonths < 0 {
		return &gateway.ConfigurationError{Field: "history_months", Msg: "must not be negative"}
	}
	return nil
}

// Location loads the reference timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

func (c *Config) GetPort() string {
	return c.AppPort
}

// GetAPITimeout returns the per-request timeout of the metrics API client
func (c *Config) GetAPITimeout() time.Duration {
	if c.APITimeoutSeconds <= 0 {
		return gateway.DefaultTimeout
	}
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

// GetTransitionDuration returns how long displayed numbers take to reach new values
func (c *Config) GetTransitionDuration() time.Duration {
	return time.Duration(c.TransitionMs) * time.Millisecond
}

// GetCacheRetention returns how long snapshots are kept
func (c *Config) GetCacheRetention() time.Duration {
	return time.Duration(c.CacheRetentionDays) * 24 * time.Hour
}

// GetJobInterval returns the period of background jobs
func (c *Config) GetJobInterval() time.Duration {
	if c.JobIntervalSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.JobIntervalSeconds) * time.Second
}

func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
