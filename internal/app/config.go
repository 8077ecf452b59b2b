package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	AppTimezone       string        `envconfig:"APP_TIMEZONE" default:"UTC"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// RedisAddr empty runs without a cache and processes exports in-process.
	RedisAddr string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	TablePageSize int    `envconfig:"TABLE_PAGE_SIZE" default:"5"`
	FixturesPath  string `envconfig:"FIXTURES_PATH"`

	DashboardInitialDelay time.Duration `envconfig:"DASHBOARD_INITIAL_DELAY" default:"1500ms"`
	DashboardRefreshDelay time.Duration `envconfig:"DASHBOARD_REFRESH_DELAY" default:"1s"`
	DashboardAutoRefresh  time.Duration `envconfig:"DASHBOARD_AUTO_REFRESH" default:"30s"`

	ExportDelay        time.Duration `envconfig:"EXPORT_DELAY" default:"2s"`
	ExportCompleteHold time.Duration `envconfig:"EXPORT_COMPLETE_HOLD" default:"3s"`
	ExportPendingTTL   time.Duration `envconfig:"EXPORT_PENDING_TTL" default:"10m"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	WarmupCron        string `envconfig:"WARMUP_CRON" default:"*/10 * * * *"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the dashboard cannot run with.
func (c *Config) Validate() error {
	if c.TablePageSize <= 0 {
		return errors.New("table page size must be positive")
	}
	if c.DashboardAutoRefresh <= 0 {
		return errors.New("dashboard auto refresh interval must be positive")
	}
	if c.DashboardInitialDelay < 0 || c.DashboardRefreshDelay < 0 || c.ExportDelay < 0 {
		return errors.New("simulated delays must not be negative")
	}
	if c.ExportCompleteHold <= 0 || c.ExportPendingTTL <= 0 {
		return errors.New("export hold and pending ttl must be positive")
	}
	if _, err := time.LoadLocation(c.AppTimezone); err != nil {
		return fmt.Errorf("app timezone: %w", err)
	}
	return nil
}

// Location resolves AppTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
