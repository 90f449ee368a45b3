package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Scraper     ScraperConfig    `toml:"scraper"`
	Robots      RobotsConfig     `toml:"robots"`
	SMTP        SMTPConfig       `toml:"smtp"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	Sources     SourceDirConfig  `toml:"sources"`
	Subscribers SubscriberConfig `toml:"subscribers"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// ScraperConfig contains tuning for the portal scrape cycle
type ScraperConfig struct {
	MaxPages        int           `toml:"max_pages"`         // Page ceiling per source
	PageDelayMin    time.Duration `toml:"page_delay_min"`    // Lower bound of the delay between page fetches
	PageDelayMax    time.Duration `toml:"page_delay_max"`    // Upper bound of the delay between page fetches
	SourceDelayMin  time.Duration `toml:"source_delay_min"`  // Lower bound of the delay between sources
	SourceDelayMax  time.Duration `toml:"source_delay_max"`  // Upper bound of the delay between sources
	WaitTimeout     time.Duration `toml:"wait_timeout"`      // Max wait for listing content / page change
	SettleDelayMin  time.Duration `toml:"settle_delay_min"`  // Lower bound of the post-navigation settle delay
	SettleDelayMax  time.Duration `toml:"settle_delay_max"`  // Upper bound of the post-navigation settle delay
	Headless        bool          `toml:"headless"`          // Run Chrome in headless mode
	UserAgent       string        `toml:"user_agent"`        // User agent override
	BrowserTestTime time.Duration `toml:"browser_test_time"` // Timeout for the browser startup probe
}

// RobotsConfig contains configuration for robots.txt policy checks
type RobotsConfig struct {
	Enabled      bool          `toml:"enabled"`       // Check robots.txt before scraping a source
	UserAgent    string        `toml:"user_agent"`    // Agent token matched against robots.txt groups
	FetchTimeout time.Duration `toml:"fetch_timeout"` // HTTP timeout for robots.txt fetches
	FetchRate    time.Duration `toml:"fetch_rate"`    // Minimum interval between robots.txt fetches
}

// SMTPConfig contains outbound mail configuration for the notifier
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	FromName string `toml:"from_name"`
	UseTLS   bool   `toml:"use_tls"`
}

// SchedulerConfig contains the cron schedule for recurring scrape cycles
type SchedulerConfig struct {
	Enabled    bool   `toml:"enabled"`      // Run cycles on a schedule (daemon mode)
	Schedule   string `toml:"schedule"`     // Cron expression
	RunOnStart bool   `toml:"run_on_start"` // Run one cycle immediately at startup
}

// SourceDirConfig points at the directory holding source seed files (TOML/YAML)
type SourceDirConfig struct {
	Dir string `toml:"dir"`
}

// SubscriberConfig points at the directory holding subscriber seed files (TOML/YAML)
type SubscriberConfig struct {
	Dir string `toml:"dir"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings belong in venari.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Scraper: ScraperConfig{
			MaxPages:        5,
			PageDelayMin:    2 * time.Second,
			PageDelayMax:    5 * time.Second,
			SourceDelayMin:  3 * time.Second,
			SourceDelayMax:  6 * time.Second,
			WaitTimeout:     20 * time.Second,
			SettleDelayMin:  2500 * time.Millisecond,
			SettleDelayMax:  4500 * time.Millisecond,
			Headless:        true,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
			BrowserTestTime: 30 * time.Second,
		},
		Robots: RobotsConfig{
			Enabled:      true,
			UserAgent:    "VenariJobScraper/1.0",
			FetchTimeout: 5 * time.Second,
			FetchRate:    1 * time.Second,
		},
		SMTP: SMTPConfig{
			Port:     587,
			FromName: "Venari",
			UseTLS:   true,
		},
		Scheduler: SchedulerConfig{
			Enabled:    false,
			Schedule:   "0 */6 * * *", // Every 6 hours
			RunOnStart: true,
		},
		Sources: SourceDirConfig{
			Dir: "./sources",
		},
		Subscribers: SubscriberConfig{
			Dir: "./subscribers",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VENARI_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if badgerPath := os.Getenv("VENARI_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("VENARI_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("VENARI_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if maxPages := os.Getenv("VENARI_SCRAPER_MAX_PAGES"); maxPages != "" {
		if mp, err := strconv.Atoi(maxPages); err == nil && mp > 0 {
			config.Scraper.MaxPages = mp
		}
	}
	if delayMin := os.Getenv("VENARI_SCRAPER_PAGE_DELAY_MIN"); delayMin != "" {
		if d, err := time.ParseDuration(delayMin); err == nil {
			config.Scraper.PageDelayMin = d
		}
	}
	if delayMax := os.Getenv("VENARI_SCRAPER_PAGE_DELAY_MAX"); delayMax != "" {
		if d, err := time.ParseDuration(delayMax); err == nil {
			config.Scraper.PageDelayMax = d
		}
	}
	if headless := os.Getenv("VENARI_SCRAPER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Scraper.Headless = h
		}
	}
	if userAgent := os.Getenv("VENARI_SCRAPER_USER_AGENT"); userAgent != "" {
		config.Scraper.UserAgent = userAgent
	}
	if waitTimeout := os.Getenv("VENARI_SCRAPER_WAIT_TIMEOUT"); waitTimeout != "" {
		if d, err := time.ParseDuration(waitTimeout); err == nil {
			config.Scraper.WaitTimeout = d
		}
	}

	if robotsEnabled := os.Getenv("VENARI_ROBOTS_ENABLED"); robotsEnabled != "" {
		if e, err := strconv.ParseBool(robotsEnabled); err == nil {
			config.Robots.Enabled = e
		}
	}

	if host := os.Getenv("VENARI_SMTP_HOST"); host != "" {
		config.SMTP.Host = host
	}
	if port := os.Getenv("VENARI_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.SMTP.Port = p
		}
	}
	if username := os.Getenv("VENARI_SMTP_USERNAME"); username != "" {
		config.SMTP.Username = username
	}
	if password := os.Getenv("VENARI_SMTP_PASSWORD"); password != "" {
		config.SMTP.Password = password
	}
	if from := os.Getenv("VENARI_SMTP_FROM"); from != "" {
		config.SMTP.From = from
	}

	if schedule := os.Getenv("VENARI_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}

	if sourcesDir := os.Getenv("VENARI_SOURCES_DIR"); sourcesDir != "" {
		config.Sources.Dir = sourcesDir
	}
	if subscribersDir := os.Getenv("VENARI_SUBSCRIBERS_DIR"); subscribersDir != "" {
		config.Subscribers.Dir = subscribersDir
	}
}

// Validate performs basic sanity checks on the resolved configuration
func (c *Config) Validate() error {
	if c.Scraper.MaxPages < 1 {
		return fmt.Errorf("scraper.max_pages must be at least 1")
	}
	if c.Scraper.PageDelayMax < c.Scraper.PageDelayMin {
		return fmt.Errorf("scraper.page_delay_max must not be below scraper.page_delay_min")
	}
	if c.Scraper.SourceDelayMax < c.Scraper.SourceDelayMin {
		return fmt.Errorf("scraper.source_delay_max must not be below scraper.source_delay_min")
	}
	if c.Scraper.WaitTimeout <= 0 {
		return fmt.Errorf("scraper.wait_timeout must be positive")
	}
	if c.Storage.Badger.Path == "" {
		return fmt.Errorf("storage.badger.path is required")
	}
	return nil
}
