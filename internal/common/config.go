package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Logging     LoggingConfig  `toml:"logging"`
	Analysis    AnalysisConfig `toml:"analysis"`
	Scraper     ScraperConfig  `toml:"scraper"`
	Claude      ClaudeConfig   `toml:"claude"`
	Storage     StorageConfig  `toml:"storage"`
	Sources     SourcesConfig  `toml:"sources"`
	Schedule    ScheduleConfig `toml:"schedule"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// AnalysisConfig controls pipeline behavior for one analysis job.
type AnalysisConfig struct {
	VDPLimit  int    `toml:"vdp_limit"`  // Max detail pages processed per competitor per job
	ItemDelay string `toml:"item_delay"` // Politeness delay between consecutive detail pages, e.g., "1s"
}

// ItemDelayDuration parses ItemDelay, falling back to one second.
func (c AnalysisConfig) ItemDelayDuration() time.Duration {
	return parseDurationOr(c.ItemDelay, time.Second)
}

// ScraperConfig controls sitemap and detail page fetching.
type ScraperConfig struct {
	UserAgent      string `toml:"user_agent"`
	RequestTimeout string `toml:"request_timeout"` // Per-fetch timeout (sitemaps and pages), e.g., "30s"
	MaxBodySize    int    `toml:"max_body_size"`   // Maximum response body size in bytes
	MaxContentLen  int    `toml:"max_content_len"` // Maximum characters of reduced page content
}

// RequestTimeoutDuration parses RequestTimeout, falling back to 30 seconds.
func (c ScraperConfig) RequestTimeoutDuration() time.Duration {
	return parseDurationOr(c.RequestTimeout, 30*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// ClaudeConfig contains Anthropic Claude API configuration for the
// extraction service.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`    // Anthropic API key (ANTHROPIC_API_KEY overrides)
	Model       string  `toml:"model"`      // Model for extraction calls
	MaxTokens   int     `toml:"max_tokens"` // Maximum tokens in response
	Timeout     string  `toml:"timeout"`    // Per-call timeout as duration string
	RateLimit   string  `toml:"rate_limit"` // Minimum interval between extraction calls
	Temperature float32 `toml:"temperature"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration for the page archive
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// SourcesConfig points at the competitor source definitions file.
type SourcesConfig struct {
	Path string `toml:"path"` // YAML file with known competitor sources
}

// ScheduleConfig enables recurring analysis runs.
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"` // Standard 5-field cron expression
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings are exposed in dealscope.toml; technical
// parameters are hardcoded here.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Analysis: AnalysisConfig{
			VDPLimit:  3,
			ItemDelay: "1s",
		},
		Scraper: ScraperConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout: "30s",
			MaxBodySize:    10 * 1024 * 1024, // 10MB
			MaxContentLen:  20000,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1024,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.1, // Low temperature for consistent extraction
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Sources: SourcesConfig{
			Path: "./sources.yaml",
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 6 * * *",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier
// files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("DEALSCOPE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("DEALSCOPE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("DEALSCOPE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("DEALSCOPE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if limit := os.Getenv("DEALSCOPE_VDP_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			config.Analysis.VDPLimit = l
		}
	}
	if delay := os.Getenv("DEALSCOPE_ITEM_DELAY"); delay != "" {
		if _, err := time.ParseDuration(delay); err == nil {
			config.Analysis.ItemDelay = delay
		}
	}

	if userAgent := os.Getenv("DEALSCOPE_SCRAPER_USER_AGENT"); userAgent != "" {
		config.Scraper.UserAgent = userAgent
	}
	if timeout := os.Getenv("DEALSCOPE_SCRAPER_REQUEST_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.Scraper.RequestTimeout = timeout
		}
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("DEALSCOPE_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // DEALSCOPE_ prefix takes priority
	}
	if model := os.Getenv("DEALSCOPE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if timeout := os.Getenv("DEALSCOPE_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("DEALSCOPE_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}

	if badgerPath := os.Getenv("DEALSCOPE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if sourcesPath := os.Getenv("DEALSCOPE_SOURCES_PATH"); sourcesPath != "" {
		config.Sources.Path = sourcesPath
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Command-line flags have highest priority.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
