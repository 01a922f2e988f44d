package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Tracker    TrackerConfig    `mapstructure:"tracker"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite
	DSN    string `mapstructure:"dsn"`    // Connection string
}

// SourcesConfig holds all data source configurations
type SourcesConfig struct {
	GitHub GitHubConfig `mapstructure:"github"`
	RSS    RSSConfig    `mapstructure:"rss"`
}

// GitHubConfig holds GitHub search API settings
type GitHubConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Token    string   `mapstructure:"token"`
	BaseURL  string   `mapstructure:"base_url"`
	PageSize int      `mapstructure:"page_size"`
	MinStars int      `mapstructure:"min_stars"`
	Keywords []string `mapstructure:"keywords"` // keyword query variants
	Topics   []string `mapstructure:"topics"`   // topic: query variants
}

// RSSConfig holds RSS feed settings
type RSSConfig struct {
	Enabled bool      `mapstructure:"enabled"`
	Feeds   []RSSFeed `mapstructure:"feeds"`
}

// RSSFeed represents a single RSS feed
type RSSFeed struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// ClassifierConfig holds relevance classifier settings
type ClassifierConfig struct {
	MinRelevanceScore float64 `mapstructure:"min_relevance_score"`
	MaxTags           int     `mapstructure:"max_tags"`
}

// AnthropicConfig holds Claude tag-enrichment settings
type AnthropicConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// RetentionConfig holds stale-item cleanup settings
type RetentionConfig struct {
	MaxAgeDays    int `mapstructure:"max_age_days"`
	MinPopularity int `mapstructure:"min_popularity"`
}

// SchedulerConfig holds scheduler settings
type SchedulerConfig struct {
	DailySyncCron  string `mapstructure:"daily_sync_cron"`
	WeeklySyncCron string `mapstructure:"weekly_sync_cron"`
	CleanupCron    string `mapstructure:"cleanup_cron"`
	HealthPort     int    `mapstructure:"health_port"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	GitHubRequestsPerMinute    int `mapstructure:"github_requests_per_minute"`
	AnthropicRequestsPerMinute int `mapstructure:"anthropic_requests_per_minute"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// TrackerConfig holds Google Sheets run-report settings
type TrackerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	SheetName          string `mapstructure:"sheet_name"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	ServiceAccountJSON string `mapstructure:"service_account_json"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in current directory and configs folder
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		// Also check user's home directory
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".trendscout"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("TRENDSCOUT")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("sources.github.token", "TRENDSCOUT_GITHUB_TOKEN")
	v.BindEnv("anthropic.api_key", "TRENDSCOUT_ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.enabled", "TRENDSCOUT_ANTHROPIC_ENABLED")
	v.BindEnv("database.driver", "TRENDSCOUT_DATABASE_DRIVER")
	v.BindEnv("database.dsn", "TRENDSCOUT_DATABASE_DSN")
	v.BindEnv("tracker.enabled", "TRENDSCOUT_TRACKER_ENABLED")
	v.BindEnv("tracker.spreadsheet_id", "TRENDSCOUT_TRACKER_SPREADSHEET_ID")
	v.BindEnv("tracker.credentials_file", "TRENDSCOUT_TRACKER_CREDENTIALS_FILE")
	v.BindEnv("tracker.service_account_json", "TRENDSCOUT_TRACKER_SERVICE_ACCOUNT_JSON")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/trendscout.db")

	// GitHub defaults
	v.SetDefault("sources.github.enabled", true)
	v.SetDefault("sources.github.base_url", "https://api.github.com")
	v.SetDefault("sources.github.page_size", 50)
	v.SetDefault("sources.github.min_stars", 5)
	v.SetDefault("sources.github.keywords", []string{
		"langchain", "llm", "ai-agent", "chatgpt", "openai",
		"anthropic", "huggingface", "transformers", "autogen",
		"crewai", "langgraph", "llamaindex", "rag", "vector-database",
	})
	v.SetDefault("sources.github.topics", []string{
		"artificial-intelligence", "machine-learning", "deep-learning",
		"natural-language-processing", "chatbot", "llm", "ai-agent",
		"langchain", "openai", "gpt", "transformer",
	})

	// RSS defaults
	v.SetDefault("sources.rss.enabled", false)

	// Classifier defaults
	v.SetDefault("classifier.min_relevance_score", 0.3)
	v.SetDefault("classifier.max_tags", 8)

	// Anthropic defaults (enrichment off unless explicitly enabled)
	v.SetDefault("anthropic.enabled", false)
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.2)

	// Retention defaults
	v.SetDefault("retention.max_age_days", 30)
	v.SetDefault("retention.min_popularity", 5)

	// Scheduler defaults
	v.SetDefault("scheduler.daily_sync_cron", "0 6 * * *")   // 6am daily
	v.SetDefault("scheduler.weekly_sync_cron", "0 7 * * 1")  // 7am Monday
	v.SetDefault("scheduler.cleanup_cron", "30 6 * * *")     // after the daily sync
	v.SetDefault("scheduler.health_port", 8090)

	// Rate limit defaults
	v.SetDefault("rate_limit.github_requests_per_minute", 30)
	v.SetDefault("rate_limit.anthropic_requests_per_minute", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")

	// Tracker defaults
	v.SetDefault("tracker.enabled", false)
	v.SetDefault("tracker.sheet_name", "SyncRuns")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !c.Sources.GitHub.Enabled && !c.Sources.RSS.Enabled {
		return fmt.Errorf("at least one source must be enabled")
	}
	if c.Classifier.MinRelevanceScore < 0 || c.Classifier.MinRelevanceScore > 1 {
		return fmt.Errorf("classifier.min_relevance_score must be in [0,1]")
	}
	if c.Anthropic.Enabled && c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required when anthropic.enabled is true")
	}
	if c.Tracker.Enabled && c.Tracker.SpreadsheetID == "" {
		return fmt.Errorf("tracker.spreadsheet_id is required when tracker.enabled is true")
	}
	return nil
}
