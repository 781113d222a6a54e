package config

import (
	"strings"
	"time"
)

// DefaultUserAgent is sent when fetching article pages and images. Many
// news sites reject requests without a browser-like agent.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel    string `mapstructure:"log_level"`
	SecretsFile string `mapstructure:"secrets_file"`
}

// FeedConfig controls the trending feed source.
type FeedConfig struct {
	URL     string `mapstructure:"url"`
	Count   int    `mapstructure:"count"`
	Timeout string `mapstructure:"timeout"` // duration string, e.g., "30s"
}

// PipelineConfig controls a single ranking/publishing run.
type PipelineConfig struct {
	TopN        int    `mapstructure:"top_n"`
	RecentPosts int    `mapstructure:"recent_posts"` // how many own posts to read back for dedup
	Workers     int    `mapstructure:"workers"`      // parallel thumbnail fetches
	Interval    string `mapstructure:"interval"`     // serve mode only
	DryRun      bool   `mapstructure:"dry_run"`
}

// ThumbnailConfig controls preview image normalization.
type ThumbnailConfig struct {
	MaxBytes         int     `mapstructure:"max_bytes"`
	Scale            float64 `mapstructure:"scale"`
	MinDimension     int     `mapstructure:"min_dimension"`
	Format           string  `mapstructure:"format"` // jpeg or webp
	Quality          int     `mapstructure:"quality"`
	MaxDownloadBytes int64   `mapstructure:"max_download_bytes"`
	Timeout          string  `mapstructure:"timeout"`
	UserAgent        string  `mapstructure:"user_agent"`
	UsePageSummary   bool    `mapstructure:"use_page_summary"` // use og:description for the link card
}

// BlueskyConfig holds the publishing account.
type BlueskyConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Handle   string `mapstructure:"handle"`
	Password string `mapstructure:"password"`
	Timeout  string `mapstructure:"timeout"`
}

// RedisConfig holds redis connection settings for the posted ledger.
type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Key       string `mapstructure:"key"`
	Retention string `mapstructure:"retention"`
}

// OpenAIConfig enables AI-written link card descriptions.
type OpenAIConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
	Language string `mapstructure:"language"`
}

// Config is the top-level configuration structure.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Thumbnail ThumbnailConfig `mapstructure:"thumbnail"`
	Bluesky   BlueskyConfig   `mapstructure:"bluesky"`
	Redis     RedisConfig     `mapstructure:"redis"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Feed.URL == "" {
		c.Feed.URL = "https://hnrss.org/frontpage"
	}
	if c.Feed.Count <= 0 {
		c.Feed.Count = 30
	}
	if c.Feed.Timeout == "" {
		c.Feed.Timeout = "30s"
	}
	if c.Pipeline.TopN <= 0 {
		c.Pipeline.TopN = 5
	}
	if c.Pipeline.RecentPosts <= 0 {
		c.Pipeline.RecentPosts = 100
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 4
	}
	if c.Pipeline.Interval == "" {
		c.Pipeline.Interval = "1h"
	}
	if c.Thumbnail.MaxBytes <= 0 {
		c.Thumbnail.MaxBytes = 1_000_000
	}
	if c.Thumbnail.Scale <= 0 || c.Thumbnail.Scale >= 1 {
		c.Thumbnail.Scale = 0.9
	}
	if c.Thumbnail.MinDimension <= 0 {
		c.Thumbnail.MinDimension = 10
	}
	c.Thumbnail.Format = strings.ToLower(strings.TrimSpace(c.Thumbnail.Format))
	if c.Thumbnail.Format == "" {
		c.Thumbnail.Format = "jpeg"
	}
	if c.Thumbnail.Quality <= 0 || c.Thumbnail.Quality > 100 {
		c.Thumbnail.Quality = 85
	}
	if c.Thumbnail.MaxDownloadBytes <= 0 {
		c.Thumbnail.MaxDownloadBytes = 20 << 20
	}
	if c.Thumbnail.Timeout == "" {
		c.Thumbnail.Timeout = "20s"
	}
	if c.Thumbnail.UserAgent == "" {
		c.Thumbnail.UserAgent = DefaultUserAgent
	}
	if c.Bluesky.BaseURL == "" {
		c.Bluesky.BaseURL = "https://bsky.social"
	}
	if c.Bluesky.Timeout == "" {
		c.Bluesky.Timeout = "20s"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Redis.Key == "" {
		c.Redis.Key = "hackersky:posted"
	}
	if c.Redis.Retention == "" {
		c.Redis.Retention = "720h"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
}

// Duration parses a duration string, returning def when it is empty or
// invalid.
func Duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Secrets supplies credentials by name.
type Secrets interface {
	Get(name string) string
}

// ApplySecrets fills credentials that are not set in the config file from
// the secret source.
func (c *Config) ApplySecrets(s Secrets) {
	if s == nil {
		return
	}
	fill := func(dst *string, name string) {
		if strings.TrimSpace(*dst) != "" {
			return
		}
		*dst = s.Get(name)
	}
	fill(&c.Bluesky.Handle, "BSKY_HANDLE")
	fill(&c.Bluesky.Password, "BSKY_PASSWORD")
	fill(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	fill(&c.Redis.Password, "REDIS_PASSWORD")
}
