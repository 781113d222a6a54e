package config

import (
	"testing"
	"time"
)

func TestFillDefaults(t *testing.T) {
	var c Config
	c.FillDefaults()
	if c.Feed.URL != "https://hnrss.org/frontpage" || c.Feed.Count != 30 {
		t.Errorf("feed defaults: %+v", c.Feed)
	}
	if c.Pipeline.TopN != 5 || c.Pipeline.RecentPosts != 100 || c.Pipeline.Workers != 4 {
		t.Errorf("pipeline defaults: %+v", c.Pipeline)
	}
	if c.Thumbnail.MaxBytes != 1_000_000 || c.Thumbnail.Scale != 0.9 || c.Thumbnail.MinDimension != 10 {
		t.Errorf("thumbnail defaults: %+v", c.Thumbnail)
	}
	if c.Thumbnail.Format != "jpeg" || c.Thumbnail.Quality != 85 {
		t.Errorf("codec defaults: %+v", c.Thumbnail)
	}
	if c.Bluesky.BaseURL != "https://bsky.social" {
		t.Errorf("bluesky base url: %q", c.Bluesky.BaseURL)
	}
	if c.Redis.Enabled {
		t.Errorf("redis ledger should be off by default")
	}
}

func TestFillDefaultsKeepsValues(t *testing.T) {
	c := Config{
		Pipeline:  PipelineConfig{TopN: 3},
		Thumbnail: ThumbnailConfig{Scale: 0.5, Format: " WEBP "},
	}
	c.FillDefaults()
	if c.Pipeline.TopN != 3 {
		t.Errorf("top_n overwritten: %d", c.Pipeline.TopN)
	}
	if c.Thumbnail.Scale != 0.5 {
		t.Errorf("scale overwritten: %f", c.Thumbnail.Scale)
	}
	if c.Thumbnail.Format != "webp" {
		t.Errorf("format not normalized: %q", c.Thumbnail.Format)
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("5m", time.Second); got != 5*time.Minute {
		t.Errorf("got %s", got)
	}
	if got := Duration("nope", time.Second); got != time.Second {
		t.Errorf("invalid should fall back, got %s", got)
	}
	if got := Duration("", 2*time.Second); got != 2*time.Second {
		t.Errorf("empty should fall back, got %s", got)
	}
}

type mapSecrets map[string]string

func (m mapSecrets) Get(name string) string { return m[name] }

func TestApplySecrets(t *testing.T) {
	c := Config{Bluesky: BlueskyConfig{Handle: "from-config.bsky.social"}}
	c.ApplySecrets(mapSecrets{
		"BSKY_HANDLE":    "from-secret.bsky.social",
		"BSKY_PASSWORD":  "app-password",
		"OPENAI_API_KEY": "sk-test",
	})
	if c.Bluesky.Handle != "from-config.bsky.social" {
		t.Errorf("config value should win, got %q", c.Bluesky.Handle)
	}
	if c.Bluesky.Password != "app-password" || c.OpenAI.APIKey != "sk-test" {
		t.Errorf("secrets not applied: %+v %+v", c.Bluesky, c.OpenAI)
	}
	c.ApplySecrets(nil)
}
