package cmd

import (
	"errors"
	"log/slog"
	"time"

	"hackersky/internal/ai"
	"hackersky/internal/bluesky"
	"hackersky/internal/config"
	"hackersky/internal/hackernews"
	"hackersky/internal/redisclient"
	"hackersky/internal/storage"
	"hackersky/internal/thumbnail"
	"hackersky/worker"

	"github.com/redis/go-redis/v9"
)

// poster wires a worker.Poster from cfg. The returned cleanup closes the
// Redis connection when the ledger is enabled. withPublisher=false builds
// a read-only poster for preview.
func buildPoster(cfg config.Config, withPublisher bool) (*worker.Poster, func(), error) {
	cleanup := func() {}
	p := &worker.Poster{
		Feed:           hackernews.NewClient(cfg.Feed.URL, cfg.Feed.Count, config.Duration(cfg.Feed.Timeout, 30*time.Second)),
		Thumbs:         newNormalizer(cfg.Thumbnail),
		TopN:           cfg.Pipeline.TopN,
		RecentPosts:    cfg.Pipeline.RecentPosts,
		Workers:        cfg.Pipeline.Workers,
		Interval:       config.Duration(cfg.Pipeline.Interval, time.Hour),
		DryRun:         cfg.Pipeline.DryRun,
		UsePageSummary: cfg.Thumbnail.UsePageSummary,
	}

	if withPublisher {
		if cfg.Bluesky.Handle == "" || cfg.Bluesky.Password == "" {
			return nil, cleanup, errors.New("bluesky credentials missing: set BSKY_HANDLE and BSKY_PASSWORD or bluesky.handle/bluesky.password")
		}
		p.Publisher = bluesky.New(bluesky.Config{
			BaseURL:    cfg.Bluesky.BaseURL,
			Identifier: cfg.Bluesky.Handle,
			Password:   cfg.Bluesky.Password,
			Timeout:    config.Duration(cfg.Bluesky.Timeout, 20*time.Second),
		})
	}

	if cfg.Redis.Enabled {
		rdb := redisclient.New(cfg.Redis)
		cleanup = func() { _ = rdb.Close() }
		p.Ledger = newLedger(rdb, cfg.Redis)
	}

	if cfg.OpenAI.APIKey != "" {
		d, err := ai.NewOpenAI(ai.Config{
			APIKey:   cfg.OpenAI.APIKey,
			Model:    cfg.OpenAI.Model,
			BaseURL:  cfg.OpenAI.BaseURL,
			Language: cfg.OpenAI.Language,
		})
		if err != nil {
			slog.Warn("openai disabled", "error", err)
		} else {
			p.Describer = d
		}
	}
	return p, cleanup, nil
}

func newNormalizer(tc config.ThumbnailConfig) *thumbnail.Normalizer {
	return thumbnail.New(thumbnail.Options{
		MaxBytes:         tc.MaxBytes,
		Scale:            tc.Scale,
		MinDimension:     tc.MinDimension,
		Format:           tc.Format,
		Quality:          tc.Quality,
		MaxDownloadBytes: tc.MaxDownloadBytes,
		UserAgent:        tc.UserAgent,
		Timeout:          config.Duration(tc.Timeout, 20*time.Second),
	})
}

func newLedger(rdb *redis.Client, rc config.RedisConfig) *storage.RedisStore {
	return storage.NewRedisStore(rdb, rc.Key, config.Duration(rc.Retention, 30*24*time.Hour))
}
