package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"hackersky/internal/bluesky"
	"hackersky/internal/model"
	"hackersky/internal/ranking"
	"hackersky/internal/thumbnail"

	"github.com/google/uuid"
)

// FeedSource returns the current trending candidates.
type FeedSource interface {
	FrontPage(ctx context.Context) ([]model.Candidate, error)
}

// Publisher is the social account posts go to.
type Publisher interface {
	Login(ctx context.Context) error
	RecentArticleURLs(ctx context.Context, limit int) ([]string, error)
	UploadBlob(ctx context.Context, data []byte, mimeType string) (json.RawMessage, error)
	CreatePost(ctx context.Context, p bluesky.Post) (string, error)
}

// Thumbnailer looks up and normalizes an article's preview.
type Thumbnailer interface {
	Preview(ctx context.Context, pageURL string) thumbnail.Preview
}

// Ledger remembers article URLs published by earlier runs.
type Ledger interface {
	PostedURLs(ctx context.Context) ([]string, error)
	RecordPosted(ctx context.Context, url string) error
}

// Describer writes link card descriptions.
type Describer interface {
	DescribeLink(ctx context.Context, title, pageSummary string) (string, error)
}

// Report summarizes one run.
type Report struct {
	RunID     string
	Fetched   int
	Ranked    int
	Skipped   int // already posted
	Published int
	Failed    int
	Posts     []string // record URIs, or article URLs in dry-run mode
}

// Poster fetches the front page, ranks it, drops what was already posted
// and publishes the rest with a thumbnail when one is available.
type Poster struct {
	Feed      FeedSource
	Publisher Publisher
	Thumbs    Thumbnailer
	Ledger    Ledger    // optional
	Describer Describer // optional

	TopN           int
	RecentPosts    int
	Workers        int
	Interval       time.Duration
	DryRun         bool
	UsePageSummary bool

	now func() time.Time
}

// Start runs the pipeline immediately and then on every Interval tick.
// Run errors are logged; only context cancellation stops the loop.
func (p *Poster) Start(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	p.runLogged(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			p.runLogged(ctx)
		}
	}
}

func (p *Poster) runLogged(ctx context.Context) {
	if _, err := p.RunOnce(ctx); err != nil {
		slog.Error("poster: run failed", "error", err)
	}
}

// Plan fetches, ranks and deduplicates without touching the publisher's
// write endpoints. seen is the union of the publisher's recent links and
// the ledger.
func (p *Poster) Plan(ctx context.Context, log *slog.Logger, rep *Report) ([]model.Candidate, error) {
	if log == nil {
		log = slog.Default()
	}
	items, err := p.Feed.FrontPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	rep.Fetched = len(items)

	ranked := ranking.Rank(items, p.topN())
	rep.Ranked = len(ranked)

	var lists [][]string
	if p.Publisher != nil {
		if err := p.Publisher.Login(ctx); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		recent, err := p.Publisher.RecentArticleURLs(ctx, p.recentPosts())
		if err != nil {
			return nil, fmt.Errorf("recent posts: %w", err)
		}
		lists = append(lists, recent)
	}
	if p.Ledger != nil {
		posted, err := p.Ledger.PostedURLs(ctx)
		if err != nil {
			log.Warn("poster: ledger read failed, using recent posts only", "error", err)
		} else {
			lists = append(lists, posted)
		}
	}
	fresh := ranking.FilterUnseen(ranked, ranking.SeenSet(lists...))
	rep.Skipped = len(ranked) - len(fresh)
	log.Info("poster: planned", "fetched", rep.Fetched, "ranked", rep.Ranked, "skipped", rep.Skipped)
	return fresh, nil
}

// RunOnce performs a single run. Feed, login and recent-posts failures are
// returned; failures for individual candidates are logged and counted.
func (p *Poster) RunOnce(ctx context.Context) (Report, error) {
	rep := Report{RunID: uuid.NewString()}
	log := slog.Default().With("run_id", rep.RunID)
	start := p.clock()
	if p.Publisher == nil && !p.DryRun {
		return rep, errors.New("poster: no publisher configured")
	}

	fresh, err := p.Plan(ctx, log, &rep)
	if err != nil {
		return rep, err
	}

	previews := p.previews(ctx, fresh)
	for i, c := range fresh {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		ref, err := p.publish(ctx, log, c, previews[i])
		if err != nil {
			rep.Failed++
			log.Error("poster: publish failed", "url", c.ArticleURL, "error", err)
			if errors.Is(err, bluesky.ErrAuth) {
				return rep, err
			}
			continue
		}
		rep.Published++
		rep.Posts = append(rep.Posts, ref)
	}
	log.Info("poster: run complete",
		"published", rep.Published, "failed", rep.Failed, "skipped", rep.Skipped,
		"dry_run", p.DryRun, "took", p.clock().Sub(start).Round(time.Millisecond))
	return rep, nil
}

// previews fetches thumbnails with bounded concurrency, keeping ranked order.
func (p *Poster) previews(ctx context.Context, items []model.Candidate) []thumbnail.Preview {
	out := make([]thumbnail.Preview, len(items))
	if p.Thumbs == nil {
		return out
	}
	sem := make(chan struct{}, p.workers())
	var wg sync.WaitGroup
	for i, c := range items {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i] = p.Thumbs.Preview(ctx, u)
		}(i, c.ArticleURL)
	}
	wg.Wait()
	return out
}

func (p *Poster) publish(ctx context.Context, log *slog.Logger, c model.Candidate, pv thumbnail.Preview) (string, error) {
	desc := p.describe(ctx, log, c, pv)
	if p.DryRun {
		log.Info("poster: dry run", "title", c.Title, "url", c.ArticleURL,
			"hotness", c.Hotness, "thumbnail_bytes", pv.Thumbnail.Size())
		return c.ArticleURL, nil
	}

	var blob json.RawMessage
	if pv.Thumbnail.Present() {
		b, err := p.Publisher.UploadBlob(ctx, pv.Thumbnail.Data, pv.Thumbnail.MimeType)
		if err != nil {
			if errors.Is(err, bluesky.ErrAuth) {
				return "", err
			}
			log.Warn("poster: thumbnail upload failed, posting without image", "url", c.ArticleURL, "error", err)
		} else {
			blob = b
		}
	}

	post := bluesky.LinkPost(c.Title, c.ArticleURL, c.DiscussionURL, desc, blob)
	uri, err := p.Publisher.CreatePost(ctx, post)
	if err != nil {
		return "", err
	}
	log.Info("poster: published", "title", c.Title, "url", c.ArticleURL, "uri", uri, "image", blob != nil)

	if p.Ledger != nil {
		if err := p.Ledger.RecordPosted(ctx, c.ArticleURL); err != nil {
			log.Warn("poster: ledger write failed", "url", c.ArticleURL, "error", err)
		}
	}
	return uri, nil
}

// describe picks the link card description: the describer's output, else
// the page summary when enabled, else empty (LinkPost falls back to title).
func (p *Poster) describe(ctx context.Context, log *slog.Logger, c model.Candidate, pv thumbnail.Preview) string {
	summary := ""
	if p.UsePageSummary {
		summary = strings.TrimSpace(pv.Description)
	}
	if p.Describer == nil {
		return summary
	}
	out, err := p.Describer.DescribeLink(ctx, c.Title, pv.Description)
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil {
			log.Warn("poster: describe failed", "url", c.ArticleURL, "error", err)
		}
		return summary
	}
	return strings.TrimSpace(out)
}

func (p *Poster) topN() int {
	if p.TopN <= 0 {
		return 5
	}
	return p.TopN
}

func (p *Poster) recentPosts() int {
	if p.RecentPosts <= 0 {
		return 100
	}
	return p.RecentPosts
}

func (p *Poster) workers() int {
	if p.Workers <= 0 {
		return 4
	}
	return p.Workers
}

func (p *Poster) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}
