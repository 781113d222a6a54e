package hackernews

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hackersky/internal/model"

	"github.com/mmcdole/gofeed/rss"
)

// Client reads the Hacker News front page from an hnrss.org style feed.
// Docs: https://hnrss.org
type Client struct {
	feedURL string
	count   int
	client  *http.Client
	now     func() time.Time
}

// NewClient creates a feed client. feedURL defaults to the hnrss front page;
// count is passed as the count query parameter when positive.
func NewClient(feedURL string, count int, timeout time.Duration) *Client {
	if strings.TrimSpace(feedURL) == "" {
		feedURL = "https://hnrss.org/frontpage"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		feedURL: strings.TrimSpace(feedURL),
		count:   count,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// FrontPage fetches the feed and converts every parseable entry into a
// Candidate scored against a single clock reading. Unparseable entries are
// skipped; only transport or feed-level failures are returned.
func (c *Client) FrontPage(ctx context.Context) ([]model.Candidate, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hackernews: fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("hackernews: feed status=%d body=%s", resp.StatusCode, string(b))
	}
	return c.parse(resp.Body)
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.feedURL)
	if err != nil {
		return "", fmt.Errorf("hackernews: invalid feed url: %w", err)
	}
	if c.count > 0 {
		q := u.Query()
		q.Set("count", strconv.Itoa(c.count))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) parse(r io.Reader) ([]model.Candidate, error) {
	fp := &rss.Parser{}
	feed, err := fp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("hackernews: parse feed: %w", err)
	}
	now := c.now()
	out := make([]model.Candidate, 0, len(feed.Items))
	for _, it := range feed.Items {
		cand, err := convertItem(it, now)
		if err != nil {
			slog.Warn("hackernews: skipping feed item", "title", it.Title, "error", err)
			continue
		}
		out = append(out, cand)
	}
	slog.Info("hackernews: feed parsed", "items", len(feed.Items), "candidates", len(out))
	return out, nil
}

// convertItem maps an RSS item to a Candidate.
func convertItem(it *rss.Item, now time.Time) (model.Candidate, error) {
	var zero model.Candidate
	if it == nil {
		return zero, errors.New("nil item")
	}
	link := strings.TrimSpace(it.Link)
	if link == "" {
		return zero, errors.New("missing link")
	}
	comments := strings.TrimSpace(it.Comments)
	if comments == "" && it.GUID != nil {
		comments = strings.TrimSpace(it.GUID.Value)
	}
	if comments == "" {
		return zero, errors.New("missing comments url")
	}
	published, err := publishedAt(it)
	if err != nil {
		return zero, err
	}
	points, err := ParsePoints(it.Description)
	if err != nil {
		return zero, err
	}
	return model.NewCandidate(strings.TrimSpace(it.Title), link, comments, points, published, now), nil
}

func publishedAt(it *rss.Item) (time.Time, error) {
	if it.PubDateParsed != nil {
		return *it.PubDateParsed, nil
	}
	t, err := mail.ParseDate(strings.TrimSpace(it.PubDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad pubDate %q: %w", it.PubDate, err)
	}
	return t, nil
}

// ParsePoints extracts the integer following the last case-insensitive
// "points:" marker in an hnrss description, up to the next '<' or the end.
func ParsePoints(description string) (int, error) {
	lower := strings.ToLower(description)
	i := strings.LastIndex(lower, "points:")
	if i < 0 {
		return 0, errors.New("points not found")
	}
	rest := lower[i+len("points:"):]
	if j := strings.IndexByte(rest, '<'); j >= 0 {
		rest = rest[:j]
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, fmt.Errorf("bad points %q: %w", strings.TrimSpace(rest), err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative points %d", n)
	}
	return n, nil
}
