package bluesky

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// maxPageSize is the server-side cap for app.bsky.feed.getAuthorFeed.
const maxPageSize = 100

type authorFeedResponse struct {
	Cursor string `json:"cursor"`
	Feed   []struct {
		Post struct {
			URI   string `json:"uri"`
			Embed *struct {
				External *struct {
					URI string `json:"uri"`
				} `json:"external"`
			} `json:"embed"`
		} `json:"post"`
	} `json:"feed"`
}

// RecentArticleURLs returns the external link URIs embedded in the
// account's latest limit posts, newest first. Posts without an external
// link card are ignored.
func (c *Client) RecentArticleURLs(ctx context.Context, limit int) ([]string, error) {
	if c == nil {
		return nil, errors.New("nil bluesky client")
	}
	if c.session == nil {
		return nil, ErrNoSession
	}
	if limit <= 0 {
		return nil, nil
	}
	var (
		urls   []string
		cursor string
		read   int
	)
	for read < limit {
		page := min(limit-read, maxPageSize)
		q := url.Values{}
		q.Set("actor", c.session.DID)
		q.Set("limit", strconv.Itoa(page))
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		var out authorFeedResponse
		if err := c.call(ctx, http.MethodGet, "app.bsky.feed.getAuthorFeed", q, "", nil, true, &out); err != nil {
			return nil, err
		}
		for _, item := range out.Feed {
			if item.Post.Embed == nil || item.Post.Embed.External == nil || item.Post.Embed.External.URI == "" {
				continue
			}
			urls = append(urls, item.Post.Embed.External.URI)
		}
		read += len(out.Feed)
		if out.Cursor == "" || len(out.Feed) == 0 {
			break
		}
		cursor = out.Cursor
	}
	return urls, nil
}
