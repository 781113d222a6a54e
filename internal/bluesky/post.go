package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxPostChars is the post text limit. The server counts graphemes; runes
// are a safe upper bound for titles.
const MaxPostChars = 300

// DiscussionLabel is the linked suffix pointing at the comment thread.
const DiscussionLabel = "[Discussion]"

// ByteSlice addresses a range of the UTF-8 encoded post text.
type ByteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

// Feature is a rich-text facet feature. Only links are produced.
type Feature struct {
	Type string `json:"$type"`
	URI  string `json:"uri"`
}

// Facet marks a byte range of the text with features.
type Facet struct {
	Index    ByteSlice `json:"index"`
	Features []Feature `json:"features"`
}

// External is a link card. Thumb is a blob reference from UploadBlob.
type External struct {
	URI         string          `json:"uri"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Thumb       json.RawMessage `json:"thumb,omitempty"`
}

// Post is a post ready to be written to the repository.
type Post struct {
	Text      string
	Facets    []Facet
	External  *External
	CreatedAt time.Time
}

type embedExternal struct {
	Type     string   `json:"$type"`
	External External `json:"external"`
}

type postRecord struct {
	Type      string         `json:"$type"`
	Text      string         `json:"text"`
	CreatedAt string         `json:"createdAt"`
	Facets    []Facet        `json:"facets,omitempty"`
	Embed     *embedExternal `json:"embed,omitempty"`
}

type createRecordRequest struct {
	Repo       string     `json:"repo"`
	Collection string     `json:"collection"`
	Record     postRecord `json:"record"`
}

type createRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

var dashReplacer = strings.NewReplacer(
	"\u2010", "-", "\u2011", "-", "\u2012", "-", "\u2013", "-",
	"\u2014", "-", "\u2015", "-", "\u2212", "-",
)

// CleanTitle replaces typographic dashes with '-' and trims space.
func CleanTitle(title string) string {
	return strings.TrimSpace(dashReplacer.Replace(title))
}

// LinkPost builds "<title> [Discussion]" with the label linked to
// discussionURL and a link card for the article. The title is shortened
// with an ellipsis when the text would exceed MaxPostChars.
func LinkPost(title, articleURL, discussionURL, description string, thumb json.RawMessage) Post {
	clean := CleanTitle(title)
	budget := MaxPostChars - utf8.RuneCountInString(DiscussionLabel) - 1
	if utf8.RuneCountInString(clean) > budget {
		clean = string([]rune(clean)[:budget-1]) + "…"
	}
	text := clean + " " + DiscussionLabel
	end := len(text)
	start := end - len(DiscussionLabel)
	if description == "" {
		description = title
	}
	return Post{
		Text: text,
		Facets: []Facet{{
			Index:    ByteSlice{ByteStart: start, ByteEnd: end},
			Features: []Feature{{Type: "app.bsky.richtext.facet#link", URI: discussionURL}},
		}},
		External: &External{
			URI:         articleURL,
			Title:       title,
			Description: description,
			Thumb:       thumb,
		},
	}
}

// CreatePost writes p as an app.bsky.feed.post record and returns its URI.
func (c *Client) CreatePost(ctx context.Context, p Post) (string, error) {
	if c == nil {
		return "", errors.New("nil bluesky client")
	}
	if c.session == nil {
		return "", ErrNoSession
	}
	if strings.TrimSpace(p.Text) == "" {
		return "", errors.New("empty post text")
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	rec := postRecord{
		Type:      "app.bsky.feed.post",
		Text:      p.Text,
		CreatedAt: created.UTC().Format(time.RFC3339Nano),
		Facets:    p.Facets,
	}
	if p.External != nil {
		rec.Embed = &embedExternal{Type: "app.bsky.embed.external", External: *p.External}
	}
	body, err := json.Marshal(createRecordRequest{
		Repo:       c.session.DID,
		Collection: "app.bsky.feed.post",
		Record:     rec,
	})
	if err != nil {
		return "", err
	}
	var out createRecordResponse
	if err := c.call(ctx, http.MethodPost, "com.atproto.repo.createRecord", nil, "application/json", bytes.NewReader(body), true, &out); err != nil {
		return "", err
	}
	if out.URI == "" {
		return "", fmt.Errorf("create post: missing uri in response")
	}
	return out.URI, nil
}
