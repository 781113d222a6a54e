// Package thumbnail finds an article's social preview image and makes it
// small enough to embed in a post.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hackersky/internal/model"

	"github.com/PuerkitoBio/goquery"
)

// Supported lossy output formats.
const (
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
)

// Options configures a Normalizer. Zero values take the defaults noted on
// each field.
type Options struct {
	MaxBytes         int     // 1,000,000
	Scale            float64 // 0.9, must be in (0, 1)
	MinDimension     int     // 10 px
	Format           string  // jpeg
	Quality          int     // 85
	MaxDownloadBytes int64   // 20 MiB
	UserAgent        string
	Timeout          time.Duration // 20s, ignored when Client is set
	Client           *http.Client
}

// Normalizer fetches and resizes preview images.
type Normalizer struct {
	maxBytes    int
	scale       float64
	minDim      int
	format      string
	quality     int
	maxDownload int64
	userAgent   string
	http        *http.Client
}

// New creates a Normalizer from opts.
func New(opts Options) *Normalizer {
	n := &Normalizer{
		maxBytes:    opts.MaxBytes,
		scale:       opts.Scale,
		minDim:      opts.MinDimension,
		format:      strings.ToLower(strings.TrimSpace(opts.Format)),
		quality:     opts.Quality,
		maxDownload: opts.MaxDownloadBytes,
		userAgent:   opts.UserAgent,
		http:        opts.Client,
	}
	if n.maxBytes <= 0 {
		n.maxBytes = 1_000_000
	}
	if n.scale <= 0 || n.scale >= 1 {
		n.scale = 0.9
	}
	if n.minDim <= 0 {
		n.minDim = 10
	}
	if n.format != FormatWebP {
		n.format = FormatJPEG
	}
	if n.quality <= 0 || n.quality > 100 {
		n.quality = 85
	}
	if n.maxDownload <= 0 {
		n.maxDownload = 20 << 20
	}
	if n.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		n.http = &http.Client{Timeout: timeout}
	}
	return n
}

// Preview is what an article page offers for a link card.
type Preview struct {
	ImageURL    string
	Description string
	Thumbnail   model.Thumbnail
}

// Normalize returns the page's og:image, shrunk to fit MaxBytes when
// needed. Any failure yields an absent thumbnail.
func (n *Normalizer) Normalize(ctx context.Context, pageURL string) model.Thumbnail {
	return n.Preview(ctx, pageURL).Thumbnail
}

// Preview fetches pageURL once and returns its og:description together with
// the normalized og:image. Failures are logged and leave fields empty.
func (n *Normalizer) Preview(ctx context.Context, pageURL string) Preview {
	var p Preview
	doc, base, err := n.fetchPage(ctx, pageURL)
	if err != nil {
		slog.Info("thumbnail: page unavailable", "url", pageURL, "error", err)
		return p
	}
	p.Description = metaContent(doc, "og:description")
	imgRef := metaContent(doc, "og:image")
	if imgRef == "" {
		slog.Info("thumbnail: no og:image", "url", pageURL)
		return p
	}
	imgURL, err := base.Parse(imgRef)
	if err != nil {
		slog.Info("thumbnail: bad og:image reference", "url", pageURL, "ref", imgRef, "error", err)
		return p
	}
	p.ImageURL = imgURL.String()

	data, contentType, err := n.fetchImage(ctx, p.ImageURL)
	if err != nil {
		slog.Info("thumbnail: image unavailable", "url", p.ImageURL, "error", err)
		return p
	}
	if len(data) <= n.maxBytes {
		mime := sniffImageType(data, contentType)
		if mime == "" {
			slog.Info("thumbnail: not an image", "url", p.ImageURL, "content_type", contentType)
			return p
		}
		p.Thumbnail = model.Thumbnail{Data: data, MimeType: mime}
		return p
	}
	out, err := n.Shrink(data)
	if err != nil {
		slog.Info("thumbnail: cannot shrink", "url", p.ImageURL, "error", err)
		return p
	}
	slog.Info("thumbnail: shrunk", "url", p.ImageURL, "from_bytes", len(data), "to_bytes", len(out))
	p.Thumbnail = model.Thumbnail{Data: out, MimeType: n.MimeType()}
	return p
}

// MimeType is the content type of re-encoded thumbnails.
func (n *Normalizer) MimeType() string {
	if n.format == FormatWebP {
		return "image/webp"
	}
	return "image/jpeg"
}

func (n *Normalizer) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid url: %w", err)
	}
	resp, err := n.get(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("page status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, n.maxDownload))
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}
	// Redirects change the base for relative og:image references.
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	return doc, base, nil
}

func (n *Normalizer) fetchImage(ctx context.Context, imgURL string) ([]byte, string, error) {
	resp, err := n.get(ctx, imgURL)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, n.maxDownload+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > n.maxDownload {
		return nil, "", fmt.Errorf("image larger than %d bytes", n.maxDownload)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty image")
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (n *Normalizer) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}
	return n.http.Do(req)
}

func metaContent(doc *goquery.Document, property string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First()
	v, _ := sel.Attr("content")
	return strings.TrimSpace(v)
}

// sniffImageType prefers the sniffed type and falls back to the declared
// header; anything that is not image/* is rejected.
func sniffImageType(data []byte, declared string) string {
	if t := http.DetectContentType(data); strings.HasPrefix(t, "image/") {
		return t
	}
	declared = strings.TrimSpace(strings.Split(declared, ";")[0])
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	return ""
}
