package hackernews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:atom="http://www.w3.org/2005/Atom">
<channel>
<title>Hacker News: Front Page</title>
<link>https://news.ycombinator.com/</link>
<description>Hacker News RSS</description>
<item>
  <title>Hundred Points</title>
  <description><![CDATA[<p>Article URL: <a href="https://example.com/a">https://example.com/a</a></p><p>Comments URL: <a href="https://news.ycombinator.com/item?id=1">https://news.ycombinator.com/item?id=1</a></p><p>Points: 100</p><p># Comments: 12</p>]]></description>
  <pubDate>Fri, 24 Oct 2025 11:00:00 +0000</pubDate>
  <link>https://example.com/a</link>
  <comments>https://news.ycombinator.com/item?id=1</comments>
  <guid isPermaLink="false">https://news.ycombinator.com/item?id=1</guid>
</item>
<item>
  <title>No Points Here</title>
  <description><![CDATA[<p>Article URL: https://example.com/b</p>]]></description>
  <pubDate>Fri, 24 Oct 2025 11:00:00 +0000</pubDate>
  <link>https://example.com/b</link>
  <comments>https://news.ycombinator.com/item?id=2</comments>
</item>
<item>
  <title>Five Points</title>
  <description><![CDATA[<p>POINTS: 5</p>]]></description>
  <pubDate>Fri, 24 Oct 2025 11:00:00 +0000</pubDate>
  <link>https://example.com/c</link>
  <comments>https://news.ycombinator.com/item?id=3</comments>
</item>
</channel>
</rss>`

func TestFrontPage(t *testing.T) {
	var gotCount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCount = r.URL.Query().Get("count")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/frontpage", 30, 5*time.Second)
	now := time.Date(2025, 10, 24, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	items, err := c.FrontPage(context.Background())
	if err != nil {
		t.Fatalf("FrontPage error: %v", err)
	}
	if gotCount != "30" {
		t.Errorf("count query = %q, want 30", gotCount)
	}
	if len(items) != 2 {
		t.Fatalf("got %d candidates, want 2 (unparseable item skipped)", len(items))
	}
	first := items[0]
	if first.Title != "Hundred Points" || first.ArticleURL != "https://example.com/a" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if first.DiscussionURL != "https://news.ycombinator.com/item?id=1" {
		t.Errorf("discussion url = %q", first.DiscussionURL)
	}
	if first.Points != 100 {
		t.Errorf("points = %d, want 100", first.Points)
	}
	if !first.PublishedAt.Equal(now.Add(-time.Hour)) {
		t.Errorf("published = %s", first.PublishedAt)
	}
	if items[1].Points != 5 {
		t.Errorf("case-insensitive points: got %d", items[1].Points)
	}
	if items[0].Hotness <= items[1].Hotness {
		t.Errorf("hotness not computed: %f <= %f", items[0].Hotness, items[1].Hotness)
	}
}

func TestFrontPageStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, 0, time.Second)
	if _, err := c.FrontPage(context.Background()); err == nil {
		t.Fatalf("expected error for 502")
	}
}

func TestParsePoints(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "<p>Points: 42</p><p># Comments: 3</p>", want: 42},
		{in: "points:7", want: 7},
		{in: "Points:  0 <br>", want: 0},
		{in: "points: 1 points: 9</p>", want: 9},
		{in: "no marker", wantErr: true},
		{in: "Points: many</p>", wantErr: true},
		{in: "Points: -3", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParsePoints(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePoints(%q) expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePoints(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePoints(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
