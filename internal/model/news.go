package model

import (
	"math"
	"time"
)

// Candidate is a trending item eligible for publication. Build it with
// NewCandidate so Hotness is computed once against the run's clock.
type Candidate struct {
	Title         string    `json:"title"`
	ArticleURL    string    `json:"article_url"`
	DiscussionURL string    `json:"discussion_url"`
	Points        int       `json:"points"`
	PublishedAt   time.Time `json:"published_at"`
	Hotness       float64   `json:"hotness"`
}

// NewCandidate builds a Candidate and scores it as of now.
func NewCandidate(title, articleURL, discussionURL string, points int, publishedAt, now time.Time) Candidate {
	return Candidate{
		Title:         title,
		ArticleURL:    articleURL,
		DiscussionURL: discussionURL,
		Points:        points,
		PublishedAt:   publishedAt,
		Hotness:       Hotness(points, publishedAt, now),
	}
}

// Hotness scores popularity against age: log10(points+1) - hours/24.
// One order of magnitude of points offsets one day of age. A publishedAt
// after now gives a negative age and is scored as is.
func Hotness(points int, publishedAt, now time.Time) float64 {
	if points < 0 {
		points = 0
	}
	hours := now.Sub(publishedAt).Hours()
	return math.Log10(float64(points)+1) - hours/24
}

// Thumbnail is a preview image ready for upload. The zero value means no
// image was found or it could not be fetched.
type Thumbnail struct {
	Data     []byte
	MimeType string
}

// Present reports whether the thumbnail carries image bytes.
func (t Thumbnail) Present() bool {
	return len(t.Data) > 0
}

// Size returns the encoded size in bytes.
func (t Thumbnail) Size() int {
	return len(t.Data)
}
