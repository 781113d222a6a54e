package ranking

import "hackersky/internal/model"

// Seen is the set of article URLs that were already published.
type Seen map[string]struct{}

// SeenSet merges any number of URL lists into a Seen set. Empty strings
// are ignored.
func SeenSet(lists ...[]string) Seen {
	s := Seen{}
	for _, l := range lists {
		for _, u := range l {
			if u == "" {
				continue
			}
			s[u] = struct{}{}
		}
	}
	return s
}

// Has reports whether url is in the set.
func (s Seen) Has(url string) bool {
	_, ok := s[url]
	return ok
}

// FilterUnseen drops candidates whose ArticleURL is in seen and keeps the
// rest in order. Matching is exact: "https://a.com/x" and
// "https://a.com/x?utm_source=hn" are different articles here.
func FilterUnseen(candidates []model.Candidate, seen Seen) []model.Candidate {
	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen.Has(c.ArticleURL) {
			continue
		}
		out = append(out, c)
	}
	return out
}
