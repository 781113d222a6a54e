// Package ranking orders candidates by hotness and drops the ones that
// were already published.
package ranking

import (
	"sort"

	"hackersky/internal/model"
)

// Rank returns the topN hottest candidates, hottest first. Candidates with
// equal hotness keep their feed order. items is not modified.
func Rank(items []model.Candidate, topN int) []model.Candidate {
	if topN <= 0 || len(items) == 0 {
		return []model.Candidate{}
	}
	out := make([]model.Candidate, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hotness > out[j].Hotness
	})
	return out[:min(topN, len(out))]
}
