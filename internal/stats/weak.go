package stats

import (
	"sort"

	"github.com/verte-zerg/habitbattle/internal/model"
)

// WeakCategories returns up to n category ids with the lowest journal
// success rate. Categories without rows are skipped.
func WeakCategories(aggs []model.CategoryAggregate, n int) []string {
	candidates := make([]model.CategoryAggregate, 0, len(aggs))
	for _, a := range aggs {
		if a.Completed+a.Failed > 0 {
			candidates = append(candidates, a)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ri := SuccessRate(candidates[i].Completed, candidates[i].Failed)
		rj := SuccessRate(candidates[j].Completed, candidates[j].Failed)
		if ri == rj {
			return candidates[i].CategoryID < candidates[j].CategoryID
		}
		return ri < rj
	})
	if n <= 0 || n > len(candidates) {
		n = len(candidates)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = candidates[i].CategoryID
	}
	return out
}
