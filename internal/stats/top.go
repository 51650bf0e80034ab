package stats

import (
	"sort"

	"github.com/verte-zerg/habitbattle/internal/model"
)

// TopCategories returns the n most used category ids by journal rows.
func TopCategories(aggs []model.CategoryAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := make([]model.CategoryAggregate, len(aggs))
	copy(items, aggs)
	sort.Slice(items, func(i, j int) bool {
		ti := items[i].Completed + items[i].Failed
		tj := items[j].Completed + items[j].Failed
		if ti == tj {
			return items[i].CategoryID < items[j].CategoryID
		}
		return ti > tj
	})
	n = min(n, len(items))
	out := make([]string, 0, n)
	for _, it := range items[:n] {
		out = append(out, it.CategoryID)
	}
	return out
}
