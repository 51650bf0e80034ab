package stats

import (
	"testing"

	"github.com/verte-zerg/habitbattle/internal/model"
)

func TestTopCategories(t *testing.T) {
	aggs := []model.CategoryAggregate{
		{CategoryID: "body", Completed: 3, Failed: 1},
		{CategoryID: "care", Completed: 2, Failed: 2},
		{CategoryID: "focus", Completed: 1},
	}
	top := TopCategories(aggs, 2)
	if len(top) != 2 || top[0] != "body" || top[1] != "care" {
		t.Fatalf("unexpected order: %v", top)
	}
	if got := TopCategories(aggs, 0); got != nil {
		t.Fatalf("n=0 should return nil, got %v", got)
	}
}

func TestWeakCategories(t *testing.T) {
	aggs := []model.CategoryAggregate{
		{CategoryID: "body", Completed: 3, Failed: 1},
		{CategoryID: "care", Completed: 1, Failed: 3},
		{CategoryID: "focus", Completed: 2, Failed: 2},
		{CategoryID: "idle"},
	}
	weak := WeakCategories(aggs, 2)
	if len(weak) != 2 || weak[0] != "care" || weak[1] != "focus" {
		t.Fatalf("unexpected weak set: %v", weak)
	}
	if all := WeakCategories(aggs, 0); len(all) != 3 {
		t.Fatalf("categories without rows should be skipped: %v", all)
	}
}
