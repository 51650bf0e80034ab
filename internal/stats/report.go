package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/habitbattle/internal/model"
)

// Source is the journal view a report is built from.
type Source interface {
	ListOutcomes(ctx context.Context, filter model.StatsFilter) ([]model.Outcome, error)
	CategoryAggregates(ctx context.Context, ids []string) ([]model.CategoryAggregate, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Outcomes   []model.Outcome
	Aggregates []model.CategoryAggregate
	Summary    Summary
	Days       []Day
	Weak       []string
	Top        []string
}

// BuildReport loads journal rows matching filter and derives the report.
func BuildReport(ctx context.Context, src Source, filter model.StatsFilter, days int, now time.Time) (Report, error) {
	outcomes, err := src.ListOutcomes(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	var ids []string
	if filter.CategoryID != "" {
		ids = []string{filter.CategoryID}
	}
	aggs, err := src.CategoryAggregates(ctx, ids)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Outcomes:   outcomes,
		Aggregates: aggs,
		Summary:    Summarize(outcomes),
		Days:       Daily(outcomes, days, now),
		Weak:       WeakCategories(aggs, 3),
		Top:        TopCategories(aggs, 3),
	}, nil
}
