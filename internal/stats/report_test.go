package stats

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/habitbattle/internal/model"
	"github.com/verte-zerg/habitbattle/internal/store"
)

func TestBuildReport(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "habitbattle.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	for _, o := range sampleOutcomes() {
		if err := st.RecordOutcome(ctx, o); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	report, err := BuildReport(ctx, st, model.StatsFilter{Last: 3}, 7, now)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(report.Outcomes))
	}
	if report.Summary.Completed != 2 || report.Summary.Failed != 1 {
		t.Fatalf("summary = %+v", report.Summary)
	}
	if len(report.Days) != 7 {
		t.Fatalf("expected 7 day buckets, got %d", len(report.Days))
	}
	if len(report.Aggregates) != 3 {
		t.Fatalf("aggregates = %+v", report.Aggregates)
	}
	if len(report.Weak) == 0 || report.Weak[0] != "focus" {
		t.Fatalf("weak = %v", report.Weak)
	}

	focus, err := BuildReport(ctx, st, model.StatsFilter{CategoryID: "focus"}, 7, now)
	if err != nil {
		t.Fatalf("build filtered report: %v", err)
	}
	if len(focus.Outcomes) != 2 || len(focus.Aggregates) != 1 {
		t.Fatalf("filtered report = %+v", focus)
	}
}
