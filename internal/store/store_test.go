package store

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/habitbattle/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "habitbattle.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return s
}

func sampleSnapshot() model.Snapshot {
	now := time.Date(2026, 4, 2, 7, 30, 0, 0, time.UTC)
	snap := model.NewSnapshot(model.DefaultRules(), model.DefaultCategories(), model.DefaultTimeWindows(), now)
	limit := 120
	snap.Tasks = []model.Task{{
		ID:           "t-1",
		Title:        "Stretch right now",
		CategoryID:   "body",
		Difficulty:   2,
		BaseReward:   model.Reward{CurrencyDelta: 10, ExperienceDelta: 20, Multiplier: 1},
		TimeLimitSec: &limit,
		Status:       model.StatusPending,
		CreatedAt:    now,
	}}
	snap.User.Fatigue = 35
	snap.Categories[0].UsageCount = 4
	snap.Categories[0].SuccessCount = 3
	snap.BattlePass.Rewards[0].Claimed = true
	snap.SavedAt = now
	return snap
}

func TestLoadEmpty(t *testing.T) {
	s := openTemp(t)
	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected no snapshot, got %+v", snap)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	want := sampleSnapshot()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatalf("expected a snapshot")
	}
	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	if !bytes.Equal(wantJSON, gotJSON) {
		t.Fatalf("round trip mismatch:\nwant %s\ngot  %s", wantJSON, gotJSON)
	}

	want.User.Currency = 7
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.User.Currency != 7 {
		t.Fatalf("last write did not win: %d", got.User.Currency)
	}
}

func TestLoadMalformedPayload(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO state (key, payload, saved_at) VALUES (?, ?, ?)`, snapshotKey, "{not json", "x"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Load(ctx); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestOutcomesAndAggregates(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	rows := []model.Outcome{
		{TaskID: "a", Title: "A", CategoryID: "body", Difficulty: 1, Kind: model.OutcomeCompleted, Reward: model.Reward{CurrencyDelta: 5, ExperienceDelta: 10, Multiplier: 1}, OccurredAt: base},
		{TaskID: "b", Title: "B", CategoryID: "focus", Difficulty: 3, Kind: model.OutcomeCompleted, Reward: model.Reward{CurrencyDelta: 46, ExperienceDelta: 90, Multiplier: 2}, BonusActive: true, WindowID: "morning", OccurredAt: base.Add(time.Hour)},
		{TaskID: "c", Title: "C", CategoryID: "body", Difficulty: 2, Kind: model.OutcomeFailed, OccurredAt: base.Add(2 * time.Hour)},
		{TaskID: "d", Title: "D", CategoryID: "body", Difficulty: 2, Kind: model.OutcomeCompleted, Reward: model.Reward{CurrencyDelta: 10, ExperienceDelta: 20, Multiplier: 1}, OccurredAt: base.Add(3*time.Hour + 500*time.Millisecond)},
	}
	for _, o := range rows {
		if err := s.RecordOutcome(ctx, o); err != nil {
			t.Fatalf("record %s: %v", o.TaskID, err)
		}
	}

	all, err := s.ListOutcomes(ctx, model.StatsFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].TaskID != "a" || all[3].TaskID != "d" {
		t.Fatalf("unexpected order: %+v", all)
	}
	if !all[1].BonusActive || all[1].WindowID != "morning" || all[1].Reward.Multiplier != 2 {
		t.Fatalf("fields lost: %+v", all[1])
	}
	if !all[3].OccurredAt.Equal(rows[3].OccurredAt) {
		t.Fatalf("timestamp = %v, want %v", all[3].OccurredAt, rows[3].OccurredAt)
	}

	last, err := s.ListOutcomes(ctx, model.StatsFilter{Last: 2})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 2 || last[0].TaskID != "c" || last[1].TaskID != "d" {
		t.Fatalf("unexpected last rows: %+v", last)
	}

	since := base.Add(90 * time.Minute)
	body, err := s.ListOutcomes(ctx, model.StatsFilter{CategoryID: "body", Since: &since})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(body) != 2 || body[0].TaskID != "c" {
		t.Fatalf("unexpected filtered rows: %+v", body)
	}

	aggs, err := s.CategoryAggregates(ctx, nil)
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 categories, got %+v", aggs)
	}
	if a := aggs[0]; a.CategoryID != "body" || a.Completed != 2 || a.Failed != 1 || a.Currency != 15 || a.Experience != 30 {
		t.Fatalf("body aggregate = %+v", a)
	}

	only, err := s.CategoryAggregates(ctx, []string{"focus"})
	if err != nil {
		t.Fatalf("aggregates by id: %v", err)
	}
	if len(only) != 1 || only[0].Currency != 46 {
		t.Fatalf("focus aggregate = %+v", only)
	}
}

func TestReset(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if err := s.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.RecordOutcome(ctx, model.Outcome{TaskID: "x", Kind: model.OutcomeFailed, OccurredAt: time.Now()}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	snap, err := s.Load(ctx)
	if err != nil || snap != nil {
		t.Fatalf("snapshot survived reset: %v %v", snap, err)
	}
	rows, err := s.ListOutcomes(ctx, model.StatsFilter{})
	if err != nil || len(rows) != 0 {
		t.Fatalf("journal survived reset: %v %v", rows, err)
	}
}
