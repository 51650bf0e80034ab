package schedule

import (
	"testing"

	"github.com/verte-zerg/habitbattle/internal/model"
)

func TestResolveWrappingWindow(t *testing.T) {
	night := model.TimeWindow{ID: "night", StartHour: 22, EndHour: 6, Multiplier: 1}
	want := map[int]bool{22: true, 23: true, 0: true, 1: true, 2: true, 3: true, 4: true, 5: true}
	for h := 0; h < 24; h++ {
		_, ok := Resolve([]model.TimeWindow{night}, h)
		if ok != want[h] {
			t.Fatalf("hour %d: matched=%v, want %v", h, ok, want[h])
		}
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	windows := []model.TimeWindow{
		{ID: "a", StartHour: 8, EndHour: 12},
		{ID: "b", StartHour: 10, EndHour: 14},
	}
	w, ok := Resolve(windows, 11)
	if !ok || w.ID != "a" {
		t.Fatalf("expected first configured window, got %+v (ok=%v)", w, ok)
	}
	w, ok = Resolve(windows, 13)
	if !ok || w.ID != "b" {
		t.Fatalf("expected b at 13, got %+v (ok=%v)", w, ok)
	}
}

func TestResolveNonOverlappingCoversExactlyOne(t *testing.T) {
	windows := model.DefaultTimeWindows()
	if overlaps := Overlaps(windows); len(overlaps) != 0 {
		t.Fatalf("default windows overlap: %v", overlaps)
	}
	for h := 0; h < 24; h++ {
		w, ok := Resolve(windows, h)
		if !ok {
			t.Fatalf("hour %d not covered by default windows", h)
		}
		if !Contains(w, h) {
			t.Fatalf("hour %d resolved to %s which does not contain it", h, w.ID)
		}
		matches := 0
		for _, candidate := range windows {
			if Contains(candidate, h) {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("hour %d matched %d windows", h, matches)
		}
	}
}

func TestResolveNoMatch(t *testing.T) {
	windows := []model.TimeWindow{{ID: "work", StartHour: 9, EndHour: 17}}
	if _, ok := Resolve(windows, 20); ok {
		t.Fatalf("expected no active window at 20")
	}
	if _, ok := Resolve(nil, 3); ok {
		t.Fatalf("expected no active window for empty schedule")
	}
}

func TestEqualStartEndCoversWholeDay(t *testing.T) {
	all := model.TimeWindow{ID: "all", StartHour: 7, EndHour: 7}
	for h := 0; h < 24; h++ {
		if !Contains(all, h) {
			t.Fatalf("hour %d not covered", h)
		}
	}
}

func TestMultiplier(t *testing.T) {
	if got := Multiplier(nil); got != 1.0 {
		t.Fatalf("Multiplier(nil)=%v, want 1", got)
	}
	if got := Multiplier(&model.TimeWindow{Multiplier: 2.5}); got != 2.5 {
		t.Fatalf("Multiplier=%v, want 2.5", got)
	}
	if got := Multiplier(&model.TimeWindow{Multiplier: 0}); got != 1.0 {
		t.Fatalf("zero multiplier should fall back to 1, got %v", got)
	}
}

func TestOverlapsReportsPairs(t *testing.T) {
	windows := []model.TimeWindow{
		{ID: "late", StartHour: 20, EndHour: 2},
		{ID: "early", StartHour: 1, EndHour: 5},
		{ID: "noon", StartHour: 11, EndHour: 13},
	}
	got := Overlaps(windows)
	if len(got) != 1 || got[0] != [2]string{"late", "early"} {
		t.Fatalf("unexpected overlaps: %v", got)
	}
}
