package statsui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/habitbattle/internal/model"
)

var now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	outcomes []model.Outcome
	err      error
	filters  []model.StatsFilter
}

func (f *fakeSource) ListOutcomes(_ context.Context, filter model.StatsFilter) ([]model.Outcome, error) {
	f.filters = append(f.filters, filter)
	return f.outcomes, f.err
}

func (f *fakeSource) CategoryAggregates(context.Context, []string) ([]model.CategoryAggregate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []model.CategoryAggregate{{CategoryID: "body", Completed: 1, Currency: 10, Experience: 20}}, nil
}

func newTestModel(t *testing.T, src *fakeSource, opts ...Option) *Model {
	t.Helper()
	snap := model.NewSnapshot(model.DefaultRules(), model.DefaultCategories(), model.DefaultTimeWindows(), now)
	opts = append(opts, WithNow(func() time.Time { return now }))
	m := NewModel(src, snap, model.StatsFilter{}, opts...)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestOverviewAndHistory(t *testing.T) {
	src := &fakeSource{outcomes: []model.Outcome{
		{Title: "Do 20 squats", CategoryID: "body", Kind: model.OutcomeCompleted, Reward: model.Reward{CurrencyDelta: 10, ExperienceDelta: 20, Multiplier: 1.5}, OccurredAt: now.Add(-time.Hour)},
		{Title: "Tidy the desk", CategoryID: "care", Kind: model.OutcomeFailed, OccurredAt: now.Add(-time.Minute)},
	}}
	m := newTestModel(t, src)

	view := m.View()
	if !strings.Contains(view, "Overview") || !strings.Contains(view, "Level") {
		t.Fatalf("overview not rendered:\n%s", view)
	}
	if !strings.Contains(view, "1 / 2") {
		t.Fatalf("completion count missing:\n%s", view)
	}

	m.Update(key("l"))
	m.Update(key("l"))
	view = m.View()
	first := strings.Index(view, "Tidy the desk")
	second := strings.Index(view, "Do 20 squats")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("history should list newest first:\n%s", view)
	}
	if !strings.Contains(view, "Body") {
		t.Fatalf("category name not resolved:\n%s", view)
	}
}

func TestCategoriesTab(t *testing.T) {
	m := newTestModel(t, &fakeSource{})
	m.Update(key("h"))
	if m.activeTab != tabHistory {
		t.Fatalf("left from first tab should wrap, got %d", m.activeTab)
	}
	m.Update(key("l"))
	m.Update(key("l"))
	if m.activeTab != tabCategories {
		t.Fatalf("active tab = %d", m.activeTab)
	}
	if view := m.View(); !strings.Contains(view, "Recovery") || !strings.Contains(view, "Postponed") {
		t.Fatalf("category table not rendered:\n%s", view)
	}
}

func TestFilterForm(t *testing.T) {
	src := &fakeSource{}
	m := newTestModel(t, src)

	m.Update(key("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.Update(key("body"))
	m.Update(key("tab"))
	m.Update(key("tab"))
	m.Update(key("5"))
	m.Update(key("enter"))
	if m.filterMode {
		t.Fatalf("filter not applied: %s", m.filterError)
	}
	got := src.filters[len(src.filters)-1]
	if got.CategoryID != "body" || got.Last != 5 {
		t.Fatalf("filter = %+v", got)
	}

	m.Update(key("/"))
	m.Update(key("tab"))
	m.Update(key("yesterday"))
	m.Update(key("enter"))
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("bad date should keep the form open with an error")
	}
	m.Update(key("esc"))
	if m.filterMode {
		t.Fatalf("esc should close the form")
	}
}

func TestParseFilter(t *testing.T) {
	f, days, err := parseFilter(" focus ", "2026-05-01", "", "30")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.CategoryID != "focus" || f.Since == nil || days != 30 {
		t.Fatalf("filter = %+v days=%d", f, days)
	}
	for _, tc := range [][4]string{
		{"", "05/01", "", ""},
		{"", "", "-1", ""},
		{"", "", "", "0"},
		{"", "", "", "500"},
	} {
		if _, _, err := parseFilter(tc[0], tc[1], tc[2], tc[3]); err == nil {
			t.Fatalf("expected error for %v", tc)
		}
	}
}

func TestDaysSteps(t *testing.T) {
	m := newTestModel(t, &fakeSource{})
	m.Update(key("="))
	if m.days != 21 {
		t.Fatalf("days = %d, want 21", m.days)
	}
	m.Update(key("-"))
	m.Update(key("-"))
	m.Update(key("-"))
	if m.days != 1 {
		t.Fatalf("days = %d, want 1", m.days)
	}
}

func TestCloseMessage(t *testing.T) {
	m := newTestModel(t, &fakeSource{}, Embedded())
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	if _, ok := cmd().(CloseMsg); !ok {
		t.Fatalf("embedded model should emit CloseMsg")
	}

	standalone := newTestModel(t, &fakeSource{})
	_, cmd = standalone.Update(key("q"))
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("standalone model should quit")
	}
}

func TestLoadError(t *testing.T) {
	m := newTestModel(t, &fakeSource{err: errors.New("disk gone")})
	if view := m.View(); !strings.Contains(view, "disk gone") {
		t.Fatalf("error not shown:\n%s", view)
	}
}

func TestWithDays(t *testing.T) {
	m := newTestModel(t, &fakeSource{}, WithDays(30))
	if m.days != 30 {
		t.Fatalf("days = %d, want 30", m.days)
	}
	m = newTestModel(t, &fakeSource{}, WithDays(0))
	if m.days != defaultDays {
		t.Fatalf("days = %d, want default", m.days)
	}
}
