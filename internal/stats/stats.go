// Package stats computes outcome metrics and renders plain-text reports.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/habitbattle/internal/model"
)

const sparkRunes = "▁▂▃▄▅▆▇█"

// Summary totals a slice of journal rows.
type Summary struct {
	Completed        int
	Failed           int
	Currency         int
	Experience       int
	BonusCompletions int
	SuccessRate      float64
	AvgMultiplier    float64
	BestMultiplier   float64
}

// Day buckets journal rows of one local calendar day.
type Day struct {
	Date       time.Time
	Completed  int
	Failed     int
	Currency   int
	Experience int
}

// SuccessRate returns completed / (completed + failed), or 0 with no data.
func SuccessRate(completed, failed int) float64 {
	total := completed + failed
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

// Summarize totals outcomes.
func Summarize(outcomes []model.Outcome) Summary {
	var s Summary
	var multSum float64
	for _, o := range outcomes {
		if o.Kind != model.OutcomeCompleted {
			s.Failed++
			continue
		}
		s.Completed++
		s.Currency += o.Reward.CurrencyDelta
		s.Experience += o.Reward.ExperienceDelta
		if o.BonusActive {
			s.BonusCompletions++
		}
		multSum += o.Reward.Multiplier
		if o.Reward.Multiplier > s.BestMultiplier {
			s.BestMultiplier = o.Reward.Multiplier
		}
	}
	s.SuccessRate = SuccessRate(s.Completed, s.Failed)
	if s.Completed > 0 {
		s.AvgMultiplier = multSum / float64(s.Completed)
	}
	return s
}

// Daily buckets outcomes into the last n days ending on now's day, oldest
// first. Days without rows are kept as zero buckets.
func Daily(outcomes []model.Outcome, n int, now time.Time) []Day {
	if n <= 0 {
		return nil
	}
	loc := now.Location()
	last := midnight(now)
	first := last.AddDate(0, 0, -(n - 1))
	days := make([]Day, n)
	for i := range days {
		days[i].Date = first.AddDate(0, 0, i)
	}
	for _, o := range outcomes {
		d := midnight(o.OccurredAt.In(loc))
		if d.Before(first) || d.After(last) {
			continue
		}
		idx := 0
		for idx < n-1 && days[idx+1].Date.Compare(d) <= 0 {
			idx++
		}
		if o.Kind == model.OutcomeCompleted {
			days[idx].Completed++
			days[idx].Currency += o.Reward.CurrencyDelta
			days[idx].Experience += o.Reward.ExperienceDelta
		} else {
			days[idx].Failed++
		}
	}
	return days
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders values as a row of block glyphs.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := bounds(values)
	glyphs := []rune(sparkRunes)
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(glyphs[0]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(glyphs)-1)))
		b.WriteRune(glyphs[max(0, min(idx, len(glyphs)-1))])
	}
	return b.String()
}

// RewardSeries returns the currency granted per completion, oldest first.
func RewardSeries(outcomes []model.Outcome) []float64 {
	out := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Kind == model.OutcomeCompleted {
			out = append(out, float64(o.Reward.CurrencyDelta))
		}
	}
	return out
}

// RenderSummary prints the profile and journal totals.
func RenderSummary(w io.Writer, user model.UserState, s Summary) error {
	lines := []string{
		"Summary",
		fmt.Sprintf("Level: %d (%d/%d exp)", user.Level, user.Experience, user.MaxExp),
		fmt.Sprintf("Currency: %d WP", user.Currency),
		fmt.Sprintf("Streak: %d  Combo: %d  Fatigue: %d%%", user.Streak, user.Combo, user.Fatigue),
		fmt.Sprintf("Completed: %d  Postponed: %d  Success: %.1f%%", s.Completed, s.Failed, s.SuccessRate*100),
		fmt.Sprintf("Earned: %d WP, %d exp", s.Currency, s.Experience),
		fmt.Sprintf("Bonus completions: %d  Avg multiplier: x%.2f  Best: x%.2f", s.BonusCompletions, s.AvgMultiplier, s.BestMultiplier),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// CategoryRows builds the per-category table rows, lowest success first.
func CategoryRows(categories []model.TaskCategory, aggs []model.CategoryAggregate) [][]string {
	byID := make(map[string]model.CategoryAggregate, len(aggs))
	for _, a := range aggs {
		byID[a.CategoryID] = a
	}
	sorted := make([]model.TaskCategory, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return categoryRate(sorted[i]) < categoryRate(sorted[j])
	})
	rows := make([][]string, 0, len(sorted))
	for _, c := range sorted {
		a := byID[c.ID]
		rows = append(rows, []string{
			c.Name,
			fmt.Sprintf("x%.1f", c.BaseMultiplier),
			fmt.Sprintf("%d", c.UsageCount),
			fmt.Sprintf("%.0f%%", categoryRate(c)*100),
			fmt.Sprintf("%d", a.Completed),
			fmt.Sprintf("%d", a.Failed),
			fmt.Sprintf("%d", a.Currency),
		})
	}
	return rows
}

// CategoryHeaders labels the columns of CategoryRows.
var CategoryHeaders = []string{"Category", "Mult", "Used", "Success", "Done", "Postponed", "WP"}

// RenderCategoryTable prints per-category counters.
func RenderCategoryTable(w io.Writer, categories []model.TaskCategory, aggs []model.CategoryAggregate) error {
	if len(categories) == 0 {
		_, err := fmt.Fprintln(w, "No categories configured.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Categories"); err != nil {
		return err
	}
	right := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(CategoryHeaders, CategoryRows(categories, aggs), right) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCurves plots daily completions and earned currency.
func RenderCurves(w io.Writer, days []Day, window, totalWidth, height int, useColor bool) error {
	if len(days) == 0 {
		return nil
	}
	done := make([]float64, len(days))
	earned := make([]float64, len(days))
	for i, d := range days {
		done[i] = float64(d.Completed)
		earned[i] = float64(d.Currency)
	}
	chart := Chart{
		Title: fmt.Sprintf("Last %d days", len(days)),
		Series: []Series{
			{Name: "Completed", Values: MovingAverage(done, window)},
			{Name: "WP", Values: MovingAverage(earned, window)},
		},
		Height: height,
		Color:  useColor,
	}
	if totalWidth > 0 {
		chart.Width = PlotWidthFor(totalWidth)
	}
	return chart.Render(w)
}

func categoryRate(c model.TaskCategory) float64 {
	if c.UsageCount == 0 {
		return 1
	}
	return float64(c.SuccessCount) / float64(c.UsageCount)
}

func bounds(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
