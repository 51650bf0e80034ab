// Package schedule resolves the active time window.
package schedule

import "github.com/verte-zerg/habitbattle/internal/model"

// Contains reports whether hour falls inside the window. A window whose start
// is after its end wraps past midnight; equal start and end covers the whole
// day.
func Contains(w model.TimeWindow, hour int) bool {
	if w.StartHour < w.EndHour {
		return hour >= w.StartHour && hour < w.EndHour
	}
	return hour >= w.StartHour || hour < w.EndHour
}

// Resolve returns the first window in configured order that contains hour.
func Resolve(windows []model.TimeWindow, hour int) (model.TimeWindow, bool) {
	for _, w := range windows {
		if Contains(w, hour) {
			return w, true
		}
	}
	return model.TimeWindow{}, false
}

// Multiplier returns the reward multiplier of the active window, or 1.0.
func Multiplier(w *model.TimeWindow) float64 {
	if w == nil || w.Multiplier <= 0 {
		return 1.0
	}
	return w.Multiplier
}

// Overlaps lists pairs of window ids that share at least one hour.
func Overlaps(windows []model.TimeWindow) [][2]string {
	var out [][2]string
	for i := 0; i < len(windows); i++ {
		for j := i + 1; j < len(windows); j++ {
			for h := 0; h < 24; h++ {
				if Contains(windows[i], h) && Contains(windows[j], h) {
					out = append(out, [2]string{windows[i].ID, windows[j].ID})
					break
				}
			}
		}
	}
	return out
}
