package engine

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/habitbattle/internal/model"
)

// Multiplier bounds accepted from the settings surface.
const (
	MinWindowMultiplier   = 0.5
	MaxWindowMultiplier   = 5.0
	MinCategoryMultiplier = 0.5
	MaxCategoryMultiplier = 3.0
)

// CategoryPatch lists the category fields to change. Nil fields are left
// alone; invalid values are ignored.
type CategoryPatch struct {
	Name              *string
	BaseMultiplier    *float64
	DefaultTimeSecs   *int // zero or negative clears the limit
	Titles            []string
	ActionVerbs       []string
	FailurePolicy     *model.FailurePolicy
	FeedbackIntensity *model.FeedbackIntensity
	ColorTheme        *string
}

// WindowPatch lists the window fields to change. Nil fields are left alone;
// invalid values are ignored.
type WindowPatch struct {
	Name              *string
	StartHour         *int
	EndHour           *int
	Multiplier        *float64
	AllowedCategories []string
	Notify            *model.NotifyIntensity
	Theme             *string
}

// UpdateCategory applies p to the category with the given id. Unknown ids
// are ignored.
func (e *Engine) UpdateCategory(id string, p CategoryPatch) error {
	return e.do(func() {
		idx := e.categoryIndex(id)
		if idx < 0 {
			e.logger.Debug("update of unknown category", zap.String("category", id))
			return
		}
		c := &e.snap.Categories[idx]
		if p.Name != nil && *p.Name != "" {
			c.Name = *p.Name
		}
		if p.BaseMultiplier != nil && *p.BaseMultiplier > 0 {
			c.BaseMultiplier = clampFloat(*p.BaseMultiplier, MinCategoryMultiplier, MaxCategoryMultiplier)
		}
		if p.DefaultTimeSecs != nil {
			if *p.DefaultTimeSecs > 0 {
				v := *p.DefaultTimeSecs
				c.DefaultTimeSecs = &v
			} else {
				c.DefaultTimeSecs = nil
			}
		}
		if p.Titles != nil {
			c.Titles = nonEmpty(p.Titles)
		}
		if p.ActionVerbs != nil {
			c.ActionVerbs = nonEmpty(p.ActionVerbs)
		}
		if p.FailurePolicy != nil && validPolicy(*p.FailurePolicy) {
			c.FailurePolicy = *p.FailurePolicy
		}
		if p.FeedbackIntensity != nil && validFeedback(*p.FeedbackIntensity) {
			c.FeedbackIntensity = *p.FeedbackIntensity
		}
		if p.ColorTheme != nil {
			c.ColorTheme = *p.ColorTheme
		}
		e.dirty = true
	})
}

// AddCategory appends a new category with neutral settings and returns its
// id.
func (e *Engine) AddCategory() (string, error) {
	id := uuid.NewString()
	err := e.do(func() {
		e.snap.Categories = append(e.snap.Categories, model.TaskCategory{
			ID:                id,
			Name:              "New category",
			BaseMultiplier:    1.0,
			Titles:            []string{"New task"},
			ActionVerbs:       []string{"Start"},
			FailurePolicy:     model.FailureStandard,
			FeedbackIntensity: model.FeedbackNormal,
		})
		e.dirty = true
		e.logger.Info("category added", zap.String("category", id))
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateTimeWindow applies p to the window with the given id and resolves
// the active window again.
func (e *Engine) UpdateTimeWindow(id string, p WindowPatch) error {
	return e.do(func() {
		idx := e.windowIndex(id)
		if idx < 0 {
			e.logger.Debug("update of unknown window", zap.String("window", id))
			return
		}
		w := &e.snap.TimeWindows[idx]
		if p.Name != nil && *p.Name != "" {
			w.Name = *p.Name
		}
		if p.StartHour != nil && validHour(*p.StartHour) {
			w.StartHour = *p.StartHour
		}
		if p.EndHour != nil && validHour(*p.EndHour) {
			w.EndHour = *p.EndHour
		}
		if p.Multiplier != nil && *p.Multiplier > 0 {
			w.Multiplier = clampFloat(*p.Multiplier, MinWindowMultiplier, MaxWindowMultiplier)
		}
		if p.AllowedCategories != nil {
			if allowed := e.knownCategories(p.AllowedCategories); len(allowed) > 0 {
				w.AllowedCategories = allowed
			}
		}
		if p.Notify != nil && validNotify(*p.Notify) {
			w.Notify = *p.Notify
		}
		if p.Theme != nil {
			w.Theme = *p.Theme
		}
		e.dirty = true
		e.resolveWindow()
	})
}

// ToggleWindowCategory adds or removes a category from a window's allow-list.
// Removing the last entry is refused.
func (e *Engine) ToggleWindowCategory(windowID, categoryID string) error {
	return e.do(func() {
		idx := e.windowIndex(windowID)
		if idx < 0 || e.categoryIndex(categoryID) < 0 {
			return
		}
		w := &e.snap.TimeWindows[idx]
		pos := -1
		for i, id := range w.AllowedCategories {
			if id == categoryID {
				pos = i
				break
			}
		}
		if pos < 0 {
			w.AllowedCategories = append(w.AllowedCategories, categoryID)
		} else {
			if len(w.AllowedCategories) == 1 {
				return
			}
			w.AllowedCategories = append(w.AllowedCategories[:pos], w.AllowedCategories[pos+1:]...)
		}
		e.dirty = true
		e.resolveWindow()
	})
}

// ClaimTierReward marks a reached battle-pass tier as claimed. It reports
// whether the claim succeeded.
func (e *Engine) ClaimTierReward(tier int) (bool, error) {
	claimed := false
	err := e.do(func() {
		if tier < 1 || tier > e.snap.BattlePass.Tier {
			return
		}
		for i := range e.snap.BattlePass.Rewards {
			r := &e.snap.BattlePass.Rewards[i]
			if r.Tier != tier || r.Claimed {
				continue
			}
			r.Claimed = true
			claimed = true
			e.dirty = true
			e.alerter.Notify("Tier reward", r.FreeReward, model.AlertReward)
			return
		}
	})
	return claimed, err
}

func (e *Engine) categoryIndex(id string) int {
	for i, c := range e.snap.Categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) windowIndex(id string) int {
	for i, w := range e.snap.TimeWindows {
		if w.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) knownCategories(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || e.categoryIndex(id) < 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

func validPolicy(p model.FailurePolicy) bool {
	return p == model.FailureStandard || p == model.FailurePunishing
}

func validFeedback(f model.FeedbackIntensity) bool {
	return f == model.FeedbackNormal || f == model.FeedbackStrong
}

func validNotify(n model.NotifyIntensity) bool {
	return n == model.NotifyLow || n == model.NotifyMedium || n == model.NotifyHigh
}
