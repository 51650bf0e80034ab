// Package generator builds the next task for the user.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/habitbattle/internal/model"
)

const (
	defaultFatigueHigh     = 80
	defaultFatigueModerate = 50
	maxBaseDifficulty      = 3
	currencyPerDifficulty  = 5
	expPerDifficulty       = 10
)

var fallbackCategory = model.TaskCategory{
	ID:             "general",
	Name:           "General",
	BaseMultiplier: 1.0,
}

// Generator produces context-aware tasks.
type Generator struct {
	rnd             *rand.Rand
	fatigueHigh     int
	fatigueModerate int
}

// New returns a Generator seeded with seed, or with the current time when
// seed is zero.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rnd:             rand.New(rand.NewSource(seed)),
		fatigueHigh:     defaultFatigueHigh,
		fatigueModerate: defaultFatigueModerate,
	}
}

// WithThresholds overrides the fatigue thresholds.
func (g *Generator) WithThresholds(high, moderate int) *Generator {
	g.fatigueHigh = high
	g.fatigueModerate = moderate
	return g
}

// Float64 exposes the shared random source to timer-driven checks so that a
// single seed drives the whole engine.
func (g *Generator) Float64() float64 {
	return g.rnd.Float64()
}

// Generate returns a new pending task. window is nil when no window is active.
func (g *Generator) Generate(categories []model.TaskCategory, window *model.TimeWindow, fatigue int, now time.Time) model.Task {
	candidates := Candidates(categories, window)
	if fatigue > g.fatigueHigh {
		for _, c := range candidates {
			if c.ID == model.RecoveryCategoryID {
				candidates = []model.TaskCategory{c}
				break
			}
		}
	}

	var category model.TaskCategory
	switch {
	case len(candidates) > 0:
		category = candidates[g.rnd.Intn(len(candidates))]
	case len(categories) > 0:
		category = categories[0]
	default:
		category = fallbackCategory
	}

	title := model.FallbackTitle
	if len(category.Titles) > 0 {
		title = category.Titles[g.rnd.Intn(len(category.Titles))]
	}

	difficulty := g.rnd.Intn(maxBaseDifficulty) + 1
	if fatigue > g.fatigueModerate {
		difficulty = maxInt(1, difficulty-1)
	}

	mult := category.BaseMultiplier
	if mult <= 0 {
		mult = 1.0
	}

	var limit *int
	if category.DefaultTimeSecs != nil && *category.DefaultTimeSecs > 0 {
		v := *category.DefaultTimeSecs
		limit = &v
	}

	return model.Task{
		ID:           uuid.NewString(),
		Title:        title,
		CategoryID:   category.ID,
		Difficulty:   difficulty,
		BaseReward:   BaseReward(difficulty, mult),
		TimeLimitSec: limit,
		Status:       model.StatusPending,
		CreatedAt:    now,
	}
}

// BaseReward computes the authoring-time reward for a difficulty and
// category multiplier. Rounding is half away from zero.
func BaseReward(difficulty int, mult float64) model.Reward {
	return model.Reward{
		CurrencyDelta:   int(math.Round(float64(difficulty*currencyPerDifficulty) * mult)),
		ExperienceDelta: int(math.Round(float64(difficulty*expPerDifficulty) * mult)),
		Multiplier:      mult,
	}
}

// Candidates returns the categories allowed by the active window, or the
// whole catalog when no window is active or its allow-list is empty.
func Candidates(categories []model.TaskCategory, window *model.TimeWindow) []model.TaskCategory {
	if window == nil || len(window.AllowedCategories) == 0 {
		return categories
	}
	allowed := make(map[string]struct{}, len(window.AllowedCategories))
	for _, id := range window.AllowedCategories {
		allowed[id] = struct{}{}
	}
	out := make([]model.TaskCategory, 0, len(allowed))
	for _, c := range categories {
		if _, ok := allowed[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
