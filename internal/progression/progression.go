// Package progression applies rewards and lifecycle events to user state.
package progression

import (
	"strings"
	"time"

	"github.com/verte-zerg/habitbattle/internal/model"
)

const (
	maxFatigue     = 100
	minCurrency    = 1
	recoveryPrefix = "Recovery: "
)

// Aggregate is the progression part of the snapshot.
type Aggregate struct {
	User       model.UserState
	Chests     []model.Chest
	BattlePass model.BattlePass
}

// FromSnapshot extracts a copy of the progression aggregate.
func FromSnapshot(s model.Snapshot) Aggregate {
	return Aggregate{
		User:       s.User,
		Chests:     append([]model.Chest(nil), s.Chests...),
		BattlePass: s.BattlePass.Clone(),
	}
}

// Clone returns a deep copy.
func (a Aggregate) Clone() Aggregate {
	return Aggregate{
		User:       a.User,
		Chests:     append([]model.Chest(nil), a.Chests...),
		BattlePass: a.BattlePass.Clone(),
	}
}

// LevelThreshold returns the experience required to leave level.
func LevelThreshold(level int, rules model.Rules) int {
	return model.LevelThreshold(level, rules)
}

// ApplyCompletion grants r and returns the new aggregate. The input is not
// modified.
//
// Levels are computed in one step: level += exp/maxExp, exp %= maxExp, then
// maxExp is recomputed for the new level. Battle-pass experience accumulates
// without rolling into the next tier.
func ApplyCompletion(agg Aggregate, r model.Reward, rules model.Rules, now time.Time) Aggregate {
	out := agg.Clone()
	u := &out.User

	u.Currency += maxInt(0, r.CurrencyDelta)
	u.Experience += maxInt(0, r.ExperienceDelta)
	if u.Level < 1 {
		u.Level = 1
	}
	if u.MaxExp <= 0 {
		u.MaxExp = LevelThreshold(u.Level, rules)
	}
	if u.Experience >= u.MaxExp {
		u.Level += u.Experience / u.MaxExp
		u.Experience %= u.MaxExp
		u.MaxExp = LevelThreshold(u.Level, rules)
	}

	u.Streak++
	u.Combo++
	u.Fatigue = maxInt(0, u.Fatigue-rules.CompletionRelief)
	u.LastActive = now

	for i := range out.Chests {
		c := &out.Chests[i]
		if c.Ready {
			continue
		}
		if c.Progress < c.Required {
			c.Progress++
		}
		c.Ready = c.Progress >= c.Required
	}

	out.BattlePass.TierExp += maxInt(0, r.ExperienceDelta)
	return out
}

// ApplyPostpone raises fatigue. Nothing else changes.
func ApplyPostpone(agg Aggregate, rules model.Rules) Aggregate {
	out := agg.Clone()
	out.User.Fatigue = minInt(maxFatigue, out.User.Fatigue+rules.PostponeFatigue)
	return out
}

// SameDay reports whether a and b fall on the same calendar day in now's
// location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ApplyDailyBoundary decays currency and relabels outstanding tasks when now
// falls on a different calendar day than the last activity. changed is false
// when no boundary was crossed.
func ApplyDailyBoundary(agg Aggregate, tasks []model.Task, categories []model.TaskCategory, rules model.Rules, now time.Time) (Aggregate, []model.Task, bool) {
	if agg.User.LastActive.IsZero() {
		out := agg.Clone()
		out.User.LastActive = now
		return out, model.CloneTasks(tasks), false
	}
	if SameDay(now, agg.User.LastActive) {
		return agg.Clone(), model.CloneTasks(tasks), false
	}

	out := agg.Clone()
	out.User.Currency = maxInt(minCurrency, out.User.Currency-rules.DailyDecay)
	out.User.LastActive = now

	_, hasRecovery := model.FindCategory(categories, model.RecoveryCategoryID)
	relabelled := model.CloneTasks(tasks)
	for i := range relabelled {
		t := &relabelled[i]
		if !outstanding(t.Status) {
			continue
		}
		if !strings.HasPrefix(t.Title, recoveryPrefix) {
			t.Title = recoveryPrefix + t.Title
		}
		if hasRecovery {
			t.CategoryID = model.RecoveryCategoryID
		}
	}
	return out, relabelled, true
}

func outstanding(s model.TaskStatus) bool {
	return s == model.StatusPending || s == model.StatusAccepted
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
