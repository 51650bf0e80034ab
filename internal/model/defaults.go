package model

import (
	"fmt"
	"math"
	"time"
)

const (
	defaultSeasonID     = "s1"
	defaultSeasonLength = 12 * 24 * time.Hour
	defaultTierCount    = 21
	defaultExpPerTier   = 100
)

func intPtr(v int) *int { return &v }

// DefaultCategories returns the built-in category catalog.
func DefaultCategories() []TaskCategory {
	return []TaskCategory{
		{
			ID:                "focus",
			Name:              "Focus",
			BaseMultiplier:    1.5,
			DefaultTimeSecs:   intPtr(25 * 60),
			Titles:            []string{"Enter deep work", "Clear the urgent inbox", "Ship one small change"},
			ActionVerbs:       []string{"Start", "Push", "Finish"},
			FailurePolicy:     FailurePunishing,
			FeedbackIntensity: FeedbackStrong,
			ColorTheme:        "blue",
		},
		{
			ID:                "body",
			Name:              "Body",
			BaseMultiplier:    1.0,
			DefaultTimeSecs:   intPtr(5 * 60),
			Titles:            []string{"Stretch right now", "Do 20 squats", "Walk for five minutes"},
			ActionVerbs:       []string{"Move", "Go"},
			FailurePolicy:     FailureStandard,
			FeedbackIntensity: FeedbackNormal,
			ColorTheme:        "red",
		},
		{
			ID:                "care",
			Name:              "Self care",
			BaseMultiplier:    1.0,
			Titles:            []string{"Drink water now", "Tidy the desk", "Eat some fruit"},
			ActionVerbs:       []string{"Do it"},
			FailurePolicy:     FailureStandard,
			FeedbackIntensity: FeedbackNormal,
			ColorTheme:        "green",
		},
		{
			ID:                RecoveryCategoryID,
			Name:              "Recovery",
			BaseMultiplier:    1.2,
			DefaultTimeSecs:   intPtr(3 * 60),
			Titles:            []string{"Close your eyes for three minutes", "Breathe slowly ten times", "Step away from the screen"},
			ActionVerbs:       []string{"Rest"},
			FailurePolicy:     FailureStandard,
			FeedbackIntensity: FeedbackNormal,
			ColorTheme:        "purple",
		},
	}
}

// DefaultTimeWindows returns the built-in schedule.
func DefaultTimeWindows() []TimeWindow {
	return []TimeWindow{
		{ID: "morning", Name: "Morning", StartHour: 6, EndHour: 10, Multiplier: 1.5, AllowedCategories: []string{"body", "care", "focus"}, Notify: NotifyMedium, Theme: "sunrise"},
		{ID: "day", Name: "Day", StartHour: 10, EndHour: 18, Multiplier: 1.0, AllowedCategories: []string{"focus", "care"}, Notify: NotifyHigh, Theme: "day"},
		{ID: "evening", Name: "Evening", StartHour: 18, EndHour: 22, Multiplier: 1.2, AllowedCategories: []string{"body", "care", RecoveryCategoryID}, Notify: NotifyMedium, Theme: "sunset"},
		{ID: "night", Name: "Night", StartHour: 22, EndHour: 6, Multiplier: 0.8, AllowedCategories: []string{RecoveryCategoryID, "care"}, Notify: NotifyLow, Theme: "night"},
	}
}

// DefaultChests returns the chest slots of a fresh profile.
func DefaultChests() []Chest {
	return []Chest{
		{ID: "1", Type: "silver", Progress: 8, Required: 10},
		{ID: "2", Type: "gold", Progress: 18, Required: 20},
		{ID: "3", Type: "silver", Progress: 0, Required: 10, Ready: true},
		{ID: "4", Type: "magic", Progress: 0, Required: 50},
	}
}

// DefaultBattlePass returns season one starting at now.
func DefaultBattlePass(now time.Time) BattlePass {
	rewards := make([]TierReward, 0, defaultTierCount)
	for i := 1; i <= defaultTierCount; i++ {
		rewards = append(rewards, TierReward{
			Tier:          i,
			FreeReward:    fmt.Sprintf("%d WP", i*10),
			PremiumReward: "Skin shard",
		})
	}
	return BattlePass{
		SeasonID:     defaultSeasonID,
		Tier:         1,
		TierExp:      20,
		ExpPerTier:   defaultExpPerTier,
		SeasonEndsAt: now.Add(defaultSeasonLength),
		Rewards:      rewards,
	}
}

// NewUser returns a fresh level-1 user.
func NewUser(rules Rules, now time.Time) UserState {
	return UserState{
		Currency:   rules.InitialCurrency,
		Level:      1,
		MaxExp:     LevelThreshold(1, rules),
		LastActive: now,
	}
}

// LevelThreshold returns the experience needed to leave the given level:
// round(BaseExp * LevelCurve^(level-1)).
func LevelThreshold(level int, rules Rules) int {
	if level < 1 {
		level = 1
	}
	base := rules.BaseExp
	if base <= 0 {
		base = 1
	}
	curve := rules.LevelCurve
	if curve <= 0 {
		curve = 1
	}
	req := int(math.Round(float64(base) * math.Pow(curve, float64(level-1))))
	if req < 1 {
		return 1
	}
	return req
}

// NewSnapshot builds the first-run aggregate.
func NewSnapshot(rules Rules, categories []TaskCategory, windows []TimeWindow, now time.Time) Snapshot {
	return Snapshot{
		User:        NewUser(rules, now),
		Chests:      DefaultChests(),
		Categories:  categories,
		TimeWindows: windows,
		BattlePass:  DefaultBattlePass(now),
	}
}
