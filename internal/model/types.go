// Package model defines shared data structures.
package model

import "time"

// RecoveryCategoryID is the category forced under high fatigue and used when
// relabelling tasks that outlived a day boundary.
const RecoveryCategoryID = "recovery"

// FallbackTitle is used when a category has no titles.
const FallbackTitle = "General action"

// TaskStatus is the lifecycle status of a task.
type TaskStatus string

// Task statuses.
const (
	StatusPending   TaskStatus = "Pending"
	StatusAccepted  TaskStatus = "Accepted"
	StatusCompleted TaskStatus = "Completed"
	StatusExpired   TaskStatus = "Expired"
	StatusFailed    TaskStatus = "Failed"
)

// FailurePolicy controls how a category treats failed tasks.
type FailurePolicy string

// Failure policies.
const (
	FailureStandard  FailurePolicy = "standard"
	FailurePunishing FailurePolicy = "punishing"
)

// FeedbackIntensity controls how loud the reward reveal is.
type FeedbackIntensity string

// Feedback intensities.
const (
	FeedbackNormal FeedbackIntensity = "normal"
	FeedbackStrong FeedbackIntensity = "strong"
)

// NotifyIntensity is the notification level of a time window.
type NotifyIntensity string

// Notification intensities.
const (
	NotifyLow    NotifyIntensity = "low"
	NotifyMedium NotifyIntensity = "medium"
	NotifyHigh   NotifyIntensity = "high"
)

// TaskCategory is a configured kind of task.
type TaskCategory struct {
	ID                string            `json:"id" yaml:"id"`
	Name              string            `json:"name" yaml:"name"`
	BaseMultiplier    float64           `json:"baseMultiplier" yaml:"baseMultiplier"`
	DefaultTimeSecs   *int              `json:"defaultTimeSeconds,omitempty" yaml:"defaultTimeSeconds,omitempty"`
	Titles            []string          `json:"taskTitles" yaml:"taskTitles"`
	ActionVerbs       []string          `json:"actionVerbs" yaml:"actionVerbs"`
	FailurePolicy     FailurePolicy     `json:"failurePolicy" yaml:"failurePolicy"`
	FeedbackIntensity FeedbackIntensity `json:"feedbackIntensity" yaml:"feedbackIntensity"`
	ColorTheme        string            `json:"colorTheme,omitempty" yaml:"colorTheme,omitempty"`
	UsageCount        int               `json:"usageCount" yaml:"usageCount"`
	SuccessCount      int               `json:"successCount" yaml:"successCount"`
}

// TimeWindow is a configured hour range with its own multiplier.
type TimeWindow struct {
	ID                string          `json:"id" yaml:"id"`
	Name              string          `json:"name" yaml:"name"`
	StartHour         int             `json:"startHour" yaml:"startHour"`
	EndHour           int             `json:"endHour" yaml:"endHour"`
	Multiplier        float64         `json:"multiplier" yaml:"multiplier"`
	AllowedCategories []string        `json:"allowedTypes" yaml:"allowedTypes"`
	Notify            NotifyIntensity `json:"notificationIntensity" yaml:"notificationIntensity"`
	Theme             string          `json:"theme" yaml:"theme"`
}

// Reward is a currency/experience grant.
type Reward struct {
	CurrencyDelta   int     `json:"wpDelta" yaml:"wpDelta"`
	ExperienceDelta int     `json:"expDelta" yaml:"expDelta"`
	Multiplier      float64 `json:"multiplier" yaml:"multiplier"`
}

// Task is a single actionable item shown to the user.
type Task struct {
	ID           string     `json:"id" yaml:"id"`
	Title        string     `json:"title" yaml:"title"`
	CategoryID   string     `json:"typeConfigId" yaml:"typeConfigId"`
	Difficulty   int        `json:"difficulty" yaml:"difficulty"`
	BaseReward   Reward     `json:"baseReward" yaml:"baseReward"`
	TimeLimitSec *int       `json:"timeLimitSeconds,omitempty" yaml:"timeLimitSeconds,omitempty"`
	Status       TaskStatus `json:"status" yaml:"status"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"createdAt"`
}

// UserState is the persistent progression of the single user.
type UserState struct {
	Currency   int       `json:"wp" yaml:"wp"`
	Level      int       `json:"level" yaml:"level"`
	Experience int       `json:"exp" yaml:"exp"`
	MaxExp     int       `json:"maxExp" yaml:"maxExp"`
	Streak     int       `json:"streak" yaml:"streak"`
	Combo      int       `json:"combo" yaml:"combo"`
	Fatigue    int       `json:"fatigue" yaml:"fatigue"`
	LastActive time.Time `json:"lastActive" yaml:"lastActive"`
}

// Chest is a progress-gated reward container.
type Chest struct {
	ID       string `json:"id" yaml:"id"`
	Type     string `json:"type" yaml:"type"`
	Progress int    `json:"progress" yaml:"progress"`
	Required int    `json:"required" yaml:"required"`
	Ready    bool   `json:"isReady" yaml:"isReady"`
}

// TierReward describes the rewards of one battle-pass tier.
type TierReward struct {
	Tier          int    `json:"level" yaml:"level"`
	FreeReward    string `json:"freeReward" yaml:"freeReward"`
	PremiumReward string `json:"premiumReward" yaml:"premiumReward"`
	Claimed       bool   `json:"isClaimed" yaml:"isClaimed"`
}

// BattlePass is the seasonal tiered progression track.
type BattlePass struct {
	SeasonID     string       `json:"seasonId" yaml:"seasonId"`
	Tier         int          `json:"level" yaml:"level"`
	TierExp      int          `json:"currentExp" yaml:"currentExp"`
	ExpPerTier   int          `json:"expPerLevel" yaml:"expPerLevel"`
	SeasonEndsAt time.Time    `json:"seasonEndsAt" yaml:"seasonEndsAt"`
	Rewards      []TierReward `json:"rewards" yaml:"rewards"`
}

// Bonus is the transient bonus ("rage") window.
type Bonus struct {
	Active    bool
	ExpiresAt time.Time
}

// Snapshot is the persisted aggregate.
type Snapshot struct {
	User        UserState      `json:"user" yaml:"user"`
	Tasks       []Task         `json:"tasks" yaml:"tasks"`
	Chests      []Chest        `json:"chests" yaml:"chests"`
	Categories  []TaskCategory `json:"taskTypes" yaml:"taskTypes"`
	TimeWindows []TimeWindow   `json:"timeWindows" yaml:"timeWindows"`
	BattlePass  BattlePass     `json:"battlePass" yaml:"battlePass"`
	SavedAt     time.Time      `json:"timestamp" yaml:"timestamp"`
}

// OutcomeKind tells how a task ended.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeCompleted OutcomeKind = "completed"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome records a finished task for stats.
type Outcome struct {
	TaskID      string
	Title       string
	CategoryID  string
	Difficulty  int
	Kind        OutcomeKind
	Reward      Reward
	BonusActive bool
	WindowID    string
	OccurredAt  time.Time
}

// StatsFilter narrows outcome queries.
type StatsFilter struct {
	CategoryID string
	Since      *time.Time
	Last       int
}

// CategoryAggregate summarizes outcomes for one category.
type CategoryAggregate struct {
	CategoryID string
	Completed  int
	Failed     int
	Currency   int
	Experience int
}
