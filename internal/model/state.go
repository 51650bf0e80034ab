package model

import "time"

// State is the lifecycle state of the engine.
type State string

// Lifecycle states. Settings, BattlePassView and Stats are overlays reachable
// only from Idle.
const (
	StateIdle           State = "Idle"
	StateAccepted       State = "Accepted"
	StateExecuting      State = "Executing"
	StateFeedback       State = "Feedback"
	StateMomentum       State = "Momentum"
	StateExitHook       State = "ExitHook"
	StateSettings       State = "Settings"
	StateBattlePassView State = "BattlePassView"
	StateStats          State = "Stats"
)

// IsOverlay reports whether s is one of the overlay states.
func (s State) IsOverlay() bool {
	switch s {
	case StateSettings, StateBattlePassView, StateStats:
		return true
	default:
		return false
	}
}

// AlertKind categorizes notifications.
type AlertKind string

// Alert kinds.
const (
	AlertEmergency AlertKind = "emergency"
	AlertReward    AlertKind = "reward"
	AlertDaily     AlertKind = "daily"
	AlertSystem    AlertKind = "system"
)

// HapticPattern names a vibration pattern.
type HapticPattern string

// Haptic patterns.
const (
	HapticSuccess HapticPattern = "success"
	HapticError   HapticPattern = "error"
	HapticWarning HapticPattern = "warning"
	HapticTick    HapticPattern = "tick"
)

// Rules holds every tunable of the engine.
type Rules struct {
	Seed int64

	PollInterval       time.Duration
	BonusCheckInterval time.Duration
	BonusChance        float64
	BonusDuration      time.Duration
	BonusMultiplier    float64
	AcceptDelay        time.Duration
	RevealDelay        time.Duration
	MomentumWindow     time.Duration
	CountdownStep      time.Duration

	InitialCurrency  int
	DailyDecay       int
	BaseExp          int
	LevelCurve       float64
	FatigueHigh      int
	FatigueModerate  int
	PostponeFatigue  int
	CompletionRelief int
}

// DefaultRules returns the stock tuning.
func DefaultRules() Rules {
	return Rules{
		PollInterval:       time.Minute,
		BonusCheckInterval: time.Minute,
		BonusChance:        0.10,
		BonusDuration:      300 * time.Second,
		BonusMultiplier:    2.0,
		AcceptDelay:        150 * time.Millisecond,
		RevealDelay:        300 * time.Millisecond,
		MomentumWindow:     10 * time.Second,
		CountdownStep:      time.Second,

		InitialCurrency:  100,
		DailyDecay:       10,
		BaseExp:          100,
		LevelCurve:       1.5,
		FatigueHigh:      80,
		FatigueModerate:  50,
		PostponeFatigue:  10,
		CompletionRelief: 5,
	}
}
