// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/habitbattle/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Engine      EngineConfig      `toml:"engine"`
	Progression ProgressionConfig `toml:"progression"`
	Log         LogConfig         `toml:"log"`
	Categories  []CategoryConfig  `toml:"category"`
	Windows     []WindowConfig    `toml:"window"`
}

// EngineConfig maps timer and bonus settings.
type EngineConfig struct {
	Seed              *int64   `toml:"seed"`
	PollSeconds       *int     `toml:"poll-seconds"`
	BonusCheckSeconds *int     `toml:"bonus-check-seconds"`
	BonusChance       *float64 `toml:"bonus-chance"`
	BonusSeconds      *int     `toml:"bonus-seconds"`
	BonusMultiplier   *float64 `toml:"bonus-multiplier"`
	AcceptDelayMs     *int     `toml:"accept-delay-ms"`
	RevealDelayMs     *int     `toml:"reveal-delay-ms"`
	MomentumSeconds   *int     `toml:"momentum-seconds"`
}

// ProgressionConfig maps progression tuning.
type ProgressionConfig struct {
	InitialCurrency  *int     `toml:"initial-currency"`
	DailyDecay       *int     `toml:"daily-decay"`
	BaseExp          *int     `toml:"base-exp"`
	LevelCurve       *float64 `toml:"level-curve"`
	FatigueHigh      *int     `toml:"fatigue-high"`
	FatigueModerate  *int     `toml:"fatigue-moderate"`
	PostponeFatigue  *int     `toml:"postpone-fatigue"`
	CompletionRelief *int     `toml:"completion-relief"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	Path  *string `toml:"path"`
}

// CategoryConfig seeds one category on first run.
type CategoryConfig struct {
	ID            string   `toml:"id"`
	Name          string   `toml:"name"`
	Multiplier    *float64 `toml:"multiplier"`
	TimeLimit     *int     `toml:"time-limit"`
	Titles        []string `toml:"titles"`
	TitlesFile    string   `toml:"titles-file"`
	Verbs         []string `toml:"verbs"`
	FailurePolicy string   `toml:"failure-policy"`
	Feedback      string   `toml:"feedback"`
	Color         string   `toml:"color"`
}

// WindowConfig seeds one time window on first run.
type WindowConfig struct {
	ID         string   `toml:"id"`
	Name       string   `toml:"name"`
	Start      *int     `toml:"start"`
	End        *int     `toml:"end"`
	Multiplier *float64 `toml:"multiplier"`
	Allowed    []string `toml:"allowed"`
	Notify     string   `toml:"notify"`
	Theme      string   `toml:"theme"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// ApplyRules overlays the values set in the file on rules.
func (c FileConfig) ApplyRules(rules model.Rules) model.Rules {
	e := c.Engine
	setInt64(&rules.Seed, e.Seed)
	setDuration(&rules.PollInterval, e.PollSeconds, time.Second)
	setDuration(&rules.BonusCheckInterval, e.BonusCheckSeconds, time.Second)
	setFloat(&rules.BonusChance, e.BonusChance)
	setDuration(&rules.BonusDuration, e.BonusSeconds, time.Second)
	setFloat(&rules.BonusMultiplier, e.BonusMultiplier)
	setDuration(&rules.AcceptDelay, e.AcceptDelayMs, time.Millisecond)
	setDuration(&rules.RevealDelay, e.RevealDelayMs, time.Millisecond)
	setDuration(&rules.MomentumWindow, e.MomentumSeconds, time.Second)

	p := c.Progression
	setInt(&rules.InitialCurrency, p.InitialCurrency)
	setInt(&rules.DailyDecay, p.DailyDecay)
	setInt(&rules.BaseExp, p.BaseExp)
	setFloat(&rules.LevelCurve, p.LevelCurve)
	setInt(&rules.FatigueHigh, p.FatigueHigh)
	setInt(&rules.FatigueModerate, p.FatigueModerate)
	setInt(&rules.PostponeFatigue, p.PostponeFatigue)
	setInt(&rules.CompletionRelief, p.CompletionRelief)
	return rules
}

// ValidateRules rejects tunings the engine cannot run with.
func ValidateRules(r model.Rules) error {
	if r.PollInterval <= 0 || r.BonusCheckInterval <= 0 {
		return fmt.Errorf("poll and bonus-check intervals must be > 0")
	}
	if r.BonusChance < 0 || r.BonusChance > 1 {
		return fmt.Errorf("bonus-chance must be between 0 and 1")
	}
	if r.BonusDuration <= 0 {
		return fmt.Errorf("bonus-seconds must be > 0")
	}
	if r.BonusMultiplier <= 0 {
		return fmt.Errorf("bonus-multiplier must be > 0")
	}
	if r.AcceptDelay < 0 || r.RevealDelay < 0 || r.MomentumWindow <= 0 {
		return fmt.Errorf("delays must be >= 0 and momentum-seconds > 0")
	}
	if r.InitialCurrency < 0 || r.DailyDecay < 0 {
		return fmt.Errorf("initial-currency and daily-decay must be >= 0")
	}
	if r.BaseExp <= 0 || r.LevelCurve < 1 {
		return fmt.Errorf("base-exp must be > 0 and level-curve >= 1")
	}
	if r.FatigueModerate < 0 || r.FatigueHigh > 100 || r.FatigueModerate > r.FatigueHigh {
		return fmt.Errorf("fatigue thresholds must satisfy 0 <= moderate <= high <= 100")
	}
	if r.PostponeFatigue < 0 || r.CompletionRelief < 0 {
		return fmt.Errorf("postpone-fatigue and completion-relief must be >= 0")
	}
	return nil
}

func setInt(target *int, value *int) {
	if value != nil {
		*target = *value
	}
}

func setInt64(target *int64, value *int64) {
	if value != nil {
		*target = *value
	}
}

func setFloat(target *float64, value *float64) {
	if value != nil {
		*target = *value
	}
}

func setDuration(target *time.Duration, value *int, unit time.Duration) {
	if value != nil {
		*target = time.Duration(*value) * unit
	}
}
