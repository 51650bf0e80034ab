package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/habitbattle/internal/model"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if got := cfg.ApplyRules(model.DefaultRules()); got != model.DefaultRules() {
		t.Fatalf("empty config changed rules: %+v", got)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestApplyRulesOverridesSetValues(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[engine]
seed = 42
bonus-chance = 0.25
bonus-seconds = 120
reveal-delay-ms = 500

[progression]
daily-decay = 3
level-curve = 2.0

[log]
level = "debug"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rules := cfg.ApplyRules(model.DefaultRules())
	if rules.Seed != 42 || rules.BonusChance != 0.25 || rules.BonusDuration != 120*time.Second {
		t.Fatalf("engine section not applied: %+v", rules)
	}
	if rules.RevealDelay != 500*time.Millisecond {
		t.Fatalf("reveal delay = %v", rules.RevealDelay)
	}
	if rules.DailyDecay != 3 || rules.LevelCurve != 2.0 {
		t.Fatalf("progression section not applied: %+v", rules)
	}
	if rules.PollInterval != time.Minute || rules.InitialCurrency != 100 {
		t.Fatalf("unset values should keep defaults: %+v", rules)
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("log level not parsed")
	}
	if err := ValidateRules(rules); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRules(t *testing.T) {
	bad := []func(*model.Rules){
		func(r *model.Rules) { r.BonusChance = 1.5 },
		func(r *model.Rules) { r.PollInterval = 0 },
		func(r *model.Rules) { r.BaseExp = 0 },
		func(r *model.Rules) { r.FatigueModerate = 90 },
		func(r *model.Rules) { r.BonusMultiplier = 0 },
	}
	for i, mutate := range bad {
		r := model.DefaultRules()
		mutate(&r)
		if err := ValidateRules(r); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if err := ValidateRules(model.DefaultRules()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[engine\nseed = ")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestCatalogDefaults(t *testing.T) {
	cats, windows, warnings := FileConfig{}.Catalog(t.TempDir())
	if len(cats) != len(model.DefaultCategories()) || len(windows) != len(model.DefaultTimeWindows()) {
		t.Fatalf("expected built-in catalog, got %d categories and %d windows", len(cats), len(windows))
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestCatalogFromFile(t *testing.T) {
	dir := t.TempDir()
	titlesDir := filepath.Join(dir, "titles")
	if err := os.MkdirAll(titlesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(titlesDir, "study.txt"), []byte("# study\nRead ten pages\nReview flashcards\n"), 0o644); err != nil {
		t.Fatalf("write titles: %v", err)
	}
	path := writeConfig(t, dir, `
[[category]]
id = "study"
name = "Study"
multiplier = 1.5
time-limit = 900
titles = ["Read ten pages"]
titles-file = "study.txt"
failure-policy = "punishing"

[[category]]
id = "recovery"
multiplier = -1

[[category]]
name = "no id"

[[window]]
id = "school"
start = 8
end = 15
multiplier = 2.0
allowed = ["study", "ghost"]
notify = "high"

[[window]]
id = "late"
start = 14
end = 2
allowed = []

[[window]]
id = "broken"
start = 25
end = 3
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cats, windows, warnings := cfg.Catalog(titlesDir)

	if len(cats) != 2 {
		t.Fatalf("categories = %+v", cats)
	}
	study := cats[0]
	if study.BaseMultiplier != 1.5 || study.DefaultTimeSecs == nil || *study.DefaultTimeSecs != 900 {
		t.Fatalf("study = %+v", study)
	}
	if len(study.Titles) != 2 || study.Titles[1] != "Review flashcards" {
		t.Fatalf("titles not merged: %v", study.Titles)
	}
	if study.FailurePolicy != model.FailurePunishing {
		t.Fatalf("policy = %s", study.FailurePolicy)
	}
	if cats[1].BaseMultiplier != 1.0 {
		t.Fatalf("invalid multiplier should fall back to 1.0")
	}

	if len(windows) != 2 {
		t.Fatalf("windows = %+v", windows)
	}
	if got := windows[0].AllowedCategories; len(got) != 1 || got[0] != "study" {
		t.Fatalf("school allow-list = %v", got)
	}
	if windows[0].Notify != model.NotifyHigh {
		t.Fatalf("notify = %s", windows[0].Notify)
	}
	if got := windows[1].AllowedCategories; len(got) != 2 {
		t.Fatalf("empty allow-list should widen to all categories, got %v", got)
	}

	joined := strings.Join(warnings, "\n")
	for _, want := range []string{"multiplier must be positive", "missing id", "unknown categories", "hours must be 0-23", "overlap"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("warnings missing %q:\n%s", want, joined)
		}
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	if got := DefaultConfigPath(); got != filepath.Join(dir, "cfg", "habitbattle", "config.toml") {
		t.Fatalf("config path = %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "data", "habitbattle", "habitbattle.db") {
		t.Fatalf("db path = %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join(dir, "state", "habitbattle", "habitbattle.log") {
		t.Fatalf("log path = %s", got)
	}
}
