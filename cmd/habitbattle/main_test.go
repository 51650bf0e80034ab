package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/habitbattle/internal/backup"
	"github.com/verte-zerg/habitbattle/internal/config"
	"github.com/verte-zerg/habitbattle/internal/model"
	"github.com/verte-zerg/habitbattle/internal/stats"
	"github.com/verte-zerg/habitbattle/internal/store"
)

func TestStatsFilter(t *testing.T) {
	f, err := statsFilter(" body ", "2026-05-01", 10)
	if err != nil {
		t.Fatalf("statsFilter: %v", err)
	}
	if f.CategoryID != "body" || f.Last != 10 || f.Since == nil {
		t.Fatalf("filter = %+v", f)
	}
	if f.Since.Day() != 1 || f.Since.Month() != time.May {
		t.Fatalf("since = %v", f.Since)
	}
	if _, err := statsFilter("", "05/01/2026", 0); err == nil {
		t.Fatalf("expected error for bad date")
	}
	if _, err := statsFilter("", "", -1); err == nil {
		t.Fatalf("expected error for negative last")
	}
}

func TestWriteStatus(t *testing.T) {
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.Local)
	snap := model.NewSnapshot(model.DefaultRules(), model.DefaultCategories(), model.DefaultTimeWindows(), now)
	var buf bytes.Buffer
	if err := writeStatus(&buf, snap, stats.Summary{Completed: 3, Failed: 1, SuccessRate: 0.75}, now); err != nil {
		t.Fatalf("writeStatus: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Window: Morning (06:00-10:00, x1.5)") {
		t.Fatalf("window line missing:\n%s", out)
	}
	if !strings.Contains(out, "Success: 75.0%") || !strings.Contains(out, "Battle pass: tier") {
		t.Fatalf("summary missing:\n%s", out)
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	if _, err := toml.Decode(defaultConfigTemplate(), &cfg); err != nil {
		t.Fatalf("template does not decode: %v", err)
	}
	if cfg.Engine.Seed != nil || len(cfg.Categories) != 0 {
		t.Fatalf("template should have everything commented out: %+v", cfg)
	}

	uncommented := strings.ReplaceAll(defaultConfigTemplate(), "# bonus-chance", "bonus-chance")
	if _, err := toml.Decode(uncommented, &cfg); err != nil {
		t.Fatalf("uncommented line does not decode: %v", err)
	}
	if cfg.Engine.BonusChance == nil || *cfg.Engine.BonusChance != model.DefaultRules().BonusChance {
		t.Fatalf("bonus-chance = %v", cfg.Engine.BonusChance)
	}
}

func TestLoadProfileAndBackup(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer closeStore(st)

	ctx := context.Background()
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	cfg := setup{rules: model.DefaultRules(), categories: model.DefaultCategories(), windows: model.DefaultTimeWindows()}

	snap, found, err := loadProfile(ctx, st, cfg, now)
	if err != nil {
		t.Fatalf("loadProfile: %v", err)
	}
	if found {
		t.Fatalf("empty store should not report a profile")
	}
	if snap.User.Currency != cfg.rules.InitialCurrency {
		t.Fatalf("fresh profile currency = %d", snap.User.Currency)
	}

	snap.User.Currency = 321
	if err := st.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	saved, found, err := loadProfile(ctx, st, cfg, now)
	if err != nil || !found {
		t.Fatalf("loadProfile after save: found=%v err=%v", found, err)
	}

	path := filepath.Join(dir, "out", "profile.yaml")
	if err := writeBackup(path, saved, backup.FormatYAML); err != nil {
		t.Fatalf("writeBackup: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer f.Close()
	restored, err := backup.Import(f, backup.FormatYAML)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if restored.User.Currency != 321 {
		t.Fatalf("restored currency = %d", restored.User.Currency)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestResetNeedsConfirmation(t *testing.T) {
	resetYes = false
	if err := runResetCmd(newResetCmd(), nil); err == nil {
		t.Fatalf("reset without --yes should fail")
	}
}
