package backup

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/habitbattle/internal/model"
)

func sample() model.Snapshot {
	now := time.Date(2026, 6, 1, 18, 45, 0, 0, time.UTC)
	snap := model.NewSnapshot(model.DefaultRules(), model.DefaultCategories(), model.DefaultTimeWindows(), now)
	snap.Tasks = []model.Task{{
		ID:         "t",
		Title:      "Walk for five minutes",
		CategoryID: "body",
		Difficulty: 1,
		BaseReward: model.Reward{CurrencyDelta: 5, ExperienceDelta: 10, Multiplier: 1},
		Status:     model.StatusPending,
		CreatedAt:  now,
	}}
	snap.User.Streak = 3
	snap.SavedAt = now
	return snap
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		want := sample()
		var buf bytes.Buffer
		if err := Export(&buf, want, format); err != nil {
			t.Fatalf("%s export: %v", format, err)
		}
		got, err := Import(&buf, format)
		if err != nil {
			t.Fatalf("%s import: %v", format, err)
		}
		wantJSON, _ := json.Marshal(want)
		gotJSON, _ := json.Marshal(got)
		if !bytes.Equal(wantJSON, gotJSON) {
			t.Fatalf("%s round trip mismatch:\nwant %s\ngot  %s", format, wantJSON, gotJSON)
		}
	}
}

func TestYAMLUsesSnapshotFieldNames(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sample(), FormatYAML); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()
	for _, key := range []string{"user:", "wp:", "taskTypes:", "timeWindows:", "battlePass:", "typeConfigId:"} {
		if !strings.Contains(out, key) {
			t.Fatalf("yaml output missing %q", key)
		}
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		name, path string
		want       Format
	}{
		{"", "backup.json", FormatJSON},
		{"", "backup.YML", FormatYAML},
		{"", "backup", FormatJSON},
		{"yaml", "backup.json", FormatYAML},
		{"JSON", "", FormatJSON},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.name, tc.path)
		if err != nil {
			t.Fatalf("ParseFormat(%q, %q): %v", tc.name, tc.path, err)
		}
		if got != tc.want {
			t.Fatalf("ParseFormat(%q, %q) = %s, want %s", tc.name, tc.path, got, tc.want)
		}
	}
	if _, err := ParseFormat("toml", ""); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestImportRejectsBrokenSnapshot(t *testing.T) {
	snap := sample()
	snap.TimeWindows[0].AllowedCategories = nil
	var buf bytes.Buffer
	if err := Export(&buf, snap, FormatJSON); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := Import(&buf, FormatJSON); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := Import(strings.NewReader("{"), FormatJSON); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestValidateRejectsSecondOutstandingTask(t *testing.T) {
	snap := sample()
	extra := snap.Tasks[0]
	extra.ID = "u"
	extra.Status = model.StatusAccepted
	snap.Tasks = append(snap.Tasks, extra)
	if err := Validate(snap); err == nil {
		t.Fatalf("expected error for two outstanding tasks")
	}

	snap.Tasks[1].Status = model.StatusCompleted
	if err := Validate(snap); err != nil {
		t.Fatalf("finished task should not count: %v", err)
	}
}
