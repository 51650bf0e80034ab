// Package backup exports and imports snapshots as JSON or YAML.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/habitbattle/internal/model"
)

// Format is a backup encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. Empty input falls back to the file
// extension of path, then to JSON.
func ParseFormat(name, path string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "":
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			return FormatYAML, nil
		default:
			return FormatJSON, nil
		}
	default:
		return "", fmt.Errorf("unknown backup format %q", name)
	}
}

// Export writes snap to w.
func Export(w io.Writer, snap model.Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown backup format %q", format)
	}
}

// Import reads a snapshot from r and checks that it is usable.
func Import(r io.Reader, format Format) (model.Snapshot, error) {
	var snap model.Snapshot
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return snap, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
			return snap, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return snap, fmt.Errorf("unknown backup format %q", format)
	}
	if err := Validate(snap); err != nil {
		return snap, err
	}
	return snap, nil
}

// Validate rejects snapshots the engine could not run with.
func Validate(snap model.Snapshot) error {
	if snap.User.Level < 1 {
		return fmt.Errorf("invalid level %d", snap.User.Level)
	}
	if snap.User.Fatigue < 0 || snap.User.Fatigue > 100 {
		return fmt.Errorf("fatigue %d out of range", snap.User.Fatigue)
	}
	seen := map[string]bool{}
	for _, c := range snap.Categories {
		if c.ID == "" {
			return fmt.Errorf("category without id")
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate category %q", c.ID)
		}
		seen[c.ID] = true
		if c.BaseMultiplier <= 0 {
			return fmt.Errorf("category %q: multiplier must be positive", c.ID)
		}
	}
	for _, w := range snap.TimeWindows {
		if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 23 {
			return fmt.Errorf("window %q: hours out of range", w.ID)
		}
		if w.Multiplier <= 0 {
			return fmt.Errorf("window %q: multiplier must be positive", w.ID)
		}
		if len(w.AllowedCategories) == 0 {
			return fmt.Errorf("window %q: no allowed categories", w.ID)
		}
	}
	outstanding := 0
	for _, t := range snap.Tasks {
		if t.Status == model.StatusPending || t.Status == model.StatusAccepted {
			outstanding++
		}
	}
	if outstanding > 1 {
		return fmt.Errorf("%d outstanding tasks, at most one allowed", outstanding)
	}
	return nil
}
