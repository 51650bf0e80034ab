// Package titlelist loads task title pools from files.
package titlelist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads one title per line from path. Blank lines and lines starting
// with '#' are skipped; duplicates are dropped.
func Load(path string, keep FilterFunc) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only title list.
			_ = cerr
		}
	}()

	var titles []string
	seen := map[string]struct{}{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := Normalize(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if keep != nil && !keep(line) {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		titles = append(titles, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("title list %s is empty", path)
	}
	return titles, nil
}

// Merge appends extra to base, skipping titles base already has.
func Merge(base, extra []string) []string {
	out := append([]string(nil), base...)
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, t := range base {
		seen[t] = struct{}{}
	}
	for _, t := range extra {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
