package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/habitbattle/internal/model"
	"github.com/verte-zerg/habitbattle/internal/schedule"
	"github.com/verte-zerg/habitbattle/internal/titlelist"
)

// maxTitleWidth keeps titles on one line of the task card.
const maxTitleWidth = 48

// Catalog builds the first-run categories and windows. Built-in defaults are
// used for a section the file leaves empty. Invalid entries are skipped and
// reported as warnings; they never fail startup.
func (c FileConfig) Catalog(titlesDir string) ([]model.TaskCategory, []model.TimeWindow, []string) {
	var warnings []string

	categories := model.DefaultCategories()
	if len(c.Categories) > 0 {
		categories = categories[:0]
		seen := map[string]bool{}
		for i, cc := range c.Categories {
			cat, warn := cc.toModel(titlesDir)
			if warn != "" {
				warnings = append(warnings, fmt.Sprintf("category #%d: %s", i+1, warn))
			}
			if cat.ID == "" {
				continue
			}
			if seen[cat.ID] {
				warnings = append(warnings, fmt.Sprintf("category %q defined twice; keeping the first", cat.ID))
				continue
			}
			seen[cat.ID] = true
			categories = append(categories, cat)
		}
		if len(categories) == 0 {
			warnings = append(warnings, "no usable categories; using defaults")
			categories = model.DefaultCategories()
		}
	}

	known := map[string]bool{}
	allIDs := make([]string, 0, len(categories))
	for _, cat := range categories {
		known[cat.ID] = true
		allIDs = append(allIDs, cat.ID)
	}

	var windows []model.TimeWindow
	if len(c.Windows) == 0 {
		for _, w := range model.DefaultTimeWindows() {
			w.AllowedCategories = filterKnown(w.AllowedCategories, known)
			if len(w.AllowedCategories) == 0 {
				w.AllowedCategories = append([]string(nil), allIDs...)
			}
			windows = append(windows, w)
		}
	} else {
		for i, wc := range c.Windows {
			w, warn := wc.toModel()
			if warn != "" {
				warnings = append(warnings, fmt.Sprintf("window #%d: %s", i+1, warn))
				continue
			}
			allowed := filterKnown(w.AllowedCategories, known)
			if len(allowed) < len(w.AllowedCategories) {
				warnings = append(warnings, fmt.Sprintf("window %q references unknown categories", w.ID))
			}
			if len(allowed) == 0 {
				allowed = append([]string(nil), allIDs...)
			}
			w.AllowedCategories = allowed
			windows = append(windows, w)
		}
	}

	for _, pair := range schedule.Overlaps(windows) {
		warnings = append(warnings, fmt.Sprintf("windows %q and %q overlap; %q wins", pair[0], pair[1], pair[0]))
	}
	return categories, windows, warnings
}

func (cc CategoryConfig) toModel(titlesDir string) (model.TaskCategory, string) {
	id := strings.TrimSpace(cc.ID)
	if id == "" {
		return model.TaskCategory{}, "missing id"
	}
	cat := model.TaskCategory{
		ID:                id,
		Name:              cc.Name,
		BaseMultiplier:    1.0,
		Titles:            cc.Titles,
		ActionVerbs:       cc.Verbs,
		FailurePolicy:     model.FailureStandard,
		FeedbackIntensity: model.FeedbackNormal,
		ColorTheme:        cc.Color,
	}
	if cat.Name == "" {
		cat.Name = id
	}
	var warn string
	if cc.Multiplier != nil {
		if *cc.Multiplier > 0 {
			cat.BaseMultiplier = *cc.Multiplier
		} else {
			warn = "multiplier must be positive; using 1.0"
		}
	}
	if cc.TimeLimit != nil && *cc.TimeLimit > 0 {
		v := *cc.TimeLimit
		cat.DefaultTimeSecs = &v
	}
	switch model.FailurePolicy(cc.FailurePolicy) {
	case model.FailurePunishing:
		cat.FailurePolicy = model.FailurePunishing
	}
	switch model.FeedbackIntensity(cc.Feedback) {
	case model.FeedbackStrong:
		cat.FeedbackIntensity = model.FeedbackStrong
	}
	if cc.TitlesFile != "" {
		path := cc.TitlesFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(titlesDir, path)
		}
		titles, err := titlelist.Load(path, titlelist.MaxWidth(maxTitleWidth))
		if err != nil {
			warn = fmt.Sprintf("titles-file: %v", err)
		} else {
			cat.Titles = titlelist.Merge(cat.Titles, titles)
		}
	}
	return cat, warn
}

func (wc WindowConfig) toModel() (model.TimeWindow, string) {
	id := strings.TrimSpace(wc.ID)
	if id == "" {
		return model.TimeWindow{}, "missing id"
	}
	if wc.Start == nil || wc.End == nil {
		return model.TimeWindow{}, fmt.Sprintf("window %q needs start and end", id)
	}
	if *wc.Start < 0 || *wc.Start > 23 || *wc.End < 0 || *wc.End > 23 {
		return model.TimeWindow{}, fmt.Sprintf("window %q hours must be 0-23", id)
	}
	w := model.TimeWindow{
		ID:                id,
		Name:              wc.Name,
		StartHour:         *wc.Start,
		EndHour:           *wc.End,
		Multiplier:        1.0,
		AllowedCategories: wc.Allowed,
		Notify:            model.NotifyMedium,
		Theme:             wc.Theme,
	}
	if w.Name == "" {
		w.Name = id
	}
	if wc.Multiplier != nil && *wc.Multiplier > 0 {
		w.Multiplier = *wc.Multiplier
	}
	switch n := model.NotifyIntensity(wc.Notify); n {
	case model.NotifyLow, model.NotifyMedium, model.NotifyHigh:
		w.Notify = n
	}
	return w, ""
}

func filterKnown(ids []string, known map[string]bool) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
		}
	}
	return out
}
