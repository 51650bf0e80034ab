package model

// Clone returns a deep copy of the category.
func (c TaskCategory) Clone() TaskCategory {
	out := c
	if c.DefaultTimeSecs != nil {
		v := *c.DefaultTimeSecs
		out.DefaultTimeSecs = &v
	}
	out.Titles = append([]string(nil), c.Titles...)
	out.ActionVerbs = append([]string(nil), c.ActionVerbs...)
	return out
}

// Clone returns a deep copy of the window.
func (w TimeWindow) Clone() TimeWindow {
	out := w
	out.AllowedCategories = append([]string(nil), w.AllowedCategories...)
	return out
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	out := t
	if t.TimeLimitSec != nil {
		v := *t.TimeLimitSec
		out.TimeLimitSec = &v
	}
	return out
}

// Clone returns a deep copy of the battle pass.
func (b BattlePass) Clone() BattlePass {
	out := b
	out.Rewards = append([]TierReward(nil), b.Rewards...)
	return out
}

// CloneCategories deep-copies a category slice.
func CloneCategories(in []TaskCategory) []TaskCategory {
	if in == nil {
		return nil
	}
	out := make([]TaskCategory, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// CloneWindows deep-copies a window slice.
func CloneWindows(in []TimeWindow) []TimeWindow {
	if in == nil {
		return nil
	}
	out := make([]TimeWindow, len(in))
	for i, w := range in {
		out[i] = w.Clone()
	}
	return out
}

// CloneTasks deep-copies a task slice.
func CloneTasks(in []Task) []Task {
	if in == nil {
		return nil
	}
	out := make([]Task, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Tasks = CloneTasks(s.Tasks)
	out.Chests = append([]Chest(nil), s.Chests...)
	out.Categories = CloneCategories(s.Categories)
	out.TimeWindows = CloneWindows(s.TimeWindows)
	out.BattlePass = s.BattlePass.Clone()
	return out
}

// FindCategory returns the category with the given id.
func FindCategory(categories []TaskCategory, id string) (TaskCategory, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return TaskCategory{}, false
}
