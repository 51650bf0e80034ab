package tui

import (
	"math"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/habitbattle/internal/engine"
	"github.com/verte-zerg/habitbattle/internal/model"
)

const multiplierStep = 0.1

type settingsRow struct {
	window   bool
	id       string
	index    int
	category *model.TaskCategory
	win      *model.TimeWindow
}

// settingsRows lists windows first, then categories.
func settingsRows(v engine.View) []settingsRow {
	rows := make([]settingsRow, 0, len(v.Windows)+len(v.Categories))
	for i := range v.Windows {
		rows = append(rows, settingsRow{window: true, id: v.Windows[i].ID, index: i, win: &v.Windows[i]})
	}
	for i := range v.Categories {
		rows = append(rows, settingsRow{id: v.Categories[i].ID, index: i, category: &v.Categories[i]})
	}
	return rows
}

func (m *Model) selectedRow() (settingsRow, bool) {
	rows := settingsRows(m.view)
	if len(rows) == 0 {
		return settingsRow{}, false
	}
	return rows[clampIndex(m.settingsRow, len(rows))], true
}

func (m *Model) handleSettingsKey(msg tea.KeyMsg) {
	k := m.keys
	rows := settingsRows(m.view)
	switch {
	case key.Matches(msg, k.Up):
		m.settingsRow = clampIndex(m.settingsRow-1, len(rows))
	case key.Matches(msg, k.Down):
		m.settingsRow = clampIndex(m.settingsRow+1, len(rows))
	case key.Matches(msg, k.Less):
		m.stepMultiplier(-multiplierStep)
	case key.Matches(msg, k.More):
		m.stepMultiplier(multiplierStep)
	case key.Matches(msg, k.StartDec):
		m.shiftHour(true, -1)
	case key.Matches(msg, k.StartInc):
		m.shiftHour(true, 1)
	case key.Matches(msg, k.EndDec):
		m.shiftHour(false, -1)
	case key.Matches(msg, k.EndInc):
		m.shiftHour(false, 1)
	case key.Matches(msg, k.Toggle):
		m.toggleAllowed(int(msg.Runes[0] - '1'))
	case key.Matches(msg, k.Add):
		_, err := m.ctrl.AddCategory()
		m.act(err)
	}
}

func (m *Model) stepMultiplier(delta float64) {
	row, ok := m.selectedRow()
	if !ok {
		return
	}
	if row.window {
		v := stepValue(row.win.Multiplier, delta, engine.MinWindowMultiplier, engine.MaxWindowMultiplier)
		m.act(m.ctrl.UpdateTimeWindow(row.id, engine.WindowPatch{Multiplier: &v}))
		return
	}
	v := stepValue(row.category.BaseMultiplier, delta, engine.MinCategoryMultiplier, engine.MaxCategoryMultiplier)
	m.act(m.ctrl.UpdateCategory(row.id, engine.CategoryPatch{BaseMultiplier: &v}))
}

func (m *Model) shiftHour(start bool, delta int) {
	row, ok := m.selectedRow()
	if !ok || !row.window {
		return
	}
	if start {
		h := (row.win.StartHour + delta + 24) % 24
		m.act(m.ctrl.UpdateTimeWindow(row.id, engine.WindowPatch{StartHour: &h}))
		return
	}
	h := (row.win.EndHour + delta + 24) % 24
	m.act(m.ctrl.UpdateTimeWindow(row.id, engine.WindowPatch{EndHour: &h}))
}

func (m *Model) toggleAllowed(n int) {
	row, ok := m.selectedRow()
	if !ok || !row.window || n < 0 || n >= len(m.view.Categories) {
		return
	}
	m.act(m.ctrl.ToggleWindowCategory(row.id, m.view.Categories[n].ID))
}

// stepValue moves v by delta on a 0.1 grid within [lo, hi].
func stepValue(v, delta, lo, hi float64) float64 {
	next := math.Round((v+delta)*10) / 10
	return math.Max(lo, math.Min(hi, next))
}
