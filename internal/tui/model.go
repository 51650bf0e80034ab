// Package tui provides the Bubble Tea game interface.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/habitbattle/internal/alert"
	"github.com/verte-zerg/habitbattle/internal/engine"
	"github.com/verte-zerg/habitbattle/internal/model"
	"github.com/verte-zerg/habitbattle/internal/statsui"
)

const toastDuration = 4 * time.Second

// Controller is the engine surface the UI drives.
type Controller interface {
	View() (engine.View, error)
	Subscribe() (<-chan engine.View, func())

	Execute() error
	Complete() error
	Postpone() error
	KeepGoing() error
	Rest() error
	Dismiss() error
	OpenOverlay(s model.State) error
	Cancel() error

	UpdateCategory(id string, p engine.CategoryPatch) error
	UpdateTimeWindow(id string, p engine.WindowPatch) error
	ToggleWindowCategory(windowID, categoryID string) error
	AddCategory() (string, error)
	ClaimTierReward(tier int) (bool, error)
}

// StatsFactory builds the embedded stats screen for a profile.
type StatsFactory func(snap model.Snapshot) *statsui.Model

type (
	viewMsg       engine.View
	engineDoneMsg struct{}
	alertMsg      alert.Alert
	toastDoneMsg  struct{ seq int }
)

// Option configures a Model.
type Option func(*Model)

// WithAlerts shows alerts from ch as toasts.
func WithAlerts(ch <-chan alert.Alert) Option {
	return func(m *Model) { m.alerts = ch }
}

// WithStats enables the stats overlay.
func WithStats(f StatsFactory) Option {
	return func(m *Model) { m.newStats = f }
}

// WithLogger sets the logger for action failures.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// Model implements the Bubble Tea game UI.
type Model struct {
	ctrl        Controller
	views       <-chan engine.View
	unsubscribe func()
	alerts      <-chan alert.Alert
	newStats    StatsFactory
	logger      *zap.Logger

	view  engine.View
	ready bool

	width  int
	height int

	keys     keyMap
	help     help.Model
	expBar   progress.Model
	tierBar  progress.Model
	chestBar progress.Model

	toast    *alert.Alert
	toastSeq int
	errMsg   string

	settingsRow int
	tierRow     int
	stats       *statsui.Model
}

// NewModel subscribes to ctrl and constructs the game UI.
func NewModel(ctrl Controller, opts ...Option) *Model {
	m := &Model{
		ctrl:     ctrl,
		logger:   zap.NewNop(),
		keys:     defaultKeyMap(),
		help:     help.New(),
		expBar:   progress.New(progress.WithGradient("#C89A3A", "#F5D76E"), progress.WithoutPercentage(), progress.WithWidth(24)),
		tierBar:  progress.New(progress.WithGradient("#6E3AC8", "#B28DFF"), progress.WithoutPercentage(), progress.WithWidth(24)),
		chestBar: progress.New(progress.WithSolidFill("#52C41A"), progress.WithoutPercentage(), progress.WithWidth(10)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.views, m.unsubscribe = ctrl.Subscribe()
	if v, err := ctrl.View(); err == nil {
		m.applyView(v)
	}
	return m
}

// Close releases the engine subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForView(m.views), waitForAlert(m.alerts))
}

func waitForView(ch <-chan engine.View) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return engineDoneMsg{}
		}
		return viewMsg(v)
	}
}

func waitForAlert(ch <-chan alert.Alert) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		a, ok := <-ch
		if !ok {
			return nil
		}
		return alertMsg(a)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.stats != nil {
			m.stats.Update(m.statsSize())
		}
		return m, nil
	case viewMsg:
		m.applyView(engine.View(msg))
		return m, waitForView(m.views)
	case engineDoneMsg:
		return m, tea.Quit
	case alertMsg:
		a := alert.Alert(msg)
		m.toast = &a
		m.toastSeq++
		seq := m.toastSeq
		return m, tea.Batch(
			waitForAlert(m.alerts),
			tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastDoneMsg{seq: seq} }),
		)
	case toastDoneMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil
	case statsui.CloseMsg:
		m.act(m.ctrl.Cancel())
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	if m.stats != nil {
		_, cmd := m.stats.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applyView(v engine.View) {
	m.view = v
	m.ready = true
	if v.State == model.StateStats {
		if m.stats == nil && m.newStats != nil {
			m.stats = m.newStats(v.Snapshot())
			m.stats.Update(m.statsSize())
		}
	} else {
		m.stats = nil
	}
	m.settingsRow = clampIndex(m.settingsRow, len(settingsRows(v)))
	m.tierRow = clampIndex(m.tierRow, len(v.BattlePass.Rewards))
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.view.State == model.StateStats && m.stats != nil {
		_, cmd := m.stats.Update(msg)
		return m, cmd
	}
	k := m.keys
	if key.Matches(msg, k.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if key.Matches(msg, k.Back) {
		m.act(m.ctrl.Cancel())
		return m, nil
	}

	switch m.view.State {
	case model.StateIdle:
		switch {
		case key.Matches(msg, k.Quit):
			return m, tea.Quit
		case key.Matches(msg, k.Start):
			m.act(m.ctrl.Execute())
		case key.Matches(msg, k.Settings):
			m.act(m.ctrl.OpenOverlay(model.StateSettings))
		case key.Matches(msg, k.BattlePass):
			m.act(m.ctrl.OpenOverlay(model.StateBattlePassView))
		case key.Matches(msg, k.Stats):
			m.act(m.ctrl.OpenOverlay(model.StateStats))
		}
	case model.StateAccepted:
		if key.Matches(msg, k.Postpone) {
			m.act(m.ctrl.Postpone())
		}
	case model.StateExecuting:
		switch {
		case key.Matches(msg, k.Done):
			m.act(m.ctrl.Complete())
		case key.Matches(msg, k.Postpone):
			m.act(m.ctrl.Postpone())
		}
	case model.StateFeedback:
		switch {
		case key.Matches(msg, k.KeepGoing):
			m.act(m.ctrl.KeepGoing())
		case key.Matches(msg, k.Rest):
			m.act(m.ctrl.Rest())
		}
	case model.StateMomentum, model.StateExitHook:
		if key.Matches(msg, k.Dismiss) {
			m.act(m.ctrl.Dismiss())
		}
	case model.StateSettings:
		m.handleSettingsKey(msg)
	case model.StateBattlePassView:
		m.handleBattlePassKey(msg)
	}
	return m, nil
}

func (m *Model) handleBattlePassKey(msg tea.KeyMsg) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Up):
		m.tierRow = clampIndex(m.tierRow-1, len(m.view.BattlePass.Rewards))
	case key.Matches(msg, k.Down):
		m.tierRow = clampIndex(m.tierRow+1, len(m.view.BattlePass.Rewards))
	case key.Matches(msg, k.Claim):
		rewards := m.view.BattlePass.Rewards
		if m.tierRow >= len(rewards) {
			return
		}
		ok, err := m.ctrl.ClaimTierReward(rewards[m.tierRow].Tier)
		m.act(err)
		if err == nil && !ok {
			m.errMsg = "Tier not reached or already claimed"
		}
	}
}

// act records an engine error for the footer.
func (m *Model) act(err error) {
	if err != nil {
		m.errMsg = err.Error()
		m.logger.Warn("engine action failed", zap.Error(err))
		return
	}
	m.errMsg = ""
}

func (m *Model) statsSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: m.width, Height: max(1, m.height-1)}
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
