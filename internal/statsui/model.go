// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/habitbattle/internal/model"
	"github.com/verte-zerg/habitbattle/internal/stats"
)

const (
	tabOverview = iota
	tabCategories
	tabHistory
)

const (
	plotHeight  = 8
	defaultDays = 14
	maxDays     = 90
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	doneStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	missStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF7A45"))
)

// CloseMsg is emitted instead of quitting when the model runs embedded in
// another program.
type CloseMsg struct{}

// Option configures a Model.
type Option func(*Model)

// Embedded makes q and esc emit CloseMsg instead of tea.Quit.
func Embedded() Option {
	return func(m *Model) { m.embedded = true }
}

// WithNow overrides the clock used to bucket days.
func WithNow(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithDays sets how many days the curves cover. Out of range values are
// ignored.
func WithDays(n int) Option {
	return func(m *Model) {
		if n >= 1 && n <= maxDays {
			m.days = n
		}
	}
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	src    stats.Source
	snap   model.Snapshot
	filter model.StatsFilter
	days   int
	now    func() time.Time

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	catTable  table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	embedded bool
}

// NewModel constructs a stats UI model over the journal src and the profile
// in snap.
func NewModel(src stats.Source, snap model.Snapshot, filter model.StatsFilter, opts ...Option) *Model {
	m := &Model{
		src:    src,
		snap:   snap,
		filter: filter,
		days:   defaultDays,
		now:    time.Now,
		tabs:   []string{"Overview", "Categories", "History"},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.catTable = table.New(table.WithColumns(categoryColumns()), table.WithHeight(1))
	m.catTable.SetStyles(tableStyles())
	m.filterInputs = []textinput.Model{
		newFilterInput("Category: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Days: "),
	}
	m.Refresh()
	return m
}

// SetSnapshot replaces the profile shown next to the journal.
func (m *Model) SetSnapshot(snap model.Snapshot) {
	m.snap = snap
	m.renderTabContents()
}

// Refresh reloads the journal.
func (m *Model) Refresh() {
	report, err := stats.BuildReport(context.Background(), m.src, m.filter, m.days, m.now())
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.renderTabContents()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q", "esc":
			if m.embedded {
				return m, func() tea.Msg { return CloseMsg{} }
			}
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l", "tab":
			m.moveTab(1)
			return m, nil
		case "=":
			m.days = min(maxDays, nextDays(m.days))
			m.Refresh()
			return m, nil
		case "-":
			m.days = prevDays(m.days)
			m.Refresh()
			return m, nil
		case "r":
			m.Refresh()
			return m, nil
		case "/":
			return m, m.startFilter()
		case "g", "home":
			if m.activeTab == tabCategories {
				m.catTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabCategories {
				m.catTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabCategories {
			m.catTable, cmd = m.catTable.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(1, lipgloss.Height(activeNavStyle.Render("X"))) + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.catTable.SetWidth(m.width)
	m.catTable.SetHeight(max(1, bodyHeight-1))
	for i := range m.filterInputs {
		m.filterInputs[i].Width = max(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabCategories {
		m.catTable.Focus()
	} else {
		m.catTable.Blur()
	}
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := padLines(lipgloss.JoinHorizontal(lipgloss.Top, parts...), m.width)
	return tabs + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	category := "any"
	if m.filter.CategoryID != "" {
		category = m.filter.CategoryID
	}
	since := "any"
	if m.filter.Since != nil {
		since = m.filter.Since.Format("2006-01-02")
	}
	last := "all"
	if m.filter.Last > 0 {
		last = strconv.Itoa(m.filter.Last)
	}
	summary := fmt.Sprintf("Filter: category=%s  since=%s  last=%s  days=%d", category, since, last, m.days)
	return headerStyle.Render(runewidth.Truncate(summary, max(1, m.width), "..."))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Days: -/=  Filter: /  Reload: r  Back: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		lines := []string{"Filter (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	if m.activeTab == tabCategories {
		if len(m.snap.Categories) == 0 {
			return fitLines("No categories configured.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.catTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 || m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.snap, m.report, m.days, width))
	m.viewports[tabHistory].SetContent(renderHistory(m.report.Outcomes, m.snap.Categories))
	m.catTable.SetRows(categoryRows(m.snap.Categories, m.report.Aggregates))
}

func renderOverview(snap model.Snapshot, report stats.Report, days, width int) string {
	u := snap.User
	s := report.Summary
	cards := []string{
		metricCard("Level", fmt.Sprintf("%d  %d/%d", u.Level, u.Experience, u.MaxExp)),
		metricCard("WP", strconv.Itoa(u.Currency)),
		metricCard("Streak", fmt.Sprintf("%d (combo %d)", u.Streak, u.Combo)),
		metricCard("Fatigue", fmt.Sprintf("%d%%", u.Fatigue)),
		metricCard("Done", fmt.Sprintf("%d / %d", s.Completed, s.Completed+s.Failed)),
		metricCard("Success", fmt.Sprintf("%.0f%%", s.SuccessRate*100)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	lines := []string{summary, ""}
	if spark := stats.Sparkline(stats.RewardSeries(report.Outcomes)); spark != "" {
		lines = append(lines, cardTitleStyle.Render("Rewards ")+spark)
	}
	if len(report.Weak) > 0 {
		lines = append(lines, cardTitleStyle.Render("Needs work: ")+strings.Join(categoryNames(report.Weak, snap.Categories), ", "))
	}
	if len(report.Top) > 0 {
		lines = append(lines, cardTitleStyle.Render("Most played: ")+strings.Join(categoryNames(report.Top, snap.Categories), ", "))
	}
	if len(report.Outcomes) > 0 {
		var buf bytes.Buffer
		if err := stats.RenderCurves(&buf, report.Days, 1, width, plotHeight, true); err != nil {
			lines = append(lines, fmt.Sprintf("Failed to render curves: %v", err))
		} else {
			lines = append(lines, "", strings.TrimRight(buf.String(), "\n"))
		}
	} else {
		lines = append(lines, fmt.Sprintf("No finished tasks in the last %d days.", days))
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func renderHistory(outcomes []model.Outcome, categories []model.TaskCategory) string {
	if len(outcomes) == 0 {
		return "No finished tasks yet."
	}
	lines := make([]string, 0, len(outcomes))
	for i := len(outcomes) - 1; i >= 0; i-- {
		o := outcomes[i]
		name := o.CategoryID
		if c, ok := model.FindCategory(categories, o.CategoryID); ok {
			name = c.Name
		}
		when := o.OccurredAt.Local().Format("01-02 15:04")
		if o.Kind == model.OutcomeCompleted {
			reward := fmt.Sprintf("+%d WP +%d exp x%.1f", o.Reward.CurrencyDelta, o.Reward.ExperienceDelta, o.Reward.Multiplier)
			if o.BonusActive {
				reward += " bonus"
			}
			lines = append(lines, fmt.Sprintf("%s  %s  %s  %s", when, doneStyle.Render("done"), o.Title, headerStyle.Render(name+"  "+reward)))
		} else {
			lines = append(lines, fmt.Sprintf("%s  %s  %s  %s", when, missStyle.Render("later"), o.Title, headerStyle.Render(name)))
		}
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func categoryColumns() []table.Column {
	widths := []int{16, 5, 5, 8, 5, 10, 6}
	cols := make([]table.Column, len(stats.CategoryHeaders))
	for i, title := range stats.CategoryHeaders {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	return cols
}

func categoryRows(categories []model.TaskCategory, aggs []model.CategoryAggregate) []table.Row {
	raw := stats.CategoryRows(categories, aggs)
	rows := make([]table.Row, len(raw))
	for i, r := range raw {
		rows[i] = table.Row(r)
	}
	return rows
}

func categoryNames(ids []string, categories []model.TaskCategory) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id
		if c, ok := model.FindCategory(categories, id); ok {
			out[i] = c.Name
		}
	}
	return out
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.Padding(0, 1).PaddingLeft(0)
	styles.Selected = styles.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	return styles
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) startFilter() tea.Cmd {
	m.filterMode = true
	m.filterError = ""
	m.filterInputs[0].SetValue(m.filter.CategoryID)
	m.filterInputs[1].SetValue("")
	if m.filter.Since != nil {
		m.filterInputs[1].SetValue(m.filter.Since.Format("2006-01-02"))
	}
	m.filterInputs[2].SetValue("")
	if m.filter.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.filter.Last))
	}
	m.filterInputs[3].SetValue(strconv.Itoa(m.days))
	return m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		filter, days, err := parseFilter(m.filterInputs[0].Value(), m.filterInputs[1].Value(), m.filterInputs[2].Value(), m.filterInputs[3].Value())
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filter, m.days = filter, days
		m.filterMode = false
		m.filterError = ""
		m.Refresh()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func parseFilter(category, since, last, days string) (model.StatsFilter, int, error) {
	filter := model.StatsFilter{CategoryID: strings.TrimSpace(category)}
	if s := strings.TrimSpace(since); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return model.StatsFilter{}, 0, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		filter.Since = &parsed
	}
	if s := strings.TrimSpace(last); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return model.StatsFilter{}, 0, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		filter.Last = n
	}
	d := defaultDays
	if s := strings.TrimSpace(days); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxDays {
			return model.StatsFilter{}, 0, fmt.Errorf("invalid days (use 1-%d)", maxDays)
		}
		d = n
	}
	return filter, d, nil
}

func nextDays(n int) int {
	if n < 7 {
		return 7
	}
	return (n/7 + 1) * 7
}

func prevDays(n int) int {
	if n <= 7 {
		return 1
	}
	if n%7 == 0 {
		return n - 7
	}
	return (n / 7) * 7
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		return line + strings.Repeat(" ", width-w)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
