package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/habitbattle/internal/alert"
	"github.com/verte-zerg/habitbattle/internal/engine"
	"github.com/verte-zerg/habitbattle/internal/model"
	"github.com/verte-zerg/habitbattle/internal/reward"
	"github.com/verte-zerg/habitbattle/internal/schedule"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	bonusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	rewardStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	selectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#3A3A3A"))
	countdownBig = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5D76E")).Bold(true).Padding(0, 2)
	cardStyle    = lipgloss.NewStyle().
			Padding(1, 3).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	toastStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true)
)

var themeColors = map[string]string{
	"blue":   "#4EA1FF",
	"red":    "#FF6B6B",
	"green":  "#52C41A",
	"purple": "#B28DFF",
	"orange": "#FFA940",
}

var toastColors = map[model.AlertKind]string{
	model.AlertEmergency: "#FF4D4F",
	model.AlertReward:    "#52C41A",
	model.AlertDaily:     "#C89A3A",
	model.AlertSystem:    "#6E6E6E",
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.view.State == model.StateStats {
		if m.stats == nil {
			return m.frame("Stats are unavailable. Press esc to go back.")
		}
		return m.stats.View() + "\n" + m.renderFooter()
	}
	var body string
	switch m.view.State {
	case model.StateIdle:
		body = m.renderTaskCard()
	case model.StateAccepted:
		body = m.renderAccepted()
	case model.StateExecuting:
		body = m.renderExecuting()
	case model.StateFeedback:
		body = m.renderFeedback()
	case model.StateMomentum:
		body = m.renderMomentum()
	case model.StateExitHook:
		body = m.renderExitHook()
	case model.StateSettings:
		body = m.renderSettings()
	case model.StateBattlePassView:
		body = m.renderBattlePass()
	}
	return m.frame(body)
}

// frame stacks the status header, centered body and footer.
func (m *Model) frame(body string) string {
	header := m.renderHeader()
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return strings.Join([]string{header, body, footer}, "\n\n")
	}
	bodyHeight := max(1, m.height-lipgloss.Height(header)-lipgloss.Height(footer))
	placed := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body)
	return lipgloss.JoinVertical(lipgloss.Left, header, placed, footer)
}

func (m *Model) renderHeader() string {
	u := m.view.User
	exp := 0.0
	if u.MaxExp > 0 {
		exp = float64(u.Experience) / float64(u.MaxExp)
	}
	status := fmt.Sprintf("%s %s %d/%d  %s  %s",
		accentStyle.Render(fmt.Sprintf("Lv %d", u.Level)),
		m.expBar.ViewAs(exp),
		u.Experience, u.MaxExp,
		accentStyle.Render(fmt.Sprintf("%d WP", u.Currency)),
		m.statusLine(),
	)
	return status + "\n" + m.windowLine()
}

func (m *Model) statusLine() string {
	u := m.view.User
	return mutedStyle.Render(fmt.Sprintf("Streak %d · Combo %d · Fatigue %d%%", u.Streak, u.Combo, u.Fatigue))
}

func (m *Model) windowLine() string {
	parts := []string{}
	if w := m.view.Window; w != nil {
		parts = append(parts, fmt.Sprintf("%s %02d:00-%02d:00 x%.1f", w.Name, w.StartHour, w.EndHour, w.Multiplier))
	} else {
		parts = append(parts, "No active window")
	}
	line := mutedStyle.Render(strings.Join(parts, "  "))
	if b := m.view.Bonus; b.Active {
		line += "  " + bonusStyle.Render(fmt.Sprintf("BONUS until %s", b.ExpiresAt.Local().Format("15:04")))
	}
	return line
}

func (m *Model) renderFooter() string {
	var lines []string
	if m.toast != nil {
		lines = append(lines, renderToast(*m.toast))
	}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	lines = append(lines, m.help.View(stateHelp{keys: m.keys, state: m.view.State, busy: m.view.Revealing}))
	return strings.Join(lines, "\n")
}

func renderToast(a alert.Alert) string {
	color, ok := toastColors[a.Kind]
	if !ok {
		color = "#6E6E6E"
	}
	text := titleStyle.Render(a.Title)
	if a.Body != "" {
		text += "  " + a.Body
	}
	return toastStyle.BorderForeground(lipgloss.Color(color)).Render(text)
}

func (m *Model) cardWidth() int {
	if m.width <= 0 {
		return 40
	}
	return max(20, min(60, m.width*7/10))
}

func (m *Model) categoryOf(t *model.Task) model.TaskCategory {
	if c, ok := model.FindCategory(m.view.Categories, t.CategoryID); ok {
		return c
	}
	return model.TaskCategory{ID: t.CategoryID, Name: t.CategoryID}
}

func (m *Model) renderTaskCard() string {
	t := m.view.Current
	if t == nil {
		return cardStyle.Render(mutedStyle.Render("No task available"))
	}
	cat := m.categoryOf(t)
	width := m.cardWidth()
	catStyle := mutedStyle
	if color, ok := themeColors[cat.ColorTheme]; ok {
		catStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	lines := []string{
		catStyle.Render(strings.ToUpper(truncate(cat.Name, width))) + "  " + mutedStyle.Render(strings.Repeat("★", t.Difficulty)),
		"",
	}
	for _, l := range wrapWords(t.Title, width) {
		lines = append(lines, titleStyle.Render(l))
	}
	lines = append(lines, "", m.rewardPreview(t))
	if t.TimeLimitSec != nil {
		lines = append(lines, mutedStyle.Render("Time limit "+clockText(*t.TimeLimitSec)))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// rewardPreview shows what completing t in the current window grants,
// without the bonus multiplier.
func (m *Model) rewardPreview(t *model.Task) string {
	r := reward.Compute(t.BaseReward, schedule.Multiplier(m.view.Window), false, 1)
	text := fmt.Sprintf("+%d WP  +%d EXP  x%.1f", r.CurrencyDelta, r.ExperienceDelta, r.Multiplier)
	if m.view.Bonus.Active {
		text += "  " + bonusStyle.Render("+ bonus")
	}
	return rewardStyle.Render(text)
}

func (m *Model) renderAccepted() string {
	title := ""
	if t := m.view.Current; t != nil {
		title = t.Title
	}
	return cardStyle.Render(accentStyle.Render("Get ready") + "\n\n" + titleStyle.Render(truncate(title, m.cardWidth())))
}

func (m *Model) renderExecuting() string {
	t := m.view.Current
	if t == nil {
		return ""
	}
	lines := []string{}
	for _, l := range wrapWords(t.Title, m.cardWidth()) {
		lines = append(lines, titleStyle.Render(l))
	}
	lines = append(lines, "")
	switch {
	case m.view.Revealing:
		lines = append(lines, accentStyle.Render("Counting your reward..."))
	case m.view.Counting || t.TimeLimitSec != nil:
		lines = append(lines, countdownBig.Render(clockText(m.view.Countdown)))
		if m.view.Countdown == 0 {
			lines = append(lines, mutedStyle.Render("Time is up. Finish when you can."))
		}
	default:
		lines = append(lines, mutedStyle.Render("No time limit"))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFeedback() string {
	lines := []string{accentStyle.Render("Task complete!"), ""}
	if r := m.view.LastReward; r != nil {
		lines = append(lines, rewardStyle.Render(fmt.Sprintf("+%d WP   +%d EXP", r.CurrencyDelta, r.ExperienceDelta)))
		if r.Multiplier != 1 {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("multiplier x%.2f", r.Multiplier)))
		}
	}
	lines = append(lines, "", m.renderChests())
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderChests() string {
	rows := make([]string, 0, len(m.view.Chests))
	for _, c := range m.view.Chests {
		label := fmt.Sprintf("%-6s", c.Type)
		if c.Ready {
			rows = append(rows, label+" "+rewardStyle.Render("READY"))
			continue
		}
		pct := 0.0
		if c.Required > 0 {
			pct = float64(c.Progress) / float64(c.Required)
		}
		rows = append(rows, fmt.Sprintf("%s %s %d/%d", label, m.chestBar.ViewAs(pct), c.Progress, c.Required))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderMomentum() string {
	lines := []string{
		accentStyle.Render(fmt.Sprintf("Combo x%d! Keep the streak alive.", m.view.User.Combo)),
	}
	if t := m.view.Current; t != nil {
		lines = append(lines, "", mutedStyle.Render("Up next"), titleStyle.Render(truncate(t.Title, m.cardWidth())))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderExitHook() string {
	return cardStyle.Render(strings.Join([]string{
		accentStyle.Render("Good work. Take a rest."),
		"",
		mutedStyle.Render(fmt.Sprintf("Streak %d is safe. Your next task will be waiting.", m.view.User.Streak)),
	}, "\n"))
}

func (m *Model) renderBattlePass() string {
	bp := m.view.BattlePass
	pct := 0.0
	if bp.ExpPerTier > 0 {
		pct = float64(bp.TierExp) / float64(bp.ExpPerTier)
	}
	lines := []string{
		accentStyle.Render(fmt.Sprintf("Season %s  ·  Tier %d", bp.SeasonID, bp.Tier)),
		fmt.Sprintf("%s %d/%d", m.tierBar.ViewAs(pct), bp.TierExp, bp.ExpPerTier),
		mutedStyle.Render("Ends " + bp.SeasonEndsAt.Local().Format("2006-01-02")),
		"",
	}
	visible := max(3, m.height-14)
	start := max(0, min(m.tierRow-visible/2, len(bp.Rewards)-visible))
	end := min(len(bp.Rewards), start+visible)
	for i := start; i < end; i++ {
		r := bp.Rewards[i]
		mark := "  "
		switch {
		case r.Claimed:
			mark = "✓ "
		case r.Tier <= bp.Tier:
			mark = "● "
		}
		line := fmt.Sprintf("%sTier %2d  %-8s %s", mark, r.Tier, r.FreeReward, mutedStyle.Render(r.PremiumReward))
		if i == m.tierRow {
			line = selectStyle.Render(line)
		} else if r.Tier > bp.Tier {
			line = mutedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderSettings() string {
	rows := settingsRows(m.view)
	lines := []string{accentStyle.Render("Time windows")}
	var selected *settingsRow
	for i, row := range rows {
		if !row.window && (i == 0 || rows[i-1].window) {
			lines = append(lines, "", accentStyle.Render("Categories"))
		}
		var line string
		if row.window {
			w := row.win
			line = fmt.Sprintf("%-10s %02d-%02d  %s x%.1f", truncate(w.Name, 10), w.StartHour, w.EndHour, slider(w.Multiplier, engine.MinWindowMultiplier, engine.MaxWindowMultiplier), w.Multiplier)
		} else {
			c := row.category
			line = fmt.Sprintf("%-10s        %s x%.1f", truncate(c.Name, 10), slider(c.BaseMultiplier, engine.MinCategoryMultiplier, engine.MaxCategoryMultiplier), c.BaseMultiplier)
		}
		if i == m.settingsRow {
			line = selectStyle.Render(line)
			selected = &rows[i]
		}
		lines = append(lines, line)
	}
	if selected != nil && selected.window {
		lines = append(lines, "", mutedStyle.Render("Allowed in "+selected.win.Name+":"))
		allowed := map[string]bool{}
		for _, id := range selected.win.AllowedCategories {
			allowed[id] = true
		}
		for i, c := range m.view.Categories {
			if i >= 9 {
				break
			}
			box := "[ ]"
			if allowed[c.ID] {
				box = "[x]"
			}
			lines = append(lines, fmt.Sprintf("%d %s %s", i+1, box, c.Name))
		}
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// slider draws v's position in [lo, hi] on a ten-cell track.
func slider(v, lo, hi float64) string {
	const cells = 10
	pos := 0
	if hi > lo {
		pos = int((v - lo) / (hi - lo) * cells)
	}
	pos = max(0, min(cells-1, pos))
	return "[" + strings.Repeat("─", pos) + "●" + strings.Repeat("─", cells-1-pos) + "]"
}

func clockText(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
