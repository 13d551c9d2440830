package tui

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lifeos/internal/apperrors"
	"lifeos/internal/confirm"
	"lifeos/internal/output"
	"lifeos/internal/pager"
	"lifeos/internal/session"
)

// chrome is the rows taken by the tab bar, padding, hints and footer.
const chrome = 9

var tabTitles = map[session.Tab]string{
	session.Dashboard: "Dashboard",
	session.Tasks:     "Tasks",
	session.Habits:    "Habits",
	session.Profile:   "Profile",
}

// View implements tea.Model.
func (m *Model) View() string {
	if req, open := m.gate.Pending(); open {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderModal(req))
	}
	if m.form != nil && m.form.kind == formAuth {
		screen := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("LifeOS"),
			"",
			m.form.form.View(),
			m.renderToast(),
		)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, screen)
	}

	tab := m.sess.State().Tab
	body := ""
	if m.form != nil {
		body = m.form.form.View() + "\n" + mutedStyle.Render("esc cancel")
	} else {
		body = m.renderTab(tab)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(tab),
		bodyStyle.Render(body),
		m.renderToast(),
		m.help.View(m.keys),
	)
}

func reason(err error) string {
	return strings.TrimSuffix(apperrors.Message(err), ".")
}

func (m *Model) contentWidth() int {
	return m.width - bodyStyle.GetHorizontalFrameSize()
}

func (m *Model) renderTabs(active session.Tab) string {
	parts := []string{titleStyle.Render("LifeOS")}
	for _, t := range session.Tabs {
		style := tabStyle
		if t == active {
			style = activeTabStyle
		}
		parts = append(parts, style.Render(tabTitles[t]))
	}
	if m.loading[active] {
		parts = append(parts, m.spinner.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderToast() string {
	t, ok := m.toasts.Visible()
	if !ok {
		return ""
	}
	return " " + output.FormatToast(t)
}

func (m *Model) renderTab(tab session.Tab) string {
	switch tab {
	case session.Tasks:
		return m.renderList(tab, pager.Tasks, m.tasks.State(), renderRows(m.tasks, m.cursor[tab], m.rowBudget(), output.FormatTaskLine), "No tasks yet. Press a to add one.")
	case session.Habits:
		return m.renderList(tab, pager.Habits, m.habits.State(), renderRows(m.habits, m.cursor[tab], m.rowBudget(), output.FormatHabitLine), "No habits yet. Press a to start one.")
	case session.Profile:
		return m.renderProfile()
	default:
		return m.renderDashboard()
	}
}

func (m *Model) rowBudget() int {
	if m.height == 0 {
		return pager.PageSize * 5
	}
	return max(m.height-chrome, 3)
}

func (m *Model) renderList(tab session.Tab, kind pager.Kind, st pager.State, rows, empty string) string {
	var b strings.Builder
	switch {
	case rows != "":
		b.WriteString(rows)
	case m.loading[tab]:
		b.WriteString(m.spinner.View() + " Loading " + string(kind) + "...\n")
	case m.loadErr[tab] == nil:
		b.WriteString(mutedStyle.Render(empty) + "\n")
	}
	if err := m.loadErr[tab]; err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Couldn't load %s (%s). Press r to retry.", kind, reason(err))) + "\n")
	}
	if st.HasNext {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Page %d loaded. Press m to load more.", st.CurrentPage)) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderRows draws the loaded rows with the cursor marked, scrolled so the
// cursor stays within budget rows.
func renderRows[T any](ctrl *pager.Controller[T], cursor, budget int, line func(io.Writer, int, T)) string {
	items := ctrl.Items()
	if len(items) == 0 {
		return ""
	}
	start := 0
	if cursor >= budget {
		start = cursor - budget + 1
	}
	end := min(start+budget, len(items))

	var b strings.Builder
	for i := start; i < end; i++ {
		var row strings.Builder
		line(&row, i+1, items[i])
		text := strings.TrimRight(row.String(), "\n")
		if i == cursor {
			b.WriteString(selectedStyle.Render("> "+text) + "\n")
		} else {
			b.WriteString("  " + text + "\n")
		}
	}
	return b.String()
}

func (m *Model) renderDashboard() string {
	if err := m.loadErr[session.Dashboard]; err != nil {
		return errorStyle.Render(fmt.Sprintf("Couldn't load the dashboard (%s). Press r to retry.", reason(err)))
	}
	if !m.overview {
		return m.spinner.View() + " Loading dashboard..."
	}
	return m.viewport.View()
}

// syncDashboard rebuilds the dashboard text at the current width.
func (m *Model) syncDashboard() {
	ov := m.sess.Overview()
	var b strings.Builder
	output.FormatDashboard(&b, ov.Dashboard)
	b.WriteString("\n")
	switch {
	case ov.Report != nil:
		r := *ov.Report
		r.Report = output.RenderMarkdown(r.Report, m.viewport.Width)
		output.FormatReport(&b, r, m.now())
	case ov.ReportErr != nil:
		b.WriteString(errorStyle.Render("Couldn't load the weekly report ("+reason(ov.ReportErr)+").") + "\n")
	default:
		b.WriteString(mutedStyle.Render("No weekly report yet. Press g to generate one.") + "\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoTop()
}

func (m *Model) renderProfile() string {
	lines := []string{
		"Signed in.",
		"",
		m.keys.Password.Help().Key + "  " + m.keys.Password.Help().Desc,
		m.keys.Logout.Help().Key + "  " + m.keys.Logout.Help().Desc,
	}
	if n := m.tasks.Len() + m.habits.Len(); n > 0 {
		lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("%d tasks and %d habits loaded.", m.tasks.Len(), m.habits.Len())))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderModal(req confirm.Request[tea.Cmd]) string {
	style, button := modalStyle, activeButtonStyle
	if req.Dangerous {
		style, button = dangerModalStyle, dangerButtonStyle
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		button.Render(req.Label()),
		" ",
		buttonStyle.Render("Cancel"),
	)
	return style.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(req.Title),
		"",
		req.Message,
		"",
		buttons,
	))
}

// modalBounds returns where View places the dialog.
func (m *Model) modalBounds(req confirm.Request[tea.Cmd]) (x, y, w, h int) {
	box := m.renderModal(req)
	w, h = lipgloss.Width(box), lipgloss.Height(box)
	x = max((m.width-w)/2, 0)
	y = max((m.height-h)/2, 0)
	return x, y, w, h
}

