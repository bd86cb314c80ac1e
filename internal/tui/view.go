package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	minWidth  = 60
	minHeight = 20

	headerHeight     = 1
	statusLineHeight = 1
	chartPanelHeight = chartHeight + 3 // title and border
)

// layoutHeights splits the screen between the chart and the history table.
func (m *DashboardModel) layoutHeights() (chartsHeight, historyHeight int) {
	usable := m.height - headerHeight - statusLineHeight
	return chartPanelHeight, max(3, usable-chartPanelHeight)
}

// View renders the dashboard
func (m *DashboardModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Initializing dashboard..."
	}

	if modal := m.TopModal(); modal != nil {
		return modal.View(m.width, m.height)
	}

	if m.height < minHeight || m.width < minWidth {
		return fmt.Sprintf("Terminal too small. Resize to at least %dx%d.", minWidth, minHeight)
	}
	return m.renderDashboard()
}

func (m *DashboardModel) renderDashboard() string {
	chartsHeight, historyHeight := m.layoutHeights()

	header := m.renderHeader()
	chart := m.chart.Render(m.width, chartsHeight, m.activeSection == SectionChart)
	history := m.renderHistory(historyHeight)
	status := m.renderStatusLine()

	return lipgloss.JoinVertical(lipgloss.Left, header, chart, history, status)
}

// renderBranding renders the product name with a gradient.
func renderBranding() string {
	colors := []string{"#49E209", "#35DD2F", "#21D955", "#0DD47B", "#00D0A1", "#00CAC7"}
	chars := []string{"m", "s", "g", "l", "o", "g"}

	var b strings.Builder
	for i, char := range chars {
		b.WriteString(lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(lipgloss.Color(colors[i])).
			Bold(true).
			Render(char))
	}
	return b.String()
}

func (m *DashboardModel) renderHeader() string {
	var parts []string
	if m.hasStatus {
		parts = append(parts,
			fmt.Sprintf("Clients: %d", m.status.ClientCount),
			fmt.Sprintf("Messages: %d", m.status.MessageCount),
			fmt.Sprintf("Retained: %d", len(m.entries)),
		)
	} else {
		parts = append(parts, "Waiting for first update...")
	}

	left := renderBranding() + statusBarStyle.Render("  "+strings.Join(parts, "  |  "))
	right := statusBarStyle.Render(m.connectionIndicator() + " ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return statusBarStyle.Width(m.width).Render(left)
	}
	return left + statusBarStyle.Render(strings.Repeat(" ", gap)) + right
}

func (m *DashboardModel) connectionIndicator() string {
	var state string
	switch {
	case !m.lastTickOK:
		state = lipgloss.NewStyle().Foreground(ColorRed).Background(ColorNavy).Render("●") + statusBarStyle.Render(" error")
	case m.liveUpdatesPaused():
		state = lipgloss.NewStyle().Foreground(ColorYellow).Background(ColorNavy).Render("●") + statusBarStyle.Render(" paused")
	default:
		state = lipgloss.NewStyle().Foreground(ColorGreen).Background(ColorNavy).Render("●") + statusBarStyle.Render(" live")
	}
	return statusBarStyle.Render(m.dataSource+" ") + state + statusBarStyle.Render(" "+m.updateInterval.String())
}

func (m *DashboardModel) renderHistory(height int) string {
	style := sectionStyle
	if m.activeSection == SectionHistory {
		style = activeSectionStyle
	}
	style = style.Width(m.width - 2).Height(height - 2)

	if len(m.entries) == 0 {
		msg := "No history yet"
		if !m.hasStatus {
			msg = "Loading..."
		}
		return style.Render(helpStyle.Render(msg))
	}
	return style.Render(m.history.View())
}

// renderStatusLine renders key hints on the left and notices or errors on
// the right.
func (m *DashboardModel) renderStatusLine() string {
	m.help.Width = m.width / 2
	left := statusBarStyle.Render(" ") + m.help.ShortHelpView(m.keys.ShortHelp())

	var right string
	switch {
	case m.currentError() != "":
		right = errorStyle.Render(truncate("Error: "+m.currentError(), m.width/2) + " ")
	case m.notice != "":
		right = statusBarStyle.Render(truncate(m.notice, m.width/2) + " ")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		return statusBarStyle.Width(m.width).Render(right)
	}
	return left + statusBarStyle.Render(strings.Repeat(" ", gap)) + right
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
