package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/msglog/internal/model"
)

const (
	colTimeWidth    = 8
	colSourceWidth  = 22
	colChannelWidth = 9
	colTypeWidth    = 24
	minContentWidth = 10

	redactedContent = "(not recorded)"
)

func newHistoryTable() table.Model {
	t := table.New(
		table.WithColumns(historyColumns(100)),
		table.WithHeight(10),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorGray).
		BorderBottom(true).
		Foreground(ColorBlue).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(ColorWhite).
		Background(ColorNavy).
		Bold(false)
	t.SetStyles(styles)
	return t
}

// historyColumns sizes the columns for width; content takes the remainder.
func historyColumns(width int) []table.Column {
	fixed := colTimeWidth + colSourceWidth + colChannelWidth + colTypeWidth
	// Each cell carries one column of padding on either side.
	content := max(minContentWidth, width-fixed-2*5)
	return []table.Column{
		{Title: "Time", Width: colTimeWidth},
		{Title: "Source", Width: colSourceWidth},
		{Title: "Channel", Width: colChannelWidth},
		{Title: "Type", Width: colTypeWidth},
		{Title: "Content", Width: content},
	}
}

// setHistoryRows rebuilds the table from m.entries, oldest first, keeping the
// cursor on the newest row while following.
func (m *DashboardModel) setHistoryRows() {
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		rows = append(rows, table.Row{
			formatTimestamp(e.Timestamp),
			e.Source,
			e.Channel,
			e.TypeName,
			singleLine(formatContent(e.Content)),
		})
	}
	m.history.SetRows(rows)

	switch {
	case len(rows) == 0:
		m.history.SetCursor(0)
	case m.followNewest || m.history.Cursor() >= len(rows):
		m.history.GotoBottom()
	}
}

// resizeHistory fits the table into the space left under the chart.
func (m *DashboardModel) resizeHistory() {
	_, historyHeight := m.layoutHeights()
	// Border (2) and table header with its rule (2).
	m.history.SetHeight(max(1, historyHeight-4))
	innerWidth := max(20, m.width-4)
	m.history.SetColumns(historyColumns(innerWidth))
	m.history.SetWidth(innerWidth)
}

func (m *DashboardModel) selectedEntry() (model.LogEntry, bool) {
	idx := m.history.Cursor()
	if idx < 0 || idx >= len(m.entries) {
		return model.LogEntry{}, false
	}
	return m.entries[idx], true
}

func formatTimestamp(ts uint64) string {
	if ts == 0 {
		return "--:--:--"
	}
	return time.Unix(int64(ts), 0).Format("15:04:05")
}

func formatContent(content *string) string {
	if content == nil {
		return redactedContent
	}
	return *content
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
