package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/msglog/internal/model"
)

// DetailModal shows one history entry with its full content.
type DetailModal struct {
	entry    model.LogEntry
	viewport viewport.Model
}

func NewDetailModal(entry model.LogEntry) *DetailModal {
	return &DetailModal{entry: entry, viewport: viewport.New(80, 20)}
}

func (d *DetailModal) ID() string { return "detail" }

func (d *DetailModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			d.viewport.ScrollUp(1)
			return false, nil
		case "down", "j":
			d.viewport.ScrollDown(1)
			return false, nil
		case "pgup":
			d.viewport.HalfPageUp()
			return false, nil
		case "pgdown":
			d.viewport.HalfPageDown()
			return false, nil
		case "escape", "esc", "enter", "q":
			return true, nil
		}
		return false, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				d.viewport.ScrollUp(1)
			case tea.MouseButtonWheelDown:
				d.viewport.ScrollDown(1)
			}
		}
		return false, nil
	}
	return false, nil
}

func (d *DetailModal) View(width, height int) string {
	return renderModalFrame(&d.viewport, "Entry Details", d.content(), width, height)
}

func (d *DetailModal) content() string {
	label := lipgloss.NewStyle().Foreground(ColorGray).Width(11)
	e := d.entry

	ts := "unknown"
	if e.Timestamp != 0 {
		ts = fmt.Sprintf("%s (%d)", time.Unix(int64(e.Timestamp), 0).Format(time.RFC3339), e.Timestamp)
	}

	lines := []string{
		label.Render("Time") + ts,
		label.Render("Source") + e.Source,
		label.Render("Channel") + lipgloss.NewStyle().Foreground(channelColor(e.Channel)).Render(e.Channel),
		label.Render("Type") + e.TypeName,
		"",
		label.Render("Content"),
		formatContent(e.Content),
	}
	return strings.Join(lines, "\n")
}
