package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// errorDisplayTTL bounds how long a failed poll stays in the status line.
const errorDisplayTTL = 30 * time.Second

// Update handles messages
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeHistory()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouseEvent(msg)

	case TickMsg:
		// Freeze refresh while the user is reading history (or manually
		// paused) so the selection stays on the same entry.
		if m.liveUpdatesPaused() || m.tickInFlight {
			return m, m.scheduleTick()
		}
		m.tickInFlight = true
		return m, tea.Batch(m.fetchDataCmd(), m.scheduleTick())

	case dataLoadedMsg:
		m.tickInFlight = false
		m.applyData(msg)
		return m, nil

	case historyClearedMsg:
		m.clearInFlight = false
		if msg.err != nil {
			m.recordError(fmt.Sprintf("clear failed: %v", msg.err))
			return m, nil
		}
		m.notice = msg.resp.Message
		m.followNewest = true
		m.history.GotoBottom()
		return m, m.refreshNow()
	}

	return m, nil
}

// applyData installs one poll's results. A failed poll keeps the last good
// data on screen.
func (m *DashboardModel) applyData(msg dataLoadedMsg) {
	if msg.err != "" {
		m.recordError(msg.err)
		return
	}

	if msg.hasStatus {
		m.status = msg.status
		m.hasStatus = true
		m.chart.SetData(msg.status.ChannelStats)
	}
	if msg.hasEntries {
		m.entries = msg.entries
		m.setHistoryRows()
	}

	m.lastTickOK = true
	m.lastTickAt = time.Now()
	m.consecutiveErrors = 0
}

func (m *DashboardModel) recordError(text string) {
	m.lastTickOK = false
	m.consecutiveErrors++
	m.lastError = text
	m.lastErrorAt = time.Now()
}

// currentError returns the last error while it is still fresh.
func (m *DashboardModel) currentError() string {
	if m.lastError == "" || time.Since(m.lastErrorAt) > errorDisplayTTL {
		return ""
	}
	return m.lastError
}

// refreshNow starts a poll outside the tick schedule unless one is running.
func (m *DashboardModel) refreshNow() tea.Cmd {
	if m.tickInFlight {
		return nil
	}
	m.tickInFlight = true
	return m.fetchDataCmd()
}

func (m *DashboardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	// Modal on stack gets the key first.
	if modal := m.TopModal(); modal != nil {
		pop, cmd := modal.Update(msg)
		if pop {
			m.PopModal()
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.PushModal(NewHelpModal(m))
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.notice = ""
		m.lastError = ""
		if m.activeSection == SectionHistory {
			m.followNewest = true
			m.history.GotoBottom()
		}
		return m, nil
	case key.Matches(msg, m.keys.NextSection):
		m.toggleSection()
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		if m.clearInFlight {
			return m, nil
		}
		m.clearInFlight = true
		m.notice = "Clearing history..."
		return m, m.clearHistoryCmd()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshNow()
	case key.Matches(msg, m.keys.Pause):
		m.viewPaused = !m.viewPaused
		return m, nil
	case key.Matches(msg, m.keys.IntervalUp):
		m.setIntervalIdx(m.currentIntervalIdx - 1)
		return m, nil
	case key.Matches(msg, m.keys.IntervalDown):
		m.setIntervalIdx(m.currentIntervalIdx + 1)
		return m, nil
	}

	if m.activeSection == SectionHistory {
		m.handleHistoryKey(msg)
	}
	return m, nil
}

func (m *DashboardModel) handleHistoryKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveSelection(-max(1, m.history.Height()))
	case key.Matches(msg, m.keys.PageDown):
		m.moveSelection(max(1, m.history.Height()))
	case key.Matches(msg, m.keys.Home):
		m.history.GotoTop()
		m.followNewest = len(m.entries) <= 1
	case key.Matches(msg, m.keys.End):
		m.history.GotoBottom()
		m.followNewest = true
	case key.Matches(msg, m.keys.Enter):
		if entry, ok := m.selectedEntry(); ok {
			m.PushModal(NewDetailModal(entry))
		}
	}
}

// moveSelection moves the history cursor by delta rows. Reaching the newest
// entry resumes following it.
func (m *DashboardModel) moveSelection(delta int) {
	if len(m.entries) == 0 {
		return
	}
	if delta < 0 {
		m.history.MoveUp(-delta)
	} else {
		m.history.MoveDown(delta)
	}
	m.followNewest = m.history.Cursor() >= len(m.entries)-1
}

func (m *DashboardModel) toggleSection() {
	if m.activeSection == SectionChart {
		m.activeSection = SectionHistory
		m.history.Focus()
		return
	}
	m.activeSection = SectionChart
	m.history.Blur()
	m.followNewest = true
	m.history.GotoBottom()
}

func (m *DashboardModel) setIntervalIdx(idx int) {
	if idx < 0 || idx >= len(m.availableIntervals) {
		return
	}
	m.currentIntervalIdx = idx
	m.updateInterval = m.availableIntervals[idx]
}

// handleMouseEvent scrolls the history with the wheel.
func (m *DashboardModel) handleMouseEvent(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if modal := m.TopModal(); modal != nil {
		pop, cmd := modal.Update(msg)
		if pop {
			m.PopModal()
		}
		return m, cmd
	}

	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.activeSection = SectionHistory
		m.history.Focus()
		m.moveSelection(-1)
	case tea.MouseButtonWheelDown:
		m.activeSection = SectionHistory
		m.history.Focus()
		m.moveSelection(1)
	}
	return m, nil
}
