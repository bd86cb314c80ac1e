package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/msglog/internal/model"
)

// Section represents the focusable dashboard panels.
type Section int

const (
	SectionChart   Section = iota // channel counters
	SectionHistory                // history table
)

// ModalStackState holds the modal stack; the topmost modal receives all input.
type ModalStackState struct {
	modalStack []Modal
}

// ConnectionState tracks how the most recent polls went.
type ConnectionState struct {
	lastTickOK        bool
	lastTickAt        time.Time
	consecutiveErrors int

	// Last remote error for status line display (auto-clears after 30s).
	lastError   string
	lastErrorAt time.Time
}

// DashboardModel is the live status and history view of one msglog server.
type DashboardModel struct {
	ModalStackState
	ConnectionState

	width  int
	height int

	keys KeyMap
	help help.Model

	client     model.RemoteQuerier
	dataSource string

	activeSection Section
	status        model.StatusResponse
	hasStatus     bool
	entries       []model.LogEntry
	history       table.Model
	chart         *ChannelChart

	updateInterval     time.Duration
	availableIntervals []time.Duration
	currentIntervalIdx int

	viewPaused   bool // manual pause toggled with space
	followNewest bool // keep the history cursor on the newest entry

	// Async guards so slow servers never see overlapping calls.
	tickInFlight  bool
	clearInFlight bool

	// One-shot message shown in the status line, e.g. after a clear.
	notice string
}

// TickMsg represents a periodic poll.
type TickMsg time.Time

// dataLoadedMsg carries one poll's results back to the model.
type dataLoadedMsg struct {
	status     model.StatusResponse
	hasStatus  bool
	entries    []model.LogEntry
	hasEntries bool
	err        string
}

// historyClearedMsg reports the outcome of a clear request.
type historyClearedMsg struct {
	resp model.SuccessResponse
	err  error
}

// NewDashboardModel creates a dashboard polling client every updateInterval.
// dataSource names the connection in the header ("Socket").
func NewDashboardModel(updateInterval time.Duration, client model.RemoteQuerier, dataSource string) *DashboardModel {
	if updateInterval <= 0 {
		updateInterval = model.DefaultUpdateInterval
	}

	availableIntervals := []time.Duration{
		500 * time.Millisecond,
		1 * time.Second,
		2 * time.Second,
		5 * time.Second,
		10 * time.Second,
		30 * time.Second,
		1 * time.Minute,
	}

	currentIdx := 2
	for i, interval := range availableIntervals {
		if interval == updateInterval {
			currentIdx = i
			break
		}
	}

	return &DashboardModel{
		ConnectionState: ConnectionState{
			lastTickOK: true,
			lastTickAt: time.Now(),
		},
		keys:               DefaultKeyMap(),
		help:               help.New(),
		client:             client,
		dataSource:         dataSource,
		activeSection:      SectionChart,
		history:            newHistoryTable(),
		chart:              NewChannelChart(),
		updateInterval:     updateInterval,
		availableIntervals: availableIntervals,
		currentIntervalIdx: currentIdx,
		followNewest:       true,
	}
}

// Init starts the poll loop with an immediate first fetch.
func (m *DashboardModel) Init() tea.Cmd {
	m.tickInFlight = true
	return tea.Batch(m.fetchDataCmd(), m.scheduleTick())
}

func (m *DashboardModel) scheduleTick() tea.Cmd {
	return tea.Tick(m.updateInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// fetchDataCmd polls status then history. The server records both calls,
// so the history returned already contains them.
func (m *DashboardModel) fetchDataCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		var msg dataLoadedMsg
		if client == nil {
			msg.err = "not connected"
			return msg
		}

		status, err := client.ExternalGetStatus()
		if err != nil {
			msg.err = err.Error()
			return msg
		}
		msg.status, msg.hasStatus = status, true

		hist, err := client.ExternalGetHistory()
		if err != nil {
			msg.err = err.Error()
			return msg
		}
		msg.entries, msg.hasEntries = hist.Entries, true
		return msg
	}
}

func (m *DashboardModel) clearHistoryCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if client == nil {
			return historyClearedMsg{err: errNotConnected}
		}
		resp, err := client.ExternalClearHistory()
		return historyClearedMsg{resp: resp, err: err}
	}
}

// PushModal pushes a modal onto the stack. Deduplicates by ID.
func (m *DashboardModel) PushModal(modal Modal) {
	for _, existing := range m.modalStack {
		if existing.ID() == modal.ID() {
			return
		}
	}
	m.modalStack = append(m.modalStack, modal)
}

// PopModal removes the topmost modal from the stack.
func (m *DashboardModel) PopModal() {
	if len(m.modalStack) > 0 {
		m.modalStack = m.modalStack[:len(m.modalStack)-1]
	}
}

// TopModal returns the topmost modal, or nil if the stack is empty.
func (m *DashboardModel) TopModal() Modal {
	if len(m.modalStack) == 0 {
		return nil
	}
	return m.modalStack[len(m.modalStack)-1]
}

// autoPauseLiveUpdates returns true while the user is reading history away
// from the newest entry, or has an entry open. Refreshing then would shift
// rows under the cursor as the server evicts old entries.
func (m *DashboardModel) autoPauseLiveUpdates() bool {
	if m.TopModal() != nil {
		return true
	}
	return m.activeSection == SectionHistory && !m.followNewest
}

// liveUpdatesPaused returns true when polls should be skipped.
func (m *DashboardModel) liveUpdatesPaused() bool {
	return m.viewPaused || m.autoPauseLiveUpdates()
}

// DashboardView adapts DashboardModel to the Page interface.
type DashboardView struct {
	Model *DashboardModel
}

// NewDashboardView wraps a DashboardModel as a Page.
func NewDashboardView(m *DashboardModel) *DashboardView {
	return &DashboardView{Model: m}
}

func (p *DashboardView) ID() string { return "dashboard" }

func (p *DashboardView) Init() tea.Cmd {
	return p.Model.Init()
}

func (p *DashboardView) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	_, cmd := p.Model.Update(msg)
	return cmd, nil
}

func (p *DashboardView) View(width, height int) string {
	p.Model.width = width
	p.Model.height = height
	return p.Model.View()
}
