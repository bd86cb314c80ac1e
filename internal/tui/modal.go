package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

var errNotConnected = errors.New("not connected")

// Modal is a self-contained overlay that owns its own Update/View lifecycle.
// Modals are managed via a stack on DashboardModel.
type Modal interface {
	// ID returns a unique identifier used to deduplicate pushes.
	ID() string
	// Update processes a message. Return pop=true to close the modal.
	Update(msg tea.Msg) (pop bool, cmd tea.Cmd)
	// View renders the modal content for the given terminal dimensions.
	View(width, height int) string
}
