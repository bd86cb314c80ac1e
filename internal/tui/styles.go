package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/msglog/internal/model"
)

var (
	ColorNavy   = lipgloss.Color("17")
	ColorWhite  = lipgloss.Color("15")
	ColorGray   = lipgloss.Color("245")
	ColorBlue   = lipgloss.Color("39")
	ColorGreen  = lipgloss.Color("42")
	ColorOrange = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("196")
	ColorPurple = lipgloss.Color("141")
	ColorYellow = lipgloss.Color("220")
)

var sectionStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorGray).
	Padding(0, 1)

var activeSectionStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBlue).
	Padding(0, 1)

var chartTitleStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)

var helpStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)

var statusBarStyle = lipgloss.NewStyle().Background(ColorNavy).Foreground(ColorWhite)

var errorStyle = lipgloss.NewStyle().Background(ColorNavy).Foreground(ColorRed).Bold(true)

// channelColor returns the bar and legend color for a channel name.
func channelColor(name string) lipgloss.Color {
	switch name {
	case model.ChannelWebsocket.String():
		return ColorPurple
	case model.ChannelHttpApi.String():
		return ColorBlue
	case model.ChannelInternal.String():
		return ColorGray
	case model.ChannelExternal.String():
		return ColorGreen
	case model.ChannelTimer.String():
		return ColorYellow
	case model.ChannelTerminal.String():
		return ColorOrange
	default:
		return ColorWhite
	}
}
