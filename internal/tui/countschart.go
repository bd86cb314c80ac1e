package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/msglog/internal/model"
)

const (
	chartHeight      = 8
	chartLegendWidth = 20
)

// channelCount is one bar of the chart.
type channelCount struct {
	Name  string
	Count uint64
}

// ChannelChart displays the per-channel message counters as a bar chart.
// Every known channel gets a bar, zero or not, in a fixed order.
type ChannelChart struct {
	data    []channelCount
	hasData bool
}

// NewChannelChart creates an empty chart.
func NewChannelChart() *ChannelChart {
	return &ChannelChart{}
}

// SetData replaces the counters with stats. Channels the dashboard does not
// know about are appended after the known ones.
func (c *ChannelChart) SetData(stats []model.ChannelStat) {
	byName := make(map[string]uint64, len(stats))
	for _, s := range stats {
		byName[s.Channel] += s.Count
	}

	data := make([]channelCount, 0, len(model.Channels())+len(stats))
	for _, ch := range model.Channels() {
		name := ch.String()
		data = append(data, channelCount{Name: name, Count: byName[name]})
		delete(byName, name)
	}
	for _, s := range stats {
		if n, ok := byName[s.Channel]; ok {
			data = append(data, channelCount{Name: s.Channel, Count: n})
			delete(byName, s.Channel)
		}
	}

	c.data = data
	c.hasData = true
}

// Total returns the sum of all counters.
func (c *ChannelChart) Total() uint64 {
	var total uint64
	for _, d := range c.data {
		total += d.Count
	}
	return total
}

func (c *ChannelChart) Render(width, height int, active bool) string {
	style := sectionStyle.Width(width - 2).Height(height - 2)
	if active {
		style = activeSectionStyle.Width(width - 2).Height(height - 2)
	}

	headerText := "Messages by Channel"
	if c.hasData {
		right := fmt.Sprintf("Total: %d", c.Total())
		spacer := width - 6 - len(headerText) - len(right)
		if spacer > 0 {
			headerText += strings.Repeat(" ", spacer) + right
		}
	}
	title := chartTitleStyle.Render(headerText)

	var content string
	switch {
	case !c.hasData:
		content = helpStyle.Render("No data available")
	case c.Total() == 0:
		content = helpStyle.Render("No messages recorded")
	default:
		content = c.renderContent(width - 4)
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (c *ChannelChart) renderContent(chartWidth int) string {
	actualChartWidth := max(20, chartWidth-chartLegendWidth-2)

	bars := len(c.data)
	barWidth := max(1, min(6, (actualChartWidth-(bars-1))/bars))

	bc := barchart.New(actualChartWidth, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(barWidth),
		barchart.WithNoAxis(),
	)

	for _, d := range c.data {
		color := channelColor(d.Name)
		bc.Push(barchart.BarData{
			Label: d.Name,
			Values: []barchart.BarValue{{
				Name:  d.Name,
				Value: float64(d.Count),
				Style: lipgloss.NewStyle().Foreground(color).Background(color),
			}},
		})
	}
	bc.Draw()

	var legendLines []string
	for _, d := range c.data {
		label := fmt.Sprintf("%-10s%8d", d.Name, d.Count)
		legendLines = append(legendLines, lipgloss.NewStyle().Foreground(channelColor(d.Name)).Render(label))
	}
	for len(legendLines) < chartHeight {
		legendLines = append(legendLines, "")
	}

	chartLines := strings.Split(bc.View(), "\n")
	for len(chartLines) < chartHeight {
		chartLines = append(chartLines, "")
	}

	combined := make([]string, 0, chartHeight)
	for i := 0; i < chartHeight; i++ {
		line := chartLines[i]
		if w := lipgloss.Width(line); w < actualChartWidth {
			line += strings.Repeat(" ", actualChartWidth-w)
		}
		combined = append(combined, line+"  "+legendLines[i])
	}
	return strings.Join(combined, "\n")
}
