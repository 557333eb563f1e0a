package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/strata/codec"
	"github.com/justapithecus/strata/progress"
)

// InspectModel is a Bubble Tea model for inspect views.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	offset   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.offset = m.clampOffset(m.offset)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			m.offset = m.clampOffset(m.offset - 1)
		case key.Matches(msg, keys.Down):
			m.offset = m.clampOffset(m.offset + 1)
		case key.Matches(msg, keys.PageUp):
			m.offset = m.clampOffset(m.offset - m.visibleRows())
		case key.Matches(msg, keys.PageDown):
			m.offset = m.clampOffset(m.offset + m.visibleRows())
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "inspect_message":
		content = m.renderInspectMessage()
	default:
		content = ErrorStyle.Render(fmt.Sprintf("Unknown view type: %s", m.viewType))
	}

	help := HelpStyle.Render("Press up/down to scroll segments, q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m InspectModel) renderInspectMessage() string {
	data, ok := m.data.(*codec.MessageSummary)
	if !ok {
		return ErrorStyle.Render("Invalid data type for inspect_message")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Structured Message"))
	b.WriteString("\n\n")

	boxes := []string{
		m.renderStatBox("Segments", fmt.Sprintf("%d", data.SegmentCount), highlightColor),
		m.renderStatBox("Content", progress.FormatBytes(data.ContentLength), successColor),
		m.renderStatBox("Framed", progress.FormatBytes(data.MessageLength), primaryColor),
		m.renderStatBox("Checksum", data.Checksum, checksumColor(data.Checksum)),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	b.WriteString(m.renderSegmentTable(data))

	return BoxStyle.Render(b.String())
}

// renderSegmentTable renders the scrollable segment listing. Only the rows
// inside the current window are rendered; large messages can carry tens of
// thousands of segments.
func (m InspectModel) renderSegmentTable(data *codec.MessageSummary) string {
	var b strings.Builder

	header := fmt.Sprintf("%7s  %14s  %14s", "number", "offset", "content_length")
	b.WriteString(SegmentHeaderStyle.Render(header))
	b.WriteString("\n")

	visible := m.visibleRows()
	end := m.offset + visible
	if end > len(data.Segments) {
		end = len(data.Segments)
	}

	for _, seg := range data.Segments[m.offset:end] {
		row := fmt.Sprintf("%7d  %14d  %14d", seg.Number, seg.Offset, seg.ContentLength)
		b.WriteString(SegmentRowStyle.Render(row))
		b.WriteString("\n")
	}

	if len(data.Segments) > visible {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("segments %d-%d of %d",
			m.offset+1, end, len(data.Segments))))
		b.WriteString("\n")
	}

	return b.String()
}

func (m InspectModel) renderStatBox(label, value string, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(value)
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

func (m InspectModel) segmentCount() int {
	if data, ok := m.data.(*codec.MessageSummary); ok {
		return len(data.Segments)
	}
	return 0
}

// visibleRows returns how many segment rows fit below the stat boxes.
func (m InspectModel) visibleRows() int {
	// Title, stat boxes, table header, and help text take about 12 rows.
	rows := m.height - 12
	if rows < 5 {
		rows = 5
	}
	return rows
}

func (m InspectModel) clampOffset(offset int) int {
	max := m.segmentCount() - m.visibleRows()
	if offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

func checksumColor(checksum string) lipgloss.Color {
	switch checksum {
	case "crc64":
		return successColor
	case "none":
		return warningColor
	default:
		return mutedColor
	}
}

// keyMap defines key bindings.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "scroll down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "page down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
