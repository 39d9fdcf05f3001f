package pick

import (
	"fmt"
	"strings"
	"time"

	"github.com/Digital-Shane/csv-notes/internal/tui/components"
	"github.com/Digital-Shane/csv-notes/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const warningVisibleFor = 2 * time.Second

type clearWarningMsg struct{}

// ColumnsModel lets the user choose which columns become frontmatter keys.
// Every header starts selected; confirming requires at least one selection.
type ColumnsModel struct {
	source   string
	headers  []string
	selected []bool
	cursor   int

	confirmed bool
	canceled  bool
	warning   string

	width  int
	height int
	theme  theme.Theme
}

// NewColumnsModel creates the column selection model for the given source
// file and header row.
func NewColumnsModel(source string, headers []string, th theme.Theme) *ColumnsModel {
	selected := make([]bool, len(headers))
	for i := range selected {
		selected[i] = true
	}
	return &ColumnsModel{
		source:   source,
		headers:  headers,
		selected: selected,
		width:    80,
		height:   24,
		theme:    th,
	}
}

func (m *ColumnsModel) Init() tea.Cmd {
	return nil
}

func (m *ColumnsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case clearWarningMsg:
		m.warning = ""
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		case tea.KeyUp:
			m.moveCursor(-1)
			return m, nil
		case tea.KeyDown:
			m.moveCursor(1)
			return m, nil
		case tea.KeySpace:
			m.toggle()
			return m, nil
		case tea.KeyEnter:
			if m.selectedCount() == 0 {
				m.warning = "Select at least one column"
				return m, components.DebounceMsg(warningVisibleFor, clearWarningMsg{})
			}
			m.confirmed = true
			return m, tea.Quit
		}

		switch msg.String() {
		case "k":
			m.moveCursor(-1)
		case "j":
			m.moveCursor(1)
		case "a":
			for i := range m.selected {
				m.selected[i] = true
			}
			m.warning = ""
		case "n":
			for i := range m.selected {
				m.selected[i] = false
			}
		}
		return m, nil
	}

	return m, nil
}

func (m *ColumnsModel) moveCursor(delta int) {
	if len(m.headers) == 0 {
		return
	}
	m.cursor = (m.cursor + delta + len(m.headers)) % len(m.headers)
}

func (m *ColumnsModel) toggle() {
	if len(m.headers) == 0 {
		return
	}
	m.selected[m.cursor] = !m.selected[m.cursor]
	if m.selected[m.cursor] {
		m.warning = ""
	}
}

func (m *ColumnsModel) selectedCount() int {
	count := 0
	for _, s := range m.selected {
		if s {
			count++
		}
	}
	return count
}

// Selected returns the chosen headers in header order.
func (m *ColumnsModel) Selected() []string {
	out := make([]string, 0, len(m.headers))
	for i, header := range m.headers {
		if m.selected[i] {
			out = append(out, header)
		}
	}
	return out
}

// Confirmed reports whether the user accepted the selection.
func (m *ColumnsModel) Confirmed() bool {
	return m.confirmed
}

// Canceled reports whether the user backed out.
func (m *ColumnsModel) Canceled() bool {
	return m.canceled
}

// visibleRows returns how many list rows fit between the header and the
// status bar, and the first row index keeping the cursor in view.
func (m *ColumnsModel) visibleRows() (int, int) {
	rows := m.height - 7
	if rows < 3 {
		rows = 3
	}
	if rows > len(m.headers) {
		rows = len(m.headers)
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	return rows, start
}

func (m *ColumnsModel) View() string {
	colors := m.theme.Colors()

	header := m.theme.HeaderStyle().Width(m.width).
		Render(fmt.Sprintf("%s Select Columns - %s", m.theme.Icon("column"), m.source))

	cursorStyle := lipgloss.NewStyle().Foreground(colors.Accent).Bold(true)
	selectedStyle := lipgloss.NewStyle().Foreground(colors.Primary)
	unselectedStyle := lipgloss.NewStyle().Foreground(colors.Muted)

	rows, start := m.visibleRows()
	lines := make([]string, 0, rows)
	for i := start; i < start+rows && i < len(m.headers); i++ {
		marker := m.theme.Icon("unselected")
		style := unselectedStyle
		if m.selected[i] {
			marker = m.theme.Icon("selected")
			style = selectedStyle
		}
		indicator := "  "
		if i == m.cursor {
			indicator = "➜ "
			style = cursorStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s%s %s", indicator, marker, m.headers[i])))
	}

	panel := m.theme.PanelStyle()
	panelWidth := m.width - panel.GetHorizontalFrameSize()
	if panelWidth < 20 {
		panelWidth = 20
	}
	list := panel.Width(panelWidth).Render(strings.Join(lines, "\n"))

	count := lipgloss.NewStyle().Foreground(colors.Muted).
		Render(fmt.Sprintf("%d of %d columns selected", m.selectedCount(), len(m.headers)))

	sections := []string{header, list, count}

	if m.warning != "" {
		warning := lipgloss.NewStyle().Foreground(colors.Error).Bold(true).Render(m.warning)
		sections = append(sections, warning)
	}

	status := m.theme.StatusBarStyle().Width(m.width).
		Render("↑↓: Navigate │ Space: Toggle │ a: All │ n: None │ Enter: Continue │ Esc: Cancel")
	sections = append(sections, status)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
