package pick

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Digital-Shane/csv-notes/internal/tui/components"
	"github.com/Digital-Shane/csv-notes/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// OrderModel lets the user pick which columns name each note, in order.
// Pressing space on a column appends it to the sequence; pressing space
// on a picked column removes it and renumbers the rest.
type OrderModel struct {
	source  string
	columns []string
	picks   []int
	cursor  int

	confirmed bool
	canceled  bool
	warning   string

	width  int
	height int
	theme  theme.Theme
}

// NewOrderModel creates the naming order model over the selected columns.
func NewOrderModel(source string, columns []string, th theme.Theme) *OrderModel {
	return &OrderModel{
		source:  source,
		columns: columns,
		picks:   []int{},
		width:   80,
		height:  24,
		theme:   th,
	}
}

func (m *OrderModel) Init() tea.Cmd {
	return nil
}

func (m *OrderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if len(m.picks) == 0 {
				m.warning = "Pick at least one naming column"
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
		case "c":
			m.picks = m.picks[:0]
		}
		return m, nil
	}

	return m, nil
}

func (m *OrderModel) moveCursor(delta int) {
	if len(m.columns) == 0 {
		return
	}
	m.cursor = (m.cursor + delta + len(m.columns)) % len(m.columns)
}

func (m *OrderModel) toggle() {
	if len(m.columns) == 0 {
		return
	}
	if i := slices.Index(m.picks, m.cursor); i >= 0 {
		m.picks = slices.Delete(m.picks, i, i+1)
		return
	}
	m.picks = append(m.picks, m.cursor)
	m.warning = ""
}

// orderOf returns the 1-based position of the column in the naming
// sequence, or 0 when the column is not picked.
func (m *OrderModel) orderOf(column int) int {
	if i := slices.Index(m.picks, column); i >= 0 {
		return i + 1
	}
	return 0
}

// Fields returns the picked column headers in naming order.
func (m *OrderModel) Fields() []string {
	fields := make([]string, 0, len(m.picks))
	for _, i := range m.picks {
		fields = append(fields, m.columns[i])
	}
	return fields
}

// Confirmed reports whether the user accepted the naming order.
func (m *OrderModel) Confirmed() bool {
	return m.confirmed
}

// Canceled reports whether the user backed out.
func (m *OrderModel) Canceled() bool {
	return m.canceled
}

func (m *OrderModel) visibleRows() (int, int) {
	rows := m.height - 8
	if rows < 3 {
		rows = 3
	}
	if rows > len(m.columns) {
		rows = len(m.columns)
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	return rows, start
}

func (m *OrderModel) View() string {
	colors := m.theme.Colors()

	header := m.theme.HeaderStyle().Width(m.width).
		Render(fmt.Sprintf("%s Naming Order - %s", m.theme.Icon("note"), m.source))

	cursorStyle := lipgloss.NewStyle().Foreground(colors.Accent).Bold(true)
	pickedStyle := lipgloss.NewStyle().Foreground(colors.Primary)
	unpickedStyle := lipgloss.NewStyle().Foreground(colors.Muted)
	badgeStyle := lipgloss.NewStyle().Foreground(colors.Success).Bold(true)

	rows, start := m.visibleRows()
	lines := make([]string, 0, rows)
	for i := start; i < start+rows && i < len(m.columns); i++ {
		badge := "   "
		style := unpickedStyle
		if pos := m.orderOf(i); pos > 0 {
			badge = badgeStyle.Render(fmt.Sprintf("%2d ", pos))
			style = pickedStyle
		}
		indicator := "  "
		if i == m.cursor {
			indicator = "➜ "
			style = cursorStyle
		}
		lines = append(lines, fmt.Sprintf("%s%s%s", indicator, badge, style.Render(m.columns[i])))
	}

	panel := m.theme.PanelStyle()
	panelWidth := m.width - panel.GetHorizontalFrameSize()
	if panelWidth < 20 {
		panelWidth = 20
	}
	list := panel.Width(panelWidth).Render(strings.Join(lines, "\n"))

	preview := lipgloss.NewStyle().Foreground(colors.Muted).Render("Name preview: (pick columns)")
	if fields := m.Fields(); len(fields) > 0 {
		sample := strings.Join(fields, " - ") + ".md"
		sample = runewidth.Truncate(sample, m.width-16, "…")
		preview = lipgloss.NewStyle().Foreground(colors.Secondary).
			Render("Name preview: " + sample)
	}

	sections := []string{header, list, preview}

	if m.warning != "" {
		warning := lipgloss.NewStyle().Foreground(colors.Error).Bold(true).Render(m.warning)
		sections = append(sections, warning)
	}

	status := m.theme.StatusBarStyle().Width(m.width).
		Render("↑↓: Navigate │ Space: Pick/Unpick │ c: Clear │ Enter: Continue │ Esc: Cancel")
	sections = append(sections, status)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
