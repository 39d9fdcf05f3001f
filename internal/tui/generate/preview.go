package generate

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Digital-Shane/csv-notes/internal/core"
	"github.com/Digital-Shane/csv-notes/internal/tui/components"
	"github.com/Digital-Shane/csv-notes/internal/tui/theme"

	"github.com/Digital-Shane/treeview"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// PreviewModel wraps the underlying treeview TUI model to show the planned
// notes before anything touches disk, with real‑time statistics.
type PreviewModel struct {
	*treeview.TuiTreeModel[treeview.FileInfo]

	plan      *core.Plan
	source    string
	outputDir string

	confirmed bool
	canceled  bool

	width  int
	height int

	// Layout metrics
	treeWidth   int
	treeHeight  int
	statsWidth  int
	statsHeight int

	// Stat tracking
	statsCache Statistics
	statsDirty bool

	// Stats panel scrolling
	statsViewport *viewport.Model
	statsFocused  bool

	theme theme.Theme
}

// Option configures a PreviewModel during construction.
type Option func(*PreviewModel)

// WithTheme overrides the theme used by the preview TUI.
func WithTheme(th theme.Theme) Option {
	return func(m *PreviewModel) {
		m.theme = th
	}
}

// NewPreviewModel returns an initialized PreviewModel for the provided tree
// with default dimensions (later adjusted on the first WindowSize message).
func NewPreviewModel(tree *treeview.Tree[treeview.FileInfo], plan *core.Plan, source, outputDir string, opts ...Option) *PreviewModel {
	m := &PreviewModel{
		plan:       plan,
		source:     source,
		outputDir:  outputDir,
		width:      80,
		height:     24,
		statsDirty: true,
	}

	initOpts := append([]Option{WithTheme(theme.Default())}, opts...)
	for _, opt := range initOpts {
		opt(m)
	}

	runewidth.DefaultCondition.EastAsianWidth = false
	runewidth.DefaultCondition.StrictEmojiNeutral = true

	// establish initial layout metrics before building underlying model
	m.CalculateLayout()

	m.statsViewport = components.NewViewport(m.statsWidth, m.statsHeight, m.theme)

	m.TuiTreeModel = m.createSizedTuiModel(tree)
	return m
}

func (m *PreviewModel) getIcon(iconType string) string {
	return m.theme.Icon(iconType)
}

func (m *PreviewModel) arrowIcons() (string, string) {
	icons := []rune(m.getIcon("arrows"))
	switch {
	case len(icons) >= 4:
		return string(icons[0:2]), string(icons[2:4])
	case len(icons) >= 2:
		return string(icons[0]), string(icons[1:])
	default:
		return "↑↓", "←→"
	}
}

// CalculateLayout recomputes panel dimensions from current window size.
func (m *PreviewModel) CalculateLayout() {
	// Set tree width to 60%
	tw := m.width * 6 / 10
	// Reserve space for header (1) + newline after header (1) + newline before status (1) + status bar (1) = 4 lines
	th := m.height - 4
	if th < 5 {
		th = 5
	}
	m.treeWidth = tw
	m.treeHeight = th
	// Stats panel uses remaining width, aligned with the tree
	m.statsWidth = m.width - tw
	m.statsHeight = th
	if m.statsHeight < 1 {
		m.statsHeight = 1
	}

	// Update stats viewport dimensions if initialized
	if m.statsViewport != nil && (m.statsViewport.Width > 0 || m.statsViewport.Height > 0) {
		// Border (2) + padding (2) = 4 total frame size on each axis
		frameWidth := 4
		frameHeight := 4

		viewportWidth := m.statsWidth - frameWidth
		viewportHeight := m.statsHeight - frameHeight

		if viewportWidth < 1 {
			viewportWidth = 1
		}
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		m.statsViewport.Width = viewportWidth
		m.statsViewport.Height = viewportHeight
	}
}

// createSizedTuiModel builds a tree model sized to current dimensions and
// disables treeview features (search/reset) not needed for this application.
func (m *PreviewModel) createSizedTuiModel(tree *treeview.Tree[treeview.FileInfo]) *treeview.TuiTreeModel[treeview.FileInfo] {
	keyMap := treeview.DefaultKeyMap()
	keyMap.SearchStart = []string{} // Disable search
	keyMap.Reset = []string{}       // Disable ctrl+r reset

	return treeview.NewTuiTreeModel(tree,
		treeview.WithTuiWidth[treeview.FileInfo](m.treeWidth),
		treeview.WithTuiHeight[treeview.FileInfo](m.treeHeight),
		treeview.WithTuiAllowResize[treeview.FileInfo](true),
		treeview.WithTuiDisableNavBar[treeview.FileInfo](true),
		treeview.WithTuiKeyMap[treeview.FileInfo](keyMap),
	)
}

// Init initializes the embedded tree model and requests an initial window size.
func (m *PreviewModel) Init() tea.Cmd {
	return tea.Batch(
		m.TuiTreeModel.Init(),
		tea.WindowSize(),
	)
}

// Update handles Bubble Tea messages (resize, key events, row removal).
func (m *PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Recalculate layout metrics once, then forward scaled size to tree model
		m.CalculateLayout()
		internalMsg := tea.WindowSizeMsg{Width: m.treeWidth, Height: m.treeHeight}
		updated, cmd := m.TuiTreeModel.Update(internalMsg)
		if tm, ok := updated.(*treeview.TuiTreeModel[treeview.FileInfo]); ok {
			m.TuiTreeModel = tm
		}
		return m, cmd

	case tea.KeyMsg:
		// Handle custom keys before passing to tree model
		switch msg.String() {
		case "esc", "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		case "y", "Y":
			m.confirmed = true
			return m, tea.Quit
		case "tab":
			m.statsFocused = !m.statsFocused
			return m, nil
		case "delete", "d":
			// Only planned rows can be dropped, never the output folder
			if focusedNode := m.TuiTreeModel.Tree.GetFocusedNode(); focusedNode != nil && core.GetMeta(focusedNode) != nil {
				retargetFocusAfterRemoval(m.TuiTreeModel.Tree)
				m.removeNodeFromTree(focusedNode)
				m.statsDirty = true
			}
			return m, nil
		case "up":
			if m.statsFocused {
				m.statsViewport.ScrollUp(1)
				return m, nil
			}
		case "down":
			if m.statsFocused {
				m.statsViewport.ScrollDown(1)
				return m, nil
			}
		case "pgup":
			if m.statsFocused {
				m.statsViewport.HalfPageUp()
				return m, nil
			}
			pageSize := max(m.treeHeight, 10)
			m.TuiTreeModel.Tree.Move(context.Background(), -pageSize)
			return m, nil
		case "pgdown":
			if m.statsFocused {
				m.statsViewport.HalfPageDown()
				return m, nil
			}
			pageSize := max(m.treeHeight, 10)
			m.TuiTreeModel.Tree.Move(context.Background(), pageSize)
			return m, nil
		}

	case tea.MouseMsg:
		switch {
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButton(4): // Mouse wheel up
			if m.statsFocused {
				m.statsViewport.ScrollUp(1)
			} else {
				m.TuiTreeModel.Tree.Move(context.Background(), -1)
			}
			return m, nil
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButton(5): // Mouse wheel down
			if m.statsFocused {
				m.statsViewport.ScrollDown(1)
			} else {
				m.TuiTreeModel.Tree.Move(context.Background(), 1)
			}
			return m, nil
		}
	}

	// Pass through to embedded tree model for other messages
	updatedModel, cmd := m.TuiTreeModel.Update(msg)
	if tm, ok := updatedModel.(*treeview.TuiTreeModel[treeview.FileInfo]); ok {
		m.TuiTreeModel = tm
	}

	return m, cmd
}

// Confirmed reports whether the user accepted the plan.
func (m *PreviewModel) Confirmed() bool {
	return m.confirmed
}

// Canceled reports whether the user backed out without writing.
func (m *PreviewModel) Canceled() bool {
	return m.canceled
}

// View returns the full TUI string (header, tree+stats layout, status bar).
func (m *PreviewModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	b.WriteString(m.renderTwoPanelLayout())
	b.WriteByte('\n')

	b.WriteString(m.renderStatusBar())
	return b.String()
}

// renderHeader creates the single‑line header bar with source and destination.
func (m *PreviewModel) renderHeader() string {
	style := m.theme.HeaderStyle().Width(m.width)
	title := fmt.Sprintf("%s Note Preview - %s → %s", m.getIcon("csv"), m.source, m.outputDir)
	return style.Render(title)
}

// renderStatusBar renders a single line of key hints and actions.
func (m *PreviewModel) renderStatusBar() string {
	focusInfo := "Tab: Stats Focus  │  "
	if m.statsFocused {
		focusInfo = "Tab: Tree Focus  │  "
	}

	upDown, leftRight := m.arrowIcons()
	statusText := fmt.Sprintf("%s%s: Navigate  PgUp/PgDn: Page  %s: Expand/Collapse  │  y: Create Notes  │  d: Remove Row  │  Esc/Ctrl+C: Cancel",
		focusInfo,
		upDown,
		leftRight)
	return m.theme.StatusBarStyle().Width(m.width - 1).Render(statusText)
}

// renderTwoPanelLayout joins the tree view and statistics panel horizontally.
func (m *PreviewModel) renderTwoPanelLayout() string {
	statsPanel := m.renderStatsPanel()
	treeView := m.TuiTreeModel.View()

	// Force tree view to use exact allocated width to prevent stats panel from jumping
	treeContainer := lipgloss.NewStyle().
		Width(m.treeWidth).
		MaxWidth(m.treeWidth).
		Render(treeView)

	return lipgloss.JoinHorizontal(lipgloss.Top, treeContainer, statsPanel)
}

// renderStatsPanel builds and formats the statistics panel content using a scrollable viewport.
func (m *PreviewModel) renderStatsPanel() string {
	if m.statsDirty || m.statsViewport.View() == "" {
		m.updateStatsContent()
	}

	borderStyle := m.theme.PanelStyle()
	titleStyle := m.theme.PanelTitleStyle().MarginBottom(1)

	scrollIndicator := ""
	if m.statsViewport.TotalLineCount() > m.statsViewport.Height {
		if m.statsFocused {
			scrollIndicator = " [Use Tab+↑↓]"
		} else {
			scrollIndicator = " [Tab to scroll]"
		}
	}

	title := titleStyle.Render(fmt.Sprintf("%s Statistics%s", m.getIcon("stats"), scrollIndicator))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.statsViewport.View(),
	)

	return borderStyle.
		Width(m.statsWidth - borderStyle.GetHorizontalFrameSize()).
		Height(m.statsHeight - borderStyle.GetVerticalFrameSize()).
		Render(content)
}

// updateStatsContent generates the stats content and sets it in the viewport
func (m *PreviewModel) updateStatsContent() {
	stats := m.calculateStats()
	var b strings.Builder
	b.Grow(512)

	b.WriteString("Planned Notes:\n")
	fmt.Fprintf(&b, "  %s %-12s %d\n", m.getIcon("note"), "Notes:", stats.rowCount)
	fmt.Fprintf(&b, "  %s %-12s %d\n", m.getIcon("fallback"), "Unnamed:", stats.fallbackCount)

	b.WriteString("\nFrontmatter:\n")
	fmt.Fprintf(&b, "  %s %-12s %d\n", m.getIcon("column"), "Columns:", len(m.plan.Columns))
	fmt.Fprintf(&b, "  %s %-12s %d\n", m.getIcon("check"), "Name keys:", m.plan.Stats.NamingFields)

	fmt.Fprintf(&b, "\nTotal rows: %d\n", stats.rowCount)
	if stats.rowCount > 0 {
		percentFallback := (stats.fallbackCount * 100) / stats.rowCount
		fmt.Fprintf(&b, "Unnamed rows: %d%%", percentFallback)
	}

	m.statsViewport.SetContent(b.String())
}

// Statistics aggregates counts derived from the current preview tree.
//
// Fields:
//   - rowCount: planned notes still present in the tree.
//   - fallbackCount: rows whose name fell back to the row position.
type Statistics struct {
	rowCount      int
	fallbackCount int
}

// calculateStats walks the tree to produce aggregate counts, caching the
// result until a row is removed.
func (m *PreviewModel) calculateStats() Statistics {
	// Fast path: return cached stats if still valid
	if !m.statsDirty {
		return m.statsCache
	}

	stats := Statistics{}
	for nodeInfo := range m.Tree.All(context.Background()) {
		rm := core.GetMeta(nodeInfo.Node)
		if rm == nil {
			continue
		}
		stats.rowCount++
		if rm.Fallback {
			stats.fallbackCount++
		}
	}
	m.statsCache = stats
	m.statsDirty = false
	return stats
}

func retargetFocusAfterRemoval(tree *treeview.Tree[treeview.FileInfo]) {
	if tree == nil {
		return
	}
	ctx := context.Background()
	if moved, err := tree.Move(ctx, -1); err == nil && moved {
		return
	}
	_, _ = tree.Move(ctx, 1)
}

// removeNodeFromTree removes the given row node from its parent folder node.
func (m *PreviewModel) removeNodeFromTree(nodeToRemove *treeview.Node[treeview.FileInfo]) {
	if nodeToRemove == nil {
		return
	}

	parent := nodeToRemove.Parent()
	if parent == nil {
		return
	}

	currentChildren := parent.Children()
	childrenCopy := make([]*treeview.Node[treeview.FileInfo], len(currentChildren))
	copy(childrenCopy, currentChildren)
	filteredChildren := slices.DeleteFunc(childrenCopy, func(n *treeview.Node[treeview.FileInfo]) bool {
		return n == nodeToRemove
	})
	parent.SetChildren(filteredChildren)
}
