package config

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/Digital-Shane/csv-notes/internal/config"
	"github.com/Digital-Shane/csv-notes/internal/name"
	"github.com/Digital-Shane/csv-notes/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// previewSample is run through the sanitizer on every render so edits to
// the ignored set show their effect immediately.
const previewSample = "Q3 Report: [Draft] v2?"

// Field identifies the focusable rows in the settings form.
type Field int

const (
	FieldIgnored Field = iota
	FieldLogging
	FieldRetention
	FieldWorkers
	fieldCount
)

// Model edits the persisted csv-notes settings.
type Model struct {
	config   *config.Config
	original *config.Config

	theme theme.Theme
	icons theme.IconSet

	focus          Field
	ignoredInput   textinput.Model
	loggingEnabled bool
	retentionInput textinput.Model
	workerInput    textinput.Model

	width, height int

	saveStatus string
	err        error
}

// New creates a settings model backed by the on-disk configuration.
func New() (*Model, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(cfg), nil
}

// NewWithConfig creates a settings model around an already loaded config.
func NewWithConfig(cfg *config.Config) *Model {
	m := &Model{
		config:   cfg,
		original: cloneConfig(cfg),
		theme:    theme.Default(),
	}
	m.icons = m.theme.IconSet()

	m.ignoredInput = textinput.New()
	configureInput(&m.ignoredInput, m.theme)
	m.ignoredInput.SetValue(strings.Join(cfg.IgnoredCharacters, " "))
	m.ignoredInput.CursorEnd()
	m.ignoredInput.Width = 32

	m.retentionInput = textinput.New()
	configureInput(&m.retentionInput, m.theme)
	m.retentionInput.SetValue(fmt.Sprintf("%d", cfg.LogRetentionDays))
	m.retentionInput.CursorEnd()
	m.retentionInput.CharLimit = 3

	m.workerInput = textinput.New()
	configureInput(&m.workerInput, m.theme)
	m.workerInput.SetValue(fmt.Sprintf("%d", cfg.WorkerCount))
	m.workerInput.CursorEnd()
	m.workerInput.CharLimit = 3

	m.loggingEnabled = cfg.EnableLogging
	m.focus = FieldIgnored
	m.ignoredInput.Focus()

	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlS:
			m.save()
			return m, nil
		case tea.KeyCtrlR:
			m.reset()
			return m, nil
		case tea.KeyUp:
			m.moveFocus(-1)
			return m, nil
		case tea.KeyDown:
			m.moveFocus(1)
			return m, nil
		case tea.KeyEnter, tea.KeySpace:
			if m.focus == FieldLogging {
				m.loggingEnabled = !m.loggingEnabled
				return m, nil
			}
			// Space is a token separator for the ignored set; any other
			// field drops it on the floor.
			if msg.Type == tea.KeySpace {
				if m.focus == FieldIgnored {
					msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}}
					break
				}
				return m, nil
			}
			return m, nil
		}

		return m, m.dispatchToFocused(msg)
	}

	return m, nil
}

// dispatchToFocused forwards an edit key to the focused text input,
// filtering numeric fields down to digits.
func (m *Model) dispatchToFocused(key tea.KeyMsg) tea.Cmd {
	switch m.focus {
	case FieldIgnored:
		var cmd tea.Cmd
		m.ignoredInput, cmd = m.ignoredInput.Update(key)
		return cmd

	case FieldRetention:
		if !m.loggingEnabled {
			return nil
		}
		key, ok := digitsOnly(key)
		if !ok {
			return nil
		}
		var cmd tea.Cmd
		m.retentionInput, cmd = m.retentionInput.Update(key)
		return cmd

	case FieldWorkers:
		key, ok := digitsOnly(key)
		if !ok {
			return nil
		}
		var cmd tea.Cmd
		m.workerInput, cmd = m.workerInput.Update(key)
		return cmd
	}

	return nil
}

// digitsOnly strips non-digit runes from a key press. Editing keys such
// as backspace pass through untouched.
func digitsOnly(key tea.KeyMsg) (tea.KeyMsg, bool) {
	if key.Type != tea.KeyRunes {
		return key, true
	}
	filtered := make([]rune, 0, len(key.Runes))
	for _, r := range key.Runes {
		if unicode.IsDigit(r) {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return key, false
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: filtered}, true
}

func (m *Model) moveFocus(delta int) {
	m.focus = Field((int(m.focus) + delta + int(fieldCount)) % int(fieldCount))

	m.ignoredInput.Blur()
	m.retentionInput.Blur()
	m.workerInput.Blur()

	switch m.focus {
	case FieldIgnored:
		m.ignoredInput.Focus()
	case FieldRetention:
		m.retentionInput.Focus()
	case FieldWorkers:
		m.workerInput.Focus()
	}
}

func (m *Model) save() {
	m.config.IgnoredCharacters = parseIgnored(m.ignoredInput.Value())
	m.config.EnableLogging = m.loggingEnabled

	retention := stripNullChars(m.retentionInput.Value())
	if retention == "" {
		m.config.LogRetentionDays = config.DefaultConfig().LogRetentionDays
	} else if days, err := strconv.Atoi(retention); err == nil && days > 0 {
		m.config.LogRetentionDays = days
	}

	workers := stripNullChars(m.workerInput.Value())
	if count, err := strconv.Atoi(workers); err == nil && count > 0 {
		m.config.WorkerCount = count
	} else {
		m.config.WorkerCount = config.DefaultConfig().WorkerCount
	}

	if err := m.config.Save(); err != nil {
		m.err = err
		m.saveStatus = "Failed to save: " + err.Error()
		return
	}

	m.err = nil
	m.saveStatus = "Configuration saved!"
	m.original = cloneConfig(m.config)
}

func (m *Model) reset() {
	m.ignoredInput.SetValue(strings.Join(m.original.IgnoredCharacters, " "))
	m.ignoredInput.CursorEnd()
	m.loggingEnabled = m.original.EnableLogging
	m.retentionInput.SetValue(fmt.Sprintf("%d", m.original.LogRetentionDays))
	m.retentionInput.CursorEnd()
	m.workerInput.SetValue(fmt.Sprintf("%d", m.original.WorkerCount))
	m.workerInput.CursorEnd()

	m.saveStatus = "Reset to saved values"
	m.err = nil
}

// View renders the settings form.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.width < 40 || m.height < 12 {
		return "Terminal too small. Please resize to at least 40x12."
	}

	header := m.theme.HeaderStyle().
		Width(m.width).
		Render(fmt.Sprintf("%s csv-notes Configuration", m.theme.Icon("config")))

	form := m.renderForm()
	separator := lipgloss.NewStyle().
		Foreground(m.theme.Colors().Muted).
		Render(strings.Repeat("─", maxInt(m.width-6, 0)))
	preview := m.renderPreview()

	panel := m.theme.PanelStyle().
		Width(m.width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, form, separator, preview))

	status := m.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, header, panel, status)
}

func (m *Model) renderForm() string {
	colors := m.theme.Colors()

	focusedStyle := lipgloss.NewStyle().
		Background(colors.Accent).
		Foreground(colors.Background)
	valueStyle := lipgloss.NewStyle().Foreground(colors.Primary)
	mutedStyle := lipgloss.NewStyle().Foreground(colors.Muted)

	ignoredValue := m.ignoredInput.Value()
	var ignoredView string
	switch {
	case m.focus == FieldIgnored:
		ignoredView = focusedStyle.Render(m.ignoredInput.View())
	case strings.TrimSpace(ignoredValue) == "":
		ignoredView = mutedStyle.Render("(none)")
	default:
		ignoredView = valueStyle.Render(ignoredValue)
	}

	toggleLabel := "Disabled"
	toggleIcon := "[ ]"
	if m.loggingEnabled {
		toggleLabel = "Enabled"
		toggleIcon = "[" + m.icons["check"] + "]"
	}
	toggleStyle := lipgloss.NewStyle().Foreground(colors.Error)
	if m.loggingEnabled {
		toggleStyle = lipgloss.NewStyle().Foreground(colors.Success)
	}
	toggleText := toggleIcon + " " + toggleLabel
	if m.focus == FieldLogging {
		toggleText = focusedStyle.Render(toggleText)
	} else {
		toggleText = toggleStyle.Render(toggleText)
	}

	var retentionView string
	switch {
	case m.focus == FieldRetention && m.loggingEnabled:
		retentionView = focusedStyle.Render(m.retentionInput.View())
	case m.loggingEnabled:
		retentionView = valueStyle.Render(m.retentionInput.Value())
	default:
		retentionView = mutedStyle.Render(m.retentionInput.Value() + " (disabled)")
	}

	var workerView string
	if m.focus == FieldWorkers {
		workerView = focusedStyle.Render(m.workerInput.View())
	} else {
		workerView = valueStyle.Render(m.workerInput.Value())
	}

	title := m.theme.PanelTitleStyle()

	rows := []string{
		title.Render("Naming"),
		"Ignored Characters: " + ignoredView,
		mutedStyle.Render("Stripped from values before unsafe characters become '_'. Separate with spaces."),
		"",
		title.Render("Logging"),
		"Session Logs: " + toggleText,
		"Retention Days: " + retentionView,
		"",
		title.Render("Generation"),
		"Write Workers: " + workerView,
		mutedStyle.Render("Notes written in parallel during generation."),
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderPreview() string {
	colors := m.theme.Colors()
	labelStyle := lipgloss.NewStyle().Foreground(colors.Muted)
	valueStyle := lipgloss.NewStyle().Foreground(colors.Success)

	sanitizer := name.NewSanitizer(func() []string {
		return parseIgnored(m.ignoredInput.Value())
	})
	cleaned := sanitizer.Clean(previewSample)
	if cleaned == "" {
		cleaned = "unnamed"
	}

	line := fmt.Sprintf("%s %s %s",
		m.theme.Icon("note"),
		labelStyle.Render(previewSample+" →"),
		valueStyle.Render(cleaned+name.NoteExtension))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.theme.PanelTitleStyle().Render("Live Preview:"),
		line,
	)
}

func (m *Model) renderStatusBar() string {
	colors := m.theme.Colors()
	key := lipgloss.NewStyle().Foreground(colors.Accent).Bold(true)
	help := lipgloss.NewStyle().Foreground(colors.Muted)
	success := m.theme.StatusBarStyle().Foreground(colors.Background)
	failure := lipgloss.NewStyle().Foreground(colors.Error).Bold(true)

	parts := []string{
		key.Render("↑↓") + ": Fields",
		key.Render("Space") + ": Toggle",
		key.Render("Ctrl+S") + ": Save",
		key.Render("Ctrl+R") + ": Reset",
		key.Render("Esc/Ctrl+C") + ": Quit",
	}

	line := help.Render(strings.Join(parts, " │ "))
	if m.saveStatus != "" {
		if m.err != nil {
			line += " │ " + failure.Render(m.saveStatus)
		} else {
			line += " │ " + success.Render(m.saveStatus)
		}
	}
	return line
}

// parseIgnored splits the space separated token list. An empty field
// means no characters are stripped.
func parseIgnored(value string) []string {
	return strings.Fields(stripNullChars(value))
}

func cloneConfig(cfg *config.Config) *config.Config {
	return &config.Config{
		IgnoredCharacters: append([]string(nil), cfg.IgnoredCharacters...),
		EnableLogging:     cfg.EnableLogging,
		LogRetentionDays:  cfg.LogRetentionDays,
		WorkerCount:       cfg.WorkerCount,
	}
}

func configureInput(ti *textinput.Model, th theme.Theme) {
	ti.Prompt = ""
	ti.Placeholder = ""
	ti.CursorStyle = lipgloss.NewStyle().Background(th.Colors().Accent).Foreground(th.Colors().Background)
	ti.TextStyle = lipgloss.NewStyle().Foreground(th.Colors().Primary)
	ti.Focus()
	ti.Blur()
}

func stripNullChars(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
