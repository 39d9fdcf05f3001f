package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Digital-Shane/csv-notes/internal/core"
	"github.com/Digital-Shane/csv-notes/internal/tui/components"
	"github.com/Digital-Shane/csv-notes/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type writeEventMsg struct {
	event core.WriteEvent
	done  bool
}

type elapsedTickMsg time.Time

const writeErrorBaseLines = 8

// WriteProgressModel displays progress while the engine writes notes to disk.
type WriteProgressModel struct {
	engine   *core.WriteEngine
	events   <-chan core.WriteEvent
	summary  core.WriteSummary
	errors   []error
	fatalErr error

	width  int
	height int

	progress progress.Model
	theme    theme.Theme

	startedAt time.Time
	elapsed   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	done     bool
	canceled bool
}

// NewWriteProgressModel creates a progress model driving the given engine.
func NewWriteProgressModel(engine *core.WriteEngine, th theme.Theme) *WriteProgressModel {
	gradient := th.ProgressGradient()
	if len(gradient) < 2 {
		colors := th.Colors()
		gradient = []string{string(colors.Primary), string(colors.Accent)}
	}
	prog := progress.New(progress.WithGradient(gradient[0], gradient[1]))
	prog.Width = 50

	m := &WriteProgressModel{
		engine:   engine,
		width:    80,
		height:   12,
		progress: prog,
		theme:    th,
	}
	if engine != nil {
		m.summary = engine.SummarySnapshot()
	}
	return m
}

// Init starts the write engine and the elapsed time ticker.
func (m *WriteProgressModel) Init() tea.Cmd {
	if m.engine == nil {
		m.done = true
		return tea.Quit
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.events = m.engine.Start(m.ctx)
	m.startedAt = time.Now()
	return tea.Batch(m.waitForEvent(), m.tickElapsed())
}

func (m *WriteProgressModel) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-m.events
		if !ok {
			return writeEventMsg{done: true}
		}
		return writeEventMsg{event: evt}
	}
}

func (m *WriteProgressModel) tickElapsed() tea.Cmd {
	return components.Tick(time.Second, func(t time.Time) tea.Msg {
		return elapsedTickMsg(t)
	})
}

// Update processes Bubble Tea messages.
func (m *WriteProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = msg.Width - 4
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case writeEventMsg:
		return m.handleWriteEvent(msg)
	case elapsedTickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Since(m.startedAt)
		return m, m.tickElapsed()
	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *WriteProgressModel) handleWriteEvent(msg writeEventMsg) (tea.Model, tea.Cmd) {
	if msg.done {
		// Channel closed: the engine flushed its log and stopped, either
		// normally or after cancellation.
		m.summary = m.engine.SummarySnapshot()
		m.errors = m.engine.Errors()
		if m.summary.Canceled {
			m.canceled = true
		}
		m.done = true
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		return m, tea.Quit
	}

	m.summary = msg.event.Summary
	if msg.event.Err != nil && !errors.Is(msg.event.Err, context.Canceled) {
		m.fatalErr = msg.event.Err
	}
	m.errors = m.engine.Errors()

	ratio := 0.0
	if m.summary.TotalNotes > 0 {
		ratio = float64(m.summary.ProcessedNotes) / float64(m.summary.TotalNotes)
	}
	cmd := m.progress.SetPercent(ratio)
	return m, tea.Batch(cmd, m.waitForEvent())
}

// View renders the progress UI.
func (m *WriteProgressModel) View() string {
	if m.fatalErr != nil && !errors.Is(m.fatalErr, context.Canceled) {
		return fmt.Sprintf("Error: %v\n", m.fatalErr)
	}

	if m.summary.TotalNotes == 0 {
		return "No notes to write.\n"
	}

	percent := 0
	if m.summary.TotalNotes > 0 {
		percent = 100 * m.summary.ProcessedNotes / m.summary.TotalNotes
	}

	headerText := fmt.Sprintf("%s Writing Notes", m.theme.Icon("note"))

	colors := m.theme.Colors()
	workers := lipgloss.NewStyle().
		Foreground(colors.Accent).
		Bold(true).
		Render(fmt.Sprintf("Active Workers: %d/%d", m.summary.ActiveWorkers, m.summary.WorkerLimit))

	infoLines := []string{fmt.Sprintf("Notes written: %d/%d", m.summary.ProcessedNotes, m.summary.TotalNotes)}

	statsLines := []string{
		fmt.Sprintf("Total Notes: %d", m.summary.TotalNotes),
		fmt.Sprintf("Created: %d", m.summary.CreatedNotes),
		fmt.Sprintf("Failed: %d", m.summary.ErrorCount),
		fmt.Sprintf("Progress: %d%%", percent),
		fmt.Sprintf("Elapsed: %s", m.elapsed.Round(time.Second)),
	}

	errs := make([]string, 0, len(m.errors))
	for _, err := range m.errors {
		errs = append(errs, err.Error())
	}

	statusText := "Writing notes in parallel... please wait"
	if m.canceled {
		statusText = "Canceling..."
	} else if m.summary.LastNote != "" {
		statusText = m.summary.LastNote
	}

	sections := []string{
		m.theme.HeaderStyle().Width(m.width).Render(headerText),
		workers,
		m.progress.View(),
	}

	if len(infoLines) > 0 {
		sections = append(sections, strings.Join(infoLines, "\n"))
	}

	if stats := m.renderWriteStatsPanel(statsLines, errs); stats != "" {
		sections = append(sections, stats)
	}

	status := m.theme.StatusBarStyle().Width(m.width).Render(statusText)
	sections = append(sections, status)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *WriteProgressModel) renderWriteStatsPanel(statsLines, errs []string) string {
	panel := m.theme.PanelStyle()
	panelWidth := m.width - panel.GetHorizontalFrameSize()
	if panelWidth < 0 {
		panelWidth = 0
	}

	blocks := make([]string, 0, 2)
	if len(statsLines) > 0 {
		blocks = append(blocks, strings.Join(statsLines, "\n"))
	}
	if errBlock := m.renderWriteErrorBlock(errs); errBlock != "" {
		blocks = append(blocks, errBlock)
	}

	if len(blocks) == 0 {
		return panel.Width(panelWidth).Render("")
	}

	return panel.Width(panelWidth).Render(strings.Join(blocks, "\n"))
}

func (m *WriteProgressModel) renderWriteErrorBlock(errs []string) string {
	if len(errs) == 0 {
		return ""
	}

	colors := m.theme.Colors()
	errorStyle := lipgloss.NewStyle().Foreground(colors.Error)

	availableHeight := m.height - writeErrorBaseLines
	maxErrorLines := availableHeight - 1
	if maxErrorLines < 1 {
		maxErrorLines = 1
	}

	errorsToShow := len(errs)
	if errorsToShow > maxErrorLines {
		errorsToShow = maxErrorLines
	}

	startIdx := len(errs) - errorsToShow
	if startIdx < 0 {
		startIdx = 0
	}

	availableWidth := m.width - 2
	if availableWidth < 10 {
		availableWidth = 10
	}

	lines := make([]string, 0, errorsToShow+2)
	lines = append(lines, fmt.Sprintf("Errors: %d", len(errs)))
	for i := startIdx; i < len(errs); i++ {
		msg := errs[i]
		if len(msg) > availableWidth {
			msg = msg[:availableWidth-3] + "..."
		}
		lines = append(lines, fmt.Sprintf("• %s", msg))
	}

	if len(errs) > errorsToShow {
		lines = append(lines, fmt.Sprintf("... and %d more", len(errs)-errorsToShow))
	}

	return errorStyle.Render(strings.Join(lines, "\n"))
}

// Summary returns the final write summary.
func (m *WriteProgressModel) Summary() core.WriteSummary {
	return m.summary
}

// Errors returns the write errors accumulated by the engine.
func (m *WriteProgressModel) Errors() []error {
	return m.errors
}

// Canceled reports whether the run was interrupted before finishing.
func (m *WriteProgressModel) Canceled() bool {
	return m.canceled
}

// Err returns any fatal error encountered while writing.
func (m *WriteProgressModel) Err() error {
	if m.fatalErr != nil && !errors.Is(m.fatalErr, context.Canceled) {
		return m.fatalErr
	}
	return nil
}
