package components

import (
	"fmt"

	"github.com/Digital-Shane/csv-notes/internal/core"
	"github.com/Digital-Shane/csv-notes/internal/tui/theme"

	"github.com/Digital-Shane/treeview"
	"github.com/charmbracelet/lipgloss"
)

// ---- predicate helpers ----
// metaRule adapts a row metadata predicate to a node predicate. Nodes without
// metadata (the output directory root) never match.
func metaRule(cond func(*core.RowMeta) bool) func(*treeview.Node[treeview.FileInfo]) bool {
	return func(n *treeview.Node[treeview.FileInfo]) bool {
		if rm := core.GetMeta(n); rm != nil {
			return cond(rm)
		}
		return false
	}
}

// statusIs returns a predicate matching nodes whose note status equals s
func statusIs(s core.NoteStatus) func(*treeview.Node[treeview.FileInfo]) bool {
	return metaRule(func(rm *core.RowMeta) bool { return rm.Status == s })
}

// pendingFallback matches rows that will be written under a placeholder name
// because none of their naming fields produced a usable value
func pendingFallback() func(*treeview.Node[treeview.FileInfo]) bool {
	return metaRule(func(rm *core.RowMeta) bool {
		return rm.Fallback && rm.Status == core.NoteStatusPending
	})
}

// isDir matches directory nodes, which is only the output folder root
func isDir() func(*treeview.Node[treeview.FileInfo]) bool {
	return func(n *treeview.Node[treeview.FileInfo]) bool {
		return n.Data().IsDir()
	}
}

// anyRow matches every node carrying row metadata
func anyRow() func(*treeview.Node[treeview.FileInfo]) bool {
	return metaRule(func(*core.RowMeta) bool { return true })
}

// CreateNoteProvider constructs the [treeview.DefaultNodeProvider] used by
// the preview and progress screens. It wires together:
//   - icon rules (status precedes kind so success/error override the note icon)
//   - style rules (normal & focused variants) with precedence similar to icons
//   - the custom [NoteFormatter] for inline note←row labeling.
func CreateNoteProvider() *treeview.DefaultNodeProvider[treeview.FileInfo] {
	th := theme.Default()
	colors := th.Colors()
	iconSet := th.IconSet()

	// Icon rules (order matters: status first)
	successIconRule := treeview.WithIconRule(statusIs(core.NoteStatusCreated), iconSet["success"])
	errorIconRule := treeview.WithIconRule(statusIs(core.NoteStatusError), iconSet["error"])
	fallbackIconRule := treeview.WithIconRule(pendingFallback(), iconSet["fallback"])
	folderIconRule := treeview.WithIconRule(isDir(), iconSet["folder"])
	noteIconRule := treeview.WithIconRule(anyRow(), iconSet["note"])
	defaultIconRule := treeview.WithDefaultIcon[treeview.FileInfo](iconSet["default"])

	// Style rules (most specific first)
	successStyleRule := treeview.WithStyleRule(
		statusIs(core.NoteStatusCreated),
		lipgloss.NewStyle().Foreground(colors.Success),
		lipgloss.NewStyle().Foreground(colors.Success).Background(colors.Background),
	)
	errorStyleRule := treeview.WithStyleRule(
		statusIs(core.NoteStatusError),
		lipgloss.NewStyle().Foreground(colors.Error),
		lipgloss.NewStyle().Foreground(colors.Error).Background(colors.Background),
	)
	fallbackStyleRule := treeview.WithStyleRule(
		pendingFallback(),
		lipgloss.NewStyle().Foreground(colors.Muted),
		lipgloss.NewStyle().Foreground(colors.Background).Background(colors.Muted),
	)
	folderStyleRule := treeview.WithStyleRule(
		isDir(),
		lipgloss.NewStyle().Foreground(colors.Primary).Bold(true),
		lipgloss.NewStyle().Foreground(colors.Background).Bold(true).Background(colors.Secondary).PaddingRight(1),
	)
	defaultStyleRule := treeview.WithStyleRule(
		func(*treeview.Node[treeview.FileInfo]) bool { return true },
		lipgloss.NewStyle().Foreground(colors.Secondary),
		lipgloss.NewStyle().Foreground(colors.Background).Background(colors.Primary),
	)

	formatterRule := treeview.WithFormatter(NoteFormatter)

	return treeview.NewDefaultNodeProvider(
		// Icon rules (order matters - most specific first)
		successIconRule, errorIconRule, fallbackIconRule, folderIconRule, noteIconRule, defaultIconRule,
		// Style rules (order matters - most specific first)
		successStyleRule, errorStyleRule, fallbackStyleRule, folderStyleRule, defaultStyleRule,
		// Formatter
		formatterRule,
	)
}

// NoteFormatter produces the display label for a node during visualization.
//
//   - Nodes without row metadata (the output directory) keep their name.
//   - On success, only the file name is shown (keeps the tree clean post-write).
//   - On error, the file name plus the error message are shown.
//   - Pending notes show "<file> ← row N" to convey the source row mapping.
func NoteFormatter(node *treeview.Node[treeview.FileInfo]) (string, bool) {
	rm := core.GetMeta(node)
	if rm == nil {
		return node.Name(), true
	}

	switch rm.Status {
	case core.NoteStatusCreated:
		return node.Name(), true
	case core.NoteStatusError:
		return fmt.Sprintf("%s: %s", node.Name(), rm.WriteError), true
	}
	return fmt.Sprintf("%s ← row %d", node.Name(), rm.RowIndex+1), true
}
