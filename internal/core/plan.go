package core

import (
	"path/filepath"

	"github.com/Digital-Shane/csv-notes/internal/name"
	"github.com/Digital-Shane/csv-notes/internal/note"
	"github.com/Digital-Shane/csv-notes/internal/source"
	"github.com/Digital-Shane/treeview"
)

// PlanStats summarizes a generation plan for display alongside the preview tree.
type PlanStats struct {
	TotalRows    int
	Columns      int
	NamingFields int
	Fallbacks    int
}

// Plan pairs the preview nodes with their summary statistics. The root node
// represents the output directory; each child is one planned note in row order.
type Plan struct {
	Root    *treeview.Node[treeview.FileInfo]
	Columns []string
	Stats   PlanStats
}

// BuildPlan allocates a unique note name for every row, in row order, and
// assembles the preview nodes. The allocator session is reset first so
// replanning the same batch yields identical names.
func BuildPlan(table *source.Table, columns []string, alloc *name.Allocator, outputDir string) *Plan {
	alloc.Reset()

	stats := PlanStats{
		TotalRows:    len(table.Rows),
		Columns:      len(columns),
		NamingFields: len(alloc.Fields()),
	}

	children := make([]*treeview.Node[treeview.FileInfo], 0, len(table.Rows))
	for i, record := range table.Rows {
		base := alloc.Generate(record, i)
		fileName := base + note.Extension
		destPath := note.Path(outputDir, base)

		child := treeview.NewNode(destPath, fileName, treeview.FileInfo{
			FileInfo: NewSimpleFileInfo(fileName, false),
			Path:     destPath,
			Extra:    make(map[string]any),
		})
		meta := EnsureMeta(child)
		meta.RowIndex = i
		meta.Record = record
		meta.NoteName = base
		meta.DestPath = destPath
		if alloc.FallsBack(record) {
			meta.Fallback = true
			stats.Fallbacks++
		}
		children = append(children, child)
	}

	root := treeview.NewNode(outputDir, filepath.Base(outputDir), treeview.FileInfo{
		FileInfo: NewSimpleFileInfo(filepath.Base(outputDir), true),
		Path:     outputDir,
		Extra:    make(map[string]any),
	})
	root.SetChildren(children)
	root.SetExpanded(true)

	return &Plan{Root: root, Columns: columns, Stats: stats}
}
