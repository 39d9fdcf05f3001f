package core

import "github.com/Digital-Shane/treeview"

// NoteStatus represents the lifecycle stage of a planned note file.
// A node starts at NoteStatusPending; after the write phase it is marked
// created or error with an accompanying message when relevant.
type NoteStatus int

const (
	NoteStatusPending NoteStatus = iota // Write not yet attempted
	NoteStatusCreated                   // Note written to disk
	NoteStatusError                     // Write failed; see WriteError for detail
)

// RowMeta holds per-node generation intent and results.
//
// Fields:
//   - RowIndex: Zero-based position of the source row, used for the
//     positional fallback name and stable ordering.
//   - Record: Column name to value mapping for the source row.
//   - NoteName: Allocated file name without the .md extension. Unique
//     within the batch and against the output directory.
//   - DestPath: Full path the note will be written to.
//   - Fallback: True when no naming field produced a usable value and the
//     name fell back to the row position.
//   - Status / WriteError: Outcome of the write attempt. The error message
//     is only populated when status == NoteStatusError.
//
// The zero value is meaningful: it encodes an unprocessed row with no write attempted.
type RowMeta struct {
	RowIndex   int
	Record     map[string]string
	NoteName   string
	DestPath   string
	Fallback   bool
	Status     NoteStatus
	WriteError string
}

// GetMeta retrieves the existing *RowMeta attached to n or nil when absent.
// It is safe to call with a nil node.
func GetMeta(n *treeview.Node[treeview.FileInfo]) *RowMeta {
	if n == nil || n.Data().Extra == nil {
		return nil
	}
	if m, ok := n.Data().Extra["meta"].(*RowMeta); ok {
		return m
	}
	return nil
}

// EnsureMeta returns the existing *RowMeta for n, creating and attaching a
// new instance if needed. The returned pointer is always non-nil.
func EnsureMeta(n *treeview.Node[treeview.FileInfo]) *RowMeta {
	if n.Data().Extra == nil {
		n.Data().Extra = map[string]any{}
	}
	if m, ok := n.Data().Extra["meta"].(*RowMeta); ok {
		return m
	}
	m := &RowMeta{}
	n.Data().Extra["meta"] = m
	return m
}

func (m *RowMeta) Fail(err error) error {
	m.Status = NoteStatusError
	m.WriteError = err.Error()
	return err
}

func (m *RowMeta) Success() {
	m.Status = NoteStatusCreated
}
