package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/Digital-Shane/csv-notes/internal/source"
	"github.com/Digital-Shane/treeview"
	"github.com/google/go-cmp/cmp"
)

func buildTestPlanTree(t *testing.T, rows []map[string]string, outputDir string) (*treeview.Tree[treeview.FileInfo], *Plan) {
	t.Helper()
	table := &source.Table{Headers: []string{"name"}, Rows: rows}
	alloc := newPlanAllocator(t, []string{"name"}, nil)
	plan := BuildPlan(table, []string{"name"}, alloc, outputDir)
	return treeview.NewTree([]*treeview.Node[treeview.FileInfo]{plan.Root}), plan
}

func TestWriteEngineWritesAllNotes(t *testing.T) {
	t.Parallel()

	rows := []map[string]string{{"name": "A"}, {"name": "B"}, {"name": "C"}}
	tree, _ := buildTestPlanTree(t, rows, "out")

	var mu sync.Mutex
	var written []string
	var starts, ends int

	engine := NewWriteEngine(WriteEngineConfig{
		Tree:        tree,
		Columns:     []string{"name"},
		OutputDir:   "out",
		WorkerCount: 2,
		Command:     "generate",
		Functions: WriteFunctions{
			CreateNote: func(rm *RowMeta, _ []string) error {
				mu.Lock()
				written = append(written, rm.NoteName)
				mu.Unlock()
				rm.Success()
				return nil
			},
			EnsureDir:    func(string) error { return nil },
			StartSession: func(string, []string) error { starts++; return nil },
			EndSession:   func() error { ends++; return nil },
		},
	})

	summary := engine.RunToCompletion(context.Background())

	if summary.TotalNotes != 3 || summary.ProcessedNotes != 3 || summary.CreatedNotes != 3 {
		t.Errorf("RunToCompletion() summary = %+v, want 3 total, 3 processed, 3 created", summary)
	}
	if !summary.Done || summary.Canceled {
		t.Errorf("RunToCompletion() done = %v, canceled = %v, want done and not canceled", summary.Done, summary.Canceled)
	}
	if summary.ErrorCount != 0 {
		t.Errorf("RunToCompletion() ErrorCount = %d, want 0", summary.ErrorCount)
	}
	if starts != 1 || ends != 1 {
		t.Errorf("session starts = %d, ends = %d, want 1 and 1", starts, ends)
	}

	sort.Strings(written)
	if diff := cmp.Diff([]string{"A", "B", "C"}, written); diff != "" {
		t.Errorf("written notes mismatch (-want +got):\n%s", diff)
	}
	if got := len(engine.Results()); got != 3 {
		t.Errorf("Results() size = %d, want 3", got)
	}
}

func TestWriteEngineContinuesOnFailure(t *testing.T) {
	t.Parallel()

	rows := []map[string]string{{"name": "A"}, {"name": "B"}, {"name": "C"}}
	tree, _ := buildTestPlanTree(t, rows, "out")

	engine := NewWriteEngine(WriteEngineConfig{
		Tree:        tree,
		Columns:     []string{"name"},
		OutputDir:   "out",
		WorkerCount: 1,
		Functions: WriteFunctions{
			CreateNote: func(rm *RowMeta, _ []string) error {
				if rm.NoteName == "B" {
					return rm.Fail(fmt.Errorf("disk full"))
				}
				rm.Success()
				return nil
			},
			EnsureDir:    func(string) error { return nil },
			StartSession: func(string, []string) error { return nil },
			EndSession:   func() error { return nil },
		},
	})

	summary := engine.RunToCompletion(context.Background())

	if summary.ProcessedNotes != 3 || summary.CreatedNotes != 2 {
		t.Errorf("RunToCompletion() summary = %+v, want 3 processed, 2 created", summary)
	}
	if summary.ErrorCount != 1 {
		t.Errorf("RunToCompletion() ErrorCount = %d, want 1", summary.ErrorCount)
	}

	errs := engine.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "B") {
		t.Errorf("Errors() = %v, want single error naming B", errs)
	}
}

func TestWriteEngineOnDisk(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	outDir := filepath.Join(t.TempDir(), "notes")
	rows := []map[string]string{
		{"name": "Alice Smith"},
		{"name": "Bob Jones"},
	}
	tree, plan := buildTestPlanTree(t, rows, outDir)

	engine := NewWriteEngine(WriteEngineConfig{
		Tree:        tree,
		Columns:     []string{"name"},
		OutputDir:   outDir,
		WorkerCount: 2,
		Command:     "generate",
	})

	summary := engine.RunToCompletion(context.Background())

	if summary.CreatedNotes != 2 || summary.ErrorCount != 0 {
		t.Fatalf("RunToCompletion() summary = %+v, want 2 created and no errors", summary)
	}

	for _, child := range plan.Root.Children() {
		meta := GetMeta(child)
		if meta.Status != NoteStatusCreated {
			t.Errorf("note %q status = %v, want NoteStatusCreated", meta.NoteName, meta.Status)
		}
		data, err := os.ReadFile(meta.DestPath)
		if err != nil {
			t.Errorf("ReadFile(%q) = %v, want note on disk", meta.DestPath, err)
			continue
		}
		if !strings.HasPrefix(string(data), "---\n") {
			t.Errorf("note %q content = %q, want frontmatter", meta.NoteName, string(data))
		}
	}
}

func TestWriteEngineCancellation(t *testing.T) {
	t.Parallel()

	rows := make([]map[string]string, 20)
	for i := range rows {
		rows[i] = map[string]string{"name": fmt.Sprintf("Row %d", i)}
	}
	tree, _ := buildTestPlanTree(t, rows, "out")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var ends int

	engine := NewWriteEngine(WriteEngineConfig{
		Tree:        tree,
		Columns:     []string{"name"},
		OutputDir:   "out",
		WorkerCount: 1,
		Functions: WriteFunctions{
			CreateNote: func(rm *RowMeta, _ []string) error {
				cancel()
				rm.Success()
				return nil
			},
			EnsureDir:    func(string) error { return nil },
			StartSession: func(string, []string) error { return nil },
			EndSession: func() error {
				mu.Lock()
				ends++
				mu.Unlock()
				return nil
			},
		},
	})

	summary := engine.RunToCompletion(ctx)

	if summary.Done {
		t.Error("RunToCompletion() Done = true after cancellation, want false")
	}
	mu.Lock()
	defer mu.Unlock()
	if ends != 1 {
		t.Errorf("EndSession calls = %d, want 1 so the partial session is saved", ends)
	}
}

func TestWriteEngineNilTree(t *testing.T) {
	t.Parallel()

	var starts int
	engine := NewWriteEngine(WriteEngineConfig{
		Functions: WriteFunctions{
			StartSession: func(string, []string) error { starts++; return nil },
		},
	})

	summary := engine.RunToCompletion(context.Background())

	if !summary.Done || summary.TotalNotes != 0 {
		t.Errorf("RunToCompletion() summary = %+v, want done with no notes", summary)
	}
	if starts != 0 {
		t.Errorf("StartSession calls = %d, want 0 for empty run", starts)
	}
}

func TestWriteEngineWorkerFloor(t *testing.T) {
	t.Parallel()

	engine := NewWriteEngine(WriteEngineConfig{WorkerCount: 0})
	if got := engine.SummarySnapshot().WorkerLimit; got != 8 {
		t.Errorf("WorkerLimit = %d, want default 8", got)
	}
}

func TestWriteEngineReportsEnsureDirFailure(t *testing.T) {
	t.Parallel()

	rows := []map[string]string{{"name": "A"}}
	tree, _ := buildTestPlanTree(t, rows, "out")

	engine := NewWriteEngine(WriteEngineConfig{
		Tree:      tree,
		Columns:   []string{"name"},
		OutputDir: "out",
		Functions: WriteFunctions{
			CreateNote:   func(rm *RowMeta, _ []string) error { rm.Success(); return nil },
			EnsureDir:    func(string) error { return fmt.Errorf("permission denied") },
			StartSession: func(string, []string) error { return nil },
			EndSession:   func() error { return nil },
		},
	})

	summary := engine.RunToCompletion(context.Background())

	if !summary.Done {
		t.Error("RunToCompletion() Done = false, want true")
	}

	errs := engine.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "output directory") {
		t.Errorf("Errors() = %v, want single output directory error", errs)
	}
}
