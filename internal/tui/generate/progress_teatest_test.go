package generate

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Digital-Shane/csv-notes/internal/core"
	"github.com/Digital-Shane/csv-notes/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/google/go-cmp/cmp"
)

func newTestWriteEngine(t *testing.T, rowCount int, fns core.WriteFunctions) *core.WriteEngine {
	t.Helper()
	tree, _ := newGeneratePlan(t, namedRows(rowCount))
	if fns.EnsureDir == nil {
		fns.EnsureDir = func(string) error { return nil }
	}
	if fns.StartSession == nil {
		fns.StartSession = func(string, []string) error { return nil }
	}
	if fns.EndSession == nil {
		fns.EndSession = func() error { return nil }
	}
	return core.NewWriteEngine(core.WriteEngineConfig{
		Tree:        tree,
		Columns:     []string{"name"},
		OutputDir:   "out",
		WorkerCount: 2,
		Command:     "generate",
		Functions:   fns,
	})
}

func startWriteProgressTestModel(t *testing.T, model *WriteProgressModel, opts ...teatest.TestOption) *teatest.TestModel {
	t.Helper()
	options := append([]teatest.TestOption{teatest.WithInitialTermSize(100, 24)}, opts...)
	tm := teatest.NewTestModel(t, model, options...)
	t.Cleanup(func() {
		_ = tm.Quit()
	})
	return tm
}

func finalWriteProgressModel(t *testing.T, tm *teatest.TestModel) *WriteProgressModel {
	t.Helper()
	final := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second))
	model, ok := final.(*WriteProgressModel)
	if !ok {
		t.Fatalf("Final model type = %T, want *WriteProgressModel", final)
	}
	return model
}

func finalWriteOutput(t *testing.T, tm *teatest.TestModel) []byte {
	t.Helper()
	out, err := io.ReadAll(tm.FinalOutput(t, teatest.WithFinalTimeout(2*time.Second)))
	if err != nil {
		t.Fatalf("FinalOutput read error = %v", err)
	}
	return out
}

func TestWriteProgressCompletesAndCountsNotes(t *testing.T) {
	engine := newTestWriteEngine(t, 3, core.WriteFunctions{
		CreateNote: func(rm *core.RowMeta, _ []string) error {
			rm.Success()
			return nil
		},
	})
	model := NewWriteProgressModel(engine, theme.Default())
	tm := startWriteProgressTestModel(t, model)

	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
	final := finalWriteProgressModel(t, tm)
	output := finalWriteOutput(t, tm)

	if !final.done {
		t.Error("done = false, want true after all notes written")
	}
	if final.Canceled() {
		t.Error("Canceled() = true, want false")
	}

	summary := final.Summary()
	if diff := cmp.Diff(3, summary.CreatedNotes); diff != "" {
		t.Errorf("CreatedNotes diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(3, summary.ProcessedNotes); diff != "" {
		t.Errorf("ProcessedNotes diff (-want +got):\n%s", diff)
	}
	if got := final.Errors(); got != nil {
		t.Errorf("Errors() = %v, want nil", got)
	}

	for _, want := range []string{
		"Writing Notes",
		"Total Notes: 3",
		"Created: 3",
		"Progress: 100%",
	} {
		if !bytes.Contains(output, []byte(want)) {
			t.Errorf("final output missing %q", want)
		}
	}
}

func TestWriteProgressQuitKeysCancelRun(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyType
	}{
		{name: "ctrl_c", key: tea.KeyCtrlC},
		{name: "esc", key: tea.KeyEsc},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ready := make(chan struct{})
			release := make(chan struct{})
			var readyOnce, releaseOnce sync.Once
			releaseClose := func() { releaseOnce.Do(func() { close(release) }) }
			t.Cleanup(releaseClose)

			var mu sync.Mutex
			var ends int

			engine := newTestWriteEngine(t, 10, core.WriteFunctions{
				CreateNote: func(rm *core.RowMeta, _ []string) error {
					readyOnce.Do(func() { close(ready) })
					<-release
					rm.Success()
					return nil
				},
				EndSession: func() error {
					mu.Lock()
					ends++
					mu.Unlock()
					return nil
				},
			})
			model := NewWriteProgressModel(engine, theme.Default())
			tm := startWriteProgressTestModel(t, model)

			<-ready
			tm.Send(tea.KeyMsg{Type: tc.key})
			releaseClose()

			tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
			final := finalWriteProgressModel(t, tm)

			if !final.Canceled() {
				t.Error("Canceled() = false, want true after quit key")
			}
			if final.Summary().Done {
				t.Error("Summary().Done = true, want false when interrupted")
			}
			if final.Err() != nil {
				t.Errorf("Err() = %v, want nil on cancel", final.Err())
			}

			mu.Lock()
			defer mu.Unlock()
			if ends != 1 {
				t.Errorf("EndSession calls = %d, want 1 so the partial session is saved", ends)
			}
		})
	}
}

func TestWriteProgressDisplaysErrors(t *testing.T) {
	engine := newTestWriteEngine(t, 3, core.WriteFunctions{
		CreateNote: func(rm *core.RowMeta, _ []string) error {
			if rm.NoteName == "Person 01" {
				return rm.Fail(fmt.Errorf("disk full"))
			}
			rm.Success()
			return nil
		},
	})
	model := NewWriteProgressModel(engine, theme.Default())
	tm := startWriteProgressTestModel(t, model, teatest.WithInitialTermSize(100, 20))

	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
	final := finalWriteProgressModel(t, tm)
	output := finalWriteOutput(t, tm)

	summary := final.Summary()
	if diff := cmp.Diff(1, summary.ErrorCount); diff != "" {
		t.Errorf("ErrorCount diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, summary.CreatedNotes); diff != "" {
		t.Errorf("CreatedNotes diff (-want +got):\n%s", diff)
	}
	if got := len(final.Errors()); got != 1 {
		t.Fatalf("len(Errors()) = %d, want 1", got)
	}

	for _, want := range []string{
		"Errors: 1",
		"Person 01: disk full",
		"Failed: 1",
	} {
		if !bytes.Contains(output, []byte(want)) {
			t.Errorf("final output missing %q", want)
		}
	}
}

func TestWriteProgressWindowResize(t *testing.T) {
	ready := make(chan struct{})
	release := make(chan struct{})
	var readyOnce, releaseOnce sync.Once
	releaseClose := func() { releaseOnce.Do(func() { close(release) }) }
	t.Cleanup(releaseClose)

	engine := newTestWriteEngine(t, 4, core.WriteFunctions{
		CreateNote: func(rm *core.RowMeta, _ []string) error {
			readyOnce.Do(func() { close(ready) })
			<-release
			rm.Success()
			return nil
		},
	})
	model := NewWriteProgressModel(engine, theme.Default())
	tm := startWriteProgressTestModel(t, model, teatest.WithInitialTermSize(80, 20))

	<-ready
	tm.Send(tea.WindowSizeMsg{Width: 120, Height: 40})
	releaseClose()

	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
	final := finalWriteProgressModel(t, tm)

	if diff := cmp.Diff(120, final.width); diff != "" {
		t.Errorf("width diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(40, final.height); diff != "" {
		t.Errorf("height diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(116, final.progress.Width); diff != "" {
		t.Errorf("progress width diff (-want +got):\n%s", diff)
	}
}
