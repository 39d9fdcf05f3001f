package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Digital-Shane/csv-notes/internal/log"
	"github.com/Digital-Shane/csv-notes/internal/note"
	"github.com/Digital-Shane/treeview"
	"github.com/mhmtszr/concurrent-swiss-map"
)

// WriteEngine writes planned notes concurrently while exposing progress
// snapshots for UI consumption. Failures never stop the batch; every row is
// attempted and carries its own outcome.
type WriteEngine struct {
	workerCount int
	tree        *treeview.Tree[treeview.FileInfo]
	columns     []string
	outputDir   string
	command     string
	commandArgs []string
	fns         WriteFunctions
	stderr      io.Writer

	results *csmap.CsMap[string, *WriteResult]

	summaryMu sync.RWMutex
	summary   WriteSummary

	errorsMu sync.Mutex
	errors   []error
}

// WriteSummary captures the state of the write pipeline at a point in time.
type WriteSummary struct {
	TotalNotes     int
	ProcessedNotes int
	CreatedNotes   int
	ActiveWorkers  int
	WorkerLimit    int
	ErrorCount     int
	LastNote       string
	Done           bool
	Canceled       bool
}

// WriteEvent represents an update emitted by the engine.
type WriteEvent struct {
	Summary WriteSummary
	Err     error
}

// WriteResult records the outcome for a single planned note, keyed by its
// destination path.
type WriteResult struct {
	Meta *RowMeta
	Err  error
}

// WriteFunctions bundles the filesystem callbacks used by the engine. Tests
// and dry-run executions can override any subset of these handlers.
type WriteFunctions struct {
	CreateNote   func(*RowMeta, []string) error
	EnsureDir    func(string) error
	StartSession func(string, []string) error
	EndSession   func() error
}

func (f WriteFunctions) withDefaults() WriteFunctions {
	if f.CreateNote == nil {
		f.CreateNote = CreateNote
	}
	if f.EnsureDir == nil {
		f.EnsureDir = EnsureOutputDir
	}
	if f.StartSession == nil {
		f.StartSession = log.StartSession
	}
	if f.EndSession == nil {
		f.EndSession = log.EndSession
	}
	return f
}

// WriteEngineConfig configures the write engine.
type WriteEngineConfig struct {
	Tree        *treeview.Tree[treeview.FileInfo]
	Columns     []string
	OutputDir   string
	WorkerCount int
	Command     string
	CommandArgs []string
	Functions   WriteFunctions
	Stderr      io.Writer
}

// NewWriteEngine constructs an engine with sane defaults applied.
func NewWriteEngine(cfg WriteEngineConfig) *WriteEngine {
	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 8
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	return &WriteEngine{
		workerCount: workerCount,
		tree:        cfg.Tree,
		columns:     cfg.Columns,
		outputDir:   cfg.OutputDir,
		command:     cfg.Command,
		commandArgs: cfg.CommandArgs,
		fns:         cfg.Functions.withDefaults(),
		stderr:      stderr,
		results:     csmap.Create[string, *WriteResult](),
		summary: WriteSummary{
			WorkerLimit: workerCount,
		},
	}
}

// Start begins writing notes and returns a stream of progress events.
func (e *WriteEngine) Start(ctx context.Context) <-chan WriteEvent {
	events := make(chan WriteEvent, 128)
	go e.run(ctx, events)
	return events
}

// RunToCompletion drains the event stream and returns the final summary.
func (e *WriteEngine) RunToCompletion(ctx context.Context) WriteSummary {
	for range e.Start(ctx) {
	}
	return e.SummarySnapshot()
}

// Results returns the per-note outcomes recorded so far, keyed by
// destination path. The map is a copy safe for caller modification.
func (e *WriteEngine) Results() map[string]*WriteResult {
	result := make(map[string]*WriteResult, e.results.Count())
	e.results.Range(func(key string, value *WriteResult) bool {
		result[key] = value
		return false
	})
	return result
}

// Errors returns a copy of the accumulated errors.
func (e *WriteEngine) Errors() []error {
	e.errorsMu.Lock()
	defer e.errorsMu.Unlock()
	if len(e.errors) == 0 {
		return nil
	}
	cloned := make([]error, len(e.errors))
	copy(cloned, e.errors)
	return cloned
}

// SummarySnapshot returns the latest progress summary.
func (e *WriteEngine) SummarySnapshot() WriteSummary {
	e.summaryMu.RLock()
	defer e.summaryMu.RUnlock()
	return e.summary
}

func (e *WriteEngine) run(ctx context.Context, events chan<- WriteEvent) {
	defer close(events)

	if e.tree == nil {
		e.summaryMu.Lock()
		e.summary.Done = true
		e.summaryMu.Unlock()
		e.emit(ctx, events, nil)
		return
	}

	notes := e.collectNotes(ctx)

	e.summaryMu.Lock()
	e.summary.TotalNotes = len(notes)
	e.summaryMu.Unlock()
	e.emit(ctx, events, nil)

	if len(notes) == 0 {
		e.summaryMu.Lock()
		e.summary.Done = true
		e.summaryMu.Unlock()
		e.emit(ctx, events, nil)
		return
	}

	if err := e.fns.StartSession(e.command, e.commandArgs); err != nil {
		fmt.Fprintf(e.stderr, "Warning: Failed to start operation log: %v\n", err)
	}

	if e.outputDir != "" {
		if err := e.fns.EnsureDir(e.outputDir); err != nil {
			// Every write beneath the directory will fail on its own; record
			// a single engine error and keep going so each row is reported.
			e.appendError(fmt.Errorf("output directory: %w", err))
			e.emit(ctx, events, err)
		}
	}

	e.runPhase(ctx, events, notes)

	// Flush the session even on cancellation so undo can revert the rows
	// written before the interrupt.
	if err := e.fns.EndSession(); err != nil {
		fmt.Fprintf(e.stderr, "Warning: Failed to save operation log: %v\n", err)
	}

	if ctx.Err() != nil {
		return
	}

	e.summaryMu.Lock()
	e.summary.Done = true
	e.summaryMu.Unlock()
	e.emit(ctx, events, nil)
}

func (e *WriteEngine) runPhase(ctx context.Context, events chan<- WriteEvent, notes []*treeview.Node[treeview.FileInfo]) {
	workerCount := min(e.workerCount, len(notes))
	workCh := make(chan *treeview.Node[treeview.FileInfo])
	resultCh := make(chan WriteResult)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg, workCh, resultCh)
	}

	// announce initial worker pool size
	e.summaryMu.Lock()
	e.summary.ActiveWorkers = workerCount
	e.summaryMu.Unlock()
	e.emit(ctx, events, nil)

	go func() {
		defer close(workCh)
		for _, node := range notes {
			if ctx.Err() != nil {
				return
			}
			meta := GetMeta(node)
			if prior, exists := e.results.Load(meta.DestPath); exists {
				e.incrementProcessed(meta, prior)
				e.emit(ctx, events, nil)
				continue
			}
			select {
			case workCh <- node:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for {
		select {
		case <-ctx.Done():
			e.summaryMu.Lock()
			e.summary.Canceled = true
			e.summary.ActiveWorkers = 0
			e.summaryMu.Unlock()
			e.emit(ctx, events, ctx.Err())
			return
		case res, ok := <-resultCh:
			if !ok {
				e.summaryMu.Lock()
				e.summary.ActiveWorkers = 0
				e.summaryMu.Unlock()
				e.emit(ctx, events, nil)
				return
			}
			e.processResult(res)
			e.emit(ctx, events, nil)
		}
	}
}

func (e *WriteEngine) worker(ctx context.Context, wg *sync.WaitGroup, workCh <-chan *treeview.Node[treeview.FileInfo], resultCh chan<- WriteResult) {
	defer wg.Done()

	for node := range workCh {
		if ctx.Err() != nil {
			return
		}

		meta := GetMeta(node)
		err := e.fns.CreateNote(meta, e.columns)

		select {
		case resultCh <- WriteResult{Meta: meta, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

func (e *WriteEngine) processResult(res WriteResult) {
	stored := res
	e.results.Store(res.Meta.DestPath, &stored)

	var count int
	if res.Err != nil {
		count = e.appendError(fmt.Errorf("%s: %w", res.Meta.NoteName, res.Err))
	} else {
		count = e.appendError(nil)
	}

	e.summaryMu.Lock()
	e.summary.ProcessedNotes++
	if res.Err == nil {
		e.summary.CreatedNotes++
	}
	e.summary.ErrorCount = count
	e.summary.LastNote = res.Meta.NoteName + note.Extension
	e.summaryMu.Unlock()
}

// incrementProcessed accounts for a note whose outcome was already recorded
// earlier in the run, without touching disk again.
func (e *WriteEngine) incrementProcessed(meta *RowMeta, prior *WriteResult) {
	e.summaryMu.Lock()
	e.summary.ProcessedNotes++
	if prior != nil && prior.Err == nil {
		e.summary.CreatedNotes++
	}
	e.summary.LastNote = meta.NoteName + note.Extension
	e.summaryMu.Unlock()
}

// appendError records err and returns the updated error count. Cancellation
// errors are dropped; a nil err only reports the current count.
func (e *WriteEngine) appendError(err error) int {
	e.errorsMu.Lock()
	defer e.errorsMu.Unlock()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		e.errors = append(e.errors, err)
	}
	return len(e.errors)
}

func (e *WriteEngine) emit(ctx context.Context, events chan<- WriteEvent, err error) {
	summary := e.SummarySnapshot()
	select {
	case events <- WriteEvent{Summary: summary, Err: err}:
	case <-ctx.Done():
	}
}

func (e *WriteEngine) collectNotes(ctx context.Context) []*treeview.Node[treeview.FileInfo] {
	var notes []*treeview.Node[treeview.FileInfo]
	for info := range e.tree.All(ctx) {
		if GetMeta(info.Node) == nil {
			continue
		}
		notes = append(notes, info.Node)
	}
	return notes
}
