package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Digital-Shane/csv-notes/internal/config"
	"github.com/Digital-Shane/csv-notes/internal/core"
	"github.com/Digital-Shane/csv-notes/internal/log"
	"github.com/Digital-Shane/csv-notes/internal/name"
	"github.com/Digital-Shane/csv-notes/internal/source"
	"github.com/Digital-Shane/csv-notes/internal/tui/components"
	"github.com/Digital-Shane/csv-notes/internal/tui/generate"
	"github.com/Digital-Shane/csv-notes/internal/tui/pick"
	"github.com/Digital-Shane/csv-notes/internal/tui/theme"
	"github.com/Digital-Shane/treeview"
	"github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// runGenerateCommand executes the full generation flow for one input file:
// load, column selection, naming, plan, preview, write.
func runGenerateCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	if instant && outputDir == "" {
		return fmt.Errorf("--instant requires --out")
	}

	sep, err := parseDelimiter(delimiter)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Initialize(cfg.EnableLogging && !noLog, cfg.LogRetentionDays)

	table, err := source.Load(args[0], source.Options{Delimiter: sep, Sheet: sheet})
	if err != nil {
		return err
	}

	columns, err := chooseColumns(table)
	if err != nil || columns == nil {
		return err
	}

	fields, err := chooseNamingFields(table.Path, columns)
	if err != nil || fields == nil {
		return err
	}

	out := outputDir
	if out == "" {
		out = defaultOutputDir(table.Path)
	}

	// The directory may not exist until the engine creates it, so the
	// explicit probe skips construction-time validation.
	alloc, err := name.NewAllocator(name.AllocatorConfig{
		Dir:     out,
		Fields:  fields,
		Ignored: cfg.Ignored(),
		Probe:   name.NewDirProbe(out),
	})
	if err != nil {
		return err
	}

	plan := core.BuildPlan(table, columns, alloc, out)
	tree := treeview.NewTree(
		[]*treeview.Node[treeview.FileInfo]{plan.Root},
		treeview.WithProvider(components.CreateNoteProvider()),
	)

	engineCfg := core.WriteEngineConfig{
		Tree:        tree,
		Columns:     columns,
		OutputDir:   out,
		WorkerCount: resolveWorkerCount(cfg),
		Command:     "generate",
		CommandArgs: os.Args[1:],
	}

	if instant {
		return executeInstantMode(engineCfg)
	}

	preview := generate.NewPreviewModel(tree, plan, table.Path, out)
	finalModel, err := tea.NewProgram(preview, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if err != nil {
		return err
	}
	pm, ok := finalModel.(*generate.PreviewModel)
	if !ok {
		return fmt.Errorf("unexpected model type %T after preview", finalModel)
	}
	if !pm.Confirmed() {
		return nil
	}

	// Rows removed during the preview are gone from the model's tree, so the
	// engine takes the tree back out of the final model.
	engineCfg.Tree = pm.Tree
	engine := core.NewWriteEngine(engineCfg)

	progress := generate.NewWriteProgressModel(engine, theme.Default())
	finalProgress, err := tea.NewProgram(progress, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	wm, ok := finalProgress.(*generate.WriteProgressModel)
	if !ok {
		return fmt.Errorf("unexpected model type %T after writing", finalProgress)
	}
	if wm.Err() != nil {
		return wm.Err()
	}
	if wm.Canceled() {
		return nil
	}
	if errCount := wm.Summary().ErrorCount; errCount > 0 {
		return fmt.Errorf("%d errors occurred during note creation", errCount)
	}
	return nil
}

// executeInstantMode writes the batch without any TUI, echoing progress to
// stdout and summarizing the result.
func executeInstantMode(engineCfg core.WriteEngineConfig) error {
	engine := core.NewWriteEngine(engineCfg)

	var lastProcessed int
	for ev := range engine.Start(context.Background()) {
		if ev.Summary.ProcessedNotes != lastProcessed && ev.Summary.LastNote != "" {
			fmt.Printf("[%d/%d] %s\n", ev.Summary.ProcessedNotes, ev.Summary.TotalNotes, ev.Summary.LastNote)
		}
		lastProcessed = ev.Summary.ProcessedNotes
	}

	summary := engine.SummarySnapshot()
	fmt.Printf("Created %d of %d notes in %s\n", summary.CreatedNotes, summary.TotalNotes, engineCfg.OutputDir)
	for _, err := range engine.Errors() {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if summary.ErrorCount > 0 {
		return fmt.Errorf("%d errors occurred during note creation", summary.ErrorCount)
	}
	return nil
}

// chooseColumns resolves the frontmatter columns, from --columns when given
// and interactively otherwise. A nil slice with a nil error means the user
// backed out.
func chooseColumns(table *source.Table) ([]string, error) {
	if columnList != "" {
		return splitColumnFlag(columnList, table.Headers)
	}

	model := pick.NewColumnsModel(table.Path, table.Headers, theme.Default())
	finalModel, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	cm, ok := finalModel.(*pick.ColumnsModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T after column selection", finalModel)
	}
	if !cm.Confirmed() {
		return nil, nil
	}
	return cm.Selected(), nil
}

// chooseNamingFields resolves the naming fields, from --name-by when given
// and interactively otherwise. A nil slice with a nil error means the user
// backed out.
func chooseNamingFields(sourcePath string, columns []string) ([]string, error) {
	if nameBy != "" {
		return splitNameByFlag(nameBy, columns)
	}

	model := pick.NewOrderModel(sourcePath, columns, theme.Default())
	finalModel, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	om, ok := finalModel.(*pick.OrderModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T after naming selection", finalModel)
	}
	if !om.Confirmed() {
		return nil, nil
	}
	return om.Fields(), nil
}

// splitColumnFlag parses the --columns value. Selections keep the file's
// header order, matching what the interactive picker returns.
func splitColumnFlag(value string, headers []string) ([]string, error) {
	requested := splitFieldList(value)
	if len(requested) == 0 {
		return nil, fmt.Errorf("--columns needs at least one column name")
	}

	known := make(map[string]bool, len(headers))
	for _, header := range headers {
		known[header] = true
	}
	for _, column := range requested {
		if !known[column] {
			return nil, fmt.Errorf("unknown column %q (file has: %s)", column, strings.Join(headers, ", "))
		}
	}

	want := make(map[string]bool, len(requested))
	for _, column := range requested {
		want[column] = true
	}
	columns := make([]string, 0, len(requested))
	for _, header := range headers {
		if want[header] {
			columns = append(columns, header)
		}
	}
	return columns, nil
}

// splitNameByFlag parses the --name-by value. Order is taken as given and
// every field must be one of the selected columns.
func splitNameByFlag(value string, columns []string) ([]string, error) {
	fields := splitFieldList(value)
	if len(fields) == 0 {
		return nil, fmt.Errorf("--name-by needs at least one column name")
	}

	selected := make(map[string]bool, len(columns))
	for _, column := range columns {
		selected[column] = true
	}
	for _, field := range fields {
		if !selected[field] {
			return nil, fmt.Errorf("--name-by field %q is not among the selected columns (%s)", field, strings.Join(columns, ", "))
		}
	}
	return fields, nil
}

// splitFieldList splits a comma separated flag value, trimming whitespace
// and dropping empty entries.
func splitFieldList(value string) []string {
	parts := strings.Split(value, ",")
	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			fields = append(fields, trimmed)
		}
	}
	return fields
}

// parseDelimiter turns the --delimiter value into a rune. Empty keeps the
// comma default; "\t" and "tab" select a tab separator.
func parseDelimiter(value string) (rune, error) {
	switch value {
	case "":
		return 0, nil
	case "\\t", "tab":
		return '\t', nil
	}
	runes := []rune(value)
	if len(runes) != 1 {
		return 0, fmt.Errorf("--delimiter must be a single character, got %q", value)
	}
	return runes[0], nil
}

// defaultOutputDir derives the output directory from the input file name,
// e.g. contacts.csv writes into contacts_notes beside it.
func defaultOutputDir(inputPath string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if base == "" {
		base = "output"
	}
	return filepath.Join(filepath.Dir(inputPath), base+"_notes")
}

func resolveWorkerCount(cfg *config.Config) int {
	if workerCount > 0 {
		return workerCount
	}
	return cfg.WorkerCount
}

var (
	outputDir   string
	columnList  string
	nameBy      string
	delimiter   string
	sheet       string
	instant     bool
	workerCount int
)

func init() {
	rootCmd.Flags().StringVarP(&outputDir, "out", "o", "", "Directory to write notes into (created if missing)")
	rootCmd.Flags().StringVar(&columnList, "columns", "", "Comma separated columns to keep as frontmatter (skips the column picker)")
	rootCmd.Flags().StringVar(&nameBy, "name-by", "", "Comma separated columns composed into note names, in order (skips the naming picker)")
	rootCmd.Flags().StringVar(&delimiter, "delimiter", "", "CSV field separator (single character, or \\t for tab)")
	rootCmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read from an XLSX workbook (default first sheet)")
	rootCmd.Flags().BoolVarP(&instant, "instant", "i", false, "Write notes immediately without interactive preview")
	rootCmd.Flags().IntVar(&workerCount, "workers", 0, "Number of concurrent note writers (default from config)")
}
