package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTempCSV(t, "people.csv", "name,department\nAlice Smith , Engineering\nBob,Sales\n")

	got, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load(%s) error = %v, want nil", path, err)
	}

	want := &Table{
		Path:    path,
		Headers: []string{"name", "department"},
		Rows: []map[string]string{
			{"name": "Alice Smith", "department": "Engineering"},
			{"name": "Bob", "department": "Sales"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if got.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want %d", got.RowCount(), 2)
	}
}

func TestLoadCSVStripsBOM(t *testing.T) {
	path := writeTempCSV(t, "bom.csv", "\xef\xbb\xbfname\nAlice\n")

	got, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if diff := cmp.Diff([]string{"name"}, got.Headers); diff != "" {
		t.Errorf("Load() headers mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCSVDelimiter(t *testing.T) {
	path := writeTempCSV(t, "semi.csv", "name;city\nAlice;Oslo\n")

	got, err := Load(path, Options{Delimiter: ';'})
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	want := []map[string]string{{"name": "Alice", "city": "Oslo"}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("Load() rows mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCSVLazyQuotes(t *testing.T) {
	path := writeTempCSV(t, "quotes.csv", "note\nsaid \"hello\" twice\n")

	got, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if got.Rows[0]["note"] != `said "hello" twice` {
		t.Errorf("Load() note = %q, want %q", got.Rows[0]["note"], `said "hello" twice`)
	}
}

func TestLoadCSVPadsShortRows(t *testing.T) {
	path := writeTempCSV(t, "ragged.csv", "a,b,c\n1,2\n")

	got, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	want := []map[string]string{{"a": "1", "b": "2", "c": ""}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("Load() rows mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCSVDropsUnnamedColumns(t *testing.T) {
	path := writeTempCSV(t, "unnamed.csv", "name,,age\nAlice,ignored,30\n")

	got, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	want := &Table{
		Path:    path,
		Headers: []string{"name", "age"},
		Rows:    []map[string]string{{"name": "Alice", "age": "30"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantMsg string
	}{
		{
			name: "missing_file",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "absent.csv")
			},
			wantMsg: "not found",
		},
		{
			name: "unsupported_extension",
			path: func(t *testing.T) string {
				return writeTempCSV(t, "data.txt", "name\nAlice\n")
			},
			wantMsg: "must be a CSV or XLSX file",
		},
		{
			name: "empty_file",
			path: func(t *testing.T) string {
				return writeTempCSV(t, "empty.csv", "")
			},
			wantMsg: "no headers",
		},
		{
			name: "blank_headers",
			path: func(t *testing.T) string {
				return writeTempCSV(t, "blank.csv", ",,\nAlice,Oslo,30\n")
			},
			wantMsg: "no valid headers",
		},
		{
			name: "headers_only",
			path: func(t *testing.T) string {
				return writeTempCSV(t, "headers.csv", "name,age\n")
			},
			wantMsg: "no data rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t), Options{})
			if err == nil {
				t.Fatalf("Load() error = nil, want containing %q", tt.wantMsg)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %q, want containing %q", err, tt.wantMsg)
			}
		})
	}
}

func writeTempXLSX(t *testing.T, sheet string, cells [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("Failed to rename sheet: %v", err)
		}
	}
	for r, row := range cells {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("Failed to build cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("Failed to set cell %s: %v", cell, err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "data.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save workbook: %v", err)
	}
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := writeTempXLSX(t, "Sheet1", [][]string{
		{"name", "department"},
		{"Alice", "Engineering"},
		{"Bob", "Sales"},
	})

	got, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load(%s) error = %v, want nil", path, err)
	}

	want := &Table{
		Path:    path,
		Headers: []string{"name", "department"},
		Rows: []map[string]string{
			{"name": "Alice", "department": "Engineering"},
			{"name": "Bob", "department": "Sales"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadXLSXNamedSheet(t *testing.T) {
	path := writeTempXLSX(t, "Findings", [][]string{
		{"severity"},
		{"Minor"},
	})

	got, err := Load(path, Options{Sheet: "Findings"})
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if got.Rows[0]["severity"] != "Minor" {
		t.Errorf("Load() severity = %q, want %q", got.Rows[0]["severity"], "Minor")
	}
}

func TestLoadXLSXMissingSheet(t *testing.T) {
	path := writeTempXLSX(t, "Sheet1", [][]string{
		{"name"},
		{"Alice"},
	})

	_, err := Load(path, Options{Sheet: "Nope"})
	if err == nil {
		t.Error("Load() with missing sheet error = nil, want error")
	}
}
