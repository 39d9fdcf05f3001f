package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Table is a loaded input file: trimmed headers in column order plus one
// string map per data row. Values are whitespace-trimmed and columns
// without a usable header are dropped.
type Table struct {
	Path    string
	Headers []string
	Rows    []map[string]string
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// Options tunes how an input file is read.
type Options struct {
	// Delimiter is the CSV field separator. Zero means comma.
	Delimiter rune
	// Sheet names the XLSX worksheet to read. Empty means the first
	// sheet in the workbook.
	Sheet string
}

// Load reads a tabular input file, routing on extension. Supported
// inputs are .csv and .xlsx.
func Load(path string, opts Options) (*Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file not found: %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path, opts.Delimiter)
	case ".xlsx":
		return loadXLSX(path, opts.Sheet)
	default:
		return nil, fmt.Errorf("input file must be a CSV or XLSX file: %s", path)
	}
}

// buildTable validates the header row and assembles row maps. Rows
// shorter than the header are padded with empty values; cells beyond the
// header are discarded.
func buildTable(path string, raw [][]string) (*Table, error) {
	if len(raw) == 0 {
		return nil, errors.New("file has no headers")
	}

	headers := make([]string, 0, len(raw[0]))
	columns := make([]int, 0, len(raw[0]))
	for i, header := range raw[0] {
		header = strings.TrimSpace(header)
		if header == "" {
			continue
		}
		headers = append(headers, header)
		columns = append(columns, i)
	}
	if len(headers) == 0 {
		return nil, errors.New("file has no valid headers")
	}

	rows := make([]map[string]string, 0, len(raw)-1)
	for _, record := range raw[1:] {
		row := make(map[string]string, len(headers))
		for j, col := range columns {
			value := ""
			if col < len(record) {
				value = strings.TrimSpace(record[col])
			}
			row[headers[j]] = value
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errors.New("file contains no data rows")
	}

	return &Table{Path: path, Headers: headers, Rows: rows}, nil
}
