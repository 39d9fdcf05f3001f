package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// loadCSV reads a delimited text file. Spreadsheet exports frequently
// open with a UTF-8 BOM and quote fields loosely, so the BOM is stripped
// and the reader runs in lazy-quote mode.
func loadCSV(path string, delimiter rune) (*Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	raw, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return buildTable(path, raw)
}
