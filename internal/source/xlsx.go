package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// loadXLSX reads one worksheet from an Excel workbook. An empty sheet
// name selects the first sheet.
func loadXLSX(path string, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return buildTable(path, raw)
}
