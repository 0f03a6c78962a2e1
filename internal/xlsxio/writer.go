package xlsxio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WriteFile renders a Table as a single-sheet workbook. Column order
// follows table.Headers; rows missing a column leave the cell empty.
func WriteFile(table Table, sheetName, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheetName != "" {
		if err := f.SetSheetName(sheet, sheetName); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
		sheet = sheetName
	}

	for i, h := range table.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for r, row := range table.Rows {
		for c, h := range table.Headers {
			value, ok := row[h]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
