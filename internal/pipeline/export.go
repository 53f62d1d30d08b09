package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"mailedger/internal"
)

// ExportRowsToXLSX writes an account's synced transactions to a spreadsheet.
func ExportRowsToXLSX(rows []internal.LedgerRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"date", "amount", "notes", "payee", "category"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.Date)
		set(2, row.Amount.String())
		set(3, row.Notes)
		set(4, derefString(row.Payee))
		set(5, derefString(row.Category))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
