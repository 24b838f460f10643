package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const excelSheet = "Report"

// WriteExcel renders t as an .xlsx workbook: a bold header row, one row
// per entry with the amount column formatted as currency, and a closing
// row holding a "Total:" label and a SUM() formula over the amount column.
func WriteExcel(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", excelSheet); err != nil {
		return err
	}

	numFmt := fmt.Sprintf(`"%s" #,##0.00`, t.Currency)
	if t.Currency == "" {
		numFmt = "#,##0.00"
	}
	money, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
		Alignment:    &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	for col, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(excelSheet, cell, h); err != nil {
			return err
		}
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.ColumnNumberToName(len(t.Headers))
		if err := f.SetCellStyle(excelSheet, "A1", last+"1", bold); err != nil {
			return err
		}
		if err := f.SetColWidth(excelSheet, "A", last, 20); err != nil {
			return err
		}
	}

	for i, r := range t.Rows {
		row := i + 2
		for col := range t.Headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			var v any = t.cell(r, col)
			if col == t.AmountCol {
				v = r.Amount
			}
			if err := f.SetCellValue(excelSheet, cell, v); err != nil {
				return err
			}
		}
	}

	amountCol, err := excelize.ColumnNumberToName(t.AmountCol + 1)
	if err != nil {
		return err
	}
	lastRow := len(t.Rows) + 1
	totalRow := lastRow + 1
	if t.AmountCol > 0 {
		label, _ := excelize.CoordinatesToCellName(t.AmountCol, totalRow)
		if err := f.SetCellValue(excelSheet, label, "Total:"); err != nil {
			return err
		}
		if err := f.SetCellStyle(excelSheet, label, label, bold); err != nil {
			return err
		}
	}
	totalCell := fmt.Sprintf("%s%d", amountCol, totalRow)
	if err := f.SetCellFormula(excelSheet, totalCell, fmt.Sprintf("SUM(%s2:%s%d)", amountCol, amountCol, lastRow)); err != nil {
		return err
	}
	if err := f.SetCellStyle(excelSheet, fmt.Sprintf("%s2", amountCol), totalCell, money); err != nil {
		return err
	}

	return f.Write(w)
}
