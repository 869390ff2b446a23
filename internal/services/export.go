package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Transactions"

var exportHeaders = []string{"Date", "Type", "Account", "Category", "Description", "Amount"}

// ParseMonth parses a YYYY-MM value into its month window in loc
func ParseMonth(value string, loc *time.Location) (start, end time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01", value, loc)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError("month", "must be formatted as YYYY-MM")
	}
	start, end = MonthWindow(t, loc)
	return start, end, nil
}

// FilterMonth keeps the rows dated inside [start, end]
func FilterMonth(rows []TransactionRow, start, end time.Time) []TransactionRow {
	out := make([]TransactionRow, 0, len(rows))
	for _, r := range rows {
		if inWindow(r.Date, start, end) {
			out = append(out, r)
		}
	}
	return out
}

// ExportTransactionsXLSX writes rows to a single-sheet workbook followed by
// income, expense and net totals.
func ExportTransactionsXLSX(rows []TransactionRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	f.SetCellStyle(exportSheet, "A1", lastCol+"1", bold)

	var income, expense int64
	for i, r := range rows {
		values := []any{
			r.Date.Format("2006-01-02"),
			string(r.Type),
			r.AccountName,
			r.CategoryName,
			r.Description,
			r.Amount,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(exportSheet, cell, v)
		}
		switch r.Type {
		case models.TransactionTypeIncome:
			income += r.Amount
		case models.TransactionTypeExpense:
			expense += r.Amount
		}
	}

	totals := []struct {
		label string
		value int64
	}{
		{"Total " + string(models.TransactionTypeIncome), income},
		{"Total " + string(models.TransactionTypeExpense), expense},
		{"Net", income - expense},
	}
	start := len(rows) + 3
	for i, t := range totals {
		row := start + i
		labelCell, _ := excelize.CoordinatesToCellName(len(exportHeaders)-1, row)
		valueCell, _ := excelize.CoordinatesToCellName(len(exportHeaders), row)
		f.SetCellValue(exportSheet, labelCell, t.label)
		f.SetCellValue(exportSheet, valueCell, t.value)
		f.SetCellStyle(exportSheet, labelCell, valueCell, bold)
	}

	f.SetColWidth(exportSheet, "A", "A", 12)
	f.SetColWidth(exportSheet, "C", "D", 18)
	f.SetColWidth(exportSheet, "E", "E", 40)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
