package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetectSchema(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name    string
		headers []string
		want    string
		ok      bool
	}{
		{
			name:    "export layout",
			headers: []string{"Date", "Type", "Account", "Category", "Description", "Amount"},
			want:    "MyDaily",
			ok:      true,
		},
		{
			name:    "bank layout",
			headers: []string{"Date", "Description", "Ref No.", "Debit", "Credit", "Balance"},
			want:    "Bank",
			ok:      true,
		},
		{
			name:    "indonesian bank layout",
			headers: []string{"Tanggal", "Keterangan", "Cabang", "Debet", "Kredit", "Saldo"},
			want:    "Bank (ID)",
			ok:      true,
		},
		{
			name:    "headers are case insensitive",
			headers: []string{" DATE ", "description", "DEBIT", "credit"},
			want:    "Bank",
			ok:      true,
		},
		{
			name:    "unknown",
			headers: []string{"Random", "Headers", "That", "Dont", "Match"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, ok := p.DetectSchema(tt.headers)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, schema.Name)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-12-15", time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)},
		{"15/12/2025", time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)},
		{"15-12-2025", time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)},
		{"15-Dec-2025", time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)},
		{"15/12/25", time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)},
		{"Dec 15, 2025", time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)},
		{"  2025-01-02  ", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"150000", 150000},
		{"150,000", 150000},
		{"150.000", 150000},
		{"1.500.000", 1500000},
		{"Rp 25.000", 25000},
		{"Rp. 25.000", 25000},
		{"Rp25,000.00", 25000},
		{"25.000,50", 25001},
		{"12.50", 13},
		{"", 0},
		{"-", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseAmount("lots")
	assert.Error(t, err)
}

func TestParseCSV_ExportLayout(t *testing.T) {
	csvData := `Date,Type,Account,Category,Description,Amount
2025-12-01,Masuk,BCA,Salary,December salary,8500000
2025-12-03,Keluar,GoPay,Food,Lunch,45000
2025-12-04,Keluar,Cash,,Parking,"5,000"
`
	txns, rowErrors, err := NewParser().ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, txns, 3)

	assert.Equal(t, 2, txns[0].Row)
	assert.Equal(t, models.TransactionTypeIncome, txns[0].Type)
	assert.Equal(t, int64(8500000), txns[0].Amount)
	assert.Equal(t, "Salary", txns[0].CategoryName)
	assert.Equal(t, "December salary", txns[0].Description)

	assert.Equal(t, models.TransactionTypeExpense, txns[1].Type)
	assert.Equal(t, int64(45000), txns[1].Amount)

	assert.Equal(t, int64(5000), txns[2].Amount)
	assert.Empty(t, txns[2].CategoryName)
}

func TestParseCSV_BankLayout(t *testing.T) {
	csvData := `Tanggal,Keterangan,Debet,Kredit,Saldo
Saldo Awal,,,,1.000.000
01/12/2025,TRANSFER GAJI,,8.500.000,9.500.000
02/12/2025,INDOMARET,125.000,,9.375.000
03/12/2025,BIAYA ADM,0,0,9.375.000
Total,,125.000,8.500.000,
`
	txns, rowErrors, err := NewParser().ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, models.TransactionTypeIncome, txns[0].Type)
	assert.Equal(t, int64(8500000), txns[0].Amount)
	assert.Equal(t, "TRANSFER GAJI", txns[0].Description)
	assert.Equal(t, 3, txns[0].Row)

	assert.Equal(t, models.TransactionTypeExpense, txns[1].Type)
	assert.Equal(t, int64(125000), txns[1].Amount)

	require.Len(t, rowErrors, 1)
	assert.Equal(t, 5, rowErrors[0].Row)
	assert.Contains(t, rowErrors[0].Message, "zero")
}

func TestParseCSV_RowErrors(t *testing.T) {
	csvData := `Date,Type,Category,Description,Amount
not-a-date,Masuk,Salary,Bonus,100
2025-12-01,Transfer,Salary,Bonus,100
2025-12-01,Keluar,Food,Refund,-20
2025-12-01,Keluar,Food,Snack,20
,,,,
2025-12-02,Keluar,Food,Coffee,abc
`
	txns, rowErrors, err := NewParser().ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Snack", txns[0].Description)

	rows := make([]int, 0, len(rowErrors))
	for _, re := range rowErrors {
		rows = append(rows, re.Row)
	}
	assert.Equal(t, []int{2, 3, 4, 7}, rows)
}

func TestParseCSV_EmptyFile(t *testing.T) {
	_, _, err := NewParser().ParseCSV(strings.NewReader(""))
	require.Error(t, err)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestParseCSV_UnknownFormat(t *testing.T) {
	csvData := "Foo,Bar,Baz\n1,2,3\n"
	_, _, err := NewParser().ParseCSV(strings.NewReader(csvData))
	assert.ErrorIs(t, err, ErrUnknownStatement)
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	_, _, err := NewParser().ParseFile(strings.NewReader("%PDF-1.4"), "statement.pdf")
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "file", verr.Field)
}

func TestParseXLSX_ExportRoundTrip(t *testing.T) {
	rows := []TransactionRow{
		{
			Transaction: models.Transaction{
				Date:        time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
				Type:        models.TransactionTypeIncome,
				Amount:      8500000,
				Description: "December salary",
			},
			AccountName:  "BCA",
			CategoryName: "Salary",
		},
		{
			Transaction: models.Transaction{
				Date:        time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
				Type:        models.TransactionTypeExpense,
				Amount:      45000,
				Description: "Lunch",
			},
			AccountName:  "GoPay",
			CategoryName: "Food",
		},
	}
	workbook, err := ExportTransactionsXLSX(rows)
	require.NoError(t, err)

	txns, rowErrors, err := NewParser().ParseFile(bytes.NewReader(workbook), "transactions-2025-12.xlsx")
	require.NoError(t, err)
	assert.Empty(t, rowErrors, "the totals below the data are skipped")
	require.Len(t, txns, 2)

	for i, r := range rows {
		assert.True(t, r.Date.Equal(txns[i].Date))
		assert.Equal(t, r.Type, txns[i].Type)
		assert.Equal(t, r.Amount, txns[i].Amount)
		assert.Equal(t, r.Description, txns[i].Description)
		assert.Equal(t, r.CategoryName, txns[i].CategoryName)
	}
}

func TestParseXLSX_BankLayout(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	data := [][]any{
		{"Date", "Description", "Debit", "Credit", "Balance"},
		{"01/12/2025", "SALARY", "", 8500000, 9500000},
		{"02/12/2025", "GRAB FOOD", 65000, "", 9435000},
	}
	for r, row := range data {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	txns, rowErrors, err := NewParser().ParseXLSX(&buf)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, txns, 2)
	assert.Equal(t, models.TransactionTypeIncome, txns[0].Type)
	assert.Equal(t, models.TransactionTypeExpense, txns[1].Type)
	assert.Equal(t, int64(65000), txns[1].Amount)
}

func TestParseXLSX_Malformed(t *testing.T) {
	_, _, err := NewParser().ParseXLSX(strings.NewReader("not a zip"))
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestIsSummaryRow(t *testing.T) {
	assert.True(t, isSummaryRow([]string{"", "", "", "", "Total Masuk", "100"}))
	assert.True(t, isSummaryRow([]string{"Net", "50"}))
	assert.True(t, isSummaryRow([]string{"Saldo Akhir", "", "", "1.000"}))
	assert.False(t, isSummaryRow([]string{"2025-12-01", "Total refund"}))
	assert.False(t, isSummaryRow([]string{"", ""}))
}
