package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// StatementSchema names the columns of one supported statement layout
type StatementSchema struct {
	Name              string
	DateColumn        string
	DescriptionColumn string
	CategoryColumn    string
	// Either a signed pair of columns ...
	DebitColumn  string
	CreditColumn string
	// ... or one amount plus a type column holding Masuk/Keluar
	AmountColumn string
	TypeColumn   string
}

func (s StatementSchema) separateAmounts() bool {
	return s.DebitColumn != ""
}

// ParsedTransaction is one statement row ready to be imported
type ParsedTransaction struct {
	Row          int                    `json:"row"`
	Date         time.Time              `json:"date"`
	Type         models.TransactionType `json:"type"`
	Amount       int64                  `json:"amount"`
	Description  string                 `json:"description"`
	CategoryName string                 `json:"category_name,omitempty"`
}

// RowError is a statement row that could not be parsed
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

var ErrUnknownStatement = errors.New("unknown statement format")

// Parser reads CSV and XLSX statements into transactions
type Parser struct {
	schemas []StatementSchema
}

// NewParser knows the layout written by the transaction export and a generic
// bank layout with separate debit and credit columns.
func NewParser() *Parser {
	return &Parser{
		schemas: []StatementSchema{
			{
				Name:              "MyDaily",
				DateColumn:        "Date",
				DescriptionColumn: "Description",
				CategoryColumn:    "Category",
				AmountColumn:      "Amount",
				TypeColumn:        "Type",
			},
			{
				Name:              "Bank",
				DateColumn:        "Date",
				DescriptionColumn: "Description",
				DebitColumn:       "Debit",
				CreditColumn:      "Credit",
			},
			{
				Name:              "Bank (ID)",
				DateColumn:        "Tanggal",
				DescriptionColumn: "Keterangan",
				DebitColumn:       "Debet",
				CreditColumn:      "Kredit",
			},
		},
	}
}

// DetectSchema picks the first schema whose columns are all present
func (p *Parser) DetectSchema(headers []string) (StatementSchema, bool) {
	headerSet := make(map[string]bool, len(headers))
	for _, h := range headers {
		headerSet[strings.ToLower(strings.TrimSpace(h))] = true
	}
	has := func(col string) bool { return col == "" || headerSet[strings.ToLower(col)] }

	for _, s := range p.schemas {
		if has(s.DateColumn) && has(s.DescriptionColumn) && has(s.DebitColumn) &&
			has(s.CreditColumn) && has(s.AmountColumn) && has(s.TypeColumn) {
			return s, true
		}
	}
	return StatementSchema{}, false
}

// ParseDate parses date strings in the formats statements commonly use
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)

	dateFormats := []string{
		"2006-01-02",   // ISO, written by the export
		"02/01/2006",   // DD/MM/YYYY
		"02-01-2006",   // DD-MM-YYYY
		"02-Jan-2006",  // DD-MMM-YYYY
		"02/01/06",     // DD/MM/YY
		"Jan 02, 2006", // MMM DD, YYYY
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

var dottedThousands = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// ParseAmount parses an amount into whole currency units, rounding any
// fraction. "Rp" prefixes and thousands separators are accepted.
func ParseAmount(amountStr string) (int64, error) {
	cleaned := strings.TrimSpace(amountStr)
	cleaned = strings.TrimPrefix(cleaned, "Rp.")
	cleaned = strings.TrimPrefix(cleaned, "Rp")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	if cleaned == "" || cleaned == "-" {
		return 0, nil
	}

	switch {
	case dottedThousands.MatchString(cleaned):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	case strings.Contains(cleaned, ".") && strings.Contains(cleaned, ","):
		// The separator that comes last is the decimal one
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %s", amountStr)
	}
	return amount.Round(0).IntPart(), nil
}

// ParseFile dispatches on the file extension
func (p *Parser) ParseFile(file io.Reader, filename string) ([]ParsedTransaction, []RowError, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return p.ParseCSV(file)
	case ".xlsx":
		return p.ParseXLSX(file)
	}
	return nil, nil, NewValidationError("file", "unsupported statement type %q, expected .csv or .xlsx", filepath.Ext(filename))
}

// ParseCSV parses a CSV statement
func (p *Parser) ParseCSV(file io.Reader) ([]ParsedTransaction, []RowError, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, NewValidationError("file", "malformed CSV: %v", err)
	}
	return p.parseRows(records)
}

// ParseXLSX parses the first sheet of an XLSX statement
func (p *Parser) ParseXLSX(file io.Reader) ([]ParsedTransaction, []RowError, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, NewValidationError("file", "malformed XLSX: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, NewValidationError("file", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return p.parseRows(rows)
}

func (p *Parser) parseRows(records [][]string) ([]ParsedTransaction, []RowError, error) {
	if len(records) == 0 {
		return nil, nil, NewValidationError("file", "empty file")
	}

	schema, ok := p.DetectSchema(records[0])
	if !ok {
		return nil, nil, ErrUnknownStatement
	}

	headerIndex := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	transactions := []ParsedTransaction{}
	var rowErrors []RowError
	for i, row := range records[1:] {
		rowNum := i + 2 // 1-based, after the header
		if isEmptyRow(row) || isSummaryRow(row) {
			continue
		}
		txn, err := parseRow(row, headerIndex, schema)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		txn.Row = rowNum
		transactions = append(transactions, txn)
	}

	return transactions, rowErrors, nil
}

func cell(row []string, headerIndex map[string]int, column string) string {
	idx, ok := headerIndex[strings.ToLower(column)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseRow(row []string, headerIndex map[string]int, schema StatementSchema) (ParsedTransaction, error) {
	var txn ParsedTransaction

	date, err := ParseDate(cell(row, headerIndex, schema.DateColumn))
	if err != nil {
		return txn, err
	}
	txn.Date = date
	txn.Description = cell(row, headerIndex, schema.DescriptionColumn)
	if schema.CategoryColumn != "" {
		txn.CategoryName = cell(row, headerIndex, schema.CategoryColumn)
	}

	if schema.separateAmounts() {
		debit, err := ParseAmount(cell(row, headerIndex, schema.DebitColumn))
		if err != nil {
			return txn, err
		}
		credit, err := ParseAmount(cell(row, headerIndex, schema.CreditColumn))
		if err != nil {
			return txn, err
		}
		switch {
		case debit > 0:
			txn.Amount = debit
			txn.Type = models.TransactionTypeExpense
		case credit > 0:
			txn.Amount = credit
			txn.Type = models.TransactionTypeIncome
		default:
			return txn, fmt.Errorf("both debit and credit are zero")
		}
		return txn, nil
	}

	amount, err := ParseAmount(cell(row, headerIndex, schema.AmountColumn))
	if err != nil {
		return txn, err
	}
	if amount <= 0 {
		return txn, fmt.Errorf("amount must be greater than 0")
	}
	txn.Amount = amount

	kind := models.TransactionType(cell(row, headerIndex, schema.TypeColumn))
	if !kind.Valid() {
		return txn, fmt.Errorf("invalid type %q, expected %s or %s", kind, models.TransactionTypeIncome, models.TransactionTypeExpense)
	}
	txn.Type = kind
	return txn, nil
}

func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// isSummaryRow spots totals and balance lines, including the totals the
// export appends below the data.
func isSummaryRow(row []string) bool {
	summaryKeywords := []string{"total", "summary", "opening balance", "closing balance", "saldo"}
	for _, field := range row {
		value := strings.ToLower(strings.TrimSpace(field))
		if value == "" {
			continue
		}
		if value == "net" {
			return true
		}
		for _, keyword := range summaryKeywords {
			if strings.HasPrefix(value, keyword) {
				return true
			}
		}
		// Only the first non-empty cell decides
		return false
	}
	return false
}
