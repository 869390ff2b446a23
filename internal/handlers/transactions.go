package handlers

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/services"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var transactionFilters = []string{"type", "account_id", "category_id"}

// Parser interface defines methods for parsing statement files
type Parser interface {
	ParseFile(file io.Reader, filename string) ([]services.ParsedTransaction, []services.RowError, error)
}

// TransactionHandler handles transaction requests
type TransactionHandler struct {
	parser   Parser
	location *time.Location
	now      func() time.Time
}

// NewTransactionHandler creates a new transaction handler. Months are
// interpreted in loc.
func NewTransactionHandler(parser Parser, loc *time.Location) *TransactionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionHandler{parser: parser, location: loc, now: time.Now}
}

type CreateTransactionRequest struct {
	AccountID   uuid.UUID              `json:"account_id"`
	CategoryID  uuid.UUID              `json:"category_id"`
	Amount      int64                  `json:"amount"`
	Type        models.TransactionType `json:"type"`
	Date        Date                   `json:"date"`
	Description string                 `json:"description"`
}

type UpdateTransactionRequest struct {
	AccountID   *uuid.UUID              `json:"account_id"`
	CategoryID  *uuid.UUID              `json:"category_id"`
	Amount      *int64                  `json:"amount"`
	Type        *models.TransactionType `json:"type"`
	Date        *Date                   `json:"date"`
	Description *string                 `json:"description"`
}

// GetTransactions returns the remembered transaction list after applying the
// query parameters.
// GET /v1/transactions?search=&type=&account_id=&category_id=&sort=date|amount&order=&view=card|list&page=&page_size=
func (h *TransactionHandler) GetTransactions(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	result, state, err := ws.ListTransactions(c.Context(), listUpdate(c, transactionFilters...))
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, listPayload[services.TransactionRow]{ListResult: result, State: state})
}

// GetTransaction handles GET /v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	txn, err := ws.Transaction(c.Context(), id)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, txn)
}

// CreateTransaction handles POST /v1/transactions. Staged attachments are
// committed to the new transaction.
func (h *TransactionHandler) CreateTransaction(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	var req CreateTransactionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	saved, err := ws.CreateTransaction(c.Context(), models.Transaction{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Type:        req.Type,
		Date:        req.Date.Time,
		Description: req.Description,
	})
	if err != nil {
		return apiError(err)
	}
	return savedResponse(c, saved)
}

// UpdateTransaction handles PUT /v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateTransactionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	txn, err := ws.UpdateTransaction(c.Context(), id, models.TransactionPatch{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Type:        req.Type,
		Date:        req.Date.ptr(),
		Description: req.Description,
	})
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, txn)
}

// DeleteTransaction handles DELETE /v1/transactions/:id together with its
// attachments.
func (h *TransactionHandler) DeleteTransaction(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := ws.DeleteTransaction(c.Context(), id); err != nil {
		return apiError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExportTransactions streams one month of transactions as an XLSX workbook.
// The search and filter parameters of the list endpoint apply.
// GET /v1/transactions/export?month=YYYY-MM
func (h *TransactionHandler) ExportTransactions(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}

	month := c.Query("month", h.now().In(h.location).Format("2006-01"))
	start, end, err := services.ParseMonth(month, h.location)
	if err != nil {
		return apiError(err)
	}

	rows, err := ws.TransactionRows(c.Context())
	if err != nil {
		return apiError(err)
	}
	query := services.ListQuery{
		Search:  c.Query("search"),
		Filters: map[string]string{},
		Sort:    "date",
		Order:   services.SortAsc,
	}
	for _, name := range transactionFilters {
		query.Filters[name] = c.Query(name)
	}
	rows = services.FilterMonth(services.TransactionList.Apply(rows, query), start, end)

	workbook, err := services.ExportTransactionsXLSX(rows)
	if err != nil {
		return apiError(err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="transactions-%s.xlsx"`, month))
	return c.Send(workbook)
}

// ImportTransactions handles POST /v1/transactions/import?account_id= with a
// multipart CSV or XLSX "file". Rows that cannot be parsed or validated are
// reported and skipped.
func (h *TransactionHandler) ImportTransactions(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	accountID, err := uuid.Parse(c.Query("account_id"))
	if err != nil {
		return utils.NewBadRequestError("account_id is required", nil)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return utils.NewBadRequestError("file is required", nil)
	}
	file, err := fh.Open()
	if err != nil {
		return apiError(fmt.Errorf("open %s: %w", fh.Filename, err))
	}
	defer file.Close()

	parsed, rowErrors, err := h.parser.ParseFile(file, fh.Filename)
	if errors.Is(err, services.ErrUnknownStatement) {
		return utils.NewBadRequestError("unknown statement format", fiber.Map{
			"expected": "Date, Type, Category, Description, Amount or Date, Description, Debit, Credit",
		})
	}
	if err != nil {
		return apiError(err)
	}

	result, err := ws.ImportTransactions(c.Context(), accountID, parsed)
	if err != nil {
		return apiError(err)
	}
	result.Errors = append(result.Errors, rowErrors...)
	slices.SortFunc(result.Errors, func(a, b services.RowError) int { return a.Row - b.Row })

	if len(result.Imported) == 0 {
		return utils.SuccessResponse(c, result)
	}
	return utils.CreatedResponse(c, result)
}
