package handlers

import (
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
)

// AccountHandler handles account requests
type AccountHandler struct{}

func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

type CreateAccountRequest struct {
	Name    string             `json:"name"`
	Type    models.AccountType `json:"type"`
	Balance int64              `json:"balance"`
}

// ListAccounts handles GET /v1/accounts
func (h *AccountHandler) ListAccounts(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	accounts, err := ws.Accounts(c.Context())
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, accounts)
}

// CreateAccount handles POST /v1/accounts
func (h *AccountHandler) CreateAccount(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	var req CreateAccountRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	account, err := ws.CreateAccount(c.Context(), models.Account{
		Name:    req.Name,
		Type:    req.Type,
		Balance: req.Balance,
	})
	if err != nil {
		return apiError(err)
	}
	return utils.CreatedResponse(c, account)
}

// UpdateAccount handles PUT /v1/accounts/:id
func (h *AccountHandler) UpdateAccount(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var patch models.AccountPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}
	account, err := ws.UpdateAccount(c.Context(), id, patch)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, account)
}

// DeleteAccount handles DELETE /v1/accounts/:id. Accounts still referenced
// by transactions are refused.
func (h *AccountHandler) DeleteAccount(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := ws.DeleteAccount(c.Context(), id); err != nil {
		return apiError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
