package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/middleware"
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/services"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// PinGate defines the interface for the onboarding PIN lock
type PinGate interface {
	Setup(ctx context.Context, userID uuid.UUID, pin string, pinType models.PinType) (*services.PinStatus, error)
	Status(ctx context.Context, userID uuid.UUID) (*services.PinStatus, error)
	Submit(ctx context.Context, userID uuid.UUID, pin string) (*services.PinStatus, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

// UnlockIssuer hands out the token that passes RequireUnlock
type UnlockIssuer interface {
	Issue(userID uuid.UUID, sessionID string) (string, time.Time, error)
}

// WorkspaceSignOut drops the server-held state of a user
type WorkspaceSignOut interface {
	SignOut(userID uuid.UUID)
}

type PinHandler struct {
	gate       PinGate
	tokens     UnlockIssuer
	sessions   services.SessionRevoker
	workspaces WorkspaceSignOut
}

func NewPinHandler(gate PinGate, tokens UnlockIssuer, sessions services.SessionRevoker, workspaces WorkspaceSignOut) *PinHandler {
	return &PinHandler{
		gate:       gate,
		tokens:     tokens,
		sessions:   sessions,
		workspaces: workspaces,
	}
}

type SetupPinRequest struct {
	Pin     string         `json:"pin"`
	PinType models.PinType `json:"pin_type"`
}

type UnlockRequest struct {
	Pin string `json:"pin"`
}

type UnlockResponse struct {
	Status    *services.PinStatus `json:"status"`
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// GetStatus handles GET /v1/pin
func (h *PinHandler) GetStatus(c fiber.Ctx) error {
	status, err := h.gate.Status(c.Context(), middleware.UserID(c))
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, status)
}

// Setup handles POST /v1/pin/setup. The new PIN also unlocks the session.
func (h *PinHandler) Setup(c fiber.Ctx) error {
	var req SetupPinRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	userID := middleware.UserID(c)
	status, err := h.gate.Setup(c.Context(), userID, req.Pin, req.PinType)
	if err != nil {
		return apiError(err)
	}
	resp, err := h.unlocked(c, userID, status)
	if err != nil {
		return err
	}
	return utils.CreatedResponse(c, resp)
}

// Unlock handles POST /v1/pin/unlock
func (h *PinHandler) Unlock(c fiber.Ctx) error {
	var req UnlockRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	userID := middleware.UserID(c)
	status, err := h.gate.Submit(c.Context(), userID, req.Pin)
	switch {
	case errors.Is(err, services.ErrLockedOut):
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(status.RetryAfterSeconds))
		return utils.NewLockedError(err.Error(), status)
	case errors.Is(err, services.ErrInvalidPin):
		apiErr := utils.NewUnauthorizedError(err.Error())
		apiErr.Details = status
		return apiErr
	case err != nil:
		return apiError(err)
	}
	resp, err := h.unlocked(c, userID, status)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, resp)
}

func (h *PinHandler) unlocked(c fiber.Ctx, userID uuid.UUID, status *services.PinStatus) (*UnlockResponse, error) {
	token, expires, err := h.tokens.Issue(userID, middleware.SessionID(c))
	if err != nil {
		return nil, apiError(err)
	}
	return &UnlockResponse{Status: status, Token: token, ExpiresAt: expires}, nil
}

// Logout handles POST /v1/pin/logout. It forgets the PIN, ends the Clerk
// session and drops the workspace. The theme survives.
func (h *PinHandler) Logout(c fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := h.gate.Logout(c.Context(), userID); err != nil {
		return apiError(err)
	}
	if err := h.sessions.Revoke(c.Context(), middleware.SessionID(c)); err != nil {
		log.Printf("logout: %v", err)
	}
	h.workspaces.SignOut(userID)
	return c.SendStatus(fiber.StatusNoContent)
}
