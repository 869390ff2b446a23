package handlers

import (
	"context"

	"github.com/ashmitsharp/mydaily-api/internal/middleware"
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ThemeStore interface {
	Theme(ctx context.Context, userID uuid.UUID) (models.Theme, error)
	SetTheme(ctx context.Context, userID uuid.UUID, theme models.Theme) (models.Theme, error)
}

type SettingsHandler struct {
	themes ThemeStore
}

func NewSettingsHandler(themes ThemeStore) *SettingsHandler {
	return &SettingsHandler{themes: themes}
}

type ThemeRequest struct {
	Theme models.Theme `json:"theme"`
}

// GetTheme handles GET /v1/settings/theme
func (h *SettingsHandler) GetTheme(c fiber.Ctx) error {
	theme, err := h.themes.Theme(c.Context(), middleware.UserID(c))
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, fiber.Map{"theme": theme})
}

// SetTheme handles PUT /v1/settings/theme
func (h *SettingsHandler) SetTheme(c fiber.Ctx) error {
	var req ThemeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	theme, err := h.themes.SetTheme(c.Context(), middleware.UserID(c), req.Theme)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, fiber.Map{"theme": theme})
}
