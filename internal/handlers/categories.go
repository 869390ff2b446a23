package handlers

import (
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
)

type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

type CreateCategoryRequest struct {
	Name  string              `json:"name"`
	Type  models.CategoryType `json:"type"`
	Color string              `json:"color"`
}

// ListCategories handles GET /v1/categories?type=transaction|task|note
func (h *CategoryHandler) ListCategories(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	kind := models.CategoryType(c.Query("type"))
	if kind != "" && !kind.Valid() {
		return utils.NewBadRequestError("type must be transaction, task or note", nil)
	}
	categories, err := ws.Categories(c.Context(), kind)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, categories)
}

// CreateCategory handles POST /v1/categories
func (h *CategoryHandler) CreateCategory(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	var req CreateCategoryRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	category, err := ws.CreateCategory(c.Context(), models.Category{
		Name:  req.Name,
		Type:  req.Type,
		Color: req.Color,
	})
	if err != nil {
		return apiError(err)
	}
	return utils.CreatedResponse(c, category)
}

// UpdateCategory handles PUT /v1/categories/:id. The type is fixed at creation.
func (h *CategoryHandler) UpdateCategory(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var patch models.CategoryPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}
	category, err := ws.UpdateCategory(c.Context(), id, patch)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, category)
}

// DeleteCategory handles DELETE /v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := ws.DeleteCategory(c.Context(), id); err != nil {
		return apiError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
