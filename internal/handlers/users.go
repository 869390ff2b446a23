package handlers

import (
	"errors"

	"github.com/ashmitsharp/mydaily-api/internal/middleware"
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
)

type UsersHandler struct {
	users repository.Users
}

func NewUsersHandler(users repository.Users) *UsersHandler {
	return &UsersHandler{users: users}
}

type CreateUserRequest struct {
	ClerkUserID string `json:"clerk_user_id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
}

type UpdateUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateUser creates a new user in the database (called by Clerk webhook)
func (h *UsersHandler) CreateUser(c fiber.Ctx) error {
	var req CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	// Validate required fields
	if req.ClerkUserID == "" || req.Email == "" {
		return utils.NewBadRequestError("clerk_user_id and email are required", nil)
	}

	user := &models.User{
		ClerkUserID: req.ClerkUserID,
		Email:       req.Email,
		FullName:    optional(req.FullName),
	}
	if err := h.users.Upsert(c.Context(), user); err != nil {
		return apiError(err)
	}
	return utils.CreatedResponse(c, user)
}

// UpdateUser updates an existing user (called by Clerk webhook)
func (h *UsersHandler) UpdateUser(c fiber.Ctx) error {
	clerkUserID := c.Params("id")
	if clerkUserID == "" {
		return utils.NewBadRequestError("user id is required", nil)
	}

	var req UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user := &models.User{
		ClerkUserID: clerkUserID,
		Email:       req.Email,
		FullName:    optional(req.FullName),
	}
	if err := h.users.UpdateByClerkID(c.Context(), user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError("User")
		}
		return apiError(err)
	}
	return utils.SuccessResponse(c, user)
}

// GetUser returns the signed-in user
func (h *UsersHandler) GetUser(c fiber.Ctx) error {
	user, err := h.users.GetByClerkID(c.Context(), middleware.ClerkUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError("User")
		}
		return apiError(err)
	}
	return utils.SuccessResponse(c, user)
}
