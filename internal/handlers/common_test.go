package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/ashmitsharp/mydaily-api/internal/services"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/ashmitsharp/mydaily-api/internal/workspace"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "validation", err: services.NewValidationError("name", "is required"), wantStatus: fiber.StatusBadRequest, wantCode: "BAD_REQUEST"},
		{name: "wrapped not found", err: fmt.Errorf("load task: %w", repository.ErrNotFound), wantStatus: fiber.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "signed out", err: workspace.ErrNoIdentity, wantStatus: fiber.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "contended fetch", err: fmt.Errorf("accounts: %w", workspace.ErrFetchContended), wantStatus: fiber.StatusServiceUnavailable, wantCode: "UNAVAILABLE"},
		{name: "pin already set", err: services.ErrPinAlreadySet, wantStatus: fiber.StatusConflict, wantCode: "CONFLICT"},
		{name: "unknown", err: errors.New("disk full"), wantStatus: fiber.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var apiErr *utils.APIError
			require.True(t, errors.As(apiError(tc.err), &apiErr))
			assert.Equal(t, tc.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tc.wantCode, apiErr.Code)
		})
	}
}
