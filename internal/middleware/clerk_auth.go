package middleware

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/ashmitsharp/mydaily-api/internal/workspace"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// Locals keys set by ClerkAuth
const (
	LocalUserID      = "user_id"
	LocalClerkUserID = "clerk_user_id"
	LocalSessionID   = "session_id"
	LocalWorkspace   = "workspace"
)

// SessionClaims is the part of a verified session token the API uses
type SessionClaims struct {
	Subject   string
	SessionID string
}

// SessionVerifier checks a bearer token
type SessionVerifier func(ctx context.Context, token string) (*SessionClaims, error)

// ClerkVerifier verifies Clerk session JWTs. clerk.SetKey must be called first.
func ClerkVerifier() SessionVerifier {
	return func(ctx context.Context, token string) (*SessionClaims, error) {
		claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
		if err != nil {
			return nil, err
		}
		return &SessionClaims{Subject: claims.Subject, SessionID: claims.SessionID}, nil
	}
}

type AuthConfig struct {
	Verify     SessionVerifier
	Users      repository.Users
	Workspaces *workspace.Manager
	// Timeout bounds the session check
	Timeout time.Duration
}

// ClerkAuth validates the session token, resolves the local user and attaches
// the user's workspace to the request.
func ClerkAuth(cfg AuthConfig) fiber.Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing authorization token")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid authorization header format")
		}

		ctx, cancel := context.WithTimeout(c.Context(), cfg.Timeout)
		defer cancel()

		claims, err := cfg.Verify(ctx, token)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Session check timed out")
			}
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		user, err := resolveUser(ctx, cfg.Users, claims.Subject)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Session check timed out")
			}
			log.Printf("auth: resolve user %s: %v", claims.Subject, err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load user")
		}

		ws := cfg.Workspaces.Open(workspace.Principal{
			UserID:      user.ID,
			ClerkUserID: claims.Subject,
			SessionID:   claims.SessionID,
		})

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalClerkUserID, claims.Subject)
		c.Locals(LocalSessionID, claims.SessionID)
		c.Locals(LocalWorkspace, ws)

		return c.Next()
	}
}

// resolveUser maps a Clerk identity to the local user, creating it when the
// signup webhook has not arrived yet.
func resolveUser(ctx context.Context, users repository.Users, clerkUserID string) (*models.User, error) {
	user, err := users.GetByClerkID(ctx, clerkUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	user = &models.User{ClerkUserID: clerkUserID}
	if err := users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UserID returns the local user id set by ClerkAuth
func UserID(c fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(LocalUserID).(uuid.UUID)
	return id
}

func ClerkUserID(c fiber.Ctx) string {
	id, _ := c.Locals(LocalClerkUserID).(string)
	return id
}

func SessionID(c fiber.Ctx) string {
	id, _ := c.Locals(LocalSessionID).(string)
	return id
}

// Workspace returns the signed-in user's workspace, or nil outside ClerkAuth
func Workspace(c fiber.Ctx) *workspace.Workspace {
	ws, _ := c.Locals(LocalWorkspace).(*workspace.Workspace)
	return ws
}
