package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UnlockHeader carries the token issued by a successful PIN unlock
const UnlockHeader = "X-Unlock-Token"

var ErrInvalidUnlockToken = errors.New("invalid unlock token")

type unlockClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// UnlockTokens issues and checks the short-lived tokens that prove the PIN
// gate was passed in the current Clerk session.
type UnlockTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewUnlockTokens(secret string, ttl time.Duration) *UnlockTokens {
	return &UnlockTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (u *UnlockTokens) Issue(userID uuid.UUID, sessionID string) (string, time.Time, error) {
	now := u.now()
	expires := now.Add(u.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, unlockClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(u.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign unlock token: %w", err)
	}
	return signed, expires, nil
}

// Verify accepts only tokens for this user and this session
func (u *UnlockTokens) Verify(tokenString string, userID uuid.UUID, sessionID string) error {
	claims := &unlockClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(u.now),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return u.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUnlockToken, err)
	}
	if claims.Subject != userID.String() || claims.SessionID != sessionID {
		return ErrInvalidUnlockToken
	}
	return nil
}

// RequireUnlock rejects requests without a valid unlock token with 423
func RequireUnlock(tokens *UnlockTokens) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := c.Get(UnlockHeader)
		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusLocked, "PIN unlock required")
		}
		if err := tokens.Verify(token, UserID(c), SessionID(c)); err != nil {
			return utils.ErrorResponse(c, fiber.StatusLocked, "PIN unlock required")
		}
		return c.Next()
	}
}
