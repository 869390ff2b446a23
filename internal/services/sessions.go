package services

import (
	"context"
	"fmt"

	"github.com/clerk/clerk-sdk-go/v2/session"
)

// SessionRevoker ends an identity provider session
type SessionRevoker interface {
	Revoke(ctx context.Context, sessionID string) error
}

// ClerkSessions revokes Clerk sessions. clerk.SetKey must be called first.
type ClerkSessions struct{}

func (ClerkSessions) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if _, err := session.Revoke(ctx, &session.RevokeParams{ID: sessionID}); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
