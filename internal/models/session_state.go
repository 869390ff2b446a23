package models

import (
	"time"

	"github.com/google/uuid"
)

type PinType string

const (
	PinTypePin      PinType = "pin"
	PinTypePassword PinType = "password"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// SessionState is the per-user client state that used to live in browser
// storage: the onboarding PIN, lockout counters and the theme preference.
type SessionState struct {
	UserID         uuid.UUID  `json:"user_id"`
	PinHash        []byte     `json:"-"`
	PinType        PinType    `json:"pin_type,omitempty"`
	FailedAttempts int        `json:"failed_attempts"`
	LockoutUntil   *time.Time `json:"lockout_until,omitempty"`
	Theme          Theme      `json:"theme"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (s *SessionState) HasPin() bool {
	return len(s.PinHash) > 0
}

// NewSessionState returns the state of a user that has not onboarded yet.
func NewSessionState(userID uuid.UUID) *SessionState {
	return &SessionState{
		UserID: userID,
		Theme:  ThemeLight,
	}
}
