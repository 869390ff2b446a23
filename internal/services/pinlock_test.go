package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePin(t *testing.T) {
	tests := []struct {
		name    string
		pin     string
		pinType models.PinType
		field   string
	}{
		{name: "four digits", pin: "1234", pinType: models.PinTypePin},
		{name: "six digits", pin: "123456", pinType: models.PinTypePin},
		{name: "three digits", pin: "123", pinType: models.PinTypePin, field: "pin"},
		{name: "seven digits", pin: "1234567", pinType: models.PinTypePin, field: "pin"},
		{name: "letters in pin", pin: "12a4", pinType: models.PinTypePin, field: "pin"},
		{name: "arabic-indic digits", pin: "١٢", pinType: models.PinTypePin, field: "pin"},
		{name: "fullwidth digits", pin: "１２３４", pinType: models.PinTypePin, field: "pin"},
		{name: "password", pin: "hunter22", pinType: models.PinTypePassword},
		{name: "short password", pin: "abc", pinType: models.PinTypePassword, field: "pin"},
		{name: "short multibyte password", pin: "ключ", pinType: models.PinTypePassword, field: "pin"},
		{name: "long password", pin: string(make([]byte, 73)), pinType: models.PinTypePassword, field: "pin"},
		{name: "unknown type", pin: "1234", pinType: "pattern", field: "pin_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePin(tt.pin, tt.pinType)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

type pinClock struct{ now time.Time }

func (c *pinClock) Now() time.Time          { return c.now }
func (c *pinClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGate() (*PinGate, *pinClock, repository.SessionStates) {
	states := repository.NewMemory().SessionStates
	clock := &pinClock{now: time.Date(2025, 12, 15, 9, 0, 0, 0, time.UTC)}
	gate := NewPinGate(states, 3, time.Minute)
	gate.SetClock(clock.Now)
	return gate, clock, states
}

func TestPinGate_SetupAndUnlock(t *testing.T) {
	ctx := context.Background()
	gate, _, states := newTestGate()
	userID := uuid.New()

	status, err := gate.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, PinStateNotSet, status.State)
	assert.Equal(t, 3, status.AttemptsRemaining)

	_, err = gate.Submit(ctx, userID, "1234")
	assert.ErrorIs(t, err, ErrPinNotSet)

	status, err = gate.Setup(ctx, userID, "1234", models.PinTypePin)
	require.NoError(t, err)
	assert.Equal(t, PinStateLocked, status.State)
	assert.Equal(t, models.PinTypePin, status.PinType)

	state, err := states.Load(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("1234"), state.PinHash, "the code is stored hashed")

	_, err = gate.Setup(ctx, userID, "5678", models.PinTypePin)
	assert.ErrorIs(t, err, ErrPinAlreadySet)

	status, err = gate.Submit(ctx, userID, "0000")
	assert.ErrorIs(t, err, ErrInvalidPin)
	assert.Equal(t, 1, status.FailedAttempts)
	assert.Equal(t, 2, status.AttemptsRemaining)

	status, err = gate.Submit(ctx, userID, "1234")
	require.NoError(t, err)
	assert.Equal(t, 0, status.FailedAttempts, "a match clears the counter")
	assert.Equal(t, 3, status.AttemptsRemaining)
}

func TestPinGate_Lockout(t *testing.T) {
	ctx := context.Background()
	gate, clock, _ := newTestGate()
	userID := uuid.New()
	_, err := gate.Setup(ctx, userID, "secret-words", models.PinTypePassword)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = gate.Submit(ctx, userID, "wrong-words")
		require.ErrorIs(t, err, ErrInvalidPin)
	}
	status, err := gate.Submit(ctx, userID, "wrong-words")
	require.ErrorIs(t, err, ErrLockedOut)
	assert.Equal(t, PinStateLockout, status.State)
	assert.Equal(t, 60, status.RetryAfterSeconds)
	assert.Equal(t, 0, status.AttemptsRemaining)

	clock.Advance(20 * time.Second)
	status, err = gate.Submit(ctx, userID, "secret-words")
	assert.ErrorIs(t, err, ErrLockedOut, "even the right code waits out the lockout")
	assert.Equal(t, 3, status.FailedAttempts, "attempts during a lockout are not counted")
	assert.Equal(t, 40, status.RetryAfterSeconds)

	clock.Advance(40 * time.Second)
	status, err = gate.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, PinStateLocked, status.State)
	assert.Equal(t, 0, status.FailedAttempts)
	assert.Nil(t, status.LockoutUntil)

	_, err = gate.Submit(ctx, userID, "secret-words")
	assert.NoError(t, err)
}

func TestPinGate_LockoutSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	gate, clock, states := newTestGate()
	userID := uuid.New()
	_, err := gate.Setup(ctx, userID, "1234", models.PinTypePin)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, _ = gate.Submit(ctx, userID, "9999")
	}

	restarted := NewPinGate(states, 3, time.Minute)
	restarted.SetClock(clock.Now)
	status, err := restarted.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, PinStateLockout, status.State)
}

func TestPinGate_Logout(t *testing.T) {
	ctx := context.Background()
	gate, _, states := newTestGate()
	userID := uuid.New()
	_, err := gate.Setup(ctx, userID, "1234", models.PinTypePin)
	require.NoError(t, err)
	_, err = NewSettingsService(states).SetTheme(ctx, userID, models.ThemeDark)
	require.NoError(t, err)
	_, _ = gate.Submit(ctx, userID, "9999")

	require.NoError(t, gate.Logout(ctx, userID))

	status, err := gate.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, PinStateNotSet, status.State)
	assert.Equal(t, 0, status.FailedAttempts)

	state, err := states.Load(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, state.Theme)

	_, err = gate.Setup(ctx, userID, "4321", models.PinTypePin)
	assert.NoError(t, err, "a new code can be set after logout")
}

func TestNewPinGate_Defaults(t *testing.T) {
	gate := NewPinGate(repository.NewMemory().SessionStates, 0, 0)
	assert.Equal(t, DefaultPinMaxAttempts, gate.maxAttempts)
	assert.Equal(t, DefaultPinLockout, gate.lockout)
}
