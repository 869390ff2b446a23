package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPinNotSet     = errors.New("pin has not been set up")
	ErrPinAlreadySet = errors.New("pin is already set up")
	ErrInvalidPin    = errors.New("incorrect pin")
	ErrLockedOut     = errors.New("too many failed attempts, try again later")
)

const (
	DefaultPinMaxAttempts = 5
	DefaultPinLockout     = 30 * time.Second
)

type PinState string

const (
	PinStateNotSet  PinState = "not_set"
	PinStateLocked  PinState = "locked"
	PinStateLockout PinState = "lockout"
)

// PinStatus is what the lock screen needs to render
type PinStatus struct {
	State             PinState       `json:"state"`
	PinType           models.PinType `json:"pin_type,omitempty"`
	FailedAttempts    int            `json:"failed_attempts"`
	AttemptsRemaining int            `json:"attempts_remaining"`
	RetryAfterSeconds int            `json:"retry_after_seconds"`
	LockoutUntil      *time.Time     `json:"lockout_until,omitempty"`
}

// PinGate guards the data routes behind the onboarding PIN. Attempts and the
// lockout deadline live in the persisted SessionState.
type PinGate struct {
	mu          sync.Mutex
	states      repository.SessionStates
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
}

func NewPinGate(states repository.SessionStates, maxAttempts int, lockout time.Duration) *PinGate {
	if maxAttempts < 1 {
		maxAttempts = DefaultPinMaxAttempts
	}
	if lockout <= 0 {
		lockout = DefaultPinLockout
	}
	return &PinGate{
		states:      states,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

// SetClock replaces the time source
func (g *PinGate) SetClock(now func() time.Time) {
	g.now = now
}

// ValidatePin checks the credential format for its type
func ValidatePin(pin string, pinType models.PinType) error {
	switch pinType {
	case models.PinTypePin:
		if len(pin) < 4 || len(pin) > 6 {
			return NewValidationError("pin", "must be 4 to 6 digits")
		}
		for _, r := range pin {
			if r < '0' || r > '9' {
				return NewValidationError("pin", "must contain digits only")
			}
		}
	case models.PinTypePassword:
		if utf8.RuneCountInString(pin) < 6 {
			return NewValidationError("pin", "password must be at least 6 characters")
		}
		if len(pin) > 72 {
			return NewValidationError("pin", "password must be at most 72 bytes")
		}
	default:
		return NewValidationError("pin_type", "must be pin or password")
	}
	return nil
}

// Setup stores the onboarding credential
func (g *PinGate) Setup(ctx context.Context, userID uuid.UUID, pin string, pinType models.PinType) (*PinStatus, error) {
	if err := ValidatePin(pin, pinType); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.states.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	if state.HasPin() {
		return nil, ErrPinAlreadySet
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}
	state.PinHash = hash
	state.PinType = pinType
	state.FailedAttempts = 0
	state.LockoutUntil = nil
	if err := g.states.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save session state: %w", err)
	}
	return g.status(state), nil
}

// Status reports the gate state, ending an expired lockout
func (g *PinGate) Status(ctx context.Context, userID uuid.UUID) (*PinStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return g.status(state), nil
}

// Submit checks a code. A match clears the counter. A mismatch counts towards
// the lockout. Submissions during a lockout are rejected without counting.
func (g *PinGate) Submit(ctx context.Context, userID uuid.UUID, pin string) (*PinStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !state.HasPin() {
		return g.status(state), ErrPinNotSet
	}
	if g.lockedOut(state) {
		return g.status(state), ErrLockedOut
	}

	if bcrypt.CompareHashAndPassword(state.PinHash, []byte(pin)) == nil {
		if state.FailedAttempts != 0 {
			state.FailedAttempts = 0
			if err := g.states.Save(ctx, state); err != nil {
				return nil, fmt.Errorf("save session state: %w", err)
			}
		}
		return g.status(state), nil
	}

	state.FailedAttempts = min(state.FailedAttempts+1, g.maxAttempts)
	if state.FailedAttempts >= g.maxAttempts {
		until := g.now().Add(g.lockout)
		state.LockoutUntil = &until
	}
	if err := g.states.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save session state: %w", err)
	}
	if state.LockoutUntil != nil {
		return g.status(state), ErrLockedOut
	}
	return g.status(state), ErrInvalidPin
}

// Logout forgets the credential and the lockout. The theme is kept.
func (g *PinGate) Logout(ctx context.Context, userID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.states.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("load session state: %w", err)
	}
	state.PinHash = nil
	state.PinType = ""
	state.FailedAttempts = 0
	state.LockoutUntil = nil
	if err := g.states.Save(ctx, state); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

// load reads the state and resets the counter once a lockout has run out
func (g *PinGate) load(ctx context.Context, userID uuid.UUID) (*models.SessionState, error) {
	state, err := g.states.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	if state.LockoutUntil != nil && !g.now().Before(*state.LockoutUntil) {
		state.LockoutUntil = nil
		state.FailedAttempts = 0
		if err := g.states.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("save session state: %w", err)
		}
	}
	return state, nil
}

func (g *PinGate) lockedOut(state *models.SessionState) bool {
	return state.LockoutUntil != nil && g.now().Before(*state.LockoutUntil)
}

func (g *PinGate) status(state *models.SessionState) *PinStatus {
	st := &PinStatus{
		State:             PinStateLocked,
		PinType:           state.PinType,
		FailedAttempts:    state.FailedAttempts,
		AttemptsRemaining: max(g.maxAttempts-state.FailedAttempts, 0),
	}
	switch {
	case !state.HasPin():
		st.State = PinStateNotSet
		st.AttemptsRemaining = g.maxAttempts
	case g.lockedOut(state):
		st.State = PinStateLockout
		st.LockoutUntil = state.LockoutUntil
		st.RetryAfterSeconds = int(math.Ceil(state.LockoutUntil.Sub(g.now()).Seconds()))
	}
	return st
}
