package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/database"
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SessionStateRepository struct {
	db *database.DB
}

func NewSessionStateRepository(db *database.DB) *SessionStateRepository {
	return &SessionStateRepository{db: db}
}

// Load returns the stored state, or a fresh default state when the user has
// never saved one.
func (r *SessionStateRepository) Load(ctx context.Context, userID uuid.UUID) (*models.SessionState, error) {
	state := &models.SessionState{UserID: userID}
	var pinType, theme string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT pin_hash, pin_type, failed_attempts, lockout_until, theme, updated_at
		 FROM session_states WHERE user_id = $1`,
		userID,
	).Scan(&state.PinHash, &pinType, &state.FailedAttempts, &state.LockoutUntil, &theme, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewSessionState(userID), nil
	}
	if err != nil {
		return nil, err
	}
	state.PinType = models.PinType(pinType)
	state.Theme = models.Theme(theme)
	return state, nil
}

func (r *SessionStateRepository) Save(ctx context.Context, state *models.SessionState) error {
	state.UpdatedAt = time.Now()
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO session_states (user_id, pin_hash, pin_type, failed_attempts, lockout_until, theme, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE
		 SET pin_hash = EXCLUDED.pin_hash,
		     pin_type = EXCLUDED.pin_type,
		     failed_attempts = EXCLUDED.failed_attempts,
		     lockout_until = EXCLUDED.lockout_until,
		     theme = EXCLUDED.theme,
		     updated_at = EXCLUDED.updated_at`,
		state.UserID, state.PinHash, string(state.PinType), state.FailedAttempts, state.LockoutUntil,
		string(state.Theme), state.UpdatedAt,
	)
	return err
}
