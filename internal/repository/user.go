package repository

import (
	"context"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/database"
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates the user for a Clerk identity or refreshes its profile
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (id, clerk_user_id, email, full_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (clerk_user_id) DO UPDATE
		 SET email = EXCLUDED.email,
		     full_name = EXCLUDED.full_name,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at, updated_at`,
		user.ID, user.ClerkUserID, user.Email, user.FullName, now,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) UpdateByClerkID(ctx context.Context, user *models.User) error {
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE users SET email = $1, full_name = $2, updated_at = $3
		 WHERE clerk_user_id = $4
		 RETURNING id, created_at, updated_at`,
		user.Email, user.FullName, time.Now(), user.ClerkUserID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return notFound(err)
}

func (r *UserRepository) GetByClerkID(ctx context.Context, clerkUserID string) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, clerk_user_id, email, full_name, created_at, updated_at
		 FROM users WHERE clerk_user_id = $1`,
		clerkUserID,
	).Scan(&user.ID, &user.ClerkUserID, &user.Email, &user.FullName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}
