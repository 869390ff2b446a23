package repository

import (
	"context"

	"github.com/ashmitsharp/mydaily-api/internal/database"
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
)

type AccountRepository struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO accounts (id, user_id, name, type, balance)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		account.ID, account.UserID, account.Name, account.Type, account.Balance,
	).Scan(&account.CreatedAt)
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, name, type, balance, created_at
		 FROM accounts WHERE user_id = $1 ORDER BY created_at ASC, name ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET name = $1, type = $2, balance = $3
		 WHERE id = $4 AND user_id = $5`,
		account.Name, account.Type, account.Balance, account.ID, account.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, userID, accountID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM accounts WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
