package repository

import (
	"context"

	"github.com/ashmitsharp/mydaily-api/internal/database"
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
)

type TransactionRepository struct {
	db *database.DB
}

func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO transactions (id, user_id, account_id, category_id, amount, type, date, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		txn.ID, txn.UserID, txn.AccountID, txn.CategoryID, txn.Amount, txn.Type, txn.Date, txn.Description,
	).Scan(&txn.CreatedAt)
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, account_id, category_id, amount, type, date, description, created_at
		 FROM transactions WHERE user_id = $1 ORDER BY date DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &t.Amount,
			&t.Type, &t.Date, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *TransactionRepository) Update(ctx context.Context, txn *models.Transaction) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE transactions
		 SET account_id = $1, category_id = $2, amount = $3, type = $4, date = $5, description = $6
		 WHERE id = $7 AND user_id = $8`,
		txn.AccountID, txn.CategoryID, txn.Amount, txn.Type, txn.Date, txn.Description, txn.ID, txn.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, userID, txnID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`,
		txnID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
