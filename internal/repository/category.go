package repository

import (
	"context"

	"github.com/ashmitsharp/mydaily-api/internal/database"
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
)

type CategoryRepository struct {
	db *database.DB
}

func NewCategoryRepository(db *database.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO categories (id, user_id, name, type, color)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		category.ID, category.UserID, category.Name, category.Type, category.Color,
	).Scan(&category.CreatedAt)
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, name, type, color, created_at
		 FROM categories WHERE user_id = $1 ORDER BY type ASC, name ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Color, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE categories SET name = $1, color = $2 WHERE id = $3 AND user_id = $4`,
		category.Name, category.Color, category.ID, category.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`,
		categoryID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
