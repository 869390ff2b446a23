package repository

import (
	"context"
	"fmt"

	"github.com/ashmitsharp/mydaily-api/internal/database"
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AttachmentRepository struct {
	db *database.DB
}

func NewAttachmentRepository(db *database.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

const attachmentColumns = `id, user_id, attachable_type, attachable_id, name, type, url, path, size, created_at`

func (r *AttachmentRepository) Create(ctx context.Context, a *models.Attachment) error {
	if a.Owner == nil {
		return fmt.Errorf("attachment owner is required")
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO attachments (id, user_id, attachable_type, attachable_id, name, type, url, path, size)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		a.ID, a.UserID, a.Owner.Kind(), a.Owner.OwnerID(), a.Name, a.Type, a.URL, a.Path, a.Size,
	).Scan(&a.CreatedAt)
}

func (r *AttachmentRepository) GetByID(ctx context.Context, userID, attachmentID uuid.UUID) (*models.Attachment, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE id = $1 AND user_id = $2`,
		attachmentID, userID,
	)
	if err != nil {
		return nil, err
	}
	list, err := scanAttachments(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

func (r *AttachmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Attachment, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return scanAttachments(rows)
}

func (r *AttachmentRepository) ListByOwner(ctx context.Context, userID uuid.UUID, owner models.Owner) ([]models.Attachment, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+attachmentColumns+` FROM attachments
		 WHERE user_id = $1 AND attachable_type = $2 AND attachable_id = $3
		 ORDER BY created_at ASC`,
		userID, owner.Kind(), owner.OwnerID(),
	)
	if err != nil {
		return nil, err
	}
	return scanAttachments(rows)
}

func (r *AttachmentRepository) Delete(ctx context.Context, userID, attachmentID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM attachments WHERE id = $1 AND user_id = $2`,
		attachmentID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AttachmentRepository) DeleteByOwner(ctx context.Context, userID uuid.UUID, owner models.Owner) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM attachments WHERE user_id = $1 AND attachable_type = $2 AND attachable_id = $3`,
		userID, owner.Kind(), owner.OwnerID(),
	)
	return err
}

func scanAttachments(rows pgx.Rows) ([]models.Attachment, error) {
	defer rows.Close()

	var list []models.Attachment
	for rows.Next() {
		var (
			a         models.Attachment
			ownerType string
			ownerID   uuid.UUID
		)
		if err := rows.Scan(&a.ID, &a.UserID, &ownerType, &ownerID, &a.Name, &a.Type,
			&a.URL, &a.Path, &a.Size, &a.CreatedAt); err != nil {
			return nil, err
		}
		owner, err := models.OwnerFromParts(ownerType, ownerID)
		if err != nil {
			return nil, err
		}
		a.Owner = owner
		list = append(list, a)
	}
	return list, rows.Err()
}
