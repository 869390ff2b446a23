package repository

import (
	"context"

	"github.com/ashmitsharp/mydaily-api/internal/database"
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
)

type NoteRepository struct {
	db *database.DB
}

func NewNoteRepository(db *database.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO notes (id, user_id, title, content, timestamp, pinned, category_id)
		 VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), $6, $7)
		 RETURNING timestamp`,
		note.ID, note.UserID, note.Title, note.Content, nullTime(note.Timestamp), note.Pinned, note.CategoryID,
	).Scan(&note.Timestamp)
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Note, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, title, content, timestamp, pinned, category_id
		 FROM notes WHERE user_id = $1 ORDER BY pinned DESC, timestamp DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Timestamp, &n.Pinned, &n.CategoryID); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *NoteRepository) Update(ctx context.Context, note *models.Note) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE notes SET title = $1, content = $2, pinned = $3, category_id = $4, timestamp = $5
		 WHERE id = $6 AND user_id = $7`,
		note.Title, note.Content, note.Pinned, note.CategoryID, note.Timestamp, note.ID, note.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, userID, noteID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM notes WHERE id = $1 AND user_id = $2`,
		noteID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
