package repository

import (
	"context"

	"github.com/ashmitsharp/mydaily-api/internal/database"
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
)

type TaskRepository struct {
	db *database.DB
}

func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO tasks (id, user_id, title, deadline, status, completed, completed_at,
		                    category_id, description, completion_note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		task.ID, task.UserID, task.Title, task.Deadline, task.Status, task.Completed, task.CompletedAt,
		task.CategoryID, task.Description, task.CompletionNote,
	).Scan(&task.CreatedAt)
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, title, deadline, status, completed, completed_at,
		        category_id, description, completion_note, created_at
		 FROM tasks WHERE user_id = $1 ORDER BY deadline ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Deadline, &t.Status, &t.Completed,
			&t.CompletedAt, &t.CategoryID, &t.Description, &t.CompletionNote, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE tasks
		 SET title = $1, deadline = $2, status = $3, completed = $4, completed_at = $5,
		     category_id = $6, description = $7, completion_note = $8
		 WHERE id = $9 AND user_id = $10`,
		task.Title, task.Deadline, task.Status, task.Completed, task.CompletedAt,
		task.CategoryID, task.Description, task.CompletionNote, task.ID, task.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
