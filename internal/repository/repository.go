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

// ErrNotFound is returned when a row does not exist or belongs to another user
var ErrNotFound = errors.New("record not found")

// Collection is the owner-scoped CRUD surface shared by accounts, categories,
// transactions, tasks and notes.
type Collection[T any] interface {
	Create(ctx context.Context, row *T) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]T, error)
	Update(ctx context.Context, row *T) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type Users interface {
	Upsert(ctx context.Context, user *models.User) error
	UpdateByClerkID(ctx context.Context, user *models.User) error
	GetByClerkID(ctx context.Context, clerkUserID string) (*models.User, error)
}

type Attachments interface {
	Create(ctx context.Context, a *models.Attachment) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Attachment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Attachment, error)
	ListByOwner(ctx context.Context, userID uuid.UUID, owner models.Owner) ([]models.Attachment, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, userID uuid.UUID, owner models.Owner) error
}

type SessionStates interface {
	Load(ctx context.Context, userID uuid.UUID) (*models.SessionState, error)
	Save(ctx context.Context, state *models.SessionState) error
}

// Store groups the repositories of every owner-scoped collection
type Store struct {
	Users         Users
	Accounts      Collection[models.Account]
	Categories    Collection[models.Category]
	Transactions  Collection[models.Transaction]
	Tasks         Collection[models.Task]
	Notes         Collection[models.Note]
	Attachments   Attachments
	SessionStates SessionStates
}

// New returns a Store backed by Postgres
func New(db *database.DB) *Store {
	return &Store{
		Users:         NewUserRepository(db),
		Accounts:      NewAccountRepository(db),
		Categories:    NewCategoryRepository(db),
		Transactions:  NewTransactionRepository(db),
		Tasks:         NewTaskRepository(db),
		Notes:         NewNoteRepository(db),
		Attachments:   NewAttachmentRepository(db),
		SessionStates: NewSessionStateRepository(db),
	}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
