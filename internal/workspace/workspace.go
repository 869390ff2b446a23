package workspace

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/ashmitsharp/mydaily-api/internal/services"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
)

// ErrNoIdentity is returned once the workspace's user has signed out
var ErrNoIdentity = errors.New("no signed-in user")

const (
	listTransactions = "transactions"
	listTasks        = "tasks"
	listNotes        = "notes"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Config carries the shared dependencies of every workspace
type Config struct {
	Store          *repository.Store
	Attachments    *services.AttachmentService
	Location       *time.Location
	Now            func() time.Time
	DashboardCache *ristretto.Cache[string, services.Dashboard]
	StagingDir     string
	PreviewWidth   int
}

// Workspace is the server-held state of one signed-in user: the fetched
// collections, the staged attachments and the remembered list views. Every
// mutation writes to the store first and patches local state only after the
// write succeeded.
type Workspace struct {
	userID   uuid.UUID
	identity *Identity
	cfg      Config

	// generation keeps dashboard cache keys of earlier sign-ins apart
	generation uuid.UUID

	accounts     *Collection[models.Account]
	categories   *Collection[models.Category]
	transactions *Collection[models.Transaction]
	tasks        *Collection[models.Task]
	notes        *Collection[models.Note]
	pending      *services.PendingBuffer

	listMu sync.Mutex
	lists  map[string]*services.ListState

	unsubscribe func()
}

func New(p Principal, cfg Config) *Workspace {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	w := &Workspace{
		userID:     p.UserID,
		identity:   NewIdentity(),
		cfg:        cfg,
		generation: uuid.New(),
		lists:      map[string]*services.ListState{},
	}
	userID := p.UserID
	store := cfg.Store

	w.accounts = NewCollection(
		func(ctx context.Context) ([]models.Account, error) { return store.Accounts.ListByUser(ctx, userID) },
		func(a models.Account) uuid.UUID { return a.ID },
		func(a, b models.Account) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.Name, b.Name))
		},
	)
	w.categories = NewCollection(
		func(ctx context.Context) ([]models.Category, error) { return store.Categories.ListByUser(ctx, userID) },
		func(c models.Category) uuid.UUID { return c.ID },
		func(a, b models.Category) int {
			return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Name, b.Name))
		},
	)
	w.transactions = NewCollection(
		func(ctx context.Context) ([]models.Transaction, error) {
			rows, err := store.Transactions.ListByUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			byID, err := w.attachmentsOf(ctx, models.OwnerKindTransaction)
			if err != nil {
				return nil, err
			}
			for i := range rows {
				rows[i].Attachments = withAttachments(byID[rows[i].ID])
			}
			return rows, nil
		},
		func(t models.Transaction) uuid.UUID { return t.ID },
		func(a, b models.Transaction) int {
			return cmp.Or(b.Date.Compare(a.Date), b.CreatedAt.Compare(a.CreatedAt))
		},
	)
	w.tasks = NewCollection(
		func(ctx context.Context) ([]models.Task, error) {
			rows, err := store.Tasks.ListByUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			byID, err := w.attachmentsOf(ctx, models.OwnerKindTask)
			if err != nil {
				return nil, err
			}
			for i := range rows {
				rows[i].Attachments = withAttachments(byID[rows[i].ID])
			}
			return rows, nil
		},
		func(t models.Task) uuid.UUID { return t.ID },
		func(a, b models.Task) int {
			return cmp.Or(a.Deadline.Compare(b.Deadline), a.CreatedAt.Compare(b.CreatedAt))
		},
	)
	w.notes = NewCollection(
		func(ctx context.Context) ([]models.Note, error) {
			rows, err := store.Notes.ListByUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			byID, err := w.attachmentsOf(ctx, models.OwnerKindNote)
			if err != nil {
				return nil, err
			}
			for i := range rows {
				rows[i].Attachments = withAttachments(byID[rows[i].ID])
			}
			return rows, nil
		},
		func(n models.Note) uuid.UUID { return n.ID },
		func(a, b models.Note) int {
			if a.Pinned != b.Pinned {
				if a.Pinned {
					return -1
				}
				return 1
			}
			return b.Timestamp.Compare(a.Timestamp)
		},
	)
	w.pending = services.NewPendingBuffer(cfg.StagingDir, cfg.Attachments.Validator(), cfg.PreviewWidth)

	w.unsubscribe = w.identity.Subscribe(func(p *Principal) {
		if p == nil {
			w.reset()
		}
	})
	w.identity.Set(&p)
	return w
}

func (w *Workspace) UserID() uuid.UUID { return w.userID }

func (w *Workspace) Identity() *Identity { return w.identity }

func (w *Workspace) Pending() *services.PendingBuffer { return w.pending }

// reset drops everything fetched or staged for the signed-out user
func (w *Workspace) reset() {
	w.accounts.Reset()
	w.categories.Reset()
	w.transactions.Reset()
	w.tasks.Reset()
	w.notes.Reset()
	w.pending.ClearPending()

	w.listMu.Lock()
	w.lists = map[string]*services.ListState{}
	w.listMu.Unlock()
}

func (w *Workspace) guard() error {
	if w.identity.Current() == nil {
		return ErrNoIdentity
	}
	return nil
}

func (w *Workspace) now() time.Time {
	return w.cfg.Now()
}

func (w *Workspace) attachmentsOf(ctx context.Context, kind models.OwnerKind) (map[uuid.UUID][]models.Attachment, error) {
	grouped, err := w.cfg.Attachments.ListAll(ctx, w.userID)
	if err != nil {
		return nil, err
	}
	return grouped[kind], nil
}

func withAttachments(list []models.Attachment) []models.Attachment {
	if list == nil {
		return []models.Attachment{}
	}
	return list
}

// items loads a collection, mapping a reset during the fetch to ErrNoIdentity
func items[T any](ctx context.Context, w *Workspace, c *Collection[T]) ([]T, error) {
	if err := w.guard(); err != nil {
		return nil, err
	}
	list, err := c.Items(ctx)
	if errors.Is(err, ErrStaleFetch) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

func find[T any](ctx context.Context, w *Workspace, c *Collection[T], id uuid.UUID) (T, error) {
	var zero T
	if err := w.guard(); err != nil {
		return zero, err
	}
	item, ok, err := c.Find(ctx, id)
	if errors.Is(err, ErrStaleFetch) {
		return zero, ErrNoIdentity
	}
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, repository.ErrNotFound
	}
	return item, nil
}

// civilDay strips the clock from a date-only value
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (w *Workspace) today() time.Time {
	return civilDay(w.now().In(w.cfg.Location))
}

// Accounts

func (w *Workspace) Accounts(ctx context.Context) ([]models.Account, error) {
	return items(ctx, w, w.accounts)
}

func validateAccount(a models.Account) error {
	if strings.TrimSpace(a.Name) == "" {
		return services.NewValidationError("name", "is required")
	}
	if !a.Type.Valid() {
		return services.NewValidationError("type", "must be Bank, E-Wallet or Cash")
	}
	return nil
}

func (w *Workspace) CreateAccount(ctx context.Context, a models.Account) (*models.Account, error) {
	if err := w.guard(); err != nil {
		return nil, err
	}
	a.ID = uuid.Nil
	a.UserID = w.userID
	a.Name = strings.TrimSpace(a.Name)
	if err := validateAccount(a); err != nil {
		return nil, err
	}
	if err := w.cfg.Store.Accounts.Create(ctx, &a); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	w.accounts.Add(a)
	return &a, nil
}

func (w *Workspace) UpdateAccount(ctx context.Context, id uuid.UUID, patch models.AccountPatch) (*models.Account, error) {
	current, err := find(ctx, w, w.accounts, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(current)
	updated.Name = strings.TrimSpace(updated.Name)
	if err := validateAccount(updated); err != nil {
		return nil, err
	}
	if err := w.cfg.Store.Accounts.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	w.accounts.Replace(updated)
	return &updated, nil
}

// DeleteAccount refuses to remove an account that transactions still use
func (w *Workspace) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if _, err := find(ctx, w, w.accounts, id); err != nil {
		return err
	}
	txns, err := items(ctx, w, w.transactions)
	if err != nil {
		return err
	}
	used := 0
	for _, t := range txns {
		if t.AccountID == id {
			used++
		}
	}
	if used > 0 {
		return services.NewValidationError("account", "still has %d transaction(s)", used)
	}
	if err := w.cfg.Store.Accounts.Delete(ctx, w.userID, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	w.accounts.Remove(id)
	return nil
}

// Categories

// Categories lists categories, optionally only those of one type
func (w *Workspace) Categories(ctx context.Context, kind models.CategoryType) ([]models.Category, error) {
	list, err := items(ctx, w, w.categories)
	if err != nil || kind == "" {
		return list, err
	}
	out := make([]models.Category, 0, len(list))
	for _, c := range list {
		if c.Type == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

func validateCategory(c models.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return services.NewValidationError("name", "is required")
	}
	if !c.Type.Valid() {
		return services.NewValidationError("type", "must be transaction, task or note")
	}
	if !hexColor.MatchString(c.Color) {
		return services.NewValidationError("color", "must be a #RRGGBB hex color")
	}
	return nil
}

func (w *Workspace) CreateCategory(ctx context.Context, c models.Category) (*models.Category, error) {
	if err := w.guard(); err != nil {
		return nil, err
	}
	c.ID = uuid.Nil
	c.UserID = w.userID
	c.Name = strings.TrimSpace(c.Name)
	if c.Color == "" {
		c.Color = models.FallbackCategoryColor
	}
	if err := validateCategory(c); err != nil {
		return nil, err
	}
	if err := w.cfg.Store.Categories.Create(ctx, &c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	w.categories.Add(c)
	return &c, nil
}

func (w *Workspace) UpdateCategory(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error) {
	current, err := find(ctx, w, w.categories, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(current)
	updated.Name = strings.TrimSpace(updated.Name)
	if err := validateCategory(updated); err != nil {
		return nil, err
	}
	if err := w.cfg.Store.Categories.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	w.categories.Replace(updated)
	return &updated, nil
}

// DeleteCategory leaves referencing records alone; they render as "Other"
func (w *Workspace) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := find(ctx, w, w.categories, id); err != nil {
		return err
	}
	if err := w.cfg.Store.Categories.Delete(ctx, w.userID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	w.categories.Remove(id)
	return nil
}

// checkCategory accepts uuid.Nil (uncategorised) or a category of kind
func (w *Workspace) checkCategory(ctx context.Context, id uuid.UUID, kind models.CategoryType) error {
	if id == uuid.Nil {
		return nil
	}
	c, err := find(ctx, w, w.categories, id)
	if errors.Is(err, repository.ErrNotFound) {
		return services.NewValidationError("category_id", "category not found")
	}
	if err != nil {
		return err
	}
	if c.Type != kind {
		return services.NewValidationError("category_id", "is a %s category, expected %s", c.Type, kind)
	}
	return nil
}

// Saved is the outcome of a create that also committed staged attachments.
// AttachmentErr is a *PartialSaveError when some attachments failed; the
// record itself is saved either way.
type Saved[T any] struct {
	Record        T
	AttachmentErr error
}

// PartialSaveError reports attachments that failed after their owner was saved
type PartialSaveError struct {
	Record string
	Batch  *services.BatchUploadError
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("%s saved, but %d attachment(s) failed: %s", e.Record, len(e.Batch.Failures), e.Batch.Error())
}

func (e *PartialSaveError) Unwrap() error { return e.Batch }

// flushPending commits the staged files to a freshly created owner
func (w *Workspace) flushPending(ctx context.Context, owner models.Owner, record string) ([]models.Attachment, error) {
	if w.pending.Len() == 0 {
		return []models.Attachment{}, nil
	}
	uploaded, err := w.pending.UploadAllPending(ctx, w.cfg.Attachments, w.userID, owner)
	w.patchOwnerAttachments(owner, func(list []models.Attachment) []models.Attachment {
		return append(list, uploaded...)
	})
	var batch *services.BatchUploadError
	if errors.As(err, &batch) {
		return uploaded, &PartialSaveError{Record: record, Batch: batch}
	}
	return uploaded, err
}

func (w *Workspace) patchOwnerAttachments(owner models.Owner, fn func([]models.Attachment) []models.Attachment) {
	id := owner.OwnerID()
	switch owner.(type) {
	case models.TransactionOwner:
		w.transactions.Update(func(t *models.Transaction) bool {
			if t.ID != id {
				return false
			}
			t.Attachments = fn(t.Attachments)
			return true
		})
	case models.TaskOwner:
		w.tasks.Update(func(t *models.Task) bool {
			if t.ID != id {
				return false
			}
			t.Attachments = fn(t.Attachments)
			return true
		})
	case models.NoteOwner:
		w.notes.Update(func(n *models.Note) bool {
			if n.ID != id {
				return false
			}
			n.Attachments = fn(n.Attachments)
			return true
		})
	}
}

// Transactions

func (w *Workspace) Transactions(ctx context.Context) ([]models.Transaction, error) {
	return items(ctx, w, w.transactions)
}

func (w *Workspace) Transaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	t, err := find(ctx, w, w.transactions, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (w *Workspace) validateTransaction(ctx context.Context, t models.Transaction) error {
	if t.Amount <= 0 {
		return services.NewValidationError("amount", "must be greater than 0")
	}
	if !t.Type.Valid() {
		return services.NewValidationError("type", "must be %s or %s", models.TransactionTypeIncome, models.TransactionTypeExpense)
	}
	if t.AccountID == uuid.Nil {
		return services.NewValidationError("account_id", "is required")
	}
	if _, err := find(ctx, w, w.accounts, t.AccountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return services.NewValidationError("account_id", "account not found")
		}
		return err
	}
	return w.checkCategory(ctx, t.CategoryID, models.CategoryTypeTransaction)
}

// CreateTransaction saves t and then commits any staged attachments to it
func (w *Workspace) CreateTransaction(ctx context.Context, t models.Transaction) (*Saved[models.Transaction], error) {
	if err := w.guard(); err != nil {
		return nil, err
	}
	t.ID = uuid.Nil
	t.UserID = w.userID
	t.Description = strings.TrimSpace(t.Description)
	if t.Date.IsZero() {
		t.Date = w.today()
	}
	t.Date = civilDay(t.Date)
	if err := w.validateTransaction(ctx, t); err != nil {
		return nil, err
	}
	if err := w.cfg.Store.Transactions.Create(ctx, &t); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	t.Attachments = []models.Attachment{}
	w.transactions.Add(t)

	uploaded, err := w.flushPending(ctx, models.TransactionOwner{ID: t.ID}, "Transaction")
	t.Attachments = uploaded
	return &Saved[models.Transaction]{Record: t, AttachmentErr: err}, nil
}

func (w *Workspace) UpdateTransaction(ctx context.Context, id uuid.UUID, patch models.TransactionPatch) (*models.Transaction, error) {
	current, err := find(ctx, w, w.transactions, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(current)
	updated.Date = civilDay(updated.Date)
	updated.Description = strings.TrimSpace(updated.Description)
	if err := w.validateTransaction(ctx, updated); err != nil {
		return nil, err
	}
	if err := w.cfg.Store.Transactions.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	w.transactions.Replace(updated)
	return &updated, nil
}

// DeleteTransaction removes the attachments first, then the transaction
func (w *Workspace) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if _, err := find(ctx, w, w.transactions, id); err != nil {
		return err
	}
	if err := w.cfg.Attachments.DeleteAllFor(ctx, w.userID, models.TransactionOwner{ID: id}); err != nil {
		return err
	}
	if err := w.cfg.Store.Transactions.Delete(ctx, w.userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	w.transactions.Remove(id)
	return nil
}

// ImportResult reports an import: what was created and which rows were not
type ImportResult struct {
	Imported []models.Transaction `json:"imported"`
	Errors   []services.RowError  `json:"errors"`
}

// ImportTransactions creates one transaction per parsed row on accountID.
// Categories come from the row's category name or are guessed from the
// description. Staged attachments are left alone. Invalid rows are reported
// and skipped; a failed store write stops the import.
func (w *Workspace) ImportTransactions(ctx context.Context, accountID uuid.UUID, rows []services.ParsedTransaction) (*ImportResult, error) {
	if err := w.guard(); err != nil {
		return nil, err
	}
	if _, err := find(ctx, w, w.accounts, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, services.NewValidationError("account_id", "account not found")
		}
		return nil, err
	}
	categories, err := w.Categories(ctx, models.CategoryTypeTransaction)
	if err != nil {
		return nil, err
	}
	categorizer := services.NewCategorizer(categories)

	result := &ImportResult{Imported: []models.Transaction{}, Errors: []services.RowError{}}
	for _, row := range rows {
		t := models.Transaction{
			UserID:      w.userID,
			AccountID:   accountID,
			CategoryID:  categorizer.Categorize(row.CategoryName, row.Description),
			Amount:      row.Amount,
			Type:        row.Type,
			Date:        civilDay(row.Date),
			Description: strings.TrimSpace(row.Description),
		}
		if err := w.validateTransaction(ctx, t); err != nil {
			result.Errors = append(result.Errors, services.RowError{Row: row.Row, Message: err.Error()})
			continue
		}
		if err := w.cfg.Store.Transactions.Create(ctx, &t); err != nil {
			return result, fmt.Errorf("import row %d: %w", row.Row, err)
		}
		t.Attachments = []models.Attachment{}
		w.transactions.Add(t)
		result.Imported = append(result.Imported, t)
	}
	return result, nil
}

// TransactionRows joins transactions with account and category names
func (w *Workspace) TransactionRows(ctx context.Context) ([]services.TransactionRow, error) {
	txns, err := w.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := w.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := w.Categories(ctx, "")
	if err != nil {
		return nil, err
	}
	return services.JoinTransactions(txns, accounts, categories), nil
}

// Tasks

// Tasks returns every task with open tasks reclassified for today. Changed
// statuses are written back before they are patched locally.
func (w *Workspace) Tasks(ctx context.Context) ([]models.Task, error) {
	list, err := items(ctx, w, w.tasks)
	if err != nil {
		return nil, err
	}
	now := w.now()
	for i := range list {
		t := list[i]
		if !services.RefreshTaskStatus(&t, now, w.cfg.Location) {
			continue
		}
		if err := w.cfg.Store.Tasks.Update(ctx, &t); err != nil {
			return nil, fmt.Errorf("refresh task status: %w", err)
		}
		w.tasks.Replace(t)
		list[i] = t
	}
	return list, nil
}

func (w *Workspace) Task(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	list, err := w.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (w *Workspace) validateTask(ctx context.Context, t models.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return services.NewValidationError("title", "is required")
	}
	if t.Deadline.IsZero() {
		return services.NewValidationError("deadline", "is required")
	}
	return w.checkCategory(ctx, t.CategoryID, models.CategoryTypeTask)
}

func (w *Workspace) CreateTask(ctx context.Context, t models.Task) (*Saved[models.Task], error) {
	if err := w.guard(); err != nil {
		return nil, err
	}
	t.ID = uuid.Nil
	t.UserID = w.userID
	t.Title = strings.TrimSpace(t.Title)
	t.Completed = false
	t.CompletedAt = nil
	t.CompletionNote = ""
	if err := w.validateTask(ctx, t); err != nil {
		return nil, err
	}
	t.Deadline = civilDay(t.Deadline)
	t.Status = services.ClassifyDeadline(t.Deadline, w.now(), w.cfg.Location)
	if err := w.cfg.Store.Tasks.Create(ctx, &t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	t.Attachments = []models.Attachment{}
	w.tasks.Add(t)

	uploaded, err := w.flushPending(ctx, models.TaskOwner{ID: t.ID}, "Task")
	t.Attachments = uploaded
	return &Saved[models.Task]{Record: t, AttachmentErr: err}, nil
}

func (w *Workspace) UpdateTask(ctx context.Context, id uuid.UUID, patch models.TaskPatch) (*models.Task, error) {
	current, err := find(ctx, w, w.tasks, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(current)
	updated.Title = strings.TrimSpace(updated.Title)
	if err := w.validateTask(ctx, updated); err != nil {
		return nil, err
	}
	updated.Deadline = civilDay(updated.Deadline)
	services.RefreshTaskStatus(&updated, w.now(), w.cfg.Location)
	if err := w.cfg.Store.Tasks.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	w.tasks.Replace(updated)
	return &updated, nil
}

// SetTaskCompleted completes or reopens a task. A completed task keeps the
// status it had on the day it was completed.
func (w *Workspace) SetTaskCompleted(ctx context.Context, id uuid.UUID, completed bool, note string) (*models.Task, error) {
	current, err := find(ctx, w, w.tasks, id)
	if err != nil {
		return nil, err
	}
	updated := current
	now := w.now()
	updated.Status = services.ClassifyDeadline(updated.Deadline, now, w.cfg.Location)
	updated.Completed = completed
	if completed {
		updated.CompletedAt = &now
		updated.CompletionNote = strings.TrimSpace(note)
	} else {
		updated.CompletedAt = nil
		updated.CompletionNote = ""
	}
	if err := w.cfg.Store.Tasks.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	w.tasks.Replace(updated)
	return &updated, nil
}

func (w *Workspace) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if _, err := find(ctx, w, w.tasks, id); err != nil {
		return err
	}
	if err := w.cfg.Attachments.DeleteAllFor(ctx, w.userID, models.TaskOwner{ID: id}); err != nil {
		return err
	}
	if err := w.cfg.Store.Tasks.Delete(ctx, w.userID, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	w.tasks.Remove(id)
	return nil
}

func (w *Workspace) TaskRows(ctx context.Context) ([]services.TaskRow, error) {
	tasks, err := w.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := w.Categories(ctx, "")
	if err != nil {
		return nil, err
	}
	return services.JoinTasks(tasks, categories), nil
}

// Notes

func (w *Workspace) Notes(ctx context.Context) ([]models.Note, error) {
	return items(ctx, w, w.notes)
}

func (w *Workspace) Note(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	n, err := find(ctx, w, w.notes, id)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (w *Workspace) validateNote(ctx context.Context, n models.Note) error {
	if strings.TrimSpace(n.Title) == "" {
		return services.NewValidationError("title", "is required")
	}
	return w.checkCategory(ctx, n.CategoryID, models.CategoryTypeNote)
}

func (w *Workspace) CreateNote(ctx context.Context, n models.Note) (*Saved[models.Note], error) {
	if err := w.guard(); err != nil {
		return nil, err
	}
	n.ID = uuid.Nil
	n.UserID = w.userID
	n.Title = strings.TrimSpace(n.Title)
	if err := w.validateNote(ctx, n); err != nil {
		return nil, err
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = w.now()
	}
	if err := w.cfg.Store.Notes.Create(ctx, &n); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	n.Attachments = []models.Attachment{}
	w.notes.Add(n)

	uploaded, err := w.flushPending(ctx, models.NoteOwner{ID: n.ID}, "Note")
	n.Attachments = uploaded
	return &Saved[models.Note]{Record: n, AttachmentErr: err}, nil
}

func (w *Workspace) UpdateNote(ctx context.Context, id uuid.UUID, patch models.NotePatch) (*models.Note, error) {
	current, err := find(ctx, w, w.notes, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(current)
	updated.Title = strings.TrimSpace(updated.Title)
	if err := w.validateNote(ctx, updated); err != nil {
		return nil, err
	}
	if err := w.cfg.Store.Notes.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	w.notes.Replace(updated)
	return &updated, nil
}

func (w *Workspace) SetNotePinned(ctx context.Context, id uuid.UUID, pinned bool) (*models.Note, error) {
	return w.UpdateNote(ctx, id, models.NotePatch{Pinned: &pinned})
}

func (w *Workspace) DeleteNote(ctx context.Context, id uuid.UUID) error {
	if _, err := find(ctx, w, w.notes, id); err != nil {
		return err
	}
	if err := w.cfg.Attachments.DeleteAllFor(ctx, w.userID, models.NoteOwner{ID: id}); err != nil {
		return err
	}
	if err := w.cfg.Store.Notes.Delete(ctx, w.userID, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	w.notes.Remove(id)
	return nil
}

func (w *Workspace) NoteRows(ctx context.Context) ([]services.NoteRow, error) {
	notes, err := w.Notes(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := w.Categories(ctx, "")
	if err != nil {
		return nil, err
	}
	return services.JoinNotes(notes, categories), nil
}

// Attachments

func (w *Workspace) ownerExists(ctx context.Context, owner models.Owner) error {
	var err error
	switch o := owner.(type) {
	case models.TransactionOwner:
		_, err = find(ctx, w, w.transactions, o.ID)
	case models.TaskOwner:
		_, err = find(ctx, w, w.tasks, o.ID)
	case models.NoteOwner:
		_, err = find(ctx, w, w.notes, o.ID)
	default:
		err = services.NewValidationError("owner", "unknown attachment owner")
	}
	return err
}

func (w *Workspace) AttachmentsFor(ctx context.Context, owner models.Owner) ([]models.Attachment, error) {
	if err := w.ownerExists(ctx, owner); err != nil {
		return nil, err
	}
	return w.cfg.Attachments.ListFor(ctx, w.userID, owner)
}

// UploadAttachment attaches one file directly to an existing record
func (w *Workspace) UploadAttachment(ctx context.Context, owner models.Owner, name string, data []byte) (*models.Attachment, error) {
	if err := w.ownerExists(ctx, owner); err != nil {
		return nil, err
	}
	attachment, err := w.cfg.Attachments.Upload(ctx, w.userID, owner, name, data)
	if err != nil {
		return nil, err
	}
	w.patchOwnerAttachments(owner, func(list []models.Attachment) []models.Attachment {
		return append(list, *attachment)
	})
	return attachment, nil
}

// OpenAttachment streams the content of one of the user's attachments
func (w *Workspace) OpenAttachment(ctx context.Context, id uuid.UUID) (*models.Attachment, io.ReadCloser, error) {
	if err := w.guard(); err != nil {
		return nil, nil, err
	}
	return w.cfg.Attachments.Open(ctx, w.userID, id)
}

// AttachmentDownloadURL returns a presigned link, or "" when the file is
// streamed by OpenAttachment
func (w *Workspace) AttachmentDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	if err := w.guard(); err != nil {
		return "", err
	}
	return w.cfg.Attachments.DownloadURL(ctx, w.userID, id)
}

func (w *Workspace) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	if err := w.guard(); err != nil {
		return err
	}
	attachment, err := w.cfg.Attachments.Delete(ctx, w.userID, id)
	if err != nil {
		return err
	}
	w.patchOwnerAttachments(attachment.Owner, func(list []models.Attachment) []models.Attachment {
		out := make([]models.Attachment, 0, len(list))
		for _, a := range list {
			if a.ID != id {
				out = append(out, a)
			}
		}
		return out
	})
	return nil
}

// Lists

func runList[T any](w *Workspace, name string, spec services.ListSpec[T], rows []T, update func(*services.ListState)) (services.ListResult[T], services.ListState) {
	w.listMu.Lock()
	defer w.listMu.Unlock()
	state, ok := w.lists[name]
	if !ok {
		state = services.NewListState()
		w.lists[name] = state
	}
	if update != nil {
		update(state)
	}
	result := services.Run(spec, rows, state)
	snapshot := *state
	snapshot.Filters = maps.Clone(state.Filters)
	return result, snapshot
}

// ListTransactions applies update to the remembered transaction list state
// and returns the matching page.
func (w *Workspace) ListTransactions(ctx context.Context, update func(*services.ListState)) (services.ListResult[services.TransactionRow], services.ListState, error) {
	rows, err := w.TransactionRows(ctx)
	if err != nil {
		return services.ListResult[services.TransactionRow]{}, services.ListState{}, err
	}
	result, state := runList(w, listTransactions, services.TransactionList, rows, update)
	return result, state, nil
}

func (w *Workspace) ListTasks(ctx context.Context, update func(*services.ListState)) (services.ListResult[services.TaskRow], services.ListState, error) {
	rows, err := w.TaskRows(ctx)
	if err != nil {
		return services.ListResult[services.TaskRow]{}, services.ListState{}, err
	}
	result, state := runList(w, listTasks, services.TaskList, rows, update)
	return result, state, nil
}

func (w *Workspace) ListNotes(ctx context.Context, update func(*services.ListState)) (services.ListResult[services.NoteRow], services.ListState, error) {
	rows, err := w.NoteRows(ctx)
	if err != nil {
		return services.ListResult[services.NoteRow]{}, services.ListState{}, err
	}
	result, state := runList(w, listNotes, services.NoteList, rows, update)
	return result, state, nil
}

// Dashboard

// Dashboard aggregates the five collections. Results are memoised on the
// workspace generation, the collection versions and the current date.
func (w *Workspace) Dashboard(ctx context.Context) (services.Dashboard, error) {
	accounts, err := w.Accounts(ctx)
	if err != nil {
		return services.Dashboard{}, err
	}
	txns, err := w.Transactions(ctx)
	if err != nil {
		return services.Dashboard{}, err
	}
	tasks, err := w.Tasks(ctx)
	if err != nil {
		return services.Dashboard{}, err
	}
	notes, err := w.Notes(ctx)
	if err != nil {
		return services.Dashboard{}, err
	}
	categories, err := w.Categories(ctx, "")
	if err != nil {
		return services.Dashboard{}, err
	}

	now := w.now()
	key := fmt.Sprintf("%s|%s|%d|%d|%d|%d|%d|%s", w.userID, w.generation,
		w.accounts.Version(), w.transactions.Version(), w.tasks.Version(),
		w.notes.Version(), w.categories.Version(),
		now.In(w.cfg.Location).Format("2006-01-02"))

	cache := w.cfg.DashboardCache
	if cache != nil {
		if d, ok := cache.Get(key); ok {
			return d, nil
		}
	}

	d := services.BuildDashboard(services.DashboardInput{
		Accounts:     accounts,
		Transactions: txns,
		Tasks:        tasks,
		Notes:        notes,
		Categories:   categories,
	}, now, w.cfg.Location)

	if cache != nil {
		cache.Set(key, d, 1)
	}
	return d, nil
}

// close signs the workspace out and stops listening to its identity
func (w *Workspace) close() {
	w.identity.Set(nil)
	w.unsubscribe()
}
