package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is an in-process implementation of every repository, used for
// STORE_DRIVER=memory and in tests. It mirrors the ordering of the SQL queries.
type MemoryStore struct {
	Users         *MemoryUsers
	Accounts      *MemoryAccounts
	Categories    *MemoryCategories
	Transactions  *MemoryTransactions
	Tasks         *MemoryTasks
	Notes         *MemoryNotes
	Attachments   *MemoryAttachments
	SessionStates *MemorySessionStates
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Users: &MemoryUsers{byClerk: make(map[string]models.User)},
		Accounts: &MemoryAccounts{table: newMemTable(
			func(a models.Account) uuid.UUID { return a.ID },
			func(a models.Account) uuid.UUID { return a.UserID },
			func(a, b models.Account) int {
				return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.Name, b.Name))
			},
		)},
		Categories: &MemoryCategories{table: newMemTable(
			func(c models.Category) uuid.UUID { return c.ID },
			func(c models.Category) uuid.UUID { return c.UserID },
			func(a, b models.Category) int {
				return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Name, b.Name))
			},
		)},
		Transactions: &MemoryTransactions{table: newMemTable(
			func(t models.Transaction) uuid.UUID { return t.ID },
			func(t models.Transaction) uuid.UUID { return t.UserID },
			func(a, b models.Transaction) int {
				return cmp.Or(b.Date.Compare(a.Date), b.CreatedAt.Compare(a.CreatedAt))
			},
		)},
		Tasks: &MemoryTasks{table: newMemTable(
			func(t models.Task) uuid.UUID { return t.ID },
			func(t models.Task) uuid.UUID { return t.UserID },
			func(a, b models.Task) int {
				return cmp.Or(a.Deadline.Compare(b.Deadline), a.CreatedAt.Compare(b.CreatedAt))
			},
		)},
		Notes: &MemoryNotes{table: newMemTable(
			func(n models.Note) uuid.UUID { return n.ID },
			func(n models.Note) uuid.UUID { return n.UserID },
			func(a, b models.Note) int {
				if a.Pinned != b.Pinned {
					if a.Pinned {
						return -1
					}
					return 1
				}
				return b.Timestamp.Compare(a.Timestamp)
			},
		)},
		Attachments: &MemoryAttachments{table: newMemTable(
			func(a models.Attachment) uuid.UUID { return a.ID },
			func(a models.Attachment) uuid.UUID { return a.UserID },
			func(a, b models.Attachment) int { return a.CreatedAt.Compare(b.CreatedAt) },
		)},
		SessionStates: &MemorySessionStates{states: make(map[uuid.UUID]models.SessionState)},
	}
}

// Store exposes the memory repositories through the common Store shape
func (m *MemoryStore) Store() *Store {
	return &Store{
		Users:         m.Users,
		Accounts:      m.Accounts,
		Categories:    m.Categories,
		Transactions:  m.Transactions,
		Tasks:         m.Tasks,
		Notes:         m.Notes,
		Attachments:   m.Attachments,
		SessionStates: m.SessionStates,
	}
}

// NewMemory returns a Store held entirely in process memory
func NewMemory() *Store {
	return NewMemoryStore().Store()
}

type memTable[T any] struct {
	mu    sync.RWMutex
	rows  map[uuid.UUID]T
	seq   []uuid.UUID
	id    func(T) uuid.UUID
	owner func(T) uuid.UUID
	order func(a, b T) int
}

func newMemTable[T any](id, owner func(T) uuid.UUID, order func(a, b T) int) *memTable[T] {
	return &memTable[T]{rows: make(map[uuid.UUID]T), id: id, owner: owner, order: order}
}

func (t *memTable[T]) insert(row T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.id(row)
	if _, ok := t.rows[id]; !ok {
		t.seq = append(t.seq, id)
	}
	t.rows[id] = row
}

func (t *memTable[T]) list(match func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []T
	for _, id := range t.seq {
		if row, ok := t.rows[id]; ok && match(row) {
			out = append(out, row)
		}
	}
	slices.SortStableFunc(out, t.order)
	return out
}

func (t *memTable[T]) get(userID, id uuid.UUID) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok || t.owner(row) != userID {
		var zero T
		return zero, ErrNotFound
	}
	return row, nil
}

func (t *memTable[T]) replace(row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.rows[t.id(row)]
	if !ok || t.owner(cur) != t.owner(row) {
		return ErrNotFound
	}
	t.rows[t.id(row)] = row
	return nil
}

func (t *memTable[T]) remove(userID, id uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok || t.owner(row) != userID {
		return ErrNotFound
	}
	delete(t.rows, id)
	t.seq = slices.DeleteFunc(t.seq, func(x uuid.UUID) bool { return x == id })
	return nil
}

func (t *memTable[T]) byUser(userID uuid.UUID) []T {
	return t.list(func(row T) bool { return t.owner(row) == userID })
}

type MemoryUsers struct {
	mu      sync.RWMutex
	byClerk map[string]models.User
}

func (m *MemoryUsers) Upsert(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if cur, ok := m.byClerk[user.ClerkUserID]; ok {
		user.ID = cur.ID
		user.CreatedAt = cur.CreatedAt
	} else {
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	m.byClerk[user.ClerkUserID] = *user
	return nil
}

func (m *MemoryUsers) UpdateByClerkID(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byClerk[user.ClerkUserID]
	if !ok {
		return ErrNotFound
	}
	cur.Email = user.Email
	cur.FullName = user.FullName
	cur.UpdatedAt = time.Now()
	m.byClerk[user.ClerkUserID] = cur
	*user = cur
	return nil
}

func (m *MemoryUsers) GetByClerkID(ctx context.Context, clerkUserID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.byClerk[clerkUserID]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

type MemoryAccounts struct{ table *memTable[models.Account] }

func (m *MemoryAccounts) Create(ctx context.Context, a *models.Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	m.table.insert(*a)
	return nil
}

func (m *MemoryAccounts) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	return m.table.byUser(userID), nil
}

func (m *MemoryAccounts) Update(ctx context.Context, a *models.Account) error {
	return m.table.replace(*a)
}

func (m *MemoryAccounts) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.table.remove(userID, id)
}

type MemoryCategories struct{ table *memTable[models.Category] }

func (m *MemoryCategories) Create(ctx context.Context, c *models.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	m.table.insert(*c)
	return nil
}

func (m *MemoryCategories) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	return m.table.byUser(userID), nil
}

func (m *MemoryCategories) Update(ctx context.Context, c *models.Category) error {
	return m.table.replace(*c)
}

func (m *MemoryCategories) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.table.remove(userID, id)
}

type MemoryTransactions struct{ table *memTable[models.Transaction] }

func (m *MemoryTransactions) Create(ctx context.Context, t *models.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	row := *t
	row.Attachments = nil
	m.table.insert(row)
	return nil
}

func (m *MemoryTransactions) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	return m.table.byUser(userID), nil
}

func (m *MemoryTransactions) Update(ctx context.Context, t *models.Transaction) error {
	row := *t
	row.Attachments = nil
	return m.table.replace(row)
}

func (m *MemoryTransactions) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.table.remove(userID, id)
}

type MemoryTasks struct{ table *memTable[models.Task] }

func (m *MemoryTasks) Create(ctx context.Context, t *models.Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	row := *t
	row.Attachments = nil
	m.table.insert(row)
	return nil
}

func (m *MemoryTasks) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	return m.table.byUser(userID), nil
}

func (m *MemoryTasks) Update(ctx context.Context, t *models.Task) error {
	row := *t
	row.Attachments = nil
	return m.table.replace(row)
}

func (m *MemoryTasks) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.table.remove(userID, id)
}

type MemoryNotes struct{ table *memTable[models.Note] }

func (m *MemoryNotes) Create(ctx context.Context, n *models.Note) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	row := *n
	row.Attachments = nil
	m.table.insert(row)
	return nil
}

func (m *MemoryNotes) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Note, error) {
	return m.table.byUser(userID), nil
}

func (m *MemoryNotes) Update(ctx context.Context, n *models.Note) error {
	row := *n
	row.Attachments = nil
	return m.table.replace(row)
}

func (m *MemoryNotes) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.table.remove(userID, id)
}

type MemoryAttachments struct{ table *memTable[models.Attachment] }

func (m *MemoryAttachments) Create(ctx context.Context, a *models.Attachment) error {
	if a.Owner == nil {
		return fmt.Errorf("attachment owner is required")
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	m.table.insert(*a)
	return nil
}

func (m *MemoryAttachments) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Attachment, error) {
	a, err := m.table.get(userID, id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (m *MemoryAttachments) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Attachment, error) {
	return m.table.byUser(userID), nil
}

func (m *MemoryAttachments) ListByOwner(ctx context.Context, userID uuid.UUID, owner models.Owner) ([]models.Attachment, error) {
	return m.table.list(func(a models.Attachment) bool {
		return a.UserID == userID && models.SameOwner(a.Owner, owner)
	}), nil
}

func (m *MemoryAttachments) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.table.remove(userID, id)
}

func (m *MemoryAttachments) DeleteByOwner(ctx context.Context, userID uuid.UUID, owner models.Owner) error {
	list, _ := m.ListByOwner(ctx, userID, owner)
	for _, a := range list {
		if err := m.table.remove(userID, a.ID); err != nil {
			return err
		}
	}
	return nil
}

type MemorySessionStates struct {
	mu     sync.Mutex
	states map[uuid.UUID]models.SessionState
}

func (m *MemorySessionStates) Load(ctx context.Context, userID uuid.UUID) (*models.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[userID]
	if !ok {
		return models.NewSessionState(userID), nil
	}
	return &state, nil
}

func (m *MemorySessionStates) Save(ctx context.Context, state *models.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state.UpdatedAt = time.Now()
	m.states[state.UserID] = *state
	return nil
}
