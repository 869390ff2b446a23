package workspace

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/ashmitsharp/mydaily-api/internal/services"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfContent = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

// failingAccounts is an account repository whose updates always fail
type failingAccounts struct {
	repository.Collection[models.Account]
}

func (failingAccounts) Update(ctx context.Context, a *models.Account) error {
	return errors.New("connection reset")
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestWorkspace(t *testing.T, store *repository.Store, clock *testClock) *Workspace {
	t.Helper()
	ws := New(Principal{UserID: uuid.New(), ClerkUserID: "user_test", SessionID: "sess_test"}, Config{
		Store:       store,
		Attachments: services.NewAttachmentService(store.Attachments, services.NewMemoryStorage("http://files.local"), services.NewFileValidator(1024*1024)),
		Location:    time.UTC,
		Now:         clock.Now,
		StagingDir:  t.TempDir(),
	})
	t.Cleanup(ws.close)
	return ws
}

func TestWorkspace_FailedWriteKeepsLocalState(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	store.Accounts = failingAccounts{store.Accounts}
	ws := newTestWorkspace(t, store, &testClock{now: time.Now()})

	account, err := ws.CreateAccount(ctx, models.Account{Name: "BCA", Type: models.AccountTypeBank, Balance: 100})
	require.NoError(t, err)

	name := "Mandiri"
	_, err = ws.UpdateAccount(ctx, account.ID, models.AccountPatch{Name: &name})
	require.Error(t, err)

	accounts, err := ws.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "BCA", accounts[0].Name)
}

func TestWorkspace_ValidationRunsBeforeWrites(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	ws := newTestWorkspace(t, store, &testClock{now: time.Now()})

	_, err := ws.CreateAccount(ctx, models.Account{Name: "  ", Type: models.AccountTypeBank})
	var verr *services.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)

	_, err = ws.CreateCategory(ctx, models.Category{Name: "Food", Type: models.CategoryTypeTransaction, Color: "orange"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "color", verr.Field)

	stored, err := store.Accounts.ListByUser(ctx, ws.UserID())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestWorkspace_SignOutClearsState(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	ws := newTestWorkspace(t, store, &testClock{now: time.Now()})
	principal := *ws.Identity().Current()

	_, err := ws.CreateAccount(ctx, models.Account{Name: "BCA", Type: models.AccountTypeBank})
	require.NoError(t, err)
	_, state, err := ws.ListTransactions(ctx, func(s *services.ListState) { s.SetPageSize(50) })
	require.NoError(t, err)
	assert.Equal(t, 50, state.PageSize)
	_, err = ws.Pending().AddFiles([]services.IncomingFile{{Name: "a.pdf", Reader: bytesReader(pdfContent)}})
	require.NoError(t, err)

	ws.Identity().Set(nil)

	assert.False(t, ws.accounts.Loaded())
	assert.Equal(t, 0, ws.Pending().Len())
	_, err = ws.Accounts(ctx)
	assert.ErrorIs(t, err, ErrNoIdentity)
	_, err = ws.CreateNote(ctx, models.Note{Title: "x"})
	assert.ErrorIs(t, err, ErrNoIdentity)
	_, err = ws.Dashboard(ctx)
	assert.ErrorIs(t, err, ErrNoIdentity)

	ws.Identity().Set(&principal)
	accounts, err := ws.Accounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1, "refetched from the store")
	_, state, err = ws.ListTransactions(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, services.DefaultPageSize, state.PageSize, "list views start over")
}

func TestWorkspace_TaskStatusFollowsTheClock(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	clock := &testClock{now: time.Date(2025, 12, 15, 9, 0, 0, 0, time.UTC)}
	ws := newTestWorkspace(t, store, clock)

	open, err := ws.CreateTask(ctx, models.Task{Title: "Renew SIM", Deadline: time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusOnTrack, open.Record.Status)

	done, err := ws.CreateTask(ctx, models.Task{Title: "Pay rent", Deadline: time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	completed, err := ws.SetTaskCompleted(ctx, done.Record.ID, true, "  paid early ")
	require.NoError(t, err)
	assert.Equal(t, "paid early", completed.CompletionNote)
	require.NotNil(t, completed.CompletedAt)

	clock.now = time.Date(2025, 12, 20, 9, 0, 0, 0, time.UTC)
	tasks, err := ws.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	statuses := map[uuid.UUID]models.TaskStatus{}
	for _, task := range tasks {
		statuses[task.ID] = task.Status
	}
	assert.Equal(t, models.TaskStatusUpcoming, statuses[open.Record.ID])
	assert.Equal(t, models.TaskStatusOnTrack, statuses[done.Record.ID], "completed tasks keep their status")

	stored, err := store.Tasks.ListByUser(ctx, ws.UserID())
	require.NoError(t, err)
	for _, task := range stored {
		if task.ID == open.Record.ID {
			assert.Equal(t, models.TaskStatusUpcoming, task.Status, "refreshed status is written back")
		}
	}

	reopened, err := ws.SetTaskCompleted(ctx, done.Record.ID, false, "")
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)
	assert.Empty(t, reopened.CompletionNote)
	assert.Equal(t, models.TaskStatusUpcoming, reopened.Status)
}

func TestWorkspace_ImportTransactions(t *testing.T) {
	ctx := context.Background()
	ws := newTestWorkspace(t, repository.NewMemory(), &testClock{now: time.Now()})

	account, err := ws.CreateAccount(ctx, models.Account{Name: "BCA", Type: models.AccountTypeBank})
	require.NoError(t, err)
	food, err := ws.CreateCategory(ctx, models.Category{Name: "Food", Type: models.CategoryTypeTransaction})
	require.NoError(t, err)
	date := time.Date(2025, 12, 1, 14, 30, 0, 0, time.UTC)

	result, err := ws.ImportTransactions(ctx, account.ID, []services.ParsedTransaction{
		{Row: 2, Date: date, Type: models.TransactionTypeExpense, Amount: 35_000, Description: " Bakmi ", CategoryName: "FOOD"},
		{Row: 3, Date: date, Type: models.TransactionTypeIncome, Amount: 1_000_000, Description: "Gaji"},
		{Row: 4, Date: date, Type: models.TransactionTypeExpense, Amount: 0, Description: "Zero"},
	})
	require.NoError(t, err)

	require.Len(t, result.Imported, 2)
	assert.Equal(t, food.ID, result.Imported[0].CategoryID)
	assert.Equal(t, "Bakmi", result.Imported[0].Description)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), result.Imported[0].Date)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, 4, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "amount")

	txns, err := ws.Transactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txns, 2)

	_, err = ws.ImportTransactions(ctx, uuid.New(), nil)
	var verr *services.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "account_id", verr.Field)
}

func TestWorkspace_DeleteRemovesAttachments(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	ws := newTestWorkspace(t, store, &testClock{now: time.Now()})

	_, err := ws.Pending().AddFiles([]services.IncomingFile{{Name: "a.pdf", Reader: bytesReader(pdfContent)}})
	require.NoError(t, err)
	saved, err := ws.CreateNote(ctx, models.Note{Title: "Warranty"})
	require.NoError(t, err)
	require.NoError(t, saved.AttachmentErr)
	require.Len(t, saved.Record.Attachments, 1)

	require.NoError(t, ws.DeleteNote(ctx, saved.Record.ID))

	left, err := store.Attachments.ListByUser(ctx, ws.UserID())
	require.NoError(t, err)
	assert.Empty(t, left)
	_, err = ws.Note(ctx, saved.Record.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWorkspace_DashboardCache(t *testing.T) {
	ctx := context.Background()
	cache, err := ristretto.NewCache(&ristretto.Config[string, services.Dashboard]{
		NumCounters: 1_000,
		MaxCost:     100,
		BufferItems: 64,
	})
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	store := repository.NewMemory()
	ws := New(Principal{UserID: uuid.New()}, Config{
		Store:          store,
		Attachments:    services.NewAttachmentService(store.Attachments, services.NewMemoryStorage(""), services.NewFileValidator(1024)),
		Now:            func() time.Time { return time.Date(2025, 12, 15, 9, 0, 0, 0, time.UTC) },
		DashboardCache: cache,
		StagingDir:     t.TempDir(),
	})
	t.Cleanup(ws.close)

	_, err = ws.CreateAccount(ctx, models.Account{Name: "BCA", Type: models.AccountTypeBank, Balance: 100})
	require.NoError(t, err)
	d, err := ws.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), d.TotalBalance)
	cache.Wait()

	d, err = ws.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), d.TotalBalance)

	_, err = ws.CreateAccount(ctx, models.Account{Name: "Cash", Type: models.AccountTypeCash, Balance: 50})
	require.NoError(t, err)
	d, err = ws.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(150), d.TotalBalance, "a new version is a new cache key")
}
