package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedDashboard fills the workspace with a month of activity around testNow
func seedDashboard(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()

	bca := seedAccount(t, env, "BCA")
	_, err := env.ws.CreateAccount(ctx, models.Account{Name: "Cash", Type: models.AccountTypeCash, Balance: 500_000})
	require.NoError(t, err)

	food := seedCategory(t, env, "Food", models.CategoryTypeTransaction)
	transport := seedCategory(t, env, "Transport", models.CategoryTypeTransaction)

	for _, txn := range []models.Transaction{
		{AccountID: bca.ID, Amount: 8_500_000, Type: models.TransactionTypeIncome, Date: date(2025, 12, 1), Description: "Salary"},
		{AccountID: bca.ID, CategoryID: food.ID, Amount: 75_000, Type: models.TransactionTypeExpense, Date: date(2025, 12, 10)},
		{AccountID: bca.ID, CategoryID: transport.ID, Amount: 25_000, Type: models.TransactionTypeExpense, Date: date(2025, 12, 12)},
		{AccountID: bca.ID, CategoryID: food.ID, Amount: 100_000, Type: models.TransactionTypeExpense, Date: date(2025, 11, 30)},
		{AccountID: bca.ID, Amount: 1_000, Type: models.TransactionTypeIncome, Date: date(2026, 1, 1)},
	} {
		seedTransaction(t, env, txn)
	}

	for _, task := range []models.Task{
		{Title: "Pay electricity", Deadline: date(2025, 12, 16)},
		{Title: "Book flights", Deadline: date(2025, 12, 20)},
		{Title: "Renew passport", Deadline: date(2026, 1, 30)},
		{Title: "Send invoice", Deadline: date(2025, 12, 14)},
	} {
		saved, err := env.ws.CreateTask(ctx, task)
		require.NoError(t, err)
		if task.Title == "Send invoice" {
			_, err = env.ws.SetTaskCompleted(ctx, saved.Record.ID, true, "")
			require.NoError(t, err)
		}
	}

	_, err = env.ws.CreateNote(ctx, models.Note{Title: "Wifi password", Pinned: true})
	require.NoError(t, err)
	_, err = env.ws.CreateNote(ctx, models.Note{Title: "Groceries"})
	require.NoError(t, err)
}

func dashboardApp(env *testEnv) *fiber.App {
	handler := NewDashboardHandler(jakarta)
	handler.now = func() time.Time { return testNow }

	app := env.app()
	app.Get("/dashboard", handler.GetDashboard)
	app.Get("/summary", handler.GetSummary)
	return app
}

func TestGetDashboard(t *testing.T) {
	env := newTestEnv(t)
	seedDashboard(t, env)
	app := dashboardApp(env)

	status, result := do(t, app, httptest.NewRequest("GET", "/dashboard", nil))
	require.Equal(t, fiber.StatusOK, status)
	data := dataMap(t, result)

	assert.Equal(t, float64(1_500_000), data["total_balance"])
	assert.Equal(t, "2025-12-01T00:00:00+07:00", data["month_start"])
	assert.Equal(t, "2025-12-31T23:59:59.999999999+07:00", data["month_end"])
	assert.Equal(t, float64(8_500_000), data["month_income"])
	assert.Equal(t, float64(100_000), data["month_expense"])

	expenses := data["expense_by_category"].([]interface{})
	require.Len(t, expenses, 2)
	first := expenses[0].(map[string]interface{})
	assert.Equal(t, "Food", first["name"])
	assert.Equal(t, float64(75_000), first["total"])
	assert.Equal(t, "75", first["percent"])
	assert.Equal(t, "25", expenses[1].(map[string]interface{})["percent"])

	counts := data["task_status_counts"].([]interface{})
	require.Len(t, counts, 3)
	for i, want := range []struct {
		label string
		count float64
	}{{"Urgent", 1}, {"Upcoming", 1}, {"On Track", 1}} {
		c := counts[i].(map[string]interface{})
		assert.Equal(t, want.label, c["label"])
		assert.Equal(t, want.count, c["count"], want.label)
	}

	urgent := data["urgent_tasks"].([]interface{})
	require.Len(t, urgent, 1)
	assert.Equal(t, "Pay electricity", urgent[0].(map[string]interface{})["title"])

	pinned := data["pinned_notes"].([]interface{})
	require.Len(t, pinned, 1)
	assert.Equal(t, "Wifi password", pinned[0].(map[string]interface{})["title"])
}

func TestGetDashboard_Empty(t *testing.T) {
	env := newTestEnv(t)
	app := dashboardApp(env)

	status, result := do(t, app, httptest.NewRequest("GET", "/dashboard", nil))
	require.Equal(t, fiber.StatusOK, status)
	data := dataMap(t, result)

	assert.Equal(t, float64(0), data["total_balance"])
	assert.Empty(t, data["expense_by_category"])
	assert.Empty(t, data["urgent_tasks"])
	assert.Empty(t, data["pinned_notes"])
	assert.Len(t, data["task_status_counts"], 3)
}

func TestGetDashboard_SeesNewRecords(t *testing.T) {
	env := newTestEnv(t)
	account := seedAccount(t, env, "BCA")
	app := dashboardApp(env)

	_, result := do(t, app, httptest.NewRequest("GET", "/dashboard", nil))
	assert.Equal(t, float64(0), dataMap(t, result)["month_expense"])

	seedTransaction(t, env, models.Transaction{AccountID: account.ID, Amount: 42_000, Type: models.TransactionTypeExpense, Date: date(2025, 12, 15)})

	_, result = do(t, app, httptest.NewRequest("GET", "/dashboard", nil))
	assert.Equal(t, float64(42_000), dataMap(t, result)["month_expense"])
}

func TestGetSummary(t *testing.T) {
	env := newTestEnv(t)
	seedDashboard(t, env)
	app := dashboardApp(env)

	status, result := do(t, app, httptest.NewRequest("GET", "/summary?from=2025-11-01&to=2025-12-31&group_by=month", nil))
	require.Equal(t, fiber.StatusOK, status)
	data := dataMap(t, result)

	kpis := data["kpis"].(map[string]interface{})
	assert.Equal(t, float64(8_500_000), kpis["total_inflow"])
	assert.Equal(t, float64(200_000), kpis["total_outflow"])
	assert.Equal(t, float64(8_300_000), kpis["net_cash_flow"])
	assert.Equal(t, float64(4), kpis["transaction_count"])

	trend := data["net_flow_trend"].([]interface{})
	require.Len(t, trend, 2)
	assert.Equal(t, "2025-11", trend[0].(map[string]interface{})["period"])
	assert.Equal(t, float64(-100_000), trend[0].(map[string]interface{})["net_flow"])
	assert.Equal(t, "2025-12", trend[1].(map[string]interface{})["period"])
	assert.Equal(t, float64(8_400_000), trend[1].(map[string]interface{})["net_flow"])
}

func TestGetSummary_DefaultsToLastYear(t *testing.T) {
	env := newTestEnv(t)
	seedDashboard(t, env)
	app := dashboardApp(env)

	status, result := do(t, app, httptest.NewRequest("GET", "/summary", nil))
	require.Equal(t, fiber.StatusOK, status)
	data := dataMap(t, result)
	assert.Equal(t, "2024-12-15", data["from_date"])
	assert.Equal(t, "2025-12-15", data["to_date"])
	assert.Equal(t, "month", data["group_by"])
	assert.Equal(t, float64(4), data["kpis"].(map[string]interface{})["transaction_count"])
}

func TestGetSummary_InvalidParams(t *testing.T) {
	env := newTestEnv(t)
	app := dashboardApp(env)

	testCases := []struct {
		name   string
		target string
	}{
		{name: "bad from", target: "/summary?from=01-11-2025&to=2025-12-31"},
		{name: "bad to", target: "/summary?from=2025-11-01&to=tomorrow"},
		{name: "bad group", target: "/summary?from=2025-11-01&to=2025-12-31&group_by=quarter"},
		{name: "reversed range", target: "/summary?from=2025-12-31&to=2025-11-01"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, result := do(t, app, httptest.NewRequest("GET", tc.target, nil))
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, "BAD_REQUEST", result["code"])
		})
	}
}
