package services

import (
	"cmp"
	"slices"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxUrgentTasks is how many urgent tasks the dashboard shows
const MaxUrgentTasks = 5

type CategoryExpense struct {
	CategoryID uuid.UUID       `json:"category_id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Total      int64           `json:"total"`
	Percent    decimal.Decimal `json:"percent"`
}

type StatusCount struct {
	Status models.TaskStatus `json:"status"`
	Label  string            `json:"label"`
	Count  int               `json:"count"`
}

type Dashboard struct {
	TotalBalance      int64             `json:"total_balance"`
	MonthStart        time.Time         `json:"month_start"`
	MonthEnd          time.Time         `json:"month_end"`
	MonthIncome       int64             `json:"month_income"`
	MonthExpense      int64             `json:"month_expense"`
	ExpenseByCategory []CategoryExpense `json:"expense_by_category"`
	TaskStatusCounts  []StatusCount     `json:"task_status_counts"`
	UrgentTasks       []models.Task     `json:"urgent_tasks"`
	PinnedNotes       []models.Note     `json:"pinned_notes"`
}

// DashboardInput is the set of collections the dashboard is computed from
type DashboardInput struct {
	Accounts     []models.Account
	Transactions []models.Transaction
	Tasks        []models.Task
	Notes        []models.Note
	Categories   []models.Category
}

func TotalBalance(accounts []models.Account) int64 {
	var total int64
	for _, a := range accounts {
		total += a.Balance
	}
	return total
}

// MonthWindow returns the first and last instant of the month containing now
// in loc.
func MonthWindow(now time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, _ := now.In(loc).Date()
	start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// inWindow compares calendar dates so DATE columns scanned as UTC midnight
// land in the right month.
func inWindow(date, start, end time.Time) bool {
	d := civilDate(date, date.Location())
	return !d.Before(civilDate(start, start.Location())) && !d.After(civilDate(end, end.Location()))
}

func monthSum(txns []models.Transaction, kind models.TransactionType, start, end time.Time) int64 {
	var total int64
	for _, t := range txns {
		if t.Type == kind && inWindow(t.Date, start, end) {
			total += t.Amount
		}
	}
	return total
}

func MonthIncome(txns []models.Transaction, start, end time.Time) int64 {
	return monthSum(txns, models.TransactionTypeIncome, start, end)
}

func MonthExpense(txns []models.Transaction, start, end time.Time) int64 {
	return monthSum(txns, models.TransactionTypeExpense, start, end)
}

// ExpenseByCategory groups in-window expenses by category, largest first.
// Percentages are shares of the window's total expense, rounded to 2 places.
func ExpenseByCategory(txns []models.Transaction, categories []models.Category, start, end time.Time) []CategoryExpense {
	lookup := NewCategoryLookup(categories)
	index := map[uuid.UUID]int{}
	out := []CategoryExpense{}
	var grand int64

	for _, t := range txns {
		if t.Type != models.TransactionTypeExpense || !inWindow(t.Date, start, end) {
			continue
		}
		i, ok := index[t.CategoryID]
		if !ok {
			name, color := lookup.Resolve(t.CategoryID.String())
			out = append(out, CategoryExpense{CategoryID: t.CategoryID, Name: name, Color: color})
			i = len(out) - 1
			index[t.CategoryID] = i
		}
		out[i].Total += t.Amount
		grand += t.Amount
	}

	if grand > 0 {
		hundred := decimal.NewFromInt(100)
		for i := range out {
			out[i].Percent = decimal.NewFromInt(out[i].Total).Mul(hundred).Div(decimal.NewFromInt(grand)).Round(2)
		}
	}
	slices.SortStableFunc(out, func(a, b CategoryExpense) int { return cmp.Compare(b.Total, a.Total) })
	return out
}

// TaskStatusCounts counts open tasks per bucket in Urgent, Upcoming, On Track
// order.
func TaskStatusCounts(tasks []models.Task) []StatusCount {
	counts := make([]StatusCount, len(models.TaskStatusOrder))
	for i, s := range models.TaskStatusOrder {
		counts[i] = StatusCount{Status: s, Label: s.Label()}
	}
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		if i := slices.Index(models.TaskStatusOrder, t.Status); i >= 0 {
			counts[i].Count++
		}
	}
	return counts
}

// UrgentTasks returns the first open urgent tasks in fetch order
func UrgentTasks(tasks []models.Task) []models.Task {
	out := []models.Task{}
	for _, t := range tasks {
		if t.Completed || t.Status != models.TaskStatusUrgent {
			continue
		}
		out = append(out, t)
		if len(out) == MaxUrgentTasks {
			break
		}
	}
	return out
}

func PinnedNotes(notes []models.Note) []models.Note {
	out := []models.Note{}
	for _, n := range notes {
		if n.Pinned {
			out = append(out, n)
		}
	}
	return out
}

// BuildDashboard computes every dashboard figure from scratch
func BuildDashboard(in DashboardInput, now time.Time, loc *time.Location) Dashboard {
	start, end := MonthWindow(now, loc)
	return Dashboard{
		TotalBalance:      TotalBalance(in.Accounts),
		MonthStart:        start,
		MonthEnd:          end,
		MonthIncome:       MonthIncome(in.Transactions, start, end),
		MonthExpense:      MonthExpense(in.Transactions, start, end),
		ExpenseByCategory: ExpenseByCategory(in.Transactions, in.Categories, start, end),
		TaskStatusCounts:  TaskStatusCounts(in.Tasks),
		UrgentTasks:       UrgentTasks(in.Tasks),
		PinnedNotes:       PinnedNotes(in.Notes),
	}
}
