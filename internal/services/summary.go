package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
)

// GroupBy buckets of the cash flow trend
const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
	GroupByYear  = "year"
)

type KPIs struct {
	TotalInflow      int64 `json:"total_inflow"`
	TotalOutflow     int64 `json:"total_outflow"`
	NetCashFlow      int64 `json:"net_cash_flow"`
	TransactionCount int   `json:"transaction_count"`
}

type NetFlowTrendPoint struct {
	Period  string `json:"period"`
	Inflow  int64  `json:"inflow"`
	Outflow int64  `json:"outflow"`
	NetFlow int64  `json:"net_flow"`
}

type Summary struct {
	KPIs         KPIs                `json:"kpis"`
	NetFlowTrend []NetFlowTrendPoint `json:"net_flow_trend"`
	FromDate     string              `json:"from_date"`
	ToDate       string              `json:"to_date"`
	GroupBy      string              `json:"group_by"`
}

func ValidGroupBy(groupBy string) bool {
	switch groupBy {
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByYear:
		return true
	}
	return false
}

// periodStart truncates a civil date to the start of its bucket. Weeks start
// on Monday.
func periodStart(d time.Time, groupBy string) time.Time {
	switch groupBy {
	case GroupByWeek:
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case GroupByMonth:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	case GroupByYear:
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return d
}

func formatPeriod(d time.Time, groupBy string) string {
	switch groupBy {
	case GroupByMonth:
		return d.Format("2006-01")
	case GroupByYear:
		return d.Format("2006")
	}
	return d.Format("2006-01-02")
}

// BuildSummary computes totals and a per-period trend for the transactions
// dated within [from, to]. Periods without transactions are omitted.
func BuildSummary(txns []models.Transaction, from, to time.Time, groupBy string) (Summary, error) {
	if !ValidGroupBy(groupBy) {
		return Summary{}, NewValidationError("group_by", "must be one of: day, week, month, year")
	}
	from = civilDate(from, from.Location())
	to = civilDate(to, to.Location())
	if to.Before(from) {
		return Summary{}, NewValidationError("to", "must not be before from")
	}

	var kpis KPIs
	buckets := map[time.Time]*NetFlowTrendPoint{}
	var order []time.Time
	for _, t := range txns {
		day := civilDate(t.Date, t.Date.Location())
		if day.Before(from) || day.After(to) {
			continue
		}
		start := periodStart(day, groupBy)
		point, ok := buckets[start]
		if !ok {
			point = &NetFlowTrendPoint{Period: formatPeriod(start, groupBy)}
			buckets[start] = point
			order = append(order, start)
		}
		switch t.Type {
		case models.TransactionTypeIncome:
			kpis.TotalInflow += t.Amount
			point.Inflow += t.Amount
		case models.TransactionTypeExpense:
			kpis.TotalOutflow += t.Amount
			point.Outflow += t.Amount
		default:
			return Summary{}, fmt.Errorf("transaction %s has unknown type %q", t.ID, t.Type)
		}
		point.NetFlow = point.Inflow - point.Outflow
		kpis.TransactionCount++
	}
	kpis.NetCashFlow = kpis.TotalInflow - kpis.TotalOutflow

	slices.SortFunc(order, time.Time.Compare)
	trend := make([]NetFlowTrendPoint, 0, len(order))
	for _, start := range order {
		trend = append(trend, *buckets[start])
	}

	return Summary{
		KPIs:         kpis,
		NetFlowTrend: trend,
		FromDate:     from.Format("2006-01-02"),
		ToDate:       to.Format("2006-01-02"),
		GroupBy:      groupBy,
	}, nil
}
