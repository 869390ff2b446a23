package handlers

import (
	"fmt"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/services"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
)

type DashboardHandler struct {
	location *time.Location
	now      func() time.Time
}

func NewDashboardHandler(loc *time.Location) *DashboardHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardHandler{location: loc, now: time.Now}
}

// GetDashboard handles GET /v1/dashboard
func (h *DashboardHandler) GetDashboard(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	dashboard, err := ws.Dashboard(c.Context())
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, dashboard)
}

// GetSummary handles GET /v1/summary
// Query params: from (date), to (date), group_by (day|week|month|year)
func (h *DashboardHandler) GetSummary(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}

	fromStr := c.Query("from")
	toStr := c.Query("to")
	groupBy := c.Query("group_by", services.GroupByMonth)

	// Default to the last 12 months
	var fromDate, toDate time.Time
	if fromStr == "" || toStr == "" {
		toDate = h.now().In(h.location)
		fromDate = toDate.AddDate(-1, 0, 0)
	} else {
		if fromDate, err = time.Parse(dateLayout, fromStr); err != nil {
			return utils.NewBadRequestError(fmt.Sprintf("Invalid from date format: %s", err.Error()), nil)
		}
		if toDate, err = time.Parse(dateLayout, toStr); err != nil {
			return utils.NewBadRequestError(fmt.Sprintf("Invalid to date format: %s", err.Error()), nil)
		}
	}

	txns, err := ws.Transactions(c.Context())
	if err != nil {
		return apiError(err)
	}
	summary, err := services.BuildSummary(txns, fromDate, toDate, groupBy)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, summary)
}
