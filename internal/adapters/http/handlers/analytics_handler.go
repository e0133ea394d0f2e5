package handlers

import (
	"time"

	"posdesk/internal/core/services"
	"posdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler handles loan portfolio analytics endpoints
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
	location         *time.Location
}

// NewAnalyticsHandler creates a new analytics handler. Days are evaluated
// in location.
func NewAnalyticsHandler(analyticsService *services.AnalyticsService, location *time.Location) *AnalyticsHandler {
	if location == nil {
		location = time.Local
	}
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		location:         location,
	}
}

// GetLoanAnalytics returns the latest snapshot with today's reminder counts
// @Summary Loan analytics
// @Description Latest portfolio snapshot plus today's reminder totals (canViewReports)
// @Tags Analytics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /analytics/loans [get]
func (h *AnalyticsHandler) GetLoanAnalytics(c *fiber.Ctx) error {
	data, err := h.analyticsService.Overview(c.UserContext(), time.Now().In(h.location))
	if err != nil {
		return response.InternalServerError(c, "Failed to get loan analytics")
	}

	return response.Success(c, "Loan analytics retrieved successfully", data)
}

// RefreshLoanAnalytics recomputes today's snapshot without running reminders
// @Summary Refresh loan analytics
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /analytics/loans/refresh [post]
func (h *AnalyticsHandler) RefreshLoanAnalytics(c *fiber.Ctx) error {
	snapshot, err := h.analyticsService.Rollup(c.UserContext(), time.Now().In(h.location))
	if err != nil {
		return response.InternalServerError(c, "Failed to refresh loan analytics")
	}

	return response.Success(c, "Loan analytics refreshed successfully", fiber.Map{
		"snapshot": snapshot,
	})
}
