package handlers

import (
	"errors"
	"log"

	"posdesk/internal/core/domain"
	"posdesk/internal/core/services"
	"posdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReminderHandler triggers reminder runs and lists reminder history
type ReminderHandler struct {
	runner      services.ReminderRunner
	loanService *services.LoanService
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(runner services.ReminderRunner, loanService *services.LoanService) *ReminderHandler {
	return &ReminderHandler{
		runner:      runner,
		loanService: loanService,
	}
}

// RunResponse is the flat envelope returned by a reminder run
type RunResponse struct {
	Success            bool   `json:"success"`
	RunID              string `json:"runId,omitempty"`
	RemindersGenerated int    `json:"remindersGenerated"`
	MessagesScheduled  int    `json:"messagesScheduled"`
	LoansProcessed     int    `json:"loansProcessed"`
	LoansFailed        int    `json:"loansFailed"`
	Error              string `json:"error,omitempty"`
}

// NewRunResponse builds the run envelope. Counts of a partial run are kept
// next to the error.
func NewRunResponse(summary *domain.RunSummary, err error) RunResponse {
	var res RunResponse
	if summary != nil {
		res.RunID = summary.RunID.String()
		res.RemindersGenerated = summary.RemindersGenerated
		res.MessagesScheduled = summary.MessagesScheduled
		res.LoansProcessed = summary.LoansProcessed
		res.LoansFailed = summary.LoansFailed
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

// Run performs one reminder pass now
// @Summary Run reminders
// @Description Classify open loans, record today's reminders and dispatch them
// @Tags Reminders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} RunResponse
// @Failure 409 {object} RunResponse
// @Failure 500 {object} RunResponse
// @Router /reminders/run [post]
func (h *ReminderHandler) Run(c *fiber.Ctx) error {
	summary, err := h.runner.Run(c.UserContext())
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, domain.ErrRunInProgress) {
			status = fiber.StatusConflict
		} else {
			log.Printf("❌ Reminder run request failed: %v", err)
		}
		return c.Status(status).JSON(NewRunResponse(summary, err))
	}

	return c.JSON(NewRunResponse(summary, nil))
}

// List lists reminders recorded on a calendar day, today by default
// @Summary List reminders
// @Tags Reminders
// @Produce json
// @Security BearerAuth
// @Param date query string false "Calendar day (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /reminders [get]
func (h *ReminderHandler) List(c *fiber.Ctx) error {
	day := c.Query("date", h.loanService.Today())
	reminders, err := h.loanService.RemindersOn(c.UserContext(), day)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return response.BadRequest(c, "date must be YYYY-MM-DD")
		}
		return response.InternalServerError(c, "Failed to list reminders")
	}

	return response.Success(c, "Reminders retrieved successfully", fiber.Map{
		"date":      day,
		"reminders": reminders,
	})
}
