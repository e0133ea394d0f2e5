package handlers

import (
	"posdesk/internal/adapters/http/middleware"
	"posdesk/internal/core/services"
	"posdesk/internal/pkg/pagination"
	"posdesk/internal/pkg/response"
	"posdesk/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles customers, loans and repayments
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// CreateCustomer registers a loan customer
// @Summary Create customer
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateCustomerInput true "Customer data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /customers [post]
func (h *LoanHandler) CreateCustomer(c *fiber.Ctx) error {
	var req services.CreateCustomerInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, validate.Message(err))
	}

	customer, err := h.loanService.CreateCustomer(c.UserContext(), &req)
	if err != nil {
		return response.InternalServerError(c, "Failed to create customer")
	}
	return response.Created(c, "Customer created successfully", fiber.Map{
		"customer": customer,
	})
}

// CreateLoan opens a loan for a customer
// @Summary Create loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateLoanInput true "Loan data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) CreateLoan(c *fiber.Ctx) error {
	var req services.CreateLoanInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, validate.Message(err))
	}

	loan, err := h.loanService.Create(c.UserContext(), &req)
	if err != nil {
		return loanError(c, err, "Failed to create loan")
	}
	return response.Created(c, "Loan created successfully", fiber.Map{
		"loan": loan,
	})
}

// ListLoans lists loans
// @Summary List loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(active, paid, overdue, defaulted)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) ListLoans(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	loans, total, err := h.loanService.List(c.UserContext(), c.Query("status"), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}
	return response.Paginated(c, loans, params, total)
}

// GetLoan returns a loan with its customer
// @Summary Get loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) GetLoan(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.GetByID(c.UserContext(), id)
	if err != nil {
		return loanError(c, err, "Failed to get loan")
	}
	return response.Success(c, "Loan retrieved successfully", fiber.Map{
		"loan": loan,
	})
}

// RecordPayment applies a repayment
// @Summary Record payment
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body services.RecordPaymentInput true "Payment"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/payments [post]
func (h *LoanHandler) RecordPayment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req services.RecordPaymentInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.RecordPayment(c.UserContext(), id, &req)
	if err != nil {
		return loanError(c, err, "Failed to record payment")
	}
	return response.Success(c, "Payment recorded successfully", fiber.Map{
		"loan": loan,
	})
}

// LoanReminders lists the reminders recorded for a loan
// @Summary Loan reminders
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/reminders [get]
func (h *LoanHandler) LoanReminders(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	reminders, err := h.loanService.Reminders(c.UserContext(), id)
	if err != nil {
		return loanError(c, err, "Failed to list reminders")
	}
	return response.Success(c, "Reminders retrieved successfully", fiber.Map{
		"reminders": reminders,
	})
}

func loanError(c *fiber.Ctx, err error, fallback string) error {
	return middleware.ServiceError(c, err, fallback)
}
