package middleware

import (
	"errors"
	"log"

	"posdesk/internal/core/domain"
	"posdesk/internal/core/services"
	"posdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type errorStatus struct {
	err     error
	code    int
	message string
}

// errorStatuses is checked in order; specific errors come before the
// generic ones they may wrap
var errorStatuses = []errorStatus{
	// identity
	{domain.ErrInvalidCredentials, fiber.StatusUnauthorized, "Invalid email or password"},
	{services.ErrInvalidToken, fiber.StatusUnauthorized, "Invalid token"},
	{services.ErrTokenExpired, fiber.StatusUnauthorized, "Token expired"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "Unauthorized"},
	{domain.ErrUserInactive, fiber.StatusForbidden, "Account is inactive"},
	{services.ErrAdminRequired, fiber.StatusForbidden, "Access Denied"},
	{domain.ErrForbidden, fiber.StatusForbidden, "Access Denied"},

	// staff
	{domain.ErrUserNotFound, fiber.StatusNotFound, "User not found"},
	{domain.ErrUserAlreadyExists, fiber.StatusConflict, "Email already exists"},
	{domain.ErrInvalidRole, fiber.StatusBadRequest, "Invalid role"},
	{domain.ErrCannotChangeOwnRole, fiber.StatusBadRequest, "Cannot change your own role"},
	{services.ErrCannotDeactivateSelf, fiber.StatusBadRequest, "Cannot deactivate your own account"},
	{services.ErrOldPasswordWrong, fiber.StatusBadRequest, "Old password is incorrect"},

	// loans
	{domain.ErrLoanNotFound, fiber.StatusNotFound, "Loan not found"},
	{domain.ErrCustomerNotFound, fiber.StatusNotFound, "Customer not found"},
	{domain.ErrInvalidAmount, fiber.StatusBadRequest, "Amount must be greater than zero"},
	{domain.ErrLoanNotOpen, fiber.StatusConflict, "Loan is not open"},
	{domain.ErrPaymentExceedsBalance, fiber.StatusBadRequest, "Payment exceeds remaining balance"},
	{domain.ErrRunInProgress, fiber.StatusConflict, "Reminder run already in progress"},

	// generic
	{domain.ErrNotFound, fiber.StatusNotFound, "Not found"},
	{domain.ErrDuplicateEntry, fiber.StatusConflict, "Duplicate entry"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "Invalid input"},
}

// ErrorStatus maps a service error to its HTTP status and client message.
// ok is false for errors with no public meaning.
func ErrorStatus(err error) (code int, message string, ok bool) {
	for _, s := range errorStatuses {
		if errors.Is(err, s.err) {
			return s.code, s.message, true
		}
	}
	return fiber.StatusInternalServerError, "", false
}

// ServiceError writes the response for a service error. Unexpected errors
// become a 500 carrying fallback.
func ServiceError(c *fiber.Ctx, err error, fallback string) error {
	if code, message, ok := ErrorStatus(err); ok {
		return response.Error(c, code, message)
	}
	log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
	return response.InternalServerError(c, fallback)
}

// CustomErrorHandler handles errors returned up to Fiber
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Code, fe.Message)
	}
	return ServiceError(c, err, "Internal Server Error")
}
