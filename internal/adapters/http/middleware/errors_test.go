package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"posdesk/internal/core/domain"
	"posdesk/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err     error
		code    int
		message string
	}{
		{fmt.Errorf("record payment: %w", domain.ErrPaymentExceedsBalance), http.StatusBadRequest, "Payment exceeds remaining balance"},
		{fmt.Errorf("get loan 9: %w", domain.ErrLoanNotFound), http.StatusNotFound, "Loan not found"},
		{domain.ErrLoanNotOpen, http.StatusConflict, "Loan is not open"},
		{domain.ErrForbidden, http.StatusForbidden, "Access Denied"},
		{services.ErrAdminRequired, http.StatusForbidden, "Access Denied"},
		{domain.ErrNotFound, http.StatusNotFound, "Not found"},
		{domain.ErrUserInactive, http.StatusForbidden, "Account is inactive"},
		{domain.ErrRunInProgress, http.StatusConflict, "Reminder run already in progress"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			code, message, ok := ErrorStatus(tt.err)
			assert.True(t, ok)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, message)
		})
	}

	code, _, ok := ErrorStatus(errors.New("connection reset"))
	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestCustomErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: CustomErrorHandler})
	app.Get("/forbidden", func(c *fiber.Ctx) error { return fmt.Errorf("set role: %w", domain.ErrForbidden) })
	app.Get("/missing", func(c *fiber.Ctx) error { return domain.ErrNotFound })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("dial tcp 10.0.0.5:3306: refused") })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	tests := []struct {
		path    string
		code    int
		message string
	}{
		{"/forbidden", http.StatusForbidden, "Access Denied"},
		{"/missing", http.StatusNotFound, "Not found"},
		{"/boom", http.StatusInternalServerError, "Internal Server Error"},
		{"/teapot", http.StatusTeapot, "short and stout"},
		{"/nowhere", http.StatusNotFound, "Cannot GET /nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["error"])
		})
	}
}
