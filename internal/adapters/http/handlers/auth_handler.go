package handlers

import (
	"posdesk/internal/adapters/http/middleware"
	"posdesk/internal/core/services"
	"posdesk/internal/pkg/response"
	"posdesk/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	access      *services.AccessResolver
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, access *services.AccessResolver) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		access:      access,
	}
}

// Login handles staff login
// @Summary Login
// @Description Authenticate a staff member and return an access token with the permission snapshot
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, validate.Message(err))
	}

	result, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return middleware.ServiceError(c, err, "Failed to login")
	}

	return response.Success(c, "Login successful", result)
}

// Logout handles logout
// @Summary Logout
// @Description Drop the caller's permission session, including any role preview
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	_ = h.authService.Logout(c.UserContext(), middleware.UserID(c))
	return response.Success(c, "Logged out successfully", nil)
}

// Me returns the current user with their permission snapshot
// @Summary Current user
// @Description Get the signed-in staff member and their current permission snapshot
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	user, err := h.authService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return middleware.ServiceError(c, err, "Failed to get user")
	}

	view := h.access.View(c.UserContext(), userID)
	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user":        user.ToResponse(),
		"permissions": view.Snapshot,
	})
}
