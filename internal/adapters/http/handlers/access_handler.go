package handlers

import (
	"posdesk/internal/adapters/http/middleware"
	"posdesk/internal/core/domain"
	"posdesk/internal/core/services"
	"posdesk/internal/pkg/response"
	"posdesk/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// AccessHandler exposes the caller's permission snapshot, admin preview
// mode and the filtered navigation
type AccessHandler struct {
	access *services.AccessResolver
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(access *services.AccessResolver) *AccessHandler {
	return &AccessHandler{access: access}
}

// PreviewRequest selects the role an admin previews as
type PreviewRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager supervisor cashier"`
}

// Permissions returns the caller's permission snapshot
// @Summary Current permissions
// @Description Effective role, actual role, preview state and capability flags of the caller
// @Tags Access
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /access/permissions [get]
func (h *AccessHandler) Permissions(c *fiber.Ctx) error {
	view := h.access.View(c.UserContext(), middleware.UserID(c))
	return response.Success(c, "Permissions retrieved successfully", view)
}

// SetPreview enters preview mode as another role. Non-admin callers get
// their unchanged snapshot back.
// @Summary Preview as role
// @Tags Access
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PreviewRequest true "Role to preview"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /access/preview [put]
func (h *AccessHandler) SetPreview(c *fiber.Ctx) error {
	var req PreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, validate.Message(err))
	}

	view := h.access.SetPreviewRole(c.UserContext(), middleware.UserID(c), domain.Role(req.Role))
	return response.Success(c, "Preview updated", view)
}

// ClearPreview leaves preview mode
// @Summary Clear preview
// @Tags Access
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /access/preview [delete]
func (h *AccessHandler) ClearPreview(c *fiber.Ctx) error {
	view := h.access.ClearPreviewRole(c.UserContext(), middleware.UserID(c))
	return response.Success(c, "Preview cleared", view)
}

// Navigation returns the menu entries visible to the caller
// @Summary Navigation
// @Tags Access
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /access/navigation [get]
func (h *AccessHandler) Navigation(c *fiber.Ctx) error {
	items := h.access.Navigation(c.UserContext(), middleware.UserID(c))
	return response.Success(c, "Navigation retrieved successfully", fiber.Map{
		"items": items,
	})
}

// Sessions lists live access sessions and admins in preview mode
// @Summary Access session audit
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /audit/sessions [get]
func (h *AccessHandler) Sessions(c *fiber.Ctx) error {
	return response.Success(c, "Sessions retrieved successfully", h.access.Audit())
}
