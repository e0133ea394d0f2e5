package middleware

import (
	"crypto/subtle"
	"strings"

	"posdesk/internal/config"
	"posdesk/internal/core/domain"
	"posdesk/internal/core/services"
	"posdesk/internal/pkg/jwt"
	"posdesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthMiddleware
const (
	LocalUserID = "userID"
	LocalEmail  = "email"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Read bearer token
		accessToken := bearerToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 2. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 3. Set user info in context. The role claim is not trusted for
		// authorization; guards resolve permissions from the stored profile.
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)

		return c.Next()
	}
}

// UserID returns the authenticated user id, zero when absent
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// ============================================================
// Permission guards
// ============================================================

// Guard blocks the request unless the actor's current permission view
// satisfies req. A signed-in actor whose profile is missing or inactive
// resolves to the empty snapshot and is denied.
func Guard(resolver *services.AccessResolver, req domain.Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == 0 {
			return response.Unauthorized(c, "Unauthorized")
		}

		view := resolver.View(c.UserContext(), userID)
		if !domain.Guard(view, req) {
			return response.Forbidden(c, "Access Denied")
		}
		return c.Next()
	}
}

// RequireCapability allows actors whose effective role has cap
func RequireCapability(resolver *services.AccessResolver, cap domain.Capability) fiber.Handler {
	return Guard(resolver, domain.Requirement{Capability: cap})
}

// RequireRoles allows actors whose effective role is one of roles
func RequireRoles(resolver *services.AccessResolver, roles ...domain.Role) fiber.Handler {
	return Guard(resolver, domain.Requirement{AllowedRoles: roles})
}

// ============================================================
// Internal triggers
// ============================================================

// CronSecret protects internal endpoints called by an external scheduler.
// An empty secret disables the endpoints entirely.
func CronSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return response.NotFound(c, "Not found")
		}
		given := c.Get("X-Cron-Secret")
		if subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			return response.Unauthorized(c, "Invalid cron secret")
		}
		return c.Next()
	}
}
