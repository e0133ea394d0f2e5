package routes

import (
	"time"

	"posdesk/internal/adapters/http/handlers"
	"posdesk/internal/adapters/http/middleware"
	"posdesk/internal/config"
	"posdesk/internal/core/domain"
	"posdesk/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Dependencies are the services the HTTP layer is built from
type Dependencies struct {
	Access    *services.AccessResolver
	Auth      *services.AuthService
	Users     *services.UserService
	Loans     *services.LoanService
	Analytics *services.AnalyticsService
	Reminders services.ReminderRunner
	Health    map[string]handlers.HealthCheckFunc
}

// Setup configures all routes for the application
func Setup(app *fiber.App, cfg *config.Config, deps *Dependencies) {
	location := cfg.Reminder.Location

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, deps.Health)
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Access)
	accessHandler := handlers.NewAccessHandler(deps.Access)
	userHandler := handlers.NewUserHandler(deps.Users)
	loanHandler := handlers.NewLoanHandler(deps.Loans)
	reminderHandler := handlers.NewReminderHandler(deps.Reminders, deps.Loans)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Analytics, location)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	requireAuth := middleware.AuthMiddleware(cfg)

	// Auth routes
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Post("/logout", requireAuth, authHandler.Logout)
	authRoutes.Get("/me", requireAuth, middleware.NoCacheHeaders(), authHandler.Me)

	// Internal trigger for an external scheduler (shared secret, no session)
	internalRoutes := apiV1.Group("/internal")
	internalRoutes.Post("/reminders/run", middleware.CronSecret(cfg.Reminder.CronSecret), reminderHandler.Run)

	// Everything below requires a signed-in staff member
	setupAccessRoutes(apiV1.Group("/access", requireAuth, middleware.NoCacheHeaders()), accessHandler)
	setupProfileRoutes(apiV1.Group("/profile", requireAuth), userHandler)
	setupUserRoutes(apiV1.Group("/users", requireAuth), userHandler, deps.Access)
	setupLoanRoutes(apiV1, requireAuth, loanHandler, reminderHandler, deps.Access)
	setupAnalyticsRoutes(apiV1.Group("/analytics", requireAuth), analyticsHandler, deps.Access)
	setupAuditRoutes(apiV1.Group("/audit", requireAuth), accessHandler, deps.Access)
}

// setupAccessRoutes configures permission snapshot, preview and navigation routes
func setupAccessRoutes(router fiber.Router, handler *handlers.AccessHandler) {
	router.Get("/permissions", handler.Permissions)
	router.Put("/preview", handler.SetPreview)
	router.Delete("/preview", handler.ClearPreview)
	router.Get("/navigation", handler.Navigation)
}

// setupProfileRoutes configures routes on the caller's own account
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Put("/password", middleware.StrictRateLimiter(), handler.ChangePassword)
}

// setupUserRoutes configures staff management routes (canManageStaff)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler, access *services.AccessResolver) {
	router.Use(middleware.RequireCapability(access, domain.CanManageStaff))

	router.Get("/", handler.ListUsers)
	router.Post("/", handler.CreateStaff)
	router.Get("/:id", handler.GetUser)
	router.Patch("/:id/role", handler.SetRole)
	router.Patch("/:id/active", handler.SetActive)
}

// setupLoanRoutes configures customer, loan and reminder routes
func setupLoanRoutes(
	router fiber.Router,
	requireAuth fiber.Handler,
	loanHandler *handlers.LoanHandler,
	reminderHandler *handlers.ReminderHandler,
	access *services.AccessResolver,
) {
	canManageLoans := middleware.RequireCapability(access, domain.CanManageLoans)

	customers := router.Group("/customers", requireAuth, middleware.RequireCapability(access, domain.CanManageCustomers))
	customers.Post("/", loanHandler.CreateCustomer)

	loans := router.Group("/loans", requireAuth, canManageLoans)
	loans.Get("/", loanHandler.ListLoans)
	loans.Post("/", loanHandler.CreateLoan)
	loans.Get("/:id", loanHandler.GetLoan)
	loans.Post("/:id/payments", loanHandler.RecordPayment)
	loans.Get("/:id/reminders", loanHandler.LoanReminders)

	reminders := router.Group("/reminders", requireAuth, canManageLoans)
	reminders.Get("/", middleware.NoCacheHeaders(), reminderHandler.List)
	reminders.Post("/run", middleware.StrictRateLimiter(), reminderHandler.Run)
}

// setupAnalyticsRoutes configures reporting routes (canViewReports)
func setupAnalyticsRoutes(router fiber.Router, handler *handlers.AnalyticsHandler, access *services.AccessResolver) {
	router.Use(middleware.RequireCapability(access, domain.CanViewReports))

	router.Get("/loans", middleware.PrivateCacheHeaders(time.Minute), handler.GetLoanAnalytics)
	router.Post("/loans/refresh", handler.RefreshLoanAnalytics)
}

// setupAuditRoutes configures audit routes (admin and manager, like the audit menu entry)
func setupAuditRoutes(router fiber.Router, handler *handlers.AccessHandler, access *services.AccessResolver) {
	router.Use(middleware.RequireRoles(access, domain.RoleAdmin, domain.RoleManager))

	router.Get("/sessions", middleware.NoCacheHeaders(), handler.Sessions)
}
