package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"posdesk/internal/adapters/http/handlers"
	"posdesk/internal/adapters/http/middleware"
	"posdesk/internal/adapters/http/routes"
	"posdesk/internal/adapters/persistence/models"
	"posdesk/internal/adapters/persistence/repositories"
	"posdesk/internal/app"
	"posdesk/internal/config"
	"posdesk/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "posdesk/docs" // Swagger docs
)

// @title POSDesk Back Office API
// @version 1.0
// @description Staff access control and loan reminder API for the POSDesk back office

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables and the one-reminder-per-day index)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed admin and demo data
	if err := config.NewSeeder(db, cfg.Seed, cfg.Reminder.Location).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	// Reminder engine
	ctx := context.Background()
	reminders, err := app.NewReminders(ctx, cfg, db)
	if err != nil {
		log.Fatalf("❌ Failed to set up reminders: %v", err)
	}
	defer reminders.Close()

	// Daily schedule
	if cfg.Reminder.Enabled {
		cronService := services.NewCronService(reminders.Engine, cfg.Reminder.Cron, cfg.Reminder.Location)
		if err := cronService.Start(); err != nil {
			log.Fatalf("❌ Invalid REMINDER_CRON %q: %v", cfg.Reminder.Cron, err)
		}
		defer cronService.Stop()
		log.Printf("⏰ Next reminder run at %s", cronService.Next().Format("2006-01-02 15:04 MST"))
	} else {
		log.Println("⚠️ Scheduled reminders disabled (REMINDER_ENABLED=false)")
	}

	// Services
	userRepo := repositories.NewUserRepository(db)
	access := services.NewAccessResolver(services.NewUserProfileSource(userRepo))

	health := map[string]handlers.HealthCheckFunc{
		"database": config.HealthCheck,
	}
	if reminders.Redis != nil {
		health["redis"] = func() error { return reminders.Redis.Ping(context.Background()) }
	}

	// Create Fiber app
	fiberApp := fiber.New(fiber.Config{
		AppName:      "POSDesk Back Office API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(fiberApp, cfg)

	// Setup routes
	routes.Setup(fiberApp, cfg, &routes.Dependencies{
		Access:    access,
		Auth:      services.NewAuthService(userRepo, access, cfg),
		Users:     services.NewUserService(userRepo, access),
		Loans:     services.NewLoanService(db, cfg.Reminder.Location),
		Analytics: reminders.Analytics,
		Reminders: reminders.Engine,
		Health:    health,
	})

	// Graceful shutdown
	go gracefulShutdown(fiberApp)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := fiberApp.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
