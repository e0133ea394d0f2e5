// Package app assembles the reminder engine and its collaborators from
// configuration. It is shared by the API server and the one-shot runner.
package app

import (
	"context"
	"fmt"
	"log"

	"posdesk/internal/adapters/cache"
	"posdesk/internal/adapters/messaging"
	"posdesk/internal/adapters/persistence/repositories"
	"posdesk/internal/config"
	"posdesk/internal/core/services"

	"gorm.io/gorm"
)

const runLockKey = "posdesk:reminders:run"

// Reminders is the wired reminder stack
type Reminders struct {
	Engine    *services.ReminderEngine
	Analytics *services.AnalyticsService
	Redis     *cache.Redis // nil when no Redis is configured

	closers []func()
}

// Close releases the notifier session and the Redis connection
func (r *Reminders) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// NewReminders builds the engine: template or AI messages, WhatsApp
// delivery per cfg.WhatsApp.Mode, an optional Redis run lock and the
// LINE Notify run report.
func NewReminders(ctx context.Context, cfg *config.Config, db *gorm.DB) (*Reminders, error) {
	r := &Reminders{}

	loanRepo := repositories.NewLoanRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	reminderRepo := repositories.NewReminderRepository(db)
	analyticsRepo := repositories.NewAnalyticsRepository(db)

	r.Analytics = services.NewAnalyticsService(loanRepo, customerRepo, reminderRepo, analyticsRepo)

	notifier, err := r.newNotifier(ctx, cfg.WhatsApp)
	if err != nil {
		r.Close()
		return nil, err
	}

	gemini := services.NewGeminiClient(services.GeminiConfig{
		APIKey:  cfg.AI.GeminiAPIKey,
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
		Timeout: cfg.AI.Timeout,
	})
	generator := services.NewFallbackGenerator(services.NewAIGenerator(gemini), services.NewTemplateGenerator())
	if gemini == nil {
		log.Println("ℹ️ GEMINI_API_KEY not set, reminders use message templates")
	}

	opts := []services.ReminderEngineOption{
		services.WithAnalytics(r.Analytics),
	}
	if staff := services.NewNotificationService(cfg.LineNotify.Token); staff.IsEnabled() {
		opts = append(opts, services.WithRunReporter(staff))
	} else {
		log.Println("ℹ️ LINE_NOTIFY_TOKEN not set, run reports are only logged")
	}

	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			// the unique reminder index still prevents duplicates
			log.Printf("⚠️ Redis unavailable, reminder runs are not locked across instances: %v", err)
		} else {
			r.Redis = rdb
			r.closers = append(r.closers, func() { _ = rdb.Close() })
			opts = append(opts, services.WithRunLock(cache.NewRunLock(rdb.Client, runLockKey, cfg.Redis.LockTTL)))
		}
	}

	r.Engine = services.NewReminderEngine(
		loanRepo,
		customerRepo,
		reminderRepo,
		generator,
		notifier,
		services.ReminderEngineConfig{
			Location:  cfg.Reminder.Location,
			Signature: cfg.Reminder.Signature,
		},
		opts...,
	)
	return r, nil
}

func (r *Reminders) newNotifier(ctx context.Context, wa config.WhatsAppConfig) (services.Notifier, error) {
	var notifier services.Notifier
	switch wa.Mode {
	case config.WhatsAppModeCloud:
		if wa.CloudToken == "" || wa.PhoneNumberID == "" {
			return nil, fmt.Errorf("WHATSAPP_MODE=cloud requires WHATSAPP_TOKEN and WHATSAPP_PHONE_NUMBER_ID")
		}
		notifier = messaging.NewCloudNotifier(messaging.CloudConfig{
			BaseURL:       wa.CloudBaseURL,
			AccessToken:   wa.CloudToken,
			PhoneNumberID: wa.PhoneNumberID,
		})
		log.Println("✅ WhatsApp Cloud API delivery enabled")
	case config.WhatsAppModeDevice:
		device, err := messaging.NewDeviceNotifier(ctx, wa.DeviceStorePath)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, device.Close)
		notifier = device
	default:
		log.Println("⚠️ WhatsApp delivery disabled, reminders are recorded but not sent")
		return messaging.DisabledNotifier{}, nil
	}
	return messaging.NewThrottledNotifier(notifier, wa.MessagesPerSecond), nil
}
