package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"posdesk/internal/adapters/persistence/models"
	"posdesk/internal/adapters/persistence/repositories"
	"posdesk/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReminderEngineConfig tunes a reminder engine
type ReminderEngineConfig struct {
	Location  *time.Location // calendar used for "today"; defaults to time.Local
	Signature string         // appended to every outbound message, e.g. the store name
}

// ReminderEngine scans open loans once per run, records at most one reminder
// per loan, type and day, and dispatches it to the customer.
type ReminderEngine struct {
	loanRepo     repositories.LoanRepository
	customerRepo repositories.CustomerRepository
	reminderRepo repositories.ReminderRepository
	generator    MessageGenerator
	notifier     Notifier
	analytics    *AnalyticsService
	reporter     RunReporter
	lock         RunLock
	config       ReminderEngineConfig
	now          func() time.Time
}

// ReminderEngineOption customises optional collaborators
type ReminderEngineOption func(*ReminderEngine)

// WithRunLock serialises runs across instances
func WithRunLock(lock RunLock) ReminderEngineOption {
	return func(e *ReminderEngine) { e.lock = lock }
}

// WithAnalytics rolls analytics up after every run
func WithAnalytics(analytics *AnalyticsService) ReminderEngineOption {
	return func(e *ReminderEngine) { e.analytics = analytics }
}

// WithRunReporter reports run outcomes to staff
func WithRunReporter(reporter RunReporter) ReminderEngineOption {
	return func(e *ReminderEngine) { e.reporter = reporter }
}

// WithClock overrides the engine's clock
func WithClock(now func() time.Time) ReminderEngineOption {
	return func(e *ReminderEngine) { e.now = now }
}

// NewReminderEngine creates a new reminder engine
func NewReminderEngine(
	loanRepo repositories.LoanRepository,
	customerRepo repositories.CustomerRepository,
	reminderRepo repositories.ReminderRepository,
	generator MessageGenerator,
	notifier Notifier,
	config ReminderEngineConfig,
	opts ...ReminderEngineOption,
) *ReminderEngine {
	if config.Location == nil {
		config.Location = time.Local
	}
	e := &ReminderEngine{
		loanRepo:     loanRepo,
		customerRepo: customerRepo,
		reminderRepo: reminderRepo,
		generator:    generator,
		notifier:     notifier,
		config:       config,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// loanOutcome is what one loan contributed to a run
type loanOutcome struct {
	generated bool
	sent      bool
}

// ============================================================
// Run
// ============================================================

// Run performs one reminder pass. Only a failure to list open loans (or a
// lock held elsewhere) fails the run; per-loan errors are logged and counted.
func (e *ReminderEngine) Run(ctx context.Context) (*domain.RunSummary, error) {
	if e.lock != nil {
		release, acquired, err := e.lock.Acquire(ctx)
		switch {
		case err != nil:
			// the unique index still prevents duplicate reminders
			log.Printf("⚠️ Reminder run lock unavailable, continuing without it: %v", err)
		case !acquired:
			return nil, domain.ErrRunInProgress
		default:
			defer release()
		}
	}

	now := e.now().In(e.config.Location)
	summary := &domain.RunSummary{
		RunID:     uuid.New(),
		StartedAt: now,
	}
	log.Printf("⏰ Reminder run %s started", summary.RunID)

	loans, err := e.loanRepo.ListOpen(ctx)
	if err != nil {
		err = fmt.Errorf("list open loans: %w", err)
		log.Printf("❌ Reminder run %s failed: %v", summary.RunID, err)
		if e.reporter != nil {
			e.reporter.ReminderRunFailed(err)
		}
		return nil, err
	}

	for _, loan := range loans {
		if ctx.Err() != nil {
			log.Printf("⚠️ Reminder run %s interrupted: %v", summary.RunID, ctx.Err())
			break
		}

		outcome, err := e.processLoan(ctx, loan, now)
		summary.LoansProcessed++
		if outcome.generated {
			summary.RemindersGenerated++
		}
		if outcome.sent {
			summary.MessagesScheduled++
		}
		if err != nil {
			summary.LoansFailed++
			log.Printf("❌ Reminder for loan %d failed: %v", loan.ID, err)
		}
	}

	if e.analytics != nil {
		if _, err := e.analytics.Rollup(ctx, now); err != nil {
			log.Printf("⚠️ Loan analytics rollup failed: %v", err)
		}
	}

	summary.FinishedAt = e.now().In(e.config.Location)
	log.Printf("✅ Reminder run %s finished: %d loans, %d reminders, %d sent, %d failed",
		summary.RunID, summary.LoansProcessed, summary.RemindersGenerated, summary.MessagesScheduled, summary.LoansFailed)

	if e.reporter != nil {
		e.reporter.ReminderRunCompleted(*summary)
	}
	return summary, ctx.Err()
}

// processLoan runs the reminder pipeline for a single loan
func (e *ReminderEngine) processLoan(ctx context.Context, loan *models.Loan, now time.Time) (loanOutcome, error) {
	var outcome loanOutcome

	days := domain.DaysUntilDue(loan.DueDate, now)

	if days < 0 && loan.Status == domain.LoanStatusActive {
		moved, err := e.loanRepo.UpdateStatus(ctx, loan.ID, domain.LoanStatusActive, domain.LoanStatusOverdue)
		if err != nil {
			return outcome, fmt.Errorf("mark overdue: %w", err)
		}
		if moved {
			log.Printf("📌 Loan %d is now overdue", loan.ID)
		}
		loan.Status = domain.LoanStatusOverdue
	}

	kind, due := domain.Classify(days)
	if !due {
		return outcome, nil
	}

	day := now.Format(domain.DateLayout)
	exists, err := e.reminderRepo.ExistsForDay(ctx, loan.ID, string(kind), day)
	if err != nil {
		return outcome, fmt.Errorf("check existing reminder: %w", err)
	}
	if exists {
		return outcome, nil
	}

	customer := loan.Customer
	if customer == nil {
		customer, err = e.customerRepo.GetByID(ctx, loan.CustomerID)
		if err != nil {
			return outcome, fmt.Errorf("load customer %d: %w", loan.CustomerID, err)
		}
	}

	risk := domain.AssessRisk(customer.Behavior().PaymentHistory)
	msg, err := e.generator.Generate(ctx, MessageInput{
		CustomerName: customer.Name,
		Balance:      loan.RemainingBalance,
		DueDate:      loan.DueDate.In(now.Location()),
		Type:         kind,
		DaysUntilDue: days,
		Risk:         risk,
	})
	if err != nil {
		return outcome, fmt.Errorf("generate message: %w", err)
	}

	reminder := &models.LoanReminder{
		LoanID:         loan.ID,
		ReminderType:   string(kind),
		ReminderDate:   day,
		MessageContent: msg.Body,
		ScheduledDate:  now,
		AIPersonalization: datatypes.NewJSONType(domain.ReminderPersonalization{
			RiskLevel:     risk.Level,
			OnTimeRate:    risk.OnTimeRate,
			TotalPayments: risk.TotalPayments,
			Insight:       msg.Insight,
			GeneratedBy:   msg.GeneratedBy,
		}),
	}
	inserted, err := e.reminderRepo.CreateIfAbsent(ctx, reminder)
	if err != nil {
		return outcome, fmt.Errorf("save reminder: %w", err)
	}
	if !inserted {
		// another run recorded it first
		return outcome, nil
	}
	outcome.generated = true

	if customer.Phone == "" {
		return outcome, domain.ErrMissingPhone
	}

	messageID, err := e.notifier.Send(ctx, Notification{
		Phone: customer.Phone,
		Title: reminderTitle(kind),
		Body:  e.present(msg.Body),
		Type:  kind,
	})
	if err != nil {
		if errors.Is(err, domain.ErrChannelDisabled) {
			return outcome, nil
		}
		return outcome, fmt.Errorf("dispatch reminder %d: %w", reminder.ID, err)
	}

	if err := e.reminderRepo.MarkSent(ctx, reminder.ID, e.now().In(e.config.Location), messageID); err != nil {
		return outcome, fmt.Errorf("mark reminder %d sent: %w", reminder.ID, err)
	}
	outcome.sent = true
	return outcome, nil
}

// present adds the outbound signature to a generated message
func (e *ReminderEngine) present(body string) string {
	if e.config.Signature == "" {
		return body
	}
	return body + "\n\n- " + e.config.Signature
}

func reminderTitle(kind domain.ReminderType) string {
	switch kind {
	case domain.ReminderBeforeDue:
		return "Payment reminder"
	case domain.ReminderOnDue:
		return "Payment due today"
	case domain.ReminderOverdue:
		return "Payment overdue"
	}
	return "Loan reminder"
}
