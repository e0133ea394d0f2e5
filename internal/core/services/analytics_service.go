package services

import (
	"context"
	"errors"
	"time"

	"posdesk/internal/adapters/persistence/models"
	"posdesk/internal/adapters/persistence/repositories"
	"posdesk/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalyticsService maintains the daily loan portfolio snapshot
type AnalyticsService struct {
	loanRepo      repositories.LoanRepository
	customerRepo  repositories.CustomerRepository
	reminderRepo  repositories.ReminderRepository
	analyticsRepo repositories.AnalyticsRepository
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	loanRepo repositories.LoanRepository,
	customerRepo repositories.CustomerRepository,
	reminderRepo repositories.ReminderRepository,
	analyticsRepo repositories.AnalyticsRepository,
) *AnalyticsService {
	return &AnalyticsService{
		loanRepo:      loanRepo,
		customerRepo:  customerRepo,
		reminderRepo:  reminderRepo,
		analyticsRepo: analyticsRepo,
	}
}

// ============================================================
// Rollup
// ============================================================

// Rollup recomputes the snapshot for day's calendar date and upserts it
func (s *AnalyticsService) Rollup(ctx context.Context, day time.Time) (*models.LoanAnalytics, error) {
	loans, err := s.loanRepo.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &models.LoanAnalytics{
		SnapshotDate:     day.Format(domain.DateLayout),
		TotalOutstanding: decimal.Zero,
	}
	for _, loan := range loans {
		snapshot.OpenLoans++
		snapshot.TotalOutstanding = snapshot.TotalOutstanding.Add(loan.RemainingBalance)
		if loan.Status == domain.LoanStatusOverdue {
			snapshot.OverdueLoans++
		}
	}

	customers, err := s.customerRepo.ListWithOpenLoans(ctx)
	if err != nil {
		return nil, err
	}
	distribution := map[domain.RiskLevel]int{
		domain.RiskLow:    0,
		domain.RiskMedium: 0,
		domain.RiskHigh:   0,
	}
	for _, customer := range customers {
		distribution[domain.AssessRisk(customer.Behavior().PaymentHistory).Level]++
	}
	snapshot.RiskDistribution = datatypes.NewJSONType(distribution)

	if err := s.analyticsRepo.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ============================================================
// Read side
// ============================================================

// LoanOverview is the analytics payload shown to managers
type LoanOverview struct {
	Snapshot       *models.LoanAnalytics `json:"snapshot"`
	RemindersToday int                   `json:"reminders_today"`
	SentToday      int                   `json:"sent_today"`
}

// Latest returns the most recent snapshot or ErrNotFound when none exists
func (s *AnalyticsService) Latest(ctx context.Context) (*models.LoanAnalytics, error) {
	snapshot, err := s.analyticsRepo.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return snapshot, nil
}

// Overview combines the latest snapshot with today's reminder counts
func (s *AnalyticsService) Overview(ctx context.Context, today time.Time) (*LoanOverview, error) {
	overview := &LoanOverview{}

	snapshot, err := s.Latest(ctx)
	switch {
	case err == nil:
		overview.Snapshot = snapshot
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	reminders, err := s.reminderRepo.ListByDay(ctx, today.Format(domain.DateLayout))
	if err != nil {
		return nil, err
	}
	overview.RemindersToday = len(reminders)
	for _, r := range reminders {
		if r.IsSent {
			overview.SentToday++
		}
	}
	return overview, nil
}
