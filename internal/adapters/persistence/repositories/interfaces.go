package repositories

import (
	"context"
	"time"

	"posdesk/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// CustomerRepository defines customer repository interface
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id uint) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	ListWithOpenLoans(ctx context.Context) ([]*models.Customer, error)
}

// LoanRepository defines loan repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	UpdateStatus(ctx context.Context, id uint, from, to string) (bool, error)
	ListOpen(ctx context.Context) ([]*models.Loan, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error)
}

// ReminderRepository defines loan reminder repository interface
type ReminderRepository interface {
	ExistsForDay(ctx context.Context, loanID uint, reminderType, day string) (bool, error)
	CreateIfAbsent(ctx context.Context, reminder *models.LoanReminder) (bool, error)
	MarkSent(ctx context.Context, id uint, sentAt time.Time, messageID string) error
	ListByLoan(ctx context.Context, loanID uint) ([]*models.LoanReminder, error)
	ListByDay(ctx context.Context, day string) ([]*models.LoanReminder, error)
}

// AnalyticsRepository defines loan analytics repository interface
type AnalyticsRepository interface {
	Upsert(ctx context.Context, snapshot *models.LoanAnalytics) error
	Latest(ctx context.Context) (*models.LoanAnalytics, error)
}
