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

// LoanService handles customer loans and repayments
type LoanService struct {
	db           *gorm.DB
	loanRepo     repositories.LoanRepository
	customerRepo repositories.CustomerRepository
	reminderRepo repositories.ReminderRepository
	location     *time.Location
	now          func() time.Time
}

// NewLoanService creates a new loan service
func NewLoanService(db *gorm.DB, location *time.Location) *LoanService {
	if location == nil {
		location = time.Local
	}
	return &LoanService{
		db:           db,
		loanRepo:     repositories.NewLoanRepository(db),
		customerRepo: repositories.NewCustomerRepository(db),
		reminderRepo: repositories.NewReminderRepository(db),
		location:     location,
		now:          time.Now,
	}
}

// CreateCustomerInput represents create customer input
type CreateCustomerInput struct {
	Name  string `json:"name" validate:"required,max=150"`
	Phone string `json:"phone" validate:"required,max=30"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// CreateLoanInput represents create loan input
type CreateLoanInput struct {
	CustomerID  uint            `json:"customer_id" validate:"required"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DueDate     string          `json:"due_date" validate:"required,datetime=2006-01-02"`
}

// RecordPaymentInput represents a repayment
type RecordPaymentInput struct {
	Amount decimal.Decimal `json:"amount"`
}

// ============================================================
// Customers
// ============================================================

// CreateCustomer registers a customer with an empty payment history
func (s *LoanService) CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*models.Customer, error) {
	customer := &models.Customer{
		Name:              input.Name,
		Phone:             input.Phone,
		RepaymentBehavior: datatypes.NewJSONType(domain.RepaymentBehavior{RiskLevel: domain.RiskHigh}),
	}
	if input.Email != "" {
		customer.Email = &input.Email
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// ============================================================
// Loans
// ============================================================

// Create opens a new active loan for an existing customer
func (s *LoanService) Create(ctx context.Context, input *CreateLoanInput) (*models.Loan, error) {
	if !input.TotalAmount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	due, err := time.ParseInLocation(domain.DateLayout, input.DueDate, s.location)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	customer, err := s.customerRepo.GetByID(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}

	loan := &models.Loan{
		CustomerID:  customer.ID,
		TotalAmount: input.TotalAmount.Round(2),
		PaidAmount:  decimal.Zero,
		DueDate:     due,
		Status:      domain.LoanStatusActive,
	}
	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, err
	}
	loan.Customer = customer
	return loan, nil
}

// GetByID returns a loan with its customer
func (s *LoanService) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// List lists loans, optionally filtered by status
func (s *LoanService) List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error) {
	return s.loanRepo.List(ctx, status, offset, limit)
}

// ============================================================
// Repayments
// ============================================================

// RecordPayment applies a repayment, closes the loan when fully paid, and
// appends the payment to the customer's history.
func (s *LoanService) RecordPayment(ctx context.Context, loanID uint, input *RecordPaymentInput) (*models.Loan, error) {
	amount := input.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var updated *models.Loan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loanRepo := repositories.NewLoanRepository(tx)
		customerRepo := repositories.NewCustomerRepository(tx)

		loan, err := loanRepo.GetByID(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLoanNotFound
			}
			return err
		}
		if !loan.IsOpen() {
			return domain.ErrLoanNotOpen
		}
		if amount.GreaterThan(loan.RemainingBalance) {
			return domain.ErrPaymentExceedsBalance
		}

		paidAt := s.now().In(s.location)
		loan.PaidAmount = loan.PaidAmount.Add(amount)
		loan.RecomputeBalance()
		if loan.RemainingBalance.IsZero() {
			loan.Status = domain.LoanStatusPaid
		}
		if err := loanRepo.Update(ctx, loan); err != nil {
			return err
		}

		customer := loan.Customer
		if customer == nil {
			if customer, err = customerRepo.GetByID(ctx, loan.CustomerID); err != nil {
				return err
			}
		}
		behavior := customer.Behavior()
		behavior.PaymentHistory = append(behavior.PaymentHistory, domain.PaymentRecord{
			LoanID: loan.ID,
			PaidAt: paidAt,
			Amount: amount.StringFixed(2),
			OnTime: domain.DaysUntilDue(loan.DueDate, paidAt) >= 0,
		})
		behavior.RiskLevel = domain.AssessRisk(behavior.PaymentHistory).Level
		customer.RepaymentBehavior = datatypes.NewJSONType(behavior)
		if err := customerRepo.Update(ctx, customer); err != nil {
			return err
		}

		loan.Customer = customer
		updated = loan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ============================================================
// Reminder history
// ============================================================

// Reminders lists the reminders recorded for a loan
func (s *LoanService) Reminders(ctx context.Context, loanID uint) ([]*models.LoanReminder, error) {
	if _, err := s.GetByID(ctx, loanID); err != nil {
		return nil, err
	}
	return s.reminderRepo.ListByLoan(ctx, loanID)
}

// RemindersOn lists the reminders recorded for a calendar day (YYYY-MM-DD)
func (s *LoanService) RemindersOn(ctx context.Context, day string) ([]*models.LoanReminder, error) {
	if _, err := time.Parse(domain.DateLayout, day); err != nil {
		return nil, domain.ErrInvalidInput
	}
	return s.reminderRepo.ListByDay(ctx, day)
}

// Today returns today's date key in the store's calendar
func (s *LoanService) Today() string {
	return s.now().In(s.location).Format(domain.DateLayout)
}
