package repositories

import (
	"context"

	"posdesk/internal/adapters/persistence/models"
	"posdesk/internal/core/domain"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a new loan
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	loan.RecomputeBalance()
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID with its customer
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Customer").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Update saves a loan, keeping the balance consistent
func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	loan.RecomputeBalance()
	return r.db.WithContext(ctx).Omit("Customer").Save(loan).Error
}

// UpdateStatus moves a loan from one status to another. It reports false
// when the loan was no longer in the expected status.
func (r *loanRepository) UpdateStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected > 0, result.Error
}

// ListOpen lists loans that still have a balance to collect, oldest due first
func (r *loanRepository) ListOpen(ctx context.Context) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("status IN ?", domain.OpenLoanStatuses).
		Where("remaining_balance > 0").
		Order("due_date ASC").
		Order("id ASC").
		Find(&loans).Error
	return loans, err
}

// List lists loans with pagination and optional status filter
func (r *loanRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	byStatus := func(db *gorm.DB) *gorm.DB {
		if status != "" {
			return db.Where("status = ?", status)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.Loan{}).Scopes(byStatus).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Scopes(byStatus).
		Preload("Customer").
		Order("due_date ASC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}
