package repositories

import (
	"context"

	"posdesk/internal/adapters/persistence/models"
	"posdesk/internal/core/domain"

	"gorm.io/gorm"
)

// customerRepository implements CustomerRepository interface
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create creates a new customer
func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

// GetByID gets a customer by ID
func (r *customerRepository) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// Update updates a customer
func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// ListWithOpenLoans lists customers that owe on at least one open loan
func (r *customerRepository) ListWithOpenLoans(ctx context.Context) ([]*models.Customer, error) {
	var customers []*models.Customer

	openLoans := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Select("customer_id").
		Where("status IN ?", domain.OpenLoanStatuses).
		Where("remaining_balance > 0")

	err := r.db.WithContext(ctx).
		Where("id IN (?)", openLoans).
		Order("id ASC").
		Find(&customers).Error
	return customers, err
}
