package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"posdesk/internal/adapters/persistence/models"
	"posdesk/internal/adapters/persistence/repositories"
	"posdesk/internal/core/domain"
	"posdesk/internal/pkg/password"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	password.Cost = bcrypt.MinCost
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, name, phone string, history ...domain.PaymentRecord) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		Name:              name,
		Phone:             phone,
		RepaymentBehavior: datatypes.NewJSONType(domain.RepaymentBehavior{PaymentHistory: history}),
	}
	require.NoError(t, repositories.NewCustomerRepository(db).Create(context.Background(), customer))
	return customer
}

func seedLoanFor(t *testing.T, db *gorm.DB, customer *models.Customer, total, paid string, status string, due time.Time) *models.Loan {
	t.Helper()
	loan := &models.Loan{
		CustomerID:  customer.ID,
		TotalAmount: decimal.RequireFromString(total),
		PaidAmount:  decimal.RequireFromString(paid),
		DueDate:     due,
		Status:      status,
	}
	require.NoError(t, repositories.NewLoanRepository(db).Create(context.Background(), loan))
	return loan
}

func seedUser(t *testing.T, db *gorm.DB, email, role string, active bool) *models.User {
	t.Helper()
	hashed, err := password.Hash("password123")
	require.NoError(t, err)
	user := &models.User{Email: email, FullName: email, Password: hashed, Role: role, IsActive: true}
	repo := repositories.NewUserRepository(db)
	require.NoError(t, repo.Create(context.Background(), user))
	if !active {
		user.IsActive = false
		require.NoError(t, repo.Update(context.Background(), user))
	}
	return user
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// recordingNotifier captures sends and can be told to fail
type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, msg Notification) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return "", n.err
	}
	n.sent = append(n.sent, msg)
	return "wamid." + msg.Phone, nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
