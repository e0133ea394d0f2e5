package services

import (
	"context"
	"testing"
	"time"

	"posdesk/internal/adapters/persistence/repositories"
	"posdesk/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoanService(t *testing.T) *LoanService {
	t.Helper()
	svc := NewLoanService(newTestDB(t), time.UTC)
	svc.now = fixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	return svc
}

func TestLoanService_CreateLoan(t *testing.T) {
	svc := newTestLoanService(t)
	ctx := context.Background()

	customer, err := svc.CreateCustomer(ctx, &CreateCustomerInput{Name: "Jane", Phone: "+15550001111"})
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, customer.Behavior().RiskLevel)

	loan, err := svc.Create(ctx, &CreateLoanInput{
		CustomerID:  customer.ID,
		TotalAmount: decimal.RequireFromString("250.505"),
		DueDate:     "2026-03-20",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, loan.Status)
	assert.Equal(t, "250.51", loan.RemainingBalance.StringFixed(2))
	assert.Equal(t, "2026-03-20", loan.DueDate.Format(domain.DateLayout))

	got, err := svc.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "Jane", got.Customer.Name)
}

func TestLoanService_CreateLoanValidation(t *testing.T) {
	svc := newTestLoanService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateLoanInput{CustomerID: 1, TotalAmount: decimal.Zero, DueDate: "2026-03-20"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Create(ctx, &CreateLoanInput{CustomerID: 1, TotalAmount: decimal.NewFromInt(10), DueDate: "20/03/2026"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(ctx, &CreateLoanInput{CustomerID: 404, TotalAmount: decimal.NewFromInt(10), DueDate: "2026-03-20"})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	_, err = svc.GetByID(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestLoanService_RecordPartialThenFullPayment(t *testing.T) {
	svc := newTestLoanService(t)
	ctx := context.Background()

	customer := seedCustomer(t, svc.db, "Jane", "+15550001111")
	loan := seedLoanFor(t, svc.db, customer, "100", "0", domain.LoanStatusActive, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))

	updated, err := svc.RecordPayment(ctx, loan.ID, &RecordPaymentInput{Amount: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, updated.Status)
	assert.Equal(t, "60.00", updated.RemainingBalance.StringFixed(2))

	updated, err = svc.RecordPayment(ctx, loan.ID, &RecordPaymentInput{Amount: decimal.NewFromInt(60)})
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPaid, updated.Status)
	assert.True(t, updated.RemainingBalance.IsZero())

	stored, err := repositories.NewCustomerRepository(svc.db).GetByID(ctx, customer.ID)
	require.NoError(t, err)
	behavior := stored.Behavior()
	require.Len(t, behavior.PaymentHistory, 2)
	assert.True(t, behavior.PaymentHistory[0].OnTime)
	assert.Equal(t, "40.00", behavior.PaymentHistory[0].Amount)
	assert.Equal(t, loan.ID, behavior.PaymentHistory[1].LoanID)
	assert.Equal(t, domain.RiskLow, behavior.RiskLevel)

	_, err = svc.RecordPayment(ctx, loan.ID, &RecordPaymentInput{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrLoanNotOpen)
}

func TestLoanService_LatePaymentRaisesRisk(t *testing.T) {
	svc := newTestLoanService(t)
	ctx := context.Background()

	customer := seedCustomer(t, svc.db, "Sam", "+15550002222",
		domain.PaymentRecord{OnTime: true},
	)
	loan := seedLoanFor(t, svc.db, customer, "50", "0", domain.LoanStatusOverdue, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))

	updated, err := svc.RecordPayment(ctx, loan.ID, &RecordPaymentInput{Amount: decimal.NewFromInt(50)})
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPaid, updated.Status)

	behavior := updated.Customer.Behavior()
	require.Len(t, behavior.PaymentHistory, 2)
	assert.False(t, behavior.PaymentHistory[1].OnTime)
	// one of two on time is 50%, which is high risk
	assert.Equal(t, domain.RiskHigh, behavior.RiskLevel)
}

func TestLoanService_RecordPaymentRejectsBadAmounts(t *testing.T) {
	svc := newTestLoanService(t)
	ctx := context.Background()

	customer := seedCustomer(t, svc.db, "Jane", "+15550001111")
	loan := seedLoanFor(t, svc.db, customer, "100", "0", domain.LoanStatusActive, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))

	_, err := svc.RecordPayment(ctx, loan.ID, &RecordPaymentInput{Amount: decimal.NewFromInt(-5)})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.RecordPayment(ctx, loan.ID, &RecordPaymentInput{Amount: decimal.NewFromInt(101)})
	assert.ErrorIs(t, err, domain.ErrPaymentExceedsBalance)

	_, err = svc.RecordPayment(ctx, 404, &RecordPaymentInput{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)

	// the rejected payments left nothing behind
	got, err := svc.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", got.RemainingBalance.StringFixed(2))
	assert.Empty(t, got.Customer.Behavior().PaymentHistory)
}

func TestLoanService_ListAndReminders(t *testing.T) {
	svc := newTestLoanService(t)
	ctx := context.Background()

	customer := seedCustomer(t, svc.db, "Jane", "+15550001111")
	seedLoanFor(t, svc.db, customer, "100", "0", domain.LoanStatusActive, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))
	seedLoanFor(t, svc.db, customer, "100", "100", domain.LoanStatusPaid, time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC))

	loans, total, err := svc.List(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, loans, 2)

	loans, total, err = svc.List(ctx, domain.LoanStatusPaid, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, loans, 1)
	assert.Equal(t, domain.LoanStatusPaid, loans[0].Status)

	reminders, err := svc.Reminders(ctx, loans[0].ID)
	require.NoError(t, err)
	assert.Empty(t, reminders)

	_, err = svc.Reminders(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)

	_, err = svc.RemindersOn(ctx, "yesterday")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, "2026-03-10", svc.Today())
}
