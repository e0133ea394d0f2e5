package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"posdesk/internal/adapters/persistence/models"
	"posdesk/internal/adapters/persistence/repositories"
	"posdesk/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 09:00 on 10 March 2026
var runAt = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func dayOffset(days int) time.Time {
	return time.Date(2026, 3, 10+days, 0, 0, 0, 0, time.UTC)
}

func newTestEngine(db *gorm.DB, notifier Notifier, opts ...ReminderEngineOption) *ReminderEngine {
	opts = append([]ReminderEngineOption{WithClock(fixedClock(runAt))}, opts...)
	return NewReminderEngine(
		repositories.NewLoanRepository(db),
		repositories.NewCustomerRepository(db),
		repositories.NewReminderRepository(db),
		NewTemplateGenerator(),
		notifier,
		ReminderEngineConfig{Location: time.UTC},
		opts...,
	)
}

func remindersFor(t *testing.T, db *gorm.DB, loanID uint) []*models.LoanReminder {
	t.Helper()
	list, err := repositories.NewReminderRepository(db).ListByLoan(context.Background(), loanID)
	require.NoError(t, err)
	return list
}

func TestReminderEngine_OnDueEndToEnd(t *testing.T) {
	db := newTestDB(t)
	jane := seedCustomer(t, db, "Jane", "15550001111")
	loan := seedLoanFor(t, db, jane, "150", "0", domain.LoanStatusActive, dayOffset(0))
	notifier := &recordingNotifier{}

	summary, err := newTestEngine(db, notifier).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.LoansProcessed)
	assert.Equal(t, 1, summary.RemindersGenerated)
	assert.Equal(t, 1, summary.MessagesScheduled)
	assert.Equal(t, 0, summary.LoansFailed)
	assert.NotEmpty(t, summary.RunID)

	reminders := remindersFor(t, db, loan.ID)
	require.Len(t, reminders, 1)
	r := reminders[0]
	assert.Equal(t, string(domain.ReminderOnDue), r.ReminderType)
	assert.Equal(t, "2026-03-10", r.ReminderDate)
	assert.Contains(t, r.MessageContent, "Jane")
	assert.Contains(t, r.MessageContent, "150.00")
	assert.Contains(t, r.MessageContent, "10/03/2026")
	assert.True(t, r.IsSent)
	require.NotNil(t, r.SentDate)
	require.NotNil(t, r.ChannelMessageID)
	assert.Equal(t, "wamid.15550001111", *r.ChannelMessageID)

	personalization := r.AIPersonalization.Data()
	assert.Equal(t, domain.RiskHigh, personalization.RiskLevel)
	assert.Equal(t, domain.GeneratedByTemplate, personalization.GeneratedBy)

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "15550001111", notifier.sent[0].Phone)
	assert.Equal(t, domain.ReminderOnDue, notifier.sent[0].Type)
}

func TestReminderEngine_SecondRunSameDayIsNoop(t *testing.T) {
	db := newTestDB(t)
	jane := seedCustomer(t, db, "Jane", "15550001111")
	loan := seedLoanFor(t, db, jane, "150", "0", domain.LoanStatusActive, dayOffset(0))
	notifier := &recordingNotifier{}
	engine := newTestEngine(db, notifier)

	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.LoansProcessed)
	assert.Equal(t, 0, summary.RemindersGenerated)
	assert.Equal(t, 0, summary.MessagesScheduled)

	assert.Len(t, remindersFor(t, db, loan.ID), 1)
	assert.Equal(t, 1, notifier.count())
}

func TestReminderEngine_BeforeDueRepeatedRunsRecordOnce(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Ann", "15550002222")
	loan := seedLoanFor(t, db, customer, "80", "20", domain.LoanStatusActive, dayOffset(2))
	engine := newTestEngine(db, &recordingNotifier{})

	for i := 0; i < 4; i++ {
		_, err := engine.Run(context.Background())
		require.NoError(t, err)
	}

	reminders := remindersFor(t, db, loan.ID)
	require.Len(t, reminders, 1)
	assert.Equal(t, string(domain.ReminderBeforeDue), reminders[0].ReminderType)
	assert.Contains(t, reminders[0].MessageContent, "60.00")
}

func TestReminderEngine_OverdueTransitionsStatus(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Bob", "15550003333")
	loan := seedLoanFor(t, db, customer, "100", "0", domain.LoanStatusActive, dayOffset(-3))

	summary, err := newTestEngine(db, &recordingNotifier{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RemindersGenerated)

	got, err := repositories.NewLoanRepository(db).GetByID(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusOverdue, got.Status)

	reminders := remindersFor(t, db, loan.ID)
	require.Len(t, reminders, 1)
	assert.Equal(t, string(domain.ReminderOverdue), reminders[0].ReminderType)
	assert.Contains(t, reminders[0].MessageContent, "3 days overdue")
}

func TestReminderEngine_NotDueYieldsNothing(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Cy", "15550004444")
	far := seedLoanFor(t, db, customer, "100", "0", domain.LoanStatusActive, dayOffset(5))
	tomorrow := seedLoanFor(t, db, customer, "100", "0", domain.LoanStatusActive, dayOffset(1))
	notifier := &recordingNotifier{}

	summary, err := newTestEngine(db, notifier).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.LoansProcessed)
	assert.Equal(t, 0, summary.RemindersGenerated)
	assert.Empty(t, remindersFor(t, db, far.ID))
	assert.Empty(t, remindersFor(t, db, tomorrow.ID))
	assert.Zero(t, notifier.count())
}

func TestReminderEngine_SkipsClosedLoans(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Dee", "15550005555")
	seedLoanFor(t, db, customer, "100", "100", domain.LoanStatusPaid, dayOffset(0))
	seedLoanFor(t, db, customer, "100", "0", domain.LoanStatusDefaulted, dayOffset(0))

	summary, err := newTestEngine(db, &recordingNotifier{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.LoansProcessed)
}

func TestReminderEngine_FailedSendLeavesReminderUnsent(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Eve", "15550006666")
	loan := seedLoanFor(t, db, customer, "100", "0", domain.LoanStatusActive, dayOffset(0))
	notifier := &recordingNotifier{err: errors.New("gateway timeout")}

	summary, err := newTestEngine(db, notifier).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RemindersGenerated)
	assert.Equal(t, 0, summary.MessagesScheduled)
	assert.Equal(t, 1, summary.LoansFailed)

	reminders := remindersFor(t, db, loan.ID)
	require.Len(t, reminders, 1)
	assert.False(t, reminders[0].IsSent)
	assert.Nil(t, reminders[0].SentDate)
}

func TestReminderEngine_DisabledChannelIsNotAFailure(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Fay", "15550007777")
	loan := seedLoanFor(t, db, customer, "100", "0", domain.LoanStatusActive, dayOffset(0))

	summary, err := newTestEngine(db, &recordingNotifier{err: domain.ErrChannelDisabled}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RemindersGenerated)
	assert.Equal(t, 0, summary.MessagesScheduled)
	assert.Equal(t, 0, summary.LoansFailed)
	assert.False(t, remindersFor(t, db, loan.ID)[0].IsSent)
}

func TestReminderEngine_PerLoanFailureDoesNotStopRun(t *testing.T) {
	db := newTestDB(t)
	noPhone := seedCustomer(t, db, "Gus", "")
	ok := seedCustomer(t, db, "Hal", "15550008888")
	seedLoanFor(t, db, noPhone, "100", "0", domain.LoanStatusActive, dayOffset(0))
	good := seedLoanFor(t, db, ok, "100", "0", domain.LoanStatusActive, dayOffset(0))

	summary, err := newTestEngine(db, &recordingNotifier{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.LoansProcessed)
	assert.Equal(t, 2, summary.RemindersGenerated)
	assert.Equal(t, 1, summary.MessagesScheduled)
	assert.Equal(t, 1, summary.LoansFailed)
	assert.True(t, remindersFor(t, db, good.ID)[0].IsSent)
}

// failingLoans fails the open-loan scan
type failingLoans struct {
	repositories.LoanRepository
}

func (failingLoans) ListOpen(context.Context) ([]*models.Loan, error) {
	return nil, errors.New("database is down")
}

type reporterSpy struct {
	completed []domain.RunSummary
	failed    []error
}

func (r *reporterSpy) ReminderRunCompleted(s domain.RunSummary) { r.completed = append(r.completed, s) }
func (r *reporterSpy) ReminderRunFailed(err error)              { r.failed = append(r.failed, err) }

func TestReminderEngine_ListFailureAbortsRun(t *testing.T) {
	db := newTestDB(t)
	reporter := &reporterSpy{}
	engine := NewReminderEngine(
		failingLoans{},
		repositories.NewCustomerRepository(db),
		repositories.NewReminderRepository(db),
		NewTemplateGenerator(),
		&recordingNotifier{},
		ReminderEngineConfig{Location: time.UTC},
		WithRunReporter(reporter),
	)

	summary, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Contains(t, err.Error(), "database is down")
	assert.Len(t, reporter.failed, 1)
	assert.Empty(t, reporter.completed)
}

type stubLock struct {
	acquired bool
	err      error
	released int
}

func (l *stubLock) Acquire(context.Context) (func(), bool, error) {
	if l.err != nil || !l.acquired {
		return nil, false, l.err
	}
	return func() { l.released++ }, true, nil
}

func TestReminderEngine_RunLock(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Ivy", "15550009999")
	seedLoanFor(t, db, customer, "100", "0", domain.LoanStatusActive, dayOffset(0))

	held := &stubLock{acquired: false}
	_, err := newTestEngine(db, &recordingNotifier{}, WithRunLock(held)).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	free := &stubLock{acquired: true}
	summary, err := newTestEngine(db, &recordingNotifier{}, WithRunLock(free)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RemindersGenerated)
	assert.Equal(t, 1, free.released)

	// an unreachable lock store does not block the run
	broken := &stubLock{err: errors.New("redis down")}
	summary, err = newTestEngine(db, &recordingNotifier{}, WithRunLock(broken)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.RemindersGenerated)
}

func TestReminderEngine_RollsUpAnalyticsAndReports(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Jo", "15550001010")
	seedLoanFor(t, db, customer, "100", "0", domain.LoanStatusActive, dayOffset(-1))
	seedLoanFor(t, db, customer, "50", "0", domain.LoanStatusActive, dayOffset(7))

	analytics := NewAnalyticsService(
		repositories.NewLoanRepository(db),
		repositories.NewCustomerRepository(db),
		repositories.NewReminderRepository(db),
		repositories.NewAnalyticsRepository(db),
	)
	reporter := &reporterSpy{}

	_, err := newTestEngine(db, &recordingNotifier{}, WithAnalytics(analytics), WithRunReporter(reporter)).Run(context.Background())
	require.NoError(t, err)

	snapshot, err := analytics.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", snapshot.SnapshotDate)
	assert.EqualValues(t, 2, snapshot.OpenLoans)
	assert.EqualValues(t, 1, snapshot.OverdueLoans)
	assert.True(t, snapshot.TotalOutstanding.Equal(decimal.NewFromInt(150)), snapshot.TotalOutstanding.String())
	require.Len(t, reporter.completed, 1)
	assert.Equal(t, 1, reporter.completed[0].MessagesScheduled)
}

func TestReminderEngine_SignatureIsAddedToDispatchOnly(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Kim", "15550001212")
	loan := seedLoanFor(t, db, customer, "100", "0", domain.LoanStatusActive, dayOffset(0))
	notifier := &recordingNotifier{}

	engine := NewReminderEngine(
		repositories.NewLoanRepository(db),
		repositories.NewCustomerRepository(db),
		repositories.NewReminderRepository(db),
		NewTemplateGenerator(),
		notifier,
		ReminderEngineConfig{Location: time.UTC, Signature: "Corner Store"},
		WithClock(fixedClock(runAt)),
	)
	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, notifier.count())
	assert.Contains(t, notifier.sent[0].Body, "- Corner Store")
	assert.NotContains(t, remindersFor(t, db, loan.ID)[0].MessageContent, "Corner Store")
	assert.Equal(t, "Payment due today", notifier.sent[0].Title)
}
