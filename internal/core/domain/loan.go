package domain

import (
	"math"
	"time"
)

// Loan status values
const (
	LoanStatusActive    = "active"
	LoanStatusPaid      = "paid"
	LoanStatusOverdue   = "overdue"
	LoanStatusDefaulted = "defaulted"
)

// OpenLoanStatuses are the statuses the reminder engine scans
var OpenLoanStatuses = []string{LoanStatusActive, LoanStatusOverdue}

// ReminderType is the reminder category derived from the due date gap
type ReminderType string

const (
	ReminderBeforeDue ReminderType = "before_due"
	ReminderOnDue     ReminderType = "on_due"
	ReminderOverdue   ReminderType = "overdue"
)

// BeforeDueOffset is the exact number of days before the due date that
// triggers a before_due reminder.
const BeforeDueOffset = 2

// DateLayout is the calendar-day key used for reminder deduplication
const DateLayout = "2006-01-02"

// StartOfDay truncates t to local midnight in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysUntilDue is ceil((due - now) / 1 day), with the due date taken at the
// start of its calendar day in now's location.
func DaysUntilDue(due, now time.Time) int {
	dueDay := StartOfDay(due.In(now.Location()))
	days := math.Ceil(dueDay.Sub(now).Hours() / 24)
	return int(days)
}

// Classify maps a day gap to a reminder category. Only the exact offsets
// match; a missed before_due day is never sent late.
func Classify(daysUntilDue int) (ReminderType, bool) {
	switch {
	case daysUntilDue == BeforeDueOffset:
		return ReminderBeforeDue, true
	case daysUntilDue == 0:
		return ReminderOnDue, true
	case daysUntilDue < 0:
		return ReminderOverdue, true
	}
	return "", false
}

// ============================================================
// Repayment behaviour and risk
// ============================================================

// RiskLevel is the advisory repayment risk of a customer
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// PaymentRecord is one entry of a customer's payment history
type PaymentRecord struct {
	LoanID uint      `json:"loan_id"`
	PaidAt time.Time `json:"paid_at"`
	Amount string    `json:"amount"`
	OnTime bool      `json:"on_time"`
}

// RepaymentBehavior is the semi-structured behaviour blob stored on a customer
type RepaymentBehavior struct {
	RiskLevel      RiskLevel       `json:"risk_level,omitempty"`
	PaymentHistory []PaymentRecord `json:"payment_history"`
}

// RiskProfile is the locally computed personalisation input
type RiskProfile struct {
	OnTimeRate    float64   `json:"on_time_rate"`
	TotalPayments int       `json:"total_payments"`
	OnTime        int       `json:"on_time_payments"`
	Level         RiskLevel `json:"risk_level"`
}

// AssessRisk computes the on-time rate and risk level. An empty history
// has a rate of 0 and is high risk.
func AssessRisk(history []PaymentRecord) RiskProfile {
	profile := RiskProfile{TotalPayments: len(history)}
	for _, p := range history {
		if p.OnTime {
			profile.OnTime++
		}
	}
	if profile.TotalPayments > 0 {
		profile.OnTimeRate = float64(profile.OnTime) / float64(profile.TotalPayments)
	}

	switch {
	case profile.OnTimeRate > 0.8:
		profile.Level = RiskLow
	case profile.OnTimeRate > 0.5:
		profile.Level = RiskMedium
	default:
		profile.Level = RiskHigh
	}
	return profile
}
