package domain

import (
	"time"

	"github.com/google/uuid"
)

// Generator names recorded on a reminder
const (
	GeneratedByAI       = "ai"
	GeneratedByTemplate = "template"
)

// ReminderPersonalization is the structured risk/insight blob stored with a reminder
type ReminderPersonalization struct {
	RiskLevel     RiskLevel `json:"risk_level"`
	OnTimeRate    float64   `json:"on_time_rate"`
	TotalPayments int       `json:"total_payments"`
	Insight       string    `json:"insight,omitempty"`
	GeneratedBy   string    `json:"generated_by"`
}

// RunSummary is the outcome of one reminder engine run
type RunSummary struct {
	RunID              uuid.UUID `json:"runId"`
	LoansProcessed     int       `json:"loansProcessed"`
	RemindersGenerated int       `json:"remindersGenerated"`
	MessagesScheduled  int       `json:"messagesScheduled"`
	LoansFailed        int       `json:"loansFailed"`
	StartedAt          time.Time `json:"startedAt"`
	FinishedAt         time.Time `json:"finishedAt"`
}
