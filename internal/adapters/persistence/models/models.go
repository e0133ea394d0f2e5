package models

import (
	"time"

	"posdesk/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Staff profiles
// ============================================================

// User represents users table (one profile per staff actor)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	FullName  string         `gorm:"size:150" json:"full_name"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;not null;default:'cashier'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// ============================================================
// Customers & loans
// ============================================================

// Customer represents customers table
type Customer struct {
	ID                uint                                          `gorm:"primaryKey" json:"id"`
	Name              string                                        `gorm:"size:150;not null" json:"name"`
	Phone             string                                        `gorm:"size:30;index" json:"phone"`
	Email             *string                                       `gorm:"size:100" json:"email,omitempty"`
	RepaymentBehavior datatypes.JSONType[domain.RepaymentBehavior] `json:"repayment_behavior"`
	CreatedAt         time.Time                                     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                                     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// Behavior returns the decoded repayment behaviour
func (c *Customer) Behavior() domain.RepaymentBehavior {
	return c.RepaymentBehavior.Data()
}

// Loan represents loans table
type Loan struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	CustomerID       uint            `gorm:"not null;index" json:"customer_id"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_amount"`
	PaidAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"paid_amount"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"remaining_balance"`
	DueDate          time.Time       `gorm:"not null;index" json:"due_date"`
	Status           string          `gorm:"size:20;not null;index;default:'active'" json:"status"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// RecomputeBalance keeps remaining_balance = total_amount - paid_amount
func (l *Loan) RecomputeBalance() {
	l.RemainingBalance = l.TotalAmount.Sub(l.PaidAmount)
}

// IsOpen reports whether the loan still has something to collect
func (l *Loan) IsOpen() bool {
	return (l.Status == domain.LoanStatusActive || l.Status == domain.LoanStatusOverdue) &&
		l.RemainingBalance.IsPositive()
}

// ============================================================
// Reminders
// ============================================================

// LoanReminder represents loan_reminders table.
// At most one row per (loan, type, calendar day).
type LoanReminder struct {
	ID                uint                                                `gorm:"primaryKey" json:"id"`
	LoanID            uint                                                `gorm:"not null;uniqueIndex:idx_loan_reminder_once,priority:1" json:"loan_id"`
	ReminderType      string                                              `gorm:"size:20;not null;uniqueIndex:idx_loan_reminder_once,priority:2" json:"reminder_type"`
	ReminderDate      string                                              `gorm:"size:10;not null;uniqueIndex:idx_loan_reminder_once,priority:3" json:"reminder_date"`
	MessageContent    string                                              `gorm:"type:text" json:"message_content"`
	ScheduledDate     time.Time                                           `gorm:"not null" json:"scheduled_date"`
	IsSent            bool                                                `gorm:"default:false" json:"is_sent"`
	SentDate          *time.Time                                          `json:"sent_date"`
	ChannelMessageID  *string                                             `gorm:"size:128" json:"channel_message_id,omitempty"`
	AIPersonalization datatypes.JSONType[domain.ReminderPersonalization] `json:"ai_personalization"`
	CreatedAt         time.Time                                           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                                           `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Loan *Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
}

func (LoanReminder) TableName() string {
	return "loan_reminders"
}

// ============================================================
// Analytics
// ============================================================

// LoanAnalytics represents loan_analytics table (one row per day)
type LoanAnalytics struct {
	ID               uint                                        `gorm:"primaryKey" json:"id"`
	SnapshotDate     string                                      `gorm:"size:10;not null;uniqueIndex" json:"snapshot_date"`
	TotalOutstanding decimal.Decimal                             `gorm:"type:decimal(15,2);not null" json:"total_outstanding"`
	OpenLoans        int64                                       `json:"open_loans"`
	OverdueLoans     int64                                       `json:"overdue_loans"`
	RiskDistribution datatypes.JSONType[map[domain.RiskLevel]int] `json:"risk_distribution"`
	CreatedAt        time.Time                                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LoanAnalytics) TableName() string {
	return "loan_analytics"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates every table the service owns
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Customer{},
		&Loan{},
		&LoanReminder{},
		&LoanAnalytics{},
	)
}
