package repositories

import (
	"context"
	"time"

	"posdesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// reminderRepository implements ReminderRepository interface
type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

// ExistsForDay checks whether a reminder of this type was already recorded for the day
func (r *reminderRepository) ExistsForDay(ctx context.Context, loanID uint, reminderType, day string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoanReminder{}).
		Where("loan_id = ? AND reminder_type = ? AND reminder_date = ?", loanID, reminderType, day).
		Count(&count).Error
	return count > 0, err
}

// CreateIfAbsent inserts the reminder unless the (loan, type, day) key already
// exists. It reports whether a row was inserted.
func (r *reminderRepository) CreateIfAbsent(ctx context.Context, reminder *models.LoanReminder) (bool, error) {
	result := r.db.WithContext(ctx).
		Omit("Loan").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(reminder)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkSent records a confirmed dispatch
func (r *reminderRepository) MarkSent(ctx context.Context, id uint, sentAt time.Time, messageID string) error {
	updates := map[string]interface{}{
		"is_sent":   true,
		"sent_date": sentAt,
	}
	if messageID != "" {
		updates["channel_message_id"] = messageID
	}
	return r.db.WithContext(ctx).
		Model(&models.LoanReminder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListByLoan lists reminders of a loan, newest first
func (r *reminderRepository) ListByLoan(ctx context.Context, loanID uint) ([]*models.LoanReminder, error) {
	var reminders []*models.LoanReminder
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&reminders).Error
	return reminders, err
}

// ListByDay lists reminders recorded for a calendar day
func (r *reminderRepository) ListByDay(ctx context.Context, day string) ([]*models.LoanReminder, error) {
	var reminders []*models.LoanReminder
	err := r.db.WithContext(ctx).
		Where("reminder_date = ?", day).
		Order("id ASC").
		Find(&reminders).Error
	return reminders, err
}
