package repositories

import (
	"context"

	"posdesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// analyticsRepository implements AnalyticsRepository interface
type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// Upsert writes the snapshot for its day, replacing an earlier one
func (r *analyticsRepository) Upsert(ctx context.Context, snapshot *models.LoanAnalytics) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "snapshot_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_outstanding", "open_loans", "overdue_loans", "risk_distribution", "updated_at"}),
		}).
		Create(snapshot).Error
}

// Latest returns the most recent snapshot
func (r *analyticsRepository) Latest(ctx context.Context) (*models.LoanAnalytics, error) {
	var snapshot models.LoanAnalytics
	err := r.db.WithContext(ctx).Order("snapshot_date DESC").First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
