package postgres

import (
	"context"
	"time"

	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/renewal"
	"gorm.io/gorm"
)

type RenewalLogRepository struct {
	db *gorm.DB
}

func NewRenewalLogRepository(db *gorm.DB) *RenewalLogRepository {
	return &RenewalLogRepository{db: db}
}

func (r *RenewalLogRepository) Create(ctx context.Context, log *renewal.RenewalLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return internal.NewInternalError("failed to create renewal log", err)
	}
	return nil
}

// HasActionForCycle reports whether any decision exists for the entry's
// renewal on the given date. The pair (entry, renewal date) identifies a
// cycle.
func (r *RenewalLogRepository) HasActionForCycle(ctx context.Context, entryID int64, renewalDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&renewal.RenewalLog{}).
		Where("entry_id = ?", entryID).
		Where("DATE(renewal_date) = DATE(?)", renewalDate).
		Count(&count).Error
	if err != nil {
		return false, internal.NewInternalError("failed to check renewal log", err)
	}
	return count > 0, nil
}

func (r *RenewalLogRepository) ListForEntry(ctx context.Context, entryID int64) ([]renewal.RenewalLog, error) {
	var logs []renewal.RenewalLog
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list renewal logs", err)
	}
	return logs, nil
}
