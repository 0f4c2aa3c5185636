package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/entry"
	"gorm.io/gorm"
)

type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Create(ctx context.Context, e *entry.Entry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return internal.NewInternalError("failed to create expense entry", err)
	}
	return nil
}

func (r *EntryRepository) GetByID(ctx context.Context, id int64) (*entry.Entry, error) {
	var e entry.Entry
	err := r.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrEntryNotFound
	}
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch expense entry", err)
	}
	return &e, nil
}

func (r *EntryRepository) Search(ctx context.Context, filters entry.SearchFilters) ([]entry.Entry, error) {
	q := r.db.WithContext(ctx).Model(&entry.Entry{})

	if len(filters.BusinessUnits) > 0 {
		q = q.Where("business_unit IN ?", filters.BusinessUnits)
	}
	if filters.CardNumber != "" {
		q = q.Where("card_number = ?", filters.CardNumber)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.EntryStatus != "" {
		q = q.Where("entry_status = ?", filters.EntryStatus)
	}
	if filters.DuplicateStatus != "" {
		q = q.Where("duplicate_status = ?", filters.DuplicateStatus)
	}
	if filters.Shared != nil {
		q = q.Where("is_shared = ?", *filters.Shared)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		q = q.Where("particulars LIKE ? OR narration LIKE ?", like, like)
	}
	if filters.DateFrom != nil {
		q = q.Where("date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		q = q.Where("date <= ?", *filters.DateTo)
	}
	if filters.AmountMin != nil {
		q = q.Where("amount >= ?", *filters.AmountMin)
	}
	if filters.AmountMax != nil {
		q = q.Where("amount <= ?", *filters.AmountMax)
	}
	if filters.DisabledFrom != nil {
		q = q.Where("disabled_at IS NOT NULL AND disabled_at >= ?", *filters.DisabledFrom)
	}
	if filters.DisabledTo != nil {
		q = q.Where("disabled_at IS NOT NULL AND disabled_at <= ?", *filters.DisabledTo)
	}
	if filters.Limit > 0 {
		q = q.Limit(filters.Limit)
	}

	var entries []entry.Entry
	if err := q.Order("date DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, internal.NewInternalError("failed to search expense entries", err)
	}
	return entries, nil
}

func (r *EntryRepository) Update(ctx context.Context, e *entry.Entry) error {
	e.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(e).Error; err != nil {
		return internal.NewInternalError("failed to update expense entry", err)
	}
	return nil
}

func (r *EntryRepository) UpdateEntryStatus(ctx context.Context, id int64, status string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"entry_status": status})
}

func (r *EntryRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&entry.Entry{}, id)
	if result.Error != nil {
		return internal.NewInternalError("failed to delete expense entry", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrEntryNotFound
	}
	return nil
}

// FindDuplicate looks up an entry by the merge key. Not found is reported
// through the domain sentinel, not as an infrastructure error.
func (r *EntryRepository) FindDuplicate(ctx context.Context, key entry.DuplicateKey) (*entry.Entry, error) {
	var e entry.Entry
	err := r.db.WithContext(ctx).
		Where("card_number = ?", key.CardNumber).
		Where("DATE(date) = DATE(?)", key.Date).
		Where("particulars = ?", key.Particulars).
		Where("business_unit = ?", key.BusinessUnit).
		Where("amount = ?", key.Amount).
		Where("currency = ?", key.Currency).
		Order("id ASC").
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrEntryNotFound
	}
	if err != nil {
		return nil, internal.NewInternalError("failed to look up duplicate entry", err)
	}
	return &e, nil
}

func (r *EntryRepository) MarkMerged(ctx context.Context, id int64) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"duplicate_status": entry.DuplicateMerged})
}

// DueForReminder returns active accepted entries whose renewal lands
// exactly on the given day and whose reminder has not gone out yet.
func (r *EntryRepository) DueForReminder(ctx context.Context, on time.Time) ([]entry.Entry, error) {
	var entries []entry.Entry
	err := r.db.WithContext(ctx).
		Where("status = ?", entry.StatusActive).
		Where("entry_status = ?", entry.EntryStatusAccepted).
		Where("renewal_notification_sent = ?", false).
		Where("DATE(next_renewal_date) = DATE(?)", on).
		Find(&entries).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list entries due for reminder", err)
	}
	return entries, nil
}

// DueForAutoCancel returns entries already reminded but not yet warned
// about auto-cancellation, renewing on the given day.
func (r *EntryRepository) DueForAutoCancel(ctx context.Context, on time.Time) ([]entry.Entry, error) {
	var entries []entry.Entry
	err := r.db.WithContext(ctx).
		Where("status = ?", entry.StatusActive).
		Where("entry_status = ?", entry.EntryStatusAccepted).
		Where("renewal_notification_sent = ?", true).
		Where("auto_cancellation_notification_sent = ?", false).
		Where("DATE(next_renewal_date) = DATE(?)", on).
		Find(&entries).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list entries due for auto-cancel notice", err)
	}
	return entries, nil
}

func (r *EntryRepository) SetRenewalNotificationSent(ctx context.Context, id int64) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"renewal_notification_sent": true})
}

func (r *EntryRepository) SetAutoCancellationNotificationSent(ctx context.Context, id int64) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"auto_cancellation_notification_sent": true})
}

// AdvanceRenewals rolls every overdue, already-reminded renewal forward by
// one cadence period in a single UPDATE per cadence. Postgres interval
// arithmetic keeps it set-based.
func (r *EntryRepository) AdvanceRenewals(ctx context.Context, now time.Time) (int64, error) {
	var advanced int64

	cadences := []struct {
		recurring string
		interval  string
	}{
		{entry.RecurringMonthly, "1 month"},
		{entry.RecurringYearly, "1 year"},
	}

	for _, cadence := range cadences {
		result := r.db.WithContext(ctx).Model(&entry.Entry{}).
			Where("recurring = ?", cadence.recurring).
			Where("renewal_notification_sent = ?", true).
			Where("next_renewal_date < ?", now).
			Updates(map[string]interface{}{
				"next_renewal_date":         gorm.Expr("next_renewal_date + INTERVAL '"+cadence.interval+"'"),
				"renewal_notification_sent": false,
				"updated_at":                time.Now(),
			})
		if result.Error != nil {
			return advanced, internal.NewInternalError("failed to advance renewals", result.Error)
		}
		advanced += result.RowsAffected
	}

	return advanced, nil
}

func (r *EntryRepository) DisableEntry(ctx context.Context, id int64, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"status":      entry.StatusDeactive,
		"disabled_at": at,
	})
}

func (r *EntryRepository) DistinctCurrencies(ctx context.Context) ([]string, error) {
	var currencies []string
	err := r.db.WithContext(ctx).Model(&entry.Entry{}).
		Where("currency <> ''").
		Distinct().
		Pluck("currency", &currencies).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list distinct currencies", err)
	}
	return currencies, nil
}

// BulkRecomputeINR refreshes the stored rate and base-currency valuation
// for every entry in the given currency.
func (r *EntryRepository) BulkRecomputeINR(ctx context.Context, currency string, rate decimal.Decimal) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entry.Entry{}).
		Where("currency = ?", currency).
		Updates(map[string]interface{}{
			"xe_rate":       rate,
			"amount_in_inr": gorm.Expr("amount * ?", rate),
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return 0, internal.NewInternalError("failed to recompute INR amounts", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *EntryRepository) DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("entry_status = ?", entry.EntryStatusRejected).
		Where("updated_at < ?", cutoff).
		Delete(&entry.Entry{})
	if result.Error != nil {
		return 0, internal.NewInternalError("failed to purge rejected entries", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *EntryRepository) updateColumns(ctx context.Context, id int64, columns map[string]interface{}) error {
	columns["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&entry.Entry{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return internal.NewInternalError("failed to update expense entry", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrEntryNotFound
	}
	return nil
}
