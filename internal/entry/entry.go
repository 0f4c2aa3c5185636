package entry

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status of the underlying card/service.
const (
	StatusActive   = "Active"
	StatusDeactive = "Deactive"
	StatusDeclined = "Declined"
)

// EntryStatus is the review state of the record itself.
const (
	EntryStatusPending  = "Pending"
	EntryStatusAccepted = "Accepted"
	EntryStatusRejected = "Rejected"
)

// Recurring cadence of the purchase.
const (
	RecurringOneTime = "One-time"
	RecurringMonthly = "Monthly"
	RecurringYearly  = "Yearly"
)

// DuplicateStatus values. An entry is Unique at creation and can only ever
// move to Merged, never back.
const (
	DuplicateUnique = "Unique"
	DuplicateMerged = "Merged"
)

// SharedAllocation is a cost-sharing split of an entry's amount. It is owned
// exclusively by its entry and has no identity of its own.
type SharedAllocation struct {
	BusinessUnit string          `json:"business_unit"`
	Amount       decimal.Decimal `json:"amount"`
}

// Entry is one corporate-card purchase or subscription record.
type Entry struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	CardNumber     string    `json:"card_number" gorm:"column:card_number;not null"`
	CardAssignedTo string    `json:"card_assigned_to" gorm:"column:card_assigned_to;not null"`
	Date           time.Time `json:"date" gorm:"column:date;type:date;not null"`
	Month          string    `json:"month" gorm:"column:month"`
	Status         string    `json:"status" gorm:"column:status;default:Active"`
	Particulars    string    `json:"particulars" gorm:"column:particulars;not null"`
	Narration      string    `json:"narration" gorm:"column:narration"`

	Currency    string          `json:"currency" gorm:"column:currency"`
	BillStatus  string          `json:"bill_status" gorm:"column:bill_status"`
	Amount      decimal.Decimal `json:"amount" gorm:"column:amount;type:numeric(14,2);not null"`
	XeRate      decimal.Decimal `json:"xe_rate" gorm:"column:xe_rate;type:numeric(14,6)"`
	AmountInINR decimal.Decimal `json:"amount_in_inr" gorm:"column:amount_in_inr;type:numeric(16,2)"`

	TypeOfService  string `json:"type_of_service" gorm:"column:type_of_service"`
	BusinessUnit   string `json:"business_unit" gorm:"column:business_unit;not null"`
	CostCenter     string `json:"cost_center" gorm:"column:cost_center"`
	ApprovedBy     string `json:"approved_by" gorm:"column:approved_by"`
	ServiceHandler string `json:"service_handler" gorm:"column:service_handler"`

	Recurring       string  `json:"recurring" gorm:"column:recurring;default:One-time"`
	EntryStatus     string  `json:"entry_status" gorm:"column:entry_status;default:Pending"`
	DuplicateStatus *string `json:"duplicate_status" gorm:"column:duplicate_status"`

	NextRenewalDate                  *time.Time `json:"next_renewal_date,omitempty" gorm:"column:next_renewal_date;type:date"`
	RenewalNotificationSent          bool       `json:"renewal_notification_sent" gorm:"column:renewal_notification_sent;default:false"`
	AutoCancellationNotificationSent bool       `json:"auto_cancellation_notification_sent" gorm:"column:auto_cancellation_notification_sent;default:false"`
	DisabledAt                       *time.Time `json:"disabled_at,omitempty" gorm:"column:disabled_at"`

	IsShared          bool               `json:"is_shared" gorm:"column:is_shared;default:false"`
	SharedAllocations []SharedAllocation `json:"shared_allocations" gorm:"column:shared_allocations;serializer:json"`

	CreatedBy int64     `json:"created_by" gorm:"column:created_by"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Entry) TableName() string {
	return "expense_entries"
}

// DuplicateKey identifies a record for merge purposes: two rows with the
// same key are the same purchase.
type DuplicateKey struct {
	CardNumber   string
	Date         time.Time
	Particulars  string
	BusinessUnit string
	Amount       decimal.Decimal
	Currency     string
}

func (e *Entry) DuplicateKey() DuplicateKey {
	return DuplicateKey{
		CardNumber:   e.CardNumber,
		Date:         e.Date,
		Particulars:  e.Particulars,
		BusinessUnit: e.BusinessUnit,
		Amount:       e.Amount,
		Currency:     e.Currency,
	}
}

// NextRenewalFrom computes the first renewal date for a recurring cadence
// starting at the purchase date. One-time purchases never renew.
func NextRenewalFrom(cadence string, date time.Time) *time.Time {
	var next time.Time
	switch cadence {
	case RecurringMonthly:
		next = date.AddDate(0, 1, 0)
	case RecurringYearly:
		next = date.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &next
}

// AdvanceRenewal rolls the renewal date forward by exactly one cadence
// period and opens a fresh cycle by clearing the reminder flag.
func (e *Entry) AdvanceRenewal() {
	if e.NextRenewalDate == nil {
		return
	}
	next := *e.NextRenewalDate
	switch e.Recurring {
	case RecurringMonthly:
		next = next.AddDate(0, 1, 0)
	case RecurringYearly:
		next = next.AddDate(1, 0, 0)
	default:
		return
	}
	e.NextRenewalDate = &next
	e.RenewalNotificationSent = false
	e.UpdatedAt = time.Now()
}

// AllocatedTotal sums the shared allocations. The invariant is
// AllocatedTotal() <= Amount at all times.
func (e *Entry) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range e.SharedAllocations {
		total = total.Add(a.Amount)
	}
	return total
}

// HasAllocationFor reports whether an allocation exists for the business
// unit, compared case-insensitively.
func (e *Entry) HasAllocationFor(businessUnit string) bool {
	for _, a := range e.SharedAllocations {
		if strings.EqualFold(a.BusinessUnit, businessUnit) {
			return true
		}
	}
	return false
}

// MarkMerged transitions duplicateStatus to Merged. The transition is one
// way; calling it on an already merged entry is a no-op.
func (e *Entry) MarkMerged() bool {
	if e.DuplicateStatus != nil && *e.DuplicateStatus == DuplicateMerged {
		return false
	}
	merged := DuplicateMerged
	e.DuplicateStatus = &merged
	e.UpdatedAt = time.Now()
	return true
}

// RecomputeINR refreshes the base-currency valuation from a new rate.
func (e *Entry) RecomputeINR(rate decimal.Decimal) {
	e.XeRate = rate
	e.AmountInINR = e.Amount.Mul(rate)
	e.UpdatedAt = time.Now()
}

// MonthLabel renders the display label stored in the month column.
func MonthLabel(date time.Time) string {
	return date.Format("Jan-2006")
}
