package entry

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateEntryDTO is the manual-creation payload. It goes through the same
// normalization as an imported row: enums canonicalized, allocations
// validated, renewal date derived from the cadence.
type CreateEntryDTO struct {
	CardNumber     string `json:"card_number"`
	CardAssignedTo string `json:"card_assigned_to"`
	Date           string `json:"date"`
	Month          string `json:"month"`
	Status         string `json:"status"`
	Particulars    string `json:"particulars"`
	Narration      string `json:"narration"`

	Currency    string          `json:"currency"`
	BillStatus  string          `json:"bill_status"`
	Amount      decimal.Decimal `json:"amount"`
	XeRate      decimal.Decimal `json:"xe_rate"`
	AmountInINR decimal.Decimal `json:"amount_in_inr"`

	TypeOfService  string `json:"type_of_service"`
	BusinessUnit   string `json:"business_unit"`
	CostCenter     string `json:"cost_center"`
	ApprovedBy     string `json:"approved_by"`
	ServiceHandler string `json:"service_handler"`

	Recurring string `json:"recurring"`

	IsShared          bool               `json:"is_shared"`
	SharedAllocations []SharedAllocation `json:"shared_allocations"`
}

// UpdateStatusDTO moves an entry through review.
type UpdateStatusDTO struct {
	EntryStatus string `json:"entry_status"`
}

// SearchFilters narrows a listing. Zero values mean "no filter".
type SearchFilters struct {
	BusinessUnits   []string
	CardNumber      string
	Status          string
	EntryStatus     string
	DuplicateStatus string
	Shared          *bool
	Query           string
	DateFrom        *time.Time
	DateTo          *time.Time
	AmountMin       *decimal.Decimal
	AmountMax       *decimal.Decimal
	DisabledFrom    *time.Time
	DisabledTo      *time.Time
	Limit           int
}

// BrowsingDisabled reports whether the caller is explicitly looking at
// disabled services; that listing is not forced onto Accepted entries.
func (f SearchFilters) BrowsingDisabled() bool {
	return f.DisabledFrom != nil || f.DisabledTo != nil
}
