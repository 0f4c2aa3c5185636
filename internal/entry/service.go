package entry

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/auth"
	"github.com/wytlabs/cardops/internal/catalog"
	"github.com/wytlabs/cardops/internal/core/common/validation"
)

const (
	defaultSearchLimit = 100
	maxSearchLimit     = 500
)

var createDateLayouts = []string{"2006-01-02", time.RFC3339, "02-Jan-2006", "2-Jan-2006"}

// RepositoryAPI is the persistence surface of the entry domain, including
// the bulk queries the renewal jobs run.
type RepositoryAPI interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id int64) (*Entry, error)
	Search(ctx context.Context, filters SearchFilters) ([]Entry, error)
	Update(ctx context.Context, e *Entry) error
	UpdateEntryStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error

	FindDuplicate(ctx context.Context, key DuplicateKey) (*Entry, error)
	MarkMerged(ctx context.Context, id int64) error

	DueForReminder(ctx context.Context, on time.Time) ([]Entry, error)
	DueForAutoCancel(ctx context.Context, on time.Time) ([]Entry, error)
	SetRenewalNotificationSent(ctx context.Context, id int64) error
	SetAutoCancellationNotificationSent(ctx context.Context, id int64) error
	AdvanceRenewals(ctx context.Context, now time.Time) (int64, error)
	DisableEntry(ctx context.Context, id int64, at time.Time) error

	DistinctCurrencies(ctx context.Context) ([]string, error)
	BulkRecomputeINR(ctx context.Context, currency string, rate decimal.Decimal) (int64, error)
	DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Service struct {
	repo RepositoryAPI
	log  *slog.Logger
}

func NewService(repo RepositoryAPI, lg *slog.Logger) *Service {
	return &Service{repo: repo, log: lg}
}

// CreateEntry persists a manually entered record. Privileged callers get
// the entry accepted immediately; everyone else lands in Pending review.
func (s *Service) CreateEntry(ctx context.Context, dto CreateEntryDTO, actor *auth.Principal) (*Entry, error) {
	v := validation.NewValidator()
	v.Field("card_number", dto.CardNumber).Required()
	v.Field("card_assigned_to", dto.CardAssignedTo).Required()
	v.Field("date", dto.Date).Required()
	v.Field("particulars", dto.Particulars).Required()
	v.Field("business_unit", dto.BusinessUnit).Required()
	v.Field("amount", dto.Amount).Required().NonNegative()
	if appErr := v.Validate(); appErr != nil {
		return nil, appErr
	}

	date, err := parseCreateDate(dto.Date)
	if err != nil {
		return nil, err
	}

	businessUnit, ok := catalog.BusinessUnit.Resolve(dto.BusinessUnit)
	if !ok {
		return nil, unresolvedEnum("business_unit", dto.BusinessUnit)
	}

	status := StatusActive
	if dto.Status != "" {
		if resolved, ok := catalog.Status.Resolve(dto.Status); ok {
			status = resolved
		}
	}
	recurring := RecurringOneTime
	if dto.Recurring != "" {
		if resolved, ok := catalog.Recurring.Resolve(dto.Recurring); ok {
			recurring = resolved
		}
	}

	typeOfService, err := resolveOptional(catalog.TypeOfService, "type_of_service", dto.TypeOfService)
	if err != nil {
		return nil, err
	}
	costCenter, err := resolveOptional(catalog.CostCenter, "cost_center", dto.CostCenter)
	if err != nil {
		return nil, err
	}
	approvedBy, err := resolveOptional(catalog.ApprovedBy, "approved_by", dto.ApprovedBy)
	if err != nil {
		return nil, err
	}

	var allocations []SharedAllocation
	shared := false
	if dto.IsShared {
		allocations, shared, err = ValidateAllocations(dto.SharedAllocations, dto.Amount, businessUnit)
		if err != nil {
			return nil, internal.NewValidationError("shared allocations exceed entry amount", internal.ErrCodeAllocationExceedsTotal).WithCause(err)
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(dto.Currency))
	if currency == "" {
		currency = "INR"
	}
	xeRate := dto.XeRate
	if currency == "INR" && xeRate.IsZero() {
		xeRate = decimal.NewFromInt(1)
	}
	amountInINR := dto.AmountInINR
	if amountInINR.IsZero() && xeRate.IsPositive() {
		amountInINR = dto.Amount.Mul(xeRate)
	}

	month := strings.TrimSpace(dto.Month)
	if month == "" {
		month = MonthLabel(date)
	}

	entryStatus := EntryStatusPending
	if actor.Role.Privileged() {
		entryStatus = EntryStatusAccepted
	}

	unique := DuplicateUnique
	now := time.Now()
	e := &Entry{
		CardNumber:     strings.TrimSpace(dto.CardNumber),
		CardAssignedTo: strings.TrimSpace(dto.CardAssignedTo),
		Date:           date,
		Month:          month,
		Status:         status,
		Particulars:    strings.TrimSpace(dto.Particulars),
		Narration:      dto.Narration,

		Currency:    currency,
		BillStatus:  dto.BillStatus,
		Amount:      dto.Amount,
		XeRate:      xeRate,
		AmountInINR: amountInINR,

		TypeOfService:  typeOfService,
		BusinessUnit:   businessUnit,
		CostCenter:     costCenter,
		ApprovedBy:     approvedBy,
		ServiceHandler: strings.TrimSpace(dto.ServiceHandler),

		Recurring:       recurring,
		EntryStatus:     entryStatus,
		DuplicateStatus: &unique,

		NextRenewalDate: NextRenewalFrom(recurring, date),

		IsShared:          shared,
		SharedAllocations: allocations,

		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info("expense entry created",
		"entry_id", e.ID,
		"particulars", e.Particulars,
		"entry_status", e.EntryStatus,
		"created_by", actor.UserID)
	return e, nil
}

// GetEntry fetches one record, scoped to the caller's business units.
func (s *Service) GetEntry(ctx context.Context, id int64, actor *auth.Principal) (*Entry, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actorCanSee(actor, e) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return e, nil
}

// SearchEntries lists records under role scoping. Non-oversight callers
// only see their own business units, and unless they are explicitly
// browsing disabled services the listing is limited to Accepted entries.
func (s *Service) SearchEntries(ctx context.Context, filters SearchFilters, actor *auth.Principal) ([]Entry, error) {
	if !actor.Role.CanViewAllUnits() {
		filters.BusinessUnits = scopedUnits(filters.BusinessUnits, actor.BusinessUnits)
		if len(filters.BusinessUnits) == 0 {
			return []Entry{}, nil
		}
	}

	if filters.EntryStatus == "" && !filters.BrowsingDisabled() {
		filters.EntryStatus = EntryStatusAccepted
	}

	if filters.Limit <= 0 {
		filters.Limit = defaultSearchLimit
	}
	if filters.Limit > maxSearchLimit {
		filters.Limit = maxSearchLimit
	}

	return s.repo.Search(ctx, filters)
}

// UpdateEntryStatus accepts or rejects a pending record. Only privileged
// roles review entries.
func (s *Service) UpdateEntryStatus(ctx context.Context, id int64, dto UpdateStatusDTO, actor *auth.Principal) error {
	if !actor.Role.Privileged() {
		return internal.ErrUnauthorizedAccess
	}
	if dto.EntryStatus != EntryStatusAccepted && dto.EntryStatus != EntryStatusRejected {
		return internal.NewValidationError("entry_status must be Accepted or Rejected", internal.ErrCodeInvalidEntryStatus)
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateEntryStatus(ctx, id, dto.EntryStatus); err != nil {
		return err
	}

	s.log.Info("entry review recorded", "entry_id", id, "entry_status", dto.EntryStatus, "reviewed_by", actor.UserID)
	return nil
}

// DeleteEntry removes a record outright. Privileged roles only.
func (s *Service) DeleteEntry(ctx context.Context, id int64, actor *auth.Principal) error {
	if !actor.Role.Privileged() {
		return internal.ErrUnauthorizedAccess
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ExportEntries renders the scoped listing as a spreadsheet download.
func (s *Service) ExportEntries(ctx context.Context, filters SearchFilters, actor *auth.Principal) ([]byte, error) {
	entries, err := s.SearchEntries(ctx, filters, actor)
	if err != nil {
		return nil, err
	}
	return BuildExport(entries)
}

func actorCanSee(actor *auth.Principal, e *Entry) bool {
	if actor.Role.CanViewAllUnits() {
		return true
	}
	for _, bu := range actor.BusinessUnits {
		if strings.EqualFold(bu, e.BusinessUnit) {
			return true
		}
	}
	return false
}

// scopedUnits intersects the requested units with the actor's own; an
// empty request means all of the actor's units.
func scopedUnits(requested, allowed []string) []string {
	if len(requested) == 0 {
		return allowed
	}
	var scoped []string
	for _, want := range requested {
		for _, have := range allowed {
			if strings.EqualFold(want, have) {
				scoped = append(scoped, have)
				break
			}
		}
	}
	return scoped
}

func parseCreateDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range createDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, internal.NewValidationError("date is not a recognizable date", internal.ErrCodeInvalidDate).
		WithDetails(map[string]any{"value": raw})
}

func resolveOptional(table catalog.Table, field, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	resolved, ok := table.Resolve(raw)
	if !ok {
		return "", unresolvedEnum(field, raw)
	}
	return resolved, nil
}

func unresolvedEnum(field, value string) *internal.AppError {
	return internal.NewValidationError("unrecognized "+field+" value", internal.ErrCodeUnresolvedEnum).
		WithDetails(map[string]any{"field": field, "value": value})
}
