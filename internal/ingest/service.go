package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/catalog"
	"github.com/wytlabs/cardops/internal/core/common/validation"
	"github.com/wytlabs/cardops/internal/entry"
)

const defaultCurrency = "INR"

// Service runs the import pipeline: extract rows, resolve fields,
// canonicalize enums, validate, and reconcile duplicates. A bad row is
// recorded and skipped; only an unreadable file fails the whole upload.
type Service struct {
	reconciler *Reconciler
	log        *slog.Logger
}

func NewService(store Store, lg *slog.Logger) *Service {
	return &Service{
		reconciler: NewReconciler(store, lg),
		log:        lg,
	}
}

func (s *Service) IngestFile(ctx context.Context, upload Upload) (*BatchResult, error) {
	kind := KindFromFilename(upload.Filename)
	rows, err := ExtractRows(upload.Content, kind)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		BatchID: uuid.New(),
		Total:   len(rows),
	}

	for i, row := range rows {
		// Header is row 1; first data row displays as row 2.
		displayRow := i + 2

		e, err := s.buildEntry(row, upload)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RowError{
				Row:     displayRow,
				Message: rowMessage(err),
				Raw:     row.Cells,
			})
			continue
		}

		outcome, err := s.reconciler.Reconcile(ctx, e)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RowError{
				Row:     displayRow,
				Message: rowMessage(err),
				Raw:     row.Cells,
			})
			continue
		}

		result.Success++
		if outcome == OutcomeMerged {
			result.Merged++
		} else {
			result.Unique++
		}
	}

	s.log.Info("import batch finished",
		"batch_id", result.BatchID,
		"file", upload.Filename,
		"total", result.Total,
		"success", result.Success,
		"failed", result.Failed,
		"unique", result.Unique,
		"merged", result.Merged)

	return result, nil
}

// buildEntry converts one raw row into a fully normalized entry, or
// reports the first problem it hits.
func (s *Service) buildEntry(row Row, upload Upload) (*entry.Entry, error) {
	fields := NewFieldResolver(row)

	cardNumber, _ := fields.ResolveString(aliasCardNumber...)
	assignee, _ := fields.ResolveString(aliasCardAssignedTo...)
	particulars, _ := fields.ResolveString(aliasParticulars...)
	narration, _ := fields.ResolveString(aliasNarration...)
	billStatus, _ := fields.ResolveString(aliasBillStatus...)
	serviceHandler, _ := fields.ResolveString(aliasServiceHandler...)

	currency := defaultCurrency
	if raw, ok := fields.ResolveString(aliasCurrency...); ok {
		currency = strings.ToUpper(raw)
	}

	// Status and recurring fall back to safe defaults instead of failing
	// the row; the remaining enums have no sensible default.
	status := entry.StatusActive
	if raw, ok := fields.ResolveString(aliasStatus...); ok {
		if resolved, ok := catalog.Status.Resolve(raw); ok {
			status = resolved
		}
	}
	recurring := entry.RecurringOneTime
	if raw, ok := fields.ResolveString(aliasRecurring...); ok {
		if resolved, ok := catalog.Recurring.Resolve(raw); ok {
			recurring = resolved
		}
	}

	typeOfService, err := resolveEnum(fields, catalog.TypeOfService, "type_of_service", aliasTypeOfService)
	if err != nil {
		return nil, err
	}
	businessUnit, err := resolveEnum(fields, catalog.BusinessUnit, "business_unit", aliasBusinessUnit)
	if err != nil {
		return nil, err
	}
	costCenter, err := resolveEnum(fields, catalog.CostCenter, "cost_center", aliasCostCenter)
	if err != nil {
		return nil, err
	}
	approvedBy, err := resolveEnum(fields, catalog.ApprovedBy, "approved_by", aliasApprovedBy)
	if err != nil {
		return nil, err
	}

	amount, err := resolveDecimal(fields, "amount", aliasAmount)
	if err != nil {
		return nil, err
	}
	xeRate, err := resolveDecimal(fields, "xe_rate", aliasXeRate)
	if err != nil {
		return nil, err
	}
	amountInINR, err := resolveDecimal(fields, "amount_in_inr", aliasAmountInINR)
	if err != nil {
		return nil, err
	}

	rawDate, _ := fields.ResolveString(aliasDate...)

	v := validation.NewValidator()
	v.Field("card_number", cardNumber).Required()
	v.Field("card_assigned_to", assignee).Required()
	v.Field("date", rawDate).Required()
	v.Field("particulars", particulars).Required()
	v.Field("business_unit", businessUnit).Required()
	v.Field("amount", amount).Required().NonNegative()
	if appErr := v.Validate(); appErr != nil {
		return nil, appErr
	}

	date, err := ResolveDate(rawDate)
	if err != nil {
		return nil, err
	}

	month, ok := fields.ResolveString(aliasMonth...)
	if !ok {
		month = entry.MonthLabel(date)
	}

	isShared := parseFlag(fields, aliasIsShared)
	allocRaw, _ := fields.Resolve(aliasAllocations...)
	allocations, shared, err := ParseAllocations(isShared, allocRaw, amount, businessUnit)
	if err != nil {
		return nil, internal.NewValidationError("shared allocations exceed entry amount", internal.ErrCodeAllocationExceedsTotal).
			WithCause(err)
	}

	if currency == defaultCurrency && xeRate.IsZero() {
		xeRate = decimal.NewFromInt(1)
	}
	if amountInINR.IsZero() && xeRate.IsPositive() {
		amountInINR = amount.Mul(xeRate)
	}

	entryStatus := entry.EntryStatusPending
	if upload.AutoAccept {
		entryStatus = entry.EntryStatusAccepted
	}

	now := time.Now()
	return &entry.Entry{
		CardNumber:     cardNumber,
		CardAssignedTo: assignee,
		Date:           date,
		Month:          month,
		Status:         status,
		Particulars:    particulars,
		Narration:      narration,

		Currency:    currency,
		BillStatus:  billStatus,
		Amount:      amount,
		XeRate:      xeRate,
		AmountInINR: amountInINR,

		TypeOfService:  typeOfService,
		BusinessUnit:   businessUnit,
		CostCenter:     costCenter,
		ApprovedBy:     approvedBy,
		ServiceHandler: serviceHandler,

		Recurring:   recurring,
		EntryStatus: entryStatus,

		NextRenewalDate: entry.NextRenewalFrom(recurring, date),

		IsShared:          shared,
		SharedAllocations: allocations,

		CreatedBy: upload.ActorID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// resolveEnum canonicalizes an optional enum column. Absent means empty;
// present but unrecognizable fails the row.
func resolveEnum(fields *FieldResolver, table catalog.Table, field string, aliases []string) (string, error) {
	raw, ok := fields.ResolveString(aliases...)
	if !ok {
		return "", nil
	}
	resolved, ok := table.Resolve(raw)
	if !ok {
		return "", internal.NewValidationError(
			fmt.Sprintf("unrecognized %s value %q", field, raw),
			internal.ErrCodeUnresolvedEnum,
		).WithDetails(map[string]any{"field": field, "value": raw})
	}
	return resolved, nil
}

// resolveDecimal parses a numeric column, tolerating currency symbols and
// thousands separators. Absent or blank means zero.
func resolveDecimal(fields *FieldResolver, field string, aliases []string) (decimal.Decimal, error) {
	raw, ok := fields.ResolveString(aliases...)
	if !ok {
		return decimal.Zero, nil
	}
	cleaned := nonNumericRe.ReplaceAllString(raw, "")
	if cleaned == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, internal.NewValidationFieldError(field,
			fmt.Sprintf("%s is not a number", field),
			internal.ErrCodeValidationFailed)
	}
	return value, nil
}

func parseFlag(fields *FieldResolver, aliases []string) bool {
	raw, ok := fields.ResolveString(aliases...)
	if !ok {
		return false
	}
	switch strings.ToLower(raw) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

func rowMessage(err error) string {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr.GetDetailedMessage()
	}
	return err.Error()
}
