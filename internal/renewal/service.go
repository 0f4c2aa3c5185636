package renewal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/auth"
	"github.com/wytlabs/cardops/internal/core/events"
	"github.com/wytlabs/cardops/internal/entry"
	"github.com/wytlabs/cardops/internal/user"
)

// EntryStore is the slice of the entry repository the lifecycle jobs use.
type EntryStore interface {
	GetByID(ctx context.Context, id int64) (*entry.Entry, error)
	DueForReminder(ctx context.Context, on time.Time) ([]entry.Entry, error)
	DueForAutoCancel(ctx context.Context, on time.Time) ([]entry.Entry, error)
	SetRenewalNotificationSent(ctx context.Context, id int64) error
	SetAutoCancellationNotificationSent(ctx context.Context, id int64) error
	AdvanceRenewals(ctx context.Context, now time.Time) (int64, error)
	DisableEntry(ctx context.Context, id int64, at time.Time) error
	DistinctCurrencies(ctx context.Context) ([]string, error)
	BulkRecomputeINR(ctx context.Context, currency string, rate decimal.Decimal) (int64, error)
	DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type LogStore interface {
	Create(ctx context.Context, log *RenewalLog) error
	HasActionForCycle(ctx context.Context, entryID int64, renewalDate time.Time) (bool, error)
	ListForEntry(ctx context.Context, entryID int64) ([]RenewalLog, error)
}

type UserStore interface {
	HandlersForBusinessUnit(ctx context.Context, businessUnit string) ([]user.User, error)
	UsersWithRole(ctx context.Context, role string) ([]user.User, error)
}

// Notifier persists an in-app notification and queues its email copy.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, email, subject, body string, entryID int64) error
}

// RateSource yields currency conversion rates.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

type Config struct {
	ReminderLeadDays   int
	AutoCancelLeadDays int
	RetentionDays      int
	BaseCurrency       string
}

// Service runs the five lifecycle jobs. Every job is idempotent per day:
// flags and logged decisions keep re-runs from double-notifying. A failing
// entry is logged and skipped, never blocking the rest of the batch.
type Service struct {
	entries  EntryStore
	logs     LogStore
	users    UserStore
	notifier Notifier
	rates    RateSource
	bus      *events.EventBus
	cfg      Config
	log      *slog.Logger

	now func() time.Time
}

func NewService(entries EntryStore, logs LogStore, users UserStore, notifier Notifier, rates RateSource, bus *events.EventBus, cfg Config, lg *slog.Logger) *Service {
	if cfg.ReminderLeadDays <= 0 {
		cfg.ReminderLeadDays = 5
	}
	if cfg.AutoCancelLeadDays <= 0 {
		cfg.AutoCancelLeadDays = 2
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 3
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "INR"
	}
	return &Service{
		entries:  entries,
		logs:     logs,
		users:    users,
		notifier: notifier,
		rates:    rates,
		bus:      bus,
		cfg:      cfg,
		log:      lg,
		now:      time.Now,
	}
}

// RunReminderJob notifies the resolved service handler N days before each
// renewal, once per cycle.
func (s *Service) RunReminderJob(ctx context.Context) error {
	target := s.today().AddDate(0, 0, s.cfg.ReminderLeadDays)
	entries, err := s.entries.DueForReminder(ctx, target)
	if err != nil {
		return err
	}

	notified := 0
	for _, e := range entries {
		if e.NextRenewalDate == nil {
			continue
		}
		gated, err := s.logs.HasActionForCycle(ctx, e.ID, *e.NextRenewalDate)
		if err != nil {
			s.log.Error("renewal log check failed", "entry_id", e.ID, "error", err)
			continue
		}
		if gated {
			s.log.Info("reminder skipped, decision already recorded",
				"entry_id", e.ID,
				"renewal_date", e.NextRenewalDate.Format("2006-01-02"))
			continue
		}

		handler := s.resolveHandler(ctx, &e)
		if handler != nil {
			subject := fmt.Sprintf("Renewal reminder: %s", e.Particulars)
			body := reminderBody(&e)
			if err := s.notifier.NotifyUser(ctx, handler.ID, handler.Email, subject, body, e.ID); err != nil {
				s.log.Error("reminder notification failed", "entry_id", e.ID, "user_id", handler.ID, "error", err)
				continue
			}
			notified++
		} else {
			s.log.Warn("no handler resolved for renewal reminder",
				"entry_id", e.ID,
				"service_handler", e.ServiceHandler,
				"business_unit", e.BusinessUnit)
		}

		if err := s.entries.SetRenewalNotificationSent(ctx, e.ID); err != nil {
			s.log.Error("failed to set reminder flag", "entry_id", e.ID, "error", err)
		}
	}

	s.log.Info("reminder job finished", "due", len(entries), "notified", notified, "target_date", target.Format("2006-01-02"))
	return nil
}

// RunAutoCancelJob warns the handler plus finance oversight M days before
// an already-reminded renewal lapses into auto-cancellation.
func (s *Service) RunAutoCancelJob(ctx context.Context) error {
	target := s.today().AddDate(0, 0, s.cfg.AutoCancelLeadDays)
	entries, err := s.entries.DueForAutoCancel(ctx, target)
	if err != nil {
		return err
	}

	notified := 0
	for _, e := range entries {
		if e.NextRenewalDate == nil {
			continue
		}
		gated, err := s.logs.HasActionForCycle(ctx, e.ID, *e.NextRenewalDate)
		if err != nil {
			s.log.Error("renewal log check failed", "entry_id", e.ID, "error", err)
			continue
		}
		if gated {
			continue
		}

		subject := fmt.Sprintf("Auto-cancellation notice: %s", e.Particulars)
		body := autoCancelBody(&e)

		recipients := s.autoCancelRecipients(ctx, &e)
		for _, recipient := range recipients {
			if err := s.notifier.NotifyUser(ctx, recipient.ID, recipient.Email, subject, body, e.ID); err != nil {
				s.log.Error("auto-cancel notification failed", "entry_id", e.ID, "user_id", recipient.ID, "error", err)
			}
		}
		if len(recipients) > 0 {
			notified++
		}

		if err := s.entries.SetAutoCancellationNotificationSent(ctx, e.ID); err != nil {
			s.log.Error("failed to set auto-cancel flag", "entry_id", e.ID, "error", err)
		}
	}

	s.log.Info("auto-cancel job finished", "due", len(entries), "notified", notified, "target_date", target.Format("2006-01-02"))
	return nil
}

// RunRolloverJob advances every overdue, already-reminded renewal by one
// cadence period, opening the next cycle.
func (s *Service) RunRolloverJob(ctx context.Context) error {
	advanced, err := s.entries.AdvanceRenewals(ctx, s.now())
	if err != nil {
		return err
	}
	s.log.Info("rollover job finished", "advanced", advanced)
	return nil
}

// RunRateRefreshJob refreshes the base-currency valuation of every entry
// from today's rates. A currency whose lookup fails is skipped; the rest
// still refresh.
func (s *Service) RunRateRefreshJob(ctx context.Context) error {
	currencies, err := s.entries.DistinctCurrencies(ctx)
	if err != nil {
		return err
	}

	for _, currency := range currencies {
		if strings.EqualFold(currency, s.cfg.BaseCurrency) {
			continue
		}
		rate, err := s.rates.Rate(ctx, currency, s.cfg.BaseCurrency)
		if err != nil {
			s.log.Error("rate lookup failed", "currency", currency, "error", err)
			continue
		}
		updated, err := s.entries.BulkRecomputeINR(ctx, currency, rate)
		if err != nil {
			s.log.Error("rate recompute failed", "currency", currency, "error", err)
			continue
		}
		s.log.Info("rates refreshed", "currency", currency, "rate", rate, "entries", updated)
	}
	return nil
}

// RunRetentionJob hard-deletes rejected entries older than the retention
// window.
func (s *Service) RunRetentionJob(ctx context.Context) error {
	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	purged, err := s.entries.DeleteRejectedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	s.log.Info("retention job finished", "purged", purged, "cutoff", cutoff.Format("2006-01-02"))
	return nil
}

// CreateLog records a human decision for the entry's current cycle and,
// for a DisableByMIS action, turns the service off immediately.
func (s *Service) CreateLog(ctx context.Context, dto CreateLogDTO, actor *auth.Principal) (*RenewalLog, error) {
	if dto.EntryID == 0 {
		return nil, internal.NewValidationFieldError("entry_id", "entry_id is required", internal.ErrCodeMissingRequiredField).
			WithCause(ErrMissingEntryID)
	}
	if !ValidAction(dto.Action) {
		return nil, internal.NewValidationError("action must be Continue, Cancel, or DisableByMIS", internal.ErrCodeValidationFailed).
			WithCause(ErrInvalidAction)
	}
	if dto.Action == ActionDisableByMIS && !actor.Role.Privileged() {
		return nil, internal.ErrUnauthorizedAccess
	}

	e, err := s.entries.GetByID(ctx, dto.EntryID)
	if err != nil {
		return nil, err
	}

	renewalDate := s.today()
	if e.NextRenewalDate != nil {
		renewalDate = *e.NextRenewalDate
	}

	log := &RenewalLog{
		EntryID:        e.ID,
		ServiceHandler: e.ServiceHandler,
		Action:         dto.Action,
		Reason:         dto.Reason,
		RenewalDate:    renewalDate,
		CreatedBy:      actor.UserID,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return nil, err
	}

	if dto.Action == ActionDisableByMIS {
		disabledAt := s.now()
		if err := s.entries.DisableEntry(ctx, e.ID, disabledAt); err != nil {
			return nil, err
		}
		if err := s.bus.Publish(ctx, events.NewServiceDisabledEvent(e.ID, e.Particulars, disabledAt, actor.UserID)); err != nil {
			s.log.Error("failed to publish disable event", "entry_id", e.ID, "error", err)
		}
	}

	s.log.Info("renewal decision recorded",
		"entry_id", e.ID,
		"action", dto.Action,
		"renewal_date", renewalDate.Format("2006-01-02"),
		"created_by", actor.UserID)
	return log, nil
}

func (s *Service) ListLogs(ctx context.Context, entryID int64) ([]RenewalLog, error) {
	return s.logs.ListForEntry(ctx, entryID)
}

// resolveHandler matches the free-text serviceHandler cell against
// handler-role users in the entry's business unit: full-name match first,
// then a shared name token.
func (s *Service) resolveHandler(ctx context.Context, e *entry.Entry) *user.User {
	if strings.TrimSpace(e.ServiceHandler) == "" {
		return nil
	}
	handlers, err := s.users.HandlersForBusinessUnit(ctx, e.BusinessUnit)
	if err != nil {
		s.log.Error("handler lookup failed", "business_unit", e.BusinessUnit, "error", err)
		return nil
	}

	for i := range handlers {
		if strings.EqualFold(handlers[i].Name, e.ServiceHandler) {
			return &handlers[i]
		}
	}

	wanted := strings.Fields(strings.ToLower(e.ServiceHandler))
	for i := range handlers {
		for _, token := range strings.Fields(strings.ToLower(handlers[i].Name)) {
			for _, w := range wanted {
				if token == w {
					return &handlers[i]
				}
			}
		}
	}
	return nil
}

func (s *Service) autoCancelRecipients(ctx context.Context, e *entry.Entry) []user.User {
	var recipients []user.User
	if handler := s.resolveHandler(ctx, e); handler != nil {
		recipients = append(recipients, *handler)
	}

	oversight, err := s.users.UsersWithRole(ctx, user.RoleFinance)
	if err != nil {
		s.log.Error("oversight lookup failed", "error", err)
		return recipients
	}
	for _, u := range oversight {
		duplicate := false
		for _, r := range recipients {
			if r.ID == u.ID {
				duplicate = true
				break
			}
		}
		if !duplicate {
			recipients = append(recipients, u)
		}
	}
	return recipients
}

func (s *Service) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func reminderBody(e *entry.Entry) string {
	return fmt.Sprintf(
		"%s (%s) renews on %s.\nAmount: %s %s\nBusiness unit: %s\n\nRecord a Continue or Cancel decision to stop further notices for this cycle.",
		e.Particulars, e.Recurring, e.NextRenewalDate.Format("02-Jan-2006"),
		e.Amount.String(), e.Currency, e.BusinessUnit)
}

func autoCancelBody(e *entry.Entry) string {
	return fmt.Sprintf(
		"%s will be auto-cancelled at renewal on %s unless a decision is recorded.\nAmount: %s %s\nBusiness unit: %s\nHandler: %s",
		e.Particulars, e.NextRenewalDate.Format("02-Jan-2006"),
		e.Amount.String(), e.Currency, e.BusinessUnit, e.ServiceHandler)
}
