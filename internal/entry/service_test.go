package entry_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/auth"
	"github.com/wytlabs/cardops/internal/entry"
)

type mockEntryRepository struct {
	entries       map[int64]*entry.Entry
	nextID        int64
	lastFilters   entry.SearchFilters
	searchResults []entry.Entry
	statusUpdates map[int64]string
}

func newMockEntryRepository() *mockEntryRepository {
	return &mockEntryRepository{
		entries:       make(map[int64]*entry.Entry),
		nextID:        1,
		statusUpdates: make(map[int64]string),
	}
}

func (m *mockEntryRepository) Create(_ context.Context, e *entry.Entry) error {
	e.ID = m.nextID
	m.nextID++
	m.entries[e.ID] = e
	return nil
}

func (m *mockEntryRepository) GetByID(_ context.Context, id int64) (*entry.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, internal.ErrEntryNotFound
	}
	return e, nil
}

func (m *mockEntryRepository) Search(_ context.Context, filters entry.SearchFilters) ([]entry.Entry, error) {
	m.lastFilters = filters
	return m.searchResults, nil
}

func (m *mockEntryRepository) Update(_ context.Context, e *entry.Entry) error {
	m.entries[e.ID] = e
	return nil
}

func (m *mockEntryRepository) UpdateEntryStatus(_ context.Context, id int64, status string) error {
	if _, ok := m.entries[id]; !ok {
		return internal.ErrEntryNotFound
	}
	m.statusUpdates[id] = status
	m.entries[id].EntryStatus = status
	return nil
}

func (m *mockEntryRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.entries[id]; !ok {
		return internal.ErrEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *mockEntryRepository) FindDuplicate(_ context.Context, _ entry.DuplicateKey) (*entry.Entry, error) {
	return nil, internal.ErrEntryNotFound
}

func (m *mockEntryRepository) MarkMerged(_ context.Context, _ int64) error { return nil }

func (m *mockEntryRepository) DueForReminder(_ context.Context, _ time.Time) ([]entry.Entry, error) {
	return nil, nil
}

func (m *mockEntryRepository) DueForAutoCancel(_ context.Context, _ time.Time) ([]entry.Entry, error) {
	return nil, nil
}

func (m *mockEntryRepository) SetRenewalNotificationSent(_ context.Context, _ int64) error {
	return nil
}

func (m *mockEntryRepository) SetAutoCancellationNotificationSent(_ context.Context, _ int64) error {
	return nil
}

func (m *mockEntryRepository) AdvanceRenewals(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (m *mockEntryRepository) DisableEntry(_ context.Context, _ int64, _ time.Time) error {
	return nil
}

func (m *mockEntryRepository) DistinctCurrencies(_ context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockEntryRepository) BulkRecomputeINR(_ context.Context, _ string, _ decimal.Decimal) (int64, error) {
	return 0, nil
}

func (m *mockEntryRepository) DeleteRejectedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

var _ = Describe("EntryService", func() {
	var (
		repo    *mockEntryRepository
		service *entry.Service
		ctx     context.Context
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	admin := &auth.Principal{UserID: 1, Name: "Arjun Mehta", Role: auth.RoleAdmin}
	handler := &auth.Principal{UserID: 2, Name: "Priya Nair", Role: auth.RoleHandler, BusinessUnits: []string{"Wytlabs"}}

	validDTO := func() entry.CreateEntryDTO {
		return entry.CreateEntryDTO{
			CardNumber:     "M003",
			CardAssignedTo: "Priya Nair",
			Date:           "2025-01-05",
			Particulars:    "ChatGPT",
			Amount:         decimal.NewFromInt(200),
			Currency:       "usd",
			BusinessUnit:   "wyt labs",
			TypeOfService:  "tools",
			Recurring:      "annual",
		}
	}

	BeforeEach(func() {
		repo = newMockEntryRepository()
		service = entry.NewService(repo, testLogger)
		ctx = context.Background()
	})

	Describe("CreateEntry", func() {
		It("canonicalizes enums and derives the renewal date", func() {
			e, err := service.CreateEntry(ctx, validDTO(), admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.BusinessUnit).To(Equal("Wytlabs"))
			Expect(e.TypeOfService).To(Equal("Tool"))
			Expect(e.Currency).To(Equal("USD"))
			Expect(e.Recurring).To(Equal(entry.RecurringYearly))
			Expect(e.NextRenewalDate).NotTo(BeNil())
			Expect(*e.NextRenewalDate).To(Equal(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)))
			Expect(*e.DuplicateStatus).To(Equal(entry.DuplicateUnique))
		})

		It("auto-accepts entries from privileged roles", func() {
			e, err := service.CreateEntry(ctx, validDTO(), admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.EntryStatus).To(Equal(entry.EntryStatusAccepted))
		})

		It("leaves entries from other roles pending", func() {
			e, err := service.CreateEntry(ctx, validDTO(), handler)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.EntryStatus).To(Equal(entry.EntryStatusPending))
		})

		It("rejects missing required fields", func() {
			dto := validDTO()
			dto.CardNumber = ""
			_, err := service.CreateEntry(ctx, dto, admin)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects an unresolvable business unit", func() {
			dto := validDTO()
			dto.BusinessUnit = "Atlantis"
			_, err := service.CreateEntry(ctx, dto, admin)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeUnresolvedEnum))
		})
	})

	Describe("SearchEntries", func() {
		It("defaults the listing to accepted entries", func() {
			_, err := service.SearchEntries(ctx, entry.SearchFilters{}, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilters.EntryStatus).To(Equal(entry.EntryStatusAccepted))
			Expect(repo.lastFilters.Limit).To(Equal(100))
		})

		It("does not force accepted entries when browsing disabled services", func() {
			from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
			_, err := service.SearchEntries(ctx, entry.SearchFilters{DisabledFrom: &from}, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilters.EntryStatus).To(BeEmpty())
		})

		It("restricts non-oversight roles to their own business units", func() {
			_, err := service.SearchEntries(ctx, entry.SearchFilters{}, handler)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilters.BusinessUnits).To(Equal([]string{"Wytlabs"}))
		})

		It("returns nothing when the requested unit is outside the caller's scope", func() {
			entries, err := service.SearchEntries(ctx, entry.SearchFilters{BusinessUnits: []string{"Collabx"}}, handler)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("GetEntry", func() {
		It("hides entries outside the caller's business units", func() {
			e, err := service.CreateEntry(ctx, validDTO(), admin)
			Expect(err).NotTo(HaveOccurred())

			outsider := &auth.Principal{UserID: 3, Role: auth.RoleHandler, BusinessUnits: []string{"Collabx"}}
			_, err = service.GetEntry(ctx, e.ID, outsider)
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))

			got, err := service.GetEntry(ctx, e.ID, handler)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(e.ID))
		})
	})

	Describe("UpdateEntryStatus", func() {
		It("records a review decision from a privileged role", func() {
			e, _ := service.CreateEntry(ctx, validDTO(), handler)

			err := service.UpdateEntryStatus(ctx, e.ID, entry.UpdateStatusDTO{EntryStatus: entry.EntryStatusRejected}, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.statusUpdates[e.ID]).To(Equal(entry.EntryStatusRejected))
		})

		It("refuses review from non-privileged roles", func() {
			e, _ := service.CreateEntry(ctx, validDTO(), admin)

			err := service.UpdateEntryStatus(ctx, e.ID, entry.UpdateStatusDTO{EntryStatus: entry.EntryStatusAccepted}, handler)
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
		})

		It("refuses states outside the review vocabulary", func() {
			e, _ := service.CreateEntry(ctx, validDTO(), admin)

			err := service.UpdateEntryStatus(ctx, e.ID, entry.UpdateStatusDTO{EntryStatus: "Archived"}, admin)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidEntryStatus))
		})
	})
})
