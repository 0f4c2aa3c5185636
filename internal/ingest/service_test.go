package ingest_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/entry"
	"github.com/wytlabs/cardops/internal/ingest"
)

type mockEntryStore struct {
	entries     []*entry.Entry
	nextID      int64
	createError error
}

func newMockEntryStore() *mockEntryStore {
	return &mockEntryStore{nextID: 1}
}

func (m *mockEntryStore) FindDuplicate(_ context.Context, key entry.DuplicateKey) (*entry.Entry, error) {
	for _, e := range m.entries {
		existing := e.DuplicateKey()
		if existing.CardNumber == key.CardNumber &&
			existing.Date.Equal(key.Date) &&
			existing.Particulars == key.Particulars &&
			existing.BusinessUnit == key.BusinessUnit &&
			existing.Amount.Equal(key.Amount) &&
			existing.Currency == key.Currency {
			return e, nil
		}
	}
	return nil, internal.ErrEntryNotFound
}

func (m *mockEntryStore) MarkMerged(_ context.Context, id int64) error {
	for _, e := range m.entries {
		if e.ID == id {
			e.MarkMerged()
			return nil
		}
	}
	return internal.ErrEntryNotFound
}

func (m *mockEntryStore) Create(_ context.Context, e *entry.Entry) error {
	if m.createError != nil {
		return m.createError
	}
	e.ID = m.nextID
	m.nextID++
	m.entries = append(m.entries, e)
	return nil
}

var _ = Describe("IngestService", func() {
	var (
		store   *mockEntryStore
		service *ingest.Service
		ctx     context.Context
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		store = newMockEntryStore()
		service = ingest.NewService(store, testLogger)
		ctx = context.Background()
	})

	upload := func(name, content string, autoAccept bool) *ingest.BatchResult {
		result, err := service.IngestFile(ctx, ingest.Upload{
			Filename:   name,
			Content:    []byte(content),
			ActorID:    7,
			AutoAccept: autoAccept,
		})
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	statement := "Card Number,Card Assigned To,Date,Particulars,Amount,Currency,Business Unit,Type of Service,Recurring\n" +
		"M003,Priya Nair,05-Jan-25,ChatGPT,200,USD,Wytlabs,Tool,Yearly\n"

	Describe("importing a statement", func() {
		It("normalizes and persists a well-formed row", func() {
			result := upload("statement.csv", statement, true)

			Expect(result.Total).To(Equal(1))
			Expect(result.Success).To(Equal(1))
			Expect(result.Unique).To(Equal(1))
			Expect(result.Errors).To(BeEmpty())
			Expect(store.entries).To(HaveLen(1))

			e := store.entries[0]
			Expect(e.CardNumber).To(Equal("M003"))
			Expect(e.Date).To(Equal(time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)))
			Expect(e.Month).To(Equal("Jan-2025"))
			Expect(e.TypeOfService).To(Equal("Tool"))
			Expect(e.Recurring).To(Equal(entry.RecurringYearly))
			Expect(e.EntryStatus).To(Equal(entry.EntryStatusAccepted))
			Expect(e.CreatedBy).To(Equal(int64(7)))
			Expect(*e.DuplicateStatus).To(Equal(entry.DuplicateUnique))
			Expect(e.NextRenewalDate).NotTo(BeNil())
			Expect(*e.NextRenewalDate).To(Equal(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)))
		})

		It("leaves entries pending for non-privileged uploaders", func() {
			upload("statement.csv", statement, false)
			Expect(store.entries[0].EntryStatus).To(Equal(entry.EntryStatusPending))
		})

		It("defaults status to Active and recurring to One-time", func() {
			content := "Card Number,Card Assigned To,Date,Particulars,Amount,Business Unit\n" +
				"M001,Priya Nair,2025-02-01,Figma,150,Wytlabs\n"
			upload("statement.csv", content, true)

			e := store.entries[0]
			Expect(e.Status).To(Equal(entry.StatusActive))
			Expect(e.Recurring).To(Equal(entry.RecurringOneTime))
			Expect(e.NextRenewalDate).To(BeNil())
			Expect(e.Currency).To(Equal("INR"))
			Expect(e.AmountInINR.Equal(e.Amount)).To(BeTrue())
		})

		It("is idempotent: re-importing the same file merges instead of duplicating", func() {
			first := upload("statement.csv", statement, true)
			Expect(first.Unique).To(Equal(1))

			second := upload("statement.csv", statement, true)
			Expect(second.Merged).To(Equal(1))
			Expect(second.Unique).To(BeZero())

			Expect(store.entries).To(HaveLen(1))
			Expect(*store.entries[0].DuplicateStatus).To(Equal(entry.DuplicateMerged))

			// A third run converges on the same state.
			third := upload("statement.csv", statement, true)
			Expect(third.Merged).To(Equal(1))
			Expect(store.entries).To(HaveLen(1))
		})

		It("collects row failures without aborting the batch", func() {
			content := "Card Number,Card Assigned To,Date,Particulars,Amount,Business Unit\n" +
				"M001,Priya Nair,2025-02-01,Figma,150,Atlantis\n" +
				"M002,Rohan Shah,2025-02-02,Slack,80,Collabx\n"
			result := upload("statement.csv", content, true)

			Expect(result.Total).To(Equal(2))
			Expect(result.Failed).To(Equal(1))
			Expect(result.Success).To(Equal(1))
			Expect(result.Errors).To(HaveLen(1))
			Expect(result.Errors[0].Row).To(Equal(2))
			Expect(result.Errors[0].Message).To(ContainSubstring("business_unit"))
			Expect(store.entries).To(HaveLen(1))
			Expect(store.entries[0].CardNumber).To(Equal("M002"))
		})

		It("fails rows missing required fields", func() {
			content := "Card Number,Card Assigned To,Date,Particulars,Amount,Business Unit\n" +
				",Priya Nair,2025-02-01,Figma,150,Wytlabs\n"
			result := upload("statement.csv", content, true)

			Expect(result.Failed).To(Equal(1))
			Expect(result.Errors[0].Message).To(ContainSubstring("card_number"))
		})

		It("rejects rows whose allocations exceed the amount", func() {
			content := "Card Number,Card Assigned To,Date,Particulars,Amount,Business Unit,Is Shared,Shared Allocations\n" +
				"M001,Priya Nair,2025-02-01,Figma,300,Wytlabs,Yes,Wytlabs:350\n"
			result := upload("statement.csv", content, true)

			Expect(result.Failed).To(Equal(1))
			Expect(store.entries).To(BeEmpty())
		})

		It("computes the INR valuation from the exchange rate", func() {
			content := "Card Number,Card Assigned To,Date,Particulars,Amount,Currency,Xe Rate,Business Unit\n" +
				"M001,Priya Nair,2025-02-01,Figma,100,USD,83.5,Wytlabs\n"
			upload("statement.csv", content, true)

			Expect(store.entries[0].AmountInINR.Equal(decimal.NewFromFloat(8350))).To(BeTrue())
		})

		It("refuses unreadable spreadsheet uploads outright", func() {
			_, err := service.IngestFile(ctx, ingest.Upload{
				Filename: "statement.xlsx",
				Content:  []byte("not a spreadsheet"),
			})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUnsupportedFormat))
		})
	})
})
