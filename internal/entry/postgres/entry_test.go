package postgres_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/entry"
	"github.com/wytlabs/cardops/internal/entry/postgres"
)

func TestEntryRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Entry Repository Suite")
}

var _ = Describe("EntryRepository", func() {
	var (
		db   *gorm.DB
		repo *postgres.EntryRepository
		ctx  context.Context
	)

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	newEntry := func(mutate func(*entry.Entry)) *entry.Entry {
		unique := entry.DuplicateUnique
		e := &entry.Entry{
			CardNumber:      "M003",
			CardAssignedTo:  "Priya Nair",
			Date:            day(2025, time.January, 5),
			Month:           "Jan-2025",
			Status:          entry.StatusActive,
			Particulars:     "ChatGPT",
			Currency:        "USD",
			Amount:          decimal.NewFromInt(200),
			BusinessUnit:    "Wytlabs",
			Recurring:       entry.RecurringYearly,
			EntryStatus:     entry.EntryStatusAccepted,
			DuplicateStatus: &unique,
		}
		if mutate != nil {
			mutate(e)
		}
		return e
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&entry.Entry{})).To(Succeed())

		repo = postgres.NewEntryRepository(db)
		ctx = context.Background()
	})

	Describe("Create and GetByID", func() {
		It("round-trips an entry", func() {
			e := newEntry(nil)
			Expect(repo.Create(ctx, e)).To(Succeed())
			Expect(e.ID).NotTo(BeZero())

			got, err := repo.GetByID(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Particulars).To(Equal("ChatGPT"))
			Expect(got.Amount.Equal(decimal.NewFromInt(200))).To(BeTrue())
		})

		It("reports missing entries through the domain sentinel", func() {
			_, err := repo.GetByID(ctx, 9999)
			Expect(err).To(MatchError(internal.ErrEntryNotFound))
		})
	})

	Describe("FindDuplicate", func() {
		It("matches on the full merge key, comparing dates by day", func() {
			e := newEntry(nil)
			Expect(repo.Create(ctx, e)).To(Succeed())

			found, err := repo.FindDuplicate(ctx, entry.DuplicateKey{
				CardNumber:   "M003",
				Date:         day(2025, time.January, 5),
				Particulars:  "ChatGPT",
				BusinessUnit: "Wytlabs",
				Amount:       decimal.NewFromInt(200),
				Currency:     "USD",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(e.ID))
		})

		It("treats a different amount as a different purchase", func() {
			Expect(repo.Create(ctx, newEntry(nil))).To(Succeed())

			_, err := repo.FindDuplicate(ctx, entry.DuplicateKey{
				CardNumber:   "M003",
				Date:         day(2025, time.January, 5),
				Particulars:  "ChatGPT",
				BusinessUnit: "Wytlabs",
				Amount:       decimal.NewFromInt(250),
				Currency:     "USD",
			})
			Expect(err).To(MatchError(internal.ErrEntryNotFound))
		})
	})

	Describe("MarkMerged", func() {
		It("persists the merged flag", func() {
			e := newEntry(nil)
			Expect(repo.Create(ctx, e)).To(Succeed())
			Expect(repo.MarkMerged(ctx, e.ID)).To(Succeed())

			got, err := repo.GetByID(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*got.DuplicateStatus).To(Equal(entry.DuplicateMerged))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			Expect(repo.Create(ctx, newEntry(nil))).To(Succeed())
			Expect(repo.Create(ctx, newEntry(func(e *entry.Entry) {
				e.CardNumber = "M001"
				e.Particulars = "Slack"
				e.BusinessUnit = "Collabx"
				e.EntryStatus = entry.EntryStatusPending
			}))).To(Succeed())
		})

		It("filters by business unit", func() {
			entries, err := repo.Search(ctx, entry.SearchFilters{BusinessUnits: []string{"Collabx"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Particulars).To(Equal("Slack"))
		})

		It("filters by review state", func() {
			entries, err := repo.Search(ctx, entry.SearchFilters{EntryStatus: entry.EntryStatusAccepted})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Particulars).To(Equal("ChatGPT"))
		})

		It("matches free text against particulars", func() {
			entries, err := repo.Search(ctx, entry.SearchFilters{Query: "Chat"})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})
	})

	Describe("renewal pipeline queries", func() {
		renewal := func(y int, m time.Month, d int) *time.Time {
			t := day(y, m, d)
			return &t
		}

		It("lists only unreminded accepted entries due on the day", func() {
			due := newEntry(func(e *entry.Entry) {
				e.NextRenewalDate = renewal(2025, time.June, 10)
			})
			Expect(repo.Create(ctx, due)).To(Succeed())
			Expect(repo.Create(ctx, newEntry(func(e *entry.Entry) {
				e.CardNumber = "M001"
				e.NextRenewalDate = renewal(2025, time.June, 11)
			}))).To(Succeed())
			Expect(repo.Create(ctx, newEntry(func(e *entry.Entry) {
				e.CardNumber = "M002"
				e.NextRenewalDate = renewal(2025, time.June, 10)
				e.RenewalNotificationSent = true
			}))).To(Succeed())

			entries, err := repo.DueForReminder(ctx, day(2025, time.June, 10))
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].ID).To(Equal(due.ID))
		})

		It("lists reminded but unwarned entries for the auto-cancel notice", func() {
			warned := newEntry(func(e *entry.Entry) {
				e.NextRenewalDate = renewal(2025, time.June, 10)
				e.RenewalNotificationSent = true
			})
			Expect(repo.Create(ctx, warned)).To(Succeed())
			Expect(repo.Create(ctx, newEntry(func(e *entry.Entry) {
				e.CardNumber = "M001"
				e.NextRenewalDate = renewal(2025, time.June, 10)
			}))).To(Succeed())

			entries, err := repo.DueForAutoCancel(ctx, day(2025, time.June, 10))
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].ID).To(Equal(warned.ID))
		})

		It("records the reminder flag", func() {
			e := newEntry(func(e *entry.Entry) {
				e.NextRenewalDate = renewal(2025, time.June, 10)
			})
			Expect(repo.Create(ctx, e)).To(Succeed())
			Expect(repo.SetRenewalNotificationSent(ctx, e.ID)).To(Succeed())

			entries, err := repo.DueForReminder(ctx, day(2025, time.June, 10))
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("disables an entry and stamps the time", func() {
			e := newEntry(nil)
			Expect(repo.Create(ctx, e)).To(Succeed())

			at := day(2025, time.July, 1)
			Expect(repo.DisableEntry(ctx, e.ID, at)).To(Succeed())

			got, err := repo.GetByID(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(entry.StatusDeactive))
			Expect(got.DisabledAt).NotTo(BeNil())
		})
	})

	Describe("rate refresh queries", func() {
		It("lists distinct currencies", func() {
			Expect(repo.Create(ctx, newEntry(nil))).To(Succeed())
			Expect(repo.Create(ctx, newEntry(func(e *entry.Entry) {
				e.CardNumber = "M001"
				e.Currency = "INR"
			}))).To(Succeed())
			Expect(repo.Create(ctx, newEntry(func(e *entry.Entry) {
				e.CardNumber = "M002"
				e.Particulars = "Figma"
			}))).To(Succeed())

			currencies, err := repo.DistinctCurrencies(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(currencies).To(ConsistOf("USD", "INR"))
		})

		It("recomputes the INR valuation for one currency", func() {
			e := newEntry(func(e *entry.Entry) {
				e.Amount = decimal.NewFromInt(100)
			})
			Expect(repo.Create(ctx, e)).To(Succeed())
			Expect(repo.Create(ctx, newEntry(func(e *entry.Entry) {
				e.CardNumber = "M001"
				e.Currency = "INR"
				e.AmountInINR = decimal.NewFromInt(200)
			}))).To(Succeed())

			updated, err := repo.BulkRecomputeINR(ctx, "USD", decimal.NewFromFloat(83.5))
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal(int64(1)))

			got, err := repo.GetByID(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AmountInINR.Equal(decimal.NewFromFloat(8350))).To(BeTrue())
		})
	})

	Describe("DeleteRejectedBefore", func() {
		It("purges only stale rejected entries", func() {
			stale := newEntry(func(e *entry.Entry) {
				e.EntryStatus = entry.EntryStatusRejected
			})
			Expect(repo.Create(ctx, stale)).To(Succeed())
			Expect(db.Model(&entry.Entry{}).Where("id = ?", stale.ID).
				Update("updated_at", day(2025, time.January, 1)).Error).To(Succeed())

			Expect(repo.Create(ctx, newEntry(func(e *entry.Entry) {
				e.CardNumber = "M001"
			}))).To(Succeed())

			purged, err := repo.DeleteRejectedBefore(ctx, day(2025, time.February, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(purged).To(Equal(int64(1)))

			_, err = repo.GetByID(ctx, stale.ID)
			Expect(err).To(MatchError(internal.ErrEntryNotFound))
		})
	})
})
