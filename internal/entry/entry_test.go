package entry_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/wytlabs/cardops/internal/entry"
)

var _ = Describe("Entry domain", func() {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	Describe("NextRenewalFrom", func() {
		It("adds one month for monthly purchases", func() {
			next := entry.NextRenewalFrom(entry.RecurringMonthly, day(2025, time.January, 31))
			Expect(next).NotTo(BeNil())
			// Calendar arithmetic: Jan 31 + 1 month normalizes to Mar 3.
			Expect(*next).To(Equal(day(2025, time.January, 31).AddDate(0, 1, 0)))
		})

		It("adds one year for yearly purchases", func() {
			next := entry.NextRenewalFrom(entry.RecurringYearly, day(2025, time.January, 5))
			Expect(next).NotTo(BeNil())
			Expect(*next).To(Equal(day(2026, time.January, 5)))
		})

		It("returns nil for one-time purchases", func() {
			Expect(entry.NextRenewalFrom(entry.RecurringOneTime, day(2025, time.January, 5))).To(BeNil())
		})
	})

	Describe("AdvanceRenewal", func() {
		It("moves the date one cadence forward and reopens the cycle", func() {
			renewal := day(2025, time.June, 1)
			e := &entry.Entry{
				Recurring:               entry.RecurringMonthly,
				NextRenewalDate:         &renewal,
				RenewalNotificationSent: true,
			}

			e.AdvanceRenewal()

			Expect(*e.NextRenewalDate).To(Equal(day(2025, time.July, 1)))
			Expect(e.RenewalNotificationSent).To(BeFalse())
		})

		It("does nothing without a renewal date", func() {
			e := &entry.Entry{Recurring: entry.RecurringMonthly}
			e.AdvanceRenewal()
			Expect(e.NextRenewalDate).To(BeNil())
		})
	})

	Describe("MarkMerged", func() {
		It("is a one-way, idempotent transition", func() {
			e := &entry.Entry{}
			Expect(e.MarkMerged()).To(BeTrue())
			Expect(*e.DuplicateStatus).To(Equal(entry.DuplicateMerged))
			Expect(e.MarkMerged()).To(BeFalse())
			Expect(*e.DuplicateStatus).To(Equal(entry.DuplicateMerged))
		})
	})

	Describe("RecomputeINR", func() {
		It("refreshes both the rate and the valuation", func() {
			e := &entry.Entry{Amount: decimal.NewFromInt(100)}
			e.RecomputeINR(decimal.NewFromFloat(83.5))
			Expect(e.AmountInINR.Equal(decimal.NewFromFloat(8350))).To(BeTrue())
		})
	})

	Describe("ValidateAllocations", func() {
		total := decimal.NewFromInt(400)

		It("keeps the invariant that allocations never exceed the amount", func() {
			allocs := []entry.SharedAllocation{
				{BusinessUnit: "Wytlabs", Amount: decimal.NewFromInt(300)},
				{BusinessUnit: "Collabx", Amount: decimal.NewFromInt(200)},
			}
			_, _, err := entry.ValidateAllocations(allocs, total, "Wytlabs")
			Expect(err).To(MatchError(entry.ErrAllocationExceedsTotal))
		})

		It("drops negative and unresolvable items", func() {
			allocs := []entry.SharedAllocation{
				{BusinessUnit: "Wytlabs", Amount: decimal.NewFromInt(-10)},
				{BusinessUnit: "Atlantis", Amount: decimal.NewFromInt(50)},
				{BusinessUnit: "Collabx", Amount: decimal.NewFromInt(100)},
			}
			kept, shared, err := entry.ValidateAllocations(allocs, total, "Wytlabs")
			Expect(err).NotTo(HaveOccurred())
			Expect(shared).To(BeTrue())
			Expect(kept).To(HaveLen(2))
			Expect(kept[0].BusinessUnit).To(Equal("Collabx"))
			Expect(kept[1].BusinessUnit).To(Equal("Wytlabs"))
		})

		It("reports not shared when only zero allocations remain", func() {
			allocs := []entry.SharedAllocation{
				{BusinessUnit: "Wytlabs", Amount: decimal.Zero},
			}
			kept, shared, err := entry.ValidateAllocations(allocs, total, "Wytlabs")
			Expect(err).NotTo(HaveOccurred())
			Expect(shared).To(BeFalse())
			Expect(kept).To(HaveLen(1))
		})
	})
})
