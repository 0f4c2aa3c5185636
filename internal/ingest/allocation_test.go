package ingest_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/wytlabs/cardops/internal/entry"
	"github.com/wytlabs/cardops/internal/ingest"
)

var _ = Describe("ParseAllocations", func() {
	total := decimal.NewFromInt(400)

	It("ignores the raw input when the row is not shared", func() {
		allocs, shared, err := ingest.ParseAllocations(false, "Wytlabs:200", total, "Wytlabs")
		Expect(err).NotTo(HaveOccurred())
		Expect(shared).To(BeFalse())
		Expect(allocs).To(BeNil())
	})

	It("parses free-text splits and canonicalizes the units", func() {
		allocs, shared, err := ingest.ParseAllocations(true, "wyt labs:200, collab x:150", total, "Wytlabs")
		Expect(err).NotTo(HaveOccurred())
		Expect(shared).To(BeTrue())
		Expect(allocs).To(HaveLen(2))
		Expect(allocs[0].BusinessUnit).To(Equal("Wytlabs"))
		Expect(allocs[0].Amount).To(Equal(decimal.NewFromInt(200)))
		Expect(allocs[1].BusinessUnit).To(Equal("Collabx"))
	})

	It("parses JSON-encoded splits", func() {
		raw := `[{"business_unit":"Wytlabs","amount":250},{"business_unit":"Seota","amount":100}]`
		allocs, shared, err := ingest.ParseAllocations(true, raw, total, "Wytlabs")
		Expect(err).NotTo(HaveOccurred())
		Expect(shared).To(BeTrue())
		Expect(allocs).To(HaveLen(2))
	})

	It("appends the primary unit with a zero amount when missing", func() {
		allocs, _, err := ingest.ParseAllocations(true, "Collabx:100", total, "Wytlabs")
		Expect(err).NotTo(HaveOccurred())
		Expect(allocs).To(HaveLen(2))
		Expect(allocs[1].BusinessUnit).To(Equal("Wytlabs"))
		Expect(allocs[1].Amount.IsZero()).To(BeTrue())
	})

	It("rejects splits that exceed the entry amount", func() {
		_, _, err := ingest.ParseAllocations(true, "Wytlabs:350", decimal.NewFromInt(300), "Wytlabs")
		Expect(err).To(MatchError(entry.ErrAllocationExceedsTotal))
	})

	It("drops items with unresolvable units or malformed amounts", func() {
		allocs, shared, err := ingest.ParseAllocations(true, "Narnia:100, Collabx:abc, Wytlabs:50", total, "Wytlabs")
		Expect(err).NotTo(HaveOccurred())
		Expect(shared).To(BeTrue())
		Expect(allocs).To(HaveLen(1))
		Expect(allocs[0].BusinessUnit).To(Equal("Wytlabs"))
	})

	It("strips currency noise from amounts", func() {
		allocs, _, err := ingest.ParseAllocations(true, "Wytlabs: $120.50", total, "Wytlabs")
		Expect(err).NotTo(HaveOccurred())
		Expect(allocs[0].Amount.Equal(decimal.NewFromFloat(120.5))).To(BeTrue())
	})
})
