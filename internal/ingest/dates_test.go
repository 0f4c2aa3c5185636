package ingest_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/ingest"
)

var _ = Describe("ResolveDate", func() {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	It("passes native time values through", func() {
		want := day(2025, time.March, 10)
		got, err := ingest.ResolveDate(want)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
	})

	It("resolves the well-known epoch anchor serial", func() {
		// Serial 25569 is 1970-01-01 counted from 1899-12-30.
		got, err := ingest.ResolveDate(25569)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(day(1970, time.January, 1)))
	})

	It("resolves serials arriving as numeric strings", func() {
		got, err := ingest.ResolveDate("25569")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(day(1970, time.January, 1)))
	})

	It("round-trips through DateToSerial", func() {
		want := day(2025, time.January, 5)
		serial := ingest.DateToSerial(want)
		got, err := ingest.ResolveDate(serial)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
	})

	It("resolves machine-readable dates", func() {
		got, err := ingest.ResolveDate("2025-01-05")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(day(2025, time.January, 5)))
	})

	It("resolves month-name dates with two-digit years", func() {
		got, err := ingest.ResolveDate("05-Jan-25")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(day(2025, time.January, 5)))
	})

	It("treats the first part as the day when it cannot be a month", func() {
		got, err := ingest.ResolveDate("13/02/2025")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(day(2025, time.February, 13)))
	})

	It("treats the second part as the day when it cannot be a month", func() {
		got, err := ingest.ResolveDate("02/13/2025")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(day(2025, time.February, 13)))
	})

	It("defaults ambiguous dates to month-day-year", func() {
		got, err := ingest.ResolveDate("03/04/2025")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(day(2025, time.March, 4)))
	})

	It("expands two-digit years in numeric dates", func() {
		got, err := ingest.ResolveDate("13-02-25")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(day(2025, time.February, 13)))
	})

	It("rejects values that are not dates", func() {
		_, err := ingest.ResolveDate("renewal pending")
		Expect(err).To(HaveOccurred())
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidDate))
	})

	It("rejects impossible calendar dates", func() {
		_, err := ingest.ResolveDate("31/02/2025")
		Expect(err).To(HaveOccurred())
	})
})
