package ingest_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/ingest"
)

var _ = Describe("KindFromFilename", func() {
	It("maps delimited extensions", func() {
		Expect(ingest.KindFromFilename("statement.csv")).To(Equal(ingest.KindDelimited))
		Expect(ingest.KindFromFilename("statement.TSV")).To(Equal(ingest.KindDelimited))
		Expect(ingest.KindFromFilename("statement.txt")).To(Equal(ingest.KindDelimited))
	})

	It("treats everything else as a spreadsheet", func() {
		Expect(ingest.KindFromFilename("statement.xlsx")).To(Equal(ingest.KindSpreadsheet))
		Expect(ingest.KindFromFilename("statement")).To(Equal(ingest.KindSpreadsheet))
	})
})

var _ = Describe("ExtractRows", func() {
	Context("delimited files", func() {
		It("pairs cells with headers and keeps row order", func() {
			content := []byte("Card Number,Particulars,Amount\nM001,ChatGPT,200\nM002,Figma,150\n")
			rows, err := ingest.ExtractRows(content, ingest.KindDelimited)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].Cells["Particulars"]).To(Equal("ChatGPT"))
			Expect(rows[1].Cells["Card Number"]).To(Equal("M002"))
		})

		It("drops rows whose cells are all blank", func() {
			content := []byte("Card Number,Particulars\nM001,ChatGPT\n,,\n , \nM002,Figma\n")
			rows, err := ingest.ExtractRows(content, ingest.KindDelimited)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
		})

		It("pads short records with empty cells", func() {
			content := []byte("Card Number,Particulars,Amount\nM001,ChatGPT\n")
			rows, err := ingest.ExtractRows(content, ingest.KindDelimited)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows[0].Cells["Amount"]).To(Equal(""))
		})

		It("returns no rows for a file with only a header", func() {
			rows, err := ingest.ExtractRows([]byte("Card Number,Particulars\n"), ingest.KindDelimited)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})

		It("returns no rows for an empty file", func() {
			rows, err := ingest.ExtractRows(nil, ingest.KindDelimited)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})
	})

	Context("spreadsheet files", func() {
		buildSheet := func(records [][]interface{}) []byte {
			f := excelize.NewFile()
			defer f.Close()
			sheet := f.GetSheetName(0)
			for i, record := range records {
				cell, err := excelize.CoordinatesToCellName(1, i+1)
				Expect(err).NotTo(HaveOccurred())
				Expect(f.SetSheetRow(sheet, cell, &record)).To(Succeed())
			}
			var buf bytes.Buffer
			Expect(f.Write(&buf)).To(Succeed())
			return buf.Bytes()
		}

		It("reads the first sheet", func() {
			content := buildSheet([][]interface{}{
				{"Card Number", "Particulars"},
				{"M001", "ChatGPT"},
			})
			rows, err := ingest.ExtractRows(content, ingest.KindSpreadsheet)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Cells["Particulars"]).To(Equal("ChatGPT"))
		})

		It("rejects content that is not a spreadsheet", func() {
			_, err := ingest.ExtractRows([]byte("definitely not a zip archive"), ingest.KindSpreadsheet)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUnsupportedFormat))
		})
	})
})

var _ = Describe("FieldResolver", func() {
	It("matches headers case-insensitively with surrounding whitespace", func() {
		row := ingest.Row{
			Headers: []string{" Card Number ", "PARTICULARS"},
			Cells:   map[string]string{" Card Number ": "M001", "PARTICULARS": "ChatGPT"},
		}
		r := ingest.NewFieldResolver(row)

		value, ok := r.ResolveString("card number")
		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("M001"))
	})

	It("tries aliases in priority order", func() {
		row := ingest.Row{
			Headers: []string{"Description", "Merchant"},
			Cells:   map[string]string{"Description": "ChatGPT", "Merchant": "OpenAI"},
		}
		r := ingest.NewFieldResolver(row)

		value, ok := r.ResolveString("particulars", "description", "merchant")
		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("ChatGPT"))
	})

	It("reports blank cells as absent", func() {
		row := ingest.Row{
			Headers: []string{"Narration"},
			Cells:   map[string]string{"Narration": "   "},
		}
		r := ingest.NewFieldResolver(row)

		_, ok := r.ResolveString("narration")
		Expect(ok).To(BeFalse())
	})
})
