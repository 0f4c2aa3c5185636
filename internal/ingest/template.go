package ingest

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

// templateColumns is the canonical header order for the import template.
var templateColumns = []string{
	"Card Number",
	"Card Assigned To",
	"Date",
	"Month",
	"Status",
	"Particulars",
	"Narration",
	"Currency",
	"Bill Status",
	"Amount",
	"Xe Rate",
	"Amount in INR",
	"Type of Service",
	"Business Unit",
	"Cost Center",
	"Approved By",
	"Service Handler",
	"Recurring",
	"Is Shared",
	"Shared Allocations",
}

var templateExampleRow = []string{
	"M003",
	"Priya Nair",
	"05-Jan-25",
	"Jan-2025",
	"Active",
	"ChatGPT",
	"Team subscription",
	"USD",
	"Billed",
	"200",
	"83.5",
	"16700",
	"Tool",
	"Wytlabs",
	"Engineering",
	"CEO",
	"Priya Nair",
	"Yearly",
	"Yes",
	"Wytlabs:150, Collabx:50",
}

// BuildTemplate renders the import template spreadsheet.
func BuildTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &templateColumns); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A2", &templateExampleRow); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
