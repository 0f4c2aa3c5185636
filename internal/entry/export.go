package entry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{
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
	"Entry Status",
	"Duplicate Status",
	"Next Renewal Date",
	"Is Shared",
	"Shared Allocations",
}

// BuildExport renders entries as a spreadsheet in the export column order.
func BuildExport(entries []Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &exportColumns); err != nil {
		return nil, err
	}

	for i, e := range entries {
		row := exportRow(e)
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportRow(e Entry) []interface{} {
	duplicateStatus := ""
	if e.DuplicateStatus != nil {
		duplicateStatus = *e.DuplicateStatus
	}
	nextRenewal := ""
	if e.NextRenewalDate != nil {
		nextRenewal = e.NextRenewalDate.Format("02-Jan-2006")
	}
	isShared := "No"
	if e.IsShared {
		isShared = "Yes"
	}
	allocations := ""
	if len(e.SharedAllocations) > 0 {
		if encoded, err := json.Marshal(e.SharedAllocations); err == nil {
			allocations = string(encoded)
		}
	}

	return []interface{}{
		e.CardNumber,
		e.CardAssignedTo,
		e.Date.Format("02-Jan-2006"),
		e.Month,
		e.Status,
		e.Particulars,
		e.Narration,
		e.Currency,
		e.BillStatus,
		e.Amount.String(),
		e.XeRate.String(),
		e.AmountInINR.String(),
		e.TypeOfService,
		e.BusinessUnit,
		e.CostCenter,
		e.ApprovedBy,
		e.ServiceHandler,
		e.Recurring,
		e.EntryStatus,
		duplicateStatus,
		nextRenewal,
		isShared,
		allocations,
	}
}
