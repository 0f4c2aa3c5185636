package ingest

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wytlabs/cardops/internal/entry"
)

var (
	allocationSegmentRe = regexp.MustCompile(`^\s*(.+?)\s*[:=]\s*(.+?)\s*$`)
	nonNumericRe        = regexp.MustCompile(`[^0-9.\-]`)
)

type allocationItem struct {
	BusinessUnit string          `json:"business_unit"`
	Amount       decimal.Decimal `json:"amount"`
}

// ParseAllocations interprets the raw allocation cell of a row. Accepted
// shapes are a JSON-encoded list or free text like
// "Wytlabs:200, Collabx:150". When isShared is false the raw input is
// ignored entirely.
func ParseAllocations(isShared bool, raw string, total decimal.Decimal, primaryBusinessUnit string) ([]entry.SharedAllocation, bool, error) {
	if !isShared {
		return nil, false, nil
	}

	trimmed := strings.TrimSpace(raw)
	var parsed []entry.SharedAllocation
	if strings.HasPrefix(trimmed, "[") {
		parsed = parseJSONAllocations(trimmed)
	} else {
		parsed = parseFreeTextAllocations(trimmed)
	}

	return entry.ValidateAllocations(parsed, total, primaryBusinessUnit)
}

func parseJSONAllocations(raw string) []entry.SharedAllocation {
	var items []allocationItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}

	allocs := make([]entry.SharedAllocation, 0, len(items))
	for _, item := range items {
		allocs = append(allocs, entry.SharedAllocation{
			BusinessUnit: item.BusinessUnit,
			Amount:       item.Amount,
		})
	}
	return allocs
}

func parseFreeTextAllocations(raw string) []entry.SharedAllocation {
	segments := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})

	allocs := make([]entry.SharedAllocation, 0, len(segments))
	for _, segment := range segments {
		match := allocationSegmentRe.FindStringSubmatch(segment)
		if match == nil {
			continue
		}

		amountText := nonNumericRe.ReplaceAllString(match[2], "")
		amount, err := decimal.NewFromString(amountText)
		if err != nil {
			continue
		}

		allocs = append(allocs, entry.SharedAllocation{
			BusinessUnit: match[1],
			Amount:       amount,
		})
	}
	return allocs
}
