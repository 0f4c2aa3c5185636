package ingest

import "strings"

// Header alias lists for every canonical field, in priority order. These
// cover the header spellings seen across historical card-statement exports.
var (
	aliasCardNumber     = []string{"card number", "card no", "card no.", "card"}
	aliasCardAssignedTo = []string{"card assigned to", "assigned to", "card holder", "cardholder", "employee"}
	aliasDate           = []string{"date", "transaction date", "txn date", "purchase date"}
	aliasMonth          = []string{"month", "statement month"}
	aliasStatus         = []string{"status", "card status", "service status"}
	aliasParticulars    = []string{"particulars", "description", "merchant", "vendor", "service name"}
	aliasNarration      = []string{"narration", "notes", "remarks", "comment"}
	aliasCurrency       = []string{"currency", "ccy", "cur"}
	aliasBillStatus     = []string{"bill status", "billed", "billing status"}
	aliasAmount         = []string{"amount", "amount ($)", "value", "cost", "charge"}
	aliasXeRate         = []string{"xe rate", "exchange rate", "fx rate", "rate"}
	aliasAmountInINR    = []string{"amount in inr", "inr amount", "amount (inr)", "inr"}
	aliasTypeOfService  = []string{"type of service", "service type", "type"}
	aliasBusinessUnit   = []string{"business unit", "bu", "unit", "company"}
	aliasCostCenter     = []string{"cost center", "cost centre", "department", "dept"}
	aliasApprovedBy     = []string{"approved by", "approver", "approval"}
	aliasServiceHandler = []string{"service handler", "handler", "owner", "responsible"}
	aliasRecurring      = []string{"recurring", "frequency", "billing cycle", "cadence"}
	aliasIsShared       = []string{"is shared", "shared", "cost shared"}
	aliasAllocations    = []string{"shared allocations", "allocations", "shared with", "split", "cost split"}
)

// FieldResolver reads canonical fields out of one row. All headers are
// normalized (trim + lowercase) into a lookup map once so alias probing
// costs nothing per field.
type FieldResolver struct {
	row    Row
	byNorm map[string]string
}

func NewFieldResolver(row Row) *FieldResolver {
	byNorm := make(map[string]string, len(row.Headers))
	for _, header := range row.Headers {
		norm := strings.ToLower(strings.TrimSpace(header))
		if norm == "" {
			continue
		}
		if _, exists := byNorm[norm]; !exists {
			byNorm[norm] = header
		}
	}
	return &FieldResolver{row: row, byNorm: byNorm}
}

// Resolve returns the raw cell under the first matching alias, trying
// aliases in the caller's declared priority order.
func (r *FieldResolver) Resolve(aliases ...string) (string, bool) {
	for _, alias := range aliases {
		if header, ok := r.byNorm[strings.ToLower(strings.TrimSpace(alias))]; ok {
			return r.row.Cells[header], true
		}
	}
	return "", false
}

// ResolveString is Resolve with whitespace trimmed; a present-but-blank
// cell reports absent.
func (r *FieldResolver) ResolveString(aliases ...string) (string, bool) {
	raw, ok := r.Resolve(aliases...)
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(raw)
	return trimmed, trimmed != ""
}
