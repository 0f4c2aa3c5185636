package entry

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wytlabs/cardops/internal/catalog"
)

// ErrAllocationExceedsTotal rejects a record whose cost-sharing split adds
// up to more than the record's own amount. The whole record is refused, no
// partial acceptance.
var ErrAllocationExceedsTotal = errors.New("allocated total exceeds entry amount")

// ValidateAllocations canonicalizes and validates a cost-sharing split.
// Items with an unresolvable business unit or a negative amount are
// dropped. The primary business unit is always represented, with amount 0
// if the input did not mention it. The returned flag is the effective
// isShared value: true only when a positive allocation survived.
func ValidateAllocations(allocs []SharedAllocation, total decimal.Decimal, primaryBusinessUnit string) ([]SharedAllocation, bool, error) {
	kept := make([]SharedAllocation, 0, len(allocs))
	shared := false

	for _, a := range allocs {
		bu, ok := catalog.BusinessUnit.Resolve(a.BusinessUnit)
		if !ok {
			continue
		}
		if a.Amount.IsNegative() {
			continue
		}
		if a.Amount.IsPositive() {
			shared = true
		}
		kept = append(kept, SharedAllocation{BusinessUnit: bu, Amount: a.Amount})
	}

	if len(kept) == 0 {
		return nil, false, nil
	}

	hasPrimary := false
	for _, a := range kept {
		if strings.EqualFold(a.BusinessUnit, primaryBusinessUnit) {
			hasPrimary = true
			break
		}
	}
	if !hasPrimary {
		kept = append(kept, SharedAllocation{BusinessUnit: primaryBusinessUnit, Amount: decimal.Zero})
	}

	allocated := decimal.Zero
	for _, a := range kept {
		allocated = allocated.Add(a.Amount)
	}
	if allocated.GreaterThan(total) {
		return nil, false, ErrAllocationExceedsTotal
	}

	return kept, shared, nil
}
