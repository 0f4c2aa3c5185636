// Package catalog holds the curated enum tables used to canonicalize
// free-text spreadsheet values. The alias tables are fixed configuration
// data, not user-editable.
package catalog

import "strings"

type Table struct {
	Name    string
	Members []string
	Aliases map[string]string
}

// Resolve maps a raw value to a canonical member. The alias table is
// consulted first, then a case-insensitive exact match against the member
// set. Returns false when the value cannot be canonicalized.
func (t Table) Resolve(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	if canonical, ok := t.Aliases[key]; ok {
		return canonical, true
	}
	for _, member := range t.Members {
		if strings.EqualFold(member, key) {
			return member, true
		}
	}
	return "", false
}

// Canonical card/service statuses.
const (
	StatusActive   = "Active"
	StatusDeactive = "Deactive"
	StatusDeclined = "Declined"
)

// Canonical recurring cadences.
const (
	RecurringOneTime = "One-time"
	RecurringMonthly = "Monthly"
	RecurringYearly  = "Yearly"
)

var TypeOfService = Table{
	Name:    "type_of_service",
	Members: []string{"Service", "Tool", "Subscription", "Infrastructure", "Marketing", "Domain"},
	Aliases: map[string]string{
		"tool & service":  "Service",
		"tools & service": "Service",
		"services":        "Service",
		"tools":           "Tool",
		"software":        "Tool",
		"saas":            "Subscription",
		"subscriptions":   "Subscription",
		"infra":           "Infrastructure",
		"hosting":         "Infrastructure",
		"server":          "Infrastructure",
		"ads":             "Marketing",
		"advertising":     "Marketing",
		"domains":         "Domain",
		"domain renewal":  "Domain",
	},
}

var BusinessUnit = Table{
	Name:    "business_unit",
	Members: []string{"Wytlabs", "Collabx", "DWSG", "Seota", "Infigrowth"},
	Aliases: map[string]string{
		"wyt labs":    "Wytlabs",
		"wytlabs llc": "Wytlabs",
		"collab x":    "Collabx",
		"collabx inc": "Collabx",
		"dws g":       "DWSG",
		"dws group":   "DWSG",
		"seo ta":      "Seota",
		"infi growth": "Infigrowth",
	},
}

var CostCenter = Table{
	Name:    "cost_center",
	Members: []string{"Marketing", "Engineering", "Operations", "Sales", "HR", "Finance"},
	Aliases: map[string]string{
		"ops":             "Operations",
		"operation":       "Operations",
		"tech":            "Engineering",
		"dev":             "Engineering",
		"development":     "Engineering",
		"people":          "HR",
		"human resources": "HR",
		"accounts":        "Finance",
		"accounting":      "Finance",
		"mktg":            "Marketing",
	},
}

var ApprovedBy = Table{
	Name:    "approved_by",
	Members: []string{"MD", "CEO", "CFO", "COO"},
	Aliases: map[string]string{
		"managing director":       "MD",
		"chief executive officer": "CEO",
		"chief financial officer": "CFO",
		"chief operating officer": "COO",
		"director":                "MD",
	},
}

var Status = Table{
	Name:    "status",
	Members: []string{StatusActive, StatusDeactive, StatusDeclined},
	Aliases: map[string]string{
		"live":        StatusActive,
		"enabled":     StatusActive,
		"inactive":    StatusDeactive,
		"disabled":    StatusDeactive,
		"deactivated": StatusDeactive,
		"decline":     StatusDeclined,
		"rejected":    StatusDeclined,
	},
}

var Recurring = Table{
	Name:    "recurring",
	Members: []string{RecurringOneTime, RecurringMonthly, RecurringYearly},
	Aliases: map[string]string{
		"one time":          RecurringOneTime,
		"onetime":           RecurringOneTime,
		"once":              RecurringOneTime,
		"no":                RecurringOneTime,
		"month":             RecurringMonthly,
		"recurring monthly": RecurringMonthly,
		"per month":         RecurringMonthly,
		"year":              RecurringYearly,
		"annual":            RecurringYearly,
		"annually":          RecurringYearly,
		"per year":          RecurringYearly,
	},
}

// All lists every table, in the order the import template documents them.
func All() []Table {
	return []Table{TypeOfService, BusinessUnit, CostCenter, ApprovedBy, Status, Recurring}
}
