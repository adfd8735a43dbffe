package service

import (
	"strings"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"
)

// ComputePending returns, for each legacy item code, how many units the
// department still owes a student who has already received issued. Values are
// never negative; a nil department owes nothing.
func ComputePending(dept *model.Department, issued map[string]int) map[string]int {
	out := make(map[string]int, len(model.LegacyItems))
	for _, li := range model.LegacyItems {
		required := 0
		if dept != nil {
			required = dept.Required(li.Code)
		}
		if p := required - issued[li.Code]; p > 0 {
			out[li.Code] = p
		} else {
			out[li.Code] = 0
		}
	}
	return out
}

// issuedTotals sums issue records per upper-cased item code.
func issuedTotals(records []model.IssueRecord) map[string]int {
	out := make(map[string]int)
	for _, r := range records {
		out[strings.ToUpper(strings.TrimSpace(r.ItemCode))] += r.QtyIssued
	}
	return out
}
