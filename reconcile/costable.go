package reconcile

import "sort"

// costableStatuses is the closed set of job statuses eligible for revenue
// attribution.
var costableStatuses = map[string]struct{}{
	"Draft Provided":              {},
	"Ready for Signatures":        {},
	"Sign & Send":                 {},
	"Submitted with Municipality": {},
	"Jeff Approved":               {},
	"AR (Accounts Receivable)":    {},
	"Final Invoice Sent":          {},
	"Collections":                 {},
	"Uncollectable":               {},
}

// IsCostable reports whether status is in the costable set. Matching is exact.
func IsCostable(status string) bool {
	_, ok := costableStatuses[status]
	return ok
}

// CostableStatuses returns the costable set in sorted order.
func CostableStatuses() []string {
	out := make([]string, 0, len(costableStatuses))
	for status := range costableStatuses {
		out = append(out, status)
	}
	sort.Strings(out)
	return out
}
