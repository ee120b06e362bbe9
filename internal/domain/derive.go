package domain

import (
	"cmp"
	"slices"
	"strings"
)

// SortKey names one of the supported orderings of a result set.
type SortKey string

const (
	SortDateDesc   SortKey = "date-desc"
	SortDateAsc    SortKey = "date-asc"
	SortAmountDesc SortKey = "amount-desc"
	SortAmountAsc  SortKey = "amount-asc"
	SortViolation  SortKey = "violation"
	SortStatus     SortKey = "status"
)

// SortKeys lists every sort key in display order.
var SortKeys = []SortKey{SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc, SortViolation, SortStatus}

// ParseSortKey maps a user-supplied value to a SortKey, falling back to
// SortDateDesc for empty or unknown input.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.TrimSpace(s))
	if slices.Contains(SortKeys, k) {
		return k
	}
	return SortDateDesc
}

// Label returns the display label for the sort key.
func (k SortKey) Label() string {
	switch k {
	case SortDateDesc:
		return "Issue Date (newest first)"
	case SortDateAsc:
		return "Issue Date (oldest first)"
	case SortAmountDesc:
		return "Amount Due (highest first)"
	case SortAmountAsc:
		return "Amount Due (lowest first)"
	case SortViolation:
		return "Violation Type"
	case SortStatus:
		return "Payment Status"
	default:
		return string(k)
	}
}

// StatusFilter restricts a result set by payment status. FilterAll disables
// the restriction.
type StatusFilter string

// FilterAll matches every record; it applies to both status and agency filters.
const FilterAll = "all"

// StatusFilters lists the status filter values in display order.
var StatusFilters = []StatusFilter{FilterAll, StatusFilter(StatusOutstanding), StatusFilter(StatusPaid), StatusFilter(StatusPartial)}

// ParseStatusFilter maps a user-supplied value to a StatusFilter, falling back
// to FilterAll for empty or unknown input.
func ParseStatusFilter(s string) StatusFilter {
	f := StatusFilter(strings.TrimSpace(s))
	if slices.Contains(StatusFilters, f) {
		return f
	}
	return FilterAll
}

// SortBy returns a stably sorted copy of results. The input slice is not
// modified.
func SortBy(results []Violation, key SortKey) []Violation {
	out := slices.Clone(results)
	if out == nil {
		out = []Violation{}
	}

	switch ParseSortKey(string(key)) {
	case SortDateAsc:
		slices.SortStableFunc(out, func(a, b Violation) int {
			return compareIssueDate(a, b)
		})
	case SortAmountDesc:
		slices.SortStableFunc(out, func(a, b Violation) int {
			return cmp.Compare(b.AmountDue.Float(), a.AmountDue.Float())
		})
	case SortAmountAsc:
		slices.SortStableFunc(out, func(a, b Violation) int {
			return cmp.Compare(a.AmountDue.Float(), b.AmountDue.Float())
		})
	case SortViolation:
		slices.SortStableFunc(out, func(a, b Violation) int {
			return strings.Compare(a.Violation, b.Violation)
		})
	case SortStatus:
		slices.SortStableFunc(out, func(a, b Violation) int {
			return cmp.Compare(StatusOf(a).severity(), StatusOf(b).severity())
		})
	default:
		slices.SortStableFunc(out, func(a, b Violation) int {
			return compareIssueDate(b, a)
		})
	}
	return out
}

func compareIssueDate(a, b Violation) int {
	ta, _ := ParseIssueDate(a.IssueDate)
	tb, _ := ParseIssueDate(b.IssueDate)
	return ta.Compare(tb)
}

// FilterBy returns the records matching both the status and the agency filter.
// An agency of FilterAll or "" matches every record.
func FilterBy(results []Violation, status StatusFilter, agency string) []Violation {
	status = ParseStatusFilter(string(status))
	agency = strings.TrimSpace(agency)

	out := make([]Violation, 0, len(results))
	for _, v := range results {
		if status != FilterAll && StatusOf(v) != PaymentStatus(status) {
			continue
		}
		if agency != "" && agency != FilterAll && v.IssuingAgency != agency {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Totals summarises a result set.
type Totals struct {
	Count     int
	TotalDue  float64
	TotalPaid float64
}

// Aggregate counts the records and sums the amounts due and paid.
func Aggregate(results []Violation) Totals {
	t := Totals{Count: len(results)}
	for _, v := range results {
		t.TotalDue += v.AmountDue.Float()
		t.TotalPaid += v.PaymentAmount.Float()
	}
	return t
}

// DistinctStates returns the sorted set of non-empty issuing states.
func DistinctStates(results []Violation) []string {
	return distinct(results, func(v Violation) string { return v.State })
}

// DistinctAgencies returns the sorted set of non-empty issuing agencies.
func DistinctAgencies(results []Violation) []string {
	return distinct(results, func(v Violation) string { return v.IssuingAgency })
}

func distinct(results []Violation, field func(Violation) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, v := range results {
		f := field(v)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// SelectState returns the records issued in the given state, in their
// original order.
func SelectState(results []Violation, state string) []Violation {
	out := make([]Violation, 0, len(results))
	for _, v := range results {
		if v.State == state {
			out = append(out, v)
		}
	}
	return out
}
