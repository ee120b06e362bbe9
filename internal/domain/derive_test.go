package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAgencyTraffic = "TRAFFIC"
	testAgencyPolice  = "POLICE DEPARTMENT"
)

func summonses(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.SummonsNumber
	}
	return out
}

func mixedResults() []Violation {
	return []Violation{
		{SummonsNumber: "1", Violation: "Speeding", IssueDate: "03/12/2021", AmountDue: 50, IssuingAgency: testAgencyTraffic},
		{SummonsNumber: "2", Violation: "Double Parking", IssueDate: "01/05/2023", AmountDue: 115, PaymentAmount: 115, IssuingAgency: testAgencyPolice},
		{SummonsNumber: "3", Violation: "Bus Lane", IssueDate: "", AmountDue: 50, PaymentAmount: 20, IssuingAgency: testAgencyTraffic},
		{SummonsNumber: "4", Violation: "Fire Hydrant", IssueDate: "07/30/2022", AmountDue: 0},
		{SummonsNumber: "5", Violation: "Double Parking", IssueDate: "not a date", AmountDue: 65, IssuingAgency: testAgencyPolice},
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name     string
		due      Amount
		paid     Amount
		expected PaymentStatus
	}{
		{"nothing due", 0, 0, StatusPaid},
		{"fully paid", 50, 50, StatusPaid},
		{"overpaid", 50, 60, StatusPaid},
		{"partial", 50, 20, StatusPartial},
		{"unpaid", 50, 0, StatusOutstanding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusOf(Violation{AmountDue: tt.due, PaymentAmount: tt.paid}))
		})
	}
}

func TestSortBy(t *testing.T) {
	tests := []struct {
		name     string
		key      SortKey
		expected []string
	}{
		{"date descending", SortDateDesc, []string{"2", "4", "1", "3", "5"}},
		{"date ascending", SortDateAsc, []string{"3", "5", "1", "4", "2"}},
		{"amount descending", SortAmountDesc, []string{"2", "5", "1", "3", "4"}},
		{"amount ascending", SortAmountAsc, []string{"4", "1", "3", "5", "2"}},
		{"violation", SortViolation, []string{"3", "2", "5", "4", "1"}},
		{"status", SortStatus, []string{"1", "5", "3", "2", "4"}},
		{"unknown key defaults to date descending", SortKey("bogus"), []string{"2", "4", "1", "3", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, summonses(SortBy(mixedResults(), tt.key)))
		})
	}
}

func TestSortBy_DoesNotMutateInput(t *testing.T) {
	in := mixedResults()
	before := summonses(in)

	_ = SortBy(in, SortAmountAsc)

	assert.Equal(t, before, summonses(in))
}

func TestSortBy_ViolationLexicographic(t *testing.T) {
	in := []Violation{{Violation: "Speeding"}, {Violation: "Double Parking"}}

	out := SortBy(in, SortViolation)

	assert.Equal(t, "Double Parking", out[0].Violation)
	assert.Equal(t, "Speeding", out[1].Violation)
}

func TestSortBy_DescThenAscIsStable(t *testing.T) {
	in := []Violation{
		{SummonsNumber: "a", AmountDue: 20},
		{SummonsNumber: "b", AmountDue: 10},
		{SummonsNumber: "c", AmountDue: 20},
		{SummonsNumber: "d", AmountDue: 10},
	}

	out := SortBy(SortBy(in, SortAmountDesc), SortAmountAsc)

	// Ties keep the relative order produced by the descending pass.
	assert.Equal(t, []string{"b", "d", "a", "c"}, summonses(out))
	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t, out[i-1].AmountDue.Float(), out[i].AmountDue.Float())
	}
}

func TestSortBy_Empty(t *testing.T) {
	assert.Empty(t, SortBy(nil, SortDateDesc))
	assert.NotNil(t, SortBy(nil, SortDateDesc))
}

func TestFilterBy(t *testing.T) {
	tests := []struct {
		name     string
		status   StatusFilter
		agency   string
		expected []string
	}{
		{"all", FilterAll, FilterAll, []string{"1", "2", "3", "4", "5"}},
		{"empty values mean all", "", "", []string{"1", "2", "3", "4", "5"}},
		{"outstanding", StatusFilter(StatusOutstanding), FilterAll, []string{"1", "5"}},
		{"paid", StatusFilter(StatusPaid), FilterAll, []string{"2", "4"}},
		{"partial", StatusFilter(StatusPartial), FilterAll, []string{"3"}},
		{"agency only", FilterAll, testAgencyTraffic, []string{"1", "3"}},
		{"status and agency", StatusFilter(StatusOutstanding), testAgencyPolice, []string{"5"}},
		{"no match", StatusFilter(StatusPartial), testAgencyPolice, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, summonses(FilterBy(mixedResults(), tt.status, tt.agency)))
		})
	}
}

func TestFilterBy_StatusesPartitionResults(t *testing.T) {
	in := mixedResults()

	outstanding := FilterBy(in, StatusFilter(StatusOutstanding), FilterAll)
	partial := FilterBy(in, StatusFilter(StatusPartial), FilterAll)
	paid := FilterBy(in, StatusFilter(StatusPaid), FilterAll)

	seen := make(map[string]int)
	for _, set := range [][]Violation{outstanding, partial, paid} {
		for _, v := range set {
			seen[v.SummonsNumber]++
		}
	}
	require.Len(t, seen, len(in))
	for id, n := range seen {
		assert.Equal(t, 1, n, "summons %s in more than one status", id)
	}
}

func TestFilterBy_PaidMatchesDefinition(t *testing.T) {
	for _, v := range FilterBy(mixedResults(), StatusFilter(StatusPaid), FilterAll) {
		assert.True(t, v.AmountDue == 0 || v.PaymentAmount >= v.AmountDue)
	}
}

func TestFilterBy_MembershipIndependentOfSort(t *testing.T) {
	in := mixedResults()

	direct := FilterBy(in, StatusFilter(StatusOutstanding), FilterAll)
	sortedFirst := FilterBy(SortBy(in, SortAmountDesc), StatusFilter(StatusOutstanding), FilterAll)

	assert.ElementsMatch(t, summonses(direct), summonses(sortedFirst))
}

func TestAggregate(t *testing.T) {
	got := Aggregate(mixedResults())

	want := Totals{Count: 5, TotalDue: 280, TotalPaid: 135}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Equal(t, Totals{}, Aggregate(nil))
}

func TestDistinctStates(t *testing.T) {
	in := []Violation{{State: "NY"}, {State: "NJ"}, {State: ""}, {State: "NY"}, {State: "CT"}}

	assert.Equal(t, []string{"CT", "NJ", "NY"}, DistinctStates(in))
	assert.Empty(t, DistinctStates(nil))
}

func TestDistinctAgencies(t *testing.T) {
	assert.Equal(t, []string{testAgencyPolice, testAgencyTraffic}, DistinctAgencies(mixedResults()))
}

func TestSelectState(t *testing.T) {
	in := []Violation{
		{SummonsNumber: "1", State: "NY"},
		{SummonsNumber: "2", State: "NJ"},
		{SummonsNumber: "3", State: ""},
		{SummonsNumber: "4", State: "NJ"},
	}

	assert.Equal(t, []string{"2", "4"}, summonses(SelectState(in, "NJ")))
}

func TestParseSortKeyAndStatusFilter(t *testing.T) {
	assert.Equal(t, SortAmountAsc, ParseSortKey("amount-asc"))
	assert.Equal(t, SortDateDesc, ParseSortKey(""))
	assert.Equal(t, StatusFilter(StatusPartial), ParseStatusFilter("partial"))
	assert.Equal(t, StatusFilter(FilterAll), ParseStatusFilter("nope"))
}

func TestNewSearchEvent(t *testing.T) {
	fixed := time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	ev := NewSearchEvent(QueryContext{Plate: "ABC1234", State: "NY"}, OutcomeResolved, mixedResults())

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "ABC1234", ev.Plate)
	assert.Equal(t, "NY", ev.State)
	assert.Equal(t, OutcomeResolved, ev.Outcome)
	assert.Equal(t, 5, ev.Count)
	assert.Equal(t, 280.0, ev.TotalDue)
	assert.Equal(t, 135.0, ev.TotalPaid)
	assert.Equal(t, fixed, ev.OccurredAt)
}
