package view

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/parking-violations-lookup/internal/domain"
)

const (
	testPlate  = "ABC1234"
	zeroTotals = "Total Violations: 0"
	zeroDue    = "Total Amount Due: $0.00"
	zeroPaid   = "Total Payment Amount: $0.00"
)

func sampleResults() []domain.Violation {
	return []domain.Violation{
		{
			SummonsNumber: "1477633194", Plate: testPlate, State: "NY", LicenseType: "PAS",
			Violation: "NO PARKING-STREET CLEANING", ViolationCode: "21", IssueDate: "03/12/2021", ViolationTime: "0830A",
			AmountDue: 65, FineAmount: 65, IssuingAgency: "TRAFFIC",
			HouseNumber: "120", StreetName: "W 72nd St", ViolationCounty: "NY", ViolationPrecinct: "20",
			VehicleMake: "TOYOT", VehicleColor: "GY", VehicleYear: "2016",
		},
		{
			Plate: testPlate, State: "NY", Violation: "PHTO SCHOOL ZN SPEED VIOLATION",
			AmountDue: 50, PaymentAmount: 50, IssuingAgency: "DEPARTMENT OF TRANSPORTATION",
		},
	}
}

func TestBuild_Empty(t *testing.T) {
	v := Build(Input{Phase: domain.PhaseEmpty, Context: domain.QueryContext{Plate: testPlate}})

	assert.Equal(t, MsgEmpty, v.Message)
	assert.Empty(t, v.Cards)
	assert.Nil(t, v.Controls)
	assert.Equal(t, Totals{Header: "Totals", Violations: zeroTotals, AmountDue: zeroDue, PaymentAmount: zeroPaid}, v.Totals)
}

func TestBuild_Error(t *testing.T) {
	v := Build(Input{Phase: domain.PhaseError, Context: domain.QueryContext{Plate: testPlate}})

	assert.Equal(t, MsgError, v.Message)
	assert.Empty(t, v.Cards)
	assert.Nil(t, v.Controls)
	assert.Equal(t, zeroTotals, v.Totals.Violations)
	assert.Equal(t, zeroDue, v.Totals.AmountDue)
}

func TestBuild_Idle(t *testing.T) {
	v := Build(Input{})

	assert.Equal(t, MsgIdle, v.Message)
	assert.Nil(t, v.Controls)
	assert.Equal(t, "Totals", v.Totals.Header)
}

func TestBuild_Disambiguating(t *testing.T) {
	v := Build(Input{
		Phase:   domain.PhaseDisambiguating,
		Context: domain.QueryContext{Plate: testPlate},
		All:     sampleResults(),
		States:  []string{"NJ", "NY"},
	})

	assert.Equal(t, MsgDisambiguate, v.Message)
	assert.Equal(t, []string{"NJ", "NY"}, v.States)
	assert.Empty(t, v.Cards, "violations are not rendered before a state is chosen")
	assert.Nil(t, v.Controls)
	assert.Equal(t, "Totals for plate: "+testPlate, v.Totals.Header)
	assert.Equal(t, zeroTotals, v.Totals.Violations)
}

func TestBuild_Resolved(t *testing.T) {
	results := sampleResults()
	v := Build(Input{
		Phase:     domain.PhaseResolved,
		Context:   domain.QueryContext{Plate: testPlate, State: "NY"},
		All:       results,
		Displayed: results,
		Options:   DefaultOptions(),
	})

	assert.Empty(t, v.Message)
	require.Len(t, v.Cards, 2)
	assert.Equal(t, Totals{
		Header:        "Totals for plate: ABC1234, NY",
		Violations:    "Total Violations: 2",
		AmountDue:     "Total Amount Due: $115.00",
		PaymentAmount: "Total Payment Amount: $50.00",
	}, v.Totals)

	want := Card{
		SummonsNumber: "1477633194", Plate: testPlate, State: "NY", LicenseType: "PAS",
		Violation: "NO PARKING-STREET CLEANING", ViolationCode: "21", IssueDate: "03/12/2021", ViolationTime: "0830A",
		Status: "Outstanding", StatusClass: "outstanding",
		AmountDue: "65.00", AmountPaid: "0.00", FineAmount: "65.00", PenaltyAmount: "0.00", InterestAmount: "0.00", ReductionAmount: "0.00",
		Vehicle: "2016 GY TOYOT", VehicleExpiration: Placeholder,
		Location: "120 W 72nd St", County: "NY", Precinct: "20", FrontOrOpposite: Placeholder,
		Agency: "TRAFFIC", Issuer: Placeholder, Command: Placeholder, Squad: Placeholder,
	}
	if diff := cmp.Diff(want, v.Cards[0]); diff != "" {
		t.Errorf("card mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, Placeholder, v.Cards[1].SummonsNumber)
	assert.Equal(t, Placeholder, v.Cards[1].IssueDate)
	assert.Equal(t, "Paid", v.Cards[1].Status)
}

func TestBuild_OutstandingWithoutPayment(t *testing.T) {
	r := []domain.Violation{{AmountDue: 50}}
	v := Build(Input{Phase: domain.PhaseResolved, All: r, Displayed: r})

	require.Len(t, v.Cards, 1)
	assert.Equal(t, "Outstanding", v.Cards[0].Status)
	assert.Equal(t, "0.00", v.Cards[0].AmountPaid)
	assert.Equal(t, "50.00", v.Cards[0].AmountDue)
}

func TestBuild_ControlsUseFullSetForAgencies(t *testing.T) {
	all := sampleResults()
	displayed := all[:1]
	v := Build(Input{
		Phase:     domain.PhaseResolved,
		All:       all,
		Displayed: displayed,
		Options:   Options{Sort: domain.SortAmountAsc, Status: domain.StatusFilter(domain.StatusOutstanding), Agency: "TRAFFIC"},
	})

	require.NotNil(t, v.Controls)
	require.Len(t, v.Controls.Sort, 6)
	assert.Equal(t, []Option{
		{Value: domain.FilterAll, Label: "All"},
		{Value: "DEPARTMENT OF TRANSPORTATION", Label: "DEPARTMENT OF TRANSPORTATION"},
		{Value: "TRAFFIC", Label: "TRAFFIC", Selected: true},
	}, v.Controls.Agency)
	assert.Equal(t, []Option{
		{Value: "all", Label: "All"},
		{Value: "outstanding", Label: "Outstanding", Selected: true},
		{Value: "paid", Label: "Paid"},
		{Value: "partial", Label: "Partially Paid"},
	}, v.Controls.Status)

	for _, o := range v.Controls.Sort {
		assert.Equal(t, o.Value == string(domain.SortAmountAsc), o.Selected, o.Value)
	}
	assert.Equal(t, "Total Violations: 1", v.Totals.Violations)
}

func TestBuild_FilteredToNothing(t *testing.T) {
	v := Build(Input{Phase: domain.PhaseResolved, All: sampleResults(), Displayed: []domain.Violation{}})

	assert.Equal(t, MsgNoFilteredRows, v.Message)
	assert.NotNil(t, v.Controls, "controls stay visible so the filter can be relaxed")
	assert.Equal(t, zeroTotals, v.Totals.Violations)
}

func TestFormatLocation(t *testing.T) {
	tests := []struct {
		name     string
		in       domain.Violation
		expected string
	}{
		{"house and street", domain.Violation{HouseNumber: "12", StreetName: "Main St"}, "12 Main St"},
		{"intersection", domain.Violation{StreetName: "Broadway", IntersectingStreet: "W 42nd St"}, "Broadway @ W 42nd St"},
		{"location code only", domain.Violation{ViolationLocation: "0014"}, "0014"},
		{"street and code", domain.Violation{StreetName: "Broadway", ViolationLocation: "0014"}, "Broadway (0014)"},
		{"nothing", domain.Violation{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatLocation(tt.in))
		})
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0.00", FormatMoney(0))
	assert.Equal(t, "50.00", FormatMoney(50))
	assert.Equal(t, "12.35", FormatMoney(12.345))
	assert.Equal(t, "1,234.50", FormatMoney(1234.5))
}

func TestRenderer_HTML(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	results := sampleResults()
	v := Build(Input{
		Phase:     domain.PhaseResolved,
		Context:   domain.QueryContext{Plate: testPlate, State: "NY"},
		All:       results,
		Displayed: results,
		Options:   DefaultOptions(),
	})

	var buf bytes.Buffer
	require.NoError(t, r.HTML(&buf, v))
	out := buf.String()

	assert.Contains(t, out, "Totals for plate: ABC1234, NY")
	assert.Contains(t, out, "NO PARKING-STREET CLEANING")
	assert.Contains(t, out, `id="sortSelect"`)
	assert.Contains(t, out, `<option value="date-desc" selected>`)
	assert.Contains(t, out, "DEPARTMENT OF TRANSPORTATION")
}

func TestRenderer_HTMLDisambiguation(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	v := Build(Input{Phase: domain.PhaseDisambiguating, Context: domain.QueryContext{Plate: testPlate}, States: []string{"NJ", "NY"}})

	var buf bytes.Buffer
	require.NoError(t, r.HTML(&buf, v))
	out := buf.String()

	assert.Contains(t, out, `value="NJ"`)
	assert.Contains(t, out, `value="NY"`)
	assert.NotContains(t, out, `id="sortSelect"`)
}

func TestRenderer_HTMLEscapes(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	in := []domain.Violation{{Violation: "<script>alert(1)</script>"}}
	v := Build(Input{Phase: domain.PhaseResolved, All: in, Displayed: in})

	var buf bytes.Buffer
	require.NoError(t, r.HTML(&buf, v))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

func TestRenderer_Text(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	v := Build(Input{Phase: domain.PhaseEmpty})

	var buf bytes.Buffer
	require.NoError(t, r.Text(&buf, v))
	out := buf.String()

	assert.Contains(t, out, MsgEmpty)
	assert.Contains(t, out, zeroTotals)
	assert.Contains(t, out, zeroDue)
	assert.Contains(t, out, zeroPaid)
}
