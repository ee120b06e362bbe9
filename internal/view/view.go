// Package view turns a session's search state into a display model and
// renders it as an HTML page or plain text.
package view

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/couchcryptid/parking-violations-lookup/internal/domain"
)

// Placeholder is shown for optional fields missing from a record.
const Placeholder = "N/A"

// User-facing messages per phase.
const (
	MsgIdle           = "Enter a license plate to search for violations."
	MsgLoading        = "Searching..."
	MsgEmpty          = "No violations found for this license plate."
	MsgError          = "An error occurred while fetching data."
	MsgDisambiguate   = "Multiple states found for this license plate. Please select a state:"
	MsgNoFilteredRows = "No violations match the selected filters."
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Options are the sort and filter selections applied to the displayed set.
type Options struct {
	Sort   domain.SortKey
	Status domain.StatusFilter
	Agency string
}

// DefaultOptions returns the options used before the user picks any.
func DefaultOptions() Options {
	return Options{Sort: domain.SortDateDesc, Status: domain.FilterAll, Agency: domain.FilterAll}
}

// Input is everything needed to build a View.
type Input struct {
	Phase   domain.Phase
	Context domain.QueryContext
	// All is the full cached result set; agency filter options come from it.
	All []domain.Violation
	// Displayed is All after filtering and sorting.
	Displayed []domain.Violation
	// States are the disambiguation choices.
	States  []string
	Options Options
}

// View is the display model for one session.
type View struct {
	Phase    domain.Phase
	Plate    string
	Message  string
	States   []string
	Cards    []Card
	Totals   Totals
	Controls *Controls
}

// Totals are the formatted summary lines.
type Totals struct {
	Header        string
	Violations    string
	AmountDue     string
	PaymentAmount string
}

// Card is one violation formatted for display.
type Card struct {
	SummonsNumber string
	Plate         string
	State         string
	LicenseType   string
	Violation     string
	ViolationCode string
	IssueDate     string
	ViolationTime string

	Status      string
	StatusClass string

	AmountDue       string
	AmountPaid      string
	FineAmount      string
	PenaltyAmount   string
	InterestAmount  string
	ReductionAmount string

	Vehicle           string
	VehicleExpiration string

	Location        string
	County          string
	Precinct        string
	FrontOrOpposite string

	Agency  string
	Issuer  string
	Command string
	Squad   string
}

// Option is one entry of a select control.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Controls are the sort and filter selectors shown once results are rendered.
type Controls struct {
	Sort   []Option
	Status []Option
	Agency []Option
}

// Build converts a session's state into a View.
func Build(in Input) View {
	v := View{
		Phase:  in.Phase,
		Plate:  in.Context.Plate,
		Totals: buildTotals(domain.Totals{}, domain.QueryContext{}),
	}

	switch in.Phase {
	case domain.PhaseLoading:
		v.Message = MsgLoading
	case domain.PhaseEmpty:
		v.Message = MsgEmpty
	case domain.PhaseError:
		v.Message = MsgError
	case domain.PhaseDisambiguating:
		v.Message = MsgDisambiguate
		v.States = append([]string(nil), in.States...)
		v.Totals.Header = domain.QueryContext{Plate: in.Context.Plate}.Header()
	case domain.PhaseResolved:
		v.Cards = make([]Card, 0, len(in.Displayed))
		for _, r := range in.Displayed {
			v.Cards = append(v.Cards, buildCard(r))
		}
		if len(in.Displayed) == 0 {
			v.Message = MsgNoFilteredRows
		}
		v.Totals = buildTotals(domain.Aggregate(in.Displayed), in.Context)
		v.Controls = buildControls(in.All, in.Options)
	default:
		v.Message = MsgIdle
	}
	return v
}

func buildTotals(t domain.Totals, qc domain.QueryContext) Totals {
	return Totals{
		Header:        qc.Header(),
		Violations:    printer.Sprintf("Total Violations: %d", t.Count),
		AmountDue:     "Total Amount Due: $" + FormatMoney(t.TotalDue),
		PaymentAmount: "Total Payment Amount: $" + FormatMoney(t.TotalPaid),
	}
}

func buildCard(r domain.Violation) Card {
	status := domain.StatusOf(r)
	return Card{
		SummonsNumber: orPlaceholder(r.SummonsNumber),
		Plate:         orPlaceholder(r.Plate),
		State:         orPlaceholder(r.State),
		LicenseType:   orPlaceholder(r.LicenseType),
		Violation:     orPlaceholder(r.Violation),
		ViolationCode: orPlaceholder(r.ViolationCode),
		IssueDate:     orPlaceholder(r.IssueDate),
		ViolationTime: orPlaceholder(r.ViolationTime),

		Status:      status.Label(),
		StatusClass: string(status),

		AmountDue:       FormatMoney(r.AmountDue.Float()),
		AmountPaid:      FormatMoney(r.PaymentAmount.Float()),
		FineAmount:      FormatMoney(r.FineAmount.Float()),
		PenaltyAmount:   FormatMoney(r.PenaltyAmount.Float()),
		InterestAmount:  FormatMoney(r.InterestAmount.Float()),
		ReductionAmount: FormatMoney(r.ReductionAmount.Float()),

		Vehicle:           orPlaceholder(joinNonEmpty(" ", r.VehicleYear, r.VehicleColor, r.VehicleMake, r.VehicleBodyType)),
		VehicleExpiration: orPlaceholder(r.VehicleExpirationDate),

		Location:        orPlaceholder(formatLocation(r)),
		County:          orPlaceholder(r.ViolationCounty),
		Precinct:        orPlaceholder(r.ViolationPrecinct),
		FrontOrOpposite: orPlaceholder(r.FrontOrOpposite),

		Agency:  orPlaceholder(r.IssuingAgency),
		Issuer:  orPlaceholder(joinNonEmpty(" / ", r.IssuerCode, r.IssuerPrecinct)),
		Command: orPlaceholder(r.IssuerCommand),
		Squad:   orPlaceholder(r.IssuerSquad),
	}
}

// formatLocation renders "<house> <street> @ <intersecting> (<violation_location>)"
// from whichever parts are present.
func formatLocation(r domain.Violation) string {
	loc := joinNonEmpty(" ", r.HouseNumber, r.StreetName)
	if r.IntersectingStreet != "" {
		loc = joinNonEmpty(" @ ", loc, r.IntersectingStreet)
	}
	if r.ViolationLocation != "" {
		if loc == "" {
			return r.ViolationLocation
		}
		loc += " (" + r.ViolationLocation + ")"
	}
	return loc
}

func buildControls(all []domain.Violation, opts Options) *Controls {
	c := &Controls{}
	sortKey := domain.ParseSortKey(string(opts.Sort))
	for _, k := range domain.SortKeys {
		c.Sort = append(c.Sort, Option{Value: string(k), Label: k.Label(), Selected: k == sortKey})
	}

	status := domain.ParseStatusFilter(string(opts.Status))
	for _, f := range domain.StatusFilters {
		label := "All"
		if f != domain.FilterAll {
			label = domain.PaymentStatus(f).Label()
		}
		c.Status = append(c.Status, Option{Value: string(f), Label: label, Selected: f == status})
	}

	agency := opts.Agency
	if agency == "" {
		agency = domain.FilterAll
	}
	c.Agency = append(c.Agency, Option{Value: domain.FilterAll, Label: "All", Selected: agency == domain.FilterAll})
	for _, a := range domain.DistinctAgencies(all) {
		c.Agency = append(c.Agency, Option{Value: a, Label: a, Selected: a == agency})
	}
	return c
}

// FormatMoney formats an amount with two decimals and US digit grouping,
// e.g. 1234.5 -> "1,234.50".
func FormatMoney(v float64) string {
	return printer.Sprintf("%.2f", v)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
