package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Violation is one open-data parking or camera violation record. Every field
// is optional in the source; text fields are empty when absent and amounts
// are zero when absent or non-numeric. Text fields also accept JSON numbers
// and booleans, see [Violation.UnmarshalJSON].
type Violation struct {
	Plate       string `json:"plate,omitempty"`
	State       string `json:"state,omitempty"`
	LicenseType string `json:"license_type,omitempty"`

	SummonsNumber string `json:"summons_number,omitempty"`
	Violation     string `json:"violation,omitempty"`
	ViolationCode string `json:"violation_code,omitempty"`
	IssueDate     string `json:"issue_date,omitempty"`
	ViolationTime string `json:"violation_time,omitempty"`

	AmountDue       Amount `json:"amount_due"`
	PaymentAmount   Amount `json:"payment_amount"`
	FineAmount      Amount `json:"fine_amount"`
	PenaltyAmount   Amount `json:"penalty_amount"`
	InterestAmount  Amount `json:"interest_amount"`
	ReductionAmount Amount `json:"reduction_amount"`

	VehicleMake           string `json:"vehicle_make,omitempty"`
	VehicleBodyType       string `json:"vehicle_body_type,omitempty"`
	VehicleColor          string `json:"vehicle_color,omitempty"`
	VehicleYear           string `json:"vehicle_year,omitempty"`
	VehicleExpirationDate string `json:"vehicle_expiration_date,omitempty"`

	ViolationLocation  string `json:"violation_location,omitempty"`
	StreetName         string `json:"street_name,omitempty"`
	IntersectingStreet string `json:"intersecting_street,omitempty"`
	HouseNumber        string `json:"house_number,omitempty"`
	ViolationCounty    string `json:"violation_county,omitempty"`
	ViolationPrecinct  string `json:"violation_precinct,omitempty"`
	FrontOrOpposite    string `json:"violation_in_front_of_or_opposite,omitempty"`

	IssuingAgency  string `json:"issuing_agency,omitempty"`
	IssuerPrecinct string `json:"issuer_precinct,omitempty"`
	IssuerCode     string `json:"issuer_code,omitempty"`
	IssuerCommand  string `json:"issuer_command,omitempty"`
	IssuerSquad    string `json:"issuer_squad,omitempty"`
}

// amountFields are decoded by Amount and passed through untouched.
var amountFields = map[string]bool{
	"amount_due":       true,
	"payment_amount":   true,
	"fine_amount":      true,
	"penalty_amount":   true,
	"interest_amount":  true,
	"reduction_amount": true,
}

// UnmarshalJSON implements json.Unmarshaler. Text fields take strings as-is,
// numbers in their shortest decimal form, and booleans as "true"/"false";
// null, objects, and arrays become "".
func (v *Violation) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, val := range raw {
		if !amountFields[k] {
			raw[k] = textValue(val)
		}
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	type plain Violation
	var p plain
	if err := json.Unmarshal(normalized, &p); err != nil {
		return err
	}
	*v = Violation(p)
	return nil
}

// textValue rewrites a raw JSON value as a JSON string.
func textValue(raw json.RawMessage) json.RawMessage {
	var s string
	switch t := bytes.TrimSpace(raw); {
	case len(t) == 0:
	case t[0] == '"':
		_ = json.Unmarshal(t, &s)
	case bytes.Equal(t, []byte("true")), bytes.Equal(t, []byte("false")):
		s = string(t)
	case t[0] == '-' || (t[0] >= '0' && t[0] <= '9'):
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			s = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	out, _ := json.Marshal(s)
	return out
}

// Amount is a monetary value decoded leniently: JSON numbers, numeric strings,
// null, and anything unparseable all decode without error, the latter two as 0.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = 0
			return nil
		}
		*a = Amount(parseFloatOrZero(s))
		return nil
	}
	*a = Amount(parseFloatOrZero(string(data)))
	return nil
}

// Float returns the amount as a float64.
func (a Amount) Float() float64 { return float64(a) }

// parseFloatOrZero parses a string as float64, returning 0 on failure or for
// NaN and infinities.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// issueDateLayouts lists the date encodings seen in the open-data feed, most
// common first.
var issueDateLayouts = []string{
	"01/02/2006",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// epoch is the sort key for missing or unparseable issue dates.
var epoch = time.Unix(0, 0).UTC()

// ParseIssueDate parses an issue date string. The second return value is false
// when the value is empty or in no known layout, in which case the Unix epoch
// is returned.
func ParseIssueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return epoch, false
	}
	for _, layout := range issueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return epoch, false
}

// QueryContext identifies the search that produced a result set.
type QueryContext struct {
	Plate string `json:"plate,omitempty"`
	State string `json:"state,omitempty"`
}

// Header returns the totals heading for the context.
func (q QueryContext) Header() string {
	switch {
	case q.Plate != "" && q.State != "":
		return "Totals for plate: " + q.Plate + ", " + q.State
	case q.Plate != "":
		return "Totals for plate: " + q.Plate
	default:
		return "Totals"
	}
}
