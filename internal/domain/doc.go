// Package domain models NYC parking and camera violation records and the pure
// derivations (sort, filter, aggregate) applied to a fetched result set.
//
// # Data Source
//
// Records come from the NYC Open Data "Open Parking and Camera Violations"
// dataset (Socrata resource nc67-uf89), queried by exact plate match:
//
//	GET https://data.cityofnewyork.us/resource/nc67-uf89.json?plate=ABC1234
//
// The response is a JSON array of flat objects. Every field is optional and
// every value arrives as a string, including the money columns.
//
// # Field Conventions
//
// Dates:
//
//	issue_date is "MM/DD/YYYY" in the current feed; ISO-8601 dates and
//	timestamps are also accepted. Missing or unparseable dates sort as the
//	Unix epoch. See [ParseIssueDate].
//
// Times:
//
//	violation_time is "HHMMA"/"HHMMP", e.g. "0830A". It is displayed as-is.
//
// Money:
//
//	amount_due, payment_amount, fine_amount, penalty_amount, interest_amount,
//	and reduction_amount decode into [Amount]. Numbers, numeric strings, null,
//	and garbage are all accepted; anything non-numeric is zero.
//
// States:
//
//	A plate number is unique only within its issuing state, so one query can
//	return records from several states. [DistinctStates] reports them and
//	[SelectState] narrows the set once the user picks one.
//
// # Payment Status
//
// Status is derived from the amounts, never stored:
//
//	paid:        amount_due == 0 or payment_amount >= amount_due
//	partial:     0 < payment_amount < amount_due
//	outstanding: everything else
//
// Sorting by status orders outstanding < partial < paid.
package domain
