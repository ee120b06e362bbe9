package domain

import (
	"time"

	"github.com/google/uuid"
)

// SearchOutcome is the terminal state a search reached.
type SearchOutcome string

const (
	OutcomeEmpty          SearchOutcome = "empty"
	OutcomeResolved       SearchOutcome = "resolved"
	OutcomeDisambiguating SearchOutcome = "disambiguating"
	OutcomeError          SearchOutcome = "error"
)

// SearchEvent records the outcome of one search or state choice for the
// optional search event feed.
type SearchEvent struct {
	ID         string        `json:"id"`
	Plate      string        `json:"plate"`
	State      string        `json:"state,omitempty"`
	Outcome    SearchOutcome `json:"outcome"`
	States     []string      `json:"states,omitempty"`
	Count      int           `json:"count"`
	TotalDue   float64       `json:"total_due"`
	TotalPaid  float64       `json:"total_paid"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewSearchEvent builds a SearchEvent stamped with a fresh ID and the current
// time of the package clock.
func NewSearchEvent(qc QueryContext, outcome SearchOutcome, results []Violation) SearchEvent {
	t := Aggregate(results)
	return SearchEvent{
		ID:         uuid.NewString(),
		Plate:      qc.Plate,
		State:      qc.State,
		Outcome:    outcome,
		Count:      t.Count,
		TotalDue:   t.TotalDue,
		TotalPaid:  t.TotalPaid,
		OccurredAt: clock.Now().UTC(),
	}
}
