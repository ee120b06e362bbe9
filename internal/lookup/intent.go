package lookup

import "github.com/couchcryptid/parking-violations-lookup/internal/domain"

// Intent is a user action dispatched to the Controller.
type Intent interface {
	intent()
}

// SearchRequested starts a new search for a plate.
type SearchRequested struct {
	Plate string
}

// StateChosen resolves a pending disambiguation.
type StateChosen struct {
	State string
}

// SortRequested changes the ordering of the displayed results.
type SortRequested struct {
	Key domain.SortKey
}

// FilterChanged changes the status and agency filters. Empty values mean "all".
type FilterChanged struct {
	Status domain.StatusFilter
	Agency string
}

func (SearchRequested) intent() {}
func (StateChosen) intent()     {}
func (SortRequested) intent()   {}
func (FilterChanged) intent()   {}
