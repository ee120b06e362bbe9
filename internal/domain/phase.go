package domain

// Phase is the state of a session's search flow.
//
//	Idle → Loading → {Empty | Disambiguating → Resolved | Error}
//
// Any phase moves back to Loading when a new search starts.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseLoading        Phase = "loading"
	PhaseEmpty          Phase = "empty"
	PhaseDisambiguating Phase = "disambiguating"
	PhaseResolved       Phase = "resolved"
	PhaseError          Phase = "error"
)
