// Package runstate defines the typed workflow state that flows through the
// engine: the phase enum, run metadata, the State payload, and the single
// Validate/Transition boundary that enforces the cross-field invariants.
//
// This collapses the "fast vs validating representation" distinction
// described for the source system into one struct with a Validate method,
// invoked only at the boundaries that matter: checkpoint save, checkpoint
// load, and Transition. Nodes are free to mutate a working copy between
// those points.
package runstate

// Phase is one step in the workflow's forward-only phase graph.
type Phase string

// The ordered phase enum. Only forward transitions are legal; re-entry of
// the same phase is legal during retry.
const (
	PhaseInit       Phase = "init"
	PhaseSpecify    Phase = "specify"
	PhasePlan       Phase = "plan"
	PhaseImplement  Phase = "implement"
	PhaseComplete   Phase = "complete"
)

// phaseOrder gives each phase its position in the forward-only sequence.
var phaseOrder = map[Phase]int{
	PhaseInit:      0,
	PhaseSpecify:   1,
	PhasePlan:      2,
	PhaseImplement: 3,
	PhaseComplete:  4,
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	_, ok := phaseOrder[p]
	return ok
}

// Before reports whether p precedes other in the phase enum.
func (p Phase) Before(other Phase) bool {
	return phaseOrder[p] < phaseOrder[other]
}

// Next returns the phase that follows p, or PhaseComplete's successor is
// itself (Complete is terminal). The second return is false if p is not a
// recognized phase.
func (p Phase) Next() (Phase, bool) {
	switch p {
	case PhaseInit:
		return PhaseSpecify, true
	case PhaseSpecify:
		return PhasePlan, true
	case PhasePlan:
		return PhaseImplement, true
	case PhaseImplement:
		return PhaseComplete, true
	case PhaseComplete:
		return PhaseComplete, true
	default:
		return "", false
	}
}

// IsTerminal reports whether p is the final phase.
func (p Phase) IsTerminal() bool {
	return p == PhaseComplete
}
