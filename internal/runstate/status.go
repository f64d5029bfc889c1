package runstate

// RunStatus is the lifecycle status of a Run, independent of which Phase it
// currently occupies.
type RunStatus string

// Recognized run statuses and their legal transitions:
//
//	pending -> in_progress                 (first node execution)
//	in_progress <-> paused                  (checkpoint write / resume)
//	in_progress -> completed                (phase reaches complete)
//	in_progress -> failed                   (fatal error, or retries exhausted)
const (
	StatusPending    RunStatus = "pending"
	StatusInProgress RunStatus = "in_progress"
	StatusPaused     RunStatus = "paused"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusPaused, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether s is a status from which the run never
// transitions again.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
