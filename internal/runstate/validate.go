package runstate

import "fmt"

// InvariantError names the specific invariant from §3 that a candidate
// State violated. Callers that need to branch on which rule failed can
// check Invariant; everyone else can just print Error().
type InvariantError struct {
	Invariant string
	Message   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Invariant, e.Message)
}

// supportedSchemaVersions lists every schema version Validate accepts. Only
// the current version has ever shipped; the migration registry in
// checkpoint.Migrate is what's responsible for getting an older file here.
var supportedSchemaVersions = map[string]bool{
	CurrentSchemaVersion: true,
}

// Validate enforces every cross-field invariant from §3 of the
// specification. It is invoked at the three boundaries the design allows:
// checkpoint save, checkpoint load, and inside Transition. A violation
// returns an *InvariantError; nil means every invariant holds.
func Validate(s *State) error {
	if s == nil {
		return &InvariantError{Invariant: "I0", Message: "state is nil"}
	}

	if s.SchemaVersion == "" || !supportedSchemaVersions[s.SchemaVersion] {
		return &InvariantError{Invariant: "I7", Message: fmt.Sprintf("unsupported schema_version %q", s.SchemaVersion)}
	}

	// I1: spec non-empty => constitution non-empty. governance_passes is
	// not checked here; a State with a spec and governance_passes false
	// is valid.
	if s.Spec.Spec != "" {
		if s.Constitution.Text == "" {
			return &InvariantError{Invariant: "I1", Message: "spec is non-empty but constitution text is empty"}
		}
	}

	// I2: plan non-empty => spec non-empty.
	if s.Planning.Plan != "" && s.Spec.Spec == "" {
		return &InvariantError{Invariant: "I2", Message: "plan is non-empty but spec is empty"}
	}

	// I3: implementation state non-empty => plan and data_model non-empty.
	implNonEmpty := len(s.Impl.Tasks) > 0 || len(s.Impl.Code) > 0
	if implNonEmpty {
		if s.Planning.Plan == "" {
			return &InvariantError{Invariant: "I3", Message: "implementation state is non-empty but plan is empty"}
		}
		if s.Planning.DataModel == "" {
			return &InvariantError{Invariant: "I3", Message: "implementation state is non-empty but data_model is empty"}
		}
	}

	// I4: phase == complete => every task id appears in completed_tasks.
	if s.Control.Phase == PhaseComplete {
		for _, t := range s.Impl.Tasks {
			if !s.Impl.CompletedTasks[t.ID] {
				return &InvariantError{Invariant: "I4", Message: fmt.Sprintf("phase is complete but task %q is not marked completed", t.ID)}
			}
		}
	}

	// I5: completed_tasks subset-of task_ids.
	taskIDs := make(map[string]bool, len(s.Impl.Tasks))
	for _, t := range s.Impl.Tasks {
		taskIDs[t.ID] = true
	}
	for id, done := range s.Impl.CompletedTasks {
		if done && !taskIDs[id] {
			return &InvariantError{Invariant: "I5", Message: fmt.Sprintf("completed_tasks references unknown task id %q", id)}
		}
	}

	// I6: error_count >= 0.
	if s.Control.ErrorCount < 0 {
		return &InvariantError{Invariant: "I6", Message: "error_count is negative"}
	}

	// I6 (continued) is enforced by the caller for the in_progress/failed
	// split: Validate only checks the State, not the accompanying
	// RunStatus, so the "must not be written as in_progress" half of I6
	// is checked by checkpoint.Save against the Run metadata (see
	// ValidateStatus below).

	if s.Control.Phase != "" && !s.Control.Phase.Valid() {
		return &InvariantError{Invariant: "I7", Message: fmt.Sprintf("unknown phase %q", s.Control.Phase)}
	}

	if len(s.Spec.Clarifications) > MaxPreflightQuestions {
		return &InvariantError{Invariant: "I8", Message: fmt.Sprintf("%d clarifications exceeds the %d-question pre-flight bound", len(s.Spec.Clarifications), MaxPreflightQuestions)}
	}

	return nil
}

// ValidateStatus enforces the half of invariant I6 that spans State and
// Run: a state with error_count >= MaxRetries must not be persisted with
// status in_progress — it must have already transitioned to failed.
func ValidateStatus(s *State, status RunStatus) error {
	if s != nil && s.Control.ErrorCount >= MaxRetries && status == StatusInProgress {
		return &InvariantError{Invariant: "I6", Message: "error_count has reached MaxRetries but status is still in_progress"}
	}
	return nil
}
