// Package interaction defines the narrow callback surface the workflow
// engine uses to ask pre-flight questions, announce progress, report
// governance violations, and collect remediation choices from a human (or
// a scripted stand-in for tests and --force runs).
package interaction

import (
	"github.com/acpctl/acp/graph/emit"
	"github.com/acpctl/acp/internal/runstate"
)

// Remediation is the human decision after a governance failure.
type Remediation string

// The four remediation choices from spec.md §4.7/§4.8.
const (
	Regenerate      Remediation = "regenerate"
	EditConstitution Remediation = "edit_constitution"
	Abort           Remediation = "abort"
	Ignore          Remediation = "ignore"
)

// Port is the exact four-method interface from spec.md §4.8.
type Port interface {
	// Ask is blocking, ordered, and all-or-nothing: either every question
	// gets an answer, or the call fails.
	Ask(questions []runstate.PreflightQuestion) ([]runstate.Answer, error)

	// Announce is a progress notification; it never blocks the engine.
	Announce(event emit.Event)

	// ReportViolations is a structured notification; it has no return
	// value.
	ReportViolations(violations []runstate.Violation)

	// Remediate asks the human how to proceed after a governance failure.
	Remediate(violations []runstate.Violation) (Remediation, error)
}
