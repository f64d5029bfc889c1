package interaction

import (
	"fmt"

	"github.com/acpctl/acp/graph/emit"
	"github.com/acpctl/acp/internal/runstate"
)

// Scripted is the non-interactive binding used for tests and for the
// --force / pre-answered mode. Answers and remediation choices are
// pre-loaded; announcements and violation reports are recorded for
// inspection rather than printed.
type Scripted struct {
	// Answers is consumed in FIFO order, one batch per Ask call.
	Answers [][]runstate.Answer

	// Remediations is consumed in FIFO order, one choice per Remediate
	// call. A Remediate call with no remaining configured response
	// returns Abort, per spec.md §4.8.
	Remediations []Remediation

	Announcements []emit.Event
	ViolationLog  [][]runstate.Violation

	askCalls       int
	remediateCalls int
}

// NewScripted returns an empty Scripted binding ready to have Answers and
// Remediations configured.
func NewScripted() *Scripted {
	return &Scripted{}
}

// Ask returns the next pre-loaded answer batch. It errors if the batch
// count or question count don't line up with what's configured, so a
// misconfigured test fails loudly instead of silently answering the wrong
// question.
func (s *Scripted) Ask(questions []runstate.PreflightQuestion) ([]runstate.Answer, error) {
	if s.askCalls >= len(s.Answers) {
		return nil, fmt.Errorf("interaction: no scripted answers configured for Ask call %d", s.askCalls+1)
	}
	batch := s.Answers[s.askCalls]
	s.askCalls++
	if len(batch) != len(questions) {
		return nil, fmt.Errorf("interaction: scripted answer batch has %d answers, expected %d", len(batch), len(questions))
	}
	for _, a := range batch {
		if a == "" {
			return nil, fmt.Errorf("interaction: scripted batch contains an empty answer")
		}
	}
	return batch, nil
}

// Announce records the event for later inspection.
func (s *Scripted) Announce(event emit.Event) {
	s.Announcements = append(s.Announcements, event)
}

// ReportViolations records the violations for later inspection.
func (s *Scripted) ReportViolations(violations []runstate.Violation) {
	s.ViolationLog = append(s.ViolationLog, violations)
}

// Remediate returns the next pre-loaded remediation choice, or Abort if
// none remain.
func (s *Scripted) Remediate(_ []runstate.Violation) (Remediation, error) {
	if s.remediateCalls >= len(s.Remediations) {
		return Abort, nil
	}
	choice := s.Remediations[s.remediateCalls]
	s.remediateCalls++
	return choice, nil
}
