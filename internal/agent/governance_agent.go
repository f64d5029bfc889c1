package agent

import (
	"context"

	"github.com/acpctl/acp/internal/governance"
	"github.com/acpctl/acp/internal/runstate"
)

// Governance implements the Governance agent (spec.md §4.6): a thin adapter
// that invokes the Governance Validator against the artifacts the prior
// phase just produced, attaches the resulting violations to the state
// (possibly clearing them), and sets governance_passes.
//
// Which artifacts get validated depends on sourcePhase: the phase whose
// output is under review (specify, plan, or implement).
func Governance(validator *governance.Validator, sourcePhase runstate.Phase) Func {
	return func(_ context.Context, s *runstate.State, c Collaborators) (*runstate.State, error) {
		next := s.Clone()

		artifacts := ArtifactsForPhase(next, sourcePhase)
		grouped := validator.ValidateAll(artifacts, c.Constitution)

		next.Violations = grouped
		next.Constitution.GovernancePasses = governance.Passes(grouped)

		var flat []runstate.Violation
		for _, vs := range grouped {
			flat = append(flat, vs...)
		}
		if c.Port != nil {
			c.Port.ReportViolations(flat)
		}

		if err := runstate.Validate(next); err != nil {
			return nil, err
		}
		return next, nil
	}
}

// ArtifactsForPhase selects the artifacts that a governance check for
// sourcePhase should validate.
func ArtifactsForPhase(s *runstate.State, sourcePhase runstate.Phase) map[string]governance.Artifact {
	out := map[string]governance.Artifact{}
	switch sourcePhase {
	case runstate.PhaseSpecify:
		out["spec.md"] = governance.Artifact{Kind: runstate.ArtifactSpec, Text: s.Spec.Spec}
	case runstate.PhasePlan:
		out["plan.md"] = governance.Artifact{Kind: runstate.ArtifactPlan, Text: s.Planning.Plan}
		if s.Planning.DataModel != "" {
			out["data-model.md"] = governance.Artifact{Kind: runstate.ArtifactDataModel, Text: s.Planning.DataModel}
		}
		for name, text := range s.Planning.Contracts {
			out["contracts/"+name+".yaml"] = governance.Artifact{Kind: runstate.ArtifactContract, Text: text}
		}
	case runstate.PhaseImplement:
		for path, artifact := range s.Impl.Code {
			out[path] = governance.Artifact{Kind: artifact.Kind, Text: artifact.Content}
		}
	}
	return out
}
