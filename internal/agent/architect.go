package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/acpctl/acp/internal/runstate"
)

// unresolvedMarkerPattern flags research output that still contains an
// explicit "needs clarification" style marker instead of an answer — the
// Architect must never hand such a document to the plan sub-phase.
var unresolvedMarkerPattern = regexp.MustCompile(`(?i)needs[ _-]?clarification|\bTBD\b|\bTODO\b.*unresolved`)

// persistenceKeywords and interfaceKeywords are simple heuristics deciding
// whether a feature's plan needs a data-model.md / contracts respectively.
// These mirror the same curated, auditable approach the Governance
// Validator's leakage rule takes (SPEC_FULL.md), just pointed at a
// different question.
var persistenceKeywords = regexp.MustCompile(`(?i)\b(store|stored|persist|persistence|database|record|save|table|schema)\b`)
var interfaceKeywords = regexp.MustCompile(`(?i)\b(api|endpoint|interface|contract|webhook|rpc)\b`)

// Architect implements the Architect agent (spec.md §4.6) in its two
// observable sub-phases: Phase 0 discharges every open unknown into
// research.md; Phase 1 produces plan.md, data-model.md (if the feature
// persists data), one or more contracts (if the feature exposes
// interfaces), and quickstart.md. It never re-opens clarifications; an
// unresolved unknown after Phase 0 is a failure.
func Architect(ctx context.Context, s *runstate.State, c Collaborators) (*runstate.State, error) {
	next := s.Clone()

	research, unknowns, err := resolveUnknowns(ctx, next, c)
	if err != nil {
		return nil, err
	}
	next.Planning.Research = research
	next.Planning.Unknowns = unknowns
	if len(next.Planning.Unknowns) > 0 {
		return nil, fmt.Errorf("agent: architect left %d unknown(s) unresolved: %s", len(next.Planning.Unknowns), strings.Join(next.Planning.Unknowns, "; "))
	}
	if c.Artifacts != nil {
		if err := c.Artifacts.WriteResearch(c.RunID, research); err != nil {
			return nil, fmt.Errorf("agent: writing research.md: %w", err)
		}
	}

	planText, err := c.LLM.Complete(ctx, planPrompt(next))
	if err != nil {
		return nil, fmt.Errorf("agent: generating plan: %w", err)
	}
	next.Planning.Plan = planText
	if c.Artifacts != nil {
		if err := c.Artifacts.WritePlan(c.RunID, planText); err != nil {
			return nil, fmt.Errorf("agent: writing plan.md: %w", err)
		}
	}

	combined := next.Spec.Spec + "\n" + planText
	if persistenceKeywords.MatchString(combined) {
		dataModel, err := c.LLM.Complete(ctx, dataModelPrompt(next))
		if err != nil {
			return nil, fmt.Errorf("agent: generating data model: %w", err)
		}
		next.Planning.DataModel = dataModel
		if c.Artifacts != nil {
			if err := c.Artifacts.WriteDataModel(c.RunID, dataModel); err != nil {
				return nil, fmt.Errorf("agent: writing data-model.md: %w", err)
			}
		}
	}

	if interfaceKeywords.MatchString(combined) {
		contractText, err := c.LLM.Complete(ctx, contractPrompt(next))
		if err != nil {
			return nil, fmt.Errorf("agent: generating contract: %w", err)
		}
		contractName := contractNameFor(c.RunID)
		if next.Planning.Contracts == nil {
			next.Planning.Contracts = map[string]string{}
		}
		next.Planning.Contracts[contractName] = contractText
		if c.Artifacts != nil {
			if err := c.Artifacts.WriteContract(c.RunID, contractName, contractText); err != nil {
				return nil, fmt.Errorf("agent: writing contract %s: %w", contractName, err)
			}
		}
	}

	quickstart, err := c.LLM.Complete(ctx, quickstartPrompt(next))
	if err != nil {
		return nil, fmt.Errorf("agent: generating quickstart: %w", err)
	}
	next.Planning.Quickstart = quickstart
	if c.Artifacts != nil {
		if err := c.Artifacts.WriteQuickstart(c.RunID, quickstart); err != nil {
			return nil, fmt.Errorf("agent: writing quickstart.md: %w", err)
		}
	}

	next.Control.Phase = runstate.PhasePlan
	if err := runstate.Validate(next); err != nil {
		return nil, err
	}
	return next, nil
}

func resolveUnknowns(ctx context.Context, s *runstate.State, c Collaborators) (research string, remaining []string, err error) {
	unknowns := s.Planning.Unknowns
	if unknowns == nil {
		raw, err := c.LLM.Complete(ctx, "List, as a bulleted list, every open technical unknown that must be "+
			"resolved before planning this feature. If there are none, respond with exactly \"none\".\n\nSpec:\n"+s.Spec.Spec)
		if err != nil {
			return "", nil, fmt.Errorf("agent: enumerating unknowns: %w", err)
		}
		unknowns = ParseList(raw)
	}

	if len(unknowns) == 0 {
		return "# Research\n\nNo open unknowns.\n", nil, nil
	}

	var prompt strings.Builder
	prompt.WriteString("Write research.md resolving every one of these unknowns with a concrete decision ")
	prompt.WriteString("and rationale. Do not leave any marked as needing clarification.\n\n")
	for _, u := range unknowns {
		fmt.Fprintf(&prompt, "- %s\n", u)
	}

	research, err = c.LLM.Complete(ctx, prompt.String())
	if err != nil {
		return "", nil, fmt.Errorf("agent: resolving unknowns: %w", err)
	}

	if unresolvedMarkerPattern.MatchString(research) {
		return research, unknowns, nil
	}
	return research, nil, nil
}

func planPrompt(s *runstate.State) string {
	return "Write plan.md with \"## Technical Context\" and \"## Phases\" markdown headings, " +
		"grounded in this research and spec.\n\nResearch:\n" + s.Planning.Research + "\n\nSpec:\n" + s.Spec.Spec
}

func dataModelPrompt(s *runstate.State) string {
	return "Write data-model.md with an \"## Entities\" markdown heading describing the entities " +
		"this feature persists, grounded in this plan.\n\nPlan:\n" + s.Planning.Plan
}

func contractPrompt(s *runstate.State) string {
	return "Write one API contract (YAML) for the interface(s) this feature exposes, grounded in this plan.\n\nPlan:\n" + s.Planning.Plan
}

func quickstartPrompt(s *runstate.State) string {
	return "Write quickstart.md: a short walkthrough of exercising this feature once implemented.\n\nPlan:\n" + s.Planning.Plan
}

var nonWordContract = regexp.MustCompile(`[^a-z0-9]+`)

func contractNameFor(runID string) string {
	name := nonWordContract.ReplaceAllString(strings.ToLower(runID), "-")
	return strings.Trim(name, "-")
}
