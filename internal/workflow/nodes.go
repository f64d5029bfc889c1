package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/acpctl/acp/graph"
	"github.com/acpctl/acp/internal/agent"
	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/governance"
	"github.com/acpctl/acp/internal/interaction"
	"github.com/acpctl/acp/internal/runstate"
)

// phaseNode adapts one of the four agent.Func phase agents to
// graph.Node[*runstate.State]. A transient failure (the LLM call errors,
// or the agent's own invariant check fails) is retried automatically by
// the engine's NodePolicy/RetryPolicy machinery, bounded by MaxRetries;
// it never reaches error_handler, which is reserved for governance
// violations a human must weigh in on.
type phaseNode struct {
	id           string
	fn           agent.Func
	governanceID string
	engine       *Engine
}

func (n *phaseNode) Run(ctx context.Context, state *runstate.State) graph.NodeResult[*runstate.State] {
	start := time.Now()
	next, err := n.fn(ctx, state, n.engine.collaboratorsFor())
	if m := n.engine.cfg.Metrics; m != nil {
		m.RecordPhaseDuration(n.id, time.Since(start))
	}
	if err != nil {
		return graph.NodeResult[*runstate.State]{Err: fmt.Errorf("%s: %w", n.id, err)}
	}
	return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Goto(n.governanceID)}
}

// Policy bounds transient failure retries at MaxRetries attempts with
// exponential backoff, reusing the graph engine's own RetryPolicy rather
// than hand-rolling a second retry loop.
func (n *phaseNode) Policy() graph.NodePolicy {
	return graph.NodePolicy{
		RetryPolicy: &graph.RetryPolicy{
			MaxAttempts: runstate.MaxRetries,
			BaseDelay:   250 * time.Millisecond,
			MaxDelay:    4 * time.Second,
			Retryable:   func(error) bool { return true },
		},
	}
}

// governanceNode adapts the Governance agent. On pass it checkpoints and
// routes to the next phase (or stops at Config.StopAfter, or terminates
// the run on reaching the implement phase). On failure it routes to
// error_handler unless error_count has already reached MaxRetries, in
// which case the run stops as failed.
type governanceNode struct {
	id          string
	sourcePhase runstate.Phase
	validator   *governance.Validator
	engine      *Engine
}

func (n *governanceNode) Run(ctx context.Context, state *runstate.State) graph.NodeResult[*runstate.State] {
	next, err := agent.Governance(n.validator, n.sourcePhase)(ctx, state, n.engine.collaboratorsFor())
	if err != nil {
		return graph.NodeResult[*runstate.State]{Err: fmt.Errorf("%s: %w", n.id, err)}
	}
	if m := n.engine.cfg.Metrics; m != nil {
		m.RecordGovernanceResult(string(n.sourcePhase), next.Constitution.GovernancePasses)
	}

	if next.Constitution.GovernancePasses {
		next.Control.ErrorCount = 0
		next.Control.LastError = nil
		if err := n.engine.checkpointAfterPass(n.sourcePhase, next); err != nil {
			return graph.NodeResult[*runstate.State]{Err: err}
		}
		if n.sourcePhase == n.engine.cfg.StopAfter {
			return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Stop()}
		}
		nextPhase, _ := n.sourcePhase.Next()
		if nextPhase.IsTerminal() {
			next.Control.Phase = runstate.PhaseComplete
			return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Stop()}
		}
		return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Goto(phaseNodeID(nextPhase))}
	}

	next.Control.LastError = &runstate.ErrorInfo{
		Node:    n.id,
		Message: governanceFailureSummary(next.Violations),
		Phase:   n.sourcePhase,
	}

	if next.Control.ErrorCount >= runstate.MaxRetries {
		return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Stop()}
	}
	return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Goto(NodeErrorHandler)}
}

// governanceFailureSummary renders the first violation across all artifacts
// into a one-line message suitable for ErrorInfo.Message, since Violations
// may hold many findings but LastError carries only one summary line.
func governanceFailureSummary(grouped map[string][]runstate.Violation) string {
	artifacts := make([]string, 0, len(grouped))
	for name := range grouped {
		artifacts = append(artifacts, name)
	}
	sort.Strings(artifacts)

	for _, artifact := range artifacts {
		vs := grouped[artifact]
		if len(vs) == 0 {
			continue
		}
		v := vs[0]
		if len(vs) == 1 {
			return fmt.Sprintf("%s: %s (%s)", artifact, v.Description, v.PrincipleID)
		}
		return fmt.Sprintf("%s: %s (%s) and %d more violation(s)", artifact, v.Description, v.PrincipleID, len(vs)-1)
	}
	return "governance check failed"
}

// errorHandlerNode implements the four-way remediation branch: regenerate
// (loop back to the failing phase agent, error_count incremented),
// edit_constitution (re-read the constitution, re-validate without
// regenerating), abort (stop, failed), and ignore (skip governance for
// this phase, requires Config.AllowIgnore).
type errorHandlerNode struct {
	engine *Engine
}

func (n *errorHandlerNode) Run(_ context.Context, state *runstate.State) graph.NodeResult[*runstate.State] {
	next := state.Clone()

	var violations []runstate.Violation
	for _, vs := range state.Violations {
		violations = append(violations, vs...)
	}

	remediation, err := n.engine.cfg.Port.Remediate(violations)
	if err != nil {
		return graph.NodeResult[*runstate.State]{Err: fmt.Errorf("error_handler: %w", err)}
	}

	switch remediation {
	case interaction.Regenerate:
		next.Control.LastError = &runstate.ErrorInfo{
			Node:    "error_handler",
			Message: fmt.Sprintf("regenerating %s after governance failure (attempt %d/%d)", state.Control.Phase, next.Control.ErrorCount+1, runstate.MaxRetries),
			Phase:   state.Control.Phase,
		}
		next.Control.ErrorCount++
		if next.Control.ErrorCount >= runstate.MaxRetries {
			return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Stop()}
		}
		return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Goto(phaseNodeID(state.Control.Phase))}

	case interaction.EditConstitution:
		loaded, err := constitution.Load(n.engine.cfg.Root)
		if err != nil {
			return graph.NodeResult[*runstate.State]{Err: fmt.Errorf("error_handler: reloading constitution: %w", err)}
		}
		n.engine.setConstitution(loaded)
		next.Constitution.Text = loaded.Text
		return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Goto(governanceNodeID(state.Control.Phase))}

	case interaction.Ignore:
		if !n.engine.cfg.AllowIgnore {
			return graph.NodeResult[*runstate.State]{Err: fmt.Errorf("error_handler: ignore requires an explicit override flag")}
		}
		next.Constitution.GovernancePasses = true
		next.Control.ErrorCount = 0
		next.Control.LastError = nil
		sourcePhase := state.Control.Phase
		if m := n.engine.cfg.Metrics; m != nil {
			m.RecordGovernanceResult(string(sourcePhase), true)
		}
		if err := n.engine.checkpointAfterPass(sourcePhase, next); err != nil {
			return graph.NodeResult[*runstate.State]{Err: err}
		}
		if sourcePhase == n.engine.cfg.StopAfter {
			return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Stop()}
		}
		nextPhase, _ := sourcePhase.Next()
		if nextPhase.IsTerminal() {
			next.Control.Phase = runstate.PhaseComplete
			return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Stop()}
		}
		return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Goto(phaseNodeID(nextPhase))}

	case interaction.Abort:
		return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Stop()}

	default:
		return graph.NodeResult[*runstate.State]{Delta: next, Route: graph.Stop()}
	}
}
