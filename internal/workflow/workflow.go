// Package workflow wires the four phase agents and the Governance agent
// into the seven-node graph spec.md §4.7 describes, as a thin domain
// wrapper around graph.Engine[*runstate.State]. It owns the bounded
// governance-retry loop, the checkpoint-write hook after every successful
// phase transition, and resume-from-checkpoint.
//
// The teacher's concurrent/replay scheduler is not reused here: this
// engine has seven fixed nodes and a single active run, never a fan-out
// DAG. What is reused, nearly verbatim, is the sequential Run loop,
// Options, NodePolicy/RetryPolicy/computeBackoff, and the emit event
// points.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/acpctl/acp/graph"
	"github.com/acpctl/acp/graph/emit"
	"github.com/acpctl/acp/graph/store"
	"github.com/acpctl/acp/internal/agent"
	"github.com/acpctl/acp/internal/artifact"
	"github.com/acpctl/acp/internal/checkpoint"
	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/governance"
	"github.com/acpctl/acp/internal/interaction"
	"github.com/acpctl/acp/internal/runstate"
	"go.opentelemetry.io/otel/trace"
)

// Node IDs, fixed per spec.md §4.7.
const (
	NodeSpecify             = "specify"
	NodeGovernanceSpecify   = "governance_specify"
	NodePlan                = "plan"
	NodeGovernancePlan      = "governance_plan"
	NodeImplement           = "implement"
	NodeGovernanceImplement = "governance_implement"
	NodeErrorHandler        = "error_handler"
)

// Config is the run-creation-time configuration for an Engine, mirroring
// graph.Options' functional-option shape but expressed as a plain struct
// since every field here is set once, at construction.
type Config struct {
	Root  string
	RunID string

	LLM          agent.LLMClient
	Port         interaction.Port
	Artifacts    *artifact.Store
	Checkpoints  *checkpoint.Store
	Constitution *constitution.Constitution
	Validator    *governance.Validator

	// AllowIgnore gates the "ignore" remediation: without it, error_handler
	// treats an Ignore choice as an error rather than skipping governance.
	AllowIgnore bool

	// StopAfter pauses the run once sourcePhase's governance check passes.
	// The zero value runs to completion (through governance(impl)).
	StopAfter runstate.Phase

	MaxSteps           int
	DefaultNodeTimeout time.Duration
	Metrics            *graph.PrometheusMetrics

	// JournalStore backs the inner graph engine's per-step audit journal
	// (see graph/store.Store). Defaults to an in-memory store when nil;
	// pass a *store.SQLiteStore[*runstate.State] to persist it to disk.
	JournalStore store.Store[*runstate.State]

	// Tracer, if set, wraps the emitter so every node_start/node_end event
	// the inner engine announces also becomes an OpenTelemetry span,
	// alongside the ordinary Interaction Port announcement.
	Tracer trace.Tracer
}

// Engine drives one run of the phase graph to completion, to a pause
// boundary, or to failure.
type Engine struct {
	cfg          Config
	constitution *constitution.Constitution
	runMeta      runstate.Run
	inner        *graph.Engine[*runstate.State]
}

// New builds the seven-node graph and returns a ready-to-run Engine. The
// Engine is scoped to a single run id; construct a new one per run.
func New(cfg Config) (*Engine, error) {
	if cfg.Validator == nil {
		cfg.Validator = governance.New()
	}
	if cfg.Port == nil {
		return nil, fmt.Errorf("workflow: Config.Port is required")
	}

	e := &Engine{cfg: cfg, constitution: cfg.Constitution}

	opts := graph.Options{
		MaxSteps:           cfg.MaxSteps,
		DefaultNodeTimeout: cfg.DefaultNodeTimeout,
		Metrics:            cfg.Metrics,
	}
	journal := cfg.JournalStore
	if journal == nil {
		journal = store.NewMemStore[*runstate.State]()
	}

	var emitter emit.Emitter = &portEmitter{port: cfg.Port}
	if cfg.Tracer != nil {
		emitter = emit.NewMultiEmitter(emitter, emit.NewOTelEmitter(cfg.Tracer))
	}

	e.inner = graph.New(runstate.Reduce, journal, emitter, opts)

	nodes := map[string]graph.Node[*runstate.State]{
		NodeSpecify:             &phaseNode{id: NodeSpecify, fn: agent.Specification, governanceID: NodeGovernanceSpecify, engine: e},
		NodeGovernanceSpecify:   &governanceNode{id: NodeGovernanceSpecify, sourcePhase: runstate.PhaseSpecify, validator: cfg.Validator, engine: e},
		NodePlan:                &phaseNode{id: NodePlan, fn: agent.Architect, governanceID: NodeGovernancePlan, engine: e},
		NodeGovernancePlan:      &governanceNode{id: NodeGovernancePlan, sourcePhase: runstate.PhasePlan, validator: cfg.Validator, engine: e},
		NodeImplement:           &phaseNode{id: NodeImplement, fn: agent.Implementation, governanceID: NodeGovernanceImplement, engine: e},
		NodeGovernanceImplement: &governanceNode{id: NodeGovernanceImplement, sourcePhase: runstate.PhaseImplement, validator: cfg.Validator, engine: e},
		NodeErrorHandler:        &errorHandlerNode{engine: e},
	}
	for id, n := range nodes {
		if err := e.inner.Add(id, n); err != nil {
			return nil, fmt.Errorf("workflow: registering node %s: %w", id, err)
		}
	}

	return e, nil
}

// phaseNodeID maps a phase to the node id that runs its agent. Only
// specify/plan/implement have a node; callers must not pass init/complete.
func phaseNodeID(p runstate.Phase) string {
	switch p {
	case runstate.PhaseSpecify:
		return NodeSpecify
	case runstate.PhasePlan:
		return NodePlan
	case runstate.PhaseImplement:
		return NodeImplement
	default:
		return ""
	}
}

// governanceNodeID maps a phase to the node id that validates its output.
func governanceNodeID(p runstate.Phase) string {
	switch p {
	case runstate.PhaseSpecify:
		return NodeGovernanceSpecify
	case runstate.PhasePlan:
		return NodeGovernancePlan
	case runstate.PhaseImplement:
		return NodeGovernanceImplement
	default:
		return ""
	}
}

// startNodeForResume returns the node id to start (or resume) execution
// at, given which phases a run's metadata already records as completed.
// An empty string means every phase is already done.
func startNodeForResume(meta runstate.Run) string {
	for _, p := range []runstate.Phase{runstate.PhaseSpecify, runstate.PhasePlan, runstate.PhaseImplement} {
		if !meta.HasCompleted(p) {
			return phaseNodeID(p)
		}
	}
	return ""
}

// collaboratorsFor builds the Collaborators bundle handed to every phase
// agent call. Constitution is read from e.constitution rather than
// e.cfg.Constitution because the "edit constitution" remediation can
// replace it mid-run.
func (e *Engine) collaboratorsFor() agent.Collaborators {
	return agent.Collaborators{
		LLM:          e.cfg.LLM,
		Port:         e.cfg.Port,
		Artifacts:    e.cfg.Artifacts,
		Constitution: e.constitution,
		RunID:        e.cfg.RunID,
	}
}

// checkpointAfterPass records sourcePhase as completed in the run's
// metadata and writes a checkpoint, per spec.md §4.7's "after each
// successful phase transition the engine writes a checkpoint" rule. It is
// called both on an ordinary governance pass and on the "ignore"
// remediation, which spec.md treats as an alternate way of passing.
func (e *Engine) checkpointAfterPass(sourcePhase runstate.Phase, state *runstate.State) error {
	e.runMeta = e.runMeta.WithPhaseCompleted(sourcePhase)
	e.runMeta.Phase = state.Control.Phase
	e.runMeta.Status = runstate.StatusInProgress
	if sourcePhase == runstate.PhaseSpecify && e.cfg.Artifacts != nil {
		e.runMeta.SpecPath = e.cfg.Artifacts.SpecPath(e.cfg.RunID)
	}
	_, err := e.cfg.Checkpoints.Save(e.cfg.RunID, state, e.runMeta)
	if err != nil {
		return fmt.Errorf("workflow: checkpoint after %s: %w", sourcePhase, err)
	}
	return nil
}

// setConstitution replaces the constitution collaborators see, for the
// "edit constitution" remediation.
func (e *Engine) setConstitution(c *constitution.Constitution) {
	e.constitution = c
}

// Run executes the graph starting wherever meta.PhasesCompleted leaves
// off (the start of the run, for a fresh meta with none completed; a
// resume point, for one loaded from a checkpoint) through to completion,
// a pause at Config.StopAfter, or failure.
func (e *Engine) Run(ctx context.Context, initial *runstate.State, meta runstate.Run) (runstate.Run, *runstate.State, error) {
	startNode := startNodeForResume(meta)
	if startNode == "" {
		meta.Status = runstate.StatusCompleted
		return meta, initial, nil
	}
	if e.cfg.StopAfter != "" && meta.HasCompleted(e.cfg.StopAfter) {
		return meta, initial, nil
	}

	if len(meta.PhasesCompleted) > 0 {
		e.cfg.Port.Announce(emit.Event{
			RunID: e.cfg.RunID,
			Msg:   fmt.Sprintf("resuming: skipping completed phase(s) %v", meta.PhasesCompleted),
		})
	}

	e.runMeta = meta
	if e.runMeta.Status == runstate.StatusPending {
		e.runMeta.Status = runstate.StatusInProgress
	}

	if err := e.inner.StartAt(startNode); err != nil {
		return e.runMeta, nil, fmt.Errorf("workflow: %w", err)
	}

	finalState, err := e.inner.Run(ctx, e.cfg.RunID, initial)
	if err != nil {
		e.runMeta.Status = runstate.StatusFailed
		return e.runMeta, nil, err
	}

	switch {
	case finalState.Control.Phase == runstate.PhaseComplete:
		e.runMeta.Status = runstate.StatusCompleted
	case finalState.Control.ErrorCount >= runstate.MaxRetries:
		e.runMeta.Status = runstate.StatusFailed
	default:
		e.runMeta.Status = runstate.StatusPaused
	}
	e.runMeta.Phase = finalState.Control.Phase

	if _, err := e.cfg.Checkpoints.Save(e.cfg.RunID, finalState, e.runMeta); err != nil {
		return e.runMeta, finalState, fmt.Errorf("workflow: final checkpoint: %w", err)
	}
	return e.runMeta, finalState, nil
}

// portEmitter adapts an interaction.Port into an emit.Emitter so the
// inner graph engine's node_start/node_end/routing_decision events reach
// the same announce() channel the Interaction Port defines, rather than
// introducing a second observability path.
type portEmitter struct {
	port interaction.Port
}

func (p *portEmitter) Emit(event emit.Event) {
	p.port.Announce(event)
}

func (p *portEmitter) EmitBatch(_ context.Context, events []emit.Event) error {
	for _, e := range events {
		p.port.Announce(e)
	}
	return nil
}

func (p *portEmitter) Flush(_ context.Context) error { return nil }
