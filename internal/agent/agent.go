// Package agent implements the Agent Interface (spec.md §4.6): the four
// phase agents — Specification, Architect, Implementation, Governance — as
// plain functions matching Func, plus the narrow collaborator surface they
// are given (an LLM client, the Interaction Port, the Artifact Store, and
// the loaded constitution).
//
// Each phase agent is called exactly once per node and has no other
// lifecycle, so a function type is used here rather than an interface with
// multiple methods — narrower than graph.Node[S], which is built for
// reusable, policy-attached nodes.
package agent

import (
	"context"

	"github.com/acpctl/acp/internal/artifact"
	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/interaction"
	"github.com/acpctl/acp/internal/runstate"
)

// Collaborators bundles everything a phase agent is allowed to touch: it
// may call the LLM client any number of times, write artifacts through the
// Artifact Store, and use the Interaction Port to collect information from
// the user. Agents are pure with respect to the State they return — they
// do not mutate any of these collaborators' internal bookkeeping beyond
// what the collaborator's own API exposes.
type Collaborators struct {
	LLM          LLMClient
	Port         interaction.Port
	Artifacts    *artifact.Store
	Constitution *constitution.Constitution
	RunID        string
}

// Func is the shape every phase agent implements: given the current state
// and its collaborators, return the next state (or an error, which the
// workflow engine treats as a transient agent failure subject to retry).
type Func func(ctx context.Context, state *runstate.State, c Collaborators) (*runstate.State, error)
