package cli

import (
	"fmt"

	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/runstate"
	"github.com/acpctl/acp/internal/workflow"
	"github.com/spf13/cobra"
)

// runPhase builds a workflow.Engine scoped to one run and drives it from
// state/meta through stopAfter (or to completion, for resume's zero value),
// returning the updated metadata and final state.
func runPhase(cmd *cobra.Command, app *App, c *constitution.Constitution, state *runstate.State, meta runstate.Run, stopAfter runstate.Phase) (runstate.Run, *runstate.State, error) {
	cfg := workflow.Config{
		Root:         app.Root,
		RunID:        meta.ID,
		LLM:          app.LLM,
		Port:         app.Port,
		Artifacts:    app.Artifacts,
		Checkpoints:  app.Checkpoints,
		Constitution: c,
		Validator:    app.Validator,
		AllowIgnore:  app.AllowIgnore,
		StopAfter:    stopAfter,
		Metrics:      app.Metrics,
		JournalStore: app.JournalStore,
		Tracer:       app.Tracer,
	}

	engine, err := workflow.New(cfg)
	if err != nil {
		return meta, state, fmt.Errorf("cli: building workflow engine: %w", err)
	}

	return engine.Run(cmd.Context(), state, meta)
}

// resolveRunID returns arg if non-empty, otherwise the id of the latest
// checkpointed run.
func resolveRunID(app *App, arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	id, ok := app.Checkpoints.Latest()
	if !ok {
		return "", fmt.Errorf("cli: no runs found (start one with `acp specify`)")
	}
	return id, nil
}

// loadRun loads the checkpoint for runID along with the project
// constitution, used by every command that continues an existing run.
func loadRun(app *App, runID string) (runstate.Run, *runstate.State, *constitution.Constitution, error) {
	meta, state, err := app.Checkpoints.ByID(runID)
	if err != nil {
		return runstate.Run{}, nil, nil, err
	}
	c, err := constitution.Load(app.Root)
	if err != nil {
		return runstate.Run{}, nil, nil, err
	}
	return meta, state, c, nil
}

// reportOutcome prints a one-line summary of where the run landed and
// returns a non-nil error when the run ended failed, so Execute maps it to
// the correct exit code.
func reportOutcome(cmd *cobra.Command, app *App, meta runstate.Run, state *runstate.State) error {
	if app.Quiet {
		return outcomeError(meta)
	}
	switch meta.Status {
	case runstate.StatusCompleted:
		cmd.Printf("✓ %s complete\n", meta.ID)
	case runstate.StatusPaused:
		cmd.Printf("• %s paused after %s (next: %s)\n", meta.ID, meta.Phase, nextCommandFor(meta))
	case runstate.StatusFailed:
		cmd.PrintErrf("✗ %s failed at %s after %d retries\n", meta.ID, meta.Phase, runstate.MaxRetries)
		if state != nil && state.Control.LastError != nil {
			cmd.PrintErrf("  %s\n", state.Control.LastError.Message)
		}
	}
	if app.Cost != nil {
		if calls := app.Cost.GetCallHistory(); len(calls) > 0 {
			cmd.Printf("  cost: $%.4f across %d LLM call(s)\n", app.Cost.GetTotalCost(), len(calls))
		}
	}
	return outcomeError(meta)
}

func outcomeError(meta runstate.Run) error {
	if meta.Status == runstate.StatusFailed {
		return fmt.Errorf("cli: run %s failed at phase %s", meta.ID, meta.Phase)
	}
	return nil
}

// runContinuedPhase is the shared body of plan/implement/resume: resolve
// which run to act on, load its checkpoint, drive the engine to stopAfter
// (or to completion, for resume's empty stopAfter), and report the result.
func runContinuedPhase(cmd *cobra.Command, app *App, runIDArg string, stopAfter runstate.Phase) error {
	runID := runIDArg
	if runID == "" {
		runs, _ := app.Checkpoints.List()
		for _, r := range runs {
			if r.Status == runstate.StatusPaused {
				runID = r.ID
				break
			}
		}
		if runID == "" {
			return fmt.Errorf("cli: no paused runs found (start one with `acp specify`)")
		}
	}
	meta, state, c, err := loadRun(app, runID)
	if err != nil {
		return err
	}

	finalMeta, finalState, err := runPhase(cmd, app, c, state, meta, stopAfter)
	if err != nil {
		return err
	}
	return reportOutcome(cmd, app, finalMeta, finalState)
}

// nextCommandFor suggests the next acp command to run for a paused run, per
// spec.md §7's "user-visible failure always includes... a suggested next
// command" — applied here to the ordinary pause case too.
func nextCommandFor(meta runstate.Run) string {
	switch meta.Phase {
	case runstate.PhaseSpecify:
		return fmt.Sprintf("acp plan %s", meta.ID)
	case runstate.PhasePlan:
		return fmt.Sprintf("acp implement %s", meta.ID)
	case runstate.PhaseImplement:
		return fmt.Sprintf("acp resume %s", meta.ID)
	default:
		return fmt.Sprintf("acp resume %s", meta.ID)
	}
}
