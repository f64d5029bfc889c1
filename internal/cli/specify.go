package cli

import (
	"time"

	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/interaction"
	"github.com/acpctl/acp/internal/runstate"
	"github.com/spf13/cobra"
)

// NewSpecifyCmd creates the specify command.
func NewSpecifyCmd() *cobra.Command {
	var force, noBranch bool

	cmd := &cobra.Command{
		Use:   "specify <description>",
		Short: "Start a new run through the specification phase",
		Long: `Allocates a new run id from the feature description, runs the
Specification agent, validates the resulting spec against the project
constitution, and pauses after that governance check passes.

--force runs non-interactively: any pre-flight clarifying question or
governance failure that would otherwise prompt a human fails the command
instead of blocking on stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := AppFromContext(cmd.Context())
			return runSpecify(cmd, app, args[0], force, noBranch)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Run non-interactively; fail instead of prompting")
	cmd.Flags().BoolVar(&noBranch, "no-branch", false, "Skip creating a git branch for the new run")

	return cmd
}

func runSpecify(cmd *cobra.Command, app *App, description string, force, noBranch bool) error {
	c, err := constitution.Load(app.Root)
	if err != nil {
		return err
	}

	if force {
		app.Port = interaction.NewScripted()
	}

	ordinal, err := app.Artifacts.NextOrdinal()
	if err != nil {
		return err
	}
	meta := runstate.NewRun(ordinal, description, time.Now().UTC())

	if err := app.Artifacts.CreateRunDir(meta.ID); err != nil {
		return err
	}

	if !noBranch {
		if err := createBranch(cmd.Context(), app.Root, meta.ID); err != nil && app.Verbose {
			cmd.PrintErrf("warning: %v\n", err)
		}
	}

	state := runstate.New()
	state.Spec.Description = description
	state.Constitution.Text = c.Text

	finalMeta, finalState, err := runPhase(cmd, app, c, state, meta, runstate.PhaseSpecify)
	if err != nil {
		return err
	}
	return reportOutcome(cmd, app, finalMeta, finalState)
}
