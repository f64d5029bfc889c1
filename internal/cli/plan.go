package cli

import (
	"github.com/acpctl/acp/internal/runstate"
	"github.com/spf13/cobra"
)

// NewPlanCmd creates the plan command.
func NewPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [run-id]",
		Short: "Run the planning phase for a run",
		Long: `Resumes the named run (or the latest paused run, if no id is given)
at the planning phase: runs the Architect agent and its governance check,
then pauses again once that check passes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := AppFromContext(cmd.Context())
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			return runContinuedPhase(cmd, app, arg, runstate.PhasePlan)
		},
	}
	return cmd
}
