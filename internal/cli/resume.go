package cli

import (
	"github.com/acpctl/acp/internal/runstate"
	"github.com/spf13/cobra"
)

// NewResumeCmd creates the resume command.
func NewResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume [run-id]",
		Short: "Resume the latest paused run, or the one named",
		Long: `Loads the checkpoint for the given run (or the latest paused run, if
no id is given), announces any phases already completed as skipped, and
drives the run to completion from wherever it left off.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := AppFromContext(cmd.Context())
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			// The zero Phase value tells runPhase/workflow.Config to run to
			// completion rather than stop after a single phase.
			return runContinuedPhase(cmd, app, arg, runstate.Phase(""))
		},
	}
	return cmd
}
