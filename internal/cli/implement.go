package cli

import (
	"github.com/acpctl/acp/internal/runstate"
	"github.com/spf13/cobra"
)

// NewImplementCmd creates the implement command.
func NewImplementCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "implement [run-id]",
		Short: "Run the implementation phase for a run",
		Long: `Resumes the named run (or the latest paused run, if no id is given)
at the implementation phase: runs the TDD Implementation agent and its
governance check, which completes the run on success.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := AppFromContext(cmd.Context())
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			return runContinuedPhase(cmd, app, arg, runstate.PhaseImplement)
		},
	}
	return cmd
}
