package cli

import (
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List all runs, most-recent-first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := AppFromContext(cmd.Context())
			runs, warnings := app.Checkpoints.List()

			for _, w := range warnings {
				cmd.PrintErrf("warning: %s\n", w)
			}
			if asJSON {
				return printJSON(cmd, runs)
			}
			if len(runs) == 0 {
				cmd.Println("no runs found")
				return nil
			}
			for _, meta := range runs {
				cmd.Printf("%-40s %-12s %-12s %s\n", meta.ID, meta.Status, meta.Phase, meta.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print machine-readable JSON instead of a formatted table")
	return cmd
}
