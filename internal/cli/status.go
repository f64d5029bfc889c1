package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/acpctl/acp/internal/runstate"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status [run-id]",
		Short: "Print current phase, phases completed, timestamps, next action",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := AppFromContext(cmd.Context())
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			runID, err := resolveRunID(app, arg)
			if err != nil {
				return err
			}
			meta, _, err := app.Checkpoints.ByID(runID)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, meta)
			}
			printStatus(cmd, meta)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print machine-readable JSON instead of a formatted table")
	return cmd
}

// printJSON marshals v with stable indentation and writes it to cmd's
// configured output, matching checkpoint.Store.Save's own
// json.MarshalIndent convention so status/history output reads the same
// way the on-disk checkpoint does.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cli: marshaling JSON output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printStatus(cmd *cobra.Command, meta runstate.Run) {
	completed := make([]string, len(meta.PhasesCompleted))
	for i, p := range meta.PhasesCompleted {
		completed[i] = string(p)
	}

	cmd.Printf("run:       %s\n", meta.ID)
	cmd.Printf("phase:     %s\n", meta.Phase)
	cmd.Printf("status:    %s\n", meta.Status)
	cmd.Printf("completed: %s\n", strings.Join(completed, ", "))
	cmd.Printf("created:   %s\n", meta.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	cmd.Printf("updated:   %s\n", meta.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))

	if meta.Status.Terminal() {
		return
	}
	cmd.Printf("next:      %s\n", nextCommandFor(meta))
}
