package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLogsCommand() *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Read the runtime's event log records",
		Long: `Print the runtime's host event log records, oldest first. Use this
to inspect startup and provisioning problems when the service will not
stay up.`,
		Example: `  # Records from the last day
  edgectl logs

  # Records from the last 15 minutes
  edgectl logs --since 15m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, cleanup, err := newOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := orch.GetLogs(cmd.Context(), time.Now().Add(-since))
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s [%s] %s\n", e.Timestamp.Format(time.RFC3339), e.Level, e.Message)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "how far back to read")

	return cmd
}
