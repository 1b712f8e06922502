package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgectl/edgectl/pkg/hostinfo"
	"github.com/edgectl/edgectl/pkg/journal"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past lifecycle operations",
		Long: `List recorded install, init, update and uninstall runs with their
outcomes, newest first.`,
		Example: `  # The last 20 operations
  edgectl history

  # Only the most recent
  edgectl history --limit 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.Open(cmd.Context(), journalPath(hostinfo.DefaultLayout()))
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				status := "running"
				if e.FinishedAt != nil {
					status = "failed"
					if e.Success {
						status = "ok"
					}
					if e.RestartRequired {
						status += " (reboot required)"
					}
				}
				fmt.Printf("%s  %-10s %-20s %s\n",
					e.StartedAt.Local().Format(time.RFC3339), e.Operation, status, e.Detail)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")

	return cmd
}
