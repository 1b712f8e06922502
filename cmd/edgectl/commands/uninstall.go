package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edgectl/edgectl/pkg/lifecycle"
)

func newUninstallCommand() *cobra.Command {
	var (
		force        bool
		deleteConfig bool
		deleteData   bool
	)

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the edge runtime and its artifacts",
		Long: `Stop the runtime, remove its containers, packages, directories and
host configuration. Every step runs even when an earlier one fails;
failures are reported at the end.

The device configuration is preserved by default so a later install
can reuse it with 'edgectl init --existing-config'.`,
		Example: `  # Remove the runtime, keep the device configuration
  edgectl uninstall

  # Remove everything including configuration and container data
  edgectl uninstall --delete-config --delete-data

  # Clean a host with install residue
  edgectl uninstall --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, cleanup, err := newOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := orch.Uninstall(cmd.Context(), lifecycle.UninstallRequest{
				Force:        force,
				DeleteConfig: deleteConfig,
				DeleteData:   deleteData,
			})
			if err != nil {
				return err
			}
			if report.RestartRequired {
				log.Warn().Msg("Reboot required to finish releasing resources")
			}
			fmt.Println("runtime uninstalled")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "proceed even when nothing is installed")
	cmd.Flags().BoolVar(&deleteConfig, "delete-config", false, "also remove the device configuration")
	cmd.Flags().BoolVar(&deleteData, "delete-data", false, "also remove all containers and container data")

	return cmd
}
