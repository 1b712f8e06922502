package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edgectl/edgectl/pkg/hostinfo"
	"github.com/edgectl/edgectl/pkg/lifecycle"
)

func newUpdateCommand() *cobra.Command {
	var (
		containerOs     string
		proxy           string
		offlinePath     string
		restartIfNeeded bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the edge runtime in place",
		Long: `Replace the installed runtime package with the current one. The
device configuration is preserved; only the binaries change.

A legacy installation cannot be updated in place and must be
uninstalled and installed again.`,
		Example: `  # Update from the release location
  edgectl update

  # Update from a pre-fetched artifact directory
  edgectl update --offline-installation-path D:\edge-offline`,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, cleanup, err := newOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := orch.Update(cmd.Context(), lifecycle.UpdateRequest{
				ContainerOs:             hostinfo.ContainerOs(containerOs),
				Proxy:                   proxy,
				OfflineInstallationPath: offlinePath,
				RestartIfNeeded:         restartIfNeeded,
			})
			if err != nil {
				return err
			}
			if res.RestartRequired {
				log.Warn().Msg("Reboot required")
			}
			fmt.Println(res.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&containerOs, "container-os", "windows", "container mode (windows or linux)")
	cmd.Flags().StringVar(&proxy, "proxy", "", "proxy URL for downloads")
	cmd.Flags().StringVar(&offlinePath, "offline-installation-path", "", "directory with pre-fetched artifacts")
	cmd.Flags().BoolVar(&restartIfNeeded, "restart-if-needed", false, "accept that the host may need a reboot")

	return cmd
}
