package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edgectl/edgectl/pkg/hostinfo"
	"github.com/edgectl/edgectl/pkg/lifecycle"
)

func newInstallCommand() *cobra.Command {
	var (
		containerOs     string
		proxy           string
		offlinePath     string
		restartIfNeeded bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the edge runtime and container engine",
		Long: `Install the edge runtime package on a host that has neither the
runtime nor the container engine.

The runtime package is downloaded unless an offline installation path
holds a matching artifact. Some hosts require a reboot before the
package is active; rerun install after the reboot to finish.`,
		Example: `  # Install for Windows containers
  edgectl install

  # Install for Linux containers behind a proxy
  edgectl install --container-os linux --proxy http://proxy:3128

  # Install from a pre-fetched artifact directory
  edgectl install --offline-installation-path D:\edge-offline`,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, cleanup, err := newOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := orch.Install(cmd.Context(), lifecycle.InstallRequest{
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
