package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edgectl/edgectl/pkg/hostinfo"
	"github.com/edgectl/edgectl/pkg/lifecycle"
)

func newInitCommand() *cobra.Command {
	var (
		containerOs      string
		connectionString string
		scopeID          string
		registrationID   string
		globalEndpoint   string
		existingConfig   bool
		agentImage       string
		registry         string
		username         string
		password         string
		hostname         string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Provision the device and start the runtime",
		Long: `Write the runtime configuration, publish the endpoint environment
and start the runtime service.

The provisioning source is picked from the flags: a connection string
selects manual provisioning, a scope ID selects provisioning through
the device provisioning service, and --existing-config reuses the
document already on disk. An existing configuration is never
overwritten; uninstall with --delete-config to reprovision.`,
		Example: `  # Provision with a device connection string
  edgectl init --connection-string "HostName=...;DeviceId=...;SharedAccessKey=..."

  # Provision through the device provisioning service
  edgectl init --scope-id 0ne000EDGE --registration-id device-1

  # Reuse a configuration preserved by a previous uninstall
  edgectl init --existing-config

  # Pull the agent from a private registry
  edgectl init --connection-string "..." \
    --agent-image myregistry.azurecr.io/azureiotedge-agent:1.0 \
    --registry myregistry.azurecr.io --username puller --password s3cret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, cleanup, err := newOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			provisioning := lifecycle.ProvisioningSpec{Mode: lifecycle.ProvisioningManual}
			switch {
			case existingConfig:
				provisioning.Mode = lifecycle.ProvisioningExisting
			case scopeID != "" || registrationID != "":
				provisioning = lifecycle.ProvisioningSpec{
					Mode:           lifecycle.ProvisioningDPS,
					GlobalEndpoint: globalEndpoint,
					ScopeID:        scopeID,
					RegistrationID: registrationID,
				}
			default:
				provisioning.ConnectionString = connectionString
			}

			res, err := orch.Initialize(cmd.Context(), lifecycle.InitializeRequest{
				ContainerOs:  hostinfo.ContainerOs(containerOs),
				Provisioning: provisioning,
				Agent: lifecycle.RegistryCredential{
					Image:    agentImage,
					Registry: registry,
					Username: username,
					Password: password,
				},
				Hostname: hostname,
			})
			if err != nil {
				return err
			}
			fmt.Println(res.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&containerOs, "container-os", "windows", "container mode (windows or linux)")
	cmd.Flags().StringVar(&connectionString, "connection-string", "", "device connection string (manual provisioning)")
	cmd.Flags().StringVar(&scopeID, "scope-id", "", "device provisioning service scope ID")
	cmd.Flags().StringVar(&registrationID, "registration-id", "", "device provisioning service registration ID")
	cmd.Flags().StringVar(&globalEndpoint, "global-endpoint", "", "device provisioning service endpoint override")
	cmd.Flags().BoolVar(&existingConfig, "existing-config", false, "reuse the configuration already on disk")
	cmd.Flags().StringVar(&agentImage, "agent-image", "", "agent container image")
	cmd.Flags().StringVar(&registry, "registry", "", "registry server for pulling the agent image")
	cmd.Flags().StringVar(&username, "username", "", "registry username")
	cmd.Flags().StringVar(&password, "password", "", "registry password")
	cmd.Flags().StringVar(&hostname, "hostname", "", "edge device hostname (defaults to the host name)")

	return cmd
}
