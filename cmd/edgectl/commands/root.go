package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edgectl/edgectl/pkg/telemetry"
)

var (
	// Global flags
	logLevel    string
	logFormat   string
	enableTrace bool
)

// cliVersion is shown by --version and attached to tracer spans.
var cliVersion = "dev"

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	cliVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "edgectl",
		Short: "edgectl - Edge runtime installer",
		Long: `edgectl installs, provisions, updates and removes the Azure IoT Edge
runtime on Windows hosts.

Commands:
  install    - install the runtime and its container engine
  init       - provision the device and start the runtime
  update     - update the runtime package in place
  uninstall  - remove the runtime, containers and data
  logs       - read the runtime's event log records
  history    - show past lifecycle operations`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := telemetry.Setup(telemetry.LoggingConfig{
				Level:  logLevel,
				Format: logFormat,
				Output: "stderr",
			})
			if err != nil {
				return err
			}
			log.Logger = logger
			return nil
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console or json)")
	rootCmd.PersistentFlags().BoolVar(&enableTrace, "trace", false, "emit an operation trace to stdout")

	// Add subcommands
	rootCmd.AddCommand(newInstallCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newUpdateCommand())
	rootCmd.AddCommand(newUninstallCommand())
	rootCmd.AddCommand(newLogsCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
