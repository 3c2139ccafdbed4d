package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bacnet-alarm-relay/internal/config"
	"bacnet-alarm-relay/internal/service/relay"
	"bacnet-alarm-relay/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// alarmLogFile path of the CSV audit log.
	alarmLogFile string

	// rootCmd represents the base command for running the alarm relay.
	rootCmd = &cobra.Command{
		Use:   "alarm-relay [listen-address]",
		Short: "Run the virtual temperature sensor with alarm relay.",
		Long: `Starts the virtual sensor process: an HTTP intake for alarm events, the
append-only CSV audit log, per-source rate limiting, and SMS/email dispatch.

The intake listens on the configured address unless a listen address is
provided as argument (e.g. :47808, 0.0.0.0:8080). Every received alarm is
recorded in the audit log whether or not it was relayed; repeat alarms for
the same source inside the alert interval are suppressed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &relay.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				AlarmLogFile:  alarmLogFile,
			}

			return relay.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-relay CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&alarmLogFile, "alarm-log", "l", "", "path to the CSV alarm log (overrides config)")
}
