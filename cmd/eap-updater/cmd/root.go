package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/eap-updater/internal/config"
	"github.com/oshokin/eap-updater/internal/service/updater"
	"github.com/oshokin/eap-updater/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// installedVersion overrides the detected plugin version.
	installedVersion string

	// rootCmd represents the base command toggling early-access membership.
	rootCmd = &cobra.Command{
		Use:   "eap-updater",
		Short: "Toggle the early-access channel and install newer plugin builds",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &updater.Options{
				ConfigPath:       configPath,
				InstalledVersion: installedVersion,
			}

			return updater.Run(ctx, options)
		},
	}

	// statusCmd reports the current subscription state.
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print whether the early-access channel is subscribed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subscribed, err := updater.Status(cmd.Context(), &updater.Options{ConfigPath: configPath})
			if err != nil {
				return err
			}

			if subscribed {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "subscribed")
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "not subscribed")
			}

			return nil
		},
	}
)

// Execute runs the eap-updater CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&installedVersion, "installed", "", "currently installed plugin version (defaults to build version)")
	rootCmd.AddCommand(statusCmd)
}
