package updater

import (
	"context"
	"net/http"
	"strings"

	"github.com/oshokin/eap-updater/internal/config"
	"github.com/oshokin/eap-updater/internal/logger"
	"github.com/oshokin/eap-updater/internal/repository/hosts"
	"github.com/oshokin/eap-updater/internal/repository/plugins"
	"github.com/oshokin/eap-updater/internal/service/channel"
	"github.com/oshokin/eap-updater/internal/service/installer"
	"github.com/oshokin/eap-updater/internal/service/scanner"
	"github.com/oshokin/eap-updater/internal/version"
)

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// InstalledVersion overrides the detected plugin version.
	InstalledVersion string
}

// Run executes one toggle cycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "eap-updater")

	flow, err := buildFlow(opts)
	if err != nil {
		return err
	}

	if err = flow.Toggle(ctx); err != nil {
		logger.ErrorKV(ctx, "Toggle failed", "error", err)
		return err
	}

	logger.InfoKV(ctx, "Toggle completed", "state", flow.State().String())

	return nil
}

// Status reports whether the early-access channel is currently subscribed.
func Status(ctx context.Context, opts *Options) (bool, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return false, err
	}

	registry := hosts.NewFileRegistry(cfg.HostsFile)

	return channel.NewService(registry, cfg.ChannelHost).IsSubscribed(ctx)
}

// buildFlow wires the decision flow from configuration.
func buildFlow(opts *Options) (*Flow, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	installedVersion := strings.TrimSpace(opts.InstalledVersion)
	if installedVersion == "" {
		installedVersion = version.Short()
	}

	client := &http.Client{Timeout: cfg.Timeout}
	registry := hosts.NewFileRegistry(cfg.HostsFile)
	tracker := plugins.NewFileTracker(cfg.PendingFile, cfg.InstallDir, client)

	return NewFlow(
		channel.NewService(registry, cfg.ChannelHost),
		scanner.NewScanner(client),
		installer.NewTask(tracker),
		NewTerminalConfirmer(),
		NewLogSink(),
		cfg.PluginID,
		cfg.TargetBuild,
		installedVersion,
	), nil
}
