package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the updater binary.
type Config struct {
	// PluginID is the identity of the plugin this updater manages.
	PluginID string `yaml:"plugin_id"`
	// TargetBuild is the host build the update must be compatible with.
	TargetBuild string `yaml:"target_build"`
	// ChannelHost is the URL of the early-access repository host.
	ChannelHost string `yaml:"channel_host"`
	// HostsFile is the path to the YAML file storing registered hosts.
	HostsFile string `yaml:"hosts_file"`
	// PendingFile is the path to the YAML file tracking pending installs.
	PendingFile string `yaml:"pending_file"`
	// InstallDir is the directory where plugin artifacts are applied.
	InstallDir string `yaml:"install_dir"`
	// Timeout is the duration for network operations.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for updater settings.
	DefaultConfigFilename = "eap-updater-settings.yaml"

	// DefaultHostsFilename is the default filename for the registered hosts set.
	DefaultHostsFilename = "eap-updater-hosts.yaml"

	// DefaultPendingFilename is the default filename for pending install entries.
	DefaultPendingFilename = "eap-updater-pending.yaml"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPluginIDRequired is returned when the plugin identity is missing.
	errPluginIDRequired = errors.New("plugin id must be provided")
	// errChannelHostRequired is returned when the channel host URL is missing.
	errChannelHostRequired = errors.New("channel host must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.PluginID == "" {
		return errPluginIDRequired
	}

	if cfg.ChannelHost == "" {
		return errChannelHostRequired
	}

	if _, err := url.ParseRequestURI(cfg.ChannelHost); err != nil {
		return fmt.Errorf("invalid channel host URL: %w", err)
	}

	if cfg.HostsFile == "" {
		cfg.HostsFile = DefaultHostsFilename
	}

	if cfg.PendingFile == "" {
		cfg.PendingFile = DefaultPendingFilename
	}

	if cfg.InstallDir == "" {
		cfg.InstallDir = "."
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}
