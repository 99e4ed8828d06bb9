// Package config loads process configuration from LANVAULT_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full process configuration. Every field has a default
// suitable for a single-box NAS; the storage root falls back to ~/vault.
type Config struct {
	Port int    `default:"8686"`
	Root string `default:""`

	MaxUploadMiB    int64 `envconfig:"MAX_UPLOAD_MIB" default:"50"`
	PreviewLimitMiB int64 `envconfig:"PREVIEW_LIMIT_MIB" default:"5"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	TerminalShell       string `envconfig:"TERMINAL_SHELL" default:""`
	TerminalIdleMinutes int    `envconfig:"TERMINAL_IDLE_MINUTES" default:"10"`

	Discovery    bool   `default:"true"`
	InstanceName string `envconfig:"INSTANCE_NAME" default:"lanvault"`

	// When SFTPAddr is set the storage root lives on the remote host and
	// Root is interpreted as a path there.
	SFTPAddr     string `envconfig:"SFTP_ADDR" default:""`
	SFTPUser     string `envconfig:"SFTP_USER" default:""`
	SFTPPassword string `envconfig:"SFTP_PASSWORD" default:""`
}

// Load reads the environment and fills in derived defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("lanvault", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.Root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("load config: no storage root and no home directory: %w", err)
		}
		cfg.Root = filepath.Join(home, "vault")
	}

	if cfg.SFTPAddr != "" && cfg.SFTPUser == "" {
		return nil, fmt.Errorf("load config: LANVAULT_SFTP_ADDR set without LANVAULT_SFTP_USER")
	}

	return &cfg, nil
}

// MaxUploadBytes converts the configured MiB limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMiB << 20
}

// PreviewLimitBytes converts the configured MiB limit to bytes.
func (c *Config) PreviewLimitBytes() int64 {
	return c.PreviewLimitMiB << 20
}

// TerminalIdleTimeout returns the idle timeout as a duration.
func (c *Config) TerminalIdleTimeout() time.Duration {
	return time.Duration(c.TerminalIdleMinutes) * time.Minute
}
