package config

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		ScanDir: "scans",
		DBPath:  "sshenum.db",
		SSH: SSHConfig{
			Port:    22,
			Timeout: "10s",
			Debug:   false,
			Proxies: []string{},
		},
		Enum: EnumConfig{
			Oracle:    "timing",
			RetryNum:  3,
			Threshold: "10s",
			Workers:   4,
		},
		Scope: ScopeConfig{
			AllowedHosts: []string{},
			AllowedCIDRs: []string{},
		},
	}
}

// WriteDefault writes a default configuration to the specified path
func WriteDefault(fs afero.Fs, path string) error {
	cfg := DefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
