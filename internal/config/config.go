package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/pipeline"
	"github.com/hakim/sshenum/internal/probe"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	ScanDir string       `mapstructure:"scan_dir" yaml:"scan_dir"`
	DBPath  string       `mapstructure:"db_path" yaml:"db_path"`
	SSH     SSHConfig    `mapstructure:"ssh" yaml:"ssh"`
	Enum    EnumConfig   `mapstructure:"enum" yaml:"enum"`
	Scope   ScopeConfig  `mapstructure:"scope" yaml:"scope"`
	Notify  NotifyConfig `mapstructure:"notify" yaml:"notify"`
}

// SSHConfig holds connection settings shared by every target.
type SSHConfig struct {
	Port    int      `mapstructure:"port" yaml:"port"`
	Timeout string   `mapstructure:"timeout" yaml:"timeout"` // "10s"; a bare number means seconds
	Debug   bool     `mapstructure:"debug" yaml:"debug"`
	Proxies []string `mapstructure:"proxies" yaml:"proxies"`
}

// EnumConfig holds the enumeration settings.
type EnumConfig struct {
	Oracle    string `mapstructure:"oracle" yaml:"oracle"`
	RetryNum  int    `mapstructure:"retry_num" yaml:"retry_num"`
	Threshold string `mapstructure:"threshold" yaml:"threshold"`
	Workers   int    `mapstructure:"workers" yaml:"workers"`
}

// ScopeConfig lists the hosts and networks scans may touch.
type ScopeConfig struct {
	AllowedHosts []string `mapstructure:"allowed_hosts" yaml:"allowed_hosts"`
	AllowedCIDRs []string `mapstructure:"allowed_cidrs" yaml:"allowed_cidrs"`
}

// NotifyConfig holds completion notification settings.
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
}

// Load reads and parses configuration from a YAML file
// If path is empty, searches for sshenum.yaml in current directory and ~/.config/sshenum/
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

// LoadFS is Load against an arbitrary filesystem. path must be set.
func LoadFS(fs afero.Fs, path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	v := viper.New()
	v.SetFs(fs)
	return load(v, path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		// Use explicit path
		v.SetConfigFile(path)
	} else {
		// Search for config in default locations
		v.SetConfigName("sshenum")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "sshenum"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults lets a config file omit any key.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("scan_dir", d.ScanDir)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("ssh.port", d.SSH.Port)
	v.SetDefault("ssh.timeout", d.SSH.Timeout)
	v.SetDefault("ssh.debug", d.SSH.Debug)
	v.SetDefault("ssh.proxies", d.SSH.Proxies)
	v.SetDefault("enum.oracle", d.Enum.Oracle)
	v.SetDefault("enum.retry_num", d.Enum.RetryNum)
	v.SetDefault("enum.threshold", d.Enum.Threshold)
	v.SetDefault("enum.workers", d.Enum.Workers)
	v.SetDefault("scope.allowed_hosts", d.Scope.AllowedHosts)
	v.SetDefault("scope.allowed_cidrs", d.Scope.AllowedCIDRs)
	v.SetDefault("notify.webhook_url", d.Notify.WebhookURL)
}

// ParseDuration accepts Go durations ("1m30s") and bare numbers of seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := cast.ToFloat64E(s); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := cast.ToDurationE(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// Timeout returns the per-attempt timeout.
func (c *Config) Timeout() (time.Duration, error) {
	return ParseDuration(c.SSH.Timeout)
}

// Threshold returns the timing threshold.
func (c *Config) Threshold() (time.Duration, error) {
	return ParseDuration(c.Enum.Threshold)
}

// ScanConfig builds the immutable per-scan configuration from the file values.
func (c *Config) ScanConfig() (models.ScanConfig, error) {
	threshold, err := c.Threshold()
	if err != nil {
		return models.ScanConfig{}, fmt.Errorf("enum.threshold: %w", err)
	}
	oracle, ok := models.ParseOracleKind(c.Enum.Oracle)
	if !ok {
		return models.ScanConfig{}, fmt.Errorf("enum.oracle: unknown oracle %q", c.Enum.Oracle)
	}
	return models.ScanConfig{
		Oracle:    oracle,
		RetryNum:  c.Enum.RetryNum,
		Threshold: threshold,
		Proxies:   append([]string(nil), c.SSH.Proxies...),
	}, nil
}

// ScopeRules converts the scope section for the pipeline.
func (c *Config) ScopeRules() *pipeline.ScopeConfig {
	return &pipeline.ScopeConfig{
		AllowedHosts: c.Scope.AllowedHosts,
		AllowedCIDRs: c.Scope.AllowedCIDRs,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.ScanDir == "" {
		errs = append(errs, errors.New("scan_dir cannot be empty"))
	}

	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path cannot be empty"))
	}

	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		errs = append(errs, fmt.Errorf("ssh.port %d is out of range", c.SSH.Port))
	}

	if d, err := c.Timeout(); err != nil {
		errs = append(errs, fmt.Errorf("ssh.timeout: %w", err))
	} else if d <= 0 {
		errs = append(errs, errors.New("ssh.timeout must be positive"))
	}

	for _, p := range c.SSH.Proxies {
		if _, err := probe.ParseProxy(p); err != nil {
			errs = append(errs, fmt.Errorf("ssh.proxies: %w", err))
		}
	}

	if _, ok := models.ParseOracleKind(c.Enum.Oracle); !ok {
		errs = append(errs, fmt.Errorf("enum.oracle must be %q or %q", models.OracleTiming, models.OracleAuthMethod))
	}

	if c.Enum.RetryNum < 0 {
		errs = append(errs, errors.New("enum.retry_num cannot be negative"))
	}

	if d, err := c.Threshold(); err != nil {
		errs = append(errs, fmt.Errorf("enum.threshold: %w", err))
	} else if d <= 0 {
		errs = append(errs, errors.New("enum.threshold must be positive"))
	}

	if c.Enum.Workers <= 0 {
		errs = append(errs, errors.New("enum.workers must be positive"))
	}

	if err := c.ScopeRules().Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
