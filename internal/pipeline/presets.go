package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hakim/sshenum/internal/models"
)

// Preset is a named target profile with pre-configured settings.
type Preset struct {
	Name        string
	Description string
	Oracle      models.OracleKind
	Threshold   time.Duration // timing oracle only
	Timeout     time.Duration // per-attempt; zero keeps the configured value
}

// builtinPresets is the registry of all known presets.
var builtinPresets = map[string]Preset{
	"cerberus-sftp": {
		Name:        "cerberus-sftp",
		Description: "Cerberus FTP Server SFTP before 6.0.9.0 / 7.0.0.2, allowed-methods discrepancy",
		Oracle:      models.OracleAuthMethod,
	},
	"openssh-timing": {
		Name:        "openssh-timing",
		Description: "OpenSSH password-hashing delay (CVE-2006-5229), internet latency",
		Oracle:      models.OracleTiming,
		Threshold:   10 * time.Second,
	},
	"openssh-timing-lan": {
		Name:        "openssh-timing-lan",
		Description: "OpenSSH password-hashing delay on a low-latency network",
		Oracle:      models.OracleTiming,
		Threshold:   2 * time.Second,
		Timeout:     5 * time.Second,
	},
}

// BuiltinPresets returns the available presets.
func BuiltinPresets() map[string]Preset {
	// Return a copy so callers cannot mutate the registry.
	out := make(map[string]Preset, len(builtinPresets))
	for k, v := range builtinPresets {
		out[k] = v
	}
	return out
}

// PresetNames returns the registry keys in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(builtinPresets))
	for k := range builtinPresets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// GetPreset returns a preset by name, or an error if not found.
func GetPreset(name string) (*Preset, error) {
	p, ok := builtinPresets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q, available: %s", name, strings.Join(PresetNames(), ", "))
	}
	cp := p
	return &cp, nil
}

// Apply returns cfg with the preset's oracle and threshold.
func (p *Preset) Apply(cfg models.ScanConfig) models.ScanConfig {
	cfg.Oracle = p.Oracle
	if p.Threshold > 0 {
		cfg.Threshold = p.Threshold
	}
	return cfg
}
