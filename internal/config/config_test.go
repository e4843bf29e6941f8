package config

import (
	"strings"
	"testing"
	"time"

	"github.com/hakim/sshenum/internal/models"
	"github.com/spf13/afero"
)

func TestWriteDefaultRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := WriteDefault(fs, "/etc/sshenum.yaml"); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	cfg, err := LoadFS(fs, "/etc/sshenum.yaml")
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if cfg.SSH.Port != 22 || cfg.Enum.RetryNum != 3 || cfg.Enum.Workers != 4 {
		t.Fatalf("loaded defaults = %+v", cfg)
	}

	sc, err := cfg.ScanConfig()
	if err != nil {
		t.Fatalf("ScanConfig: %v", err)
	}
	if sc.Oracle != models.OracleTiming || sc.Threshold != 10*time.Second {
		t.Fatalf("ScanConfig = %+v", sc)
	}
}

func TestLoadPartialFileUsesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `
ssh:
  timeout: 5
  proxies: ["socks5:127.0.0.1:9050"]
enum:
  oracle: authmethod
`
	if err := afero.WriteFile(fs, "cfg.yaml", []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFS(fs, "cfg.yaml")
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if cfg.ScanDir != "scans" || cfg.SSH.Port != 22 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if d, _ := cfg.Timeout(); d != 5*time.Second {
		t.Errorf("Timeout() = %v, want 5s", d)
	}
	sc, err := cfg.ScanConfig()
	if err != nil {
		t.Fatalf("ScanConfig: %v", err)
	}
	if sc.Oracle != models.OracleAuthMethod || len(sc.Proxies) != 1 {
		t.Errorf("ScanConfig = %+v", sc)
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SSH.Port = 70000
	cfg.SSH.Timeout = "soon"
	cfg.Enum.Oracle = "banner"
	cfg.Enum.Workers = 0
	cfg.Scope.AllowedCIDRs = []string{"10.0.0.0/33"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, want := range []string{"ssh.port", "ssh.timeout", "enum.oracle", "enum.workers", "10.0.0.0/33"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"10":    10 * time.Second,
		"2.5":   2500 * time.Millisecond,
		"10s":   10 * time.Second,
		"1m30s": 90 * time.Second,
		"500ms": 500 * time.Millisecond,
	}
	for in, want := range tests {
		got, err := ParseDuration(in)
		if err != nil || got != want {
			t.Errorf("ParseDuration(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDuration("ten"); err == nil {
		t.Error("ParseDuration(\"ten\") succeeded")
	}
}

func TestLoadFSMissingFile(t *testing.T) {
	if _, err := LoadFS(afero.NewMemMapFs(), "nope.yaml"); err == nil {
		t.Fatal("LoadFS succeeded on a missing file")
	}
}
