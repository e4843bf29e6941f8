package main

import (
	"slices"
	"testing"
	"time"

	"github.com/hakim/sshenum/internal/config"
	"github.com/hakim/sshenum/internal/diff"
	"github.com/hakim/sshenum/internal/models"
	"github.com/spf13/cobra"
)

func newProbeCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cfg = config.DefaultConfig()
	t.Cleanup(func() { cfg = nil })

	cmd := &cobra.Command{Use: "test"}
	addProbeFlags(cmd)
	for k, v := range flags {
		if err := cmd.Flags().Set(k, v); err != nil {
			t.Fatalf("set --%s: %v", k, err)
		}
	}
	return cmd
}

func TestResolveProbeSettingsPrecedence(t *testing.T) {
	cmd := newProbeCmd(t, map[string]string{
		"preset":    "openssh-timing-lan",
		"threshold": "3",
		"retry":     "0",
	})

	scanCfg, timeout, err := resolveProbeSettings(cmd)
	if err != nil {
		t.Fatalf("resolveProbeSettings: %v", err)
	}
	if scanCfg.Oracle != models.OracleTiming {
		t.Errorf("Oracle = %s, want timing", scanCfg.Oracle)
	}
	if scanCfg.Threshold != 3*time.Second {
		t.Errorf("Threshold = %s, want the flag value 3s", scanCfg.Threshold)
	}
	if scanCfg.RetryNum != 0 {
		t.Errorf("RetryNum = %d, want 0", scanCfg.RetryNum)
	}
	if timeout != 5*time.Second {
		t.Errorf("timeout = %s, want the preset value 5s", timeout)
	}
}

func TestResolveProbeSettingsRejectsUnknownOracle(t *testing.T) {
	cmd := newProbeCmd(t, map[string]string{"oracle": "banner"})
	if _, _, err := resolveProbeSettings(cmd); err == nil {
		t.Fatal("unknown oracle accepted")
	}
}

func TestResolveTargets(t *testing.T) {
	cmd := newProbeCmd(t, map[string]string{
		"target": "10.0.0.5,10.0.0.5:22,10.0.0.6:2222",
		"port":   "22",
		"debug":  "true",
	})

	targets, err := resolveTargets(cmd, 4*time.Second)
	if err != nil {
		t.Fatalf("resolveTargets: %v", err)
	}
	var got []string
	for _, tgt := range targets {
		got = append(got, tgt.String())
		if tgt.Timeout != 4*time.Second || !tgt.Debug {
			t.Errorf("%s: timeout %s debug %v", tgt, tgt.Timeout, tgt.Debug)
		}
	}
	if want := []string{"10.0.0.5:22", "10.0.0.6:2222"}; !slices.Equal(got, want) {
		t.Fatalf("targets = %v, want %v", got, want)
	}

	if _, err := resolveTargets(newProbeCmd(t, nil), time.Second); err == nil {
		t.Fatal("no targets accepted")
	}
}

func TestRestrictSnapshot(t *testing.T) {
	a := models.Target{Host: "10.0.0.5", Port: 22}
	b := models.Target{Host: "10.0.0.6", Port: 22}

	meta := &models.ScanMeta{ID: "s1", Summaries: []models.TargetSummary{
		{Target: a.String(), Gate: models.GateVulnerable},
		{Target: b.String(), Gate: models.GateSafe},
	}}
	snap := diff.NewSnapshot(meta,
		[]*models.Finding{models.NewFinding("s1", a, "root", models.OracleAuthMethod), models.NewFinding("s1", b, "admin", models.OracleAuthMethod)},
		[]*models.ServiceInfo{{Host: b.Host, Port: b.Port, Info: "SSH-2.0-X"}})

	got := restrictSnapshot(snap, a.String())
	if len(got.Findings) != 1 || got.Findings[0].Username != "root" {
		t.Errorf("Findings = %+v", got.Findings)
	}
	if len(got.Services) != 0 {
		t.Errorf("Services = %+v", got.Services)
	}
	if len(got.Scan.Summaries) != 1 || got.Scan.Summaries[0].Target != a.String() {
		t.Errorf("Summaries = %+v", got.Scan.Summaries)
	}
	if len(meta.Summaries) != 2 {
		t.Error("restrictSnapshot modified the stored scan")
	}
}
