package diff

import (
	"slices"
	"testing"

	"github.com/hakim/sshenum/internal/models"
	"github.com/spf13/afero"
)

func snapshot(id string, gates map[string]models.GateResult, found map[models.Target][]string, banner string) *Snapshot {
	meta := &models.ScanMeta{ID: id}
	for target, gate := range gates {
		meta.Summaries = append(meta.Summaries, models.TargetSummary{Target: target, Gate: gate})
	}
	var findings []*models.Finding
	var services []*models.ServiceInfo
	for t, users := range found {
		for _, u := range users {
			findings = append(findings, models.NewFinding(id, t, u, models.OracleAuthMethod))
		}
		if banner != "" {
			services = append(services, &models.ServiceInfo{ScanID: id, Host: t.Host, Port: t.Port, Info: banner})
		}
	}
	return NewSnapshot(meta, findings, services)
}

var (
	hostA = models.Target{Host: "10.0.0.5", Port: 22}
	hostB = models.Target{Host: "10.0.0.6", Port: 22}
)

func TestComputeDiff(t *testing.T) {
	prev := snapshot("old",
		map[string]models.GateResult{hostA.String(): models.GateVulnerable, hostB.String(): models.GateVulnerable},
		map[models.Target][]string{hostA: {"root", "admin"}, hostB: {"svc"}},
		"SSH-2.0-CerberusFTPServer_6.0")
	curr := snapshot("new",
		map[string]models.GateResult{hostA.String(): models.GateVulnerable, hostB.String(): models.GateSafe},
		map[models.Target][]string{hostA: {"root", "backup"}},
		"SSH-2.0-CerberusFTPServer_7.0")

	dr := ComputeDiff(curr, prev)

	if dr.CurrentScanID != "new" || dr.PreviousScanID != "old" {
		t.Errorf("scan ids = %s/%s", dr.CurrentScanID, dr.PreviousScanID)
	}
	if dr.CurrentFoundCount != 2 || dr.PreviousFoundCount != 3 {
		t.Errorf("counts = %d/%d", dr.CurrentFoundCount, dr.PreviousFoundCount)
	}
	if len(dr.Targets) != 2 || !dr.HasChanges() {
		t.Fatalf("Targets = %+v", dr.Targets)
	}

	a := dr.Targets[0]
	if a.Target != hostA.String() {
		t.Fatalf("Targets not sorted: %s first", a.Target)
	}
	if !slices.Equal(a.NewUsers, []string{"backup"}) || !slices.Equal(a.GoneUsers, []string{"admin"}) || a.Unchanged != 1 {
		t.Errorf("A = %+v", a)
	}
	if a.VersionBefore != "SSH-2.0-CerberusFTPServer_6.0" || a.VersionAfter != "SSH-2.0-CerberusFTPServer_7.0" {
		t.Errorf("A versions = %q -> %q", a.VersionBefore, a.VersionAfter)
	}

	b := dr.Targets[1]
	if b.GateBefore != models.GateVulnerable || b.GateAfter != models.GateSafe || !slices.Equal(b.GoneUsers, []string{"svc"}) {
		t.Errorf("B = %+v", b)
	}
}

func TestComputeDiffNoPrevious(t *testing.T) {
	curr := snapshot("new",
		map[string]models.GateResult{hostA.String(): models.GatePassed},
		map[models.Target][]string{hostA: {"root"}}, "")

	dr := ComputeDiff(curr, NewSnapshot(nil, nil, nil))
	if len(dr.Targets) != 1 || !slices.Equal(dr.Targets[0].NewUsers, []string{"root"}) {
		t.Fatalf("Targets = %+v", dr.Targets)
	}

	same := ComputeDiff(curr, curr)
	if same.HasChanges() {
		t.Fatalf("a snapshot differs from itself: %+v", same.Targets)
	}
}

func TestSnapshotFileRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	snap := snapshot("scan-1",
		map[string]models.GateResult{hostA.String(): models.GateVulnerable},
		map[models.Target][]string{hostA: {"root"}}, "SSH-2.0-X")

	if err := WriteSnapshot(fs, "/scans/a", snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := LoadSnapshot(fs, "/scans/a")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.Scan.ID != "scan-1" || len(got.Findings) != 1 || len(got.Services) != 1 {
		t.Fatalf("loaded = %+v", got)
	}

	missing, err := LoadSnapshot(fs, "/scans/none")
	if err != nil || missing.Scan != nil || missing.Findings == nil {
		t.Fatalf("LoadSnapshot(missing) = %+v, %v", missing, err)
	}
}
