package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hakim/sshenum/internal/models"
	"github.com/spf13/afero"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var (
	tgtA = models.Target{Host: "10.0.0.5", Port: 22}
	tgtB = models.Target{Host: "10.0.0.6", Port: 2222}
)

func TestScanIndexAndOrdering(t *testing.T) {
	s := openStore(t)

	older := models.NewScanMeta([]models.Target{tgtA, tgtB}, models.ScanConfig{Oracle: models.OracleTiming})
	older.StartedAt = time.Now().Add(-time.Hour)
	newer := models.NewScanMeta([]models.Target{tgtA}, models.ScanConfig{Oracle: models.OracleAuthMethod})

	for _, m := range []*models.ScanMeta{older, newer} {
		if err := s.SaveScan(m); err != nil {
			t.Fatalf("SaveScan: %v", err)
		}
	}
	// Saving again must not duplicate index entries.
	if err := s.SaveScan(older); err != nil {
		t.Fatalf("SaveScan again: %v", err)
	}

	scans, err := s.ListScans(tgtA.String())
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if len(scans) != 2 || scans[0].ID != newer.ID || scans[1].ID != older.ID {
		t.Fatalf("ListScans(A) = %d scans, want newer then older", len(scans))
	}

	scans, _ = s.ListScans(tgtB.String())
	if len(scans) != 1 || scans[0].ID != older.ID {
		t.Fatalf("ListScans(B) = %d scans, want only the older scan", len(scans))
	}

	latest, err := s.GetLatestScan(tgtA.String())
	if err != nil || latest.ID != newer.ID {
		t.Fatalf("GetLatestScan = %v, %v", latest, err)
	}
	if none, err := s.GetLatestScan("10.9.9.9:22"); none != nil || err != nil {
		t.Fatalf("GetLatestScan(unknown) = %v, %v", none, err)
	}
}

func TestUpdateScanStatus(t *testing.T) {
	s := openStore(t)
	meta := models.NewScanMeta([]models.Target{tgtA}, models.ScanConfig{})
	if err := s.SaveScan(meta); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateScanStatus(meta.ID, models.StatusCancelled); err != nil {
		t.Fatalf("UpdateScanStatus: %v", err)
	}
	got, err := s.GetScan(meta.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusCancelled || got.CompletedAt == nil {
		t.Fatalf("scan = %+v, want cancelled with CompletedAt", got)
	}

	if err := s.UpdateScanStatus("missing", models.StatusComplete); err != nil {
		t.Fatalf("UpdateScanStatus(missing) = %v, want no-op", err)
	}
	if missing, err := s.GetScan("missing"); missing != nil || err != nil {
		t.Fatalf("GetScan(missing) = %v, %v", missing, err)
	}
}

func TestFindingsAreWriteOnce(t *testing.T) {
	s := openStore(t)

	first := models.NewFinding("scan-1", tgtA, "root", models.OracleTiming)
	dup := models.NewFinding("scan-1", tgtA, "root", models.OracleTiming)
	dup.FoundAt = first.FoundAt.Add(time.Minute)
	other := models.NewFinding("scan-1", tgtB, "admin", models.OracleTiming)
	elsewhere := models.NewFinding("scan-2", tgtA, "root", models.OracleTiming)

	for _, f := range []*models.Finding{first, dup, other, elsewhere} {
		if err := s.SaveFinding(f); err != nil {
			t.Fatalf("SaveFinding: %v", err)
		}
	}

	got, err := s.ListFindings("scan-1")
	if err != nil {
		t.Fatalf("ListFindings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListFindings = %d findings, want 2", len(got))
	}
	if got[0].Username != "root" || !got[0].FoundAt.Equal(first.FoundAt) {
		t.Errorf("first finding = %+v, want the first root record", got[0])
	}
	if got[1].Username != "admin" || got[1].Port != 2222 {
		t.Errorf("second finding = %+v", got[1])
	}

	if none, err := s.ListFindings("scan-3"); len(none) != 0 || err != nil {
		t.Errorf("ListFindings(unknown) = %v, %v", none, err)
	}
	if err := s.SaveFinding(&models.Finding{Username: "x"}); err == nil {
		t.Error("SaveFinding accepted a finding without scan id")
	}
}

func TestServices(t *testing.T) {
	s := openStore(t)

	for _, v := range []string{"SSH-2.0-Old", "SSH-2.0-CerberusFTPServer_7.0"} {
		info := &models.ServiceInfo{ScanID: "scan-1", Host: tgtA.Host, Port: tgtA.Port, Name: "ssh", Proto: "tcp", Info: v}
		if err := s.SaveService(info); err != nil {
			t.Fatalf("SaveService: %v", err)
		}
	}

	got, err := s.ListServices("scan-1")
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(got) != 1 || got[0].Info != "SSH-2.0-CerberusFTPServer_7.0" {
		t.Fatalf("ListServices = %+v", got)
	}
}

func TestCreateScanDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	started := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	dir, err := CreateScanDir(fs, "/scans", "[::1]:22", started)
	if err != nil {
		t.Fatalf("CreateScanDir: %v", err)
	}
	if want := filepath.Join("/scans", "_1_22_20260314_092653"); dir != want {
		t.Fatalf("dir = %q, want %q", dir, want)
	}
	for _, sub := range []string{ReportsDir(dir), RawDir(dir)} {
		if ok, _ := afero.DirExists(fs, sub); !ok {
			t.Errorf("%s not created", sub)
		}
	}
}
