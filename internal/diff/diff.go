// Package diff computes the delta between two scan snapshots.
// A snapshot is the structured JSON written to {scanDir}/raw/results.json at
// the end of a scan, or the same data rebuilt from the database.
package diff

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hakim/sshenum/internal/models"
	"github.com/spf13/afero"
)

// ResultsFile is the snapshot file name inside a scan's raw directory.
const ResultsFile = "results.json"

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// Snapshot holds everything a scan established. Slices are empty, not nil,
// when nothing was recorded.
type Snapshot struct {
	Scan     *models.ScanMeta      `json:"scan"`
	Findings []*models.Finding     `json:"findings"`
	Services []*models.ServiceInfo `json:"services"`
}

// NewSnapshot assembles a snapshot from stored records.
func NewSnapshot(meta *models.ScanMeta, findings []*models.Finding, services []*models.ServiceInfo) *Snapshot {
	if findings == nil {
		findings = []*models.Finding{}
	}
	if services == nil {
		services = []*models.ServiceInfo{}
	}
	return &Snapshot{Scan: meta, Findings: findings, Services: services}
}

// WriteSnapshot stores snap as {scanDir}/raw/results.json.
func WriteSnapshot(fs afero.Fs, scanDir string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	path := filepath.Join(scanDir, "raw", ResultsFile)
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot reads {scanDir}/raw/results.json. A missing file yields an
// empty snapshot, since a scan that was interrupted may never have written one.
func LoadSnapshot(fs afero.Fs, scanDir string) (*Snapshot, error) {
	path := filepath.Join(scanDir, "raw", ResultsFile)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewSnapshot(nil, nil, nil), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return NewSnapshot(snap.Scan, snap.Findings, snap.Services), nil
}

// found returns target -> set of found usernames.
func (s *Snapshot) found() map[string]map[string]bool {
	out := map[string]map[string]bool{}
	for _, f := range s.Findings {
		key := models.Target{Host: f.Host, Port: f.Port}.String()
		if out[key] == nil {
			out[key] = map[string]bool{}
		}
		out[key][f.Username] = true
	}
	return out
}

func (s *Snapshot) gates() map[string]models.GateResult {
	out := map[string]models.GateResult{}
	if s.Scan == nil {
		return out
	}
	for _, sum := range s.Scan.Summaries {
		out[sum.Target] = sum.Gate
	}
	return out
}

func (s *Snapshot) versions() map[string]string {
	out := map[string]string{}
	for _, svc := range s.Services {
		out[models.Target{Host: svc.Host, Port: svc.Port}.String()] = svc.Info
	}
	return out
}

// ---------------------------------------------------------------------------
// DiffResult
// ---------------------------------------------------------------------------

// TargetDiff is the change for one host:port.
type TargetDiff struct {
	Target     string
	NewUsers   []string
	GoneUsers  []string
	Unchanged  int
	GateBefore models.GateResult
	GateAfter  models.GateResult
	// VersionBefore and VersionAfter are set only when the banner changed.
	VersionBefore string
	VersionAfter  string
}

// Changed reports whether anything differs for this target.
func (d TargetDiff) Changed() bool {
	return len(d.NewUsers) > 0 || len(d.GoneUsers) > 0 ||
		d.GateBefore != d.GateAfter || d.VersionBefore != d.VersionAfter
}

// DiffResult holds the delta between a current and a previous snapshot.
type DiffResult struct {
	CurrentScanID  string
	PreviousScanID string
	// Targets is sorted by target and includes unchanged targets.
	Targets []TargetDiff

	CurrentFoundCount  int
	PreviousFoundCount int
}

// HasChanges reports whether any target changed.
func (r *DiffResult) HasChanges() bool {
	for _, t := range r.Targets {
		if t.Changed() {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// ComputeDiff
// ---------------------------------------------------------------------------

// ComputeDiff calculates the delta between current and previous snapshots.
// Both arguments must be non-nil; pass an empty Snapshot for the
// "no previous scan" case.
func ComputeDiff(current, previous *Snapshot) *DiffResult {
	dr := &DiffResult{
		CurrentFoundCount:  len(current.Findings),
		PreviousFoundCount: len(previous.Findings),
	}
	if current.Scan != nil {
		dr.CurrentScanID = current.Scan.ID
	}
	if previous.Scan != nil {
		dr.PreviousScanID = previous.Scan.ID
	}

	currFound, prevFound := current.found(), previous.found()
	currGates, prevGates := current.gates(), previous.gates()
	currVer, prevVer := current.versions(), previous.versions()

	targets := map[string]bool{}
	for _, m := range []map[string]models.GateResult{currGates, prevGates} {
		for t := range m {
			targets[t] = true
		}
	}
	for _, m := range []map[string]map[string]bool{currFound, prevFound} {
		for t := range m {
			targets[t] = true
		}
	}

	for target := range targets {
		td := TargetDiff{
			Target:     target,
			NewUsers:   []string{},
			GoneUsers:  []string{},
			GateBefore: prevGates[target],
			GateAfter:  currGates[target],
		}

		for u := range currFound[target] {
			if prevFound[target][u] {
				td.Unchanged++
			} else {
				td.NewUsers = append(td.NewUsers, u)
			}
		}
		for u := range prevFound[target] {
			if !currFound[target][u] {
				td.GoneUsers = append(td.GoneUsers, u)
			}
		}
		sort.Strings(td.NewUsers)
		sort.Strings(td.GoneUsers)

		if before, after := prevVer[target], currVer[target]; before != after && before != "" && after != "" {
			td.VersionBefore, td.VersionAfter = before, after
		}

		dr.Targets = append(dr.Targets, td)
	}

	sort.Slice(dr.Targets, func(i, j int) bool { return dr.Targets[i].Target < dr.Targets[j].Target })
	return dr
}
