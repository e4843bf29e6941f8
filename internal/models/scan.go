package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanMeta contains metadata about a scan
type ScanMeta struct {
	ID          string          `json:"id"`
	Targets     []string        `json:"targets"`
	Config      ScanConfig      `json:"config"`
	UserSource  string          `json:"user_source"`
	UserCount   int             `json:"user_count"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Status      ScanStatus      `json:"status"`
	ScanDir     string          `json:"scan_dir,omitempty"`
	Summaries   []TargetSummary `json:"summaries,omitempty"`
}

// NewScanMeta creates a new scan record with a fresh ID
func NewScanMeta(targets []Target, cfg ScanConfig) *ScanMeta {
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.String())
	}

	return &ScanMeta{
		ID:        uuid.New().String(),
		Targets:   names,
		Config:    cfg,
		StartedAt: time.Now(),
		Status:    StatusPending,
		Summaries: []TargetSummary{},
	}
}

// Summary returns the stored summary for target, if any.
func (m *ScanMeta) Summary(target string) (TargetSummary, bool) {
	for _, s := range m.Summaries {
		if s.Target == target {
			return s, true
		}
	}
	return TargetSummary{}, false
}
