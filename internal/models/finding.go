package models

import "time"

// ServiceSSH is the service name recorded on every finding.
const ServiceSSH = "ssh"

// Finding asserts that Username exists on Host:Port. It is created only for a
// Found outcome and is never modified afterwards.
type Finding struct {
	ScanID   string     `json:"scan_id"`
	Host     string     `json:"host"`
	Port     int        `json:"port"`
	Service  string     `json:"service"`
	Username string     `json:"username"`
	Active   bool       `json:"active"`
	Oracle   OracleKind `json:"oracle"`
	FoundAt  time.Time  `json:"found_at"`
}

// NewFinding builds the record persisted for a Found username.
func NewFinding(scanID string, t Target, user string, oracle OracleKind) *Finding {
	return &Finding{
		ScanID:   scanID,
		Host:     t.Host,
		Port:     t.Port,
		Service:  ServiceSSH,
		Username: user,
		Active:   true,
		Oracle:   oracle,
		FoundAt:  time.Now(),
	}
}

// ServiceInfo is an informational observation of the remote service,
// currently the SSH identification string seen during the vulnerability check.
type ServiceInfo struct {
	ScanID string    `json:"scan_id"`
	Host   string    `json:"host"`
	Port   int       `json:"port"`
	Name   string    `json:"name"`
	Proto  string    `json:"proto"`
	Info   string    `json:"info"`
	SeenAt time.Time `json:"seen_at"`
}

// TargetSummary is the per-target outcome stored with the scan metadata.
type TargetSummary struct {
	Target   string     `json:"target"`
	Gate     GateResult `json:"gate"`
	Found    []string   `json:"found,omitempty"`
	NotFound int        `json:"not_found"`
	Errors   int        `json:"errors"`
	Probed   int        `json:"probed"`
}
