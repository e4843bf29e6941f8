package models

// ScanStatus represents the current state of a scan
type ScanStatus string

const (
	StatusPending   ScanStatus = "pending"
	StatusRunning   ScanStatus = "running"
	StatusComplete  ScanStatus = "complete"
	StatusFailed    ScanStatus = "failed"
	StatusCancelled ScanStatus = "cancelled"
)

// Terminal reports whether no further status change is expected.
func (s ScanStatus) Terminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusCancelled
}

// Outcome is the classification of a single username probe.
type Outcome string

const (
	OutcomeFound           Outcome = "found"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeConnectionError Outcome = "connection_error"
)

// GateResult is the verdict of the pre-flight check run once per target
// before any username is probed.
type GateResult string

const (
	// GateVulnerable: the allowed-methods discrepancy is present.
	GateVulnerable GateResult = "vulnerable"
	// GateSafe: the allowed-methods discrepancy is absent.
	GateSafe GateResult = "safe"
	// GatePassed: calibration with an invalid username did not look valid.
	GatePassed GateResult = "passed"
	// GateFalsePositive: calibration with an invalid username looked valid.
	GateFalsePositive GateResult = "false_positive"
	// GateConnectionError: the gate probe could not reach the service.
	GateConnectionError GateResult = "connection_error"
)

// Proceed reports whether username enumeration may start after this gate.
func (g GateResult) Proceed() bool {
	return g == GateVulnerable || g == GatePassed
}

// OracleKind names an enumeration strategy.
type OracleKind string

const (
	// OracleAuthMethod infers validity from the allowed-methods list
	// returned after a failed authentication (response-shape side-channel).
	OracleAuthMethod OracleKind = "authmethod"
	// OracleTiming infers validity from how long the server takes to reject
	// an oversized password (timing side-channel).
	OracleTiming OracleKind = "timing"
)

// ParseOracleKind validates a user-supplied oracle name.
func ParseOracleKind(s string) (OracleKind, bool) {
	switch OracleKind(s) {
	case OracleAuthMethod, OracleTiming:
		return OracleKind(s), true
	}
	return "", false
}
