package pipeline

import (
	"time"

	"github.com/hakim/sshenum/internal/models"
)

// EventKind identifies a user-visible step of a target pipeline.
type EventKind int

const (
	// EventGateStart precedes the vulnerability check or calibration.
	EventGateStart EventKind = iota
	// EventServerVersion carries the identification string seen by the gate.
	EventServerVersion
	// EventGateResult carries the gate verdict.
	EventGateResult
	// EventScanStart marks the transition into username enumeration.
	EventScanStart
	// EventRetry is emitted before each backoff delay (debug only).
	EventRetry
	// EventAttempt carries the transport-level detail of one attempt. It is
	// only emitted for targets with Debug set.
	EventAttempt
	EventUserFound
	// EventUserNotFound is debug only.
	EventUserNotFound
	EventUserError
	// EventStoreError reports a finding or service record that failed to persist.
	EventStoreError
	// EventTargetDone closes a target pipeline and carries its summary.
	EventTargetDone
)

// Event is one status update from the orchestrator. Only the fields relevant
// to Kind are set.
type Event struct {
	Kind     EventKind
	Target   models.Target
	Oracle   models.OracleKind
	Gate     models.GateResult
	Username string
	Info     string
	Methods  []string
	Attempt  int
	Delay    time.Duration
	Elapsed  time.Duration
	Err      error
	Summary  *models.TargetSummary
}

// Debug reports whether the event is only shown with verbose output.
func (e Event) Debug() bool {
	switch e.Kind {
	case EventRetry, EventAttempt, EventUserNotFound:
		return true
	}
	return false
}

// EventSink receives events from every target pipeline. Implementations
// must be safe for concurrent use.
type EventSink interface {
	Emit(Event)
}

// EventFunc adapts a function to EventSink.
type EventFunc func(Event)

func (f EventFunc) Emit(e Event) { f(e) }

type discardSink struct{}

func (discardSink) Emit(Event) {}

// FindingStore receives the records handed over on Found outcomes and on
// gate service observations.
type FindingStore interface {
	SaveFinding(f *models.Finding) error
	SaveService(s *models.ServiceInfo) error
}
