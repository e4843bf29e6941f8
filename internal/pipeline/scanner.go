package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/oracle"
	"github.com/hakim/sshenum/internal/retry"
	"github.com/sourcegraph/conc/pool"
)

// State is a step of the per-target state machine.
type State string

const (
	StateGate     State = "gate"
	StateScanning State = "scanning"
	StateAborted  State = "aborted"
	StateDone     State = "done"
)

// UserResult is the final classification of one username.
type UserResult struct {
	Username string
	Outcome  models.Outcome
	Attempts int
}

// TargetResult records what one target pipeline did.
type TargetResult struct {
	Target models.Target
	Gate   oracle.GateReport
	// States lists every state entered, in order.
	States  []State
	Users   []UserResult
	Summary models.TargetSummary
	Elapsed time.Duration
}

// Found returns the usernames classified as found, in probe order.
func (r *TargetResult) Found() []string {
	var out []string
	for _, u := range r.Users {
		if u.Outcome == models.OutcomeFound {
			out = append(out, u.Username)
		}
	}
	return out
}

// Scanner runs the gate then the username loop for targets. One Scanner is
// shared by all targets of a scan; it keeps no per-target state.
type Scanner struct {
	Oracle oracle.Strategy
	Retry  *retry.Controller
	Sink   EventSink
	// Findings is optional; nil skips persistence.
	Findings FindingStore
	ScanID   string
}

func (s *Scanner) emit(e Event) {
	e.Oracle = s.Oracle.Kind()
	if s.Sink == nil {
		return
	}
	s.Sink.Emit(e)
}

// RunTarget performs the gate exactly once and, if it allows, probes every
// username in order. Usernames are probed sequentially.
func (s *Scanner) RunTarget(ctx context.Context, target models.Target, users []string) *TargetResult {
	start := time.Now()
	res := &TargetResult{Target: target}
	res.Summary.Target = target.String()

	defer func() {
		res.Elapsed = time.Since(start)
		s.emit(Event{Kind: EventTargetDone, Target: target, Elapsed: res.Elapsed, Summary: &res.Summary})
	}()

	// ── Gate ─────────────────────────────────────────────────────────────────
	res.States = append(res.States, StateGate)
	gate := s.Gate(ctx, target)
	res.Gate = gate
	res.Summary.Gate = gate.Result

	if !gate.Result.Proceed() {
		res.States = append(res.States, StateAborted)
		return res
	}

	// ── Enumeration ──────────────────────────────────────────────────────────
	res.States = append(res.States, StateScanning)
	s.emit(Event{Kind: EventScanStart, Target: target})

	rc := s.Retry
	if rc == nil {
		rc = &retry.Controller{}
	}

	for _, user := range users {
		if ctx.Err() != nil {
			break
		}

		var last oracle.Check
		out := rc.Do(ctx, func(ctx context.Context) models.Outcome {
			last = s.Oracle.CheckUser(ctx, target, user)
			s.emitAttempt(target, user, last)
			return last.Outcome
		}, func(attempt int, delay time.Duration) {
			s.emit(Event{Kind: EventRetry, Target: target, Username: user, Attempt: attempt, Delay: delay})
		})

		// A probe cut short by cancellation says nothing about the user.
		if ctx.Err() != nil {
			break
		}

		res.Users = append(res.Users, UserResult{Username: user, Outcome: out.Outcome, Attempts: out.Attempts})
		res.Summary.Probed++

		switch out.Outcome {
		case models.OutcomeFound:
			res.Summary.Found = append(res.Summary.Found, user)
			s.emit(Event{Kind: EventUserFound, Target: target, Username: user, Elapsed: last.Elapsed})
			s.saveFinding(target, user)
		case models.OutcomeNotFound:
			res.Summary.NotFound++
			s.emit(Event{Kind: EventUserNotFound, Target: target, Username: user, Elapsed: last.Elapsed})
		default:
			res.Summary.Errors++
			s.emit(Event{Kind: EventUserError, Target: target, Username: user, Err: last.Err})
		}
	}

	res.States = append(res.States, StateDone)
	return res
}

// Gate runs the vulnerability check or calibration for target and reports
// it through the sink. The observed server version is stored when seen.
func (s *Scanner) Gate(ctx context.Context, target models.Target) oracle.GateReport {
	s.emit(Event{Kind: EventGateStart, Target: target})

	gate := s.Oracle.Gate(ctx, target, func(user string, attempt int, delay time.Duration) {
		s.emit(Event{Kind: EventRetry, Target: target, Username: user, Attempt: attempt, Delay: delay})
	})
	s.emitAttempt(target, "", gate.Probe)
	if gate.ServerVersion != "" {
		s.emit(Event{Kind: EventServerVersion, Target: target, Info: gate.ServerVersion})
		s.saveService(target, gate.ServerVersion)
	}
	s.emit(Event{Kind: EventGateResult, Target: target, Gate: gate.Result, Elapsed: gate.Probe.Elapsed})
	return gate
}

// emitAttempt reports the raw observation behind a check. user is empty for
// the gate.
func (s *Scanner) emitAttempt(target models.Target, user string, c oracle.Check) {
	if !target.Debug {
		return
	}
	s.emit(Event{
		Kind:     EventAttempt,
		Target:   target,
		Username: user,
		Info:     c.Kind.String(),
		Methods:  c.AllowedMethods,
		Elapsed:  c.Elapsed,
		Err:      c.Err,
	})
}

func (s *Scanner) saveFinding(target models.Target, user string) {
	if s.Findings == nil {
		return
	}
	f := models.NewFinding(s.ScanID, target, user, s.Oracle.Kind())
	if err := s.Findings.SaveFinding(f); err != nil {
		s.emit(Event{Kind: EventStoreError, Target: target, Username: user, Err: fmt.Errorf("saving finding: %w", err)})
	}
}

func (s *Scanner) saveService(target models.Target, version string) {
	if s.Findings == nil {
		return
	}
	info := &models.ServiceInfo{
		ScanID: s.ScanID,
		Host:   target.Host,
		Port:   target.Port,
		Name:   models.ServiceSSH,
		Proto:  "tcp",
		Info:   version,
		SeenAt: time.Now(),
	}
	if err := s.Findings.SaveService(info); err != nil {
		s.emit(Event{Kind: EventStoreError, Target: target, Err: fmt.Errorf("saving service: %w", err)})
	}
}

// Run executes one pipeline per target, at most workers at a time. Results
// are returned in target order.
func (s *Scanner) Run(ctx context.Context, targets []models.Target, users []string, workers int) []*TargetResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]*TargetResult, len(targets))

	p := pool.New().WithMaxGoroutines(workers)
	for i, t := range targets {
		p.Go(func() {
			results[i] = s.RunTarget(ctx, t, users)
		})
	}
	p.Wait()

	return results
}
