// Package oracle turns raw probe observations into username verdicts.
//
// Two strategies exist: AuthMethodOracle reads the allowed-methods list a
// server returns after a failed login, TimingOracle reads how long the
// rejection took. The orchestrator is written once against Strategy.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/probe"
	"github.com/hakim/sshenum/internal/retry"
)

// Strategy is one enumeration side-channel.
type Strategy interface {
	Kind() models.OracleKind
	// Gate runs the per-target pre-flight check exactly once. onRetry, when
	// not nil, sees every retry the gate schedules.
	Gate(ctx context.Context, target models.Target, onRetry RetryFunc) GateReport
	// CheckUser performs one probe for user and classifies it. It never retries.
	CheckUser(ctx context.Context, target models.Target, user string) Check
	// Usernames applies the strategy's normalization to a loaded list.
	Usernames(raw []string) []string
}

// Check is the classified result of one probe, with the observation it was
// derived from kept for debug output.
type Check struct {
	Outcome        models.Outcome
	Kind           probe.Kind
	AllowedMethods []string
	Elapsed        time.Duration
	Err            error
}

func newCheck(outcome models.Outcome, res probe.Result) Check {
	return Check{
		Outcome:        outcome,
		Kind:           res.Kind,
		AllowedMethods: res.AllowedMethods,
		Elapsed:        res.Elapsed,
		Err:            res.Err,
	}
}

// GateReport is the verdict of a gate plus what was seen on the way.
type GateReport struct {
	Result models.GateResult
	// ServerVersion is the identification string, when the gate read one.
	ServerVersion string
	// Probe is the last check the gate performed.
	Probe Check
	// Attempts counts the probes issued by the gate, retries included.
	Attempts int
}

// RetryFunc observes a retried probe for user before its delay starts.
type RetryFunc func(user string, attempt int, delay time.Duration)

// SecretFunc returns n random alphanumeric characters.
type SecretFunc func(n int) string

// New builds the strategy selected by cfg. rc drives the retry path the
// timing calibration runs through.
func New(cfg models.ScanConfig, transport probe.Transport, rc *retry.Controller) (Strategy, error) {
	cfg = cfg.WithDefaults()

	switch cfg.Oracle {
	case models.OracleAuthMethod:
		return &AuthMethodOracle{Transport: transport}, nil
	case models.OracleTiming:
		return &TimingOracle{Transport: transport, Threshold: cfg.Threshold, Retry: rc}, nil
	default:
		return nil, fmt.Errorf("unknown oracle %q", cfg.Oracle)
	}
}

func secretOrDefault(f SecretFunc) SecretFunc {
	if f == nil {
		return probe.RandomAlphanumeric
	}
	return f
}
