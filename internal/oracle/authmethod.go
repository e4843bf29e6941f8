package oracle

import (
	"context"
	"strings"

	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/probe"
)

// AuthMethodOracle targets servers whose failure response for a valid
// account carries an empty allowed-methods list (Cerberus FTP SFTP before
// 6.0.9.0 / 7.0.0.2).
type AuthMethodOracle struct {
	Transport probe.Transport
	Secret    SecretFunc
}

func (o *AuthMethodOracle) Kind() models.OracleKind { return models.OracleAuthMethod }

// Gate authenticates as a random user. An empty allowed-methods list marks
// the target vulnerable to the discrepancy. It never retries.
func (o *AuthMethodOracle) Gate(ctx context.Context, target models.Target, _ RetryFunc) GateReport {
	secret := secretOrDefault(o.Secret)
	res := o.Transport.Attempt(ctx, probe.Request{
		Target:   target,
		Username: secret(probe.ShortSecretLen),
		Password: secret(probe.ShortSecretLen),
	})

	rep := GateReport{ServerVersion: res.ServerVersion, Attempts: 1}
	switch res.Kind {
	case probe.KindAuthFailure:
		if len(res.AllowedMethods) == 0 {
			rep.Result = models.GateVulnerable
		} else {
			rep.Result = models.GateSafe
		}
		rep.Probe = newCheck(models.OutcomeNotFound, res)
	case probe.KindAccepted:
		// Any password works, so there is no discrepancy to measure.
		rep.Result = models.GateSafe
		rep.Probe = newCheck(models.OutcomeFound, res)
	default:
		rep.Result = models.GateConnectionError
		rep.Probe = newCheck(models.OutcomeConnectionError, res)
	}
	return rep
}

// CheckUser authenticates as user with a short random password.
func (o *AuthMethodOracle) CheckUser(ctx context.Context, target models.Target, user string) Check {
	secret := secretOrDefault(o.Secret)
	res := o.Transport.Attempt(ctx, probe.Request{
		Target:   target,
		Username: user,
		Password: secret(probe.ShortSecretLen),
	})
	return newCheck(o.classify(res), res)
}

func (o *AuthMethodOracle) classify(res probe.Result) models.Outcome {
	switch res.Kind {
	case probe.KindAuthFailure:
		if len(res.AllowedMethods) == 0 {
			return models.OutcomeFound
		}
		return models.OutcomeNotFound
	case probe.KindAccepted, probe.KindDisconnect:
		return models.OutcomeFound
	default:
		// Timeouts carry no signal here and are retried like refusals.
		return models.OutcomeConnectionError
	}
}

// Usernames lowercases and deduplicates, keeping first-seen order.
func (o *AuthMethodOracle) Usernames(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.ToLower(u)
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
