// Package probe drives single SSH authentication attempts against a target
// and reports what the server did, without interpreting it.
//
// Every transport failure mode is folded into a fixed Kind vocabulary so the
// oracles can classify results deterministically; nothing past this boundary
// needs to inspect library error types.
package probe

import (
	"context"
	"time"

	"github.com/hakim/sshenum/internal/models"
)

// Kind is the terminal condition of one authentication attempt.
type Kind int

const (
	// KindAuthFailure is a definitive authentication failure. AllowedMethods
	// and Elapsed are populated.
	KindAuthFailure Kind = iota
	// KindAccepted means the server accepted the throwaway credentials.
	KindAccepted
	// KindTimeout means the attempt did not finish within the target timeout.
	KindTimeout
	// KindDisconnect means the server closed the connection or aborted the
	// protocol before authentication completed.
	KindDisconnect
	// KindConnectionError means no usable connection was established
	// (refused, address exhaustion, unreachable, resolution failure).
	KindConnectionError
)

func (k Kind) String() string {
	switch k {
	case KindAuthFailure:
		return "auth-failure"
	case KindAccepted:
		return "accepted"
	case KindTimeout:
		return "timeout"
	case KindDisconnect:
		return "disconnect"
	case KindConnectionError:
		return "connection-error"
	default:
		return "unknown"
	}
}

// Request describes one attempt.
type Request struct {
	Target   models.Target
	Username string
	Password string
}

// Result is the raw observation of one attempt.
type Result struct {
	Kind Kind
	// AllowedMethods are the authentication methods the server offered
	// before the attempt definitively failed.
	AllowedMethods []string
	// Elapsed runs from just before dialing to the terminal condition.
	Elapsed time.Duration
	// ServerVersion is the server identification string, when one was read.
	ServerVersion string
	// Err is the underlying error, kept for debug output only.
	Err error
}

// Transport performs exactly one connection and authentication attempt per
// call. Implementations must release the connection before returning.
type Transport interface {
	Attempt(ctx context.Context, req Request) Result
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(ctx context.Context, req Request) Result

func (f TransportFunc) Attempt(ctx context.Context, req Request) Result {
	return f(ctx, req)
}
