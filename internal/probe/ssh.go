package probe

import (
	"context"
	"errors"
	"net"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// Authentication method names as they appear on the wire.
const (
	MethodPassword            = "password"
	MethodKeyboardInteractive = "keyboard-interactive"
	MethodPublicKey           = "publickey"
	MethodGSSAPIWithMIC       = "gssapi-with-mic"
)

// SSHTransport performs attempts with golang.org/x/crypto/ssh.
type SSHTransport struct {
	Dialer Dialer
	// ClientVersion overrides the identification string we send; empty uses
	// the library default.
	ClientVersion string
}

// NewSSHTransport builds a transport that dials through the given proxy chain.
func NewSSHTransport(proxies []string) (*SSHTransport, error) {
	d, err := NewDialer(proxies)
	if err != nil {
		return nil, err
	}
	return &SSHTransport{Dialer: d}, nil
}

// Attempt opens one connection, authenticates once with the given
// credentials and closes the connection on every path.
func (t *SSHTransport) Attempt(ctx context.Context, req Request) Result {
	timeout := req.Target.AttemptTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := t.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	start := time.Now()
	raw, err := dialer.DialContext(ctx, "tcp", req.Target.Addr())
	if err != nil {
		return Result{Kind: classifyDial(ctx, err), Elapsed: time.Since(start), Err: err}
	}

	conn := newIdentConn(raw)
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// A handshake blocked in Read only returns once the socket is closed.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	rec := &methodRecorder{}
	cfg := &ssh.ClientConfig{
		User:            req.Username,
		Auth:            rec.authMethods(req.Password, req.Target.Host),
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		ClientVersion:   t.ClientVersion,
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, req.Target.Addr(), cfg)
	res := Result{
		Elapsed:       time.Since(start),
		ServerVersion: conn.ServerVersion(),
		Err:           err,
	}

	if err == nil {
		go ssh.DiscardRequests(reqs)
		go func() {
			for ch := range chans {
				ch.Reject(ssh.Prohibited, "no channels allowed")
			}
		}()
		c.Close()
		res.Kind = KindAccepted
		return res
	}

	res.Kind = classifyHandshake(ctx, err)
	if res.Kind == KindAuthFailure {
		if strings.Contains(err.Error(), gssapiMechRefused) {
			rec.record(MethodGSSAPIWithMIC)
		}
		res.AllowedMethods = rec.offered()
	}
	return res
}

func classifyDial(ctx context.Context, err error) Kind {
	if isTimeout(ctx, err) {
		return KindTimeout
	}
	// Refused, address in use or unavailable, unreachable, DNS failure,
	// proxy rejection and cancellation all mean there was no usable stream.
	return KindConnectionError
}

func classifyHandshake(ctx context.Context, err error) Kind {
	if errors.Is(ctx.Err(), context.Canceled) {
		return KindConnectionError
	}
	if isTimeout(ctx, err) {
		return KindTimeout
	}
	if strings.Contains(err.Error(), "unable to authenticate") || offeredGSSAPI(err) {
		return KindAuthFailure
	}
	// EOF, connection reset, SSH_MSG_DISCONNECT and aborted key exchange:
	// the server ended the conversation before answering the attempt.
	return KindDisconnect
}

// offeredGSSAPI reports whether the handshake ended on our refusal to run a
// Kerberos exchange, or on the server turning down the krb5 mechanism after
// listing gssapi-with-mic. Either way the server answered the attempt.
func offeredGSSAPI(err error) bool {
	return errors.Is(err, errNoKerberos) || strings.Contains(err.Error(), gssapiMechRefused)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// methodRecorder observes which authentication methods the client library
// was offered by the server. x/crypto/ssh only invokes a method's callback
// when the server's latest failure message still lists that method.
type methodRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *methodRecorder) record(method string) {
	r.mu.Lock()
	r.calls = append(r.calls, method)
	r.mu.Unlock()
}

func (r *methodRecorder) authMethods(secret, host string) []ssh.AuthMethod {
	return []ssh.AuthMethod{
		ssh.PasswordCallback(func() (string, error) {
			r.record(MethodPassword)
			return secret, nil
		}),
		ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
			r.record(MethodKeyboardInteractive)
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = secret
			}
			return answers, nil
		}),
		// No keys are offered; the callback only tells us publickey is listed.
		ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
			r.record(MethodPublicKey)
			return nil, nil
		}),
		// Must stay last: its error ends authentication.
		ssh.GSSAPIWithMICAuthMethod(gssapiRecorder{r}, host),
	}
}

// errNoKerberos aborts a gssapi-with-mic exchange once the server has agreed
// to the krb5 mechanism. We hold no tickets.
var errNoKerberos = errors.New("no kerberos credentials")

// gssapiMechRefused is the unmarshal error x/crypto returns when the server
// answers the krb5 mechanism request with a failure instead of a response.
const gssapiMechRefused = "unexpected message type 51 (expected one of [60])"

// gssapiRecorder satisfies ssh.GSSAPIClient only far enough to learn that
// the server lists gssapi-with-mic.
type gssapiRecorder struct {
	r *methodRecorder
}

func (g gssapiRecorder) InitSecContext(string, []byte, bool) ([]byte, bool, error) {
	g.r.record(MethodGSSAPIWithMIC)
	return nil, false, errNoKerberos
}

func (gssapiRecorder) GetMIC([]byte) ([]byte, error) { return nil, errNoKerberos }

func (gssapiRecorder) DeleteSecContext() error { return nil }

// offered returns the distinct methods the server offered during the
// exchange, in the order they were first tried. x/crypto/ssh reuses the
// previous list when a failure message carries an empty one, so an empty
// result means the very first (none) failure listed nothing we support.
func (r *methodRecorder) offered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []string{}
	for _, m := range r.calls {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}
