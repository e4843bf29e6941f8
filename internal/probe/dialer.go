package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/proxy"
)

// Dialer opens the TCP stream the SSH handshake runs over.
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewDialer returns a dialer that reaches the target through every proxy in
// chain, first entry nearest to us. An empty chain dials directly.
//
// Accepted entries: "socks5://[user:pass@]host:port", "socks5h://..." and the
// shorthand "socks5:host:port".
func NewDialer(chain []string) (Dialer, error) {
	var d proxy.Dialer = &net.Dialer{}

	for i, entry := range chain {
		u, err := ParseProxy(entry)
		if err != nil {
			return nil, fmt.Errorf("proxy %d: %w", i+1, err)
		}
		next, err := proxy.FromURL(u, d)
		if err != nil {
			return nil, fmt.Errorf("proxy %d (%s): %w", i+1, u.Redacted(), err)
		}
		d = next
	}

	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd, nil
	}
	return contextDialer{d}, nil
}

// ParseProxy normalizes one proxy chain entry into a URL.
func ParseProxy(entry string) (*url.URL, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil, fmt.Errorf("empty proxy entry")
	}
	if !strings.Contains(entry, "://") {
		scheme, rest, ok := strings.Cut(entry, ":")
		if !ok || rest == "" {
			return nil, fmt.Errorf("proxy %q: expected scheme:host:port", entry)
		}
		entry = scheme + "://" + rest
	}

	u, err := url.Parse(entry)
	if err != nil {
		return nil, fmt.Errorf("proxy %q: %w", entry, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Hostname() == "" || u.Port() == "" {
		return nil, fmt.Errorf("proxy %q: host and port are required", entry)
	}
	return u, nil
}

// contextDialer adapts a proxy.Dialer without DialContext support.
type contextDialer struct {
	d proxy.Dialer
}

func (c contextDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}
	ch := make(chan dialResult, 1)
	go func() {
		conn, err := c.d.Dial(network, addr)
		ch <- dialResult{conn, err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-ctx.Done():
		// Release a connection that arrives after we stopped waiting.
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
