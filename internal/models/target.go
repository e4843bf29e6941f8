package models

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort      = 22
	DefaultTimeout   = 10 * time.Second
	DefaultRetryNum  = 3
	DefaultThreshold = 10 * time.Second
)

// Target is one SSH endpoint under test. It is not modified once a scan starts.
type Target struct {
	Host    string        `json:"host"`
	Port    int           `json:"port"`
	Timeout time.Duration `json:"timeout"`
	Debug   bool          `json:"debug"`
}

// Addr returns the dialable host:port form.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// String is the identity used in every status line and storage key.
func (t Target) String() string {
	return t.Addr()
}

// AttemptTimeout returns the per-attempt bound, falling back to DefaultTimeout.
func (t Target) AttemptTimeout() time.Duration {
	if t.Timeout <= 0 {
		return DefaultTimeout
	}
	return t.Timeout
}

// ParseTarget accepts "host", "host:port", "[v6addr]:port" or a bare IPv6
// address. defaultPort is used when no port is given.
func ParseTarget(s string, defaultPort int) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, fmt.Errorf("empty target")
	}
	if defaultPort <= 0 {
		defaultPort = DefaultPort
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// No port component (or a bare IPv6 address).
		host = strings.Trim(s, "[]")
		return Target{Host: host, Port: defaultPort}, nil
	}
	if host == "" {
		return Target{}, fmt.Errorf("target %q: missing host", s)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return Target{}, fmt.Errorf("target %q: invalid port %q", s, portStr)
	}
	return Target{Host: host, Port: port}, nil
}

// ScanConfig is the immutable per-scan configuration handed to every
// component that needs it.
type ScanConfig struct {
	Oracle    OracleKind    `json:"oracle"`
	RetryNum  int           `json:"retry_num"`
	Threshold time.Duration `json:"threshold"`
	// Proxies is passed through untouched to the transport dialer.
	Proxies []string `json:"proxies,omitempty"`
}

// WithDefaults fills zero values with the documented defaults.
func (c ScanConfig) WithDefaults() ScanConfig {
	if c.Oracle == "" {
		c.Oracle = OracleTiming
	}
	if c.RetryNum < 0 {
		c.RetryNum = 0
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	return c
}
