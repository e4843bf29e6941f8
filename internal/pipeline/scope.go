package pipeline

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/hakim/sshenum/internal/models"
)

// ErrOutOfScope is wrapped by every scope rejection.
var ErrOutOfScope = errors.New("target is out of scope")

// ScopeConfig defines allowed scanning boundaries.
// An empty ScopeConfig (no rules) allows any target.
type ScopeConfig struct {
	// AllowedHosts is a list of host patterns the target must match.
	// Wildcard prefix ("*.example.com") matches any single-label subdomain.
	// Exact entry ("example.com", "10.0.0.5") matches only that literal value.
	AllowedHosts []string

	// AllowedCIDRs is a list of CIDR ranges an IP target must fall within.
	AllowedCIDRs []string
}

// Empty reports whether no rule is configured.
func (s *ScopeConfig) Empty() bool {
	return len(s.AllowedHosts) == 0 && len(s.AllowedCIDRs) == 0
}

// ValidateTarget returns nil when target is allowed. IP targets are allowed
// by a matching CIDR or an exact host entry; names only by a host pattern.
func (s *ScopeConfig) ValidateTarget(target models.Target) error {
	if s.Empty() {
		return nil
	}
	for _, pattern := range s.AllowedHosts {
		if hostMatches(target.Host, pattern) {
			return nil
		}
	}

	if ip := net.ParseIP(target.Host); ip != nil {
		for _, cidr := range s.AllowedCIDRs {
			_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
			if err != nil {
				continue
			}
			if network.Contains(ip) {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: %s (hosts: %s; cidrs: %s)", ErrOutOfScope, target,
		strings.Join(s.AllowedHosts, ", "), strings.Join(s.AllowedCIDRs, ", "))
}

// Validate checks that every CIDR entry parses.
func (s *ScopeConfig) Validate() error {
	var errs []error
	for _, cidr := range s.AllowedCIDRs {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			errs = append(errs, fmt.Errorf("scope: invalid CIDR %q", cidr))
		}
	}
	return errors.Join(errs...)
}

// hostMatches returns true when host satisfies the scope pattern.
//
//   - "*.example.com" matches "foo.example.com" but not "example.com" or
//     "foo.bar.example.com" (single wildcard label only).
//   - Anything else matches only the exact value.
//   - Comparison is case-insensitive.
func hostMatches(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(strings.TrimSpace(pattern))

	if !strings.HasPrefix(pattern, "*.") {
		return host == pattern
	}

	suffix := pattern[2:]
	if !strings.HasSuffix(host, "."+suffix) {
		return false
	}

	// The part before the suffix must be a single label (no dots).
	label := host[:len(host)-len(suffix)-1]
	return len(label) > 0 && !strings.Contains(label, ".")
}
