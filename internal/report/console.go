package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/pipeline"
)

// Console prints pipeline events as status lines. It is shared by every
// target pipeline of a scan, so writes are serialized.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	// Verbose shows debug events for every target; otherwise only targets
	// with Debug set show them.
	Verbose bool
}

// NewConsole returns a Console writing to out.
func NewConsole(out io.Writer, verbose bool) *Console {
	return &Console{out: out, Verbose: verbose}
}

// Emit implements pipeline.EventSink.
func (c *Console) Emit(e pipeline.Event) {
	if e.Debug() && !c.Verbose && !e.Target.Debug {
		return
	}
	line := FormatEvent(e)
	if line == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

// peer is the prefix every line for a target carries.
func peer(t models.Target) string {
	return fmt.Sprintf("%s SSH -", t)
}

// FormatEvent renders one event, or "" for events without a console line.
func FormatEvent(e pipeline.Event) string {
	p := peer(e.Target)

	switch e.Kind {
	case pipeline.EventGateStart:
		if e.Oracle == models.OracleTiming {
			return fmt.Sprintf("[*] %s Checking for false positives", p)
		}
		return fmt.Sprintf("[*] %s Checking for vulnerability", p)

	case pipeline.EventServerVersion:
		return fmt.Sprintf("[*] %s Server Version: %s", p, e.Info)

	case pipeline.EventGateResult:
		return formatGate(p, e.Gate)

	case pipeline.EventScanStart:
		return fmt.Sprintf("[*] %s Starting scan", p)

	case pipeline.EventRetry:
		return fmt.Sprintf("[*] %s Retrying '%s' due to connection error (attempt %d, waiting %s)",
			p, e.Username, e.Attempt, e.Delay)

	case pipeline.EventAttempt:
		return formatAttempt(p, e)

	case pipeline.EventUserFound:
		return fmt.Sprintf("[+] %s User '%s' found", p, e.Username)

	case pipeline.EventUserNotFound:
		return fmt.Sprintf("[*] %s User '%s' not found (%s)", p, e.Username, e.Elapsed.Round(time.Millisecond))

	case pipeline.EventUserError:
		return fmt.Sprintf("[-] %s User '%s' could not connect", p, e.Username)

	case pipeline.EventStoreError:
		return fmt.Sprintf("[!] %s Warning: %v", p, e.Err)

	case pipeline.EventTargetDone:
		if e.Summary == nil || !e.Summary.Gate.Proceed() {
			return ""
		}
		s := e.Summary
		found := "none"
		if len(s.Found) > 0 {
			found = strings.Join(s.Found, ", ")
		}
		return fmt.Sprintf("[*] %s Scan complete in %s: %d probed, %d found (%s), %d errors",
			p, e.Elapsed.Round(time.Second), s.Probed, len(s.Found), found, s.Errors)
	}
	return ""
}

func formatAttempt(p string, e pipeline.Event) string {
	var b strings.Builder
	if e.Username == "" {
		fmt.Fprintf(&b, "[*] %s Gate attempt: %s", p, e.Info)
	} else {
		fmt.Fprintf(&b, "[*] %s Attempt '%s': %s", p, e.Username, e.Info)
	}
	fmt.Fprintf(&b, " in %s", e.Elapsed.Round(time.Millisecond))
	if len(e.Methods) > 0 {
		fmt.Fprintf(&b, ", methods %s", strings.Join(e.Methods, ","))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ", %v", e.Err)
	}
	return b.String()
}

func formatGate(p string, g models.GateResult) string {
	switch g {
	case models.GateVulnerable:
		return fmt.Sprintf("[+] %s Vulnerable", p)
	case models.GateSafe:
		return fmt.Sprintf("[-] %s Not vulnerable", p)
	case models.GatePassed:
		return fmt.Sprintf("[+] %s No false positives detected", p)
	case models.GateFalsePositive:
		return fmt.Sprintf("[-] %s throws false positive results. Aborting.", p)
	default:
		return fmt.Sprintf("[-] %s Connection failed", p)
	}
}
