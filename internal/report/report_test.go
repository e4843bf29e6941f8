package report

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hakim/sshenum/internal/diff"
	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/pipeline"
	"github.com/spf13/afero"
)

var tgt = models.Target{Host: "10.0.0.5", Port: 22}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		e    pipeline.Event
		want string
	}{
		{pipeline.Event{Kind: pipeline.EventUserFound, Target: tgt, Username: "admin"}, "[+] 10.0.0.5:22 SSH - User 'admin' found"},
		{pipeline.Event{Kind: pipeline.EventUserError, Target: tgt, Username: "svc"}, "[-] 10.0.0.5:22 SSH - User 'svc' could not connect"},
		{pipeline.Event{Kind: pipeline.EventGateStart, Target: tgt, Oracle: models.OracleTiming}, "[*] 10.0.0.5:22 SSH - Checking for false positives"},
		{pipeline.Event{Kind: pipeline.EventGateStart, Target: tgt, Oracle: models.OracleAuthMethod}, "[*] 10.0.0.5:22 SSH - Checking for vulnerability"},
		{pipeline.Event{Kind: pipeline.EventGateResult, Target: tgt, Gate: models.GateSafe}, "[-] 10.0.0.5:22 SSH - Not vulnerable"},
		{pipeline.Event{Kind: pipeline.EventGateResult, Target: tgt, Gate: models.GateFalsePositive}, "[-] 10.0.0.5:22 SSH - throws false positive results. Aborting."},
		{pipeline.Event{Kind: pipeline.EventServerVersion, Target: tgt, Info: "SSH-2.0-X"}, "[*] 10.0.0.5:22 SSH - Server Version: SSH-2.0-X"},
		{pipeline.Event{Kind: pipeline.EventScanStart, Target: tgt}, "[*] 10.0.0.5:22 SSH - Starting scan"},
	}
	for _, tt := range tests {
		if got := FormatEvent(tt.e); got != tt.want {
			t.Errorf("FormatEvent(%d) = %q, want %q", tt.e.Kind, got, tt.want)
		}
	}

	aborted := &models.TargetSummary{Gate: models.GateSafe}
	if got := FormatEvent(pipeline.Event{Kind: pipeline.EventTargetDone, Target: tgt, Summary: aborted}); got != "" {
		t.Errorf("done line for an aborted target: %q", got)
	}
}

func TestConsoleDebugGating(t *testing.T) {
	notFound := pipeline.Event{Kind: pipeline.EventUserNotFound, Target: tgt, Username: "ghost"}
	retry := pipeline.Event{Kind: pipeline.EventRetry, Target: tgt, Username: "svc", Attempt: 1, Delay: time.Second}

	var quiet bytes.Buffer
	c := NewConsole(&quiet, false)
	c.Emit(notFound)
	c.Emit(retry)
	if quiet.Len() != 0 {
		t.Fatalf("non-verbose console printed %q", quiet.String())
	}

	debugTarget := tgt
	debugTarget.Debug = true
	retry.Target = debugTarget
	c.Emit(retry)
	if !strings.Contains(quiet.String(), "Retrying 'svc' due to connection error") {
		t.Fatalf("debug target retry not printed: %q", quiet.String())
	}

	var loud bytes.Buffer
	NewConsole(&loud, true).Emit(notFound)
	if !strings.Contains(loud.String(), "User 'ghost' not found") {
		t.Fatalf("verbose console printed %q", loud.String())
	}
}

func TestConsoleAttemptDetail(t *testing.T) {
	debugTarget := tgt
	debugTarget.Debug = true

	tests := []struct {
		e    pipeline.Event
		want string
	}{
		{
			pipeline.Event{Kind: pipeline.EventAttempt, Target: debugTarget, Info: "auth-failure", Elapsed: 120 * time.Millisecond},
			"[*] 10.0.0.5:22 SSH - Gate attempt: auth-failure in 120ms",
		},
		{
			pipeline.Event{
				Kind: pipeline.EventAttempt, Target: debugTarget, Username: "svc", Info: "auth-failure",
				Methods: []string{"password", "publickey"}, Elapsed: 80 * time.Millisecond,
			},
			"[*] 10.0.0.5:22 SSH - Attempt 'svc': auth-failure in 80ms, methods password,publickey",
		},
		{
			pipeline.Event{
				Kind: pipeline.EventAttempt, Target: debugTarget, Username: "root", Info: "connection-error",
				Err: errors.New("connection refused"),
			},
			"[*] 10.0.0.5:22 SSH - Attempt 'root': connection-error in 0s, connection refused",
		},
	}

	var buf bytes.Buffer
	c := NewConsole(&buf, false)
	for _, tt := range tests {
		if got := FormatEvent(tt.e); got != tt.want {
			t.Errorf("FormatEvent = %q, want %q", got, tt.want)
		}
		c.Emit(tt.e)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != len(tests) {
		t.Errorf("debug target printed %d lines, want %d", lines, len(tests))
	}

	buf.Reset()
	quiet := tests[0].e
	quiet.Target = tgt
	c.Emit(quiet)
	if buf.Len() != 0 {
		t.Errorf("attempt detail printed for a quiet target: %q", buf.String())
	}
}

func TestConsoleConcurrentLinesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Emit(pipeline.Event{Kind: pipeline.EventUserFound, Target: models.Target{Host: "10.0.0.1", Port: 22 + i}, Username: "root"})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("%d lines, want 20", len(lines))
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "[+] 10.0.0.1:") || !strings.HasSuffix(l, "User 'root' found") {
			t.Errorf("interleaved line %q", l)
		}
	}
}

func TestConsoleStoreError(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, false).Emit(pipeline.Event{Kind: pipeline.EventStoreError, Target: tgt, Err: errors.New("disk full")})
	if !strings.Contains(buf.String(), "[!]") || !strings.Contains(buf.String(), "disk full") {
		t.Fatalf("store error line = %q", buf.String())
	}
}

func TestWriteFindingsReport(t *testing.T) {
	meta := models.NewScanMeta([]models.Target{tgt}, models.ScanConfig{Oracle: models.OracleAuthMethod})
	meta.Status = models.StatusComplete
	meta.UserSource = "users.txt"
	meta.UserCount = 3
	meta.Summaries = []models.TargetSummary{{Target: tgt.String(), Gate: models.GateVulnerable, Found: []string{"admin"}, NotFound: 2, Probed: 3}}

	findings := []*models.Finding{models.NewFinding(meta.ID, tgt, "admin", models.OracleAuthMethod)}
	services := []*models.ServiceInfo{{Host: tgt.Host, Port: tgt.Port, Proto: "tcp", Info: "SSH-2.0-Cerberus|7"}}

	fs := afero.NewMemMapFs()
	if err := WriteFindingsReport(fs, meta, findings, services, "/out/findings.md"); err != nil {
		t.Fatalf("WriteFindingsReport: %v", err)
	}
	data, err := afero.ReadFile(fs, "/out/findings.md")
	if err != nil {
		t.Fatal(err)
	}
	md := string(data)

	for _, want := range []string{
		"**Oracle:** authmethod",
		"| 10.0.0.5:22 | vulnerable | 3 | 1 | 2 | 0 |",
		"| 10.0.0.5:22 | admin | ssh |",
		`SSH-2.0-Cerberus\|7`,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Threshold") {
		t.Error("authmethod report mentions a timing threshold")
	}
}

func TestRenderDiff(t *testing.T) {
	dr := &diff.DiffResult{
		CurrentScanID:  "new",
		PreviousScanID: "old",
		Targets: []diff.TargetDiff{
			{Target: "10.0.0.5:22", NewUsers: []string{"backup"}, GoneUsers: []string{"admin"}, Unchanged: 1,
				GateBefore: models.GateVulnerable, GateAfter: models.GateVulnerable},
			{Target: "10.0.0.6:22", GateBefore: models.GateVulnerable, GateAfter: models.GateSafe, GoneUsers: []string{"svc"}},
		},
		CurrentFoundCount:  2,
		PreviousFoundCount: 3,
	}

	md := RenderDiff(dr)
	for _, want := range []string{
		"| 10.0.0.5:22 | vulnerable | 2 | 2 | +1 / -1 |",
		"| 10.0.0.6:22 | vulnerable -> safe | 1 | 0 | -1 |",
		"### New Usernames (+1)\n\n- backup",
		"### No Longer Found (-1)\n\n- admin",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("diff report missing %q:\n%s", want, md)
		}
	}

	unchanged := &diff.DiffResult{Targets: []diff.TargetDiff{{Target: "10.0.0.5:22", Unchanged: 2}}}
	if md := RenderDiff(unchanged); !strings.Contains(md, "No changes detected.") {
		t.Errorf("unchanged diff = %q", md)
	}
}
