package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/hakim/sshenum/internal/diff"
	"github.com/spf13/afero"
)

// WriteDiffReport generates a markdown report capturing the delta between two
// scans and writes it to outputPath.
func WriteDiffReport(fs afero.Fs, result *diff.DiffResult, outputPath string) error {
	return writeFile(fs, outputPath, RenderDiff(result))
}

// RenderDiff returns the markdown diff report.
func RenderDiff(result *diff.DiffResult) string {
	var b strings.Builder

	b.WriteString("# Scan Diff Report\n\n")
	b.WriteString(fmt.Sprintf("**Date:** %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf("**Current scan:** %s\n", orDash(result.CurrentScanID)))
	b.WriteString(fmt.Sprintf("**Previous scan:** %s\n\n", orDash(result.PreviousScanID)))

	// If nothing changed on any target, short-circuit.
	if !result.HasChanges() {
		b.WriteString("No changes detected.\n")
		return b.String()
	}

	writeDiffSummaryTable(&b, result)
	writeTargetChanges(&b, result)
	return b.String()
}

// ---------------------------------------------------------------------------
// Section writers
// ---------------------------------------------------------------------------

func writeDiffSummaryTable(b *strings.Builder, r *diff.DiffResult) {
	b.WriteString("## Summary\n\n")
	b.WriteString("| Target | Gate | Previous | Current | Change |\n")
	b.WriteString("|--------|------|----------|---------|--------|\n")

	for _, t := range r.Targets {
		prev := t.Unchanged + len(t.GoneUsers)
		curr := t.Unchanged + len(t.NewUsers)
		b.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s |\n",
			t.Target, formatGateChange(string(t.GateBefore), string(t.GateAfter)), prev, curr,
			formatChange(len(t.NewUsers), len(t.GoneUsers))))
	}
	b.WriteString(fmt.Sprintf("| **Total** | | %d | %d | |\n\n", r.PreviousFoundCount, r.CurrentFoundCount))
}

// writeTargetChanges renders one section per changed target. Unchanged
// targets are covered by the summary table only.
func writeTargetChanges(b *strings.Builder, r *diff.DiffResult) {
	for _, t := range r.Targets {
		if !t.Changed() {
			continue
		}
		b.WriteString(fmt.Sprintf("## %s\n\n", t.Target))

		if t.VersionBefore != "" {
			b.WriteString(fmt.Sprintf("Server version changed: `%s` -> `%s`\n\n", t.VersionBefore, t.VersionAfter))
		}
		if len(t.NewUsers) > 0 {
			b.WriteString(fmt.Sprintf("### New Usernames (+%d)\n\n", len(t.NewUsers)))
			for _, u := range t.NewUsers {
				b.WriteString(fmt.Sprintf("- %s\n", u))
			}
			b.WriteString("\n")
		}
		if len(t.GoneUsers) > 0 {
			b.WriteString(fmt.Sprintf("### No Longer Found (-%d)\n\n", len(t.GoneUsers)))
			for _, u := range t.GoneUsers {
				b.WriteString(fmt.Sprintf("- %s\n", u))
			}
			b.WriteString("\n")
		}
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// formatChange returns a human-readable change string such as "+3 / -1".
// When there are no additions and no removals it returns "none".
func formatChange(added, removed int) string {
	if added == 0 && removed == 0 {
		return "none"
	}
	parts := make([]string, 0, 2)
	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d", added))
	}
	if removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d", removed))
	}
	return strings.Join(parts, " / ")
}

func formatGateChange(before, after string) string {
	before, after = orDash(before), orDash(after)
	if before == after {
		return after
	}
	return before + " -> " + after
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
