package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hakim/sshenum/internal/models"
	"github.com/spf13/afero"
)

// WriteFindingsReport renders the markdown report of one scan and writes it
// to outputPath.
func WriteFindingsReport(fs afero.Fs, meta *models.ScanMeta, findings []*models.Finding, services []*models.ServiceInfo, outputPath string) error {
	return writeFile(fs, outputPath, RenderFindings(meta, findings, services))
}

// RenderFindings returns the markdown findings report.
func RenderFindings(meta *models.ScanMeta, findings []*models.Finding, services []*models.ServiceInfo) string {
	var b strings.Builder

	// Header
	b.WriteString("# SSH Username Enumeration Report\n\n")
	b.WriteString(fmt.Sprintf("**Scan ID:** %s\n", meta.ID))
	b.WriteString(fmt.Sprintf("**Date:** %s\n", meta.StartedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("**Oracle:** %s\n", meta.Config.Oracle))
	if meta.Config.Oracle == models.OracleTiming {
		b.WriteString(fmt.Sprintf("**Threshold:** %s\n", meta.Config.Threshold))
	}
	b.WriteString(fmt.Sprintf("**Status:** %s\n", meta.Status))
	b.WriteString(fmt.Sprintf("**Usernames:** %d from %s\n", meta.UserCount, meta.UserSource))
	if meta.CompletedAt != nil {
		b.WriteString(fmt.Sprintf("**Duration:** %s\n", meta.CompletedAt.Sub(meta.StartedAt).Round(time.Second)))
	}
	b.WriteString(fmt.Sprintf("**Total found:** %d\n\n", len(findings)))

	// Per-target gate table
	b.WriteString("## Targets\n\n")
	if len(meta.Summaries) > 0 {
		b.WriteString("| Target | Gate | Probed | Found | Not Found | Errors |\n")
		b.WriteString("|--------|------|--------|-------|-----------|--------|\n")
		for _, s := range meta.Summaries {
			b.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %d |\n",
				s.Target, s.Gate, s.Probed, len(s.Found), s.NotFound, s.Errors))
		}
	} else {
		b.WriteString("No targets completed.\n")
	}
	b.WriteString("\n")

	// Found users grouped by target
	b.WriteString("## Valid Usernames\n\n")
	if len(findings) > 0 {
		b.WriteString("| Target | Username | Service | Found At |\n")
		b.WriteString("|--------|----------|---------|----------|\n")
		for _, f := range sortFindings(findings) {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				models.Target{Host: f.Host, Port: f.Port}, f.Username, f.Service, f.FoundAt.Format("15:04:05")))
		}
	} else {
		b.WriteString("None found.\n")
	}
	b.WriteString("\n")

	// Service banners
	if len(services) > 0 {
		b.WriteString("## Service Banners\n\n")
		b.WriteString("| Target | Proto | Version |\n")
		b.WriteString("|--------|-------|---------|\n")
		for _, s := range services {
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				models.Target{Host: s.Host, Port: s.Port}, s.Proto, escapeCell(s.Info)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// sortFindings returns a copy ordered by target then username.
func sortFindings(findings []*models.Finding) []*models.Finding {
	sorted := make([]*models.Finding, len(findings))
	copy(sorted, findings)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Host != b.Host {
			return a.Host < b.Host
		}
		if a.Port != b.Port {
			return a.Port < b.Port
		}
		return a.Username < b.Username
	})
	return sorted
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// writeFile writes content to path, wrapping any filesystem error with context.
func writeFile(fs afero.Fs, outputPath, content string) error {
	if err := afero.WriteFile(fs, outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}
