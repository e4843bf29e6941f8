package main

import (
	"fmt"

	"github.com/hakim/sshenum/internal/pipeline"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Enumerate usernames on one or more SSH targets",
	Long: `Run a full username enumeration against every target.

Each target is checked first. The authmethod oracle requires the
allowed-methods discrepancy to be present; the timing oracle probes a random
username and aborts the target if it looks valid. Targets that pass are
probed with every username from the list, one at a time. Targets run in
parallel up to --workers.

Results are saved to:
  {scan_dir}/{label}_{timestamp}/raw/results.json
  {scan_dir}/{label}_{timestamp}/reports/findings.md

Examples:
  sshenum scan -t 10.0.0.5 -U users.txt
  sshenum scan -t 10.0.0.5:2222 -U users.txt --preset cerberus-sftp
  sshenum scan --targets-file hosts.txt -U users.txt --oracle timing --threshold 5s
  sshenum scan -t 10.0.0.5 -U users.txt --proxies socks5://127.0.0.1:9050`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// ── 1. Read scan-only flags ────────────────────────────────────────────
		userFile, _ := cmd.Flags().GetString("user-file")
		workers, _ := cmd.Flags().GetInt("workers")
		webhookURL, _ := cmd.Flags().GetString("notify-webhook")
		scopeHosts, _ := cmd.Flags().GetString("scope-hosts")
		scopeCIDRs, _ := cmd.Flags().GetString("scope-cidrs")
		label, _ := cmd.Flags().GetString("label")

		// ── 2. Config check ────────────────────────────────────────────────────
		if cfg == nil {
			return fmt.Errorf("config not loaded. Run 'sshenum init' first to create config")
		}

		// ── 3. Resolve settings and targets ────────────────────────────────────
		scanCfg, timeout, err := resolveProbeSettings(cmd)
		if err != nil {
			return err
		}
		targets, err := resolveTargets(cmd, timeout)
		if err != nil {
			return err
		}

		if !cmd.Flags().Changed("workers") {
			workers = cfg.Enum.Workers
		}
		if !cmd.Flags().Changed("notify-webhook") {
			webhookURL = cfg.Notify.WebhookURL
		}

		// ── 4. Scope rules (flags replace the config file lists) ──────────────
		scope := cfg.ScopeRules()
		if scopeHosts != "" || scopeCIDRs != "" {
			scope = &pipeline.ScopeConfig{
				AllowedHosts: splitCSV(scopeHosts),
				AllowedCIDRs: splitCSV(scopeCIDRs),
			}
			if err := scope.Validate(); err != nil {
				return fmt.Errorf("scope: %w", err)
			}
		}
		if scope = nonEmptyScope(scope); scope != nil {
			fmt.Printf("[*] Scope rules active: %d host pattern(s), %d network(s)\n",
				len(scope.AllowedHosts), len(scope.AllowedCIDRs))
		}

		// ── 5. Run ─────────────────────────────────────────────────────────────
		return executeScan(cmd.Context(), scanOptions{
			Targets:    targets,
			UserFile:   userFile,
			Config:     scanCfg,
			Workers:    workers,
			Scope:      scope,
			WebhookURL: webhookURL,
			Label:      label,
		})
	},
}

func init() {
	addProbeFlags(scanCmd)
	scanCmd.Flags().StringP("user-file", "U", "", "Username list, one per line (required)")
	scanCmd.Flags().Int("workers", 0, "Targets scanned in parallel (default: enum.workers)")
	scanCmd.Flags().String("notify-webhook", "", "HTTP webhook URL to POST a completion summary to")
	scanCmd.Flags().String("scope-hosts", "", "Comma-separated allowed host patterns (e.g. 10.0.0.5,*.lab.example.com)")
	scanCmd.Flags().String("scope-cidrs", "", "Comma-separated allowed networks (e.g. 10.0.0.0/24)")
	scanCmd.Flags().String("label", "", "Scan directory label (default: first target host)")

	scanCmd.MarkFlagRequired("user-file")

	rootCmd.AddCommand(scanCmd)
}
