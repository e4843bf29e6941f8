package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hakim/sshenum/internal/config"
	"github.com/hakim/sshenum/internal/diff"
	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/pipeline"
	"github.com/hakim/sshenum/internal/report"
	"github.com/hakim/sshenum/internal/storage"
	"github.com/hakim/sshenum/internal/wordlist"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// scanOptions is everything scan and wizard resolve before launching a scan.
type scanOptions struct {
	Targets    []models.Target
	UserFile   string
	Config     models.ScanConfig
	Workers    int
	Scope      *pipeline.ScopeConfig
	WebhookURL string
	Label      string
}

// addProbeFlags registers the flags shared by scan and check.
func addProbeFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("target", "t", nil, "Target host[:port] (repeatable or comma-separated)")
	cmd.Flags().String("targets-file", "", "File with one target per line")
	cmd.Flags().Int("port", 0, "Port for targets given without one (default: ssh.port)")
	cmd.Flags().String("timeout", "", "Per-attempt timeout, e.g. 10s or 10 (default: ssh.timeout)")
	cmd.Flags().Bool("debug", false, "Print debug lines for these targets")
	cmd.Flags().String("oracle", "", "Enumeration oracle: authmethod or timing (default: enum.oracle)")
	cmd.Flags().String("preset", "", "Named preset: "+strings.Join(pipeline.PresetNames(), ", "))
	cmd.Flags().Int("retry", 0, "Retries after a connection error (default: enum.retry_num)")
	cmd.Flags().String("threshold", "", "Timing threshold, e.g. 10s (default: enum.threshold)")
	cmd.Flags().StringSlice("proxies", nil, "Proxy chain, e.g. socks5://127.0.0.1:9050")
}

// resolveProbeSettings merges config file, preset and flags into one
// ScanConfig plus the per-attempt timeout. Flags win over the preset, which
// wins over the file.
func resolveProbeSettings(cmd *cobra.Command) (models.ScanConfig, time.Duration, error) {
	flags := cmd.Flags()

	scanCfg, err := cfg.ScanConfig()
	if err != nil {
		return models.ScanConfig{}, 0, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return models.ScanConfig{}, 0, fmt.Errorf("ssh.timeout: %w", err)
	}

	if name, _ := flags.GetString("preset"); name != "" {
		preset, err := pipeline.GetPreset(name)
		if err != nil {
			return models.ScanConfig{}, 0, err
		}
		fmt.Printf("[*] Using preset: %s (%s)\n", preset.Name, preset.Description)
		scanCfg = preset.Apply(scanCfg)
		if preset.Timeout > 0 {
			timeout = preset.Timeout
		}
	}

	if flags.Changed("oracle") {
		name, _ := flags.GetString("oracle")
		kind, ok := models.ParseOracleKind(name)
		if !ok {
			return models.ScanConfig{}, 0, fmt.Errorf("--oracle must be %q or %q", models.OracleAuthMethod, models.OracleTiming)
		}
		scanCfg.Oracle = kind
	}
	if flags.Changed("retry") {
		n, _ := flags.GetInt("retry")
		if n < 0 {
			return models.ScanConfig{}, 0, fmt.Errorf("--retry cannot be negative")
		}
		scanCfg.RetryNum = n
	}
	if flags.Changed("threshold") {
		s, _ := flags.GetString("threshold")
		if scanCfg.Threshold, err = config.ParseDuration(s); err != nil {
			return models.ScanConfig{}, 0, fmt.Errorf("--threshold: %w", err)
		}
	}
	if flags.Changed("timeout") {
		s, _ := flags.GetString("timeout")
		if timeout, err = config.ParseDuration(s); err != nil {
			return models.ScanConfig{}, 0, fmt.Errorf("--timeout: %w", err)
		}
	}
	if flags.Changed("proxies") {
		scanCfg.Proxies, _ = flags.GetStringSlice("proxies")
	}

	return scanCfg, timeout, nil
}

// resolveTargets parses -t and --targets-file into unique targets carrying
// the per-attempt timeout and debug flag.
func resolveTargets(cmd *cobra.Command, timeout time.Duration) ([]models.Target, error) {
	flags := cmd.Flags()

	raw, _ := flags.GetStringSlice("target")
	if path, _ := flags.GetString("targets-file"); path != "" {
		lines, err := wordlist.LoadCommented(afero.NewOsFs(), path)
		if err != nil {
			return nil, fmt.Errorf("reading targets: %w", err)
		}
		raw = append(raw, lines...)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one target is required (-t or --targets-file)")
	}

	port := cfg.SSH.Port
	if flags.Changed("port") {
		port, _ = flags.GetInt("port")
	}
	debug, _ := flags.GetBool("debug")

	return buildTargets(raw, port, timeout, debug || cfg.SSH.Debug)
}

func buildTargets(raw []string, port int, timeout time.Duration, debug bool) ([]models.Target, error) {
	seen := map[string]bool{}
	var targets []models.Target
	for _, r := range raw {
		t, err := models.ParseTarget(r, port)
		if err != nil {
			return nil, err
		}
		if seen[t.String()] {
			continue
		}
		seen[t.String()] = true
		t.Timeout = timeout
		t.Debug = debug
		targets = append(targets, t)
	}
	return targets, nil
}

// executeScan runs a full enumeration and writes its artifacts. It is shared
// by the scan and wizard commands.
func executeScan(ctx context.Context, opts scanOptions) error {
	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	osFs := afero.NewOsFs()
	console := report.NewConsole(os.Stdout, verbose)

	fmt.Printf("[*] Starting %s enumeration of %d target(s)\n", opts.Config.Oracle, len(opts.Targets))

	result, err := pipeline.RunScan(ctx, pipeline.ScanRequest{
		Targets:     opts.Targets,
		Config:      opts.Config,
		UserFile:    opts.UserFile,
		FS:          osFs,
		Workers:     opts.Workers,
		Scope:       opts.Scope,
		ScanDirBase: cfg.ScanDir,
		Label:       opts.Label,
	}, store, console)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	meta := result.Meta

	// Reports and the raw snapshot are best effort; the database already
	// holds everything.
	findings, err := store.ListFindings(meta.ID)
	if err != nil {
		fmt.Printf("[!] Warning: listing findings: %v\n", err)
	}
	services, err := store.ListServices(meta.ID)
	if err != nil {
		fmt.Printf("[!] Warning: listing services: %v\n", err)
	}

	if meta.ScanDir != "" {
		if err := diff.WriteSnapshot(osFs, meta.ScanDir, diff.NewSnapshot(meta, findings, services)); err != nil {
			fmt.Printf("[!] Warning: failed to write results: %v\n", err)
		}
		reportPath := filepath.Join(storage.ReportsDir(meta.ScanDir), "findings.md")
		if err := report.WriteFindingsReport(osFs, meta, findings, services, reportPath); err != nil {
			fmt.Printf("[!] Warning: failed to write findings report: %v\n", err)
		} else {
			fmt.Printf("[+] Findings report written to %s\n", reportPath)
		}
	}

	if opts.WebhookURL != "" {
		// The notification still goes out after Ctrl-C.
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		notifyCfg := pipeline.NotifyConfig{WebhookURL: opts.WebhookURL}
		if notifyErr := notifyCfg.SendCompletion(notifyCtx, result); notifyErr != nil {
			fmt.Printf("[!] Warning: webhook notification failed: %v\n", notifyErr)
		} else {
			fmt.Printf("[+] Completion notification sent to %s\n", opts.WebhookURL)
		}
		cancel()
	}

	printScanSummary(result)
	return nil
}

func printScanSummary(result *pipeline.ScanResult) {
	meta := result.Meta

	fmt.Println()
	switch meta.Status {
	case models.StatusCancelled:
		fmt.Printf("[!] Scan cancelled\n")
	case models.StatusFailed:
		fmt.Printf("[-] Scan failed: no target could be reached\n")
	default:
		fmt.Printf("[+] Scan complete!\n")
	}
	fmt.Printf("    Scan ID:   %s\n", meta.ID)
	if meta.ScanDir != "" {
		fmt.Printf("    Scan dir:  %s\n", meta.ScanDir)
	}
	fmt.Printf("    Oracle:    %s\n", meta.Config.Oracle)
	fmt.Printf("    Usernames: %d from %s\n", meta.UserCount, meta.UserSource)
	fmt.Printf("    Elapsed:   %s\n", result.Elapsed.Round(time.Second))
	fmt.Printf("    Found:     %d\n", result.FoundCount())

	for _, t := range result.Targets {
		s := t.Summary
		found := "-"
		if len(s.Found) > 0 {
			found = strings.Join(s.Found, ", ")
		}
		fmt.Printf("    %-22s %-16s %s\n", s.Target, s.Gate, found)
	}
}

// splitCSV splits a comma-separated string into a trimmed, non-empty slice.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
