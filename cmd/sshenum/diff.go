package main

import (
	"fmt"
	"path/filepath"

	"github.com/hakim/sshenum/internal/diff"
	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/report"
	"github.com/hakim/sshenum/internal/storage"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two scans and report what changed",
	Long: `Compare the found usernames of the latest scan of a target against the
scan before it.

By default both scans are read from the database and only the given target
is compared. With --scan-dir and --compare the raw/results.json snapshots of
two scan directories are compared instead, for every target they contain.

The markdown report is written to {scan_dir}/reports/diff.md of the current
scan when it has a scan directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Step 1: Get flags
		targetFlag, _ := cmd.Flags().GetString("target")
		scanDir, _ := cmd.Flags().GetString("scan-dir")
		compareDir, _ := cmd.Flags().GetString("compare")

		// Step 2: Config check
		if cfg == nil {
			return fmt.Errorf("config not loaded. Run 'sshenum init' first to create config")
		}

		// Step 3: Load both snapshots
		var current, previous *diff.Snapshot
		var err error
		osFs := afero.NewOsFs()

		switch {
		case scanDir != "" && compareDir != "":
			if current, err = diff.LoadSnapshot(osFs, scanDir); err != nil {
				return fmt.Errorf("loading current snapshot: %w", err)
			}
			if previous, err = diff.LoadSnapshot(osFs, compareDir); err != nil {
				return fmt.Errorf("loading previous snapshot: %w", err)
			}
		case targetFlag != "":
			target, err := models.ParseTarget(targetFlag, cfg.SSH.Port)
			if err != nil {
				return err
			}
			current, previous, err = snapshotsFromStore(target.String())
			if err != nil {
				return err
			}
			if current == nil {
				fmt.Printf("No scan history found for %s\n", target)
				return nil
			}
			if previous.Scan == nil {
				fmt.Printf("[!] No previous scan found for comparison\n")
				return nil
			}
			if current.Scan != nil {
				scanDir = current.Scan.ScanDir
			}
		default:
			return fmt.Errorf("either --target or both --scan-dir and --compare are required")
		}

		fmt.Printf("[*] Current:  %s (%d found)\n", snapshotID(current), len(current.Findings))
		fmt.Printf("[*] Previous: %s (%d found)\n", snapshotID(previous), len(previous.Findings))

		// Step 4: Compute diff
		result := diff.ComputeDiff(current, previous)

		// Step 5: Write diff markdown report
		if scanDir != "" {
			diffReportPath := filepath.Join(storage.ReportsDir(scanDir), "diff.md")
			if err := report.WriteDiffReport(osFs, result, diffReportPath); err != nil {
				fmt.Printf("[!] Warning: failed to write diff report: %v\n", err)
			} else {
				fmt.Printf("[+] Diff report written to %s\n", diffReportPath)
			}
		}

		// Step 6: Print summary
		fmt.Println()
		if !result.HasChanges() {
			fmt.Println("[+] No changes detected.")
			return nil
		}
		fmt.Printf("[+] Diff complete!\n")
		for _, t := range result.Targets {
			if !t.Changed() {
				continue
			}
			fmt.Printf("    %s: +%d new, -%d gone, %d unchanged", t.Target, len(t.NewUsers), len(t.GoneUsers), t.Unchanged)
			if t.GateBefore != t.GateAfter {
				fmt.Printf(", check %s -> %s", orDash(string(t.GateBefore)), orDash(string(t.GateAfter)))
			}
			fmt.Println()
		}

		return nil
	},
}

// snapshotsFromStore rebuilds the two latest scans of target from the
// database, restricted to that target. current is nil when the target was
// never scanned; previous is an empty snapshot when it was scanned once.
func snapshotsFromStore(target string) (current, previous *diff.Snapshot, err error) {
	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	scans, err := store.ListScans(target)
	if err != nil {
		return nil, nil, fmt.Errorf("listing scans: %w", err)
	}
	if len(scans) == 0 {
		return nil, nil, nil
	}

	load := func(meta *models.ScanMeta) (*diff.Snapshot, error) {
		findings, err := store.ListFindings(meta.ID)
		if err != nil {
			return nil, fmt.Errorf("listing findings of %s: %w", meta.ID, err)
		}
		services, err := store.ListServices(meta.ID)
		if err != nil {
			return nil, fmt.Errorf("listing services of %s: %w", meta.ID, err)
		}
		return restrictSnapshot(diff.NewSnapshot(meta, findings, services), target), nil
	}

	if current, err = load(scans[0]); err != nil {
		return nil, nil, err
	}
	previous = diff.NewSnapshot(nil, nil, nil)
	if len(scans) > 1 {
		if previous, err = load(scans[1]); err != nil {
			return nil, nil, err
		}
	}
	return current, previous, nil
}

// restrictSnapshot drops everything in snap that is not about target.
func restrictSnapshot(snap *diff.Snapshot, target string) *diff.Snapshot {
	var meta *models.ScanMeta
	if snap.Scan != nil {
		cp := *snap.Scan
		cp.Summaries = nil
		if s, ok := snap.Scan.Summary(target); ok {
			cp.Summaries = []models.TargetSummary{s}
		}
		meta = &cp
	}

	var services []*models.ServiceInfo
	for _, s := range snap.Services {
		if (models.Target{Host: s.Host, Port: s.Port}).String() == target {
			services = append(services, s)
		}
	}
	return diff.NewSnapshot(meta, filterFindings(snap.Findings, target), services)
}

func snapshotID(s *diff.Snapshot) string {
	if s.Scan == nil {
		return "-"
	}
	return s.Scan.ID
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	diffCmd.Flags().StringP("target", "t", "", "Target host[:port]")
	diffCmd.Flags().String("scan-dir", "", "Current scan directory")
	diffCmd.Flags().String("compare", "", "Previous scan directory to compare against")
	rootCmd.AddCommand(diffCmd)
}
