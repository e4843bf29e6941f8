package main

import (
	"fmt"

	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/storage"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show scan history for a target",
	Long: `Display a formatted table of past scans that covered a target.

Scans are listed newest-first. Each row shows the scan ID (truncated), start
time, status, oracle, the target's check result and how many usernames were
found on it.

Use --limit to cap the number of rows shown (default: 10).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Step 1: Get flags
		targetFlag, _ := cmd.Flags().GetString("target")
		limit, _ := cmd.Flags().GetInt("limit")

		// Step 2: Config check
		if cfg == nil {
			return fmt.Errorf("config not loaded. Run 'sshenum init' first to create config")
		}
		target, err := models.ParseTarget(targetFlag, cfg.SSH.Port)
		if err != nil {
			return err
		}

		// Step 3: Open bbolt store
		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		// Step 4: List scans (sorted newest-first by store.ListScans)
		scans, err := store.ListScans(target.String())
		if err != nil {
			return fmt.Errorf("listing scans for %s: %w", target, err)
		}

		if len(scans) == 0 {
			fmt.Printf("No scan history found for %s\n", target)
			return nil
		}

		// Step 5: Apply limit
		if limit > 0 && len(scans) > limit {
			scans = scans[:limit]
		}

		// Step 6: Print formatted table
		const separator = "────────────────────────────────────────────────────────────────────────"

		fmt.Printf("\nScan History for %s\n", target)
		fmt.Println(separator)
		fmt.Printf("  %-3s  %-12s  %-17s  %-10s  %-10s  %-16s  %s\n", "#", "Scan ID", "Started", "Status", "Oracle", "Check", "Found")
		fmt.Println(separator)

		for i, scan := range scans {
			gate, found := "-", "-"
			if s, ok := scan.Summary(target.String()); ok {
				gate = string(s.Gate)
				found = fmt.Sprintf("%d", len(s.Found))
			}

			fmt.Printf("  %-3d  %-12s  %-17s  %-10s  %-10s  %-16s  %s\n",
				i+1, shortScanID(scan.ID), scan.StartedAt.UTC().Format("2006-01-02 15:04"),
				scan.Status, scan.Config.Oracle, gate, found)
		}

		fmt.Println(separator)
		fmt.Printf("Total: %d scan(s)\n\n", len(scans))

		return nil
	},
}

// shortScanID returns the first 8 characters of a UUID followed by "..." for
// compact table display. Falls back to the full ID when shorter than 8 chars.
func shortScanID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

func init() {
	historyCmd.Flags().StringP("target", "t", "", "Target host[:port] (required)")
	historyCmd.Flags().Int("limit", 10, "Maximum number of scans to display")
	historyCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(historyCmd)
}
