package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/storage"
	"github.com/spf13/cobra"
)

var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "List usernames found by a scan",
	Long: `Print the usernames recorded by one scan.

Pass --scan with a full scan ID, or -t to use the latest scan of a target.
With -t only that target's findings are shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scanID, _ := cmd.Flags().GetString("scan")
		targetFlag, _ := cmd.Flags().GetString("target")

		if cfg == nil {
			return fmt.Errorf("config not loaded. Run 'sshenum init' first to create config")
		}
		if scanID == "" && targetFlag == "" {
			return fmt.Errorf("either --scan or --target is required")
		}

		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		var only string
		if targetFlag != "" {
			target, err := models.ParseTarget(targetFlag, cfg.SSH.Port)
			if err != nil {
				return err
			}
			only = target.String()
		}

		var meta *models.ScanMeta
		if scanID != "" {
			meta, err = store.GetScan(scanID)
		} else {
			meta, err = store.GetLatestScan(only)
		}
		if err != nil {
			return fmt.Errorf("loading scan: %w", err)
		}
		if meta == nil {
			return fmt.Errorf("no scan found")
		}

		findings, err := store.ListFindings(meta.ID)
		if err != nil {
			return fmt.Errorf("listing findings: %w", err)
		}
		findings = filterFindings(findings, only)
		sort.Slice(findings, func(i, j int) bool {
			a, b := findings[i], findings[j]
			if a.Host != b.Host {
				return a.Host < b.Host
			}
			if a.Port != b.Port {
				return a.Port < b.Port
			}
			return a.Username < b.Username
		})

		fmt.Printf("[*] Scan %s (%s, %s, started %s)\n",
			meta.ID, meta.Config.Oracle, meta.Status, meta.StartedAt.UTC().Format("2006-01-02 15:04"))

		if len(findings) == 0 {
			fmt.Println("No usernames found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Target\tUsername\tFound At")
		fmt.Fprintln(w, "------\t--------\t--------")
		for _, f := range findings {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				models.Target{Host: f.Host, Port: f.Port}, f.Username, f.FoundAt.UTC().Format("2006-01-02 15:04:05"))
		}
		w.Flush()

		fmt.Printf("\nTotal: %d username(s)\n", len(findings))
		return nil
	},
}

// filterFindings keeps the findings for target, or all of them when target
// is empty.
func filterFindings(findings []*models.Finding, target string) []*models.Finding {
	if target == "" {
		return findings
	}
	var out []*models.Finding
	for _, f := range findings {
		if (models.Target{Host: f.Host, Port: f.Port}).String() == target {
			out = append(out, f)
		}
	}
	return out
}

func init() {
	findingsCmd.Flags().String("scan", "", "Scan ID")
	findingsCmd.Flags().StringP("target", "t", "", "Target host[:port]; uses its latest scan when --scan is empty")
	rootCmd.AddCommand(findingsCmd)
}
