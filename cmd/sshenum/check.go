package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/pipeline"
	"github.com/hakim/sshenum/internal/report"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether targets can be enumerated",
	Long: `Run only the per-target check, without probing any username.

With the authmethod oracle this is the vulnerability check: a random username
is tried and the target is vulnerable when the server lists no further
authentication methods. With the timing oracle it is the calibration probe:
a random username must not be classified as found.

Nothing is written to the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded. Run 'sshenum init' first to create config")
		}

		scanCfg, timeout, err := resolveProbeSettings(cmd)
		if err != nil {
			return err
		}
		targets, err := resolveTargets(cmd, timeout)
		if err != nil {
			return err
		}

		strategy, rc, err := pipeline.BuildStrategy(scanCfg.WithDefaults(), nil, nil)
		if err != nil {
			return err
		}
		scanner := &pipeline.Scanner{
			Oracle: strategy,
			Retry:  rc,
			Sink:   report.NewConsole(os.Stdout, verbose),
		}

		results := make([]models.GateResult, len(targets))
		for i, t := range targets {
			if cmd.Context().Err() != nil {
				break
			}
			results[i] = scanner.Gate(cmd.Context(), t).Result
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Target\tResult\tEnumerable")
		fmt.Fprintln(w, "------\t------\t----------")

		enumerable := 0
		for i, t := range targets {
			status := "[-]"
			if results[i].Proceed() {
				status = "[+]"
				enumerable++
			}
			result := string(results[i])
			if result == "" {
				result = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", t, result, status)
		}
		w.Flush()

		fmt.Println()
		fmt.Printf("Summary: %d/%d targets enumerable with the %s oracle\n", enumerable, len(targets), strategy.Kind())
		return nil
	},
}

func init() {
	addProbeFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}
