package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/hakim/sshenum/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sshenum",
	Short: "SSH username enumeration through authentication side-channels",
	Long: `sshenum determines which usernames exist on an SSH service without valid
credentials. It compares how the server answers authentication attempts for
existing and non-existing accounts, either through the list of methods it
still allows after a failure (authmethod) or through how long it takes to
reject an oversized password (timing).

Every target is checked first: authmethod targets must show the
allowed-methods discrepancy, timing targets must not flag a random username
as valid. Findings are stored per scan so history and diff work across runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		skipConfig := map[string]bool{
			"init":    true,
			"help":    true,
			"version": true,
		}

		if skipConfig[cmd.Name()] {
			return nil
		}

		loaded, err := config.Load(cfgFile)
		if err == nil {
			cfg = loaded
			return nil
		}

		// Without a config file every setting falls back to its default.
		if _, statErr := os.Stat(cfgFile); errors.Is(statErr, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
			cfg = config.DefaultConfig()
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "sshenum.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "print debug lines for every target")

	// Version flag
	rootCmd.Version = "0.1.0-dev"
}

// Execute runs the root command. Ctrl-C cancels the command context, which
// closes in-flight connections and ends the scan as cancelled.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
