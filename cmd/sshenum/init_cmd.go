package main

import (
	"fmt"
	"path/filepath"

	"github.com/hakim/sshenum/internal/config"
	"github.com/hakim/sshenum/internal/storage"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	initForce bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize sshenum with default configuration",
	Long: `Creates a default configuration file (sshenum.yaml), initializes the
scan directory structure, and sets up the database for storing scans and
findings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		osFs := afero.NewOsFs()
		configPath := filepath.Join(initDir, "sshenum.yaml")

		// Check if config already exists
		if exists, _ := afero.Exists(osFs, configPath); exists && !initForce {
			return fmt.Errorf("config file already exists at %s. Use --force to overwrite", configPath)
		}

		if err := config.WriteDefault(osFs, configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Printf("Created %s with default configuration\n", configPath)

		// Load the config we just created to get paths
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := storage.EnsureDir(osFs, cfg.ScanDir); err != nil {
			return fmt.Errorf("failed to create scan directory: %w", err)
		}
		fmt.Printf("Created scan directory: %s\n", cfg.ScanDir)

		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()
		fmt.Printf("Initialized database: %s\n", cfg.DBPath)

		fmt.Println()
		fmt.Println("sshenum initialized successfully!")
		fmt.Println("Run 'sshenum check -t <host>' to test a target.")

		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "output directory")
	rootCmd.AddCommand(initCmd)
}
