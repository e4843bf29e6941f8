package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hakim/sshenum/internal/config"
	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/pipeline"
	"github.com/manifoldco/promptui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const customPreset = "custom"

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive wizard to configure and launch a scan",
	Long: `Walk through scan configuration one question at a time.

The wizard asks for targets, a username list, a preset or oracle, and an
optional webhook URL. It then prints a summary and asks for confirmation
before launching the scan with the same logic as 'sshenum scan'.`,
	RunE: runWizard,
}

func init() {
	rootCmd.AddCommand(wizardCmd)
}

// runWizard is the cobra RunE handler for the wizard command.
func runWizard(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		return fmt.Errorf("config not loaded. Run 'sshenum init' first to create config")
	}

	fmt.Println("[*] sshenum Interactive Wizard")
	fmt.Println()

	opts, err := collectWizardOptions()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("wizard: %w", err)
	}

	return executeScan(cmd.Context(), *opts)
}

func collectWizardOptions() (*scanOptions, error) {
	scanCfg, err := cfg.ScanConfig()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	// ── 1. Targets ────────────────────────────────────────────────────────────
	targetsPrompt := promptui.Prompt{
		Label: "Targets (host[:port], comma-separated)",
		Validate: func(input string) error {
			raw := splitCSV(input)
			if len(raw) == 0 {
				return errors.New("at least one target is required")
			}
			_, err := buildTargets(raw, cfg.SSH.Port, timeout, false)
			return err
		},
	}
	targetsInput, err := targetsPrompt.Run()
	if err != nil {
		return nil, err
	}

	// ── 2. Username list ──────────────────────────────────────────────────────
	osFs := afero.NewOsFs()
	userPrompt := promptui.Prompt{
		Label: "Username list file",
		Validate: func(input string) error {
			ok, err := afero.Exists(osFs, strings.TrimSpace(input))
			if err != nil || !ok {
				return errors.New("file does not exist")
			}
			return nil
		},
	}
	userFile, err := userPrompt.Run()
	if err != nil {
		return nil, err
	}

	// ── 3. Preset or custom oracle ────────────────────────────────────────────
	items := append(pipeline.PresetNames(), customPreset)
	presetSelect := promptui.Select{
		Label: "Preset",
		Items: items,
	}
	_, presetName, err := presetSelect.Run()
	if err != nil {
		return nil, err
	}

	if presetName == customPreset {
		oracleSelect := promptui.Select{
			Label: "Oracle",
			Items: []string{string(models.OracleAuthMethod), string(models.OracleTiming)},
		}
		_, name, err := oracleSelect.Run()
		if err != nil {
			return nil, err
		}
		scanCfg.Oracle = models.OracleKind(name)

		if scanCfg.Oracle == models.OracleTiming {
			thresholdPrompt := promptui.Prompt{
				Label:   "Timing threshold",
				Default: scanCfg.Threshold.String(),
				Validate: func(input string) error {
					_, err := config.ParseDuration(input)
					return err
				},
			}
			input, err := thresholdPrompt.Run()
			if err != nil {
				return nil, err
			}
			scanCfg.Threshold, _ = config.ParseDuration(input)
		}
	} else {
		preset, err := pipeline.GetPreset(presetName)
		if err != nil {
			return nil, err
		}
		scanCfg = preset.Apply(scanCfg)
		if preset.Timeout > 0 {
			timeout = preset.Timeout
		}
	}

	targets, err := buildTargets(splitCSV(targetsInput), cfg.SSH.Port, timeout, cfg.SSH.Debug)
	if err != nil {
		return nil, err
	}

	// ── 4. Webhook URL ────────────────────────────────────────────────────────
	webhookPrompt := promptui.Prompt{
		Label:   "Webhook URL (optional)",
		Default: cfg.Notify.WebhookURL,
	}
	webhookURL, err := webhookPrompt.Run()
	if err != nil {
		return nil, err
	}

	// ── Summary + confirmation ────────────────────────────────────────────────
	fmt.Println()
	fmt.Println("[*] Ready to scan:")
	for _, t := range targets {
		fmt.Printf("    Target:    %s\n", t)
	}
	fmt.Printf("    Usernames: %s\n", userFile)
	fmt.Printf("    Preset:    %s\n", presetName)
	fmt.Printf("    Oracle:    %s\n", scanCfg.Oracle)
	if scanCfg.Oracle == models.OracleTiming {
		fmt.Printf("    Threshold: %s\n", scanCfg.Threshold)
	}
	fmt.Printf("    Timeout:   %s\n", timeout)
	if webhookURL != "" {
		fmt.Printf("    Webhook:   %s\n", webhookURL)
	} else {
		fmt.Println("    Webhook:   (none)")
	}
	fmt.Println()

	confirm := promptui.Prompt{
		Label:     "Start scan",
		IsConfirm: true,
	}
	if _, err := confirm.Run(); err != nil {
		return nil, err
	}

	return &scanOptions{
		Targets:    targets,
		UserFile:   strings.TrimSpace(userFile),
		Config:     scanCfg,
		Workers:    cfg.Enum.Workers,
		Scope:      nonEmptyScope(cfg.ScopeRules()),
		WebhookURL: strings.TrimSpace(webhookURL),
	}, nil
}

func nonEmptyScope(s *pipeline.ScopeConfig) *pipeline.ScopeConfig {
	if s.Empty() {
		return nil
	}
	return s
}
