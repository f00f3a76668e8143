package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sbancuz/fit/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Args:  cobra.NoArgs,
	Short: "Validate a campaign config and injector CSV without spawning a debugger",
	RunE:  validateConfig,
}

func init() {
	validateCmd.Flags().String("config", "", "path to campaign config YAML file")
	validateCmd.Flags().StringArray("set", []string{}, "override config values (e.g., --set number_of_runs=50)")
	validateCmd.MarkFlagRequired("config")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	setFlags, _ := cmd.Flags().GetStringArray("set")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(setFlags) > 0 {
		if err := cfg.ApplyOverrides(parseSetFlags(setFlags)); err != nil {
			return fmt.Errorf("applying overrides: %w", err)
		}
	}

	r := cfg.Validate()
	fmt.Print(r.String())
	if r.HasErrors() {
		return fmt.Errorf("campaign config %s is invalid", cfgPath)
	}
	fmt.Println("campaign config is valid")
	return nil
}
