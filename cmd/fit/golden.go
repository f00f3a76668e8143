package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sbancuz/fit/internal/campaign"
	"github.com/sbancuz/fit/internal/config"
	"github.com/sbancuz/fit/internal/elfsym"
	"github.com/sbancuz/fit/internal/gdbmi"
	"github.com/sbancuz/fit/internal/runner"
	"github.com/sbancuz/fit/internal/target"
)

var goldenCmd = &cobra.Command{
	Use:   "golden",
	Args:  cobra.NoArgs,
	Short: "Run only the golden (non-injected) execution, useful to smoke-test a binary/board pair",
	RunE:  runGolden,
}

func init() {
	goldenCmd.Flags().String("config", "", "path to campaign config YAML file")
	goldenCmd.MarkFlagRequired("config")
}

func runGolden(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	logger := newLogger()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	r := cfg.Validate()
	for _, w := range r.Warnings {
		logger.Warn(w)
	}
	if r.HasErrors() {
		return fmt.Errorf("invalid campaign config:\n%s", r.String())
	}

	resolver, err := elfsym.Load(cfg.Executable)
	if err != nil {
		return fmt.Errorf("loading ELF symbols: %w", err)
	}

	ctx := context.Background()
	boardFamily := gdbmi.BoardUnknown
	if cfg.BoardFamilyUpper() == "STM32" {
		boardFamily = gdbmi.BoardSTM32
	}
	adapter, err := gdbmi.New(ctx, gdbmi.Config{
		GDBPath:      cfg.GDB.GDBPath,
		Executable:   cfg.Executable,
		Embedded:     cfg.GDB.Embedded,
		BoardFamily:  boardFamily,
		Remote:       cfg.GDB.Remote,
		WordBytes:    resolver.WordBytes(),
		LittleEndian: resolver.LittleEndian(),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("starting gdb: %w", err)
	}
	defer adapter.Close(ctx)

	var targetLabels []string
	if cfg.Injector != "" {
		f, err := os.Open(cfg.Injector)
		if err != nil {
			return fmt.Errorf("opening injector CSV: %w", err)
		}
		data, err := campaign.LoadCSV(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("loading injector CSV: %w", err)
		}
		targetLabels = data.Targets()
	}

	surface := target.NewSurface(adapter, resolver)

	min, max := cfg.InjectionDelayBounds()
	ctrl, err := runner.New(adapter, surface, nil, nil, runner.Config{
		GoldenResultCondition: cfg.GoldenResultCondition,
		ResultConditions:      cfg.ResultCondition,
		NumberOfRuns:          0,
		Timeout:               cfg.Timeout(),
		InjectionDelayMin:     min,
		InjectionDelayMax:     max,
	}, logger, targetLabels)
	if err != nil {
		return fmt.Errorf("building run controller: %w", err)
	}
	defer ctrl.Close(ctx)

	rec, err := ctrl.Golden(ctx)
	if err != nil {
		return fmt.Errorf("golden run: %w", err)
	}
	fmt.Printf("golden result: %s\n", rec.Result)
	for k, v := range rec.Observed {
		fmt.Printf("  %s = %v\n", k, v)
	}
	return nil
}
