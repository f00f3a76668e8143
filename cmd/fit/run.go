package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sbancuz/fit/internal/campaign"
	"github.com/sbancuz/fit/internal/config"
	"github.com/sbancuz/fit/internal/elfsym"
	"github.com/sbancuz/fit/internal/gdbmi"
	"github.com/sbancuz/fit/internal/metrics"
	"github.com/sbancuz/fit/internal/progress"
	"github.com/sbancuz/fit/internal/report"
	"github.com/sbancuz/fit/internal/runner"
	"github.com/sbancuz/fit/internal/target"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Run a golden execution followed by a fault injection campaign",
	Long:  `Loads a campaign config YAML file and executes the golden run plus the configured number of injected iterations.`,
	RunE:  runCampaign,
}

func init() {
	runCmd.Flags().String("config", "", "path to campaign config YAML file")
	runCmd.Flags().StringArray("set", []string{}, "override config values (e.g., --set number_of_runs=50)")
	runCmd.Flags().String("format", "text", "progress output format (text, json)")
	runCmd.MarkFlagRequired("config")
}

func runCampaign(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	setFlags, _ := cmd.Flags().GetStringArray("set")
	outputFormat, _ := cmd.Flags().GetString("format")

	logger := newLogger()

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
	for _, w := range r.Warnings {
		logger.Warn(w)
	}
	if r.HasErrors() {
		for _, e := range r.Errors {
			logger.Error(e)
		}
		return fmt.Errorf("invalid campaign config:\n%s", r.String())
	}

	logger.Info("campaign config validated", "experiment", cfg.ExperimentName)

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

	injectorFile, err := os.Open(cfg.Injector)
	if err != nil {
		return fmt.Errorf("opening injector CSV: %w", err)
	}
	data, err := campaign.LoadCSV(injectorFile)
	injectorFile.Close()
	if err != nil {
		return fmt.Errorf("loading injector CSV: %w", err)
	}

	surface := target.NewSurface(adapter, resolver)
	rng := rand.New(rand.NewSource(*cfg.Seed))
	sampler := campaign.NewSampler(rng, data, adapter.IsRegister, int64(resolver.WordBytes()*8))

	min, max := cfg.InjectionDelayBounds()
	ctrl, err := runner.New(adapter, surface, sampler, rng, runner.Config{
		GoldenResultCondition: cfg.GoldenResultCondition,
		ResultConditions:      cfg.ResultCondition,
		NumberOfRuns:          cfg.NumberOfRuns,
		Timeout:               cfg.Timeout(),
		InjectionDelayMin:     min,
		InjectionDelayMax:     max,
	}, logger, data.Targets())
	if err != nil {
		return fmt.Errorf("building run controller: %w", err)
	}
	defer ctrl.Close(ctx)

	runsPath, goldenPath := report.Paths(cfg.ExperimentName)
	goldenWriter, err := report.NewWriter(goldenPath, data.Targets())
	if err != nil {
		return fmt.Errorf("creating golden report: %w", err)
	}
	defer goldenWriter.Close()
	runsWriter, err := report.NewWriter(runsPath, data.Targets())
	if err != nil {
		return fmt.Errorf("creating run report: %w", err)
	}
	defer runsWriter.Close()

	reporter := progress.New(progress.OutputFormat(outputFormat))

	var reg *metrics.Registry
	if cfg.MetricsAddr != "" {
		reg = metrics.New()
		reg.Serve(cfg.MetricsAddr)
		defer reg.Shutdown(ctx)
		logger.Info("metrics endpoint listening", "addr", cfg.MetricsAddr)
	}

	goldenResult := ""
	diverged := 0
	total := 0
	n := 0
	campaignStart := time.Now()
	last := campaignStart
	err = ctrl.RunCampaign(ctx, func(rec runner.RunRecord, isGolden bool) {
		now := time.Now()
		elapsed := now.Sub(last)
		last = now

		if isGolden {
			goldenResult = rec.Result
			reporter.ReportGoldenRun(rec)
			if werr := goldenWriter.WriteRow(rec.Result, rec.Observed); werr != nil {
				logger.Error("writing golden row", "error", werr)
			}
			return
		}
		n++
		total++
		hasDiverged := rec.Result != goldenResult
		if hasDiverged {
			diverged++
		}
		reporter.ReportIterationResult(n, rec)
		if werr := runsWriter.WriteRow(rec.Result, rec.Observed); werr != nil {
			logger.Error("writing run row", "error", werr)
		}
		if reg != nil {
			reg.ObserveIteration(rec.Result, hasDiverged, elapsed)
		}
	})
	if err != nil {
		return fmt.Errorf("running campaign: %w", err)
	}

	reporter.ReportCampaignCompleted(total, diverged, time.Since(campaignStart))
	logger.Info("campaign completed", "total", total, "diverged", diverged)
	return nil
}
