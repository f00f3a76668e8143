// Package config loads and validates the campaign configuration (spec.md
// §6's "Campaign config"), grounded on pkg/config/config.go's env-var
// expansion + YAML unmarshal and pkg/scenario/validator/validator.go's
// collect-warnings-and-errors-before-failing style.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sbancuz/fit/internal/campaign"
)

// GDBConfig is the campaign's debugger connection shape (spec.md §6's
// "gdb: { gdb_path, embedded, board_family, remote? }").
type GDBConfig struct {
	GDBPath     string `yaml:"gdb_path"`
	Embedded    bool   `yaml:"embedded"`
	BoardFamily string `yaml:"board_family"`
	Remote      string `yaml:"remote"`
}

// InjectionDelayConfig is the per-iteration sleep window (spec.md §6).
type InjectionDelayConfig struct {
	MinMS int64 `yaml:"min_ms"`
	MaxMS int64 `yaml:"max_ms"`
}

// LogConfig configures internal/logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CampaignConfig is the typed campaign config object spec.md §6
// describes, in the concrete shape given in SPEC_FULL.md's CAMPAIGN
// CONFIG SCHEMA.
type CampaignConfig struct {
	Executable            string               `yaml:"executable"`
	Injector              string               `yaml:"injector"`
	GoldenResultCondition string               `yaml:"golden_result_condition"`
	ResultCondition       []string             `yaml:"result_condition"`
	NumberOfRuns          int                  `yaml:"number_of_runs"`
	TimeoutMS             int64                `yaml:"timeout_ms"`
	InjectionDelay        InjectionDelayConfig `yaml:"injection_delay"`
	ExperimentName        string               `yaml:"experiment_name"`
	// Seed is a pointer so Validate can distinguish "absent from the YAML"
	// from "explicitly set to 0" — spec.md §9 resolves the PRNG seed as a
	// required field, not an OS-derived default.
	Seed        *int64    `yaml:"seed"`
	GDB         GDBConfig `yaml:"gdb"`
	MetricsAddr string    `yaml:"metrics_addr"`
	Log         LogConfig `yaml:"log"`
}

// Timeout returns TimeoutMS as a time.Duration.
func (c *CampaignConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// BoardFamilyUpper normalizes gdb.board_family for case-insensitive
// comparison, defaulting to "UNKNOWN" when unset.
func (c *CampaignConfig) BoardFamilyUpper() string {
	if c.GDB.BoardFamily == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(c.GDB.BoardFamily)
}

// InjectionDelayBounds returns the injection delay window as durations.
func (c *CampaignConfig) InjectionDelayBounds() (min, max time.Duration) {
	return time.Duration(c.InjectionDelay.MinMS) * time.Millisecond,
		time.Duration(c.InjectionDelay.MaxMS) * time.Millisecond
}

// Load reads path, expands ${VAR}-style environment references the way
// pkg/config/config.go does, and unmarshals into a CampaignConfig.
func Load(path string) (*CampaignConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &CampaignConfig{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Report is the collected outcome of Validate: every issue found, split
// into fatal errors and non-fatal warnings, mirroring
// pkg/scenario/validator/validator.go's Validator.
type Report struct {
	Errors   []string
	Warnings []string
}

func (r *Report) addErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) addWarningf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any fatal issue was found.
func (r *Report) HasErrors() bool { return len(r.Errors) > 0 }

// String renders the report the way Validator.GetReport does.
func (r *Report) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("ERRORS:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "  - %s\n", e)
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("WARNINGS:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", w)
		}
	}
	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		sb.WriteString("Validation passed with no issues.\n")
	}
	return sb.String()
}

// ApplyOverrides applies --set key=value CLI overrides to c, the same
// switch-on-known-keys shape as pkg/scenario/parser.ApplyOverrides.
func (c *CampaignConfig) ApplyOverrides(overrides map[string]string) error {
	for key, value := range overrides {
		switch key {
		case "number_of_runs":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid number_of_runs override: %w", err)
			}
			c.NumberOfRuns = n

		case "timeout_ms":
			ms, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timeout_ms override: %w", err)
			}
			c.TimeoutMS = ms

		case "experiment_name":
			c.ExperimentName = value

		case "seed":
			s, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seed override: %w", err)
			}
			c.Seed = &s

		case "gdb.remote":
			c.GDB.Remote = value

		case "gdb.board_family":
			c.GDB.BoardFamily = value

		case "metrics_addr":
			c.MetricsAddr = value

		default:
			return fmt.Errorf("unsupported override key: %s", key)
		}
	}
	return nil
}

var knownBoardFamilies = map[string]bool{"STM32": true, "UNKNOWN": true}

// Validate runs every pre-flight check spec.md §7.1 requires, before any
// debugger is spawned: structural field checks, probability sums (via a
// full load of the injector CSV), board family, and the required-seed
// Open Question resolution. Errors and warnings accumulate rather than
// failing fast, per pkg/scenario/validator/validator.go's style.
func (c *CampaignConfig) Validate() *Report {
	r := &Report{}

	if c.Executable == "" {
		r.addErrorf("executable is required")
	}
	if c.Injector == "" {
		r.addErrorf("injector is required")
	}
	if c.GoldenResultCondition == "" {
		r.addErrorf("golden_result_condition is required")
	}
	if c.NumberOfRuns < 0 {
		r.addErrorf("number_of_runs must be non-negative, got %d", c.NumberOfRuns)
	}
	if c.TimeoutMS <= 0 {
		r.addErrorf("timeout_ms must be positive, got %d", c.TimeoutMS)
	}
	if c.InjectionDelay.MinMS < 0 || c.InjectionDelay.MaxMS < c.InjectionDelay.MinMS {
		r.addErrorf("injection_delay must satisfy 0 <= min_ms <= max_ms, got min=%d max=%d",
			c.InjectionDelay.MinMS, c.InjectionDelay.MaxMS)
	}
	if c.ExperimentName == "" {
		r.addErrorf("experiment_name is required")
	}
	if c.Seed == nil {
		r.addErrorf("seed is required (spec §9: the PRNG seed must be an explicit config field, never OS-derived)")
	}

	if c.GDB.GDBPath == "" {
		r.addErrorf("gdb.gdb_path is required")
	}
	boardFamily := c.BoardFamilyUpper()
	if c.GDB.BoardFamily == "" {
		r.addWarningf("gdb.board_family not set, defaulting to UNKNOWN")
	} else if !knownBoardFamilies[boardFamily] {
		r.addErrorf("gdb.board_family %q is not one of STM32, UNKNOWN", c.GDB.BoardFamily)
	}
	if !c.GDB.Embedded && c.GDB.BoardFamily != "" && boardFamily != "UNKNOWN" {
		r.addWarningf("gdb.board_family %q is set but gdb.embedded is false; it will be ignored", c.GDB.BoardFamily)
	}

	if c.Injector != "" {
		f, err := os.Open(c.Injector)
		if err != nil {
			r.addErrorf("opening injector CSV %s: %v", c.Injector, err)
		} else {
			defer f.Close()
			data, err := campaign.LoadCSV(f)
			if err != nil {
				r.addErrorf("loading injector CSV %s: %v", c.Injector, err)
			} else {
				for _, b := range data.Buckets() {
					if _, ferr := b.Fixed(); ferr != nil {
						r.addErrorf("bucket %s/%s: %v", b.Where, b.Operation, ferr)
					}
				}
			}
		}
	}

	return r
}
