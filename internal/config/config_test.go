package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
executable: ${TEST_EXEC_DIR}/firmware.elf
injector: ${TEST_EXEC_DIR}/campaign.csv
golden_result_condition: success
result_condition:
  - success
  - failure
number_of_runs: 100
timeout_ms: 5000
injection_delay:
  min_ms: 10
  max_ms: 200
experiment_name: demo
seed: 42
gdb:
  gdb_path: /usr/bin/gdb-multiarch
  embedded: true
  board_family: stm32
  remote: "localhost:3333"
metrics_addr: ":9090"
log:
  level: info
  format: console
`

func TestLoadExpandsEnvAndUnmarshals(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("TEST_EXEC_DIR", dir)
	defer os.Unsetenv("TEST_EXEC_DIR")

	path := filepath.Join(dir, "campaign.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Executable != dir+"/firmware.elf" {
		t.Fatalf("Executable = %q, want env-expanded path", cfg.Executable)
	}
	if cfg.Seed == nil || *cfg.Seed != 42 {
		t.Fatalf("Seed = %v, want 42", cfg.Seed)
	}
	if cfg.NumberOfRuns != 100 || cfg.Timeout().String() != "5s" {
		t.Fatalf("NumberOfRuns/Timeout mismatch: %+v", cfg)
	}
	min, max := cfg.InjectionDelayBounds()
	if min.Milliseconds() != 10 || max.Milliseconds() != 200 {
		t.Fatalf("InjectionDelayBounds = %v, %v", min, max)
	}
	if !cfg.GDB.Embedded || cfg.GDB.BoardFamily != "stm32" {
		t.Fatalf("GDB config mismatch: %+v", cfg.GDB)
	}
}

func TestValidateCollectsMissingRequiredFields(t *testing.T) {
	cfg := &CampaignConfig{}
	r := cfg.Validate()
	if !r.HasErrors() {
		t.Fatal("expected errors for empty config")
	}
	wantSubstrings := []string{"executable", "injector", "golden_result_condition", "seed", "gdb.gdb_path"}
	for _, want := range wantSubstrings {
		found := false
		for _, e := range r.Errors {
			if strings.Contains(e, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected an error mentioning %q, got %v", want, r.Errors)
		}
	}
}

func TestValidateWarnsOnUnsetBoardFamily(t *testing.T) {
	seed := int64(1)
	cfg := &CampaignConfig{
		Executable:            "a",
		Injector:              "",
		GoldenResultCondition: "success",
		NumberOfRuns:          1,
		TimeoutMS:             1000,
		ExperimentName:        "demo",
		Seed:                  &seed,
		GDB:                   GDBConfig{GDBPath: "/usr/bin/gdb"},
	}
	// Injector is required, so this config still has one error, but board
	// family absence should surface as a warning, not an error.
	r := cfg.Validate()
	foundWarning := false
	for _, w := range r.Warnings {
		if strings.Contains(w, "board_family") {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Errorf("expected a board_family warning, got %v", r.Warnings)
	}
}

func TestValidateRejectsUnknownBoardFamily(t *testing.T) {
	seed := int64(1)
	cfg := &CampaignConfig{
		Executable:            "a",
		Injector:              "",
		GoldenResultCondition: "success",
		NumberOfRuns:          1,
		TimeoutMS:             1000,
		ExperimentName:        "demo",
		Seed:                  &seed,
		GDB:                   GDBConfig{GDBPath: "/usr/bin/gdb", BoardFamily: "nonsense"},
	}
	r := cfg.Validate()
	found := false
	for _, e := range r.Errors {
		if strings.Contains(e, "board_family") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a board_family error, got %v", r.Errors)
	}
}

func TestApplyOverridesSetsKnownKeys(t *testing.T) {
	cfg := &CampaignConfig{}
	err := cfg.ApplyOverrides(map[string]string{
		"number_of_runs":  "50",
		"seed":            "7",
		"experiment_name": "override-demo",
	})
	if err != nil {
		t.Fatalf("ApplyOverrides: %v", err)
	}
	if cfg.NumberOfRuns != 50 || cfg.ExperimentName != "override-demo" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Seed == nil || *cfg.Seed != 7 {
		t.Fatalf("Seed = %v, want 7", cfg.Seed)
	}
}

func TestApplyOverridesRejectsUnknownKey(t *testing.T) {
	cfg := &CampaignConfig{}
	if err := cfg.ApplyOverrides(map[string]string{"nonsense": "1"}); err == nil {
		t.Fatal("expected error for unknown override key")
	}
}
