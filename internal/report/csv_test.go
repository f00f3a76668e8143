package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterProducesStableColumnOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	w, err := NewWriter(path, []string{"vmax1", "rax", "0x1000:0x1010"})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteRow("success", map[string]any{
		"vmax1":         uint64(42),
		"rax":           uint64(7),
		"0x1000:0x1010": []uint64{1, 2, 3, 4},
	}); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	wantHeader := "result,vmax1,rax,0x1000:0x1010"
	if lines[0] != wantHeader {
		t.Fatalf("header = %q, want %q", lines[0], wantHeader)
	}
	wantRow := "success,42,7,1;2;3;4"
	if lines[1] != wantRow {
		t.Fatalf("row = %q, want %q", lines[1], wantRow)
	}
}

func TestPaths(t *testing.T) {
	runs, golden := Paths("run-2026-07-30")
	if runs != "run-2026-07-30.csv" {
		t.Fatalf("runs path = %q", runs)
	}
	if golden != "run-2026-07-30_golden.csv" {
		t.Fatalf("golden path = %q", golden)
	}
}

func TestWriterMissingObservedKeyIsEmptyCell(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	w, err := NewWriter(path, []string{"vmax1"})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteRow("Timeout", map[string]any{}); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "Timeout,\n") {
		t.Fatalf("expected empty cell for missing observed key, got %q", string(data))
	}
}
