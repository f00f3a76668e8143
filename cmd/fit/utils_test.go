package main

import "testing"

func TestParseSetFlags(t *testing.T) {
	got := parseSetFlags([]string{"number_of_runs=50", "seed=7", "malformed"})
	if len(got) != 2 {
		t.Fatalf("got %d overrides, want 2: %+v", len(got), got)
	}
	if got["number_of_runs"] != "50" || got["seed"] != "7" {
		t.Fatalf("got = %+v", got)
	}
	if _, ok := got["malformed"]; ok {
		t.Fatal("malformed entry without '=' should be dropped")
	}
}
