package gdbmi

import "testing"

func TestCheckNilMatchesAnything(t *testing.T) {
	actual := map[string]any{"message": "stopped", "payload": map[string]any{"reason": "exited-normally"}}
	expected := map[string]any{"message": nil}
	if !Check(actual, expected) {
		t.Fatal("nil expected value should match any present key")
	}
}

func TestCheckMissingKeyFails(t *testing.T) {
	actual := map[string]any{"message": "stopped"}
	expected := map[string]any{"payload": nil}
	if Check(actual, expected) {
		t.Fatal("expected Check to fail when key is absent")
	}
}

func TestCheckNestedMap(t *testing.T) {
	actual := map[string]any{
		"type":    "notify",
		"message": "stopped",
		"payload": map[string]any{"reason": "breakpoint-hit", "bkptno": "3"},
	}
	expected := map[string]any{
		"type":    "notify",
		"payload": map[string]any{"reason": "breakpoint-hit"},
	}
	if !Check(actual, expected) {
		t.Fatal("expected nested map to match partially")
	}
}

func TestCheckListRequiresEveryAlternative(t *testing.T) {
	actual := map[string]any{"payload": map[string]any{"reason": "breakpoint-hit", "bkptno": "1"}}
	// Both alternatives must match the SAME payload (conjunction, not
	// disjunction) — this actual does not carry "disp", so it fails.
	expected := map[string]any{
		"payload": []any{
			map[string]any{"reason": "breakpoint-hit"},
			map[string]any{"disp": "del"},
		},
	}
	if Check(actual, expected) {
		t.Fatal("expected conjunction semantics to fail when one alternative does not match")
	}
}

func TestCheckListAllMatch(t *testing.T) {
	actual := map[string]any{"payload": map[string]any{"reason": "breakpoint-hit", "bkptno": "1"}}
	expected := map[string]any{
		"payload": []any{
			map[string]any{"reason": "breakpoint-hit"},
			map[string]any{"bkptno": "1"},
		},
	}
	if !Check(actual, expected) {
		t.Fatal("expected both list alternatives to match the same payload")
	}
}

func TestAnyMatchOR(t *testing.T) {
	actual := map[string]any{"message": "stopped"}
	wait := []map[string]any{
		{"message": "running"},
		{"message": "stopped"},
	}
	if !AnyMatch(actual, wait) {
		t.Fatal("expected AnyMatch to find the matching alternative")
	}
}
