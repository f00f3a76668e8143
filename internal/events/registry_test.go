package events

import "testing"

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	r.Register(Breakpoint{ID: 1, Address: "0x1000", Name: "stop"})

	if got := r.NameForID(1); got != "stop" {
		t.Fatalf("NameForID(1) = %q, want %q", got, "stop")
	}
	if got := r.NameForID(999); got != ResultUnknown {
		t.Fatalf("NameForID(999) = %q, want %q", got, ResultUnknown)
	}

	bp, ok := r.Lookup("stop")
	if !ok || bp.ID != 1 {
		t.Fatalf("Lookup(stop) = %+v, %v", bp, ok)
	}
}

func TestClearRemovesAllEntries(t *testing.T) {
	r := New()
	r.Register(Breakpoint{ID: 1, Address: "0x1000", Name: "stop"})
	r.Clear()

	if _, ok := r.Lookup("stop"); ok {
		t.Fatal("expected registry to be empty after Clear")
	}
	if got := r.NameForID(1); got != ResultUnknown {
		t.Fatalf("NameForID(1) after Clear = %q, want %q", got, ResultUnknown)
	}
}
