package elfsym

import (
	"debug/elf"
	"testing"
)

func TestWordBytesOf(t *testing.T) {
	f64 := &elf.File{FileHeader: elf.FileHeader{Class: elf.ELFCLASS64}}
	if got := wordBytesOf(f64); got != 8 {
		t.Fatalf("wordBytesOf(ELFCLASS64) = %d, want 8", got)
	}
	f32 := &elf.File{FileHeader: elf.FileHeader{Class: elf.ELFCLASS32}}
	if got := wordBytesOf(f32); got != 4 {
		t.Fatalf("wordBytesOf(ELFCLASS32) = %d, want 4", got)
	}
}

func TestResolverResolveMissingSymbol(t *testing.T) {
	r := &Resolver{symbols: map[string]elf.Symbol{
		"vmax1": {Value: 0x2000, Size: 4},
	}}
	addr, size, ok := r.Resolve("vmax1")
	if !ok || addr != 0x2000 || size != 4 {
		t.Fatalf("Resolve(vmax1) = (%#x, %d, %v), want (0x2000, 4, true)", addr, size, ok)
	}
	if _, _, ok := r.Resolve("missing"); ok {
		t.Fatal("expected Resolve(missing) to report not found")
	}
}
