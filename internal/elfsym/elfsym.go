// Package elfsym implements target.SymbolResolver by reading an ELF
// binary's symbol table with the standard library, grounded on
// original_source/fit/elf.py's ELF wrapper (symbol lookup, bit width,
// endianness) without needing a third-party ELF/LIEF-equivalent library —
// no corpus repo has binary-format concerns, so debug/elf is the
// idiomatic Go substitute for the original's `lief` dependency.
package elfsym

import (
	"debug/elf"
	"fmt"
)

// Resolver resolves a variable name to its address and size by walking
// an ELF binary's symbol table once at construction.
type Resolver struct {
	symbols      map[string]elf.Symbol
	wordBytes    int
	littleEndian bool
}

// Load opens and parses the ELF file at path, the Go analogue of
// original_source/fit/elf.py's ELF(path).
func Load(path string) (*Resolver, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elfsym: opening %s: %w", path, err)
	}
	defer f.Close()

	syms, err := f.Symbols()
	if err != nil {
		// A stripped binary with no regular symbol table may still
		// have dynamic symbols; try those before giving up.
		syms, err = f.DynamicSymbols()
		if err != nil {
			return nil, fmt.Errorf("elfsym: reading symbols from %s: %w", path, err)
		}
	}

	r := &Resolver{
		symbols:      make(map[string]elf.Symbol, len(syms)),
		wordBytes:    wordBytesOf(f),
		littleEndian: f.Data == elf.ELFDATA2LSB,
	}
	for _, s := range syms {
		if s.Name == "" {
			continue
		}
		r.symbols[s.Name] = s
	}
	return r, nil
}

// wordBytesOf mirrors original_source/fit/elf.py's "bits" property: 64
// for ELFCLASS64, 32 otherwise.
func wordBytesOf(f *elf.File) int {
	if f.Class == elf.ELFCLASS64 {
		return 8
	}
	return 4
}

// Resolve implements target.SymbolResolver.
func (r *Resolver) Resolve(name string) (addr uint64, sizeBytes int, ok bool) {
	s, ok := r.symbols[name]
	if !ok {
		return 0, 0, false
	}
	return s.Value, int(s.Size), true
}

// WordBytes reports the ELF's machine word size in bytes (4 or 8).
func (r *Resolver) WordBytes() int { return r.wordBytes }

// LittleEndian reports the ELF's declared byte order.
func (r *Resolver) LittleEndian() bool { return r.littleEndian }
