package target

import (
	"context"
	"fmt"
)

// MemoryBackend is the subset of the Debugger Adapter (internal/gdbmi)
// the Target Surface drives. Declared here rather than imported so that
// internal/target does not import internal/gdbmi, which already imports
// internal/target for target.Mapping (ListMappings) — *gdbmi.Adapter
// satisfies this interface structurally.
type MemoryBackend interface {
	ReadMemory(ctx context.Context, addr uint64, count, wordBytes int) ([]uint64, error)
	WriteMemory(ctx context.Context, addr uint64, words []uint64, wordBytes int) error
	ReadRegister(ctx context.Context, name string) (uint64, error)
	WriteRegister(ctx context.Context, name string, value uint64) error
	WordBytes() int
}

// SymbolResolver resolves a variable name to its address and size, the
// external collaborator spec.md §1 names ("ELF parsing ... the core
// consumes a SymbolResolver interface").
type SymbolResolver interface {
	Resolve(name string) (addr uint64, sizeBytes int, ok bool)
}

// Surface is the Target Surface (C4): index-style read/write views over
// a MemoryBackend, keyed by any Address shape.
type Surface struct {
	backend  MemoryBackend
	resolver SymbolResolver
}

// NewSurface builds a Surface over backend, resolving Variable targets
// through resolver.
func NewSurface(backend MemoryBackend, resolver SymbolResolver) *Surface {
	return &Surface{backend: backend, resolver: resolver}
}

func (s *Surface) resolveScalarAddress(addr Address) (uint64, error) {
	switch addr.Kind {
	case KindAddress:
		return addr.Addr, nil
	case KindVariable:
		if s.resolver == nil {
			return 0, fmt.Errorf("target: no symbol resolver configured, cannot resolve %q", addr.Name)
		}
		base, _, ok := s.resolver.Resolve(addr.Name)
		if !ok {
			return 0, fmt.Errorf("target: unknown variable %q", addr.Name)
		}
		return uint64(int64(base) + addr.Offset), nil
	default:
		return 0, fmt.Errorf("target: %v is not a scalar address", addr.Kind)
	}
}

// ReadWord reads exactly one machine word from addr (KindAddress,
// KindVariable, or KindRegister).
func (s *Surface) ReadWord(ctx context.Context, addr Address) (uint64, error) {
	if addr.Kind == KindRegister {
		return s.backend.ReadRegister(ctx, addr.Name)
	}
	a, err := s.resolveScalarAddress(addr)
	if err != nil {
		return 0, err
	}
	wb := s.backend.WordBytes()
	words, err := s.backend.ReadMemory(ctx, a, wb, wb)
	if err != nil {
		return 0, err
	}
	if len(words) == 0 {
		return 0, fmt.Errorf("target: read at 0x%x returned no words", a)
	}
	return words[0], nil
}

// WriteWord writes exactly one machine word to addr.
func (s *Surface) WriteWord(ctx context.Context, addr Address, value uint64) error {
	if addr.Kind == KindRegister {
		return s.backend.WriteRegister(ctx, addr.Name, value)
	}
	a, err := s.resolveScalarAddress(addr)
	if err != nil {
		return err
	}
	wb := s.backend.WordBytes()
	return s.backend.WriteMemory(ctx, a, []uint64{value}, wb)
}

// ReadRange reads addr.Span (a KindRange target) as a WordList, chunked
// into step-byte words (step<=0 selects the backend's machine word
// size), per spec.md §4.4.
func (s *Surface) ReadRange(ctx context.Context, addr Address, step int) (WordList, error) {
	if addr.Kind != KindRange {
		return nil, fmt.Errorf("target: ReadRange requires a Range target, got %v", addr.Kind)
	}
	if step <= 0 {
		step = s.backend.WordBytes()
	}
	count := int(addr.Span.Hi - addr.Span.Lo)
	words, err := s.backend.ReadMemory(ctx, addr.Span.Lo, count, step)
	if err != nil {
		return nil, err
	}
	return WordList(words), nil
}

// WriteRange writes values into addr.Span (a KindRange target), chunked
// into step-byte words. A single-element values broadcasts across the
// whole range; a longer list writes pairwise, truncated to the shorter
// of (range length, len(values)), per spec.md §4.4.
func (s *Surface) WriteRange(ctx context.Context, addr Address, step int, values WordList) error {
	if addr.Kind != KindRange {
		return fmt.Errorf("target: WriteRange requires a Range target, got %v", addr.Kind)
	}
	if step <= 0 {
		step = s.backend.WordBytes()
	}
	rangeWords := int((addr.Span.Hi - addr.Span.Lo)) / step
	if rangeWords <= 0 {
		return fmt.Errorf("target: range %v has no room for a %d-byte word", addr.Span, step)
	}

	var out []uint64
	switch len(values) {
	case 0:
		return fmt.Errorf("target: WriteRange requires at least one value")
	case 1:
		out = make([]uint64, rangeWords)
		for i := range out {
			out[i] = values[0]
		}
	default:
		n := rangeWords
		if len(values) < n {
			n = len(values)
		}
		out = []uint64(values[:n])
	}
	return s.backend.WriteMemory(ctx, addr.Span.Lo, out, step)
}

// WriteRegisterList writes a register target. A one-element list is
// accepted (unwrapped); longer lists are fatal, per spec.md §4.4.
func (s *Surface) WriteRegisterList(ctx context.Context, addr Address, values WordList) error {
	if addr.Kind != KindRegister {
		return fmt.Errorf("target: WriteRegisterList requires a Register target, got %v", addr.Kind)
	}
	switch len(values) {
	case 1:
		return s.backend.WriteRegister(ctx, addr.Name, values[0])
	default:
		return fmt.Errorf("target: register %q is not an array (got %d values)", addr.Name, len(values))
	}
}
