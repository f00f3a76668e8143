package stencil

import (
	"math/rand"
	"testing"

	"github.com/sbancuz/fit/internal/distribution"
)

func mustFixed(t *testing.T, probs []float64) *distribution.Fixed {
	t.Helper()
	f, err := distribution.NewFixed(probs)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	return f
}

// TestReversibility checks spec.md §8's "Stencil reversibility" property:
// a single-pattern, zero-offset stencil's little-endian word sequence
// reconstructs the pattern padded to max_chunks*word_bytes bytes.
func TestReversibility(t *testing.T) {
	pattern := int64(0xDEADBEEF)
	offsetDist := distribution.NewUniform(0, 0, 1)
	patternDist := mustFixed(t, []float64{1})

	s, err := New([]int64{pattern}, patternDist, offsetDist, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	words := s.Random(rng)

	var rebuilt uint64
	for i, w := range words {
		rebuilt |= w << (32 * uint(i))
	}
	if rebuilt != uint64(pattern) {
		t.Fatalf("rebuilt = %#x, want %#x", rebuilt, pattern)
	}
}

// TestLayerCommutesWithIndependentRandom checks spec.md §8's "Stencil
// commutativity of layer" property against the same PRNG sequence.
func TestLayerCommutesWithIndependentRandom(t *testing.T) {
	offsetDist := distribution.NewUniform(0, 8, 1)
	patternDist := mustFixed(t, []float64{0.5, 0.5})
	s, err := New([]int64{0xAA, 0x55}, patternDist, offsetDist, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const n = 3
	rngA := rand.New(rand.NewSource(42))
	layered := s.Layer(rngA, n, n)

	rngB := rand.New(rand.NewSource(42))
	want := make([]uint64, s.MaxChunks())
	for i := 0; i < n; i++ {
		words := s.Random(rngB)
		for j := range want {
			want[j] ^= words[j]
		}
	}

	if len(layered) != len(want) {
		t.Fatalf("len(layered) = %d, want %d", len(layered), len(want))
	}
	for i := range want {
		if layered[i] != want[i] {
			t.Fatalf("word %d = %#x, want %#x", i, layered[i], want[i])
		}
	}
}

func TestMaxChunksFormula(t *testing.T) {
	offsetDist := distribution.NewUniform(0, 63, 1) // length 63
	patternDist := mustFixed(t, []float64{1})
	s, err := New([]int64{0xFF}, patternDist, offsetDist, 4) // word_bits = 32
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// ceil(63/32) + ceil(8/32) = 2 + 1 = 3
	if got := s.MaxChunks(); got != 3 {
		t.Fatalf("MaxChunks() = %d, want 3", got)
	}
}

func TestNewRejectsMismatchedPatternLength(t *testing.T) {
	offsetDist := distribution.NewUniform(0, 0, 1)
	patternDist := mustFixed(t, []float64{1})
	if _, err := New([]int64{1, 2}, patternDist, offsetDist, 4); err == nil {
		t.Fatal("expected error when len(patterns)-1 != pattern_distribution.Length()")
	}
}
