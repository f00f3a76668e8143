// Package stencil implements the bit-pattern placement described in
// spec.md §3/§4.2: a pattern chosen by a discrete distribution, shifted
// by an offset distribution, and chunked into little-endian words.
package stencil

import (
	"fmt"
	"math/big"
	"math/bits"
	"math/rand"

	"github.com/sbancuz/fit/internal/distribution"
)

// Stencil places one of Patterns at a sampled offset and splits the
// result into WordBytes-sized little-endian words.
type Stencil struct {
	Patterns            []int64
	PatternDistribution distribution.Distribution
	OffsetDistribution  distribution.Distribution
	WordBytes           int
}

// New validates the §4.2 precondition len(patterns)-1 ==
// pattern_distribution.length() and constructs a Stencil.
func New(patterns []int64, patternDist, offsetDist distribution.Distribution, wordBytes int) (*Stencil, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("stencil: no patterns given")
	}
	if int64(len(patterns)-1) != patternDist.Length() {
		return nil, fmt.Errorf("stencil: len(patterns)-1 = %d, pattern_distribution.Length() = %d",
			len(patterns)-1, patternDist.Length())
	}
	if wordBytes <= 0 {
		return nil, fmt.Errorf("stencil: word_bytes must be positive, got %d", wordBytes)
	}
	return &Stencil{
		Patterns:            patterns,
		PatternDistribution: patternDist,
		OffsetDistribution:  offsetDist,
		WordBytes:           wordBytes,
	}, nil
}

func (s *Stencil) wordBits() int64 { return int64(8 * s.WordBytes) }

// wordMask is 2^word_bits - 1.
func (s *Stencil) wordMask() *big.Int {
	mask := new(big.Int).Lsh(big.NewInt(1), uint(s.wordBits()))
	return mask.Sub(mask, big.NewInt(1))
}

// maxPatternBits is the bit length of the widest pattern in Patterns.
func (s *Stencil) maxPatternBits() int64 {
	var maxBits int
	for _, p := range s.Patterns {
		if b := bits.Len64(uint64(p)); b > maxBits {
			maxBits = b
		}
	}
	return int64(maxBits)
}

// MaxChunks is max_chunks from spec.md §4.2:
// ceil(offset_distribution.length()/word_bits) + ceil(max_pattern_bits/word_bits).
func (s *Stencil) MaxChunks() int {
	wb := s.wordBits()
	n := ceilDiv(s.OffsetDistribution.Length(), wb) + ceilDiv(s.maxPatternBits(), wb)
	if n <= 0 {
		n = 1
	}
	return int(n)
}

func ceilDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Random produces one placed value's word sequence, per the bit-exact
// loop in spec.md §4.2:
//
//	p = patterns[pattern_distribution.random()]
//	v = p << offset_distribution.random()
//	out[i] = (v >> (word_bits*i)) & word_mask
func (s *Stencil) Random(rng *rand.Rand) []uint64 {
	idx := s.PatternDistribution.Random(rng)
	p := s.Patterns[idx]
	offset := s.OffsetDistribution.Random(rng)
	if offset < 0 {
		offset = 0
	}

	v := new(big.Int).SetInt64(p)
	v.Lsh(v, uint(offset))

	n := s.MaxChunks()
	wb := uint(s.wordBits())
	mask := s.wordMask()
	out := make([]uint64, n)
	shifted := new(big.Int)
	word := new(big.Int)
	for i := 0; i < n; i++ {
		shifted.Rsh(v, wb*uint(i))
		word.And(shifted, mask)
		out[i] = word.Uint64()
	}
	return out
}

// Layer XORs together n independent Random() results, elementwise, where
// n is drawn uniformly from [min, max].
func (s *Stencil) Layer(rng *rand.Rand, min, max int) []uint64 {
	if max < min {
		min, max = max, min
	}
	n := min
	if max > min {
		n = min + rng.Intn(max-min+1)
	}
	out := make([]uint64, s.MaxChunks())
	for i := 0; i < n; i++ {
		words := s.Random(rng)
		for j := range out {
			out[j] ^= words[j]
		}
	}
	return out
}
