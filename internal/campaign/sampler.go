package campaign

import (
	"math/rand"

	"github.com/sbancuz/fit/internal/distribution"
	"github.com/sbancuz/fit/internal/fiterr"
	"github.com/sbancuz/fit/internal/stencil"
	"github.com/sbancuz/fit/internal/target"
)

// Sampler draws one injection per run: first a (where, operation) pair
// weighted by each bucket's operation_probability (spec.md §4.1's "two
// level weighted choice", grounded on original_source/main.py's
// choose_random_key over a combined (where, operation) -> probability
// dict), then a Stencil built from that bucket's fixed value
// distribution.
//
// All draws go through the *rand.Rand supplied at construction — never
// math/rand's global source — per the campaign-wide reproducibility
// requirement in spec.md §9, mirroring pkg/fuzz/sampler.go's
// seed-holding Sampler type.
type Sampler struct {
	rng      *rand.Rand
	data     *Data
	keys     []bucketKey
	weights  []float64
	totalW   float64
	isReg    target.RegisterLookup
	wordBits int64
}

// NewSampler builds a Sampler over data, seeded by rng. isReg classifies
// a "where" string as a register name (spec.md §3's Variable/Register
// ambiguity); wordBits is the inferior's machine word size in bits, used
// as the default granularity for a Range target's offset distribution.
func NewSampler(rng *rand.Rand, data *Data, isReg target.RegisterLookup, wordBits int64) *Sampler {
	s := &Sampler{rng: rng, data: data, isReg: isReg, wordBits: wordBits}
	for _, k := range data.order {
		b := data.buckets[k]
		s.keys = append(s.keys, k)
		s.weights = append(s.weights, b.OperationProbability)
		s.totalW += b.OperationProbability
	}
	return s
}

// chooseBucket performs the outer weighted choice over every (where,
// operation) pair — the cumulative-subtraction idiom shared with
// pkg/fuzz/sampler.go's weightedChoice, adapted from integer to float
// weights.
func (s *Sampler) chooseBucket() *OperationBucket {
	if s.totalW <= 0 {
		return s.data.buckets[s.keys[s.rng.Intn(len(s.keys))]]
	}
	r := s.rng.Float64() * s.totalW
	for _, k := range s.keys {
		b := s.data.buckets[k]
		r -= b.OperationProbability
		if r < 0 {
			return b
		}
	}
	return s.data.buckets[s.keys[len(s.keys)-1]]
}

// Injection is one sampled instruction: which target, which operation,
// and the word sequence to apply it with.
type Injection struct {
	Where     string
	Operation Operation
	Target    target.Address
	Words     []uint64
}

// Sample draws one Injection. wordBytes is the adapter's machine word
// size in bytes, used as the Stencil's chunking unit.
func (s *Sampler) Sample(wordBytes int) (Injection, error) {
	b := s.chooseBucket()

	fixed, err := b.Fixed()
	if err != nil {
		return Injection{}, err
	}

	addr, err := target.Parse(b.Where, s.isReg)
	if err != nil {
		return Injection{}, fiterr.Config("sample", "target %q: %v", b.Where, err)
	}

	var offsetDist distribution.Distribution = distribution.NewUniform(0, 0, 1)
	if addr.Kind == target.KindRange {
		// original_source/main.py: Uniform(0, (stop-start)*8, granularity=word_bits)
		spanBits := int64(addr.Span.Hi-addr.Span.Lo) * 8
		offsetDist = distribution.NewUniform(0, spanBits, s.wordBits)
	}

	st, err := stencil.New(b.Patterns(), fixed, offsetDist, wordBytes)
	if err != nil {
		return Injection{}, fiterr.Config("sample", "bucket %s/%s: %v", b.Where, b.Operation, err)
	}

	return Injection{
		Where:     b.Where,
		Operation: Operation(b.Operation),
		Target:    addr,
		Words:     st.Random(s.rng),
	}, nil
}
