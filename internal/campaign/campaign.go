// Package campaign implements the Campaign Engine (spec.md §4.1): loading
// the injector CSV into per-target operation buckets, classifying each
// target, and sampling one injection per run.
package campaign

import (
	"fmt"

	"github.com/sbancuz/fit/internal/distribution"
)

// ValueEntry is one CSV row's (value, value_probability) pair.
type ValueEntry struct {
	Value       int64
	Probability float64
}

// OperationBucket accumulates every value alternative offered for one
// (where, operation) pair, grounded on
// original_source/main.py's row-accumulation loop.
type OperationBucket struct {
	Where                string
	Operation            string
	OperationProbability float64
	Values               []ValueEntry
}

// Fixed builds the Fixed value-choice distribution for this bucket's
// values, validating spec.md §4.1's sum-to-1 precondition.
func (b *OperationBucket) Fixed() (*distribution.Fixed, error) {
	probs := make([]float64, len(b.Values))
	for i, v := range b.Values {
		probs[i] = v.Probability
	}
	f, err := distribution.NewFixed(probs)
	if err != nil {
		return nil, fmt.Errorf("campaign: bucket %s/%s: %w", b.Where, b.Operation, err)
	}
	return f, nil
}

// Patterns returns the bucket's raw values in CSV-declaration order,
// parallel to Fixed()'s probability index.
func (b *OperationBucket) Patterns() []int64 {
	out := make([]int64, len(b.Values))
	for i, v := range b.Values {
		out[i] = v.Value
	}
	return out
}

// Operation enumerates the supported injection operations (spec.md
// §4.1's "xor | and | or | zero | value").
type Operation string

const (
	OpXor   Operation = "xor"
	OpAnd   Operation = "and"
	OpOr    Operation = "or"
	OpZero  Operation = "zero"
	OpValue Operation = "value"
)

// Valid reports whether op is one of the five recognized operations.
func (op Operation) Valid() bool {
	switch op {
	case OpXor, OpAnd, OpOr, OpZero, OpValue:
		return true
	default:
		return false
	}
}

// bucketKey identifies a bucket by its (where, operation) pair.
type bucketKey struct {
	where, operation string
}

// Data is the parsed campaign: every (where, operation) bucket, plus the
// insertion order in which "where" keys were first seen (for stable CSV
// report column ordering, spec.md §6).
type Data struct {
	buckets map[bucketKey]*OperationBucket
	order   []bucketKey
	targets []string // "where" values in first-seen order, deduplicated
	seenT   map[string]bool
}

func newData() *Data {
	return &Data{
		buckets: map[bucketKey]*OperationBucket{},
		seenT:   map[string]bool{},
	}
}

// Targets returns the distinct "where" values in first-seen order.
func (d *Data) Targets() []string {
	return d.targets
}

// Buckets returns every accumulated bucket in first-seen order.
func (d *Data) Buckets() []*OperationBucket {
	out := make([]*OperationBucket, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, d.buckets[k])
	}
	return out
}

// BucketsFor returns every operation bucket declared for a given target.
func (d *Data) BucketsFor(where string) []*OperationBucket {
	var out []*OperationBucket
	for _, k := range d.order {
		if k.where == where {
			out = append(out, d.buckets[k])
		}
	}
	return out
}
