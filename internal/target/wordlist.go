package target

import "fmt"

// WordList is a sequence of integers produced by a multi-word read, with
// explicit elementwise bitwise methods rather than operator overloading
// (spec.md §9 DESIGN NOTES: "the |=-style ergonomics are not part of the
// contract").
type WordList []uint64

// broadcast applies op(w, scalar) to every element.
func (l WordList) broadcast(scalar uint64, op func(a, b uint64) uint64) WordList {
	out := make(WordList, len(l))
	for i, w := range l {
		out[i] = op(w, scalar)
	}
	return out
}

// pairwise applies op elementwise against other; length mismatch is
// fatal per spec.md §4.4.
func (l WordList) pairwise(other WordList, op func(a, b uint64) uint64) (WordList, error) {
	if len(l) != len(other) {
		return nil, fmt.Errorf("target: WordList length mismatch: %d vs %d", len(l), len(other))
	}
	out := make(WordList, len(l))
	for i := range l {
		out[i] = op(l[i], other[i])
	}
	return out, nil
}

func xor(a, b uint64) uint64 { return a ^ b }
func and(a, b uint64) uint64 { return a & b }
func or(a, b uint64) uint64  { return a | b }
func shl(a, b uint64) uint64 { return a << b }
func shr(a, b uint64) uint64 { return a >> b }

func (l WordList) XorScalar(scalar uint64) WordList { return l.broadcast(scalar, xor) }
func (l WordList) AndScalar(scalar uint64) WordList { return l.broadcast(scalar, and) }
func (l WordList) OrScalar(scalar uint64) WordList  { return l.broadcast(scalar, or) }
func (l WordList) Shl(n uint64) WordList            { return l.broadcast(n, shl) }
func (l WordList) Shr(n uint64) WordList            { return l.broadcast(n, shr) }

func (l WordList) XorVector(other WordList) (WordList, error) { return l.pairwise(other, xor) }
func (l WordList) AndVector(other WordList) (WordList, error) { return l.pairwise(other, and) }
func (l WordList) OrVector(other WordList) (WordList, error)  { return l.pairwise(other, or) }

// Equal reports elementwise equality.
func (l WordList) Equal(other WordList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}
