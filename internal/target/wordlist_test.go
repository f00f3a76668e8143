package target

import "testing"

// TestWordListAssociativeOr checks spec.md §8's "(L | a) | b == L | (a | b)".
func TestWordListAssociativeOr(t *testing.T) {
	l := WordList{0xF0, 0x0F, 0xAA}
	a, b := uint64(0x0F), uint64(0xF0)

	lhs := l.OrScalar(a).OrScalar(b)
	rhs := l.OrScalar(a | b)

	if !lhs.Equal(rhs) {
		t.Fatalf("(L|a)|b = %v, L|(a|b) = %v", lhs, rhs)
	}
}

// TestWordListXorSelfIsZero checks spec.md §8's "(L ^ L) == [0]*len(L)".
func TestWordListXorSelfIsZero(t *testing.T) {
	l := WordList{0x1, 0x2, 0x3, 0xFFFFFFFF}
	got, err := l.XorVector(l)
	if err != nil {
		t.Fatalf("XorVector: %v", err)
	}
	want := WordList{0, 0, 0, 0}
	if !got.Equal(want) {
		t.Fatalf("L^L = %v, want %v", got, want)
	}
}

func TestWordListVectorLengthMismatchFails(t *testing.T) {
	a := WordList{1, 2, 3}
	b := WordList{1, 2}
	if _, err := a.XorVector(b); err == nil {
		t.Fatal("expected error for mismatched WordList lengths")
	}
}

func TestWordListShiftAndMask(t *testing.T) {
	l := WordList{0xFFFFFFFF}
	if got := l.Shr(16); got[0] != 0xFFFF {
		t.Fatalf("Shr(16) = %#x, want 0xFFFF", got[0])
	}
	shifted := l.Shr(16).Shl(16)
	if shifted[0] != 0xFFFF0000 {
		t.Fatalf("Shr(16).Shl(16) = %#x, want 0xFFFF0000", shifted[0])
	}
	masked := l.AndScalar(0xF)
	if masked[0] != 0xF {
		t.Fatalf("AndScalar(0xF) = %#x, want 0xF", masked[0])
	}
}
