package distribution

import (
	"math/rand"
	"testing"
)

func TestUniformBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	u := NewUniform(0, 1000, 8)
	for i := 0; i < 10000; i++ {
		v := u.Random(rng)
		if v%8 != 0 {
			t.Fatalf("Random() = %d, not a multiple of granularity 8", v)
		}
		if v < 0 || v > 1000 {
			t.Fatalf("Random() = %d, out of bounds [0,1000]", v)
		}
	}
}

func TestUniformLength(t *testing.T) {
	u := NewUniform(10, 50, 1)
	if got := u.Length(); got != 40 {
		t.Fatalf("Length() = %d, want 40", got)
	}
}

func TestNormalGranularity(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	n := NewNormal(100, 10, 4)
	for i := 0; i < 1000; i++ {
		v := n.Random(rng)
		if v%4 != 0 {
			t.Fatalf("Random() = %d, not a multiple of granularity 4", v)
		}
	}
}

func TestFixedRejectsBadProbabilities(t *testing.T) {
	if _, err := NewFixed([]float64{0.1, 0.1}); err == nil {
		t.Fatal("expected error for probabilities not summing to 1")
	}
	if _, err := NewFixed([]float64{0.5, 0.5}); err != nil {
		t.Fatalf("unexpected error for valid probabilities: %v", err)
	}
}

func TestFixedEmpiricalFrequency(t *testing.T) {
	f, err := NewFixed([]float64{0.2, 0.3, 0.5})
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	rng := rand.New(rand.NewSource(3))
	const n = 200000
	counts := make([]int, 3)
	for i := 0; i < n; i++ {
		counts[f.Random(rng)]++
	}
	want := []float64{0.2, 0.3, 0.5}
	for i, c := range counts {
		got := float64(c) / float64(n)
		if diff := got - want[i]; diff > 0.02 || diff < -0.02 {
			t.Fatalf("index %d: empirical frequency %v too far from %v", i, got, want[i])
		}
	}
}

func TestFixedLength(t *testing.T) {
	f, err := NewFixed([]float64{0.25, 0.25, 0.25, 0.25})
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	if got := f.Length(); got != 3 {
		t.Fatalf("Length() = %d, want 3", got)
	}
}

func TestAdjustFloorDivision(t *testing.T) {
	cases := []struct{ v, g, want int64 }{
		{10, 4, 8},
		{-10, 4, -12},
		{0, 4, 0},
		{7, 1, 7},
	}
	for _, c := range cases {
		if got := adjust(c.v, c.g); got != c.want {
			t.Fatalf("adjust(%d,%d) = %d, want %d", c.v, c.g, got, c.want)
		}
	}
}
