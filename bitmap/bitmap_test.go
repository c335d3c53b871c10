package bitmap

import (
	"math/rand/v2"
	"testing"
)

func TestTakeWithoutReplacement(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	b := New(10, rng)

	seen := make(map[int]bool)
	for i := 0; i < 10; i++ {
		v, err := b.Take()
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		if v < 0 || v >= 10 {
			t.Fatalf("value %d out of range", v)
		}
		if seen[v] {
			t.Fatalf("value %d drawn twice", v)
		}
		seen[v] = true
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 distinct values, got %d", len(seen))
	}
}

func TestExhausted(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	b := New(3, rng)
	for i := 0; i < 3; i++ {
		if _, err := b.Take(); err != nil {
			t.Fatalf("unexpected error on draw %d: %v", i, err)
		}
	}
	if !b.IsExhausted() {
		t.Fatalf("expected exhausted after 3 draws of 3")
	}
	if _, err := b.Take(); err != ErrExhausted {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestZeroSize(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	b := New(0, rng)
	if !b.IsExhausted() {
		t.Fatalf("zero-size bitmap should start exhausted")
	}
}
