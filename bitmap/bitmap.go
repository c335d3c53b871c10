// Package bitmap implements a bounded random permutation: given n, it
// hands out a permutation of [0,n) drawn without replacement, failing
// once all n values have been taken. The simulator uses it to give every
// peer a unique slot in the keyspace partition.
package bitmap

import (
	"errors"
	"math/rand/v2"
)

// ErrExhausted is returned once all n values have been drawn.
var ErrExhausted = errors.New("bitmap: exhausted")

// BitMap is a pre-shuffled pool of [0,n) drawn without replacement.
type BitMap struct {
	pool []int
	pos  int
}

// New builds a BitMap over [0,n), pre-shuffled with rng.
func New(n int, rng *rand.Rand) *BitMap {
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return &BitMap{pool: pool}
}

// Take returns the next unused value, or ErrExhausted once the pool is
// drained.
func (b *BitMap) Take() (int, error) {
	if b.IsExhausted() {
		return 0, ErrExhausted
	}
	v := b.pool[b.pos]
	b.pos++
	return v, nil
}

// IsExhausted reports whether every value in [0,n) has been taken.
func (b *BitMap) IsExhausted() bool {
	return b.pos == len(b.pool)
}

// Remaining returns how many values are left to draw.
func (b *BitMap) Remaining() int {
	return len(b.pool) - b.pos
}
