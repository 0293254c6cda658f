package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint32 returns a pseudo-random uint32.
func (r *RNG) Uint32() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint32()
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Bits returns n booleans, each true with probability density.
// Locks only once per call.
func (r *RNG) Bits(n int, density float64) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]bool, n)
	for i := range out {
		out[i] = r.rand.Float64() < density
	}
	return out
}

// Words returns enough random 32-bit words to hold numBits bits. Bits past
// numBits in the last word are cleared so the result is a valid packed
// sequence.
func (r *RNG) Words(numBits int) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	words := make([]uint32, (numBits+31)/32)
	for i := range words {
		words[i] = r.rand.Uint32()
	}
	if used := numBits % 32; used != 0 {
		words[len(words)-1] &= (uint32(1) << used) - 1
	}
	return words
}

// Int64s returns n pseudo-random int64 values.
func (r *RNG) Int64s(n int) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int64, n)
	for i := range out {
		out[i] = r.rand.Int63() - r.rand.Int63()
	}
	return out
}

// PackBools packs bits into 32-bit words, low bit first. It is the reference
// layout the containers are checked against.
func PackBools(bits []bool) []uint32 {
	words := make([]uint32, (len(bits)+31)/32)
	for i, b := range bits {
		if b {
			words[i/32] |= 1 << (i % 32)
		}
	}
	return words
}

// SetPositions returns the indexes of the true entries of bits, ascending.
func SetPositions(bits []bool) []int {
	var out []int
	for i, b := range bits {
		if b {
			out = append(out, i)
		}
	}
	return out
}
