// Package testutil provides testing utilities for chunkstore.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe random source and reference helpers
// that build expected bit layouts the slow way.
//
//	rng := testutil.NewRNG(seed)
//	bits := rng.Bits(1000, 0.3)
//	words := testutil.PackBools(bits)
package testutil
