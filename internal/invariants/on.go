//go:build invariants || race

package invariants

// Enabled is true when contract checks are compiled in.
const Enabled = true
