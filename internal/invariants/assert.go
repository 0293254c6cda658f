package invariants

import "github.com/cockroachdb/errors"

// Assertf panics with an assertion failure if cond is false and checks are
// enabled. Call sites on hot paths should still guard with Enabled so the
// arguments are not evaluated in release builds.
func Assertf(cond bool, format string, args ...any) {
	if Enabled && !cond {
		panic(errors.AssertionFailedf(format, args...))
	}
}

// Failf unconditionally panics with an assertion failure.
func Failf(format string, args ...any) {
	panic(errors.AssertionFailedf(format, args...))
}
