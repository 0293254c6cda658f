// Package invariants exposes whether expensive contract checks are compiled in.
//
// Checks are enabled when building with the "invariants" or "race" build tags:
//
//	go test -tags invariants ./...
//
// Container preconditions (index ranges, operand sizes, double removal) are
// programmer errors. With checks enabled they panic with an assertion failure;
// without them they are not verified and the behavior is undefined.
package invariants
