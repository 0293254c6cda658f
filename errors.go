package chunkstore

import "github.com/cockroachdb/errors"

// ErrChunkBudgetExceeded is the panic value, wrapped with the container name,
// raised when the configured resource.Controller refuses a chunk allocation.
// It plays the role of an out-of-memory condition.
var ErrChunkBudgetExceeded = errors.New("chunk allocation exceeds memory budget")
