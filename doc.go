// Package chunkstore provides chunked, bit-packed containers for large
// in-memory data sets.
//
// Elements live in fixed-size chunks (16 KiB by default) that are allocated
// one at a time. Growing a container never copies existing elements, so
// pointers and views stay valid and memory grows in small, predictable
// steps. Chunk lengths are powers of two; locating an element is a shift and
// a mask.
//
// # Containers
//
//   - bitword: kernels over packed []uint32 bit words
//   - bitvec: growable (Vector) and fixed-size (Fixed) bit vectors
//   - fixedarray: a fixed-size array with optional poisoning of new memory
//   - chunked: a growable dense array with chunk views and chunk detachment
//   - sparse: a sparse array with stable indexes and a free list
//   - chunkedbits: a chunked bit array safe for concurrent use
//
// # Quick Start
//
//	arr := chunked.New[float32]()
//	for i := range 100_000 {
//	    arr.Add(float32(i))
//	}
//	arr.ForEachView(0, arr.Num(), func(start int, view []float32) {
//	    // view is a contiguous slice of one chunk
//	})
//
//	ents := sparse.New[Entity]()
//	id := ents.Add(Entity{Name: "orc"})
//	ents.RemoveAt(id) // id is reused by the next Add
//
// # Options
//
// Every container constructor accepts the functional options of this
// package:
//
//	log := chunkstore.NewTextLogger(slog.LevelDebug)
//	ctrl := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 30})
//
//	arr := chunked.New[int64](
//	    chunkstore.WithName("positions"),
//	    chunkstore.WithLogger(log),
//	    chunkstore.WithController(ctrl),
//	    chunkstore.WithMetrics(&chunkstore.BasicMetricsCollector{}),
//	)
//
// Zero-value containers are ready to use with the defaults and no
// accounting.
//
// # Memory Budget
//
// With a resource.Controller every chunk is charged against its memory
// limit. A chunk the budget refuses is treated like an out-of-memory
// condition: the container panics with an error wrapping
// ErrChunkBudgetExceeded.
//
// # Serialization
//
// Containers save and load themselves through an archive.Archive. Plain
// numeric element types are copied in bulk; other types supply a per-element
// function. Streams can be wrapped in LZ4 or Zstd block compression:
//
//	cw, _ := archive.NewCompressedWriter(f, archive.CompressionZstd)
//	err := chunked.Serialize(archive.NewWriter(cw), arr)
//	cw.Close()
//
// # Contract Checks
//
// Index and size preconditions are only verified when building with the
// "invariants" or "race" tag. A violated precondition then panics with an
// assertion failure:
//
//	go test -tags invariants ./...
//
// # Thread Safety
//
// Containers are not safe for concurrent mutation. The exceptions are
// AtomicSetReturnOld on bit vectors and RemoveAtAtomic on sparse arrays,
// which may run concurrently on distinct indexes, and chunkedbits.BitArray,
// which synchronizes internally.
package chunkstore
