package chunkstore

import (
	"math/bits"

	"github.com/hupe1980/chunkstore/resource"
)

// DefaultChunkBytes is the default payload size of one chunk.
const DefaultChunkBytes = 16 << 10

// Options is the resolved configuration of a container.
type Options struct {
	Logger     *Logger
	Metrics    MetricsCollector
	Controller *resource.Controller
	// ChunkBytes bounds the payload size of one chunk when NumPerChunk is 0.
	ChunkBytes int
	// NumPerChunk forces the number of elements per chunk. It must be a
	// power of two.
	NumPerChunk int
	Name        string
}

// Option configures a container.
type Option func(*Options)

// WithLogger sets the logger for chunk lifecycle events.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *Options) {
		if l == nil {
			l = NoopLogger()
		}
		o.Logger = l
	}
}

// WithMetrics sets the metrics collector.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetrics(m MetricsCollector) Option {
	return func(o *Options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.Metrics = m
	}
}

// WithController charges chunk allocations against a shared memory budget.
// A chunk the budget cannot hold panics with ErrChunkBudgetExceeded.
func WithController(c *resource.Controller) Option {
	return func(o *Options) {
		o.Controller = c
	}
}

// WithChunkBytes sets the payload size used to derive elements per chunk.
func WithChunkBytes(n int) Option {
	return func(o *Options) {
		o.ChunkBytes = n
	}
}

// WithNumPerChunk sets the number of elements per chunk. n must be a power
// of two.
func WithNumPerChunk(n int) Option {
	return func(o *Options) {
		o.NumPerChunk = n
	}
}

// WithName names the container in logs and errors.
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// Apply resolves opts over the defaults.
func Apply(opts ...Option) Options {
	o := Options{
		Logger:     NoopLogger(),
		Metrics:    NoopMetricsCollector{},
		ChunkBytes: DefaultChunkBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ChunkLen returns the number of elements of elemSize bytes per chunk: the
// forced NumPerChunk if set, else the largest power of two whose payload fits
// ChunkBytes, and at least 1.
func (o Options) ChunkLen(elemSize uintptr) int {
	if o.NumPerChunk > 0 {
		return o.NumPerChunk
	}
	return NumPerChunk(elemSize, o.ChunkBytes)
}

// NumPerChunk returns the largest power of two n with n*elemSize <= chunkBytes,
// and at least 1.
func NumPerChunk(elemSize uintptr, chunkBytes int) int {
	if elemSize == 0 {
		elemSize = 1
	}
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}
	fit := uint64(chunkBytes) / uint64(elemSize)
	if fit <= 1 {
		return 1
	}
	return 1 << (bits.Len64(fit) - 1)
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
