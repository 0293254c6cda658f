package chunkstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting container metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordChunkAlloc is called after a chunk is allocated.
	RecordChunkAlloc(bytes int64)

	// RecordChunkRelease is called after a chunk is freed by its container.
	RecordChunkRelease(bytes int64)

	// RecordChunkDetach is called when a chunk is handed over to the caller.
	RecordChunkDetach(bytes int64)

	// RecordBudgetRefusal is called when the memory budget refuses a chunk.
	RecordBudgetRefusal(bytes int64)

	// RecordSerialize is called after a container is saved or loaded.
	// bytes is the archive size transferred, err is nil if successful.
	RecordSerialize(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordChunkAlloc(int64)                      {}
func (NoopMetricsCollector) RecordChunkRelease(int64)                    {}
func (NoopMetricsCollector) RecordChunkDetach(int64)                     {}
func (NoopMetricsCollector) RecordBudgetRefusal(int64)                   {}
func (NoopMetricsCollector) RecordSerialize(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ChunkAllocs         atomic.Int64
	ChunkReleases       atomic.Int64
	ChunkDetaches       atomic.Int64
	LiveBytes           atomic.Int64
	BudgetRefusals      atomic.Int64
	SerializeCount      atomic.Int64
	SerializeErrors     atomic.Int64
	SerializeBytes      atomic.Int64
	SerializeTotalNanos atomic.Int64
}

// RecordChunkAlloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChunkAlloc(bytes int64) {
	b.ChunkAllocs.Add(1)
	b.LiveBytes.Add(bytes)
}

// RecordChunkRelease implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChunkRelease(bytes int64) {
	b.ChunkReleases.Add(1)
	b.LiveBytes.Add(-bytes)
}

// RecordChunkDetach implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChunkDetach(bytes int64) {
	b.ChunkDetaches.Add(1)
	b.LiveBytes.Add(-bytes)
}

// RecordBudgetRefusal implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBudgetRefusal(int64) {
	b.BudgetRefusals.Add(1)
}

// RecordSerialize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSerialize(bytes int64, duration time.Duration, err error) {
	b.SerializeCount.Add(1)
	b.SerializeBytes.Add(bytes)
	b.SerializeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SerializeErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ChunkAllocs:       b.ChunkAllocs.Load(),
		ChunkReleases:     b.ChunkReleases.Load(),
		ChunkDetaches:     b.ChunkDetaches.Load(),
		LiveBytes:         b.LiveBytes.Load(),
		BudgetRefusals:    b.BudgetRefusals.Load(),
		SerializeCount:    b.SerializeCount.Load(),
		SerializeErrors:   b.SerializeErrors.Load(),
		SerializeBytes:    b.SerializeBytes.Load(),
		SerializeAvgNanos: b.getAvgSerializeNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgSerializeNanos() int64 {
	count := b.SerializeCount.Load()
	if count == 0 {
		return 0
	}
	return b.SerializeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ChunkAllocs       int64
	ChunkReleases     int64
	ChunkDetaches     int64
	LiveBytes         int64
	BudgetRefusals    int64
	SerializeCount    int64
	SerializeErrors   int64
	SerializeBytes    int64
	SerializeAvgNanos int64
}
