// Package chunkalloc accounts for the chunks a container owns: it charges
// them against the shared memory budget and reports their lifecycle to the
// configured logger and metrics collector.
package chunkalloc

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hupe1980/chunkstore"
	"github.com/hupe1980/chunkstore/resource"
)

// Tracker accounts for chunks of a fixed size. A nil *Tracker does nothing,
// which keeps zero-value containers free of setup.
type Tracker struct {
	name       string
	log        *chunkstore.Logger
	metrics    chunkstore.MetricsCollector
	ctrl       *resource.Controller
	chunkBytes int64
}

// New returns a tracker for chunks of chunkBytes bytes.
func New(o chunkstore.Options, chunkBytes int64) *Tracker {
	log := o.Logger
	if log == nil {
		log = chunkstore.NoopLogger()
	}
	if o.Name != "" {
		log = log.WithContainer(o.Name)
	}
	metrics := o.Metrics
	if metrics == nil {
		metrics = chunkstore.NoopMetricsCollector{}
	}

	return &Tracker{
		name:       o.Name,
		log:        log,
		metrics:    metrics,
		ctrl:       o.Controller,
		chunkBytes: chunkBytes,
	}
}

// ChunkBytes returns the accounted size of one chunk.
func (t *Tracker) ChunkBytes() int64 {
	if t == nil {
		return 0
	}
	return t.chunkBytes
}

// Acquire charges a new chunk. It panics with an error wrapping
// chunkstore.ErrChunkBudgetExceeded if the budget cannot hold it.
func (t *Tracker) Acquire(chunk int) {
	if t == nil {
		return
	}
	if !t.ctrl.TryAcquireMemory(t.chunkBytes) {
		t.log.LogBudgetRefused(chunk, t.chunkBytes, t.ctrl.MemoryUsage())
		t.metrics.RecordBudgetRefusal(t.chunkBytes)
		panic(errors.Wrapf(chunkstore.ErrChunkBudgetExceeded, "%s: chunk %d needs %d bytes", t.label(), chunk, t.chunkBytes))
	}
	t.log.LogChunkAllocated(chunk, t.chunkBytes)
	t.metrics.RecordChunkAlloc(t.chunkBytes)
}

// Release returns a freed chunk to the budget.
func (t *Tracker) Release(chunk int) {
	if t == nil {
		return
	}
	t.ctrl.ReleaseMemory(t.chunkBytes)
	t.log.LogChunkReleased(chunk, t.chunkBytes)
	t.metrics.RecordChunkRelease(t.chunkBytes)
}

// Detach stops accounting for a chunk whose ownership moved to the caller.
func (t *Tracker) Detach(num int) {
	if t == nil {
		return
	}
	t.ctrl.ReleaseMemory(t.chunkBytes)
	t.log.LogChunkDetached(num, t.chunkBytes)
	t.metrics.RecordChunkDetach(t.chunkBytes)
}

// Serialized reports a completed save or load of bytes archive bytes.
func (t *Tracker) Serialized(loading bool, bytes int64, d time.Duration, err error) {
	if t == nil {
		return
	}
	t.log.LogSerialize(loading, bytes, err)
	t.metrics.RecordSerialize(bytes, d, err)
}

func (t *Tracker) label() string {
	if t.name == "" {
		return "container"
	}
	return t.name
}
