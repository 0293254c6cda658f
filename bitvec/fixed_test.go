package bitvec

import (
	"bytes"
	"slices"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/hupe1980/chunkstore/archive"
	"github.com/hupe1980/chunkstore/internal/invariants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedBasics(t *testing.T) {
	f := NewFixed(70)
	assert.Equal(t, 70, f.Len())
	assert.Len(t, f.Words(), 3)
	assert.True(t, f.AllEqual(false))

	for _, i := range []int{0, 31, 32, 69} {
		f.Set(i, true)
	}
	assert.Equal(t, 4, f.CountSetBits())
	assert.Equal(t, []int{0, 31, 32, 69}, slices.Collect(f.SetBits()))

	assert.True(t, f.TestAndClear(31))
	assert.False(t, f.Get(31))

	f.SetAll(true)
	assert.Equal(t, 70, f.CountSetBits())
	v, ok := f.TryGetAll()
	assert.True(t, ok)
	assert.True(t, v)
	assert.Zero(t, f.Words()[2]>>6)

	f.SetRange(10, 20, false)
	assert.False(t, f.TestRange(0, 20))
	assert.True(t, f.TestRange(30, 40))
}

func TestFixedOrAndEqual(t *testing.T) {
	a := NewFixed(64)
	b := NewFixed(64)
	a.SetRange(0, 16, true)
	b.SetRange(8, 16, true)

	c := NewFixed(64)
	c.Or(a)
	c.Or(b)
	assert.Equal(t, 24, c.CountSetBits())

	c.And(b)
	assert.True(t, c.Equal(b))
	assert.False(t, c.Equal(a))
	assert.False(t, c.Equal(NewFixed(63)))
}

func TestFixedAtomicTestAndClear(t *testing.T) {
	f := NewFixed(1024)
	f.SetAll(true)

	var mu sync.Mutex
	cleared := 0

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := 0
			for i := range f.Len() {
				if f.AtomicTestAndClear(i) {
					n++
				}
			}
			mu.Lock()
			cleared += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Every bit is cleared by exactly one goroutine.
	assert.Equal(t, 1024, cleared)
	assert.Equal(t, 0, f.CountSetBits())
}

func TestFixedAtomicSetReturnOld(t *testing.T) {
	f := NewFixed(40)
	assert.False(t, f.AtomicSetReturnOld(35, true))
	assert.True(t, f.AtomicGet(35))
	assert.True(t, f.AtomicSetReturnOld(35, true))
	assert.True(t, f.AtomicSetReturnOld(35, false))
	assert.False(t, f.AtomicGet(35))
}

func TestFixedSerialize(t *testing.T) {
	f := NewFixed(100)
	f.SetRange(3, 60, true)

	var buf bytes.Buffer
	require.NoError(t, f.Serialize(archive.NewWriter(&buf)))
	raw := slices.Clone(buf.Bytes())

	g := NewFixed(100)
	require.NoError(t, g.Serialize(archive.NewReader(&buf)))
	assert.True(t, f.Equal(g))

	h := NewFixed(99)
	err := h.Serialize(archive.NewReader(bytes.NewReader(raw)))
	assert.True(t, errors.Is(err, ErrSizeMismatch))
}

func TestFixedRangeBoundsPanic(t *testing.T) {
	if !invariants.Enabled {
		t.Skip("requires invariants build tag")
	}
	f := NewFixed(64)
	assert.Panics(t, func() { f.TestRange(-1, 2) })
	assert.Panics(t, func() { f.TestRange(3, -1) })
	assert.Panics(t, func() { f.TestRange(60, 5) })
	assert.Panics(t, func() { f.SetRange(-1, 2, true) })
	assert.NotPanics(t, func() { f.TestRange(0, 64) })
}
