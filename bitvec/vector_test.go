package bitvec

import (
	"bytes"
	"slices"
	"sync"
	"testing"

	"github.com/hupe1980/chunkstore/archive"
	"github.com/hupe1980/chunkstore/bitword"
	"github.com/hupe1980/chunkstore/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slackClear reports whether the bits of the last in-use word past Num are 0.
func slackClear(v *Vector) bool {
	if v.Num()%32 == 0 {
		return true
	}
	last := v.Words()[v.NumWords()-1]
	return last&^bitword.LastWordMask(v.Num()) == 0
}

func naiveCount(v *Vector) int {
	n := 0
	for i := range v.Num() {
		if v.Get(i) {
			n++
		}
	}
	return n
}

func TestVectorZeroValue(t *testing.T) {
	var v Vector
	assert.Equal(t, 0, v.Num())
	assert.Equal(t, 0, v.CountSetBits())
	assert.True(t, v.AllEqual(true))
	assert.Empty(t, slices.Collect(v.SetBits()))

	assert.Equal(t, 0, v.Add(true))
	assert.True(t, v.Get(0))
}

func TestVectorSeventyBits(t *testing.T) {
	v := New(70, false)
	for _, i := range []int{0, 31, 32, 69} {
		v.Set(i, true)
	}

	assert.Equal(t, []int{0, 31, 32, 69}, slices.Collect(v.SetBits()))
	assert.Equal(t, 4, v.CountSetBits())
	require.Equal(t, 3, v.NumWords())
	assert.Zero(t, v.Words()[2]>>6, "bits 70..95 must be zero")
}

func TestVectorSetNum(t *testing.T) {
	v := New(40, true)
	assert.True(t, slackClear(v))
	assert.Equal(t, 40, v.CountSetBits())

	// Shrinking keeps the prefix and clears the new slack.
	v.SetNum(10, false)
	assert.Equal(t, 10, v.CountSetBits())
	assert.True(t, slackClear(v))

	// Growing exposes fill bits, even over stale storage.
	v.SetNum(100, false)
	assert.Equal(t, 10, v.CountSetBits())
	assert.True(t, v.TestRange(0, 10))
	assert.False(t, v.Get(10))
	assert.False(t, v.Get(39))

	v.SetNum(130, true)
	assert.Equal(t, 40, v.CountSetBits())
	assert.True(t, v.TestRange(100, 30))
	assert.True(t, slackClear(v))
}

func TestVectorAddAfterShrink(t *testing.T) {
	v := New(64, true)
	v.SetNum(0, false)

	for range 40 {
		v.Add(false)
	}
	assert.Equal(t, 0, v.CountSetBits())
	assert.True(t, slackClear(v))

	v.Shrink()
	assert.Equal(t, 40, v.Cap())
	idx := v.Add(true)
	assert.Equal(t, 40, idx)
	assert.GreaterOrEqual(t, v.Cap(), 41)
	assert.Equal(t, 1, v.CountSetBits())
}

func TestVectorAddGrowsGeometrically(t *testing.T) {
	var v Vector
	reallocs := 0
	lastCap := v.Cap()
	for i := range 10000 {
		require.Equal(t, i, v.Add(i%3 == 0))
		if v.Cap() != lastCap {
			reallocs++
			lastCap = v.Cap()
		}
	}
	assert.Less(t, reallocs, 20)
	assert.Equal(t, naiveCount(&v), v.CountSetBits())
}

func TestVectorAddRange(t *testing.T) {
	v := New(64, true)
	v.SetNum(5, false)

	first := v.AddRange(50, false)
	assert.Equal(t, 5, first)
	assert.Equal(t, 5, v.CountSetBits())

	first = v.AddRange(20, true)
	assert.Equal(t, 55, first)
	assert.Equal(t, 25, v.CountSetBits())
	assert.True(t, v.TestRange(55, 20))
	assert.True(t, slackClear(v))

	assert.Equal(t, 75, v.AddRange(0, true))
}

func TestVectorRandomOps(t *testing.T) {
	rng := testutil.NewRNG(4711)
	var v Vector
	var ref []bool

	for range 2000 {
		switch rng.Intn(5) {
		case 0:
			b := rng.Intn(2) == 1
			v.Add(b)
			ref = append(ref, b)
		case 1:
			n := rng.Intn(300)
			fill := rng.Intn(2) == 1
			v.SetNum(n, fill)
			for len(ref) < n {
				ref = append(ref, fill)
			}
			ref = ref[:n]
		case 2:
			if len(ref) == 0 {
				continue
			}
			start := rng.Intn(len(ref))
			count := rng.Intn(len(ref) - start + 1)
			fill := rng.Intn(2) == 1
			v.SetRange(start, count, fill)
			for i := start; i < start+count; i++ {
				ref[i] = fill
			}
		case 3:
			if len(ref) == 0 {
				continue
			}
			i := rng.Intn(len(ref))
			assert.Equal(t, ref[i], v.TestAndClear(i))
			ref[i] = false
		case 4:
			n := rng.Intn(40)
			fill := rng.Intn(2) == 1
			v.AddRange(n, fill)
			for range n {
				ref = append(ref, fill)
			}
		}

		require.True(t, slackClear(&v))
		require.Equal(t, len(ref), v.Num())
	}

	assert.Equal(t, testutil.SetPositions(ref), slices.Collect(v.SetBits()))
	assert.Equal(t, len(testutil.SetPositions(ref)), v.CountSetBits())
	assert.Equal(t, naiveCount(&v), v.CountSetBits())
}

func TestVectorBitwise(t *testing.T) {
	a := New(70, false)
	b := New(70, false)
	a.SetRange(0, 40, true)
	b.SetRange(30, 40, true)

	or := a.Clone()
	or.BitwiseOr(b)
	assert.True(t, or.AllEqual(true))

	and := a.Clone()
	and.BitwiseAnd(b)
	assert.Equal(t, 10, and.CountSetBits())
	assert.True(t, and.TestRange(30, 10))
}

func TestVectorTestAndClearRange(t *testing.T) {
	v := New(100, false)
	v.SetRange(20, 50, true)

	assert.False(t, v.TestAndClearRange(19, 5))
	assert.Equal(t, 50, v.CountSetBits())
	assert.True(t, v.TestAndClearRange(20, 50))
	assert.Equal(t, 0, v.CountSetBits())
}

func TestVectorTryGetAll(t *testing.T) {
	v := New(33, true)
	value, ok := v.TryGetAll()
	assert.True(t, ok)
	assert.True(t, value)

	v.Set(32, false)
	_, ok = v.TryGetAll()
	assert.False(t, ok)
}

func TestVectorCountSetBitsUpTo(t *testing.T) {
	v := New(100, true)
	assert.Equal(t, 37, v.CountSetBitsUpTo(37))
	assert.Equal(t, 100, v.CountSetBitsUpTo(100))
}

func TestVectorEqualAndHash(t *testing.T) {
	a := New(70, false)
	b := New(70, false)
	a.Set(5, true)
	b.Set(5, true)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())

	// Different capacity, same bits.
	b.Reserve(1000)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())

	b.Set(6, true)
	assert.False(t, a.Equal(b))
	assert.NotEqual(t, a.Hash(), b.Hash())

	assert.False(t, New(70, false).Equal(New(71, false)))
}

func TestVectorEmptyAndShrink(t *testing.T) {
	v := New(500, true)
	v.Empty(64)
	assert.Equal(t, 0, v.Num())
	assert.Equal(t, 64, v.Cap())
	assert.Equal(t, int64(8), v.AllocatedBytes())

	v.SetNum(10, true)
	v.Reset()
	assert.Equal(t, 0, v.Num())
	assert.Equal(t, 64, v.Cap())

	v.Shrink()
	assert.Equal(t, 0, v.Cap())
}

func TestVectorAtomicSetReturnOld(t *testing.T) {
	v := New(4096, false)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := g; i < v.Num(); i += 8 {
				assert.False(t, v.AtomicSetReturnOld(i, true))
			}
		}()
	}
	wg.Wait()
	assert.True(t, v.AllEqual(true))

	assert.True(t, v.AtomicSetReturnOld(7, false))
	assert.False(t, v.AtomicSetReturnOld(7, false))
	v.AtomicSet(7, true)
	assert.True(t, v.Get(7))
}

func TestVectorSerialize(t *testing.T) {
	rng := testutil.NewRNG(1)

	for _, n := range []int{0, 1, 31, 32, 70, 1000} {
		bits := rng.Bits(n, 0.5)
		v := New(n, false)
		for _, i := range testutil.SetPositions(bits) {
			v.Set(i, true)
		}

		var buf bytes.Buffer
		require.NoError(t, v.Serialize(archive.NewWriter(&buf)))

		// Load into a dirty vector to check it is fully overwritten.
		loaded := New(2000, true)
		require.NoError(t, loaded.Serialize(archive.NewReader(&buf)))
		assert.True(t, v.Equal(loaded), "n=%d", n)
		assert.True(t, slackClear(loaded))
	}
}

func TestVectorSerializeTruncated(t *testing.T) {
	var buf bytes.Buffer
	w := archive.NewWriter(&buf)
	n := 100
	require.NoError(t, archive.SerializeLen(w, &n))
	require.NoError(t, w.Serialize([]byte{0xff, 0xff, 0xff, 0xff}))

	v := New(5, true)
	err := v.Serialize(archive.NewReader(&buf))
	require.Error(t, err)
	assert.Equal(t, 0, v.Num())
	assert.Equal(t, 0, v.CountSetBits())

	// The vector stays usable after the failed load.
	v.Add(true)
	assert.Equal(t, 1, v.CountSetBits())
}
