package sparse

import (
	"bytes"
	"encoding/binary"
	"math"
	"slices"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/hupe1980/chunkstore"
	"github.com/hupe1980/chunkstore/archive"
	"github.com/hupe1980/chunkstore/bitvec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArray() *Array[int32] {
	a := New[int32](chunkstore.WithNumPerChunk(8))
	for i := range 21 {
		a.Add(int32(i * 10))
	}
	for _, i := range []int{0, 5, 7, 8, 9, 20} {
		a.RemoveAt(i)
	}
	return a
}

func TestSerializeRoundTrip(t *testing.T) {
	a := sampleArray()

	var buf bytes.Buffer
	require.NoError(t, Serialize(archive.NewWriter(&buf), a))

	b := New[int32](chunkstore.WithNumPerChunk(8))
	b.Add(99)
	require.NoError(t, Serialize(archive.NewReader(&buf), b))

	assert.Equal(t, a.Num(), b.Num())
	assert.Equal(t, a.MaxIndex(), b.MaxIndex())
	assert.Equal(t, indexes(a), indexes(b))
	assert.Equal(t, slices.Collect(a.Values()), slices.Collect(b.Values()))

	// The rebuilt free list hands out the lowest free index first.
	assert.Equal(t, 0, b.Add(1))
	assert.Equal(t, 5, b.Add(1))
	assert.Equal(t, 7, b.Add(1))
}

func TestSerializeEmpty(t *testing.T) {
	var a Array[int64]
	var buf bytes.Buffer
	require.NoError(t, Serialize(archive.NewWriter(&buf), &a))

	b := New[int64]()
	b.Add(3)
	require.NoError(t, Serialize(archive.NewReader(&buf), b))
	assert.Equal(t, 0, b.Num())
	assert.Equal(t, 0, b.MaxIndex())
	assert.Equal(t, 0, b.Add(1))
}

func TestSerializeFuncRoundTrip(t *testing.T) {
	a := New[string](chunkstore.WithNumPerChunk(4))
	for _, s := range []string{"a", "bb", "ccc", "dddd", "eeeee", "f"} {
		a.Add(s)
	}
	a.RemoveAt(1)
	a.RemoveAt(4)

	fn := func(ar archive.Archive, s *string) error {
		n := len(*s)
		if err := archive.SerializeLen(ar, &n); err != nil {
			return err
		}
		b := []byte(*s)
		if ar.IsLoading() {
			b = make([]byte, n)
		}
		if err := ar.Serialize(b); err != nil {
			return err
		}
		*s = string(b)
		return nil
	}

	var buf bytes.Buffer
	require.NoError(t, a.SerializeFunc(archive.NewWriter(&buf), fn))

	b := New[string](chunkstore.WithNumPerChunk(4))
	require.NoError(t, b.SerializeFunc(archive.NewReader(&buf), fn))
	assert.Equal(t, []string{"a", "ccc", "dddd", "f"}, slices.Collect(b.Values()))
	assert.Equal(t, []int{0, 2, 3, 5}, indexes(b))
	assert.Equal(t, 1, b.Add("z"))
}

func TestSerializeCountMismatch(t *testing.T) {
	a := sampleArray()
	var buf bytes.Buffer
	require.NoError(t, Serialize(archive.NewWriter(&buf), a))

	raw := buf.Bytes()
	binary.LittleEndian.PutUint64(raw, uint64(a.Num()+1))

	b := New[int32](chunkstore.WithNumPerChunk(8))
	err := Serialize(archive.NewReader(bytes.NewReader(raw)), b)
	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.Equal(t, 0, b.Num())
}

func TestSerializeChunkSizeMismatch(t *testing.T) {
	a := sampleArray()
	var buf bytes.Buffer
	require.NoError(t, Serialize(archive.NewWriter(&buf), a))

	b := New[int32](chunkstore.WithNumPerChunk(16))
	err := Serialize(archive.NewReader(&buf), b)
	assert.True(t, errors.Is(err, bitvec.ErrSizeMismatch))
	assert.Equal(t, 0, b.Num())
	assert.Equal(t, 0, b.Add(1))
}

func TestSerializeMaxIndexOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	w := archive.NewWriter(&buf)
	num, maxIndex := 1, math.MaxInt32+1
	require.NoError(t, archive.SerializeLen(w, &num))
	require.NoError(t, archive.SerializeLen(w, &maxIndex))

	b := New[int32](chunkstore.WithNumPerChunk(8))
	b.Add(5)
	err := Serialize(archive.NewReader(&buf), b)
	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.Equal(t, 0, b.Num())
	assert.Equal(t, 1, b.NumChunks(), "no chunks reserved for a rejected header")
	assert.Equal(t, 0, b.Add(1))
}
