package chunked

import (
	"bytes"
	"testing"

	"github.com/hupe1980/chunkstore"
	"github.com/hupe1980/chunkstore/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializePlainRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 4, 5, 37} {
		a := New[int32](chunkstore.WithNumPerChunk(4))
		for i := range n {
			a.Add(int32(i*3 - 10))
		}

		var buf bytes.Buffer
		require.NoError(t, Serialize(archive.NewWriter(&buf), a))
		assert.Equal(t, 8+4*n, buf.Len())

		b := New[int32](chunkstore.WithNumPerChunk(8))
		b.Append([]int32{99, 99, 99})
		require.NoError(t, Serialize(archive.NewReader(&buf), b))
		assert.True(t, Equal(a, b), "n=%d", n)
	}
}

func TestSerializeFuncRoundTrip(t *testing.T) {
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

	a := New[string](chunkstore.WithNumPerChunk(2))
	a.Append([]string{"a", "", "chunk", "store", "z"})

	var buf bytes.Buffer
	require.NoError(t, a.SerializeFunc(archive.NewWriter(&buf), fn))

	var b Array[string]
	require.NoError(t, b.SerializeFunc(archive.NewReader(&buf), fn))
	assert.Equal(t, a.ToSlice(), b.ToSlice())

	var empty, loaded Array[string]
	buf.Reset()
	require.NoError(t, empty.SerializeFunc(archive.NewWriter(&buf), fn))
	require.NoError(t, loaded.SerializeFunc(archive.NewReader(&buf), fn))
	assert.Equal(t, 0, loaded.Num())
}

func TestSerializeTruncated(t *testing.T) {
	a := New[int64](chunkstore.WithNumPerChunk(4))
	a.Append([]int64{1, 2, 3, 4, 5, 6})

	var buf bytes.Buffer
	require.NoError(t, Serialize(archive.NewWriter(&buf), a))
	raw := buf.Bytes()[:buf.Len()-1]

	b := New[int64]()
	err := Serialize(archive.NewReader(bytes.NewReader(raw)), b)
	require.Error(t, err)
	assert.Equal(t, 0, b.Num())
}

func TestSerializeCompressed(t *testing.T) {
	metrics := &chunkstore.BasicMetricsCollector{}
	a := New[uint32](chunkstore.WithMetrics(metrics))
	for i := range 50000 {
		a.Add(uint32(i % 100))
	}

	var buf bytes.Buffer
	cw, err := archive.NewCompressedWriter(&buf, archive.CompressionLZ4)
	require.NoError(t, err)
	require.NoError(t, Serialize(archive.NewWriter(cw), a))
	require.NoError(t, cw.Close())
	assert.Less(t, buf.Len(), 50000*4)

	b := New[uint32]()
	require.NoError(t, Serialize(archive.NewReader(archive.NewCompressedReader(&buf)), b))
	assert.True(t, Equal(a, b))

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SerializeCount)
	assert.Equal(t, int64(8+50000*4), stats.SerializeBytes)
}
