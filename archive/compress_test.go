package archive

import (
	"bytes"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/hupe1980/chunkstore/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressiblePayload(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i % 7)
	}
	return out
}

func randomPayload(n int) []byte {
	rng := testutil.NewRNG(11)
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(rng.Uint32())
	}
	return out
}

func TestCompressedRoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"empty":        nil,
		"small":        []byte("chunked"),
		"compressible": compressiblePayload(3*BlockSize + 17),
		"random":       randomPayload(BlockSize + 5),
	}

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		for name, payload := range payloads {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				var buf bytes.Buffer
				cw, err := NewCompressedWriter(&buf, c)
				require.NoError(t, err)

				n, err := cw.Write(payload)
				require.NoError(t, err)
				assert.Equal(t, len(payload), n)
				require.NoError(t, cw.Close())

				if c != CompressionNone && name == "compressible" {
					assert.Less(t, buf.Len(), len(payload))
				}

				cr := NewCompressedReader(&buf)
				got, err := io.ReadAll(cr)
				require.NoError(t, err)
				assert.Equal(t, len(payload), len(got))
				assert.True(t, bytes.Equal(payload, got))

				codec, err := cr.Compression()
				require.NoError(t, err)
				assert.Equal(t, c, codec)
			})
		}
	}
}

func TestCompressedArchive(t *testing.T) {
	var buf bytes.Buffer
	cw, err := NewCompressedWriter(&buf, CompressionZstd)
	require.NoError(t, err)

	w := NewWriter(cw)
	values := make([]int64, 10000)
	for i := range values {
		values[i] = int64(i % 13)
	}
	n := len(values)
	require.NoError(t, SerializeLen(w, &n))
	require.NoError(t, SerializePlain(w, values))
	require.NoError(t, cw.Close())

	r := NewReader(NewCompressedReader(&buf))
	var gotN int
	require.NoError(t, SerializeLen(r, &gotN))
	got := make([]int64, gotN)
	require.NoError(t, SerializePlain(r, got))
	assert.Equal(t, values, got)
}

func TestCompressedChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	cw, err := NewCompressedWriter(&buf, CompressionNone)
	require.NoError(t, err)
	_, err = cw.Write([]byte("payload bytes"))
	require.NoError(t, err)
	require.NoError(t, cw.Close())

	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xff

	_, err = io.ReadAll(NewCompressedReader(bytes.NewReader(raw)))
	assert.True(t, errors.Is(err, ErrChecksumMismatch), "%v", err)
}

func TestCompressedReaderStopsAtCorruptBlock(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			cw, err := NewCompressedWriter(&buf, c)
			require.NoError(t, err)
			_, err = cw.Write(bytes.Repeat([]byte("A"), BlockSize))
			require.NoError(t, err)
			_, err = cw.Write(bytes.Repeat([]byte("B"), 10))
			require.NoError(t, err)
			require.NoError(t, cw.Close())

			raw := buf.Bytes()
			raw[streamHeaderSize+blockHeaderSize+3] ^= 0x01

			cr := NewCompressedReader(bytes.NewReader(raw))
			p := make([]byte, BlockSize)
			n, err := cr.Read(p)
			assert.Zero(t, n)
			require.Error(t, err)
			first := err

			// Later reads keep failing instead of skipping to the next block.
			n, err = cr.Read(p)
			assert.Zero(t, n)
			assert.Equal(t, first, err)

			_, err = io.ReadAll(cr)
			assert.Equal(t, first, err)
		})
	}
}

func TestCompressedCorruptInput(t *testing.T) {
	_, err := io.ReadAll(NewCompressedReader(bytes.NewReader([]byte("nope!"))))
	assert.True(t, errors.Is(err, ErrCorruptBlock), "%v", err)

	var buf bytes.Buffer
	cw, err := NewCompressedWriter(&buf, CompressionLZ4)
	require.NoError(t, err)
	_, err = cw.Write(compressiblePayload(1000))
	require.NoError(t, err)
	require.NoError(t, cw.Close())

	truncated := buf.Bytes()[:buf.Len()-3]
	_, err = io.ReadAll(NewCompressedReader(bytes.NewReader(truncated)))
	assert.True(t, errors.Is(err, ErrCorruptBlock), "%v", err)
}

func TestUnknownCompression(t *testing.T) {
	_, err := NewCompressedWriter(io.Discard, Compression(9))
	assert.True(t, errors.Is(err, ErrUnknownCompression), "%v", err)

	_, err = io.ReadAll(NewCompressedReader(bytes.NewReader([]byte("CKAZ\x09"))))
	assert.True(t, errors.Is(err, ErrUnknownCompression), "%v", err)
}
