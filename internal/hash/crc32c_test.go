package hash

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Known answer from RFC 3720 (iSCSI): 32 bytes of zeros.
	assert.Equal(t, uint32(0x8a9136aa), CRC32C(make([]byte, 32)))

	h := NewCRC32C()
	_, _ = h.Write([]byte("chunk"))
	_, _ = h.Write([]byte("store"))
	assert.Equal(t, CRC32C([]byte("chunkstore")), h.Sum32())
}

func TestWords(t *testing.T) {
	words := make([]uint32, 200)
	for i := range words {
		words[i] = uint32(i) * 0x9E3779B9
	}

	raw := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(raw[i*4:], w)
	}

	assert.Equal(t, CRC32C(raw), Words(words))
	assert.Equal(t, uint32(0), Words(nil))
}
