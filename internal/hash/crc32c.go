package hash

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a streaming CRC32-Castagnoli hash.Hash32.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// Words computes the CRC32C of words serialized little-endian, so the result
// does not depend on host byte order.
func Words(words []uint32) uint32 {
	var buf [256]byte
	crc := uint32(0)
	for len(words) > 0 {
		n := min(len(words), len(buf)/4)
		for i, w := range words[:n] {
			binary.LittleEndian.PutUint32(buf[i*4:], w)
		}
		crc = crc32.Update(crc, crc32cTable, buf[:n*4])
		words = words[n:]
	}
	return crc
}
