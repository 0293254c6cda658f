// Package hash provides CRC32-Castagnoli checksums for bit vector hashing and
// compressed archive blocks.
//
// Go's hash/crc32 uses SSE4.2 or the ARM CRC extension when available, so the
// checksum is cheap enough to compute per block.
package hash
