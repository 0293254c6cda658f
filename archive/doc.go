// Package archive is the serialization hook shared by the containers.
//
// An Archive is a bidirectional byte stream: the same Serialize call writes
// when saving and fills the buffer when loading, so a container describes its
// layout once. Writer and Reader adapt io.Writer and io.Reader; the
// compressed variants frame the stream into LZ4 or Zstd blocks.
//
//	var buf bytes.Buffer
//	w := archive.NewWriter(&buf)
//	_ = vec.Serialize(w)
//
//	r := archive.NewReader(&buf)
//	var loaded bitvec.Vector
//	_ = loaded.Serialize(r)
//
// Fixed-size header fields are little-endian. Bulk payloads of plain scalar
// types are copied in host byte order, so archives are only portable between
// hosts of the same endianness.
package archive
