package archive

import (
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/hupe1980/chunkstore/internal/conv"
)

// ErrInvalidLength is returned when a loaded length or count is negative or
// does not fit the host int.
var ErrInvalidLength = errors.New("archive: invalid length")

// Archive is a serialization stream. When IsLoading reports true, Serialize
// fills p from the stream; otherwise it writes p to the stream.
type Archive interface {
	IsLoading() bool
	Serialize(p []byte) error
	// Tell returns the number of bytes transferred so far.
	Tell() int64
}

// Plain is the set of scalar types whose in-memory bytes can be copied
// verbatim.
type Plain interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint | ~uintptr |
		~float32 | ~float64 | ~complex64 | ~complex128
}

// SerializeInt64 transfers v as 8 little-endian bytes.
func SerializeInt64(ar Archive, v *int64) error {
	var buf [8]byte
	if !ar.IsLoading() {
		binary.LittleEndian.PutUint64(buf[:], uint64(*v))
	}
	if err := ar.Serialize(buf[:]); err != nil {
		return err
	}
	if ar.IsLoading() {
		*v = int64(binary.LittleEndian.Uint64(buf[:]))
	}
	return nil
}

// SerializeInt32 transfers v as 4 little-endian bytes.
func SerializeInt32(ar Archive, v *int32) error {
	u := uint32(*v)
	if err := SerializeUint32(ar, &u); err != nil {
		return err
	}
	*v = int32(u)
	return nil
}

// SerializeUint32 transfers v as 4 little-endian bytes.
func SerializeUint32(ar Archive, v *uint32) error {
	var buf [4]byte
	if !ar.IsLoading() {
		binary.LittleEndian.PutUint32(buf[:], *v)
	}
	if err := ar.Serialize(buf[:]); err != nil {
		return err
	}
	if ar.IsLoading() {
		*v = binary.LittleEndian.Uint32(buf[:])
	}
	return nil
}

// SerializeLen transfers a non-negative length as an int64.
func SerializeLen(ar Archive, n *int) error {
	v := int64(*n)
	if err := SerializeInt64(ar, &v); err != nil {
		return err
	}
	if !ar.IsLoading() {
		return nil
	}
	got, err := conv.Int64ToInt(v)
	if err != nil {
		return errors.Mark(err, ErrInvalidLength)
	}
	*n = got
	return nil
}

// PlainBytes returns the memory of s as a byte slice.
func PlainBytes[T Plain](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

// SerializePlain transfers s as one bulk byte copy. When loading, s must
// already have its final length.
func SerializePlain[T Plain](ar Archive, s []T) error {
	if len(s) == 0 {
		return nil
	}
	return ar.Serialize(PlainBytes(s))
}

// SerializeElems transfers s one element at a time through fn.
func SerializeElems[T any](ar Archive, s []T, fn func(Archive, *T) error) error {
	for i := range s {
		if err := fn(ar, &s[i]); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}
