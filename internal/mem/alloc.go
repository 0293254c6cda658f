package mem

import (
	"unsafe"
)

// Alignment is the byte alignment of allocated storage.
const Alignment = 64

// AllocAligned allocates size zeroed bytes starting at an address divisible
// by Alignment. It returns nil for size <= 0.
//
// The backing array is up to Alignment bytes larger than size and is kept
// alive by the returned slice.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf))) //nolint:gosec // unsafe is required for memory alignment
	offset := int((Alignment - (addr & (Alignment - 1))) & (Alignment - 1))
	return buf[offset : offset+size : offset+size]
}

// Aligned allocates n zeroed elements of T starting at an address divisible
// by Alignment. It returns nil for n <= 0.
//
// T must not contain pointers: the storage is not scanned by the garbage
// collector.
func Aligned[T any](n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return make([]T, n)
	}
	raw := AllocAligned(n * size)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), n) //nolint:gosec // unsafe is required for memory alignment
}
