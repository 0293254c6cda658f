package fixedarray

import (
	"iter"
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/hupe1980/chunkstore/archive"
	"github.com/hupe1980/chunkstore/internal/invariants"
	"github.com/hupe1980/chunkstore/internal/mem"
)

// ErrSizeMismatch is returned when a loaded array has a different length than
// the one it is loaded into.
var ErrSizeMismatch = errors.New("fixedarray: size mismatch")

// InitMode selects how a new array's elements are initialized.
type InitMode uint8

const (
	// NoInit leaves element values unspecified; the caller overwrites every
	// element it reads. Builds with invariants fill pointer-free element types
	// with a 0xDE byte pattern so reads of unwritten slots stand out.
	NoInit InitMode = iota
	// ForceInit sets every element to the zero value.
	ForceInit
)

// PoisonByte is the debug fill pattern of NoInit arrays.
const PoisonByte = 0xDE

// Array is a fixed-length array of T.
type Array[T any] struct {
	items []T
}

// New returns an array of n elements initialized according to mode.
func New[T any](n int, mode InitMode) *Array[T] {
	if invariants.Enabled {
		invariants.Assertf(n >= 0, "fixedarray: negative length %d", n)
	}
	a := &Array[T]{items: alloc[T](n)}
	if mode == NoInit && invariants.Enabled {
		poison(a.items)
	}
	return a
}

// NewFilled returns an array of n copies of v.
func NewFilled[T any](n int, v T) *Array[T] {
	a := &Array[T]{items: alloc[T](n)}
	a.Fill(v)
	return a
}

// alloc returns zeroed storage for n elements. Plain element types start on a
// cache-line boundary.
func alloc[T any](n int) []T {
	if n > 0 && Poisonable(reflect.TypeFor[T]()) {
		return mem.Aligned[T](n)
	}
	return make([]T, n)
}

// poison overwrites items with PoisonByte when T holds no pointers and no
// bools, so the pattern cannot corrupt the heap or produce invalid values.
func poison[T any](items []T) {
	if len(items) == 0 || !Poisonable(reflect.TypeFor[T]()) {
		return
	}
	var zero T
	raw := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(items))), len(items)*int(unsafe.Sizeof(zero)))
	for i := range raw {
		raw[i] = PoisonByte
	}
}

// Poisonable reports whether values of t may be overwritten with an
// arbitrary byte pattern.
func Poisonable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return Poisonable(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !Poisonable(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.items) }

// AllocatedBytes returns the size of the element storage.
func (a *Array[T]) AllocatedBytes() int64 {
	var zero T
	return int64(len(a.items)) * int64(unsafe.Sizeof(zero))
}

// IsValidIndex reports whether i addresses an element.
func (a *Array[T]) IsValidIndex(i int) bool { return 0 <= i && i < len(a.items) }

// Get returns element i.
func (a *Array[T]) Get(i int) T { return a.items[i] }

// At returns a pointer to element i.
func (a *Array[T]) At(i int) *T { return &a.items[i] }

// Set sets element i to v.
func (a *Array[T]) Set(i int, v T) { a.items[i] = v }

// View returns all elements. The slice aliases the array.
func (a *Array[T]) View() []T { return a.items }

// Slice returns n elements starting at start. The slice aliases the array.
func (a *Array[T]) Slice(start, n int) []T {
	if invariants.Enabled {
		invariants.Assertf(start >= 0 && n >= 0 && start+n <= len(a.items),
			"fixedarray: view [%d, %d) out of range [0, %d)", start, start+n, len(a.items))
	}
	return a.items[start : start+n : start+n]
}

// Fill sets every element to v.
func (a *Array[T]) Fill(v T) {
	for i := range a.items {
		a.items[i] = v
	}
}

// Zero sets every element to the zero value.
func (a *Array[T]) Zero() { clear(a.items) }

// ZeroRange sets n elements starting at start to the zero value.
func (a *Array[T]) ZeroRange(start, n int) { clear(a.Slice(start, n)) }

// CopyFrom copies src to the front of the array. If zeroRest is set, the
// elements past len(src) are zeroed.
func (a *Array[T]) CopyFrom(src []T, zeroRest bool) {
	if invariants.Enabled {
		invariants.Assertf(len(src) <= len(a.items),
			"fixedarray: copying %d elements into %d", len(src), len(a.items))
	}
	n := copy(a.items, src)
	if zeroRest {
		clear(a.items[n:])
	}
}

// All returns an iterator over the index and address of every element.
func (a *Array[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := range a.items {
			if !yield(i, &a.items[i]) {
				return
			}
		}
	}
}

// Equal reports whether a and b have the same elements.
func Equal[T comparable](a, b *Array[T]) bool {
	if len(a.items) != len(b.items) {
		return false
	}
	for i, v := range a.items {
		if b.items[i] != v {
			return false
		}
	}
	return true
}

func serializeLen(ar archive.Archive, want int) error {
	n := want
	if err := archive.SerializeLen(ar, &n); err != nil {
		return err
	}
	if n != want {
		return errors.Wrapf(ErrSizeMismatch, "loading %d elements into %d", n, want)
	}
	return nil
}

// Serialize saves or loads a plain-data array as its length and one block
// of element bytes.
func Serialize[T archive.Plain](ar archive.Archive, a *Array[T]) error {
	if err := serializeLen(ar, len(a.items)); err != nil {
		return err
	}
	return archive.SerializePlain(ar, a.items)
}

// SerializeFunc saves or loads the array as its length and then each element
// through fn.
func (a *Array[T]) SerializeFunc(ar archive.Archive, fn func(archive.Archive, *T) error) error {
	if err := serializeLen(ar, len(a.items)); err != nil {
		return err
	}
	return archive.SerializeElems(ar, a.items, fn)
}
