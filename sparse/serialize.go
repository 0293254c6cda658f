package sparse

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hupe1980/chunkstore/archive"
)

// ErrCorrupt is returned when loaded occupancy disagrees with the saved
// element count or high-water mark.
var ErrCorrupt = errors.New("sparse: corrupt archive")

// serializeLayout transfers the counts and the occupancy of every chunk below
// MaxIndex. On load it rebuilds the chunks and the free list, and leaves the
// array empty on error.
func (a *Array[T]) serializeLayout(ar archive.Archive) (err error) {
	a.lazyInit()
	if ar.IsLoading() {
		defer func() {
			if err != nil {
				a.Reset()
			}
		}()
	}
	num, maxIndex := a.Num(), a.maxIndex
	if err := archive.SerializeLen(ar, &num); err != nil {
		return err
	}
	if err := archive.SerializeLen(ar, &maxIndex); err != nil {
		return err
	}

	if ar.IsLoading() {
		if maxIndex > math.MaxInt32 {
			return errors.Wrapf(ErrCorrupt, "max index %d exceeds the int32 index space", maxIndex)
		}
		if num > maxIndex {
			return errors.Wrapf(ErrCorrupt, "%d elements above max index %d", num, maxIndex)
		}
		a.Reset()
		a.Reserve(maxIndex)
		a.maxIndex = maxIndex
	}

	used := (a.maxIndex + a.perChunk - 1) >> a.log2
	for _, c := range a.chunks[:used] {
		if err := c.occupied.Serialize(ar); err != nil {
			return err
		}
	}

	if ar.IsLoading() {
		return a.rebuild(num)
	}
	return nil
}

// rebuild recomputes the element count and free list from the occupancy
// bits. The lowest free index ends up at the head of the list.
func (a *Array[T]) rebuild(want int) error {
	live := 0
	for _, c := range a.chunks {
		live += c.occupied.CountSetBits()
	}
	if live != want {
		a.Reset()
		return errors.Wrapf(ErrCorrupt, "occupancy holds %d elements, header says %d", live, want)
	}
	for _, c := range a.chunks[(a.maxIndex+a.perChunk-1)>>a.log2:] {
		if c.occupied.CountSetBits() != 0 {
			a.Reset()
			return errors.Wrapf(ErrCorrupt, "live element past max index %d", a.maxIndex)
		}
	}

	// Slots past maxIndex in the last chunk must stay clear.
	if rem := a.maxIndex & (a.perChunk - 1); rem != 0 {
		last := a.chunks[a.maxIndex>>a.log2].occupied
		for i := rem; i < a.perChunk; i++ {
			if last.Get(i) {
				a.Reset()
				return errors.Wrapf(ErrCorrupt, "live element past max index %d", a.maxIndex)
			}
		}
	}

	a.num.Store(int64(live))
	head := int32(noFree)
	for i := a.maxIndex - 1; i >= 0; i-- {
		if !a.chunks[i>>a.log2].occupied.Get(i & (a.perChunk - 1)) {
			a.cellAt(i).nextFree = head
			head = int32(i)
		}
	}
	a.freeHead.Store(head)
	return nil
}

// Serialize saves or loads a sparse array of plain data: element count,
// high-water mark, per-chunk occupancy, then the live values of each chunk
// as one block. Indexes are preserved. The loading array must use the chunk
// size the array was saved with.
func Serialize[T archive.Plain](ar archive.Archive, a *Array[T]) (err error) {
	begin, pos := time.Now(), ar.Tell()
	defer func() {
		a.tracker.Serialized(ar.IsLoading(), ar.Tell()-pos, time.Since(begin), err)
	}()

	if err := a.serializeLayout(ar); err != nil {
		return err
	}

	var buf []T
	for ci, c := range a.chunks {
		if ci<<a.log2 >= a.maxIndex {
			break
		}
		buf = buf[:0]
		n := c.occupied.CountSetBits()
		if ar.IsLoading() {
			buf = append(buf, make([]T, n)...)
		} else {
			for i := range c.occupied.SetBits() {
				buf = append(buf, c.cells.At(i).value)
			}
		}
		if err := archive.SerializePlain(ar, buf); err != nil {
			if ar.IsLoading() {
				a.Reset()
			}
			return err
		}
		if ar.IsLoading() {
			k := 0
			for i := range c.occupied.SetBits() {
				c.cells.At(i).value = buf[k]
				k++
			}
		}
	}
	return nil
}

// SerializeFunc saves or loads the array with fn transferring each live
// element in ascending index order. Indexes are preserved.
func (a *Array[T]) SerializeFunc(ar archive.Archive, fn func(archive.Archive, *T) error) (err error) {
	begin, pos := time.Now(), ar.Tell()
	defer func() {
		a.tracker.Serialized(ar.IsLoading(), ar.Tell()-pos, time.Since(begin), err)
	}()

	if err := a.serializeLayout(ar); err != nil {
		return err
	}
	for c := a.Cursor(); c.Next(); {
		if err := fn(ar, c.Value()); err != nil {
			if ar.IsLoading() {
				a.Reset()
			}
			return errors.Wrapf(err, "element %d", c.Index())
		}
	}
	return nil
}
