package chunked

import (
	"time"

	"github.com/hupe1980/chunkstore/archive"
)

// Serialize saves or loads a plain-data array: the element count, then one
// bulk copy per chunk view.
func Serialize[T archive.Plain](ar archive.Archive, a *Array[T]) (err error) {
	begin, pos := time.Now(), ar.Tell()
	defer func() {
		a.tracker.Serialized(ar.IsLoading(), ar.Tell()-pos, time.Since(begin), err)
	}()

	n := a.num
	if err := archive.SerializeLen(ar, &n); err != nil {
		return err
	}
	if ar.IsLoading() {
		a.Reset()
		a.SetNumUninitialized(n)
	}
	for _, view := range a.Views() {
		if err := archive.SerializePlain(ar, view); err != nil {
			if ar.IsLoading() {
				a.Reset()
			}
			return err
		}
	}
	return nil
}

// SerializeFunc saves or loads the array element by element through fn.
// When loading, elements are zeroed before fn fills them.
func (a *Array[T]) SerializeFunc(ar archive.Archive, fn func(archive.Archive, *T) error) (err error) {
	begin, pos := time.Now(), ar.Tell()
	defer func() {
		a.tracker.Serialized(ar.IsLoading(), ar.Tell()-pos, time.Since(begin), err)
	}()

	n := a.num
	if err := archive.SerializeLen(ar, &n); err != nil {
		return err
	}
	if ar.IsLoading() {
		a.Reset()
		a.SetNum(n)
	}
	for _, view := range a.Views() {
		if err := archive.SerializeElems(ar, view, fn); err != nil {
			if ar.IsLoading() {
				a.Reset()
			}
			return err
		}
	}
	return nil
}
