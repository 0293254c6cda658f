package bitvec

import (
	"iter"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/hupe1980/chunkstore/archive"
	"github.com/hupe1980/chunkstore/bitword"
	"github.com/hupe1980/chunkstore/internal/invariants"
)

// ErrSizeMismatch is returned when a loaded fixed vector has a different size
// than the one it is loaded into.
var ErrSizeMismatch = errors.New("bitvec: size mismatch")

// Fixed is a bit vector whose size is set at construction. Its words are
// allocated once and never move, so pointers into them stay valid.
type Fixed struct {
	words   []uint32
	numBits int
}

// NewFixed returns a cleared vector of numBits bits.
func NewFixed(numBits int) *Fixed {
	if invariants.Enabled {
		invariants.Assertf(numBits >= 0, "bitvec: negative size %d", numBits)
	}
	return &Fixed{
		words:   make([]uint32, bitword.NumWords(numBits)),
		numBits: numBits,
	}
}

// Len returns the number of bits.
func (f *Fixed) Len() int { return f.numBits }

// Words returns the backing words. The slice aliases the vector.
func (f *Fixed) Words() []uint32 { return f.words }

// AllocatedBytes returns the size of the backing storage.
func (f *Fixed) AllocatedBytes() int64 { return int64(len(f.words)) * 4 }

func (f *Fixed) checkIndex(i int) {
	invariants.Assertf(0 <= i && i < f.numBits, "bitvec: index %d out of range [0, %d)", i, f.numBits)
}

// Get returns bit i.
func (f *Fixed) Get(i int) bool {
	if invariants.Enabled {
		f.checkIndex(i)
	}
	return bitword.Get(f.words, i)
}

// Set sets bit i to value.
func (f *Fixed) Set(i int, value bool) {
	if invariants.Enabled {
		f.checkIndex(i)
	}
	bitword.Set(f.words, i, value)
}

// SetAll sets every bit to value.
func (f *Fixed) SetAll(value bool) {
	bitword.SetRange(f.words, 0, f.numBits, value)
}

// SetRange sets count bits starting at start to value.
func (f *Fixed) SetRange(start, count int, value bool) {
	if invariants.Enabled {
		invariants.Assertf(start >= 0 && count >= 0 && start+count <= f.numBits,
			"bitvec: range [%d, %d) out of range [0, %d)", start, start+count, f.numBits)
	}
	bitword.SetRange(f.words, start, count, value)
}

// TestRange reports whether all count bits starting at start are set.
func (f *Fixed) TestRange(start, count int) bool {
	if invariants.Enabled {
		invariants.Assertf(start >= 0 && count >= 0 && start+count <= f.numBits,
			"bitvec: range [%d, %d) out of range [0, %d)", start, start+count, f.numBits)
	}
	return bitword.TestRange(f.words, start, count)
}

// TestAndClear clears bit i and returns its previous value.
func (f *Fixed) TestAndClear(i int) bool {
	if invariants.Enabled {
		f.checkIndex(i)
	}
	return bitword.TestAndClear(f.words, i)
}

// AllEqual reports whether every bit equals value.
func (f *Fixed) AllEqual(value bool) bool {
	return bitword.AllEqual(f.words, f.numBits, value)
}

// TryGetAll returns the common value of all bits, if there is one.
func (f *Fixed) TryGetAll() (value, ok bool) {
	return bitword.TryGetAll(f.words, f.numBits)
}

// CountSetBits returns the number of set bits.
func (f *Fixed) CountSetBits() int {
	return bitword.CountSetBits(f.words)
}

// ForAllSetBits calls visit for every set bit in ascending order until it
// returns false. It reports whether visit stopped the traversal.
func (f *Fixed) ForAllSetBits(visit func(int) bool) bool {
	return bitword.ForAllSetBits(f.words, f.numBits, visit)
}

// SetBits returns an iterator over the set bits in ascending order.
func (f *Fixed) SetBits() iter.Seq[int] {
	return bitword.SetBits(f.words, f.numBits)
}

// Or sets f to f | other. Both vectors must have the same size.
func (f *Fixed) Or(other *Fixed) {
	if invariants.Enabled {
		invariants.Assertf(f.numBits == other.numBits, "bitvec: size mismatch %d != %d", f.numBits, other.numBits)
	}
	for i, w := range other.words {
		f.words[i] |= w
	}
}

// And sets f to f & other. Both vectors must have the same size.
func (f *Fixed) And(other *Fixed) {
	if invariants.Enabled {
		invariants.Assertf(f.numBits == other.numBits, "bitvec: size mismatch %d != %d", f.numBits, other.numBits)
	}
	for i, w := range other.words {
		f.words[i] &= w
	}
}

// Equal reports whether f and other hold the same bits.
func (f *Fixed) Equal(other *Fixed) bool {
	if f.numBits != other.numBits {
		return false
	}
	for i, w := range f.words {
		if other.words[i] != w {
			return false
		}
	}
	return true
}

// AtomicGet loads bit i atomically.
func (f *Fixed) AtomicGet(i int) bool {
	if invariants.Enabled {
		f.checkIndex(i)
	}
	mask := uint32(1) << (uint(i) & (bitword.BitsPerWord - 1))
	return atomic.LoadUint32(&f.words[i>>bitword.BitsPerWordLog2])&mask != 0
}

// AtomicSetReturnOld sets bit i to value with a single atomic read-modify-write
// of its word and returns the previous value.
func (f *Fixed) AtomicSetReturnOld(i int, value bool) bool {
	if invariants.Enabled {
		f.checkIndex(i)
	}
	return atomicSetReturnOld(f.words, i, value)
}

// AtomicTestAndClear clears bit i with a compare-and-swap on its word and
// reports whether this call cleared it.
func (f *Fixed) AtomicTestAndClear(i int) bool {
	if invariants.Enabled {
		f.checkIndex(i)
	}
	w := &f.words[i>>bitword.BitsPerWordLog2]
	mask := uint32(1) << (uint(i) & (bitword.BitsPerWord - 1))
	for {
		old := atomic.LoadUint32(w)
		if old&mask == 0 {
			return false
		}
		if atomic.CompareAndSwapUint32(w, old, old&^mask) {
			return true
		}
	}
}

// Serialize saves or loads the bits. A loaded vector must have the size it
// was saved with.
func (f *Fixed) Serialize(ar archive.Archive) error {
	n := f.numBits
	if err := archive.SerializeLen(ar, &n); err != nil {
		return err
	}
	if n != f.numBits {
		return errors.Wrapf(ErrSizeMismatch, "loading %d bits into %d", n, f.numBits)
	}
	if err := archive.SerializePlain(ar, f.words); err != nil {
		return err
	}
	if ar.IsLoading() && len(f.words) > 0 {
		f.words[len(f.words)-1] &= bitword.LastWordMask(f.numBits)
	}
	return nil
}
