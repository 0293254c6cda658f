package conv

import (
	"math"

	"github.com/cockroachdb/errors"
)

// ErrOverflow is wrapped by every conversion failure.
var ErrOverflow = errors.New("integer overflow")

// IntToInt32 converts int to int32 safely.
func IntToInt32(v int) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, errors.Wrapf(ErrOverflow, "%d cannot be converted to int32", v)
	}
	return int32(v), nil
}

// IntToUint32 converts int to uint32 safely.
func IntToUint32(v int) (uint32, error) {
	if v < 0 {
		return 0, errors.Wrapf(ErrOverflow, "%d cannot be converted to uint32 (negative)", v)
	}
	if uint64(v) > math.MaxUint32 {
		return 0, errors.Wrapf(ErrOverflow, "%d cannot be converted to uint32 (too large)", v)
	}
	return uint32(v), nil
}

// Int64ToInt converts int64 to int safely. It also rejects negative values,
// since every caller decodes a length or an index.
func Int64ToInt(v int64) (int, error) {
	if v < 0 {
		return 0, errors.Wrapf(ErrOverflow, "%d cannot be used as a length (negative)", v)
	}
	if uint64(v) > uint64(math.MaxInt) {
		return 0, errors.Wrapf(ErrOverflow, "%d cannot be converted to int (too large)", v)
	}
	return int(v), nil
}

// Uint32ToInt converts uint32 to int safely.
func Uint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, errors.Wrapf(ErrOverflow, "%d cannot be converted to int (too large)", v)
	}
	return int(v), nil
}
