package filter

import (
	"encoding/binary"
	"math"

	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
)

// DefaultTruncPrecision is the default number of mantissa bits retained by
// Trunc when none is configured: 13 bits for float32 (with the implicit
// leading bit, roughly 4 significant decimal digits).
const DefaultTruncPrecision = 13

// Trunc is a lossy filter that zeroes the low-order mantissa bits of
// IEEE-754 float32/float64 elements, trading numeric precision for
// compressibility. Unlike the other filters it is not bit-exact reversible:
// Backward is the identity, since the truncated bits are gone for good.
//
// Trunc only accepts typesize 4 (float32) or 8 (float64); any other
// typesize is rejected rather than silently passed through, since applying
// a mantissa mask to non-float data would corrupt it.
type Trunc struct {
	// Precision is the number of mantissa bits to retain.
	Precision int
}

var _ Filter = Trunc{}

func (Trunc) ID() format.FilterID { return format.FilterTrunc }

func (t Trunc) Forward(dst, src []byte, typesize int) ([]byte, error) {
	if len(src)%typesize != 0 {
		return nil, errs.ErrInvalidArgument
	}

	dst = growTo(dst, len(src))
	copy(dst, src)

	switch typesize {
	case 4:
		mask := truncMask32(t.precision())
		for i := 0; i < len(dst); i += 4 {
			bits := binary.LittleEndian.Uint32(dst[i : i+4])
			binary.LittleEndian.PutUint32(dst[i:i+4], bits&mask)
		}
	case 8:
		mask := truncMask64(t.precision())
		for i := 0; i < len(dst); i += 8 {
			bits := binary.LittleEndian.Uint64(dst[i : i+8])
			binary.LittleEndian.PutUint64(dst[i:i+8], bits&mask)
		}
	default:
		return nil, errs.ErrInvalidArgument
	}

	return dst, nil
}

// Backward is the identity: truncated mantissa bits cannot be recovered.
func (t Trunc) Backward(dst, src []byte, typesize int) ([]byte, error) {
	dst = growTo(dst, len(src))
	copy(dst, src)

	return dst, nil
}

func (t Trunc) precision() int {
	if t.Precision <= 0 {
		return DefaultTruncPrecision
	}

	return t.Precision
}

// truncMask32 keeps the sign, exponent, and the top `bits` mantissa bits of
// a float32 pattern, zeroing the rest.
func truncMask32(bits int) uint32 {
	const mantissaBits = 23
	if bits >= mantissaBits {
		return math.MaxUint32
	}

	return math.MaxUint32 << (mantissaBits - bits)
}

// truncMask64 is truncMask32's float64 analogue.
func truncMask64(bits int) uint64 {
	const mantissaBits = 52
	if bits >= mantissaBits {
		return math.MaxUint64
	}

	return math.MaxUint64 << (mantissaBits - bits)
}
