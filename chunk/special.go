package chunk

import (
	"bytes"
	"math"

	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
)

// specialRepeatOffset is where the repeated value lives, immediately after
// the 32-byte header, for a SpecialRepeat chunk. No other special kind
// carries a payload.
const specialRepeatOffset = HeaderSize

// Zeros builds a special chunk of nbytes logical bytes that decode to all
// zero, with no block payload.
func Zeros(nbytes int, typesize int) []byte {
	return newSpecialChunk(format.SpecialZero, nbytes, typesize, nil)
}

// Uninit builds a special chunk of nbytes logical bytes whose contents are
// left unspecified; readers must not assume any particular fill value.
func Uninit(nbytes int, typesize int) []byte {
	return newSpecialChunk(format.SpecialUninit, nbytes, typesize, nil)
}

// NaNs builds a special chunk of nbytes logical bytes that decode to the
// IEEE-754 NaN bit pattern for the given typesize (4 or 8 only).
func NaNs(nbytes int, typesize int) ([]byte, error) {
	if typesize != 4 && typesize != 8 {
		return nil, errs.ErrInvalidArgument
	}

	return newSpecialChunk(format.SpecialNaN, nbytes, typesize, nil), nil
}

// RepeatValue builds a special chunk of nbytes logical bytes that decode to
// value repeated every typesize bytes. len(value) must equal typesize.
func RepeatValue(nbytes, typesize int, value []byte) ([]byte, error) {
	if len(value) != typesize {
		return nil, errs.ErrInvalidArgument
	}

	return newSpecialChunk(format.SpecialRepeat, nbytes, typesize, value), nil
}

func newSpecialChunk(kind format.SpecialKind, nbytes, typesize int, repeatValue []byte) []byte {
	h := NewHeader()
	h.Typesize = uint8(typesize)
	h.Nbytes = uint32(nbytes)
	h.Special = kind

	size := HeaderSize
	if kind == format.SpecialRepeat {
		size += len(repeatValue)
	}

	h.Cbytes = uint32(size)

	out := h.Encode(make([]byte, 0, size))
	if kind == format.SpecialRepeat {
		out = append(out, repeatValue...)
	}

	return out
}

// SpecialInfo reports whether encoded is a special chunk and, if so, its
// kind, logical size, typesize, and (for SpecialRepeat only) the repeated
// value bytes. Package frame uses this to decide whether a chunk can be
// inlined into a frame offset-table entry instead of written to the data
// section.
func SpecialInfo(encoded []byte) (kind format.SpecialKind, nbytes, typesize int, repeatValue []byte, err error) {
	h, err := DecodeHeader(encoded)
	if err != nil {
		return format.SpecialNone, 0, 0, nil, err
	}

	if !h.Special.IsSpecial() {
		return format.SpecialNone, int(h.Nbytes), int(h.Typesize), nil, nil
	}

	if h.Special == format.SpecialRepeat {
		ts := int(h.Typesize)
		if len(encoded) < specialRepeatOffset+ts {
			return 0, 0, 0, nil, errs.NewCorruptChunk("repeat-value chunk missing its value payload")
		}

		return h.Special, int(h.Nbytes), ts, encoded[specialRepeatOffset : specialRepeatOffset+ts], nil
	}

	return h.Special, int(h.Nbytes), int(h.Typesize), nil, nil
}

// decodeSpecial materializes a special chunk's full logical payload by
// following its fixed rule, without touching any block offsets.
func decodeSpecial(h *Header, src []byte) ([]byte, error) {
	dst := make([]byte, h.Nbytes)

	switch h.Special {
	case format.SpecialZero, format.SpecialUninit:
		// Both decode to zero-filled memory here; SpecialUninit only
		// promises the *caller* may not rely on any particular value, it
		// doesn't forbid a deterministic one from this implementation.
		return dst, nil

	case format.SpecialNaN:
		return fillNaN(dst, int(h.Typesize))

	case format.SpecialRepeat:
		typesize := int(h.Typesize)
		if len(src) < specialRepeatOffset+typesize {
			return nil, errs.NewCorruptChunk("repeat-value chunk missing its value payload")
		}

		value := src[specialRepeatOffset : specialRepeatOffset+typesize]
		for off := 0; off+typesize <= len(dst); off += typesize {
			copy(dst[off:off+typesize], value)
		}

		return dst, nil

	default:
		return nil, errs.NewCorruptChunk("unknown special chunk kind")
	}
}

func fillNaN(dst []byte, typesize int) ([]byte, error) {
	switch typesize {
	case 4:
		var buf [4]byte
		le := leEngine()
		le.PutUint32(buf[:], math.Float32bits(float32(math.NaN())))

		for off := 0; off+4 <= len(dst); off += 4 {
			copy(dst[off:off+4], buf[:])
		}
	case 8:
		var buf [8]byte
		le := leEngine()
		le.PutUint64(buf[:], math.Float64bits(math.NaN()))

		for off := 0; off+8 <= len(dst); off += 8 {
			copy(dst[off:off+8], buf[:])
		}
	default:
		return nil, errs.NewCorruptChunk("NaN special chunk has unsupported typesize")
	}

	return dst, nil
}

// detectSpecial scans src for a pattern Compress can encode without a block
// payload: all-zero, or one repeated typesize-wide value. It never detects
// NaN or uninitialized automatically (those are explicit constructors
// only). kind is format.SpecialNone when ok is false.
func detectSpecial(src []byte, typesize int) (chunk []byte, kind format.SpecialKind, ok bool) {
	if len(src) == 0 || typesize <= 0 || len(src)%typesize != 0 {
		return nil, format.SpecialNone, false
	}

	if isAllZero(src) {
		return Zeros(len(src), typesize), format.SpecialZero, true
	}

	first := src[:typesize]
	repeated := true

	for off := typesize; off < len(src); off += typesize {
		if !bytes.Equal(src[off:off+typesize], first) {
			repeated = false
			break
		}
	}

	if repeated && len(src) > typesize {
		out, err := RepeatValue(len(src), typesize, first)
		if err == nil {
			return out, format.SpecialRepeat, true
		}
	}

	return nil, format.SpecialNone, false
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}

	return true
}
