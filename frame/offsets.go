package frame

import (
	"github.com/b2io/b2core/chunk"
	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
)

// Offset-table entry layout (64 bits, matching the spec's "OFFSETS: nchunks
// × uint64, MSB=1 indicates inline special chunk" description):
//
//	bit  63     inline flag
//	bits 61-62  special kind (1=zero, 2=uninit, 3=nan); only meaningful inline
//	bits 32-60  nbytes (29 bits, ~512Mi logical bytes)
//	bits 24-31  typesize
//	bits 0-23   reserved, always zero
//
// Only the value-free special kinds (zero/uninit/nan) are ever inlined: a
// repeat-value chunk's payload doesn't fit this layout without truncating
// the repeated value, so repeat-value chunks are always written to the
// data section like an ordinary chunk and referenced by plain file offset.
// Inlining also requires nbytes to fit in 29 bits; larger special chunks
// fall back to the data section too.
const (
	kindShift     = 61
	kindMask      = 0x3
	nbytesShift   = 32
	nbytesMask    = (uint64(1) << 29) - 1
	typesizeShift = 24
	typesizeMask  = 0xFF
)

func inlineKindCode(k format.SpecialKind) (uint64, bool) {
	switch k {
	case format.SpecialZero:
		return 1, true
	case format.SpecialUninit:
		return 2, true
	case format.SpecialNaN:
		return 3, true
	default:
		return 0, false
	}
}

func inlineKindFromCode(code uint64) format.SpecialKind {
	switch code {
	case 1:
		return format.SpecialZero
	case 2:
		return format.SpecialUninit
	case 3:
		return format.SpecialNaN
	default:
		return format.SpecialNone
	}
}

// encodeOffsetEntry decides whether encoded can be inlined; if not, it
// returns an ordinary entry pointing at fileOffset.
func encodeOffsetEntry(encoded []byte, fileOffset uint64) (uint64, error) {
	kind, nbytes, typesize, _, err := chunk.SpecialInfo(encoded)
	if err != nil {
		return 0, err
	}

	code, inlinable := inlineKindCode(kind)
	if inlinable && uint64(nbytes) <= nbytesMask && uint64(typesize) <= typesizeMask {
		entry := inlineBit
		entry |= code << kindShift
		entry |= (uint64(nbytes) & nbytesMask) << nbytesShift
		entry |= (uint64(typesize) & typesizeMask) << typesizeShift

		return entry, nil
	}

	if fileOffset&inlineBit != 0 {
		return 0, errs.NewCorruptFrame("frame too large for 63-bit chunk offsets")
	}

	return fileOffset, nil
}

// decodeOffsetEntry reports whether entry is inline and, if so, rebuilds
// the special chunk's bytes directly; otherwise it returns the plain file
// offset.
func decodeOffsetEntry(entry uint64) (inlineChunk []byte, fileOffset uint64, inline bool) {
	if entry&inlineBit == 0 {
		return nil, entry, false
	}

	kind := inlineKindFromCode((entry >> kindShift) & kindMask)
	nbytes := int((entry >> nbytesShift) & nbytesMask)
	typesize := int((entry >> typesizeShift) & typesizeMask)

	var out []byte

	switch kind {
	case format.SpecialZero:
		out = chunk.Zeros(nbytes, typesize)
	case format.SpecialUninit:
		out = chunk.Uninit(nbytes, typesize)
	case format.SpecialNaN:
		out, _ = chunk.NaNs(nbytes, typesize)
	}

	return out, 0, true
}
