package chunk

import (
	"github.com/b2io/b2core/endian"
	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
)

// HeaderSize is the fixed classic chunk header length in bytes.
//
// Layout (all multi-byte fields little-endian on disk regardless of host
// endianness; the Endian field only governs payload interpretation, never
// the header itself):
//
//	offset  len  field
//	0       1    version
//	1       1    version format
//	2       1    flags
//	3       1    typesize
//	4       4    nbytes (decompressed logical size)
//	8       4    blocksize
//	12      4    cbytes (total compressed size, header-inclusive)
//	16      1    special kind (0 when not a special chunk)
//	17      1    reserved
//	18      6    filter ids
//	24      6    filter meta bytes
//	30      2    reserved
const HeaderSize = 32

// flags bit layout within byte 2.
const (
	flagCodecMask      = 0x0F // bits 0-3: codec id nibble (extended header needed above 15)
	flagEndianBit      = 0x10 // bit 4: 1 = big-endian payload
	flagByteSplitShift = 5    // bits 5-6: byte-split mode
	flagByteSplitMask  = 0x60
	flagSpecialBit      = 0x80 // bit 7: special chunk marker
)

const (
	Version       = 1
	VersionFormat = 1
)

// Header is the 32-byte classic chunk header, decoded into its logical
// fields. It never holds the block-offset table or payload; those are
// handled separately by package chunk's Compress/Decompress.
type Header struct {
	Version       uint8
	VersionFormat uint8
	CodecID       format.CodecID
	BigEndian     bool
	ByteSplit     uint8 // mirrors block.ByteSplitMode's numeric encoding
	Special       format.SpecialKind
	Typesize      uint8
	Nbytes        uint32
	Blocksize     uint32
	Cbytes        uint32
	FilterIDs     [format.MaxFilters]format.FilterID
	FilterMeta    [format.MaxFilters]byte

	engine endian.EndianEngine
}

// NewHeader builds a Header with sane defaults (little-endian, version 1),
// customizable via options.
func NewHeader(opts ...HeaderOption) *Header {
	h := &Header{
		Version:       Version,
		VersionFormat: VersionFormat,
		engine:        endian.GetLittleEndianEngine(),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.engine == nil {
		h.engine = endian.GetLittleEndianEngine()
	}

	return h
}

// HeaderOption configures a Header built by NewHeader.
type HeaderOption func(*Header)

// WithEndianEngine sets the engine used to interpret multi-byte payload
// values (not the header, which is always little-endian on disk).
func WithEndianEngine(engine endian.EndianEngine) HeaderOption {
	return func(h *Header) {
		h.engine = engine
		h.BigEndian = engine != nil && engine == endian.GetBigEndianEngine()
	}
}

// Encode writes the header's 32 bytes into dst[:HeaderSize], growing dst if
// needed, and returns it.
func (h *Header) Encode(dst []byte) []byte {
	if cap(dst) < HeaderSize {
		dst = make([]byte, HeaderSize)
	} else {
		dst = dst[:HeaderSize]
	}

	dst[0] = h.Version
	dst[1] = h.VersionFormat

	flags := byte(h.CodecID) & flagCodecMask
	if h.BigEndian {
		flags |= flagEndianBit
	}
	flags |= (h.ByteSplit << flagByteSplitShift) & flagByteSplitMask
	if h.Special.IsSpecial() {
		flags |= flagSpecialBit
	}
	dst[2] = flags

	dst[3] = h.Typesize

	le := endian.GetLittleEndianEngine()
	le.PutUint32(dst[4:8], h.Nbytes)
	le.PutUint32(dst[8:12], h.Blocksize)
	le.PutUint32(dst[12:16], h.Cbytes)

	dst[16] = byte(h.Special)
	dst[17] = 0

	for i := 0; i < format.MaxFilters; i++ {
		dst[18+i] = byte(h.FilterIDs[i])
		dst[24+i] = h.FilterMeta[i]
	}

	dst[30] = 0
	dst[31] = 0

	return dst
}

// DecodeHeader parses a 32-byte classic chunk header. It performs the
// sanity checks §4.2 requires before any block offsets are trusted:
// header length, declared sizes, blocksize sanity.
func DecodeHeader(src []byte) (*Header, error) {
	if len(src) < HeaderSize {
		return nil, errs.NewCorruptChunk("header shorter than 32 bytes")
	}

	le := endian.GetLittleEndianEngine()

	h := &Header{
		Version:       src[0],
		VersionFormat: src[1],
		Typesize:      src[3],
		Nbytes:        le.Uint32(src[4:8]),
		Blocksize:     le.Uint32(src[8:12]),
		Cbytes:        le.Uint32(src[12:16]),
		Special:       format.SpecialKind(src[16]),
		engine:        endian.GetLittleEndianEngine(),
	}

	flags := src[2]
	h.CodecID = format.CodecID(flags & flagCodecMask)
	h.BigEndian = flags&flagEndianBit != 0
	h.ByteSplit = (flags & flagByteSplitMask) >> flagByteSplitShift

	if h.BigEndian {
		h.engine = endian.GetBigEndianEngine()
	}

	for i := 0; i < format.MaxFilters; i++ {
		h.FilterIDs[i] = format.FilterID(src[18+i])
		h.FilterMeta[i] = src[24+i]
	}

	if h.Version == 0 {
		return nil, errs.NewCorruptChunk("zero version byte")
	}

	if !h.Special.IsSpecial() && h.Blocksize == 0 && h.Nbytes != 0 {
		return nil, errs.NewCorruptChunk("zero blocksize on non-special, non-empty chunk")
	}

	return h, nil
}

// leEngine returns the little-endian engine used for the header and offset
// table, which are always little-endian on disk regardless of payload
// endianness.
func leEngine() endian.EndianEngine {
	return endian.GetLittleEndianEngine()
}

// Endian returns the engine used to interpret this header's payload values.
func (h *Header) Endian() endian.EndianEngine {
	if h.engine == nil {
		return endian.GetLittleEndianEngine()
	}

	return h.engine
}

// NumBlocks returns the number of blocks this header's Nbytes/Blocksize
// imply, honoring the special-chunk short-circuit (0 blocks).
func (h *Header) NumBlocks() int {
	if h.Special.IsSpecial() || h.Blocksize == 0 {
		return 0
	}

	return int((uint64(h.Nbytes) + uint64(h.Blocksize) - 1) / uint64(h.Blocksize))
}
