package frame

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
)

// magic is the frame format's msgpack fixstr magic, matching every frame
// this package writes or reads.
const magic = "b2frame"

// formatVersion is bumped whenever the header/trailer encoding changes in
// a way that isn't purely additive. Readers reject any other version.
const formatVersion = 1

// inlineBit marks an offset-table entry as holding an inline special chunk
// rather than a file offset (spec: "MSB=1 indicates inline special chunk").
const inlineBit = uint64(1) << 63

// filterSlot is one of the header's 6 fixed filter-pipeline slots.
type filterSlot struct {
	_msgpack struct{} `msgpack:",as array"`
	ID       uint8
	Meta     uint8
}

// header is the frame's msgpack-encoded preamble. Field order is part of
// the wire format: it is encoded/decoded as a msgpack array, not a map, so
// fields must never be reordered without bumping formatVersion.
type header struct {
	_msgpack      struct{} `msgpack:",as array"`
	Magic         string
	FormatVersion uint8
	FrameLen      uint64
	Nbytes        uint64
	Cbytes        uint64
	Chunksize     uint32
	Typesize      uint32
	CLevel        uint8
	Codec         uint8
	Filters       [format.MaxFilters]filterSlot
	NChunks       uint64
	MetaLayers    map[string][]byte
	// OffsetsOffset is this package's own addition to the spec's field list:
	// the absolute byte offset (from the start of the frame) where the
	// 64-bit offset table begins. msgpack's variable-width encoding means a
	// reader can't derive the data section's length from the header alone
	// (chunk payloads have variable size and some are inlined), so the
	// writer records the boundary explicitly instead of requiring a reader
	// to scan the data section chunk by chunk.
	OffsetsOffset uint64
}

// trailer is the frame's msgpack-encoded postamble: variable-length
// metadata, an xxHash64 fingerprint of the header/data/offset-table region
// (internal/hash.Sum), and the trailer's own length for reverse seeking
// from end-of-file.
type trailer struct {
	_msgpack      struct{} `msgpack:",as array"`
	FormatVersion uint8
	VLMetaLayers  map[string][]byte
	TrailerLen    uint64
	Fingerprint   []byte
}

func encodeHeader(h *header) ([]byte, error) {
	b, err := msgpack.Marshal(h)
	if err != nil {
		return nil, errs.NewIOError("encode header", err)
	}

	return b, nil
}

func decodeHeaderBytes(b []byte) (*header, int, error) {
	r := bytes.NewReader(b)
	dec := msgpack.NewDecoder(r)

	var h header
	if err := dec.Decode(&h); err != nil {
		return nil, 0, errs.NewCorruptFrame("malformed header: " + err.Error())
	}

	if h.Magic != magic {
		return nil, 0, errs.NewCorruptFrame("bad magic")
	}

	if h.FormatVersion != formatVersion {
		return nil, 0, errs.NewCorruptFrame("unsupported format version")
	}

	consumed := len(b) - r.Len()

	return &h, consumed, nil
}

func encodeTrailer(t *trailer) ([]byte, error) {
	b, err := msgpack.Marshal(t)
	if err != nil {
		return nil, errs.NewIOError("encode trailer", err)
	}

	return b, nil
}

func decodeTrailerBytes(b []byte) (*trailer, error) {
	var t trailer
	if err := msgpack.Unmarshal(b, &t); err != nil {
		return nil, errs.NewCorruptFrame("malformed trailer: " + err.Error())
	}

	return &t, nil
}
