// Package frame serializes a super-chunk (package schunk) to its on-wire
// form: a contiguous buffer or file (header, chunk payloads, 64-bit offset
// table, trailer) or a sparse directory of per-chunk files plus an index
// frame. Both layouts share the same msgpack-encoded header/trailer shape.
package frame

import (
	"bytes"
	"encoding/binary"

	"github.com/b2io/b2core/chunk"
	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
	"github.com/b2io/b2core/internal/hash"
	"github.com/b2io/b2core/internal/pool"
	"github.com/b2io/b2core/schunk"
)

// fingerprintPlaceholder reserves the same encoded length as a real
// fingerprint while TrailerLen is still being measured; xxHash64 always
// encodes to 8 bytes regardless of content, so substituting the real digest
// afterward never changes the trailer's encoded length.
var fingerprintPlaceholder = make([]byte, 8)

// le is the frame format's fixed byte order for the offset table, chosen
// independently of any chunk's own endianness flag (the frame layer never
// interprets chunk payload bytes).
var le = binary.LittleEndian

// ToBuffer serializes sc into a contiguous in-memory frame buffer: header,
// then every non-inlined chunk's bytes in order, then the 64-bit offset
// table, then the trailer. The header is written twice — once as a
// placeholder to learn its encoded length, once more with FrameLen and
// OffsetsOffset filled in — since msgpack's varint widths mean those
// fields' own size can change once their real values are known.
func ToBuffer(sc *schunk.SChunk) ([]byte, error) {
	chunks := sc.ChunkBytes()

	h := newHeaderFor(sc, chunks)

	placeholder, err := encodeHeader(h)
	if err != nil {
		return nil, err
	}

	dataStart := len(placeholder)

	data := make([]byte, 0, dataStart)
	offsets := make([]uint64, len(chunks))
	cursor := dataStart

	for i, c := range chunks {
		entry, eerr := encodeOffsetEntry(c, uint64(cursor))
		if eerr != nil {
			return nil, eerr
		}

		offsets[i] = entry

		if entry&inlineBit == 0 {
			data = append(data, c...)
			cursor += len(c)
		}
	}

	h.OffsetsOffset = uint64(dataStart + len(data))

	offsetBytes := make([]byte, 8*len(offsets))
	for i, o := range offsets {
		le.PutUint64(offsetBytes[i*8:i*8+8], o)
	}

	t := &trailer{
		FormatVersion: formatVersion,
		VLMetaLayers:  sc.VLMeta(),
		Fingerprint:   fingerprintPlaceholder,
	}

	trailerBytes, err := encodeTrailer(t)
	if err != nil {
		return nil, err
	}

	t.TrailerLen = uint64(len(trailerBytes))

	trailerBytes, err = encodeTrailer(t)
	if err != nil {
		return nil, err
	}

	h.FrameLen = uint64(dataStart) + uint64(len(data)) + uint64(len(offsetBytes)) + uint64(len(trailerBytes))

	finalHeader, err := encodeHeader(h)
	if err != nil {
		return nil, err
	}

	bb := pool.GetFrameBuffer()
	defer pool.PutFrameBuffer(bb)

	bb.Reset()
	bb.Grow(int(h.FrameLen))

	// If filling in FrameLen/OffsetsOffset changed the header's own
	// encoded length, every absolute offset computed above (OffsetsOffset
	// and every non-inline chunk's file offset baked into the offset
	// table) shifts by the same delta; re-derive everything against the
	// final header length rather than patch stale offsets.
	if len(finalHeader) != dataStart {
		return rebuildWithHeaderLen(sc, chunks, len(finalHeader))
	}

	t.Fingerprint = hash.Sum(finalHeader, data, offsetBytes)

	trailerBytes, err = encodeTrailer(t)
	if err != nil {
		return nil, err
	}

	bb.MustWrite(finalHeader)
	bb.MustWrite(data)
	bb.MustWrite(offsetBytes)
	bb.MustWrite(trailerBytes)

	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())

	return out, nil
}

// rebuildWithHeaderLen re-runs ToBuffer's layout once the header's encoded
// length is already known to be stable (headerLen stays fixed across the
// second pass because none of the values that drove its first change
// shrink back down), avoiding unbounded recursion.
func rebuildWithHeaderLen(sc *schunk.SChunk, chunks [][]byte, headerLen int) ([]byte, error) {
	h := newHeaderFor(sc, chunks)

	dataStart := headerLen

	data := make([]byte, 0, dataStart)
	offsets := make([]uint64, len(chunks))
	cursor := dataStart

	for i, c := range chunks {
		entry, eerr := encodeOffsetEntry(c, uint64(cursor))
		if eerr != nil {
			return nil, eerr
		}

		offsets[i] = entry

		if entry&inlineBit == 0 {
			data = append(data, c...)
			cursor += len(c)
		}
	}

	h.OffsetsOffset = uint64(dataStart + len(data))

	offsetBytes := make([]byte, 8*len(offsets))
	for i, o := range offsets {
		le.PutUint64(offsetBytes[i*8:i*8+8], o)
	}

	t := &trailer{FormatVersion: formatVersion, VLMetaLayers: sc.VLMeta(), Fingerprint: fingerprintPlaceholder}

	trailerBytes, err := encodeTrailer(t)
	if err != nil {
		return nil, err
	}

	t.TrailerLen = uint64(len(trailerBytes))

	trailerBytes, err = encodeTrailer(t)
	if err != nil {
		return nil, err
	}

	h.FrameLen = uint64(dataStart) + uint64(len(data)) + uint64(len(offsetBytes)) + uint64(len(trailerBytes))

	finalHeader, err := encodeHeader(h)
	if err != nil {
		return nil, err
	}

	if len(finalHeader) != headerLen {
		return nil, errs.NewCorruptFrame("header length did not converge")
	}

	t.Fingerprint = hash.Sum(finalHeader, data, offsetBytes)

	trailerBytes, err = encodeTrailer(t)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, int(h.FrameLen))
	out = append(out, finalHeader...)
	out = append(out, data...)
	out = append(out, offsetBytes...)
	out = append(out, trailerBytes...)

	return out, nil
}

func newHeaderFor(sc *schunk.SChunk, chunks [][]byte) *header {
	h := &header{
		Magic:         magic,
		FormatVersion: formatVersion,
		Nbytes:        uint64(sc.TotalNBytes()),
		Cbytes:        uint64(sc.TotalCBytes()),
		Typesize:      uint32(sc.Typesize()),
		Codec:         uint8(sc.CodecID()),
		NChunks:       uint64(len(chunks)),
		MetaLayers:    sc.FixedMeta(),
	}

	filters := sc.FilterIDs()
	for i := 0; i < format.MaxFilters && i < len(filters); i++ {
		h.Filters[i].ID = uint8(filters[i])
	}

	return h
}

// FromBuffer parses a contiguous frame buffer (as produced by ToBuffer or
// read whole from disk) into a super-chunk.
func FromBuffer(buf []byte) (*schunk.SChunk, error) {
	return openAt(buf, 0)
}

// OpenAt parses a contiguous frame whose header begins at byte offset off
// within buf, supporting multiple frames concatenated in one buffer/file.
func OpenAt(buf []byte, off int) (*schunk.SChunk, error) {
	return openAt(buf, off)
}

func openAt(buf []byte, off int) (*schunk.SChunk, error) {
	if off < 0 || off > len(buf) {
		return nil, errs.NewCorruptFrame("header offset out of range")
	}

	h, headerLen, err := decodeHeaderBytes(buf[off:])
	if err != nil {
		return nil, err
	}

	if h.FrameLen == 0 || off+int(h.FrameLen) > len(buf) {
		return nil, errs.NewCorruptFrame("declared frame length exceeds buffer")
	}

	frameEnd := off + int(h.FrameLen)
	dataStart := off + headerLen

	offsetTableStart := off + int(h.OffsetsOffset)
	offsetTableLen := int(h.NChunks) * 8
	offsetTableEnd := offsetTableStart + offsetTableLen

	if offsetTableStart < dataStart || offsetTableEnd > frameEnd {
		return nil, errs.NewCorruptFrame("offset table out of range")
	}

	trailerBytes := buf[offsetTableEnd:frameEnd]

	t, err := decodeTrailerBytes(trailerBytes)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(hash.Sum(buf[off:offsetTableEnd]), t.Fingerprint) {
		return nil, errs.NewCorruptFrame("fingerprint mismatch")
	}

	offsetsRaw := buf[offsetTableStart:offsetTableEnd]
	chunkBytes := make([][]byte, h.NChunks)

	for i := uint64(0); i < h.NChunks; i++ {
		entry := le.Uint64(offsetsRaw[i*8 : i*8+8])

		inlineChunk, fileOff, inline := decodeOffsetEntry(entry)
		if inline {
			chunkBytes[i] = inlineChunk

			continue
		}

		absOff := off + int(fileOff)
		if absOff < dataStart || absOff >= offsetTableStart {
			return nil, errs.NewCorruptFrame("chunk offset outside data section")
		}

		chLen, cherr := chunk.EncodedLen(buf[absOff:offsetTableStart])
		if cherr != nil {
			return nil, cherr
		}

		chunkBytes[i] = buf[absOff : absOff+chLen]
	}

	filters := make([]format.FilterID, 0, format.MaxFilters)

	for _, f := range h.Filters {
		if f.ID != uint8(format.FilterNone) {
			filters = append(filters, format.FilterID(f.ID))
		}
	}

	return schunk.FromParts(int(h.Typesize), format.CodecID(h.Codec), filters, 1, chunkBytes, h.MetaLayers, t.VLMetaLayers, false)
}
