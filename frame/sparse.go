package frame

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
	"github.com/b2io/b2core/internal/hash"
	"github.com/b2io/b2core/schunk"
)

// chunkFileName is the sparse layout's per-chunk file naming: zero-padded
// decimal index, matching the spec's "chunk-NNNNNNNN.b2chunk" pattern.
func chunkFileName(i int) string {
	return fmt.Sprintf("chunk-%020d.b2chunk", i)
}

// indexFileName is the sparse layout's directory index: a contiguous frame
// holding only the header, offset table, and trailer, with offsets
// interpreted as logical chunk indices rather than file positions (chunk
// payloads live in sibling files instead of an embedded DATA section).
const indexFileName = "chunks.b2frame"

// ToDirectory writes sc as a sparse (directory) frame: one file per chunk
// plus an index file describing metadata and chunk count. dir is created
// if it doesn't already exist.
func ToDirectory(sc *schunk.SChunk, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.NewIOError("mkdir", err)
	}

	chunks := sc.ChunkBytes()

	for i, c := range chunks {
		path := filepath.Join(dir, chunkFileName(i))
		if err := os.WriteFile(path, c, 0o644); err != nil {
			return errs.NewIOError("write chunk file", err)
		}
	}

	idx := newHeaderFor(sc, chunks)

	placeholder, err := encodeHeader(idx)
	if err != nil {
		return err
	}

	// The sparse index's "offset table" holds logical chunk indices, not
	// byte offsets: entry i is simply i, except for inlined special
	// chunks which still use the same inline encoding as the contiguous
	// layout (they carry no sibling chunk file at all).
	offsets := make([]uint64, len(chunks))

	for i, c := range chunks {
		entry, eerr := encodeOffsetEntry(c, uint64(i))
		if eerr != nil {
			return eerr
		}

		offsets[i] = entry
	}

	idx.OffsetsOffset = uint64(len(placeholder))

	offsetBytes := make([]byte, 8*len(offsets))
	for i, o := range offsets {
		le.PutUint64(offsetBytes[i*8:i*8+8], o)
	}

	t := &trailer{FormatVersion: formatVersion, VLMetaLayers: sc.VLMeta(), Fingerprint: fingerprintPlaceholder}

	trailerBytes, err := encodeTrailer(t)
	if err != nil {
		return err
	}

	t.TrailerLen = uint64(len(trailerBytes))

	trailerBytes, err = encodeTrailer(t)
	if err != nil {
		return err
	}

	idx.FrameLen = uint64(len(placeholder)) + uint64(len(offsetBytes)) + uint64(len(trailerBytes))

	finalHeader, err := encodeHeader(idx)
	if err != nil {
		return err
	}

	if len(finalHeader) != len(placeholder) {
		idx.OffsetsOffset = uint64(len(finalHeader))
		idx.FrameLen = uint64(len(finalHeader)) + uint64(len(offsetBytes)) + uint64(len(trailerBytes))

		finalHeader, err = encodeHeader(idx)
		if err != nil {
			return err
		}

		if len(finalHeader) != int(idx.OffsetsOffset) {
			return errs.NewCorruptFrame("sparse index header length did not converge")
		}
	}

	// The sparse index fingerprint covers only the header and offset table:
	// chunk payloads live in sibling files, outside this index's own byte
	// range, so they're excluded the same way OpenDirectory reads them
	// separately rather than via an embedded data section.
	t.Fingerprint = hash.Sum(finalHeader, offsetBytes)

	trailerBytes, err = encodeTrailer(t)
	if err != nil {
		return err
	}

	out := make([]byte, 0, int(idx.FrameLen))
	out = append(out, finalHeader...)
	out = append(out, offsetBytes...)
	out = append(out, trailerBytes...)

	if err := os.WriteFile(filepath.Join(dir, indexFileName), out, 0o644); err != nil {
		return errs.NewIOError("write index", err)
	}

	return nil
}

// OpenDirectory reads a sparse frame back from dir.
func OpenDirectory(dir string) (*schunk.SChunk, error) {
	idxBuf, err := os.ReadFile(filepath.Join(dir, indexFileName))
	if err != nil {
		return nil, errs.NewIOError("read index", err)
	}

	h, headerLen, err := decodeHeaderBytes(idxBuf)
	if err != nil {
		return nil, err
	}

	if int(h.FrameLen) != len(idxBuf) {
		return nil, errs.NewCorruptFrame("sparse index length mismatch")
	}

	offsetTableStart := int(h.OffsetsOffset)
	offsetTableLen := int(h.NChunks) * 8
	offsetTableEnd := offsetTableStart + offsetTableLen

	if offsetTableStart < headerLen || offsetTableEnd > len(idxBuf) {
		return nil, errs.NewCorruptFrame("sparse index offset table out of range")
	}

	trailerBytes := idxBuf[offsetTableEnd:]

	t, err := decodeTrailerBytes(trailerBytes)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(hash.Sum(idxBuf[:offsetTableEnd]), t.Fingerprint) {
		return nil, errs.NewCorruptFrame("fingerprint mismatch")
	}

	offsetsRaw := idxBuf[offsetTableStart:offsetTableEnd]
	chunkBytes := make([][]byte, h.NChunks)

	for i := uint64(0); i < h.NChunks; i++ {
		entry := le.Uint64(offsetsRaw[i*8 : i*8+8])

		inlineChunk, logicalIdx, inline := decodeOffsetEntry(entry)
		if inline {
			chunkBytes[i] = inlineChunk

			continue
		}

		path := filepath.Join(dir, chunkFileName(int(logicalIdx)))

		b, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, errs.NewIOError("read chunk file", rerr)
		}

		chunkBytes[i] = b
	}

	filters := make([]format.FilterID, 0, format.MaxFilters)

	for _, f := range h.Filters {
		if f.ID != uint8(format.FilterNone) {
			filters = append(filters, format.FilterID(f.ID))
		}
	}

	return schunk.FromParts(int(h.Typesize), format.CodecID(h.Codec), filters, 1, chunkBytes, h.MetaLayers, t.VLMetaLayers, false)
}
