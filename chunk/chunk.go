// Package chunk implements the self-describing compressed chunk: a 32-byte
// header, a per-block offset table, and the concatenation of compressed
// block payloads. It is the unit the super-chunk layer (package schunk)
// stores and the frame layer (package frame) serializes.
package chunk

import (
	"context"

	"github.com/b2io/b2core/block"
	"github.com/b2io/b2core/codec"
	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/filter"
	"github.com/b2io/b2core/format"
	"github.com/b2io/b2core/internal/pool"
	"github.com/b2io/b2core/internal/worker"
	"github.com/b2io/b2core/tune"
)

// MaxChunkBytes is the largest logical (decompressed) size a single chunk
// may hold: just under 2 GiB, matching the header's 32-bit Nbytes field
// with headroom for callers that round up.
const MaxChunkBytes = (1 << 31) - 1

// offsetTableEntrySize is the width of one block-offset-table entry: a
// 32-bit byte offset from the end of the header to the start of that
// block's compressed payload, plus a 32-bit stored length.
const offsetTableEntrySize = 8

// resolvePipeline builds the block.Pipeline for cparams, failing with
// UnknownCodecError/ErrUnknownFilter on an unregistered id and
// ErrInvalidArgument if more than format.MaxFilters are requested.
func resolvePipeline(cparams *CompressParams) (*block.Pipeline, error) {
	if len(cparams.FilterIDs) > format.MaxFilters {
		return nil, errs.ErrInvalidArgument
	}

	c, err := codec.Lookup(cparams.CodecID)
	if err != nil {
		return nil, err
	}

	filters := make([]filter.Filter, 0, len(cparams.FilterIDs))
	for _, id := range cparams.FilterIDs {
		if id == format.FilterNone {
			continue
		}

		f, ok := filter.Lookup(id)
		if !ok {
			return nil, errs.ErrUnknownFilter
		}

		filters = append(filters, f)
	}

	return &block.Pipeline{
		Filters:   filters,
		Codec:     c,
		Typesize:  cparams.Typesize,
		ByteSplit: cparams.ByteSplit,
		PreFilter: cparams.PreFilter,
	}, nil
}

// Compress builds a complete chunk from src: header, offset table, and
// block payloads. An empty src produces a valid zero-block chunk.
func Compress(ctx context.Context, src []byte, cparams *CompressParams) ([]byte, error) {
	if cparams == nil {
		cparams = DefaultCompressParams()
	}

	if cparams.Typesize <= 0 || cparams.Typesize > format.MaxTypesize {
		return nil, errs.ErrInvalidArgument
	}

	if len(src) > MaxChunkBytes {
		return nil, errs.ErrBufferTooBig
	}

	if cparams.DetectSpecial {
		if special, _, ok := detectSpecial(src, cparams.Typesize); ok {
			return special, nil
		}
	}

	effective := applyTuner(cparams, len(src))

	blocksize := effective.Blocksize
	if blocksize <= 0 {
		blocksize = defaultBlocksize(len(src), effective.Typesize)
	}

	pipeline, err := resolvePipeline(effective)
	if err != nil {
		return nil, err
	}

	ranges := block.Split(len(src), blocksize)
	nblocks := len(ranges)

	results := make([]block.Result, nblocks)

	if nblocks > 0 {
		wp := worker.New(effective.NThreads, blocksize*2)

		runErr := wp.Run(ctx, nblocks, func(idx int, scratch []byte) error {
			r := ranges[idx]

			res, ferr := pipeline.Forward(src[r.Start:r.Start+r.Len], idx)
			if ferr != nil {
				return ferr
			}

			results[idx] = res

			return nil
		})
		if runErr != nil {
			return nil, runErr
		}
	}

	return assemble(src, effective, pipeline, blocksize, ranges, results)
}

// applyTuner returns a copy of cparams with Blocksize/CodecID/FilterIDs
// filled in from cparams.Tuner wherever the caller left them unset. An
// explicit Blocksize or FilterIDs list is never overridden; CodecID is
// always taken from the Tuner's Decision since DefaultHook itself just
// echoes the caller's codec back (ctx.DefaultCodec), so this is a no-op
// for callers that don't need per-chunk codec switching.
func applyTuner(cparams *CompressParams, nbytes int) *CompressParams {
	if cparams.Tuner == nil {
		return cparams
	}

	effective := *cparams

	d := cparams.Tuner.Tune(tune.Context{
		Typesize:     cparams.Typesize,
		Nbytes:       nbytes,
		DefaultCodec: cparams.CodecID,
	})

	if effective.Blocksize <= 0 {
		effective.Blocksize = d.Blocksize
	}

	if len(effective.FilterIDs) == 0 {
		effective.FilterIDs = d.FilterIDs
	}

	effective.CodecID = d.CodecID

	return &effective
}

func assemble(src []byte, cparams *CompressParams, pipeline *block.Pipeline, blocksize int, ranges []block.Range, results []block.Result) ([]byte, error) {
	nblocks := len(ranges)

	bb := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(bb)

	bb.Reset()
	bb.Grow(HeaderSize + nblocks*offsetTableEntrySize + len(src))

	h := NewHeader()
	h.Typesize = uint8(cparams.Typesize)
	h.Nbytes = uint32(len(src))
	h.Blocksize = uint32(blocksize)
	h.CodecID = cparams.CodecID
	h.ByteSplit = uint8(cparams.ByteSplit)

	for i, id := range cparams.FilterIDs {
		if i >= format.MaxFilters {
			break
		}

		h.FilterIDs[i] = id
	}

	headerBuf := h.Encode(nil)
	bb.MustWrite(headerBuf)

	offsetTable := make([]byte, nblocks*offsetTableEntrySize)
	le := leEngine()

	payloadStart := HeaderSize + len(offsetTable)
	cursor := payloadStart

	for i, res := range results {
		le.PutUint32(offsetTable[i*8:i*8+4], uint32(cursor-HeaderSize))
		le.PutUint32(offsetTable[i*8+4:i*8+8], uint32(len(res.Data))|rawBit(res.Raw))
		cursor += len(res.Data)
	}

	bb.MustWrite(offsetTable)

	for _, res := range results {
		bb.MustWrite(res.Data)
	}

	h.Cbytes = uint32(bb.Len())
	final := h.Encode(nil)
	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())
	copy(out[:HeaderSize], final)

	return out, nil
}

// rawBit packs the raw-block flag into the offset table length field's MSB,
// since a block's stored length never needs its top bit for a legitimate
// size (blocks are far smaller than 2^31 bytes).
func rawBit(raw bool) uint32 {
	if raw {
		return 1 << 31
	}

	return 0
}

func isRaw(lengthField uint32) bool {
	return lengthField&(1<<31) != 0
}

func blockLen(lengthField uint32) int {
	return int(lengthField &^ (1 << 31))
}

// Decompress fully decodes a chunk's logical payload into a newly allocated
// buffer of Nbytes bytes.
func Decompress(ctx context.Context, src []byte, dparams *DecompressParams) ([]byte, error) {
	h, err := DecodeHeader(src)
	if err != nil {
		return nil, err
	}

	if h.Special.IsSpecial() {
		return decodeSpecial(h, src)
	}

	if err := validateChunk(h, src); err != nil {
		return nil, err
	}

	dst := make([]byte, h.Nbytes)

	if h.Nbytes == 0 {
		return dst, nil
	}

	return decodeRange(ctx, h, src, dst, 0, int(h.Nbytes), dparams)
}

// GetItem decodes only the blocks covering [nstart, nstart+nitems) of the
// chunk's logical bytes and copies the exact requested slice into dst.
func GetItem(ctx context.Context, src []byte, nstart, nitems int, dparams *DecompressParams) ([]byte, error) {
	h, err := DecodeHeader(src)
	if err != nil {
		return nil, err
	}

	if nstart < 0 || nitems < 0 || nstart+nitems > int(h.Nbytes) {
		return nil, errs.ErrOutOfRange
	}

	if h.Special.IsSpecial() {
		full, serr := decodeSpecial(h, src)
		if serr != nil {
			return nil, serr
		}

		return full[nstart : nstart+nitems], nil
	}

	if err := validateChunk(h, src); err != nil {
		return nil, err
	}

	dst := make([]byte, nitems)

	return decodeRange(ctx, h, src, dst, nstart, nitems, dparams)
}

// decodeRange decodes every block overlapping the logical byte range
// [start, start+length) and copies the overlapping bytes into dst[0:length].
// When start==0 and length==int(h.Nbytes), this decodes the whole chunk.
func decodeRange(ctx context.Context, h *Header, src, dst []byte, start, length int, dparams *DecompressParams) ([]byte, error) {
	if dparams == nil {
		dparams = DefaultDecompressParams()
	}

	blocksize := int(h.Blocksize)
	ranges := block.Split(int(h.Nbytes), blocksize)

	firstBlock := start / blocksize
	lastBlock := (start + length - 1) / blocksize

	pipeline, err := headerPipeline(h)
	if err != nil {
		return nil, err
	}

	pipeline.PostFilter = dparams.PostFilter

	covering := lastBlock - firstBlock + 1

	p := worker.New(dparams.NThreads, blocksize*2)

	runErr := p.Run(ctx, covering, func(j int, scratch []byte) error {
		idx := firstBlock + j
		r := ranges[idx]

		off, blen, raw, perr := blockOffset(src, idx)
		if perr != nil {
			return perr
		}

		payload := src[HeaderSize+off : HeaderSize+off+blen]

		decoded, derr := pipeline.Backward(payload, raw, r.Len, idx)
		if derr != nil {
			return derr
		}

		// Copy the overlap between this block and the requested range.
		blockLo, blockHi := r.Start, r.Start+r.Len
		lo := maxInt(blockLo, start)
		hi := minInt(blockHi, start+length)

		copy(dst[lo-start:hi-start], decoded[lo-blockLo:hi-blockLo])

		return nil
	})
	if runErr != nil {
		return nil, runErr
	}

	return dst, nil
}

func headerPipeline(h *Header) (*block.Pipeline, error) {
	c, err := codec.Lookup(h.CodecID)
	if err != nil {
		return nil, err
	}

	var filters []filter.Filter
	for _, id := range h.FilterIDs {
		if id == format.FilterNone {
			continue
		}

		f, ok := filter.Lookup(id)
		if !ok {
			return nil, errs.ErrUnknownFilter
		}

		filters = append(filters, f)
	}

	return &block.Pipeline{
		Filters:   filters,
		Codec:     c,
		Typesize:  int(h.Typesize),
		ByteSplit: block.ByteSplitMode(h.ByteSplit),
	}, nil
}

func blockOffset(src []byte, idx int) (off, length int, raw bool, err error) {
	le := leEngine()
	entry := src[HeaderSize+idx*offsetTableEntrySize : HeaderSize+idx*offsetTableEntrySize+offsetTableEntrySize]

	off = int(le.Uint32(entry[0:4]))
	lengthField := le.Uint32(entry[4:8])

	return off, blockLen(lengthField), isRaw(lengthField), nil
}

// validateChunk performs the §4.2 read-time sanity checks before any block
// offset is trusted.
func validateChunk(h *Header, src []byte) error {
	if len(src) < HeaderSize {
		return errs.NewCorruptChunk("source shorter than header")
	}

	if int(h.Cbytes) != len(src) {
		return errs.NewCorruptChunk("declared compressed size does not match source length")
	}

	nblocks := h.NumBlocks()
	const hardCeiling = 1 << 24

	if nblocks < 0 || nblocks > hardCeiling {
		return errs.NewCorruptChunk("block count out of range")
	}

	offsetTableEnd := HeaderSize + nblocks*offsetTableEntrySize
	if len(src) < offsetTableEnd {
		return errs.NewCorruptChunk("source too short for offset table")
	}

	le := leEngine()

	for i := 0; i < nblocks; i++ {
		entry := src[HeaderSize+i*offsetTableEntrySize : HeaderSize+i*offsetTableEntrySize+offsetTableEntrySize]
		off := int(le.Uint32(entry[0:4]))
		length := blockLen(le.Uint32(entry[4:8]))

		if off < 0 || HeaderSize+off < offsetTableEnd || HeaderSize+off > len(src) {
			return errs.NewCorruptChunk("block offset out of range")
		}

		if length < 0 || HeaderSize+off+length > len(src) {
			return errs.NewCorruptChunk("block length exceeds remaining bytes")
		}
	}

	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}

// EncodedLen decodes just enough of src (its 32-byte header) to report the
// chunk's total on-wire length, for callers (package frame) that need to
// find where one chunk's bytes end within a larger buffer without fully
// validating or decompressing it.
func EncodedLen(src []byte) (int, error) {
	h, err := DecodeHeader(src)
	if err != nil {
		return 0, err
	}

	if int(h.Cbytes) > len(src) {
		return 0, errs.NewCorruptChunk("declared compressed size exceeds available bytes")
	}

	return int(h.Cbytes), nil
}

// defaultBlocksize picks a blocksize when the caller and tune hook both
// leave it unset: a power-of-two target around 16KiB-64KiB, never larger
// than the input and never smaller than one typesize-aligned element.
func defaultBlocksize(n, typesize int) int {
	const target = 32 * 1024

	if n <= target {
		if n == 0 {
			return typesize
		}

		return n
	}

	return target
}
