package chunk

import (
	"github.com/b2io/b2core/block"
	"github.com/b2io/b2core/format"
	"github.com/b2io/b2core/internal/options"
	"github.com/b2io/b2core/tune"
)

// CompressParams configures one Compress call: typesize, blocksize, codec,
// filter pipeline, byte-split mode, worker count, and optional special-
// value detection.
type CompressParams struct {
	Typesize      int
	Blocksize     int
	CodecID       format.CodecID
	FilterIDs     []format.FilterID
	ByteSplit     block.ByteSplitMode
	NThreads      int
	DetectSpecial bool

	// Tuner, when set, is consulted once per Compress call, before the
	// block pipeline runs, to fill in whichever of Blocksize/FilterIDs the
	// caller left unset (per spec.md §4.8). An explicit Blocksize or
	// FilterIDs list always wins over the Tuner's choice; CodecID is always
	// replaced by the Tuner's.
	Tuner tune.Hook

	// PreFilter is the super-chunk layer's optional prefilter hook (package
	// schunk), run before the filter pipeline on each block.
	PreFilter block.HookFunc
}

// DefaultCompressParams returns the baseline parameters: typesize 1,
// blocksize auto-selected by the fallback heuristic (no Tuner set), LZ4
// codec, no filters, one thread, no special-value detection.
func DefaultCompressParams() *CompressParams {
	return &CompressParams{
		Typesize: 1,
		CodecID:  format.CodecLZ4,
		NThreads: 1,
	}
}

// CompressOption configures a CompressParams.
type CompressOption = options.Option[*CompressParams]

// WithTypesize sets the element size in bytes (1..format.MaxTypesize).
func WithTypesize(n int) CompressOption {
	return options.NoError(func(p *CompressParams) { p.Typesize = n })
}

// WithBlocksize pins the block size rather than letting the tune hook
// choose it.
func WithBlocksize(n int) CompressOption {
	return options.NoError(func(p *CompressParams) { p.Blocksize = n })
}

// WithCodec selects the entropy coder by id.
func WithCodec(id format.CodecID) CompressOption {
	return options.NoError(func(p *CompressParams) { p.CodecID = id })
}

// WithFilters sets the ordered filter pipeline (up to format.MaxFilters
// entries; extras are rejected at Compress time).
func WithFilters(ids ...format.FilterID) CompressOption {
	return options.NoError(func(p *CompressParams) { p.FilterIDs = ids })
}

// WithByteSplit sets the byte-split tri-state.
func WithByteSplit(mode block.ByteSplitMode) CompressOption {
	return options.NoError(func(p *CompressParams) { p.ByteSplit = mode })
}

// WithNThreads sets the worker pool size for this compress call.
func WithNThreads(n int) CompressOption {
	return options.NoError(func(p *CompressParams) { p.NThreads = n })
}

// WithSpecialDetection enables scanning the input for the all-zero and
// repeat-value patterns before falling back to the general pipeline. NaN
// input is not detected.
func WithSpecialDetection(enabled bool) CompressOption {
	return options.NoError(func(p *CompressParams) { p.DetectSpecial = enabled })
}

// WithTuner installs a tune hook consulted once per Compress call for
// whichever parameters the caller hasn't pinned explicitly.
func WithTuner(h tune.Hook) CompressOption {
	return options.NoError(func(p *CompressParams) { p.Tuner = h })
}

// DecompressParams configures Decompress and GetItem calls.
type DecompressParams struct {
	NThreads int

	// PostFilter is the super-chunk layer's optional postfilter hook
	// (package schunk), run after the inverse filter pipeline on each block.
	PostFilter block.HookFunc
}

// DefaultDecompressParams returns single-threaded decompression.
func DefaultDecompressParams() *DecompressParams {
	return &DecompressParams{NThreads: 1}
}

// DecompressOption configures a DecompressParams.
type DecompressOption = options.Option[*DecompressParams]

// WithDecompressNThreads sets the worker pool size for decompression.
func WithDecompressNThreads(n int) DecompressOption {
	return options.NoError(func(p *DecompressParams) { p.NThreads = n })
}
