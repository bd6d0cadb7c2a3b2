// Package filter implements the block-pipeline filter plugins: byte
// shuffle, bit shuffle, byte-delta, and precision truncation.
//
// A filter transforms one block's bytes in a way that is reversible given
// the block size and typesize; it never changes the block's length. The
// block pipeline (package block) runs up to format.MaxFilters filters in
// order on compress, and in reverse order on decompress.
package filter

import "github.com/b2io/b2core/format"

// Filter reorders or transforms the bytes of one block to expose more
// redundancy to the downstream codec.
//
// Forward and Backward both write into dst and return it (resized to len(src)
// if dst lacks capacity); callers that want to avoid an allocation should
// pre-size dst to len(src).
type Filter interface {
	// ID is this filter's registry id.
	ID() format.FilterID

	// Forward applies the filter to src (pre-compression), given the block's
	// typesize in bytes.
	Forward(dst, src []byte, typesize int) ([]byte, error)

	// Backward applies the inverse filter to src (post-decompression), given
	// the block's typesize in bytes.
	Backward(dst, src []byte, typesize int) ([]byte, error)
}

var builtinFilters = map[format.FilterID]Filter{
	format.FilterShuffle:    Shuffle{},
	format.FilterBitShuffle: BitShuffle{},
	format.FilterDelta:      Delta{},
	format.FilterTrunc:      Trunc{Precision: DefaultTruncPrecision},
}

// Lookup returns the built-in filter registered under id.
func Lookup(id format.FilterID) (Filter, bool) {
	f, ok := builtinFilters[id]
	return f, ok
}
