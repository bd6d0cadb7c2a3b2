// Package block implements the per-block forward (filters → codec) and
// backward (codec → inverse filters) pipeline, plus the bookkeeping that
// splits one chunk's logical payload into same-sized blocks.
//
// This package has no notion of a chunk header or offset table — it only
// ever sees one block's bytes at a time, handed to it by package chunk
// (sequentially) or package internal/worker (in parallel). Special chunks,
// getitem, and the offset table are chunk-layer concerns.
package block

import (
	"github.com/b2io/b2core/codec"
	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/filter"
)

// ByteSplitMode selects whether the pipeline splits the post-filter stream
// into typesize independent sub-streams before entropy coding.
type ByteSplitMode uint8

const (
	ByteSplitAuto   ByteSplitMode = 0
	ByteSplitAlways ByteSplitMode = 1
	ByteSplitNever  ByteSplitMode = 2
)

// Range describes one block's position within a chunk's logical payload:
// byte offset Start and exclusive end Start+Len. The last block's Len may
// be shorter than every other block's when the logical size isn't a
// multiple of the blocksize.
type Range struct {
	Start int
	Len   int
}

// Split partitions a payload of totalSize bytes into blocks of blocksize
// bytes each, the last one truncated to the remainder. It panics on
// blocksize <= 0, a caller bug rather than a runtime condition.
func Split(totalSize, blocksize int) []Range {
	if blocksize <= 0 {
		panic("block: blocksize must be positive")
	}

	if totalSize == 0 {
		return nil
	}

	n := (totalSize + blocksize - 1) / blocksize
	ranges := make([]Range, n)

	for i := 0; i < n; i++ {
		start := i * blocksize
		length := blocksize
		if start+length > totalSize {
			length = totalSize - start
		}

		ranges[i] = Range{Start: start, Len: length}
	}

	return ranges
}

// Pipeline is a configured forward/backward block transform: zero or more
// filters applied in order, followed by one codec.
type Pipeline struct {
	Filters   []filter.Filter
	Codec     codec.Codec
	Typesize  int
	ByteSplit ByteSplitMode

	// PreFilter and PostFilter are the super-chunk layer's optional hooks
	// (package schunk). PreFilter runs before the filter pipeline on
	// compress; PostFilter runs after the inverse filter pipeline on
	// decompress. Both receive the block index and typesize alongside the
	// block's current bytes and may transform them in place conceptually
	// (returning the bytes to use from here on).
	PreFilter  HookFunc
	PostFilter HookFunc
}

// HookFunc is the shape of a super-chunk prefilter/postfilter: block index,
// typesize, and the block's bytes so far, returning the (possibly
// transformed) bytes to continue the pipeline with.
type HookFunc func(blockIndex, typesize int, data []byte) ([]byte, error)

// resolveByteSplit decides whether byte-splitting is active for this block,
// applying the tri-state contract: Always/Never are explicit, Auto enables
// splitting only when the typesize evenly divides the block length (a
// non-dividing typesize silently disables splitting rather than erroring,
// matching the chunk layer's edge-case handling for odd-sized last blocks).
func (p *Pipeline) resolveByteSplit(n int) bool {
	switch p.ByteSplit {
	case ByteSplitAlways:
		return p.Typesize > 1 && n%p.Typesize == 0
	case ByteSplitNever:
		return false
	default: // ByteSplitAuto
		return p.Typesize > 1 && p.Typesize <= 8 && n%p.Typesize == 0
	}
}

// Result carries a block's compressed bytes, plus whether the block had to
// fall back to raw storage (codec returned 0/incompressible, or a value
// not smaller than the filtered input with byte-splitting off).
type Result struct {
	Data []byte
	Raw  bool
}

// Forward runs the filter pipeline then the codec over one block's bytes.
// src is never modified. On an incompressible block the result carries the
// filtered-but-uncompressed bytes with Raw set, so the chunk layer can store
// them verbatim with the header's raw-block flag set.
func (p *Pipeline) Forward(src []byte, blockIndex int) (Result, error) {
	a := src

	if p.PreFilter != nil {
		out, err := p.PreFilter(blockIndex, p.Typesize, a)
		if err != nil {
			return Result{}, err
		}

		a = out
	}

	for slot, f := range p.Filters {
		if f == nil {
			continue
		}

		out, err := f.Forward(nil, a, p.Typesize)
		if err != nil {
			return Result{}, errs.NewFilterError(uint8(f.ID()), slot, blockIndex, err)
		}

		a = out
	}

	splitOn := p.resolveByteSplit(len(a))
	if splitOn {
		split, err := filter.Shuffle{}.Forward(nil, a, p.Typesize)
		if err != nil {
			return Result{}, errs.NewFilterError(uint8(p.Typesize), -1, blockIndex, err)
		}

		a = split
	}

	if p.Codec == nil {
		return Result{Data: a, Raw: true}, nil
	}

	compressed, err := p.Codec.Compress(a)
	if err != nil {
		return Result{}, errs.NewCodecError(0, blockIndex, err)
	}

	if len(compressed) == 0 || (len(compressed) >= len(a) && !splitOn) {
		return Result{Data: a, Raw: true}, nil
	}

	return Result{Data: compressed, Raw: false}, nil
}

// Backward decodes one block (via the codec unless it was stored raw), then
// applies the filter pipeline's inverses in reverse order, and returns a
// buffer of exactly outLen bytes.
func (p *Pipeline) Backward(src []byte, raw bool, outLen int, blockIndex int) ([]byte, error) {
	a := src

	if !raw {
		if p.Codec == nil {
			return nil, errs.NewCorruptChunk("compressed block but no codec configured")
		}

		decoded, err := p.Codec.Decompress(src)
		if err != nil {
			return nil, errs.NewCodecError(0, blockIndex, err)
		}

		a = decoded
	}

	if p.resolveByteSplit(len(a)) {
		joined, err := filter.Shuffle{}.Backward(nil, a, p.Typesize)
		if err != nil {
			return nil, errs.NewFilterError(uint8(p.Typesize), -1, blockIndex, err)
		}

		a = joined
	}

	for slot := len(p.Filters) - 1; slot >= 0; slot-- {
		f := p.Filters[slot]
		if f == nil {
			continue
		}

		out, err := f.Backward(nil, a, p.Typesize)
		if err != nil {
			return nil, errs.NewFilterError(uint8(f.ID()), slot, blockIndex, err)
		}

		a = out
	}

	if p.PostFilter != nil {
		out, err := p.PostFilter(blockIndex, p.Typesize, a)
		if err != nil {
			return nil, err
		}

		a = out
	}

	if len(a) != outLen {
		return nil, errs.NewCorruptChunk("decoded block length does not match expected logical size")
	}

	return a, nil
}
