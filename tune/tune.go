// Package tune implements the per-chunk tune hook: consulted to pick codec
// parameters (blocksize, codec id, filter pipeline) dynamically instead of
// pinning them at super-chunk construction time. A Decision carries no
// compression level and no byte-split mode.
package tune

import (
	"github.com/b2io/b2core/format"
)

// Context carries what a Hook needs to make its decision: the data about to
// be compressed and the super-chunk's static configuration.
type Context struct {
	Typesize    int
	Nbytes      int
	DefaultCodec format.CodecID
}

// Decision is what a Hook returns: the parameters to use for this one
// chunk.
type Decision struct {
	Blocksize int
	CodecID   format.CodecID
	FilterIDs []format.FilterID
}

// Hook is consulted once per chunk, before the block pipeline runs, to
// choose compression parameters dynamically. A Hook must be safe for
// concurrent use; the super-chunk layer may consult it from multiple
// goroutines appending chunks in parallel.
type Hook interface {
	Tune(ctx Context) Decision
}

// DefaultHook reproduces the library's baseline policy: a blocksize chosen
// from the input size (bounded between 4KiB and 256KiB, rounded to a power
// of two), the super-chunk's configured default codec, and the shuffle
// filter whenever the typesize makes it worthwhile (a multi-byte element).
type DefaultHook struct{}

var _ Hook = DefaultHook{}

func (DefaultHook) Tune(ctx Context) Decision {
	d := Decision{
		Blocksize: defaultBlocksize(ctx.Nbytes),
		CodecID:   ctx.DefaultCodec,
	}

	if ctx.Typesize > 1 {
		d.FilterIDs = []format.FilterID{format.FilterShuffle}
	}

	return d
}

func defaultBlocksize(nbytes int) int {
	const (
		minBlock = 4 * 1024
		maxBlock = 256 * 1024
	)

	if nbytes <= minBlock {
		return minBlock
	}

	if nbytes >= maxBlock {
		return maxBlock
	}

	// Round down to the nearest power of two between min and max.
	size := minBlock
	for size*2 <= nbytes {
		size *= 2
	}

	return size
}
