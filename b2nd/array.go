// Package b2nd maps N-dimensional array regions onto the chunk/block
// structure of an underlying super-chunk (package schunk): chunks tile the
// array's shape along every axis, and each chunk is itself compressed in
// typesize-aligned blocks by the chunk layer beneath it.
package b2nd

import (
	"context"

	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
	"github.com/b2io/b2core/schunk"
)

// MaxDims bounds ndim the way the spec's strided-copy algorithm does ("for
// ndim > 8, not currently used... a generic linearized loop").
const MaxDims = 8

// Array is an N-dimensional view over a super-chunk: shape describes the
// logical extent, chunkshape tiles it into per-chunk regions, and
// blockshape further tiles each chunk (purely a hint passed down to the
// chunk layer's blocksize, since block shape isn't independently
// addressable below the chunk).
type Array struct {
	ndim       int
	shape      []int64
	chunkshape []int64
	blockshape []int64
	itemsize   int
	dtypeFmt   uint8
	dtypeStr   string

	sc *schunk.SChunk

	// chunksPerAxis[i] = ceil(shape[i] / chunkshape[i]).
	chunksPerAxis []int64
}

// Options configures a new Array.
type Options struct {
	Shape      []int64
	ChunkShape []int64
	BlockShape []int64
	ItemSize   int
	DTypeFmt   uint8
	DTypeStr   string

	CodecID  format.CodecID
	Filters  []format.FilterID
	NThreads int
}

func validateShapes(opts Options) error {
	ndim := len(opts.Shape)

	if ndim == 0 || ndim > MaxDims {
		return errs.ErrInvalidArgument
	}

	if len(opts.ChunkShape) != ndim || len(opts.BlockShape) != ndim {
		return errs.ErrInvalidArgument
	}

	if opts.ItemSize <= 0 {
		return errs.ErrInvalidArgument
	}

	for i := 0; i < ndim; i++ {
		if opts.Shape[i] < 0 || opts.ChunkShape[i] <= 0 || opts.BlockShape[i] <= 0 {
			return errs.ErrInvalidArgument
		}

		if opts.BlockShape[i] > opts.ChunkShape[i] {
			return errs.ErrInvalidArgument
		}
	}

	return nil
}

// Empty creates an array with no data chunks yet. shape may have a zero
// 0th-axis extent to enable pure appends.
func Empty(opts Options) (*Array, error) {
	if err := validateShapes(opts); err != nil {
		return nil, err
	}

	blocksize := int(product(opts.BlockShape)) * opts.ItemSize

	sc := schunk.New(schunk.Options{
		Typesize:  opts.ItemSize,
		CodecID:   opts.CodecID,
		Filters:   opts.Filters,
		NThreads:  opts.NThreads,
		Blocksize: blocksize,
	})

	a := &Array{
		ndim:       len(opts.Shape),
		shape:      append([]int64(nil), opts.Shape...),
		chunkshape: append([]int64(nil), opts.ChunkShape...),
		blockshape: append([]int64(nil), opts.BlockShape...),
		itemsize:   opts.ItemSize,
		dtypeFmt:   opts.DTypeFmt,
		dtypeStr:   opts.DTypeStr,
		sc:         sc,
	}
	a.recomputeChunksPerAxis()

	if err := a.writeMetaLayer(); err != nil {
		return nil, err
	}

	return a, nil
}

// Create builds an array and immediately fills it from src, a contiguous
// row-major buffer of prod(shape)*itemsize bytes.
func Create(ctx context.Context, opts Options, src []byte) (*Array, error) {
	a, err := Empty(opts)
	if err != nil {
		return nil, err
	}

	if err := a.FromBuffer(ctx, src); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Array) recomputeChunksPerAxis() {
	a.chunksPerAxis = make([]int64, a.ndim)
	for i := 0; i < a.ndim; i++ {
		a.chunksPerAxis[i] = ceilDiv(a.shape[i], a.chunkshape[i])
	}
}

// NDim returns the array's dimensionality.
func (a *Array) NDim() int { return a.ndim }

// Shape returns a copy of the array's logical shape.
func (a *Array) Shape() []int64 { return append([]int64(nil), a.shape...) }

// ChunkShape returns a copy of the array's chunk tiling shape.
func (a *Array) ChunkShape() []int64 { return append([]int64(nil), a.chunkshape...) }

// BlockShape returns a copy of the array's block tiling shape.
func (a *Array) BlockShape() []int64 { return append([]int64(nil), a.blockshape...) }

// ItemSize returns the byte width of one array element.
func (a *Array) ItemSize() int { return a.itemsize }

// DType returns the opaque dtype format byte and string recorded at
// creation time.
func (a *Array) DType() (uint8, string) { return a.dtypeFmt, a.dtypeStr }

func ceilDiv(a, b int64) int64 {
	if a == 0 {
		return 0
	}

	return (a + b - 1) / b
}

func product(s []int64) int64 {
	p := int64(1)
	for _, v := range s {
		p *= v
	}

	return p
}

// totalChunks returns the number of tiling chunks across every axis.
func (a *Array) totalChunks() int64 {
	return product(a.chunksPerAxis)
}

// chunkOrigin returns the logical coordinate of chunk index c's first
// element, where c is a flattened row-major index over chunksPerAxis.
func (a *Array) chunkOrigin(c int64) []int64 {
	coord := unflatten(c, a.chunksPerAxis)
	origin := make([]int64, a.ndim)

	for i := range origin {
		origin[i] = coord[i] * a.chunkshape[i]
	}

	return origin
}

// unflatten decomposes a row-major flat index into per-axis coordinates
// under dims (axis 0 is the slowest-varying / outermost).
func unflatten(flat int64, dims []int64) []int64 {
	ndim := len(dims)
	coord := make([]int64, ndim)

	for i := ndim - 1; i >= 0; i-- {
		coord[i] = flat % dims[i]
		flat /= dims[i]
	}

	return coord
}

// flatten is unflatten's inverse.
func flatten(coord, dims []int64) int64 {
	var flat int64

	for i := 0; i < len(dims); i++ {
		flat = flat*dims[i] + coord[i]
	}

	return flat
}
