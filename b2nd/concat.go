package b2nd

import (
	"context"

	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/schunk"
)

// Concatenate implements concatenate(ctx, a, b, axis, copy). When axis==0,
// copy is false, a has no padded tail chunk, and a/b share chunkshape,
// blockshape, and itemsize, b's chunks are spliced onto a copy of a's chunk
// list (no re-encoding) and a new Array is returned over that combined
// super-chunk; a itself is left unchanged. Any other combination falls back to allocating a fresh
// array and copying both inputs' data through GetSliceBuffer/SetSliceBuffer.
func Concatenate(ctx context.Context, a, b *Array, axis int, copyData bool) (*Array, error) {
	if axis < 0 || axis >= a.ndim || a.ndim != b.ndim {
		return nil, errs.ErrInvalidArgument
	}

	for i := 0; i < a.ndim; i++ {
		if i == axis {
			continue
		}

		if a.shape[i] != b.shape[i] {
			return nil, errs.ErrInvalidArgument
		}
	}

	if !copyData && axis == 0 && a.fastConcatEligible(b) {
		return a.concatFastPath(b)
	}

	return concatCopy(ctx, a, b, axis)
}

func (a *Array) fastConcatEligible(b *Array) bool {
	if a.shape[0]%a.chunkshape[0] != 0 {
		return false
	}

	if !shapeEqual(a.chunkshape, b.chunkshape) || !shapeEqual(a.blockshape, b.blockshape) {
		return false
	}

	return a.itemsize == b.itemsize
}

// concatFastPath adopts b's chunks onto the end of a fresh copy of a's chunk
// list by appending each of b's already-encoded chunk buffers unchanged (the
// offset-table splice the spec describes; package schunk's AppendChunk is
// the in-memory equivalent of rewriting a contiguous frame's offset table
// without touching chunk payloads).
//
// Adoption is deliberately a distinct operation from a memory-level move: out
// gets its own *schunk.SChunk, built via schunk.FromParts with copyBytes=true
// over a's existing chunk bytes, rather than aliasing a.sc directly. Without
// that copy, splicing b's chunks onto a.sc in place would silently mutate a
// itself, leaving a and the returned array sharing one mutable, mutex-guarded
// chunk list — any later mutating call on either would corrupt the other.
func (a *Array) concatFastPath(b *Array) (*Array, error) {
	sc, err := schunk.FromParts(a.sc.Typesize(), a.sc.CodecID(), a.sc.FilterIDs(), 1, a.sc.ChunkBytes(), a.sc.FixedMeta(), a.sc.VLMeta(), true)
	if err != nil {
		return nil, err
	}

	out := &Array{
		ndim:       a.ndim,
		shape:      append([]int64(nil), a.shape...),
		chunkshape: append([]int64(nil), a.chunkshape...),
		blockshape: append([]int64(nil), a.blockshape...),
		itemsize:   a.itemsize,
		dtypeFmt:   a.dtypeFmt,
		dtypeStr:   a.dtypeStr,
		sc:         sc,
	}

	out.shape[0] += b.shape[0]
	out.recomputeChunksPerAxis()

	for _, cb := range b.sc.ChunkBytes() {
		if _, err := out.sc.AppendChunk(cb, true); err != nil {
			return nil, err
		}
	}

	if err := out.writeMetaLayer(); err != nil {
		return nil, err
	}

	return out, nil
}

func concatCopy(ctx context.Context, a, b *Array, axis int) (*Array, error) {
	outShape := append([]int64(nil), a.shape...)
	outShape[axis] += b.shape[axis]

	out, err := Empty(Options{
		Shape:      outShape,
		ChunkShape: a.chunkshape,
		BlockShape: a.blockshape,
		ItemSize:   a.itemsize,
		DTypeFmt:   a.dtypeFmt,
		DTypeStr:   a.dtypeStr,
		CodecID:    a.sc.CodecID(),
		Filters:    a.sc.FilterIDs(),
	})
	if err != nil {
		return nil, err
	}

	buf := make([]byte, product(a.shape)*int64(a.itemsize))
	if err := a.ToBuffer(ctx, buf); err != nil {
		return nil, err
	}

	if err := out.SetSliceBuffer(ctx, zeros(a.ndim), a.shape, buf, a.shape); err != nil {
		return nil, err
	}

	bufB := make([]byte, product(b.shape)*int64(b.itemsize))
	if err := b.ToBuffer(ctx, bufB); err != nil {
		return nil, err
	}

	start := append([]int64(nil), zeros(a.ndim)...)
	start[axis] = a.shape[axis]

	stop := append([]int64(nil), outShape...)

	if err := out.SetSliceBuffer(ctx, start, stop, bufB, b.shape); err != nil {
		return nil, err
	}

	return out, nil
}
