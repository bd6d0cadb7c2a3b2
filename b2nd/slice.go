package b2nd

import (
	"context"

	"github.com/b2io/b2core/errs"
)

func (a *Array) validateRange(start, stop []int64) error {
	if len(start) != a.ndim || len(stop) != a.ndim {
		return errs.ErrInvalidArgument
	}

	for i := 0; i < a.ndim; i++ {
		if start[i] < 0 || stop[i] < start[i] || stop[i] > a.shape[i] {
			return errs.ErrOutOfRange
		}
	}

	return nil
}

// intersect returns the overlap of [aStart, aStop) and [bStart, bStop),
// per axis, plus whether the overlap is non-empty on every axis.
func intersect(aStart, aStop, bStart, bStop []int64) (start, stop []int64, ok bool) {
	ndim := len(aStart)
	start = make([]int64, ndim)
	stop = make([]int64, ndim)

	for i := 0; i < ndim; i++ {
		start[i] = maxI64(aStart[i], bStart[i])
		stop[i] = minI64(aStop[i], bStop[i])

		if stop[i] <= start[i] {
			return nil, nil, false
		}
	}

	return start, stop, true
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}

	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}

	return b
}

// GetSliceBuffer implements get_slice_cbuffer: it copies array[start:stop)
// into dst, a contiguous row-major buffer shaped dstShape (which must
// equal stop-start element-wise).
func (a *Array) GetSliceBuffer(ctx context.Context, start, stop []int64, dst []byte, dstShape []int64) error {
	if err := a.validateRange(start, stop); err != nil {
		return err
	}

	if len(dstShape) != a.ndim {
		return errs.ErrInvalidArgument
	}

	for i := 0; i < a.ndim; i++ {
		if dstShape[i] != stop[i]-start[i] {
			return errs.ErrInvalidArgument
		}
	}

	needed := product(dstShape) * int64(a.itemsize)
	if int64(len(dst)) < needed {
		return errs.NewBufferTooSmall(int(needed))
	}

	total := a.totalChunks()

	for c := int64(0); c < total; c++ {
		origin := a.chunkOrigin(c)

		chunkStop := make([]int64, a.ndim)
		for i := range chunkStop {
			chunkStop[i] = minI64(origin[i]+a.chunkshape[i], a.shape[i])
		}

		ovStart, ovStop, ok := intersect(origin, chunkStop, start, stop)
		if !ok {
			continue
		}

		scratch := make([]byte, product(a.chunkshape)*int64(a.itemsize))

		decoded, err := a.sc.DecompressChunk(ctx, int(c))
		if err != nil {
			return err
		}

		copy(scratch, decoded)

		localStart := make([]int64, a.ndim)
		dstLocalStart := make([]int64, a.ndim)

		for i := 0; i < a.ndim; i++ {
			localStart[i] = ovStart[i] - origin[i]
			dstLocalStart[i] = ovStart[i] - start[i]
		}

		localStop := make([]int64, a.ndim)
		for i := range localStop {
			localStop[i] = localStart[i] + (ovStop[i] - ovStart[i])
		}

		stridedCopy(dst, dstShape, dstLocalStart, scratch, a.chunkshape, localStart, localStop, a.itemsize)
	}

	return nil
}

// SetSliceBuffer implements set_slice_cbuffer: the inverse of
// GetSliceBuffer. Chunks fully covered by [start, stop) are encoded fresh;
// partially covered chunks are read-modify-written.
func (a *Array) SetSliceBuffer(ctx context.Context, start, stop []int64, src []byte, srcShape []int64) error {
	if err := a.validateRange(start, stop); err != nil {
		return err
	}

	if len(srcShape) != a.ndim {
		return errs.ErrInvalidArgument
	}

	for i := 0; i < a.ndim; i++ {
		if srcShape[i] != stop[i]-start[i] {
			return errs.ErrInvalidArgument
		}
	}

	total := a.totalChunks()

	for c := int64(0); c < total; c++ {
		origin := a.chunkOrigin(c)

		chunkStop := make([]int64, a.ndim)
		for i := range chunkStop {
			chunkStop[i] = minI64(origin[i]+a.chunkshape[i], a.shape[i])
		}

		ovStart, ovStop, ok := intersect(origin, chunkStop, start, stop)
		if !ok {
			continue
		}

		fullyCovered := true
		for i := 0; i < a.ndim; i++ {
			if ovStart[i] != origin[i] || ovStop[i] != chunkStop[i] {
				fullyCovered = false

				break
			}
		}

		chunkElems := product(a.chunkshape)
		scratch := make([]byte, chunkElems*int64(a.itemsize))

		if !fullyCovered {
			if c < int64(a.sc.NumChunks()) {
				decoded, err := a.sc.DecompressChunk(ctx, int(c))
				if err != nil {
					return err
				}

				copy(scratch, decoded)
			}
		}

		localStart := make([]int64, a.ndim)
		srcLocalStart := make([]int64, a.ndim)

		for i := 0; i < a.ndim; i++ {
			localStart[i] = ovStart[i] - origin[i]
			srcLocalStart[i] = ovStart[i] - start[i]
		}

		localStop := make([]int64, a.ndim)
		for i := range localStop {
			localStop[i] = localStart[i] + (ovStop[i] - ovStart[i])
		}

		// stridedCopy's start/stop describe the *source* region's extent
		// in the shared coordinate system; srcLocalStop is expressed in
		// src-local coordinates, not the chunk-local ones localStop uses.
		srcLocalStop := make([]int64, a.ndim)
		for i := range srcLocalStop {
			srcLocalStop[i] = srcLocalStart[i] + (ovStop[i] - ovStart[i])
		}

		stridedCopy(scratch, a.chunkshape, localStart, src, srcShape, srcLocalStart, srcLocalStop, a.itemsize)

		if err := a.writeChunk(ctx, int(c), scratch); err != nil {
			return err
		}
	}

	if stop[0] > a.shape[0] {
		a.shape[0] = stop[0]
		a.recomputeChunksPerAxis()
	}

	return a.writeMetaLayer()
}

// writeChunk replaces (or appends) chunk index c with freshly compressed
// data, growing the super-chunk's chunk list as needed.
func (a *Array) writeChunk(ctx context.Context, c int, data []byte) error {
	for a.sc.NumChunks() <= c {
		if _, err := a.sc.AppendBuffer(ctx, make([]byte, len(data))); err != nil {
			return err
		}
	}

	return a.sc.UpdateBuffer(ctx, c, data)
}
