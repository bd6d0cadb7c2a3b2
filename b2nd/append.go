package b2nd

import (
	"context"

	"github.com/b2io/b2core/errs"
)

// Append implements append(array, src, axis): extends the array along axis
// by appending src, which must align in shape on every other axis.
//
// Fast path: when axis==0, src's shape matches chunkshape exactly, and the
// array's current axis-0 extent is already chunk-aligned (no padded tail
// chunk), src is compressed directly into one new chunk with no
// read-modify-write and shape[0] grows by chunkshape[0].
func (a *Array) Append(ctx context.Context, src []byte, srcShape []int64, axis int) error {
	if axis < 0 || axis >= a.ndim {
		return errs.ErrInvalidArgument
	}

	if len(srcShape) != a.ndim {
		return errs.ErrInvalidArgument
	}

	for i := 0; i < a.ndim; i++ {
		if i == axis {
			continue
		}

		if srcShape[i] != a.shape[i] {
			return errs.ErrInvalidArgument
		}
	}

	if axis == 0 && shapeEqual(srcShape, a.chunkshape) && a.shape[0]%a.chunkshape[0] == 0 {
		return a.appendFastPath(ctx, src)
	}

	start := append([]int64(nil), zeros(a.ndim)...)
	start[axis] = a.shape[axis]

	stop := append([]int64(nil), a.shape...)
	stop[axis] = a.shape[axis] + srcShape[axis]

	oldShape := append([]int64(nil), a.shape...)
	a.shape[axis] = stop[axis]
	a.recomputeChunksPerAxis()

	if err := a.SetSliceBuffer(ctx, start, stop, src, srcShape); err != nil {
		a.shape = oldShape
		a.recomputeChunksPerAxis()

		return err
	}

	return nil
}

func (a *Array) appendFastPath(ctx context.Context, src []byte) error {
	if _, err := a.sc.AppendBuffer(ctx, src); err != nil {
		return err
	}

	a.shape[0] += a.chunkshape[0]
	a.recomputeChunksPerAxis()

	return a.writeMetaLayer()
}

func shapeEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
