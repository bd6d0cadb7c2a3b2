package b2nd

import (
	"context"

	"github.com/b2io/b2core/errs"
)

// FromBuffer implements from_cbuffer: src is a contiguous row-major buffer
// of prod(shape)*itemsize bytes, split and compressed chunk by chunk.
func (a *Array) FromBuffer(ctx context.Context, src []byte) error {
	needed := product(a.shape) * int64(a.itemsize)
	if int64(len(src)) != needed {
		return errs.ErrInvalidArgument
	}

	if needed == 0 {
		return nil
	}

	return a.SetSliceBuffer(ctx, zeros(a.ndim), a.shape, src, a.shape)
}

// ToBuffer implements to_cbuffer: the inverse of FromBuffer, decoding the
// whole array into dst.
func (a *Array) ToBuffer(ctx context.Context, dst []byte) error {
	needed := product(a.shape) * int64(a.itemsize)
	if int64(len(dst)) < needed {
		return errs.NewBufferTooSmall(int(needed))
	}

	if needed == 0 {
		return nil
	}

	return a.GetSliceBuffer(ctx, zeros(a.ndim), a.shape, dst, a.shape)
}

func zeros(n int) []int64 {
	return make([]int64, n)
}
