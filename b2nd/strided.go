package b2nd

// stridedCopy implements the spec's core N-D copy: it copies the region
// [start, stop) (in a shared logical coordinate system) from src (shaped
// srcPadShape, itself not offset) to dst (shaped dstPadShape), landing at
// dstStart in dst's coordinate system. Both src and dst are treated as
// row-major buffers of itemsize-wide elements.
//
// This implementation uses one generic linearized outer loop rather than
// the spec's per-ndim (2..8) unrolled variants: Go's compiler doesn't
// benefit from manually duplicated loop nests the way the original C did
// (no loop-count-specialized inlining to exploit), so the unrolled
// variants would be pure duplication without a measurable win. The inner
// dimension is still always copied with a single copy() call, which is
// where the real cost lives.
func stridedCopy(dst []byte, dstPadShape []int64, dstStart []int64, src []byte, srcPadShape []int64, start, stop []int64, itemsize int) {
	ndim := len(start)

	copyShape := make([]int64, ndim)
	for i := range copyShape {
		copyShape[i] = stop[i] - start[i]

		if copyShape[i] <= 0 {
			return
		}
	}

	srcStrides := rowMajorStrides(srcPadShape)
	dstStrides := rowMajorStrides(dstPadShape)

	inner := copyShape[ndim-1]
	innerBytes := inner * int64(itemsize)

	outerDims := copyShape[:ndim-1]
	outerCount := product(outerDims)

	for flat := int64(0); flat < outerCount; flat++ {
		coord := unflatten(flat, outerDims)

		srcOff := int64(0)
		dstOff := int64(0)

		for i := 0; i < ndim-1; i++ {
			srcOff += (start[i] + coord[i]) * srcStrides[i]
			dstOff += (dstStart[i] + coord[i]) * dstStrides[i]
		}

		srcOff += start[ndim-1] * srcStrides[ndim-1]
		dstOff += dstStart[ndim-1] * dstStrides[ndim-1]

		srcByteOff := srcOff * int64(itemsize)
		dstByteOff := dstOff * int64(itemsize)

		copy(dst[dstByteOff:dstByteOff+innerBytes], src[srcByteOff:srcByteOff+innerBytes])
	}
}

// rowMajorStrides computes element strides for a row-major buffer of the
// given padded shape: strides[ndim-1] = 1, strides[i] = strides[i+1] *
// shape[i+1].
func rowMajorStrides(shape []int64) []int64 {
	ndim := len(shape)
	strides := make([]int64, ndim)
	strides[ndim-1] = 1

	for i := ndim - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * shape[i+1]
	}

	return strides
}
