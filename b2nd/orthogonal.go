package b2nd

import (
	"context"

	"github.com/b2io/b2core/errs"
)

// GetOrthogonalSelection implements get_orthogonal_selection: selections
// is one index list per axis, and the result is their outer product — the
// Cartesian combination of every selected index on every axis — copied
// into buf, shaped bufShape (bufShape[i] == len(selections[i])).
//
// This walks the output space one element at a time rather than batching
// contiguous runs the way GetSliceBuffer does; fancy-indexed selections
// are rarely contiguous enough for that to pay off, and per-element copy
// keeps the implementation a direct, obviously-correct transliteration of
// the outer-product definition.
func (a *Array) GetOrthogonalSelection(ctx context.Context, selections [][]int64, buf []byte, bufShape []int64) error {
	if err := a.validateSelections(selections, bufShape); err != nil {
		return err
	}

	needed := product(bufShape) * int64(a.itemsize)
	if int64(len(buf)) < needed {
		return errs.NewBufferTooSmall(int(needed))
	}

	outStrides := rowMajorStrides(bufShape)
	total := product(bufShape)

	chunkCache := make(map[int64][]byte)

	for flat := int64(0); flat < total; flat++ {
		outCoord := unflatten(flat, bufShape)

		srcCoord := make([]int64, a.ndim)
		for i := range srcCoord {
			srcCoord[i] = selections[i][outCoord[i]]
		}

		val, err := a.readElement(ctx, srcCoord, chunkCache)
		if err != nil {
			return err
		}

		off := dotStride(outCoord, outStrides) * int64(a.itemsize)
		copy(buf[off:off+int64(a.itemsize)], val)
	}

	return nil
}

// SetOrthogonalSelection is GetOrthogonalSelection's inverse.
func (a *Array) SetOrthogonalSelection(ctx context.Context, selections [][]int64, buf []byte, bufShape []int64) error {
	if err := a.validateSelections(selections, bufShape); err != nil {
		return err
	}

	needed := product(bufShape) * int64(a.itemsize)
	if int64(len(buf)) < needed {
		return errs.NewBufferTooSmall(int(needed))
	}

	outStrides := rowMajorStrides(bufShape)
	total := product(bufShape)

	chunkCache := make(map[int64][]byte)
	dirty := make(map[int64]bool)

	for flat := int64(0); flat < total; flat++ {
		outCoord := unflatten(flat, bufShape)

		srcCoord := make([]int64, a.ndim)
		for i := range srcCoord {
			srcCoord[i] = selections[i][outCoord[i]]
		}

		off := dotStride(outCoord, outStrides) * int64(a.itemsize)

		if err := a.writeElementCoord(ctx, srcCoord, buf[off:off+int64(a.itemsize)], chunkCache, dirty); err != nil {
			return err
		}
	}

	return a.flushElementCache(ctx, chunkCache, dirty)
}

func (a *Array) validateSelections(selections [][]int64, bufShape []int64) error {
	if len(selections) != a.ndim || len(bufShape) != a.ndim {
		return errs.ErrInvalidArgument
	}

	for i := 0; i < a.ndim; i++ {
		if int64(len(selections[i])) != bufShape[i] {
			return errs.ErrInvalidArgument
		}

		for _, idx := range selections[i] {
			if idx < 0 || idx >= a.shape[i] {
				return errs.ErrOutOfRange
			}
		}
	}

	return nil
}

func dotStride(coord, strides []int64) int64 {
	var s int64
	for i := range coord {
		s += coord[i] * strides[i]
	}

	return s
}

func (a *Array) chunkIndexFor(coord []int64) (int64, []int64) {
	chunkCoord := make([]int64, a.ndim)
	localCoord := make([]int64, a.ndim)

	for i := 0; i < a.ndim; i++ {
		chunkCoord[i] = coord[i] / a.chunkshape[i]
		localCoord[i] = coord[i] % a.chunkshape[i]
	}

	return flatten(chunkCoord, a.chunksPerAxis), localCoord
}

func (a *Array) readElement(ctx context.Context, coord []int64, cache map[int64][]byte) ([]byte, error) {
	c, local := a.chunkIndexFor(coord)

	data, ok := cache[c]
	if !ok {
		var err error

		data, err = a.sc.DecompressChunk(ctx, int(c))
		if err != nil {
			return nil, err
		}

		cache[c] = data
	}

	strides := rowMajorStrides(a.chunkshape)
	off := dotStride(local, strides) * int64(a.itemsize)

	return data[off : off+int64(a.itemsize)], nil
}

func (a *Array) writeElementCoord(ctx context.Context, coord []int64, val []byte, cache map[int64][]byte, dirty map[int64]bool) error {
	c, local := a.chunkIndexFor(coord)

	data, ok := cache[c]
	if !ok {
		if int64(a.sc.NumChunks()) > c {
			var err error

			data, err = a.sc.DecompressChunk(ctx, int(c))
			if err != nil {
				return err
			}
		} else {
			data = make([]byte, product(a.chunkshape)*int64(a.itemsize))
		}

		cache[c] = data
	}

	strides := rowMajorStrides(a.chunkshape)
	off := dotStride(local, strides) * int64(a.itemsize)

	copy(data[off:off+int64(a.itemsize)], val)
	dirty[c] = true

	return nil
}

func (a *Array) flushElementCache(ctx context.Context, cache map[int64][]byte, dirty map[int64]bool) error {
	for c, data := range cache {
		if !dirty[c] {
			continue
		}

		if err := a.writeChunk(ctx, int(c), data); err != nil {
			return err
		}
	}

	return nil
}
