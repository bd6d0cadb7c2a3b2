package b2nd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/b2io/b2core/format"
)

func fillSeq(n int) []byte {
	b := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := int32(i)
		b[i*4] = byte(v)
		b[i*4+1] = byte(v >> 8)
		b[i*4+2] = byte(v >> 16)
		b[i*4+3] = byte(v >> 24)
	}

	return b
}

func testOpts(shape, chunkshape, blockshape []int64) Options {
	return Options{
		Shape:      shape,
		ChunkShape: chunkshape,
		BlockShape: blockshape,
		ItemSize:   4,
		DTypeFmt:   1,
		DTypeStr:   "int32",
		CodecID:    format.CodecLZ4,
		Filters:    []format.FilterID{format.FilterShuffle},
	}
}

func TestCreateAndToBufferRoundTrip(t *testing.T) {
	ctx := context.Background()

	src := fillSeq(4 * 6)
	a, err := Create(ctx, testOpts([]int64{4, 6}, []int64{2, 3}, []int64{2, 3}), src)
	require.NoError(t, err)

	dst := make([]byte, len(src))
	require.NoError(t, a.ToBuffer(ctx, dst))
	require.Equal(t, src, dst)
}

func TestGetSliceBuffer(t *testing.T) {
	ctx := context.Background()

	src := fillSeq(4 * 6)
	a, err := Create(ctx, testOpts([]int64{4, 6}, []int64{2, 3}, []int64{2, 3}), src)
	require.NoError(t, err)

	dst := make([]byte, 2*2*4)
	require.NoError(t, a.GetSliceBuffer(ctx, []int64{1, 1}, []int64{3, 3}, dst, []int64{2, 2}))

	want := make([]byte, 2*2*4)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			srcIdx := (1+r)*6 + (1 + c)
			copy(want[(r*2+c)*4:(r*2+c)*4+4], src[srcIdx*4:srcIdx*4+4])
		}
	}

	require.Equal(t, want, dst)
}

func TestSetSliceBufferPartialCoverage(t *testing.T) {
	ctx := context.Background()

	a, err := Empty(testOpts([]int64{4, 4}, []int64{2, 2}, []int64{2, 2}))
	require.NoError(t, err)

	full := fillSeq(16)
	require.NoError(t, a.FromBuffer(ctx, full))

	patch := fillSeq(1)
	for i := range patch {
		patch[i] = 0xff
	}

	require.NoError(t, a.SetSliceBuffer(ctx, []int64{1, 1}, []int64{2, 2}, patch, []int64{1, 1}))

	dst := make([]byte, 16*4)
	require.NoError(t, a.ToBuffer(ctx, dst))

	// the single patched element sits at logical row 1, col 1
	idx := 1*4 + 1
	require.Equal(t, patch, dst[idx*4:idx*4+4])
}

func TestAppendFastPathAndFallback(t *testing.T) {
	ctx := context.Background()

	a, err := Empty(testOpts([]int64{0, 3}, []int64{2, 3}, []int64{2, 3}))
	require.NoError(t, err)

	chunk1 := fillSeq(2 * 3)
	require.NoError(t, a.Append(ctx, chunk1, []int64{2, 3}, 0))
	require.Equal(t, []int64{2, 3}, a.Shape())

	// non-chunk-aligned append falls back to SetSliceBuffer.
	chunk2 := fillSeq(1 * 3)
	require.NoError(t, a.Append(ctx, chunk2, []int64{1, 3}, 0))
	require.Equal(t, []int64{3, 3}, a.Shape())

	dst := make([]byte, 3*3*4)
	require.NoError(t, a.ToBuffer(ctx, dst))
	require.Equal(t, chunk1, dst[:len(chunk1)])
	require.Equal(t, chunk2, dst[len(chunk1):len(chunk1)+len(chunk2)])
}

func TestConcatenateFastPathAndCopy(t *testing.T) {
	ctx := context.Background()

	a, err := Create(ctx, testOpts([]int64{2, 2}, []int64{2, 2}, []int64{2, 2}), fillSeq(4))
	require.NoError(t, err)

	b, err := Create(ctx, testOpts([]int64{2, 2}, []int64{2, 2}, []int64{2, 2}), fillSeq(4))
	require.NoError(t, err)

	out, err := Concatenate(ctx, a, b, 0, false)
	require.NoError(t, err)
	require.Equal(t, []int64{4, 2}, out.Shape())

	dst := make([]byte, 4*2*4)
	require.NoError(t, out.ToBuffer(ctx, dst))

	want := append(append([]byte{}, fillSeq(4)...), fillSeq(4)...)
	require.Equal(t, want, dst)

	out2, err := Concatenate(ctx, a, b, 1, true)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 4}, out2.Shape())
}

func TestConcatenateFastPathDoesNotMutateInput(t *testing.T) {
	ctx := context.Background()

	a, err := Create(ctx, testOpts([]int64{2, 2}, []int64{2, 2}, []int64{2, 2}), fillSeq(4))
	require.NoError(t, err)

	b, err := Create(ctx, testOpts([]int64{2, 2}, []int64{2, 2}, []int64{2, 2}), fillSeq(4))
	require.NoError(t, err)

	_, err = Concatenate(ctx, a, b, 0, false)
	require.NoError(t, err)

	require.Equal(t, []int64{2, 2}, a.Shape())

	dst := make([]byte, 2*2*4)
	require.NoError(t, a.ToBuffer(ctx, dst))
	require.Equal(t, fillSeq(4), dst)
}

func TestSqueeze(t *testing.T) {
	ctx := context.Background()

	a, err := Create(ctx, testOpts([]int64{1, 3, 1}, []int64{1, 3, 1}, []int64{1, 3, 1}), fillSeq(3))
	require.NoError(t, err)

	s := a.Squeeze()
	require.Equal(t, 1, s.NDim())
	require.Equal(t, []int64{3}, s.Shape())

	dst := make([]byte, 3*4)
	require.NoError(t, s.ToBuffer(ctx, dst))
	require.Equal(t, fillSeq(3), dst)
}

func TestOrthogonalSelectionRoundTrip(t *testing.T) {
	ctx := context.Background()

	a, err := Create(ctx, testOpts([]int64{4, 4}, []int64{2, 2}, []int64{2, 2}), fillSeq(16))
	require.NoError(t, err)

	sel := [][]int64{{0, 3}, {1, 2}}
	buf := make([]byte, 2*2*4)
	require.NoError(t, a.GetOrthogonalSelection(ctx, sel, buf, []int64{2, 2}))

	want := make([]byte, 2*2*4)
	for i, r := range sel[0] {
		for j, c := range sel[1] {
			srcIdx := r*4 + c
			dstIdx := int64(i)*2 + int64(j)
			copy(want[dstIdx*4:dstIdx*4+4], fillSeq(16)[srcIdx*4:srcIdx*4+4])
		}
	}

	require.Equal(t, want, buf)

	patch := make([]byte, 2*2*4)
	for i := range patch {
		patch[i] = 0xaa
	}

	require.NoError(t, a.SetOrthogonalSelection(ctx, sel, patch, []int64{2, 2}))

	out := make([]byte, 2*2*4)
	require.NoError(t, a.GetOrthogonalSelection(ctx, sel, out, []int64{2, 2}))
	require.Equal(t, patch, out)
}

func TestSaveOpenRoundTrip(t *testing.T) {
	ctx := context.Background()

	src := fillSeq(4 * 6)
	a, err := Create(ctx, testOpts([]int64{4, 6}, []int64{2, 3}, []int64{2, 3}), src)
	require.NoError(t, err)

	buf, err := ToCFrame(a)
	require.NoError(t, err)

	back, err := FromCFrame(buf)
	require.NoError(t, err)

	require.Equal(t, a.Shape(), back.Shape())
	require.Equal(t, a.ChunkShape(), back.ChunkShape())
	require.Equal(t, a.ItemSize(), back.ItemSize())

	dst := make([]byte, len(src))
	require.NoError(t, back.ToBuffer(ctx, dst))
	require.Equal(t, src, dst)
}

func TestSaveOpenFileRoundTrip(t *testing.T) {
	ctx := context.Background()

	src := fillSeq(4 * 6)
	a, err := Create(ctx, testOpts([]int64{4, 6}, []int64{2, 3}, []int64{2, 3}), src)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "array.b2frame")
	require.NoError(t, Save(a, path))

	back, err := Open(path)
	require.NoError(t, err)

	dst := make([]byte, len(src))
	require.NoError(t, back.ToBuffer(ctx, dst))
	require.Equal(t, src, dst)
}
