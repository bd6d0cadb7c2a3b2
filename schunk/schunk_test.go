package schunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
)

func payload(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i)
	}

	return b
}

func TestAppendAndDecompressRoundTrip(t *testing.T) {
	ctx := context.Background()
	sc := New(Options{Typesize: 4, CodecID: format.CodecLZ4, Filters: []format.FilterID{format.FilterShuffle}})

	p0 := payload(4096, 1)
	p1 := payload(4096, 7)

	_, err := sc.AppendBuffer(ctx, p0)
	require.NoError(t, err)
	_, err = sc.AppendBuffer(ctx, p1)
	require.NoError(t, err)

	require.Equal(t, 2, sc.NumChunks())
	require.Equal(t, StatePopulated, sc.State())

	got0, err := sc.DecompressChunk(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, p0, got0)

	got1, err := sc.DecompressChunk(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, p1, got1)
}

func TestInsertUpdateDeleteReorder(t *testing.T) {
	ctx := context.Background()
	sc := New(Options{Typesize: 1, CodecID: format.CodecS2})

	a := payload(512, 10)
	b := payload(512, 20)
	c := payload(512, 30)

	_, err := sc.AppendBuffer(ctx, a)
	require.NoError(t, err)
	_, err = sc.AppendBuffer(ctx, c)
	require.NoError(t, err)

	require.NoError(t, sc.InsertBuffer(ctx, 1, b))
	require.Equal(t, 3, sc.NumChunks())

	got, err := sc.DecompressChunk(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, b, got)

	d := payload(512, 40)
	require.NoError(t, sc.UpdateBuffer(ctx, 2, d))

	got, err = sc.DecompressChunk(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, d, got)

	require.NoError(t, sc.DeleteChunk(0))
	require.Equal(t, 2, sc.NumChunks())

	got, err = sc.DecompressChunk(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, b, got)

	require.NoError(t, sc.ReorderOffsets([]int{1, 0}))

	got, err = sc.DecompressChunk(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, d, got)

	require.Error(t, sc.ReorderOffsets([]int{0, 0}))
	require.ErrorIs(t, sc.ReorderOffsets([]int{0, 0}), errs.ErrInvalidPermutation)
}

func TestGetItemThroughSChunk(t *testing.T) {
	ctx := context.Background()
	sc := New(Options{Typesize: 4, CodecID: format.CodecLZ4})

	src := payload(8192, 3)
	_, err := sc.AppendBuffer(ctx, src)
	require.NoError(t, err)

	got, err := sc.GetItem(ctx, 0, 100, 256)
	require.NoError(t, err)
	require.Equal(t, src[100:356], got)
}

func TestFixedMetaFreezesAfterFirstAppend(t *testing.T) {
	ctx := context.Background()
	sc := New(Options{Typesize: 1, CodecID: format.CodecLZ4})

	require.NoError(t, sc.AddMeta("schema", []byte("v1")))

	_, err := sc.AppendBuffer(ctx, payload(64, 1))
	require.NoError(t, err)

	err = sc.AddMeta("other", []byte("x"))
	require.ErrorIs(t, err, errs.ErrFrozenMetadata)

	got, err := sc.GetMeta("schema")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)

	require.NoError(t, sc.UpdateMeta("schema", []byte("v2")))
	require.Error(t, sc.UpdateMeta("schema", []byte("v2-too-long")))
}

func TestVLMetaMutableAnyTime(t *testing.T) {
	ctx := context.Background()
	sc := New(Options{Typesize: 1, CodecID: format.CodecLZ4})

	require.NoError(t, sc.SetVLMeta("tag", []byte("alpha")))

	_, err := sc.AppendBuffer(ctx, payload(32, 5))
	require.NoError(t, err)

	require.NoError(t, sc.SetVLMeta("tag", []byte("a-much-longer-value")))

	got, err := sc.GetVLMeta("tag")
	require.NoError(t, err)
	require.Equal(t, []byte("a-much-longer-value"), got)

	require.NoError(t, sc.DeleteVLMeta("tag"))
	_, err = sc.GetVLMeta("tag")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSealRejectsMutation(t *testing.T) {
	ctx := context.Background()
	sc := New(Options{Typesize: 1, CodecID: format.CodecLZ4})

	_, err := sc.AppendBuffer(ctx, payload(16, 1))
	require.NoError(t, err)

	sc.Seal()

	_, err = sc.AppendBuffer(ctx, payload(16, 2))
	require.Error(t, err)

	require.Equal(t, StateSealed, sc.State())
}

func TestWithDeltaFilterPrepends(t *testing.T) {
	opts := WithDeltaFilter(Options{Typesize: 4, CodecID: format.CodecLZ4, Filters: []format.FilterID{format.FilterShuffle}})
	require.Equal(t, []format.FilterID{format.FilterDelta, format.FilterShuffle}, opts.Filters)
}

func TestMetaAndVLMetaExists(t *testing.T) {
	sc := New(Options{Typesize: 1, CodecID: format.CodecLZ4})

	require.False(t, sc.MetaExists("schema"))
	require.NoError(t, sc.AddMeta("schema", []byte("v1")))
	require.True(t, sc.MetaExists("schema"))

	require.False(t, sc.VLMetaExists("tag"))
	require.NoError(t, sc.SetVLMeta("tag", []byte("alpha")))
	require.True(t, sc.VLMetaExists("tag"))
}

func TestPrefilterPostfilterWiring(t *testing.T) {
	ctx := context.Background()

	var preCalls, postCalls int

	pre := func(blockIndex, typesize int, data []byte) ([]byte, error) {
		preCalls++

		return data, nil
	}
	post := func(blockIndex, typesize int, data []byte) ([]byte, error) {
		postCalls++

		return data, nil
	}

	sc := New(Options{Typesize: 1, CodecID: format.CodecLZ4, Prefilter: pre, Postfilter: post})

	src := payload(70000, 9)
	_, err := sc.AppendBuffer(ctx, src)
	require.NoError(t, err)

	got, err := sc.DecompressChunk(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, src, got)

	require.Positive(t, preCalls)
	require.Positive(t, postCalls)
}
