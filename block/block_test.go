package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/b2io/b2core/codec"
	"github.com/b2io/b2core/filter"
)

func TestSplit(t *testing.T) {
	t.Run("even split", func(t *testing.T) {
		ranges := Split(100, 25)
		require.Len(t, ranges, 4)
		require.Equal(t, Range{Start: 75, Len: 25}, ranges[3])
	})

	t.Run("remainder block", func(t *testing.T) {
		ranges := Split(105, 25)
		require.Len(t, ranges, 5)
		require.Equal(t, Range{Start: 100, Len: 5}, ranges[4])
	})

	t.Run("empty payload", func(t *testing.T) {
		require.Nil(t, Split(0, 25))
	})
}

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 13 % 250)
	}

	return b
}

func TestPipelineForwardBackwardRoundTrip(t *testing.T) {
	p := &Pipeline{
		Filters:  []filter.Filter{filter.Shuffle{}, filter.Delta{}},
		Codec:    codec.NewLZ4Codec(),
		Typesize: 8,
	}

	src := payload(4096)

	res, err := p.Forward(src, 0)
	require.NoError(t, err)

	out, err := p.Backward(res.Data, res.Raw, len(src), 0)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestPipelineByteSplitRoundTrip(t *testing.T) {
	p := &Pipeline{
		Codec:     codec.NewS2Codec(),
		Typesize:  4,
		ByteSplit: ByteSplitAlways,
	}

	src := payload(2048)

	res, err := p.Forward(src, 0)
	require.NoError(t, err)

	out, err := p.Backward(res.Data, res.Raw, len(src), 0)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestPipelineNoopRawFallback(t *testing.T) {
	p := &Pipeline{Codec: codec.NewNoopCodec(), Typesize: 1}
	src := payload(128)

	res, err := p.Forward(src, 0)
	require.NoError(t, err)
	require.True(t, res.Raw)

	out, err := p.Backward(res.Data, res.Raw, len(src), 0)
	require.NoError(t, err)
	require.Equal(t, src, out)
}
