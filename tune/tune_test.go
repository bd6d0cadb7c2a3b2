package tune

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/b2io/b2core/format"
)

func TestDefaultHookBlocksizeBounds(t *testing.T) {
	h := DefaultHook{}

	d := h.Tune(Context{Typesize: 1, Nbytes: 100})
	require.Equal(t, 4*1024, d.Blocksize)

	d = h.Tune(Context{Typesize: 1, Nbytes: 10 * 1024 * 1024})
	require.Equal(t, 256*1024, d.Blocksize)
}

func TestDefaultHookFiltersForMultiByteTypesize(t *testing.T) {
	h := DefaultHook{}

	d := h.Tune(Context{Typesize: 8, Nbytes: 1000, DefaultCodec: format.CodecZstd})
	require.Equal(t, []format.FilterID{format.FilterShuffle}, d.FilterIDs)
	require.Equal(t, format.CodecZstd, d.CodecID)

	d = h.Tune(Context{Typesize: 1, Nbytes: 1000})
	require.Empty(t, d.FilterIDs)
}
