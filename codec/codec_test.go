package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/b2io/b2core/format"
)

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7 % 251)
	}

	return b
}

func TestBuiltinCodecsRoundTrip(t *testing.T) {
	codecs := map[string]Codec{
		"noop":    NewNoopCodec(),
		"lz4":     NewLZ4Codec(),
		"s2":      NewS2Codec(),
		"snappy":  NewSnappyCodec(),
		"deflate": NewDeflateCodec(),
	}

	sizes := []int{0, 1, 17, 4096, 65536}

	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			for _, n := range sizes {
				src := payload(n)

				compressed, err := c.Compress(src)
				require.NoError(t, err)

				decompressed, err := c.Decompress(compressed)
				require.NoError(t, err)
				require.Equal(t, src, decompressed)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	t.Run("known id", func(t *testing.T) {
		c, err := Lookup(format.CodecLZ4)
		require.NoError(t, err)
		require.NotNil(t, c)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := Lookup(format.CodecID(200))
		require.Error(t, err)
	})
}
