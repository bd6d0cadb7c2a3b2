package chunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/b2io/b2core/format"
	"github.com/b2io/b2core/tune"
)

// fixedTuner is a tune.Hook stub that always returns a pinned decision,
// regardless of ctx, so tests can assert Compress actually consulted it.
type fixedTuner struct {
	decision tune.Decision
}

func (f fixedTuner) Tune(tune.Context) tune.Decision { return f.decision }

func makePayload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 17 % 255)
	}

	return b
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	src := makePayload(200_000)

	cparams := DefaultCompressParams()
	cparams.Typesize = 8
	cparams.Blocksize = 16 * 1024
	cparams.CodecID = format.CodecLZ4
	cparams.FilterIDs = []format.FilterID{format.FilterShuffle}
	cparams.NThreads = 4

	out, err := Compress(context.Background(), src, cparams)
	require.NoError(t, err)

	decoded, err := Decompress(context.Background(), out, nil)
	require.NoError(t, err)
	require.Equal(t, src, decoded)
}

func TestCompressEmptyInput(t *testing.T) {
	out, err := Compress(context.Background(), nil, DefaultCompressParams())
	require.NoError(t, err)

	h, err := DecodeHeader(out)
	require.NoError(t, err)
	require.Equal(t, 0, h.NumBlocks())

	decoded, err := Decompress(context.Background(), out, nil)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestGetItemFastPath(t *testing.T) {
	src := makePayload(100_000)

	cparams := DefaultCompressParams()
	cparams.Typesize = 4
	cparams.Blocksize = 8 * 1024
	cparams.CodecID = format.CodecS2

	out, err := Compress(context.Background(), src, cparams)
	require.NoError(t, err)

	got, err := GetItem(context.Background(), out, 12_345, 2_048, nil)
	require.NoError(t, err)
	require.Equal(t, src[12_345:12_345+2_048], got)
}

func TestGetItemOutOfRange(t *testing.T) {
	src := makePayload(1000)
	out, err := Compress(context.Background(), src, DefaultCompressParams())
	require.NoError(t, err)

	_, err = GetItem(context.Background(), out, 900, 500, nil)
	require.Error(t, err)
}

func TestSpecialZeroChunk(t *testing.T) {
	out := Zeros(4096, 8)

	decoded, err := Decompress(context.Background(), out, nil)
	require.NoError(t, err)
	require.Len(t, decoded, 4096)

	for _, b := range decoded {
		require.Equal(t, byte(0), b)
	}
}

func TestSpecialRepeatChunk(t *testing.T) {
	value := []byte{1, 2, 3, 4}
	out, err := RepeatValue(4096, 4, value)
	require.NoError(t, err)

	decoded, err := Decompress(context.Background(), out, nil)
	require.NoError(t, err)
	require.Len(t, decoded, 4096)
	require.Equal(t, value, decoded[:4])
	require.Equal(t, value, decoded[4092:])
}

func TestSpecialNaNChunk(t *testing.T) {
	out, err := NaNs(16, 8)
	require.NoError(t, err)

	decoded, err := Decompress(context.Background(), out, nil)
	require.NoError(t, err)
	require.Len(t, decoded, 16)
}

func TestDetectSpecialOnCompress(t *testing.T) {
	src := make([]byte, 4096)

	cparams := DefaultCompressParams()
	cparams.Typesize = 8
	cparams.DetectSpecial = true

	out, err := Compress(context.Background(), src, cparams)
	require.NoError(t, err)

	h, err := DecodeHeader(out)
	require.NoError(t, err)
	require.Equal(t, format.SpecialZero, h.Special)
	require.Equal(t, HeaderSize, len(out))
}

func TestTunerFillsUnsetBlocksizeAndFilters(t *testing.T) {
	src := makePayload(100_000)

	cparams := DefaultCompressParams()
	cparams.Typesize = 8
	cparams.NThreads = 2
	cparams.Tuner = fixedTuner{decision: tune.Decision{
		Blocksize: 8 * 1024,
		CodecID:   format.CodecLZ4,
		FilterIDs: []format.FilterID{format.FilterShuffle},
	}}

	out, err := Compress(context.Background(), src, cparams)
	require.NoError(t, err)

	h, err := DecodeHeader(out)
	require.NoError(t, err)
	require.EqualValues(t, 8*1024, h.Blocksize)
	require.Equal(t, format.FilterShuffle, h.FilterIDs[0])

	decoded, err := Decompress(context.Background(), out, nil)
	require.NoError(t, err)
	require.Equal(t, src, decoded)
}

func TestExplicitBlocksizeOverridesTuner(t *testing.T) {
	src := makePayload(50_000)

	cparams := DefaultCompressParams()
	cparams.Typesize = 4
	cparams.Blocksize = 4096
	cparams.Tuner = fixedTuner{decision: tune.Decision{Blocksize: 64 * 1024, CodecID: format.CodecLZ4}}

	out, err := Compress(context.Background(), src, cparams)
	require.NoError(t, err)

	h, err := DecodeHeader(out)
	require.NoError(t, err)
	require.EqualValues(t, 4096, h.Blocksize)
}

func TestTrainDictionary(t *testing.T) {
	samples := [][]byte{makePayload(1000), makePayload(2000), makePayload(500)}

	dict, err := TrainDictionary(samples)
	require.NoError(t, err)
	require.NotEmpty(t, dict.Bytes)
	require.LessOrEqual(t, len(dict.Bytes), MaxDictionarySize)
}

func TestCorruptChunkDetection(t *testing.T) {
	src := makePayload(10_000)
	out, err := Compress(context.Background(), src, DefaultCompressParams())
	require.NoError(t, err)

	corrupt := append([]byte(nil), out...)
	corrupt = corrupt[:len(corrupt)-1] // truncate: declared cbytes no longer matches

	_, err = Decompress(context.Background(), corrupt, nil)
	require.Error(t, err)
}
