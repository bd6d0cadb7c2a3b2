package codec

// ZstdCodec wraps Zstandard, the default high-ratio codec for cold chunks
// (metadata layers, archival super-chunks). Its Compress/Decompress methods
// live in zstd_cgo.go (built only under the nobuild tag, backed by
// valyala/gozstd) and zstd_pure.go (every other build, backed by
// klauspost/compress/zstd), so the same public type works whether or not
// cgo is enabled.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

// NewZstdCodec creates a Zstd codec with default settings.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
