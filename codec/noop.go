package codec

// NoopCodec is the identity codec: compress and decompress both return the
// input unchanged. It backs format.CodecNoop, the chunk pipeline's "store"
// mode, selected when compression is deliberately disabled. Incompressible
// blocks under other codecs are stored via the block pipeline's raw flag
// instead.
type NoopCodec struct{}

var _ Codec = NoopCodec{}

// NewNoopCodec creates a no-operation codec.
func NewNoopCodec() NoopCodec {
	return NoopCodec{}
}

func (c NoopCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (c NoopCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
