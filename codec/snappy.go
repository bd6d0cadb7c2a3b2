package codec

import "github.com/golang/snappy"

// SnappyCodec wraps golang/snappy, retained for interoperability with
// frames produced by tools that only speak the original Snappy framing
// rather than S2's superset format.
type SnappyCodec struct{}

var _ Codec = SnappyCodec{}

// NewSnappyCodec creates a Snappy codec.
func NewSnappyCodec() SnappyCodec {
	return SnappyCodec{}
}

func (c SnappyCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return snappy.Encode(nil, data), nil
}

func (c SnappyCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return snappy.Decode(nil, data)
}
