// Package codec implements the entropy-coder plugins that the block pipeline
// (package block) invokes for each block's compress/decompress step.
//
// A codec operates on one block at a time: it receives the (possibly
// filtered) block bytes and returns either a compressed representation, or
// an error. The result may be no smaller than the input; the block pipeline
// then stores the block raw. Codecs never see the chunk header,
// the filter pipeline, or block boundaries beyond the single block handed
// to them — that bookkeeping lives in package chunk and package block.
package codec

import (
	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
)

// Compressor compresses one block's bytes.
type Compressor interface {
	// Compress compresses data and returns the compressed result. The input
	// is never modified; the returned slice may alias it (NoopCodec).
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses one block's bytes.
type Decompressor interface {
	// Decompress decompresses data and returns the original bytes. The input
	// is never modified; the returned slice may alias it (NoopCodec).
	Decompress(data []byte) ([]byte, error)
}

// Codec combines compression and decompression for one entropy coder.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CodecID]Codec{
	format.CodecNoop:    NewNoopCodec(),
	format.CodecLZ4:     NewLZ4Codec(),
	format.CodecS2:      NewS2Codec(),
	format.CodecZstd:    NewZstdCodec(),
	format.CodecSnappy:  NewSnappyCodec(),
	format.CodecDeflate: NewDeflateCodec(),
}

// Lookup returns the built-in codec registered under id, or
// UnknownCodecError if id names no built-in codec.
//
// The chunk layer resolves every codec id through Lookup alone, so a codec
// registered only in package registry (ids at or above format.UserIDMin)
// is not used for chunk compression or decompression: Lookup returns
// UnknownCodecError for its id.
func Lookup(id format.CodecID) (Codec, error) {
	c, ok := builtinCodecs[id]
	if !ok {
		return nil, errs.NewUnknownCodecID(uint8(id))
	}

	return c, nil
}
