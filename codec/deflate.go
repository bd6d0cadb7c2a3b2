package codec

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// deflateWriterPool pools flate.Writer instances, which allocate a sizable
// Huffman/LZ77 window on construction.
var deflateWriterPool = sync.Pool{
	New: func() any {
		w, _ := flate.NewWriter(io.Discard, flate.DefaultCompression)
		return w
	},
}

// DeflateCodec wraps klauspost/compress/flate, offered for the general-
// purpose compatibility case where a recipient only has a stdlib-compatible
// DEFLATE decoder available.
type DeflateCodec struct{}

var _ Codec = DeflateCodec{}

// NewDeflateCodec creates a DEFLATE codec.
func NewDeflateCodec() DeflateCodec {
	return DeflateCodec{}
}

func (c DeflateCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer

	w, _ := deflateWriterPool.Get().(*flate.Writer)
	defer deflateWriterPool.Put(w)

	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (c DeflateCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	return io.ReadAll(r)
}
