package b2nd

import (
	"encoding/binary"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/b2io/b2core/errs"
)

// metaLayerName is the fixed metadata layer name the spec reserves for the
// N-D shape description.
const metaLayerName = "b2nd"

const metaVersion = 1

// ndMeta mirrors the spec's msgpack array: [version, ndim, shape,
// chunkshape, blockshape, dtype_format, dtype_string]. The three shape
// arrays are encoded as fixed-width little-endian int64 byte strings
// (msgpack bin, not a msgpack array of ints) rather than letting msgpack
// pick each integer's narrowest representation: a fixed metadata layer's
// byte length must stay constant across updates (it's frozen in place,
// not reallocated), and msgpack's per-value varint width would otherwise
// change as shape values grow past 127/32767/etc.
type ndMeta struct {
	_msgpack   struct{} `msgpack:",as array"`
	Version    uint8
	NDim       uint8
	Shape      []byte
	ChunkShape []byte
	BlockShape []byte
	DTypeFmt   uint8
	DTypeStr   string
}

func encodeDims(dims []int64) []byte {
	b := make([]byte, 8*len(dims))
	for i, v := range dims {
		binary.LittleEndian.PutUint64(b[i*8:i*8+8], uint64(v))
	}

	return b
}

func decodeDims(b []byte) []int64 {
	dims := make([]int64, len(b)/8)
	for i := range dims {
		dims[i] = int64(binary.LittleEndian.Uint64(b[i*8 : i*8+8]))
	}

	return dims
}

func (a *Array) encodeMeta() ([]byte, error) {
	m := ndMeta{
		Version:    metaVersion,
		NDim:       uint8(a.ndim),
		Shape:      encodeDims(a.shape),
		ChunkShape: encodeDims(a.chunkshape),
		BlockShape: encodeDims(a.blockshape),
		DTypeFmt:   a.dtypeFmt,
		DTypeStr:   a.dtypeStr,
	}

	b, err := msgpack.Marshal(&m)
	if err != nil {
		return nil, errs.NewIOError("encode b2nd metadata", err)
	}

	return b, nil
}

func decodeMeta(b []byte) (*ndMeta, error) {
	var m ndMeta
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, errs.NewCorruptFrame("malformed b2nd metadata: " + err.Error())
	}

	if m.Version != metaVersion {
		return nil, errs.NewCorruptFrame("unsupported b2nd metadata version")
	}

	return &m, nil
}

// writeMetaLayer (re)writes the array's shape description into its
// super-chunk's fixed "b2nd" metadata layer: AddMeta on first use (before
// any chunk exists), UpdateMeta afterward. Both calls encode to the same
// byte length for a fixed ndim and dtype string, satisfying the fixed
// layer's same-length requirement across the array's lifetime.
func (a *Array) writeMetaLayer() error {
	b, err := a.encodeMeta()
	if err != nil {
		return err
	}

	if err := a.sc.AddMeta(metaLayerName, b); err != nil {
		return a.sc.UpdateMeta(metaLayerName, b)
	}

	return nil
}
