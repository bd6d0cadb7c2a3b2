package b2nd

import (
	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/frame"
	"github.com/b2io/b2core/schunk"
)

// Save writes the array to urlpath as a contiguous frame.
func Save(a *Array, urlpath string) error {
	if err := a.writeMetaLayer(); err != nil {
		return err
	}

	return frame.ToFile(a.sc, urlpath)
}

// Open reads a contiguous frame back from urlpath and reconstructs its
// Array view from the frame's "b2nd" fixed metadata layer.
func Open(urlpath string) (*Array, error) {
	sc, err := frame.OpenFile(urlpath)
	if err != nil {
		return nil, err
	}

	return fromSChunk(sc)
}

// ToCFrame serializes the array to a contiguous in-memory frame buffer.
func ToCFrame(a *Array) ([]byte, error) {
	if err := a.writeMetaLayer(); err != nil {
		return nil, err
	}

	return frame.ToBuffer(a.sc)
}

// FromCFrame parses a contiguous frame buffer into an Array.
func FromCFrame(buf []byte) (*Array, error) {
	sc, err := frame.FromBuffer(buf)
	if err != nil {
		return nil, err
	}

	return fromSChunk(sc)
}

func fromSChunk(sc *schunk.SChunk) (*Array, error) {
	b, err := sc.GetMeta(metaLayerName)
	if err != nil {
		return nil, errs.NewCorruptFrame("frame has no b2nd metadata layer")
	}

	m, err := decodeMeta(b)
	if err != nil {
		return nil, err
	}

	a := &Array{
		ndim:       int(m.NDim),
		shape:      decodeDims(m.Shape),
		chunkshape: decodeDims(m.ChunkShape),
		blockshape: decodeDims(m.BlockShape),
		itemsize:   sc.Typesize(),
		dtypeFmt:   m.DTypeFmt,
		dtypeStr:   m.DTypeStr,
		sc:         sc,
	}
	a.recomputeChunksPerAxis()

	return a, nil
}
