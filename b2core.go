package b2core

import (
	"github.com/b2io/b2core/b2nd"
	"github.com/b2io/b2core/format"
	"github.com/b2io/b2core/frame"
	"github.com/b2io/b2core/schunk"
)

// NewSChunk creates a super-chunk with the given codec and filter pipeline.
//
// This is the most common entry point for working below the array layer:
// a super-chunk compresses and stores a sequence of same-typesize chunks,
// with no notion of N-D shape.
func NewSChunk(opts schunk.Options) *schunk.SChunk {
	return schunk.New(opts)
}

// DefaultSChunkOptions returns recommended settings for general-purpose
// chunked storage: LZ4 compression with byte-shuffle filtering, which
// gives good ratios on typed numeric data at minimal CPU cost.
func DefaultSChunkOptions(typesize int) schunk.Options {
	return schunk.Options{
		Typesize: typesize,
		CodecID:  format.CodecLZ4,
		Filters:  []format.FilterID{format.FilterShuffle},
	}
}

// SaveFrame serializes a super-chunk to a contiguous frame file.
func SaveFrame(sc *schunk.SChunk, path string) error {
	return frame.ToFile(sc, path)
}

// OpenFrame reads a contiguous frame file back into a super-chunk.
func OpenFrame(path string) (*schunk.SChunk, error) {
	return frame.OpenFile(path)
}

// NewArray creates an empty N-D array backed by a fresh super-chunk.
func NewArray(opts b2nd.Options) (*b2nd.Array, error) {
	return b2nd.Empty(opts)
}

// SaveArray persists an N-D array as a contiguous frame, including its
// shape metadata.
func SaveArray(a *b2nd.Array, urlpath string) error {
	return b2nd.Save(a, urlpath)
}

// OpenArray reconstructs an N-D array from a frame previously written by
// SaveArray.
func OpenArray(urlpath string) (*b2nd.Array, error) {
	return b2nd.Open(urlpath)
}
