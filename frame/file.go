package frame

import (
	"os"

	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/schunk"
)

// ToFile writes sc as a contiguous frame to path, truncating any existing
// content.
func ToFile(sc *schunk.SChunk, path string) error {
	buf, err := ToBuffer(sc)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return errs.NewIOError("write", err)
	}

	return nil
}

// OpenFile reads path whole and parses it as a contiguous frame.
//
// Open-by-offset (reading a frame embedded at a non-zero offset within a
// larger file, e.g. multiple frames concatenated) is supported by
// OpenFileAt.
func OpenFile(path string) (*schunk.SChunk, error) {
	return OpenFileAt(path, 0)
}

// OpenFileAt reads path whole and parses the frame beginning at byte
// offset off.
func OpenFileAt(path string, off int) (*schunk.SChunk, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewIOError("read", err)
	}

	return OpenAt(buf, off)
}

// ToBackend writes sc as a contiguous frame through a Backend, for callers
// that already manage the backend's lifecycle themselves rather than going
// through a path string. It first calls Truncate to size the backend to the
// frame length, so it fails for MmapBackend, whose Truncate always returns
// ErrNotImplemented.
func ToBackend(sc *schunk.SChunk, b Backend) error {
	buf, err := ToBuffer(sc)
	if err != nil {
		return err
	}

	if err := b.Truncate(int64(len(buf))); err != nil {
		return err
	}

	if _, err := b.WriteAt(buf, 0); err != nil {
		return err
	}

	return nil
}

// FromBackend reads a whole contiguous frame from b and parses it.
func FromBackend(b Backend) (*schunk.SChunk, error) {
	size, err := b.Size()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	if _, err := b.ReadAt(buf, 0); err != nil {
		return nil, err
	}

	return FromBuffer(buf)
}
