package filter

import (
	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
)

// Shuffle is the classic byte-shuffle filter: given typesize-wide elements,
// it transposes the bytes so that all byte-0's come first, then all
// byte-1's, and so on. This groups bytes of similar magnitude/entropy
// together, which downstream entropy coders exploit heavily on numeric
// data with small-magnitude deltas.
type Shuffle struct{}

var _ Filter = Shuffle{}

func (Shuffle) ID() format.FilterID { return format.FilterShuffle }

// Forward transposes src into dst: dst[j*nelem+i] = src[i*typesize+j].
func (Shuffle) Forward(dst, src []byte, typesize int) ([]byte, error) {
	return shuffleTranspose(dst, src, typesize)
}

// Backward is shuffle's own inverse with src/dst roles of the transpose
// swapped: dst[i*typesize+j] = src[j*nelem+i].
func (Shuffle) Backward(dst, src []byte, typesize int) ([]byte, error) {
	return unshuffleTranspose(dst, src, typesize)
}

func shuffleTranspose(dst, src []byte, typesize int) ([]byte, error) {
	if typesize <= 0 {
		return nil, errs.ErrInvalidArgument
	}

	n := len(src)
	if n%typesize != 0 {
		return nil, errs.ErrInvalidArgument
	}

	dst = growTo(dst, n)
	nelem := n / typesize

	for j := 0; j < typesize; j++ {
		base := j * nelem
		for i := 0; i < nelem; i++ {
			dst[base+i] = src[i*typesize+j]
		}
	}

	return dst, nil
}

func unshuffleTranspose(dst, src []byte, typesize int) ([]byte, error) {
	if typesize <= 0 {
		return nil, errs.ErrInvalidArgument
	}

	n := len(src)
	if n%typesize != 0 {
		return nil, errs.ErrInvalidArgument
	}

	dst = growTo(dst, n)
	nelem := n / typesize

	for j := 0; j < typesize; j++ {
		base := j * nelem
		for i := 0; i < nelem; i++ {
			dst[i*typesize+j] = src[base+i]
		}
	}

	return dst, nil
}

func growTo(dst []byte, n int) []byte {
	if cap(dst) < n {
		return make([]byte, n)
	}

	return dst[:n]
}
