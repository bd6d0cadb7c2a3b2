package filter

import (
	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
)

// Delta replaces each typesize-wide element with its byte-wise difference
// from the previous element (the first element is stored as-is). It exposes
// redundancy in slowly-varying numeric sequences without assuming any
// particular numeric type, operating purely on raw bytes.
type Delta struct{}

var _ Filter = Delta{}

func (Delta) ID() format.FilterID { return format.FilterDelta }

func (Delta) Forward(dst, src []byte, typesize int) ([]byte, error) {
	if typesize <= 0 || len(src)%typesize != 0 {
		return nil, errs.ErrInvalidArgument
	}

	dst = growTo(dst, len(src))
	copy(dst[:typesize], src[:typesize])

	for i := typesize; i < len(src); i += typesize {
		for j := 0; j < typesize; j++ {
			dst[i+j] = src[i+j] - src[i+j-typesize]
		}
	}

	return dst, nil
}

func (Delta) Backward(dst, src []byte, typesize int) ([]byte, error) {
	if typesize <= 0 || len(src)%typesize != 0 {
		return nil, errs.ErrInvalidArgument
	}

	dst = growTo(dst, len(src))
	copy(dst[:typesize], src[:typesize])

	for i := typesize; i < len(src); i += typesize {
		for j := 0; j < typesize; j++ {
			dst[i+j] = src[i+j] + dst[i+j-typesize]
		}
	}

	return dst, nil
}
