package filter

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeElements(typesize, nelem int) []byte {
	buf := make([]byte, typesize*nelem)
	for i := 0; i < nelem; i++ {
		for j := 0; j < typesize; j++ {
			buf[i*typesize+j] = byte((i*typesize + j) * 31 % 253)
		}
	}

	return buf
}

func TestShuffleRoundTrip(t *testing.T) {
	s := Shuffle{}
	src := makeElements(8, 64)

	shuffled, err := s.Forward(nil, src, 8)
	require.NoError(t, err)
	require.Len(t, shuffled, len(src))

	restored, err := s.Backward(nil, shuffled, 8)
	require.NoError(t, err)
	require.Equal(t, src, restored)
}

func TestBitShuffleRoundTrip(t *testing.T) {
	bs := BitShuffle{}
	src := makeElements(4, 32)

	shuffled, err := bs.Forward(nil, src, 4)
	require.NoError(t, err)

	restored, err := bs.Backward(nil, shuffled, 4)
	require.NoError(t, err)
	require.Equal(t, src, restored)
}

func TestBitShuffleRejectsNonMultipleOf8(t *testing.T) {
	bs := BitShuffle{}
	src := makeElements(4, 5)

	_, err := bs.Forward(nil, src, 4)
	require.Error(t, err)
}

func TestDeltaRoundTrip(t *testing.T) {
	d := Delta{}
	src := makeElements(4, 100)

	forward, err := d.Forward(nil, src, 4)
	require.NoError(t, err)

	restored, err := d.Backward(nil, forward, 4)
	require.NoError(t, err)
	require.Equal(t, src, restored)
}

func TestTruncZeroesLowMantissaBits(t *testing.T) {
	tr := Trunc{Precision: 10}

	src := make([]byte, 4)
	binary.LittleEndian.PutUint32(src, 0x3F8000FF) // arbitrary float32 bit pattern

	out, err := tr.Forward(nil, src, 4)
	require.NoError(t, err)

	bits := binary.LittleEndian.Uint32(out)
	require.Equal(t, uint32(0), bits&((1<<13)-1), "low 13 mantissa bits must be cleared")
}

func TestLookup(t *testing.T) {
	f, ok := Lookup(1)
	require.True(t, ok)
	require.NotNil(t, f)

	_, ok = Lookup(200)
	require.False(t, ok)
}
