package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
)

func TestBuiltinCodecsPreRegistered(t *testing.T) {
	e, err := Codecs.LookupByID(uint8(format.CodecZstd))
	require.NoError(t, err)
	require.Equal(t, "zstd", e.Name)

	id, err := Codecs.NameToID("lz4")
	require.NoError(t, err)
	require.Equal(t, uint8(format.CodecLZ4), id)
}

func TestBuiltinFiltersPreRegistered(t *testing.T) {
	e, err := Filters.LookupByID(uint8(format.FilterShuffle))
	require.NoError(t, err)
	require.Equal(t, "shuffle", e.Name)
}

func TestRegisterDuplicateID(t *testing.T) {
	r := New[int]()
	require.NoError(t, r.Register(Entry[int]{ID: 200, Name: "a", Value: 1}))

	err := r.Register(Entry[int]{ID: 200, Name: "b", Value: 2})
	require.ErrorIs(t, err, errs.ErrDuplicateID)
}

func TestRegisterDuplicateName(t *testing.T) {
	r := New[int]()
	require.NoError(t, r.Register(Entry[int]{ID: 201, Name: "dup", Value: 1}))

	err := r.Register(Entry[int]{ID: 202, Name: "dup", Value: 2})
	require.ErrorIs(t, err, errs.ErrDuplicateName)
}

func TestLookupNotFound(t *testing.T) {
	r := New[int]()

	_, err := r.LookupByID(99)
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = r.LookupByName("missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRegisterUserCodecAtDynamicID(t *testing.T) {
	err := RegisterCodec(format.CodecID(format.UserIDMin), "my-codec", nil)
	require.NoError(t, err)
}

func TestBuiltinTunePreRegistered(t *testing.T) {
	e, err := Tunes.LookupByID(DefaultTuneID)
	require.NoError(t, err)
	require.Equal(t, "default", e.Name)
	require.NotNil(t, e.Value)

	id, err := Tunes.NameToID("default")
	require.NoError(t, err)
	require.Equal(t, DefaultTuneID, id)
}

func TestRegisterUserTuneAtDynamicID(t *testing.T) {
	err := RegisterTune(format.UserIDMin, "my-tune", nil)
	require.NoError(t, err)

	e, err := Tunes.LookupByID(format.UserIDMin)
	require.NoError(t, err)
	require.Equal(t, "my-tune", e.Name)
}
