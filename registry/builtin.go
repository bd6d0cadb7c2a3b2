package registry

import (
	"github.com/b2io/b2core/codec"
	"github.com/b2io/b2core/filter"
	"github.com/b2io/b2core/format"
	"github.com/b2io/b2core/tune"
)

// IOBackend is the minimal shape package frame's stdio and mmap backends
// implement; kept here (rather than imported from frame) to avoid a
// registry→frame→registry import cycle.
type IOBackend interface {
	Name() string
}

// Codecs, Filters, Tunes, and IO are the package-level registries. The block
// pipeline and chunk layer do not consult them (they resolve built-in ids
// through codec.Lookup and filter.Lookup); frame only registers its
// backend names in IO. They come
// pre-populated with this module's built-in plugins at ids below
// format.BuiltinIDMax; RegisterCodec et al. add user plugins at or above
// format.UserIDMin.
var (
	Codecs  = New[codec.Codec]()
	Filters = New[filter.Filter]()
	Tunes   = New[tune.Hook]()
	IO      = New[IOBackend]()
)

// DefaultTuneID is the id under which tune.DefaultHook is registered; callers
// wiring a Tuner from the registry by name use "default" to get it back.
const DefaultTuneID uint8 = 0

func init() {
	mustRegisterCodec(format.CodecNoop, "noop", codec.NewNoopCodec())
	mustRegisterCodec(format.CodecLZ4, "lz4", codec.NewLZ4Codec())
	mustRegisterCodec(format.CodecS2, "s2", codec.NewS2Codec())
	mustRegisterCodec(format.CodecZstd, "zstd", codec.NewZstdCodec())
	mustRegisterCodec(format.CodecSnappy, "snappy", codec.NewSnappyCodec())
	mustRegisterCodec(format.CodecDeflate, "deflate", codec.NewDeflateCodec())

	mustRegisterFilter(format.FilterShuffle, "shuffle", filter.Shuffle{})
	mustRegisterFilter(format.FilterBitShuffle, "bitshuffle", filter.BitShuffle{})
	mustRegisterFilter(format.FilterDelta, "delta", filter.Delta{})
	mustRegisterFilter(format.FilterTrunc, "trunc", filter.Trunc{Precision: filter.DefaultTruncPrecision})

	mustRegisterTune(DefaultTuneID, "default", tune.DefaultHook{})
}

func mustRegisterCodec(id format.CodecID, name string, c codec.Codec) {
	if err := Codecs.Register(Entry[codec.Codec]{ID: uint8(id), Name: name, Version: 1, Value: c}); err != nil {
		panic(err)
	}
}

func mustRegisterFilter(id format.FilterID, name string, f filter.Filter) {
	if err := Filters.Register(Entry[filter.Filter]{ID: uint8(id), Name: name, Version: 1, Value: f}); err != nil {
		panic(err)
	}
}

func mustRegisterTune(id uint8, name string, t tune.Hook) {
	if err := Tunes.Register(Entry[tune.Hook]{ID: id, Name: name, Version: 1, Value: t}); err != nil {
		panic(err)
	}
}

// RegisterCodec registers a user codec plugin at a dynamic id (>=
// format.UserIDMin).
func RegisterCodec(id format.CodecID, name string, c codec.Codec) error {
	return Codecs.Register(Entry[codec.Codec]{ID: uint8(id), Name: name, Version: 1, Value: c})
}

// RegisterFilter registers a user filter plugin at a dynamic id (>=
// format.UserIDMin).
func RegisterFilter(id format.FilterID, name string, f filter.Filter) error {
	return Filters.Register(Entry[filter.Filter]{ID: uint8(id), Name: name, Version: 1, Value: f})
}

// RegisterIO registers a user I/O backend plugin.
func RegisterIO(id uint8, name string, backend IOBackend) error {
	return IO.Register(Entry[IOBackend]{ID: id, Name: name, Version: 1, Value: backend})
}

// RegisterTune registers a user tune hook plugin at a dynamic id (>=
// format.UserIDMin), letting callers look it up by name (Tunes.LookupByName)
// and pass the Hook as schunk.Options.Tuner or chunk.CompressParams.Tuner
// without importing the implementation package.
func RegisterTune(id uint8, name string, t tune.Hook) error {
	return Tunes.Register(Entry[tune.Hook]{ID: id, Name: name, Version: 1, Value: t})
}
