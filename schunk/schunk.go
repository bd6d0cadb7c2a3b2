// Package schunk implements the super-chunk: an ordered, mutable collection
// of chunks sharing typesize, default compression/decompression parameters,
// a filter pipeline, and a codec id, plus fixed and variable-length
// metadata layers and optional prefilter/postfilter hooks.
package schunk

import (
	"context"
	"sync"

	"github.com/b2io/b2core/block"
	"github.com/b2io/b2core/chunk"
	"github.com/b2io/b2core/errs"
	"github.com/b2io/b2core/format"
	"github.com/b2io/b2core/tune"
)

// State is the super-chunk lifecycle: empty → populated (on first append,
// which freezes fixed metadata) → sealed (imposed by Seal; the in-memory
// representation becomes read-only).
type State int

const (
	StateEmpty State = iota
	StatePopulated
	StateSealed
)

// ChunkRefKind distinguishes how a ChunkRef's bytes are reachable.
type ChunkRefKind int

const (
	// RefOwned means Bytes holds the chunk's full encoded representation
	// (header, offset table, block payloads), owned by this super-chunk.
	RefOwned ChunkRefKind = iota
	// RefOffset means the chunk lives in an owned frame at Offset, with
	// Bytes nil until faulted in.
	RefOffset
)

// ChunkRef is the tagged union the spec calls `Offset(u64) | Inline(SpecialKind, value)`:
// in this in-memory implementation every chunk (including special chunks)
// is held as RefOwned bytes, including chunks read back by package frame
// (FromParts adopts them through AppendChunk). Nothing in this module
// creates RefOffset refs.
type ChunkRef struct {
	Kind   ChunkRefKind
	Bytes  []byte
	Offset uint64
	Length uint64
}

// Prefilter and Postfilter mirror block.HookFunc at the super-chunk's public
// boundary, so callers configuring a SChunk don't need to import package
// block directly.
type (
	Prefilter  = block.HookFunc
	Postfilter = block.HookFunc
)

// SChunk is the ordered collection of chunks plus its metadata layers.
//
// Mutating operations (Append/Insert/Update/Delete/Reorder, metadata
// writes) take an exclusive lock; concurrent read-only operations
// (DecompressChunk/GetChunk/GetItem) on an unchanged SChunk are allowed
// through the same RWMutex.
type SChunk struct {
	mu sync.RWMutex

	typesize int
	codecID  format.CodecID
	filters  []format.FilterID

	cparams *chunk.CompressParams
	dparams *chunk.DecompressParams

	prefilter  Prefilter
	postfilter Postfilter

	chunks []ChunkRef

	state State

	fixedMeta map[string][]byte
	vlMeta    map[string][]byte

	totalNbytes int64
	totalCbytes int64
}

// Options configures a new SChunk.
type Options struct {
	Typesize      int
	CodecID       format.CodecID
	Filters       []format.FilterID
	NThreads      int
	Blocksize     int
	ByteSplit     block.ByteSplitMode
	DetectSpecial bool

	// Tuner, when set, is consulted once per chunk compression to pick
	// blocksize/codec/filters dynamically (see chunk.CompressParams.Tuner).
	Tuner tune.Hook

	Prefilter  Prefilter
	Postfilter Postfilter
}

// WithDeltaFilter prepends the byte-delta filter to opts' filter pipeline,
// a convenience for the common "timestamps/counters compress much better
// after a delta pass" case. It composes from the generic filter pipeline
// rather than a bespoke delta-schunk type, since the core only needs the
// filter plugin wired in, not a special-cased super-chunk variant.
func WithDeltaFilter(opts Options) Options {
	opts.Filters = append([]format.FilterID{format.FilterDelta}, opts.Filters...)

	return opts
}

// New creates an empty super-chunk in the *empty* state.
func New(opts Options) *SChunk {
	if opts.Typesize <= 0 {
		opts.Typesize = 1
	}

	if opts.NThreads <= 0 {
		opts.NThreads = 1
	}

	sc := &SChunk{
		typesize:   opts.Typesize,
		codecID:    opts.CodecID,
		filters:    opts.Filters,
		prefilter:  opts.Prefilter,
		postfilter: opts.Postfilter,
		fixedMeta:  make(map[string][]byte),
		vlMeta:     make(map[string][]byte),
	}

	sc.cparams = &chunk.CompressParams{
		Typesize:      opts.Typesize,
		Blocksize:     opts.Blocksize,
		CodecID:       opts.CodecID,
		FilterIDs:     opts.Filters,
		ByteSplit:     opts.ByteSplit,
		NThreads:      opts.NThreads,
		DetectSpecial: opts.DetectSpecial,
		Tuner:         opts.Tuner,
		PreFilter:     opts.Prefilter,
	}
	sc.dparams = &chunk.DecompressParams{
		NThreads:   opts.NThreads,
		PostFilter: opts.Postfilter,
	}

	return sc
}

// Typesize returns the super-chunk's fixed element size.
func (sc *SChunk) Typesize() int { return sc.typesize }

// NumChunks returns the current chunk count.
func (sc *SChunk) NumChunks() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	return len(sc.chunks)
}

// TotalNBytes returns the sum of every chunk's logical (decompressed) size.
func (sc *SChunk) TotalNBytes() int64 {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	return sc.totalNbytes
}

// TotalCBytes returns the sum of every chunk's compressed size.
func (sc *SChunk) TotalCBytes() int64 {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	return sc.totalCbytes
}

// State returns the super-chunk's current lifecycle state.
func (sc *SChunk) State() State {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	return sc.state
}

func (sc *SChunk) markPopulated() {
	if sc.state == StateEmpty {
		sc.state = StatePopulated
	}
}

// Seal transitions the super-chunk to the sealed state, after which every
// mutating method returns an error. Seal is the only way to seal a
// super-chunk: package frame's ToFile/ToBuffer leave it writable.
func (sc *SChunk) Seal() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.state = StateSealed
}

func (sc *SChunk) checkWritable() error {
	if sc.state == StateSealed {
		return errs.NewCorruptChunk("super-chunk is sealed and read-only")
	}

	return nil
}

// AppendBuffer compresses src into a new chunk and appends it, returning
// the new chunk count.
func (sc *SChunk) AppendBuffer(ctx context.Context, src []byte) (int, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.checkWritable(); err != nil {
		return 0, err
	}

	encoded, err := chunk.Compress(ctx, src, sc.cparams)
	if err != nil {
		return 0, err
	}

	sc.markPopulated()
	sc.chunks = append(sc.chunks, ChunkRef{Kind: RefOwned, Bytes: encoded})
	sc.totalNbytes += int64(len(src))
	sc.totalCbytes += int64(len(encoded))

	return len(sc.chunks), nil
}

// AppendChunk adopts an already-encoded chunk (as produced by package
// chunk's Compress, or a special-chunk constructor) without re-encoding.
// When copyBytes is true, the bytes are copied rather than aliased.
func (sc *SChunk) AppendChunk(encoded []byte, copyBytes bool) (int, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.checkWritable(); err != nil {
		return 0, err
	}

	b := encoded
	if copyBytes {
		b = append([]byte(nil), encoded...)
	}

	h, err := chunk.DecodeHeader(b)
	if err != nil {
		return 0, err
	}

	sc.markPopulated()
	sc.chunks = append(sc.chunks, ChunkRef{Kind: RefOwned, Bytes: b})
	sc.totalNbytes += int64(h.Nbytes)
	sc.totalCbytes += int64(len(b))

	return len(sc.chunks), nil
}

// InsertBuffer compresses src into a new chunk and inserts it at position i
// (i in [0, NumChunks()]), shifting later chunks up by one.
func (sc *SChunk) InsertBuffer(ctx context.Context, i int, src []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.checkWritable(); err != nil {
		return err
	}

	if i < 0 || i > len(sc.chunks) {
		return errs.ErrOutOfRange
	}

	encoded, err := chunk.Compress(ctx, src, sc.cparams)
	if err != nil {
		return err
	}

	sc.markPopulated()
	sc.chunks = append(sc.chunks, ChunkRef{})
	copy(sc.chunks[i+1:], sc.chunks[i:])
	sc.chunks[i] = ChunkRef{Kind: RefOwned, Bytes: encoded}

	sc.totalNbytes += int64(len(src))
	sc.totalCbytes += int64(len(encoded))

	return nil
}

// UpdateBuffer re-compresses src and replaces chunk i in place.
func (sc *SChunk) UpdateBuffer(ctx context.Context, i int, src []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.checkWritable(); err != nil {
		return err
	}

	if i < 0 || i >= len(sc.chunks) {
		return errs.ErrOutOfRange
	}

	encoded, err := chunk.Compress(ctx, src, sc.cparams)
	if err != nil {
		return err
	}

	old := sc.chunks[i]
	if old.Kind == RefOwned {
		sc.totalNbytes -= int64(len(decodedNbytesOf(old.Bytes)))
		sc.totalCbytes -= int64(len(old.Bytes))
	}

	sc.chunks[i] = ChunkRef{Kind: RefOwned, Bytes: encoded}
	sc.totalNbytes += int64(len(src))
	sc.totalCbytes += int64(len(encoded))

	return nil
}

func decodedNbytesOf(encoded []byte) []byte {
	h, err := chunk.DecodeHeader(encoded)
	if err != nil {
		return nil
	}

	return make([]byte, h.Nbytes)
}

// DeleteChunk logically removes chunk i. In this in-memory implementation
// the backing bytes are released immediately (no frame compaction needed,
// unlike the contiguous on-disk case the spec describes).
func (sc *SChunk) DeleteChunk(i int) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.checkWritable(); err != nil {
		return err
	}

	if i < 0 || i >= len(sc.chunks) {
		return errs.ErrOutOfRange
	}

	removed := sc.chunks[i]
	if removed.Kind == RefOwned {
		h, err := chunk.DecodeHeader(removed.Bytes)
		if err == nil {
			sc.totalNbytes -= int64(h.Nbytes)
		}

		sc.totalCbytes -= int64(len(removed.Bytes))
	}

	sc.chunks = append(sc.chunks[:i], sc.chunks[i+1:]...)

	return nil
}

// ReorderOffsets replaces the chunk order with old[perm[k]] for each k,
// failing with ErrInvalidPermutation if perm is not a permutation of
// [0, NumChunks()).
func (sc *SChunk) ReorderOffsets(perm []int) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.checkWritable(); err != nil {
		return err
	}

	n := len(sc.chunks)
	if len(perm) != n {
		return errs.ErrInvalidPermutation
	}

	seen := make([]bool, n)

	for _, p := range perm {
		if p < 0 || p >= n || seen[p] {
			return errs.ErrInvalidPermutation
		}

		seen[p] = true
	}

	reordered := make([]ChunkRef, n)
	for k, p := range perm {
		reordered[k] = sc.chunks[p]
	}

	sc.chunks = reordered

	return nil
}

// GetChunk returns chunk i's encoded bytes (header + offset table +
// payload) without decompressing it.
func (sc *SChunk) GetChunk(i int) ([]byte, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	if i < 0 || i >= len(sc.chunks) {
		return nil, errs.ErrOutOfRange
	}

	return sc.chunks[i].Bytes, nil
}

// DecompressChunk fully decodes chunk i's logical payload.
func (sc *SChunk) DecompressChunk(ctx context.Context, i int) ([]byte, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	if i < 0 || i >= len(sc.chunks) {
		return nil, errs.ErrOutOfRange
	}

	return chunk.Decompress(ctx, sc.chunks[i].Bytes, sc.dparams)
}

// GetItem decodes only the requested byte range of chunk i (the §4.2
// getitem fast path).
func (sc *SChunk) GetItem(ctx context.Context, i, nstart, nitems int) ([]byte, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	if i < 0 || i >= len(sc.chunks) {
		return nil, errs.ErrOutOfRange
	}

	return chunk.GetItem(ctx, sc.chunks[i].Bytes, nstart, nitems, sc.dparams)
}

// CodecID returns the super-chunk's default codec id.
func (sc *SChunk) CodecID() format.CodecID { return sc.codecID }

// FilterIDs returns the super-chunk's ordered filter pipeline.
func (sc *SChunk) FilterIDs() []format.FilterID { return sc.filters }

// ChunkBytes returns every chunk's encoded bytes in order, for package
// frame's serializer. The returned slices alias this super-chunk's storage
// and must not be retained past the next mutating call.
func (sc *SChunk) ChunkBytes() [][]byte {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	out := make([][]byte, len(sc.chunks))
	for i, c := range sc.chunks {
		out[i] = c.Bytes
	}

	return out
}

// FixedMeta returns a copy of every fixed metadata layer, name to content.
func (sc *SChunk) FixedMeta() map[string][]byte {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	out := make(map[string][]byte, len(sc.fixedMeta))
	for k, v := range sc.fixedMeta {
		out[k] = append([]byte(nil), v...)
	}

	return out
}

// VLMeta returns a copy of every variable-length metadata entry, name to
// content.
func (sc *SChunk) VLMeta() map[string][]byte {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	out := make(map[string][]byte, len(sc.vlMeta))
	for k, v := range sc.vlMeta {
		out[k] = append([]byte(nil), v...)
	}

	return out
}

// FromParts reconstructs a super-chunk from a frame reader's parsed pieces:
// used by package frame's Open/FromBuffer. chunkBytes are adopted without
// re-encoding; fixedMeta/vlMeta are adopted as given. copyBytes controls
// whether each chunk's bytes are deep-copied into the new super-chunk's own
// storage or aliased directly: frame readers pass false since chunkBytes
// already alias a buffer the caller owns and won't mutate, while b2nd's
// concatenate fast path passes true to fully detach the new array's
// super-chunk from the live one it's splicing chunks out of.
func FromParts(typesize int, codecID format.CodecID, filters []format.FilterID, nthreads int, chunkBytes [][]byte, fixedMeta, vlMeta map[string][]byte, copyBytes bool) (*SChunk, error) {
	sc := New(Options{Typesize: typesize, CodecID: codecID, Filters: filters, NThreads: nthreads})

	for _, b := range chunkBytes {
		if _, err := sc.AppendChunk(b, copyBytes); err != nil {
			return nil, err
		}
	}

	sc.mu.Lock()
	for k, v := range fixedMeta {
		sc.fixedMeta[k] = v
	}

	for k, v := range vlMeta {
		sc.vlMeta[k] = v
	}
	sc.mu.Unlock()

	return sc, nil
}
