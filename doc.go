// Package b2core is a blocked, chunked compression library and persistent
// container format, modeled on Blosc/c-blosc2.
//
// # Core Features
//
//   - Block-split chunk codec pipeline (filter pipeline + entropy coder)
//     with dedicated special chunks for all-zero, uninitialized, and
//     repeat-value payloads
//   - Super-chunks (package schunk): ordered, mutable chunk collections
//     with append/insert/update/delete/reorder and two metadata tiers
//   - Frame serialization (package frame): contiguous single-file frames
//     and sparse per-chunk directory frames, both msgpack-framed
//   - N-D array layer (package b2nd): shape/chunkshape/blockshape tiling
//     over a super-chunk, with slicing, append, concatenate, and
//     orthogonal (fancy-index) selection
//   - A worker-pool-backed block pipeline for concurrent chunk compress
//     and decompress
//
// # Package Structure
//
// This package provides convenience wrappers over the most common
// schunk/frame/b2nd operations. For fine-grained control, use those
// packages directly.
package b2core
