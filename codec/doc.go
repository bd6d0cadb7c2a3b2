// Package codec provides the built-in entropy coder plugins: noop (store),
// lz4, s2, snappy, deflate, and zstd (cgo or pure-Go depending on build
// tags).
//
// # Algorithm selection
//
// | Codec    | Ratio     | Speed         | Notes                          |
// |----------|-----------|---------------|--------------------------------|
// | noop     | 1.0x      | fastest       | store mode, never fails        |
// | lz4      | moderate  | very fast     | fastest decompression          |
// | s2       | good      | fast          | Snappy-compatible superset     |
// | snappy   | moderate  | fast          | interop with plain Snappy      |
// | deflate  | good      | moderate      | stdlib-compatible DEFLATE      |
// | zstd     | best      | moderate      | default for cold/archival data |
//
// Each codec is stateless from the caller's perspective: Compress and
// Decompress may be called concurrently from multiple goroutines, which the
// block pipeline's worker pool (package internal/worker) relies on.
package codec
