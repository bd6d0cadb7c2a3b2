// Package worker implements the per-chunk-operation worker pool that
// parallelizes the block pipeline across blocks within one chunk compress
// or decompress call.
//
// Each Run call starts up to nthreads goroutines (never more than the block
// count), coordinated with golang.org/x/sync/errgroup; they exit before Run
// returns, and each allocates its scratch slab when it starts. Blocks are claimed from a shared counter
// rather than pre-partitioned, so a pool with slower and faster blocks
// (e.g. a short last block) keeps every worker busy until the job is done.
package worker

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Job is one block's worth of work: given a block index, do the filter+codec
// (or inverse) pipeline for that block and report success or failure. The
// scratch slab is owned by the calling worker and reused across every block
// that worker claims, so Job must not retain it past return.
type Job func(blockIndex int, scratch []byte) error

// Pool runs a Job across nblocks blocks using nthreads workers, each with
// its own scratch slab of slabSize bytes (sized by the caller to
// blocksize*2, per the block pipeline's double-buffering needs).
//
// Pool is not safe for concurrent Run calls; the chunk layer creates one
// Pool per compress/decompress context and does not share it across
// concurrent chunk operations.
type Pool struct {
	nthreads int
	slabSize int
}

// New creates a Pool with nthreads workers. nthreads <= 0 is normalized to 1
// (sequential execution, still through the same Run path).
func New(nthreads, slabSize int) *Pool {
	if nthreads <= 0 {
		nthreads = 1
	}

	return &Pool{nthreads: nthreads, slabSize: slabSize}
}

// Run executes job for every block index in [0, nblocks), claimed by
// workers from a shared counter (no fixed partitioning, no ordering
// guarantee between block completions).
//
// Cancellation semantics: the first job to return a non-nil error flips a
// shared flag. Workers that are mid-block finish that block (drain, not
// abandon — so a worker never leaves a partially-written scratch slab or a
// partially-applied filter) but do not claim further blocks. Run returns
// the first non-nil error observed, or nil if every block succeeded.
func (p *Pool) Run(ctx context.Context, nblocks int, job Job) error {
	if nblocks <= 0 {
		return nil
	}

	var next atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	workers := p.nthreads
	if workers > nblocks {
		workers = nblocks
	}

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			scratch := make([]byte, p.slabSize)

			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				idx := int(next.Add(1)) - 1
				if idx >= nblocks {
					return nil
				}

				if err := job(idx, scratch); err != nil {
					return err
				}
			}
		})
	}

	return g.Wait()
}

// NumThreads returns the pool's configured worker count.
func (p *Pool) NumThreads() int {
	return p.nthreads
}
