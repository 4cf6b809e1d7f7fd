// Package batch applies an asynchronous transformation to an ordered slice of
// items with bounded concurrency. Items are partitioned into consecutive
// batches that run strictly one after another; within a batch every
// transformation is launched before any result is awaited, so at most one
// batch's worth of work is in flight at any instant. Results always come back
// in input order, regardless of which transformation finished first.
package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultSize is the batch size used by Process when the caller has no
// particular bound in mind.
const DefaultSize = 5

// ErrInvalidBatchSize is returned when a batch size smaller than 1 is
// requested. A non-positive size would either hang or silently produce zero
// batches, so it is rejected up front.
var ErrInvalidBatchSize = errors.New("batch size must be at least 1")

// Func transforms a single item into a single result. It is treated as an
// opaque capability: it may read files, call host APIs, or sleep, and it may
// fail for any item. Implementations should honor ctx cancellation if they
// block.
type Func[T, R any] func(ctx context.Context, item T) (R, error)

// Process runs transform over items in batches of DefaultSize.
// See ProcessN for the full contract.
func Process[T, R any](ctx context.Context, items []T, transform Func[T, R]) ([]R, error) {
	return ProcessN(ctx, items, transform, DefaultSize)
}

// ProcessN runs transform over items in consecutive batches of at most size
// elements. Batches execute sequentially; the transformations inside a batch
// run concurrently, all launched before any is waited on. The returned slice
// has the same length and order as items: index i holds transform(items[i]).
//
// The first transformation error aborts the whole operation: the error is
// returned unchanged, no partial results are exposed, and batches after the
// failing one never start. Transformations already running in the failing
// batch have their context canceled and are waited for before ProcessN
// returns.
//
// An empty items slice yields an empty result without invoking transform. A
// size larger than len(items) produces a single batch. A size below 1 returns
// ErrInvalidBatchSize.
func ProcessN[T, R any](ctx context.Context, items []T, transform Func[T, R], size int) ([]R, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, size)
	}

	results := make([]R, len(items))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))

		g, gCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				out, err := transform(gCtx, items[i])
				if err != nil {
					return err
				}
				// Each goroutine writes only its own slot, so no lock is
				// needed around results.
				results[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return results, nil
}
