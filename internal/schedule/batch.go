package schedule

import (
	"context"
	"time"
)

// DefaultChunkSize is how many items run synchronously between yields.
const DefaultChunkSize = 5

// YieldFunc hands control back to the host scheduler between chunks. An
// idle-time callback where the host has one; a short deferred callback
// otherwise.
type YieldFunc func(ctx context.Context) error

// DeferredYield is the fallback yield: a short timer tick that lets other
// work run before the next chunk.
func DeferredYield(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Millisecond):
		return nil
	}
}

// Batch partitions item processing into chunks with a yield after each.
type Batch struct {
	ChunkSize int
	Yield     YieldFunc
}

// NewBatch returns a batch runner with the default chunk size and yield.
func NewBatch() *Batch {
	return &Batch{ChunkSize: DefaultChunkSize, Yield: DeferredYield}
}

// Run applies perItem to indices 0..n-1 in chunk order, yielding after
// every chunk. Returns early with the context error if a yield is
// interrupted; items already processed stay processed.
func (b *Batch) Run(ctx context.Context, n int, perItem func(i int)) error {
	size := b.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	yield := b.Yield
	if yield == nil {
		yield = DeferredYield
	}
	for i := 0; i < n; i += size {
		end := i + size
		if end > n {
			end = n
		}
		for j := i; j < end; j++ {
			perItem(j)
		}
		if err := yield(ctx); err != nil {
			return err
		}
	}
	return nil
}
