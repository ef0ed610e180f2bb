package query

import (
	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
	"github.com/Hoshiningen/MonoidTalk/pkg/workpool"
)

// Parallel splits each view into partitions with [Chunk], folds every
// partition as one task on a shared [workpool.Pool], waits for all of them
// and combines the partial aggregates in partition order.
//
// Parallel holds no mutable state and is safe for concurrent use. The pool
// is borrowed, not owned: closing it is the caller's job.
type Parallel struct {
	catalog    *bakery.Catalog
	pool       *workpool.Pool
	partitions int
}

// NewParallel returns a Parallel strategy that runs on pool.
//
// partitions is the number of chunks per call; <= 0 means one per pool
// worker. It is capped at the view length, and an empty view is answered
// without touching the pool.
//
// Panics if c or pool is nil.
func NewParallel(c *bakery.Catalog, pool *workpool.Pool, partitions int) *Parallel {
	if c == nil {
		panic("catalog is nil")
	}

	if pool == nil {
		panic("pool is nil")
	}

	return &Parallel{catalog: c, pool: pool, partitions: partitions}
}

func (s *Parallel) Kind() Kind { return KindParallel }

// WithPartitions returns a copy of s that uses n partitions per call.
func (s *Parallel) WithPartitions(n int) *Parallel {
	cp := *s
	cp.partitions = n

	return &cp
}

// Partitions returns the partition count used for a view of length n.
func (s *Parallel) Partitions(n int) int {
	parts := s.partitions
	if parts <= 0 {
		parts = s.pool.Workers()
	}

	return min(parts, n)
}

func (s *Parallel) FoodTypeExtremes(v bakery.View) (Extremes, error) {
	counts, err := mapReduce(s, extremesOp, v)
	if err != nil {
		return Extremes{}, err
	}

	return counts.Extremes(), nil
}

func (s *Parallel) CountOverThreshold(v bakery.View) (int, error) {
	return mapReduce(s, overThresholdOp, v)
}

func (s *Parallel) MaxPurchases(v bakery.View) (int, error) {
	return mapReduce(s, maxPurchasesOp, v)
}

func mapReduce[T any](s *Parallel, op operation[T], v bakery.View) (T, error) {
	txns := v.Transactions()
	if len(txns) == 0 {
		return op.monoid.Identity, nil
	}

	var zero T

	chunks, err := Chunk(txns, s.Partitions(len(txns)))
	if err != nil {
		return zero, opError(op.name, err)
	}

	handles := make([]*workpool.Handle[T], len(chunks))
	for i, chunk := range chunks {
		handles[i] = workpool.Submit(s.pool, func() (T, error) {
			return fold(s.catalog, op, chunk)
		})
	}

	partials, err := workpool.WaitAll(handles)
	if err != nil {
		return zero, opError(op.name, err)
	}

	return op.monoid.Fold(partials...), nil
}
