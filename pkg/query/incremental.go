package query

import (
	"fmt"

	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
)

// Incremental remembers, per operation, the last view it saw and the
// aggregate computed for it. A later call folds only the transactions
// appended since, and combines them with the cached aggregate.
//
// Every view passed to an operation must extend the previous one: same
// origin [bakery.Sequence], same or greater length. Anything else fails
// with [ErrNotPrefixExtension], because the combine step cannot be undone.
// An empty view is a prefix of every sequence, so after one the next view may
// come from any sequence, including the zero [bakery.View]'s lack of one.
// A failed call leaves the cache as it was.
//
// Incremental is not safe for concurrent use.
type Incremental struct {
	catalog  *bakery.Catalog
	extremes cached[FoodTypeCounts]
	over     cached[int]
	most     cached[int]
}

// cached is the per-operation cache entry.
type cached[T any] struct {
	op     operation[T]
	seen   bool
	origin *bakery.Sequence
	length int
	value  T
}

// NewIncremental returns an Incremental strategy over c with empty caches.
// Panics if c is nil.
func NewIncremental(c *bakery.Catalog) *Incremental {
	if c == nil {
		panic("catalog is nil")
	}

	return &Incremental{
		catalog:  c,
		extremes: cached[FoodTypeCounts]{op: extremesOp},
		over:     cached[int]{op: overThresholdOp},
		most:     cached[int]{op: maxPurchasesOp},
	}
}

func (s *Incremental) Kind() Kind { return KindIncremental }

// Reset drops every cached aggregate. The next call of each operation folds
// its whole view and may use any origin.
func (s *Incremental) Reset() {
	s.extremes.reset()
	s.over.reset()
	s.most.reset()
}

func (s *Incremental) FoodTypeExtremes(v bakery.View) (Extremes, error) {
	counts, err := s.extremes.update(s.catalog, v)
	if err != nil {
		return Extremes{}, err
	}

	return counts.Extremes(), nil
}

func (s *Incremental) CountOverThreshold(v bakery.View) (int, error) {
	return s.over.update(s.catalog, v)
}

func (s *Incremental) MaxPurchases(v bakery.View) (int, error) {
	return s.most.update(s.catalog, v)
}

// update folds the part of v not yet covered by the cache and stores the
// combined aggregate.
func (e *cached[T]) update(c *bakery.Catalog, v bakery.View) (T, error) {
	var zero T

	from := 0

	if e.seen && e.length > 0 {
		if !v.Extends(e.origin, e.length) {
			return zero, opError(e.op.name, e.mismatch(v))
		}

		from = e.length
	}

	delta, err := fold(c, e.op, v.From(from))
	if err != nil {
		return zero, opError(e.op.name, err)
	}

	value := delta
	if e.seen && e.length > 0 {
		value = e.op.monoid.Combine(e.value, delta)
	}

	e.seen = true
	e.origin = v.Origin()
	e.length = v.Len()
	e.value = value

	return value, nil
}

func (e *cached[T]) mismatch(v bakery.View) error {
	if v.Origin() != e.origin {
		return fmt.Errorf("%w: view comes from a different sequence", ErrNotPrefixExtension)
	}

	return fmt.Errorf("%w: view has %d transactions, previous call saw %d", ErrNotPrefixExtension, v.Len(), e.length)
}

func (e *cached[T]) reset() {
	var zero T

	e.seen = false
	e.origin = nil
	e.length = 0
	e.value = zero
}
