package query

import (
	"fmt"
	"strings"

	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
	"github.com/Hoshiningen/MonoidTalk/pkg/workpool"
)

// Strategy answers the three aggregate queries for a view.
//
// Implementations are [Sequential], [Incremental] and [Parallel]; the set is
// closed and chosen once with [New]. For the same view all three return the
// same results.
type Strategy interface {
	// Kind identifies the implementation.
	Kind() Kind

	// FoodTypeExtremes returns the least and most purchased categories.
	FoodTypeExtremes(v bakery.View) (Extremes, error)

	// CountOverThreshold returns how many transactions cost more than
	// [PriceThreshold].
	CountOverThreshold(v bakery.View) (int, error)

	// MaxPurchases returns the largest number of items on one transaction,
	// or 0 for an empty view.
	MaxPurchases(v bakery.View) (int, error)
}

// Kind names a [Strategy] implementation.
type Kind string

// Strategy kinds.
const (
	KindSequential  Kind = "sequential"
	KindIncremental Kind = "incremental"
	KindParallel    Kind = "parallel"
)

// Kinds returns every strategy kind.
func Kinds() []Kind {
	return []Kind{KindSequential, KindIncremental, KindParallel}
}

// ParseKind parses a strategy name (case-insensitive).
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))

	switch k {
	case KindSequential, KindIncremental, KindParallel:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q (want sequential, incremental or parallel)", ErrUnknownStrategy, name)
	}
}

// New builds the strategy of the given kind. pool is only used by
// [KindParallel] and may be nil for the others.
func New(kind Kind, c *bakery.Catalog, pool *workpool.Pool) (Strategy, error) {
	switch kind {
	case KindSequential:
		return NewSequential(c), nil
	case KindIncremental:
		return NewIncremental(c), nil
	case KindParallel:
		if pool == nil {
			return nil, ErrPoolRequired
		}

		return NewParallel(c, pool, 0), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(kind))
	}
}

// Results bundles the answers to all three queries.
type Results struct {
	Extremes      Extremes
	OverThreshold int
	MaxPurchases  int
}

func (r Results) String() string {
	return fmt.Sprintf("least=%s most=%s over_threshold=%d max_purchases=%d",
		r.Extremes.Least, r.Extremes.Most, r.OverThreshold, r.MaxPurchases)
}

// Run answers all three queries for v with s.
func Run(s Strategy, v bakery.View) (Results, error) {
	extremes, err := s.FoodTypeExtremes(v)
	if err != nil {
		return Results{}, err
	}

	over, err := s.CountOverThreshold(v)
	if err != nil {
		return Results{}, err
	}

	most, err := s.MaxPurchases(v)
	if err != nil {
		return Results{}, err
	}

	return Results{Extremes: extremes, OverThreshold: over, MaxPurchases: most}, nil
}

// Compare runs every strategy on v and checks that they agree. It returns
// the shared results, or an error matching [ErrStrategyMismatch] naming the
// first strategy that disagrees with the first one.
func Compare(v bakery.View, strategies ...Strategy) (Results, error) {
	var want Results

	for i, s := range strategies {
		got, err := Run(s, v)
		if err != nil {
			return Results{}, fmt.Errorf("%s: %w", s.Kind(), err)
		}

		if i == 0 {
			want = got

			continue
		}

		if got != want {
			return Results{}, fmt.Errorf("%w: %s returned {%s}, %s returned {%s}",
				ErrStrategyMismatch, strategies[0].Kind(), want, s.Kind(), got)
		}
	}

	return want, nil
}
