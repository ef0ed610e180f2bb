package query

import "github.com/Hoshiningen/MonoidTalk/pkg/bakery"

// Sequential folds the whole view on the calling goroutine for every call.
// It keeps no state and is safe for concurrent use.
type Sequential struct {
	catalog *bakery.Catalog
}

// NewSequential returns a Sequential strategy over c.
// Panics if c is nil.
func NewSequential(c *bakery.Catalog) *Sequential {
	if c == nil {
		panic("catalog is nil")
	}

	return &Sequential{catalog: c}
}

func (s *Sequential) Kind() Kind { return KindSequential }

func (s *Sequential) FoodTypeExtremes(v bakery.View) (Extremes, error) {
	counts, err := fold(s.catalog, extremesOp, v.Transactions())
	if err != nil {
		return Extremes{}, opError(extremesOp.name, err)
	}

	return counts.Extremes(), nil
}

func (s *Sequential) CountOverThreshold(v bakery.View) (int, error) {
	n, err := fold(s.catalog, overThresholdOp, v.Transactions())
	if err != nil {
		return 0, opError(overThresholdOp.name, err)
	}

	return n, nil
}

func (s *Sequential) MaxPurchases(v bakery.View) (int, error) {
	n, err := fold(s.catalog, maxPurchasesOp, v.Transactions())
	if err != nil {
		return 0, opError(maxPurchasesOp.name, err)
	}

	return n, nil
}
