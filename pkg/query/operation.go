package query

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
)

// PriceThreshold is the exclusive lower bound used by CountOverThreshold:
// a transaction counts when its items cost strictly more than this.
var PriceThreshold = decimal.NewFromInt(15)

// operation pairs a per-transaction map with the monoid that reduces it.
type operation[T any] struct {
	name   string
	monoid Monoid[T]
	mapTxn func(c *bakery.Catalog, t bakery.Transaction) (T, error)
}

var (
	extremesOp = operation[FoodTypeCounts]{
		name:   "food-type-extremes",
		monoid: CountsMonoid,
		mapTxn: func(c *bakery.Catalog, t bakery.Transaction) (FoodTypeCounts, error) {
			var counts FoodTypeCounts

			err := eachItem(c, t, func(item bakery.FoodItem) {
				counts[item.Type]++
			})

			return counts, err
		},
	}

	overThresholdOp = operation[int]{
		name:   "count-over-threshold",
		monoid: SumMonoid,
		mapTxn: func(c *bakery.Catalog, t bakery.Transaction) (int, error) {
			total := decimal.Zero

			err := eachItem(c, t, func(item bakery.FoodItem) {
				total = total.Add(item.Price)
			})
			if err != nil {
				return 0, err
			}

			if total.GreaterThan(PriceThreshold) {
				return 1, nil
			}

			return 0, nil
		},
	}

	maxPurchasesOp = operation[int]{
		name:   "max-purchases",
		monoid: MaxMonoid,
		mapTxn: func(c *bakery.Catalog, t bakery.Transaction) (int, error) {
			err := eachItem(c, t, func(bakery.FoodItem) {})
			if err != nil {
				return 0, err
			}

			return t.Purchases.Len(), nil
		},
	}
)

// eachItem checks t against the data model and calls fn for every purchased
// item. Corrupt transactions are reported, never skipped.
func eachItem(c *bakery.Catalog, t bakery.Transaction, fn func(bakery.FoodItem)) error {
	err := t.Validate()
	if err != nil {
		return err
	}

	for id := range t.Purchases.All() {
		item, err := c.Lookup(id)
		if err != nil {
			return &bakery.TransactionError{OrderNumber: t.OrderNumber, Err: err}
		}

		fn(item)
	}

	return nil
}

// fold maps and reduces txns in one pass, keeping only the running aggregate.
func fold[T any](c *bakery.Catalog, op operation[T], txns []bakery.Transaction) (T, error) {
	acc := op.monoid.Identity

	for _, t := range txns {
		v, err := op.mapTxn(c, t)
		if err != nil {
			var zero T

			return zero, err
		}

		acc = op.monoid.Combine(acc, v)
	}

	return acc, nil
}

func opError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
