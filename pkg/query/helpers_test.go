package query_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
	"github.com/Hoshiningen/MonoidTalk/pkg/query"
	"github.com/Hoshiningen/MonoidTalk/pkg/workpool"
)

// smallCatalog has prices chosen so that ticket totals land on both sides
// of the 15.00 threshold, and exactly on it.
func smallCatalog(t *testing.T) *bakery.Catalog {
	t.Helper()

	price := decimal.RequireFromString

	c, err := bakery.NewCatalog([]bakery.FoodItem{
		{ID: 0, Name: "Plain Bagel", Type: bakery.Bagel, Price: price("2.00")},
		{ID: 1, Name: "Wedding Loaf", Type: bakery.Bread, Price: price("15.00")},
		{ID: 2, Name: "Sugar Cookie", Type: bakery.Cookie, Price: price("0.50")},
		{ID: 3, Name: "Croissant", Type: bakery.Pastry, Price: price("3.00")},
		{ID: 4, Name: "Espresso Flight", Type: bakery.Beverage, Price: price("7.50")},
		{ID: 5, Name: "Club Sandwich", Type: bakery.Sandwich, Price: price("7.50")},
		{ID: 6, Name: "Mini Bagel", Type: bakery.Bagel, Price: price("1.00")},
	})
	require.NoError(t, err)

	return c
}

// sevenTransactions is a fixed data set over smallCatalog with known answers:
// least popular pastry, most popular bagel, 2 tickets over 15.00, at most 4
// items on a ticket.
func sevenTransactions(t *testing.T) []bakery.Transaction {
	t.Helper()

	ids := [][]int{
		{0},          // 2.00
		{1},          // 15.00, not over
		{1, 2},       // 15.50
		{4, 5},       // 15.00, not over
		{0, 3, 4, 5}, // 20.00
		{6, 2},       // 1.50
		{4, 6, 2},    // 9.00
	}

	txns := make([]bakery.Transaction, len(ids))

	for i, items := range ids {
		txn, err := bakery.NewTransaction(100+i, 0.15, items...)
		require.NoError(t, err)

		txns[i] = txn
	}

	return txns
}

var sevenTransactionsResults = query.Results{
	Extremes:      query.Extremes{Least: bakery.Pastry, Most: bakery.Bagel},
	OverThreshold: 2,
	MaxPurchases:  4,
}

// priceyCatalog is the default menu with loaves expensive enough that
// generated tickets regularly cross the threshold.
func priceyCatalog(t *testing.T) *bakery.Catalog {
	t.Helper()

	items := bakery.DefaultCatalog().Items()
	for i := range items {
		if items[i].Type == bakery.Bread {
			items[i].Price = decimal.RequireFromString("12.50")
		}
	}

	c, err := bakery.NewCatalog(items)
	require.NoError(t, err)

	return c
}

func generated(t *testing.T, c *bakery.Catalog, n int, seed uint64) *bakery.Sequence {
	t.Helper()

	txns, err := bakery.Generate(c, n, seed)
	require.NoError(t, err)

	return bakery.NewSequence(txns)
}

func newPool(t *testing.T, workers int) *workpool.Pool {
	t.Helper()

	pool := workpool.New(workers)
	t.Cleanup(pool.Close)

	return pool
}

func mustView(t *testing.T, seq *bakery.Sequence, n int) bakery.View {
	t.Helper()

	v, err := seq.View(n)
	require.NoError(t, err)

	return v
}
