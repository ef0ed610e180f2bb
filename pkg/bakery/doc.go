// Package bakery holds the sales data model queried by package query.
//
// The main types are:
//   - [FoodItem]: an immutable menu entry (id, name, category, price)
//   - [Catalog]: the immutable id → [FoodItem] mapping, built once
//   - [Transaction]: one sale, with at most [MaxPurchases] purchased items
//   - [Sequence]: the append-only, creation-ordered list of transactions
//   - [View]: a read-only [0,k) prefix of a [Sequence]
//
// Catalogs and transactions are values that never change after construction,
// so any number of goroutines may read them without locking.
//
// Example:
//
//	catalog := bakery.DefaultCatalog()
//	seq := bakery.NewSequence(bakery.Generate(catalog, 1000, 777))
//
//	view, err := seq.View(100)
//	if err != nil {
//	    return err
//	}
package bakery
