// Package query computes aggregate statistics over a [bakery.View].
//
// Three operations are supported by every [Strategy]:
//   - FoodTypeExtremes: least and most purchased food category
//   - CountOverThreshold: transactions whose items cost more than [PriceThreshold]
//   - MaxPurchases: the most items bought in a single transaction
//
// Each operation maps a transaction to a value of a commutative [Monoid] and
// combines the values. Because the combine step is associative and
// commutative, the three strategies return identical results for the same
// view:
//   - [Sequential] folds the whole view on the calling goroutine.
//   - [Incremental] caches the last result per operation and folds only the
//     transactions appended since the previous call.
//   - [Parallel] splits the view with [Chunk], folds each chunk on a
//     [workpool.Pool] and combines the partial results.
//
// Transactions that break the data model (more than [bakery.MaxPurchases]
// items, or an item missing from the catalog) fail the whole call with an
// error matching [bakery.ErrTooManyPurchases] or [bakery.ErrUnknownFood].
package query
