package bakery

import (
	"fmt"
	"iter"
	"math/bits"
)

// MaxPurchases is the most distinct items a single transaction may hold.
const MaxPurchases = 4

// Purchases is a compact set of food identifiers, one bit per id in
// [0, MaxFoodID]. The zero value is the empty set.
//
// The type can physically hold more than [MaxPurchases] ids; a set that does
// is corrupt and [Transaction.Validate] rejects it.
type Purchases uint32

// PurchasesOf builds a set from ids. It fails on out-of-range ids; it does
// not enforce [MaxPurchases].
func PurchasesOf(ids ...int) (Purchases, error) {
	var p Purchases

	for _, id := range ids {
		if id < 0 || id > MaxFoodID {
			return 0, fmt.Errorf("%w: %d (max %d)", ErrFoodIDRange, id, MaxFoodID)
		}

		p |= 1 << uint(id)
	}

	return p, nil
}

// With returns p with id added. id must be in [0, MaxFoodID].
func (p Purchases) With(id int) Purchases {
	return p | 1<<uint(id)
}

// Has reports whether id is in the set.
func (p Purchases) Has(id int) bool {
	return id >= 0 && id <= MaxFoodID && p&(1<<uint(id)) != 0
}

// Len returns the number of ids in the set.
func (p Purchases) Len() int {
	return bits.OnesCount32(uint32(p))
}

// All yields the ids in ascending order.
func (p Purchases) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for rest := uint32(p); rest != 0; rest &= rest - 1 {
			if !yield(bits.TrailingZeros32(rest)) {
				return
			}
		}
	}
}

// IDs returns the ids in ascending order.
func (p Purchases) IDs() []int {
	ids := make([]int, 0, p.Len())
	for id := range p.All() {
		ids = append(ids, id)
	}

	return ids
}

// Transaction is a single sale. Transactions are values and are not modified
// after creation.
type Transaction struct {
	OrderNumber int
	Gratuity    float64
	Purchases   Purchases
}

// NewTransaction builds a validated transaction.
func NewTransaction(orderNumber int, gratuity float64, ids ...int) (Transaction, error) {
	p, err := PurchasesOf(ids...)
	if err != nil {
		return Transaction{}, &TransactionError{OrderNumber: orderNumber, Err: err}
	}

	t := Transaction{OrderNumber: orderNumber, Gratuity: gratuity, Purchases: p}

	err = t.Validate()
	if err != nil {
		return Transaction{}, err
	}

	return t, nil
}

// Validate checks the data model invariants that do not need a catalog:
// at most [MaxPurchases] items and a non-negative gratuity.
func (t Transaction) Validate() error {
	if n := t.Purchases.Len(); n > MaxPurchases {
		return &TransactionError{OrderNumber: t.OrderNumber, Err: fmt.Errorf("%w: %d items", ErrTooManyPurchases, n)}
	}

	if t.Gratuity < 0 {
		return &TransactionError{OrderNumber: t.OrderNumber, Err: fmt.Errorf("%w: %g", ErrNegativeGratuity, t.Gratuity)}
	}

	return nil
}

// ValidateAgainst runs [Transaction.Validate] and additionally checks that
// every purchased id exists in c.
func (t Transaction) ValidateAgainst(c *Catalog) error {
	err := t.Validate()
	if err != nil {
		return err
	}

	for id := range t.Purchases.All() {
		if !c.Has(id) {
			return &TransactionError{OrderNumber: t.OrderNumber, Err: fmt.Errorf("%w: %d", ErrUnknownFood, id)}
		}
	}

	return nil
}
