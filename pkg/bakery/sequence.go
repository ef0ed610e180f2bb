package bakery

import (
	"fmt"
	"sync"
)

// Sequence is the append-only list of transactions, in creation order.
//
// Appending never changes elements that are already present, so a [View]
// taken earlier stays valid (and keeps describing the same transactions)
// after later appends. Sequence is safe for concurrent use.
type Sequence struct {
	mu    sync.RWMutex
	items []Transaction
}

// NewSequence returns a sequence holding txns. The sequence takes ownership
// of the slice; callers must not modify it afterwards.
func NewSequence(txns []Transaction) *Sequence {
	return &Sequence{items: txns}
}

// Append adds transactions to the end of the sequence.
func (s *Sequence) Append(txns ...Transaction) {
	s.mu.Lock()
	s.items = append(s.items, txns...)
	s.mu.Unlock()
}

// Len returns the number of transactions.
func (s *Sequence) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// View returns the read-only prefix [0, n).
func (s *Sequence) View(n int) (View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n < 0 || n > len(s.items) {
		return View{}, fmt.Errorf("%w: %d (sequence has %d)", ErrViewOutOfRange, n, len(s.items))
	}

	return View{origin: s, items: s.items[:n:n]}, nil
}

// All returns a view of every transaction currently in the sequence.
func (s *Sequence) All() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return View{origin: s, items: s.items[:len(s.items):len(s.items)]}
}

// View is a read-only, contiguous prefix [0, k) of a [Sequence].
//
// A View remembers the sequence it was taken from (its origin), which lets
// callers that cache per-prefix results check that a later view extends an
// earlier one. The zero View is empty and has no origin.
//
// Views are immutable and may be shared between goroutines.
type View struct {
	origin *Sequence
	items  []Transaction
}

// Len returns the number of transactions in the view.
func (v View) Len() int {
	return len(v.items)
}

// At returns the i-th transaction.
func (v View) At(i int) Transaction {
	return v.items[i]
}

// Origin returns the sequence the view was taken from, or nil for the zero View.
func (v View) Origin() *Sequence {
	return v.origin
}

// Transactions returns the underlying transactions. The slice aliases the
// sequence's storage and must be treated as read-only. Its capacity equals
// its length, so appending to it never writes into the sequence.
func (v View) Transactions() []Transaction {
	return v.items
}

// From returns the transactions at index from and later, i.e. the part of v
// not covered by a shorter prefix of length from.
func (v View) From(from int) []Transaction {
	return v.items[from:]
}

// Extends reports whether v starts at the same origin as a previously seen
// view of length n and is at least as long.
func (v View) Extends(origin *Sequence, n int) bool {
	return v.origin == origin && len(v.items) >= n
}
