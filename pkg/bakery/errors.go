package bakery

import (
	"errors"
	"strconv"
)

// Catalog construction errors.
var (
	ErrDuplicateFood   = errors.New("duplicate food id")
	ErrFoodIDRange     = errors.New("food id out of range")
	ErrNegativePrice   = errors.New("food price is negative")
	ErrUnknownFoodType = errors.New("unknown food type")
	ErrEmptyCategory   = errors.New("catalog has no items of food type")
)

// Data corruption errors. These mean an upstream producer (generator or
// loader) handed out a transaction that breaks the data model; they are never
// clamped or skipped.
var (
	ErrTooManyPurchases = errors.New("transaction has more than 4 purchases")
	ErrUnknownFood      = errors.New("food id not in catalog")
	ErrNegativeGratuity = errors.New("gratuity is negative")
)

// ErrViewOutOfRange is returned when a view longer than its sequence is requested.
var ErrViewOutOfRange = errors.New("view length out of range")

// TransactionError attaches the offending order number to a data error.
//
// It formats as "<cause> (order=N)":
//
//	food id not in catalog: 29 (order=1204)
//
// Use [errors.Is] with the sentinel errors above and [errors.As] to recover
// the order number.
type TransactionError struct {
	OrderNumber int
	Err         error
}

func (e *TransactionError) Error() string {
	if e == nil {
		return ""
	}

	suffix := "(order=" + strconv.Itoa(e.OrderNumber) + ")"
	if e.Err == nil {
		return suffix
	}

	return e.Err.Error() + " " + suffix
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *TransactionError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}
