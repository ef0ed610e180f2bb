package query

import "github.com/Hoshiningen/MonoidTalk/pkg/bakery"

// Monoid is a value type with an identity element and an associative,
// commutative combine operation. Combine(Identity, x) == x for every x.
type Monoid[T any] struct {
	Identity T
	Combine  func(a, b T) T
}

// Fold combines values left to right, starting from the identity.
func (m Monoid[T]) Fold(values ...T) T {
	acc := m.Identity
	for _, v := range values {
		acc = m.Combine(acc, v)
	}

	return acc
}

// FoodTypeCounts counts purchased items per food category, indexed by
// [bakery.FoodType].
type FoodTypeCounts [bakery.NumFoodTypes]int64

// Extremes scans the counts once and returns the least and most counted
// categories. Ties go to the category with the lowest index.
func (c FoodTypeCounts) Extremes() Extremes {
	least, most := 0, 0

	for i := 1; i < len(c); i++ {
		if c[i] < c[least] {
			least = i
		}

		if c[i] > c[most] {
			most = i
		}
	}

	return Extremes{Least: bakery.FoodType(least), Most: bakery.FoodType(most)}
}

// Extremes is the result of the food-type popularity query.
type Extremes struct {
	Least bakery.FoodType
	Most  bakery.FoodType
}

// The three aggregate monoids.
var (
	// CountsMonoid sums category counts elementwise.
	CountsMonoid = Monoid[FoodTypeCounts]{
		Combine: func(a, b FoodTypeCounts) FoodTypeCounts {
			for i := range a {
				a[i] += b[i]
			}

			return a
		},
	}

	// SumMonoid adds counts.
	SumMonoid = Monoid[int]{
		Combine: func(a, b int) int { return a + b },
	}

	// MaxMonoid keeps the larger of two non-negative values.
	MaxMonoid = Monoid[int]{
		Combine: func(a, b int) int { return max(a, b) },
	}
)
