package bakery

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FoodType is the menu category of a [FoodItem].
//
// The values are dense indices starting at zero, so a FoodType can index a
// fixed-size array of [NumFoodTypes] slots.
type FoodType int8

// Food categories, in index order.
const (
	Bagel FoodType = iota
	Bread
	Cookie
	Pastry
	Beverage
	Sandwich
)

// NumFoodTypes is the number of food categories.
const NumFoodTypes = int(Sandwich) + 1

var foodTypeNames = [NumFoodTypes]string{
	Bagel:    "Bagel",
	Bread:    "Bread",
	Cookie:   "Cookie",
	Pastry:   "Pastry",
	Beverage: "Beverage",
	Sandwich: "Sandwich",
}

// FoodTypes returns every category in index order.
func FoodTypes() []FoodType {
	types := make([]FoodType, NumFoodTypes)
	for i := range types {
		types[i] = FoodType(i)
	}

	return types
}

// Valid reports whether t is one of the defined categories.
func (t FoodType) Valid() bool {
	return t >= 0 && int(t) < NumFoodTypes
}

func (t FoodType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("FoodType(%d)", int(t))
	}

	return foodTypeNames[t]
}

// ParseFoodType parses a category name (case-insensitive).
func ParseFoodType(name string) (FoodType, error) {
	name = strings.TrimSpace(name)

	for i, n := range foodTypeNames {
		if strings.EqualFold(n, name) {
			return FoodType(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownFoodType, name)
}

// MaxFoodID is the largest food identifier a catalog may contain.
// Purchases are stored as a 32-bit set, one bit per identifier.
const MaxFoodID = 31

// FoodItem is one menu entry. FoodItems are values and are never modified
// after construction.
type FoodItem struct {
	ID    int
	Name  string
	Type  FoodType
	Price decimal.Decimal
}

func (f FoodItem) String() string {
	return fmt.Sprintf("%d %s (%s, %s)", f.ID, f.Name, f.Type, f.Price.StringFixed(2))
}
