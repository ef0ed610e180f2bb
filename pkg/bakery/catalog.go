package bakery

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Catalog maps food identifiers to [FoodItem]s.
//
// A Catalog is built once with [NewCatalog] and never modified afterwards,
// so it is safe for concurrent use without locking. Pass it by pointer to
// whatever needs it.
type Catalog struct {
	items  [MaxFoodID + 1]FoodItem
	known  uint32 // bit i set when id i is present
	byType [NumFoodTypes][]int
	count  int
}

// NewCatalog builds a catalog from items. Identifiers must be unique and in
// [0, MaxFoodID], prices non-negative, and categories valid.
func NewCatalog(items []FoodItem) (*Catalog, error) {
	c := &Catalog{}

	for _, item := range items {
		if item.ID < 0 || item.ID > MaxFoodID {
			return nil, fmt.Errorf("%w: %d (max %d)", ErrFoodIDRange, item.ID, MaxFoodID)
		}

		if c.known&(1<<uint(item.ID)) != 0 {
			return nil, fmt.Errorf("%w: %d (%q and %q)", ErrDuplicateFood, item.ID, c.items[item.ID].Name, item.Name)
		}

		if !item.Type.Valid() {
			return nil, fmt.Errorf("%w: %d for food %d", ErrUnknownFoodType, int(item.Type), item.ID)
		}

		if item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: food %d costs %s", ErrNegativePrice, item.ID, item.Price)
		}

		c.items[item.ID] = item
		c.known |= 1 << uint(item.ID)
		c.count++
	}

	for id := 0; id <= MaxFoodID; id++ {
		if c.Has(id) {
			t := c.items[id].Type
			c.byType[t] = append(c.byType[t], id)
		}
	}

	return c, nil
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id int) bool {
	return id >= 0 && id <= MaxFoodID && c.known&(1<<uint(id)) != 0
}

// Lookup returns the item for id, or [ErrUnknownFood].
func (c *Catalog) Lookup(id int) (FoodItem, error) {
	if !c.Has(id) {
		return FoodItem{}, fmt.Errorf("%w: %d", ErrUnknownFood, id)
	}

	return c.items[id], nil
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return c.count
}

// Items returns every item in identifier order.
func (c *Catalog) Items() []FoodItem {
	out := make([]FoodItem, 0, c.count)

	for id := 0; id <= MaxFoodID; id++ {
		if c.Has(id) {
			out = append(out, c.items[id])
		}
	}

	return out
}

// IDsOfType returns the identifiers of every item in category t, ascending.
// The returned slice is shared; do not modify it.
func (c *Catalog) IDsOfType(t FoodType) []int {
	if !t.Valid() {
		return nil
	}

	return c.byType[t]
}

// DefaultCatalog returns the bakery menu. It is built on first use and
// shared afterwards.
var DefaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := NewCatalog(defaultMenu())
	if err != nil {
		panic("bakery: default menu is invalid: " + err.Error())
	}

	return c
})

func defaultMenu() []FoodItem {
	price := decimal.RequireFromString

	return []FoodItem{
		{ID: 0, Name: "Everything Bagel", Type: Bagel, Price: price("1.50")},
		{ID: 1, Name: "Plain Bagel", Type: Bagel, Price: price("1.50")},
		{ID: 2, Name: "Asiago Bagel", Type: Bagel, Price: price("1.50")},
		{ID: 3, Name: "Rosemary Bagel", Type: Bagel, Price: price("1.50")},
		{ID: 4, Name: "Tomato Thyme Bagel", Type: Bagel, Price: price("1.70")},
		{ID: 5, Name: "Green Tea Bagel", Type: Bagel, Price: price("1.60")},
		{ID: 6, Name: "Roasted Pepper Bagel", Type: Bagel, Price: price("1.70")},
		{ID: 7, Name: "Sesame Bagel", Type: Bagel, Price: price("1.50")},
		{ID: 8, Name: "Spinach Parmesan Bagel", Type: Bagel, Price: price("1.70")},
		{ID: 9, Name: "Spinach Pesto Bagel", Type: Bagel, Price: price("1.70")},
		{ID: 10, Name: "White Bread", Type: Bread, Price: price("4.99")},
		{ID: 11, Name: "Pumpernickel Bread", Type: Bread, Price: price("4.99")},
		{ID: 12, Name: "Everything Bread", Type: Bread, Price: price("4.99")},
		{ID: 13, Name: "Rosemary Bread", Type: Bread, Price: price("4.99")},
		{ID: 14, Name: "Cinnamon Roll", Type: Pastry, Price: price("1.70")},
		{ID: 15, Name: "Cranberry Walnut Sticky Bun", Type: Pastry, Price: price("1.70")},
		{ID: 16, Name: "Blueberry Hand Pie", Type: Pastry, Price: price("1.70")},
		{ID: 17, Name: "Grilled Cheese", Type: Sandwich, Price: price("2.00")},
		{ID: 18, Name: "Caprese Sandwich", Type: Sandwich, Price: price("2.50")},
		{ID: 19, Name: "Veggie Sandwich with Hummus", Type: Sandwich, Price: price("2.50")},
		{ID: 20, Name: "Water", Type: Beverage, Price: price("0.00")},
		{ID: 21, Name: "Hot Chocolate", Type: Beverage, Price: price("1.50")},
		{ID: 22, Name: "Green Tea", Type: Beverage, Price: price("1.00")},
		{ID: 23, Name: "Vanilla Chai Black Tea", Type: Beverage, Price: price("1.00")},
		{ID: 24, Name: "Peppermint Herbal Tea", Type: Beverage, Price: price("1.00")},
		{ID: 25, Name: "White Chocolate Macadamia Nut Cookie", Type: Cookie, Price: price("1.00")},
		{ID: 26, Name: "Chocolate Chip Cookie", Type: Cookie, Price: price("1.00")},
	}
}
