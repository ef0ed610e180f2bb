package bakery_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
)

func Test_DefaultCatalog_Has_Unique_Menu_When_Built(t *testing.T) {
	t.Parallel()

	c := bakery.DefaultCatalog()

	require.Equal(t, 27, c.Len())
	assert.Same(t, c, bakery.DefaultCatalog(), "default catalog must be built once")

	seen := make(map[int]bool)
	for _, item := range c.Items() {
		assert.False(t, seen[item.ID], "duplicate id %d", item.ID)
		seen[item.ID] = true
	}

	sesame, err := c.Lookup(7)
	require.NoError(t, err)
	assert.Equal(t, "Sesame Bagel", sesame.Name)

	wantCounts := map[bakery.FoodType]int{
		bakery.Bagel:    10,
		bakery.Bread:    4,
		bakery.Pastry:   3,
		bakery.Sandwich: 3,
		bakery.Beverage: 5,
		bakery.Cookie:   2,
	}
	for typ, want := range wantCounts {
		assert.Len(t, c.IDsOfType(typ), want, "items of type %s", typ)
	}
}

func Test_NewCatalog_Returns_Error_When_Items_Invalid(t *testing.T) {
	t.Parallel()

	one := decimal.NewFromInt(1)

	tests := []struct {
		name    string
		items   []bakery.FoodItem
		wantErr error
	}{
		{
			name: "duplicate id",
			items: []bakery.FoodItem{
				{ID: 3, Name: "a", Type: bakery.Bagel, Price: one},
				{ID: 3, Name: "b", Type: bakery.Bread, Price: one},
			},
			wantErr: bakery.ErrDuplicateFood,
		},
		{
			name:    "negative id",
			items:   []bakery.FoodItem{{ID: -1, Name: "a", Type: bakery.Bagel, Price: one}},
			wantErr: bakery.ErrFoodIDRange,
		},
		{
			name:    "id above max",
			items:   []bakery.FoodItem{{ID: bakery.MaxFoodID + 1, Name: "a", Type: bakery.Bagel, Price: one}},
			wantErr: bakery.ErrFoodIDRange,
		},
		{
			name:    "negative price",
			items:   []bakery.FoodItem{{ID: 1, Name: "a", Type: bakery.Bagel, Price: decimal.NewFromInt(-2)}},
			wantErr: bakery.ErrNegativePrice,
		},
		{
			name:    "invalid type",
			items:   []bakery.FoodItem{{ID: 1, Name: "a", Type: bakery.FoodType(42), Price: one}},
			wantErr: bakery.ErrUnknownFoodType,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := bakery.NewCatalog(testCase.items)
			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func Test_Catalog_Lookup_Returns_ErrUnknownFood_When_ID_Missing(t *testing.T) {
	t.Parallel()

	c := bakery.DefaultCatalog()

	for _, id := range []int{-1, 27, bakery.MaxFoodID, 1000} {
		_, err := c.Lookup(id)
		require.ErrorIs(t, err, bakery.ErrUnknownFood, "id %d", id)
		assert.False(t, c.Has(id))
	}
}

func Test_FoodType_String_Is_Title_Case_When_Valid(t *testing.T) {
	t.Parallel()

	names := make([]string, 0, bakery.NumFoodTypes)
	for _, typ := range bakery.FoodTypes() {
		names = append(names, typ.String())
	}

	assert.Equal(t, []string{"Bagel", "Bread", "Cookie", "Pastry", "Beverage", "Sandwich"}, names)
	assert.Equal(t, "FoodType(9)", bakery.FoodType(9).String())
}

func Test_ParseFoodType_Roundtrips_When_Name_Known(t *testing.T) {
	t.Parallel()

	for _, typ := range bakery.FoodTypes() {
		got, err := bakery.ParseFoodType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	got, err := bakery.ParseFoodType("  bAGEL ")
	require.NoError(t, err)
	assert.Equal(t, bakery.Bagel, got)

	_, err = bakery.ParseFoodType("soup")
	require.ErrorIs(t, err, bakery.ErrUnknownFoodType)
}
