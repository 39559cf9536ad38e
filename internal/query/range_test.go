package query

import (
	"testing"

	"item-appraiser/internal/catalog"
	"item-appraiser/internal/item"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Template{
		{Code: "+#% increased Physical Damage", Kind: item.Explicit},
		{Code: "Adds # to # Physical Damage", Kind: item.Explicit},
		{Code: "Cannot be Frozen", Kind: item.Explicit},
		{Code: "#% increased Spell Damage", Kind: item.Implicit},
	}, nil)
}

func TestToRangeArgument_SingleValue(t *testing.T) {
	t.Parallel()

	mod := item.Mod{DisplayText: "+30% increased Physical Damage", Kind: item.Explicit}
	got := ToRangeArgument(mod, testCatalog(), DefaultToleranceRatio)

	assert.Equal(t, "+#% increased Physical Damage", got.CodeName)
	require.True(t, got.Bounded())
	assert.Equal(t, 15.0, *got.Min)
	assert.Equal(t, 45.0, *got.Max)
}

func TestToRangeArgument_Rounding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		tolerance float64
		wantMin   float64
		wantMax   float64
	}{
		{name: "odd value", text: "+7% increased Physical Damage", tolerance: 0.5, wantMin: 3.5, wantMax: 10.5},
		{name: "one decimal", text: "+33% increased Physical Damage", tolerance: 0.1, wantMin: 29.7, wantMax: 36.3},
		{name: "rounded to tenth", text: "+13% increased Physical Damage", tolerance: 0.33, wantMin: 8.7, wantMax: 17.3},
		{name: "zero tolerance", text: "+20% increased Physical Damage", tolerance: 0, wantMin: 20, wantMax: 20},
	}

	cat := testCatalog()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ToRangeArgument(item.Mod{DisplayText: tt.text, Kind: item.Explicit}, cat, tt.tolerance)
			require.True(t, got.Bounded())
			assert.InDelta(t, tt.wantMin, *got.Min, 1e-9)
			assert.InDelta(t, tt.wantMax, *got.Max, 1e-9)
		})
	}
}

func TestToRangeArgument_Unbounded(t *testing.T) {
	t.Parallel()

	cat := testCatalog()

	tests := []struct {
		name     string
		mod      item.Mod
		cat      *catalog.Catalog
		wantCode string
	}{
		{
			name:     "two values",
			mod:      item.Mod{DisplayText: "Adds 3 to 7 Physical Damage", Kind: item.Explicit},
			cat:      cat,
			wantCode: "Adds # to # Physical Damage",
		},
		{
			name:     "no values",
			mod:      item.Mod{DisplayText: "Cannot be Frozen", Kind: item.Explicit},
			cat:      cat,
			wantCode: "Cannot be Frozen",
		},
		{
			name:     "unmatched falls back to code template",
			mod:      item.Mod{DisplayText: "+10 to Strength", Kind: item.Explicit, CodeTemplate: "+# to Strength"},
			cat:      cat,
			wantCode: "+# to Strength",
		},
		{
			name:     "unmatched falls back to display text",
			mod:      item.Mod{DisplayText: "+10 to Strength", Kind: item.Explicit},
			cat:      cat,
			wantCode: "+10 to Strength",
		},
		{
			name:     "kind mismatch",
			mod:      item.Mod{DisplayText: "12% increased Spell Damage", Kind: item.Explicit},
			cat:      cat,
			wantCode: "12% increased Spell Damage",
		},
		{
			name:     "nil catalog",
			mod:      item.Mod{DisplayText: "+30% increased Physical Damage", Kind: item.Explicit},
			cat:      nil,
			wantCode: "+30% increased Physical Damage",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ToRangeArgument(tt.mod, tt.cat, DefaultToleranceRatio)
			assert.Equal(t, tt.wantCode, got.CodeName)
			assert.Nil(t, got.Min)
			assert.Nil(t, got.Max)
			assert.False(t, got.Bounded())
		})
	}
}

func TestToRangeArguments(t *testing.T) {
	t.Parallel()

	it := &item.Item{Mods: []item.Mod{
		{DisplayText: "12% increased Spell Damage", Kind: item.Implicit},
		{DisplayText: "+30% increased Physical Damage", Kind: item.Explicit},
		{DisplayText: "Adds 3 to 7 Physical Damage", Kind: item.Explicit},
	}}

	args := ToRangeArguments(it, testCatalog(), DefaultToleranceRatio)
	require.Len(t, args, 3)
	assert.Equal(t, "#% increased Spell Damage", args[0].CodeName)
	assert.Equal(t, 6.0, *args[0].Min)
	assert.Equal(t, 18.0, *args[0].Max)
	assert.True(t, args[1].Bounded())
	assert.False(t, args[2].Bounded())

	assert.Nil(t, ToRangeArguments(nil, testCatalog(), DefaultToleranceRatio))
}
