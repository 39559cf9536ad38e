package query

import (
	"math"

	"item-appraiser/internal/catalog"
	"item-appraiser/internal/item"
)

// DefaultToleranceRatio widens a mod value by half in each direction.
const DefaultToleranceRatio = 0.5

// RangeArgument is one stat filter of a "find similar items" search.
// Min and Max are nil when the mod has no single value to range over.
type RangeArgument struct {
	CodeName string   `json:"code"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// Bounded reports whether both bounds are set.
func (a RangeArgument) Bounded() bool {
	return a.Min != nil && a.Max != nil
}

// ToRangeArgument looks up mod in cat and derives a search range around its
// value. Only single-value templates get bounds; anything else, including an
// unmatched mod, yields an argument carrying just the code name.
func ToRangeArgument(mod item.Mod, cat *catalog.Catalog, toleranceRatio float64) RangeArgument {
	arg := RangeArgument{CodeName: mod.CodeTemplate}
	if arg.CodeName == "" {
		arg.CodeName = mod.DisplayText
	}
	if cat == nil {
		return arg
	}

	m, ok := cat.FindMatch(mod.DisplayText, mod.Kind)
	if !ok {
		return arg
	}
	arg.CodeName = m.Template.Code

	if len(m.Values) != 1 {
		return arg
	}

	v := m.Values[0]
	lo := round1(v - toleranceRatio*v)
	hi := round1(v + toleranceRatio*v)
	arg.Min = &lo
	arg.Max = &hi
	return arg
}

// ToRangeArguments derives one argument per mod of it, in mod order.
func ToRangeArguments(it *item.Item, cat *catalog.Catalog, toleranceRatio float64) []RangeArgument {
	if it == nil {
		return nil
	}
	args := make([]RangeArgument, 0, len(it.Mods))
	for _, m := range it.Mods {
		args = append(args, ToRangeArgument(m, cat, toleranceRatio))
	}
	return args
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
