package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Family classifies units into closed equivalence classes. Conversion is only
// defined between units of the same family.
type Family string

const (
	Volume Family = "volume"
	Weight Family = "weight"
	Count  Family = "count"
)

var (
	// ErrUnknownUnit is returned when a unit is not present in the conversion table.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrIncompatibleUnits is returned when two units cannot be converted
	// between each other.
	ErrIncompatibleUnits = errors.New("incompatible unit families")
)

// roundPlaces suppresses floating-point noise on conversion results so that
// repeated conversions of the same underlying quantity stay stable.
const roundPlaces = 10

type unitDef struct {
	family      Family
	scaleToBase decimal.Decimal
}

func def(family Family, scale string) unitDef {
	return unitDef{family: family, scaleToBase: decimal.RequireFromString(scale)}
}

// defaultTable enumerates the closed unit set. Plural forms are separate
// entries, not derived. Base units: milliliter for volume, gram for weight.
func defaultTable() map[string]unitDef {
	return map[string]unitDef{
		// Volume
		"ml":          def(Volume, "1"),
		"milliliter":  def(Volume, "1"),
		"milliliters": def(Volume, "1"),
		"l":           def(Volume, "1000"),
		"liter":       def(Volume, "1000"),
		"liters":      def(Volume, "1000"),
		"tsp":         def(Volume, "4.92892159375"),
		"teaspoon":    def(Volume, "4.92892159375"),
		"teaspoons":   def(Volume, "4.92892159375"),
		"tbsp":        def(Volume, "14.78676478125"),
		"tablespoon":  def(Volume, "14.78676478125"),
		"tablespoons": def(Volume, "14.78676478125"),
		"fl oz":       def(Volume, "29.5735295625"),
		"cup":         def(Volume, "236.5882365"),
		"cups":        def(Volume, "236.5882365"),
		"pint":        def(Volume, "473.176473"),
		"pints":       def(Volume, "473.176473"),
		"quart":       def(Volume, "946.352946"),
		"quarts":      def(Volume, "946.352946"),
		"gallon":      def(Volume, "3785.411784"),
		"gallons":     def(Volume, "3785.411784"),

		// Weight
		"g":         def(Weight, "1"),
		"gram":      def(Weight, "1"),
		"grams":     def(Weight, "1"),
		"kg":        def(Weight, "1000"),
		"kilogram":  def(Weight, "1000"),
		"kilograms": def(Weight, "1000"),
		"oz":        def(Weight, "28.349523125"),
		"ounce":     def(Weight, "28.349523125"),
		"ounces":    def(Weight, "28.349523125"),
		"lb":        def(Weight, "453.59237"),
		"lbs":       def(Weight, "453.59237"),
		"pound":     def(Weight, "453.59237"),
		"pounds":    def(Weight, "453.59237"),

		// Count units carry no numeric relation to each other. The count
		// family exists to opt units out of conversion, not to enable it.
		"piece":    def(Count, "1"),
		"pieces":   def(Count, "1"),
		"clove":    def(Count, "1"),
		"cloves":   def(Count, "1"),
		"can":      def(Count, "1"),
		"cans":     def(Count, "1"),
		"slice":    def(Count, "1"),
		"slices":   def(Count, "1"),
		"bunch":    def(Count, "1"),
		"bunches":  def(Count, "1"),
		"pinch":    def(Count, "1"),
		"pinches":  def(Count, "1"),
		"dash":     def(Count, "1"),
		"dashes":   def(Count, "1"),
		"package":  def(Count, "1"),
		"packages": def(Count, "1"),
	}
}

// Converter converts quantities between compatible units using an immutable
// table built at construction time.
type Converter struct {
	table map[string]unitDef
}

// NewConverter builds a Converter over the default unit table.
func NewConverter() *Converter {
	return &Converter{table: defaultTable()}
}

// Normalize returns the canonical lookup form of a unit string.
func Normalize(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

// familyKey returns the family identity used for compatibility checks. Count
// units are never mutually convertible, so every count unit is its own key.
func (c *Converter) familyKey(normalized string) (string, bool) {
	d, ok := c.table[normalized]
	if !ok {
		return "", false
	}
	if d.family == Count {
		return string(Count) + ":" + normalized, true
	}
	return string(d.family), true
}

// Convert converts quantity from one unit to another. A blank unit on either
// side, or equal normalized units, returns the quantity unchanged.
func (c *Converter) Convert(quantity decimal.Decimal, fromUnit, toUnit string) (decimal.Decimal, error) {
	from := Normalize(fromUnit)
	to := Normalize(toUnit)
	if from == "" || to == "" || from == to {
		return quantity, nil
	}

	fromDef, ok := c.table[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownUnit, fromUnit)
	}
	toDef, ok := c.table[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownUnit, toUnit)
	}

	fromKey, _ := c.familyKey(from)
	toKey, _ := c.familyKey(to)
	if fromKey != toKey {
		return decimal.Zero, fmt.Errorf("%w: %q and %q", ErrIncompatibleUnits, fromUnit, toUnit)
	}

	return quantity.Mul(fromDef.scaleToBase).Div(toDef.scaleToBase).Round(roundPlaces), nil
}

// CanConvert reports whether both units are known and mutually convertible.
func (c *Converter) CanConvert(fromUnit, toUnit string) bool {
	fromKey, ok := c.familyKey(Normalize(fromUnit))
	if !ok {
		return false
	}
	toKey, ok := c.familyKey(Normalize(toUnit))
	if !ok {
		return false
	}
	return fromKey == toKey
}

// FindCommonUnit selects a single unit the given units can all be converted
// into, or "" if none exists. Blank entries are ignored. The chosen unit is
// the most frequently occurring original string (first-seen order breaks
// ties) — the unit the user already wrote most, not a canonical one.
func (c *Converter) FindCommonUnit(unitStrings []string) string {
	type candidate struct {
		original string
		count    int
	}
	var (
		order     []string
		counts    = map[string]*candidate{}
		familySet = map[string]struct{}{}
	)

	for _, u := range unitStrings {
		norm := Normalize(u)
		if norm == "" {
			continue
		}
		key, known := c.familyKey(norm)
		if !known {
			// An unknown unit can never be converted, so the group as a
			// whole has no common unit.
			return ""
		}
		familySet[key] = struct{}{}
		if existing, ok := counts[norm]; ok {
			existing.count++
			continue
		}
		counts[norm] = &candidate{original: u, count: 1}
		order = append(order, norm)
	}

	if len(order) == 0 || len(familySet) > 1 {
		return ""
	}

	best := counts[order[0]]
	for _, norm := range order[1:] {
		if counts[norm].count > best.count {
			best = counts[norm]
		}
	}
	return best.original
}
