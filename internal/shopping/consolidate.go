package shopping

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"household-planner/internal/units"
)

// descriptorWords are stripped from ingredient names before grouping, so that
// "Fresh Garlic" and "garlic" land on the same shopping-list line. Removal is
// plain substring removal: a multi-word descriptor embedded mid-name loses
// that word even when it is part of the ingredient itself. Tradeoff accepted
// for simplicity.
var descriptorWords = []string{"fresh", "organic", "chopped", "diced", "minced", "sliced"}

// NormalizeName produces the grouping key form of an ingredient name.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, word := range descriptorWords {
		n = strings.ReplaceAll(n, word, "")
	}
	for strings.Contains(n, "  ") {
		n = strings.ReplaceAll(n, "  ", " ")
	}
	return strings.TrimSpace(n)
}

// Consolidator merges recipe ingredient lines into shopping-list lines.
type Consolidator struct {
	converter *units.Converter
}

// NewConsolidator creates a Consolidator over the given unit converter.
func NewConsolidator(converter *units.Converter) *Consolidator {
	return &Consolidator{converter: converter}
}

type ingredientGroup struct {
	members []RecipeIngredientRef
}

// Consolidate groups ingredients by (normalized name, raw category) and merges
// each group into a single result when every member's quantity can be
// converted into one common unit. Groups that cannot be merged fall back to
// one result per member — quantities are never silently summed across
// incompatible units. Callers must treat the returned slice as an unordered
// set.
func (c *Consolidator) Consolidate(ingredients []RecipeIngredientRef, autoConsolidate bool) []ConsolidationResult {
	// Category is deliberately not normalized: differing category spelling
	// keeps lines apart.
	type groupKey struct {
		name     string
		category string
	}
	groups := map[groupKey]*ingredientGroup{}
	var order []groupKey

	for _, ing := range ingredients {
		key := groupKey{name: NormalizeName(ing.Name), category: ing.Category}
		g, ok := groups[key]
		if !ok {
			g = &ingredientGroup{}
			groups[key] = g
			order = append(order, key)
		}
		g.members = append(g.members, ing)
	}

	var results []ConsolidationResult
	for _, key := range order {
		results = append(results, c.consolidateGroup(groups[key].members, autoConsolidate)...)
	}
	return results
}

func (c *Consolidator) consolidateGroup(members []RecipeIngredientRef, autoConsolidate bool) []ConsolidationResult {
	if autoConsolidate {
		if merged, ok := c.mergeGroup(members); ok {
			return []ConsolidationResult{merged}
		}
	}

	// Fallback-to-safety: emit every member unchanged.
	results := make([]ConsolidationResult, 0, len(members))
	for _, m := range members {
		r := ConsolidationResult{
			Name:                m.Name,
			Quantity:            quantityOrZero(m),
			Unit:                m.Unit,
			Category:            m.Category,
			SourceIngredientIDs: []string{m.SourceID()},
		}
		if strings.TrimSpace(m.RecipeName) != "" {
			r.RecipeNames = []string{m.RecipeName}
		}
		results = append(results, r)
	}
	return results
}

// mergeGroup attempts to merge all members into one result. It refuses when
// any member lacks a unit while another has one (absence of a unit cannot be
// reconciled against presence of one), or when no common unit exists.
func (c *Consolidator) mergeGroup(members []RecipeIngredientRef) (ConsolidationResult, bool) {
	unitStrings := make([]string, 0, len(members))
	withUnit := 0
	for _, m := range members {
		unitStrings = append(unitStrings, m.Unit)
		if units.Normalize(m.Unit) != "" {
			withUnit++
		}
	}
	if withUnit != len(members) {
		return ConsolidationResult{}, false
	}

	common := c.converter.FindCommonUnit(unitStrings)
	if common == "" {
		return ConsolidationResult{}, false
	}

	total := decimal.Zero
	var originalPairs []string
	var recipeNames []string
	seenRecipes := map[string]struct{}{}
	ids := make([]string, 0, len(members))

	for _, m := range members {
		q := quantityOrZero(m)
		converted, err := c.converter.Convert(q, m.Unit, common)
		if err != nil {
			return ConsolidationResult{}, false
		}
		total = total.Add(converted)

		if m.Quantity.Valid {
			originalPairs = append(originalPairs, fmt.Sprintf("%s %s", m.Quantity.Decimal.String(), m.Unit))
		}

		name := strings.TrimSpace(m.RecipeName)
		if name != "" {
			if _, seen := seenRecipes[name]; !seen {
				seenRecipes[name] = struct{}{}
				recipeNames = append(recipeNames, m.RecipeName)
			}
		}

		ids = append(ids, m.SourceID())
	}

	result := ConsolidationResult{
		// The group's first member, in original list order, determines the
		// display name and category.
		Name:                members[0].Name,
		Quantity:            total,
		Unit:                common,
		Category:            members[0].Category,
		RecipeNames:         recipeNames,
		SourceIngredientIDs: ids,
	}
	if len(originalPairs) > 1 {
		result.OriginalUnits = strings.Join(originalPairs, " + ")
	}
	return result, true
}

func quantityOrZero(m RecipeIngredientRef) decimal.Decimal {
	if m.Quantity.Valid {
		return m.Quantity.Decimal
	}
	return decimal.Zero
}
