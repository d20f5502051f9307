package shopping

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"household-planner/internal/mealplan"
)

// MealPlanStore provides meal plans with entries, recipes and ingredients,
// scoped by household. A nil plan means not found.
type MealPlanStore interface {
	GetWithEntries(ctx context.Context, householdID, planID int64) (*mealplan.MealPlan, error)
}

// ListStore persists shopping lists and their items, scoped by household.
// Get methods return nil (not an error) when the row does not exist.
// UpdateItemVersioned writes the item only if the stored version token still
// matches item.Version, refreshing the token on success; it reports false on
// a version mismatch.
type ListStore interface {
	CreateList(ctx context.Context, list *ShoppingList) error
	GetWithItems(ctx context.Context, householdID, listID int64) (*ShoppingList, error)
	AddItem(ctx context.Context, item *ShoppingListItem) error
	DeleteItem(ctx context.Context, householdID, listID, itemID int64) error
	DeleteCheckedItems(ctx context.Context, householdID, listID int64) (int64, error)
	GetItem(ctx context.Context, householdID, listID, itemID int64) (*ShoppingListItem, error)
	UpdateItemVersioned(ctx context.Context, item *ShoppingListItem) (bool, error)
}

// Generator builds shopping lists from meal plans and regenerates them while
// preserving manual items and user quantity adjustments.
type Generator struct {
	plans        MealPlanStore
	lists        ListStore
	consolidator *Consolidator
}

// NewGenerator creates a Generator.
func NewGenerator(plans MealPlanStore, lists ListStore, consolidator *Consolidator) *Generator {
	return &Generator{plans: plans, lists: lists, consolidator: consolidator}
}

// GenerateFromMealPlan consolidates the plan's recipe ingredients into a new
// shopping list linked to the plan. Entries outside [start, end] are skipped
// when either bound is given; entries that only name a custom meal contribute
// nothing. Item writes are not atomic: cancellation mid-loop leaves a
// partially populated list, which is safe to regenerate.
func (g *Generator) GenerateFromMealPlan(ctx context.Context, householdID, mealPlanID int64, listName string, start, end *time.Time) (*ShoppingList, error) {
	plan, err := g.plans.GetWithEntries(ctx, householdID, mealPlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal plan: %w", err)
	}
	if plan == nil {
		return nil, ErrMealPlanNotFound
	}

	ingredients := collectIngredients(plan, start, end)
	results := g.consolidator.Consolidate(ingredients, true)

	list := &ShoppingList{
		HouseholdID: householdID,
		Name:        listName,
		MealPlanID:  &mealPlanID,
	}
	if err := g.lists.CreateList(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create shopping list: %w", err)
	}

	for _, result := range results {
		item := itemFromResult(list, result)
		if err := g.lists.AddItem(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to add shopping list item %q: %w", result.Name, err)
		}
	}

	created, err := g.lists.GetWithItems(ctx, householdID, list.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload shopping list: %w", err)
	}
	return created, nil
}

// Regenerate recomputes a plan-derived list from its meal plan. Manual items
// are left exactly as they are; every non-manual item is deleted and rebuilt
// from fresh consolidation, and a user's quantity delta is re-applied to the
// freshly computed quantity for the matching (by normalized name) line.
//
// The delete/recreate window is not wrapped in a transaction; the HTTP layer
// prevents two regenerations of the same list from overlapping.
func (g *Generator) Regenerate(ctx context.Context, householdID, listID int64) (*ShoppingList, error) {
	list, err := g.lists.GetWithItems(ctx, householdID, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping list: %w", err)
	}
	if list == nil {
		return nil, ErrShoppingListNotFound
	}
	if list.MealPlanID == nil {
		return nil, ErrNotLinkedToMealPlan
	}

	deltas := map[string]decimal.Decimal{}
	var generated []ShoppingListItem
	for _, item := range list.Items {
		if item.IsManuallyAdded {
			continue
		}
		generated = append(generated, item)
		if item.QuantityDelta.Valid {
			deltas[NormalizeName(item.Name)] = item.QuantityDelta.Decimal
		}
	}

	// Recompute from the source of truth, independent of the old contents.
	plan, err := g.plans.GetWithEntries(ctx, householdID, *list.MealPlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal plan: %w", err)
	}
	if plan == nil {
		return nil, ErrMealPlanNotFound
	}
	results := g.consolidator.Consolidate(collectIngredients(plan, nil, nil), true)

	for _, item := range generated {
		if err := g.lists.DeleteItem(ctx, householdID, listID, item.ID); err != nil {
			return nil, fmt.Errorf("failed to delete shopping list item %d: %w", item.ID, err)
		}
	}

	for _, result := range results {
		item := itemFromResult(list, result)
		if delta, ok := deltas[NormalizeName(result.Name)]; ok {
			item.Quantity = item.Quantity.Add(delta)
			item.QuantityDelta = decimal.NewNullDecimal(delta)
		}
		if err := g.lists.AddItem(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to add shopping list item %q: %w", result.Name, err)
		}
	}

	reloaded, err := g.lists.GetWithItems(ctx, householdID, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload shopping list: %w", err)
	}
	return reloaded, nil
}

func collectIngredients(plan *mealplan.MealPlan, start, end *time.Time) []RecipeIngredientRef {
	var refs []RecipeIngredientRef
	for _, entry := range plan.Entries {
		if start != nil && entry.Date.Before(*start) {
			continue
		}
		if end != nil && entry.Date.After(*end) {
			continue
		}
		if entry.Recipe == nil {
			continue
		}
		for _, ing := range entry.Recipe.Ingredients {
			refs = append(refs, RecipeIngredientRef{
				HouseholdID:  plan.HouseholdID,
				RecipeID:     entry.Recipe.ID,
				IngredientID: ing.ID,
				Name:         ing.Name,
				Quantity:     ing.Quantity,
				Unit:         ing.Unit,
				Category:     ing.Category,
				RecipeName:   entry.Recipe.Name,
			})
		}
	}
	return refs
}

func itemFromResult(list *ShoppingList, result ConsolidationResult) *ShoppingListItem {
	return &ShoppingListItem{
		HouseholdID:         list.HouseholdID,
		ShoppingListID:      list.ID,
		Name:                result.Name,
		Quantity:            result.Quantity,
		Unit:                result.Unit,
		Category:            result.Category,
		IsManuallyAdded:     false,
		SourceRecipes:       joinNonEmpty(result.RecipeNames),
		OriginalUnits:       result.OriginalUnits,
		SourceIngredientIDs: joinNonEmpty(result.SourceIngredientIDs),
		// Category-based ordering is resolved by the UI, not here.
		SortOrder: 0,
	}
}

func joinNonEmpty(parts []string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}
