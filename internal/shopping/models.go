package shopping

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ShoppingList is a household's shopping list, optionally generated from a
// meal plan. Item order in the slice carries no meaning; display ordering is
// resolved by the UI from SortOrder and Category.
type ShoppingList struct {
	HouseholdID int64              `json:"household_id"`
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	MealPlanID  *int64             `json:"meal_plan_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	Items       []ShoppingListItem `json:"items"`
}

// ShoppingListItem is one line on a shared shopping list. Non-manual items
// are replaced wholesale on regeneration; manual items are never touched by
// it. QuantityDelta records a user's adjustment to an auto-generated quantity
// and must survive the next regeneration.
type ShoppingListItem struct {
	HouseholdID    int64 `json:"household_id"`
	ShoppingListID int64 `json:"shopping_list_id"`
	ID             int64 `json:"id"`

	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Category string          `json:"category"`

	IsChecked       bool                `json:"is_checked"`
	CheckedAt       *time.Time          `json:"checked_at,omitempty"`
	IsManuallyAdded bool                `json:"is_manually_added"`
	QuantityDelta   decimal.NullDecimal `json:"quantity_delta"`

	SourceRecipes       string `json:"source_recipes,omitempty"`
	OriginalUnits       string `json:"original_units,omitempty"`
	SourceIngredientIDs string `json:"source_ingredient_ids,omitempty"`

	SortOrder int `json:"sort_order"`

	// Version is the optimistic-concurrency token. It changes on every
	// successful write; a stale token means another member got there first.
	Version string `json:"version"`
}

// RecipeIngredientRef is one recipe ingredient line as read from a meal plan.
// It is never mutated by consolidation or generation.
type RecipeIngredientRef struct {
	HouseholdID  int64
	RecipeID     int64
	IngredientID int64

	Name     string
	Quantity decimal.NullDecimal
	Unit     string
	Category string

	// RecipeName is carried for provenance on the generated item.
	RecipeName string
}

// SourceID renders the composite identity of the ingredient line.
func (r RecipeIngredientRef) SourceID() string {
	return fmt.Sprintf("%d:%d:%d", r.HouseholdID, r.RecipeID, r.IngredientID)
}

// ConsolidationResult is one consolidated shopping-list line: either a merged
// group of compatible ingredient lines, or a single line passed through when
// its group could not be merged.
type ConsolidationResult struct {
	Name     string
	Quantity decimal.Decimal
	Unit     string
	Category string

	RecipeNames         []string
	OriginalUnits       string
	SourceIngredientIDs []string
}
