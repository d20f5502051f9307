package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"household-planner/internal/mealplan"
	"household-planner/internal/retry"
	"household-planner/internal/shopping"
)

// PlanStore is the meal-plan persistence surface the application needs.
// *mealplan.Repository satisfies it.
type PlanStore interface {
	shopping.MealPlanStore
	CreatePlan(ctx context.Context, plan *mealplan.MealPlan) error
	AddEntry(ctx context.Context, householdID, planID int64, entry *mealplan.Entry) error
	CreateRecipe(ctx context.Context, rec *mealplan.Recipe) error
}

// App holds the application's dependencies and exposes the user-level
// operations consumed by the HTTP server and the CLI.
type App struct {
	plans     PlanStore
	lists     shopping.ListStore
	generator *shopping.Generator
	updater   *shopping.ItemUpdater
}

// NewApp creates and initializes a new App instance.
func NewApp(
	plans PlanStore,
	lists shopping.ListStore,
	generator *shopping.Generator,
	updater *shopping.ItemUpdater,
) *App {
	return &App{
		plans:     plans,
		lists:     lists,
		generator: generator,
		updater:   updater,
	}
}

// GenerateShoppingList builds a new shopping list from a meal plan.
func (a *App) GenerateShoppingList(ctx context.Context, householdID, mealPlanID int64, name string, start, end *time.Time) (*shopping.ShoppingList, error) {
	if name == "" {
		name = "Shopping list"
	}
	list, err := a.generator.GenerateFromMealPlan(ctx, householdID, mealPlanID, name, start, end)
	if err != nil {
		return nil, err
	}
	log.Printf("Generated shopping list %d for household %d with %d items", list.ID, householdID, len(list.Items))
	return list, nil
}

// RegenerateShoppingList recomputes a plan-derived list in place.
func (a *App) RegenerateShoppingList(ctx context.Context, householdID, listID int64) (*shopping.ShoppingList, error) {
	list, err := a.generator.Regenerate(ctx, householdID, listID)
	if err != nil {
		return nil, err
	}
	log.Printf("Regenerated shopping list %d for household %d with %d items", listID, householdID, len(list.Items))
	return list, nil
}

// GetShoppingList loads a list with its items.
func (a *App) GetShoppingList(ctx context.Context, householdID, listID int64) (*shopping.ShoppingList, error) {
	list, err := a.lists.GetWithItems(ctx, householdID, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, shopping.ErrShoppingListNotFound
	}
	return list, nil
}

// AddManualItem adds a user-entered item to a list. Manual items are exempt
// from the regeneration delete/recreate cycle.
func (a *App) AddManualItem(ctx context.Context, item *shopping.ShoppingListItem) error {
	if item.Name == "" {
		return fmt.Errorf("item name cannot be empty")
	}
	list, err := a.lists.GetWithItems(ctx, item.HouseholdID, item.ShoppingListID)
	if err != nil {
		return err
	}
	if list == nil {
		return shopping.ErrShoppingListNotFound
	}
	item.IsManuallyAdded = true
	// Only generated quantities carry a user delta.
	item.QuantityDelta.Valid = false
	if err := a.lists.AddItem(ctx, item); err != nil {
		if errors.Is(err, retry.ErrIDGenerationExhausted) {
			log.Printf("ERROR: id generation exhausted adding item to list %d: %v", item.ShoppingListID, err)
		}
		return err
	}
	return nil
}

// UpdateItem applies a concurrent edit with the checked-wins merge policy.
func (a *App) UpdateItem(ctx context.Context, item *shopping.ShoppingListItem) (shopping.UpdateResult, error) {
	result, err := a.updater.UpdateWithConcurrency(ctx, item)
	if err != nil {
		return shopping.UpdateResult{}, err
	}
	if result.Conflict {
		log.Printf("Conflict on item %d of list %d: %s", item.ID, item.ShoppingListID, result.Message)
	}
	return result, nil
}

// DeleteItem removes a single item from a list.
func (a *App) DeleteItem(ctx context.Context, householdID, listID, itemID int64) error {
	item, err := a.lists.GetItem(ctx, householdID, listID, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return shopping.ErrItemNotFound
	}
	return a.lists.DeleteItem(ctx, householdID, listID, itemID)
}

// ClearCheckedItems removes every checked item from a list.
func (a *App) ClearCheckedItems(ctx context.Context, householdID, listID int64) (int64, error) {
	list, err := a.lists.GetWithItems(ctx, householdID, listID)
	if err != nil {
		return 0, err
	}
	if list == nil {
		return 0, shopping.ErrShoppingListNotFound
	}
	return a.lists.DeleteCheckedItems(ctx, householdID, listID)
}

// CreateMealPlan stores a new meal plan for a household.
func (a *App) CreateMealPlan(ctx context.Context, plan *mealplan.MealPlan) error {
	if plan.Name == "" {
		return fmt.Errorf("meal plan name cannot be empty")
	}
	return a.plans.CreatePlan(ctx, plan)
}

// AddMealPlanEntry adds an entry to an existing plan.
func (a *App) AddMealPlanEntry(ctx context.Context, householdID, planID int64, entry *mealplan.Entry) error {
	plan, err := a.plans.GetWithEntries(ctx, householdID, planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return shopping.ErrMealPlanNotFound
	}
	return a.plans.AddEntry(ctx, householdID, planID, entry)
}

// CreateRecipe stores a recipe with its ingredient lines.
func (a *App) CreateRecipe(ctx context.Context, rec *mealplan.Recipe) error {
	if rec.Name == "" {
		return fmt.Errorf("recipe name cannot be empty")
	}
	return a.plans.CreateRecipe(ctx, rec)
}
