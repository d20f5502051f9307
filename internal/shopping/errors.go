package shopping

import "errors"

var (
	// ErrMealPlanNotFound means the household has no meal plan with that ID.
	ErrMealPlanNotFound = errors.New("meal plan not found")
	// ErrShoppingListNotFound means the household has no list with that ID.
	ErrShoppingListNotFound = errors.New("shopping list not found")
	// ErrNotLinkedToMealPlan means regeneration was requested for a list that
	// was not generated from a meal plan.
	ErrNotLinkedToMealPlan = errors.New("shopping list is not linked to a meal plan")
	// ErrItemNotFound means the list has no item with that ID.
	ErrItemNotFound = errors.New("shopping list item not found")
)
