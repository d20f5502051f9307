package mealplan

import (
	"time"

	"github.com/shopspring/decimal"
)

// MealPlan is a household's plan for a span of days. Entries reference either
// a stored recipe or a free-form custom meal name.
type MealPlan struct {
	HouseholdID int64     `json:"household_id"`
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	Entries     []Entry   `json:"entries"`
}

// Entry is a single planned meal on a date. RecipeID is nil for custom meals,
// which contribute nothing to shopping-list generation.
type Entry struct {
	ID             int64     `json:"id"`
	Date           time.Time `json:"date"`
	RecipeID       *int64    `json:"recipe_id,omitempty"`
	CustomMealName string    `json:"custom_meal_name,omitempty"`
	Recipe         *Recipe   `json:"recipe,omitempty"`
}

// Recipe holds a recipe and its ingredient lines.
type Recipe struct {
	HouseholdID int64        `json:"household_id"`
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
}

// Ingredient is one recipe ingredient line. Quantity and Unit are optional:
// free-text recipes often omit one or both.
type Ingredient struct {
	ID       int64               `json:"id"`
	Name     string              `json:"name"`
	Quantity decimal.NullDecimal `json:"quantity"`
	Unit     string              `json:"unit"`
	Category string              `json:"category"`
}
