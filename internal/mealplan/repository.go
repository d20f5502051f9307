package mealplan

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"household-planner/internal/database"
	"household-planner/internal/retry"
)

// Repository is the sqlite-backed store for meal plans, recipes and their
// ingredients. All queries are scoped by household: cross-household reads are
// a correctness bug, not just a privacy concern.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new meal plan repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// GetWithEntries loads a meal plan with its entries, each entry's recipe and
// that recipe's ingredients. Returns nil if no such plan exists for the
// household.
func (r *Repository) GetWithEntries(ctx context.Context, householdID, planID int64) (*MealPlan, error) {
	plan := &MealPlan{HouseholdID: householdID, ID: planID}
	err := r.db.QueryRowContext(ctx,
		`SELECT name, start_date, end_date, created_at
		 FROM meal_plans WHERE household_id = ? AND id = ?`,
		householdID, planID,
	).Scan(&plan.Name, &plan.StartDate, &plan.EndDate, &plan.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No meal plan found
		}
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.entry_date, e.recipe_id, e.custom_meal_name, r.name
		 FROM meal_plan_entries e
		 LEFT JOIN recipes r ON r.household_id = e.household_id AND r.id = e.recipe_id
		 WHERE e.household_id = ? AND e.meal_plan_id = ?
		 ORDER BY e.id`,
		householdID, planID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal plan entries: %w", err)
	}
	defer rows.Close()

	recipeCache := map[int64]*Recipe{}
	for rows.Next() {
		var entry Entry
		var recipeID sql.NullInt64
		var recipeName sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Date, &recipeID, &entry.CustomMealName, &recipeName); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan entry: %w", err)
		}
		if recipeID.Valid {
			id := recipeID.Int64
			entry.RecipeID = &id
			rec, ok := recipeCache[id]
			if !ok {
				rec = &Recipe{HouseholdID: householdID, ID: id, Name: recipeName.String}
				recipeCache[id] = rec
			}
			entry.Recipe = rec
		}
		plan.Entries = append(plan.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meal plan entries: %w", err)
	}

	for id, rec := range recipeCache {
		ingredients, err := r.loadIngredients(ctx, householdID, id)
		if err != nil {
			return nil, err
		}
		rec.Ingredients = ingredients
	}

	return plan, nil
}

func (r *Repository) loadIngredients(ctx context.Context, householdID, recipeID int64) ([]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, quantity, unit, category
		 FROM recipe_ingredients
		 WHERE household_id = ? AND recipe_id = ?
		 ORDER BY id`,
		householdID, recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []Ingredient
	for rows.Next() {
		var ing Ingredient
		var quantity sql.NullString
		if err := rows.Scan(&ing.ID, &ing.Name, &quantity, &ing.Unit, &ing.Category); err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		if quantity.Valid {
			q, err := decimal.NewFromString(quantity.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse ingredient quantity %q: %w", quantity.String, err)
			}
			ing.Quantity = decimal.NewNullDecimal(q)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipe ingredients: %w", err)
	}
	return ingredients, nil
}

// CreatePlan inserts a new meal plan, assigning the next sequential ID for
// the household. Concurrent creates can compute the same ID, so the insert
// runs under collision retry.
func (r *Repository) CreatePlan(ctx context.Context, plan *MealPlan) error {
	created, err := retry.OnIDCollision(ctx, database.IsUniqueConstraint, func(attempt int) (*MealPlan, error) {
		id, err := r.nextID(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM meal_plans WHERE household_id = ?`,
			plan.HouseholdID)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO meal_plans (household_id, id, name, start_date, end_date, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			plan.HouseholdID, id, plan.Name, plan.StartDate, plan.EndDate, now)
		if err != nil {
			return nil, err
		}
		plan.ID = id
		plan.CreatedAt = now
		return plan, nil
	})
	if err != nil {
		return fmt.Errorf("failed to create meal plan: %w", err)
	}
	*plan = *created
	return nil
}

// AddEntry inserts a meal plan entry under collision retry.
func (r *Repository) AddEntry(ctx context.Context, householdID, planID int64, entry *Entry) error {
	created, err := retry.OnIDCollision(ctx, database.IsUniqueConstraint, func(attempt int) (*Entry, error) {
		id, err := r.nextID(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM meal_plan_entries
			 WHERE household_id = ? AND meal_plan_id = ?`,
			householdID, planID)
		if err != nil {
			return nil, err
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO meal_plan_entries (household_id, meal_plan_id, id, entry_date, recipe_id, custom_meal_name)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			householdID, planID, id, entry.Date, entry.RecipeID, entry.CustomMealName)
		if err != nil {
			return nil, err
		}
		entry.ID = id
		return entry, nil
	})
	if err != nil {
		return fmt.Errorf("failed to add meal plan entry: %w", err)
	}
	*entry = *created
	return nil
}

// CreateRecipe inserts a recipe and its ingredient lines under collision retry.
func (r *Repository) CreateRecipe(ctx context.Context, rec *Recipe) error {
	created, err := retry.OnIDCollision(ctx, database.IsUniqueConstraint, func(attempt int) (*Recipe, error) {
		id, err := r.nextID(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM recipes WHERE household_id = ?`,
			rec.HouseholdID)
		if err != nil {
			return nil, err
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO recipes (household_id, id, name) VALUES (?, ?, ?)`,
			rec.HouseholdID, id, rec.Name)
		if err != nil {
			return nil, err
		}
		for i := range rec.Ingredients {
			ing := &rec.Ingredients[i]
			ing.ID = int64(i + 1)
			var quantity any
			if ing.Quantity.Valid {
				quantity = ing.Quantity.Decimal.String()
			}
			_, err = r.db.ExecContext(ctx,
				`INSERT INTO recipe_ingredients (household_id, recipe_id, id, name, quantity, unit, category)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rec.HouseholdID, id, ing.ID, ing.Name, quantity, ing.Unit, ing.Category)
			if err != nil {
				return nil, err
			}
		}
		rec.ID = id
		return rec, nil
	})
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	*rec = *created
	return nil
}

func (r *Repository) nextID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to compute next id: %w", err)
	}
	return id, nil
}
