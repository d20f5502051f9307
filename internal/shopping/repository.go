package shopping

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"household-planner/internal/database"
	"household-planner/internal/retry"
)

// Repository is the sqlite-backed ListStore. IDs are small per-household
// sequential numbers computed as max()+1; racing inserts collide on the
// primary key and are retried with a fresh ID.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

var _ ListStore = (*Repository)(nil)

// CreateList inserts a new shopping list under collision retry.
func (r *Repository) CreateList(ctx context.Context, list *ShoppingList) error {
	created, err := retry.OnIDCollision(ctx, database.IsUniqueConstraint, func(attempt int) (*ShoppingList, error) {
		var id int64
		err := r.db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM shopping_lists WHERE household_id = ?`,
			list.HouseholdID,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to compute next shopping list id: %w", err)
		}
		now := time.Now().UTC()
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO shopping_lists (household_id, id, name, meal_plan_id, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			list.HouseholdID, id, list.Name, list.MealPlanID, now)
		if err != nil {
			return nil, err
		}
		list.ID = id
		list.CreatedAt = now
		return list, nil
	})
	if err != nil {
		return fmt.Errorf("failed to create shopping list: %w", err)
	}
	*list = *created
	return nil
}

// GetWithItems loads a list and all its items. Returns nil if the list does
// not exist for the household.
func (r *Repository) GetWithItems(ctx context.Context, householdID, listID int64) (*ShoppingList, error) {
	list := &ShoppingList{HouseholdID: householdID, ID: listID}
	var mealPlanID sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT name, meal_plan_id, created_at FROM shopping_lists
		 WHERE household_id = ? AND id = ?`,
		householdID, listID,
	).Scan(&list.Name, &mealPlanID, &list.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No shopping list found
		}
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}
	if mealPlanID.Valid {
		id := mealPlanID.Int64
		list.MealPlanID = &id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, quantity, unit, category, is_checked, checked_at,
		        is_manually_added, quantity_delta, source_recipes,
		        original_units, source_ingredient_ids, sort_order, version
		 FROM shopping_list_items
		 WHERE household_id = ? AND shopping_list_id = ?
		 ORDER BY id`,
		householdID, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping list items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows, householdID, listID)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shopping list items: %w", err)
	}
	return list, nil
}

// AddItem inserts an item, assigning the next per-list ID and a fresh version
// token, under collision retry.
func (r *Repository) AddItem(ctx context.Context, item *ShoppingListItem) error {
	created, err := retry.OnIDCollision(ctx, database.IsUniqueConstraint, func(attempt int) (*ShoppingListItem, error) {
		var id int64
		err := r.db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM shopping_list_items
			 WHERE household_id = ? AND shopping_list_id = ?`,
			item.HouseholdID, item.ShoppingListID,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to compute next item id: %w", err)
		}
		version := uuid.NewString()
		var delta any
		if item.QuantityDelta.Valid {
			delta = item.QuantityDelta.Decimal.String()
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO shopping_list_items (
			   household_id, shopping_list_id, id, name, quantity, unit, category,
			   is_checked, checked_at, is_manually_added, quantity_delta,
			   source_recipes, original_units, source_ingredient_ids, sort_order, version)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.HouseholdID, item.ShoppingListID, id, item.Name,
			item.Quantity.String(), item.Unit, item.Category,
			item.IsChecked, item.CheckedAt, item.IsManuallyAdded, delta,
			item.SourceRecipes, item.OriginalUnits, item.SourceIngredientIDs,
			item.SortOrder, version)
		if err != nil {
			return nil, err
		}
		item.ID = id
		item.Version = version
		return item, nil
	})
	if err != nil {
		return fmt.Errorf("failed to add shopping list item: %w", err)
	}
	*item = *created
	return nil
}

// DeleteItem removes a single item.
func (r *Repository) DeleteItem(ctx context.Context, householdID, listID, itemID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM shopping_list_items
		 WHERE household_id = ? AND shopping_list_id = ? AND id = ?`,
		householdID, listID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete shopping list item: %w", err)
	}
	return nil
}

// DeleteCheckedItems removes every checked item on the list and reports how
// many were removed.
func (r *Repository) DeleteCheckedItems(ctx context.Context, householdID, listID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM shopping_list_items
		 WHERE household_id = ? AND shopping_list_id = ? AND is_checked = 1`,
		householdID, listID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete checked items: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// GetItem loads a single item. Returns nil if it does not exist.
func (r *Repository) GetItem(ctx context.Context, householdID, listID, itemID int64) (*ShoppingListItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, quantity, unit, category, is_checked, checked_at,
		        is_manually_added, quantity_delta, source_recipes,
		        original_units, source_ingredient_ids, sort_order, version
		 FROM shopping_list_items
		 WHERE household_id = ? AND shopping_list_id = ? AND id = ?`,
		householdID, listID, itemID)

	item, err := scanItem(row, householdID, listID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Item not found
		}
		return nil, err
	}
	return item, nil
}

// UpdateItemVersioned writes the item only if the stored version still matches
// item.Version. On success the token is refreshed; false means another writer
// got there first (or the row is gone).
func (r *Repository) UpdateItemVersioned(ctx context.Context, item *ShoppingListItem) (bool, error) {
	newVersion := uuid.NewString()
	var delta any
	if item.QuantityDelta.Valid {
		delta = item.QuantityDelta.Decimal.String()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE shopping_list_items
		 SET name = ?, quantity = ?, unit = ?, category = ?, is_checked = ?,
		     checked_at = ?, is_manually_added = ?, quantity_delta = ?,
		     source_recipes = ?, original_units = ?, source_ingredient_ids = ?,
		     sort_order = ?, version = ?
		 WHERE household_id = ? AND shopping_list_id = ? AND id = ? AND version = ?`,
		item.Name, item.Quantity.String(), item.Unit, item.Category, item.IsChecked,
		item.CheckedAt, item.IsManuallyAdded, delta,
		item.SourceRecipes, item.OriginalUnits, item.SourceIngredientIDs,
		item.SortOrder, newVersion,
		item.HouseholdID, item.ShoppingListID, item.ID, item.Version)
	if err != nil {
		return false, fmt.Errorf("failed to update shopping list item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	item.Version = newVersion
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner, householdID, listID int64) (*ShoppingListItem, error) {
	item := &ShoppingListItem{HouseholdID: householdID, ShoppingListID: listID}
	var (
		quantity  string
		checkedAt sql.NullTime
		delta     sql.NullString
	)
	err := row.Scan(&item.ID, &item.Name, &quantity, &item.Unit, &item.Category,
		&item.IsChecked, &checkedAt, &item.IsManuallyAdded, &delta,
		&item.SourceRecipes, &item.OriginalUnits, &item.SourceIngredientIDs,
		&item.SortOrder, &item.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan shopping list item: %w", err)
	}

	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to parse item quantity %q: %w", quantity, err)
	}
	item.Quantity = q

	if checkedAt.Valid {
		t := checkedAt.Time
		item.CheckedAt = &t
	}
	if delta.Valid {
		d, err := decimal.NewFromString(delta.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse quantity delta %q: %w", delta.String, err)
		}
		item.QuantityDelta = decimal.NewNullDecimal(d)
	}
	return item, nil
}
