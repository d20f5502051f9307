package shopping

import (
	"context"
	"fmt"
	"time"
)

// UpdateResult reports the outcome of an optimistic-concurrency item update.
// Conflicts are an expected outcome of collaborative editing, not an error:
// Message carries a non-blocking notice for the user when one occurred.
type UpdateResult struct {
	Saved    bool   `json:"saved"`
	Conflict bool   `json:"conflict"`
	Message  string `json:"message,omitempty"`
}

const maxUpdateAttempts = 3

// ItemUpdater applies updates to shared shopping-list items using the store's
// version-token compare-and-swap, with a "checked wins" merge policy.
type ItemUpdater struct {
	lists ListStore
}

// NewItemUpdater creates an ItemUpdater.
func NewItemUpdater(lists ListStore) *ItemUpdater {
	return &ItemUpdater{lists: lists}
}

// UpdateWithConcurrency persists item, retrying up to 3 times on version
// conflicts. On each conflict the stored row is re-read and merged:
//
//   - checked merges by OR — once any member checks an item it stays checked,
//     no matter who wins the version race;
//   - name and quantity are never field-merged; the retried write keeps the
//     caller's values (last write wins) but the conflict is always reported.
//
// A stored row that disappeared mid-conflict is unrecoverable and returns
// immediately without retrying.
func (u *ItemUpdater) UpdateWithConcurrency(ctx context.Context, item *ShoppingListItem) (UpdateResult, error) {
	var conflictMessage string
	sawConflict := false

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		ok, err := u.lists.UpdateItemVersioned(ctx, item)
		if err != nil {
			return UpdateResult{}, fmt.Errorf("failed to update shopping list item: %w", err)
		}
		if ok {
			return UpdateResult{Saved: true, Conflict: sawConflict, Message: conflictMessage}, nil
		}

		sawConflict = true
		stored, err := u.lists.GetItem(ctx, item.HouseholdID, item.ShoppingListID, item.ID)
		if err != nil {
			return UpdateResult{}, fmt.Errorf("failed to re-read shopping list item: %w", err)
		}
		if stored == nil {
			return UpdateResult{
				Saved:    false,
				Conflict: true,
				Message:  "item was deleted by another user",
			}, nil
		}

		item.IsChecked = item.IsChecked || stored.IsChecked
		if item.IsChecked {
			item.CheckedAt = pickCheckedAt(item.CheckedAt, stored.CheckedAt)
		}

		if item.Name != stored.Name || !item.Quantity.Equal(stored.Quantity) {
			conflictMessage = "another family member also edited this item"
		}

		item.Version = stored.Version
	}

	return UpdateResult{
		Saved:    false,
		Conflict: true,
		Message:  "could not save changes after multiple attempts",
	}, nil
}

// pickCheckedAt keeps the proposed timestamp, falls back to the stored one,
// and only then stamps the current time.
func pickCheckedAt(proposed, stored *time.Time) *time.Time {
	if proposed != nil {
		return proposed
	}
	if stored != nil {
		return stored
	}
	now := time.Now().UTC()
	return &now
}
