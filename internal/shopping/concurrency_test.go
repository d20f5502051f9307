package shopping

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func seedItem(t *testing.T, lists *fakeListStore) *ShoppingListItem {
	t.Helper()
	ctx := context.Background()
	list := &ShoppingList{HouseholdID: 1, Name: "Groceries"}
	if err := lists.CreateList(ctx, list); err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	item := &ShoppingListItem{
		HouseholdID:    1,
		ShoppingListID: list.ID,
		Name:           "milk",
		Quantity:       decimal.NewFromInt(2),
		Unit:           "cup",
		Category:       "Dairy",
	}
	if err := lists.AddItem(ctx, item); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	copied := *item
	return &copied
}

func TestUpdateWithConcurrency(t *testing.T) {
	ctx := context.Background()

	t.Run("CleanUpdate", func(t *testing.T) {
		lists := newFakeListStore()
		updater := NewItemUpdater(lists)
		item := seedItem(t, lists)

		item.IsChecked = true
		result, err := updater.UpdateWithConcurrency(ctx, item)
		if err != nil {
			t.Fatalf("UpdateWithConcurrency failed: %v", err)
		}
		if !result.Saved || result.Conflict {
			t.Errorf("Expected clean save, got %+v", result)
		}
	})

	t.Run("CheckedWins", func(t *testing.T) {
		lists := newFakeListStore()
		updater := NewItemUpdater(lists)
		mine := seedItem(t, lists)

		// Another member checks the item first; our copy is now stale.
		theirs, _ := lists.GetItem(ctx, 1, mine.ShoppingListID, mine.ID)
		theirs.IsChecked = true
		checkedAt := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
		theirs.CheckedAt = &checkedAt
		if ok, _ := lists.UpdateItemVersioned(ctx, theirs); !ok {
			t.Fatal("Failed to stage concurrent write")
		}

		// We try to uncheck with the stale version.
		mine.IsChecked = false
		result, err := updater.UpdateWithConcurrency(ctx, mine)
		if err != nil {
			t.Fatalf("UpdateWithConcurrency failed: %v", err)
		}
		if !result.Saved {
			t.Fatalf("Expected save after merge retry, got %+v", result)
		}
		if !result.Conflict {
			t.Error("Expected conflict to be reported")
		}

		stored, _ := lists.GetItem(ctx, 1, mine.ShoppingListID, mine.ID)
		if !stored.IsChecked {
			t.Error("Expected checked to win the race and stay set")
		}
		if stored.CheckedAt == nil || !stored.CheckedAt.Equal(checkedAt) {
			t.Errorf("Expected stored checkedAt preserved, got %v", stored.CheckedAt)
		}
	})

	t.Run("ScalarEditConflictReported", func(t *testing.T) {
		lists := newFakeListStore()
		updater := NewItemUpdater(lists)
		mine := seedItem(t, lists)

		theirs, _ := lists.GetItem(ctx, 1, mine.ShoppingListID, mine.ID)
		theirs.Quantity = decimal.NewFromInt(5)
		if ok, _ := lists.UpdateItemVersioned(ctx, theirs); !ok {
			t.Fatal("Failed to stage concurrent write")
		}

		mine.Quantity = decimal.NewFromInt(3)
		result, err := updater.UpdateWithConcurrency(ctx, mine)
		if err != nil {
			t.Fatalf("UpdateWithConcurrency failed: %v", err)
		}
		if !result.Saved || !result.Conflict {
			t.Fatalf("Expected saved-with-conflict, got %+v", result)
		}
		if result.Message != "another family member also edited this item" {
			t.Errorf("Unexpected conflict message %q", result.Message)
		}

		// No field-level merge on scalars: the retried write wins.
		stored, _ := lists.GetItem(ctx, 1, mine.ShoppingListID, mine.ID)
		if !stored.Quantity.Equal(decimal.NewFromInt(3)) {
			t.Errorf("Expected last write to win with quantity 3, got %s", stored.Quantity)
		}
	})

	t.Run("DeletedItemShortCircuits", func(t *testing.T) {
		lists := newFakeListStore()
		updater := NewItemUpdater(lists)
		mine := seedItem(t, lists)

		if err := lists.DeleteItem(ctx, 1, mine.ShoppingListID, mine.ID); err != nil {
			t.Fatalf("DeleteItem failed: %v", err)
		}

		mine.IsChecked = true
		result, err := updater.UpdateWithConcurrency(ctx, mine)
		if err != nil {
			t.Fatalf("UpdateWithConcurrency failed: %v", err)
		}
		if result.Saved || !result.Conflict {
			t.Fatalf("Expected unsaved conflict, got %+v", result)
		}
		if result.Message != "item was deleted by another user" {
			t.Errorf("Unexpected message %q", result.Message)
		}
	})

	t.Run("ExhaustsAfterThreeAttempts", func(t *testing.T) {
		lists := newFakeListStore()
		updater := NewItemUpdater(lists)
		mine := seedItem(t, lists)

		lists.alwaysConflict = true
		result, err := updater.UpdateWithConcurrency(ctx, mine)
		if err != nil {
			t.Fatalf("UpdateWithConcurrency failed: %v", err)
		}
		if result.Saved {
			t.Error("Expected save to fail after exhausting attempts")
		}
		if result.Message != "could not save changes after multiple attempts" {
			t.Errorf("Unexpected message %q", result.Message)
		}
	})

	t.Run("CheckedAtDefaultsToNow", func(t *testing.T) {
		lists := newFakeListStore()
		updater := NewItemUpdater(lists)
		mine := seedItem(t, lists)

		// Stale write with neither side carrying a timestamp.
		theirs, _ := lists.GetItem(ctx, 1, mine.ShoppingListID, mine.ID)
		theirs.IsChecked = true
		if ok, _ := lists.UpdateItemVersioned(ctx, theirs); !ok {
			t.Fatal("Failed to stage concurrent write")
		}

		before := time.Now().UTC()
		mine.IsChecked = false
		result, err := updater.UpdateWithConcurrency(ctx, mine)
		if err != nil {
			t.Fatalf("UpdateWithConcurrency failed: %v", err)
		}
		if !result.Saved {
			t.Fatalf("Expected save, got %+v", result)
		}

		stored, _ := lists.GetItem(ctx, 1, mine.ShoppingListID, mine.ID)
		if stored.CheckedAt == nil {
			t.Fatal("Expected checkedAt to be stamped")
		}
		if stored.CheckedAt.Before(before.Add(-time.Second)) {
			t.Errorf("Expected a recent checkedAt, got %v", stored.CheckedAt)
		}
	})
}
