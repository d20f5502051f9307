package shopping

import (
	"context"
	"fmt"

	"household-planner/internal/mealplan"
)

// In-memory store fakes implementing the same contracts as the sqlite
// repositories, keyed by household so tenant isolation is observable.

type planKey struct {
	householdID int64
	planID      int64
}

type fakeMealPlanStore struct {
	plans map[planKey]*mealplan.MealPlan
}

func newFakeMealPlanStore() *fakeMealPlanStore {
	return &fakeMealPlanStore{plans: map[planKey]*mealplan.MealPlan{}}
}

func (s *fakeMealPlanStore) put(plan *mealplan.MealPlan) {
	s.plans[planKey{plan.HouseholdID, plan.ID}] = plan
}

func (s *fakeMealPlanStore) GetWithEntries(ctx context.Context, householdID, planID int64) (*mealplan.MealPlan, error) {
	return s.plans[planKey{householdID, planID}], nil
}

type listKey struct {
	householdID int64
	listID      int64
}

type fakeListStore struct {
	nextListID int64
	nextItemID int64
	version    int

	lists map[listKey]*ShoppingList
	items map[listKey]map[int64]*ShoppingListItem

	// alwaysConflict makes every versioned update fail its CAS.
	alwaysConflict bool
}

func newFakeListStore() *fakeListStore {
	return &fakeListStore{
		lists: map[listKey]*ShoppingList{},
		items: map[listKey]map[int64]*ShoppingListItem{},
	}
}

func (s *fakeListStore) newVersion() string {
	s.version++
	return fmt.Sprintf("v%d", s.version)
}

func (s *fakeListStore) CreateList(ctx context.Context, list *ShoppingList) error {
	s.nextListID++
	list.ID = s.nextListID
	key := listKey{list.HouseholdID, list.ID}
	stored := *list
	s.lists[key] = &stored
	s.items[key] = map[int64]*ShoppingListItem{}
	return nil
}

func (s *fakeListStore) GetWithItems(ctx context.Context, householdID, listID int64) (*ShoppingList, error) {
	key := listKey{householdID, listID}
	stored, ok := s.lists[key]
	if !ok {
		return nil, nil
	}
	list := *stored
	list.Items = nil
	for _, item := range s.items[key] {
		list.Items = append(list.Items, *item)
	}
	return &list, nil
}

func (s *fakeListStore) AddItem(ctx context.Context, item *ShoppingListItem) error {
	key := listKey{item.HouseholdID, item.ShoppingListID}
	if _, ok := s.items[key]; !ok {
		s.items[key] = map[int64]*ShoppingListItem{}
	}
	s.nextItemID++
	item.ID = s.nextItemID
	item.Version = s.newVersion()
	stored := *item
	s.items[key][item.ID] = &stored
	return nil
}

func (s *fakeListStore) DeleteItem(ctx context.Context, householdID, listID, itemID int64) error {
	delete(s.items[listKey{householdID, listID}], itemID)
	return nil
}

func (s *fakeListStore) DeleteCheckedItems(ctx context.Context, householdID, listID int64) (int64, error) {
	key := listKey{householdID, listID}
	var removed int64
	for id, item := range s.items[key] {
		if item.IsChecked {
			delete(s.items[key], id)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeListStore) GetItem(ctx context.Context, householdID, listID, itemID int64) (*ShoppingListItem, error) {
	item, ok := s.items[listKey{householdID, listID}][itemID]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (s *fakeListStore) UpdateItemVersioned(ctx context.Context, item *ShoppingListItem) (bool, error) {
	if s.alwaysConflict {
		return false, nil
	}
	stored, ok := s.items[listKey{item.HouseholdID, item.ShoppingListID}][item.ID]
	if !ok || stored.Version != item.Version {
		return false, nil
	}
	item.Version = s.newVersion()
	updated := *item
	s.items[listKey{item.HouseholdID, item.ShoppingListID}][item.ID] = &updated
	return true, nil
}
