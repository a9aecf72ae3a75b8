package lists

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/todoshare/backend/internal/apperr"
	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/logging"
	"github.com/todoshare/backend/internal/models"
)

// ItemInput describes a new item or sub-item.
type ItemInput struct {
	ListID       string
	Name         string
	CreatorID    string
	CreatorName  string
	ModifierID   string
	ModifierName string
}

// ItemUpdate edits an item or sub-item. Nil fields are left unchanged.
type ItemUpdate struct {
	SubItemID    string
	Name         *string
	Done         *bool
	ModifierID   string
	ModifierName string
}

// AddItem appends an item to a list the caller can write.
func (s *Service) AddItem(ctx context.Context, caller auth.Identity, in ItemInput) (models.Item, error) {
	ctx, span := logging.StartSpan(ctx, "items.add")
	defer span.End()

	in, err := s.checkItemInput(caller, in, "item")
	if err != nil {
		return models.Item{}, err
	}
	if _, err := s.RequireWrite(ctx, caller, in.ListID); err != nil {
		return models.Item{}, err
	}

	now := s.nowFunc()
	item := models.Item{
		ID:           uuid.NewString(),
		ListID:       strings.TrimSpace(in.ListID),
		Name:         in.Name,
		CreatorID:    in.CreatorID,
		CreatorName:  in.CreatorName,
		ModifierID:   in.ModifierID,
		ModifierName: in.ModifierName,
		CreatedAt:    now,
		ModifiedAt:   now,
		SubItems:     []models.SubItem{},
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.Item{}, apperr.NotFound("list not found")
		}
		return models.Item{}, apperr.Internal("failed to create item", err)
	}
	return item, nil
}

// EditItem renames an item or toggles its done flag.
func (s *Service) EditItem(ctx context.Context, caller auth.Identity, itemID string, in ItemUpdate) (models.Item, error) {
	ctx, span := logging.StartSpan(ctx, "items.edit")
	defer span.End()

	item, err := s.writableItem(ctx, caller, itemID, in)
	if err != nil {
		return models.Item{}, err
	}

	if in.Name != nil {
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.Done != nil {
		item.Done = *in.Done
	}
	item.ModifierID = strings.TrimSpace(in.ModifierID)
	item.ModifierName = strings.TrimSpace(in.ModifierName)
	item.ModifiedAt = s.nowFunc()

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return models.Item{}, itemStoreError(err, "failed to update item")
	}
	return item, nil
}

// DeleteItem removes an item and its sub-items.
func (s *Service) DeleteItem(ctx context.Context, caller auth.Identity, itemID string) error {
	ctx, span := logging.StartSpan(ctx, "items.delete")
	defer span.End()

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return err
	}
	if _, err := s.RequireWrite(ctx, caller, item.ListID); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, item.ID); err != nil {
		return itemStoreError(err, "failed to delete item")
	}
	return nil
}

// Items returns the items of a list the caller can read.
func (s *Service) Items(ctx context.Context, caller auth.Identity, listID string) ([]models.Item, error) {
	list, err := s.RequireRead(ctx, caller, listID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ItemsByList(ctx, list.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load items", err)
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// Item returns a single item with its sub-items.
func (s *Service) Item(ctx context.Context, caller auth.Identity, itemID string) (models.Item, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return models.Item{}, err
	}
	if _, err := s.RequireRead(ctx, caller, item.ListID); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

// AddSubItem appends a sub-item to itemID and returns the updated item.
func (s *Service) AddSubItem(ctx context.Context, caller auth.Identity, itemID string, in ItemInput) (models.Item, error) {
	ctx, span := logging.StartSpan(ctx, "items.add_sub_item")
	defer span.End()

	in, err := s.checkItemInput(caller, in, "subItem")
	if err != nil {
		return models.Item{}, err
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return models.Item{}, err
	}
	if _, err := s.RequireWrite(ctx, caller, item.ListID); err != nil {
		return models.Item{}, err
	}

	now := s.nowFunc()
	sub := models.SubItem{
		ID:           uuid.NewString(),
		ItemID:       item.ID,
		Name:         in.Name,
		CreatorID:    in.CreatorID,
		CreatorName:  in.CreatorName,
		ModifierID:   in.ModifierID,
		ModifierName: in.ModifierName,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	if err := s.store.CreateSubItem(ctx, sub); err != nil {
		return models.Item{}, itemStoreError(err, "failed to add sub item")
	}

	item.SubItems = append(item.SubItems, sub)
	return item, nil
}

// EditSubItem renames or toggles a sub-item of itemID.
func (s *Service) EditSubItem(ctx context.Context, caller auth.Identity, itemID string, in ItemUpdate) (models.Item, error) {
	ctx, span := logging.StartSpan(ctx, "items.edit_sub_item")
	defer span.End()

	subItemID := strings.TrimSpace(in.SubItemID)
	if subItemID == "" {
		return models.Item{}, apperr.Validation("subItemId is required")
	}

	item, err := s.writableItem(ctx, caller, itemID, in)
	if err != nil {
		return models.Item{}, err
	}

	idx := subItemIndex(item, subItemID)
	if idx < 0 {
		return models.Item{}, apperr.NotFound("sub item not found")
	}

	sub := item.SubItems[idx]
	if in.Name != nil {
		sub.Name = strings.TrimSpace(*in.Name)
	}
	if in.Done != nil {
		sub.Done = *in.Done
	}
	sub.ModifierID = strings.TrimSpace(in.ModifierID)
	sub.ModifierName = strings.TrimSpace(in.ModifierName)
	sub.ModifiedAt = s.nowFunc()

	if err := s.store.UpdateSubItem(ctx, sub); err != nil {
		return models.Item{}, itemStoreError(err, "failed to update sub item")
	}

	item.SubItems[idx] = sub
	return item, nil
}

// DeleteSubItem removes a sub-item of itemID.
func (s *Service) DeleteSubItem(ctx context.Context, caller auth.Identity, itemID, subItemID string) (models.Item, error) {
	ctx, span := logging.StartSpan(ctx, "items.delete_sub_item")
	defer span.End()

	subItemID = strings.TrimSpace(subItemID)
	if subItemID == "" {
		return models.Item{}, apperr.Validation("subItemId is required")
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return models.Item{}, err
	}
	if _, err := s.RequireWrite(ctx, caller, item.ListID); err != nil {
		return models.Item{}, err
	}

	idx := subItemIndex(item, subItemID)
	if idx < 0 {
		return models.Item{}, apperr.NotFound("sub item not found")
	}
	if err := s.store.DeleteSubItem(ctx, item.ID, subItemID); err != nil {
		return models.Item{}, itemStoreError(err, "failed to delete sub item")
	}

	item.SubItems = append(item.SubItems[:idx], item.SubItems[idx+1:]...)
	return item, nil
}

func (s *Service) checkItemInput(caller auth.Identity, in ItemInput, field string) (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.CreatorID = strings.TrimSpace(in.CreatorID)
	in.CreatorName = strings.TrimSpace(in.CreatorName)
	in.ModifierID = strings.TrimSpace(in.ModifierID)
	in.ModifierName = strings.TrimSpace(in.ModifierName)

	if in.Name == "" || in.CreatorID == "" || in.CreatorName == "" {
		return in, apperr.Validation(field + "Name, " + field + "CreatorId and " + field + "CreatorName are required")
	}
	if in.ModifierID == "" {
		in.ModifierID, in.ModifierName = in.CreatorID, in.CreatorName
	}
	if !caller.Is(in.CreatorID) || !caller.Is(in.ModifierID) {
		return in, apperr.Forbidden("creator and modifier must be the caller")
	}
	return in, nil
}

func (s *Service) writableItem(ctx context.Context, caller auth.Identity, itemID string, in ItemUpdate) (models.Item, error) {
	if in.Name == nil && in.Done == nil {
		return models.Item{}, apperr.Validation("nothing to update")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return models.Item{}, apperr.Validation("name must not be empty")
	}
	modifierID := strings.TrimSpace(in.ModifierID)
	if modifierID == "" || strings.TrimSpace(in.ModifierName) == "" {
		return models.Item{}, apperr.Validation("modifier id and name are required")
	}
	if !caller.Is(modifierID) {
		return models.Item{}, apperr.Forbidden("modifier must be the caller")
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return models.Item{}, err
	}
	if _, err := s.RequireWrite(ctx, caller, item.ListID); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

func (s *Service) loadItem(ctx context.Context, itemID string) (models.Item, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return models.Item{}, apperr.Validation("itemId is required")
	}

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return models.Item{}, itemStoreError(err, "failed to load item")
	}
	if item.SubItems == nil {
		item.SubItems = []models.SubItem{}
	}
	return item, nil
}

func subItemIndex(item models.Item, subItemID string) int {
	for i, sub := range item.SubItems {
		if sub.ID == subItemID {
			return i
		}
	}
	return -1
}

func itemStoreError(err error, msg string) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperr.NotFound("item not found")
	}
	return apperr.Internal(msg, err)
}
