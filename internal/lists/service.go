// Package lists manages to-do lists, their items and sub-items. A list is
// visible to its creator, and to the creator's friends when its mode is
// public.
package lists

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/todoshare/backend/internal/apperr"
	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/logging"
	"github.com/todoshare/backend/internal/models"
)

// ListInput describes a new list.
type ListInput struct {
	Name         string
	CreatorID    string
	CreatorName  string
	ModifierID   string
	ModifierName string
	Mode         string
}

// ListUpdate describes an edit to an existing list.
type ListUpdate struct {
	Name         string
	ModifierID   string
	ModifierName string
	Mode         string
}

// Service implements list, item and sub-item operations.
type Service struct {
	store    Store
	friends  Friendships
	archiver Archiver
	nowFunc  func() time.Time
}

// NewService constructs a Service. archiver may be nil.
func NewService(store Store, friends Friendships, archiver Archiver) *Service {
	return &Service{
		store:    store,
		friends:  friends,
		archiver: archiver,
		nowFunc:  func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the clock used for timestamps.
func (s *Service) WithNowFunc(now func() time.Time) *Service {
	s.nowFunc = now
	return s
}

// AddList creates a list owned by the caller.
func (s *Service) AddList(ctx context.Context, caller auth.Identity, in ListInput) (models.List, error) {
	ctx, span := logging.StartSpan(ctx, "lists.add")
	defer span.End()

	name := strings.TrimSpace(in.Name)
	creatorID := strings.TrimSpace(in.CreatorID)
	creatorName := strings.TrimSpace(in.CreatorName)
	if name == "" || creatorID == "" || creatorName == "" {
		return models.List{}, apperr.Validation("listName, listCreatorId and listCreatorName are required")
	}
	if !caller.Is(creatorID) {
		return models.List{}, apperr.Forbidden("lists can only be created for yourself")
	}
	mode, err := normalizeMode(in.Mode)
	if err != nil {
		return models.List{}, err
	}

	modifierID, modifierName := strings.TrimSpace(in.ModifierID), strings.TrimSpace(in.ModifierName)
	if modifierID == "" {
		modifierID, modifierName = creatorID, creatorName
	}
	if !caller.Is(modifierID) {
		return models.List{}, apperr.Forbidden("listModifierId must be the caller")
	}

	now := s.nowFunc()
	list := models.List{
		ID:           uuid.NewString(),
		Name:         name,
		CreatorID:    creatorID,
		CreatorName:  creatorName,
		ModifierID:   modifierID,
		ModifierName: modifierName,
		Mode:         mode,
		CreatedAt:    now,
		ModifiedAt:   now,
	}

	if err := s.store.CreateList(ctx, list); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.List{}, apperr.NotFound("creator not found")
		}
		return models.List{}, apperr.Internal("failed to create list", err)
	}

	logging.FromContext(ctx).Info("list created", "listId", list.ID, "creatorId", creatorID)
	return list, nil
}

// EditList renames a list or changes its mode.
func (s *Service) EditList(ctx context.Context, caller auth.Identity, listID string, in ListUpdate) (models.List, error) {
	ctx, span := logging.StartSpan(ctx, "lists.edit")
	defer span.End()

	name := strings.TrimSpace(in.Name)
	modifierID := strings.TrimSpace(in.ModifierID)
	modifierName := strings.TrimSpace(in.ModifierName)
	if name == "" || modifierID == "" || modifierName == "" {
		return models.List{}, apperr.Validation("listName, listModifierId and listModifierName are required")
	}
	if !caller.Is(modifierID) {
		return models.List{}, apperr.Forbidden("listModifierId must be the caller")
	}

	list, err := s.RequireWrite(ctx, caller, listID)
	if err != nil {
		return models.List{}, err
	}

	if strings.TrimSpace(in.Mode) != "" {
		mode, err := normalizeMode(in.Mode)
		if err != nil {
			return models.List{}, err
		}
		if mode != list.Mode && list.CreatorID != caller.UserID {
			return models.List{}, apperr.Forbidden("only the creator can change the list mode")
		}
		list.Mode = mode
	}

	list.Name = name
	list.ModifierID = modifierID
	list.ModifierName = modifierName
	list.ModifiedAt = s.nowFunc()

	if err := s.store.UpdateList(ctx, list); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.List{}, apperr.NotFound("list not found")
		}
		return models.List{}, apperr.Internal("failed to update list", err)
	}
	return list, nil
}

// DeleteList removes a list created by the caller together with its items
// and history. A snapshot is queued for archival when an archiver is set.
func (s *Service) DeleteList(ctx context.Context, caller auth.Identity, listID string) error {
	ctx, span := logging.StartSpan(ctx, "lists.delete")
	defer span.End()

	list, err := s.load(ctx, listID)
	if err != nil {
		return err
	}
	if !caller.Is(list.CreatorID) {
		return apperr.Forbidden("only the creator can delete a list")
	}

	snapshot, err := s.store.DeleteList(ctx, list.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.NotFound("list not found")
		}
		return apperr.Internal("failed to delete list", err)
	}

	logger := logging.FromContext(ctx)
	logger.Info("list deleted", "listId", list.ID, "items", len(snapshot.Items))

	if s.archiver != nil {
		snapshot.DeletedBy = caller.UserID
		snapshot.DeletedAt = s.nowFunc()
		if err := s.archiver.Enqueue(ctx, snapshot); err != nil {
			logger.Warn("list archive skipped", "listId", list.ID, "error", err)
		}
	}
	return nil
}

// ListsOf returns every list created by userID. Only the user may ask.
func (s *Service) ListsOf(ctx context.Context, caller auth.Identity, userID string) ([]models.List, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if !caller.Is(userID) {
		return nil, apperr.Forbidden("cannot view another user's lists")
	}

	lists, err := s.store.ListsByCreator(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load lists", err)
	}
	if lists == nil {
		lists = []models.List{}
	}
	return lists, nil
}

// PublicLists returns the public lists of userIDs. Users who are neither the
// caller nor one of the caller's friends are skipped.
func (s *Service) PublicLists(ctx context.Context, caller auth.Identity, userIDs []string) ([]models.List, error) {
	if caller.IsZero() {
		return nil, apperr.Unauthorized("authentication required")
	}
	if len(userIDs) == 0 {
		return nil, apperr.Validation("userIds is required")
	}

	allowed := make([]string, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if id != caller.UserID {
			ok, err := s.friends.AreFriends(ctx, caller.UserID, id)
			if err != nil {
				return nil, apperr.Internal("failed to check friendship", err)
			}
			if !ok {
				continue
			}
		}
		allowed = append(allowed, id)
	}

	if len(allowed) == 0 {
		return []models.List{}, nil
	}

	lists, err := s.store.PublicListsByCreators(ctx, allowed)
	if err != nil {
		return nil, apperr.Internal("failed to load public lists", err)
	}
	if lists == nil {
		lists = []models.List{}
	}
	return lists, nil
}

func normalizeMode(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", models.ListModePrivate:
		return models.ListModePrivate, nil
	case models.ListModePublic:
		return models.ListModePublic, nil
	default:
		return "", apperr.Validation("listMode must be public or private")
	}
}
