package lists

import (
	"context"
	"errors"
	"strings"

	"github.com/todoshare/backend/internal/apperr"
	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/models"
)

// RequireRead loads listID and checks the caller may view it.
func (s *Service) RequireRead(ctx context.Context, caller auth.Identity, listID string) (models.List, error) {
	return s.require(ctx, caller, listID, "you do not have access to this list")
}

// RequireWrite loads listID and checks the caller may change it. Friends of
// the creator share write access to public lists.
func (s *Service) RequireWrite(ctx context.Context, caller auth.Identity, listID string) (models.List, error) {
	return s.require(ctx, caller, listID, "you cannot modify this list")
}

func (s *Service) require(ctx context.Context, caller auth.Identity, listID, denied string) (models.List, error) {
	if caller.IsZero() {
		return models.List{}, apperr.Unauthorized("authentication required")
	}

	list, err := s.load(ctx, listID)
	if err != nil {
		return models.List{}, err
	}

	ok, err := s.canAccess(ctx, caller, list)
	if err != nil {
		return models.List{}, err
	}
	if !ok {
		return models.List{}, apperr.Forbidden(denied)
	}
	return list, nil
}

func (s *Service) canAccess(ctx context.Context, caller auth.Identity, list models.List) (bool, error) {
	if caller.Is(list.CreatorID) {
		return true, nil
	}
	if !list.IsPublic() {
		return false, nil
	}
	ok, err := s.friends.AreFriends(ctx, list.CreatorID, caller.UserID)
	if err != nil {
		return false, apperr.Internal("failed to check friendship", err)
	}
	return ok, nil
}

func (s *Service) load(ctx context.Context, listID string) (models.List, error) {
	listID = strings.TrimSpace(listID)
	if listID == "" {
		return models.List{}, apperr.Validation("listId is required")
	}

	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.List{}, apperr.NotFound("list not found")
		}
		return models.List{}, apperr.Internal("failed to load list", err)
	}
	return list, nil
}
