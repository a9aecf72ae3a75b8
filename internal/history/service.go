// Package history records list changes so clients can offer undo.
package history

import (
	"context"
	"encoding/json"
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

// Store persists history entries.
type Store interface {
	Add(ctx context.Context, entry models.History) error
	Get(ctx context.Context, historyID string) (models.History, error)
	Delete(ctx context.Context, historyID string) error
	// ByList returns the entries of listID, newest first.
	ByList(ctx context.Context, listID string) ([]models.History, error)
}

// ListAccess checks a caller's rights on a list.
type ListAccess interface {
	RequireRead(ctx context.Context, caller auth.Identity, listID string) (models.List, error)
	RequireWrite(ctx context.Context, caller auth.Identity, listID string) (models.List, error)
}

// AddInput describes a history entry.
type AddInput struct {
	ListID     string
	ItemID     string
	SubItemID  string
	Key        string
	ItemValues json.RawMessage
}

// Service implements history operations.
type Service struct {
	store   Store
	access  ListAccess
	nowFunc func() time.Time
}

// NewService constructs a Service.
func NewService(store Store, access ListAccess) *Service {
	return &Service{store: store, access: access, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// WithNowFunc overrides the clock used for timestamps.
func (s *Service) WithNowFunc(now func() time.Time) *Service {
	s.nowFunc = now
	return s
}

// Add records an entry against a list the caller can write.
func (s *Service) Add(ctx context.Context, caller auth.Identity, in AddInput) (models.History, error) {
	ctx, span := logging.StartSpan(ctx, "history.add")
	defer span.End()

	key := strings.TrimSpace(in.Key)
	if strings.TrimSpace(in.ListID) == "" || key == "" {
		return models.History{}, apperr.Validation("listId and key are required")
	}
	if len(in.ItemValues) > 0 && !json.Valid(in.ItemValues) {
		return models.History{}, apperr.Validation("itemValues must be valid JSON")
	}

	list, err := s.access.RequireWrite(ctx, caller, in.ListID)
	if err != nil {
		return models.History{}, err
	}

	entry := models.History{
		ID:         uuid.NewString(),
		ListID:     list.ID,
		ItemID:     strings.TrimSpace(in.ItemID),
		SubItemID:  strings.TrimSpace(in.SubItemID),
		Key:        key,
		ItemValues: in.ItemValues,
		CreatedAt:  s.nowFunc(),
	}
	if err := s.store.Add(ctx, entry); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.History{}, apperr.NotFound("list not found")
		}
		return models.History{}, apperr.Internal("failed to add history", err)
	}
	return entry, nil
}

// List returns the entries of a list the caller can read, newest first.
func (s *Service) List(ctx context.Context, caller auth.Identity, listID string) ([]models.History, error) {
	list, err := s.access.RequireRead(ctx, caller, listID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ByList(ctx, list.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load history", err)
	}
	if entries == nil {
		entries = []models.History{}
	}
	return entries, nil
}

// Delete removes a single entry, typically after the client undid it.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, historyID string) error {
	historyID = strings.TrimSpace(historyID)
	if historyID == "" {
		return apperr.Validation("historyId is required")
	}

	entry, err := s.store.Get(ctx, historyID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.NotFound("history not found")
		}
		return apperr.Internal("failed to load history", err)
	}
	if _, err := s.access.RequireWrite(ctx, caller, entry.ListID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, historyID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.NotFound("history not found")
		}
		return apperr.Internal("failed to delete history", err)
	}
	return nil
}
