package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/todoshare/backend/internal/history"
)

// HistoryHandler implements the history endpoints.
type HistoryHandler struct {
	History HistoryService
}

type addHistoryRequest struct {
	ListID     string          `json:"listId"`
	ItemID     string          `json:"itemId"`
	SubItemID  string          `json:"subItemId"`
	Key        string          `json:"key"`
	ItemValues json.RawMessage `json:"itemValues"`
}

// Add handles POST /history/addHistory.
func (h HistoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addHistoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	entry, err := h.History.Add(ctx, callerFrom(r), history.AddInput(req))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "History added", entry)
}

// List handles POST /history/getHistory.
func (h HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		ListID string `json:"listId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	entries, err := h.History.List(ctx, callerFrom(r), req.ListID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "History found", entries)
}

// Delete handles POST /history/deleteHistory.
func (h HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		HistoryID string `json:"historyId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.History.Delete(ctx, callerFrom(r), req.HistoryID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "History deleted", nil)
}
