package handlers

import (
	"net/http"

	"github.com/todoshare/backend/internal/lists"
)

// ListHandler implements list, item and sub-item endpoints.
type ListHandler struct {
	Lists ListService
}

type addListRequest struct {
	Name         string `json:"listName"`
	CreatorID    string `json:"listCreatorId"`
	CreatorName  string `json:"listCreatorName"`
	ModifierID   string `json:"listModifierId"`
	ModifierName string `json:"listModifierName"`
	Mode         string `json:"listMode"`
}

type updateListRequest struct {
	Name         string `json:"listName"`
	ModifierID   string `json:"listModifierId"`
	ModifierName string `json:"listModifierName"`
	Mode         string `json:"listMode"`
}

type publicListsRequest struct {
	UserIDs stringList `json:"userIds"`
}

// AddList handles POST /lists/addList.
func (h ListHandler) AddList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addListRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	list, err := h.Lists.AddList(ctx, callerFrom(r), lists.ListInput(req))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "List created successfully", list)
}

// UpdateList handles PUT /lists/{listId}/updateList.
func (h ListHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateListRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	list, err := h.Lists.EditList(ctx, callerFrom(r), pathParam(r, "listId"), lists.ListUpdate(req))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "List details updated", list)
}

// DeleteList handles POST /lists/delete/{listId}.
func (h ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Lists.DeleteList(ctx, callerFrom(r), pathParam(r, "listId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Deleted the list successfully", nil)
}

// ListsOf handles GET /lists/view/all/{userId}.
func (h ListHandler) ListsOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	found, err := h.Lists.ListsOf(ctx, callerFrom(r), pathParam(r, "userId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Lists found and listed", found)
}

// PublicLists handles POST /lists/view/all/public/lists.
func (h ListHandler) PublicLists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req publicListsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	found, err := h.Lists.PublicLists(ctx, callerFrom(r), req.UserIDs)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "All public lists found", found)
}
