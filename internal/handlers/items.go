package handlers

import (
	"net/http"

	"github.com/todoshare/backend/internal/lists"
)

type addItemRequest struct {
	ListID       string `json:"listId"`
	Name         string `json:"itemName"`
	CreatorID    string `json:"itemCreatorId"`
	CreatorName  string `json:"itemCreatorName"`
	ModifierID   string `json:"itemModifierId"`
	ModifierName string `json:"itemModifierName"`
}

type editItemRequest struct {
	Name         *string `json:"itemName"`
	Done         *bool   `json:"itemDone"`
	ModifierID   string  `json:"itemModifierId"`
	ModifierName string  `json:"itemModifierName"`
}

type addSubItemRequest struct {
	Name         string `json:"subItemName"`
	CreatorID    string `json:"subItemCreatorId"`
	CreatorName  string `json:"subItemCreatorName"`
	ModifierID   string `json:"subItemModifierId"`
	ModifierName string `json:"subItemModifierName"`
}

type editSubItemRequest struct {
	SubItemID    string  `json:"subItemId"`
	Name         *string `json:"subItemName"`
	Done         *bool   `json:"subItemDone"`
	ModifierID   string  `json:"subItemModifierId"`
	ModifierName string  `json:"subItemModifierName"`
}

type deleteSubItemRequest struct {
	SubItemID string `json:"subItemId"`
}

// AddItem handles POST /items/additem.
func (h ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	item, err := h.Lists.AddItem(ctx, callerFrom(r), lists.ItemInput(req))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Item created", item)
}

// EditItem handles PUT /items/edititem/{itemId}.
func (h ListHandler) EditItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req editItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	item, err := h.Lists.EditItem(ctx, callerFrom(r), pathParam(r, "itemId"), lists.ItemUpdate{
		Name:         req.Name,
		Done:         req.Done,
		ModifierID:   req.ModifierID,
		ModifierName: req.ModifierName,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Item details updated", item)
}

// DeleteItem handles POST /items/delete/{itemId}.
func (h ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Lists.DeleteItem(ctx, callerFrom(r), pathParam(r, "itemId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Deleted the item successfully", nil)
}

// Items handles GET /items/view/all/{listId}.
func (h ListHandler) Items(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.Lists.Items(ctx, callerFrom(r), pathParam(r, "listId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Items found and listed", items)
}

// ItemDetails handles GET /items/{itemId}/details.
func (h ListHandler) ItemDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, err := h.Lists.Item(ctx, callerFrom(r), pathParam(r, "itemId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Item details found", item)
}

// AddSubItem handles PUT /items/addSubItem/{itemId}.
func (h ListHandler) AddSubItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addSubItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	item, err := h.Lists.AddSubItem(ctx, callerFrom(r), pathParam(r, "itemId"), lists.ItemInput{
		Name:         req.Name,
		CreatorID:    req.CreatorID,
		CreatorName:  req.CreatorName,
		ModifierID:   req.ModifierID,
		ModifierName: req.ModifierName,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Sub item added successfully", item)
}

// UpdateSubItem handles PUT /items/{itemId}/updateSubItem.
func (h ListHandler) UpdateSubItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req editSubItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	item, err := h.Lists.EditSubItem(ctx, callerFrom(r), pathParam(r, "itemId"), lists.ItemUpdate(req))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Sub item updated successfully", item)
}

// DeleteSubItem handles PUT /items/deleteSubItem/{itemId}.
func (h ListHandler) DeleteSubItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req deleteSubItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	item, err := h.Lists.DeleteSubItem(ctx, callerFrom(r), pathParam(r, "itemId"), req.SubItemID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondOK(ctx, w, "Sub item deleted successfully", item)
}
