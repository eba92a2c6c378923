package handler

import (
	"fmt"
	"net/http"

	"fsanano/mini-shop/internal/model"
)

type cartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.Carts.GetCart(r.Context(), identity(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	item, err := h.svc.Carts.AddItem(r.Context(), identity(r).UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UpdateCartItem takes the new quantity from the query string.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if r.URL.Query().Get("quantity") == "" {
		writeServiceError(w, r, fmt.Errorf("%w: quantity is required", model.ErrInvalidInput))
		return
	}
	quantity, err := queryInt(r, "quantity", 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	item, err := h.svc.Carts.UpdateItemQuantity(r.Context(), identity(r), itemID, quantity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.svc.Carts.RemoveItem(r.Context(), identity(r), itemID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Cart item deleted successfully"})
}
