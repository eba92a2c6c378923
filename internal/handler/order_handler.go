package handler

import "net/http"

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Orders.CreateFromCart(r.Context(), identity(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.List(r.Context(), identity(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	order, err := h.svc.Orders.Get(r.Context(), identity(r), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
