package handler

import (
	"net/http"

	"fsanano/mini-shop/internal/service"
)

type addressRequest struct {
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

func (req addressRequest) input() service.AddressInput {
	return service.AddressInput{
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
}

func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.svc.Addresses.List(r.Context(), identity(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addresses)
}

func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	address, err := h.svc.Addresses.Create(r.Context(), identity(r), req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, address)
}

func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	addressID, err := pathID(r, "addressID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req addressRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	address, err := h.svc.Addresses.Update(r.Context(), identity(r), addressID, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, address)
}

func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	addressID, err := pathID(r, "addressID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.svc.Addresses.Delete(r.Context(), identity(r), addressID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Address deleted successfully"})
}
