package handler

import "net/http"

type reviewRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	review, err := h.svc.Reviews.Create(r.Context(), identity(r).UserID, req.ProductID, req.Rating, req.Comment)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	reviews, err := h.svc.Reviews.List(r.Context(), productID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
