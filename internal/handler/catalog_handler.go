package handler

import (
	"net/http"
	"strconv"

	"fsanano/mini-shop/internal/service"

	"github.com/shopspring/decimal"
)

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type productRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0,lte=2147483647"`
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
}

func (req productRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Catalog.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	category, err := h.svc.Catalog.CreateCategory(r.Context(), identity(r), req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	products, err := h.svc.Catalog.ListProducts(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) ListProductsByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "categoryID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	products, err := h.svc.Catalog.ListProductsByCategory(r.Context(), categoryID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	product, err := h.svc.Catalog.GetProduct(r.Context(), productID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	product, err := h.svc.Catalog.CreateProduct(r.Context(), identity(r), req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/products/"+strconv.FormatInt(product.ID, 10))
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) ListSellerProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Catalog.ListSellerProducts(r.Context(), identity(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req productRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	product, err := h.svc.Catalog.UpdateProduct(r.Context(), identity(r), productID, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.svc.Catalog.DeleteProduct(r.Context(), identity(r), productID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Product deleted successfully"})
}
