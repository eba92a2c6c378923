package memstore

import (
	"context"
	"fmt"
	"strings"

	"fsanano/mini-shop/internal/model"
)

type categoryRepo struct {
	s *Store
}

func (r *categoryRepo) Create(ctx context.Context, c *model.Category) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.data.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return fmt.Errorf("%w: category %q", model.ErrConflict, c.Name)
		}
	}
	c.ID = r.s.data.nextID()
	r.s.data.categories[c.ID] = *c
	return nil
}

func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	defer r.s.rlock(ctx)()

	c, ok := r.s.data.categories[id]
	if !ok {
		return nil, fmt.Errorf("%w: category %d", model.ErrNotFound, id)
	}
	return &c, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]model.Category, error) {
	defer r.s.rlock(ctx)()

	categories := []model.Category{}
	for _, id := range sortedIDs(r.s.data.categories, nil) {
		categories = append(categories, r.s.data.categories[id])
	}
	return categories, nil
}

type productRepo struct {
	s *Store
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.categories[p.CategoryID]; !ok {
		return fmt.Errorf("%w: create product: unknown category %d", model.ErrInvalidInput, p.CategoryID)
	}
	p.ID = r.s.data.nextID()
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	r.s.data.products[p.ID] = copyProduct(*p)
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	defer r.s.rlock(ctx)()

	p, ok := r.s.data.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", model.ErrNotFound, id)
	}
	p = copyProduct(p)
	return &p, nil
}

// GetForUpdate relies on RunAtomic serialising transactions.
func (r *productRepo) GetForUpdate(ctx context.Context, id int64) (*model.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) list(ctx context.Context, keep func(model.Product) bool, offset, limit int) []model.Product {
	defer r.s.rlock(ctx)()

	products := []model.Product{}
	for _, id := range page(sortedIDs(r.s.data.products, keep), offset, limit) {
		products = append(products, copyProduct(r.s.data.products[id]))
	}
	return products
}

func (r *productRepo) List(ctx context.Context, offset, limit int) ([]model.Product, error) {
	return r.list(ctx, nil, offset, limit), nil
}

func (r *productRepo) ListByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	return r.list(ctx, func(p model.Product) bool { return p.CategoryID == categoryID }, 0, -1), nil
}

func (r *productRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error) {
	return r.list(ctx, func(p model.Product) bool { return p.OwnedBy(sellerID) }, 0, -1), nil
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	defer r.s.lock(ctx)()

	old, ok := r.s.data.products[p.ID]
	if !ok {
		return fmt.Errorf("%w: product %d", model.ErrNotFound, p.ID)
	}
	if _, ok := r.s.data.categories[p.CategoryID]; !ok {
		return fmt.Errorf("%w: update product: unknown category %d", model.ErrInvalidInput, p.CategoryID)
	}
	p.SellerID = old.SellerID
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = now()
	r.s.data.products[p.ID] = copyProduct(*p)
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()

	t := r.s.data
	if _, ok := t.products[id]; !ok {
		return fmt.Errorf("%w: product %d", model.ErrNotFound, id)
	}
	delete(t.products, id)
	for iid, it := range t.cartItems {
		if it.ProductID == id {
			delete(t.cartItems, iid)
		}
	}
	for rid, rv := range t.reviews {
		if rv.ProductID == id {
			delete(t.reviews, rid)
		}
	}
	return nil
}

func (r *productRepo) DecrementStock(ctx context.Context, id int64, quantity int) error {
	defer r.s.lock(ctx)()

	p, ok := r.s.data.products[id]
	if !ok || p.Stock < quantity {
		return fmt.Errorf("%w: product %d", model.ErrInsufficientStock, id)
	}
	p.Stock -= quantity
	p.UpdatedAt = now()
	r.s.data.products[id] = p
	return nil
}

type reviewRepo struct {
	s *Store
}

func (r *reviewRepo) Create(ctx context.Context, rv *model.Review) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.products[rv.ProductID]; !ok {
		return fmt.Errorf("%w: review: unknown product %d", model.ErrInvalidInput, rv.ProductID)
	}
	for _, existing := range r.s.data.reviews {
		if existing.UserID == rv.UserID && existing.ProductID == rv.ProductID {
			return fmt.Errorf("%w: review of product %d", model.ErrConflict, rv.ProductID)
		}
	}
	rv.ID = r.s.data.nextID()
	rv.CreatedAt = now()
	r.s.data.reviews[rv.ID] = *rv
	return nil
}

func (r *reviewRepo) ListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	defer r.s.rlock(ctx)()

	reviews := []model.Review{}
	for _, id := range sortedIDs(r.s.data.reviews, func(rv model.Review) bool { return rv.ProductID == productID }) {
		reviews = append(reviews, r.s.data.reviews[id])
	}
	return reviews, nil
}

func (r *reviewRepo) Summary(ctx context.Context, productID int64) (model.RatingSummary, error) {
	defer r.s.rlock(ctx)()

	var s model.RatingSummary
	total := 0
	for _, rv := range r.s.data.reviews {
		if rv.ProductID == productID {
			total += rv.Rating
			s.ReviewCount++
		}
	}
	if s.ReviewCount > 0 {
		s.AverageRating = float64(total) / float64(s.ReviewCount)
	}
	return s, nil
}
