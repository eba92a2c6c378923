package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"fsanano/mini-shop/internal/auth"
	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type CatalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	reviews    repository.ReviewRepository
}

func NewCatalogService(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
) *CatalogService {
	return &CatalogService{categories: categories, products: products, reviews: reviews}
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  int64
}

// Prices are stored as NUMERIC(12,2) and stock as a 32-bit integer.
var maxPrice = decimal.New(1, 10)

const maxStock = math.MaxInt32

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: product name is required", model.ErrInvalidInput)
	case in.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", model.ErrInvalidInput)
	case in.Price.GreaterThanOrEqual(maxPrice):
		return fmt.Errorf("%w: price must be less than %s", model.ErrInvalidInput, maxPrice)
	case !in.Price.Equal(in.Price.Round(2)):
		return fmt.Errorf("%w: price must have at most 2 decimal places", model.ErrInvalidInput)
	case in.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", model.ErrInvalidInput)
	case in.Stock > maxStock:
		return fmt.Errorf("%w: stock must be at most %d", model.ErrInvalidInput, maxStock)
	case in.CategoryID <= 0:
		return fmt.Errorf("%w: category_id is required", model.ErrInvalidInput)
	}
	return nil
}

var errProductNotOwned = fmt.Errorf("%w: product not found or not authorized", model.ErrNotFound)

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, id auth.Identity, name string) (*model.Category, error) {
	if err := auth.RequireRole(id, model.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", model.ErrInvalidInput)
	}

	category := &model.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, page Page) ([]model.Product, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	return s.products.List(ctx, page.Skip, page.Limit)
}

func (s *CatalogService) ListProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	products, err := s.products.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no products found for this category", model.ErrNotFound)
	}
	return products, nil
}

// GetProduct loads the product and its rating summary concurrently.
func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*model.ProductDetail, error) {
	var (
		product *model.Product
		summary model.RatingSummary
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		product, err = s.products.GetByID(ctx, productID)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = s.reviews.Summary(ctx, productID)
		if err != nil {
			return fmt.Errorf("failed to load rating summary: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &model.ProductDetail{Product: *product, RatingSummary: summary}, nil
}

// CreateProduct records sellers as the owner. Products created by admins have no seller.
func (s *CatalogService) CreateProduct(ctx context.Context, id auth.Identity, in ProductInput) (*model.Product, error) {
	if err := auth.RequireRole(id, model.RoleSeller, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
	}
	if id.Role == model.RoleSeller {
		sellerID := id.UserID
		product.SellerID = &sellerID
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) ListSellerProducts(ctx context.Context, id auth.Identity) ([]model.Product, error) {
	if err := auth.RequireRole(id, model.RoleSeller, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.products.ListBySeller(ctx, id.UserID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id auth.Identity, productID int64, in ProductInput) (*model.Product, error) {
	if err := auth.RequireRole(id, model.RoleSeller, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	product, err := s.manageable(ctx, id, productID)
	if err != nil {
		return nil, err
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Stock = in.Stock
	product.CategoryID = in.CategoryID
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id auth.Identity, productID int64) error {
	if err := auth.RequireRole(id, model.RoleSeller, model.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.manageable(ctx, id, productID); err != nil {
		return err
	}
	return s.products.Delete(ctx, productID)
}

// manageable hides products the caller may not touch behind the same error as
// missing ones.
func (s *CatalogService) manageable(ctx context.Context, id auth.Identity, productID int64) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, errProductNotOwned
		}
		return nil, err
	}
	if !id.IsAdmin() && !product.OwnedBy(id.UserID) {
		return nil, errProductNotOwned
	}
	return product, nil
}
