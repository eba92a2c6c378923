// Package service implements the shop workflows on top of the repository
// interfaces. Every operation returns errors classified by the model sentinels.
package service

import (
	"fmt"

	"fsanano/mini-shop/internal/auth"
	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"
)

const DefaultPageLimit = 100

type Services struct {
	Auth      *AuthService
	Users     *UserService
	Addresses *AddressService
	Catalog   *CatalogService
	Carts     *CartService
	Orders    *OrderService
	Reviews   *ReviewService
}

func New(repos repository.Repositories, tokens *auth.TokenManager) *Services {
	return &Services{
		Auth:      NewAuthService(repos.Users, tokens),
		Users:     NewUserService(repos.Users),
		Addresses: NewAddressService(repos.Addresses),
		Catalog:   NewCatalogService(repos.Categories, repos.Products, repos.Reviews),
		Carts:     NewCartService(repos.Tx, repos.Carts, repos.Products),
		Orders:    NewOrderService(repos.Tx, repos.Carts, repos.Products, repos.Orders),
		Reviews:   NewReviewService(repos.Products, repos.Reviews),
	}
}

// Page is an offset window over a listing.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) validate() error {
	if p.Skip < 0 || p.Limit < 0 {
		return fmt.Errorf("%w: skip and limit must not be negative", model.ErrInvalidInput)
	}
	return nil
}
