package service

import (
	"context"
	"errors"
	"fmt"

	"fsanano/mini-shop/internal/auth"
	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"
)

type CartService struct {
	tx       repository.Transactor
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(tx repository.Transactor, carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{tx: tx, carts: carts, products: products}
}

// GetCart returns the caller's cart with its items, creating an empty one on
// first access.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*model.Cart, error) {
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Items, err = s.carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) getOrCreate(ctx context.Context, userID int64) (*model.Cart, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	return s.carts.Create(ctx, userID)
}

// AddItem puts quantity units of a product in the cart. Adding a product that
// is already there raises the quantity of the existing line.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*model.CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", model.ErrInvalidInput)
	}

	var item *model.CartItem
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		cart, err := s.getOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		product, err := s.products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		existing, err := s.carts.GetItemByProduct(ctx, cart.ID, productID)
		switch {
		case err == nil:
			total := existing.Quantity + quantity
			if err := checkStock(product, total); err != nil {
				return err
			}
			if err := s.carts.UpdateItemQuantity(ctx, existing.ID, total); err != nil {
				return err
			}
			existing.Quantity = total
			item = existing
			return nil
		case errors.Is(err, model.ErrNotFound):
		default:
			return err
		}

		if err := checkStock(product, quantity); err != nil {
			return err
		}
		item = &model.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity, OwnerID: userID}
		return s.carts.AddItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemQuantity checks ownership before anything is written.
func (s *CartService) UpdateItemQuantity(ctx context.Context, id auth.Identity, itemID int64, quantity int) (*model.CartItem, error) {
	var item *model.CartItem
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.ownedItem(ctx, id, itemID)
		if err != nil {
			return err
		}
		if quantity <= 0 {
			return fmt.Errorf("%w: quantity must be greater than 0", model.ErrInvalidInput)
		}

		product, err := s.products.GetForUpdate(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if err := checkStock(product, quantity); err != nil {
			return err
		}

		if err := s.carts.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, id auth.Identity, itemID int64) error {
	return s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.ownedItem(ctx, id, itemID); err != nil {
			return err
		}
		return s.carts.DeleteItem(ctx, itemID)
	})
}

func (s *CartService) ownedItem(ctx context.Context, id auth.Identity, itemID int64) (*model.CartItem, error) {
	item, err := s.carts.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := auth.CanActOn(id, item.OwnerID); err != nil {
		return nil, err
	}
	return item, nil
}

func checkStock(product *model.Product, quantity int) error {
	if quantity > product.Stock {
		return fmt.Errorf("%w: only %d of %q available, requested %d",
			model.ErrInsufficientStock, product.Stock, product.Name, quantity)
	}
	return nil
}
