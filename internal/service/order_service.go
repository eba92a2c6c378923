package service

import (
	"context"
	"fmt"
	"log"
	"sort"

	"fsanano/mini-shop/internal/auth"
	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderService struct {
	tx       repository.Transactor
	carts    repository.CartRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
}

func NewOrderService(
	tx repository.Transactor,
	carts repository.CartRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
) *OrderService {
	return &OrderService{tx: tx, carts: carts, products: products, orders: orders}
}

// CreateFromCart turns the user's cart into an order. Stock is re-validated
// under row locks and decremented in the same transaction that empties the
// cart, so either every effect lands or none does.
func (s *OrderService) CreateFromCart(ctx context.Context, userID int64) (*model.Order, error) {
	var order *model.Order

	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		// 1. Load cart
		cart, err := s.carts.GetByUser(ctx, userID)
		if err != nil {
			return err
		}

		items, err := s.carts.ListItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: add products before placing an order", model.ErrEmptyCart)
		}

		// 2. Lock products in id order so concurrent orders cannot deadlock
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

		order = &model.Order{
			OrderNumber: uuid.NewString(),
			UserID:      userID,
			Total:       decimal.Zero,
			Items:       make([]model.OrderItem, 0, len(items)),
		}

		for _, item := range items {
			product, err := s.products.GetForUpdate(ctx, item.ProductID)
			if err != nil {
				return err
			}

			// 3. Check Stock
			if err := checkStock(product, item.Quantity); err != nil {
				return err
			}

			// 4. Update Stock
			if err := s.products.DecrementStock(ctx, product.ID, item.Quantity); err != nil {
				return err
			}

			order.Items = append(order.Items, model.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				UnitPrice:   product.Price,
			})
			order.Total = order.Total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		// 5. Create Order
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}

		// 6. Empty the cart
		return s.carts.ClearItems(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Order %s placed: user=%d items=%d total=%s", order.OrderNumber, userID, len(order.Items), order.Total.StringFixed(2))
	return order, nil
}

func (s *OrderService) List(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *OrderService) Get(ctx context.Context, id auth.Identity, orderID int64) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := auth.CanActOn(id, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}
