package memstore

import (
	"context"
	"fmt"

	"fsanano/mini-shop/internal/model"
)

type cartRepo struct {
	s *Store
}

func (r *cartRepo) Create(ctx context.Context, userID int64) (*model.Cart, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.users[userID]; !ok {
		return nil, fmt.Errorf("%w: create cart: unknown user %d", model.ErrInvalidInput, userID)
	}
	for _, c := range r.s.data.carts {
		if c.UserID == userID {
			c.Items = []model.CartItem{}
			return &c, nil
		}
	}
	c := model.Cart{ID: r.s.data.nextID(), UserID: userID, CreatedAt: now()}
	r.s.data.carts[c.ID] = c
	c.Items = []model.CartItem{}
	return &c, nil
}

func (r *cartRepo) GetByUser(ctx context.Context, userID int64) (*model.Cart, error) {
	defer r.s.rlock(ctx)()

	for _, c := range r.s.data.carts {
		if c.UserID == userID {
			c.Items = []model.CartItem{}
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: cart of user %d", model.ErrNotFound, userID)
}

// withOwner fills in OwnerID. Callers hold mu.
func (r *cartRepo) withOwner(it model.CartItem) model.CartItem {
	it.OwnerID = r.s.data.carts[it.CartID].UserID
	return it
}

func (r *cartRepo) ListItems(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	defer r.s.rlock(ctx)()

	items := []model.CartItem{}
	for _, id := range sortedIDs(r.s.data.cartItems, func(it model.CartItem) bool { return it.CartID == cartID }) {
		items = append(items, r.withOwner(r.s.data.cartItems[id]))
	}
	return items, nil
}

func (r *cartRepo) GetItem(ctx context.Context, itemID int64) (*model.CartItem, error) {
	defer r.s.rlock(ctx)()

	it, ok := r.s.data.cartItems[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: cart item %d", model.ErrNotFound, itemID)
	}
	it = r.withOwner(it)
	return &it, nil
}

func (r *cartRepo) GetItemByProduct(ctx context.Context, cartID, productID int64) (*model.CartItem, error) {
	defer r.s.rlock(ctx)()

	for _, it := range r.s.data.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			it = r.withOwner(it)
			return &it, nil
		}
	}
	return nil, fmt.Errorf("%w: product %d in cart %d", model.ErrNotFound, productID, cartID)
}

func (r *cartRepo) AddItem(ctx context.Context, it *model.CartItem) error {
	defer r.s.lock(ctx)()

	t := r.s.data
	if _, ok := t.carts[it.CartID]; !ok {
		return fmt.Errorf("%w: add cart item: unknown cart %d", model.ErrInvalidInput, it.CartID)
	}
	if _, ok := t.products[it.ProductID]; !ok {
		return fmt.Errorf("%w: add cart item: unknown product %d", model.ErrInvalidInput, it.ProductID)
	}
	for _, existing := range t.cartItems {
		if existing.CartID == it.CartID && existing.ProductID == it.ProductID {
			return fmt.Errorf("%w: add cart item", model.ErrConflict)
		}
	}
	it.ID = t.nextID()
	t.cartItems[it.ID] = *it
	return nil
}

func (r *cartRepo) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	defer r.s.lock(ctx)()

	it, ok := r.s.data.cartItems[itemID]
	if !ok {
		return fmt.Errorf("%w: cart item %d", model.ErrNotFound, itemID)
	}
	it.Quantity = quantity
	r.s.data.cartItems[itemID] = it
	return nil
}

func (r *cartRepo) DeleteItem(ctx context.Context, itemID int64) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.cartItems[itemID]; !ok {
		return fmt.Errorf("%w: cart item %d", model.ErrNotFound, itemID)
	}
	delete(r.s.data.cartItems, itemID)
	return nil
}

func (r *cartRepo) ClearItems(ctx context.Context, cartID int64) error {
	defer r.s.lock(ctx)()

	for id, it := range r.s.data.cartItems {
		if it.CartID == cartID {
			delete(r.s.data.cartItems, id)
		}
	}
	return nil
}

type orderRepo struct {
	s *Store
}

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order without items", model.ErrInvalidInput)
	}

	defer r.s.lock(ctx)()

	t := r.s.data
	if _, ok := t.users[o.UserID]; !ok {
		return fmt.Errorf("%w: create order: unknown user %d", model.ErrInvalidInput, o.UserID)
	}
	o.ID = t.nextID()
	o.CreatedAt = now()
	for i := range o.Items {
		o.Items[i].ID = t.nextID()
		o.Items[i].OrderID = o.ID
	}
	t.orders[o.ID] = copyOrder(*o)
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	defer r.s.rlock(ctx)()

	o, ok := r.s.data.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", model.ErrNotFound, id)
	}
	o = copyOrder(o)
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	defer r.s.rlock(ctx)()

	orders := []model.Order{}
	for _, id := range sortedIDs(r.s.data.orders, func(o model.Order) bool { return o.UserID == userID }) {
		orders = append(orders, copyOrder(r.s.data.orders[id]))
	}
	return orders, nil
}
