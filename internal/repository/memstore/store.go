// Package memstore is an in-process store backend. It keeps every table in
// maps guarded by a mutex and serialises transactions, restoring a snapshot
// when a transaction fails. Calls made outside a transaction wait for any open
// transaction to finish, so a rollback never erases them.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"
)

type Store struct {
	// txMu is held exclusively by a transaction or a standalone write, and
	// shared by standalone reads.
	txMu sync.RWMutex

	mu   sync.RWMutex
	data *tables
}

type tables struct {
	users      map[int64]model.User
	addresses  map[int64]model.Address
	categories map[int64]model.Category
	products   map[int64]model.Product
	carts      map[int64]model.Cart
	cartItems  map[int64]model.CartItem
	orders     map[int64]model.Order
	reviews    map[int64]model.Review

	lastID int64
}

func New() *Store {
	return &Store{data: &tables{
		users:      make(map[int64]model.User),
		addresses:  make(map[int64]model.Address),
		categories: make(map[int64]model.Category),
		products:   make(map[int64]model.Product),
		carts:      make(map[int64]model.Cart),
		cartItems:  make(map[int64]model.CartItem),
		orders:     make(map[int64]model.Order),
		reviews:    make(map[int64]model.Review),
	}}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Tx:         s,
		Users:      &userRepo{s},
		Addresses:  &addressRepo{s},
		Categories: &categoryRepo{s},
		Products:   &productRepo{s},
		Carts:      &cartRepo{s},
		Orders:     &orderRepo{s},
		Reviews:    &reviewRepo{s},
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	ctx = context.WithValue(ctx, txKey{}, struct{}{})
	ctx, hooks := repository.WithCommitHooks(ctx)

	if err := s.atomic(ctx, fn); err != nil {
		return err
	}

	hooks.Run()
	return nil
}

// atomic runs fn holding txMu and restores the snapshot unless fn returns
// nil, including when fn panics.
func (s *Store) atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	committed := false
	defer func() {
		if !committed {
			s.mu.Lock()
			s.data = snapshot
			s.mu.Unlock()
		}
	}()

	if err := fn(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

// lock guards a repository write and returns the matching unlock.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// rlock guards a repository read. Outside a transaction it never observes
// uncommitted writes.
func (s *Store) rlock(ctx context.Context) func() {
	if inTx(ctx) {
		s.mu.RLock()
		return s.mu.RUnlock
	}
	s.txMu.RLock()
	s.mu.RLock()
	return func() {
		s.mu.RUnlock()
		s.txMu.RUnlock()
	}
}

// nextID hands out ids from one sequence shared by all tables. Callers hold mu.
func (t *tables) nextID() int64 {
	t.lastID++
	return t.lastID
}

func (t *tables) clone() *tables {
	c := &tables{
		users:      make(map[int64]model.User, len(t.users)),
		addresses:  make(map[int64]model.Address, len(t.addresses)),
		categories: make(map[int64]model.Category, len(t.categories)),
		products:   make(map[int64]model.Product, len(t.products)),
		carts:      make(map[int64]model.Cart, len(t.carts)),
		cartItems:  make(map[int64]model.CartItem, len(t.cartItems)),
		orders:     make(map[int64]model.Order, len(t.orders)),
		reviews:    make(map[int64]model.Review, len(t.reviews)),
		lastID:     t.lastID,
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.addresses {
		c.addresses[k] = v
	}
	for k, v := range t.categories {
		c.categories[k] = v
	}
	for k, v := range t.products {
		c.products[k] = copyProduct(v)
	}
	for k, v := range t.carts {
		c.carts[k] = v
	}
	for k, v := range t.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range t.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range t.reviews {
		c.reviews[k] = v
	}
	return c
}

func copyProduct(p model.Product) model.Product {
	if p.SellerID != nil {
		id := *p.SellerID
		p.SellerID = &id
	}
	return p
}

func copyOrder(o model.Order) model.Order {
	o.Items = append([]model.OrderItem{}, o.Items...)
	return o
}

func now() time.Time {
	return time.Now().UTC()
}

func sortedIDs[V any](m map[int64]V, keep func(V) bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func page(ids []int64, offset, limit int) []int64 {
	if offset >= len(ids) {
		return nil
	}
	ids = ids[offset:]
	if limit >= 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}
