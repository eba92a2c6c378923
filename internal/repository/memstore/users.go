package memstore

import (
	"context"
	"fmt"

	"fsanano/mini-shop/internal/model"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.data.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: create user", model.ErrConflict)
		}
	}
	u.ID = r.s.data.nextID()
	u.CreatedAt = now()
	r.s.data.users[u.ID] = *u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	defer r.s.rlock(ctx)()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", model.ErrNotFound, id)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer r.s.rlock(ctx)()

	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: user by email", model.ErrNotFound)
}

func (r *userRepo) List(ctx context.Context, offset, limit int) ([]model.User, error) {
	defer r.s.rlock(ctx)()

	users := []model.User{}
	for _, id := range page(sortedIDs(r.s.data.users, nil), offset, limit) {
		users = append(users, r.s.data.users[id])
	}
	return users, nil
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.users[u.ID]; !ok {
		return fmt.Errorf("%w: user %d", model.ErrNotFound, u.ID)
	}
	for id, existing := range r.s.data.users {
		if id != u.ID && existing.Email == u.Email {
			return fmt.Errorf("%w: update user %d", model.ErrConflict, u.ID)
		}
	}
	r.s.data.users[u.ID] = *u
	return nil
}

// Delete removes the user and everything that cascades from it.
func (r *userRepo) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()

	t := r.s.data
	if _, ok := t.users[id]; !ok {
		return fmt.Errorf("%w: user %d", model.ErrNotFound, id)
	}
	delete(t.users, id)

	for aid, a := range t.addresses {
		if a.UserID == id {
			delete(t.addresses, aid)
		}
	}
	for cid, c := range t.carts {
		if c.UserID != id {
			continue
		}
		for iid, it := range t.cartItems {
			if it.CartID == cid {
				delete(t.cartItems, iid)
			}
		}
		delete(t.carts, cid)
	}
	for oid, o := range t.orders {
		if o.UserID == id {
			delete(t.orders, oid)
		}
	}
	for rid, rv := range t.reviews {
		if rv.UserID == id {
			delete(t.reviews, rid)
		}
	}
	for pid, p := range t.products {
		if p.OwnedBy(id) {
			p.SellerID = nil
			t.products[pid] = p
		}
	}
	return nil
}

type addressRepo struct {
	s *Store
}

func (r *addressRepo) Create(ctx context.Context, a *model.Address) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.users[a.UserID]; !ok {
		return fmt.Errorf("%w: create address: unknown user %d", model.ErrInvalidInput, a.UserID)
	}
	a.ID = r.s.data.nextID()
	r.s.data.addresses[a.ID] = *a
	return nil
}

func (r *addressRepo) GetByID(ctx context.Context, id int64) (*model.Address, error) {
	defer r.s.rlock(ctx)()

	a, ok := r.s.data.addresses[id]
	if !ok {
		return nil, fmt.Errorf("%w: address %d", model.ErrNotFound, id)
	}
	return &a, nil
}

func (r *addressRepo) ListByUser(ctx context.Context, userID int64) ([]model.Address, error) {
	defer r.s.rlock(ctx)()

	addresses := []model.Address{}
	for _, id := range sortedIDs(r.s.data.addresses, func(a model.Address) bool { return a.UserID == userID }) {
		addresses = append(addresses, r.s.data.addresses[id])
	}
	return addresses, nil
}

func (r *addressRepo) Update(ctx context.Context, a *model.Address) error {
	defer r.s.lock(ctx)()

	old, ok := r.s.data.addresses[a.ID]
	if !ok {
		return fmt.Errorf("%w: address %d", model.ErrNotFound, a.ID)
	}
	a.UserID = old.UserID
	r.s.data.addresses[a.ID] = *a
	return nil
}

func (r *addressRepo) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.addresses[id]; !ok {
		return fmt.Errorf("%w: address %d", model.ErrNotFound, id)
	}
	delete(r.s.data.addresses, id)
	return nil
}
