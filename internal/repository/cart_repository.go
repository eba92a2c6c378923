package repository

import (
	"context"
	"fmt"

	"fsanano/mini-shop/internal/model"
)

type cartRepo struct {
	db *DB
}

func NewCartRepository(db *DB) CartRepository {
	return &cartRepo{db: db}
}

// Create inserts the user's cart. A concurrent creation for the same user
// returns the row that won.
func (r *cartRepo) Create(ctx context.Context, userID int64) (*model.Cart, error) {
	sql := `INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, created_at`

	c := model.Cart{Items: []model.CartItem{}}
	if err := r.db.executor(ctx).QueryRow(ctx, sql, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt); err != nil {
		return nil, translate(err, "create cart")
	}
	return &c, nil
}

func (r *cartRepo) GetByUser(ctx context.Context, userID int64) (*model.Cart, error) {
	c := model.Cart{Items: []model.CartItem{}}
	err := r.db.executor(ctx).QueryRow(ctx,
		`SELECT id, user_id, created_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("cart of user %d", userID))
	}
	return &c, nil
}

func (r *cartRepo) ListItems(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	rows, err := r.db.executor(ctx).Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, c.user_id
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.OwnerID); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}
	return items, nil
}

func (r *cartRepo) GetItem(ctx context.Context, itemID int64) (*model.CartItem, error) {
	var it model.CartItem
	err := r.db.executor(ctx).QueryRow(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, c.user_id
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE ci.id = $1`, itemID,
	).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.OwnerID)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("cart item %d", itemID))
	}
	return &it, nil
}

func (r *cartRepo) GetItemByProduct(ctx context.Context, cartID, productID int64) (*model.CartItem, error) {
	var it model.CartItem
	err := r.db.executor(ctx).QueryRow(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, c.user_id
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE ci.cart_id = $1 AND ci.product_id = $2
		FOR UPDATE OF ci`, cartID, productID,
	).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.OwnerID)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("product %d in cart %d", productID, cartID))
	}
	return &it, nil
}

func (r *cartRepo) AddItem(ctx context.Context, it *model.CartItem) error {
	err := r.db.executor(ctx).QueryRow(ctx,
		`INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING id`,
		it.CartID, it.ProductID, it.Quantity,
	).Scan(&it.ID)
	return translate(err, "add cart item")
}

func (r *cartRepo) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	tag, err := r.db.executor(ctx).Exec(ctx, `UPDATE cart_items SET quantity = $1 WHERE id = $2`, quantity, itemID)
	if err != nil {
		return translate(err, fmt.Sprintf("update cart item %d", itemID))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cart item %d", model.ErrNotFound, itemID)
	}
	return nil
}

func (r *cartRepo) DeleteItem(ctx context.Context, itemID int64) error {
	tag, err := r.db.executor(ctx).Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cart item %d", model.ErrNotFound, itemID)
	}
	return nil
}

func (r *cartRepo) ClearItems(ctx context.Context, cartID int64) error {
	if _, err := r.db.executor(ctx).Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart %d: %w", cartID, err)
	}
	return nil
}
