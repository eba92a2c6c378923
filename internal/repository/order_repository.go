package repository

import (
	"context"
	"fmt"

	"fsanano/mini-shop/internal/model"
)

type orderRepo struct {
	db *DB
}

func NewOrderRepository(db *DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order without items", model.ErrInvalidInput)
	}

	ex := r.db.executor(ctx)

	err := ex.QueryRow(ctx,
		`INSERT INTO orders (order_number, user_id, total) VALUES ($1, $2, $3) RETURNING id, created_at`,
		o.OrderNumber, o.UserID, o.Total,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return translate(err, "create order")
	}

	insertItemSQL := `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		if err := ex.QueryRow(ctx, insertItemSQL, o.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice).Scan(&it.ID); err != nil {
			return translate(err, fmt.Sprintf("create order item for product %d", it.ProductID))
		}
	}
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var o model.Order
	err := r.db.executor(ctx).QueryRow(ctx,
		`SELECT id, order_number::text, user_id, total, created_at FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Total, &o.CreatedAt)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("order %d", id))
	}

	items, err := r.itemsFor(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []model.OrderItem{}
	}
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.db.executor(ctx).Query(ctx,
		`SELECT id, order_number::text, user_id, total, created_at FROM orders WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders by user %d: %w", userID, err)
	}
	defer rows.Close()

	orders := []model.Order{}
	var ids []int64
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []model.OrderItem{}
		}
	}
	return orders, nil
}

func (r *orderRepo) itemsFor(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	rows, err := r.db.executor(ctx).Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[it.OrderID] = append(items[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}
