package repository

import (
	"context"
	"fmt"

	"fsanano/mini-shop/internal/model"

	"github.com/jackc/pgx/v5"
)

type productRepo struct {
	db *DB
}

func NewProductRepository(db *DB) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, name, description, price, stock, category_id, seller_id, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.CategoryID,
		&p.SellerID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) queryProducts(ctx context.Context, sql string, args ...any) ([]model.Product, error) {
	rows, err := r.db.executor(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}
	return products, nil
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	sql := `INSERT INTO products (name, description, price, stock, category_id, seller_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.executor(ctx).QueryRow(ctx, sql,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.CategoryID,
		p.SellerID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translate(err, "create product")
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	p, err := scanProduct(r.db.executor(ctx).QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("product %d", id))
	}
	return p, nil
}

// GetForUpdate locks the product row and returns product data
func (r *productRepo) GetForUpdate(ctx context.Context, id int64) (*model.Product, error) {
	p, err := scanProduct(r.db.executor(ctx).QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("product %d", id))
	}
	return p, nil
}

func (r *productRepo) List(ctx context.Context, offset, limit int) ([]model.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id OFFSET $1 LIMIT $2`, offset, limit)
}

func (r *productRepo) ListByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE category_id = $1 ORDER BY id`, categoryID)
}

func (r *productRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE seller_id = $1 ORDER BY id`, sellerID)
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	sql := `UPDATE products
		SET name = $1, description = $2, price = $3, stock = $4, category_id = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at`

	err := r.db.executor(ctx).QueryRow(ctx, sql,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.CategoryID,
		p.ID,
	).Scan(&p.UpdatedAt)
	return translate(err, fmt.Sprintf("update product %d", p.ID))
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.executor(ctx).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("delete product %d", id))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", model.ErrNotFound, id)
	}
	return nil
}

// DecrementStock updates the stock of a product, refusing to go below zero
func (r *productRepo) DecrementStock(ctx context.Context, id int64, quantity int) error {
	tag, err := r.db.executor(ctx).Exec(ctx,
		`UPDATE products SET stock = stock - $1, updated_at = now() WHERE id = $2 AND stock >= $1`, quantity, id)
	if err != nil {
		return fmt.Errorf("failed to update product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", model.ErrInsufficientStock, id)
	}
	return nil
}
