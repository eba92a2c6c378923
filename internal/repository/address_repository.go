package repository

import (
	"context"
	"fmt"

	"fsanano/mini-shop/internal/model"
)

type addressRepo struct {
	db *DB
}

func NewAddressRepository(db *DB) AddressRepository {
	return &addressRepo{db: db}
}

func (r *addressRepo) Create(ctx context.Context, a *model.Address) error {
	sql := `INSERT INTO addresses (user_id, street, city, postal_code, country)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.executor(ctx).QueryRow(ctx, sql, a.UserID, a.Street, a.City, a.PostalCode, a.Country).Scan(&a.ID)
	return translate(err, "create address")
}

func (r *addressRepo) GetByID(ctx context.Context, id int64) (*model.Address, error) {
	var a model.Address
	err := r.db.executor(ctx).QueryRow(ctx,
		`SELECT id, user_id, street, city, postal_code, country FROM addresses WHERE id = $1`, id,
	).Scan(&a.ID, &a.UserID, &a.Street, &a.City, &a.PostalCode, &a.Country)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("address %d", id))
	}
	return &a, nil
}

func (r *addressRepo) ListByUser(ctx context.Context, userID int64) ([]model.Address, error) {
	rows, err := r.db.executor(ctx).Query(ctx,
		`SELECT id, user_id, street, city, postal_code, country FROM addresses WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []model.Address{}
	for rows.Next() {
		var a model.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Street, &a.City, &a.PostalCode, &a.Country); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}
	return addresses, nil
}

func (r *addressRepo) Update(ctx context.Context, a *model.Address) error {
	tag, err := r.db.executor(ctx).Exec(ctx,
		`UPDATE addresses SET street = $1, city = $2, postal_code = $3, country = $4 WHERE id = $5`,
		a.Street, a.City, a.PostalCode, a.Country, a.ID)
	if err != nil {
		return translate(err, fmt.Sprintf("update address %d", a.ID))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: address %d", model.ErrNotFound, a.ID)
	}
	return nil
}

func (r *addressRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.executor(ctx).Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("delete address %d", id))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: address %d", model.ErrNotFound, id)
	}
	return nil
}
