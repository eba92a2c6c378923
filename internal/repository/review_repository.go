package repository

import (
	"context"
	"fmt"

	"fsanano/mini-shop/internal/model"
)

type reviewRepo struct {
	db *DB
}

func NewReviewRepository(db *DB) ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, rv *model.Review) error {
	err := r.db.executor(ctx).QueryRow(ctx,
		`INSERT INTO reviews (user_id, product_id, rating, comment) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		rv.UserID, rv.ProductID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt)
	return translate(err, fmt.Sprintf("review of product %d", rv.ProductID))
}

func (r *reviewRepo) ListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	rows, err := r.db.executor(ctx).Query(ctx, `
		SELECT id, user_id, product_id, rating, comment, created_at
		FROM reviews WHERE product_id = $1
		ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepo) Summary(ctx context.Context, productID int64) (model.RatingSummary, error) {
	var s model.RatingSummary
	err := r.db.executor(ctx).QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews WHERE product_id = $1`, productID,
	).Scan(&s.AverageRating, &s.ReviewCount)
	if err != nil {
		return s, fmt.Errorf("failed to summarise reviews: %w", err)
	}
	return s, nil
}
