package service

import (
	"context"
	"fmt"

	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"
)

const (
	minRating = 1
	maxRating = 5
)

type ReviewService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
}

func NewReviewService(products repository.ProductRepository, reviews repository.ReviewRepository) *ReviewService {
	return &ReviewService{products: products, reviews: reviews}
}

// Create records a review. Each user may review a product once.
func (s *ReviewService) Create(ctx context.Context, userID, productID int64, rating int, comment string) (*model.Review, error) {
	if rating < minRating || rating > maxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", model.ErrInvalidInput, minRating, maxRating)
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	review := &model.Review{UserID: userID, ProductID: productID, Rating: rating, Comment: comment}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) List(ctx context.Context, productID int64) ([]model.Review, error) {
	return s.reviews.ListByProduct(ctx, productID)
}
