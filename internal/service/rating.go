package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pawclub/pawclub-server/internal/domain"
	domainerrors "github.com/pawclub/pawclub-server/internal/errors"
	"github.com/pawclub/pawclub-server/internal/store"
)

// RatingService handles paw ratings on catalog entries.
type RatingService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(store *store.Store, logger *slog.Logger) *RatingService {
	return &RatingService{
		store:  store,
		logger: logger,
	}
}

// RatingResult reports a user's vote alongside the recomputed summary.
type RatingResult struct {
	Slug       string             `json:"slug"`
	UserRating int                `json:"user_rating"`
	Stats      domain.RatingStats `json:"stats"`
}

// SetRating records userID's paw rating for a book. A rating outside
// 1..5 is rejected before any write happens; re-rating overwrites the
// user's previous vote without inflating the vote count.
func (s *RatingService) SetRating(ctx context.Context, slug, userID string, rating int) (*RatingResult, error) {
	if !domain.ValidRating(rating) {
		return nil, domainerrors.Validationf("rating must be between %d and %d paws", domain.MinRating, domain.MaxRating)
	}

	book, err := s.store.SetRating(ctx, slug, userID, rating)
	if errors.Is(err, store.ErrBookNotFound) {
		return nil, domainerrors.NotFoundf("book %q not found", slug)
	}
	if err != nil {
		return nil, err
	}

	return &RatingResult{
		Slug:       slug,
		UserRating: book.UserRating(userID),
		Stats:      book.Stats(),
	}, nil
}

// GetRating returns the rating summary for a book, with the caller's own
// vote when userID is non-empty.
func (s *RatingService) GetRating(ctx context.Context, slug, userID string) (*RatingResult, error) {
	book, err := s.store.GetBook(ctx, slug)
	if errors.Is(err, store.ErrBookNotFound) {
		return nil, domainerrors.NotFoundf("book %q not found", slug)
	}
	if err != nil {
		return nil, err
	}

	result := &RatingResult{
		Slug:  slug,
		Stats: book.Stats(),
	}
	if userID != "" {
		result.UserRating = book.UserRating(userID)
	}
	return result, nil
}
