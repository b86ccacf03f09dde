package store

import (
	"context"

	"github.com/pawclub/pawclub-server/internal/domain"
	"github.com/pawclub/pawclub-server/internal/sse"
)

// Rating Operations

// SetRating records a user's paw rating for a book inside a single
// transaction and returns the updated book. Two members rating at the
// same moment serialize through the transaction, so neither vote is lost.
func (s *Store) SetRating(ctx context.Context, slug, userID string, rating int) (*domain.Book, error) {
	book, err := s.MutateBook(ctx, slug, func(b *domain.Book) error {
		if b.Ratings == nil {
			b.Ratings = make(map[string]int)
		}
		b.Ratings[userID] = rating
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("rating recorded",
			"slug", slug,
			"user_id", userID,
			"rating", rating,
		)
	}

	s.eventEmitter.Emit(sse.NewRatingUpdatedEvent(slug, userID, rating, book.Stats()))
	return book, nil
}

// GetRatingStats returns the aggregate rating stats for a book.
func (s *Store) GetRatingStats(ctx context.Context, slug string) (domain.RatingStats, error) {
	book, err := s.GetBook(ctx, slug)
	if err != nil {
		return domain.RatingStats{}, err
	}
	return book.Stats(), nil
}
