package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRating(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateBook(ctx, testBook("dune", "Dune", time.Time{})))

	book, err := s.SetRating(ctx, "dune", "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, book.UserRating("u1"))

	// Second voter
	book, err = s.SetRating(ctx, "dune", "u2", 3)
	require.NoError(t, err)

	stats := book.Stats()
	assert.Equal(t, 2, stats.Votes)
	assert.Equal(t, 8, stats.Total)
	assert.InDelta(t, 4.0, stats.Average, 0.001)
}

func TestSetRating_OverwritesPreviousVote(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateBook(ctx, testBook("dune", "Dune", time.Time{})))

	_, err := s.SetRating(ctx, "dune", "u1", 2)
	require.NoError(t, err)

	book, err := s.SetRating(ctx, "dune", "u1", 4)
	require.NoError(t, err)

	stats := book.Stats()
	assert.Equal(t, 1, stats.Votes, "re-rating must not add a second vote")
	assert.Equal(t, 4, stats.Total)
	assert.InDelta(t, 4.0, stats.Average, 0.001)
}

func TestSetRating_BookNotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.SetRating(context.Background(), "ghost", "u1", 3)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestGetRatingStats(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateBook(ctx, testBook("dune", "Dune", time.Time{})))

	stats, err := s.GetRatingStats(ctx, "dune")
	require.NoError(t, err)
	assert.Zero(t, stats.Votes)

	_, err = s.SetRating(ctx, "dune", "u1", 5)
	require.NoError(t, err)

	stats, err = s.GetRatingStats(ctx, "dune")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Votes)
	assert.InDelta(t, 5.0, stats.Average, 0.001)
}
