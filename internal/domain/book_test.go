package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Recompute(t *testing.T) {
	b := &Book{
		Slug:    "el-principito",
		Ratings: map[string]int{"u1": 5, "u2": 3, "u3": 4},
	}

	stats := b.Stats()
	assert.Equal(t, 3, stats.Votes)
	assert.Equal(t, 12, stats.Total)
	assert.InDelta(t, 4.0, stats.Average, 0.0001)
}

func TestStats_EmptyRatings(t *testing.T) {
	b := &Book{Slug: "sin-votos"}

	stats := b.Stats()
	assert.Equal(t, 0, stats.Votes)
	assert.Equal(t, 0.0, stats.Average)
}

func TestApplyVote_NewVoter(t *testing.T) {
	b := &Book{Ratings: map[string]int{"u1": 5, "u2": 3}}
	stats := b.Stats()

	// u3 votes for the first time; the incremental summary must match
	// a full recompute over the updated map.
	stats.ApplyVote(0, 4)
	b.Ratings["u3"] = 4

	assert.Equal(t, b.Stats(), stats)
}

func TestApplyVote_ChangedVote(t *testing.T) {
	b := &Book{Ratings: map[string]int{"u1": 5, "u2": 3}}
	stats := b.Stats()

	stats.ApplyVote(3, 1)
	b.Ratings["u2"] = 1

	assert.Equal(t, b.Stats(), stats)
}

func TestValidRating(t *testing.T) {
	assert.False(t, ValidRating(0))
	assert.True(t, ValidRating(1))
	assert.True(t, ValidRating(5))
	assert.False(t, ValidRating(6))
	assert.False(t, ValidRating(-1))
}

func TestRemoveDownload(t *testing.T) {
	b := &Book{
		Downloads: []Download{
			{ID: "dl-1", Type: "pdf", URL: "https://example.com/a.pdf"},
			{ID: "dl-2", Type: "epub", URL: "https://example.com/a.epub"},
		},
	}

	assert.True(t, b.RemoveDownload("dl-1"))
	assert.Len(t, b.Downloads, 1)
	assert.Nil(t, b.GetDownload("dl-1"))
	assert.NotNil(t, b.GetDownload("dl-2"))

	assert.False(t, b.RemoveDownload("dl-1"))
}
