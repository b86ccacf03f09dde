// Package domain contains the core business entities and domain logic for the Paw Club reading catalog.
package domain

import "time"

// Book represents one catalog entry in the reading club.
// The slug is derived from the title exactly once at creation time and is
// the book's storage key; it never changes afterwards.
type Book struct {
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Author      string         `json:"author"`
	Category    string         `json:"category,omitempty"`
	Description string         `json:"description,omitempty"`
	PubYear     int            `json:"pubyear,omitempty"`
	Week        string         `json:"week,omitempty"` // reading week label, e.g. "Semana 12"
	CoverURL    string         `json:"cover_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Downloads   []Download     `json:"downloads,omitempty"`
	Ratings     map[string]int `json:"ratings,omitempty"` // userID -> paws (1..5)
}

// Download is a downloadable resource attached to a book (pdf, epub, audiobook link).
type Download struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Rating bounds for the paw scale.
const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether r is inside the paw scale.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Touch updates the UpdatedAt timestamp to the current time.
func (b *Book) Touch() {
	b.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// CreatedAt is only defaulted when the caller didn't supply one,
// since imports may carry their original creation time.
func (b *Book) InitTimestamps() {
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// GetDownload finds a download resource by ID.
func (b *Book) GetDownload(id string) *Download {
	for i := range b.Downloads {
		if b.Downloads[i].ID == id {
			return &b.Downloads[i]
		}
	}
	return nil
}

// RemoveDownload removes a download resource by ID.
// Returns true if a resource was removed.
func (b *Book) RemoveDownload(id string) bool {
	for i := range b.Downloads {
		if b.Downloads[i].ID == id {
			b.Downloads = append(b.Downloads[:i], b.Downloads[i+1:]...)
			return true
		}
	}
	return false
}

// RatingStats summarizes the ratings map of a book.
// Average is always recomputable from the map; this is the authoritative form.
type RatingStats struct {
	Votes   int     `json:"votes"`
	Total   int     `json:"total"`
	Average float64 `json:"average"`
}

// Stats recomputes vote count, total and average from the full ratings map.
func (b *Book) Stats() RatingStats {
	stats := RatingStats{}
	for _, r := range b.Ratings {
		stats.Votes++
		stats.Total += r
	}
	if stats.Votes > 0 {
		stats.Average = float64(stats.Total) / float64(stats.Votes)
	}
	return stats
}

// UserRating returns the rating a user gave this book, or 0 if they haven't voted.
func (b *Book) UserRating(userID string) int {
	return b.Ratings[userID]
}

// ApplyVote updates the summary incrementally for a single user changing their
// vote from oldRating (0 if they hadn't voted) to newRating. This is a display
// optimization for clients that already hold a summary; it must converge to the
// value Stats() would recompute from the full map.
func (s *RatingStats) ApplyVote(oldRating, newRating int) {
	if oldRating == 0 {
		s.Votes++
	}
	s.Total += newRating - oldRating
	if s.Votes > 0 {
		s.Average = float64(s.Total) / float64(s.Votes)
	} else {
		s.Average = 0
	}
}
