// Package sse implements Server-Sent Events for real-time catalog updates and event broadcasting.
package sse

import (
	"time"

	"github.com/pawclub/pawclub-server/internal/domain"
)

// SSE covers all server-to-client communication in Paw Club.
// Client interactions follow a request/response pattern, so there is
// no need for bidirectional transport like WebSockets.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventBookCreated represents a book creation event.
	EventBookCreated EventType = "book.created"
	// EventBookUpdated represents a book update event.
	EventBookUpdated EventType = "book.updated"
	// EventBookDeleted represents a book deletion event.
	EventBookDeleted EventType = "book.deleted"

	// EventRatingUpdated represents a paw rating change on a book.
	EventRatingUpdated EventType = "rating.updated"

	// EventCommentCreated represents a new comment or reply.
	EventCommentCreated EventType = "comment.created"
	// EventCommentVoted represents a like/dislike toggle on a comment.
	EventCommentVoted EventType = "comment.voted"

	// EventUserRegistered represents a new member registration.
	// Only sent to admin users.
	EventUserRegistered EventType = "user.registered"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`

	// Filtering fields for targeted delivery.
	// When set, events are only delivered to clients matching these criteria.
	// Empty string means "broadcast to all".
	UserID  string `json:"-"` // Filter to specific user (not sent to client)
	BookKey string `json:"-"` // Filter to clients watching a specific book (not sent to client)
}

// BookEventData is the data payload for book events.
type BookEventData struct {
	Book *domain.Book `json:"book"`
}

// BookDeletedEventData is the data payload for book delete events.
type BookDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	Slug      string    `json:"slug"`
}

// RatingEventData is the data payload for rating events.
// Carries the recomputed aggregate so clients can render without a refetch.
type RatingEventData struct {
	Slug   string             `json:"slug"`
	UserID string             `json:"user_id"`
	Rating int                `json:"rating"`
	Stats  domain.RatingStats `json:"stats"`
}

// CommentEventData is the data payload for comment creation events.
type CommentEventData struct {
	BookKey string          `json:"book_key"`
	Path    []string        `json:"path"` // Ancestor comment IDs, root first
	Comment *domain.Comment `json:"comment"`
}

// CommentVoteEventData is the data payload for comment vote events.
type CommentVoteEventData struct {
	BookKey   string `json:"book_key"`
	CommentID string `json:"comment_id"`
	UserID    string `json:"user_id"`
	Likes     int    `json:"likes"`
	Dislikes  int    `json:"dislikes"`
}

// UserRegisteredEventData is the data payload for user registration events.
// The record is trimmed to public profile fields; credentials stored on the
// user record must never reach the wire.
type UserRegisteredEventData struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewBookCreatedEvent creates a book.created event.
func NewBookCreatedEvent(book *domain.Book) Event {
	return Event{
		Type:      EventBookCreated,
		Data:      BookEventData{Book: book},
		Timestamp: time.Now(),
	}
}

// NewBookUpdatedEvent creates a book.updated event.
func NewBookUpdatedEvent(book *domain.Book) Event {
	return Event{
		Type:      EventBookUpdated,
		Data:      BookEventData{Book: book},
		Timestamp: time.Now(),
	}
}

// NewBookDeletedEvent creates a book.deleted event.
func NewBookDeletedEvent(slug string, deletedAt time.Time) Event {
	return Event{
		Type: EventBookDeleted,
		Data: BookDeletedEventData{
			Slug:      slug,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
	}
}

// NewRatingUpdatedEvent creates a rating.updated event.
func NewRatingUpdatedEvent(slug, userID string, rating int, stats domain.RatingStats) Event {
	return Event{
		Type: EventRatingUpdated,
		Data: RatingEventData{
			Slug:   slug,
			UserID: userID,
			Rating: rating,
			Stats:  stats,
		},
		Timestamp: time.Now(),
		BookKey:   slug,
	}
}

// NewCommentCreatedEvent creates a comment.created event.
// path holds the ancestor comment IDs from root to parent; empty for root comments.
func NewCommentCreatedEvent(bookKey string, path []string, comment *domain.Comment) Event {
	return Event{
		Type: EventCommentCreated,
		Data: CommentEventData{
			BookKey: bookKey,
			Path:    path,
			Comment: comment,
		},
		Timestamp: time.Now(),
		BookKey:   bookKey,
	}
}

// NewCommentVotedEvent creates a comment.voted event.
func NewCommentVotedEvent(bookKey, commentID, userID string, likes, dislikes int) Event {
	return Event{
		Type: EventCommentVoted,
		Data: CommentVoteEventData{
			BookKey:   bookKey,
			CommentID: commentID,
			UserID:    userID,
			Likes:     likes,
			Dislikes:  dislikes,
		},
		Timestamp: time.Now(),
		BookKey:   bookKey,
	}
}

// NewUserRegisteredEvent creates a user.registered event for admin users.
func NewUserRegisteredEvent(user *domain.User) Event {
	return Event{
		Type: EventUserRegistered,
		Data: UserRegisteredEventData{
			ID:          user.ID,
			DisplayName: user.DisplayName,
			Email:       user.Email,
			AvatarURL:   user.AvatarURL,
			CreatedAt:   user.CreatedAt,
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
