package domain

import (
	"bytes"
	"encoding/json/v2"
	"time"
)

// Comment is one node of a book's discussion tree. Replies nest arbitrarily
// deep under the Replies map; the map key equals the child's ID. IDs are only
// guaranteed unique within one parent's map, so the comment path disambiguates
// identical IDs on different branches.
type Comment struct {
	ID           string              `json:"id"`
	Text         string              `json:"text"`
	AuthorID     string              `json:"author_id"`
	AuthorName   string              `json:"author_name,omitempty"`
	AuthorAvatar string              `json:"author_avatar,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	Likes        VoteSet             `json:"likes"`
	Dislikes     VoteSet             `json:"dislikes"`
	Replies      map[string]*Comment `json:"comments,omitempty"`
}

// ToggleVote applies one like/dislike press by userID and reports whether the
// comment changed. A user holds at most one of {like, dislike}; pressing the
// side they already hold clears it, pressing the other side moves them.
func (c *Comment) ToggleVote(userID string, isLike bool) bool {
	if userID == "" {
		return false
	}
	if c.Likes == nil {
		c.Likes = VoteSet{}
	}
	if c.Dislikes == nil {
		c.Dislikes = VoteSet{}
	}

	press, other := c.Likes, c.Dislikes
	if !isLike {
		press, other = c.Dislikes, c.Likes
	}

	delete(other, userID)
	if press[userID] {
		delete(press, userID)
	} else {
		press[userID] = true
	}
	return true
}

// HasLiked reports whether userID currently likes this comment.
func (c *Comment) HasLiked(userID string) bool { return c.Likes[userID] }

// HasDisliked reports whether userID currently dislikes this comment.
func (c *Comment) HasDisliked(userID string) bool { return c.Dislikes[userID] }

// VoteSet is the set of user IDs that pressed one side of a comment's vote
// controls. On the wire an empty set is encoded as the numeral 0 rather than
// an empty object: the original store collapses empty maps into absence, and
// the sentinel keeps "no voters" distinguishable from "not loaded". Both forms
// decode back to an empty set.
type VoteSet map[string]bool

var zeroLiteral = []byte("0")

// MarshalJSON encodes the set as {"uid":true,...}, or the sentinel 0 when empty.
func (v VoteSet) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return zeroLiteral, nil
	}
	return json.Marshal(map[string]bool(v))
}

// UnmarshalJSON accepts an object of userID -> true, the sentinel 0, or null.
func (v *VoteSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, zeroLiteral) || bytes.Equal(data, []byte("null")) {
		*v = VoteSet{}
		return nil
	}
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	// Drop explicit false entries so set membership equals map presence.
	for id, pressed := range m {
		if !pressed {
			delete(m, id)
		}
	}
	*v = m
	return nil
}

// Contains reports set membership.
func (v VoteSet) Contains(userID string) bool { return v[userID] }

// Count returns the number of voters.
func (v VoteSet) Count() int { return len(v) }
