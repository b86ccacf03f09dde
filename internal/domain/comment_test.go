package domain

import (
	"encoding/json/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestComment() *Comment {
	return &Comment{
		ID:        "comment_1",
		Text:      "great chapter",
		AuthorID:  "user-1",
		CreatedAt: time.Now(),
		Likes:     VoteSet{},
		Dislikes:  VoteSet{},
	}
}

func TestToggleVote_Like(t *testing.T) {
	c := newTestComment()

	c.ToggleVote("user-2", true)
	assert.True(t, c.HasLiked("user-2"))
	assert.False(t, c.HasDisliked("user-2"))
	assert.Equal(t, 1, c.Likes.Count())
}

func TestToggleVote_MutualExclusion(t *testing.T) {
	c := newTestComment()

	// Like, then dislike: the like must be cleared.
	c.ToggleVote("user-2", true)
	c.ToggleVote("user-2", false)

	assert.False(t, c.HasLiked("user-2"))
	assert.True(t, c.HasDisliked("user-2"))

	// And back again.
	c.ToggleVote("user-2", true)
	assert.True(t, c.HasLiked("user-2"))
	assert.False(t, c.HasDisliked("user-2"))
}

func TestToggleVote_TwiceReturnsToInitialState(t *testing.T) {
	c := newTestComment()

	c.ToggleVote("user-2", true)
	c.ToggleVote("user-2", true)

	assert.Equal(t, 0, c.Likes.Count())
	assert.Equal(t, 0, c.Dislikes.Count())

	c.ToggleVote("user-2", false)
	c.ToggleVote("user-2", false)

	assert.Equal(t, 0, c.Likes.Count())
	assert.Equal(t, 0, c.Dislikes.Count())
}

func TestToggleVote_NeverBothSides(t *testing.T) {
	c := newTestComment()

	// Arbitrary press sequence for one user.
	presses := []bool{true, false, false, true, true, false}
	for _, isLike := range presses {
		c.ToggleVote("user-3", isLike)
		both := c.HasLiked("user-3") && c.HasDisliked("user-3")
		assert.False(t, both, "user must never hold like and dislike at once")
	}
}

func TestToggleVote_EmptyUserIgnored(t *testing.T) {
	c := newTestComment()
	assert.False(t, c.ToggleVote("", true))
	assert.Equal(t, 0, c.Likes.Count())
}

func TestVoteSet_MarshalEmptyAsSentinelZero(t *testing.T) {
	c := newTestComment()

	data, err := json.Marshal(c)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"likes":0`)
	assert.Contains(t, string(data), `"dislikes":0`)
}

func TestVoteSet_UnmarshalSentinelZero(t *testing.T) {
	var c Comment
	err := json.Unmarshal([]byte(`{"id":"comment_1","text":"hi","likes":0,"dislikes":0}`), &c)
	require.NoError(t, err)

	assert.NotNil(t, c.Likes)
	assert.Equal(t, 0, c.Likes.Count())
	assert.Equal(t, 0, c.Dislikes.Count())
}

func TestVoteSet_RoundTrip(t *testing.T) {
	c := newTestComment()
	c.ToggleVote("user-2", true)
	c.ToggleVote("user-3", false)

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded Comment
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.True(t, decoded.HasLiked("user-2"))
	assert.True(t, decoded.HasDisliked("user-3"))
}

func TestVoteSet_UnmarshalDropsFalseEntries(t *testing.T) {
	var v VoteSet
	require.NoError(t, json.Unmarshal([]byte(`{"a":true,"b":false}`), &v))

	assert.True(t, v.Contains("a"))
	assert.False(t, v.Contains("b"))
	assert.Equal(t, 1, v.Count())
}

func TestComment_NestedReplies(t *testing.T) {
	c := newTestComment()
	c.Replies = map[string]*Comment{
		"comment_2": {
			ID:   "comment_2",
			Text: "reply",
			Replies: map[string]*Comment{
				"comment_3": {ID: "comment_3", Text: "nested reply"},
			},
		},
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded Comment
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded.Replies, "comment_2")
	assert.Contains(t, decoded.Replies["comment_2"].Replies, "comment_3")
}
