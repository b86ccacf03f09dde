package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) addComment(t *testing.T, token, slug, text string, parentPath []string) CommentResponse {
	t.Helper()

	body := map[string]any{"text": text}
	if len(parentPath) > 0 {
		body["parent_path"] = parentPath
	}

	resp := ts.api.Post("/api/v1/books/"+slug+"/comments", "Authorization: Bearer "+token, body)
	require.Equal(t, http.StatusOK, resp.Code, "add comment: %s", resp.Body.String())

	var envelope testEnvelope[CommentResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestAddComment_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	slug := ts.createBook(t, adminToken, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	resp := ts.api.Post("/api/v1/books/"+slug+"/comments", map[string]any{"text": "great read"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAddComment_RootAndReply(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	slug := ts.createBook(t, adminToken, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	anaToken, anaID := ts.registerMember(t, "ana@example.com", "Ana")
	root := ts.addComment(t, anaToken, slug, "loved the worldbuilding", nil)
	assert.Equal(t, anaID, root.AuthorID)
	assert.Equal(t, "Ana", root.AuthorName)

	bobToken, _ := ts.registerMember(t, "bob@example.com", "Bob")
	reply := ts.addComment(t, bobToken, slug, "the sandworms especially", []string{root.ID})
	nested := ts.addComment(t, anaToken, slug, "agreed", []string{root.ID, reply.ID})

	resp := ts.api.Get("/api/v1/books/" + slug + "/comments")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[CommentTreeResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, slug, envelope.Data.Slug)

	gotRoot, ok := envelope.Data.Comments[root.ID]
	require.True(t, ok, "root comment present")
	gotReply, ok := gotRoot.Replies[reply.ID]
	require.True(t, ok, "reply nested under root")
	gotNested, ok := gotReply.Replies[nested.ID]
	require.True(t, ok, "third level nested under reply")
	assert.Equal(t, "agreed", gotNested.Text)
}

func TestAddComment_UnknownParent(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	slug := ts.createBook(t, adminToken, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	resp := ts.api.Post("/api/v1/books/"+slug+"/comments", "Authorization: Bearer "+adminToken, map[string]any{
		"text":        "orphan",
		"parent_path": []string{"nope"},
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestVoteComment_Toggles(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	slug := ts.createBook(t, adminToken, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	anaToken, _ := ts.registerMember(t, "ana@example.com", "Ana")
	comment := ts.addComment(t, anaToken, slug, "loved it", nil)

	bobToken, _ := ts.registerMember(t, "bob@example.com", "Bob")
	votePath := "/api/v1/books/" + slug + "/comments/" + comment.ID + "/vote"

	vote := func(token, action string) CommentResponse {
		resp := ts.api.Post(votePath, "Authorization: Bearer "+token, map[string]any{"action": action})
		require.Equal(t, http.StatusOK, resp.Code, "vote %s: %s", action, resp.Body.String())
		var envelope testEnvelope[CommentResponse]
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
		return envelope.Data
	}

	got := vote(bobToken, "like")
	assert.Equal(t, 1, got.Likes)
	assert.True(t, got.HasLiked)

	// Switching sides moves the vote, it never double-counts.
	got = vote(bobToken, "dislike")
	assert.Equal(t, 0, got.Likes)
	assert.Equal(t, 1, got.Dislikes)
	assert.False(t, got.HasLiked)
	assert.True(t, got.HasDisliked)

	// Pressing the held side again clears it.
	got = vote(bobToken, "dislike")
	assert.Equal(t, 0, got.Dislikes)
	assert.False(t, got.HasDisliked)
}

func TestVoteComment_NestedPath(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	slug := ts.createBook(t, adminToken, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	anaToken, _ := ts.registerMember(t, "ana@example.com", "Ana")
	root := ts.addComment(t, anaToken, slug, "root", nil)
	reply := ts.addComment(t, anaToken, slug, "reply", []string{root.ID})

	resp := ts.api.Post("/api/v1/books/"+slug+"/comments/"+reply.ID+"/vote", "Authorization: Bearer "+anaToken, map[string]any{
		"action":      "like",
		"parent_path": []string{root.ID},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[CommentResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, reply.ID, envelope.Data.ID)
	assert.Equal(t, 1, envelope.Data.Likes)
}

func TestVoteComment_UnknownComment(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	adminToken, _ := ts.registerAdmin(t, "admin@example.com", "Admin")
	slug := ts.createBook(t, adminToken, map[string]any{"title": "Dune", "author": "Frank Herbert"})

	resp := ts.api.Post("/api/v1/books/"+slug+"/comments/missing/vote", "Authorization: Bearer "+adminToken, map[string]any{"action": "like"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetComments_UnknownBook(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/books/missing/comments")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
