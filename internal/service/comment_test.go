package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawclub/pawclub-server/internal/domain"
	domainerrors "github.com/pawclub/pawclub-server/internal/errors"
	"github.com/pawclub/pawclub-server/internal/sse"
	"github.com/pawclub/pawclub-server/internal/store"
)

// setupCommentService wires a store, a running SSE manager, and the
// comment service together the way the server does at startup.
func setupCommentService(t *testing.T) (*CommentService, *BookService) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "pawclub-comments-*")
	require.NoError(t, err)

	manager := sse.NewManager(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	st, err := store.New(tmpDir+"/db", nil, manager)
	require.NoError(t, err)

	t.Cleanup(func() {
		cancel()
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	})

	return NewCommentService(st, manager, testLogger()),
		NewBookService(st, nil, testLogger())
}

func commentAuthor() *domain.User {
	return &domain.User{
		ID:          "user-ana",
		DisplayName: "Ana",
		Email:       "ana@example.com",
		AvatarURL:   "https://cdn.example.com/ana.png",
	}
}

func TestAddComment_Root(t *testing.T) {
	comments, books := setupCommentService(t)
	ctx := context.Background()

	_, err := books.CreateBook(ctx, CreateBookRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	comment, err := comments.AddComment(ctx, "dune", commentAuthor(), AddCommentRequest{
		Text: "Loved the sandworms.",
	})
	require.NoError(t, err)

	assert.Contains(t, comment.ID, "comment_")
	assert.Equal(t, "user-ana", comment.AuthorID)
	assert.Equal(t, "Ana", comment.AuthorName)
	assert.Empty(t, comment.Likes)
	assert.Empty(t, comment.Dislikes)

	tree, err := comments.GetCommentTree(ctx, "dune")
	require.NoError(t, err)
	require.Contains(t, tree, comment.ID)
}

func TestAddComment_NestedReply(t *testing.T) {
	comments, books := setupCommentService(t)
	ctx := context.Background()

	_, err := books.CreateBook(ctx, CreateBookRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	root, err := comments.AddComment(ctx, "dune", commentAuthor(), AddCommentRequest{Text: "Root thought"})
	require.NoError(t, err)

	reply, err := comments.AddComment(ctx, "dune", commentAuthor(), AddCommentRequest{
		Text:       "Reply thought",
		ParentPath: []string{root.ID},
	})
	require.NoError(t, err)

	tree, err := comments.GetCommentTree(ctx, "dune")
	require.NoError(t, err)
	require.Contains(t, tree, root.ID)
	require.Contains(t, tree[root.ID].Replies, reply.ID)
}

func TestAddComment_MissingParent(t *testing.T) {
	comments, books := setupCommentService(t)
	ctx := context.Background()

	_, err := books.CreateBook(ctx, CreateBookRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	_, err = comments.AddComment(ctx, "dune", commentAuthor(), AddCommentRequest{
		Text:       "Orphan reply",
		ParentPath: []string{"comment_does-not-exist"},
	})

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeNotFound, domainErr.Code)
}

func TestAddComment_BookNotFound(t *testing.T) {
	comments, _ := setupCommentService(t)

	_, err := comments.AddComment(context.Background(), "ghost", commentAuthor(), AddCommentRequest{Text: "Hello"})
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeNotFound, domainErr.Code)
}

func TestToggleVote_MutualExclusion(t *testing.T) {
	comments, books := setupCommentService(t)
	ctx := context.Background()

	_, err := books.CreateBook(ctx, CreateBookRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	comment, err := comments.AddComment(ctx, "dune", commentAuthor(), AddCommentRequest{Text: "Vote on me"})
	require.NoError(t, err)
	path := []string{comment.ID}

	// Like.
	voted, err := comments.ToggleVote(ctx, "dune", path, "user-bob", true)
	require.NoError(t, err)
	assert.True(t, voted.HasLiked("user-bob"))

	// Switching to dislike clears the like.
	voted, err = comments.ToggleVote(ctx, "dune", path, "user-bob", false)
	require.NoError(t, err)
	assert.False(t, voted.HasLiked("user-bob"))
	assert.True(t, voted.HasDisliked("user-bob"))

	// Pressing dislike again toggles it off.
	voted, err = comments.ToggleVote(ctx, "dune", path, "user-bob", false)
	require.NoError(t, err)
	assert.False(t, voted.HasLiked("user-bob"))
	assert.False(t, voted.HasDisliked("user-bob"))
}

func TestToggleVote_EmptyPath(t *testing.T) {
	comments, _ := setupCommentService(t)

	_, err := comments.ToggleVote(context.Background(), "dune", nil, "user-bob", true)
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestSubscribe_DeliversSnapshotsOnChange(t *testing.T) {
	comments, books := setupCommentService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := books.CreateBook(ctx, CreateBookRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	snapshots, err := comments.Subscribe(ctx, "dune")
	require.NoError(t, err)

	// First delivery is the current (empty) state.
	initial := waitForSnapshot(t, snapshots)
	assert.Empty(t, initial)

	comment, err := comments.AddComment(ctx, "dune", commentAuthor(), AddCommentRequest{Text: "First!"})
	require.NoError(t, err)

	// The change arrives as a full tree snapshot, not a delta.
	next := waitForSnapshot(t, snapshots)
	require.Contains(t, next, comment.ID)
	assert.Equal(t, "First!", next[comment.ID].Text)

	// Votes re-deliver too.
	_, err = comments.ToggleVote(ctx, "dune", []string{comment.ID}, "user-bob", true)
	require.NoError(t, err)

	next = waitForSnapshot(t, snapshots)
	require.Contains(t, next, comment.ID)
	assert.True(t, next[comment.ID].HasLiked("user-bob"))
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	comments, books := setupCommentService(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := books.CreateBook(ctx, CreateBookRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	snapshots, err := comments.Subscribe(ctx, "dune")
	require.NoError(t, err)
	waitForSnapshot(t, snapshots)

	cancel()

	select {
	case _, ok := <-snapshots:
		assert.False(t, ok, "channel closes after cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot channel did not close after context cancel")
	}
}

func TestSubscribe_BookNotFound(t *testing.T) {
	comments, _ := setupCommentService(t)

	_, err := comments.Subscribe(context.Background(), "ghost")
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeNotFound, domainErr.Code)
}

func waitForSnapshot(t *testing.T, ch <-chan map[string]*domain.Comment) map[string]*domain.Comment {
	t.Helper()
	select {
	case snapshot, ok := <-ch:
		require.True(t, ok, "snapshot channel closed unexpectedly")
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for comment snapshot")
		return nil
	}
}
