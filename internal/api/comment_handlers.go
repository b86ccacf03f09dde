package api

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/pawclub/pawclub-server/internal/domain"
	domainerrors "github.com/pawclub/pawclub-server/internal/errors"
	"github.com/pawclub/pawclub-server/internal/service"
	"github.com/pawclub/pawclub-server/internal/store"
)

func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCommentTree",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{slug}/comments",
		Summary:     "Get comments",
		Description: "Returns the full discussion tree for a book",
		Tags:        []string{"Comments"},
	}, s.handleGetCommentTree)

	huma.Register(s.api, huma.Operation{
		OperationID: "addComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{slug}/comments",
		Summary:     "Add comment",
		Description: "Posts a comment or reply. parent_path holds the ancestor comment IDs from root to parent; empty for a root comment.",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "voteComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{slug}/comments/{id}/vote",
		Summary:     "Vote on comment",
		Description: "Toggles a like or dislike. Pressing the side already held clears it; pressing the other side moves the vote.",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleVoteComment)
}

// === DTOs ===

// CommentResponse is one node of the discussion tree in API responses.
// Voter identities stay server-side; only counts and the caller's own
// state go out.
type CommentResponse struct {
	ID           string                     `json:"id" doc:"Comment ID"`
	Text         string                     `json:"text" doc:"Comment text"`
	AuthorID     string                     `json:"author_id" doc:"Author user ID"`
	AuthorName   string                     `json:"author_name,omitempty" doc:"Author display name"`
	AuthorAvatar string                     `json:"author_avatar,omitempty" doc:"Author avatar URL"`
	CreatedAt    time.Time                  `json:"created_at" doc:"Creation timestamp"`
	Likes        int                        `json:"likes" doc:"Like count"`
	Dislikes     int                        `json:"dislikes" doc:"Dislike count"`
	HasLiked     bool                       `json:"has_liked,omitempty" doc:"Whether the caller likes this comment"`
	HasDisliked  bool                       `json:"has_disliked,omitempty" doc:"Whether the caller dislikes this comment"`
	Replies      map[string]CommentResponse `json:"comments,omitempty" doc:"Nested replies keyed by comment ID"`
}

// CommentTreeResponse contains a book's discussion tree.
type CommentTreeResponse struct {
	Slug     string                     `json:"slug" doc:"Book slug"`
	Comments map[string]CommentResponse `json:"comments" doc:"Root comments keyed by comment ID"`
}

// CommentTreeOutput wraps the comment tree response for Huma.
type CommentTreeOutput struct {
	Body CommentTreeResponse
}

// GetCommentTreeInput contains parameters for reading a book's comments.
type GetCommentTreeInput struct {
	Slug string `path:"slug" doc:"Book slug"`
}

// AddCommentRequest is the request body for posting a comment.
type AddCommentRequest struct {
	Text       string   `json:"text" validate:"required,max=10000" doc:"Comment text"`
	ParentPath []string `json:"parent_path,omitempty" doc:"Ancestor comment IDs from root to parent; empty for a root comment"`
}

// AddCommentInput wraps the add comment request for Huma.
type AddCommentInput struct {
	Authorization string `header:"Authorization"`
	Slug          string `path:"slug" doc:"Book slug"`
	Body          AddCommentRequest
}

// CommentOutput wraps a single comment response for Huma.
type CommentOutput struct {
	Body CommentResponse
}

// VoteCommentRequest is the request body for voting on a comment.
type VoteCommentRequest struct {
	Action     string   `json:"action" validate:"required,oneof=like dislike" doc:"Vote side: like or dislike"`
	ParentPath []string `json:"parent_path,omitempty" doc:"Ancestor comment IDs from root to the comment's parent"`
}

// VoteCommentInput wraps the vote request for Huma.
type VoteCommentInput struct {
	Authorization string `header:"Authorization"`
	Slug          string `path:"slug" doc:"Book slug"`
	ID            string `path:"id" doc:"Comment ID"`
	Body          VoteCommentRequest
}

// === Handlers ===

func (s *Server) handleGetCommentTree(ctx context.Context, input *GetCommentTreeInput) (*CommentTreeOutput, error) {
	userID, _ := GetUserID(ctx)

	tree, err := s.services.Comment.GetCommentTree(ctx, input.Slug)
	if err != nil {
		return nil, err
	}

	return &CommentTreeOutput{
		Body: CommentTreeResponse{
			Slug:     input.Slug,
			Comments: mapCommentTree(tree, userID),
		},
	}, nil
}

func (s *Server) handleAddComment(ctx context.Context, input *AddCommentInput) (*CommentOutput, error) {
	author, err := s.authenticateUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Comment.AddComment(ctx, input.Slug, author, service.AddCommentRequest{
		Text:       input.Body.Text,
		ParentPath: input.Body.ParentPath,
	})
	if err != nil {
		return nil, err
	}

	return &CommentOutput{Body: mapComment(comment, author.ID)}, nil
}

func (s *Server) handleVoteComment(ctx context.Context, input *VoteCommentInput) (*CommentOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	path := append(append([]string{}, input.Body.ParentPath...), input.ID)
	isLike := input.Body.Action == "like"

	comment, err := s.services.Comment.ToggleVote(ctx, input.Slug, path, userID, isLike)
	if err != nil {
		return nil, err
	}

	return &CommentOutput{Body: mapComment(comment, userID)}, nil
}

// handleCommentStream streams full-tree snapshots of one book's discussion
// over SSE. Every change re-sends the whole tree, so a client that missed
// intermediate states still converges on the latest one.
func (s *Server) handleCommentStream(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	userID, _ := s.identifyStreamClient(r)

	snapshots, err := s.services.Comment.Subscribe(r.Context(), slug)
	if err != nil {
		status := http.StatusInternalServerError
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			status = domainErr.HTTPStatus()
		} else if errors.Is(err, store.ErrBookNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	for tree := range snapshots {
		snapshot := CommentTreeResponse{
			Slug:     slug,
			Comments: mapCommentTree(tree, userID),
		}
		if err := writeSSEFrame(w, rc, "snapshot", snapshot); err != nil {
			// Client disconnect is normal here.
			s.logger.Info("comment stream client disconnected", "slug", slug)
			return
		}
	}
}

// writeSSEFrame writes one event/data frame and flushes it.
func writeSSEFrame(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if err := rc.SetWriteDeadline(time.Now().Add(60 * time.Second)); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		return err
	}
	return rc.Flush()
}

// === Helpers ===

func mapComment(c *domain.Comment, userID string) CommentResponse {
	resp := CommentResponse{
		ID:           c.ID,
		Text:         c.Text,
		AuthorID:     c.AuthorID,
		AuthorName:   c.AuthorName,
		AuthorAvatar: c.AuthorAvatar,
		CreatedAt:    c.CreatedAt,
		Likes:        c.Likes.Count(),
		Dislikes:     c.Dislikes.Count(),
	}
	if userID != "" {
		resp.HasLiked = c.HasLiked(userID)
		resp.HasDisliked = c.HasDisliked(userID)
	}
	if len(c.Replies) > 0 {
		resp.Replies = mapCommentTree(c.Replies, userID)
	}
	return resp
}

func mapCommentTree(tree map[string]*domain.Comment, userID string) map[string]CommentResponse {
	mapped := make(map[string]CommentResponse, len(tree))
	for id, c := range tree {
		mapped[id] = mapComment(c, userID)
	}
	return mapped
}
