package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pawclub/pawclub-server/internal/domain"
	domainerrors "github.com/pawclub/pawclub-server/internal/errors"
	"github.com/pawclub/pawclub-server/internal/id"
	"github.com/pawclub/pawclub-server/internal/sse"
	"github.com/pawclub/pawclub-server/internal/store"
)

// CommentService handles the discussion tree under each book.
type CommentService struct {
	store      *store.Store
	sseManager *sse.Manager
	logger     *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(store *store.Store, sseManager *sse.Manager, logger *slog.Logger) *CommentService {
	return &CommentService{
		store:      store,
		sseManager: sseManager,
		logger:     logger,
	}
}

// AddCommentRequest is the input for posting a comment or reply.
// ParentPath names the chain of ancestor comment IDs from the root;
// empty means a top-level comment.
type AddCommentRequest struct {
	Text       string   `json:"text" validate:"required,max=10000"`
	ParentPath []string `json:"parent_path" validate:"omitempty,dive,required"`
}

// AddComment posts a comment by the given author. The ID is generated
// here and vote sets start empty regardless of what the caller sent.
func (s *CommentService) AddComment(ctx context.Context, slug string, author *domain.User, req AddCommentRequest) (*domain.Comment, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:           id.Comment(),
		Text:         req.Text,
		AuthorID:     author.ID,
		AuthorName:   author.Name(),
		AuthorAvatar: author.AvatarURL,
		CreatedAt:    time.Now(),
		Likes:        domain.VoteSet{},
		Dislikes:     domain.VoteSet{},
	}

	if err := s.store.AddComment(ctx, slug, req.ParentPath, comment); err != nil {
		switch {
		case errors.Is(err, store.ErrBookNotFound):
			return nil, domainerrors.NotFoundf("book %q not found", slug)
		case errors.Is(err, store.ErrCommentNotFound):
			return nil, domainerrors.NotFound("parent comment not found").WithCause(err)
		}
		return nil, fmt.Errorf("add comment: %w", err)
	}

	s.logger.Info("comment posted",
		"slug", slug,
		"comment_id", comment.ID,
		"author_id", author.ID,
		"depth", len(req.ParentPath),
	)
	return comment, nil
}

// GetCommentTree returns the full discussion tree for a book, root
// comments keyed by ID with replies nested underneath.
func (s *CommentService) GetCommentTree(ctx context.Context, slug string) (map[string]*domain.Comment, error) {
	if _, err := s.store.GetBook(ctx, slug); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, domainerrors.NotFoundf("book %q not found", slug)
		}
		return nil, err
	}
	return s.store.GetCommentTree(ctx, slug)
}

// ToggleVote applies one like/dislike press by userID on the comment at
// path (ancestor IDs plus the comment's own ID). Pressing the side the
// user already holds clears it; pressing the other side moves them.
func (s *CommentService) ToggleVote(ctx context.Context, slug string, path []string, userID string, isLike bool) (*domain.Comment, error) {
	if len(path) == 0 {
		return nil, domainerrors.Validation("comment path is required")
	}

	comment, err := s.store.ToggleCommentVote(ctx, slug, path, userID, isLike)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrBookNotFound):
			return nil, domainerrors.NotFoundf("book %q not found", slug)
		case errors.Is(err, store.ErrCommentNotFound):
			return nil, domainerrors.NotFound("comment not found").WithCause(err)
		}
		return nil, fmt.Errorf("toggle vote: %w", err)
	}
	return comment, nil
}

// Subscribe delivers the full root-comment snapshot of a book's tree on
// every comment change, starting with the current state. The channel
// closes when ctx is canceled or the server shuts down. Slow consumers
// skip intermediate snapshots; the latest state always gets through.
func (s *CommentService) Subscribe(ctx context.Context, slug string) (<-chan map[string]*domain.Comment, error) {
	if _, err := s.store.GetBook(ctx, slug); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, domainerrors.NotFoundf("book %q not found", slug)
		}
		return nil, err
	}

	client, err := s.sseManager.Connect("", slug, false)
	if err != nil {
		return nil, fmt.Errorf("register comment subscriber: %w", err)
	}

	snapshots := make(chan map[string]*domain.Comment, 1)

	initial, err := s.store.GetCommentTree(ctx, slug)
	if err != nil {
		s.sseManager.Disconnect(client.ID)
		return nil, err
	}
	snapshots <- initial

	go func() {
		defer close(snapshots)
		defer s.sseManager.Disconnect(client.ID)

		for {
			select {
			case event, ok := <-client.EventChan:
				if !ok {
					return
				}
				if event.Type != sse.EventCommentCreated && event.Type != sse.EventCommentVoted {
					continue
				}

				tree, err := s.store.GetCommentTree(ctx, slug)
				if err != nil {
					s.logger.Warn("failed to read comment tree for subscriber",
						"slug", slug,
						"error", err,
					)
					continue
				}

				// Drop the stale pending snapshot so the buffer always
				// holds the newest state.
				select {
				case snapshots <- tree:
				default:
					select {
					case <-snapshots:
					default:
					}
					select {
					case snapshots <- tree:
					default:
					}
				}

			case <-client.Done:
				return

			case <-ctx.Done():
				return
			}
		}
	}()

	return snapshots, nil
}
